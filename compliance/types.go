// Package compliance turns a raw analysis snapshot into per-field verdicts
// using a declarative threshold table.
package compliance

// Status is the categorical outcome of evaluating one field.
type Status string

const (
	Optimal          Status = "optimal"
	NeedsImprovement Status = "needs_improvement"
	Missing          Status = "missing"
	Invalid          Status = "invalid"
)

// Statuses lists every status, best first.
var Statuses = []Status{Optimal, NeedsImprovement, Missing, Invalid}

// Category names a weighted group of fields.
type Category string

const (
	CategoryTitle              Category = "title"
	CategoryMetaDescription    Category = "metaDescription"
	CategoryHeadingStructure   Category = "headingStructure"
	CategoryImageOptimization  Category = "imageOptimization"
	CategoryTechnicalSEO       Category = "technicalSeo"
	CategoryContentQuality     Category = "contentQuality"
	CategoryIndexability       Category = "indexability"
	CategorySocialOptimization Category = "socialOptimization"
	CategoryStructuredData     Category = "structuredData"
)

// Categories lists the categories in report order.
var Categories = []Category{
	CategoryTitle,
	CategoryMetaDescription,
	CategoryHeadingStructure,
	CategoryImageOptimization,
	CategoryTechnicalSEO,
	CategoryContentQuality,
	CategoryIndexability,
	CategorySocialOptimization,
	CategoryStructuredData,
}

// Label returns the human-readable category name.
func (c Category) Label() string {
	switch c {
	case CategoryTitle:
		return "Title"
	case CategoryMetaDescription:
		return "Meta Description"
	case CategoryHeadingStructure:
		return "Heading Structure"
	case CategoryImageOptimization:
		return "Image Optimization"
	case CategoryTechnicalSEO:
		return "Technical SEO"
	case CategoryContentQuality:
		return "Content Quality"
	case CategoryIndexability:
		return "Indexability"
	case CategorySocialOptimization:
		return "Social Optimization"
	case CategoryStructuredData:
		return "Structured Data"
	}
	return string(c)
}

// Field identifiers, one per rule in the default table.
const (
	FieldTitle                  = "title"
	FieldMetaDescription        = "metaDescription"
	FieldHeadingStructure       = "headingStructure"
	FieldSubheadings            = "subheadings"
	FieldImageOptimization      = "imageOptimization"
	FieldHTTPS                  = "https"
	FieldViewport               = "viewport"
	FieldLargestContentfulPaint = "largestContentfulPaint"
	FieldFirstInputDelay        = "firstInputDelay"
	FieldCumulativeLayoutShift  = "cumulativeLayoutShift"
	FieldWordCount              = "wordCount"
	FieldInternalLinks          = "internalLinks"
	FieldCanonical              = "canonical"
	FieldRobots                 = "robots"
	FieldBrokenLinks            = "brokenLinks"
	FieldOpenGraph              = "openGraph"
	FieldStructuredData         = "structuredData"
)

// Verdict is the outcome of one rule against one snapshot.
type Verdict struct {
	Field    string   `json:"field"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`
	Value    any      `json:"value"`
	Rule     string   `json:"rule"`
	Standard string   `json:"standard,omitempty"`
	// Credit is the share of the field's points earned, in [0, 1].
	Credit float64 `json:"credit"`
}
