package compliance

import (
	"errors"

	"github.com/seo-optimizer/report-engine/snapshot"
)

// TableVersion identifies the threshold table below. Bump it whenever a
// threshold or rule changes so stored reports can be traced to their rules.
const TableVersion = "1.0.0"

var errNotAbsolute = errors.New("url is not absolute")

// Rule binds a field to its extractor and judge.
type Rule struct {
	Field    string
	Category Category
	// Source is the top-level snapshot key the rule reads; a degraded source
	// makes the verdict invalid.
	Source      string
	Description string
	Standard    string
	Extract     func(s *snapshot.AnalysisSnapshot) Measurement
	Judge       Judge
}

// Table is the default threshold table. Each rule reads only the snapshot,
// so evaluation order never changes the result.
var Table = []Rule{
	{
		Field:       FieldTitle,
		Category:    CategoryTitle,
		Source:      "title",
		Description: "Title tag between 30 and 60 characters",
		Standard:    "Google Search Central: title links",
		Extract:     func(s *snapshot.AnalysisSnapshot) Measurement { return text(s.Title) },
		Judge:       LengthRange{Min: 30, Max: 60},
	},
	{
		Field:       FieldMetaDescription,
		Category:    CategoryMetaDescription,
		Source:      "metaDescription",
		Description: "Meta description between 120 and 160 characters",
		Standard:    "Google Search Central: snippets",
		Extract:     func(s *snapshot.AnalysisSnapshot) Measurement { return text(s.MetaDescription) },
		Judge:       LengthRange{Min: 120, Max: 160},
	},
	{
		Field:       FieldHeadingStructure,
		Category:    CategoryHeadingStructure,
		Source:      "headings",
		Description: "Exactly one H1 heading",
		Standard:    "WCAG 2.1 SC 1.3.1 Info and Relationships",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			if s.Headings == nil {
				return Measurement{}
			}
			return Measurement{Present: true, Value: len(s.Headings.H1)}
		},
		Judge: ExactCount{Want: 1},
	},
	{
		Field:       FieldSubheadings,
		Category:    CategoryHeadingStructure,
		Source:      "headings",
		Description: "At least one H2 subheading",
		Standard:    "WCAG 2.1 SC 2.4.6 Headings and Labels",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			if s.Headings == nil {
				return Measurement{}
			}
			return Measurement{Present: true, Value: len(s.Headings.H2)}
		},
		Judge: MinCount{Min: 1},
	},
	{
		Field:       FieldImageOptimization,
		Category:    CategoryImageOptimization,
		Source:      "images",
		Description: "Every image carries alt text",
		Standard:    "WCAG 2.1 SC 1.1.1 Non-text Content",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			if s.Images == nil {
				return Measurement{}
			}
			r := Ratio{Total: len(s.Images)}
			for _, img := range s.Images {
				if img.HasAlt {
					r.Covered++
				}
			}
			return Measurement{Present: true, Value: r}
		},
		Judge: Coverage{},
	},
	{
		Field:       FieldHTTPS,
		Category:    CategoryTechnicalSEO,
		Source:      "url",
		Description: "Page served over HTTPS",
		Standard:    "Google Search Central: HTTPS as a ranking signal",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			return Measurement{Present: s.URL != "", Value: s.URL}
		},
		Judge: Scheme{},
	},
	{
		Field:       FieldViewport,
		Category:    CategoryTechnicalSEO,
		Source:      "viewport",
		Description: "Viewport meta tag with width=device-width",
		Standard:    "Google Search Central: mobile-first indexing",
		Extract:     func(s *snapshot.AnalysisSnapshot) Measurement { return text(s.Viewport) },
		Judge:       Directive{Require: "width=device-width"},
	},
	{
		Field:       FieldLargestContentfulPaint,
		Category:    CategoryTechnicalSEO,
		Source:      "performance",
		Description: "Largest Contentful Paint at most 2500 ms (poor above 4000 ms)",
		Standard:    "Core Web Vitals: LCP",
		Extract: vital(func(w *snapshot.WebVitals) *snapshot.Value {
			return w.LargestContentfulPaintMs
		}),
		Judge: Ceiling{Good: 2500, Fair: 4000},
	},
	{
		Field:       FieldFirstInputDelay,
		Category:    CategoryTechnicalSEO,
		Source:      "performance",
		Description: "First Input Delay at most 100 ms (poor above 300 ms)",
		Standard:    "Core Web Vitals: FID",
		Extract: vital(func(w *snapshot.WebVitals) *snapshot.Value {
			return w.FirstInputDelayMs
		}),
		Judge: Ceiling{Good: 100, Fair: 300},
	},
	{
		Field:       FieldCumulativeLayoutShift,
		Category:    CategoryTechnicalSEO,
		Source:      "performance",
		Description: "Cumulative Layout Shift at most 0.1 (poor above 0.25)",
		Standard:    "Core Web Vitals: CLS",
		Extract: vital(func(w *snapshot.WebVitals) *snapshot.Value {
			return w.CumulativeLayoutShift
		}),
		Judge: Ceiling{Good: 0.1, Fair: 0.25},
	},
	{
		Field:       FieldWordCount,
		Category:    CategoryContentQuality,
		Source:      "wordCount",
		Description: "At least 300 words of body content",
		Standard:    "Google Search Central: helpful, people-first content",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			return Measurement{Present: s.WordCount != nil, Value: s.WordCount}
		},
		Judge: MinCount{Min: 300},
	},
	{
		Field:       FieldInternalLinks,
		Category:    CategoryContentQuality,
		Source:      "links",
		Description: "At least 3 internal links",
		Standard:    "Google Search Central: link best practices",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			if s.Links == nil {
				return Measurement{}
			}
			return Measurement{Present: true, Value: s.Links.Internal}
		},
		Judge: MinCount{Min: 3},
	},
	{
		Field:       FieldCanonical,
		Category:    CategoryIndexability,
		Source:      "canonicalUrl",
		Description: "Canonical URL present and matching the analyzed URL",
		Standard:    "RFC 6596 canonical link relation",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			if s.CanonicalURL == nil {
				return Measurement{}
			}
			return Measurement{Present: true, Value: URLPair{Declared: *s.CanonicalURL, Expected: s.URL}}
		},
		Judge: URLMatch{},
	},
	{
		Field:       FieldRobots,
		Category:    CategoryIndexability,
		Source:      "robots",
		Description: "Robots directive allows indexing and following",
		Standard:    "Robots meta tag specification",
		Extract:     func(s *snapshot.AnalysisSnapshot) Measurement { return text(s.Robots) },
		Judge:       Directive{Fail: []string{"noindex", "none"}, Warn: []string{"nofollow"}},
	},
	{
		Field:       FieldBrokenLinks,
		Category:    CategoryIndexability,
		Source:      "links",
		Description: "No broken links (poor above 5)",
		Standard:    "Google Search Central: link best practices",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			if s.Links == nil || s.Links.Broken == nil {
				return Measurement{}
			}
			return Measurement{Present: true, Value: *s.Links.Broken}
		},
		Judge: Ceiling{Good: 0, Fair: 5},
	},
	{
		Field:       FieldOpenGraph,
		Category:    CategorySocialOptimization,
		Source:      "openGraph",
		Description: "Open Graph title, description and image tags",
		Standard:    "Open Graph protocol",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			return Measurement{Present: s.OpenGraph != nil, Value: s.OpenGraph}
		},
		Judge: KeySet{Keys: []string{"og:title", "og:description", "og:image"}},
	},
	{
		Field:       FieldStructuredData,
		Category:    CategoryStructuredData,
		Source:      "schemaTypes",
		Description: "At least one schema.org type declared",
		Standard:    "Schema.org structured data",
		Extract: func(s *snapshot.AnalysisSnapshot) Measurement {
			present := s.SchemaTypes != nil
			types := make(map[string]bool)
			for _, t := range s.SchemaTypes {
				types[t] = true
			}
			if s.AI != nil && s.AI.SchemaTypes != nil {
				present = true
				for _, t := range s.AI.SchemaTypes {
					types[t] = true
				}
			}
			return Measurement{Present: present, Value: len(types)}
		},
		Judge: MinCount{Min: 1},
	},
}

func text(s *string) Measurement {
	if s == nil {
		return Measurement{}
	}
	return Measurement{Present: true, Value: *s}
}

// vital reads a web-vital metric from the mobile run, falling back to desktop.
func vital(pick func(*snapshot.WebVitals) *snapshot.Value) func(*snapshot.AnalysisSnapshot) Measurement {
	return func(s *snapshot.AnalysisSnapshot) Measurement {
		if s.Performance == nil {
			return Measurement{}
		}
		for _, run := range []*snapshot.PerformanceRun{s.Performance.Mobile, s.Performance.Desktop} {
			if run == nil || run.Metrics == nil {
				continue
			}
			if v := pick(run.Metrics); v != nil {
				return Measurement{Present: true, Value: v}
			}
		}
		return Measurement{}
	}
}

// CategoryOf returns the category a field belongs to in the default table.
func CategoryOf(field string) (Category, bool) {
	for _, r := range Table {
		if r.Field == field {
			return r.Category, true
		}
	}
	return "", false
}
