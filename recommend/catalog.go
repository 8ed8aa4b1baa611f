package recommend

import "github.com/seo-optimizer/report-engine/compliance"

// Key selects a remediation template.
type Key struct {
	Field  string
	Status compliance.Status
}

// Template is the remediation text for one (field, status) pair. A "{value}"
// placeholder in Description is replaced with the verdict's measured value.
type Template struct {
	Title       string
	Description string
	Standard    string
}

// Catalog is the default template table.
var Catalog = map[Key]Template{
	{compliance.FieldTitle, compliance.Missing}: {
		Title:       "Add a title tag to your page",
		Description: "The page has no title. Write a unique, descriptive title of 30-60 characters.",
		Standard:    "Google Search Central: title links",
	},
	{compliance.FieldTitle, compliance.NeedsImprovement}: {
		Title:       "Adjust the title length",
		Description: "The title is {value} characters long. Keep it between 30 and 60 characters so it is not truncated.",
		Standard:    "Google Search Central: title links",
	},
	{compliance.FieldTitle, compliance.Invalid}: {
		Title:       "Fix the title tag",
		Description: "The title could not be read. Make sure the page declares exactly one plain-text title.",
		Standard:    "Google Search Central: title links",
	},

	{compliance.FieldMetaDescription, compliance.Missing}: {
		Title:       "Add a meta description",
		Description: "Summarize the page in 120-160 characters to control how it appears in search results.",
		Standard:    "Google Search Central: snippets",
	},
	{compliance.FieldMetaDescription, compliance.NeedsImprovement}: {
		Title:       "Adjust the meta description length",
		Description: "The meta description is {value} characters long. Aim for 120-160 characters.",
		Standard:    "Google Search Central: snippets",
	},
	{compliance.FieldMetaDescription, compliance.Invalid}: {
		Title:       "Fix the meta description",
		Description: "The meta description could not be read. Declare it as a single plain-text meta tag.",
		Standard:    "Google Search Central: snippets",
	},

	{compliance.FieldHeadingStructure, compliance.Missing}: {
		Title:       "Add an H1 heading",
		Description: "Give the page one H1 that states its main topic.",
		Standard:    "WCAG 2.1 SC 1.3.1 Info and Relationships",
	},
	{compliance.FieldHeadingStructure, compliance.NeedsImprovement}: {
		Title:       "Use exactly one H1 heading",
		Description: "Found {value} H1 headings. Keep a single H1 and demote the rest to H2 or H3.",
		Standard:    "WCAG 2.1 SC 1.3.1 Info and Relationships",
	},
	{compliance.FieldHeadingStructure, compliance.Invalid}: {
		Title:       "Fix the heading structure",
		Description: "The heading outline could not be read. Check that headings are real h1-h6 elements.",
		Standard:    "WCAG 2.1 SC 1.3.1 Info and Relationships",
	},
	{compliance.FieldSubheadings, compliance.Missing}: {
		Title:       "Break content up with H2 subheadings",
		Description: "Subheadings help readers and crawlers scan the page. Add H2 headings for each major section.",
		Standard:    "WCAG 2.1 SC 2.4.6 Headings and Labels",
	},

	{compliance.FieldImageOptimization, compliance.NeedsImprovement}: {
		Title:       "Add alt text to all images",
		Description: "Only some images describe themselves ({value}). Add meaningful alt text to the rest.",
		Standard:    "WCAG 2.1 SC 1.1.1 Non-text Content",
	},
	{compliance.FieldImageOptimization, compliance.Invalid}: {
		Title:       "Add alt text to all images",
		Description: "None of the page's images carry alt text. Describe every informative image and mark decorative ones with an empty alt.",
		Standard:    "WCAG 2.1 SC 1.1.1 Non-text Content",
	},

	{compliance.FieldHTTPS, compliance.NeedsImprovement}: {
		Title:       "Serve the page over HTTPS",
		Description: "The page is served over plain HTTP. Install a TLS certificate and redirect HTTP to HTTPS.",
		Standard:    "Google Search Central: HTTPS as a ranking signal",
	},
	{compliance.FieldHTTPS, compliance.Invalid}: {
		Title:       "Serve the page over HTTPS",
		Description: "The page URL does not use a web scheme. Publish it at an https:// address.",
		Standard:    "Google Search Central: HTTPS as a ranking signal",
	},
	{compliance.FieldViewport, compliance.Missing}: {
		Title:       "Add a viewport meta tag",
		Description: `Add <meta name="viewport" content="width=device-width, initial-scale=1"> for mobile optimization.`,
		Standard:    "Google Search Central: mobile-first indexing",
	},
	{compliance.FieldViewport, compliance.NeedsImprovement}: {
		Title:       "Make the viewport responsive",
		Description: "The viewport is set to \"{value}\". Use width=device-width so the layout adapts to the screen.",
		Standard:    "Google Search Central: mobile-first indexing",
	},

	{compliance.FieldLargestContentfulPaint, compliance.Missing}: {
		Title:       "Measure Core Web Vitals",
		Description: "No Largest Contentful Paint data was collected. Run a lab or field performance audit.",
		Standard:    "Core Web Vitals: LCP",
	},
	{compliance.FieldLargestContentfulPaint, compliance.NeedsImprovement}: {
		Title:       "Improve page speed",
		Description: "Largest Contentful Paint is {value} ms. Optimize images, preload the hero resource and reduce server response time to get under 2.5 s.",
		Standard:    "Core Web Vitals: LCP",
	},
	{compliance.FieldLargestContentfulPaint, compliance.Invalid}: {
		Title:       "Fix slow page loading",
		Description: "Largest Contentful Paint is {value} ms, well above the 4 s limit. Consider a CDN, server-side caching and smaller resources.",
		Standard:    "Core Web Vitals: LCP",
	},
	{compliance.FieldFirstInputDelay, compliance.Missing}: {
		Title:       "Measure Core Web Vitals",
		Description: "No First Input Delay data was collected. Run a field performance audit.",
		Standard:    "Core Web Vitals: FID",
	},
	{compliance.FieldFirstInputDelay, compliance.NeedsImprovement}: {
		Title:       "Improve page speed",
		Description: "First Input Delay is {value} ms. Split long JavaScript tasks to respond within 100 ms.",
		Standard:    "Core Web Vitals: FID",
	},
	{compliance.FieldFirstInputDelay, compliance.Invalid}: {
		Title:       "Reduce main-thread blocking",
		Description: "First Input Delay is {value} ms. Defer non-critical scripts and break up long tasks.",
		Standard:    "Core Web Vitals: FID",
	},
	{compliance.FieldCumulativeLayoutShift, compliance.Missing}: {
		Title:       "Measure Core Web Vitals",
		Description: "No Cumulative Layout Shift data was collected. Run a performance audit.",
		Standard:    "Core Web Vitals: CLS",
	},
	{compliance.FieldCumulativeLayoutShift, compliance.NeedsImprovement}: {
		Title:       "Stabilize the page layout",
		Description: "Cumulative Layout Shift is {value}. Reserve space for images, ads and embeds.",
		Standard:    "Core Web Vitals: CLS",
	},
	{compliance.FieldCumulativeLayoutShift, compliance.Invalid}: {
		Title:       "Stabilize the page layout",
		Description: "Cumulative Layout Shift is {value}, above the 0.25 limit. Set explicit dimensions on media and avoid inserting content above existing content.",
		Standard:    "Core Web Vitals: CLS",
	},

	{compliance.FieldWordCount, compliance.Missing}: {
		Title:       "Add more content",
		Description: "The page has no measurable body text. Aim for at least 300 words of useful content.",
		Standard:    "Google Search Central: helpful, people-first content",
	},
	{compliance.FieldWordCount, compliance.NeedsImprovement}: {
		Title:       "Add more content",
		Description: "The page has {value} words. Aim for at least 300 words of useful content.",
		Standard:    "Google Search Central: helpful, people-first content",
	},
	{compliance.FieldInternalLinks, compliance.Missing}: {
		Title:       "Add internal links",
		Description: "The page links to no other pages on the site. Add at least 3 relevant internal links.",
		Standard:    "Google Search Central: link best practices",
	},
	{compliance.FieldInternalLinks, compliance.NeedsImprovement}: {
		Title:       "Add internal links",
		Description: "The page has {value} internal links. Add more to improve site navigation (aim for at least 3-5).",
		Standard:    "Google Search Central: link best practices",
	},

	{compliance.FieldCanonical, compliance.Missing}: {
		Title:       "Declare a canonical URL",
		Description: `Add <link rel="canonical"> pointing at the preferred address of this page.`,
		Standard:    "RFC 6596 canonical link relation",
	},
	{compliance.FieldCanonical, compliance.NeedsImprovement}: {
		Title:       "Point the canonical URL at this page",
		Description: "The canonical link points to a different address. Make sure that is intended or point it at this page.",
		Standard:    "RFC 6596 canonical link relation",
	},
	{compliance.FieldCanonical, compliance.Invalid}: {
		Title:       "Use an absolute canonical URL",
		Description: "The canonical link is not an absolute URL. Include the scheme and host.",
		Standard:    "RFC 6596 canonical link relation",
	},
	{compliance.FieldRobots, compliance.Missing}: {
		Title:       "Declare a robots meta tag",
		Description: `Add <meta name="robots" content="index, follow"> to state the indexing policy explicitly.`,
		Standard:    "Robots meta tag specification",
	},
	{compliance.FieldRobots, compliance.NeedsImprovement}: {
		Title:       "Allow crawlers to follow links",
		Description: "The robots directive is \"{value}\". Remove nofollow unless links must not pass authority.",
		Standard:    "Robots meta tag specification",
	},
	{compliance.FieldRobots, compliance.Invalid}: {
		Title:       "Allow search engines to index the page",
		Description: "The robots directive \"{value}\" blocks indexing. Remove noindex if the page should appear in search.",
		Standard:    "Robots meta tag specification",
	},
	{compliance.FieldBrokenLinks, compliance.NeedsImprovement}: {
		Title:       "Fix broken links",
		Description: "Found {value} broken link(s). Update or remove them.",
		Standard:    "Google Search Central: link best practices",
	},
	{compliance.FieldBrokenLinks, compliance.Invalid}: {
		Title:       "Fix broken links",
		Description: "Found {value} broken links. Audit outbound and internal links and repair or remove them.",
		Standard:    "Google Search Central: link best practices",
	},

	{compliance.FieldOpenGraph, compliance.Missing}: {
		Title:       "Add Open Graph tags",
		Description: "Add og:title, og:description and og:image so shared links render a rich preview.",
		Standard:    "Open Graph protocol",
	},
	{compliance.FieldOpenGraph, compliance.NeedsImprovement}: {
		Title:       "Complete the Open Graph tags",
		Description: "Some Open Graph tags are missing. Provide og:title, og:description and og:image.",
		Standard:    "Open Graph protocol",
	},
	{compliance.FieldStructuredData, compliance.Missing}: {
		Title:       "Add structured data",
		Description: "Describe the page with schema.org markup (JSON-LD) such as Organization, Article or Product.",
		Standard:    "Schema.org structured data",
	},
}

// Fallback is returned when every verdict is optimal.
var Fallback = []Recommendation{
	{
		Title:       "Keep content fresh",
		Description: "Review and update the page regularly so it stays accurate and relevant.",
		Priority:    Medium,
		Impact:      1,
		Standard:    "Google Search Central: helpful, people-first content",
	},
	{
		Title:       "Monitor Core Web Vitals",
		Description: "Track field performance data over time to catch regressions early.",
		Priority:    Low,
		Impact:      1,
		Standard:    "Core Web Vitals",
	},
	{
		Title:       "Earn links from authoritative sources",
		Description: "Promote the page to relevant sites to grow its backlink profile.",
		Priority:    Low,
		Impact:      1,
	},
}

// generic builds a template for pairs the catalog does not cover.
func generic(v compliance.Verdict) Template {
	label := v.Category.Label()
	t := Template{Standard: v.Standard}
	switch v.Status {
	case compliance.Missing:
		t.Title = "Provide " + v.Field + " data"
		t.Description = label + ": " + v.Field + " is missing."
	case compliance.Invalid:
		t.Title = "Fix " + v.Field
		t.Description = label + ": " + v.Field + " is invalid or outside acceptable limits."
	default:
		t.Title = "Improve " + v.Field
		t.Description = label + ": " + v.Field + " can be improved."
	}
	if v.Rule != "" {
		t.Description += " Target: " + v.Rule + "."
	}
	return t
}
