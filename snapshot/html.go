package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FromHTML builds a snapshot from an HTML document that has already been
// fetched by the caller. Performance, link health and AI fields are left nil
// since they cannot be derived from markup alone.
func FromHTML(pageURL string, r io.Reader) (*AnalysisSnapshot, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidSnapshot)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrInvalidSnapshot, err)
	}

	s := &AnalysisSnapshot{URL: pageURL}

	if sel := doc.Find("title").First(); sel.Length() > 0 {
		title := strings.TrimSpace(sel.Text())
		s.Title = &title
	}
	s.MetaDescription = metaContent(doc, "meta[name='description']")
	s.Robots = metaContent(doc, "meta[name='robots']")
	s.Viewport = metaContent(doc, "meta[name='viewport']")

	if href, exists := doc.Find("link[rel='canonical']").First().Attr("href"); exists {
		canonical := resolve(pageURL, strings.TrimSpace(href))
		s.CanonicalURL = &canonical
	}

	s.Headings = &Headings{
		H1: headingText(doc, "h1"),
		H2: headingText(doc, "h2"),
		H3: headingText(doc, "h3"),
	}

	s.Images = make([]Image, 0)
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		_, hasAlt := sel.Attr("alt")
		s.Images = append(s.Images, Image{Src: src, HasAlt: hasAlt})
	})

	words := len(strings.Fields(doc.Find("body").Text()))
	s.WordCount = NewValue(float64(words))

	s.Links = countLinks(doc, pageURL)
	s.OpenGraph = openGraph(doc)
	s.SchemaTypes = schemaTypes(doc)

	return s, nil
}

func metaContent(doc *goquery.Document, selector string) *string {
	content, exists := doc.Find(selector).First().Attr("content")
	if !exists {
		return nil
	}
	content = strings.TrimSpace(content)
	return &content
}

func headingText(doc *goquery.Document, tag string) []string {
	texts := make([]string, 0)
	doc.Find(tag).Each(func(_ int, sel *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(sel.Text()))
	})
	return texts
}

// countLinks classifies unique anchors as internal or external. Broken links
// need network checks, so Broken stays nil.
func countLinks(doc *goquery.Document, baseURL string) *LinkStats {
	stats := &LinkStats{}
	base, err := url.Parse(baseURL)
	if err != nil {
		return stats
	}

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		key := abs.String()
		if seen[key] {
			return
		}
		seen[key] = true

		if !strings.HasPrefix(abs.Scheme, "http") {
			return
		}
		if strings.EqualFold(abs.Host, base.Host) {
			stats.Internal++
		} else {
			stats.External++
		}
	})
	return stats
}

func openGraph(doc *goquery.Document) map[string]string {
	tags := make(map[string]string)
	doc.Find("meta[property^='og:']").Each(func(_ int, sel *goquery.Selection) {
		prop, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if content = strings.TrimSpace(content); content != "" {
			tags[strings.ToLower(prop)] = content
		}
	})
	return tags
}

// schemaTypes collects the @type values declared in JSON-LD blocks,
// including those nested under @graph.
func schemaTypes(doc *goquery.Document) []string {
	found := make(map[string]bool)
	doc.Find("script[type='application/ld+json']").Each(func(_ int, sel *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			return
		}
		collectTypes(payload, found)
	})

	types := make([]string, 0, len(found))
	for t := range found {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func collectTypes(node any, found map[string]bool) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			collectTypes(item, found)
		}
	case map[string]any:
		switch t := v["@type"].(type) {
		case string:
			found[t] = true
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					found[s] = true
				}
			}
		}
		if graph, ok := v["@graph"]; ok {
			collectTypes(graph, found)
		}
	}
}

func resolve(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
