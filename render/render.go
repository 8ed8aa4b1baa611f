package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/seo-optimizer/report-engine/compliance"
	"github.com/seo-optimizer/report-engine/recommend"
	"github.com/seo-optimizer/report-engine/scoring"
	"github.com/seo-optimizer/report-engine/snapshot"
)

// DefaultMaxPerTier caps how many recommendations each priority tier shows.
const DefaultMaxPerTier = 5

const (
	colorBrand = "#1e3a8a"
	colorText  = "#111827"
	colorMuted = "#6b7280"
	colorPanel = "#f3f4f6"
	colorWhite = "#ffffff"
)

var statusColors = map[compliance.Status]string{
	compliance.Optimal:          "#16a34a",
	compliance.NeedsImprovement: "#d97706",
	compliance.Missing:          "#dc2626",
	compliance.Invalid:          "#dc2626",
}

var tierLabels = map[recommend.Priority]string{
	recommend.High:   "High priority",
	recommend.Medium: "Medium priority",
	recommend.Low:    "Low priority",
}

// Renderer builds report documents. Its clock is the only input besides the
// report data, so output is reproducible with a fixed Now.
type Renderer struct {
	Now        func() time.Time
	MaxPerTier int
	Brand      string
}

func NewRenderer() *Renderer {
	return &Renderer{
		Now:        time.Now,
		MaxPerTier: DefaultMaxPerTier,
		Brand:      "SEO Optimizer",
	}
}

// Render lays out the full report.
func (r *Renderer) Render(snap *snapshot.AnalysisSnapshot, verdicts []compliance.Verdict,
	b scoring.Breakdown, recs []recommend.Recommendation) *Document {
	if snap == nil {
		snap = &snapshot.AnalysisSnapshot{}
	}
	l := newLayout("SEO Report: " + Sanitize(snap.URL))

	r.header(l)
	r.identity(l, snap, b)
	r.categories(l, verdicts, b)
	r.issues(l, snap, b)
	if snap.AI != nil {
		r.aiFindings(l, snap.AI)
	}
	r.performance(l, snap.Performance)
	r.recommendations(l, recs)
	r.footer(l)

	return l.finish()
}

func heading(text string, size float64) Block {
	return Block{
		Kind:        KindHeading,
		Lines:       wrap(Sanitize(text), size, ContentWidth),
		FontSize:    size,
		Bold:        true,
		Color:       colorBrand,
		SpaceBefore: size,
	}
}

func paragraph(text string, size float64, color string, indent float64) Block {
	return Block{
		Kind:        KindText,
		Lines:       wrap(Sanitize(text), size, ContentWidth-indent),
		FontSize:    size,
		Color:       color,
		Indent:      indent,
		SpaceBefore: 2,
	}
}

func (r *Renderer) header(l *layout) {
	brand := r.Brand
	if brand == "" {
		brand = "SEO Optimizer"
	}
	l.emit(Block{
		Kind:     KindPanel,
		Lines:    []string{Sanitize(brand), "SEO Compliance Report"},
		FontSize: 20,
		Bold:     true,
		Color:    colorWhite,
		Fill:     colorBrand,
		Padding:  12,
	})
}

func (r *Renderer) identity(l *layout, snap *snapshot.AnalysisSnapshot, b scoring.Breakdown) {
	l.emit(heading("Site", 14))
	l.emit(paragraph("URL: "+snap.URL, 11, colorText, 0))
	if snap.Title != nil && strings.TrimSpace(*snap.Title) != "" {
		l.emit(paragraph("Title: "+*snap.Title, 11, colorText, 0))
	}

	color := b.GradeColor
	if color == "" {
		color = colorMuted
	}
	l.emit(Block{
		Kind:        KindPanel,
		Lines:       []string{fmt.Sprintf("Overall score: %d / 100", b.Overall), "Grade: " + Sanitize(b.Grade)},
		FontSize:    18,
		Bold:        true,
		Color:       colorWhite,
		Fill:        color,
		Padding:     10,
		SpaceBefore: 12,
	})
}

func (r *Renderer) categories(l *layout, verdicts []compliance.Verdict, b scoring.Breakdown) {
	l.emit(heading("Category Breakdown", 14))
	byCategory := make(map[compliance.Category][]compliance.Verdict)
	for _, v := range verdicts {
		byCategory[v.Category] = append(byCategory[v.Category], v)
	}
	for _, c := range b.Categories {
		progress := 0.0
		if c.MaxScore > 0 {
			progress = float64(c.Score) / float64(c.MaxScore)
		}
		l.emit(Block{
			Kind:        KindMeter,
			Lines:       []string{fmt.Sprintf("%s: %d / %d", Sanitize(c.Label), c.Score, c.MaxScore)},
			FontSize:    11,
			Bold:        true,
			Color:       colorText,
			Fill:        colorPanel,
			Progress:    progress,
			SpaceBefore: 6,
		})
		for _, v := range byCategory[c.Name] {
			p := paragraph(verdictLine(v), 9, statusColors[v.Status], 12)
			p.SpaceBefore = 0
			l.emit(p)
		}
	}
}

func verdictLine(v compliance.Verdict) string {
	line := fmt.Sprintf("%s: %s", v.Field, strings.ReplaceAll(string(v.Status), "_", " "))
	if s := displayValue(v.Value); s != "" {
		line += " (" + s + ")"
	}
	if v.Rule != "" {
		line += " - " + v.Rule
	}
	return line
}

func displayValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		if r := []rune(x); len(r) > 60 {
			return string(r[:57]) + "..."
		}
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case compliance.Ratio:
		return fmt.Sprintf("%d of %d", x.Covered, x.Total)
	case compliance.URLPair:
		return x.Declared
	}
	return fmt.Sprint(v)
}

func (r *Renderer) issues(l *layout, snap *snapshot.AnalysisSnapshot, b scoring.Breakdown) {
	l.emit(heading("Detected Issues", 14))
	if len(b.Issues) == 0 && len(snap.KnownIssues) == 0 {
		l.emit(paragraph("No critical issues detected.", 11, colorMuted, 0))
		return
	}
	for _, issue := range b.Issues {
		l.emit(paragraph("- "+issue, 11, colorText, 0))
	}
	for _, ki := range snap.KnownIssues {
		text := ki.Title
		if ki.Severity != "" {
			text = "[" + strings.ToUpper(ki.Severity) + "] " + text
		}
		if ki.Description != "" {
			text += ": " + ki.Description
		}
		l.emit(paragraph("- "+text, 11, colorText, 0))
	}
}

func (r *Renderer) aiFindings(l *layout, ai *snapshot.AIInsights) {
	l.emit(heading("AI Insights", 14))
	if ai.SearchIntent != "" {
		l.emit(paragraph("Search intent: "+ai.SearchIntent, 11, colorText, 0))
	}
	if f, ok := ai.CitationPotential.Float(); ok {
		l.emit(paragraph(fmt.Sprintf("Citation potential: %s / 100", strconv.FormatFloat(f, 'f', -1, 64)), 11, colorText, 0))
	}
	if len(ai.SemanticGaps) > 0 {
		l.emit(paragraph("Semantic gaps:", 11, colorText, 0))
		for _, g := range ai.SemanticGaps {
			l.emit(paragraph("- "+g, 10, colorText, 12))
		}
	}
	if len(ai.SchemaTypes) > 0 {
		l.emit(paragraph("Suggested schema types: "+strings.Join(ai.SchemaTypes, ", "), 11, colorText, 0))
	}
}

func (r *Renderer) performance(l *layout, perf *snapshot.Performance) {
	l.emit(heading("Performance", 14))
	if perf == nil || (perf.Desktop == nil && perf.Mobile == nil) {
		l.emit(paragraph("Performance data not available.", 11, colorMuted, 0))
		return
	}
	runs := []struct {
		name string
		run  *snapshot.PerformanceRun
	}{
		{"Mobile", perf.Mobile},
		{"Desktop", perf.Desktop},
	}
	for _, fr := range runs {
		if fr.run == nil {
			continue
		}
		score := "n/a"
		if f, ok := fr.run.Score.Float(); ok {
			score = strconv.FormatFloat(f, 'f', -1, 64) + " / 100"
		}
		l.emit(paragraph(fr.name+" score: "+score, 11, colorText, 0))
		if m := fr.run.Metrics; m != nil {
			l.emit(paragraph(fmt.Sprintf("LCP %s ms, FID %s ms, CLS %s",
				metric(m.LargestContentfulPaintMs), metric(m.FirstInputDelayMs), metric(m.CumulativeLayoutShift)),
				10, colorMuted, 12))
		}
	}
}

func metric(v *snapshot.Value) string {
	if f, ok := v.Float(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return "n/a"
}

func (r *Renderer) recommendations(l *layout, recs []recommend.Recommendation) {
	l.emit(heading("Recommendations", 14))
	maxPerTier := r.MaxPerTier
	if maxPerTier <= 0 {
		maxPerTier = DefaultMaxPerTier
	}
	for _, tier := range recommend.Priorities {
		var inTier []recommend.Recommendation
		for _, rec := range recs {
			if rec.Priority == tier {
				inTier = append(inTier, rec)
			}
		}
		if len(inTier) == 0 {
			continue
		}
		sub := heading(tierLabels[tier], 12)
		sub.Color = colorText
		l.emit(sub)
		for i, rec := range inTier {
			if i == maxPerTier {
				l.emit(Block{
					Kind:        KindNotice,
					Lines:       []string{fmt.Sprintf("+%d more %s recommendations", len(inTier)-maxPerTier, strings.ToLower(tierLabels[tier]))},
					FontSize:    10,
					Color:       colorMuted,
					SpaceBefore: 2,
				})
				break
			}
			title := paragraph(fmt.Sprintf("%s (+%d pts)", rec.Title, rec.Impact), 11, colorText, 0)
			title.Bold = true
			title.SpaceBefore = 6
			l.emit(title)
			l.emit(paragraph(rec.Description, 10, colorText, 12))
			if rec.Standard != "" {
				l.emit(paragraph("Standard: "+rec.Standard, 9, colorMuted, 12))
			}
		}
	}
}

func (r *Renderer) footer(l *layout) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	l.emit(Block{
		Kind:        KindNotice,
		Lines:       []string{"Generated on " + now().UTC().Format("2006-01-02 15:04 UTC")},
		FontSize:    9,
		Color:       colorMuted,
		SpaceBefore: 18,
	})
}
