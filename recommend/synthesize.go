// Package recommend turns non-optimal verdicts into a ranked, deduplicated
// list of remediation steps.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/seo-optimizer/report-engine/compliance"
	"github.com/seo-optimizer/report-engine/scoring"
)

// Priority is a recommendation tier.
type Priority string

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

// Priorities lists the tiers, most urgent first.
var Priorities = []Priority{High, Medium, Low}

func (p Priority) rank() int {
	switch p {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	}
	return 0
}

// Recommendation is one remediation step.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	// Impact is the estimated number of points regained if applied.
	Impact   int                 `json:"impact"`
	Standard string              `json:"standard,omitempty"`
	Field    string              `json:"field,omitempty"`
	Category compliance.Category `json:"category,omitempty"`
}

// Synthesizer ranks recommendations against a scoring policy.
type Synthesizer struct {
	Policy  scoring.Policy
	Catalog map[Key]Template
}

// New returns a Synthesizer using the default catalog.
func New(policy scoring.Policy) *Synthesizer {
	return &Synthesizer{Policy: policy, Catalog: Catalog}
}

// Synthesize uses the default policy and catalog.
func Synthesize(verdicts []compliance.Verdict, b scoring.Breakdown) []Recommendation {
	return New(scoring.DefaultPolicy()).Synthesize(verdicts, b)
}

// Synthesize builds one recommendation per non-optimal verdict, drops
// duplicate titles keeping the most urgent instance, and sorts by priority
// then impact. The result is never empty.
func (s *Synthesizer) Synthesize(verdicts []compliance.Verdict, b scoring.Breakdown) []Recommendation {
	perCategory := make(map[compliance.Category]int)
	for _, v := range verdicts {
		perCategory[v.Category]++
	}

	var raw []Recommendation
	for _, v := range verdicts {
		if v.Status == compliance.Optimal {
			continue
		}
		raw = append(raw, s.instantiate(v, b, perCategory[v.Category]))
	}
	if len(raw) == 0 {
		return append([]Recommendation(nil), Fallback...)
	}

	recs := dedupe(raw)
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recs[i].Priority.rank(), recs[j].Priority.rank()
		if ri != rj {
			return ri > rj
		}
		return recs[i].Impact > recs[j].Impact
	})
	return recs
}

func (s *Synthesizer) instantiate(v compliance.Verdict, b scoring.Breakdown, verdictCount int) Recommendation {
	t, ok := s.Catalog[Key{Field: v.Field, Status: v.Status}]
	if !ok {
		t = generic(v)
	}
	desc := t.Description
	if strings.Contains(desc, "{value}") {
		desc = strings.ReplaceAll(desc, "{value}", formatValue(v.Value))
	}
	standard := t.Standard
	if standard == "" {
		standard = v.Standard
	}

	maxScore := s.Policy.MaxScore(v.Category)
	score := 0
	entries := verdictCount
	if cs, ok := b.Category(v.Category); ok {
		maxScore = cs.MaxScore
		score = cs.Score
		if cs.Entries > 0 {
			entries = cs.Entries
		}
	}

	return Recommendation{
		Title:       t.Title,
		Description: desc,
		Priority:    s.priority(v.Status, maxScore),
		Impact:      impact(v.Credit, maxScore, score, entries),
		Standard:    standard,
		Field:       v.Field,
		Category:    v.Category,
	}
}

func (s *Synthesizer) priority(status compliance.Status, maxScore int) Priority {
	heavy := maxScore >= s.Policy.HighWeightAt
	switch {
	case heavy && (status == compliance.Missing || status == compliance.Invalid):
		return High
	case !heavy && status == compliance.NeedsImprovement:
		return Low
	}
	return Medium
}

// impact is the verdict's unearned share of its category, never more than
// the category's headroom and never less than one point.
func impact(credit float64, maxScore, score, entries int) int {
	if entries < 1 {
		entries = 1
	}
	points := int(math.Round((1 - credit) * float64(maxScore) / float64(entries)))
	if headroom := maxScore - score; points > headroom {
		points = headroom
	}
	if points < 1 {
		points = 1
	}
	return points
}

func dedupe(recs []Recommendation) []Recommendation {
	winner := make(map[string]int, len(recs))
	for i, r := range recs {
		key := normalizeTitle(r.Title)
		j, seen := winner[key]
		if !seen || r.Priority.rank() > recs[j].Priority.rank() {
			winner[key] = i
		}
	}
	out := make([]Recommendation, 0, len(winner))
	for i, r := range recs {
		if winner[normalizeTitle(r.Title)] == i {
			out = append(out, r)
		}
	}
	return out
}

// normalizeTitle compares titles case-insensitively with collapsed whitespace.
func normalizeTitle(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "unknown"
	case compliance.Ratio:
		return fmt.Sprintf("%d of %d", x.Covered, x.Total)
	case compliance.URLPair:
		return x.Declared
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
