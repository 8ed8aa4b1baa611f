// Package scoring folds compliance verdicts into a weighted 0-100 score.
package scoring

import (
	"fmt"
	"math"

	"github.com/seo-optimizer/report-engine/compliance"
)

// CategoryInput is a raw 0-100 sub-score supplied alongside the verdicts,
// e.g. a page-speed score for technicalSeo.
type CategoryInput struct {
	Category compliance.Category `json:"category"`
	Score    float64             `json:"score"`
	Source   string              `json:"source,omitempty"`
}

// CategoryScore is one category's share of the overall score.
type CategoryScore struct {
	Name     compliance.Category `json:"name"`
	Label    string              `json:"label"`
	Score    int                 `json:"score"`
	MaxScore int                 `json:"maxScore"`
	// Entries is how many verdicts and raw inputs fed the score.
	Entries int `json:"entries"`
}

// Breakdown is the aggregated result. Overall always equals the sum of the
// category scores.
type Breakdown struct {
	Overall    int             `json:"overall"`
	Grade      string          `json:"grade"`
	GradeColor string          `json:"gradeColor"`
	Issues     []string        `json:"issues"`
	Strengths  []string        `json:"strengths"`
	Categories []CategoryScore `json:"categories"`
}

// Category returns the score for a category.
func (b Breakdown) Category(c compliance.Category) (CategoryScore, bool) {
	for _, cs := range b.Categories {
		if cs.Name == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// Aggregate scores verdicts with the default policy.
func Aggregate(verdicts []compliance.Verdict, inputs []CategoryInput) Breakdown {
	return DefaultPolicy().Aggregate(verdicts, inputs)
}

// Aggregate maps each category's credits to an integer score in
// [0, MaxScore], sums them and derives grade, issues and strengths.
func (p Policy) Aggregate(verdicts []compliance.Verdict, inputs []CategoryInput) Breakdown {
	credits := make(map[compliance.Category][]float64, len(p.Categories))
	for _, v := range verdicts {
		credits[v.Category] = append(credits[v.Category], v.Credit)
	}
	for _, in := range inputs {
		if math.IsNaN(in.Score) || math.IsInf(in.Score, 0) {
			continue
		}
		credits[in.Category] = append(credits[in.Category], clamp01(in.Score/100))
	}

	b := Breakdown{
		Issues:     make([]string, 0),
		Strengths:  make([]string, 0),
		Categories: make([]CategoryScore, 0, len(p.Categories)),
	}

	for _, w := range p.Categories {
		cs := CategoryScore{
			Name:     w.Name,
			Label:    w.Name.Label(),
			MaxScore: w.MaxScore,
			Entries:  len(credits[w.Name]),
		}
		cs.Score = scaled(w.MaxScore, credits[w.Name])
		b.Overall += cs.Score
		b.Categories = append(b.Categories, cs)

		ratio := float64(cs.Score) / float64(cs.MaxScore)
		switch {
		case ratio < p.IssueBelow:
			b.Issues = append(b.Issues, fmt.Sprintf("%s needs attention: %d of %d points earned.",
				cs.Label, cs.Score, cs.MaxScore))
		case ratio >= p.StrengthAt:
			b.Strengths = append(b.Strengths, fmt.Sprintf("%s is well optimized: %d of %d points earned.",
				cs.Label, cs.Score, cs.MaxScore))
		}
	}

	band := p.Band(b.Overall)
	b.Grade = band.Grade
	b.GradeColor = band.Color
	return b
}

// scaled converts the mean credit into whole points.
func scaled(maxScore int, credits []float64) int {
	if len(credits) == 0 || maxScore <= 0 {
		return 0
	}
	sum := 0.0
	for _, c := range credits {
		sum += clamp01(c)
	}
	score := int(math.Round(float64(maxScore) * sum / float64(len(credits))))
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
