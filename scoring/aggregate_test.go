package scoring

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/seo-optimizer/report-engine/compliance"
	"github.com/seo-optimizer/report-engine/snapshot"
)

// verdictsWith returns an all-optimal verdict set with the given overrides.
func verdictsWith(overrides map[string]compliance.Status) []compliance.Verdict {
	verdicts := make([]compliance.Verdict, 0, len(compliance.Table))
	for _, r := range compliance.Table {
		v := compliance.Verdict{Field: r.Field, Category: r.Category, Status: compliance.Optimal, Credit: 1}
		if s, ok := overrides[r.Field]; ok {
			v.Status = s
			switch s {
			case compliance.NeedsImprovement:
				v.Credit = 0.5
			case compliance.Missing, compliance.Invalid:
				v.Credit = 0
			}
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}

func TestAggregateScenarioA(t *testing.T) {
	s := &snapshot.AnalysisSnapshot{
		URL:      "https://example.com",
		Title:    snapshot.StringPtr(strings.Repeat("a", 45)),
		Headings: &snapshot.Headings{H1: []string{"One"}},
		Images:   []snapshot.Image{},
	}
	b := Aggregate(compliance.Evaluate(s), nil)

	meta, ok := b.Category(compliance.CategoryMetaDescription)
	if !ok {
		t.Fatal("meta description category missing from breakdown")
	}
	if meta.Score != 0 || meta.MaxScore != 10 {
		t.Errorf("Expected meta description 0/10, got %d/%d", meta.Score, meta.MaxScore)
	}
	title, _ := b.Category(compliance.CategoryTitle)
	if title.Score != 15 {
		t.Errorf("Expected full title score, got %d", title.Score)
	}
}

func TestAggregateScenarioB(t *testing.T) {
	images := make([]snapshot.Image, 10)
	for i := range images {
		images[i].HasAlt = i >= 3
	}
	s := &snapshot.AnalysisSnapshot{URL: "https://example.com", Images: images}
	b := Aggregate(compliance.Evaluate(s), nil)

	img, _ := b.Category(compliance.CategoryImageOptimization)
	if img.Score <= 0 || img.Score >= img.MaxScore {
		t.Fatalf("Expected image score strictly between 0 and %d, got %d", img.MaxScore, img.Score)
	}
	if img.Score != 7 {
		t.Errorf("Expected 7 points for 70%% coverage, got %d", img.Score)
	}
}

func TestAggregateScenarioC(t *testing.T) {
	verdicts := verdictsWith(map[string]compliance.Status{
		compliance.FieldViewport:          compliance.NeedsImprovement,
		compliance.FieldInternalLinks:     compliance.NeedsImprovement,
		compliance.FieldImageOptimization: compliance.NeedsImprovement,
	})
	for i := range verdicts {
		if verdicts[i].Field == compliance.FieldImageOptimization {
			verdicts[i].Credit = 0.9
		}
	}
	b := Aggregate(verdicts, nil)

	if b.Overall != 95 {
		t.Fatalf("Expected overall 95, got %d", b.Overall)
	}
	if b.Grade != "Excellent" {
		t.Errorf("Expected Excellent, got %s", b.Grade)
	}
	if len(b.Issues) != 0 {
		t.Errorf("Expected no issues, got %v", b.Issues)
	}

	want := 0
	for _, c := range b.Categories {
		if float64(c.Score) >= 0.9*float64(c.MaxScore) {
			want++
		}
	}
	if want != 8 {
		t.Fatalf("Expected 8 categories at or above 90%%, got %d", want)
	}
	if len(b.Strengths) != want {
		t.Errorf("Expected %d strengths, got %d: %v", want, len(b.Strengths), b.Strengths)
	}
}

func TestAggregateRawInputs(t *testing.T) {
	verdicts := verdictsWith(nil)
	inputs := []CategoryInput{
		{Category: compliance.CategoryTechnicalSEO, Score: 0, Source: "mobile"},
		{Category: compliance.CategoryTechnicalSEO, Score: 0, Source: "desktop"},
	}
	b := Aggregate(verdicts, inputs)

	tech, _ := b.Category(compliance.CategoryTechnicalSEO)
	// five optimal verdicts and two zero scores: 20 * 5/7
	if tech.Score != 14 {
		t.Errorf("Expected 14, got %d", tech.Score)
	}
	if tech.Entries != 7 {
		t.Errorf("Expected 7 entries, got %d", tech.Entries)
	}
}

func TestAggregateEmpty(t *testing.T) {
	b := Aggregate(nil, nil)
	if b.Overall != 0 {
		t.Errorf("Expected 0, got %d", b.Overall)
	}
	if b.Grade != "Critical" {
		t.Errorf("Expected Critical, got %s", b.Grade)
	}
	if len(b.Issues) != len(b.Categories) {
		t.Errorf("Expected every category to be an issue, got %d", len(b.Issues))
	}
}

func TestGradeBands(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		overall int
		want    string
	}{
		{100, "Excellent"},
		{90, "Excellent"},
		{89, "Good"},
		{70, "Good"},
		{69, "Poor"},
		{50, "Poor"},
		{49, "Critical"},
		{0, "Critical"},
	}
	for _, tt := range tests {
		if got := p.Band(tt.overall).Grade; got != tt.want {
			t.Errorf("Band(%d) = %s, want %s", tt.overall, got, tt.want)
		}
	}
}

func TestAggregateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	statuses := compliance.Statuses
	build := func(picks []int, credits []float64, raw []float64) ([]compliance.Verdict, []CategoryInput) {
		if len(picks) == 0 || len(credits) == 0 {
			return nil, nil
		}
		verdicts := make([]compliance.Verdict, 0, len(compliance.Table))
		for i, r := range compliance.Table {
			verdicts = append(verdicts, compliance.Verdict{
				Field:    r.Field,
				Category: r.Category,
				Status:   statuses[picks[i%len(picks)]],
				Credit:   credits[i%len(credits)],
			})
		}
		inputs := make([]CategoryInput, 0, len(raw))
		for i, s := range raw {
			inputs = append(inputs, CategoryInput{
				Category: compliance.Categories[i%len(compliance.Categories)],
				Score:    s,
			})
		}
		return verdicts, inputs
	}

	properties.Property("overall equals the sum of category scores and stays in range", prop.ForAll(
		func(picks []int, credits []float64, raw []float64) bool {
			b := Aggregate(build(picks, credits, raw))
			sum, maxSum := 0, 0
			for _, c := range b.Categories {
				if c.Score < 0 || c.Score > c.MaxScore {
					return false
				}
				sum += c.Score
				maxSum += c.MaxScore
			}
			return sum == b.Overall && maxSum == TotalPoints && b.Overall >= 0 && b.Overall <= 100
		},
		gen.SliceOfN(len(compliance.Table), gen.IntRange(0, 3)),
		gen.SliceOfN(len(compliance.Table), gen.Float64Range(0, 1)),
		gen.SliceOf(gen.Float64Range(-50, 150)),
	))

	properties.Property("no category is both an issue and a strength", prop.ForAll(
		func(picks []int, credits []float64) bool {
			b := Aggregate(build(picks, credits, nil))
			return len(b.Issues)+len(b.Strengths) <= len(b.Categories)
		},
		gen.SliceOfN(len(compliance.Table), gen.IntRange(0, 3)),
		gen.SliceOfN(len(compliance.Table), gen.Float64Range(0, 1)),
	))

	properties.Property("aggregation is deterministic", prop.ForAll(
		func(picks []int, credits []float64) bool {
			v, in := build(picks, credits, nil)
			a, b := Aggregate(v, in), Aggregate(v, in)
			return a.Overall == b.Overall && a.Grade == b.Grade &&
				strings.Join(a.Issues, "|") == strings.Join(b.Issues, "|")
		},
		gen.SliceOfN(len(compliance.Table), gen.IntRange(0, 3)),
		gen.SliceOfN(len(compliance.Table), gen.Float64Range(0, 1)),
	))

	properties.TestingRun(t)
}

func TestLoadPolicy(t *testing.T) {
	p, err := LoadPolicy(filepath.Join("testdata", "policy.yaml"))
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if p.MaxScore(compliance.CategoryTechnicalSEO) != 20 {
		t.Errorf("Expected technicalSeo weight 20, got %d", p.MaxScore(compliance.CategoryTechnicalSEO))
	}
	if p.IssueBelow != 0.5 {
		t.Errorf("Expected issue_below 0.5, got %v", p.IssueBelow)
	}
	if p.StrengthAt != 0.9 {
		t.Errorf("Expected default strength_at 0.9, got %v", p.StrengthAt)
	}

	b := p.Aggregate(verdictsWith(nil), nil)
	if b.Overall != 100 {
		t.Errorf("Expected 100 for all-optimal verdicts, got %d", b.Overall)
	}
}

func TestPolicyValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Policy)
		errMsg string
	}{
		{"weights off", func(p *Policy) { p.Categories[0].MaxScore = 20 }, "add up to 105"},
		{"unknown category", func(p *Policy) { p.Categories[0].Name = "speed" }, "unknown category"},
		{"grades not descending", func(p *Policy) { p.Grades[1].Min = 95 }, "breakpoint must be below"},
		{"grades not exhaustive", func(p *Policy) { p.Grades[3].Min = 10 }, "must start at 0"},
		{"thresholds overlap", func(p *Policy) { p.IssueBelow = 0.95 }, "issue_below"},
		{"future version", func(p *Policy) { p.Version = "2.0.0" }, "not in"},
		{"bad version", func(p *Policy) { p.Version = "latest" }, "policy version"},
		{"category missing", func(p *Policy) {
			p.Categories = p.Categories[:len(p.Categories)-1]
			p.Categories[0].MaxScore = 25
		}, `category "structuredData" has no weight`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}

	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy should be valid: %v", err)
	}
}
