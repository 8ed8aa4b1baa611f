package scoring

import (
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/report-engine/compliance"
)

// SupportedPolicyVersions is the range of policy file versions this build reads.
const SupportedPolicyVersions = "^1.0.0"

// TotalPoints is what every category allocation must add up to.
const TotalPoints = 100

// CategoryWeight is the maximum number of points a category contributes.
type CategoryWeight struct {
	Name     compliance.Category `yaml:"name" json:"name"`
	MaxScore int                 `yaml:"max_score" json:"maxScore"`
}

// GradeBand assigns a grade to every overall score at or above Min.
type GradeBand struct {
	Min   int    `yaml:"min" json:"min"`
	Grade string `yaml:"grade" json:"grade"`
	Color string `yaml:"color" json:"color"`
}

// Policy holds the scoring constants: category weights, grade breakpoints
// and the thresholds that classify categories as issues or strengths.
type Policy struct {
	Version    string           `yaml:"version" json:"version"`
	Categories []CategoryWeight `yaml:"categories" json:"categories"`
	// Grades must be ordered by descending Min and end with Min 0.
	Grades []GradeBand `yaml:"grades" json:"grades"`
	// IssueBelow and StrengthAt are fractions of a category's max score.
	IssueBelow float64 `yaml:"issue_below" json:"issueBelow"`
	StrengthAt float64 `yaml:"strength_at" json:"strengthAt"`
	// HighWeightAt is the max score from which a category counts as heavy
	// when ranking recommendations.
	HighWeightAt int `yaml:"high_weight_at" json:"highWeightAt"`
}

// DefaultPolicy returns the stock allocation.
func DefaultPolicy() Policy {
	return Policy{
		Version: "1.0.0",
		Categories: []CategoryWeight{
			{Name: compliance.CategoryTitle, MaxScore: 15},
			{Name: compliance.CategoryMetaDescription, MaxScore: 10},
			{Name: compliance.CategoryHeadingStructure, MaxScore: 10},
			{Name: compliance.CategoryImageOptimization, MaxScore: 10},
			{Name: compliance.CategoryTechnicalSEO, MaxScore: 20},
			{Name: compliance.CategoryContentQuality, MaxScore: 10},
			{Name: compliance.CategoryIndexability, MaxScore: 10},
			{Name: compliance.CategorySocialOptimization, MaxScore: 5},
			{Name: compliance.CategoryStructuredData, MaxScore: 10},
		},
		Grades: []GradeBand{
			{Min: 90, Grade: "Excellent", Color: "#16a34a"},
			{Min: 70, Grade: "Good", Color: "#2563eb"},
			{Min: 50, Grade: "Poor", Color: "#d97706"},
			{Min: 0, Grade: "Critical", Color: "#dc2626"},
		},
		IssueBelow:   0.6,
		StrengthAt:   0.9,
		HighWeightAt: 10,
	}
}

// LoadPolicy reads a YAML policy file and validates it.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read scoring policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy. Omitted thresholds keep their defaults.
func ParsePolicy(data []byte) (Policy, error) {
	def := DefaultPolicy()
	p := Policy{
		IssueBelow:   def.IssueBelow,
		StrengthAt:   def.StrengthAt,
		HighWeightAt: def.HighWeightAt,
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("failed to parse scoring policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks that every category is weighted exactly once, weights add
// up to TotalPoints and grades are monotonic.
func (p Policy) Validate() error {
	var errs []error

	v, err := semver.NewVersion(p.Version)
	if err != nil {
		errs = append(errs, fmt.Errorf("policy version %q: %w", p.Version, err))
	} else {
		c, _ := semver.NewConstraint(SupportedPolicyVersions)
		if !c.Check(v) {
			errs = append(errs, fmt.Errorf("policy version %s not in %s", v, SupportedPolicyVersions))
		}
	}

	known := make(map[compliance.Category]bool, len(compliance.Categories))
	for _, c := range compliance.Categories {
		known[c] = true
	}
	seen := make(map[compliance.Category]bool)
	sum := 0
	for _, c := range p.Categories {
		if !known[c.Name] {
			errs = append(errs, fmt.Errorf("unknown category %q", c.Name))
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("category %q listed twice", c.Name))
		}
		seen[c.Name] = true
		if c.MaxScore <= 0 {
			errs = append(errs, fmt.Errorf("category %q must have a positive max score", c.Name))
		}
		sum += c.MaxScore
	}
	for _, c := range compliance.Categories {
		if !seen[c] {
			errs = append(errs, fmt.Errorf("category %q has no weight", c))
		}
	}
	if sum != TotalPoints {
		errs = append(errs, fmt.Errorf("category max scores add up to %d, want %d", sum, TotalPoints))
	}

	if len(p.Grades) == 0 {
		errs = append(errs, errors.New("at least one grade band is required"))
	} else {
		for i, g := range p.Grades {
			if g.Grade == "" {
				errs = append(errs, fmt.Errorf("grade band %d has no name", i))
			}
			if g.Min < 0 || g.Min > TotalPoints {
				errs = append(errs, fmt.Errorf("grade %q min %d out of range", g.Grade, g.Min))
			}
			if i > 0 && g.Min >= p.Grades[i-1].Min {
				errs = append(errs, fmt.Errorf("grade %q breakpoint must be below %q", g.Grade, p.Grades[i-1].Grade))
			}
		}
		if last := p.Grades[len(p.Grades)-1]; last.Min != 0 {
			errs = append(errs, fmt.Errorf("lowest grade %q must start at 0", last.Grade))
		}
	}

	if p.IssueBelow < 0 || p.StrengthAt > 1 || p.IssueBelow >= p.StrengthAt {
		errs = append(errs, fmt.Errorf("thresholds must satisfy 0 <= issue_below (%v) < strength_at (%v) <= 1",
			p.IssueBelow, p.StrengthAt))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid scoring policy: %w", errors.Join(errs...))
	}
	return nil
}

// MaxScore returns the points allocated to a category, or 0 if it is not scored.
func (p Policy) MaxScore(c compliance.Category) int {
	for _, w := range p.Categories {
		if w.Name == c {
			return w.MaxScore
		}
	}
	return 0
}

// Band returns the grade band for an overall score.
func (p Policy) Band(overall int) GradeBand {
	for _, g := range p.Grades {
		if overall >= g.Min {
			return g
		}
	}
	if len(p.Grades) > 0 {
		return p.Grades[len(p.Grades)-1]
	}
	return GradeBand{Grade: "Ungraded"}
}
