package compliance

import (
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/seo-optimizer/report-engine/snapshot"
)

// Measurement is what a rule's extractor read off the snapshot.
type Measurement struct {
	Present bool
	Value   any
}

// Outcome is a judged measurement.
type Outcome struct {
	Status Status
	Credit float64
	Value  any
}

// Judge maps a measurement to exactly one status. Implementations must be
// total: any Value type, including unexpected ones, yields an outcome.
type Judge interface {
	Judge(m Measurement) Outcome
}

// partialCredit is what a needs_improvement verdict earns unless the rule
// measures a proportion.
const partialCredit = 0.5

func optimal(v any) Outcome { return Outcome{Status: Optimal, Credit: 1, Value: v} }
func improve(v any) Outcome { return Outcome{Status: NeedsImprovement, Credit: partialCredit, Value: v} }
func missing(v any) Outcome { return Outcome{Status: Missing, Value: v} }
func invalid(v any) Outcome { return Outcome{Status: Invalid, Value: v} }

// LengthRange is optimal when the trimmed text length lies in [Min, Max].
type LengthRange struct {
	Min, Max int
}

func (r LengthRange) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	s, ok := m.Value.(string)
	if !ok {
		return invalid(m.Value)
	}
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	switch {
	case n == 0:
		return missing(0)
	case n >= r.Min && n <= r.Max:
		return optimal(n)
	default:
		return improve(n)
	}
}

// ExactCount is optimal when the count equals Want.
type ExactCount struct {
	Want int
}

func (r ExactCount) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	n, ok := number(m.Value)
	if !ok || n < 0 || math.IsNaN(n) {
		return invalid(m.Value)
	}
	if math.Trunc(n) == float64(r.Want) {
		return optimal(r.Want)
	}
	return improve(clampCount(n))
}

// MinCount is optimal at Min or above, partial between 1 and Min, missing at zero.
type MinCount struct {
	Min int
}

func (r MinCount) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	n, ok := number(m.Value)
	if !ok || n < 0 || math.IsNaN(n) {
		return invalid(m.Value)
	}
	count := clampCount(n)
	switch {
	case math.Trunc(n) >= float64(r.Min):
		return optimal(count)
	case count > 0:
		return improve(count)
	default:
		return missing(count)
	}
}

// Ratio is a covered/total pair.
type Ratio struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`
}

// Coverage judges how many items satisfy a requirement. Credit is the covered
// fraction, so partial coverage scales proportionally.
type Coverage struct{}

func (Coverage) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	r, ok := m.Value.(Ratio)
	if !ok || r.Total < 0 || r.Covered < 0 || r.Covered > r.Total {
		return invalid(m.Value)
	}
	switch {
	case r.Covered == r.Total:
		return optimal(r)
	case r.Covered == 0:
		return invalid(r)
	default:
		return Outcome{
			Status: NeedsImprovement,
			Credit: float64(r.Covered) / float64(r.Total),
			Value:  r,
		}
	}
}

// URLPair is a declared URL and the URL it should match.
type URLPair struct {
	Declared string `json:"declared"`
	Expected string `json:"expected"`
}

// URLMatch is optimal when the declared URL equals the expected one after
// normalization and needs improvement when it points elsewhere.
type URLMatch struct{}

func (URLMatch) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	p, ok := m.Value.(URLPair)
	if !ok {
		return invalid(m.Value)
	}
	if strings.TrimSpace(p.Declared) == "" {
		return missing(p)
	}
	declared, err := normalizeURL(p.Declared)
	if err != nil {
		return invalid(p)
	}
	expected, err := normalizeURL(p.Expected)
	if err != nil {
		return invalid(p)
	}
	if declared == expected {
		return optimal(p)
	}
	return improve(p)
}

func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &url.Error{Op: "parse", URL: raw, Err: errNotAbsolute}
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}

// Ceiling judges a metric where lower is better: optimal up to Good, needs
// improvement up to Fair, poor (invalid) above.
type Ceiling struct {
	Good, Fair float64
}

func (r Ceiling) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	f, ok := number(m.Value)
	if !ok || f < 0 {
		return invalid(display(m.Value))
	}
	switch {
	case f <= r.Good:
		return optimal(f)
	case f <= r.Fair:
		return improve(f)
	default:
		return invalid(f)
	}
}

// Directive judges a comma-separated meta directive such as robots or viewport.
// Fail tokens make it invalid, Warn tokens make it need improvement, and
// Require, when set, must be present for an optimal verdict.
type Directive struct {
	Require string
	Fail    []string
	Warn    []string
}

func (r Directive) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	s, ok := m.Value.(string)
	if !ok {
		return invalid(m.Value)
	}
	content := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if content == "" {
		return missing(s)
	}
	tokens := strings.Split(content, ",")
	for _, tok := range tokens {
		for _, fail := range r.Fail {
			if tok == fail {
				return invalid(s)
			}
		}
	}
	for _, tok := range tokens {
		for _, warn := range r.Warn {
			if tok == warn {
				return improve(s)
			}
		}
	}
	if r.Require != "" {
		for _, tok := range tokens {
			if tok == r.Require {
				return optimal(s)
			}
		}
		return improve(s)
	}
	return optimal(s)
}

// KeySet judges a tag map against a list of required keys. Credit is the
// fraction of keys present.
type KeySet struct {
	Keys []string
}

func (r KeySet) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	tags, ok := m.Value.(map[string]string)
	if !ok {
		return invalid(m.Value)
	}
	found := 0
	for _, k := range r.Keys {
		if strings.TrimSpace(tags[k]) != "" {
			found++
		}
	}
	ratio := Ratio{Covered: found, Total: len(r.Keys)}
	switch {
	case found == len(r.Keys):
		return optimal(ratio)
	case found == 0:
		return missing(ratio)
	default:
		return Outcome{
			Status: NeedsImprovement,
			Credit: float64(found) / float64(len(r.Keys)),
			Value:  ratio,
		}
	}
}

// Scheme judges the URL scheme: https is optimal, http needs improvement,
// anything unparsable is invalid.
type Scheme struct{}

func (Scheme) Judge(m Measurement) Outcome {
	if !m.Present {
		return missing(nil)
	}
	s, ok := m.Value.(string)
	if !ok {
		return invalid(m.Value)
	}
	if strings.TrimSpace(s) == "" {
		return missing(s)
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" {
		return invalid(s)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return optimal(u.Scheme)
	case "http":
		return improve(u.Scheme)
	default:
		return invalid(u.Scheme)
	}
}

// clampCount truncates a non-negative count to an int, saturating at
// math.MaxInt where the conversion would overflow.
func clampCount(n float64) int {
	if n >= math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// number reads any of the numeric representations extractors produce.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	case *snapshot.Value:
		return n.Float()
	}
	return 0, false
}

// display keeps raw Values readable in verdict output.
func display(v any) any {
	if sv, ok := v.(*snapshot.Value); ok {
		return sv.String()
	}
	return v
}
