package compliance

import "github.com/seo-optimizer/report-engine/snapshot"

// Evaluate applies the default table to a snapshot.
func Evaluate(s *snapshot.AnalysisSnapshot) []Verdict {
	return EvaluateRules(Table, s)
}

// EvaluateRules applies rules to a snapshot and returns one verdict per rule,
// in rule order. It never fails: absent fields become missing verdicts and
// unreadable ones become invalid.
func EvaluateRules(rules []Rule, s *snapshot.AnalysisSnapshot) []Verdict {
	verdicts := make([]Verdict, 0, len(rules))
	for _, rule := range rules {
		verdicts = append(verdicts, evaluateRule(rule, s))
	}
	return verdicts
}

func evaluateRule(rule Rule, s *snapshot.AnalysisSnapshot) Verdict {
	v := Verdict{
		Field:    rule.Field,
		Category: rule.Category,
		Rule:     rule.Description,
		Standard: rule.Standard,
	}

	var out Outcome
	switch {
	case s == nil:
		out = missing(nil)
	case s.IsDegraded(rule.Source):
		out = invalid(nil)
	default:
		out = rule.Judge.Judge(rule.Extract(s))
	}

	v.Status = out.Status
	v.Credit = clampCredit(out.Credit)
	v.Value = out.Value
	return v
}

func clampCredit(c float64) float64 {
	switch {
	case c != c || c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// Summarize counts verdicts per status.
func Summarize(verdicts []Verdict) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, v := range verdicts {
		counts[v.Status]++
	}
	return counts
}

// ByField indexes verdicts by field name.
func ByField(verdicts []Verdict) map[string]Verdict {
	m := make(map[string]Verdict, len(verdicts))
	for _, v := range verdicts {
		m[v.Field] = v
	}
	return m
}
