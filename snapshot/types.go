package snapshot

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AnalysisSnapshot is the raw site-analysis record produced by an external
// analysis collaborator. Optional fields use nil to mean "not collected", so
// an absent field and an empty one can be told apart.
type AnalysisSnapshot struct {
	URL             string            `json:"url"`
	Title           *string           `json:"title,omitempty"`
	MetaDescription *string           `json:"metaDescription,omitempty"`
	Headings        *Headings         `json:"headings,omitempty"`
	Images          []Image           `json:"images,omitempty"`
	CanonicalURL    *string           `json:"canonicalUrl,omitempty"`
	Robots          *string           `json:"robots,omitempty"`
	Viewport        *string           `json:"viewport,omitempty"`
	WordCount       *Value            `json:"wordCount,omitempty"`
	Performance     *Performance      `json:"performance,omitempty"`
	Links           *LinkStats        `json:"links,omitempty"`
	OpenGraph       map[string]string `json:"openGraph,omitempty"`
	SchemaTypes     []string          `json:"schemaTypes,omitempty"`
	AI              *AIInsights       `json:"ai,omitempty"`
	KnownIssues     []KnownIssue      `json:"knownIssues,omitempty"`

	// Degraded lists the top-level keys that were present but unreadable.
	Degraded []string `json:"-"`
}

type Headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
}

type Image struct {
	Src    string `json:"src"`
	HasAlt bool   `json:"hasAlt"`
}

// Performance carries the page-speed audit for both form factors.
type Performance struct {
	Desktop *PerformanceRun `json:"desktop,omitempty"`
	Mobile  *PerformanceRun `json:"mobile,omitempty"`
}

type PerformanceRun struct {
	Score   *Value     `json:"score,omitempty"`
	Metrics *WebVitals `json:"metrics,omitempty"`
}

// WebVitals are the named lab metrics reported by the performance audit.
type WebVitals struct {
	LargestContentfulPaintMs *Value `json:"largestContentfulPaintMs,omitempty"`
	FirstInputDelayMs        *Value `json:"firstInputDelayMs,omitempty"`
	CumulativeLayoutShift    *Value `json:"cumulativeLayoutShift,omitempty"`
}

type LinkStats struct {
	Internal int `json:"internal"`
	External int `json:"external"`
	// Broken is nil when links were not checked.
	Broken *int `json:"broken,omitempty"`
}

// AIInsights are the fields derived by the generative-AI collaborator.
type AIInsights struct {
	SearchIntent      string   `json:"searchIntent,omitempty"`
	SemanticGaps      []string `json:"semanticGaps,omitempty"`
	CitationPotential *Value   `json:"citationPotential,omitempty"`
	SchemaTypes       []string `json:"schemaTypes,omitempty"`
}

type KnownIssue struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// IsDegraded reports whether the given top-level key could not be read.
func (s *AnalysisSnapshot) IsDegraded(key string) bool {
	if s == nil {
		return false
	}
	for _, k := range s.Degraded {
		if k == key {
			return true
		}
	}
	return false
}

// Value is a measurement kept exactly as the collaborator sent it. Numbers and
// numeric strings are both accepted; anything else is retained so the
// evaluator can report it as invalid instead of failing the decode.
type Value struct {
	raw string
}

// NewValue returns a Value holding the given number.
func NewValue(f float64) *Value {
	return &Value{raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// RawValue returns a Value holding arbitrary text.
func RawValue(s string) *Value {
	return &Value{raw: s}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.raw = strings.TrimSpace(s)
		return nil
	}
	v.raw = string(data)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if f, ok := v.Float(); ok {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return json.Marshal(v.raw)
}

// Float parses the value. NaN and infinities are rejected.
func (v *Value) Float() (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (v *Value) String() string {
	if v == nil {
		return ""
	}
	return v.raw
}

// StringPtr is a convenience for building snapshots in code.
func StringPtr(s string) *string {
	return &s
}

func IntPtr(n int) *int {
	return &n
}
