package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ErrInvalidSnapshot is returned when the input cannot be used as a snapshot at all.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Decode parses a JSON snapshot. The document must be an object carrying a
// non-empty url. Individual fields that fail to decode are dropped and listed
// in Degraded; they never abort the decode.
func Decode(raw []byte) (*AnalysisSnapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidSnapshot)
	}

	s := &AnalysisSnapshot{}
	targets := map[string]any{
		"url":             &s.URL,
		"title":           &s.Title,
		"metaDescription": &s.MetaDescription,
		"headings":        &s.Headings,
		"images":          &s.Images,
		"canonicalUrl":    &s.CanonicalURL,
		"robots":          &s.Robots,
		"viewport":        &s.Viewport,
		"wordCount":       &s.WordCount,
		"performance":     &s.Performance,
		"links":           &s.Links,
		"openGraph":       &s.OpenGraph,
		"schemaTypes":     &s.SchemaTypes,
		"ai":              &s.AI,
		"knownIssues":     &s.KnownIssues,
	}

	for key, target := range targets {
		data, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			// drop whatever was partially decoded
			v := reflect.ValueOf(target).Elem()
			v.Set(reflect.Zero(v.Type()))
			s.Degraded = append(s.Degraded, key)
		}
	}
	sort.Strings(s.Degraded)

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the structural requirements shared by every snapshot source.
func Validate(s *AnalysisSnapshot) error {
	if s == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrInvalidSnapshot)
	}
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidSnapshot)
	}
	return nil
}
