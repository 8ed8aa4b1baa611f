package analyzer

import (
	"fmt"
	"time"

	"github.com/seo-optimizer/report-engine/compliance"
	"github.com/seo-optimizer/report-engine/recommend"
	"github.com/seo-optimizer/report-engine/render"
	"github.com/seo-optimizer/report-engine/scoring"
	"github.com/seo-optimizer/report-engine/snapshot"
)

// Report is the complete result of one engine run
type Report struct {
	URL             string                     `json:"url"`
	TableVersion    string                     `json:"tableVersion"`
	PolicyVersion   string                     `json:"policyVersion"`
	Verdicts        []compliance.Verdict       `json:"verdicts"`
	Breakdown       scoring.Breakdown          `json:"breakdown"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Pages           int                        `json:"pages"`
	GeneratedAt     time.Time                  `json:"generatedAt"`
	// Degraded lists snapshot fields that were present but unreadable.
	Degraded []string `json:"degraded,omitempty"`

	Snapshot *snapshot.AnalysisSnapshot `json:"-"`
	Document *render.Document           `json:"-"`
	PDF      []byte                     `json:"-"`
}

// UpstreamFetchError means the snapshot source could not produce a snapshot.
// Err is the source's error, unchanged.
type UpstreamFetchError struct {
	URL string
	Err error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("failed to fetch snapshot for %s: %v", e.URL, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// CacheStats provides statistics about the snapshot cache
type CacheStats struct {
	Entries int           `json:"entries"`
	Hits    int           `json:"hits"`
	Misses  int           `json:"misses"`
	TTL     time.Duration `json:"ttl"`
}
