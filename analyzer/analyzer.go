// Package analyzer runs the report pipeline: compliance evaluation, scoring,
// recommendation synthesis, layout and PDF encoding.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seo-optimizer/report-engine/compliance"
	"github.com/seo-optimizer/report-engine/logging"
	"github.com/seo-optimizer/report-engine/recommend"
	"github.com/seo-optimizer/report-engine/render"
	"github.com/seo-optimizer/report-engine/scoring"
	"github.com/seo-optimizer/report-engine/snapshot"
	"github.com/seo-optimizer/report-engine/storage"
)

// Engine turns snapshots into reports. It holds only read-only
// configuration and is safe for concurrent use.
type Engine struct {
	policy   scoring.Policy
	synth    *recommend.Synthesizer
	renderer *render.Renderer
	logger   *slog.Logger
}

type Option func(*Engine)

// WithPolicy replaces the default scoring policy.
func WithPolicy(p scoring.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock sets the clock used for the report footer and GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.renderer.Now = now }
}

func WithRenderer(r *render.Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine with the default policy and renderer.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy:   scoring.DefaultPolicy(),
		renderer: render.NewRenderer(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.synth = recommend.New(e.policy)
	e.logger = e.logger.With("component", "analyzer")
	return e
}

// Policy returns the scoring policy in use.
func (e *Engine) Policy() scoring.Policy { return e.policy }

// Evaluate checks the snapshot and returns its verdicts.
func (e *Engine) Evaluate(snap *snapshot.AnalysisSnapshot) ([]compliance.Verdict, error) {
	if err := snapshot.Validate(snap); err != nil {
		return nil, err
	}
	return compliance.Evaluate(snap), nil
}

// Score evaluates and aggregates a snapshot.
func (e *Engine) Score(snap *snapshot.AnalysisSnapshot) ([]compliance.Verdict, scoring.Breakdown, error) {
	verdicts, err := e.Evaluate(snap)
	if err != nil {
		return nil, scoring.Breakdown{}, err
	}
	return verdicts, e.policy.Aggregate(verdicts, RawInputs(snap)), nil
}

// Recommend scores a snapshot and synthesizes its recommendations.
func (e *Engine) Recommend(snap *snapshot.AnalysisSnapshot) (scoring.Breakdown, []recommend.Recommendation, error) {
	verdicts, breakdown, err := e.Score(snap)
	if err != nil {
		return scoring.Breakdown{}, nil, err
	}
	return breakdown, e.synth.Synthesize(verdicts, breakdown), nil
}

// Generate runs the whole pipeline and encodes the document as PDF.
func (e *Engine) Generate(snap *snapshot.AnalysisSnapshot) (*Report, error) {
	verdicts, breakdown, err := e.Score(snap)
	if err != nil {
		return nil, err
	}
	recs := e.synth.Synthesize(verdicts, breakdown)
	doc := e.renderer.Render(snap, verdicts, breakdown, recs)
	pdf, err := render.EncodePDF(doc)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	report := &Report{
		URL:             snap.URL,
		TableVersion:    compliance.TableVersion,
		PolicyVersion:   e.policy.Version,
		Verdicts:        verdicts,
		Breakdown:       breakdown,
		Recommendations: recs,
		Pages:           len(doc.Pages),
		GeneratedAt:     e.now().UTC(),
		Degraded:        snap.Degraded,
		Snapshot:        snap,
		Document:        doc,
		PDF:             pdf,
	}

	e.logger.Debug("report generated",
		"url", logging.CleanURL(snap.URL),
		"overall", breakdown.Overall,
		"grade", breakdown.Grade,
		"pages", report.Pages,
		"degraded", len(snap.Degraded))
	return report, nil
}

// GenerateJSON decodes a JSON snapshot and generates its report.
func (e *Engine) GenerateJSON(raw []byte) (*Report, error) {
	snap, err := snapshot.Decode(raw)
	if err != nil {
		return nil, err
	}
	return e.Generate(snap)
}

// GenerateFrom fetches the snapshot for pageURL from src and generates its
// report. A source failure is returned as *UpstreamFetchError.
func (e *Engine) GenerateFrom(ctx context.Context, src snapshot.Source, pageURL string) (*Report, error) {
	snap, err := src.Snapshot(ctx, pageURL)
	if err != nil {
		e.logger.Warn("snapshot fetch failed", "url", logging.CleanURL(pageURL), "error", err)
		return nil, &UpstreamFetchError{URL: pageURL, Err: err}
	}
	return e.Generate(snap)
}

// Persister stores a rendered document and its metadata row.
type Persister interface {
	Persist(ctx context.Context, filename string, data []byte, rec storage.Record) (storage.Record, error)
}

// Publish uploads the report PDF and records it for owner. Errors from p are
// returned unchanged so callers can inspect the failed stage.
func (e *Engine) Publish(ctx context.Context, report *Report, p Persister, owner string) (storage.Record, error) {
	id := uuid.NewString()
	rec, err := p.Persist(ctx, "seo-report-"+id+".pdf", report.PDF, storage.Record{
		ID:           id,
		OwnerID:      owner,
		Kind:         storage.KindSEOCompliance,
		URL:          report.URL,
		Score:        report.Breakdown.Overall,
		Grade:        report.Breakdown.Grade,
		TableVersion: report.TableVersion,
		CreatedAt:    report.GeneratedAt,
	})
	if err != nil {
		e.logger.Error("report persistence failed", "url", logging.CleanURL(report.URL), "error", err)
		return storage.Record{}, err
	}
	e.logger.Info("report published", "id", rec.ID, "document", rec.DocumentURL)
	return rec, nil
}

func (e *Engine) now() time.Time {
	if e.renderer.Now != nil {
		return e.renderer.Now()
	}
	return time.Now()
}

// RawInputs extracts the raw 0-100 sub-scores carried by a snapshot: the
// desktop and mobile performance scores for technicalSeo and the AI citation
// potential for contentQuality. Unreadable values are skipped.
func RawInputs(snap *snapshot.AnalysisSnapshot) []scoring.CategoryInput {
	if snap == nil {
		return nil
	}
	var inputs []scoring.CategoryInput
	if perf := snap.Performance; perf != nil {
		for _, run := range []struct {
			source string
			run    *snapshot.PerformanceRun
		}{{"desktop", perf.Desktop}, {"mobile", perf.Mobile}} {
			if run.run == nil {
				continue
			}
			if f, ok := run.run.Score.Float(); ok {
				inputs = append(inputs, scoring.CategoryInput{
					Category: compliance.CategoryTechnicalSEO,
					Score:    f,
					Source:   run.source,
				})
			}
		}
	}
	if snap.AI != nil {
		if f, ok := snap.AI.CitationPotential.Float(); ok {
			inputs = append(inputs, scoring.CategoryInput{
				Category: compliance.CategoryContentQuality,
				Score:    f,
				Source:   "ai",
			})
		}
	}
	return inputs
}
