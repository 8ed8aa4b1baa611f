// Package api exposes the report engine over HTTP with gin.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/report-engine/analyzer"
	"github.com/seo-optimizer/report-engine/middleware"
	"github.com/seo-optimizer/report-engine/snapshot"
	"github.com/seo-optimizer/report-engine/stats"
	"github.com/seo-optimizer/report-engine/storage"
)

// maxBodyBytes caps snapshot and HTML request bodies.
const maxBodyBytes = 8 << 20

// ReportIndex looks up persisted report metadata.
type ReportIndex interface {
	Get(ctx context.Context, id string) (*storage.Record, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]storage.Record, error)
}

// Counters receives report outcome counts.
type Counters interface {
	Add(delta stats.MonthlyStats)
	GetCurrentStats() stats.MonthlyStats
}

// Server holds the dependencies of the HTTP handlers. Optional dependencies
// may be nil; the routes that need them then answer 503.
type Server struct {
	Engine    *analyzer.Engine
	Persister analyzer.Persister
	Index     ReportIndex
	Source    snapshot.Source
	Cache     *analyzer.CachedSource
	Counters  Counters
	Traffic   *stats.Traffic
	DevMode   bool
	Logger    *slog.Logger
}

// Router builds the gin engine with the standard middleware chain.
func (s *Server) Router(limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandler())
	if limiter != nil {
		r.Use(limiter.RateLimit())
	}
	r.Use(middleware.CORS())
	if s.Traffic != nil {
		r.Use(middleware.Stats(s.Traffic))
	}
	s.Register(r.Group("/api"))
	return r
}

// Register mounts the API routes on g.
func (s *Server) Register(g *gin.RouterGroup) {
	g.GET("/health", s.health)
	g.POST("/evaluate", s.evaluate)
	g.POST("/score", s.score)
	g.POST("/recommendations", s.recommendations)

	g.POST("/reports", s.createReport)
	g.POST("/reports/pdf", s.reportPDF)
	g.POST("/reports/from-html", s.reportFromHTML)
	g.POST("/reports/fetch", s.reportFetch)
	g.GET("/reports", s.listReports)
	g.GET("/reports/:id", s.getReport)

	g.GET("/statistics", s.statistics)
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) count(delta stats.MonthlyStats) {
	if s.Counters != nil {
		s.Counters.Add(delta)
	}
}

// fail maps engine and persistence errors to HTTP responses.
func (s *Server) fail(c *gin.Context, err error) {
	var upstream *analyzer.UpstreamFetchError
	var persist *storage.PersistenceError

	switch {
	case errors.As(err, &upstream):
		s.count(stats.MonthlyStats{UpstreamFailures: 1})
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"kind":  "upstream_fetch",
		})
	case errors.As(err, &persist):
		delta := stats.MonthlyStats{UploadFailures: 1}
		if persist.Stage == storage.StageMetadata {
			delta = stats.MonthlyStats{MetadataFailures: 1}
		}
		s.count(delta)
		body := gin.H{
			"error": err.Error(),
			"kind":  "persistence",
			"stage": persist.Stage,
		}
		if persist.DocumentURL != "" {
			body["documentUrl"] = persist.DocumentURL
		}
		c.JSON(http.StatusBadGateway, body)
	case errors.Is(err, snapshot.ErrInvalidSnapshot):
		s.count(stats.MonthlyStats{InvalidSnapshots: 1})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"kind":  "invalid_snapshot",
		})
	default:
		s.logger().Error("request failed", "component", "api", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate report",
		})
	}
}
