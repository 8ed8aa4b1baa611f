package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/report-engine/analyzer"
	"github.com/seo-optimizer/report-engine/compliance"
	"github.com/seo-optimizer/report-engine/logging"
	"github.com/seo-optimizer/report-engine/middleware"
	"github.com/seo-optimizer/report-engine/snapshot"
	"github.com/seo-optimizer/report-engine/stats"
	"github.com/seo-optimizer/report-engine/storage"
)

// userHeader names the owning user of a persisted report.
const userHeader = "X-User-ID"

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"tableVersion": compliance.TableVersion,
	})
}

// readSnapshot decodes the request body as a JSON snapshot.
func (s *Server) readSnapshot(c *gin.Context) (*snapshot.AnalysisSnapshot, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return nil, false
	}
	snap, err := snapshot.Decode(raw)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	c.Set(middleware.ReportURLKey, snap.URL)
	return snap, true
}

func (s *Server) evaluate(c *gin.Context) {
	snap, ok := s.readSnapshot(c)
	if !ok {
		return
	}
	verdicts, err := s.Engine.Evaluate(snap)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tableVersion": compliance.TableVersion,
		"verdicts":     verdicts,
		"summary":      compliance.Summarize(verdicts),
		"degraded":     snap.Degraded,
	})
}

func (s *Server) score(c *gin.Context) {
	snap, ok := s.readSnapshot(c)
	if !ok {
		return
	}
	verdicts, breakdown, err := s.Engine.Score(snap)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verdicts":  verdicts,
		"breakdown": breakdown,
	})
}

func (s *Server) recommendations(c *gin.Context) {
	snap, ok := s.readSnapshot(c)
	if !ok {
		return
	}
	breakdown, recs, err := s.Engine.Recommend(snap)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"breakdown":       breakdown,
		"recommendations": recs,
	})
}

type reportResponse struct {
	*analyzer.Report
	DocumentURL string `json:"documentUrl,omitempty"`
	RecordID    string `json:"recordId,omitempty"`
}

// generated counts a finished report.
func (s *Server) generated(r *analyzer.Report) {
	s.count(stats.MonthlyStats{ReportsGenerated: 1, DegradedFields: len(r.Degraded)})
}

// respond writes the report, publishing it first when ?persist=true.
func (s *Server) respond(c *gin.Context, report *analyzer.Report) {
	s.generated(report)
	resp := reportResponse{Report: report}

	if persist, _ := strconv.ParseBool(c.Query("persist")); persist {
		if s.Persister == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report storage is not configured"})
			return
		}
		rec, err := s.Engine.Publish(c.Request.Context(), report, s.Persister, c.GetHeader(userHeader))
		if err != nil {
			s.fail(c, err)
			return
		}
		s.count(stats.MonthlyStats{ReportsPublished: 1})
		resp.DocumentURL = rec.DocumentURL
		resp.RecordID = rec.ID
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createReport(c *gin.Context) {
	snap, ok := s.readSnapshot(c)
	if !ok {
		return
	}
	report, err := s.Engine.Generate(snap)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, report)
}

func (s *Server) reportPDF(c *gin.Context) {
	snap, ok := s.readSnapshot(c)
	if !ok {
		return
	}
	report, err := s.Engine.Generate(snap)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.generated(report)
	c.Header("Content-Disposition", `attachment; filename="seo-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", report.PDF)
}

func (s *Server) reportFromHTML(c *gin.Context) {
	pageURL := strings.TrimSpace(c.Query("url"))
	if pageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}
	c.Set(middleware.ReportURLKey, pageURL)

	snap, err := snapshot.FromHTML(pageURL, http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		s.fail(c, err)
		return
	}
	report, err := s.Engine.Generate(snap)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, report)
}

func (s *Server) reportFetch(c *gin.Context) {
	var request struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid URL provided",
		})
		return
	}
	c.Set(middleware.ReportURLKey, request.URL)

	if s.Source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Snapshot source is not configured"})
		return
	}
	s.logger().Info("fetching snapshot", "component", "api", "url", logging.CleanURL(request.URL))

	report, err := s.Engine.GenerateFrom(c.Request.Context(), s.Source, request.URL)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, report)
}

func (s *Server) getReport(c *gin.Context) {
	if s.Index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report storage is not configured"})
		return
	}
	rec, err := s.Index.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) listReports(c *gin.Context) {
	if s.Index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report storage is not configured"})
		return
	}
	owner := c.GetHeader(userHeader)
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s header is required", userHeader)})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	records, err := s.Index.ListByOwner(c.Request.Context(), owner, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if records == nil {
		records = []storage.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": records})
}

func (s *Server) statistics(c *gin.Context) {
	out := gin.H{}
	if s.Traffic != nil {
		for k, v := range s.Traffic.Snapshot(s.DevMode) {
			out[k] = v
		}
	}
	if s.Counters != nil {
		out["reports"] = s.Counters.GetCurrentStats()
	}
	if s.Cache != nil {
		out["snapshotCache"] = s.Cache.Stats()
	}
	c.JSON(http.StatusOK, out)
}
