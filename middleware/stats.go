package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/report-engine/stats"
)

// ReportURLKey is the gin context key handlers set to the analyzed page URL.
const ReportURLKey = "reportURL"

// saveEvery is how many report requests pass between traffic saves.
const saveEvery = 100

// Stats tracks visitors and report requests.
func Stats(traffic *stats.Traffic) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traffic.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.Method != "POST" || !strings.HasPrefix(c.FullPath(), "/api/reports") {
			return
		}
		loadTime := float64(time.Since(start).Milliseconds())
		traffic.TrackReport(c.GetString(ReportURLKey), loadTime, c.Writer.Status() >= 400)

		if traffic.Requests()%saveEvery == 0 {
			go func() {
				if err := traffic.Save(); err != nil {
					slog.Warn("failed to save traffic statistics", "component", "stats", "error", err)
				}
			}()
		}
	}
}
