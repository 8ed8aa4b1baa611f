package stats

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Traffic tracks request-level figures for the statistics endpoint.
type Traffic struct {
	UniqueVisitors  map[string]time.Time `json:"uniqueVisitors"` // IP -> Last Visit Time
	ReportRequests  int                  `json:"reportRequests"`
	ErrorCount      int                  `json:"errorCount"`
	PopularURLs     map[string]int       `json:"popularUrls"`
	AverageLoadTime float64              `json:"averageLoadTime"` // milliseconds
	TotalLoadTime   float64              `json:"totalLoadTime"`
	LastPersisted   time.Time            `json:"lastPersisted"`

	mutex    sync.RWMutex
	filePath string
	now      func() time.Time
}

// NewTraffic loads traffic figures from dataDir/traffic.json if present.
func NewTraffic(dataDir string) (*Traffic, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	t := &Traffic{
		UniqueVisitors: make(map[string]time.Time),
		PopularURLs:    make(map[string]int),
		filePath:       filepath.Join(dataDir, "traffic.json"),
		now:            time.Now,
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

// TrackVisitor records a unique visitor
func (t *Traffic) TrackVisitor(ip string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.UniqueVisitors[ip] = t.now()
}

// trackableURL reduces a URL to scheme, host and path. Local and API URLs
// are not tracked and yield "".
func trackableURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleanURL := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		cleanURL += u.Path
	}
	return strings.TrimSuffix(cleanURL, "/")
}

// TrackReport records one report request for the analyzed pageURL.
func (t *Traffic) TrackReport(pageURL string, loadTime float64, hasError bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.ReportRequests++
	if cleaned := trackableURL(pageURL); cleaned != "" {
		t.PopularURLs[cleaned]++
	}
	if hasError {
		t.ErrorCount++
	}
	t.TotalLoadTime += loadTime
	t.AverageLoadTime = t.TotalLoadTime / float64(t.ReportRequests)
}

// Requests returns the number of tracked report requests.
func (t *Traffic) Requests() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.ReportRequests
}

func (t *Traffic) uniqueVisitors24h() int {
	count := 0
	cutoff := t.now().Add(-24 * time.Hour)
	for _, lastVisit := range t.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

func (t *Traffic) errorRate() float64 {
	if t.ReportRequests == 0 {
		return 0
	}
	return float64(t.ErrorCount) / float64(t.ReportRequests) * 100
}

// URLCount is one entry of the popular URL list.
type URLCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

func (t *Traffic) popularURLs(n int) []URLCount {
	out := make([]URLCount, 0, len(t.PopularURLs))
	for u, c := range t.PopularURLs {
		out = append(out, URLCount{URL: u, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].URL < out[j].URL
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Snapshot returns the public figures. Popular URLs are included only when
// detailed is true.
func (t *Traffic) Snapshot(detailed bool) map[string]any {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := map[string]any{
		"uniqueVisitors24h": t.uniqueVisitors24h(),
		"totalRequests":     t.ReportRequests,
		"errorRate":         t.errorRate(),
		"averageLoadTime":   t.AverageLoadTime,
	}
	if detailed {
		out["popularUrls"] = t.popularURLs(5)
	}
	return out
}

// Save persists the traffic figures
func (t *Traffic) Save() error {
	t.mutex.Lock()
	t.LastPersisted = t.now()
	data, err := json.Marshal(t)
	t.mutex.Unlock()
	if err != nil {
		return fmt.Errorf("could not encode traffic: %w", err)
	}
	return writeAtomic(t.filePath, data)
}

func (t *Traffic) load() error {
	data, err := os.ReadFile(t.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open traffic file: %w", err)
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if err := json.Unmarshal(data, t); err != nil {
		return fmt.Errorf("could not decode traffic: %w", err)
	}
	if t.UniqueVisitors == nil {
		t.UniqueVisitors = make(map[string]time.Time)
	}
	if t.PopularURLs == nil {
		t.PopularURLs = make(map[string]int)
	}
	return nil
}
