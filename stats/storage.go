// Package stats keeps monthly report counters and request traffic figures,
// persisted as JSON under the data directory.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats represents report statistics for a specific month
type MonthlyStats struct {
	ReportsGenerated  int       `json:"reports_generated"`
	ReportsPublished  int       `json:"reports_published"`
	InvalidSnapshots  int       `json:"invalid_snapshots"`
	DegradedFields    int       `json:"degraded_fields"`
	UpstreamFailures  int       `json:"upstream_failures"`
	UploadFailures    int       `json:"upload_failures"`
	MetadataFailures  int       `json:"metadata_failures"`
	SnapshotCacheHits int       `json:"snapshot_cache_hits"`
	SnapshotCacheMiss int       `json:"snapshot_cache_misses"`
	LastUpdated       time.Time `json:"last_updated"`
}

// add folds d into s. LastUpdated is left to the caller.
func (s *MonthlyStats) add(d MonthlyStats) {
	s.ReportsGenerated += d.ReportsGenerated
	s.ReportsPublished += d.ReportsPublished
	s.InvalidSnapshots += d.InvalidSnapshots
	s.DegradedFields += d.DegradedFields
	s.UpstreamFailures += d.UpstreamFailures
	s.UploadFailures += d.UploadFailures
	s.MetadataFailures += d.MetadataFailures
	s.SnapshotCacheHits += d.SnapshotCacheHits
	s.SnapshotCacheMiss += d.SnapshotCacheMiss
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		now:         time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

// load reads statistics from file
func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// save writes statistics to file
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return writeAtomic(s.filePath, data)
}

// writeAtomic writes to a temporary file and renames it over path.
func writeAtomic(path string, data []byte) error {
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// backgroundWriter handles periodic writes to disk
func (s *Storage) backgroundWriter() {
	defer close(s.stopped)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-s.writeBuffer:
			s.flush()
		case <-ticker.C:
			s.flush()
		}
	}
}

func (s *Storage) flush() {
	if err := s.save(); err != nil {
		slog.Warn("failed to save statistics", "component", "stats", "error", err)
	}
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

// Add folds the given deltas into the current month.
func (s *Storage) Add(delta MonthlyStats) {
	month := s.currentMonth()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}
	stats.add(delta)
	stats.LastUpdated = s.now()

	// Request a write if enough time has passed
	if s.now().Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = s.now()
	}
}

// RecordCacheLookup counts a snapshot cache hit or miss.
func (s *Storage) RecordCacheLookup(hit bool) {
	if hit {
		s.Add(MonthlyStats{SnapshotCacheHits: 1})
		return
	}
	s.Add(MonthlyStats{SnapshotCacheMiss: 1})
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	month := s.currentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[month]; exists {
		return *stats
	}
	return MonthlyStats{}
}

// Cleanup removes statistics older than retainMonths, counting the current
// month as the first.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}
	keep := make(map[string]bool, retainMonths)
	now := s.now()
	for i := 0; i < retainMonths; i++ {
		keep[now.AddDate(0, -i, 0).Format("2006-01")] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
	slog.Debug("statistics cleaned up", "component", "stats", "retainMonths", retainMonths)
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Shutdown stops the background writer and saves once more.
func (s *Storage) Shutdown() error {
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
	})
	return s.save()
}
