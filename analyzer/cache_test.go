package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/seo-optimizer/report-engine/snapshot"
)

type countingRecorder struct {
	mu           sync.Mutex
	hits, misses int
}

func (r *countingRecorder) RecordCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func TestCachedSource(t *testing.T) {
	src := &stubSource{snap: &snapshot.AnalysisSnapshot{URL: "https://example.com"}}
	rec := &countingRecorder{}
	cache := NewCachedSource(src, time.Minute, 10, rec)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if _, err := cache.Snapshot(context.Background(), "https://example.com"); err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
	}
	if src.calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", src.calls)
	}
	if rec.hits != 2 || rec.misses != 1 {
		t.Errorf("Expected 2 hits and 1 miss, got %d/%d", rec.hits, rec.misses)
	}
	if !cache.IsCached("https://example.com") {
		t.Error("URL should be cached")
	}

	t.Run("Expiry", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		if cache.IsCached("https://example.com") {
			t.Error("Entry should have expired")
		}
		if _, err := cache.Snapshot(context.Background(), "https://example.com"); err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if src.calls != 2 {
			t.Errorf("Expected a refetch after expiry, got %d calls", src.calls)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats := cache.Stats()
		if stats.Entries != 1 || stats.Hits != 2 || stats.Misses != 2 {
			t.Errorf("Unexpected stats: %+v", stats)
		}
		cache.Clear()
		if cache.Stats().Entries != 0 {
			t.Error("Clear should empty the cache")
		}
	})
}

func TestCachedSourceErrorsNotCached(t *testing.T) {
	src := &stubSource{err: errors.New("upstream down")}
	cache := NewCachedSource(src, time.Minute, 10, nil)

	for i := 0; i < 2; i++ {
		if _, err := cache.Snapshot(context.Background(), "https://example.com"); err == nil {
			t.Fatal("Expected error")
		}
	}
	if src.calls != 2 {
		t.Errorf("Failures must not be cached, got %d calls", src.calls)
	}
}

func TestCachePurging(t *testing.T) {
	src := &stubSource{snap: &snapshot.AnalysisSnapshot{URL: "https://example.com"}}
	cache := NewCachedSource(src, time.Hour, 3, nil)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		cache.now = func() time.Time { return at }
		if _, err := cache.Snapshot(context.Background(), fmt.Sprintf("https://example.com/%d", i)); err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
	}

	if n := cache.Stats().Entries; n != 3 {
		t.Fatalf("Expected 3 entries after purge, got %d", n)
	}
	for i, want := range []bool{false, false, true, true, true} {
		if got := cache.IsCached(fmt.Sprintf("https://example.com/%d", i)); got != want {
			t.Errorf("Entry %d cached = %v, want %v", i, got, want)
		}
	}
}

func TestConcurrentCacheAccess(t *testing.T) {
	src := &stubSource{snap: &snapshot.AnalysisSnapshot{URL: "https://example.com"}}
	cache := NewCachedSource(src, time.Minute, 50, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cache.Run(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				url := fmt.Sprintf("https://example.com/%d", (g*100+i)%20)
				if _, err := cache.Snapshot(ctx, url); err != nil {
					t.Errorf("Snapshot failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	stats := cache.Stats()
	if stats.Hits+stats.Misses != 1000 {
		t.Errorf("Expected 1000 lookups, got %d", stats.Hits+stats.Misses)
	}
	if stats.Entries > 20 {
		t.Errorf("Expected at most 20 entries, got %d", stats.Entries)
	}
}
