package recurrence

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/teambition/rrule-go"
)

func parsedSet(t *testing.T, rule string, anchor time.Time) *rrule.Set {
	t.Helper()
	full := fmt.Sprintf("DTSTART:%s\nRRULE:%s", anchor.UTC().Format("20060102T150405Z"), rule)
	set, err := rrule.StrToRRuleSet(full)
	if err != nil {
		t.Fatalf("failed to parse test rule: %v", err)
	}
	return set
}

func TestRuleCache_BasicOperations(t *testing.T) {
	cache := NewRuleCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rule := "FREQ=DAILY;COUNT=5"

	// Cache miss first
	result, found := cache.Get(rule, anchor)
	if found {
		t.Error("Expected cache miss, got hit")
	}
	if result != nil {
		t.Error("Expected nil result on cache miss")
	}

	set := parsedSet(t, rule, anchor)
	cache.Set(rule, anchor, set)

	// Cache hit
	result, found = cache.Get(rule, anchor)
	if !found {
		t.Error("Expected cache hit, got miss")
	}
	if result != set {
		t.Errorf("Expected cached set, got %v", result)
	}
}

func TestRuleCache_TTLExpiration(t *testing.T) {
	cache := NewRuleCache(CacheConfig{
		TTL:             100 * time.Millisecond, // Very short TTL for testing
		MaxEntries:      100,
		CleanupInterval: 50 * time.Millisecond,
	})
	defer cache.Close()

	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rule := "FREQ=DAILY;COUNT=5"
	cache.Set(rule, anchor, parsedSet(t, rule, anchor))

	// Should be found immediately
	if _, found := cache.Get(rule, anchor); !found {
		t.Error("Expected cache hit immediately after set")
	}

	// Wait for expiration
	time.Sleep(150 * time.Millisecond)

	if _, found := cache.Get(rule, anchor); found {
		t.Error("Expected cache miss after TTL expiration")
	}
}

func TestRuleCache_DifferentKeys(t *testing.T) {
	cache := NewRuleCache(DefaultCacheConfig)
	defer cache.Close()

	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	otherAnchor := anchor.Add(time.Minute)

	daily := parsedSet(t, "FREQ=DAILY;COUNT=5", anchor)
	weekly := parsedSet(t, "FREQ=WEEKLY;COUNT=5", anchor)
	shifted := parsedSet(t, "FREQ=DAILY;COUNT=5", otherAnchor)

	cache.Set("FREQ=DAILY;COUNT=5", anchor, daily)
	cache.Set("FREQ=WEEKLY;COUNT=5", anchor, weekly)
	cache.Set("FREQ=DAILY;COUNT=5", otherAnchor, shifted)

	// Same rule text under a different anchor is a different key
	if got, found := cache.Get("FREQ=DAILY;COUNT=5", anchor); !found || got != daily {
		t.Error("Expected anchor-specific entry for daily rule")
	}
	if got, found := cache.Get("FREQ=DAILY;COUNT=5", otherAnchor); !found || got != shifted {
		t.Error("Expected separate entry for shifted anchor")
	}
	if got, found := cache.Get("FREQ=WEEKLY;COUNT=5", anchor); !found || got != weekly {
		t.Error("Expected separate entry for weekly rule")
	}
}

func TestRuleCache_Stats(t *testing.T) {
	cache := NewRuleCache(DefaultCacheConfig)
	defer cache.Close()

	stats := cache.Stats()
	if stats.TotalEntries != 0 {
		t.Errorf("Expected 0 initial entries, got %d", stats.TotalEntries)
	}

	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rule := fmt.Sprintf("FREQ=DAILY;COUNT=%d", i+1)
		cache.Set(rule, anchor, parsedSet(t, rule, anchor))
	}

	stats = cache.Stats()
	if stats.TotalEntries != 5 {
		t.Errorf("Expected 5 entries, got %d", stats.TotalEntries)
	}
	if stats.ActiveEntries != 5 {
		t.Errorf("Expected 5 active entries, got %d", stats.ActiveEntries)
	}
}

// Test cache size limits and LRU eviction
func TestRuleCache_MaxEntriesEviction(t *testing.T) {
	cache := NewRuleCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      3, // Small limit for testing
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rule := fmt.Sprintf("FREQ=DAILY;COUNT=%d", i+1)
		cache.Set(rule, anchor, parsedSet(t, rule, anchor))
	}

	stats := cache.Stats()
	if stats.TotalEntries != 3 {
		t.Errorf("Expected 3 entries, got %d", stats.TotalEntries)
	}

	// Adding one more entry triggers eviction
	newest := "FREQ=WEEKLY;COUNT=1"
	cache.Set(newest, anchor, parsedSet(t, newest, anchor))

	stats = cache.Stats()
	if stats.TotalEntries != 3 {
		t.Errorf("Expected 3 entries after eviction, got %d", stats.TotalEntries)
	}

	if _, found := cache.Get(newest, anchor); !found {
		t.Error("Expected newest entry to be present after eviction")
	}

	// Oldest entry should be evicted (LRU)
	if _, found := cache.Get("FREQ=DAILY;COUNT=1", anchor); found {
		t.Error("Expected oldest entry to be evicted")
	}
}

// Test concurrent access to cache
func TestRuleCache_ConcurrentAccess(t *testing.T) {
	cache := NewRuleCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	const numGoroutines = 10
	const operationsPerGoroutine = 50

	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	shared := parsedSet(t, "FREQ=DAILY", anchor)

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()

			for j := 0; j < operationsPerGoroutine; j++ {
				rule := fmt.Sprintf("FREQ=DAILY;COUNT=%d", goroutineID*operationsPerGoroutine+j)

				// Mix of reads and writes
				if j%2 == 0 {
					cache.Set(rule, anchor, shared)
				} else {
					cache.Get(rule, anchor)
				}
			}
		}(i)
	}

	wg.Wait()

	// Verify cache is still functional after concurrent access
	probe := "FREQ=DAILY;COUNT=999"
	cache.Set(probe, anchor, shared)
	if _, found := cache.Get(probe, anchor); !found {
		t.Error("Cache should still be functional after concurrent access")
	}
}

// Test cleanup behavior in detail
func TestRuleCache_DetailedCleanup(t *testing.T) {
	cache := NewRuleCache(CacheConfig{
		TTL:             200 * time.Millisecond,
		MaxEntries:      10,
		CleanupInterval: 100 * time.Millisecond,
	})
	defer cache.Close()

	anchor := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rule := fmt.Sprintf("FREQ=DAILY;COUNT=%d", i+1)
		cache.Set(rule, anchor, parsedSet(t, rule, anchor))
	}

	stats := cache.Stats()
	if stats.TotalEntries != 5 {
		t.Errorf("Expected 5 entries, got %d", stats.TotalEntries)
	}

	// Wait past the TTL and at least one cleanup cycle
	time.Sleep(400 * time.Millisecond)

	stats = cache.Stats()
	if stats.TotalEntries != 0 {
		t.Errorf("Expected 0 entries after TTL expiration and cleanup, got %d", stats.TotalEntries)
	}
}
