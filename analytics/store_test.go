package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

const firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := InitSalt(s); err != nil {
		t.Fatalf("InitSalt: %v", err)
	}
	return s
}

func TestInitSaltIsPersistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := InitSalt(s); err != nil {
		t.Fatalf("InitSalt: %v", err)
	}
	first := s.HashIP("203.0.113.1")
	s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if err := InitSalt(s); err != nil {
		t.Fatalf("InitSalt: %v", err)
	}
	if got := s.HashIP("203.0.113.1"); got != first {
		t.Errorf("HashIP after reopen = %q, want %q", got, first)
	}
	if len(first) != 16 {
		t.Errorf("len(HashIP) = %d, want 16", len(first))
	}
}

func TestSettings(t *testing.T) {
	s := setupTestStore(t)

	got, err := s.GetSetting("missing")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "" {
		t.Errorf("GetSetting(missing) = %q, want empty", got)
	}
	if err := s.SetSetting("k", "v1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting("k", "v2"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}
	if got, _ := s.GetSetting("k"); got != "v2" {
		t.Errorf("GetSetting(k) = %q, want %q", got, "v2")
	}
	if got, _ := s.GetSetting("schema_version"); got != "1" {
		t.Errorf("schema_version = %q, want %q", got, "1")
	}
}

func TestVisitorIDRotatesDaily(t *testing.T) {
	s := setupTestStore(t)
	day1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if s.VisitorID("1.2.3.4", "ua", day1) != s.VisitorID("1.2.3.4", "ua", day1.Add(time.Hour)) {
		t.Errorf("VisitorID changed within a day")
	}
	if s.VisitorID("1.2.3.4", "ua", day1) == s.VisitorID("1.2.3.4", "ua", day1.AddDate(0, 0, 1)) {
		t.Errorf("VisitorID did not rotate across days")
	}
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	views := []PageView{
		{Path: "/", UserAgent: firefoxUA, IP: "203.0.113.1", Timestamp: now},
		{Path: "/blog/hello", UserAgent: firefoxUA, IP: "203.0.113.1", Referrer: "https://www.google.com/", Timestamp: now},
		{Path: "/blog/hello", UserAgent: firefoxUA, IP: "203.0.113.2", Timestamp: now},
		{Path: "/blog/hello", UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1)", IP: "66.249.66.1", Timestamp: now},
	}
	for _, v := range views {
		if err := s.RecordView(ctx, v); err != nil {
			t.Fatalf("RecordView: %v", err)
		}
	}
	for _, q := range []struct {
		query string
		hits  int
	}{{"go", 3}, {"Go", 2}, {"rust", 0}} {
		if err := s.RecordSearch(ctx, q.query, "all", q.hits); err != nil {
			t.Fatalf("RecordSearch: %v", err)
		}
	}

	stats, err := s.Stats(ctx, now.Add(-time.Hour), now.Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalViews != 3 {
		t.Errorf("TotalViews = %d, want 3", stats.TotalViews)
	}
	if stats.UniqueVisitors != 2 {
		t.Errorf("UniqueVisitors = %d, want 2", stats.UniqueVisitors)
	}
	if stats.BotViews != 1 {
		t.Errorf("BotViews = %d, want 1", stats.BotViews)
	}
	if stats.TotalSearches != 3 {
		t.Errorf("TotalSearches = %d, want 3", stats.TotalSearches)
	}
	if len(stats.TopPages) == 0 || stats.TopPages[0].Path != "/blog/hello" || stats.TopPages[0].Views != 2 {
		t.Errorf("TopPages = %+v, want /blog/hello with 2 views first", stats.TopPages)
	}
	if len(stats.TopReferrers) != 2 || stats.TopReferrers[0].Name != "Direct" {
		t.Errorf("TopReferrers = %+v, want Direct first of 2", stats.TopReferrers)
	}
	if len(stats.TopBots) != 1 || stats.TopBots[0].Name != "Googlebot" {
		t.Errorf("TopBots = %+v, want [Googlebot]", stats.TopBots)
	}
	if len(stats.TopQueries) != 2 || stats.TopQueries[0].Query != "go" || stats.TopQueries[0].Count != 2 {
		t.Errorf("TopQueries = %+v, want go x2 first", stats.TopQueries)
	}
	if stats.TopQueries[0].Hits != 2 {
		t.Errorf("TopQueries[0].Hits = %d, want 2 (latest run)", stats.TopQueries[0].Hits)
	}
	if len(stats.ZeroResultQueries) != 1 || stats.ZeroResultQueries[0].Query != "rust" {
		t.Errorf("ZeroResultQueries = %+v, want [rust]", stats.ZeroResultQueries)
	}
	if len(stats.DailyViews) != 1 || stats.DailyViews[0].Date != now.Format("2006-01-02") || stats.DailyViews[0].Views != 3 {
		t.Errorf("DailyViews = %+v, want one day with 3 views", stats.DailyViews)
	}
}

func TestStatsRangeExcludesOutside(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	old := time.Now().UTC().AddDate(0, 0, -10)
	if err := s.RecordView(ctx, PageView{Path: "/", UserAgent: firefoxUA, IP: "203.0.113.1", Timestamp: old}); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	now := time.Now().UTC()
	stats, err := s.Stats(ctx, now.AddDate(0, 0, -1), now, 5)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalViews != 0 {
		t.Errorf("TotalViews = %d, want 0", stats.TotalViews)
	}
	if stats.TopPages == nil || stats.TopQueries == nil {
		t.Errorf("empty lists must be non-nil for JSON")
	}
}

func TestCleanup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	for _, ts := range []time.Time{now.AddDate(0, 0, -40), now.AddDate(0, 0, -1)} {
		if err := s.RecordView(ctx, PageView{Path: "/", UserAgent: firefoxUA, IP: "203.0.113.1", Timestamp: ts}); err != nil {
			t.Fatalf("RecordView: %v", err)
		}
	}
	n, err := s.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("Cleanup deleted %d rows, want 1", n)
	}
	stats, err := s.Stats(ctx, time.Time{}, now.Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalViews != 1 {
		t.Errorf("TotalViews after cleanup = %d, want 1", stats.TotalViews)
	}
}

func TestRunCleanupStopsOnCancel(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunCleanup(ctx, 30, time.Hour, nil)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunCleanup did not return after cancel")
	}
}
