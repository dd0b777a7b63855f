package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// DefaultStatsLimit caps the ranked lists in Stats when no limit is given.
const DefaultStatsLimit = 10

// Store provides database operations for analytics.
type Store struct {
	db   *sql.DB
	salt string
}

// NewStore opens (creating if needed) the analytics database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create analytics dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS page_views (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS bot_views (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			kind TEXT NOT NULL,
			hits INTEGER NOT NULL,
			timestamp DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_page_views_timestamp ON page_views(timestamp);
		CREATE INDEX IF NOT EXISTS idx_page_views_path ON page_views(path);
		CREATE INDEX IF NOT EXISTS idx_bot_views_timestamp ON bot_views(timestamp);
		CREATE INDEX IF NOT EXISTS idx_searches_timestamp ON searches(timestamp);
		CREATE INDEX IF NOT EXISTS idx_searches_query ON searches(query);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	verStr, err := s.GetSetting("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		version, err = strconv.Atoi(verStr)
		if err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	return s.SetSetting("schema_version", strconv.Itoa(currentSchemaVersion))
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// RecordView stores a page view. Crawlers go to the bot table.
func (s *Store) RecordView(ctx context.Context, v PageView) error {
	ts := v.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()

	if IsBot(v.UserAgent) {
		_, err := s.db.ExecContext(ctx, `INSERT INTO bot_views
			(bot_name, ip_hash, user_agent, path, timestamp) VALUES (?, ?, ?, ?, ?)`,
			ExtractBotName(v.UserAgent), s.HashIP(v.IP), v.UserAgent, v.Path, ts)
		if err != nil {
			return fmt.Errorf("insert bot view: %w", err)
		}
		return nil
	}

	browser, osName, device := ParseUserAgent(v.UserAgent)
	_, err := s.db.ExecContext(ctx, `INSERT INTO page_views
		(visitor_id, ip_hash, browser, os, device, path, referrer, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.VisitorID(v.IP, v.UserAgent, ts), s.HashIP(v.IP), browser, osName, device,
		v.Path, CleanReferrer(v.Referrer), ts)
	if err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}
	return nil
}

// RecordSearch stores one search query with its kind and hit count.
func (s *Store) RecordSearch(ctx context.Context, query, kind string, hits int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO searches (query, kind, hits, timestamp)
		VALUES (?, ?, ?, ?)`, query, kind, hits, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

func (s *Store) count(ctx context.Context, dst *int, query string, args ...interface{}) error {
	return s.db.QueryRowContext(ctx, query, args...).Scan(dst)
}

func (s *Store) dimensions(ctx context.Context, query string, args ...interface{}) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) queries(ctx context.Context, query string, args ...interface{}) ([]QueryStat, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QueryStat{}
	for rows.Next() {
		var q QueryStat
		if err := rows.Scan(&q.Query, &q.Count, &q.Hits); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Stats aggregates views and searches between from and to. limit caps the
// ranked lists (DefaultStatsLimit when <= 0).
func (s *Store) Stats(ctx context.Context, from, to time.Time, limit int) (*Stats, error) {
	if limit <= 0 {
		limit = DefaultStatsLimit
	}
	from, to = from.UTC(), to.UTC()
	stats := &Stats{
		Period: from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		From:   from,
		To:     to,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.count(ctx, &stats.TotalViews,
			`SELECT COUNT(*) FROM page_views WHERE timestamp >= ? AND timestamp <= ?`, from, to)
		if err != nil {
			return fmt.Errorf("count views: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.count(ctx, &stats.UniqueVisitors,
			`SELECT COUNT(DISTINCT visitor_id) FROM page_views WHERE timestamp >= ? AND timestamp <= ?`, from, to)
		if err != nil {
			return fmt.Errorf("count unique visitors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.count(ctx, &stats.BotViews,
			`SELECT COUNT(*) FROM bot_views WHERE timestamp >= ? AND timestamp <= ?`, from, to)
		if err != nil {
			return fmt.Errorf("count bot views: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.count(ctx, &stats.TotalSearches,
			`SELECT COUNT(*) FROM searches WHERE timestamp >= ? AND timestamp <= ?`, from, to)
		if err != nil {
			return fmt.Errorf("count searches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.dimensions(ctx, `SELECT path, COUNT(*) AS views FROM page_views
			WHERE timestamp >= ? AND timestamp <= ?
			GROUP BY path ORDER BY views DESC, path ASC LIMIT ?`, from, to, limit)
		if err != nil {
			return fmt.Errorf("top pages: %w", err)
		}
		stats.TopPages = make([]PageStat, len(rows))
		for i, r := range rows {
			stats.TopPages[i] = PageStat{Path: r.Name, Views: r.Count}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats.TopReferrers, err = s.dimensions(ctx, `SELECT referrer, COUNT(*) AS n FROM page_views
			WHERE timestamp >= ? AND timestamp <= ?
			GROUP BY referrer ORDER BY n DESC, referrer ASC LIMIT ?`, from, to, limit)
		if err != nil {
			return fmt.Errorf("top referrers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats.Browsers, err = s.dimensions(ctx, `SELECT browser, COUNT(*) AS n FROM page_views
			WHERE timestamp >= ? AND timestamp <= ?
			GROUP BY browser ORDER BY n DESC, browser ASC`, from, to)
		if err != nil {
			return fmt.Errorf("browser stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats.Devices, err = s.dimensions(ctx, `SELECT device, COUNT(*) AS n FROM page_views
			WHERE timestamp >= ? AND timestamp <= ?
			GROUP BY device ORDER BY n DESC, device ASC`, from, to)
		if err != nil {
			return fmt.Errorf("device stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats.TopBots, err = s.dimensions(ctx, `SELECT bot_name, COUNT(*) AS n FROM bot_views
			WHERE timestamp >= ? AND timestamp <= ?
			GROUP BY bot_name ORDER BY n DESC, bot_name ASC LIMIT ?`, from, to, limit)
		if err != nil {
			return fmt.Errorf("top bots: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats.TopQueries, err = s.queries(ctx, `SELECT g.q, g.n, s.hits FROM (
				SELECT lower(query) AS q, COUNT(*) AS n, MAX(id) AS last_id FROM searches
				WHERE timestamp >= ? AND timestamp <= ? GROUP BY q
			) g JOIN searches s ON s.id = g.last_id
			ORDER BY g.n DESC, g.q ASC LIMIT ?`, from, to, limit)
		if err != nil {
			return fmt.Errorf("top queries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats.ZeroResultQueries, err = s.queries(ctx, `SELECT lower(query) AS q, COUNT(*) AS n, 0
			FROM searches WHERE hits = 0 AND timestamp >= ? AND timestamp <= ?
			GROUP BY q ORDER BY n DESC, q ASC LIMIT ?`, from, to, limit)
		if err != nil {
			return fmt.Errorf("zero result queries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.dimensions(ctx, `SELECT substr(timestamp, 1, 10) AS day, COUNT(*) FROM page_views
			WHERE timestamp >= ? AND timestamp <= ?
			GROUP BY day ORDER BY day ASC`, from, to)
		if err != nil {
			return fmt.Errorf("daily views: %w", err)
		}
		stats.DailyViews = make([]DailyView, len(rows))
		for i, r := range rows {
			stats.DailyViews[i] = DailyView{Date: r.Name, Views: r.Count}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// Cleanup removes views and searches older than retentionDays and returns
// the number of deleted rows.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	var total int64
	for _, table := range []string{"page_views", "bot_views", "searches"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// RunCleanup runs Cleanup immediately and then every interval until ctx is
// cancelled.
func (s *Store) RunCleanup(ctx context.Context, retentionDays int, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	run := func() {
		n, err := s.Cleanup(ctx, retentionDays)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("analytics cleanup failed", zap.Error(err))
			}
			return
		}
		if n > 0 {
			logger.Info("analytics cleanup", zap.Int64("deleted", n), zap.Int("retention_days", retentionDays))
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			run()
		case <-ctx.Done():
			return
		}
	}
}
