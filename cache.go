package folio

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitalics/folio/metrics"
	"github.com/vitalics/folio/search"
)

// ContentCache holds the latest content snapshot and its search engine,
// reloading from the Store when the TTL expires or after Invalidate.
type ContentCache struct {
	mu      sync.RWMutex
	content *Content
	engine  *search.Engine
	fetched time.Time
	stale   bool
	ttl     time.Duration
	store   *Store
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewContentCache creates a ContentCache backed by the given Store.
// A negative ttl never expires; only Invalidate triggers a reload.
func NewContentCache(s *Store, ttl time.Duration, m *metrics.Collector, logger *zap.Logger) *ContentCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentCache{store: s, ttl: ttl, metrics: m, logger: logger}
}

func (c *ContentCache) valid() bool {
	if c.content == nil || c.stale {
		return false
	}
	return c.ttl < 0 || time.Since(c.fetched) < c.ttl
}

// Invalidate marks the snapshot stale so the next read reloads it.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

func (c *ContentCache) load() error {
	if c.valid() {
		return nil
	}
	start := time.Now()
	content, err := c.store.Load()
	if err != nil {
		c.metrics.RecordReload(time.Since(start), err, 0, 0, 0)
		if c.content == nil {
			return err
		}
		// Keep serving the previous snapshot until the next expiry.
		c.logger.Error("content reload failed; serving previous snapshot", zap.Error(err))
		c.fetched = time.Now()
		c.stale = false
		return nil
	}
	engine := search.NewEngine(content.SearchSource())
	indexedPosts, indexedTags, indexedAuthors := engine.Size()
	c.metrics.RecordReload(time.Since(start), nil, len(content.posts), len(content.authors), len(content.projects))
	c.logger.Info("content loaded",
		zap.Int("posts", len(content.posts)),
		zap.Int("drafts", len(content.drafts)),
		zap.Int("authors", len(content.authors)),
		zap.Int("projects", len(content.projects)),
		zap.Int("indexed_posts", indexedPosts),
		zap.Int("indexed_tags", indexedTags),
		zap.Int("indexed_authors", indexedAuthors),
		zap.Duration("took", time.Since(start)),
	)
	c.content = content
	c.engine = engine
	c.fetched = time.Now()
	c.stale = false
	return nil
}

// ensureLoaded returns the cached snapshot after ensuring it is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *ContentCache) ensureLoaded() (*Content, *search.Engine, error) {
	c.mu.RLock()
	if c.valid() {
		content, engine := c.content, c.engine
		c.mu.RUnlock()
		return content, engine, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, err
	}
	return c.content, c.engine, nil
}

// Content returns the current snapshot.
func (c *ContentCache) Content() (*Content, error) {
	content, _, err := c.ensureLoaded()
	return content, err
}

// Search returns the engine built from the current snapshot.
func (c *ContentCache) Search() (*search.Engine, error) {
	_, engine, err := c.ensureLoaded()
	return engine, err
}
