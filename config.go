package folio

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vitalics/folio/metrics"
)

// AnalyticsConfig controls first-party page view and search analytics.
type AnalyticsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	DatabasePath  string `mapstructure:"databasePath"`
	Token         string `mapstructure:"token"` // bearer token for the stats API; empty disables it
	RetentionDays int    `mapstructure:"retentionDays"`
}

// GiscusConfig configures the comments widget on post pages.
type GiscusConfig struct {
	Repo       string `mapstructure:"repo"`
	RepoID     string `mapstructure:"repoId"`
	Category   string `mapstructure:"category"`
	CategoryID string `mapstructure:"categoryId"`
	Mapping    string `mapstructure:"mapping"`
}

// Enabled reports whether enough is configured to render the widget.
func (g GiscusConfig) Enabled() bool {
	return g.Repo != "" && g.RepoID != "" && g.CategoryID != ""
}

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `mapstructure:"name"`
	URL         string `mapstructure:"url"`
	Description string `mapstructure:"description"`
	Author      string `mapstructure:"author"`
	Email       string `mapstructure:"email"`
	Language    string `mapstructure:"language"`

	Addr       string `mapstructure:"addr"`
	ContentDir string `mapstructure:"contentDir"`
	StaticDir  string `mapstructure:"staticDir"`
	OutputDir  string `mapstructure:"outputDir"`

	PostsPerPage int           `mapstructure:"postsPerPage"`
	HomePosts    int           `mapstructure:"homePosts"`
	CacheTTL     time.Duration `mapstructure:"cacheTTL"`
	Watch        bool          `mapstructure:"watch"`

	SessionSecret string `mapstructure:"sessionSecret"`
	CookieSecure  bool   `mapstructure:"cookieSecure"`

	Analytics       AnalyticsConfig   `mapstructure:"analytics"`
	SearchRateLimit int               `mapstructure:"searchRateLimit"` // queries per IP per minute
	Metrics         bool              `mapstructure:"metrics"`
	Giscus          GiscusConfig      `mapstructure:"giscus"`
	Socials         map[string]string `mapstructure:"socials"`
	Debug           bool              `mapstructure:"debug"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.PostsPerPage <= 0 {
		c.PostsPerPage = 5
	}
	if c.HomePosts <= 0 {
		c.HomePosts = 5
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.Analytics.DatabasePath == "" {
		c.Analytics.DatabasePath = "data/analytics.db"
	}
	if c.Analytics.RetentionDays <= 0 {
		c.Analytics.RetentionDays = 365
	}
	if c.SearchRateLimit <= 0 {
		c.SearchRateLimit = 30
	}
	if c.Giscus.Mapping == "" {
		c.Giscus.Mapping = "pathname"
	}
}

// LoadConfig reads configuration from an optional YAML file and FOLIO_*
// environment variables. A missing file is not an error.
func LoadConfig(path string) (SiteConfig, error) {
	v := viper.New()

	v.SetDefault("name", "Blog")
	v.SetDefault("url", "http://localhost:3000")
	v.SetDefault("description", "")
	v.SetDefault("author", "")
	v.SetDefault("email", "")
	v.SetDefault("language", "en")
	v.SetDefault("addr", ":3000")
	v.SetDefault("contentDir", "content")
	v.SetDefault("staticDir", "public")
	v.SetDefault("outputDir", "dist")
	v.SetDefault("postsPerPage", 5)
	v.SetDefault("homePosts", 5)
	v.SetDefault("cacheTTL", "5m")
	v.SetDefault("watch", false)
	v.SetDefault("sessionSecret", "")
	v.SetDefault("cookieSecure", false)
	v.SetDefault("analytics.enabled", false)
	v.SetDefault("analytics.databasePath", "data/analytics.db")
	v.SetDefault("analytics.token", "")
	v.SetDefault("analytics.retentionDays", 365)
	v.SetDefault("searchRateLimit", 30)
	v.SetDefault("metrics", true)
	v.SetDefault("giscus.repo", "")
	v.SetDefault("giscus.repoId", "")
	v.SetDefault("giscus.category", "")
	v.SetDefault("giscus.categoryId", "")
	v.SetDefault("giscus.mapping", "pathname")
	v.SetDefault("debug", false)

	if path == "" {
		path = "config.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return SiteConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithLogger replaces the default production logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithFS sets the filesystem content is read from (default the OS filesystem).
func WithFS(fsys afero.Fs) Option {
	return func(a *App) {
		a.fs = fsys
	}
}

// WithMetrics uses c instead of a collector on a fresh registry.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *App) {
		a.Metrics = c
	}
}
