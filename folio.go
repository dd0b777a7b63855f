// Package folio is a personal blog and portfolio engine built with Go, Echo,
// and templ.
//
// Content lives in a directory of markdown/MDX files (blog posts, author
// profiles, projects) with YAML front matter. folio loads it into an
// in-memory snapshot, indexes it for search, and serves post, tag, author
// and project pages plus RSS, sitemap, llms.txt and a search API.
//
// Users provide page templates via the ViewFuncs struct (the views package
// ships a default set); folio handles the handler logic, middleware,
// settings, analytics and static export.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitalics/folio/analytics"
	"github.com/vitalics/folio/markdown"
	"github.com/vitalics/folio/metrics"
	"github.com/vitalics/folio/search"
)

// Page is the request-scoped data every view receives.
type Page struct {
	Site        SiteConfig
	Meta        PageMeta
	Path        string
	Settings    Settings
	Mode        string // resolved color mode: light or dark
	CSRF        string
	Presets     *Presets
	JSONLD      []string
	Breadcrumbs []Breadcrumb
}

// ViewFuncs holds user-provided templ components that the engine calls when
// rendering pages.
type ViewFuncs struct {
	Home        func(p Page, posts []BlogPost, projects []Project) templ.Component
	BlogList    func(p Page, pg Pagination) templ.Component
	Post        func(p Page, post BlogPost, authors []Author, adj AdjacentPosts, related []BlogPost) templ.Component
	Tags        func(p Page, tags []TagCount) templ.Component
	Tag         func(p Page, tag string, posts []BlogPost) templ.Component
	Authors     func(p Page, authors []Author) templ.Component
	Author      func(p Page, author Author, posts []BlogPost) templ.Component
	Projects    func(p Page, projects []Project) templ.Component
	Search      func(p Page, q string, res search.Result) templ.Component
	NotFound    func(p Page) templ.Component
	ServerError func(p Page) templ.Component
}

// App is the central folio application. It wires together the content
// store, cache, handlers, middleware, and user-provided templates.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Logger    *zap.Logger
	Store     *Store
	Cache     *ContentCache
	Views     ViewFuncs
	Presets   *Presets
	Metrics   *metrics.Collector
	Analytics *analytics.Store

	fs            afero.Fs
	images        *imageCache
	searchLimiter *RateLimiter
	customRoutes  []func(*App)
	initialized   bool
}

// New creates an App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init prepares everything short of listening: logger, presets, content
// cache, analytics, middleware and routes. Start calls it; tests and the
// static exporter call it directly.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Logger == nil {
		l, err := newLogger(a.Config.Debug)
		if err != nil {
			return fmt.Errorf("folio: init logger: %w", err)
		}
		a.Logger = l
	}
	if a.fs == nil {
		a.fs = afero.NewOsFs()
	}
	if a.Config.SessionSecret == "" {
		a.Logger.Warn("sessionSecret is empty; settings cookies use an insecure development key")
		a.Config.SessionSecret = "folio-insecure-development-secret"
	}

	presets, err := LoadPresets()
	if err != nil {
		return fmt.Errorf("folio: %w", err)
	}
	a.Presets = presets

	if a.Metrics == nil && a.Config.Metrics {
		a.Metrics = metrics.NewCollector(prometheus.NewRegistry())
	}

	a.Store = NewStore(a.fs, a.Config.ContentDir, markdown.New(), a.Logger.Named("content"))
	a.Cache = NewContentCache(a.Store, a.Config.CacheTTL, a.Metrics, a.Logger.Named("cache"))
	if _, err := a.Cache.Content(); err != nil {
		return fmt.Errorf("folio: load content: %w", err)
	}

	a.searchLimiter = NewRateLimiter(a.Config.SearchRateLimit, time.Minute)
	a.images = newImageCache(imageCacheSize)

	if a.Config.Analytics.Enabled && a.Analytics == nil {
		st, err := analytics.NewStore(a.Config.Analytics.DatabasePath)
		if err != nil {
			return fmt.Errorf("folio: init analytics: %w", err)
		}
		if err := analytics.InitSalt(st); err != nil {
			st.Close()
			return fmt.Errorf("folio: init analytics salt: %w", err)
		}
		a.Analytics = st
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and serves until ctx is cancelled. With
// Config.Watch set, content edits invalidate the cache.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Echo.Server.ReadHeaderTimeout = 10 * time.Second

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	})
	if a.Config.Watch {
		g.Go(func() error {
			return WatchContent(ctx, a.Config.ContentDir, DefaultDebounce, a.Cache.Invalidate, a.Logger.Named("watch"))
		})
	}
	if a.Analytics != nil {
		g.Go(func() error {
			a.Analytics.RunCleanup(ctx, a.Config.Analytics.RetentionDays, 24*time.Hour, a.Logger.Named("analytics"))
			return nil
		})
	}
	return g.Wait()
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Engine assets are served from the embedded filesystem; everything
	// else under /public comes from the site's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/folio.js", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))))
	static := filesOnly{afero.NewHttpFs(a.fs).Dir(a.Config.StaticDir)}
	files := http.StripPrefix("/public/", http.FileServer(static))
	e.GET("/public/*", func(c echo.Context) error {
		// Missing files go through the error handler so they get the
		// not-found page and no long-lived cache header.
		f, err := static.Open(strings.TrimPrefix(c.Request().URL.Path, "/public"))
		if err != nil {
			return echo.ErrNotFound
		}
		f.Close()
		files.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", a.handleHealth)

	e.GET("/", a.handleHome)
	e.GET("/blog", a.handleBlog)
	e.GET("/blog/:slug", a.handleBlogSlug)
	e.GET("/tags", a.handleTags)
	e.GET("/tags/:tag", a.handleTag)
	e.GET("/authors", a.handleAuthors)
	e.GET("/authors/:slug", a.handleAuthor)
	e.GET("/projects", a.handleProjects)

	e.GET("/search", a.handleSearch)
	e.GET("/api/search-data", a.handleSearchData)
	e.GET("/rss.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/llms.txt", a.handleLLMs)
	e.GET("/_image", a.handleImage)

	e.GET("/settings", a.handleGetSettings)
	e.POST("/settings", a.handlePostSettings)
	e.GET("/settings/theme.css", a.handleThemeCSS)
	e.GET("/code-themes/:file", a.handleCodeThemeCSS)

	if a.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))
	}

	if a.Analytics != nil {
		h := analytics.NewHandler(a.Analytics, a.Config.Analytics.Token)
		h.RegisterRoutes(e)
	}
}

// filesOnly hides directories so the file server never lists them.
type filesOnly struct{ http.FileSystem }

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	if info, err := file.Stat(); err != nil || info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

// Close releases the analytics database and flushes the logger.
func (a *App) Close() error {
	var err error
	if a.searchLimiter != nil {
		a.searchLimiter.Stop()
	}
	if a.Analytics != nil {
		err = a.Analytics.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return err
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
