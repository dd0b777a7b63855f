package folio

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vitalics/folio/analytics"
)

const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://giscus.app; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' https: data:; " +
	"font-src 'self' data:; " +
	"connect-src 'self'; " +
	"frame-src https://www.youtube-nocookie.com https://player.vimeo.com https://giscus.app; " +
	"media-src 'self' data:"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
	}))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				a.Logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			a.Logger.Info("request", fields...)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	if a.Metrics != nil {
		e.Use(a.metricsMiddleware)
	}

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/") ||
				c.Request().URL.Path == "/_image"
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:  middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup: "header:X-CSRF-Token,form:_csrf",
		CookieName:  "_csrf",
		CookiePath:  "/",
		CookieSameSite: func() http.SameSite {
			return http.SameSiteLaxMode
		}(),
		CookieSecure: a.Config.CookieSecure,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/api/") ||
				strings.HasPrefix(path, "/public/") ||
				path == "/metrics" || path == "/healthz" ||
				(path == "/search" && !prefersHTML(c))
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	if a.Analytics != nil {
		e.Use(a.analyticsMiddleware)
	}

	e.Use(cacheControlMiddleware)
}

// cacheControlMiddleware sets the caching policy of a successful response
// per route family. Handlers may override it; httpErrorHandler replaces it
// with no-store.
func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		h := c.Response().Header()
		switch {
		case strings.HasPrefix(path, "/public/") || strings.HasPrefix(path, "/code-themes/") || path == "/_image":
			h.Set("Cache-Control", "public, max-age=31536000, immutable")
		case path == "/sitemap.xml" || path == "/rss.xml" || path == "/robots.txt" || path == "/llms.txt":
			h.Set("Cache-Control", "public, max-age=3600")
		case path == "/search" && !prefersHTML(c):
			h.Set("Cache-Control", "public, max-age=604800, stale-while-revalidate=86400, immutable")
		case strings.HasPrefix(path, "/settings") || strings.HasPrefix(path, "/api/analytics/") ||
			path == "/metrics" || path == "/healthz":
			h.Set("Cache-Control", "no-store")
		default:
			// Pages vary on the settings cookie, so shared caches must not
			// keep them.
			h.Set("Cache-Control", "private, max-age=0, must-revalidate")
		}
		return next(c)
	}
}

func (a *App) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if err != nil && !c.Response().Committed {
			status = http.StatusInternalServerError
			var he *echo.HTTPError
			switch {
			case errors.Is(err, ErrNotFound):
				status = http.StatusNotFound
			case errors.As(err, &he):
				status = he.Code
			}
		}
		a.Metrics.RecordRequest(c.Path(), status, time.Since(start))
		return err
	}
}

// analyticsMiddleware records successful GET page views. Requests carrying
// DNT are skipped; crawlers are stored as bot views.
func (a *App) analyticsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		req := c.Request()
		res := c.Response()
		if err != nil || req.Method != http.MethodGet || res.Status != http.StatusOK {
			return err
		}
		if req.Header.Get("DNT") == "1" || !strings.HasPrefix(res.Header().Get(echo.HeaderContentType), echo.MIMETextHTML) {
			return err
		}
		view := analytics.PageView{
			Path:      req.URL.Path,
			Referrer:  req.Referer(),
			UserAgent: req.UserAgent(),
			IP:        c.RealIP(),
			Timestamp: time.Now().UTC(),
		}
		if rerr := a.Analytics.RecordView(req.Context(), view); rerr != nil {
			a.Logger.Warn("record page view", zap.String("path", view.Path), zap.Error(rerr))
		}
		return err
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 365,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
