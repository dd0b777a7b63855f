package analytics

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler serves the analytics stats API.
type Handler struct {
	store     *Store
	token     string
	authGuard *authGuard
	now       func() time.Time
}

// NewHandler creates a stats API handler guarded by a bearer token.
// Failed authentication attempts are limited to 10 per IP per minute.
func NewHandler(store *Store, token string) *Handler {
	return &Handler{
		store:     store,
		token:     token,
		authGuard: newAuthGuard(10, time.Minute),
		now:       time.Now,
	}
}

// StatsResponse is the body of GET /api/analytics/stats.
type StatsResponse struct {
	Period string `json:"period"`
	Stats  *Stats `json:"stats"`
}

// authorized checks the bearer token in constant time.
func (h *Handler) authorized(c echo.Context) bool {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	got := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

// GetStats returns aggregated statistics as JSON.
func (h *Handler) GetStats(c echo.Context) error {
	ip := c.RealIP()
	if h.authGuard.blocked(ip) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
	}
	if !h.authorized(c) {
		h.authGuard.fail(ip)
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="analytics"`)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	period, from, to := PeriodRange(c.QueryParam("period"), h.now())
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	stats, err := h.store.Stats(c.Request().Context(), from, to, limit)
	if err != nil {
		c.Logger().Errorf("analytics stats: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, StatsResponse{Period: period, Stats: stats})
}

// RegisterRoutes mounts the stats API. Without a token the API stays off.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	if h.token == "" {
		return
	}
	e.GET("/api/analytics/stats", h.GetStats)
}
