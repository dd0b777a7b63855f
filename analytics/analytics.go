// Package analytics records privacy-friendly page view and search statistics
// in SQLite. IP addresses are never stored; they are hashed with a
// per-installation salt.
package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const saltKey = "hash_salt"

// InitSalt loads or generates the persistent salt used for IP hashing.
// Call it once after NewStore and before recording views.
func InitSalt(store *Store) error {
	s, err := store.GetSetting(saltKey)
	if err != nil {
		return fmt.Errorf("read hash salt: %w", err)
	}
	if s == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		s = hex.EncodeToString(b)
		if err := store.SetSetting(saltKey, s); err != nil {
			return fmt.Errorf("store hash salt: %w", err)
		}
	}
	store.salt = s
	return nil
}

// PageView is a single page request as seen by the server.
type PageView struct {
	Path      string
	Referrer  string
	UserAgent string
	IP        string
	Timestamp time.Time
}

// Stats holds aggregated analytics for a time range.
type Stats struct {
	Period            string          `json:"period"`
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	TotalViews        int             `json:"total_views"`
	UniqueVisitors    int             `json:"unique_visitors"`
	BotViews          int             `json:"bot_views"`
	TotalSearches     int             `json:"total_searches"`
	TopPages          []PageStat      `json:"top_pages"`
	TopReferrers      []DimensionStat `json:"top_referrers"`
	Browsers          []DimensionStat `json:"browsers"`
	Devices           []DimensionStat `json:"devices"`
	TopBots           []DimensionStat `json:"top_bots"`
	TopQueries        []QueryStat     `json:"top_queries"`
	ZeroResultQueries []QueryStat     `json:"zero_result_queries"`
	DailyViews        []DailyView     `json:"daily_views"`
}

// PageStat represents page view statistics.
type PageStat struct {
	Path  string `json:"path"`
	Views int    `json:"views"`
}

// DimensionStat represents a dimension breakdown (browser, referrer, etc.).
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// QueryStat is a search query and how often it was asked.
type QueryStat struct {
	Query string `json:"query"`
	Count int    `json:"count"`
	Hits  int    `json:"hits"` // hits of the most recent run
}

// DailyView represents views per day.
type DailyView struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

func (s *Store) hash(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(s.salt + strings.Join(parts, "|")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// HashIP creates a salted SHA-256 hash of an IP address.
func (s *Store) HashIP(ip string) string { return s.hash(ip) }

// VisitorID derives an anonymous daily visitor id from IP and User-Agent.
// It rotates every UTC day so visitors cannot be followed across days.
func (s *Store) VisitorID(ip, userAgent string, t time.Time) string {
	return s.hash(ip, userAgent, t.UTC().Format("2006-01-02"))
}

// ParseUserAgent extracts browser, OS, and device from User-Agent string.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)

	// More specific browsers first: Edge and Opera UAs also contain "chrome".
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		browser = "Opera"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}

	// Android before Linux: Android UAs contain "linux".
	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		os = "iOS"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	default:
		os = "Other"
	}

	// iPad UAs contain "mobile".
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		device = "Tablet"
	case strings.Contains(ua, "mobile"):
		device = "Mobile"
	default:
		device = "Desktop"
	}

	return
}

var botMarkers = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"yandex", "baidu", "facebookexternalhit", "headlesschrome",
	"curl/", "wget/", "python-requests", "go-http-client",
}

// IsBot checks if the User-Agent is likely a bot/crawler. An empty
// User-Agent counts as a bot.
func IsBot(ua string) bool {
	ua = strings.ToLower(strings.TrimSpace(ua))
	if ua == "" {
		return true
	}
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// knownBots is checked in order; specific names precede generic markers.
var knownBots = []struct{ pattern, name string }{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"duckduckbot", "DuckDuckBot"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"telegrambot", "Telegram"},
	{"gptbot", "GPTBot"},
	{"claudebot", "ClaudeBot"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"mj12bot", "Majestic"},
	{"dotbot", "Moz"},
	{"slurp", "Yahoo Slurp"},
	{"crawler", "Generic Crawler"},
	{"spider", "Generic Spider"},
}

// ExtractBotName extracts the bot name from User-Agent string.
func ExtractBotName(ua string) string {
	ua = strings.ToLower(ua)
	for _, b := range knownBots {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	if strings.Contains(ua, "bot") {
		return "Other Bot"
	}
	return "Unknown"
}

var referrerDomainRegex = regexp.MustCompile(`^https?://(?:www\.)?([^/:?#]+)`)

// CleanReferrer reduces a referrer URL to a source name or domain.
func CleanReferrer(ref string) string {
	if ref == "" {
		return "Direct"
	}

	refLower := strings.ToLower(ref)
	for _, engine := range []struct{ marker, name string }{
		{"google.", "Google"},
		{"bing.", "Bing"},
		{"duckduckgo.", "DuckDuckGo"},
		{"yahoo.", "Yahoo"},
		{"github.", "GitHub"},
	} {
		if strings.Contains(refLower, engine.marker) {
			return engine.name
		}
	}

	if m := referrerDomainRegex.FindStringSubmatch(refLower); len(m) > 1 {
		return m[1]
	}
	return "Other"
}

// TruncateDate returns the date truncated to the specified period.
func TruncateDate(t time.Time, period string) time.Time {
	switch period {
	case "day":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case "week":
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-wd+1, 0, 0, 0, 0, t.Location())
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}

// PeriodRange maps a period name (today, week, month, year, all) to a time
// range ending now. Unknown periods fall back to week.
func PeriodRange(period string, now time.Time) (name string, from, to time.Time) {
	now = now.UTC()
	to = now
	switch period {
	case "today":
		return period, TruncateDate(now, "day"), to
	case "month":
		return period, TruncateDate(now.AddDate(0, 0, -29), "day"), to
	case "year":
		return period, TruncateDate(now.AddDate(0, 0, -364), "day"), to
	case "all":
		return period, time.Time{}, to
	default:
		return "week", TruncateDate(now.AddDate(0, 0, -6), "day"), to
	}
}
