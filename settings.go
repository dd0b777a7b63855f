package folio

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/vitalics/folio/markdown"
)

// Color modes.
const (
	ModeLight  = "light"
	ModeDark   = "dark"
	ModeSystem = "system"
)

const (
	settingsSession = "folio_settings"
	// colorSchemeHint is the user agent client hint carrying the OS color scheme.
	colorSchemeHint = "Sec-CH-Prefers-Color-Scheme"
)

// Session value keys. They match the keys the client scripts historically
// kept in localStorage so exported preferences stay readable.
const (
	keyTheme          = "blog-theme"
	keyThemeName      = "blog-theme-name"
	keyCodeTheme      = "blog-code-theme"
	keyFontSize       = "blog-font-size"
	keyFontFamily     = "blog-font-family"
	keyCodeFontFamily = "blog-code-font-family"
)

// Settings are a visitor's presentation preferences.
type Settings struct {
	Theme          string `json:"theme" form:"theme"`
	ThemeName      string `json:"themeName" form:"themeName"`
	CodeTheme      string `json:"codeTheme" form:"codeTheme"`
	FontSize       string `json:"fontSize" form:"fontSize"`
	FontFamily     string `json:"fontFamily" form:"fontFamily"`
	CodeFontFamily string `json:"codeFontFamily" form:"codeFontFamily"`
}

// DefaultSettings returns the preferences of a first-time visitor.
func DefaultSettings() Settings {
	return Settings{
		Theme:          ModeSystem,
		ThemeName:      "default",
		CodeTheme:      "github",
		FontSize:       "medium",
		FontFamily:     "system",
		CodeFontFamily: "mono",
	}
}

// Normalize replaces unknown values with their defaults.
func (s Settings) Normalize(p *Presets) Settings {
	def := DefaultSettings()
	switch s.Theme {
	case ModeLight, ModeDark, ModeSystem:
	default:
		s.Theme = def.Theme
	}
	if _, ok := p.Theme(s.ThemeName); !ok {
		s.ThemeName = def.ThemeName
	}
	if _, ok := p.CodeTheme(s.CodeTheme); !ok {
		s.CodeTheme = def.CodeTheme
	}
	if _, ok := p.FontSize(s.FontSize); !ok {
		s.FontSize = def.FontSize
	}
	if _, ok := p.FontFamily(s.FontFamily); !ok {
		s.FontFamily = def.FontFamily
	}
	if _, ok := p.CodeFontFamily(s.CodeFontFamily); !ok {
		s.CodeFontFamily = def.CodeFontFamily
	}
	return s
}

// Merge overlays the non-empty fields of update onto s.
func (s Settings) Merge(update Settings) Settings {
	if update.Theme != "" {
		s.Theme = update.Theme
	}
	if update.ThemeName != "" {
		s.ThemeName = update.ThemeName
	}
	if update.CodeTheme != "" {
		s.CodeTheme = update.CodeTheme
	}
	if update.FontSize != "" {
		s.FontSize = update.FontSize
	}
	if update.FontFamily != "" {
		s.FontFamily = update.FontFamily
	}
	if update.CodeFontFamily != "" {
		s.CodeFontFamily = update.CodeFontFamily
	}
	return s
}

// ResolvedMode returns light or dark. The system mode follows the client
// hint when the browser sends one and falls back to light.
func (s Settings) ResolvedMode(hint string) string {
	switch s.Theme {
	case ModeLight, ModeDark:
		return s.Theme
	}
	if strings.EqualFold(strings.Trim(hint, `" `), ModeDark) {
		return ModeDark
	}
	return ModeLight
}

// CSSVariables renders the custom property declarations for mode.
func (s Settings) CSSVariables(p *Presets, mode string) string {
	s = s.Normalize(p)
	theme, _ := p.Theme(s.ThemeName)
	colors := theme.Colors(mode)

	var b strings.Builder
	for _, key := range ColorKeys {
		b.WriteString(cssVar(key) + ": " + colors[key] + "; ")
	}
	size, _ := p.FontSize(s.FontSize)
	family, _ := p.FontFamily(s.FontFamily)
	code, _ := p.CodeFontFamily(s.CodeFontFamily)
	b.WriteString("--font-size: " + size.CSS + "; ")
	b.WriteString("--font-family: " + family.CSS + "; ")
	b.WriteString("--code-font-family: " + code.CSS + ";")
	return b.String()
}

// ThemeStylesheet renders a stylesheet with the light palette on :root and
// the dark palette under [data-theme-mode="dark"].
func (s Settings) ThemeStylesheet(p *Presets) string {
	return ":root { " + s.CSSVariables(p, ModeLight) + " }\n" +
		`[data-theme-mode="dark"] { ` + s.CSSVariables(p, ModeDark) + " }\n"
}

// GiscusTheme maps a theme name and resolved mode to a giscus theme.
func (p *Presets) GiscusTheme(themeName, mode string) string {
	t, ok := p.Theme(themeName)
	if !ok {
		t, _ = p.Theme("default")
	}
	if mode == ModeDark {
		return t.Giscus.Dark
	}
	return t.Giscus.Light
}

// LoadSettings reads the visitor's settings from the session cookie.
func (a *App) LoadSettings(c echo.Context) Settings {
	s := DefaultSettings()
	sess, err := session.Get(settingsSession, c)
	if err != nil {
		return s
	}
	str := func(key string) string {
		v, _ := sess.Values[key].(string)
		return v
	}
	s = s.Merge(Settings{
		Theme:          str(keyTheme),
		ThemeName:      str(keyThemeName),
		CodeTheme:      str(keyCodeTheme),
		FontSize:       str(keyFontSize),
		FontFamily:     str(keyFontFamily),
		CodeFontFamily: str(keyCodeFontFamily),
	})
	return s.Normalize(a.Presets)
}

// SaveSettings writes s to the session cookie.
func (a *App) SaveSettings(c echo.Context, s Settings) error {
	sess, err := session.Get(settingsSession, c)
	if err != nil {
		return err
	}
	sess.Values[keyTheme] = s.Theme
	sess.Values[keyThemeName] = s.ThemeName
	sess.Values[keyCodeTheme] = s.CodeTheme
	sess.Values[keyFontSize] = s.FontSize
	sess.Values[keyFontFamily] = s.FontFamily
	sess.Values[keyCodeFontFamily] = s.CodeFontFamily
	return sess.Save(c.Request(), c.Response())
}

// resolvedMode resolves the request's color mode, advertising the client hint.
func (a *App) resolvedMode(c echo.Context, s Settings) string {
	h := c.Response().Header()
	h.Set("Accept-CH", colorSchemeHint)
	h.Add(echo.HeaderVary, colorSchemeHint)
	return s.ResolvedMode(c.Request().Header.Get(colorSchemeHint))
}

type settingsResponse struct {
	Settings Settings `json:"settings"`
	Mode     string   `json:"mode"`
	Giscus   string   `json:"giscusTheme"`
	Options  *Presets `json:"options,omitempty"`
	CSRF     string   `json:"csrf,omitempty"`
}

func (a *App) handleGetSettings(c echo.Context) error {
	s := a.LoadSettings(c)
	mode := a.resolvedMode(c, s)
	return c.JSON(http.StatusOK, settingsResponse{
		Settings: s,
		Mode:     mode,
		Giscus:   a.Presets.GiscusTheme(s.ThemeName, mode),
		Options:  a.Presets,
		CSRF:     CsrfToken(c),
	})
}

type settingsUpdate struct {
	Settings
	Redirect string `json:"redirect" form:"redirect"`
}

func (a *App) handlePostSettings(c echo.Context) error {
	var in settingsUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid settings")
	}
	s := a.LoadSettings(c).Merge(in.Settings).Normalize(a.Presets)
	if err := a.SaveSettings(c, s); err != nil {
		return err
	}
	if wantsJSON(c) {
		mode := a.resolvedMode(c, s)
		return c.JSON(http.StatusOK, settingsResponse{
			Settings: s,
			Mode:     mode,
			Giscus:   a.Presets.GiscusTheme(s.ThemeName, mode),
		})
	}
	return c.Redirect(http.StatusSeeOther, safeRedirect(in.Redirect))
}

func (a *App) handleThemeCSS(c echo.Context) error {
	s := a.LoadSettings(c)
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(s.ThemeStylesheet(a.Presets)))
}

func (a *App) handleCodeThemeCSS(c echo.Context) error {
	name := strings.TrimSuffix(c.Param("file"), ".css")
	theme, ok := a.Presets.CodeTheme(name)
	if !ok {
		return echo.ErrNotFound
	}
	light, err := markdown.CodeThemeCSS(theme.Light, "")
	if err != nil {
		return err
	}
	dark, err := markdown.CodeThemeCSS(theme.Dark, `[data-theme-mode="dark"]`)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(light+dark))
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) ||
		strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// safeRedirect only allows same-site absolute paths.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return "/"
	}
	return target
}
