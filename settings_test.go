package folio

import (
	"strings"
	"testing"
)

func mustPresets(t *testing.T) *Presets {
	t.Helper()
	p, err := LoadPresets()
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	return p
}

func TestLoadPresets(t *testing.T) {
	p := mustPresets(t)
	if len(p.Themes) == 0 || len(p.CodeThemes) == 0 || len(p.FontSizes) == 0 {
		t.Fatal("presets are empty")
	}
	if _, ok := p.Theme("default"); !ok {
		t.Error("default theme missing")
	}
	def := DefaultSettings()
	if _, ok := p.CodeTheme(def.CodeTheme); !ok {
		t.Errorf("default code theme %q missing", def.CodeTheme)
	}
	if _, ok := p.FontFamily(def.FontFamily); !ok {
		t.Errorf("default font family %q missing", def.FontFamily)
	}
	if _, ok := p.CodeFontFamily(def.CodeFontFamily); !ok {
		t.Errorf("default code font %q missing", def.CodeFontFamily)
	}
}

func TestKnownTag(t *testing.T) {
	p := mustPresets(t)
	kt, ok := p.KnownTag(" TypeScript ")
	if !ok || kt.Name != "TypeScript" {
		t.Errorf("KnownTag(TypeScript) = %+v, %t", kt, ok)
	}
	if _, ok := p.KnownTag("cobol"); ok {
		t.Error("KnownTag(cobol) found")
	}
}

func TestCSSVar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"background", "--background"},
		{"cardForeground", "--card-foreground"},
	}
	for _, tt := range tests {
		if got := cssVar(tt.in); got != tt.want {
			t.Errorf("cssVar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSettingsNormalize(t *testing.T) {
	p := mustPresets(t)
	s := Settings{
		Theme:          "purple",
		ThemeName:      "amber",
		CodeTheme:      "nope",
		FontSize:       "large",
		FontFamily:     "comic",
		CodeFontFamily: "courier",
	}.Normalize(p)
	want := Settings{
		Theme:          ModeSystem,
		ThemeName:      "amber",
		CodeTheme:      "github",
		FontSize:       "large",
		FontFamily:     "system",
		CodeFontFamily: "courier",
	}
	if s != want {
		t.Errorf("Normalize = %+v, want %+v", s, want)
	}
}

func TestSettingsMerge(t *testing.T) {
	s := DefaultSettings().Merge(Settings{Theme: ModeDark, FontSize: "small"})
	if s.Theme != ModeDark || s.FontSize != "small" || s.ThemeName != "default" {
		t.Errorf("Merge = %+v", s)
	}
}

func TestResolvedMode(t *testing.T) {
	tests := []struct {
		theme string
		hint  string
		want  string
	}{
		{ModeLight, "dark", ModeLight},
		{ModeDark, "", ModeDark},
		{ModeSystem, `"dark"`, ModeDark},
		{ModeSystem, "light", ModeLight},
		{ModeSystem, "", ModeLight},
	}
	for _, tt := range tests {
		if got := (Settings{Theme: tt.theme}).ResolvedMode(tt.hint); got != tt.want {
			t.Errorf("ResolvedMode(%s, %q) = %q, want %q", tt.theme, tt.hint, got, tt.want)
		}
	}
}

func TestThemeStylesheet(t *testing.T) {
	p := mustPresets(t)
	css := DefaultSettings().ThemeStylesheet(p)
	for _, want := range []string{":root {", `[data-theme-mode="dark"] {`, "--background: hsl(0 0% 100%);", "--font-size: 16px;"} {
		if !strings.Contains(css, want) {
			t.Errorf("stylesheet missing %q", want)
		}
	}
}

func TestGiscusTheme(t *testing.T) {
	p := mustPresets(t)
	if got := p.GiscusTheme("doom64", ModeDark); got != "gruvbox_dark" {
		t.Errorf("GiscusTheme(doom64, dark) = %q, want gruvbox_dark", got)
	}
	if got := p.GiscusTheme("unknown", ModeLight); got != "light" {
		t.Errorf("GiscusTheme(unknown, light) = %q, want light", got)
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/blog/hello", "/blog/hello"},
		{"", "/"},
		{"https://evil.com", "/"},
		{"//evil.com", "/"},
		{`/\evil.com`, "/"},
	}
	for _, tt := range tests {
		if got := safeRedirect(tt.in); got != tt.want {
			t.Errorf("safeRedirect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
