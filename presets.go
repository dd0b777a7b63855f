package folio

import (
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ColorKeys lists the theme color slots in stylesheet order.
var ColorKeys = []string{
	"background", "foreground",
	"card", "cardForeground",
	"popover", "popoverForeground",
	"primary", "primaryForeground",
	"secondary", "secondaryForeground",
	"muted", "mutedForeground",
	"accent", "accentForeground",
	"destructive", "destructiveForeground",
	"border", "input", "ring",
}

// ThemeColors maps a color slot (see ColorKeys) to a CSS color.
type ThemeColors map[string]string

// GiscusThemes names the comment widget theme per color mode.
type GiscusThemes struct {
	Light string `yaml:"light" json:"light"`
	Dark  string `yaml:"dark" json:"dark"`
}

// Theme is a named color palette with light and dark variants.
type Theme struct {
	Name   string       `yaml:"name" json:"name"`
	Label  string       `yaml:"label" json:"label"`
	Giscus GiscusThemes `yaml:"giscus" json:"-"`
	Light  ThemeColors  `yaml:"light" json:"-"`
	Dark   ThemeColors  `yaml:"dark" json:"-"`
}

// Colors returns the palette for mode.
func (t Theme) Colors(mode string) ThemeColors {
	if mode == ModeDark {
		return t.Dark
	}
	return t.Light
}

// CodeTheme pairs chroma styles for light and dark mode.
type CodeTheme struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
	Light string `yaml:"light" json:"light"`
	Dark  string `yaml:"dark" json:"dark"`
}

// Choice is a selectable font or size option and its CSS value.
type Choice struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
	CSS   string `yaml:"css" json:"css"`
}

// KnownTag decorates a tag with an icon and brand color.
type KnownTag struct {
	Name  string `yaml:"name" json:"name"`
	Image string `yaml:"image" json:"image"`
	Color string `yaml:"color" json:"color"`
}

// Presets is the catalogue of presentation options.
type Presets struct {
	Themes           []Theme             `yaml:"themes" json:"themes"`
	CodeThemes       []CodeTheme         `yaml:"codeThemes" json:"codeThemes"`
	FontSizes        []Choice            `yaml:"fontSizes" json:"fontSizes"`
	FontFamilies     []Choice            `yaml:"fontFamilies" json:"fontFamilies"`
	CodeFontFamilies []Choice            `yaml:"codeFontFamilies" json:"codeFontFamilies"`
	KnownTags        map[string]KnownTag `yaml:"knownTags" json:"-"`
}

// LoadPresets decodes the embedded presets file.
func LoadPresets() (*Presets, error) {
	data, err := EmbeddedAssets.ReadFile("embedded/presets.yaml")
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var p Presets
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for _, t := range p.Themes {
		for _, key := range ColorKeys {
			if t.Light[key] == "" || t.Dark[key] == "" {
				return nil, fmt.Errorf("theme %q: missing color %q", t.Name, key)
			}
		}
	}
	return &p, nil
}

// Theme looks up a theme by name.
func (p *Presets) Theme(name string) (Theme, bool) {
	for _, t := range p.Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// CodeTheme looks up a code theme by name.
func (p *Presets) CodeTheme(name string) (CodeTheme, bool) {
	for _, t := range p.CodeThemes {
		if t.Name == name {
			return t, true
		}
	}
	return CodeTheme{}, false
}

func findChoice(choices []Choice, value string) (Choice, bool) {
	for _, c := range choices {
		if c.Value == value {
			return c, true
		}
	}
	return Choice{}, false
}

// FontSize looks up a font size option.
func (p *Presets) FontSize(value string) (Choice, bool) { return findChoice(p.FontSizes, value) }

// FontFamily looks up a body font option.
func (p *Presets) FontFamily(value string) (Choice, bool) { return findChoice(p.FontFamilies, value) }

// CodeFontFamily looks up a code font option.
func (p *Presets) CodeFontFamily(value string) (Choice, bool) {
	return findChoice(p.CodeFontFamilies, value)
}

// KnownTag returns the decoration for tag, if any.
func (p *Presets) KnownTag(tag string) (KnownTag, bool) {
	kt, ok := p.KnownTags[normalizeTag(tag)]
	return kt, ok
}

// cssVar converts a camelCase color key to a custom property name.
func cssVar(key string) string {
	var b strings.Builder
	b.WriteString("--")
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
