package views

import (
	"context"
	"html/template"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/vitalics/folio"
	"github.com/vitalics/folio/markdown"
)

// imageWidths are the srcset candidates; they match the widths the /_image
// endpoint serves.
var imageWidths = []int{320, 640, 1024, 1600}

// PathEscape wraps url.PathEscape for use in templates.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	if active {
		return "tag tag-active"
	}
	return "tag"
}

// ImageURL points a local /public image at the resizing endpoint. Remote and
// non-public images are returned unchanged.
func ImageURL(src string, width int) string {
	if !strings.HasPrefix(src, "/public/") {
		return src
	}
	return "/_image?src=" + url.QueryEscape(src) + "&w=" + strconv.Itoa(width)
}

// ImageSrcset builds a srcset over imageWidths, or "" for images the
// endpoint cannot resize.
func ImageSrcset(src string) string {
	if !strings.HasPrefix(src, "/public/") {
		return ""
	}
	parts := make([]string, len(imageWidths))
	for i, w := range imageWidths {
		parts[i] = ImageURL(src, w) + " " + strconv.Itoa(w) + "w"
	}
	return strings.Join(parts, ", ")
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// tagColor passes through hex colors only.
func tagColor(c string) template.CSS {
	if !hexColor.MatchString(c) {
		return ""
	}
	return template.CSS(c)
}

// Title upper-cases the first letter of s.
func Title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// safeURL keeps http(s), mailto, tel and relative URLs; anything else
// renders empty.
func safeURL(s string) template.URL {
	if markdown.SafeURL(s) == "" {
		return ""
	}
	return template.URL(strings.TrimSpace(s))
}

func knownTag(p folio.Page, tag string) *folio.KnownTag {
	if p.Presets == nil {
		return nil
	}
	kt, ok := p.Presets.KnownTag(tag)
	if !ok {
		return nil
	}
	return &kt
}

func giscusTheme(p folio.Page) string {
	if p.Presets == nil {
		return "preferred_color_scheme"
	}
	return p.Presets.GiscusTheme(p.Settings.ThemeName, p.Mode)
}

func giscusMapping(cfg folio.GiscusConfig) string {
	if cfg.Mapping == "" {
		return "pathname"
	}
	return cfg.Mapping
}

func themeCSS(p folio.Page) template.CSS {
	if p.Presets == nil {
		return ""
	}
	return template.CSS(p.Settings.ThemeStylesheet(p.Presets))
}

// Sub-template arguments. html/template passes a single value, so partials
// that need the page get it bundled with their own data.
type (
	tagArg struct {
		Page   folio.Page
		Tag    string
		Active bool
	}
	tagsArg struct {
		Page folio.Page
		Tags []string
	}
	postArg struct {
		Page folio.Page
		Post folio.BlogPost
	}
	postsArg struct {
		Page  folio.Page
		Posts []folio.BlogPost
	}
)

// renderMarkdown renders short front matter text, such as an author bio.
func renderMarkdown(s string) (template.HTML, error) {
	return templ.ToGoHTML(context.Background(), markdown.Markdown(s))
}

var funcs = template.FuncMap{
	"formatDate":    folio.FormatDate,
	"isoDate":       folio.ISODate,
	"tagURL":        folio.TagURL,
	"pageURL":       folio.PageURL,
	"pathEscape":    PathEscape,
	"tagClass":      TagClass,
	"imageURL":      ImageURL,
	"imageSrcset":   ImageSrcset,
	"title":         Title,
	"tagColor":      tagColor,
	"safeURL":       safeURL,
	"knownTag":      knownTag,
	"giscusTheme":   giscusTheme,
	"giscusMapping": giscusMapping,
	"themeCSS":      themeCSS,
	"hasPrefix":     strings.HasPrefix,
	"rawHTML":       func(s string) template.HTML { return template.HTML(s) },
	"markdown":      renderMarkdown,
	"jsonLD":        func(s string) template.JS { return template.JS(s) },
	"year":          func() int { return time.Now().Year() },
	"modes":         func() []string { return []string{folio.ModeSystem, folio.ModeLight, folio.ModeDark} },
	"add":           func(a, b int) int { return a + b },
	"tagData": func(p folio.Page, tag string, active bool) tagArg {
		return tagArg{Page: p, Tag: tag, Active: active}
	},
	"tagsData": func(p folio.Page, tags []string) tagsArg { return tagsArg{Page: p, Tags: tags} },
	"postCard": func(p folio.Page, post folio.BlogPost) postArg { return postArg{Page: p, Post: post} },
	"postList": func(p folio.Page, posts []folio.BlogPost) postsArg {
		return postsArg{Page: p, Posts: posts}
	},
}
