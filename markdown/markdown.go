// Package markdown turns post and profile sources into annotated HTML.
//
// The pipeline is goldmark with GFM, stable heading IDs shared with the
// table of contents, external link hardening, chroma-highlighted code blocks
// carrying copy/title/caption/line metadata, and a small amount of MDX
// leniency (ESM lines are dropped, YouTube/Vimeo embeds are expanded).
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// TocItem is one entry of a document's table of contents.
type TocItem struct {
	ID    string
	Text  string
	Level int
}

// Document is the result of rendering a markdown source.
type Document struct {
	HTML        string
	TOC         []TocItem
	Text        string
	Words       int
	ReadingTime string
}

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer with the full extension set.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(externalLinks{}, 100)),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(codeBlockRenderer{}, 100),
				util.Prioritized(embedRenderer{}, 100),
			),
		),
	)
	return &Renderer{md: md}
}

// Render parses source and returns its HTML, table of contents and text stats.
func (r *Renderer) Render(source []byte) (Document, error) {
	source = stripESM(source)
	pctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	doc := r.md.Parser().Parse(text.NewReader(source), parser.WithContext(pctx))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return Document{}, fmt.Errorf("render markdown: %w", err)
	}
	out := buf.String()
	plain := PlainText(out)
	words := len(strings.Fields(plain))
	return Document{
		HTML:        out,
		TOC:         collectTOC(doc, source),
		Text:        plain,
		Words:       words,
		ReadingTime: ReadingTime(words),
	}, nil
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
)

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		defaultOnce.Do(func() { defaultRenderer = New() })
		doc, err := defaultRenderer.Render([]byte(content))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, doc.HTML)
		return err
	})
}

var strictPolicy = bluemonday.StrictPolicy()

// PlainText strips all markup from rendered HTML and collapses whitespace.
func PlainText(rendered string) string {
	stripped := html.UnescapeString(strictPolicy.Sanitize(rendered))
	return strings.Join(strings.Fields(stripped), " ")
}

// ReadingTime formats the estimated reading time for a word count.
func ReadingTime(words int) string {
	minutes := math.Ceil(float64(words) / WordsPerMinute)
	return strconv.Itoa(int(minutes)) + " min read"
}

// Excerpt returns at most n runes of text, cut at a word boundary.
func Excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, ".,;:!? ") + "…"
}

var reESM = regexp.MustCompile(`^(?:import\s+(?:.+\s+from\s+)?["'][^"']+["'];?|export\s+(?:const|let|var|function|default)\b.*)\s*$`)

// stripESM removes MDX import/export statements outside fenced code.
func stripESM(source []byte) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	out := make([]byte, 0, len(source))
	inFence := false
	for _, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~")) {
			inFence = !inFence
		}
		if !inFence && reESM.Match(trimmed) {
			continue
		}
		out = append(out, line...)
	}
	return out
}

func collectTOC(doc ast.Node, source []byte) []TocItem {
	var toc []TocItem
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level < 2 || h.Level > 3 {
			return ast.WalkSkipChildren, nil
		}
		label := strings.TrimSpace(nodeText(h, source))
		if label == "" {
			return ast.WalkSkipChildren, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}
		toc = append(toc, TocItem{ID: id, Text: label, Level: h.Level})
		return ast.WalkSkipChildren, nil
	})
	return toc
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(nodeText(c, source))
		}
	}
	return b.String()
}

// SafeURL validates and escapes a URL for use in HTML attributes.
// Relative paths, fragments and http(s)/mailto/tel URLs are accepted.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
