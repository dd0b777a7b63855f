package markdown

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// CodeMeta is the metadata parsed from a fenced code block's info string.
type CodeMeta struct {
	Title       string
	Caption     string
	LineNumbers bool
	Highlight   string // e.g. "1-3,5"
}

var (
	reMetaTitle       = regexp.MustCompile(`title[=:]["']([^"']*)["']`)
	reMetaCaption     = regexp.MustCompile(`caption[=:]["']([^"']*)["']`)
	reMetaLines       = regexp.MustCompile(`\{([0-9,\s-]+)\}`)
	reMetaLineNumbers = regexp.MustCompile(`(?i)\bshowLineNumbers\b`)
)

// ParseCodeMeta extracts title, caption, line numbers and highlighted lines.
func ParseCodeMeta(meta string) CodeMeta {
	var m CodeMeta
	if sub := reMetaTitle.FindStringSubmatch(meta); sub != nil {
		m.Title = sub[1]
	}
	if sub := reMetaCaption.FindStringSubmatch(meta); sub != nil {
		m.Caption = sub[1]
	}
	if sub := reMetaLines.FindStringSubmatch(meta); sub != nil {
		m.Highlight = strings.ReplaceAll(sub[1], " ", "")
	}
	m.LineNumbers = reMetaLineNumbers.MatchString(meta)
	return m
}

// HighlightRanges parses "1-3,5" into inclusive line ranges.
func HighlightRanges(spec string) [][2]int {
	var out [][2]int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(lo)
		if err != nil || start < 1 {
			continue
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(hi); err != nil || end < 1 {
				continue
			}
		}
		if end < start {
			start, end = end, start
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// splitInfo separates the language from the rest of a fence info string.
// "ts{1-2} title=\"a\"" yields "ts" and "{1-2} title=\"a\"".
func splitInfo(info string) (lang, meta string) {
	info = strings.TrimSpace(info)
	i := strings.IndexAny(info, " \t{")
	if i < 0 {
		return info, ""
	}
	return info[:i], strings.TrimSpace(info[i:])
}

type codeBlockRenderer struct{}

func (r codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFenced)
	reg.Register(ast.KindCodeBlock, r.renderIndented)
}

func (r codeBlockRenderer) renderFenced(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	var info string
	if n.Info != nil {
		info = string(n.Info.Segment.Value(source))
	}
	lang, meta := splitInfo(info)
	return ast.WalkSkipChildren, writeCodeBlock(w, lang, ParseCodeMeta(meta), blockText(n, source))
}

func (r codeBlockRenderer) renderIndented(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	return ast.WalkSkipChildren, writeCodeBlock(w, "", CodeMeta{}, blockText(node, source))
}

func blockText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

func writeAttr(w io.Writer, name, value string) {
	_, _ = io.WriteString(w, " "+name+`="`+html.EscapeString(value)+`"`)
}

func writeCodeBlock(w util.BufWriter, lang string, meta CodeMeta, code string) error {
	_, _ = w.WriteString(`<pre class="code-block code-block-with-copy"`)
	if lang != "" {
		writeAttr(w, "data-language", lang)
	}
	if meta.Title != "" {
		writeAttr(w, "data-title", meta.Title)
	}
	if meta.Caption != "" {
		writeAttr(w, "data-caption", meta.Caption)
	}
	if meta.Highlight != "" {
		writeAttr(w, "data-highlight-lines", meta.Highlight)
	}
	writeAttr(w, "data-code", strings.TrimRight(code, "\n"))
	_, _ = w.WriteString("><code")
	if lang != "" {
		writeAttr(w, "class", "language-"+lang)
	}
	if meta.LineNumbers {
		_, _ = w.WriteString(" data-line-numbers")
	}
	_ = w.WriteByte('>')
	if err := highlight(w, lang, code, HighlightRanges(meta.Highlight)); err != nil {
		return err
	}
	_, _ = w.WriteString("</code></pre>\n")
	return nil
}

func highlight(w io.Writer, lang, code string, ranges [][2]int) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("tokenise %q: %w", lang, err)
	}
	f := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.PreventSurroundingPre(true),
		chromahtml.HighlightLines(ranges),
	)
	return f.Format(w, styles.Fallback, it)
}

var reCSSRule = regexp.MustCompile(`(?m)^((?:/\*[^*]*\*/ )?)\.`)

// CodeThemeCSS returns the class-based chroma stylesheet for a named style.
// A non-empty scope selector is prepended to every rule.
func CodeThemeCSS(style, scope string) (string, error) {
	var b strings.Builder
	f := chromahtml.New(chromahtml.WithClasses(true))
	if err := f.WriteCSS(&b, styles.Get(style)); err != nil {
		return "", fmt.Errorf("write css for %q: %w", style, err)
	}
	if scope == "" {
		return b.String(), nil
	}
	return reCSSRule.ReplaceAllString(b.String(), "${1}"+scope+" ."), nil
}
