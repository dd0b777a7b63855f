package markdown

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// externalLinks opens absolute http(s) links in a new tab without a referrer.
type externalLinks struct{}

func (externalLinks) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch l := n.(type) {
		case *ast.Link:
			if isExternal(string(l.Destination)) {
				markExternal(l)
			}
		case *ast.AutoLink:
			if isExternal(string(l.URL(source))) {
				markExternal(l)
			}
		}
		return ast.WalkContinue, nil
	})
}

func isExternal(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func markExternal(n ast.Node) {
	n.SetAttributeString("target", []byte("_blank"))
	n.SetAttributeString("rel", []byte("nofollow noopener noreferrer"))
}

var reEmbed = regexp.MustCompile(`^<(YouTube|Vimeo)\s+id=["']([A-Za-z0-9_-]+)["']\s*/>$`)

// embedRenderer expands <YouTube id="…" /> and <Vimeo id="…" /> blocks and
// passes any other raw HTML block through.
type embedRenderer struct{}

func (r embedRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
}

func (r embedRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.HTMLBlock)
	var raw bytes.Buffer
	for i := 0; i < n.Lines().Len(); i++ {
		seg := n.Lines().At(i)
		raw.Write(seg.Value(source))
	}
	if n.HasClosure() {
		raw.Write(n.ClosureLine.Value(source))
	}
	if m := reEmbed.FindSubmatch(bytes.TrimSpace(raw.Bytes())); m != nil {
		_, _ = w.WriteString(embedHTML(string(m[1]), string(m[2])))
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.Write(raw.Bytes())
	return ast.WalkSkipChildren, nil
}

func embedHTML(provider, id string) string {
	var src, title string
	switch provider {
	case "YouTube":
		src, title = "https://www.youtube-nocookie.com/embed/"+id, "YouTube video"
	default:
		src, title = "https://player.vimeo.com/video/"+id, "Vimeo video"
	}
	return `<div class="embed embed-` + strings.ToLower(provider) + `"><iframe src="` + src +
		`" title="` + title + `" loading="lazy" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe></div>` + "\n"
}
