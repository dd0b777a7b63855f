// Package views is folio's default theme: html/template pages embedded in
// the binary and exposed as templ components through folio.ViewFuncs.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/vitalics/folio"
	"github.com/vitalics/folio/search"
)

//go:embed templates
var templateFS embed.FS

var pageNames = []string{
	"home", "blog_list", "post", "tags", "tag", "authors", "author",
	"projects", "search", "not_found", "server_error",
}

// data is what every page template executes against. Page fields are
// promoted, so templates write .Site and .Meta directly.
type data struct {
	folio.Page
	Posts      []folio.BlogPost
	Post       folio.BlogPost
	Authors    []folio.Author
	Author     folio.Author
	Adjacent   folio.AdjacentPosts
	Related    []folio.BlogPost
	Projects   []folio.Project
	Tags       []folio.TagCount
	Tag        string
	Pagination folio.Pagination
	Query      string
	Results    search.Result
}

// Theme holds one parsed template set per page.
type Theme struct {
	pages map[string]*template.Template
}

// Parse builds the theme from the embedded templates. Each page gets its own
// clone of the layout so their "content" blocks do not collide.
func Parse() (*Theme, error) {
	base, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	t := &Theme{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/pages/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		t.pages[name] = clone
	}
	return t, nil
}

// component renders page name with d.
func (t *Theme) component(name string, d data) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		tmpl, ok := t.pages[name]
		if !ok {
			return fmt.Errorf("views: unknown page %q", name)
		}
		return tmpl.ExecuteTemplate(w, "layout", d)
	})
}

// Funcs returns the ViewFuncs backed by the theme.
func (t *Theme) Funcs() folio.ViewFuncs {
	return folio.ViewFuncs{
		Home: func(p folio.Page, posts []folio.BlogPost, projects []folio.Project) templ.Component {
			return t.component("home", data{Page: p, Posts: posts, Projects: projects})
		},
		BlogList: func(p folio.Page, pg folio.Pagination) templ.Component {
			return t.component("blog_list", data{Page: p, Pagination: pg, Posts: pg.Posts})
		},
		Post: func(p folio.Page, post folio.BlogPost, authors []folio.Author, adj folio.AdjacentPosts, related []folio.BlogPost) templ.Component {
			return t.component("post", data{Page: p, Post: post, Authors: authors, Adjacent: adj, Related: related})
		},
		Tags: func(p folio.Page, tags []folio.TagCount) templ.Component {
			return t.component("tags", data{Page: p, Tags: tags})
		},
		Tag: func(p folio.Page, tag string, posts []folio.BlogPost) templ.Component {
			return t.component("tag", data{Page: p, Tag: tag, Posts: posts})
		},
		Authors: func(p folio.Page, authors []folio.Author) templ.Component {
			return t.component("authors", data{Page: p, Authors: authors})
		},
		Author: func(p folio.Page, author folio.Author, posts []folio.BlogPost) templ.Component {
			return t.component("author", data{Page: p, Author: author, Posts: posts})
		},
		Projects: func(p folio.Page, projects []folio.Project) templ.Component {
			return t.component("projects", data{Page: p, Projects: projects})
		},
		Search: func(p folio.Page, q string, res search.Result) templ.Component {
			return t.component("search", data{Page: p, Query: q, Results: res})
		},
		NotFound: func(p folio.Page) templ.Component {
			return t.component("not_found", data{Page: p})
		},
		ServerError: func(p folio.Page) templ.Component {
			return t.component("server_error", data{Page: p})
		},
	}
}

// New parses the default theme and returns its views.
func New() (folio.ViewFuncs, error) {
	t, err := Parse()
	if err != nil {
		return folio.ViewFuncs{}, err
	}
	return t.Funcs(), nil
}

// MustNew is like New but panics on error. The templates are embedded, so a
// failure is a build defect.
func MustNew() folio.ViewFuncs {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}
