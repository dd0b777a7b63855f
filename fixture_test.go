package folio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/vitalics/folio/search"
)

var fixtureFiles = map[string]string{
	"content/blog/hello-world.md": `---
title: Hello World
description: The very first post
date: 2024-01-10
tags: [Go, Web]
authors: [jane]
image: /public/cover.png
---

# Hello

Hello from the **first** post about golang.

## Details

More words here.
`,
	"content/blog/second-post.md": `---
title: Second Post
date: 2024-02-01
tags: go
authors: [jane, ghost]
---

Another article about concurrency.
`,
	"content/blog/third.mdx": `---
title: Third
description: Rust notes
pubDate: 2023-12-01
updatedDate: 2024-03-01
tags: [rust]
---

Ownership and borrowing.
`,
	"content/blog/draft-post.md": `---
title: Draft
date: 2024-05-01
draft: true
---

Not yet.
`,
	"content/blog/broken.md": "---\ntitle: [oops\n---\n\nbody\n",
	"content/blog/notes.txt":  "ignored",
	"content/blog/_partial.md": `---
title: Partial
---
`,
	"content/authors/jane.md": `---
name: Jane Doe
bio: Writes Go.
github: jane
---

Jane's **profile**.
`,
	"content/projects/alpha.md": `---
name: Alpha
description: A library
link: https://github.com/example/alpha
role: contributor
---
`,
	"content/projects/zeta.md": `---
name: Zeta
description: An app
role: Author
---
`,
	"content/projects/odd.md": `---
name: Odd
role: maintainer
---
`,
}

func newFixtureFS(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, body := range fixtureFiles {
		writeFile(t, fsys, name, body)
	}
	writeFile(t, fsys, "public/cover.png", string(testPNG(t, 800, 400)))
	writeFile(t, fsys, "public/css/site.css", "body{}")
	return fsys
}

func writeFile(t *testing.T, fsys afero.Fs, name, body string) {
	t.Helper()
	if err := afero.WriteFile(fsys, name, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// text renders a component that writes a fixed string.
func text(format string, args ...interface{}) templ.Component {
	s := fmt.Sprintf(format, args...)
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func slugs(posts []BlogPost) string {
	s := make([]string, len(posts))
	for i, p := range posts {
		s[i] = p.Slug
	}
	return strings.Join(s, ",")
}

// stubViews renders a short, predictable description of each page.
func stubViews() ViewFuncs {
	return ViewFuncs{
		Home: func(p Page, posts []BlogPost, projects []Project) templ.Component {
			return text("home posts=%s projects=%d title=%s", slugs(posts), len(projects), p.Meta.Title)
		},
		BlogList: func(p Page, pg Pagination) templ.Component {
			return text("blog page=%d/%d posts=%s", pg.Page, pg.TotalPages, slugs(pg.Posts))
		},
		Post: func(p Page, post BlogPost, authors []Author, adj AdjacentPosts, related []BlogPost) templ.Component {
			return text("post %s title=%q authors=%d related=%s og=%s csrf=%t", post.Slug, p.Meta.Title, len(authors), slugs(related), p.Meta.OGType, p.CSRF != "")
		},
		Tags: func(p Page, tags []TagCount) templ.Component {
			return text("tags n=%d", len(tags))
		},
		Tag: func(p Page, tag string, posts []BlogPost) templ.Component {
			return text("tag %s posts=%s", tag, slugs(posts))
		},
		Authors: func(p Page, authors []Author) templ.Component {
			return text("authors n=%d", len(authors))
		},
		Author: func(p Page, author Author, posts []BlogPost) templ.Component {
			return text("author %s posts=%s", author.Name, slugs(posts))
		},
		Projects: func(p Page, projects []Project) templ.Component {
			return text("projects n=%d", len(projects))
		},
		Search: func(p Page, q string, res search.Result) templ.Component {
			return text("search q=%s hits=%d", q, res.Total())
		},
		NotFound: func(p Page) templ.Component {
			return text("not found %s", p.Path)
		},
		ServerError: func(p Page) templ.Component {
			return text("server error")
		},
	}
}

func testConfig() SiteConfig {
	return SiteConfig{
		Name:            "Test",
		URL:             "https://example.com",
		Description:     "A test site",
		Email:           "me@example.com",
		ContentDir:      "content",
		StaticDir:       "public",
		PostsPerPage:    2,
		HomePosts:       2,
		CacheTTL:        -1,
		SessionSecret:   "test-secret",
		SearchRateLimit: 100,
	}
}

func newTestApp(t *testing.T, fsys afero.Fs, cfg SiteConfig, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithFS(fsys), WithLogger(zap.NewNop())}, opts...)
	a := New(cfg, stubViews(), opts...)
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func serve(a *App, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func get(a *App, target string) *httptest.ResponseRecorder {
	return serve(a, http.MethodGet, target, nil, nil)
}
