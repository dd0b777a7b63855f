package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/vitalics/folio"
	"github.com/vitalics/folio/search"
)

func testPage(t *testing.T) folio.Page {
	t.Helper()
	presets, err := folio.LoadPresets()
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	s := folio.DefaultSettings().Normalize(presets)
	return folio.Page{
		Site: folio.SiteConfig{
			Name:     "Test Blog",
			URL:      "https://example.com",
			Language: "en",
			Socials:  map[string]string{"GitHub": "https://github.com/example", "Bad": "javascript:alert(1)"},
		},
		Meta: folio.PageMeta{
			Title:       "Hello | Test Blog",
			Description: "A test page",
			URL:         "https://example.com/blog/hello",
			OGType:      "article",
		},
		Path:        "/blog/hello",
		Settings:    s,
		Mode:        folio.ModeLight,
		CSRF:        "csrf-token-value",
		Presets:     presets,
		Breadcrumbs: []folio.Breadcrumb{{Name: "Home", URL: "/"}, {Name: "Blog", URL: "/blog"}},
	}
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, html string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

var samplePost = folio.BlogPost{
	Slug:        "hello",
	Title:       "Hello <World>",
	Description: "First post",
	Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	Tags:        []string{"go", "web"},
	Link:        "/blog/hello",
	ReadingTime: "1 min read",
	HTML:        `<p>Body <strong>text</strong></p>`,
	Image:       "/public/cover.png",
}

func TestParse(t *testing.T) {
	th, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, name := range pageNames {
		if th.pages[name] == nil {
			t.Errorf("page %q not parsed", name)
		}
	}
}

func TestLayout(t *testing.T) {
	v := MustNew()
	p := testPage(t)
	p.Site.Name = "Test </script> Blog"
	p.JSONLD = []string{folio.WebsiteJsonLD(p.Site)}
	html := render(t, v.NotFound(p))

	assertContains(t, html,
		`<html lang="en" data-theme-mode="light"`,
		`<meta name="csrf-token" content="csrf-token-value">`,
		`<link rel="canonical" href="https://example.com/blog/hello">`,
		`<meta property="og:type" content="article">`,
		`id="theme-css"`,
		`id="code-theme-css"`,
		`<form data-settings action="/settings" method="post">`,
		`name="_csrf" value="csrf-token-value"`,
		`id="command-palette"`,
		`/public/folio.js`,
		`https://github.com/example`,
		`aria-label="Breadcrumb"`,
		`<script type="application/ld+json">{"@context":"https://schema.org"`,
		`Page not found`,
	)
	if strings.Contains(html, "javascript:alert") {
		t.Error("unsafe social URL rendered")
	}
	if strings.Contains(html, "Test </script> Blog") {
		t.Error("JSON-LD closed the script element")
	}
}

func TestPost(t *testing.T) {
	v := MustNew()
	p := testPage(t)
	p.Site.Giscus = folio.GiscusConfig{Repo: "me/blog", RepoID: "R1", Category: "Comments", CategoryID: "C1"}
	authors := []folio.Author{{Slug: "jane", Name: "Jane", Link: "/authors/jane"}}
	adj := folio.AdjacentPosts{Previous: &folio.BlogPost{Title: "Older", Link: "/blog/older"}}

	html := render(t, v.Post(p, samplePost, authors, adj, nil))

	assertContains(t, html,
		"Hello &lt;World&gt;",
		"<p>Body <strong>text</strong></p>",
		`<time datetime="2024-03-01">`,
		`<a href="/authors/jane">Jane</a>`,
		`href="/tags/go"`,
		`/_image?src=%2Fpublic%2Fcover.png&amp;w=1280`,
		`rel="prev" href="/blog/older"`,
		`https://giscus.app/client.js`,
		`data-repo="me/blog"`,
		`data-mapping="pathname"`,
	)
	if strings.Contains(html, "updated <time") {
		t.Error("zero Updated date rendered")
	}
}

func TestPostWithoutGiscus(t *testing.T) {
	html := render(t, MustNew().Post(testPage(t), samplePost, nil, folio.AdjacentPosts{}, nil))
	if strings.Contains(html, "giscus.app") {
		t.Error("giscus rendered without configuration")
	}
}

func TestBlogList(t *testing.T) {
	pg := folio.Pagination{
		Page:       2,
		TotalPages: 3,
		Pages:      []int{1, 2, 3},
		Posts:      []folio.BlogPost{samplePost},
		PrevURL:    "/blog",
		NextURL:    "/blog/3",
	}
	html := render(t, MustNew().BlogList(testPage(t), pg))
	assertContains(t, html,
		`<span aria-current="page">2</span>`,
		`<a href="/blog/3">3</a>`,
		`rel="prev" href="/blog"`,
		`rel="next" href="/blog/3"`,
		`1 min read`,
	)
}

func TestEmptyLists(t *testing.T) {
	v := MustNew()
	p := testPage(t)
	tests := []struct {
		name string
		c    templ.Component
		want string
	}{
		{"home", v.Home(p, nil, nil), "No posts yet."},
		{"tags", v.Tags(p, nil), "No tags yet."},
		{"authors", v.Authors(p, nil), "No authors yet."},
		{"projects", v.Projects(p, nil), "No projects yet."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, render(t, tt.c), tt.want)
		})
	}
}

func TestAuthor(t *testing.T) {
	a := folio.Author{Slug: "jane", Name: "Jane", Pronouns: "she/her", Bio: "Writes *Go*.", GitHub: "jane", HTML: "<p>About me</p>"}
	html := render(t, MustNew().Author(testPage(t), a, []folio.BlogPost{samplePost}))
	assertContains(t, html,
		"<small>(she/her)</small>",
		`<div class="lead"><p>Writes <em>Go</em>.</p>`,
		`https://github.com/jane`,
		"<p>About me</p>",
		"Posts by Jane",
	)
}

func TestProjects(t *testing.T) {
	projects := []folio.Project{
		{Name: "Folio", Link: "https://github.com/example/folio", Role: folio.RoleAuthor},
		{Name: "Sneaky", Link: "javascript:alert(1)", Role: folio.RoleContributor},
	}
	html := render(t, MustNew().Projects(testPage(t), projects))
	assertContains(t, html, `href="https://github.com/example/folio"`, "Contributor")
	if strings.Contains(html, "javascript:") {
		t.Error("unsafe project link rendered")
	}
}

func TestSearch(t *testing.T) {
	v := MustNew()
	res := search.Result{
		Blog: []search.Hit{{Name: "Hello", Slug: "hello"}},
		Tags: []search.Hit{{Name: "go", Slug: "go"}},
	}
	html := render(t, v.Search(testPage(t), "go", res))
	assertContains(t, html, `value="go"`, `<a href="/blog/hello">Hello</a>`, `<a href="/tags/go">#go</a>`)

	html = render(t, v.Search(testPage(t), "zzz", search.Result{}))
	assertContains(t, html, "Nothing matches")
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		src   string
		width int
		want  string
	}{
		{"/public/a.png", 640, "/_image?src=%2Fpublic%2Fa.png&w=640"},
		{"https://cdn.example.com/a.png", 640, "https://cdn.example.com/a.png"},
		{"", 640, ""},
	}
	for _, tt := range tests {
		if got := ImageURL(tt.src, tt.width); got != tt.want {
			t.Errorf("ImageURL(%q, %d) = %q, want %q", tt.src, tt.width, got, tt.want)
		}
	}
}

func TestImageSrcset(t *testing.T) {
	got := ImageSrcset("/public/a.png")
	if !strings.HasPrefix(got, "/_image?src=%2Fpublic%2Fa.png&w=320 320w, ") {
		t.Errorf("ImageSrcset = %q", got)
	}
	if got := ImageSrcset("https://cdn.example.com/a.png"); got != "" {
		t.Errorf("ImageSrcset(remote) = %q, want empty", got)
	}
}

func TestTagColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#00ADD8", "#00ADD8"},
		{"#fff", "#fff"},
		{"red; background: url(x)", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := string(tagColor(tt.in)); got != tt.want {
			t.Errorf("tagColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := Title("contributor"); got != "Contributor" {
		t.Errorf("Title = %q, want %q", got, "Contributor")
	}
	if got := Title(""); got != "" {
		t.Errorf("Title(\"\") = %q, want empty", got)
	}
}
