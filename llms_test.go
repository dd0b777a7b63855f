package folio

import (
	"strings"
	"testing"
)

func TestLLMs(t *testing.T) {
	a := newTestApp(t, newFixtureFS(t), testConfig())
	rec := get(a, "/llms.txt")
	body := rec.Body.String()

	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	for _, want := range []string{
		"# Test\n\n> A test site\n",
		"- Contact: me@example.com\n",
		"- RSS Feed: https://example.com/rss.xml\n",
		"This blog contains 3 posts.",
		"- [Second Post](https://example.com/blog/second-post)\n  Published: 2024-02-01\n",
		"  Tags: go, web\n",
		"- Projects: https://example.com/projects\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("llms.txt missing %q\n%s", want, body)
		}
	}
	if strings.Index(body, "Second Post") > strings.Index(body, "Hello World") {
		t.Error("posts are not newest first")
	}
}

func TestLLMsLimitsRecentPosts(t *testing.T) {
	a := newTestApp(t, newFixtureFS(t), testConfig())
	posts := make([]BlogPost, llmsRecentPosts+5)
	for i := range posts {
		posts[i] = BlogPost{Slug: "p", Title: "Post"}
	}
	body := a.llmsText(posts)
	if n := strings.Count(body, "- [Post]"); n != llmsRecentPosts {
		t.Errorf("listed %d posts, want %d", n, llmsRecentPosts)
	}
	if !strings.Contains(body, "This blog contains 15 posts.") {
		t.Error("post count does not include every post")
	}
}
