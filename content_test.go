package folio

import (
	"fmt"
	"strings"
	"testing"
)

func TestContentTags(t *testing.T) {
	c := loadFixture(t)
	var got []string
	for _, tc := range c.Tags() {
		got = append(got, fmt.Sprintf("%s=%d", tc.Tag, tc.Count))
	}
	if want := "go=2,rust=1,web=1"; strings.Join(got, ",") != want {
		t.Errorf("Tags = %s, want %s", strings.Join(got, ","), want)
	}
	if !c.HasTag("GO") {
		t.Error("HasTag(GO) = false, want true")
	}
	if c.HasTag("python") {
		t.Error("HasTag(python) = true, want false")
	}
}

func TestContentPostsByTag(t *testing.T) {
	c := loadFixture(t)
	tests := []struct {
		tag  string
		want string
	}{
		{"go", "second-post,hello-world"},
		{"GO", "second-post,hello-world"},
		{"rust", "third"},
		{"python", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		if got := slugs(c.PostsByTag(tt.tag)); got != tt.want {
			t.Errorf("PostsByTag(%q) = %s, want %s", tt.tag, got, tt.want)
		}
	}
}

func TestContentPostsByAuthor(t *testing.T) {
	c := loadFixture(t)
	if got := slugs(c.PostsByAuthor("jane")); got != "second-post,hello-world" {
		t.Errorf("PostsByAuthor(jane) = %s", got)
	}
	if got := slugs(c.PostsByAuthor("nobody")); got != "" {
		t.Errorf("PostsByAuthor(nobody) = %s, want empty", got)
	}
}

func TestContentAdjacent(t *testing.T) {
	c := loadFixture(t)

	adj := c.Adjacent("hello-world")
	if adj.Previous == nil || adj.Previous.Slug != "third" {
		t.Errorf("Previous = %v, want third", adj.Previous)
	}
	if adj.Next == nil || adj.Next.Slug != "second-post" {
		t.Errorf("Next = %v, want second-post", adj.Next)
	}

	newest := c.Adjacent("second-post")
	if newest.Next != nil {
		t.Errorf("newest post Next = %v, want nil", newest.Next)
	}
	oldest := c.Adjacent("third")
	if oldest.Previous != nil {
		t.Errorf("oldest post Previous = %v, want nil", oldest.Previous)
	}
	if none := c.Adjacent("missing"); none.Previous != nil || none.Next != nil {
		t.Error("unknown slug should have no neighbours")
	}
}

func TestContentRelated(t *testing.T) {
	c := loadFixture(t)
	p, _ := c.Post("hello-world")
	if got := slugs(c.Related(p, 3)); got != "second-post" {
		t.Errorf("Related = %s, want second-post", got)
	}
	third, _ := c.Post("third")
	if got := slugs(c.Related(third, 3)); got != "" {
		t.Errorf("Related(third) = %s, want empty", got)
	}
}

func TestContentResolveAuthors(t *testing.T) {
	c := loadFixture(t)
	authors := c.ResolveAuthors([]string{"jane", "ghost"})
	if len(authors) != 2 {
		t.Fatalf("len = %d, want 2", len(authors))
	}
	if authors[0].Name != "Jane Doe" {
		t.Errorf("authors[0].Name = %q, want %q", authors[0].Name, "Jane Doe")
	}
	if authors[1].Name != "ghost" || authors[1].Link != "" {
		t.Errorf("unknown author = %+v, want placeholder named ghost", authors[1])
	}
}

func TestContentSearchData(t *testing.T) {
	c := loadFixture(t)
	entries := c.SearchData()
	if len(entries) != 7 {
		t.Fatalf("len = %d, want 7 (3 posts, 3 tags, 1 author)", len(entries))
	}
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Type]++
	}
	if counts["post"] != 3 || counts["tag"] != 3 || counts["author"] != 1 {
		t.Errorf("entry types = %v", counts)
	}
	for _, e := range entries {
		if e.Type == "tag" && e.Title == "rust" {
			if e.Description != "View all posts tagged with rust" || e.URL != "/tags/rust" {
				t.Errorf("tag entry = %+v", e)
			}
		}
		if e.Type == "author" && e.Description != "Writes Go." {
			t.Errorf("author description = %q, want bio", e.Description)
		}
	}
}

func TestContentSearchSource(t *testing.T) {
	src := loadFixture(t).SearchSource()
	if len(src.Posts) != 3 || len(src.Tags) != 3 || len(src.Authors) != 1 {
		t.Errorf("source sizes = %d/%d/%d, want 3/3/1", len(src.Posts), len(src.Tags), len(src.Authors))
	}
}
