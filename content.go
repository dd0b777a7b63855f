package folio

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/vitalics/folio/search"
)

// ErrNotFound is returned when a requested post, author, tag or page does not exist.
var ErrNotFound = errors.New("folio: not found")

// Content is an immutable snapshot of everything loaded from the content
// directory. All query methods are safe for concurrent use.
type Content struct {
	posts    []BlogPost
	drafts   []BlogPost
	authors  []Author
	projects []Project
	tags     []TagCount

	postIndex   map[string]int
	authorIndex map[string]int

	LoadedAt time.Time
}

func newContent(all []BlogPost, authors []Author, projects []Project) *Content {
	c := &Content{
		authors:     authors,
		projects:    projects,
		postIndex:   map[string]int{},
		authorIndex: map[string]int{},
		LoadedAt:    time.Now(),
	}
	for _, p := range all {
		if p.Draft {
			c.drafts = append(c.drafts, p)
		} else {
			c.posts = append(c.posts, p)
		}
	}
	sortPosts(c.posts)
	sortPosts(c.drafts)
	for i, p := range c.posts {
		c.postIndex[p.Slug] = i
	}

	sort.SliceStable(c.authors, func(i, j int) bool {
		return strings.ToLower(c.authors[i].Name) < strings.ToLower(c.authors[j].Name)
	})
	for i, a := range c.authors {
		c.authorIndex[a.Slug] = i
	}

	counts := map[string]int{}
	for _, p := range c.posts {
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	c.tags = make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		c.tags = append(c.tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(c.tags, func(i, j int) bool {
		if c.tags[i].Count != c.tags[j].Count {
			return c.tags[i].Count > c.tags[j].Count
		}
		return c.tags[i].Tag < c.tags[j].Tag
	})
	return c
}

// sortPosts orders posts newest first. Undated posts sort last; ties by slug.
func sortPosts(posts []BlogPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Slug < b.Slug
	})
}

// Posts returns published posts, newest first, optionally filtered by tag.
// Tag matching is case-insensitive.
func (c *Content) Posts(tag string) []BlogPost {
	if tag == "" {
		return c.posts
	}
	normalized := normalizeTag(tag)
	var filtered []BlogPost
	for _, p := range c.posts {
		for _, t := range p.Tags {
			if t == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered
}

// PostsByTag returns the published posts carrying tag.
func (c *Content) PostsByTag(tag string) []BlogPost {
	if strings.TrimSpace(tag) == "" {
		return nil
	}
	return c.Posts(tag)
}

// PostsByAuthor returns the published posts listing the author slug.
func (c *Content) PostsByAuthor(slug string) []BlogPost {
	var out []BlogPost
	for _, p := range c.posts {
		for _, a := range p.Authors {
			if a == slug {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Drafts returns posts marked draft. They are never routed or indexed.
func (c *Content) Drafts() []BlogPost { return c.drafts }

// Post returns a published post by slug.
func (c *Content) Post(slug string) (BlogPost, error) {
	i, ok := c.postIndex[slug]
	if !ok {
		return BlogPost{}, ErrNotFound
	}
	return c.posts[i], nil
}

// Adjacent returns the neighbours of slug: Previous is the next older post,
// Next the next newer one. Both are nil for an unknown slug.
func (c *Content) Adjacent(slug string) AdjacentPosts {
	i, ok := c.postIndex[slug]
	if !ok {
		return AdjacentPosts{}
	}
	var adj AdjacentPosts
	if i+1 < len(c.posts) {
		p := c.posts[i+1]
		adj.Previous = &p
	}
	if i > 0 {
		p := c.posts[i-1]
		adj.Next = &p
	}
	return adj
}

// Related returns up to limit posts sharing a tag with post.
func (c *Content) Related(post BlogPost, limit int) []BlogPost {
	related := FilterRelatedPosts(post, c.posts)
	if limit > 0 && len(related) > limit {
		related = related[:limit]
	}
	return related
}

// Tags returns every tag with its post count, most used first.
func (c *Content) Tags() []TagCount { return c.tags }

// HasTag reports whether any published post carries tag.
func (c *Content) HasTag(tag string) bool {
	normalized := normalizeTag(tag)
	for _, t := range c.tags {
		if t.Tag == normalized {
			return true
		}
	}
	return false
}

// Authors returns all authors ordered by name.
func (c *Content) Authors() []Author { return c.authors }

// Author returns an author by slug.
func (c *Content) Author(slug string) (Author, error) {
	i, ok := c.authorIndex[slug]
	if !ok {
		return Author{}, ErrNotFound
	}
	return c.authors[i], nil
}

// ResolveAuthors maps author slugs to profiles. Unknown slugs resolve to a
// placeholder author named after the slug.
func (c *Content) ResolveAuthors(slugs []string) []Author {
	out := make([]Author, 0, len(slugs))
	for _, slug := range slugs {
		a, err := c.Author(slug)
		if err != nil {
			a = Author{Slug: slug, Name: slug}
		}
		out = append(out, a)
	}
	return out
}

// Projects returns projects, authored before contributed, then by name.
func (c *Content) Projects() []Project { return c.projects }

// SearchData returns the command palette entries: every post, every tag and
// every author.
func (c *Content) SearchData() []SearchEntry {
	entries := make([]SearchEntry, 0, len(c.posts)+len(c.tags)+len(c.authors))
	for _, p := range c.posts {
		entries = append(entries, SearchEntry{
			Type:        SearchTypePost,
			Title:       p.Title,
			Description: p.Description,
			URL:         p.Link,
		})
	}
	for _, t := range c.tags {
		entries = append(entries, SearchEntry{
			Type:        SearchTypeTag,
			Title:       t.Tag,
			Description: "View all posts tagged with " + t.Tag,
			URL:         TagURL(t.Tag),
		})
	}
	for _, a := range c.authors {
		desc := a.Bio
		if desc == "" {
			desc = "View posts by " + a.Name
		}
		entries = append(entries, SearchEntry{
			Type:        SearchTypeAuthor,
			Title:       a.Name,
			Description: desc,
			URL:         a.Link,
		})
	}
	return entries
}

// SearchSource converts the snapshot into search engine input.
func (c *Content) SearchSource() search.Source {
	src := search.Source{
		Posts:   make([]search.PostDoc, 0, len(c.posts)),
		Tags:    make([]string, 0, len(c.tags)),
		Authors: make([]search.AuthorDoc, 0, len(c.authors)),
	}
	for _, p := range c.posts {
		src.Posts = append(src.Posts, search.PostDoc{Slug: p.Slug, Title: p.Title, Text: p.Text})
	}
	for _, t := range c.tags {
		src.Tags = append(src.Tags, t.Tag)
	}
	for _, a := range c.authors {
		src.Authors = append(src.Authors, search.AuthorDoc{Slug: a.Slug, Name: a.Name, Bio: a.Bio, Text: a.Text})
	}
	return src
}
