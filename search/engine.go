package search

import (
	"errors"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Query kinds.
const (
	KindAll     = "all"
	KindBlog    = "blog"
	KindTags    = "tags"
	KindAuthors = "authors"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
	cacheSize    = 100
)

// ErrUnknownKind is returned by Query for a kind other than the known ones.
var ErrUnknownKind = errors.New("search: unknown kind")

// Hit is a single search result. Slug is the URL path of the target page.
type Hit struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Debug echoes the query back for requests that could not be served.
type Debug struct {
	Q string `json:"q"`
}

// Result groups hits by collection. Lists are never nil.
type Result struct {
	Blog    []Hit  `json:"blog"`
	Tags    []Hit  `json:"tags"`
	Authors []Hit  `json:"authors"`
	Debug   *Debug `json:"debug,omitempty"`
}

// Total is the number of hits across all collections.
func (r Result) Total() int { return len(r.Blog) + len(r.Tags) + len(r.Authors) }

func emptyResult() Result {
	return Result{Blog: []Hit{}, Tags: []Hit{}, Authors: []Hit{}}
}

// PostDoc is a post as seen by the search engine.
type PostDoc struct {
	Slug  string
	Title string
	Text  string
}

// AuthorDoc is an author as seen by the search engine.
type AuthorDoc struct {
	Slug string
	Name string
	Bio  string
	Text string
}

// Source is the content an Engine is built from.
type Source struct {
	Posts   []PostDoc
	Tags    []string
	Authors []AuthorDoc
}

// Engine answers queries over the blog, tag and author indexes.
type Engine struct {
	blog    *Index
	tags    *Index
	authors *Index
	names   map[string]string
	cache   *lru.Cache[string, Result]
}

// NewEngine indexes src. Blog posts are indexed by title and content, tags by
// name with suffix matching, authors by name, profile text and bio.
func NewEngine(src Source) *Engine {
	e := &Engine{
		blog:    NewIndex(Forward, 2),
		tags:    NewIndex(Reverse, 1),
		authors: NewIndex(Forward, 3),
		names:   map[string]string{},
	}
	e.cache, _ = lru.New[string, Result](cacheSize)

	for _, p := range src.Posts {
		slug := "/blog/" + p.Slug
		e.names[slug] = p.Title
		e.blog.Add(slug, p.Title, p.Text)
	}
	for _, t := range src.Tags {
		slug := "/tags/" + t
		e.names[slug] = t
		e.tags.Add(slug, t)
	}
	for _, a := range src.Authors {
		slug := "/authors/" + a.Slug
		e.names[slug] = a.Name
		e.authors.Add(slug, a.Name, a.Text, a.Bio)
	}
	return e
}

// Size reports the number of indexed documents per collection.
func (e *Engine) Size() (posts, tags, authors int) {
	return e.blog.Len(), e.tags.Len(), e.authors.Len()
}

// NormalizeLimit clamps limit to 1..MaxLimit, using DefaultLimit when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Query searches the collections selected by kind. An empty kind means all.
// For an unknown kind the returned Result carries the query in Debug.
func (e *Engine) Query(kind, q string, limit int) (Result, error) {
	if kind == "" {
		kind = KindAll
	}
	q = strings.TrimSpace(q)
	switch kind {
	case KindAll, KindBlog, KindTags, KindAuthors:
	default:
		res := emptyResult()
		res.Debug = &Debug{Q: q}
		return res, ErrUnknownKind
	}
	if q == "" {
		return emptyResult(), nil
	}
	limit = NormalizeLimit(limit)

	key := kind + "\x00" + strconv.Itoa(limit) + "\x00" + strings.Join(Tokens(q), " ")
	if res, ok := e.cache.Get(key); ok {
		return res, nil
	}
	res := emptyResult()
	if kind == KindAll || kind == KindBlog {
		res.Blog = e.hits(e.blog, q, limit)
	}
	if kind == KindAll || kind == KindTags {
		res.Tags = e.hits(e.tags, q, limit)
	}
	if kind == KindAll || kind == KindAuthors {
		res.Authors = e.hits(e.authors, q, limit)
	}
	e.cache.Add(key, res)
	return res, nil
}

func (e *Engine) hits(ix *Index, q string, limit int) []Hit {
	ids := ix.Search(q, limit, true)
	out := make([]Hit, 0, len(ids))
	for _, id := range ids {
		out = append(out, Hit{Name: e.names[id], Slug: id})
	}
	return out
}
