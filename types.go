package folio

import (
	"time"

	"github.com/vitalics/folio/markdown"
)

// BlogPost is a published (or draft) article read from content/blog.
type BlogPost struct {
	Slug            string
	Title           string
	Description     string
	Date            time.Time
	Updated         time.Time
	Tags            []string
	Authors         []string
	Image           string
	ImageAlt        string
	TelegramChannel string
	Draft           bool

	Link        string
	ReadingTime string
	Words       int
	Body        string // raw markdown without front matter
	HTML        string
	Text        string // plain text used for search and summaries
	TOC         []markdown.TocItem
	SourcePath  string
}

// Author is a profile read from content/authors.
type Author struct {
	Slug     string
	Name     string
	Pronouns string
	Avatar   string
	Image    string
	Bio      string
	Website  string
	GitHub   string
	Twitter  string
	LinkedIn string
	Discord  string
	Telegram string
	DevTo    string
	Medium   string
	Hashnode string
	Mail     string

	Link string
	Body string
	HTML string
	Text string
}

// SocialLink is one rendered entry of an author's profile links.
type SocialLink struct {
	Name string
	URL  string
}

// Project roles.
const (
	RoleAuthor      = "author"
	RoleContributor = "contributor"
)

// Project is a portfolio entry read from content/projects.
type Project struct {
	Slug        string
	Name        string
	Description string
	Tags        []string
	Image       string
	Link        string
	Role        string
	Body        string
	HTML        string
}

// TagCount is a tag with the number of published posts carrying it.
type TagCount struct {
	Tag   string
	Count int
}

// AdjacentPosts holds the neighbours of a post in date order.
// Previous is older, Next is newer.
type AdjacentPosts struct {
	Previous *BlogPost
	Next     *BlogPost
}

// Command-palette entry types.
const (
	SearchTypePost   = "post"
	SearchTypeTag    = "tag"
	SearchTypeAuthor = "author"
)

// SearchEntry is one command-palette item.
type SearchEntry struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

// Breadcrumb is a single step of a breadcrumb trail.
type Breadcrumb struct {
	Name string
	URL  string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title         string
	Description   string
	URL           string // canonical + og:url
	OGType        string // "website" or "article"
	Image         string
	PublishedTime string
	Tags          []string
}
