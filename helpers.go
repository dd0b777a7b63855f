package folio

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/vitalics/folio/markdown"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments. Canonical URLs carry no
// trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if len(pathSegments) > 0 {
		u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	}
	return u.String()
}

// AbsoluteURL resolves ref against base unless it is already absolute.
func AbsoluteURL(base, ref string) string {
	if ref == "" || strings.Contains(ref, "://") {
		return ref
	}
	return BuildURL(base, ref)
}

// TagURL returns the listing path for a tag.
func TagURL(tag string) string {
	return "/tags/" + url.PathEscape(tag)
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FilterRelatedPosts finds posts that share at least one tag with current.
func FilterRelatedPosts(current BlogPost, posts []BlogPost) []BlogPost {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		tag := normalizeTag(t)
		if tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []BlogPost
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[normalizeTag(t)]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// FormatDate renders a post date for display; zero dates render empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// ISODate renders a date as YYYY-MM-DD; zero dates render empty.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// SocialLinks expands an author's handles into profile URLs. Handles that
// are already URLs are used as is; unsafe URLs are dropped.
func (a Author) SocialLinks() []SocialLink {
	handles := []struct {
		name, value, prefix string
	}{
		{"Website", a.Website, ""},
		{"GitHub", a.GitHub, "https://github.com/"},
		{"X", a.Twitter, "https://x.com/"},
		{"LinkedIn", a.LinkedIn, "https://www.linkedin.com/in/"},
		{"Discord", a.Discord, "https://discord.com/users/"},
		{"Telegram", a.Telegram, "https://t.me/"},
		{"DEV", a.DevTo, "https://dev.to/"},
		{"Medium", a.Medium, "https://medium.com/@"},
		{"Hashnode", a.Hashnode, "https://hashnode.com/@"},
		{"Email", a.Mail, "mailto:"},
	}
	var links []SocialLink
	for _, h := range handles {
		v := strings.TrimSpace(h.value)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "://") && !strings.HasPrefix(v, "mailto:") {
			v = h.prefix + strings.TrimPrefix(v, "@")
		}
		if markdown.SafeURL(v) == "" {
			continue
		}
		links = append(links, SocialLink{Name: h.name, URL: v})
	}
	return links
}

func marshalLD(data map[string]interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func personLD(name, link string) map[string]string {
	p := map[string]string{"@type": "Person", "name": name}
	if link != "" {
		p["url"] = link
	}
	return p
}

// WebsiteJsonLD returns a JSON-LD WebSite with a search action.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
		"inLanguage":  cfg.Language,
		"potentialAction": map[string]string{
			"@type":       "SearchAction",
			"target":      BuildURL(cfg.URL, "search") + "?q={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	}
	if cfg.Author != "" {
		data["author"] = personLD(cfg.Author, "")
	}
	return marshalLD(data)
}

// BlogPostingJsonLD returns a JSON-LD BlogPosting for a post.
func BlogPostingJsonLD(post BlogPost, authors []Author, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "blog", post.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Description,
		"datePublished": ISODate(post.Date),
		"url":           postURL,
		"wordCount":     post.Words,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if !post.Updated.IsZero() {
		data["dateModified"] = ISODate(post.Updated)
	}
	if post.Image != "" {
		data["image"] = AbsoluteURL(cfg.URL, post.Image)
	}
	var people []map[string]string
	for _, a := range authors {
		people = append(people, personLD(a.Name, BuildURL(cfg.URL, "authors", a.Slug)))
	}
	if len(people) == 0 && cfg.Author != "" {
		people = append(people, personLD(cfg.Author, ""))
	}
	if len(people) > 0 {
		data["author"] = people
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = JoinTags(post.Tags)
	}
	return marshalLD(data)
}

// PersonJsonLD returns a JSON-LD Person for an author profile.
func PersonJsonLD(author Author, cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "Person",
		"name":     author.Name,
		"url":      BuildURL(cfg.URL, "authors", author.Slug),
	}
	if author.Bio != "" {
		data["description"] = author.Bio
	}
	if author.Avatar != "" {
		data["image"] = AbsoluteURL(cfg.URL, author.Avatar)
	}
	var sameAs []string
	for _, l := range author.SocialLinks() {
		if strings.HasPrefix(l.URL, "http") {
			sameAs = append(sameAs, l.URL)
		}
	}
	if len(sameAs) > 0 {
		data["sameAs"] = sameAs
	}
	return marshalLD(data)
}

// CollectionPageJsonLD returns a JSON-LD CollectionPage listing tagged posts.
func CollectionPageJsonLD(tag string, posts []BlogPost, cfg SiteConfig) string {
	items := make([]map[string]interface{}, 0, len(posts))
	for i, p := range posts {
		items = append(items, map[string]interface{}{
			"@type":    "ListItem",
			"position": i + 1,
			"url":      BuildURL(cfg.URL, "blog", p.Slug),
			"name":     p.Title,
		})
	}
	return marshalLD(map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "CollectionPage",
		"name":     "Posts tagged " + tag,
		"url":      cfg.URL + TagURL(tag),
		"mainEntity": map[string]interface{}{
			"@type":           "ItemList",
			"itemListElement": items,
		},
	})
}

// BreadcrumbJsonLD returns a JSON-LD BreadcrumbList.
func BreadcrumbJsonLD(crumbs []Breadcrumb, cfg SiteConfig) string {
	items := make([]map[string]interface{}, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, map[string]interface{}{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     cfg.URL + c.URL,
		})
	}
	return marshalLD(map[string]interface{}{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	})
}
