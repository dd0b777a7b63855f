package folio

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const llmsRecentPosts = 10

func (a *App) handleLLMs(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(a.llmsText(content.Posts(""))))
}

// llmsText renders the llms.txt summary of the site for language models.
func (a *App) llmsText(posts []BlogPost) string {
	cfg := a.Config
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", cfg.Name)
	if cfg.Description != "" {
		fmt.Fprintf(&b, "> %s\n\n", cfg.Description)
	}

	b.WriteString("## Site Information\n\n")
	fmt.Fprintf(&b, "- Title: %s\n", cfg.Name)
	fmt.Fprintf(&b, "- URL: %s\n", cfg.URL)
	if cfg.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", cfg.Description)
	}
	if cfg.Email != "" {
		fmt.Fprintf(&b, "- Contact: %s\n", cfg.Email)
	}
	fmt.Fprintf(&b, "- RSS Feed: %s\n\n", BuildURL(cfg.URL, "rss.xml"))

	b.WriteString("## Content\n\n")
	fmt.Fprintf(&b, "This blog contains %d posts.\n\n", len(posts))

	b.WriteString("### Recent Blog Posts\n\n")
	recent := posts
	if len(recent) > llmsRecentPosts {
		recent = recent[:llmsRecentPosts]
	}
	for i, p := range recent {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- [%s](%s)\n", p.Title, BuildURL(cfg.URL, "blog", p.Slug))
		if d := ISODate(p.Date); d != "" {
			fmt.Fprintf(&b, "  Published: %s\n", d)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", p.Description)
		}
		if len(p.Tags) > 0 {
			fmt.Fprintf(&b, "  Tags: %s\n", JoinTags(p.Tags))
		}
	}

	b.WriteString("\n## Navigation\n\n")
	for _, section := range []string{"Blog", "Authors", "Projects", "Tags"} {
		fmt.Fprintf(&b, "- %s: %s\n", section, BuildURL(cfg.URL, strings.ToLower(section)))
	}
	fmt.Fprintf(&b, "\n---\n\nFor more information, visit %s\n", cfg.URL)
	return b.String()
}
