package folio

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) handleSitemap(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, content)
}

// sitemapURLs lists every canonical page: home, listing pages, posts, tags,
// authors and projects.
func (a *App) sitemapURLs(content *Content) []sitemapURL {
	base := a.Config.URL
	posts := content.Posts("")
	urls := []sitemapURL{{Loc: BuildURL(base)}}

	for _, n := range PageNumbers(len(posts), a.Config.PostsPerPage) {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, PageURL(n))})
	}
	for _, p := range posts {
		mod := p.Updated
		if mod.IsZero() {
			mod = p.Date
		}
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: ISODate(mod),
		})
	}
	urls = append(urls, sitemapURL{Loc: BuildURL(base, "tags")})
	for _, t := range content.Tags() {
		urls = append(urls, sitemapURL{Loc: base + TagURL(t.Tag)})
	}
	urls = append(urls, sitemapURL{Loc: BuildURL(base, "authors")})
	for _, au := range content.Authors() {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "authors", au.Slug)})
	}
	urls = append(urls, sitemapURL{Loc: BuildURL(base, "projects")})
	return urls
}

func (a *App) renderSitemap(c echo.Context, content *Content) error {
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  a.sitemapURLs(content),
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
