package folio

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vitalics/folio/search"
)

const relatedPosts = 3

func (a *App) content() (*Content, error) {
	content, err := a.Cache.Content()
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	return content, nil
}

func (a *App) handleHome(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	posts := content.Posts("")
	if len(posts) > a.Config.HomePosts {
		posts = posts[:a.Config.HomePosts]
	}
	p := a.page(c, PageMeta{})
	p.JSONLD = []string{WebsiteJsonLD(a.Config)}
	return Render(c, a.Views.Home(p, posts, content.Projects()))
}

func (a *App) handleBlog(c echo.Context) error {
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.ErrNotFound
		}
		return c.Redirect(http.StatusMovedPermanently, PageURL(n))
	}
	return a.renderBlogPage(c, 1)
}

// handleBlogSlug serves both /blog/:page and /blog/:slug.
func (a *App) handleBlogSlug(c echo.Context) error {
	slug := c.Param("slug")
	if n, err := strconv.Atoi(slug); err == nil && isDigits(slug) {
		if n == 1 {
			return c.Redirect(http.StatusMovedPermanently, PageURL(1))
		}
		return a.renderBlogPage(c, n)
	}
	return a.handlePost(c, slug)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (a *App) renderBlogPage(c echo.Context, n int) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	pg, err := Paginate(content.Posts(""), n, a.Config.PostsPerPage)
	if err != nil {
		return err
	}
	title := "Blog"
	if n > 1 {
		title = fmt.Sprintf("Blog (page %d)", n)
	}
	p := a.page(c, PageMeta{Title: title})
	p.Breadcrumbs = []Breadcrumb{{Name: "Home", URL: "/"}, {Name: "Blog", URL: "/blog"}}
	p.JSONLD = []string{BreadcrumbJsonLD(p.Breadcrumbs, a.Config)}
	return Render(c, a.Views.BlogList(p, pg))
}

func (a *App) handlePost(c echo.Context, slug string) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	post, err := content.Post(slug)
	if err != nil {
		return err
	}
	authors := content.ResolveAuthors(post.Authors)
	p := a.page(c, PageMeta{
		Title:         post.Title,
		Description:   post.Description,
		URL:           BuildURL(a.Config.URL, "blog", post.Slug),
		OGType:        "article",
		Image:         post.Image,
		PublishedTime: ISODate(post.Date),
		Tags:          post.Tags,
	})
	p.Breadcrumbs = []Breadcrumb{
		{Name: "Home", URL: "/"},
		{Name: "Blog", URL: "/blog"},
		{Name: post.Title, URL: post.Link},
	}
	p.JSONLD = []string{
		BlogPostingJsonLD(post, authors, a.Config),
		BreadcrumbJsonLD(p.Breadcrumbs, a.Config),
	}
	return Render(c, a.Views.Post(p, post, authors, content.Adjacent(slug), content.Related(post, relatedPosts)))
}

func (a *App) handleTags(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	p := a.page(c, PageMeta{Title: "Tags"})
	p.Breadcrumbs = []Breadcrumb{{Name: "Home", URL: "/"}, {Name: "Tags", URL: "/tags"}}
	return Render(c, a.Views.Tags(p, content.Tags()))
}

func (a *App) handleTag(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	tag := normalizeTag(c.Param("tag"))
	if !content.HasTag(tag) {
		return ErrNotFound
	}
	posts := content.PostsByTag(tag)
	p := a.page(c, PageMeta{
		Title:       "Posts tagged " + tag,
		Description: fmt.Sprintf("%d posts tagged with %s", len(posts), tag),
		URL:         a.Config.URL + TagURL(tag),
	})
	p.Breadcrumbs = []Breadcrumb{
		{Name: "Home", URL: "/"},
		{Name: "Tags", URL: "/tags"},
		{Name: tag, URL: TagURL(tag)},
	}
	p.JSONLD = []string{
		CollectionPageJsonLD(tag, posts, a.Config),
		BreadcrumbJsonLD(p.Breadcrumbs, a.Config),
	}
	return Render(c, a.Views.Tag(p, tag, posts))
}

func (a *App) handleAuthors(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	p := a.page(c, PageMeta{Title: "Authors"})
	p.Breadcrumbs = []Breadcrumb{{Name: "Home", URL: "/"}, {Name: "Authors", URL: "/authors"}}
	return Render(c, a.Views.Authors(p, content.Authors()))
}

func (a *App) handleAuthor(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	author, err := content.Author(c.Param("slug"))
	if err != nil {
		return err
	}
	p := a.page(c, PageMeta{
		Title:       author.Name,
		Description: author.Bio,
		URL:         BuildURL(a.Config.URL, "authors", author.Slug),
		OGType:      "profile",
		Image:       author.Avatar,
	})
	p.Breadcrumbs = []Breadcrumb{
		{Name: "Home", URL: "/"},
		{Name: "Authors", URL: "/authors"},
		{Name: author.Name, URL: author.Link},
	}
	p.JSONLD = []string{
		PersonJsonLD(author, a.Config),
		BreadcrumbJsonLD(p.Breadcrumbs, a.Config),
	}
	return Render(c, a.Views.Author(p, author, content.PostsByAuthor(author.Slug)))
}

func (a *App) handleProjects(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	p := a.page(c, PageMeta{Title: "Projects"})
	p.Breadcrumbs = []Breadcrumb{{Name: "Home", URL: "/"}, {Name: "Projects", URL: "/projects"}}
	return Render(c, a.Views.Projects(p, content.Projects()))
}

// handleSearch answers /search with JSON, or with the search page for
// browsers that ask for HTML.
func (a *App) handleSearch(c echo.Context) error {
	if !a.searchLimiter.Allow(c.RealIP()) {
		c.Response().Header().Set("Retry-After", "60")
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many search requests")
	}
	engine, err := a.Cache.Search()
	if err != nil {
		return fmt.Errorf("load search index: %w", err)
	}

	q := strings.TrimSpace(c.QueryParam("q"))
	kind := c.QueryParam("kind")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	res, err := engine.Query(kind, q, limit)
	if err != nil && !errors.Is(err, search.ErrUnknownKind) {
		return err
	}
	if err == nil && q != "" {
		if kind == "" {
			kind = search.KindAll
		}
		a.Metrics.RecordSearch(kind, res.Total())
		if a.Analytics != nil {
			if rerr := a.Analytics.RecordSearch(c.Request().Context(), q, kind, res.Total()); rerr != nil {
				a.Logger.Warn("record search", zap.Error(rerr))
			}
		}
	}

	c.Response().Header().Add(echo.HeaderVary, echo.HeaderAccept)
	if a.Views.Search != nil && prefersHTML(c) {
		p := a.page(c, PageMeta{Title: "Search"})
		return Render(c, a.Views.Search(p, q, res))
	}
	return c.JSON(http.StatusOK, res)
}

// prefersHTML reports whether the client asked for an HTML document.
func prefersHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

func (a *App) handleSearchData(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, content.SearchData())
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n\n")
	b.WriteString("Sitemap: " + BuildURL(a.Config.URL, "sitemap.xml") + "\n")
	b.WriteString("Host: " + a.Config.URL + "\n")
	return c.String(http.StatusOK, b.String())
}

func (a *App) handleHealth(c echo.Context) error {
	content, err := a.content()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	engine, err := a.Cache.Search()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	posts, tags, authors := engine.Size()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"posts":    len(content.Posts("")),
		"loadedAt": content.LoadedAt,
		"indexed": map[string]int{
			"posts":   posts,
			"tags":    tags,
			"authors": authors,
		},
	})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	if errors.Is(err, ErrNotFound) {
		err = echo.ErrNotFound
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && a.Views.NotFound != nil && c.Request().Method != http.MethodHead {
		p := a.page(c, PageMeta{Title: "Not found"})
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(p))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", code),
			zap.Error(err),
		)
		if a.Views.ServerError != nil {
			p := a.page(c, PageMeta{Title: "Server error"})
			_ = RenderStatus(c, code, a.Views.ServerError(p))
			return
		}
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
