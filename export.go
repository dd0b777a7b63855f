package folio

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const notFoundProbe = "/__folio_not_found__"

// ExportRoute is one URL of the static site and the file it is written to.
type ExportRoute struct {
	URL  string
	File string
}

// pageRoute exports an HTML page as dir/index.html, whatever its last
// segment looks like ("/tags/next.js" is a page, not a script).
func pageRoute(u string) ExportRoute {
	p := cleanRoute(u)
	if p == "" {
		return ExportRoute{URL: u, File: "index.html"}
	}
	return ExportRoute{URL: u, File: path.Join(p, "index.html")}
}

// fileRoute exports a feed, stylesheet or script under its own name.
func fileRoute(u string) ExportRoute {
	return ExportRoute{URL: u, File: cleanRoute(u)}
}

// cleanRoute turns a URL path into a relative file path that cannot climb
// out of the output dir.
func cleanRoute(route string) string {
	p, err := url.PathUnescape(route)
	if err != nil {
		p = route
	}
	return path.Clean("/" + p)[1:]
}

// ExportRoutes lists every URL the static site consists of.
func (a *App) ExportRoutes() ([]ExportRoute, error) {
	content, err := a.content()
	if err != nil {
		return nil, err
	}
	posts := content.Posts("")
	var routes []ExportRoute
	for _, u := range []string{"/", "/tags", "/authors", "/projects"} {
		routes = append(routes, pageRoute(u))
	}
	for _, n := range PageNumbers(len(posts), a.Config.PostsPerPage) {
		routes = append(routes, pageRoute(PageURL(n)))
	}
	for _, p := range posts {
		routes = append(routes, pageRoute("/blog/"+p.Slug))
	}
	for _, t := range content.Tags() {
		routes = append(routes, pageRoute(TagURL(t.Tag)))
	}
	for _, au := range content.Authors() {
		routes = append(routes, pageRoute("/authors/"+au.Slug))
	}
	for _, u := range []string{
		"/rss.xml", "/sitemap.xml", "/llms.txt", "/robots.txt",
		"/api/search-data", "/settings/theme.css", "/public/folio.js",
	} {
		routes = append(routes, fileRoute(u))
	}
	for _, ct := range a.Presets.CodeThemes {
		routes = append(routes, fileRoute("/code-themes/"+ct.Name+".css"))
	}
	return routes, nil
}

// Export renders every route through the HTTP handler into outDir and
// copies the static dir to outDir/public. It returns the number of files
// written.
func (a *App) Export(ctx context.Context, outDir string) (int, error) {
	if err := a.Init(); err != nil {
		return 0, err
	}
	routes, err := a.ExportRoutes()
	if err != nil {
		return 0, err
	}
	if err := a.fs.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	var written atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, route := range routes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			body, err := a.renderRoute(ctx, route.URL, http.StatusOK)
			if err != nil {
				return err
			}
			if err := a.writeExport(outDir, route.File, body); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	g.Go(func() error {
		body, err := a.renderRoute(ctx, notFoundProbe, http.StatusNotFound)
		if err != nil {
			return err
		}
		if err := a.writeExport(outDir, "404.html", body); err != nil {
			return err
		}
		written.Add(1)
		return nil
	})
	if err := g.Wait(); err != nil {
		return int(written.Load()), err
	}

	n, err := a.copyStatic(filepath.Join(outDir, "public"))
	written.Add(int64(n))
	if err != nil {
		return int(written.Load()), err
	}
	a.Logger.Info("export finished", zap.String("dir", outDir), zap.Int64("files", written.Load()))
	return int(written.Load()), nil
}

// renderRoute runs a GET for route through Echo and returns the body. DNT
// keeps exports out of analytics.
func (a *App) renderRoute(ctx context.Context, route string, want int) ([]byte, error) {
	req := httptest.NewRequest(http.MethodGet, route, nil).WithContext(ctx)
	req.Header.Set("DNT", "1")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code != want {
		return nil, fmt.Errorf("export %s: status %d, want %d", route, rec.Code, want)
	}
	return rec.Body.Bytes(), nil
}

func (a *App) writeExport(outDir, rel string, body []byte) error {
	dest := filepath.Join(outDir, filepath.FromSlash(rel))
	if err := a.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	if err := afero.WriteFile(a.fs, dest, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

// copyStatic mirrors the static dir into dest. A missing static dir is not
// an error.
func (a *App) copyStatic(dest string) (int, error) {
	src := a.Config.StaticDir
	if ok, _ := afero.DirExists(a.fs, src); !ok {
		return 0, nil
	}
	n := 0
	err := afero.Walk(a.fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return a.fs.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		data, err := afero.ReadFile(a.fs, p)
		if err != nil {
			return err
		}
		if err := afero.WriteFile(a.fs, target, data, 0o644); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("copy static files: %w", err)
	}
	return n, nil
}
