package folio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	imageCacheSize     = 256
	defaultJPEGQuality = 75
	maxSourceSize      = 20 << 20 // 20MB
)

// imageWidths are the widths /_image renders. Requests snap to the nearest
// width that is at least as large as the one asked for.
var imageWidths = []int{320, 640, 768, 1024, 1280, 1600, 1920}

type imageCache struct {
	lru *lru.Cache[string, []byte]
}

func newImageCache(size int) *imageCache {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		panic(err)
	}
	return &imageCache{lru: c}
}

// snapWidth returns the allowed width for a requested one.
func snapWidth(w int) int {
	for _, allowed := range imageWidths {
		if w <= allowed {
			return allowed
		}
	}
	return imageWidths[len(imageWidths)-1]
}

// resizeImage decodes src, scales it down to width (never up), and encodes
// it as JPEG.
func resizeImage(src io.Reader, width, quality int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > width {
		newH := h * width / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// imageSourcePath maps a /public/... URL to a file under the static dir.
// Anything that escapes the static dir is rejected.
func (a *App) imageSourcePath(src string) (string, bool) {
	clean := path.Clean(src)
	if !strings.HasPrefix(src, "/public/") || !strings.HasPrefix(clean, "/public/") {
		return "", false
	}
	rel := strings.TrimPrefix(clean, "/public/")
	return filepath.Join(a.Config.StaticDir, filepath.FromSlash(rel)), true
}

func (a *App) handleImage(c echo.Context) error {
	src := c.QueryParam("src")
	file, ok := a.imageSourcePath(src)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image source")
	}

	width := imageWidths[len(imageWidths)-1]
	if raw := c.QueryParam("w"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid width")
		}
		width = snapWidth(n)
	}
	quality := defaultJPEGQuality
	if raw := c.QueryParam("q"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid quality")
		}
		quality = n
	}

	key := src + "|" + strconv.Itoa(width) + "|" + strconv.Itoa(quality)
	if data, ok := a.images.lru.Get(key); ok {
		return c.Blob(http.StatusOK, "image/jpeg", data)
	}

	f, err := a.fs.Open(file)
	if err != nil {
		return echo.ErrNotFound
	}
	defer f.Close()

	data, err := resizeImage(io.LimitReader(f, maxSourceSize), width, quality)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "unsupported image")
	}
	a.images.lru.Add(key, data)
	return c.Blob(http.StatusOK, "image/jpeg", data)
}
