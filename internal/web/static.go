// Package web serves the layout editor's built frontend next to the API.
package web

import (
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

// HasIndex reports whether fsys holds a built frontend.
func HasIndex(fsys fs.FS) bool {
	if fsys == nil {
		return false
	}
	info, err := fs.Stat(fsys, "index.html")
	return err == nil && !info.IsDir()
}

// RegisterStaticRoutes serves fsys for every path not claimed by another route.
// Unknown paths fall back to index.html so client-side routing works.
// API routes must be registered first.
func RegisterStaticRoutes(e *echo.Echo, fsys fs.FS) {
	e.GET("/*", func(c echo.Context) error {
		requestPath := path.Clean(c.Request().URL.Path)

		// Unmatched API paths stay JSON 404s instead of turning into the SPA shell.
		if requestPath == "/api" || strings.HasPrefix(requestPath, "/api/") {
			return echo.ErrNotFound
		}

		name := strings.TrimPrefix(requestPath, "/")
		if name == "" {
			return serveIndexHTML(c, fsys)
		}

		info, err := fs.Stat(fsys, name)
		if err != nil {
			return serveIndexHTML(c, fsys)
		}
		if info.IsDir() {
			// Served directly: trailing slashes are stripped before routing,
			// so a directory redirect would loop.
			name = path.Join(name, "index.html")
			if _, err := fs.Stat(fsys, name); err != nil {
				return serveIndexHTML(c, fsys)
			}
		}
		return c.(interface {
			FileFS(file string, filesystem fs.FS) error
		}).FileFS(name, fsys)
	})
}

// serveIndexHTML serves the main index.html for SPA routing
func serveIndexHTML(c echo.Context, fsys fs.FS) error {
	indexFile, err := fsys.Open("index.html")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "index.html not found")
	}
	defer indexFile.Close()

	content, err := io.ReadAll(indexFile)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read index.html")
	}
	return c.HTMLBlob(http.StatusOK, content)
}
