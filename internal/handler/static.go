package handler

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/labstack/echo/v4"
)

const headerCacheControl = "Cache-Control"

// StaticMount serves a directory tree under a URL prefix.  Only files that
// resolve inside Root are served; everything else is a 404.
type StaticMount struct {
	Root string
	// CacheControl is written on successful responses; empty means the mount
	// sends no caching headers.
	CacheControl string

	fsys fs.FS
}

// CachedMount returns a mount whose files may be cached by clients for maxAge.
func CachedMount(root string, maxAge time.Duration) *StaticMount {
	return &StaticMount{
		Root:         root,
		CacheControl: fmt.Sprintf("public, immutable, max-age=%d", int64(maxAge/time.Second)),
		fsys:         os.DirFS(root),
	}
}

// UncachedMount returns a mount that sends no Cache-Control header.
func UncachedMount(root string) *StaticMount {
	return &StaticMount{Root: root, fsys: os.DirFS(root)}
}

// Handler resolves the "*" path parameter against the mount root.
func (m *StaticMount) Handler() echo.HandlerFunc {
	fsys := m.fsys
	if fsys == nil {
		fsys = os.DirFS(m.Root)
	}
	serve := echo.StaticDirectoryHandler(fsys, false)
	if m.CacheControl == "" {
		return serve
	}
	return func(c echo.Context) error {
		c.Response().Header().Set(headerCacheControl, m.CacheControl)
		if err := serve(c); err != nil {
			c.Response().Header().Del(headerCacheControl)
			return err
		}
		return nil
	}
}
