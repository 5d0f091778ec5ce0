package app

import (
	"fmt"
	"io/fs"
	"mime"
	"net/http"

	"github.com/passage-app/passage/web"
)

// Minimal containers ship without /etc/mime.types.
var staticMimeTypes = map[string]string{
	".css":   "text/css; charset=utf-8",
	".svg":   "image/svg+xml",
	".woff2": "font/woff2",
}

func registerMimeTypes() error {
	for ext, typ := range staticMimeTypes {
		if mime.TypeByExtension(ext) != "" {
			continue
		}
		if err := mime.AddExtensionType(ext, typ); err != nil {
			return fmt.Errorf("app: register mime type %s: %w", ext, err)
		}
	}
	return nil
}

// staticHandler serves embedded assets under /static/ with a one hour cache.
func staticHandler() (http.Handler, error) {
	if err := registerMimeTypes(); err != nil {
		return nil, err
	}
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("app: static sub filesystem: %w", err)
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	}), nil
}
