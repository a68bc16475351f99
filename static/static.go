// Package static embeds the admin frontend bundle.
//
// The frontend build output is copied into static/dist before `go build`.
// In development dist holds only .gitkeep and the frontend dev server is used
// instead; the handler then answers 404 for every asset.
package static

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// FrontendFS holds dist/. The "all:" prefix keeps dot files like .gitkeep.
//
//go:embed all:dist
var FrontendFS embed.FS

// Handler serves the bundle under basePath (e.g. "/admin").
//
// Paths without a file extension that do not exist fall back to index.html so
// client-side routes (/admin/posts/new) survive a reload.
func Handler(basePath string) http.Handler {
	dist, err := fs.Sub(FrontendFS, "dist")
	if err != nil {
		// fs.Sub only fails on an invalid path; "dist" is a constant.
		panic(err)
	}
	return newSPAHandler(dist, basePath)
}

func newSPAHandler(files fs.FS, basePath string) http.Handler {
	prefix := strings.TrimRight(basePath, "/")
	fileServer := http.StripPrefix(prefix, http.FileServerFS(files))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(strings.TrimPrefix(r.URL.Path, prefix)), "/")
		if name == "" || name == "." {
			serveIndex(w, r, files)
			return
		}

		if _, err := fs.Stat(files, name); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}
		if path.Ext(name) != "" {
			http.NotFound(w, r)
			return
		}
		serveIndex(w, r, files)
	})
}

func serveIndex(w http.ResponseWriter, r *http.Request, files fs.FS) {
	index, err := fs.ReadFile(files, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(index)
}
