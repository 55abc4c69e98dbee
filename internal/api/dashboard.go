package api

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/zonelens/zonelens/dashboard"
)

// newDashboardHandler returns an HTTP handler that serves the embedded
// dashboard. Non-file paths fall back to index.html so reloading a view
// deep-linked by hash or path still works.
func newDashboardHandler() http.Handler {
	fileServer := http.FileServerFS(dashboard.FS)

	return http.StripPrefix("/dashboard/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "" || path == "/" {
			path = "index.html"
		}

		// Unknown paths serve index.html for client-side routing.
		if _, err := fs.Stat(dashboard.FS, strings.TrimPrefix(path, "/")); err != nil {
			r.URL.Path = "/"
		}

		fileServer.ServeHTTP(w, r)
	}))
}
