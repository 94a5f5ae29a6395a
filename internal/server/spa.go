package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/hacknet/portal/internal/session"
)

// handleSPA serves static files from dir, falling back to index.html
// for any path that doesn't match a real file (SPA client-side routing).
// Page routes pass through gate first so signed-out visitors never see a
// protected page render.
func handleSPA(dir string, gate session.Gate) http.HandlerFunc {
	fs := http.Dir(dir)
	fileServer := http.FileServer(fs)

	return func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file.
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		if to := gate.Redirect(r.URL.Path, sessionFrom(r).Authenticated()); to != "" {
			http.Redirect(w, r, to, http.StatusFound)
			return
		}

		// Fall back to index.html for SPA routes.
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
