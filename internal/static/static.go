package static

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
)

//go:embed site.css
var siteCSS []byte

//go:embed favicon.svg
var favicon []byte

var (
	// SiteAssetPath is the content-addressed stylesheet URL templates link to.
	SiteAssetPath string
	siteETag      string
)

func Init() {
	sum := fmt.Sprintf("%x", sha256.Sum256(siteCSS))
	SiteAssetPath = fmt.Sprintf("/static/site.%s.css", sum[:12])
	siteETag = `"` + sum + `"`
}

// Register serves the stylesheet and favicon. Init must run first.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+SiteAssetPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if _, err := w.Write(siteCSS); err != nil {
			slog.ErrorContext(r.Context(), "failed to write site css", "error", err)
		}
	})

	// unversioned path revalidates every time
	mux.HandleFunc("GET /static/site.css", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == siteETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=0, no-cache")
		w.Header().Set("ETag", siteETag)
		if _, err := w.Write(siteCSS); err != nil {
			slog.ErrorContext(r.Context(), "failed to write site css", "error", err)
		}
	})

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if _, err := w.Write(favicon); err != nil {
			slog.ErrorContext(r.Context(), "failed to write favicon", "error", err)
		}
	})
}
