package middleware

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzhttp"
)

// GzipCompression compresses page, JSON and export responses.
// Uploaded media is served untouched so range requests keep working; gzhttp
// already leaves incompressible content types alone.
func GzipCompression(next http.Handler) http.Handler {
	compressed := gzhttp.GzipHandler(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/uploads/") || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}
