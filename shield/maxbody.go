package shield

import (
	"net/http"
	"strings"
)

// MaxJSONBody returns middleware that caps the request body size for JSON
// requests. Script bodies carry raw code and readme text, so the cap must
// stay generous; other content types are passed through untouched.
func MaxJSONBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ct := r.Header.Get("Content-Type")
			if strings.HasPrefix(ct, "application/json") {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
