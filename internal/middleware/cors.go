package middleware

import (
	"net/http"
	"strings"
)

// Cors allows the configured web client origins; an empty allow list permits
// everything, matching the development behavior of the web client.
func Cors(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowOrigin := ""
			switch {
			case len(allowed) == 0:
				allowOrigin = "*"
			case allowed[origin]:
				allowOrigin = origin
			case origin != "" && strings.HasSuffix(origin, ".vercel.app"):
				// preview deployments of the web client
				allowOrigin = origin
			}

			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			}

			next.ServeHTTP(w, r)
		})
	}
}
