package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
)

// CORSOptions configures cross-origin access.
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSOptions allows any origin to issue GET requests and caches
// preflight responses for a day.
func DefaultCORSOptions() CORSOptions {
	return CORSOptions{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         24 * time.Hour,
	}
}

// CORS applies go-chi/cors with opts. Every OPTIONS request, preflight or
// not, is answered with an empty 200 and never reaches the router.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	handler := cors.Handler(cors.Options{
		AllowedOrigins:     opts.AllowedOrigins,
		AllowedMethods:     opts.AllowedMethods,
		AllowedHeaders:     opts.AllowedHeaders,
		MaxAge:             int(opts.MaxAge.Seconds()),
		OptionsPassthrough: true,
	})

	return func(next http.Handler) http.Handler {
		return handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
