// Package apicors provides CORS middleware for the editor-extension endpoints,
// which authenticate with an x-api-key header instead of cookies.
//
// Because no cookies are involved, credentials stay disabled and any origin
// may call these endpoints unless a list of origins is configured.
//
// Usage in routes.go:
//
//	r.Route("/api/extension", func(r chi.Router) {
//	    r.Use(apicors.Middleware())
//	    r.Use(auth.APIKeyAuth(users, lockout, logger))
//	    ...
//	})
package apicors

import (
	"net/http"

	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/go-chi/cors"
)

const maxAge = 86400 // seconds

func options(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.APIKeyHeader},
		AllowCredentials: false,
		MaxAge:           maxAge,
	}
}

// Middleware allows any origin.
func Middleware() func(http.Handler) http.Handler {
	return cors.Handler(options([]string{"*"}))
}

// MiddlewareWithOrigins allows only the listed origins. With no origins it
// behaves like Middleware.
func MiddlewareWithOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return Middleware()
	}
	return cors.Handler(options(allowedOrigins))
}
