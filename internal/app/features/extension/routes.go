package extension

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/codetrackr/internal/app/system/apicors"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// Limits configures request throttling per API key.
// A non-positive Requests disables throttling.
type Limits struct {
	Requests int
	Window   time.Duration
}

// Routes returns a router with the extension endpoints.
//
// When mounted at /api/extension:
//   - POST /api/extension/track
//   - POST /api/extension/track/batch
//   - GET  /api/extension/verify
//
// CORS is permissive since requests carry an API key, not a cookie.
func Routes(h *Handler, keys auth.KeyValidator, lockout auth.Lockout, limits Limits, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())

	if limits.Requests > 0 {
		r.Use(httprate.Limit(limits.Requests, limits.Window,
			httprate.WithKeyFuncs(keyByAPIKey),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				jsonutil.TooManyRequests(w, "Too many requests. Please slow down.")
			}),
		))
	}

	r.Use(auth.APIKeyAuth(keys, lockout, logger))

	r.Post("/track", h.Track)
	r.Post("/track/batch", h.TrackBatch)
	r.Get("/verify", h.Verify)

	return r
}

// keyByAPIKey throttles per presented key, falling back to the client IP
// when the header is absent.
func keyByAPIKey(r *http.Request) (string, error) {
	if key := strings.TrimSpace(r.Header.Get(auth.APIKeyHeader)); key != "" {
		return "key:" + key, nil
	}
	return httprate.KeyByIP(r)
}
