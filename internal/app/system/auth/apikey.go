package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/codetrackr/internal/app/system/network"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"go.uber.org/zap"
)

// APIKeyHeader is the header the editor extension sends its key in.
const APIKeyHeader = "x-api-key"

// Messages returned to the extension.
const (
	MsgAPIKeyRequired = "API key is required. Please provide x-api-key header."
	MsgAPIKeyInvalid  = "Invalid API key. Please check your credentials."
	MsgAPIKeyLocked   = "Too many invalid API key attempts. Please try again later."
)

// ErrInvalidAPIKey is what a KeyValidator returns for a key that matches
// no active user. Any other error is treated as a server failure.
var ErrInvalidAPIKey = errors.New("invalid api key")

// KeyValidator resolves an API key to its owner.
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, key string) (*models.User, error)
}

// Lockout tracks invalid key attempts per client. It may be nil.
type Lockout interface {
	// Locked also reports whether key has any failure record.
	Locked(ctx context.Context, key string) (locked bool, until *time.Time, tracked bool)
	RecordFailure(ctx context.Context, key string) (lockedOut bool, lockedUntil *time.Time)
	Clear(ctx context.Context, key string) error
}

const apiUserKey ctxKey = "apiUser"

// APIUser returns the user authenticated by APIKeyAuth.
func APIUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(apiUserKey).(*models.User)
	return u, ok
}

// WithAPIUser injects an API-key user into the request context.
// Handler tests use it to bypass APIKeyAuth.
func WithAPIUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), apiUserKey, u))
}

// APIKeyAuth returns middleware that authenticates the editor extension by
// the x-api-key header.
//
// Clients that present too many invalid keys are locked out by IP address
// and receive 429 until the lockout expires. A missing header is not
// counted as a failure.
//
// Usage:
//
//	r.Use(apicors.Middleware())
//	r.Use(auth.APIKeyAuth(users, lockout, logger))
//	r.Post("/track", h.Track)
func APIKeyAuth(validator KeyValidator, lockout Lockout, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if key == "" {
				logger.Debug("API request rejected: missing API key",
					zap.String("path", r.URL.Path))
				jsonutil.Unauthorized(w, MsgAPIKeyRequired)
				return
			}

			ip := network.GetClientIP(r)
			var tracked bool
			if lockout != nil {
				var locked bool
				locked, _, tracked = lockout.Locked(r.Context(), ip)
				if locked {
					jsonutil.TooManyRequests(w, MsgAPIKeyLocked)
					return
				}
			}

			u, err := validator.ValidateAPIKey(r.Context(), key)
			if err != nil {
				if !errors.Is(err, ErrInvalidAPIKey) {
					logger.Error("API key validation failed",
						zap.String("path", r.URL.Path),
						zap.Error(err))
					jsonutil.InternalError(w, "Internal server error")
					return
				}

				logger.Warn("API request rejected: invalid API key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", ip))
				if lockout != nil {
					if lockedOut, until := lockout.RecordFailure(r.Context(), ip); lockedOut {
						logger.Warn("client locked out after invalid API keys",
							zap.String("remote_addr", ip),
							zap.Timep("locked_until", until))
					}
				}
				jsonutil.Unauthorized(w, MsgAPIKeyInvalid)
				return
			}

			if tracked {
				if err := lockout.Clear(r.Context(), ip); err != nil {
					logger.Debug("failed to clear API key failures",
						zap.String("remote_addr", ip),
						zap.Error(err))
				}
			}
			next.ServeHTTP(w, WithAPIUser(r, u))
		})
	}
}
