// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"net/url"
	"strings"

	analyticsfeature "github.com/dalemusser/codetrackr/internal/app/features/analytics"
	authgooglefeature "github.com/dalemusser/codetrackr/internal/app/features/authgoogle"
	authsessionfeature "github.com/dalemusser/codetrackr/internal/app/features/authsession"
	errorsfeature "github.com/dalemusser/codetrackr/internal/app/features/errors"
	extensionfeature "github.com/dalemusser/codetrackr/internal/app/features/extension"
	goalsfeature "github.com/dalemusser/codetrackr/internal/app/features/goals"
	groupsfeature "github.com/dalemusser/codetrackr/internal/app/features/groups"
	healthfeature "github.com/dalemusser/codetrackr/internal/app/features/health"
	leaderboardfeature "github.com/dalemusser/codetrackr/internal/app/features/leaderboard"
	notificationsfeature "github.com/dalemusser/codetrackr/internal/app/features/notifications"
	profilefeature "github.com/dalemusser/codetrackr/internal/app/features/profile"
	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	goalstore "github.com/dalemusser/codetrackr/internal/app/store/goals"
	groupstore "github.com/dalemusser/codetrackr/internal/app/store/groups"
	notificationstore "github.com/dalemusser/codetrackr/internal/app/store/notifications"
	"github.com/dalemusser/codetrackr/internal/app/store/oauthstate"
	"github.com/dalemusser/codetrackr/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/codetrackr/internal/app/store/users"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// extensionPrefix is served with API-key auth and is exempt from CSRF.
const extensionPrefix = "/api/extension"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Two kinds of callers reach it:
//   - Editor extension: API key in x-api-key, permissive CORS, no CSRF
//   - Dashboard SPA: cookie session, CSRF token from /auth/current-user
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the user on each request so disabled
	// accounts and onboarding changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db, logger))

	errLog := errorsfeature.NewErrorLogger(logger)

	users := userstore.New(db)
	activity := activitystore.New(db, logger)
	goals := goalstore.New(db)
	groups := groupstore.New(db, logger)
	notifications := notificationstore.New(db)
	lockout := ratelimit.New(db, appCfg.APIKeyMaxFailures, appCfg.APIKeyFailureWindow, appCfg.APIKeyLockout)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.Timeout(appCfg.RequestTimeout))
	if appCfg.MetricsEnabled {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Loads SessionUser into context if signed in. Extension requests
	// simply have no session.
	r.Use(sessionMgr.LoadSessionUser)

	r.Use(csrfMiddleware(appCfg, secure, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// Editor extension (API key)
	extensionHandler := extensionfeature.NewHandler(activity, deps.Metrics, appCfg.IngestMaxBatch, logger)
	r.Mount(extensionPrefix, extensionfeature.Routes(extensionHandler, users, lockout, extensionfeature.Limits{
		Requests: appCfg.IngestRateLimit,
		Window:   appCfg.IngestRateWindow,
	}, logger))

	// Dashboard API (session)
	analyticsHandler := analyticsfeature.NewHandler(activity, deps.ReportLocation, errLog, logger)
	r.Mount("/api/analytics", analyticsfeature.Routes(analyticsHandler, sessionMgr))

	leaderboardHandler := leaderboardfeature.NewHandler(users, activity, errLog, logger)
	r.Mount("/api/leaderboard", leaderboardfeature.Routes(leaderboardHandler))

	goalsHandler := goalsfeature.NewHandler(goals, activity, errLog, logger)
	r.Mount("/api/goals", goalsfeature.Routes(goalsHandler, sessionMgr))

	notificationsHandler := notificationsfeature.NewHandler(notifications, errLog, logger)
	r.Mount("/api/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	groupsHandler := groupsfeature.NewHandler(groups, activity, errLog, logger)
	r.Mount("/api/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(users, errLog, logger)
	r.Mount("/api/user", profilefeature.Routes(profileHandler, sessionMgr))

	// Authentication
	if appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != "" {
		googleHandler := authgooglefeature.NewHandler(
			users,
			sessionMgr,
			errLog,
			oauthstate.New(db),
			appCfg.GoogleClientID,
			appCfg.GoogleClientSecret,
			appCfg.BaseURL,
			appCfg.FrontendURL,
			logger,
		)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		logger.Info("Google OAuth enabled", zap.String("redirect_url", strings.TrimRight(appCfg.BaseURL, "/")+"/auth/google/callback"))
	}

	sessionHandler := authsessionfeature.NewHandler(sessionMgr, logger)
	r.Mount("/auth", authsessionfeature.Routes(sessionHandler))

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}

// csrfMiddleware protects the session API. Extension routes authenticate
// with an API key and skip the check.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("codetrackr_csrf"),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Forbidden(w, "CSRF token invalid or missing")
		})),
	}

	// The dashboard is served from its own origin.
	trustedOrigins := []string{}
	if u, err := url.Parse(appCfg.FrontendURL); err == nil && u.Host != "" {
		trustedOrigins = append(trustedOrigins, u.Host)
	}
	if !secure {
		trustedOrigins = append(trustedOrigins, "localhost:5173", "localhost:3000", "127.0.0.1:5173", "127.0.0.1:3000")
	}
	csrfOpts = append(csrfOpts, csrf.TrustedOrigins(trustedOrigins))
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, extensionPrefix+"/") {
				next.ServeHTTP(w, req)
				return
			}
			protected.ServeHTTP(w, req)
		})
	}
}
