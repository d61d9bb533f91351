package profile

import (
	"net/http"
	"strings"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/codetrackr/internal/app/features/errors"
	userstore "github.com/dalemusser/codetrackr/internal/app/store/users"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/dalemusser/codetrackr/internal/testutil"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (http.Handler, *userstore.Store, testutil.TestUser, string) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sm, err := auth.NewSessionManager("test-session-key-for-testing-1234567890", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(db)
	u, key, err := users.Create(ctx, models.User{FullName: "Ada", Email: "ada@example.com", IsFirstLogin: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	tu := testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email}
	return Routes(NewHandler(users, errorsfeature.NewErrorLogger(logger), logger), sm), users, tu, key
}

func TestServeProfile(t *testing.T) {
	router, _, me, key := newTestRouter(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", me))
	rec.AssertStatus(t, http.StatusOK)

	if strings.Contains(rec.Body.String(), key) {
		t.Fatal("profile must not expose the API key")
	}

	var resp struct {
		Success bool        `json:"success"`
		User    profileView `json:"user"`
	}
	rec.DecodeJSON(t, &resp)
	if !resp.Success || resp.User.ID != me.ID || !resp.User.HasAPIKey || !resp.User.IsFirstLogin {
		t.Errorf("profile = %+v", resp.User)
	}
	if !strings.HasPrefix(key, resp.User.APIKeyPrefix) {
		t.Errorf("apiKeyPrefix %q is not a prefix of the key", resp.User.APIKeyPrefix)
	}
}

func TestServeProfile_UnknownUser(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", testutil.Developer()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestRegenerateAPIKey(t *testing.T) {
	router, users, me, oldKey := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/regenerate-api-key", me))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		APIKey string `json:"apiKey"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.APIKey == "" || resp.APIKey == oldKey {
		t.Fatalf("apiKey = %q, want a new key", resp.APIKey)
	}

	if _, err := users.ValidateAPIKey(ctx, oldKey); err == nil {
		t.Error("old key still validates")
	}
	u, err := users.ValidateAPIKey(ctx, resp.APIKey)
	if err != nil || u.ID.Hex() != me.ID {
		t.Errorf("new key: ValidateAPIKey() = %v, %v", u, err)
	}
}

func TestCompleteOnboarding(t *testing.T) {
	router, users, me, _ := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/complete-onboarding", me))
	rec.AssertStatus(t, http.StatusOK)

	u, err := users.GetByID(ctx, testutil.UserOID(me))
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if u.IsFirstLogin {
		t.Error("is_first_login should be cleared")
	}
}

func TestRoutes_RequireSignIn(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	for _, path := range []string{"/profile"} {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, path))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
}
