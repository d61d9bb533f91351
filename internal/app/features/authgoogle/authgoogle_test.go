package authgoogle

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/codetrackr/internal/app/features/errors"
	"github.com/dalemusser/codetrackr/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/codetrackr/internal/app/store/users"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/dalemusser/codetrackr/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const frontend = "http://localhost:5173"

func newTestHandler(t *testing.T) (*Handler, *mongo.Database, *oauthstate.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	oauthStateStore := oauthstate.New(db)

	sessionMgr, err := auth.NewSessionManager(
		"test-session-key-for-testing-1234567890",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	handler := NewHandler(
		userstore.New(db),
		sessionMgr,
		errorsfeature.NewErrorLogger(logger),
		oauthStateStore,
		"test-client-id",
		"test-client-secret",
		"http://localhost:8080/",
		frontend+"/",
		logger,
	)

	return handler, db, oauthStateStore
}

// fakeGoogle serves the token and userinfo endpoints and points h at them.
func fakeGoogle(t *testing.T, h *Handler, info GoogleUserInfo) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(info)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	h.userInfoURL = srv.URL + "/userinfo"
}

func TestStartAuth_RedirectsToGoogle(t *testing.T) {
	h, db, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location: %v", err)
	}
	if loc.Host != "accounts.google.com" {
		t.Errorf("host = %q, want accounts.google.com", loc.Host)
	}
	q := loc.Query()
	if q.Get("redirect_uri") != "http://localhost:8080/auth/google/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("prompt") != "select_account" {
		t.Errorf("prompt = %q, want select_account", q.Get("prompt"))
	}

	state := q.Get("state")
	if state == "" {
		t.Fatal("state missing from redirect")
	}
	n, err := db.Collection("oauth_states").CountDocuments(ctx, bson.M{})
	if err != nil || n != 1 {
		t.Errorf("stored states = %d, %v, want 1", n, err)
	}
}

func TestCallback_Failures(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		withState bool
		wantError string
	}{
		{"unknown state", "state=invalid-state&code=good-code", false, "invalid_state"},
		{"missing state", "code=good-code", false, "invalid_state"},
		{"google error", "error=access_denied", true, "access_denied"},
		{"bad code", "code=bad-code", true, "token_exchange_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, states := newTestHandler(t)
			fakeGoogle(t, h, GoogleUserInfo{ID: "g-1", Email: "ada@example.com", Name: "Ada"})
			ctx, cancel := testutil.TestContext()
			defer cancel()

			query := tt.query
			if tt.withState {
				if err := states.Create(ctx, "valid-state"); err != nil {
					t.Fatalf("Create() error = %v", err)
				}
				query += "&state=valid-state"
			}

			req := httptest.NewRequest(http.MethodGet, "/callback?"+query, nil)
			rec := testutil.NewRecorder()
			h.handleCallback(rec, req)

			rec.AssertStatus(t, http.StatusSeeOther)
			rec.AssertRedirect(t, frontend+"/login?error="+tt.wantError)
		})
	}
}

func TestCallback_NewUserGoesToOnboarding(t *testing.T) {
	h, db, states := newTestHandler(t)
	fakeGoogle(t, h, GoogleUserInfo{ID: "g-42", Email: "Ada@Example.com", Name: "Ada Lovelace", Picture: "https://example.com/ada.png"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := states.Create(ctx, "s1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=good-code", nil)
	rec := testutil.NewRecorder()
	h.handleCallback(rec, req)

	rec.AssertStatus(t, http.StatusSeeOther)
	rec.AssertRedirect(t, frontend+"/onboarding")
	if len(rec.Result().Cookies()) == 0 {
		t.Error("session cookie not set")
	}

	u, err := userstore.New(db).GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u.GoogleID != "g-42" || u.FullName != "Ada Lovelace" {
		t.Errorf("user = %+v", u)
	}

	// A state can only be used once.
	rec = testutil.NewRecorder()
	h.handleCallback(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=good-code", nil))
	rec.AssertRedirect(t, frontend+"/login?error=invalid_state")
}

func TestCallback_ReturningUserGoesToDashboard(t *testing.T) {
	h, db, states := newTestHandler(t)
	fakeGoogle(t, h, GoogleUserInfo{ID: "g-7", Email: "bob@example.com", Name: "Bob"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := userstore.New(db).Create(ctx, models.User{FullName: "Bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_ = states.Create(ctx, "s2")

	rec := httptest.NewRecorder()
	h.handleCallback(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s2&code=good-code", nil))

	if got := rec.Header().Get("Location"); got != frontend+"/dashboard" {
		t.Errorf("Location = %q, want dashboard", got)
	}
}

func TestCallback_DisabledUser(t *testing.T) {
	h, db, states := newTestHandler(t)
	fakeGoogle(t, h, GoogleUserInfo{ID: "g-9", Email: "eve@example.com", Name: "Eve"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := userstore.New(db).Create(ctx, models.User{
		FullName: "Eve", Email: "eve@example.com", Status: models.UserStatusDisabled,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_ = states.Create(ctx, "s3")

	rec := httptest.NewRecorder()
	h.handleCallback(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s3&code=good-code", nil))

	if got := rec.Header().Get("Location"); got != frontend+"/login?error=account_disabled" {
		t.Errorf("Location = %q, want account_disabled", got)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("disabled user must not get a session")
	}
}

func TestGenerateState(t *testing.T) {
	state1, err1 := generateState()
	if err1 != nil {
		t.Fatalf("generateState() error: %v", err1)
	}
	state2, err2 := generateState()
	if err2 != nil {
		t.Fatalf("generateState() error: %v", err2)
	}

	if state1 == state2 {
		t.Error("generateState() should produce unique values")
	}
	// 32 bytes base64 URL encoded
	if len(state1) != 44 {
		t.Errorf("len(state) = %d, want 44", len(state1))
	}
}
