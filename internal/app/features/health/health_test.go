package health

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/codetrackr/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context, *readpref.ReadPref) error { return p.err }

func TestHandler_Check_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), zap.NewNop())

	rec := testutil.NewRecorder()
	h.Check(rec, testutil.NewRequest(http.MethodGet, "/health"))

	rec.AssertStatus(t, http.StatusOK)
	var resp Response
	rec.DecodeJSON(t, &resp)
	if resp.Status != "ok" || resp.Services["mongodb"] != "ok" {
		t.Errorf("response = %+v, want ok", resp)
	}
}

func TestHandler_Degraded(t *testing.T) {
	h := NewHandler(stubPinger{err: errors.New("down")}, zap.NewNop())

	tests := []struct {
		name   string
		handle http.HandlerFunc
		status string
	}{
		{"check", h.Check, "degraded"},
		{"ready", h.Ready, "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			tt.handle(rec, testutil.NewRequest(http.MethodGet, "/"))
			rec.AssertStatus(t, http.StatusServiceUnavailable)
			var resp Response
			rec.DecodeJSON(t, &resp)
			if resp.Status != tt.status {
				t.Errorf("status = %q, want %q", resp.Status, tt.status)
			}
		})
	}
}

func TestEndpoints(t *testing.T) {
	h := NewHandler(stubPinger{}, zap.NewNop())
	r := chi.NewRouter()
	MountRootEndpoints(r, h)
	r.Mount("/health", Routes(h))

	tests := []struct {
		path string
		want string
	}{
		{"/", `"service":"CodeTrackr API"`},
		{"/health", `"status":"ok"`},
		{"/health/ready", `"status":"ready"`},
		{"/health/live", `"status":"alive"`},
		{"/ready", `"status":"ready"`},
		{"/readyz", `"status":"ready"`},
		{"/livez", `"status":"alive"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, tt.path))
			rec.AssertStatus(t, http.StatusOK)
			rec.AssertContains(t, tt.want)
		})
	}
}
