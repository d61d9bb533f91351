package jsonutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/codetrackr/internal/app/system/apperr"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json unmarshal error: %v (body %q)", err, rec.Body.String())
	}
	return got
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "200 OK with data",
			status:     http.StatusOK,
			data:       map[string]string{"message": "hello"},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"hello"}`,
		},
		{
			name:       "201 Created with data",
			status:     http.StatusCreated,
			data:       map[string]int{"count": 3},
			wantStatus: http.StatusCreated,
			wantBody:   `{"count":3}`,
		},
		{
			name:       "nil data",
			status:     http.StatusOK,
			data:       nil,
			wantStatus: http.StatusOK,
			wantBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSON(rec, tt.status, tt.data)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			body := strings.TrimSpace(rec.Body.String())
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, string)
		wantStatus int
	}{
		{"BadRequest", BadRequest, http.StatusBadRequest},
		{"Unauthorized", Unauthorized, http.StatusUnauthorized},
		{"Forbidden", Forbidden, http.StatusForbidden},
		{"NotFound", NotFound, http.StatusNotFound},
		{"TooManyRequests", TooManyRequests, http.StatusTooManyRequests},
		{"InternalError", InternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "something went wrong")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			got := decodeBody(t, rec)
			if got["success"] != false {
				t.Errorf("success = %v, want false", got["success"])
			}
			if got["message"] != "something went wrong" {
				t.Errorf("message = %v", got["message"])
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, "Invalid goal", map[string]string{"title": "Title is required"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	got := decodeBody(t, rec)
	fields, ok := got["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields missing from %v", got)
	}
	if fields["title"] != "Title is required" {
		t.Errorf("fields[title] = %v", fields["title"])
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", apperr.NotFound("Goal not found"), http.StatusNotFound, "Goal not found"},
		{"auth", apperr.Auth("API key is required"), http.StatusUnauthorized, "API key is required"},
		{"internal hides cause", errors.New("mongo: connection reset"), http.StatusInternalServerError, apperr.InternalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			status := Fail(rec, tt.err)

			if status != tt.wantStatus || rec.Code != tt.wantStatus {
				t.Errorf("status = %d (returned %d), want %d", rec.Code, status, tt.wantStatus)
			}
			if got := decodeBody(t, rec); got["message"] != tt.wantMsg {
				t.Errorf("message = %v, want %q", got["message"], tt.wantMsg)
			}
		})
	}
}

func TestFail_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, &apperr.ValidationError{Message: "bad", Fields: map[string]string{"deadline": "Deadline is required"}})

	got := decodeBody(t, rec)
	if _, ok := got["fields"]; !ok {
		t.Errorf("expected fields in %v", got)
	}
}

func TestDecode(t *testing.T) {
	type input struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"go"}`))
		var in input
		if err := Decode(req, &in); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if in.Name != "go" {
			t.Errorf("Name = %q, want go", in.Name)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var in input
		err := Decode(req, &in)
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Decode() error = %v, want ValidationError", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		var in input
		err := Decode(req, &in)
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Decode() error = %v, want ValidationError", err)
		}
	})
}
