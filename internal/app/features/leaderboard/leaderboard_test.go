package leaderboard

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/codetrackr/internal/app/features/errors"
	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	userstore "github.com/dalemusser/codetrackr/internal/app/store/users"
	"github.com/dalemusser/codetrackr/internal/app/system/scoring"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/dalemusser/codetrackr/internal/testutil"
	"go.uber.org/zap"
)

func TestBoard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	acts := activitystore.New(db, logger)

	ada, _, err := users.Create(ctx, models.User{FullName: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	bob, _, _ := users.Create(ctx, models.User{FullName: "Bob", Email: "bob@example.com"})
	idle, _, _ := users.Create(ctx, models.User{FullName: "Idle", Email: "idle@example.com"})
	gone, _, _ := users.Create(ctx, models.User{FullName: "Gone", Email: "gone@example.com"})
	if err := users.SetStatus(ctx, gone.ID, models.UserStatusDisabled); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, a := range []models.Activity{
		{UserID: bob.ID.Hex(), FileName: "a.go", ProjectName: "api", Language: "go", Duration: 7200, LinesAdded: 40, LinesRemoved: 10, Timestamp: ts},
		{UserID: bob.ID.Hex(), FileName: "b.go", ProjectName: "cli", Language: "go", Duration: 3600, LinesAdded: 10, Timestamp: ts},
		{UserID: ada.ID.Hex(), FileName: "c.py", ProjectName: "ml", Language: "python", Duration: 1800, LinesAdded: 5, Timestamp: ts},
		{UserID: gone.ID.Hex(), FileName: "d.rs", Language: "rust", Duration: 99999, Timestamp: ts},
	} {
		a := a
		if err := acts.Insert(ctx, &a); err != nil {
			t.Fatalf("insert activity: %v", err)
		}
	}

	h := NewHandler(users, acts, uierrors.NewErrorLogger(logger), logger)
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)

	var board []scoring.Entry
	rec.DecodeJSON(t, &board)
	if len(board) != 3 {
		t.Fatalf("board has %d rows, want 3 active users", len(board))
	}

	top := board[0]
	if top.UserID != bob.ID.Hex() || top.Rank != 1 || top.TotalHours != 3 {
		t.Errorf("top = %+v, want Bob with 3 hours at rank 1", top)
	}
	if top.ProjectCount != 2 || top.Commits != 2 || top.CodeChanges != 60 || top.NetCodeChanges != 40 {
		t.Errorf("top totals = %+v", top)
	}
	if top.Engagement != "5.0" || top.CommitScore != "0.5" {
		t.Errorf("top scores engagement=%s commitScore=%s", top.Engagement, top.CommitScore)
	}
	if board[1].UserID != ada.ID.Hex() || board[1].TotalHours != 0.5 {
		t.Errorf("second = %+v, want Ada with 0.5 hours", board[1])
	}
	last := board[2]
	if last.UserID != idle.ID.Hex() || last.Rank != 3 || last.Overall != "0.0" {
		t.Errorf("last = %+v, want Idle with zero scores", last)
	}
}
