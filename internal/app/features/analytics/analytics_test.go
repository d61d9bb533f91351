package analytics

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/codetrackr/internal/app/features/errors"
	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/reports"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/dalemusser/codetrackr/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 6, 5, 15, 30, 0, 0, time.UTC)

func newTestHandler(t *testing.T) (*Handler, *activitystore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	store := activitystore.New(db, logger)
	h := NewHandler(store, time.UTC, uierrors.NewErrorLogger(logger), logger)
	h.Now = func() time.Time { return fixedNow }
	return h, store
}

func seed(t *testing.T, store *activitystore.Store, acts ...models.Activity) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	for i := range acts {
		if err := store.Insert(ctx, &acts[i]); err != nil {
			t.Fatalf("insert activity: %v", err)
		}
	}
}

// serve routes the request through chi so URL params resolve.
func serve(h http.HandlerFunc, pattern string, req *http.Request) *testutil.ResponseRecorder {
	r := chi.NewRouter()
	r.Get(pattern, h)
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDaily_NoActivity(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.Developer()

	rec := serve(h.Daily, "/{userId}", testutil.NewRequest(http.MethodGet, "/"+user.ID))
	rec.AssertStatus(t, http.StatusOK)

	var rep reports.Report
	rec.DecodeJSON(t, &rep)
	if rep.TotalHours != 0 || rep.StreakDays != 0 || len(rep.DailyActivity) != 0 || len(rep.LanguageBreakdown) != 0 {
		t.Errorf("Daily() with no data = %+v, want zero report", rep)
	}
}

func TestDaily_SingleRecord(t *testing.T) {
	h, store := newTestHandler(t)
	user := testutil.Developer()
	seed(t, store, models.Activity{
		UserID: user.ID, FileName: "main.go", Language: "go", ProjectName: "api",
		Duration: 3600, LinesAdded: 10, Timestamp: time.Date(2024, 6, 5, 14, 10, 0, 0, time.UTC),
	})

	rec := serve(h.Daily, "/{userId}", testutil.NewRequest(http.MethodGet, "/"+user.ID+"?timezone=0"))
	rec.AssertStatus(t, http.StatusOK)

	var rep reports.Report
	rec.DecodeJSON(t, &rep)
	if rep.TotalHours != 1 || rep.ProjectCount != 1 || rep.TotalLinesAdded != 10 || rep.StreakDays != 1 {
		t.Errorf("scalars = %+v", rep)
	}
	if len(rep.DailyActivity) != 24 {
		t.Fatalf("buckets = %d, want 24", len(rep.DailyActivity))
	}
	if b := rep.DailyActivity[14]; b.Label != "14:00" || b.Hours != 1 {
		t.Errorf("bucket 14 = %+v, want 14:00 with 1 hour", b)
	}
	if len(rep.LanguageBreakdown) != 1 || rep.LanguageBreakdown[0].Language != "go" {
		t.Errorf("languages = %+v", rep.LanguageBreakdown)
	}
}

func TestDaily_RejectsNonNumericTimezone(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.Developer()

	rec := serve(h.Daily, "/{userId}", testutil.NewRequest(http.MethodGet, "/"+user.ID+"?timezone=abc"))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "timezone must be an integer")
}

func TestWeekly(t *testing.T) {
	h, store := newTestHandler(t)
	user := testutil.Developer()
	seed(t, store,
		models.Activity{UserID: user.ID, FileName: "a.go", Language: "go", Duration: 1800, Timestamp: fixedNow.Add(-time.Hour)},
		models.Activity{UserID: user.ID, FileName: "b.ts", Language: "typescript", Duration: 3600, Timestamp: fixedNow.AddDate(0, 0, -1)},
		// outside the seven-day window
		models.Activity{UserID: user.ID, FileName: "c.go", Language: "go", Duration: 3600, Timestamp: fixedNow.AddDate(0, 0, -9)},
	)

	rec := serve(h.Weekly, "/weekly/{userId}", testutil.NewRequest(http.MethodGet, "/weekly/"+user.ID))
	rec.AssertStatus(t, http.StatusOK)

	var rep reports.Report
	rec.DecodeJSON(t, &rep)
	if rep.TotalHours != 1.5 || rep.StreakDays != 2 {
		t.Errorf("TotalHours = %v StreakDays = %d, want 1.5 and 2", rep.TotalHours, rep.StreakDays)
	}
	if len(rep.DailyActivity) != 7 {
		t.Fatalf("buckets = %d, want 7", len(rep.DailyActivity))
	}
	if last := rep.DailyActivity[6]; last.Label != "Wed, Jun 5" || last.Hours != 0.5 {
		t.Errorf("today bucket = %+v", last)
	}
	if rep.LanguageBreakdown[0].Language != "typescript" {
		t.Errorf("languages not sorted by hours: %+v", rep.LanguageBreakdown)
	}
}

func TestTimeSlot(t *testing.T) {
	h, store := newTestHandler(t)
	user := testutil.Developer()
	seed(t, store,
		models.Activity{UserID: user.ID, FileName: "a.go", Language: "go", Duration: 600, LinesAdded: 8, LinesRemoved: 2, Timestamp: time.Date(2024, 6, 5, 14, 25, 0, 0, time.UTC)},
		models.Activity{UserID: user.ID, FileName: "a.go", Language: "go", Duration: 300, Timestamp: time.Date(2024, 6, 5, 16, 0, 0, 0, time.UTC)},
	)

	rec := serve(h.TimeSlot, "/timeslot/{userId}", testutil.NewRequest(http.MethodGet, "/timeslot/"+user.ID+"?start=14"))
	rec.AssertStatus(t, http.StatusOK)

	var rep reports.TimeSlotReport
	rec.DecodeJSON(t, &rep)
	if rep.ActivityCount != 1 || rep.TotalMinutes != 10 || rep.TotalLines != 10 || rep.FileCount != 1 {
		t.Errorf("TimeSlot() = %+v", rep)
	}
	if len(rep.TenMinuteSlots) != 12 || rep.TenMinuteSlots[2].Lines != 10 {
		t.Errorf("slots = %+v", rep.TenMinuteSlots)
	}
}

func TestTimeSlot_InvalidParams(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.Developer()

	for _, q := range []string{"?start=x", "?start=1&end=y", "?timezone=1.5"} {
		t.Run(q, func(t *testing.T) {
			rec := serve(h.TimeSlot, "/timeslot/{userId}", testutil.NewRequest(http.MethodGet, "/timeslot/"+user.ID+q))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestSummary(t *testing.T) {
	h, store := newTestHandler(t)
	user := testutil.Developer()
	seed(t, store,
		models.Activity{UserID: user.ID, FileName: "a.go", Language: "go", Duration: 3600, Timestamp: time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC)},
		models.Activity{UserID: user.ID, FileName: "b.go", Language: "go", Duration: 1800, Timestamp: time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)},
		models.Activity{UserID: user.ID, FileName: "c.py", Language: "python", Duration: 900, Timestamp: time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)},
	)

	rec := serve(h.Summary, "/summary/{userId}", testutil.NewRequest(http.MethodGet, "/summary/"+user.ID))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		DailyTotals []activitystore.DayTotal   `json:"dailyTotals"`
		StackTotals []activitystore.StackTotal `json:"stackTotals"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.DailyTotals) != 2 || resp.DailyTotals[0].Day != "2024-06-04" || resp.DailyTotals[1].TotalHours != 0.75 {
		t.Errorf("dailyTotals = %+v", resp.DailyTotals)
	}
	if len(resp.StackTotals) != 2 || resp.StackTotals[0].Language != "go" || resp.StackTotals[0].TotalHours != 1.5 {
		t.Errorf("stackTotals = %+v", resp.StackTotals)
	}
}

func TestRoutes_AccessControl(t *testing.T) {
	h, _ := newTestHandler(t)
	sm, err := auth.NewSessionManager("test-session-key-for-testing-1234567890", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	router := Routes(h, sm)
	me := testutil.Developer()
	other := testutil.Developer()

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"anonymous", testutil.NewRequest(http.MethodGet, "/"+me.ID), http.StatusUnauthorized},
		{"own report", testutil.NewAuthenticatedRequest(http.MethodGet, "/"+me.ID, me), http.StatusOK},
		{"someone else's daily report", testutil.NewAuthenticatedRequest(http.MethodGet, "/"+other.ID, me), http.StatusForbidden},
		{"someone else's report", testutil.NewAuthenticatedRequest(http.MethodGet, "/weekly/"+other.ID, me), http.StatusForbidden},
		{"summary of someone else", testutil.NewAuthenticatedRequest(http.MethodGet, "/summary/"+other.ID, me), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, tt.req)
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestRoutes_DailyAtUserRoot(t *testing.T) {
	h, store := newTestHandler(t)
	sm, err := auth.NewSessionManager("test-session-key-for-testing-1234567890", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	router := Routes(h, sm)
	me := testutil.Developer()
	seed(t, store, models.Activity{
		UserID: me.ID, FileName: "main.go", Language: "go", Duration: 3600,
		Timestamp: time.Date(2024, 6, 5, 14, 10, 0, 0, time.UTC),
	})

	tests := []struct {
		path    string
		buckets int
	}{
		{"/" + me.ID + "?timezone=0", 24},
		{"/weekly/" + me.ID + "?timezone=0", 7},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, tt.path, me))
			rec.AssertStatus(t, http.StatusOK)

			var rep reports.Report
			rec.DecodeJSON(t, &rep)
			if len(rep.DailyActivity) != tt.buckets {
				t.Errorf("buckets = %d, want %d", len(rep.DailyActivity), tt.buckets)
			}
		})
	}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/daily/"+me.ID, me))
	rec.AssertStatus(t, http.StatusNotFound)
}
