package seeding

import (
	"testing"
	"time"

	"github.com/dalemusser/codetrackr/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestSeedDemo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Date(2024, 6, 7, 20, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if err := SeedDemo(ctx, db, zap.NewNop(), "Demo@Example.com", now); err != nil {
			t.Fatalf("SeedDemo() run %d error = %v", i+1, err)
		}
	}

	counts := map[string]int64{"users": 1, "activities": 24, "goals": 1, "groups": 1, "group_members": 1}
	for coll, want := range counts {
		got, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if got != want {
			t.Errorf("%s = %d, want %d", coll, got, want)
		}
	}
}

func TestDemoActivities(t *testing.T) {
	now := time.Date(2024, 6, 7, 10, 0, 0, 0, time.UTC)
	acts := demoActivities("u1", now)

	for _, a := range acts {
		if a.Timestamp.After(now) {
			t.Errorf("activity at %v is after now", a.Timestamp)
		}
		if a.UserID != "u1" || a.Duration <= 0 {
			t.Errorf("bad activity %+v", a)
		}
	}
	// Five full days plus today's 09:00 session.
	if len(acts) != 21 {
		t.Errorf("len = %d, want 21", len(acts))
	}
}
