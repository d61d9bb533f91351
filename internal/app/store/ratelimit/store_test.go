package ratelimit

import (
	"testing"
	"time"

	"github.com/dalemusser/codetrackr/internal/testutil"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(db, 3, 15*time.Minute, 30*time.Minute).WithClock(clock.now), clock
}

func TestStore_Locked_NoRecord(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	locked, until, tracked := store.Locked(ctx, "203.0.113.7")
	if locked || until != nil || tracked {
		t.Errorf("Locked() = %v, %v, %v; want false, nil, false", locked, until, tracked)
	}
}

func TestStore_RecordFailure_LocksAtLimit(t *testing.T) {
	store, clock := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := "203.0.113.7"
	for i := 1; i < 3; i++ {
		if lockedOut, _ := store.RecordFailure(ctx, key); lockedOut {
			t.Fatalf("failure %d locked out early", i)
		}
	}

	lockedOut, until := store.RecordFailure(ctx, key)
	if !lockedOut || until == nil {
		t.Fatal("third failure should lock out")
	}
	if want := clock.t.Add(30 * time.Minute); !until.Equal(want) {
		t.Errorf("lockedUntil = %v, want %v", until, want)
	}

	if locked, _, _ := store.Locked(ctx, key); !locked {
		t.Error("Locked() should be true after lockout")
	}

	clock.advance(31 * time.Minute)
	if locked, _, _ := store.Locked(ctx, key); locked {
		t.Error("Locked() should be false once the lockout expires")
	}
}

func TestStore_RecordFailure_WindowResets(t *testing.T) {
	store, clock := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := "198.51.100.1"
	store.RecordFailure(ctx, key)
	store.RecordFailure(ctx, key)

	clock.advance(16 * time.Minute)
	if lockedOut, _ := store.RecordFailure(ctx, key); lockedOut {
		t.Error("failure after window expiry should start a new count")
	}

	rec, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec == nil || rec.FailureCount != 1 {
		t.Errorf("FailureCount = %+v, want 1", rec)
	}
}

func TestStore_Clear(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := "192.0.2.10"
	store.RecordFailure(ctx, key)
	if _, _, tracked := store.Locked(ctx, key); !tracked {
		t.Fatal("Locked() should report a tracked key after a failure")
	}
	if err := store.Clear(ctx, key); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	rec, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec != nil {
		t.Errorf("Get() after Clear = %+v, want nil", rec)
	}
	if _, _, tracked := store.Locked(ctx, key); tracked {
		t.Error("Locked() should not report a cleared key as tracked")
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		store.RecordFailure(ctx, "10.0.0.1")
	}
	if locked, _, _ := store.Locked(ctx, "10.0.0.2"); locked {
		t.Error("a different key should not be locked")
	}
}
