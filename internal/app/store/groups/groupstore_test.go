package groupstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/dalemusser/codetrackr/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func insertUser(t *testing.T, db *mongo.Database, name, email string) primitive.ObjectID {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	if _, err := db.Collection("users").InsertOne(ctx, bson.M{
		"_id": id, "full_name": name, "email": email, "status": models.UserStatusActive,
	}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := insertUser(t, db, "Ada", "ada@example.com")

	t.Run("public", func(t *testing.T) {
		g, err := store.Create(ctx, CreateInput{
			Name: "  Gophers ", Description: "Go fans", Visibility: "PUBLIC", Password: "ignored", CreatedBy: owner,
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if g.Name != "Gophers" || g.NameCI != "gophers" {
			t.Errorf("Name = %q NameCI = %q", g.Name, g.NameCI)
		}
		if g.Visibility != models.GroupPublic || g.PasswordHash != "" {
			t.Errorf("public group stored visibility=%q hash=%q", g.Visibility, g.PasswordHash)
		}
		member, err := store.IsMember(ctx, g.ID, owner)
		if err != nil || !member {
			t.Errorf("creator should be a member, got %v %v", member, err)
		}
	})

	t.Run("private", func(t *testing.T) {
		g, err := store.Create(ctx, CreateInput{
			Name: "Secret", Visibility: models.GroupPrivate, Password: "open-sesame", CreatedBy: owner,
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if g.PasswordHash == "" || g.PasswordHash == "open-sesame" {
			t.Fatal("private group password must be hashed")
		}
		if !CheckPassword(&g, "open-sesame") {
			t.Error("CheckPassword() rejected the right password")
		}
		if CheckPassword(&g, "wrong") {
			t.Error("CheckPassword() accepted the wrong password")
		}
	})
}

func TestStore_Get(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Get(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	g, _ := store.Create(ctx, CreateInput{Name: "Team", CreatedBy: primitive.NewObjectID()})
	got, err := store.Get(ctx, g.ID)
	if err != nil || got.Name != "Team" {
		t.Errorf("Get() = %+v, %v", got, err)
	}
}

func TestStore_JoinLeave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	g, _ := store.Create(ctx, CreateInput{Name: "Team", CreatedBy: owner})

	if err := store.Join(ctx, g.ID, other); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if err := store.Join(ctx, g.ID, other); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("Join() twice error = %v, want ErrAlreadyMember", err)
	}

	if _, err := store.Leave(ctx, g.ID, primitive.NewObjectID()); !errors.Is(err, ErrNotMember) {
		t.Errorf("Leave(stranger) error = %v, want ErrNotMember", err)
	}

	deleted, err := store.Leave(ctx, g.ID, other)
	if err != nil || deleted {
		t.Fatalf("Leave() = %v, %v, want group kept", deleted, err)
	}

	deleted, err = store.Leave(ctx, g.ID, owner)
	if err != nil || !deleted {
		t.Fatalf("Leave(last member) = %v, %v, want group deleted", deleted, err)
	}
	if _, err := store.Get(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("group should be gone, Get() error = %v", err)
	}
}

func TestStore_MyGroupsAndDiscover(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := insertUser(t, db, "Ada", "ada@example.com")
	bob := insertUser(t, db, "Bob", "bob@example.com")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	rust, _ := store.Create(ctx, CreateInput{Name: "Rustaceans", CreatedBy: ada})
	store.now = func() time.Time { return base.Add(time.Hour) }
	gophers, _ := store.Create(ctx, CreateInput{Name: "Gophers", CreatedBy: ada})
	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	bobs, _ := store.Create(ctx, CreateInput{Name: "Bob's Cafe", Visibility: models.GroupPrivate, Password: "pass", CreatedBy: bob})
	_ = store.Join(ctx, gophers.ID, bob)

	mine, err := store.MyGroups(ctx, ada)
	if err != nil {
		t.Fatalf("MyGroups() error = %v", err)
	}
	if len(mine) != 2 || mine[0].ID != gophers.ID || mine[1].ID != rust.ID {
		t.Fatalf("MyGroups() = %+v, want [Gophers Rustaceans]", mine)
	}
	if mine[0].MemberCount != 2 || mine[1].MemberCount != 1 {
		t.Errorf("member counts = %d, %d, want 2, 1", mine[0].MemberCount, mine[1].MemberCount)
	}
	if mine[0].Creator == nil || mine[0].Creator.Name != "Ada" {
		t.Errorf("creator not attached: %+v", mine[0].Creator)
	}

	none, err := store.MyGroups(ctx, primitive.NewObjectID())
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("MyGroups(no groups) = %v, %v, want empty slice", none, err)
	}

	tests := []struct {
		name   string
		user   primitive.ObjectID
		search string
		want   []primitive.ObjectID
	}{
		{"excludes joined groups", ada, "", []primitive.ObjectID{bobs.ID}},
		{"private groups are listed", primitive.NewObjectID(), "", []primitive.ObjectID{bobs.ID, gophers.ID, rust.ID}},
		{"case-insensitive substring", primitive.NewObjectID(), "PHER", []primitive.ObjectID{gophers.ID}},
		{"search is trimmed", primitive.NewObjectID(), "  cafe ", []primitive.ObjectID{bobs.ID}},
		{"regex characters are literal", primitive.NewObjectID(), "b.b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Discover(ctx, tt.user, tt.search)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Discover() = %d groups, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("Discover()[%d] = %s, want %s", i, got[i].Name, tt.want[i].Hex())
				}
			}
		})
	}
}

func TestStore_Members(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := insertUser(t, db, "Ada", "ada@example.com")
	bob := insertUser(t, db, "Bob", "bob@example.com")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	g, _ := store.Create(ctx, CreateInput{Name: "Team", CreatedBy: ada})
	store.now = func() time.Time { return base.Add(time.Minute) }
	_ = store.Join(ctx, g.ID, bob)
	_ = store.Join(ctx, g.ID, primitive.NewObjectID()) // no user record

	members, err := store.Members(ctx, g.ID)
	if err != nil {
		t.Fatalf("Members() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("Members() = %d, want 2", len(members))
	}
	if members[0].ID != ada || members[0].Name != "Ada" || members[1].Email != "bob@example.com" {
		t.Errorf("Members() = %+v", members)
	}
	if !members[1].JoinedAt.After(members[0].JoinedAt) {
		t.Error("Members() not in join order")
	}
}
