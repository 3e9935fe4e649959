package services

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"roadmaptracker/internal/database"
	"roadmaptracker/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newMongoTestDB connects to MONGODB_TEST_URI or skips the test
func newMongoTestDB(t *testing.T) *database.MongoDB {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set - skipping integration test")
	}

	ctx := context.Background()
	db, err := database.NewMongoDB(ctx, uri)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })

	if err := db.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize indexes: %v", err)
	}
	return db
}

// insertTrip stores "Trip" owned by owner with invited as member, one "Food" category and two items
func insertTrip(t *testing.T, store *MongoRoadmapStore) *models.Roadmap {
	t.Helper()
	r := models.NewRoadmap("Trip", owner)
	r.InvitedUsers = []string{invited}
	food := models.NewCategory("Food", "", "")
	food.Items = append(food.Items,
		models.NewItem("Try ramen", "Tonkotsu", ""),
		models.NewItem("Sushi", "", ""),
	)
	r.Categories = append(r.Categories, food, models.NewCategory("Sights", "", ""))

	ctx := context.Background()
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	t.Cleanup(func() { store.Delete(context.Background(), r.ID, owner) })
	return r
}

func mustFind(t *testing.T, store *MongoRoadmapStore, id primitive.ObjectID, email string) *models.Roadmap {
	t.Helper()
	r, err := store.FindForMember(context.Background(), id, email)
	if err != nil {
		t.Fatalf("FindForMember(%s) failed: %v", email, err)
	}
	return r
}

func TestMongoRoadmapStore_Integration(t *testing.T) {
	db := newMongoTestDB(t)
	store := NewMongoRoadmapStore(db)
	ctx := context.Background()

	t.Run("member scoped lookup", func(t *testing.T) {
		r := insertTrip(t, store)
		mustFind(t, store, r.ID, owner)
		mustFind(t, store, r.ID, invited)
		if _, err := store.FindForMember(ctx, r.ID, outside); !errors.Is(err, ErrNotFound) {
			t.Errorf("outsider: expected ErrNotFound, got %v", err)
		}

		list, err := store.ListForMember(ctx, outside)
		if err != nil {
			t.Fatalf("ListForMember failed: %v", err)
		}
		for _, got := range list {
			if got.ID == r.ID {
				t.Error("outsider must not list the roadmap")
			}
		}
	})

	t.Run("partial patch", func(t *testing.T) {
		r := insertTrip(t, store)
		cat, item := r.Categories[0].ID, r.Categories[0].Items[0].ID

		patch := models.ItemPatch{Checked: models.Some(true)}
		if err := store.UpdateItem(ctx, r.ID, invited, cat, item, patch); err != nil {
			t.Fatalf("UpdateItem failed: %v", err)
		}

		got := mustFind(t, store, r.ID, owner)
		it := got.Categories[0].Items[0]
		if !it.Checked || it.Name != "Try ramen" || it.Desc != "Tonkotsu" {
			t.Errorf("expected only checked to change, got %+v", it)
		}
		if got.Categories[0].Items[1].Checked {
			t.Error("sibling item must stay unchecked")
		}
	})

	t.Run("patch on missing item is a no-op", func(t *testing.T) {
		r := insertTrip(t, store)
		before := mustFind(t, store, r.ID, owner)

		patch := models.ItemPatch{Name: models.Some("Gone"), Checked: models.Some(true)}
		if err := store.UpdateItem(ctx, r.ID, owner, r.Categories[0].ID, primitive.NewObjectID(), patch); err != nil {
			t.Fatalf("UpdateItem on missing item failed: %v", err)
		}
		if err := store.UpdateItem(ctx, r.ID, owner, primitive.NewObjectID(), r.Categories[0].Items[0].ID, patch); err != nil {
			t.Fatalf("UpdateItem on missing category failed: %v", err)
		}

		if after := mustFind(t, store, r.ID, owner); !reflect.DeepEqual(before, after) {
			t.Errorf("document changed:\nbefore %+v\nafter  %+v", before, after)
		}
	})

	t.Run("outsider cannot patch", func(t *testing.T) {
		r := insertTrip(t, store)
		patch := models.ItemPatch{Checked: models.Some(true)}
		err := store.UpdateItem(ctx, r.ID, outside, r.Categories[0].ID, r.Categories[0].Items[0].ID, patch)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if mustFind(t, store, r.ID, owner).Categories[0].Items[0].Checked {
			t.Error("outsider patch must not apply")
		}
	})

	t.Run("pull item and category", func(t *testing.T) {
		r := insertTrip(t, store)
		food, sights := r.Categories[0].ID, r.Categories[1].ID

		if err := store.PullItem(ctx, r.ID, invited, food, r.Categories[0].Items[0].ID); err != nil {
			t.Fatalf("PullItem failed: %v", err)
		}
		got := mustFind(t, store, r.ID, owner)
		if len(got.Categories[0].Items) != 1 || got.Categories[0].Items[0].Name != "Sushi" {
			t.Fatalf("expected only Sushi left, got %+v", got.Categories[0].Items)
		}

		if err := store.PullCategory(ctx, r.ID, owner, food); err != nil {
			t.Fatalf("PullCategory failed: %v", err)
		}
		got = mustFind(t, store, r.ID, owner)
		if len(got.Categories) != 1 || got.Categories[0].ID != sights {
			t.Errorf("expected only Sights left, got %+v", got.Categories)
		}
	})

	t.Run("save cannot change the owner", func(t *testing.T) {
		r := insertTrip(t, store)
		hijack := mustFind(t, store, r.ID, invited)
		hijack.OwnerEmail = invited
		hijack.Name = "Mine now"

		if err := store.Save(ctx, hijack); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		got := mustFind(t, store, r.ID, owner)
		if got.OwnerEmail != owner || got.Name != "Trip" {
			t.Errorf("owner save was rewritten: %+v", got)
		}

		got.Name = "Trip 2025"
		if err := store.Save(ctx, got); err != nil {
			t.Fatalf("owner save failed: %v", err)
		}
		if name := mustFind(t, store, r.ID, invited).Name; name != "Trip 2025" {
			t.Errorf("expected renamed roadmap, got %q", name)
		}
	})

	t.Run("delete is owner only", func(t *testing.T) {
		r := insertTrip(t, store)
		if err := store.Delete(ctx, r.ID, invited); !errors.Is(err, ErrNotFound) {
			t.Fatalf("member delete: expected ErrNotFound, got %v", err)
		}
		if err := store.Delete(ctx, r.ID, owner); err != nil {
			t.Fatalf("owner delete failed: %v", err)
		}
		if _, err := store.FindForMember(ctx, r.ID, owner); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestMongoUserStore_Integration(t *testing.T) {
	db := newMongoTestDB(t)
	store := NewMongoUserStore(db)
	ctx := context.Background()

	email := "it-" + primitive.NewObjectID().Hex() + "@x.com"
	first := time.Now().UTC().Truncate(time.Millisecond)

	created, err := store.Upsert(ctx, models.ProviderProfile{Email: email, Name: "Alice"}, first)
	if err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if created.ID.IsZero() || created.Name != "Alice" || !created.CreatedAt.Equal(first) {
		t.Fatalf("unexpected created user %+v", created)
	}

	later := first.Add(time.Hour)
	updated, err := store.Upsert(ctx, models.ProviderProfile{Email: email, Name: "Alice B", Image: "https://img/a.png"}, later)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("re-sign-in must keep the id: %s vs %s", updated.ID.Hex(), created.ID.Hex())
	}
	if updated.Name != "Alice B" || updated.Image == "" || !updated.LastLogin.Equal(later) || !updated.CreatedAt.Equal(first) {
		t.Errorf("unexpected refreshed user %+v", updated)
	}

	users, err := store.FindByEmails(ctx, []string{email, "nobody-" + email})
	if err != nil {
		t.Fatalf("FindByEmails failed: %v", err)
	}
	if len(users) != 1 || users[0].Email != email {
		t.Errorf("expected one match, got %+v", users)
	}

	if _, err := store.FindByEmail(ctx, "nobody-"+email); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
