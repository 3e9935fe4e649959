package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"roadmaptracker/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// unreachableRoadmapStore reads from memory and, once down, fails every write
// the way MongoRoadmapStore reports a lost connection
type unreachableRoadmapStore struct {
	*MemoryRoadmapStore
	down bool
}

func (s *unreachableRoadmapStore) writeErr(op string) error {
	if !s.down {
		return nil
	}
	return fmt.Errorf("failed to %s: %w: %w", op, ErrPersistence, errors.New("connection refused"))
}

func (s *unreachableRoadmapStore) Save(ctx context.Context, roadmap *models.Roadmap) error {
	if err := s.writeErr("save roadmap"); err != nil {
		return err
	}
	return s.MemoryRoadmapStore.Save(ctx, roadmap)
}

func (s *unreachableRoadmapStore) UpdateItem(ctx context.Context, id primitive.ObjectID, email string, categoryID, itemID primitive.ObjectID, patch models.ItemPatch) error {
	if err := s.writeErr("update item"); err != nil {
		return err
	}
	return s.MemoryRoadmapStore.UpdateItem(ctx, id, email, categoryID, itemID, patch)
}

func (s *unreachableRoadmapStore) PullItem(ctx context.Context, id primitive.ObjectID, email string, categoryID, itemID primitive.ObjectID) error {
	if err := s.writeErr("delete item"); err != nil {
		return err
	}
	return s.MemoryRoadmapStore.PullItem(ctx, id, email, categoryID, itemID)
}

func (s *unreachableRoadmapStore) PullCategory(ctx context.Context, id primitive.ObjectID, email string, categoryID primitive.ObjectID) error {
	if err := s.writeErr("delete category"); err != nil {
		return err
	}
	return s.MemoryRoadmapStore.PullCategory(ctx, id, email, categoryID)
}

func (s *unreachableRoadmapStore) Delete(ctx context.Context, id primitive.ObjectID, ownerEmail string) error {
	if err := s.writeErr("delete roadmap"); err != nil {
		return err
	}
	return s.MemoryRoadmapStore.Delete(ctx, id, ownerEmail)
}

func TestRoadmapService_WriteFailureLeavesRoadmapUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &unreachableRoadmapStore{MemoryRoadmapStore: NewMemoryRoadmapStore()}
	legacy := NewMemoryLegacyCategoryStore()
	legacy.Replace(ctx, []models.LegacyCategory{{Category: "Museums", Items: []models.LegacyItem{{Name: "Louvre"}}}})
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := NewRoadmapService(store, legacy, NewUserService(NewMemoryUserStore(), time.Minute), metrics, nil)

	r, err := svc.CreateRoadmap(ctx, owner, "Trip")
	if err != nil {
		t.Fatalf("CreateRoadmap failed: %v", err)
	}
	id := r.ID.Hex()
	r, _ = svc.AddCategory(ctx, owner, id, models.AddCategoryRequest{Name: "Food"})
	cat := r.Categories[0].ID.Hex()
	r, _ = svc.AddItem(ctx, owner, id, cat, models.AddItemRequest{Name: "Try ramen"})
	item := r.Categories[0].Items[0].ID.Hex()
	svc.InviteUser(ctx, owner, id, invited)

	before, err := store.FindForMember(ctx, r.ID, owner)
	if err != nil {
		t.Fatalf("FindForMember failed: %v", err)
	}
	store.down = true

	tests := []struct {
		name string
		op   string
		run  func() error
	}{
		{"add category", "add_category", func() error {
			_, err := svc.AddCategory(ctx, owner, id, models.AddCategoryRequest{Name: "Sights"})
			return err
		}},
		{"add item", "add_item", func() error {
			_, err := svc.AddItem(ctx, owner, id, cat, models.AddItemRequest{Name: "Sushi"})
			return err
		}},
		{"update item", "update_item", func() error {
			_, err := svc.UpdateItem(ctx, owner, id, cat, item, models.ItemPatch{Checked: models.Some(true)})
			return err
		}},
		{"delete item", "delete_item", func() error {
			_, err := svc.DeleteItem(ctx, owner, id, cat, item)
			return err
		}},
		{"delete category", "delete_category", func() error {
			_, err := svc.DeleteCategory(ctx, owner, id, cat)
			return err
		}},
		{"invite user", "invite_user", func() error {
			_, err := svc.InviteUser(ctx, owner, id, "d@x.com")
			return err
		}},
		{"remove user", "remove_user", func() error {
			_, err := svc.RemoveUser(ctx, owner, id, invited)
			return err
		}},
		{"migrate legacy", "migrate_legacy", func() error {
			_, err := svc.MigrateLegacy(ctx, owner, id)
			return err
		}},
		{"delete roadmap", "delete_roadmap", func() error {
			return svc.DeleteRoadmap(ctx, owner, id)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, ErrPersistence) {
				t.Fatalf("expected ErrPersistence, got %v", err)
			}

			after, err := store.FindForMember(ctx, r.ID, owner)
			if err != nil {
				t.Fatalf("roadmap vanished after failed write: %v", err)
			}
			if !reflect.DeepEqual(before, after) {
				t.Errorf("stored roadmap changed after failed write:\nbefore %+v\nafter  %+v", before, after)
			}
			if got := testutil.ToFloat64(metrics.Mutations.WithLabelValues(tt.op, "error")); got != 1 {
				t.Errorf("expected one %s error, got %v", tt.op, got)
			}
		})
	}

	if got := testutil.ToFloat64(metrics.LegacyMigrated); got != 0 {
		t.Errorf("failed migration must not count categories, got %v", got)
	}
}
