package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"roadmaptracker/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRoadmapStore keeps roadmaps in process memory.
// Used in development when no MongoDB is configured, and by tests.
// Documents are copied on the way in and out so callers never share state with the store.
type MemoryRoadmapStore struct {
	mu       sync.RWMutex
	roadmaps map[primitive.ObjectID]*models.Roadmap
}

// NewMemoryRoadmapStore creates an empty in-memory roadmap store
func NewMemoryRoadmapStore() *MemoryRoadmapStore {
	return &MemoryRoadmapStore{roadmaps: make(map[primitive.ObjectID]*models.Roadmap)}
}

func (s *MemoryRoadmapStore) Insert(_ context.Context, roadmap *models.Roadmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roadmap.ID.IsZero() {
		roadmap.ID = primitive.NewObjectID()
	}
	s.roadmaps[roadmap.ID] = roadmap.Clone()
	return nil
}

// memberLocked returns the stored document if email is a member. Callers hold s.mu.
func (s *MemoryRoadmapStore) memberLocked(id primitive.ObjectID, email string) (*models.Roadmap, error) {
	r, ok := s.roadmaps[id]
	if !ok || !r.IsMember(email) {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *MemoryRoadmapStore) FindForMember(_ context.Context, id primitive.ObjectID, email string) (*models.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.memberLocked(id, email)
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

func (s *MemoryRoadmapStore) ListForMember(_ context.Context, email string) ([]*models.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Roadmap{}
	for _, r := range s.roadmaps {
		if r.IsMember(email) {
			out = append(out, r.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Roadmap) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *MemoryRoadmapStore) Save(_ context.Context, roadmap *models.Roadmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.roadmaps[roadmap.ID]
	if !ok || current.OwnerEmail != roadmap.OwnerEmail {
		return ErrNotFound
	}
	s.roadmaps[roadmap.ID] = roadmap.Clone()
	return nil
}

func (s *MemoryRoadmapStore) UpdateItem(_ context.Context, id primitive.ObjectID, email string, categoryID, itemID primitive.ObjectID, patch models.ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.memberLocked(id, email)
	if err != nil {
		return err
	}
	if item := r.FindItem(categoryID, itemID); item != nil {
		patch.Apply(item)
	}
	return nil
}

func (s *MemoryRoadmapStore) PullItem(_ context.Context, id primitive.ObjectID, email string, categoryID, itemID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.memberLocked(id, email)
	if err != nil {
		return err
	}
	r.RemoveItem(categoryID, itemID)
	return nil
}

func (s *MemoryRoadmapStore) PullCategory(_ context.Context, id primitive.ObjectID, email string, categoryID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.memberLocked(id, email)
	if err != nil {
		return err
	}
	r.RemoveCategory(categoryID)
	return nil
}

func (s *MemoryRoadmapStore) Delete(_ context.Context, id primitive.ObjectID, ownerEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roadmaps[id]
	if !ok || !r.IsOwner(ownerEmail) {
		return ErrNotFound
	}
	delete(s.roadmaps, id)
	return nil
}

// Len returns the number of stored roadmaps
func (s *MemoryRoadmapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roadmaps)
}

// MemoryLegacyCategoryStore is the in-memory LegacyCategoryStore
type MemoryLegacyCategoryStore struct {
	mu         sync.RWMutex
	categories []models.LegacyCategory
}

// NewMemoryLegacyCategoryStore creates a legacy store holding categories
func NewMemoryLegacyCategoryStore(categories ...models.LegacyCategory) *MemoryLegacyCategoryStore {
	s := &MemoryLegacyCategoryStore{}
	_ = s.Replace(context.Background(), categories)
	return s
}

func (s *MemoryLegacyCategoryStore) List(_ context.Context) ([]models.LegacyCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories), nil
}

func (s *MemoryLegacyCategoryStore) Replace(_ context.Context, categories []models.LegacyCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = make([]models.LegacyCategory, len(categories))
	for i, c := range categories {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		c.Items = slices.Clone(c.Items)
		s.categories[i] = c
	}
	return nil
}

// MemoryUserStore is the in-memory UserStore
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserStore creates an empty in-memory user store
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) Upsert(_ context.Context, profile models.ProviderProfile, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[profile.Email]
	if !ok {
		user = models.User{ID: primitive.NewObjectID(), Email: profile.Email, CreatedAt: now}
	}
	user.Name = profile.Name
	user.Image = profile.Image
	user.LastLogin = now
	s.users[profile.Email] = user
	return &user, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) FindByEmails(_ context.Context, emails []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, email := range emails {
		if user, ok := s.users[email]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}
