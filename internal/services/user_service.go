package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"roadmaptracker/internal/database"
	"roadmaptracker/internal/models"

	cache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserStore persists identity records keyed by email
type UserStore interface {
	Upsert(ctx context.Context, profile models.ProviderProfile, now time.Time) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmails(ctx context.Context, emails []string) ([]models.User, error)
}

// MongoUserStore is the MongoDB implementation of UserStore
type MongoUserStore struct {
	collection *mongo.Collection
}

// NewMongoUserStore creates a user store on the users collection
func NewMongoUserStore(db *database.MongoDB) *MongoUserStore {
	return &MongoUserStore{collection: db.Collection(database.CollectionUsers)}
}

// Upsert creates the user on first sign-in, otherwise refreshes name, image and last login
func (s *MongoUserStore) Upsert(ctx context.Context, profile models.ProviderProfile, now time.Time) (*models.User, error) {
	filter := bson.M{"email": profile.Email}
	update := bson.M{
		"$set": bson.M{
			"name":      profile.Name,
			"image":     profile.Image,
			"lastLogin": now,
		},
		"$setOnInsert": bson.M{
			"email":     profile.Email,
			"createdAt": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user models.User
	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}
	return &user, nil
}

// FindByEmail retrieves a user by email
func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w: %w", ErrPersistence, err)
	}
	return &user, nil
}

// FindByEmails retrieves every known user among emails in one query
func (s *MongoUserStore) FindByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	cursor, err := s.collection.Find(ctx, bson.M{"email": bson.M{"$in": emails}})
	if err != nil {
		return nil, fmt.Errorf("failed to look up users: %w: %w", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w: %w", ErrPersistence, err)
	}
	return users, nil
}

// UserService handles sign-in persistence and display profile lookups
type UserService struct {
	store    UserStore
	profiles *cache.Cache // nil when caching is disabled
	now      func() time.Time
}

// NewUserService creates a new user service. Resolved profiles are cached for profileTTL;
// a zero or negative TTL disables the cache and every lookup goes to the store.
func NewUserService(store UserStore, profileTTL time.Duration) *UserService {
	s := &UserService{store: store, now: time.Now}
	if profileTTL > 0 {
		s.profiles = cache.New(profileTTL, 2*profileTTL)
	}
	return s
}

func (s *UserService) cacheProfile(profile models.UserProfile) {
	if s.profiles != nil {
		s.profiles.Set(profile.Email, profile, cache.DefaultExpiration)
	}
}

func (s *UserService) cachedProfile(email string) (models.UserProfile, bool) {
	if s.profiles == nil {
		return models.UserProfile{}, false
	}
	cached, ok := s.profiles.Get(email)
	if !ok {
		return models.UserProfile{}, false
	}
	return cached.(models.UserProfile), true
}

// NormalizeEmail lowercases and trims an email so every comparison is exact
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail does the minimal shape check applied at the API boundary
func ValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

// SignIn upserts the user asserted by the identity provider.
// A failed upsert denies the sign-in.
func (s *UserService) SignIn(ctx context.Context, profile models.ProviderProfile) (*models.User, error) {
	profile.Email = NormalizeEmail(profile.Email)
	if !ValidEmail(profile.Email) {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	profile.Name = strings.TrimSpace(profile.Name)

	user, err := s.store.Upsert(ctx, profile, s.now())
	if err != nil {
		log.Printf("❌ Failed to save user %s on sign-in: %v", profile.Email, err)
		return nil, fmt.Errorf("%w: %w", ErrIdentityPersistence, err)
	}

	s.cacheProfile(user.Profile())
	return user, nil
}

// GetByEmail returns the stored user for email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.FindByEmail(ctx, NormalizeEmail(email))
}

// Profiles resolves display profiles for emails with a single store lookup for the cache misses.
// Emails without a user record fall back to a bare-email profile. Lookup failures degrade to the
// fallback as well since the profiles only decorate the response.
func (s *UserService) Profiles(ctx context.Context, emails []string) map[string]models.UserProfile {
	out := make(map[string]models.UserProfile, len(emails))
	var missing []string
	for _, email := range emails {
		if _, done := out[email]; done {
			continue
		}
		if cached, ok := s.cachedProfile(email); ok {
			out[email] = cached
			continue
		}
		out[email] = models.FallbackProfile(email)
		missing = append(missing, email)
	}
	if len(missing) == 0 {
		return out
	}

	users, err := s.store.FindByEmails(ctx, missing)
	if err != nil {
		log.Printf("⚠️  Failed to resolve user profiles: %v", err)
		return out
	}
	for i := range users {
		profile := users[i].Profile()
		out[users[i].Email] = profile
		s.cacheProfile(profile)
	}
	return out
}
