package services

import (
	"context"
	"fmt"

	"roadmaptracker/internal/database"
	"roadmaptracker/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoadmapStore persists roadmap aggregates.
//
// Insert and Save write the whole document; two Saves racing on the same roadmap lose one
// of the updates. UpdateItem, PullItem and PullCategory are single atomic document operations
// addressed by identifiers and are safe to run concurrently with each other.
// Every operation taking an email is scoped to roadmaps that email is a member of.
type RoadmapStore interface {
	Insert(ctx context.Context, roadmap *models.Roadmap) error
	FindForMember(ctx context.Context, id primitive.ObjectID, email string) (*models.Roadmap, error)
	ListForMember(ctx context.Context, email string) ([]*models.Roadmap, error)
	Save(ctx context.Context, roadmap *models.Roadmap) error
	UpdateItem(ctx context.Context, id primitive.ObjectID, email string, categoryID, itemID primitive.ObjectID, patch models.ItemPatch) error
	PullItem(ctx context.Context, id primitive.ObjectID, email string, categoryID, itemID primitive.ObjectID) error
	PullCategory(ctx context.Context, id primitive.ObjectID, email string, categoryID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID, ownerEmail string) error
}

// LegacyCategoryStore reads and seeds the flat pre-roadmap category collection
type LegacyCategoryStore interface {
	List(ctx context.Context) ([]models.LegacyCategory, error)
	Replace(ctx context.Context, categories []models.LegacyCategory) error
}

// Field paths of an item addressed through the "c" and "i" array filters
const (
	itemPathName    = "categories.$[c].items.$[i].name"
	itemPathDesc    = "categories.$[c].items.$[i].desc"
	itemPathChecked = "categories.$[c].items.$[i].checked"
)

// MongoRoadmapStore is the MongoDB implementation of RoadmapStore
type MongoRoadmapStore struct {
	collection *mongo.Collection
}

// NewMongoRoadmapStore creates a roadmap store on the roadmaps collection
func NewMongoRoadmapStore(db *database.MongoDB) *MongoRoadmapStore {
	return &MongoRoadmapStore{collection: db.Collection(database.CollectionRoadmaps)}
}

func memberFilter(id primitive.ObjectID, email string) bson.M {
	return bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"ownerEmail": email},
			bson.M{"invitedUsers": email},
		},
	}
}

// Insert stores a new roadmap
func (s *MongoRoadmapStore) Insert(ctx context.Context, roadmap *models.Roadmap) error {
	if _, err := s.collection.InsertOne(ctx, roadmap); err != nil {
		return fmt.Errorf("failed to insert roadmap: %w: %w", ErrPersistence, err)
	}
	return nil
}

// FindForMember loads a roadmap the email owns or was invited to
func (s *MongoRoadmapStore) FindForMember(ctx context.Context, id primitive.ObjectID, email string) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	err := s.collection.FindOne(ctx, memberFilter(id, email)).Decode(&roadmap)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get roadmap: %w: %w", ErrPersistence, err)
	}
	return &roadmap, nil
}

// ListForMember returns every roadmap the email owns or was invited to, newest first
func (s *MongoRoadmapStore) ListForMember(ctx context.Context, email string) ([]*models.Roadmap, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"ownerEmail": email},
			bson.M{"invitedUsers": email},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list roadmaps: %w: %w", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	roadmaps := []*models.Roadmap{}
	if err := cursor.All(ctx, &roadmaps); err != nil {
		return nil, fmt.Errorf("failed to decode roadmaps: %w: %w", ErrPersistence, err)
	}
	return roadmaps, nil
}

// Save replaces the whole document. The owner is part of the filter so it can never change.
func (s *MongoRoadmapStore) Save(ctx context.Context, roadmap *models.Roadmap) error {
	filter := bson.M{"_id": roadmap.ID, "ownerEmail": roadmap.OwnerEmail}
	result, err := s.collection.ReplaceOne(ctx, filter, roadmap)
	if err != nil {
		return fmt.Errorf("failed to save roadmap: %w: %w", ErrPersistence, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateItem sets the present patch fields on one item in place.
// A missing category or item matches no array element and leaves the document unchanged.
func (s *MongoRoadmapStore) UpdateItem(ctx context.Context, id primitive.ObjectID, email string, categoryID, itemID primitive.ObjectID, patch models.ItemPatch) error {
	set := bson.M{}
	if v, ok := patch.Name.Get(); ok {
		set[itemPathName] = v
	}
	if v, ok := patch.Desc.Get(); ok {
		set[itemPathDesc] = v
	}
	if v, ok := patch.Checked.Get(); ok {
		set[itemPathChecked] = v
	}
	if len(set) == 0 {
		return nil
	}

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"c._id": categoryID},
			bson.M{"i._id": itemID},
		},
	})

	result, err := s.collection.UpdateOne(ctx, memberFilter(id, email), bson.M{"$set": set}, opts)
	if err != nil {
		return fmt.Errorf("failed to update item: %w: %w", ErrPersistence, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PullItem removes one item from one category
func (s *MongoRoadmapStore) PullItem(ctx context.Context, id primitive.ObjectID, email string, categoryID, itemID primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{"categories.$[c].items": bson.M{"_id": itemID}}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"c._id": categoryID}},
	})

	result, err := s.collection.UpdateOne(ctx, memberFilter(id, email), update, opts)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w: %w", ErrPersistence, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PullCategory removes a category; its items go with it since they are embedded
func (s *MongoRoadmapStore) PullCategory(ctx context.Context, id primitive.ObjectID, email string, categoryID primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{"categories": bson.M{"_id": categoryID}}}

	result, err := s.collection.UpdateOne(ctx, memberFilter(id, email), update)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w: %w", ErrPersistence, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the roadmap document and everything nested in it
func (s *MongoRoadmapStore) Delete(ctx context.Context, id primitive.ObjectID, ownerEmail string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id, "ownerEmail": ownerEmail})
	if err != nil {
		return fmt.Errorf("failed to delete roadmap: %w: %w", ErrPersistence, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoLegacyCategoryStore is the MongoDB implementation of LegacyCategoryStore
type MongoLegacyCategoryStore struct {
	collection *mongo.Collection
}

// NewMongoLegacyCategoryStore creates a store on the legacy categories collection
func NewMongoLegacyCategoryStore(db *database.MongoDB) *MongoLegacyCategoryStore {
	return &MongoLegacyCategoryStore{collection: db.Collection(database.CollectionLegacyCategories)}
}

// List returns all legacy categories in insertion order
func (s *MongoLegacyCategoryStore) List(ctx context.Context) ([]models.LegacyCategory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy categories: %w: %w", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var categories []models.LegacyCategory
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode legacy categories: %w: %w", ErrPersistence, err)
	}
	return categories, nil
}

// Replace clears the collection and inserts categories
func (s *MongoLegacyCategoryStore) Replace(ctx context.Context, categories []models.LegacyCategory) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear legacy categories: %w: %w", ErrPersistence, err)
	}
	if len(categories) == 0 {
		return nil
	}

	docs := make([]interface{}, len(categories))
	for i, c := range categories {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		docs[i] = c
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert legacy categories: %w: %w", ErrPersistence, err)
	}
	return nil
}
