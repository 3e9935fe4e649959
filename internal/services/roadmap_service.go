package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roadmaptracker/internal/access"
	"roadmaptracker/internal/logging"
	"roadmaptracker/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoadmapService applies structural operations to roadmap aggregates on behalf of an authenticated user.
//
// Every operation loads the roadmap scoped to the caller's membership, so non-members always see
// ErrNotFound; members attempting owner-only operations get ErrForbidden.
// Appends and membership changes are load-modify-save and may lose a concurrent update to the same
// roadmap. Item updates and deletions go through atomic store operations.
type RoadmapService struct {
	store   RoadmapStore
	legacy  LegacyCategoryStore
	users   *UserService
	metrics *Metrics
	logger  *logrus.Logger
}

// NewRoadmapService creates a new roadmap service. metrics may be nil.
func NewRoadmapService(store RoadmapStore, legacy LegacyCategoryStore, users *UserService, metrics *Metrics, logger *logrus.Logger) *RoadmapService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RoadmapService{
		store:   store,
		legacy:  legacy,
		users:   users,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *RoadmapService) finish(op, roadmapID, email string, err error) {
	s.metrics.observe(op, err)

	entry := logging.WithRoadmap(s.logger, op, roadmapID, email)
	switch resultLabel(err) {
	case "ok":
		entry.Debug("roadmap operation completed")
	case "error":
		entry.WithError(err).Error("roadmap operation failed")
	default:
		entry.WithError(err).Info("roadmap operation rejected")
	}
}

// parseID turns a client-supplied hex identifier into an ObjectID.
// Malformed identifiers cannot address anything, so they are reported as not found.
func parseID(kind, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s %q: %w", kind, hex, ErrNotFound)
	}
	return id, nil
}

func requireName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	return value, nil
}

// load fetches the roadmap scoped to email and checks the required level
func (s *RoadmapService) load(ctx context.Context, roadmapID, email string, level access.Level) (*models.Roadmap, error) {
	id, err := parseID("roadmap", roadmapID)
	if err != nil {
		return nil, err
	}
	roadmap, err := s.store.FindForMember(ctx, id, email)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(email, roadmap, level); err != nil {
		return nil, err
	}
	return roadmap, nil
}

// CreateRoadmap creates an empty roadmap owned by email
func (s *RoadmapService) CreateRoadmap(ctx context.Context, email, name string) (roadmap *models.Roadmap, err error) {
	defer func() { s.finish("create_roadmap", idOf(roadmap), email, err) }()

	name, err = requireName("name", name)
	if err != nil {
		return nil, err
	}

	roadmap = models.NewRoadmap(name, email)
	if err := s.store.Insert(ctx, roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

// AddCategory appends an empty category
func (s *RoadmapService) AddCategory(ctx context.Context, email, roadmapID string, req models.AddCategoryRequest) (roadmap *models.Roadmap, err error) {
	defer func() { s.finish("add_category", roadmapID, email, err) }()

	label, err := requireName("name", req.Name)
	if err != nil {
		return nil, err
	}

	roadmap, err = s.load(ctx, roadmapID, email, access.Member)
	if err != nil {
		return nil, err
	}

	roadmap.Categories = append(roadmap.Categories, models.NewCategory(label, strings.TrimSpace(req.Icon), strings.TrimSpace(req.Color)))
	if err := s.store.Save(ctx, roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

// AddItem appends an unchecked item to a category
func (s *RoadmapService) AddItem(ctx context.Context, email, roadmapID, categoryID string, req models.AddItemRequest) (roadmap *models.Roadmap, err error) {
	defer func() { s.finish("add_item", roadmapID, email, err) }()

	name, err := requireName("name", req.Name)
	if err != nil {
		return nil, err
	}
	catID, err := parseID("category", categoryID)
	if err != nil {
		return nil, err
	}

	roadmap, err = s.load(ctx, roadmapID, email, access.Member)
	if err != nil {
		return nil, err
	}

	cat := roadmap.FindCategory(catID)
	if cat == nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}
	cat.Items = append(cat.Items, models.NewItem(name, req.Desc, strings.TrimSpace(req.Link)))

	if err := s.store.Save(ctx, roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

// UpdateItem sets only the fields present in patch.
// An absent category or item is a silent no-op and the current roadmap is returned.
func (s *RoadmapService) UpdateItem(ctx context.Context, email, roadmapID, categoryID, itemID string, patch models.ItemPatch) (roadmap *models.Roadmap, err error) {
	defer func() { s.finish("update_item", roadmapID, email, err) }()

	if v, ok := patch.Name.Get(); ok {
		name, err := requireName("name", v)
		if err != nil {
			return nil, err
		}
		patch.Name = models.Some(name)
	}

	roadmap, err = s.load(ctx, roadmapID, email, access.Member)
	if err != nil {
		return nil, err
	}

	catID, catErr := primitive.ObjectIDFromHex(categoryID)
	itID, itErr := primitive.ObjectIDFromHex(itemID)
	if catErr != nil || itErr != nil || roadmap.FindItem(catID, itID) == nil || patch.IsEmpty() {
		return roadmap, nil
	}

	if err := s.store.UpdateItem(ctx, roadmap.ID, email, catID, itID, patch); err != nil {
		return nil, err
	}
	return s.store.FindForMember(ctx, roadmap.ID, email)
}

// DeleteItem removes one item. Deleting an item that is already gone is a no-op.
func (s *RoadmapService) DeleteItem(ctx context.Context, email, roadmapID, categoryID, itemID string) (roadmap *models.Roadmap, err error) {
	defer func() { s.finish("delete_item", roadmapID, email, err) }()

	roadmap, err = s.load(ctx, roadmapID, email, access.Member)
	if err != nil {
		return nil, err
	}

	catID, catErr := primitive.ObjectIDFromHex(categoryID)
	itID, itErr := primitive.ObjectIDFromHex(itemID)
	if catErr != nil || itErr != nil || roadmap.FindItem(catID, itID) == nil {
		return roadmap, nil
	}

	if err := s.store.PullItem(ctx, roadmap.ID, email, catID, itID); err != nil {
		return nil, err
	}
	return s.store.FindForMember(ctx, roadmap.ID, email)
}

// DeleteCategory removes a category and every item in it.
// Deleting a category that is already gone is a no-op.
func (s *RoadmapService) DeleteCategory(ctx context.Context, email, roadmapID, categoryID string) (roadmap *models.Roadmap, err error) {
	defer func() { s.finish("delete_category", roadmapID, email, err) }()

	roadmap, err = s.load(ctx, roadmapID, email, access.Member)
	if err != nil {
		return nil, err
	}

	catID, catErr := primitive.ObjectIDFromHex(categoryID)
	if catErr != nil || roadmap.FindCategory(catID) == nil {
		return roadmap, nil
	}

	if err := s.store.PullCategory(ctx, roadmap.ID, email, catID); err != nil {
		return nil, err
	}
	return s.store.FindForMember(ctx, roadmap.ID, email)
}

// DeleteRoadmap removes the roadmap with all nested categories and items. Owner only.
func (s *RoadmapService) DeleteRoadmap(ctx context.Context, email, roadmapID string) (err error) {
	defer func() { s.finish("delete_roadmap", roadmapID, email, err) }()

	roadmap, err := s.load(ctx, roadmapID, email, access.Owner)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, roadmap.ID, email)
}

// Delete dispatches a typed delete request. The returned roadmap is nil when the roadmap itself was deleted.
func (s *RoadmapService) Delete(ctx context.Context, email string, req models.DeleteRequest) (*models.Roadmap, error) {
	switch req.Type {
	case models.DeleteTypeRoadmap:
		return nil, s.DeleteRoadmap(ctx, email, req.RoadmapID)
	case models.DeleteTypeCategory:
		return s.DeleteCategory(ctx, email, req.RoadmapID, req.CategoryID)
	case models.DeleteTypeItem:
		return s.DeleteItem(ctx, email, req.RoadmapID, req.CategoryID, req.ItemID)
	default:
		return nil, fmt.Errorf("%w: unknown delete type %q", ErrValidation, req.Type)
	}
}

// InviteUser adds invitee to the roadmap's members.
// Inviting the owner or an already invited user changes nothing and is not an error.
func (s *RoadmapService) InviteUser(ctx context.Context, email, roadmapID, invitee string) (roadmap *models.Roadmap, err error) {
	defer func() { s.finish("invite_user", roadmapID, email, err) }()

	invitee = NormalizeEmail(invitee)
	if !ValidEmail(invitee) {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}

	roadmap, err = s.load(ctx, roadmapID, email, access.Member)
	if err != nil {
		return nil, err
	}

	if !roadmap.AddInvite(invitee) {
		return roadmap, nil
	}
	if err := s.store.Save(ctx, roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

// RemoveUser drops target from the invited users. Owner only; absent targets are a no-op.
func (s *RoadmapService) RemoveUser(ctx context.Context, email, roadmapID, target string) (roadmap *models.Roadmap, err error) {
	defer func() { s.finish("remove_user", roadmapID, email, err) }()

	roadmap, err = s.load(ctx, roadmapID, email, access.Owner)
	if err != nil {
		return nil, err
	}

	if !roadmap.RemoveInvite(NormalizeEmail(target)) {
		return roadmap, nil
	}
	if err := s.store.Save(ctx, roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

// ListForUser returns every roadmap email owns or was invited to, with the owner's profile attached
func (s *RoadmapService) ListForUser(ctx context.Context, email string) ([]models.RoadmapSummary, error) {
	roadmaps, err := s.store.ListForMember(ctx, email)
	if err != nil {
		s.finish("list_roadmaps", "", email, err)
		return nil, err
	}

	owners := make([]string, 0, len(roadmaps))
	for _, r := range roadmaps {
		owners = append(owners, r.OwnerEmail)
	}
	profiles := s.users.Profiles(ctx, owners)

	out := make([]models.RoadmapSummary, 0, len(roadmaps))
	for _, r := range roadmaps {
		out = append(out, models.RoadmapSummary{
			Roadmap:  r,
			Owner:    profiles[r.OwnerEmail],
			Progress: r.Progress(),
		})
	}
	return out, nil
}

// GetDetail returns one roadmap with the owner's and every invited user's profile attached
func (s *RoadmapService) GetDetail(ctx context.Context, email, roadmapID string) (*models.RoadmapDetail, error) {
	roadmap, err := s.load(ctx, roadmapID, email, access.Member)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.finish("get_roadmap", roadmapID, email, err)
		}
		return nil, err
	}
	return s.annotate(ctx, roadmap), nil
}

func (s *RoadmapService) annotate(ctx context.Context, roadmap *models.Roadmap) *models.RoadmapDetail {
	emails := append([]string{roadmap.OwnerEmail}, roadmap.InvitedUsers...)
	profiles := s.users.Profiles(ctx, emails)

	invited := make([]models.UserProfile, 0, len(roadmap.InvitedUsers))
	for _, e := range roadmap.InvitedUsers {
		invited = append(invited, profiles[e])
	}
	return &models.RoadmapDetail{
		Roadmap:  roadmap,
		Owner:    profiles[roadmap.OwnerEmail],
		Invited:  invited,
		Progress: roadmap.Progress(),
	}
}

func idOf(r *models.Roadmap) string {
	if r == nil {
		return ""
	}
	return r.ID.Hex()
}
