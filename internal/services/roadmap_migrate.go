package services

import (
	"context"
	"fmt"

	"roadmaptracker/internal/access"
)

// MigrateLegacy copies every category of the flat legacy collection into a roadmap the caller owns.
// Categories whose label already exists in the roadmap are skipped. Returns how many were copied.
// This is a one-off data copy; it shares the lost-update caveat of every load-modify-save operation.
func (s *RoadmapService) MigrateLegacy(ctx context.Context, email, roadmapID string) (count int, err error) {
	defer func() {
		s.finish("migrate_legacy", roadmapID, email, err)
		if err == nil {
			s.metrics.addMigrated(count)
		}
	}()

	roadmap, err := s.load(ctx, roadmapID, email, access.Owner)
	if err != nil {
		return 0, err
	}

	legacy, err := s.legacy.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(legacy) == 0 {
		return 0, fmt.Errorf("no legacy categories to migrate: %w", ErrNotFound)
	}

	for _, lc := range legacy {
		if roadmap.HasCategoryLabel(lc.Category) {
			continue
		}
		roadmap.Categories = append(roadmap.Categories, lc.ToCategory())
		count++
	}

	if count == 0 {
		return 0, nil
	}
	if err := s.store.Save(ctx, roadmap); err != nil {
		return 0, err
	}
	return count, nil
}
