package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"roadmaptracker/internal/models"

	"gopkg.in/yaml.v3"
)

const maxLegacySeedSize = 1024 * 1024 // 1MB

// legacySeedFile is the YAML layout of a legacy seed file
type legacySeedFile struct {
	Categories []models.LegacyCategory `yaml:"categories"`
}

// ParseLegacySeed reads legacy categories from YAML
//
//	categories:
//	  - category: "Italian"
//	    icon: fa-pizza-slice
//	    color: text-orange-500
//	    items:
//	      - name: "Sfoglia"
//	        desc: "Fresh pasta"
func ParseLegacySeed(r io.Reader) ([]models.LegacyCategory, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLegacySeedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	if len(data) > maxLegacySeedSize {
		return nil, fmt.Errorf("seed file exceeds maximum size of %d bytes", maxLegacySeedSize)
	}

	var file legacySeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return file.Categories, nil
}

// SeedLegacy replaces the legacy collection with categories. Every item starts unchecked.
func SeedLegacy(ctx context.Context, store LegacyCategoryStore, categories []models.LegacyCategory) error {
	seeded := make([]models.LegacyCategory, 0, len(categories))
	seededAt := time.Now()
	for i, c := range categories {
		c.Category = strings.TrimSpace(c.Category)
		if c.Category == "" {
			return fmt.Errorf("%w: legacy category #%d has no label", ErrValidation, i+1)
		}
		if c.Icon == "" {
			c.Icon = models.DefaultCategoryIcon
		}
		if c.Color == "" {
			c.Color = models.DefaultCategoryColor
		}
		items := make([]models.LegacyItem, len(c.Items))
		for j, it := range c.Items {
			items[j] = models.LegacyItem{Name: it.Name, Desc: it.Desc}
		}
		c.Items = items
		// Keeps the file order when listing by createdAt
		c.CreatedAt = seededAt.Add(time.Duration(i) * time.Millisecond)
		seeded = append(seeded, c)
	}
	return store.Replace(ctx, seeded)
}
