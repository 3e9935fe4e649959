// Package access decides whether a user may act on a roadmap.
package access

import (
	"errors"

	"roadmaptracker/internal/models"
)

// Level is the membership a caller needs for an operation
type Level int

const (
	// Member is the owner or any invited user
	Member Level = iota
	// Owner is the roadmap creator only
	Owner
)

func (l Level) String() string {
	switch l {
	case Member:
		return "member"
	case Owner:
		return "owner"
	default:
		return "unknown"
	}
}

var (
	// ErrNotFound is returned both for missing roadmaps and for roadmaps the caller is not a member of,
	// so non-members cannot probe for existence.
	ErrNotFound = errors.New("roadmap not found")
	// ErrForbidden is returned to members lacking the elevated level an operation requires
	ErrForbidden = errors.New("forbidden")
)

// Authorize checks email against roadmap at the required level.
// A nil roadmap is treated as not found.
func Authorize(email string, roadmap *models.Roadmap, required Level) error {
	if roadmap == nil || !roadmap.IsMember(email) {
		return ErrNotFound
	}
	if required == Owner && !roadmap.IsOwner(email) {
		return ErrForbidden
	}
	return nil
}

// Can is the boolean form of Authorize
func Can(email string, roadmap *models.Roadmap, required Level) bool {
	return Authorize(email, roadmap, required) == nil
}
