package services

import (
	"errors"

	"roadmaptracker/internal/access"
)

// Error taxonomy shared by the services and mapped to HTTP statuses by the handlers.
// Callers match with errors.Is; the wrapped message carries the detail.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = access.ErrForbidden
	ErrNotFound            = access.ErrNotFound
	ErrValidation          = errors.New("validation error")
	ErrPersistence         = errors.New("persistence error")
	ErrIdentityPersistence = errors.New("identity persistence error")
)
