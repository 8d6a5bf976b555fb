// Package store persists gateway sessions.
//
// Error Contract:
// All store methods follow this pattern:
// - Return sentinel.ErrNotFound (wrapped) when the session does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
package store

import (
	"context"

	"caregate/internal/session/models"
)

// Store is the session persistence seam. Memory backs unit tests and
// single-node dev; Redis backs multi-instance deployments.
type Store interface {
	Save(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, sessionID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
}
