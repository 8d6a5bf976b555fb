// Package audit captures structured session lifecycle events. Transport of
// events beyond the store (SIEM, brokers) is an external concern; the Store
// seam is where those systems attach.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names a session lifecycle event.
type Action string

const (
	ActionSignInSucceeded    Action = "signin_succeeded"
	ActionSignInFailed       Action = "signin_failed"
	ActionTokenRefreshed     Action = "token_refreshed"
	ActionTokenRefreshFailed Action = "token_refresh_failed"
	ActionRoleDefaulted      Action = "role_defaulted"
	ActionSignOut            Action = "signout"
)

// Event is emitted from the orchestrator to capture key session actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Action    Action
	SessionID string
	UserID    string
	Provider  string
	// Reason carries failure detail for signin_failed and
	// token_refresh_failed events.
	Reason string
	// RequestID correlates the event with gateway logs.
	RequestID string
	// Browser and OS come from the portal's user agent, for sign-in
	// provenance in regulated deployments.
	Browser string
	OS      string
}

// Store is the persistence seam for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySession(ctx context.Context, sessionID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
