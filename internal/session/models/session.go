// Package models holds the session types shared by the orchestrator and its
// stores.
package models

import (
	"time"

	"caregate/internal/identity"
)

// Session is the per-user working state the orchestrator owns. It is only
// ever mutated through orchestrator operations; portals and route guards see
// the View projection instead.
type Session struct {
	// ID is the opaque gateway session identifier. It is the store key, the
	// cookie value and the single-flight key for refreshes.
	ID         string             `json:"id"`
	Principal  identity.Principal `json:"principal"`
	Tokens     identity.TokenPair `json:"tokens"`
	Kind       identity.Kind      `json:"kind"`
	Provider   string             `json:"provider"`
	CreatedAt  time.Time          `json:"createdAt"`
	LastSeenAt time.Time          `json:"lastSeenAt"`
}

// View is the minimal stable projection route guards and portal UIs consume.
// It is read-only; nothing in the session can be mutated through it.
type View struct {
	UserID string        `json:"userId"`
	Role   identity.Role `json:"role"`
	// RoleDefaulted flags that the backend omitted a role and the system
	// default was applied. Role drives authorization, so consumers must be
	// able to tell a real role from a defaulted one.
	RoleDefaulted bool   `json:"roleDefaulted,omitempty"`
	DisplayImage  string `json:"displayImage,omitempty"`
	Provider      string `json:"provider"`
	AccessToken   string `json:"accessToken"`
	RefreshToken  string `json:"refreshToken"`
}
