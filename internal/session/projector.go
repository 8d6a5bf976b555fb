package session

import (
	"caregate/internal/identity"
	"caregate/internal/session/models"
)

// Project maps a session onto the stable view route guards and portal UIs
// consume. Pure; no I/O, no mutation of the session.
//
// Role falls back to the system default only when the backend genuinely
// omitted one, and the fallback is flagged on the view: role drives
// authorization, so consumers must see the difference.
func Project(session *models.Session) models.View {
	role := session.Principal.Role
	defaulted := false
	if role == "" {
		role = identity.RoleUser
		defaulted = true
	}

	return models.View{
		UserID:        session.Principal.ID,
		Role:          role,
		RoleDefaulted: defaulted,
		DisplayImage:  session.Principal.DisplayImage,
		Provider:      session.Provider,
		AccessToken:   session.Tokens.AccessToken,
		RefreshToken:  session.Tokens.RefreshToken,
	}
}
