// Package secrets generates opaque random identifiers. Gateway session IDs
// and OAuth state nonces come from here; they carry no embedded meaning and
// are only ever compared for equality.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Generate creates a cryptographically secure random value, base64-encoded
// for safe use in cookies and URLs.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SessionID creates a new gateway session identifier with a stable prefix so
// the values are recognizable in logs and stores.
func SessionID() (string, error) {
	v, err := Generate()
	if err != nil {
		return "", err
	}
	return "sess_" + v, nil
}
