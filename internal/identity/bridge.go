package identity

import (
	"context"
	"fmt"

	dErrors "caregate/pkg/domain-errors"
)

// Bridge translates one assertion kind into a backend-verified grant.
type Bridge interface {
	Authenticate(ctx context.Context, assertion Assertion) (*Grant, error)
}

// Dispatcher routes an assertion to the bridge for its kind. The variant set
// is closed, so this is a plain switch rather than a registry.
type Dispatcher struct {
	credentials *CredentialsBridge
	social      *SocialBridge
}

// NewDispatcher wires one bridge per assertion kind over a shared client.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{
		credentials: &CredentialsBridge{client: client},
		social:      &SocialBridge{client: client},
	}
}

// Authenticate dispatches on the assertion's kind.
func (d *Dispatcher) Authenticate(ctx context.Context, assertion Assertion) (*Grant, error) {
	switch assertion.Kind() {
	case KindCredentials:
		return d.credentials.Authenticate(ctx, assertion)
	case KindSocial:
		return d.social.Authenticate(ctx, assertion)
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown assertion kind %q", assertion.Kind())
	}
}

// CredentialsBridge signs in with a password plus email or phone.
type CredentialsBridge struct {
	client *Client
}

// Authenticate validates the assertion shape and calls the login endpoint.
// The returned grant carries the backend's fields verbatim; nothing is
// invented client-side.
func (b *CredentialsBridge) Authenticate(ctx context.Context, assertion Assertion) (*Grant, error) {
	creds, ok := assertion.(Credentials)
	if !ok {
		return nil, fmt.Errorf("credentials bridge received %T", assertion)
	}

	var msgs []string
	if creds.Password == "" {
		msgs = append(msgs, "password must not be empty")
	}
	if creds.Email == "" && creds.Phone == "" {
		msgs = append(msgs, "either email or phone is required")
	}
	if len(msgs) > 0 {
		return nil, dErrors.Validation(msgs...)
	}

	return b.client.Login(ctx, creds.Email, creds.Phone, creds.Password)
}

// SocialBridge signs in with a provider-issued identity token.
type SocialBridge struct {
	client *Client
}

// Authenticate validates the assertion shape and calls the social-login
// endpoint. If the backend's user record has no display image but the OAuth
// handshake supplied one, the grant keeps the OAuth image: backend records
// routinely lack avatars the provider has.
//
// The claimed image lives on the assertion the caller still holds, so a
// failed bridge call never loses it; the caller can reattach it if a session
// still forms from a prior grant.
func (b *SocialBridge) Authenticate(ctx context.Context, assertion Assertion) (*Grant, error) {
	social, ok := assertion.(SocialLogin)
	if !ok {
		return nil, fmt.Errorf("social bridge received %T", assertion)
	}

	if social.IdentityToken == "" {
		return nil, dErrors.Validation("identity token must not be empty")
	}

	grant, err := b.client.SocialLogin(ctx, social.ProviderName, social.IdentityToken, social.ClaimedEmail, social.ClaimedName)
	if err != nil {
		return nil, err
	}

	if grant.Principal.DisplayImage == "" && social.ClaimedImage != "" {
		grant.Principal.DisplayImage = social.ClaimedImage
	}

	return grant, nil
}
