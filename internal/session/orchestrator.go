// Package session owns the session state machine: sign-in, refresh-on-read
// and sign-out. Sessions are only ever mutated here; everything outside this
// package works with the View projection.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"caregate/internal/audit"
	"caregate/internal/identity"
	"caregate/internal/platform/middleware"
	"caregate/internal/session/metrics"
	"caregate/internal/session/models"
	"caregate/internal/session/store"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/sentinel"
	"caregate/pkg/secrets"
)

//go:generate mockgen -source=orchestrator.go -destination=mocks/orchestrator_mocks.go -package=mocks Authenticator,TokenClient,ExpiryDecoder

// Authenticator turns an identity assertion into a backend-verified grant.
// identity.Dispatcher is the production implementation.
type Authenticator interface {
	Authenticate(ctx context.Context, assertion identity.Assertion) (*identity.Grant, error)
}

// TokenClient covers the identity API calls the orchestrator makes after
// sign-in. identity.Client is the production implementation.
type TokenClient interface {
	Refresh(ctx context.Context, refreshToken string) (*identity.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
}

// ExpiryDecoder reads the expiry claim out of an access token.
// token.Codec is the production implementation.
type ExpiryDecoder interface {
	DecodeExpiry(tokenString string) (time.Time, error)
}

// Orchestrator drives the session lifecycle.
type Orchestrator struct {
	authenticator Authenticator
	tokens        TokenClient
	codec         ExpiryDecoder
	store         store.Store
	logger        *slog.Logger
	metrics       *metrics.Metrics
	audit         *audit.Publisher

	// refreshThreshold is the remaining access-token lifetime below which a
	// session read triggers a refresh.
	refreshThreshold time.Duration

	// refreshGroup serializes refreshes per session ID. Refresh tokens are
	// single use, so a burst of reads against an expiring token must produce
	// exactly one refresh call, with the other readers sharing its outcome.
	refreshGroup singleflight.Group

	now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRefreshThreshold overrides the default 5 minute refresh threshold.
func WithRefreshThreshold(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.refreshThreshold = d
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New constructs an Orchestrator.
func New(
	authenticator Authenticator,
	tokens TokenClient,
	codec ExpiryDecoder,
	sessions store.Store,
	logger *slog.Logger,
	m *metrics.Metrics,
	auditPub *audit.Publisher,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		authenticator:    authenticator,
		tokens:           tokens,
		codec:            codec,
		store:            sessions,
		logger:           logger,
		metrics:          m,
		audit:            auditPub,
		refreshThreshold: 5 * time.Minute,
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// SignIn authenticates an assertion through the bridge for its kind and
// creates a session from the resulting grant. Failures come back as typed
// domain errors; the transport layer decides user-facing messaging.
func (o *Orchestrator) SignIn(ctx context.Context, assertion identity.Assertion) (*models.Session, error) {
	provider := assertion.Provider()

	grant, err := o.authenticator.Authenticate(ctx, assertion)
	if err != nil {
		o.metrics.RecordSignIn(provider, false)
		o.emit(ctx, audit.Event{
			Action:   audit.ActionSignInFailed,
			Provider: provider,
			Reason:   string(dErrors.CodeOf(err)),
		})
		if dErrors.IsAPIUnreachable(err) {
			o.logger.ErrorContext(ctx, "sign-in failed: identity api unreachable", "provider", provider, "error", err)
		}
		return nil, err
	}

	if grant.Principal.ID == "" {
		o.metrics.RecordSignIn(provider, false)
		return nil, dErrors.New(dErrors.CodeUpstream, "identity api returned a grant without a user id")
	}

	sessionID, err := secrets.SessionID()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not allocate session id")
	}

	now := o.now()
	session := &models.Session{
		ID:         sessionID,
		Principal:  grant.Principal,
		Tokens:     grant.Tokens,
		Kind:       assertion.Kind(),
		Provider:   provider,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	if err := o.store.Save(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not persist session")
	}

	o.metrics.RecordSignIn(provider, true)
	o.emit(ctx, audit.Event{
		Action:    audit.ActionSignInSucceeded,
		SessionID: session.ID,
		UserID:    session.Principal.ID,
		Provider:  provider,
	})

	if grant.Principal.Role == "" {
		// Role drives authorization; a missing one is a backend data problem
		// worth surfacing, not silently papering over.
		o.logger.WarnContext(ctx, "identity api omitted role, applying system default",
			"user_id", grant.Principal.ID,
			"provider", provider,
		)
		o.emit(ctx, audit.Event{
			Action:    audit.ActionRoleDefaulted,
			SessionID: session.ID,
			UserID:    session.Principal.ID,
			Provider:  provider,
		})
	}

	return session, nil
}

// Touch loads a session and transparently refreshes its token pair when the
// access token is close to expiry. It is called on every session read.
//
// Refresh failures are swallowed here by design: a transient refresh outage
// must not log users out. The stale pair stays in place and whichever
// protected API call eventually rejects it owns that decision.
func (o *Orchestrator) Touch(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := o.store.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidSession, "no session for the presented id")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load session")
	}

	expiry, err := o.codec.DecodeExpiry(session.Tokens.AccessToken)
	if err != nil {
		// Freshness unknown. Refreshing on a hunch would burn a single-use
		// refresh token, so assume the backend still accepts the token.
		o.logger.DebugContext(ctx, "cannot determine access token freshness, skipping refresh",
			"session_id", session.ID,
			"error", err,
		)
		return session, nil
	}

	if expiry.Sub(o.now()) >= o.refreshThreshold {
		return session, nil
	}

	refreshed, _, _ := o.refreshGroup.Do(session.ID, func() (any, error) {
		return o.refresh(ctx, session), nil
	})
	return refreshed.(*models.Session), nil
}

// refresh performs one refresh attempt and returns the session to hand back:
// the updated one on success, the unchanged one on failure (fail-open).
func (o *Orchestrator) refresh(ctx context.Context, session *models.Session) *models.Session {
	// Detach from the request: if the caller goes away mid-refresh, the
	// consumed single-use refresh token must still buy us a new pair.
	rctx := context.WithoutCancel(ctx)

	pair, err := o.tokens.Refresh(rctx, session.Tokens.RefreshToken)
	if err != nil {
		o.metrics.RecordRefresh(false)
		o.logger.WarnContext(ctx, "token refresh failed, keeping existing pair",
			"session_id", session.ID,
			"user_id", session.Principal.ID,
			"api_unreachable", dErrors.IsAPIUnreachable(err),
			"error", err,
		)
		o.emit(ctx, audit.Event{
			Action:    audit.ActionTokenRefreshFailed,
			SessionID: session.ID,
			UserID:    session.Principal.ID,
			Provider:  session.Provider,
			Reason:    string(dErrors.CodeOf(err)),
		})
		return session
	}

	// The pair replaces as a unit; both fields or neither.
	session.Tokens = *pair
	session.LastSeenAt = o.now()

	if err := o.store.Save(rctx, session); err != nil {
		// The new pair is already live backend-side; losing it would strand
		// the session, so hand it to the caller regardless.
		o.logger.ErrorContext(ctx, "could not persist refreshed session",
			"session_id", session.ID,
			"error", err,
		)
	}

	o.metrics.RecordRefresh(true)
	o.emit(ctx, audit.Event{
		Action:    audit.ActionTokenRefreshed,
		SessionID: session.ID,
		UserID:    session.Principal.ID,
		Provider:  session.Provider,
	})
	return session
}

// SignOut deletes the session and fires a best-effort revocation at the
// identity API. The local transition never waits on the backend.
func (o *Orchestrator) SignOut(ctx context.Context, sessionID string) error {
	session, err := o.store.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil // already signed out
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not load session")
	}

	if err := o.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not delete session")
	}

	o.metrics.RecordSignOut()
	o.emit(ctx, audit.Event{
		Action:    audit.ActionSignOut,
		SessionID: session.ID,
		UserID:    session.Principal.ID,
		Provider:  session.Provider,
	})

	accessToken := session.Tokens.AccessToken
	go func() {
		revokeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.tokens.Logout(revokeCtx, accessToken); err != nil {
			o.logger.DebugContext(revokeCtx, "best-effort revocation failed",
				"session_id", session.ID,
				"error", err,
			)
		}
	}()

	return nil
}

// emit fills request-scoped enrichment from the context and publishes.
func (o *Orchestrator) emit(ctx context.Context, event audit.Event) {
	event.RequestID = middleware.GetRequestID(ctx)
	info := middleware.GetClientInfo(ctx)
	event.Browser = info.Browser
	event.OS = info.OS
	o.audit.Emit(ctx, event)
}
