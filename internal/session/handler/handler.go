package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"caregate/internal/identity"
	"caregate/internal/platform/config"
	"caregate/internal/platform/middleware"
	"caregate/internal/session"
	"caregate/internal/session/models"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mocks.go -package=mocks Service

// Service defines the session operations the transport layer needs.
type Service interface {
	SignIn(ctx context.Context, assertion identity.Assertion) (*models.Session, error)
	Touch(ctx context.Context, sessionID string) (*models.Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

type contextKeyView struct{}

// ContextKeyView is exported for use in downstream handlers.
var ContextKeyView = contextKeyView{}

// GetView retrieves the projected session view placed in the context by
// RequireSession.
func GetView(ctx context.Context) (models.View, bool) {
	view, ok := ctx.Value(ContextKeyView).(models.View)
	return view, ok
}

// Handler wires the session endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
	cookie  config.CookieConfig
	oauth   config.OAuthConfig
}

// New creates a session Handler.
func New(service Service, logger *slog.Logger, cookie config.CookieConfig, oauth config.OAuthConfig) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		cookie:  cookie,
		oauth:   oauth,
	}
}

// Register mounts the session routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/session/login", h.handleLogin)
	r.Post("/session/social", h.handleSocialLogin)
	r.Post("/session/logout", h.handleLogout)
	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)
		r.Get("/session", h.handleGetSession)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type socialLoginRequest struct {
	Provider      string `json:"provider"`
	IdentityToken string `json:"identityToken"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Image         string `json:"image"`
}

// handleLogin handles POST /session/login requests.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	assertion := identity.Credentials{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}

	sess, err := h.service.SignIn(ctx, assertion)
	if err != nil {
		h.logSignInFailure(ctx, requestID, "credentials", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credentials sign-in",
		"request_id", requestID,
		"user_id", sess.Principal.ID,
	)
	h.setSessionCookie(w, sess.ID)
	httputil.WriteJSON(w, http.StatusOK, session.Project(sess))
}

// handleSocialLogin handles POST /session/social requests.
func (h *Handler) handleSocialLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if !h.oauth.Configured() {
		h.logger.WarnContext(ctx, "social sign-in attempted without a configured provider",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "social sign-in is not configured"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[socialLoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	provider := req.Provider
	if provider == "" {
		provider = h.oauth.Provider
	}

	assertion := identity.SocialLogin{
		ProviderName:  provider,
		IdentityToken: req.IdentityToken,
		ClaimedEmail:  req.Email,
		ClaimedName:   req.Name,
		ClaimedImage:  req.Image,
	}

	sess, err := h.service.SignIn(ctx, assertion)
	if err != nil {
		h.logSignInFailure(ctx, requestID, provider, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "social sign-in",
		"request_id", requestID,
		"user_id", sess.Principal.ID,
		"provider", provider,
	)
	h.setSessionCookie(w, sess.ID)
	httputil.WriteJSON(w, http.StatusOK, session.Project(sess))
}

// handleGetSession handles GET /session requests. RequireSession has already
// touched the session and projected it into the context.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, ok := GetView(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "session view missing from context despite guard",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session context error"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// handleLogout handles POST /session/logout requests. Logout is idempotent:
// a missing or unknown cookie still clears client state and answers 204.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	cookie, err := r.Cookie(h.cookie.Name)
	if err == nil && cookie.Value != "" {
		if err := h.service.SignOut(ctx, cookie.Value); err != nil {
			h.logger.ErrorContext(ctx, "sign-out failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// RequireSession guards routes that need an authenticated session. It touches
// the session (which may transparently refresh the access token) and places
// the projected view in the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetRequestID(ctx)

		cookie, err := r.Cookie(h.cookie.Name)
		if err != nil || cookie.Value == "" {
			h.logger.WarnContext(ctx, "request without session cookie",
				"request_id", requestID,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidSession, "no active session"))
			return
		}

		sess, err := h.service.Touch(ctx, cookie.Value)
		if err != nil {
			if dErrors.Is(err, dErrors.CodeInvalidSession) {
				h.logger.WarnContext(ctx, "stale session cookie",
					"request_id", requestID,
				)
				h.clearSessionCookie(w)
			} else {
				h.logger.ErrorContext(ctx, "session touch failed",
					"request_id", requestID,
					"error", err.Error(),
				)
			}
			httputil.WriteError(w, err)
			return
		}

		ctx = context.WithValue(ctx, ContextKeyView, session.Project(sess))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) logSignInFailure(ctx context.Context, requestID, provider string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidCredentials, dErrors.CodeValidation:
		h.logger.WarnContext(ctx, "sign-in rejected",
			"request_id", requestID,
			"provider", provider,
			"error", err.Error(),
		)
	default:
		h.logger.ErrorContext(ctx, "sign-in failed",
			"request_id", requestID,
			"provider", provider,
			"error", err.Error(),
		)
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
