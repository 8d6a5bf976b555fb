package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"caregate/internal/identity"
	"caregate/internal/platform/config"
	"caregate/internal/session/handler/mocks"
	"caregate/internal/session/models"
	dErrors "caregate/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, logger,
		config.CookieConfig{Name: "cg_session", Secure: false},
		config.OAuthConfig{Provider: "google", ClientID: "cid", ClientSecret: "secret"},
	)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) session() *models.Session {
	return &models.Session{
		ID: "sess_abc",
		Principal: identity.Principal{
			ID:   "user-42",
			Role: identity.RoleProvider,
		},
		Tokens:     identity.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"},
		Kind:       identity.KindCredentials,
		Provider:   "credentials",
		CreatedAt:  time.Now(),
		LastSeenAt: time.Now(),
	}
}

func (s *HandlerSuite) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "cg_session" {
			return c
		}
	}
	return nil
}

func (s *HandlerSuite) TestLogin() {
	s.service.EXPECT().SignIn(gomock.Any(), identity.Credentials{
		Email:    "doc@x.com",
		Password: "pw",
	}).Return(s.session(), nil)

	rec := s.postJSON("/session/login", `{"email":"doc@x.com","password":"pw"}`)

	s.Equal(http.StatusOK, rec.Code)

	cookie := sessionCookie(rec)
	s.Require().NotNil(cookie, "expected a session cookie on successful login")
	s.Equal("sess_abc", cookie.Value)
	s.True(cookie.HttpOnly)
	s.Equal(http.SameSiteLaxMode, cookie.SameSite)

	var view models.View
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&view))
	s.Equal("user-42", view.UserID)
	s.Equal(identity.RoleProvider, view.Role)
	s.Equal("at-1", view.AccessToken)
	s.Equal("rt-1", view.RefreshToken)
}

func (s *HandlerSuite) TestLogin_InvalidCredentials() {
	s.service.EXPECT().SignIn(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInvalidCredentials, "identity api rejected the credentials"))

	rec := s.postJSON("/session/login", `{"email":"doc@x.com","password":"nope"}`)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Nil(sessionCookie(rec))

	var body struct {
		Error string `json:"error"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Equal("invalid_credentials", body.Error)
}

func (s *HandlerSuite) TestLogin_ValidationMessages() {
	s.service.EXPECT().SignIn(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Validation("password is required", "email or phone is required"))

	rec := s.postJSON("/session/login", `{}`)

	s.Equal(http.StatusBadRequest, rec.Code)

	var body struct {
		Error    string   `json:"error"`
		Messages []string `json:"messages"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Equal("validation_error", body.Error)
	s.Len(body.Messages, 2)
}

func (s *HandlerSuite) TestLogin_MalformedBody() {
	rec := s.postJSON("/session/login", `{not json`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSocialLogin() {
	s.service.EXPECT().SignIn(gomock.Any(), identity.SocialLogin{
		ProviderName:  "google",
		IdentityToken: "id-token",
		ClaimedEmail:  "doc@x.com",
		ClaimedName:   "Dr. Example",
	}).Return(s.session(), nil)

	rec := s.postJSON("/session/social",
		`{"identityToken":"id-token","email":"doc@x.com","name":"Dr. Example"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.NotNil(sessionCookie(rec))
}

func (s *HandlerSuite) TestSocialLogin_NotConfigured() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, logger,
		config.CookieConfig{Name: "cg_session"},
		config.OAuthConfig{}, // no provider registered
	)
	router := chi.NewRouter()
	h.Register(router)

	req := httptest.NewRequest(http.MethodPost, "/session/social",
		strings.NewReader(`{"identityToken":"id-token"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGetSession() {
	s.service.EXPECT().Touch(gomock.Any(), "sess_abc").Return(s.session(), nil)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: "cg_session", Value: "sess_abc"})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)

	var view models.View
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&view))
	s.Equal("user-42", view.UserID)
	s.False(view.RoleDefaulted)
}

func (s *HandlerSuite) TestGetSession_NoCookie() {
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestGetSession_StaleCookieIsCleared() {
	s.service.EXPECT().Touch(gomock.Any(), "sess_gone").
		Return(nil, dErrors.New(dErrors.CodeInvalidSession, "session not found"))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: "cg_session", Value: "sess_gone"})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)

	cookie := sessionCookie(rec)
	s.Require().NotNil(cookie, "expected the stale cookie to be cleared")
	s.Equal("", cookie.Value)
	s.Negative(cookie.MaxAge)
}

func (s *HandlerSuite) TestLogout() {
	s.service.EXPECT().SignOut(gomock.Any(), "sess_abc").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	req.AddCookie(&http.Cookie{Name: "cg_session", Value: "sess_abc"})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)

	cookie := sessionCookie(rec)
	s.Require().NotNil(cookie)
	s.Equal("", cookie.Value)
	s.Negative(cookie.MaxAge)
}

func (s *HandlerSuite) TestLogout_WithoutCookieIsIdempotent() {
	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func TestRequireSessionInjectsView(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	service.EXPECT().Touch(gomock.Any(), "sess_abc").Return(&models.Session{
		ID:        "sess_abc",
		Principal: identity.Principal{ID: "user-42"},
		Tokens:    identity.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"},
		Provider:  "google",
	}, nil)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(service, logger, config.CookieConfig{Name: "cg_session"}, config.OAuthConfig{})

	var got models.View
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetView(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "cg_session", Value: "sess_abc"})
	rec := httptest.NewRecorder()
	h.RequireSession(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !ok {
		t.Fatalf("expected a view in the downstream context")
	}
	if got.UserID != "user-42" || got.Role != identity.RoleUser || !got.RoleDefaulted {
		t.Fatalf("unexpected view: %+v", got)
	}
}

func TestGetViewMissing(t *testing.T) {
	if _, ok := GetView(context.Background()); ok {
		t.Fatal("expected no view on an empty context")
	}
}
