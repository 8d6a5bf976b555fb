package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	dErrors "caregate/pkg/domain-errors"
)

// Observer receives identity API call timings. The session metrics package
// provides the production implementation.
type Observer interface {
	ObserveIdentityRequest(endpoint string, d time.Duration)
}

// Client calls the backend identity API for one audience (user, provider or
// admin portals each talk to their own path family).
type Client struct {
	baseURL  string
	audience string
	http     *http.Client
	logger   *slog.Logger
	observer Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithObserver attaches a request timing observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient constructs an identity API client.
func NewClient(baseURL, audience string, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		audience: audience,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type loginRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

type socialLoginRequest struct {
	Provider string `json:"provider"`
	Token    string `json:"token"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// authResponse is the wire shape of the login and social-login endpoints.
type authResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         backendUser `json:"user"`
}

type backendUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	DisplayImage string `json:"displayImage"`
}

// errorResponse carries the identity API's error body. Validation errors use
// message as either a single string or an array of strings.
type errorResponse struct {
	Message json.RawMessage `json:"message"`
}

func (e errorResponse) messages() []string {
	if len(e.Message) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(e.Message, &single); err == nil {
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(e.Message, &many); err == nil {
		return many
	}
	return []string{string(e.Message)}
}

// Login exchanges password credentials for a token pair and profile.
func (c *Client) Login(ctx context.Context, email, phone, password string) (*Grant, error) {
	var resp authResponse
	err := c.post(ctx, "login", loginRequest{Email: email, Phone: phone, Password: password}, "", &resp)
	if err != nil {
		return nil, err
	}
	return grantFrom(resp), nil
}

// SocialLogin exchanges a provider identity token for a token pair and
// profile. Claimed email and name travel as display hints only.
func (c *Client) SocialLogin(ctx context.Context, provider, identityToken, claimedEmail, claimedName string) (*Grant, error) {
	var resp authResponse
	err := c.post(ctx, "social-login", socialLoginRequest{
		Provider: provider,
		Token:    identityToken,
		Email:    claimedEmail,
		Name:     claimedName,
	}, "", &resp)
	if err != nil {
		return nil, err
	}
	return grantFrom(resp), nil
}

// Refresh trades a single-use refresh token for a brand-new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var resp TokenPair
	err := c.post(ctx, "refresh-token", refreshRequest{RefreshToken: refreshToken}, "", &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, dErrors.New(dErrors.CodeUpstream, "refresh response missing token fields")
	}
	return &resp, nil
}

// Logout tells the identity API to revoke the session. Best-effort; callers
// fire and forget.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	var resp struct {
		Message string `json:"message"`
	}
	return c.post(ctx, "logout", struct{}{}, accessToken, &resp)
}

func grantFrom(resp authResponse) *Grant {
	return &Grant{
		Principal: Principal{
			ID:           resp.User.ID,
			Email:        resp.User.Email,
			Phone:        resp.User.Phone,
			Name:         resp.User.Name,
			Role:         Role(resp.User.Role),
			DisplayImage: resp.User.DisplayImage,
		},
		Tokens: TokenPair{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
		},
	}
}

func (c *Client) post(ctx context.Context, endpoint string, body any, bearer string, out any) error {
	url := fmt.Sprintf("%s/auth/%s/%s", c.baseURL, c.audience, endpoint)

	payload, err := json.Marshal(body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode identity request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build identity request")
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.observer != nil {
		c.observer.ObserveIdentityRequest(endpoint, time.Since(start))
	}
	if err != nil {
		return c.classifyTransportError(ctx, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUpstream, "identity response is not valid JSON")
		}
		return nil
	}

	return c.statusError(resp)
}

// classifyTransportError distinguishes "the API is not there at all" from
// ordinary network failures, so operators see a misconfigured base URL
// immediately instead of a generic timeout.
func (c *Client) classifyTransportError(ctx context.Context, endpoint string, err error) error {
	var dnsErr *net.DNSError
	if errors.Is(err, syscall.ECONNREFUSED) || errors.As(err, &dnsErr) {
		c.logger.ErrorContext(ctx, "identity api unreachable, check base URL configuration",
			"endpoint", endpoint,
			"base_url", c.baseURL,
			"error", err,
		)
		return dErrors.Unreachable(err, "identity api unreachable")
	}
	return dErrors.Wrap(err, dErrors.CodeNetworkUnavailable, "identity api request failed")
}

func (c *Client) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorResponse
	_ = json.Unmarshal(raw, &body)
	msgs := body.messages()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return dErrors.New(dErrors.CodeInvalidCredentials, "identity api rejected the credentials")
	case http.StatusConflict:
		return dErrors.New(dErrors.CodeConflict, firstOr(msgs, "conflicting registration"))
	case http.StatusBadRequest:
		if len(msgs) > 0 {
			return dErrors.Validation(msgs...)
		}
		return dErrors.New(dErrors.CodeValidation, "identity api rejected the request")
	default:
		return dErrors.Newf(dErrors.CodeUpstream, "identity api returned %d: %s", resp.StatusCode, firstOr(msgs, "no message"))
	}
}

func firstOr(msgs []string, fallback string) string {
	if len(msgs) > 0 {
		return msgs[0]
	}
	return fallback
}
