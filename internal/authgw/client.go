// Package authgw provides the HTTP client for the hosted authentication
// backend. It is a thin contract wrapper: identity creation, credential
// sign-in, session refresh, and identity deletion. Credential storage and
// token issuance live entirely on the backend's side.
package authgw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"konduktv_backend/platform/config"
	"konduktv_backend/platform/logger"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects a sign-in.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists is returned when an identity with the email already exists.
	ErrEmailExists = errors.New("email already registered")
	// ErrNotFound is returned when the requested identity does not exist.
	ErrNotFound = errors.New("identity not found")
)

// Client is the HTTP client for the hosted auth backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	anonKey    string
	serviceKey string
	log        *logger.Logger
}

// New creates a new auth backend client. Admin operations authenticate with
// the privileged service key; token grants use the public key.
func New(cfg config.AuthGatewayConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    cfg.GetAuthURL(),
		anonKey:    cfg.GetAuthAnonKey(),
		serviceKey: cfg.GetAuthServiceKey(),
		log:        log,
	}
}

// CreateUser registers a new identity with a confirmed email.
func (c *Client) CreateUser(ctx context.Context, email, password string) (AuthUser, error) {
	var user AuthUser
	err := c.do(ctx, http.MethodPost, "/admin/users", c.serviceKey, createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
	}, &user)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) && (status.code == http.StatusUnprocessableEntity || status.code == http.StatusConflict) {
			return AuthUser{}, ErrEmailExists
		}
		return AuthUser{}, err
	}
	return user, nil
}

// DeleteUser removes an identity. Deleting an absent identity is not an
// error; deprovisioning steps must stay idempotent.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := c.do(ctx, http.MethodDelete, "/admin/users/"+id.String(), c.serviceKey, nil, nil)
	var status *statusError
	if errors.As(err, &status) && status.code == http.StatusNotFound {
		return nil
	}
	return err
}

// GetUserByEmail looks up an identity by email through the admin listing.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var resp listUsersResponse
	path := "/admin/users?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, c.serviceKey, nil, &resp); err != nil {
		return AuthUser{}, err
	}
	for _, user := range resp.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return AuthUser{}, ErrNotFound
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", c.anonKey, passwordGrantRequest{
		Email:    email,
		Password: password,
	}, &session)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) && (status.code == http.StatusBadRequest || status.code == http.StatusUnauthorized) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	return session, nil
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", c.anonKey, refreshGrantRequest{
		RefreshToken: refreshToken,
	}, &session)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// Refresh implements httpkit.TokenRefresher for the session middleware.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	session, err := c.RefreshSession(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	return session.AccessToken, session.RefreshToken, nil
}

// statusError carries the backend's HTTP status for error classification.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("auth backend: %s (status %d)", e.message, e.code)
}

func (c *Client) do(ctx context.Context, method, path, key string, body, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("apikey", key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		message := apiErr.text()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		err := &statusError{code: resp.StatusCode, message: message}
		if c.log != nil {
			c.log.UpstreamError(method+" "+path, resp.StatusCode, err)
		}
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("auth backend response: %w", err)
		}
	}
	return nil
}
