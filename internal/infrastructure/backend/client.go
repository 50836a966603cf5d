// Package backend implements the HTTP client for the care-center backend API.
// Every call carries its own timeout, and every failure is classified into the
// domain error taxonomy: credential rejection, token rejection, unavailability,
// or an unclassified backend message passed through verbatim.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Client talks to the backend API at a single base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a Client for the given base URL. A default per-call timeout is
// applied when none is provided.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// envelope is the JSON shape shared by all backend responses.
type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *userPayload `json:"user"`
}

// userPayload is the backend's account representation. Center arrives either
// as a plain id or as an embedded object; both collapse to the id.
type userPayload struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Role   string          `json:"role"`
	Center json.RawMessage `json:"center"`
}

func (u *userPayload) principal() *domain.Principal {
	return &domain.Principal{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Center: centerID(u.Center),
	}
}

func centerID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

// Login exchanges credentials for a token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	env, status, err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyLoginStatus(status, env.Message)
	}

	res := &ports.LoginResult{Success: env.Success, Message: env.Message, Token: env.Token}
	if env.User != nil {
		res.User = env.User.principal()
	}
	return res, nil
}

// Me re-validates a bearer token. Only a 401/403 classifies as
// ErrTokenRejected (forced logout); every other failure — including a 2xx
// whose body carries no identity — leaves the caller with its stale
// principal, favouring availability over freshness.
func (c *Client) Me(ctx context.Context, token string) (*domain.Principal, error) {
	env, status, err := c.doJSON(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &domain.BackendError{Status: status, Message: env.Message, Class: domain.ErrTokenRejected}
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, env.Message)
	}
	if env.User == nil {
		return nil, &domain.BackendError{Status: status, Message: "identity missing from response"}
	}
	return env.User.principal(), nil
}

// ForgotPassword asks the backend to send a reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.simpleCall(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email})
}

// VerifyResetToken checks a reset code without consuming it.
func (c *Client) VerifyResetToken(ctx context.Context, code string) error {
	return c.simpleCall(ctx, http.MethodPost, "/auth/verify-reset-token", map[string]string{"token": code})
}

// ResetPassword sets a new password for the account the token belongs to.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.simpleCall(ctx, http.MethodPut, "/auth/reset-password", map[string]string{
		"token":       token,
		"newPassword": newPassword,
	})
}

// Probe hits the health endpoint of an explicit target base URL. The monitor
// passes scheme-flipped candidates here, so the target is a parameter rather
// than the configured base URL.
func (c *Client) Probe(ctx context.Context, target string) error {
	url := strings.TrimRight(target, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return &domain.BackendError{Status: resp.StatusCode, Class: domain.ErrBackendUnavailable}
	}
	return nil
}

// simpleCall forwards a request and reduces the response to nil or a
// classified error carrying the backend's message.
func (c *Client) simpleCall(ctx context.Context, method, path string, body any) error {
	env, status, err := c.doJSON(ctx, method, path, "", body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status, env.Message)
	}
	if !env.Success {
		return &domain.BackendError{Status: status, Message: env.Message}
	}
	return nil
}

// doJSON executes one backend call and decodes the envelope. Transport
// failures (refused, timeout, DNS) classify as ErrBackendUnavailable; a
// response that arrives but does not decode yields an empty envelope so the
// caller can still branch on the status code.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body any) (envelope, int, error) {
	var env envelope

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return env, 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return env, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("backend call failed")
		return env, 0, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		env = envelope{}
	}
	return env, resp.StatusCode, nil
}

// classifyLoginStatus maps a login response status to the taxonomy: a 401 is
// the one place that means "wrong email/password".
func classifyLoginStatus(status int, message string) error {
	if status == http.StatusUnauthorized {
		return &domain.BackendError{Status: status, Message: message, Class: domain.ErrInvalidCredentials}
	}
	return classifyStatus(status, message)
}

// classifyStatus maps non-2xx statuses outside the login special case.
// Gateway errors mean the dependency is unreachable, not that the caller did
// anything wrong.
func classifyStatus(status int, message string) error {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &domain.BackendError{Status: status, Message: message, Class: domain.ErrBackendUnavailable}
	}
	return &domain.BackendError{Status: status, Message: message}
}
