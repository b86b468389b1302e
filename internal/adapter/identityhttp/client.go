// Package identityhttp provides an HTTP client for a remote identity API.
// It implements the identity provider port so the session manager can run
// against an identity service deployed elsewhere.
package identityhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tokyoflo/platform/internal/domain"
	"github.com/tokyoflo/platform/internal/port/identity"
)

// Client talks to the identity API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new identity API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges credentials for a token and hydrated account. The response
// body is validated before use: a 2xx reply missing the token or account
// fails with domain.ErrMalformedResponse, and an account without a tenant
// fails with domain.ErrMissingTenantLinkage.
func (c *Client) Login(ctx context.Context, email, password string) (*identity.LoginResult, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal login: %w", err)
	}

	data, status, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", body)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if status == http.StatusUnauthorized {
		return nil, domain.ErrInvalidCredentials
	}
	if status >= 400 {
		return nil, fmt.Errorf("login: identity API error %d: %s", status, string(data))
	}

	var result identity.LoginResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("login: %w", domain.ErrMalformedResponse)
	}
	if result.Token == "" || result.Account.ID == "" {
		return nil, domain.ErrMalformedResponse
	}
	if result.Account.TenantID == "" {
		return nil, domain.ErrMissingTenantLinkage
	}
	return &result, nil
}

// CurrentUser fetches the account a token belongs to.
func (c *Client) CurrentUser(ctx context.Context, token string) (*identity.Account, error) {
	data, status, err := c.doRequest(ctx, http.MethodGet, "/api/v1/auth/me", token, nil)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if status == http.StatusUnauthorized {
		return nil, domain.ErrUnauthenticated
	}
	if status >= 400 {
		return nil, fmt.Errorf("current user: identity API error %d: %s", status, string(data))
	}

	var account identity.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("current user: %w", domain.ErrMalformedResponse)
	}
	if account.ID == "" {
		return nil, domain.ErrMalformedResponse
	}
	return &account, nil
}

// Logout invalidates the token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	data, status, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if status >= 400 && status != http.StatusUnauthorized {
		return fmt.Errorf("logout: identity API error %d: %s", status, string(data))
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body []byte) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return data, resp.StatusCode, nil
}
