package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Identity is the authenticated principal behind an access token.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type loginResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	MagicLink string `json:"magicLink,omitempty"`
}

// RequestMagicLink asks the backend to send a sign-in link to email. In
// development mode the link is also returned.
func (c *Client) RequestMagicLink(ctx context.Context, email string) (string, error) {
	var resp loginResponse
	err := c.do(ctx, tableTimeout, http.MethodPost, "/api/auth/login", map[string]string{"email": email}, &resp)
	if err != nil {
		return "", err
	}
	return resp.MagicLink, nil
}

// ExchangeMagicLink follows a magic link without chasing the redirect and
// returns the access token the backend hands back.
func (c *Client) ExchangeMagicLink(ctx context.Context, link string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, tableTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	noRedirect := *c.http
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "invalid or expired link"}
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return "", fmt.Errorf("invalid redirect: %w", err)
	}
	token := loc.Query().Get("token")
	if token == "" {
		return "", errors.New("redirect carried no token")
	}
	return token, nil
}

// Verify resolves the client's access token to an identity.
func (c *Client) Verify(ctx context.Context) (Identity, error) {
	var id Identity
	err := c.do(ctx, tableTimeout, http.MethodGet, "/api/auth/verify", nil, &id)
	return id, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, tableTimeout, http.MethodPost, "/api/auth/logout", nil, nil)
}
