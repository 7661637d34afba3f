package hubapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// LoginResponse is the backend's credential-exchange response.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserRole    string `json:"user_role"`
}

// Login exchanges credentials for a token. A 401 from this endpoint is
// reported as ErrInvalidCredentials and never triggers the expiry handler:
// a wrong password must not destroy an existing session.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}

	var out LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &out, requestOptions{
		skipAuth:      true,
		loginEndpoint: true,
	})
	if err != nil {
		return LoginResponse{}, errors.Wrap(err, "[Client.Login]")
	}
	return out, nil
}

// Authenticate adapts Login to the session store's Authenticator contract.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, string, error) {
	resp, err := c.Login(ctx, username, password)
	if err != nil {
		return "", "", err
	}
	return resp.AccessToken, resp.UserRole, nil
}

// Me returns the backend's view of the current user.
func (c *Client) Me(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/api/me", nil, &out, requestOptions{}); err != nil {
		return nil, errors.Wrap(err, "[Client.Me]")
	}
	return out, nil
}
