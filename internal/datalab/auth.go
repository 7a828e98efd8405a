package datalab

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Login authenticates against the auth service and stores the returned
// session token on the client. The token is also returned for callers that
// want to persist it.
func Login(ctx context.Context, c *Client, username, password string) (string, error) {
	params := url.Values{}
	params.Set("username", username)
	params.Set("password", password)

	token, err := c.getBody(ctx, c.authURL, "/login", params)
	if err != nil {
		return "", fmt.Errorf("login failed for %s: %w", username, err)
	}
	if token == "" || strings.Contains(strings.ToLower(token), "error") {
		return "", fmt.Errorf("login failed for %s: invalid credentials", username)
	}
	c.token = token

	ok, err := ValidToken(ctx, c, token)
	if err != nil {
		return "", err
	}
	if !ok {
		c.token = ""
		return "", fmt.Errorf("login failed for %s: token rejected, check username/password", username)
	}
	return token, nil
}

// ValidToken asks the auth service whether a token is still good.
func ValidToken(ctx context.Context, c *Client, token string) (bool, error) {
	params := url.Values{}
	params.Set("token", token)
	body, err := c.getBody(ctx, c.authURL, "/isValidToken", params)
	if err != nil {
		return false, fmt.Errorf("token check: %w", err)
	}
	return strings.EqualFold(body, "true"), nil
}

// Logout invalidates the client's session token on the auth service.
// Best-effort: a failure here leaves the token cached server-side but does
// not affect the caller.
func Logout(ctx context.Context, c *Client) error {
	if c.token == "" {
		return nil
	}
	params := url.Values{}
	params.Set("token", c.token)
	_, err := c.getBody(ctx, c.authURL, "/logout", params)
	c.token = ""
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
