package hrapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
)

const TokenPath = "/api-token-auth/"

var ErrAuthentication = errors.New("hr api authentication failed")

type tokenResponse struct {
	Token *string `json:"token"`
}

// Token exchanges the configured credentials for a bearer token. The token is
// memoized for the lifetime of the client and never refreshed.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("subdomain", c.subdomain)
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(TokenPath, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "new token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(ctx, req)
	if err != nil {
		return "", errors.Wrap(ErrAuthentication, err.Error())
	}
	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.Wrap(ErrAuthentication, "token response is not a json object")
	}
	if out.Token == nil || strings.TrimSpace(*out.Token) == "" {
		return "", errors.Wrap(ErrAuthentication, "token response has no token field")
	}
	c.token = strings.TrimSpace(*out.Token)
	return c.token, nil
}
