// Package airport talks to the Amadeus-style airport lookup API. The
// OAuth token lives in an injected TTL cache rather than a package
// global, so every process shares one token without hidden state.
package airport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fbtrip/skyfare/config"
)

const tokenCacheName = "amadeus"

// Token expiry is shaved by this margin so a token never dies mid-request.
const expiryMargin = 300 * time.Second

type TokenCache interface {
	GetToken(ctx context.Context, name string) (string, error)
	SetToken(ctx context.Context, name, token string, ttl time.Duration) error
}

type Client struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	cache        TokenCache
}

func NewClient(cfg config.AirportConfig, cache TokenCache) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		cache:        cache,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a valid access token, fetching a fresh one only when
// the cached token has expired.
func (c *Client) Token(ctx context.Context) (string, error) {
	if cached, err := c.cache.GetToken(ctx, tokenCacheName); err == nil && cached != "" {
		return cached, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch airport token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch airport token: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	ttl := time.Duration(tr.ExpiresIn)*time.Second - expiryMargin
	if ttl > 0 {
		_ = c.cache.SetToken(ctx, tokenCacheName, tr.AccessToken, ttl)
	}
	return tr.AccessToken, nil
}
