package twitchapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the Twitch OAuth token endpoint.
const DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

// expiryBuffer renews tokens this long before Twitch would reject them.
const expiryBuffer = time.Minute

// ErrMissingCredentials is returned when ClientID or ClientSecret is empty.
var ErrMissingCredentials = errors.New("missing client id/secret for twitch app token")

// TokenSource hands out a Twitch app access (client credentials) token,
// cached until expiryBuffer before it expires. It is safe for concurrent use.
type TokenSource struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	TokenURL     string

	mu  sync.Mutex
	src oauth2.TokenSource
}

func (ts *TokenSource) tokenURL() string {
	if ts.TokenURL != "" {
		return ts.TokenURL
	}
	return DefaultTokenURL
}

// source returns the caching oauth2 source, building it on first use or
// after Invalidate.
func (ts *TokenSource) source() (oauth2.TokenSource, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.src != nil {
		return ts.src, nil
	}
	if ts.ClientID == "" || ts.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	cc := &clientcredentials.Config{
		ClientID:     ts.ClientID,
		ClientSecret: ts.ClientSecret,
		TokenURL:     ts.tokenURL(),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	// The fetch context outlives any single Get, so it only carries the client.
	ctx := context.Background()
	if ts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, ts.HTTPClient)
	}
	ts.src = oauth2.ReuseTokenSourceWithExpiry(nil, cc.TokenSource(ctx), expiryBuffer)
	return ts.src, nil
}

// Get returns a valid (fresh or cached) app access token. A non-2xx answer
// from the token endpoint is reported as *APIError.
func (ts *TokenSource) Get(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := ts.source()
	if err != nil {
		return "", err
	}
	tok, err := src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", &APIError{StatusCode: re.Response.StatusCode, Body: string(re.Body)}
		}
		return "", fmt.Errorf("twitch token request: %w", err)
	}
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next Get fetches a new one.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.src = nil
}
