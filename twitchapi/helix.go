// Package twitchapi is a small Helix client authenticated with an app access
// token. The catalog uses it to resolve a channel and list its archive VODs.
package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/WorldObservationLog/NeuroTools/retry"
)

// DefaultBaseURL is the Helix API root.
const DefaultBaseURL = "https://api.twitch.tv/helix"

// ErrUserNotFound is returned by GetUserID for an unknown login.
var ErrUserNotFound = errors.New("user not found")

// HelixClient lists channel archives.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
	BaseURL        string
	// Retry covers 429 and 5xx answers. Zero values mean 3 attempts, 500ms apart.
	Retry retry.Policy
}

// APIError is a non-2xx answer from Helix or the token endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitch api status %d: %s", e.StatusCode, e.Body)
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) baseURL() string {
	if hc.BaseURL != "" {
		return hc.BaseURL
	}
	return DefaultBaseURL
}

func (hc *HelixClient) retryPolicy() retry.Policy {
	p := hc.Retry
	if p.Attempts == 0 {
		p.Attempts = 3
	}
	if p.Delay == 0 {
		p.Delay = 500 * time.Millisecond
	}
	return p
}

// get performs an authenticated GET and decodes the JSON body into out.
// A 401 invalidates the cached app token and is retried once.
func (hc *HelixClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if hc.AppTokenSource == nil {
		return errors.New("helix: no app token source")
	}
	unauthorized := 0
	p := hc.retryPolicy()
	p.Retryable = func(err error) bool {
		var ae *APIError
		if !errors.As(err, &ae) {
			return false
		}
		if ae.StatusCode == http.StatusUnauthorized {
			return unauthorized == 1
		}
		return ae.StatusCode == http.StatusTooManyRequests || ae.StatusCode >= 500
	}
	_, err := retry.Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		err := hc.do(ctx, path, q, out)
		var ae *APIError
		if errors.As(err, &ae) && ae.StatusCode == http.StatusUnauthorized {
			unauthorized++
			if unauthorized == 1 {
				hc.AppTokenSource.Invalidate()
				slog.Warn("helix token rejected; refreshing", slog.String("component", "twitchapi"), slog.String("path", path))
			}
		}
		return struct{}{}, err
	})
	return err
}

func (hc *HelixClient) do(ctx context.Context, path string, q url.Values, out any) error {
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.baseURL()+path, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := hc.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetUserID resolves a login name to its user ID.
func (hc *HelixClient) GetUserID(ctx context.Context, login string) (string, error) {
	if login == "" {
		return "", fmt.Errorf("login empty")
	}
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := hc.get(ctx, "/users", url.Values{"login": {login}}, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}
	return body.Data[0].ID, nil
}

// VideoMeta is one archive video as listed by Helix. Duration uses the
// Helix form ("3h15m42s").
type VideoMeta struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	CreatedAt string `json:"created_at"`
}

// ListVideos lists archive videos for a user. The returned cursor is empty
// on the last page.
func (hc *HelixClient) ListVideos(ctx context.Context, userID, after string, first int) ([]VideoMeta, string, error) {
	if userID == "" {
		return nil, "", fmt.Errorf("userID empty")
	}
	if first <= 0 {
		first = 20
	}
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("type", "archive")
	q.Set("first", strconv.Itoa(first))
	if after != "" {
		q.Set("after", after)
	}
	var body struct {
		Data       []VideoMeta `json:"data"`
		Pagination struct {
			Cursor string `json:"cursor"`
		} `json:"pagination"`
	}
	if err := hc.get(ctx, "/videos", q, &body); err != nil {
		return nil, "", err
	}
	if body.Data == nil {
		body.Data = []VideoMeta{}
	}
	return body.Data, body.Pagination.Cursor, nil
}
