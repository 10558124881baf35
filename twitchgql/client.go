// Package twitchgql talks to the Twitch GraphQL endpoint used by the web
// player. It resolves a VOD's anchor timestamp and fetches pages of the VOD
// comment feed, normalizing raw entries into chat.CommentRecord values.
//
// All queries are persisted queries addressed by hash; the hashes are
// configuration and are never interpreted here.
package twitchgql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/WorldObservationLog/NeuroTools/retry"
)

// DefaultEndpoint is the public Twitch GQL endpoint.
const DefaultEndpoint = "https://gql.twitch.tv/gql"

// DefaultClientID is the client id of the Twitch web player.
const DefaultClientID = "kd1unb4b3q4t58fwlpcbzcbnm76a8fp"

const tracerName = "twitchgql"

// Client issues persisted queries. It is safe for sequential reuse; nothing
// on it is mutated by a call.
type Client struct {
	Endpoint   string
	ClientID   string
	HTTPClient *http.Client
	Queries    Queries
	// Timeout bounds a single request. 0 relies on HTTPClient alone.
	Timeout time.Duration
	// Retry applies to comment page fetches only. A nil Retryable defaults to IsTransient.
	Retry retry.Policy
	// Limiter, when set, paces every request.
	Limiter *rate.Limiter
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return DefaultEndpoint
}

func (c *Client) clientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return DefaultClientID
}

func (c *Client) queries() Queries { return c.Queries.withDefaults() }

// envelope is one element of the batch response array.
type envelope[T any] struct {
	Data   T `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// query POSTs req as a one-element batch and decodes the first element's data.
func query[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T
	body, err := json.Marshal([]Request{req})
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", req.OperationName, err)
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return zero, err
		}
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	httpReq.Header.Set("Client-ID", c.clientID())
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http().Do(httpReq)
	if err != nil {
		return zero, fmt.Errorf("gql %s: %w", req.OperationName, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return zero, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	var batch []envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		if IsTransient(err) {
			return zero, fmt.Errorf("gql %s: read body: %w", req.OperationName, err)
		}
		return zero, malformed(req.OperationName, "decode: %v", err)
	}
	if len(batch) == 0 {
		return zero, malformed(req.OperationName, "empty batch response")
	}
	if errs := batch[0].Errors; len(errs) > 0 {
		ge := &GraphQLError{Operation: req.OperationName}
		for _, e := range errs {
			ge.Messages = append(ge.Messages, e.Message)
		}
		return zero, ge
	}
	return batch[0].Data, nil
}
