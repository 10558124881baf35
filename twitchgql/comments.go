package twitchgql

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/retry"
	"github.com/WorldObservationLog/NeuroTools/telemetry"
)

// CommentsData is the data payload of a comment page response.
type CommentsData struct {
	Video *struct {
		Comments *struct {
			Edges    []RawEdge `json:"edges"`
			PageInfo *struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
		} `json:"comments"`
	} `json:"video"`
}

// ParseCommentsPage validates a decoded page and normalizes its edges.
// An empty edge list is a schema mismatch and therefore an error.
func ParseCommentsPage(data CommentsData, anchor time.Time) (chat.PageResult, int, error) {
	if data.Video == nil {
		return chat.PageResult{}, 0, malformed(OpVideoComments, "video is null")
	}
	comments := data.Video.Comments
	if comments == nil {
		return chat.PageResult{}, 0, malformed(OpVideoComments, "comments missing")
	}
	if comments.PageInfo == nil {
		return chat.PageResult{}, 0, malformed(OpVideoComments, "pageInfo missing")
	}
	if len(comments.Edges) == 0 {
		return chat.PageResult{}, 0, malformed(OpVideoComments, "empty edge list")
	}
	records, skipped, err := NormalizeEdges(comments.Edges, anchor)
	if err != nil {
		return chat.PageResult{}, 0, err
	}
	last := comments.Edges[len(comments.Edges)-1]
	next := last.Cursor
	if len(records) > 0 {
		next = records[len(records)-1].Cursor
	}
	return chat.PageResult{
		Records:               records,
		HasMore:               comments.PageInfo.HasNextPage,
		LastPageOffsetSeconds: last.Node.ContentOffsetSeconds,
		NextCursor:            next,
	}, skipped, nil
}

// FetchByOffset fetches the page starting at offsetSeconds into the VOD.
func (c *Client) FetchByOffset(ctx context.Context, videoID string, offsetSeconds int, anchor time.Time) (chat.PageResult, error) {
	return c.fetchPage(ctx, videoID, c.queries().CommentsByOffsetRequest(videoID, offsetSeconds), anchor,
		attribute.Int("offset_seconds", offsetSeconds))
}

// FetchByCursor fetches the page following cursor.
func (c *Client) FetchByCursor(ctx context.Context, videoID, cursor string, anchor time.Time) (chat.PageResult, error) {
	return c.fetchPage(ctx, videoID, c.queries().CommentsByCursorRequest(videoID, cursor), anchor,
		attribute.Bool("by_cursor", true))
}

func (c *Client) retryPolicy() retry.Policy {
	p := c.Retry
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	user := p.OnRetry
	p.OnRetry = func(err error, attempt uint) {
		telemetry.Inc(telemetry.PageFetchRetries)
		slog.Warn("page fetch timed out; retrying",
			slog.String("component", "twitchgql"),
			slog.Uint64("attempt", uint64(attempt)),
			slog.Any("err", err))
		if user != nil {
			user(err, attempt)
		}
	}
	return p
}

func (c *Client) fetchPage(ctx context.Context, videoID string, req Request, anchor time.Time, attrs ...attribute.KeyValue) (page chat.PageResult, err error) {
	attrs = append(attrs, attribute.String("video_id", videoID))
	ctx, span := telemetry.StartSpan(ctx, tracerName, "twitchgql.fetch_page", attrs...)
	defer func() { telemetry.EndSpan(span, err) }()

	start := time.Now()
	data, err := retry.Do(ctx, c.retryPolicy(), func(ctx context.Context) (CommentsData, error) {
		return query[CommentsData](ctx, c, req)
	})
	telemetry.Observe(telemetry.PageFetchDuration, time.Since(start))
	if err != nil {
		telemetry.Inc(telemetry.PageFetchFailures)
		return chat.PageResult{}, err
	}
	page, skipped, err := ParseCommentsPage(data, anchor)
	if err != nil {
		telemetry.Inc(telemetry.PageFetchFailures)
		return chat.PageResult{}, err
	}
	telemetry.Inc(telemetry.PagesFetched)
	telemetry.Add(telemetry.CommentsSkipped, skipped)
	span.SetAttributes(attribute.Int("records", len(page.Records)), attribute.Int("skipped", skipped), attribute.Bool("has_more", page.HasMore))
	return page, nil
}
