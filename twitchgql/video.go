package twitchgql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/WorldObservationLog/NeuroTools/telemetry"
)

// VideoMeta is what VideoMetadata resolves for a VOD.
type VideoMeta struct {
	ChannelLogin  string
	CreatedAt     time.Time
	LengthSeconds int
}

type channelVideoCoreData struct {
	Video *struct {
		Owner *struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"video"`
}

type videoMetadataData struct {
	Video *struct {
		CreatedAt     string `json:"createdAt"`
		LengthSeconds int    `json:"lengthSeconds"`
	} `json:"video"`
}

// ChannelLogin resolves the login of the channel that owns videoID.
func (c *Client) ChannelLogin(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("videoID empty")
	}
	data, err := query[channelVideoCoreData](ctx, c, c.queries().ChannelVideoCoreRequest(videoID))
	if err != nil {
		return "", err
	}
	if data.Video == nil {
		return "", fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}
	if data.Video.Owner == nil || data.Video.Owner.Login == "" {
		return "", fmt.Errorf("owner of video %s: %w", videoID, ErrNotFound)
	}
	return data.Video.Owner.Login, nil
}

// VideoMetadata resolves the owner, creation time and length of videoID.
// The two lookups are dependent and run in order. Nothing here is retried.
func (c *Client) VideoMetadata(ctx context.Context, videoID string) (meta VideoMeta, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "twitchgql.video_metadata", attribute.String("video_id", videoID))
	defer func() { telemetry.EndSpan(span, err) }()

	login, err := c.ChannelLogin(ctx, videoID)
	if err != nil {
		return VideoMeta{}, err
	}
	data, err := query[videoMetadataData](ctx, c, c.queries().VideoMetadataRequest(login, videoID))
	if err != nil {
		return VideoMeta{}, err
	}
	if data.Video == nil || data.Video.CreatedAt == "" {
		return VideoMeta{}, fmt.Errorf("metadata of video %s: %w", videoID, ErrNotFound)
	}
	created, err := time.Parse(time.RFC3339Nano, data.Video.CreatedAt)
	if err != nil {
		return VideoMeta{}, malformed(OpVideoMetadata, "createdAt %q: %v", data.Video.CreatedAt, err)
	}
	slog.Debug("video metadata resolved",
		slog.String("component", "twitchgql"),
		slog.String("video_id", videoID),
		slog.String("channel", login),
		slog.Time("created_at", created),
		slog.Int("length_seconds", data.Video.LengthSeconds))
	return VideoMeta{ChannelLogin: login, CreatedAt: created, LengthSeconds: data.Video.LengthSeconds}, nil
}

// ResolveAnchor returns the VOD's creation time, the basis of every offset.
func (c *Client) ResolveAnchor(ctx context.Context, videoID string) (time.Time, error) {
	meta, err := c.VideoMetadata(ctx, videoID)
	if err != nil {
		return time.Time{}, err
	}
	return meta.CreatedAt, nil
}

// VideoLength returns the VOD duration in seconds.
func (c *Client) VideoLength(ctx context.Context, videoID string) (int, error) {
	meta, err := c.VideoMetadata(ctx, videoID)
	if err != nil {
		return 0, err
	}
	return meta.LengthSeconds, nil
}
