package vod

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/WorldObservationLog/NeuroTools/twitchapi"
)

// VideoLister is the Helix surface used by the catalog.
type VideoLister interface {
	GetUserID(ctx context.Context, login string) (string, error)
	ListVideos(ctx context.Context, userID, after string, first int) ([]twitchapi.VideoMeta, string, error)
}

// catalogPageDelay paces Helix page requests.
var catalogPageDelay = 1200 * time.Millisecond

// ListChannelVideos pages through a channel's archive VODs, newest first, up
// to maxCount entries (0 = all) and no older than maxAge (0 = any age).
func ListChannelVideos(ctx context.Context, hc VideoLister, channel string, maxCount int, maxAge time.Duration) ([]VOD, error) {
	if channel == "" {
		return nil, fmt.Errorf("channel empty")
	}
	userID, err := hc.GetUserID(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("resolve channel %s: %w", channel, err)
	}
	cutoff := time.Time{}
	if maxAge > 0 {
		cutoff = time.Now().Add(-maxAge)
	}
	pageSize := 100
	if maxCount > 0 && maxCount < pageSize {
		pageSize = maxCount
	}
	after := ""
	collected := []VOD{}
	for maxCount == 0 || len(collected) < maxCount {
		videos, cursor, err := hc.ListVideos(ctx, userID, after, pageSize)
		if err != nil {
			return nil, err
		}
		if len(videos) == 0 {
			break
		}
		for _, v := range videos {
			created, _ := time.Parse(time.RFC3339, v.CreatedAt)
			vodObj := VOD{ID: v.ID, Title: v.Title, Date: created, Duration: parseTwitchDuration(v.Duration)}
			if !cutoff.IsZero() && vodObj.Date.Before(cutoff) {
				return collected, nil
			}
			collected = append(collected, vodObj)
			if maxCount > 0 && len(collected) >= maxCount {
				break
			}
		}
		if cursor == "" || (maxCount > 0 && len(collected) >= maxCount) {
			break
		}
		after = cursor
		select {
		case <-ctx.Done():
			return collected, ctx.Err()
		case <-time.After(catalogPageDelay):
		}
	}
	slog.Debug("catalog listed", slog.String("component", "catalog"), slog.String("channel", channel), slog.Int("count", len(collected)))
	return collected, nil
}

// parseTwitchDuration parses Helix durations such as "3h15m42s" into
// seconds. Unparseable values yield 0.
func parseTwitchDuration(s string) int {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return int(d / time.Second)
}
