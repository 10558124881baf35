package vod

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldObservationLog/NeuroTools/testutil"
	"github.com/WorldObservationLog/NeuroTools/twitchapi"
)

func TestParseTwitchDurationEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty string", "", 0},
		{"hours only", "2h", 7200},
		{"minutes only", "45m", 2700},
		{"seconds only", "30s", 30},
		{"all components", "1h2m3s", 3723},
		{"zero values", "0h0m0s", 0},
		{"no units", "123", 0},
		{"reversed order", "3s2m1h", 3723},
		{"with spaces", "1h 2m 3s", 0},
		{"fractional", "1.5m", 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTwitchDuration(tt.input))
		})
	}
}

type fakeLister struct {
	userID string
	pages  [][]twitchapi.VideoMeta
	afters []string
	firsts []int
}

func (f *fakeLister) GetUserID(_ context.Context, login string) (string, error) {
	if login != "neuro" {
		return "", twitchapi.ErrUserNotFound
	}
	return f.userID, nil
}

func (f *fakeLister) ListVideos(_ context.Context, userID, after string, first int) ([]twitchapi.VideoMeta, string, error) {
	if userID != f.userID {
		return nil, "", fmt.Errorf("unexpected user %q", userID)
	}
	f.afters = append(f.afters, after)
	f.firsts = append(f.firsts, first)
	i := 0
	if after != "" {
		fmt.Sscanf(after, "page%d", &i) //nolint:errcheck
	}
	cursor := ""
	if i+1 < len(f.pages) {
		cursor = fmt.Sprintf("page%d", i+1)
	}
	return f.pages[i], cursor, nil
}

func video(id string, created time.Time) twitchapi.VideoMeta {
	return twitchapi.VideoMeta{ID: id, Title: "stream " + id, Duration: "1h0m5s", CreatedAt: created.Format(time.RFC3339)}
}

func TestListChannelVideos(t *testing.T) {
	old := catalogPageDelay
	catalogPageDelay = 0
	t.Cleanup(func() { catalogPageDelay = old })

	now := time.Now().UTC().Truncate(time.Second)
	lister := &fakeLister{userID: "42", pages: [][]twitchapi.VideoMeta{
		{video("3", now.Add(-1*time.Hour)), video("2", now.Add(-48*time.Hour))},
		{video("1", now.Add(-30*24*time.Hour))},
	}}

	t.Run("all pages", func(t *testing.T) {
		lister.afters = nil
		got, err := ListChannelVideos(context.Background(), lister, "neuro", 0, 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "3", got[0].ID)
		assert.Equal(t, 3605, got[0].Duration)
		assert.True(t, got[0].Date.Equal(now.Add(-time.Hour)), "date = %v", got[0].Date)
		assert.Equal(t, []string{"", "page1"}, lister.afters)
	})

	t.Run("max count", func(t *testing.T) {
		lister.firsts = nil
		got, err := ListChannelVideos(context.Background(), lister, "neuro", 1, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "3", got[0].ID)
		require.NotEmpty(t, lister.firsts)
		assert.Equal(t, 1, lister.firsts[0], "page size")
	})

	t.Run("max age", func(t *testing.T) {
		got, err := ListChannelVideos(context.Background(), lister, "neuro", 0, 7*24*time.Hour)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := ListChannelVideos(context.Background(), lister, "nobody", 0, 0)
		assert.ErrorIs(t, err, twitchapi.ErrUserNotFound)
	})
}

func TestListChannelVideosHelix(t *testing.T) {
	srv := testutil.NewMockTwitchServer(t)
	srv.MockOAuthTokenResponse("tok", 3600)
	srv.MockUserResponse("42", "neuro")
	srv.MockVideosResponse([]map[string]string{
		{"id": "100", "title": "karaoke", "duration": "2h30m", "created_at": "2024-02-01T20:00:00Z"},
		{"id": "99", "title": "dev stream", "duration": "45m10s", "created_at": "2024-01-30T20:00:00Z"},
	}, "")
	hc := &twitchapi.HelixClient{
		AppTokenSource: &twitchapi.TokenSource{ClientID: "id", ClientSecret: "secret", TokenURL: srv.TokenURL()},
		ClientID:       "id",
		BaseURL:        srv.HelixURL(),
	}
	got, err := ListChannelVideos(context.Background(), hc, "neuro", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "100", got[0].ID)
	assert.Equal(t, 9000, got[0].Duration)
	assert.Equal(t, 2710, got[1].Duration)
}
