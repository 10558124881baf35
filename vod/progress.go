package vod

import (
	"log/slog"
	"sync"
	"time"

	"github.com/WorldObservationLog/NeuroTools/chat"
)

// LogProgress returns a ProgressFunc that logs at most once per interval,
// plus a final line when done reaches total.
func LogProgress(logger *slog.Logger, videoID string, interval time.Duration) ProgressFunc {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func(done, total float64) {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now()
		finished := total > 0 && done >= total
		if !finished && now.Sub(last) < interval {
			return
		}
		last = now
		pct := 0.0
		if total > 0 {
			pct = done / total * 100
		}
		logger.Info("retrieval progress",
			slog.String("component", "retriever"),
			slog.String("video_id", videoID),
			slog.String("position", chat.FormatClock(done)),
			slog.String("total", chat.FormatClock(total)),
			slog.Float64("percent", pct))
	}
}
