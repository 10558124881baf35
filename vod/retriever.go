package vod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/telemetry"
)

// PageFetcher fetches single pages of a VOD's comment feed.
type PageFetcher interface {
	FetchByOffset(ctx context.Context, videoID string, offsetSeconds int, anchor time.Time) (chat.PageResult, error)
	FetchByCursor(ctx context.Context, videoID, cursor string, anchor time.Time) (chat.PageResult, error)
}

// ProgressFunc observes retrieval progress in seconds of feed covered.
// It never influences results.
type ProgressFunc func(done, total float64)

// ErrPageLimit is returned when Retriever.MaxPages is reached before the
// feed or the window was exhausted.
var ErrPageLimit = errors.New("page limit reached")

// ErrMissingCursor is returned when the feed reports more pages but gives no
// cursor to continue from.
var ErrMissingCursor = errors.New("feed has more pages but no cursor")

type retrieveState int

const (
	stateStart retrieveState = iota
	stateFetchByOffset
	stateFetchByCursor
	stateDone
)

func (s retrieveState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateFetchByOffset:
		return "fetch_by_offset"
	case stateFetchByCursor:
		return "fetch_by_cursor"
	default:
		return "done"
	}
}

// Retriever walks the comment feed of one video. A single retrieval is
// strictly sequential: each page request depends on the previous page.
type Retriever struct {
	Fetcher PageFetcher
	// MaxPages bounds the number of page requests. 0 means unlimited.
	MaxPages int
	Progress ProgressFunc
}

func (r *Retriever) report(done, total float64) {
	if r.Progress != nil {
		r.Progress(done, total)
	}
}

// walk drives the state machine. consume is called for each page and
// returns true once retrieval must stop regardless of HasMore.
func (r *Retriever) walk(ctx context.Context, videoID string, startOffset int, anchor time.Time, consume func(chat.PageResult) bool) error {
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "retriever"), slog.String("video_id", videoID))
	st := stateStart
	cursor := ""
	pages := 0
	for st != stateDone {
		if st == stateStart {
			st = stateFetchByOffset
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.MaxPages > 0 && pages >= r.MaxPages {
			return fmt.Errorf("%w after %d pages", ErrPageLimit, pages)
		}
		var (
			page chat.PageResult
			err  error
		)
		if st == stateFetchByOffset {
			page, err = r.Fetcher.FetchByOffset(ctx, videoID, startOffset, anchor)
		} else {
			page, err = r.Fetcher.FetchByCursor(ctx, videoID, cursor, anchor)
		}
		if err != nil {
			return fmt.Errorf("%s page %d: %w", st, pages+1, err)
		}
		pages++
		stop := consume(page)
		log.Debug("page consumed",
			slog.String("state", st.String()),
			slog.Int("page", pages),
			slog.Int("records", len(page.Records)),
			slog.Bool("has_more", page.HasMore),
			slog.Bool("window_exhausted", stop))
		switch {
		case stop || !page.HasMore:
			st = stateDone
		case page.NextCursor == "":
			return ErrMissingCursor
		default:
			cursor = page.NextCursor
			st = stateFetchByCursor
		}
	}
	return nil
}

// RetrieveWindow returns every record whose offset lies in w, in feed order.
// Retrieval starts at w.StartSeconds truncated to whole seconds and ends at
// the first record past w.EndSeconds, discarding it and the rest of its page
// even when the feed has more pages. Records before the window start, which
// the first page can contain, are skipped.
func (r *Retriever) RetrieveWindow(ctx context.Context, videoID string, anchor time.Time, w chat.Window) ([]chat.CommentRecord, error) {
	records := make([]chat.CommentRecord, 0)
	total := w.Length()
	err := r.walk(ctx, videoID, int(w.StartSeconds), anchor, func(page chat.PageResult) bool {
		for _, rec := range page.Records {
			if rec.OffsetSeconds > w.EndSeconds {
				return true
			}
			if rec.OffsetSeconds < w.StartSeconds {
				continue
			}
			records = append(records, rec)
			telemetry.Inc(telemetry.CommentsRetained)
			r.report(math.Min(rec.OffsetSeconds-w.StartSeconds, total), total)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// RetrieveAll returns the whole feed from offset 0 until the feed reports no
// more pages. lengthSeconds is only the progress total.
func (r *Retriever) RetrieveAll(ctx context.Context, videoID string, anchor time.Time, lengthSeconds float64) ([]chat.CommentRecord, error) {
	records := make([]chat.CommentRecord, 0)
	err := r.walk(ctx, videoID, 0, anchor, func(page chat.PageResult) bool {
		records = append(records, page.Records...)
		telemetry.Add(telemetry.CommentsRetained, len(page.Records))
		done := page.LastPageOffsetSeconds
		if lengthSeconds > 0 {
			done = math.Min(done, lengthSeconds)
		}
		r.report(done, lengthSeconds)
		return false
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
