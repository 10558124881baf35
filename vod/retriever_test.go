package vod

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldObservationLog/NeuroTools/chat"
)

// fakeFetcher serves pages[0] to the offset request and pages[i+1] to the
// cursor "p<i>". It records every call.
type fakeFetcher struct {
	pages   []chat.PageResult
	offsets []int
	cursors []string
	err     error
	errAt   int // 1-based call number that fails; 0 = never
	calls   int
}

func (f *fakeFetcher) FetchByOffset(_ context.Context, _ string, offset int, _ time.Time) (chat.PageResult, error) {
	f.calls++
	f.offsets = append(f.offsets, offset)
	if f.errAt == f.calls {
		return chat.PageResult{}, f.err
	}
	return f.pages[0], nil
}

func (f *fakeFetcher) FetchByCursor(_ context.Context, _ string, cursor string, _ time.Time) (chat.PageResult, error) {
	f.calls++
	f.cursors = append(f.cursors, cursor)
	if f.errAt == f.calls {
		return chat.PageResult{}, f.err
	}
	var i int
	if _, err := fmt.Sscanf(cursor, "p%d", &i); err != nil || i+1 >= len(f.pages) {
		return chat.PageResult{}, fmt.Errorf("unexpected cursor %q", cursor)
	}
	return f.pages[i+1], nil
}

// page builds page i with records at the given offsets. The next cursor is
// "p<i>".
func page(i int, hasMore bool, offsets ...float64) chat.PageResult {
	recs := make([]chat.CommentRecord, 0, len(offsets))
	for j, o := range offsets {
		recs = append(recs, chat.CommentRecord{ID: fmt.Sprintf("%d-%d", i, j), Cursor: fmt.Sprintf("p%d", i), OffsetSeconds: o})
	}
	last := 0.0
	if len(offsets) > 0 {
		last = offsets[len(offsets)-1]
	}
	return chat.PageResult{Records: recs, HasMore: hasMore, LastPageOffsetSeconds: last, NextCursor: fmt.Sprintf("p%d", i)}
}

func offsetsOf(recs []chat.CommentRecord) []float64 {
	out := make([]float64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.OffsetSeconds)
	}
	return out
}

func TestRetrieveWindow(t *testing.T) {
	tests := []struct {
		name        string
		pages       []chat.PageResult
		window      chat.Window
		want        []float64
		wantCalls   int
		wantOffsets []int
	}{
		{
			name:        "single page inside window",
			pages:       []chat.PageResult{page(0, false, 60, 70, 80)},
			window:      chat.Window{StartSeconds: 60, EndSeconds: 120},
			want:        []float64{60, 70, 80},
			wantCalls:   1,
			wantOffsets: []int{60},
		},
		{
			name:      "follows cursor until no more pages",
			pages:     []chat.PageResult{page(0, true, 60, 70), page(1, true, 80), page(2, false, 90)},
			window:    chat.Window{StartSeconds: 60, EndSeconds: 120},
			want:      []float64{60, 70, 80, 90},
			wantCalls: 3,
		},
		{
			name:      "stops at first record past end despite more pages",
			pages:     []chat.PageResult{page(0, true, 60, 70), page(1, true, 100, 121, 110), page(2, false, 115)},
			window:    chat.Window{StartSeconds: 60, EndSeconds: 120},
			want:      []float64{60, 70, 100},
			wantCalls: 2,
		},
		{
			name:      "end is inclusive",
			pages:     []chat.PageResult{page(0, true, 119.5, 120), page(1, false, 120.001)},
			window:    chat.Window{StartSeconds: 60, EndSeconds: 120},
			want:      []float64{119.5, 120},
			wantCalls: 2,
		},
		{
			name:        "records before start are skipped",
			pages:       []chat.PageResult{page(0, false, 59.2, 59.9, 60.5, 61)},
			window:      chat.Window{StartSeconds: 60.5, EndSeconds: 120},
			want:        []float64{60.5, 61},
			wantCalls:   1,
			wantOffsets: []int{60},
		},
		{
			name:      "first page already past the window",
			pages:     []chat.PageResult{page(0, true, 200, 210)},
			window:    chat.Window{StartSeconds: 60, EndSeconds: 120},
			want:      []float64{},
			wantCalls: 1,
		},
		{
			name:      "empty page with more continues from its cursor",
			pages:     []chat.PageResult{{HasMore: true, NextCursor: "p0"}, page(1, false, 65)},
			window:    chat.Window{StartSeconds: 60, EndSeconds: 120},
			want:      []float64{65},
			wantCalls: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{pages: tt.pages}
			r := &Retriever{Fetcher: f}
			got, err := r.RetrieveWindow(context.Background(), "v", time.Time{}, tt.window)
			require.NoError(t, err)
			assert.Equal(t, tt.want, offsetsOf(got))
			assert.Equal(t, tt.wantCalls, f.calls)
			if tt.wantOffsets != nil {
				assert.Equal(t, tt.wantOffsets, f.offsets, "offset requests")
			}
			for _, rec := range got {
				assert.True(t, tt.window.Contains(rec.OffsetSeconds), "record %s at %v outside window", rec.ID, rec.OffsetSeconds)
			}
		})
	}
}

func TestRetrieveWindowUsesLastRecordCursor(t *testing.T) {
	f := &fakeFetcher{pages: []chat.PageResult{page(0, true, 61), page(1, true, 62), page(2, false, 63)}}
	r := &Retriever{Fetcher: f}
	_, err := r.RetrieveWindow(context.Background(), "v", time.Time{}, chat.Window{StartSeconds: 60, EndSeconds: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"p0", "p1"}, f.cursors)
}

func TestRetrieveWindowFetchError(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{pages: []chat.PageResult{page(0, true, 61), page(1, false, 62)}, err: boom, errAt: 2}
	r := &Retriever{Fetcher: f}
	got, err := r.RetrieveWindow(context.Background(), "v", time.Time{}, chat.Window{StartSeconds: 60, EndSeconds: 100})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, got, "partial records returned")
}

func TestRetrieveWindowMissingCursor(t *testing.T) {
	f := &fakeFetcher{pages: []chat.PageResult{{Records: page(0, true, 61).Records, HasMore: true}}}
	r := &Retriever{Fetcher: f}
	_, err := r.RetrieveWindow(context.Background(), "v", time.Time{}, chat.Window{StartSeconds: 60, EndSeconds: 100})
	assert.ErrorIs(t, err, ErrMissingCursor)
}

func TestRetrieveMaxPages(t *testing.T) {
	f := &fakeFetcher{pages: []chat.PageResult{page(0, true, 61), page(1, true, 62), page(2, false, 63)}}
	r := &Retriever{Fetcher: f, MaxPages: 2}
	_, err := r.RetrieveWindow(context.Background(), "v", time.Time{}, chat.Window{StartSeconds: 60, EndSeconds: 100})
	require.ErrorIs(t, err, ErrPageLimit)
	assert.Equal(t, 2, f.calls)
}

func TestRetrieveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeFetcher{pages: []chat.PageResult{page(0, false, 61)}}
	r := &Retriever{Fetcher: f}
	_, err := r.RetrieveWindow(ctx, "v", time.Time{}, chat.Window{StartSeconds: 60, EndSeconds: 100})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls)
}

func TestRetrieveWindowProgress(t *testing.T) {
	f := &fakeFetcher{pages: []chat.PageResult{page(0, true, 60, 90), page(1, true, 150)}}
	var reports [][2]float64
	r := &Retriever{Fetcher: f, Progress: func(done, total float64) { reports = append(reports, [2]float64{done, total}) }}
	got, err := r.RetrieveWindow(context.Background(), "v", time.Time{}, chat.Window{StartSeconds: 60, EndSeconds: 120})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, [][2]float64{{0, 60}, {30, 60}}, reports)

	// Same result without an observer.
	f2 := &fakeFetcher{pages: f.pages}
	got2, err := (&Retriever{Fetcher: f2}).RetrieveWindow(context.Background(), "v", time.Time{}, chat.Window{StartSeconds: 60, EndSeconds: 120})
	require.NoError(t, err)
	assert.Equal(t, offsetsOf(got), offsetsOf(got2), "progress observer changed results")
}

func TestRetrieveAll(t *testing.T) {
	f := &fakeFetcher{pages: []chat.PageResult{page(0, true, 0, 5), page(1, true, 3000), page(2, false, 4000)}}
	var reports [][2]float64
	r := &Retriever{Fetcher: f, Progress: func(done, total float64) { reports = append(reports, [2]float64{done, total}) }}
	got, err := r.RetrieveAll(context.Background(), "v", time.Time{}, 3600)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 3000, 4000}, offsetsOf(got))
	assert.Equal(t, []int{0}, f.offsets, "offset requests")
	assert.Equal(t, [][2]float64{{5, 3600}, {3000, 3600}, {3600, 3600}}, reports)
}
