package chat

import (
	"errors"
	"fmt"
)

// CommentRecord is one chat message normalized against the VOD anchor.
type CommentRecord struct {
	ID                string
	Cursor            string
	AuthorLogin       string
	AuthorDisplayName string
	AuthorID          string
	Text              string
	OffsetSeconds     float64
}

// PageResult is the outcome of a single page fetch.
// LastPageOffsetSeconds is the feed offset of the last raw entry and is only
// used for progress reporting.
type PageResult struct {
	Records               []CommentRecord
	HasMore               bool
	LastPageOffsetSeconds float64
	// NextCursor continues the feed after this page. It is the cursor of the
	// last record, or of the last raw entry when every entry was dropped.
	NextCursor string
}

// ExportRecord is the exported shape of a matched record.
type ExportRecord struct {
	DisplayName string  `json:"displayName"`
	Text        string  `json:"text"`
	Offset      float64 `json:"offset"`
}

// ToExport derives the window-relative export record.
func (r CommentRecord) ToExport(windowStart float64) ExportRecord {
	return ExportRecord{
		DisplayName: r.AuthorDisplayName,
		Text:        r.Text,
		Offset:      r.OffsetSeconds - windowStart,
	}
}

// Window is an elapsed-time range [StartSeconds, EndSeconds] of a VOD.
type Window struct {
	StartSeconds float64 `json:"start"`
	EndSeconds   float64 `json:"end"`
}

// ErrInvalidWindow is returned by Window.Validate.
var ErrInvalidWindow = errors.New("invalid window")

// Validate checks the caller-side window contract. The retriever itself
// never calls it.
func (w Window) Validate() error {
	if w.StartSeconds < 0 {
		return fmt.Errorf("%w: start %v is negative", ErrInvalidWindow, w.StartSeconds)
	}
	if w.StartSeconds >= w.EndSeconds {
		return fmt.Errorf("%w: start %v must be before end %v", ErrInvalidWindow, w.StartSeconds, w.EndSeconds)
	}
	return nil
}

// Contains reports whether offset lies inside the closed window.
func (w Window) Contains(offset float64) bool {
	return offset >= w.StartSeconds && offset <= w.EndSeconds
}

// Length returns the window duration in seconds.
func (w Window) Length() float64 { return w.EndSeconds - w.StartSeconds }
