// Package export turns matched comment records into a deduplicated, ordered
// artifact and persists it through a Store.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/telemetry"
)

var (
	// ErrNotFound is returned by readers for an unknown artifact id.
	ErrNotFound = errors.New("export not found")
	// ErrExists is returned by Save when the artifact id is already taken.
	ErrExists = errors.New("export already exists")
)

// maxIDAttempts bounds how many fresh ids Write tries after collisions.
const maxIDAttempts = 3

// Artifact is one persisted export.
type Artifact struct {
	ID        string              `json:"id"`
	VideoID   string              `json:"videoId,omitempty"`
	Window    chat.Window         `json:"window"`
	Keywords  []string            `json:"keywords,omitempty"`
	Records   []chat.ExportRecord `json:"records"`
	CreatedAt time.Time           `json:"createdAt"`
	// Location is where a store put the artifact (a path for files).
	Location string `json:"location,omitempty"`
}

// Payload is the serialized records array, the on-disk export format.
func (a *Artifact) Payload() ([]byte, error) {
	return json.Marshal(a.Records)
}

// Meta describes the scan an artifact came from.
type Meta struct {
	VideoID  string
	Window   chat.Window
	Keywords []string
}

// Store persists artifacts. Save must not overwrite an existing artifact.
type Store interface {
	Save(ctx context.Context, a *Artifact) error
}

// Deleter removes a saved artifact. MultiStore uses it to undo partial saves.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Reader looks artifacts up again.
type Reader interface {
	Get(ctx context.Context, id string) (*Artifact, error)
	List(ctx context.Context, limit int) ([]Artifact, error)
}

// IDGenerator returns a fresh artifact identifier.
type IDGenerator func() string

// ShortID is the default IDGenerator: the first six hex characters of a
// random UUID.
func ShortID() string {
	u := uuid.New()
	return fmt.Sprintf("%x", u[:3])
}

// Exporter builds and persists artifacts.
type Exporter struct {
	Store Store
	NewID IDGenerator
	Now   func() time.Time
}

func (e *Exporter) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return ShortID()
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// Build maps matched to export records relative to windowStart, removes
// exact duplicates and sorts by offset. Ties are ordered by display name and
// then text so the output is stable across runs.
func Build(matched []chat.CommentRecord, windowStart float64) []chat.ExportRecord {
	seen := make(map[chat.ExportRecord]struct{}, len(matched))
	out := make([]chat.ExportRecord, 0, len(matched))
	for _, m := range matched {
		r := m.ToExport(windowStart)
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.Text < b.Text
	})
	return out
}

// Build calls the package-level Build.
func (e *Exporter) Build(matched []chat.CommentRecord, windowStart float64) []chat.ExportRecord {
	return Build(matched, windowStart)
}

// Export persists matched under a fresh id and returns it. An empty input
// writes nothing and returns "".
func (e *Exporter) Export(ctx context.Context, matched []chat.CommentRecord, windowStart float64) (string, error) {
	a, err := e.Write(ctx, Meta{Window: chat.Window{StartSeconds: windowStart}}, matched)
	if err != nil || a == nil {
		return "", err
	}
	return a.ID, nil
}

// Write is Export with scan metadata attached to the artifact. It returns a
// nil artifact for empty input.
func (e *Exporter) Write(ctx context.Context, meta Meta, matched []chat.CommentRecord) (*Artifact, error) {
	if len(matched) == 0 {
		return nil, nil
	}
	if e.Store == nil {
		return nil, errors.New("export: no store configured")
	}
	a := &Artifact{
		VideoID:   meta.VideoID,
		Window:    meta.Window,
		Keywords:  meta.Keywords,
		Records:   Build(matched, meta.Window.StartSeconds),
		CreatedAt: e.now(),
	}
	for attempt := 1; ; attempt++ {
		a.ID, a.Location = e.newID(), ""
		err := e.Store.Save(ctx, a)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrExists) || attempt == maxIDAttempts {
			return nil, fmt.Errorf("save export %s: %w", a.ID, err)
		}
		slog.Warn("export id taken, generating another",
			slog.String("component", "export"),
			slog.String("export_id", a.ID),
			slog.Int("attempt", attempt))
	}
	telemetry.Inc(telemetry.ExportsWritten)
	telemetry.LoggerWithCorr(ctx).Info("export written",
		slog.String("component", "export"),
		slog.String("export_id", a.ID),
		slog.String("video_id", a.VideoID),
		slog.Int("records", len(a.Records)),
		slog.String("location", a.Location))
	return a, nil
}
