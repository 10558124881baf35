package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/WorldObservationLog/NeuroTools/export"
)

// ExportStore persists artifacts in the chat_exports table.
type ExportStore struct{ DB *sql.DB }

// ErrExportExists is returned when an artifact id is already stored. It is
// export.ErrExists so the exporter can pick a fresh id.
var ErrExportExists = export.ErrExists

// Save inserts a; an existing row with the same id is left untouched.
func (s *ExportStore) Save(ctx context.Context, a *export.Artifact) error {
	records, err := json.Marshal(a.Records)
	if err != nil {
		return err
	}
	keywords := a.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	kw, err := json.Marshal(keywords)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO chat_exports (id, video_id, window_start, window_end, keywords, records, record_count, location, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.VideoID, a.Window.StartSeconds, a.Window.EndSeconds, string(kw), string(records), len(a.Records), a.Location, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert export %s: %w", a.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrExportExists, a.ID)
	}
	return nil
}

const exportColumns = `id, video_id, window_start, window_end, keywords, records, COALESCE(location,''), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*export.Artifact, error) {
	var (
		a        export.Artifact
		keywords []byte
		records  []byte
	)
	if err := row.Scan(&a.ID, &a.VideoID, &a.Window.StartSeconds, &a.Window.EndSeconds, &keywords, &records, &a.Location, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(keywords, &a.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords of %s: %w", a.ID, err)
	}
	if err := json.Unmarshal(records, &a.Records); err != nil {
		return nil, fmt.Errorf("decode records of %s: %w", a.ID, err)
	}
	return &a, nil
}

// Get loads one artifact by id.
func (s *ExportStore) Get(ctx context.Context, id string) (*export.Artifact, error) {
	a, err := scanArtifact(s.DB.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM chat_exports WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, export.ErrNotFound
	}
	return a, err
}

// List returns the most recent artifacts, newest first.
func (s *ExportStore) List(ctx context.Context, limit int) ([]export.Artifact, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+exportColumns+` FROM chat_exports ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []export.Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Entries lists every stored artifact for retention.
func (s *ExportStore) Entries(ctx context.Context) ([]export.Entry, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, created_at, COALESCE(location,''), octet_length(records::text) FROM chat_exports`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []export.Entry
	for rows.Next() {
		var e export.Entry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Location, &e.Size); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes one artifact row.
func (s *ExportStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_exports WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete export %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", export.ErrNotFound, id)
	}
	return nil
}
