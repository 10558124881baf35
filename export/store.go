package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes each artifact's records to <Dir>/export_<id>.json.
type FileStore struct {
	Dir string
}

// Path returns the file an artifact id maps to.
func (s FileStore) Path(id string) string {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "export_"+id+".json")
}

// Save creates the file; an existing file is never replaced.
func (s FileStore) Save(_ context.Context, a *Artifact) error {
	payload, err := a.Payload()
	if err != nil {
		return err
	}
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return err
		}
	}
	path := s.Path(a.ID)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return err
	}
	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if a.Location == "" {
		a.Location = path
	}
	return nil
}

// MultiStore saves to every store in order. When a store fails, the
// artifact is removed again from the stores that already took it, so a
// failed Save leaves nothing behind.
type MultiStore []Store

// Save implements Store.
func (m MultiStore) Save(ctx context.Context, a *Artifact) error {
	for i, s := range m {
		if err := s.Save(ctx, a); err != nil {
			m[:i].rollback(ctx, a.ID)
			return err
		}
	}
	return nil
}

// rollback deletes id from each store, newest first. Stores that cannot
// delete are reported and skipped.
func (m MultiStore) rollback(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)
	for i := len(m) - 1; i >= 0; i-- {
		d, ok := m[i].(Deleter)
		if !ok {
			slog.Warn("export store cannot roll back", slog.String("component", "export"), slog.String("export_id", id), slog.Int("store", i))
			continue
		}
		if err := d.Delete(ctx, id); err != nil {
			slog.Error("export rollback failed", slog.String("component", "export"), slog.String("export_id", id), slog.Int("store", i), slog.Any("err", err))
		}
	}
}

// Entries lists the export files in Dir. A missing directory has none.
func (s FileStore) Entries(_ context.Context) ([]Entry, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	des, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, "export_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			ID:        strings.TrimSuffix(strings.TrimPrefix(name, "export_"), ".json"),
			CreatedAt: fi.ModTime(),
			Location:  filepath.Join(dir, name),
			Size:      fi.Size(),
		})
	}
	return out, nil
}

// Delete removes the export file of id.
func (s FileStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.Path(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}
