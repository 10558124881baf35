package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/export"
)

func TestExportStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	id := "t" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _, _ = db.Exec(`DELETE FROM chat_exports WHERE id=$1`, id) })

	store := &ExportStore{DB: db}
	a := &export.Artifact{
		ID:        id,
		VideoID:   "123",
		Window:    chat.Window{StartSeconds: 60, EndSeconds: 120},
		Keywords:  []string{"lol"},
		Records:   []chat.ExportRecord{{DisplayName: "alice", Text: "lol", Offset: 1.5}},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Location:  "/tmp/export_x.json",
	}
	require.NoError(t, store.Save(ctx, a))
	assert.ErrorIs(t, store.Save(ctx, a), ErrExportExists)
	assert.ErrorIs(t, store.Save(ctx, a), export.ErrExists)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "123", got.VideoID)
	assert.Equal(t, a.Window, got.Window)
	assert.Equal(t, a.Records, got.Records)
	assert.Equal(t, []string{"lol"}, got.Keywords)
	assert.Equal(t, a.Location, got.Location)

	list, err := store.List(ctx, 500)
	require.NoError(t, err)
	found := false
	for _, l := range list {
		found = found || l.ID == id
	}
	assert.True(t, found, "List() missing %s", id)

	_, err = store.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, export.ErrNotFound)
}

func TestExportStoreRetention(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	id := "r" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _, _ = db.Exec(`DELETE FROM chat_exports WHERE id=$1`, id) })

	store := &ExportStore{DB: db}
	old := time.Now().Add(-90 * 24 * time.Hour).UTC().Truncate(time.Microsecond)
	require.NoError(t, store.Save(ctx, &export.Artifact{ID: id, Records: []chat.ExportRecord{{DisplayName: "a", Text: "b"}}, CreatedAt: old}))

	entries, err := store.Entries(ctx)
	require.NoError(t, err)
	var found *export.Entry
	for i := range entries {
		if entries[i].ID == id {
			found = &entries[i]
		}
	}
	require.NotNil(t, found, "Entries() missing %s", id)
	assert.True(t, found.CreatedAt.Equal(old), "created_at = %v, want %v", found.CreatedAt, old)
	assert.NotZero(t, found.Size)

	require.NoError(t, store.Delete(ctx, id))
	assert.ErrorIs(t, store.Delete(ctx, id), export.ErrNotFound)
}
