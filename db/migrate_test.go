package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableExistsQuery = `SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'chat_exports')`

func TestRunMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS chat_exports, schema_migrations`)
	require.NoError(t, err, "clean")

	require.NoError(t, RunMigrations(db))
	// Second run is a no-op.
	require.NoError(t, RunMigrations(db), "second run")

	var exists bool
	require.NoError(t, db.QueryRowContext(ctx, tableExistsQuery).Scan(&exists))
	assert.True(t, exists, "chat_exports should exist after migration")

	version, dirty, err := GetMigrationVersion(db)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 1, version)

	// The idempotent Migrate path must agree with the versioned schema.
	require.NoError(t, Migrate(ctx, db), "Migrate after RunMigrations")

	require.NoError(t, MigrateDown(db))
	require.NoError(t, db.QueryRowContext(ctx, tableExistsQuery).Scan(&exists))
	assert.False(t, exists, "chat_exports should be gone after rollback")
	require.NoError(t, RunMigrations(db), "re-apply")
}
