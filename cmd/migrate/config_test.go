package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscan/internal/platform/database"
)

func TestMigrationsDir_EnvOverride(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")
	assert.Equal(t, "/custom/migrations", migrationsDir("sqlite"))
}

func TestMigrationsDir_Default(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")
	assert.Equal(t, filepath.Join("internal", "platform", "database", "migrations", "postgres"), migrationsDir("postgres"))
}

func TestRunCommand_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	p, err := database.NewMigrator(db, database.DriverSQLite)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runCommand(ctx, p, "up", &out))
	assert.Contains(t, out.String(), "00001_create_books.sql")
	assert.Contains(t, out.String(), "Migrations applied successfully")

	out.Reset()
	require.NoError(t, runCommand(ctx, p, "version", &out))
	assert.Equal(t, "version 3\n", out.String())

	out.Reset()
	require.NoError(t, runCommand(ctx, p, "down", &out))
	assert.Contains(t, out.String(), "00003_create_payment_events.sql")

	out.Reset()
	require.NoError(t, runCommand(ctx, p, "status", &out))
	assert.Contains(t, out.String(), "Pending")

	assert.Error(t, runCommand(ctx, p, "sideways", &out))
}
