package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/ai-todo/internal/config"
	"go.uber.org/zap"
)

func TestOpen_SQLiteCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	db, err := Open(config.Storage{Driver: "sqlite", DataDir: dir}, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	assert.True(t, db.Migrator().HasTable("tasks"))
	assert.True(t, db.Migrator().HasTable("users"))
	assert.FileExists(t, filepath.Join(dir, "todo.db"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.Storage{Driver: "csv"}, zap.NewNop())
	assert.Error(t, err)
}
