package database

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrateDatabase_Idempotent(t *testing.T) {
	db := openMemoryDB(t)
	require.NoError(t, db.AutoMigrate(Models()...))

	want := make([]string, len(indexes))
	for i, idx := range indexes {
		want[i] = idx.name
	}

	created, err := MigrateDatabase(db)
	require.NoError(t, err)
	assert.Equal(t, want, created)

	created, err = MigrateDatabase(db)
	require.NoError(t, err)
	assert.Empty(t, created)

	for _, idx := range indexes {
		exists, err := indexExists(db, idx)
		require.NoError(t, err)
		assert.True(t, exists, idx.name)
	}
}

func TestMigrate_LogsCreatedIndexes(t *testing.T) {
	previous := GetDB()
	t.Cleanup(func() { SetDB(previous) })
	SetDB(openMemoryDB(t))

	var buf bytes.Buffer
	require.NoError(t, Migrate(zerolog.New(&buf)))
	for _, idx := range indexes {
		assert.Contains(t, buf.String(), `"index":"`+idx.name+`"`)
	}

	buf.Reset()
	require.NoError(t, Migrate(zerolog.New(&buf)))
	assert.NotContains(t, buf.String(), "created index")
}
