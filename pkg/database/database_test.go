package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_apartments.up.sql",
		"000001_create_apartments.down.sql",
		"000003_add_match_columns.up.sql",
		"000002_create_transactions.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0o600))
	}

	version, err := LatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestLatestVersion_Empty(t *testing.T) {
	_, err := LatestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestLatestVersion_ShippedMigrations(t *testing.T) {
	version, err := LatestVersion(filepath.Join("..", "..", "db", "pg"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, 1)
}

func TestResolveMigrationFolder(t *testing.T) {
	ms := NewMigrationService(nil, MigrationConfig{MigrationFolderPath: t.TempDir()})
	folder, err := ms.resolveMigrationFolder()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(folder))

	ms = NewMigrationService(nil, MigrationConfig{MigrationFolderPath: "does/not/exist"})
	_, err = ms.resolveMigrationFolder()
	assert.Error(t, err)
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", UserName: "fern", Password: "secret", Name: "fern", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=fern password=secret dbname=fern sslmode=disable", cfg.DSN())
}

func TestOnConflict(t *testing.T) {
	ib := NewInsertBuilder()
	ib.InsertInto("regions").Cols("region_code", "dong_name").Values("1168010600", "대치동")
	ib.OnConflict("region_code").Set("dong_name = " + "EXCLUDED.dong_name")

	sql, args := ib.Build()
	assert.Contains(t, sql, "INSERT INTO regions (region_code, dong_name) VALUES ($1, $2)")
	assert.Contains(t, sql, "ON CONFLICT (region_code) DO UPDATE")
	assert.Contains(t, sql, "dong_name = EXCLUDED.dong_name")
	assert.Equal(t, []any{"1168010600", "대치동"}, args)
}
