package db

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMigrate struct {
	upErr      error
	downErr    error
	versionVal uint
	dirty      bool
	versionErr error
	srcErr     error
	dbErr      error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Close() (error, error)        { return m.srcErr, m.dbErr }

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/passage?sslmode=disable": "pgx5://u:p@localhost:5432/passage?sslmode=disable",
		"postgresql://localhost/passage":                        "pgx5://localhost/passage",
		"pgx5://localhost/passage":                              "pgx5://localhost/passage",
	}
	for in, want := range tests {
		assert.Equal(t, want, migrateURL(in), in)
	}
}

func TestNewMigratorRejectsUnknownScheme(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/passage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init migrator")
}

func TestMigratorUp(t *testing.T) {
	assert.NoError(t, (&Migrator{m: &mockMigrate{}}).Up())
	assert.NoError(t, (&Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}).Up())

	err := (&Migrator{m: &mockMigrate{upErr: errors.New("database locked")}}).Up()
	assert.ErrorContains(t, err, "database locked")
}

func TestMigratorDown(t *testing.T) {
	assert.NoError(t, (&Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}).Down())
	assert.Error(t, (&Migrator{m: &mockMigrate{downErr: errors.New("boom")}}).Down())
}

func TestMigratorVersion(t *testing.T) {
	version, dirty, err := (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	version, dirty, err = (&Migrator{m: &mockMigrate{versionVal: 1, dirty: true}}).Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.True(t, dirty)
}

func TestMigratorCloseJoinsErrors(t *testing.T) {
	src, dbErr := errors.New("source"), errors.New("database")
	err := (&Migrator{m: &mockMigrate{srcErr: src, dbErr: dbErr}}).Close()
	assert.ErrorIs(t, err, src)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, (&Migrator{m: &mockMigrate{}}).Close())
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
