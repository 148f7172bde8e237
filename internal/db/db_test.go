package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@h:5432/lims", MigrationURL("postgres://u:p@h:5432/lims"))
	require.Equal(t, "pgx5://u@h/lims?sslmode=disable", MigrationURL("postgresql://u@h/lims?sslmode=disable"))
	require.Equal(t, "pgx5://already", MigrationURL("pgx5://already"))
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	require.NotZero(t, ups)
	require.Equal(t, ups, downs)
}

func TestSchemaGuardsBatchKey(t *testing.T) {
	data, err := fs.ReadFile(migrations, "migrations/000001_init.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "UNIQUE (category, period_start)")
}
