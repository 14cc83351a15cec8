// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fptsphere/fptsphere/data/migrations"
	"github.com/fptsphere/fptsphere/internal/platform/migration"
)

func TestPgx5URL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/fpt":   "pgx5://u:p@db:5432/fpt",
		"postgresql://u:p@db:5432/fpt": "pgx5://u:p@db:5432/fpt",
		"pgx5://u:p@db:5432/fpt":       "pgx5://u:p@db:5432/fpt",
	}
	for in, want := range tests {
		assert.Equal(t, want, migration.Pgx5URL(in))
	}
}

/*
TestEmbeddedMigrations makes sure every up file has a matching down file.
*/
func TestEmbeddedMigrations(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for _, up := range ups {
		down := up[:len(up)-len(".up.sql")] + ".down.sql"
		_, err := fs.Stat(migrations.FS, down)
		assert.NoError(t, err, down)
	}
}
