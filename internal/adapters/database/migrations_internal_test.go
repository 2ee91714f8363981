package database

import (
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(embeddedMigrations, "migrations")
	require.NoError(t, err)

	upVersions := []uint{}
	downCount := 0
	for _, entry := range entries {
		name := entry.Name()
		prefix, _, found := strings.Cut(name, "_")
		require.True(t, found, name)

		version, err := strconv.ParseUint(prefix, 10, 64)
		require.NoError(t, err, name)

		switch {
		case strings.HasSuffix(name, ".up.sql"):
			upVersions = append(upVersions, uint(version))
		case strings.HasSuffix(name, ".down.sql"):
			downCount++
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}

	// Versions are contiguous from 1 and every up has a down
	require.Len(t, upVersions, int(LATEST_SCHEMA_VERSION))
	for i, version := range upVersions {
		require.Equal(t, uint(i+1), version)
	}
	require.Equal(t, len(upVersions), downCount)
}
