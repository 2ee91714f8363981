package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "steambuddy", DB_NAME)
	require.Equal(t, MAIN_SCHEMA, GetSchemaName(false))
	require.Equal(t, TESTING_SCHEMA, GetSchemaName(true))
}

func TestGetConnectionString(t *testing.T) {
	t.Parallel()

	require.Equal(
		t,
		"user=user password=secret dbname=steambuddy host=db.internal",
		GetConnectionString("user", "secret", "db.internal"),
	)
}
