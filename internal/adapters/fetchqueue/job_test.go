package fetchqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobEncoding(t *testing.T) {
	t.Parallel()

	job := NewFetchJob("76561198012078200", time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))

	data, err := encodeJob(job)
	require.NoError(t, err)

	decoded, err := decodeJob(data)
	require.NoError(t, err)
	require.Equal(t, job, decoded)

	_, err = decodeJob([]byte(`{"id":"8f9a1d3e-4b58-4d8c-9b73-1b2c7a8e5f60"}`))
	require.Error(t, err)

	_, err = decodeJob([]byte(`not json`))
	require.Error(t, err)
}

func TestNewFetchJobIDs(t *testing.T) {
	t.Parallel()

	now := time.Now()
	first := NewFetchJob("76561198012078200", now)
	second := NewFetchJob("76561198012078200", now)
	require.NotEqual(t, first.ID, second.ID)
}
