package fetchqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// A request to fetch a player from Steam and store it
type FetchJob struct {
	ID         uuid.UUID `json:"id"`
	SteamID    string    `json:"steamId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func NewFetchJob(steamID string, enqueuedAt time.Time) FetchJob {
	return FetchJob{
		ID:         uuid.New(),
		SteamID:    steamID,
		EnqueuedAt: enqueuedAt,
	}
}

func encodeJob(job FetchJob) ([]byte, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fetch job: %w", err)
	}
	return data, nil
}

func decodeJob(data []byte) (FetchJob, error) {
	var job FetchJob
	err := json.Unmarshal(data, &job)
	if err != nil {
		return FetchJob{}, fmt.Errorf("failed to unmarshal fetch job: %w", err)
	}
	if job.SteamID == "" {
		return FetchJob{}, fmt.Errorf("fetch job is missing steam id")
	}
	return job, nil
}
