package app

import (
	"fmt"

	"github.com/steambuddy/steambuddy/internal/domain"
)

// The result of ingesting a player. One of Found, Dispatched or Failed.
type IngestOutcome interface {
	isIngestOutcome()
}

// The player is completely stored
type Found struct {
	Player domain.Player
}

// The player is missing or incomplete and a fetch has been scheduled
type Dispatched struct {
	SteamID string
}

type Failed struct {
	Origin FailureOrigin
	// Safe to show to clients
	Reason string
}

func (Found) isIngestOutcome()      {}
func (Dispatched) isIngestOutcome() {}
func (Failed) isIngestOutcome()     {}

type FailureOrigin int

const (
	FailureOriginLookup FailureOrigin = iota + 1
	FailureOriginStore
	FailureOriginDispatch
)

func (o FailureOrigin) String() string {
	switch o {
	case FailureOriginLookup:
		return "lookup"
	case FailureOriginStore:
		return "store"
	case FailureOriginDispatch:
		return "dispatch"
	}
	return fmt.Sprintf("FailureOrigin(%d)", int(o))
}

const (
	INVALID_STEAM_ID_REASON = "Invalid Steam ID"
	STORE_FAILURE_REASON    = "Having trouble accessing the database"
	DISPATCH_FAILURE_REASON = "Having trouble scheduling the player fetch"
)

func outcomeKind(outcome IngestOutcome) string {
	switch o := outcome.(type) {
	case Found:
		return "found"
	case Dispatched:
		return "dispatched"
	case Failed:
		return "failed_" + o.Origin.String()
	}
	return "unknown"
}
