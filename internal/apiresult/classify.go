package apiresult

import (
	"fmt"

	"github.com/steambuddy/steambuddy/internal/app"
)

const LOADING_MESSAGE = "Loading the player info"

func Classify(outcome app.IngestOutcome) APIResult {
	switch o := outcome.(type) {
	case app.Found:
		return MustAPIResult(StatusCreated, o.Player)
	case app.Dispatched:
		return MustAPIResult(StatusProcessing, LOADING_MESSAGE)
	case app.Failed:
		switch o.Origin {
		case app.FailureOriginLookup:
			return MustAPIResult(StatusNotFound, o.Reason)
		case app.FailureOriginStore, app.FailureOriginDispatch:
			return MustAPIResult(StatusInternalError, o.Reason)
		}
		panic(fmt.Sprintf("unhandled failure origin: %s", o.Origin))
	}
	panic(fmt.Sprintf("unhandled ingest outcome: %T", outcome))
}
