package apiresult

import "slices"

type Status string

const (
	StatusOK            Status = "ok"
	StatusCreated       Status = "created"
	StatusProcessing    Status = "processing"
	StatusNoContent     Status = "no_content"
	StatusForbidden     Status = "forbidden"
	StatusNotFound      Status = "not_found"
	StatusBadRequest    Status = "bad_request"
	StatusConflict      Status = "conflict"
	StatusCannotProcess Status = "cannot_process"
	StatusInternalError Status = "internal_error"
)

var successStatuses = []Status{
	StatusOK,
	StatusCreated,
	StatusProcessing,
	StatusNoContent,
}

// processing is both: the request was accepted, but there is nothing to return yet.
// Clients should retry the same request until they get another status.
var failureStatuses = []Status{
	StatusForbidden,
	StatusNotFound,
	StatusBadRequest,
	StatusConflict,
	StatusCannotProcess,
	StatusInternalError,
	StatusProcessing,
}

func SuccessStatuses() []Status {
	return slices.Clone(successStatuses)
}

func FailureStatuses() []Status {
	return slices.Clone(failureStatuses)
}

func (s Status) IsSuccess() bool {
	return slices.Contains(successStatuses, s)
}

func (s Status) IsFailure() bool {
	return slices.Contains(failureStatuses, s)
}

func (s Status) Valid() bool {
	return s.IsSuccess() || s.IsFailure()
}
