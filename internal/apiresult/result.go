package apiresult

import (
	"errors"
	"fmt"
)

var ErrInvalidStatus = errors.New("invalid api result status")

// A status from the fixed set and either a human readable message or an entity
type APIResult struct {
	status  Status
	message any
}

func NewAPIResult(status Status, message any) (APIResult, error) {
	if !status.Valid() {
		return APIResult{}, fmt.Errorf("%w: '%s'", ErrInvalidStatus, status)
	}
	return APIResult{
		status:  status,
		message: message,
	}, nil
}

// Panics if the status is invalid
func MustAPIResult(status Status, message any) APIResult {
	result, err := NewAPIResult(status, message)
	if err != nil {
		panic(err)
	}
	return result
}

func (r APIResult) Status() Status {
	return r.status
}

func (r APIResult) Message() any {
	return r.message
}
