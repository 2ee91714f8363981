package fetchqueue

import (
	"context"
	"errors"
)

var (
	ErrQueueFull        = errors.New("fetch queue is full")
	ErrDispatcherClosed = errors.New("fetch queue is closed")
)

type Dispatcher interface {
	// Hand the job off for asynchronous execution. Never waits for the job to run.
	//
	// Jobs are delivered at least once.
	Enqueue(ctx context.Context, job FetchJob) error
}

type JobHandler func(ctx context.Context, job FetchJob) error
