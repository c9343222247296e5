// Package jobq serializes render requests so that at most one figure
// set is being produced at a time.
package jobq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hydrostats/tsfit/internal/opt/metrics"
)

var ErrJobQueueFull = errors.New("job queue full")

type NamedJob struct {
	Name string
	Run  func(ctx context.Context)
}

type JobQueue struct {
	l    *slog.Logger
	jobs chan NamedJob
}

func NewJobQueue(bufferSize int) *JobQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &JobQueue{
		l:    slog.With("component", "job-queue"),
		jobs: make(chan NamedJob, bufferSize),
	}
}

func (q *JobQueue) log() *slog.Logger {
	if q.l != nil {
		return q.l
	}
	return slog.With("component", "job-queue")
}

// Start drains the queue until ctx is cancelled. Jobs run one at a
// time on a single goroutine.
func (q *JobQueue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-q.jobs:
				metrics.RenderJobsQueued.Set(float64(len(q.jobs)))
				q.log().Info("run job", slog.String("job-name", job.Name))
				job.Run(ctx)
				q.log().Info("fin job", slog.String("job-name", job.Name))
			}
		}
	}()
}

func (q *JobQueue) Submit(name string, jobFunc func(ctx context.Context)) error {
	job := NamedJob{Name: name, Run: jobFunc}
	select {
	case q.jobs <- job:
		metrics.RenderJobsQueued.Set(float64(len(q.jobs)))
		return nil
	default:
		metrics.RenderJobsRejected.Inc()
		return fmt.Errorf("%w: %s", ErrJobQueueFull, name)
	}
}
