// Package jobs carries the post-processing triggers fired after a successful
// import run and a small worker to drain them.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lbarros/extratoflow/internal/service"
)

// Kind identifies the work a job requests.
type Kind string

const (
	// KindGenerateAlerts recomputes spending alerts for one user month.
	KindGenerateAlerts Kind = "generate_alerts"
	// KindComputeForecast recomputes the spend forecast for one user month.
	KindComputeForecast Kind = "compute_forecast"
)

// Job is one queued trigger. Month semantics are the candidates' earliest
// statement month, not the processing time.
type Job struct {
	EnqueuedAt time.Time
	ID         string
	Kind       Kind
	UserID     string
	Year       int
	Month      time.Month
}

// Queue is an in-process service.JobPublisher backed by a buffered channel.
// Enqueueing never blocks: a full queue is an error the caller may log and
// ignore, since triggers are fire-and-forget.
type Queue struct {
	clock service.Clock
	ch    chan Job
}

// NewQueue creates a queue holding up to size pending jobs.
func NewQueue(size int, clock service.Clock) *Queue {
	return &Queue{
		clock: clock,
		ch:    make(chan Job, size),
	}
}

// EnqueueGenerateAlerts queues an alert-generation trigger.
func (q *Queue) EnqueueGenerateAlerts(ctx context.Context, userID string, year int, month time.Month) error {
	return q.enqueue(ctx, KindGenerateAlerts, userID, year, month)
}

// EnqueueComputeForecast queues a forecast-recomputation trigger.
func (q *Queue) EnqueueComputeForecast(ctx context.Context, userID string, year int, month time.Month) error {
	return q.enqueue(ctx, KindComputeForecast, userID, year, month)
}

func (q *Queue) enqueue(ctx context.Context, kind Kind, userID string, year int, month time.Month) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	job := Job{
		EnqueuedAt: q.clock.Now(),
		ID:         uuid.NewString(),
		Kind:       kind,
		UserID:     userID,
		Year:       year,
		Month:      month,
	}

	select {
	case q.ch <- job:
		return nil
	default:
		return fmt.Errorf("job queue full, dropping %s for user %s", kind, userID)
	}
}

// Jobs exposes the pending jobs for a worker to drain.
func (q *Queue) Jobs() <-chan Job {
	return q.ch
}

// Close stops the queue. Enqueueing after Close panics; drain first.
func (q *Queue) Close() {
	close(q.ch)
}
