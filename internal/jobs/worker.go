package jobs

import (
	"context"
	"log/slog"
)

// Handler processes one job.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Worker drains a queue, dispatching each job to the handler registered for
// its kind. Handler errors are logged and swallowed; a failing trigger never
// takes the worker down.
type Worker struct {
	queue    *Queue
	handlers map[Kind]Handler
	logger   *slog.Logger
}

// NewWorker creates a worker over queue. Register handlers before Run.
func NewWorker(queue *Queue, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		queue:    queue,
		handlers: make(map[Kind]Handler),
		logger:   logger,
	}
}

// Register sets the handler for a job kind.
func (w *Worker) Register(kind Kind, handler Handler) {
	w.handlers[kind] = handler
}

// Run processes jobs until the context is canceled or the queue is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-w.queue.Jobs():
			if !ok {
				return nil
			}
			w.dispatch(ctx, job)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, job Job) {
	handler, ok := w.handlers[job.Kind]
	if !ok {
		w.logger.Warn("no handler for job kind", "kind", job.Kind, "job_id", job.ID)
		return
	}

	if err := handler.Handle(ctx, job); err != nil {
		w.logger.Error("job failed", "kind", job.Kind, "job_id", job.ID,
			"user_id", job.UserID, "error", err)
		return
	}
	w.logger.Info("job done", "kind", job.Kind, "job_id", job.ID, "user_id", job.UserID)
}
