// Package audit forwards committed task events to the history service. The
// write happens off the request path: a slow or unavailable history service
// must never delay or fail the mutation that produced the event.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"taskhub/internal/audit/metrics"
	"taskhub/internal/events"
	"taskhub/internal/history"
)

// Writer persists a single history entry. *history.Client implements it.
type Writer interface {
	Add(ctx context.Context, entry history.Entry) error
}

// Recorder subscribes to the event bus and records each event in the history
// service. Delivery is at-most-once: a failed write is logged and counted,
// never retried and never surfaced to the caller.
type Recorder struct {
	writer  Writer
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	inflight sync.WaitGroup
}

// NewRecorder constructs a recorder. The timeout bounds each detached history
// write; it replaces the request deadline the write is deliberately cut from.
func NewRecorder(writer Writer, logger *slog.Logger, m *metrics.Metrics, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{
		writer:  writer,
		logger:  logger,
		metrics: m,
		timeout: timeout,
	}
}

// HandleEvent launches the history write in a detached goroutine and returns
// immediately. The goroutine inherits the request's values (propagated
// headers, request id) but not its cancellation: the originating request
// completing or being cancelled must not abort the audit write.
func (r *Recorder) HandleEvent(ctx context.Context, event events.Event) error {
	detached := context.WithoutCancel(ctx)

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		writeCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()

		entry := history.Entry{
			TaskID:        event.TaskID,
			Event:         event.Name,
			PreviousState: event.PreviousState,
			NewState:      event.NewState,
			Author:        event.AuthorID,
		}
		if err := r.writer.Add(writeCtx, entry); err != nil {
			r.metrics.IncFailed()
			r.logger.ErrorContext(writeCtx, "audit record dropped",
				"task_id", event.TaskID,
				"event", event.Name,
				"error", err,
			)
			return
		}
		r.metrics.IncDelivered()
	}()

	return nil
}

// Wait blocks until all in-flight history writes have finished. Used by
// graceful shutdown and tests.
func (r *Recorder) Wait() {
	r.inflight.Wait()
}
