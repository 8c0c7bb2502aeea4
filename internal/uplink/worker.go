package uplink

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/stationside/wxuplink/internal/infrastructure/config"
	"github.com/stationside/wxuplink/internal/infrastructure/logging"
	"github.com/stationside/wxuplink/internal/infrastructure/metrics"
	"github.com/stationside/wxuplink/internal/station"
)

// Spool receives abandoned records for later inspection.
// Implemented by the dead-letter store; nil disables spooling.
type Spool interface {
	Insert(destination, payload, reason string, capturedAt int64) error
}

// Deps holds the dependencies required by a delivery worker.
type Deps struct {
	Config  *config.DestinationConfig
	Poster  Poster
	Logger  *logging.Logger
	Metrics *metrics.Destination
	Spool   Spool

	// RetryWait overrides the configured wait between delivery attempts.
	// Zero uses the destination's retry_wait. Tests shorten it.
	RetryWait time.Duration
}

// Worker is the background delivery loop for one destination.
//
// It owns its queue, encoder, template cache, and poster exclusively;
// producers interact only through Enqueue. Records pulled off the queue
// are either delivered, dropped (stale, backlog, or retries exhausted),
// or cause a fatal abort of the loop.
type Worker struct {
	cfg     *config.DestinationConfig
	enc     *Encoder
	poster  Poster
	log     *logging.Logger
	metrics *metrics.Destination
	spool   Spool

	queue     chan *station.Record
	retryWait time.Duration
	lastPost  time.Time

	stats stats
	done  chan struct{}
}

// stats are the worker's delivery counters, readable while it runs.
type stats struct {
	delivered      atomic.Int64
	abandoned      atomic.Int64
	staleDropped   atomic.Int64
	backlogDropped atomic.Int64
	enqueueDropped atomic.Int64
	attempts       atomic.Int64
}

// StatsSnapshot is a point-in-time copy of a worker's counters.
type StatsSnapshot struct {
	Delivered      int64 `json:"delivered"`
	Abandoned      int64 `json:"abandoned"`
	StaleDropped   int64 `json:"stale_dropped"`
	BacklogDropped int64 `json:"backlog_dropped"`
	EnqueueDropped int64 `json:"enqueue_dropped"`
	Attempts       int64 `json:"attempts"`
}

// NewWorker creates a delivery worker. The destination config must have
// passed Validate; the worker is not running until Run is called.
func NewWorker(deps Deps) (*Worker, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("destination config is required")
	}
	if deps.Poster == nil {
		return nil, fmt.Errorf("poster is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Metrics == nil {
		return nil, fmt.Errorf("metrics are required")
	}

	log := deps.Logger.With("destination", deps.Config.Name)
	enc, err := NewEncoder(deps.Config, log)
	if err != nil {
		return nil, err
	}

	retryWait := deps.RetryWait
	if retryWait == 0 {
		retryWait = deps.Config.GetRetryWait()
	}

	return &Worker{
		cfg:       deps.Config,
		enc:       enc,
		poster:    deps.Poster,
		log:       log,
		metrics:   deps.Metrics,
		spool:     deps.Spool,
		queue:     make(chan *station.Record, deps.Config.GetQueueSize()),
		retryWait: retryWait,
		done:      make(chan struct{}),
	}, nil
}

// Name returns the destination name.
func (w *Worker) Name() string {
	return w.cfg.Name
}

// Enqueue offers a record to the delivery queue without blocking.
// Returns false when the queue is full; the record is counted and dropped.
func (w *Worker) Enqueue(rec *station.Record) bool {
	select {
	case w.queue <- rec:
		w.metrics.QueueDepth.Set(float64(len(w.queue)))
		return true
	default:
		w.stats.enqueueDropped.Add(1)
		w.metrics.EnqueueDrops.Inc()
		return false
	}
}

// Stop pushes the shutdown sentinel. The worker exits after finishing
// the record in flight; wait on Done for completion.
func (w *Worker) Stop() {
	select {
	case w.queue <- nil:
	case <-w.done:
		// already aborted; nothing is draining the queue
	}
}

// Done is closed when the worker loop has exited, whether by sentinel
// or fatal abort.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Alive reports whether the worker loop is still running.
func (w *Worker) Alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// QueueDepth returns the number of queued records.
func (w *Worker) QueueDepth() int {
	return len(w.queue)
}

// Snapshot returns the current delivery counters.
func (w *Worker) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Delivered:      w.stats.delivered.Load(),
		Abandoned:      w.stats.abandoned.Load(),
		StaleDropped:   w.stats.staleDropped.Load(),
		BacklogDropped: w.stats.backlogDropped.Load(),
		EnqueueDropped: w.stats.enqueueDropped.Load(),
		Attempts:       w.stats.attempts.Load(),
	}
}

// Run is the worker loop. It blocks until the shutdown sentinel arrives
// or a fatal delivery failure aborts it, and is meant to be started as
// a goroutine at initialization.
func (w *Worker) Run() {
	defer close(w.done)
	w.log.Info("delivery worker started",
		"binding", w.cfg.Binding,
		"queue_size", w.cfg.GetQueueSize(),
	)

	for {
		rec := <-w.queue
		if rec == nil {
			w.log.Info("delivery worker stopping")
			return
		}

		rec = w.trimBacklog(rec)
		w.metrics.QueueDepth.Set(float64(len(w.queue)))

		if maxAge := w.cfg.GetMaxAge(); maxAge > 0 {
			if age := rec.Age(time.Now()); age > maxAge {
				w.stats.staleDropped.Add(1)
				w.metrics.StaleDrops.Inc()
				w.log.Debug("dropping stale record", "age", age, "max_age", maxAge)
				continue
			}
		}

		w.throttle()

		payload, contentType := w.enc.Encode(rec)
		err := w.deliver(payload, contentType)
		if err == nil {
			w.stats.delivered.Add(1)
			w.metrics.Delivered.Inc()
			continue
		}
		if errors.Is(err, ErrFatalDelivery) {
			// Misconfiguration that can never succeed. This is a permanent
			// stop, distinct from the transient drops logged above.
			w.log.Error("aborting delivery worker", "error", err)
			return
		}
		w.abandon(rec, payload, err)
	}
}

// trimBacklog discards oldest-first while the backlog exceeds the
// configured limit, returning the record to process next. The record
// just dequeued is always the oldest.
func (w *Worker) trimBacklog(rec *station.Record) *station.Record {
	limit := w.cfg.BacklogLimit
	if limit <= 0 {
		return rec
	}
	for len(w.queue) >= limit {
		w.stats.backlogDropped.Add(1)
		w.metrics.BacklogDrops.Inc()
		w.log.Warn("backlog over limit, discarding oldest record", "limit", limit)
		next := <-w.queue
		if next == nil {
			// Never discard the sentinel; put the loop back on track.
			w.queue <- nil
			return rec
		}
		rec = next
	}
	return rec
}

// throttle enforces the minimum interval between POSTs. Only the send
// cadence waits; producers keep enqueueing against the queue bound.
func (w *Worker) throttle() {
	interval := w.cfg.GetPostInterval()
	if interval == 0 || w.lastPost.IsZero() {
		return
	}
	if since := time.Since(w.lastPost); since < interval {
		time.Sleep(interval - since)
	}
}

// deliver attempts one payload up to max_tries times.
//
// Returns nil once an attempt succeeds, an ErrFatalDelivery-wrapped
// error immediately on a fatal classification, and the last retryable
// error after exhausting the attempts.
func (w *Worker) deliver(payload, contentType string) error {
	maxTries := w.cfg.GetMaxTries()
	timeout := w.cfg.GetTimeout()

	var lastErr error
	for attempt := 1; attempt <= maxTries; attempt++ {
		w.stats.attempts.Add(1)
		w.metrics.Attempts.Inc()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		outcome := w.poster.Post(ctx, payload, contentType)
		cancel()
		w.lastPost = time.Now()

		lastErr = Classify(outcome)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrFatalDelivery) {
			return lastErr
		}

		w.log.Warn("delivery attempt failed",
			"attempt", attempt,
			"max_tries", maxTries,
			"error", lastErr,
		)
		if attempt < maxTries {
			time.Sleep(w.retryWait)
		}
	}
	return lastErr
}

// abandon drops a record whose retries are exhausted: log, count, and
// spool when a dead-letter store is configured. A single record's
// failure never stalls the queue or crashes the worker.
func (w *Worker) abandon(rec *station.Record, payload string, err error) {
	w.stats.abandoned.Add(1)
	w.metrics.Abandoned.Inc()
	w.log.Error("abandoning record after exhausting retries",
		"capture_time", rec.Time,
		"error", err,
	)

	if w.spool == nil {
		return
	}
	if spoolErr := w.spool.Insert(w.cfg.Name, payload, err.Error(), rec.Time); spoolErr != nil {
		w.log.Error("dead-letter spool write failed", "error", spoolErr)
	}
}
