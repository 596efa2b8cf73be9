// Package audit appends immutable records of entry mutations to a log store.
//
// Appends are best-effort. Record returns immediately; a single background
// worker delivers records to the Sink in the order they were recorded.
// Delivery failures never reach the caller of the mutation: they are logged
// and published on the Errors channel, which exists for diagnostics only.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"github.com/Racej255/CrosslandApocalypse/internal/logid"
)

var (
	// ErrQueueFull is published when records arrive faster than the sink drains.
	ErrQueueFull = errors.New("audit queue full, record dropped")
	ErrClosed    = errors.New("audit writer closed")
)

// Sink is an append-only log store.
type Sink interface {
	AppendLog(ctx context.Context, records []models.LogRecord) error
}

const (
	defaultQueueSize = 256
	defaultTimeout   = 10 * time.Second
)

type Writer struct {
	sink    Sink
	logger  logging.Logger
	now     func() time.Time
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	queue   chan models.LogRecord
	errs    chan error
	stopped chan struct{}
}

type Option func(*Writer)

func WithClock(now func() time.Time) Option { return func(w *Writer) { w.now = now } }

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option { return func(w *Writer) { w.timeout = d } }

func WithQueueSize(n int) Option { return func(w *Writer) { w.queue = make(chan models.LogRecord, n) } }

// NewWriter starts the delivery worker. Close stops it. A nil sink accepts
// and discards every record.
func NewWriter(sink Sink, logger logging.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = logging.Nop()
	}
	w := &Writer{
		sink:    sink,
		logger:  logger.With("module", "audit"),
		now:     time.Now,
		timeout: defaultTimeout,
		queue:   make(chan models.LogRecord, defaultQueueSize),
		errs:    make(chan error, 16),
		stopped: make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	go w.run()
	return w
}

// Errors delivers append failures. Nobody is required to read it; failures
// are dropped once its buffer is full.
func (w *Writer) Errors() <-chan error { return w.errs }

func (w *Writer) Created(ctx context.Context, e models.Entry) models.LogRecord {
	return w.Record(ctx, models.ActionCreate, &e, nil, nil)
}

func (w *Writer) Updated(ctx context.Context, before, after models.Entry) models.LogRecord {
	return w.Record(ctx, models.ActionUpdate, nil, &before, &after)
}

func (w *Writer) Deleted(ctx context.Context, e models.Entry) models.LogRecord {
	return w.Record(ctx, models.ActionDelete, &e, nil, nil)
}

// Record stamps a new LogRecord and queues it for delivery. It never blocks.
// The record is returned so callers can mirror it locally.
func (w *Writer) Record(ctx context.Context, action models.Action, entry, before, after *models.Entry) models.LogRecord {
	now := w.now().UTC()
	rec := models.LogRecord{
		ID:        logid.New(now),
		Timestamp: now,
		Action:    action,
		Entry:     entry,
		Before:    before,
		After:     after,
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.fail(ctx, rec, ErrClosed)
		return rec
	}
	select {
	case w.queue <- rec:
	default:
		w.fail(ctx, rec, ErrQueueFull)
	}
	return rec
}

// Close stops accepting records and waits until the queued ones have been
// delivered or ctx ends.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.stopped)
	for rec := range w.queue {
		w.deliver(rec)
	}
}

func (w *Writer) deliver(rec models.LogRecord) {
	if w.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.sink.AppendLog(ctx, []models.LogRecord{rec}); err != nil {
		w.fail(ctx, rec, err)
		return
	}
	w.logger.Debug(ctx, "log record appended", "id", rec.ID, "action", rec.Action, "entry", rec.EntryID())
}

func (w *Writer) fail(ctx context.Context, rec models.LogRecord, err error) {
	err = fmt.Errorf("append %s record %s: %w", rec.Action, rec.ID, err)
	w.logger.Warn(ctx, "audit append failed", "error", err)
	select {
	case w.errs <- err:
	default:
	}
}
