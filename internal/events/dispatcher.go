// Package events fans domain events out to delivery sinks off the request
// path. Delivery is best effort: a full queue drops the event.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"barberapp/internal/domain"
	"barberapp/internal/metrics"
)

const sinkTimeout = 5 * time.Second

// Sink delivers one event to an outside channel.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev domain.Event) error
}

type Dispatcher struct {
	queue  chan domain.Event
	sinks  []Sink
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher starts the delivery worker. Call Close to drain and stop it.
func NewDispatcher(queueSize int, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}

	d := &Dispatcher{
		queue:  make(chan domain.Event, queueSize),
		sinks:  sinks,
		logger: logger,
		done:   make(chan struct{}),
	}
	go d.run()

	return d
}

// Publish enqueues ev without blocking.
func (d *Dispatcher) Publish(ev domain.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	select {
	case d.queue <- ev:
		metrics.EventsQueueDepth.Set(float64(len(d.queue)))
	default:
		metrics.EventsDroppedTotal.Inc()
		d.logger.Warn("event queue full, dropping event",
			zap.String("type", string(ev.Type)),
			zap.String("event_id", ev.ID.String()),
		)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("event queue not drained"), ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for ev := range d.queue {
		metrics.EventsQueueDepth.Set(float64(len(d.queue)))
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev domain.Event) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := sink.Handle(ctx, ev)
		cancel()

		if err != nil {
			metrics.EventsPublishedTotal.WithLabelValues(sink.Name(), "error").Inc()
			d.logger.Warn("event delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("type", string(ev.Type)),
				zap.Error(err),
			)
			continue
		}
		metrics.EventsPublishedTotal.WithLabelValues(sink.Name(), "ok").Inc()
	}
}
