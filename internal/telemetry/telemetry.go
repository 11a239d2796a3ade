// Package telemetry provides fire-and-forget event emission for pipeline
// observability. Emitting never blocks request handling: events flow through
// a bounded queue and are dropped, counted, when the queue is full.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/fernwell/insightd/internal/logging"
)

// Event is one observability record.
type Event struct {
	Name      string
	SubjectID string
	Fields    map[string]any
	Time      time.Time
}

// Sink accepts events. Emit must never block and must never fail the caller.
type Sink interface {
	Emit(event Event)
	Close() error
}

// queueSize bounds the async queue. Overflow drops rather than blocks.
const queueSize = 256

var (
	metricsOnce sync.Once

	emittedTotal *prometheus.CounterVec
	droppedTotal prometheus.Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		emittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "telemetry",
			Name:      "events_total",
			Help:      "Telemetry events emitted, by event name.",
		}, []string{"event"})

		droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "insightd",
			Subsystem: "telemetry",
			Name:      "events_dropped_total",
			Help:      "Telemetry events dropped because the queue was full.",
		})
	})
}

// AsyncSink writes events to the structured log from a background worker.
type AsyncSink struct {
	logger *logging.Logger
	queue  chan Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewAsyncSink starts the sink's worker goroutine.
func NewAsyncSink(logger *logging.Logger) *AsyncSink {
	initMetrics()
	s := &AsyncSink{
		logger: logger,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit enqueues the event, stamping its time if unset. A full queue drops
// the event.
func (s *AsyncSink) Emit(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	select {
	case s.queue <- event:
		emittedTotal.WithLabelValues(event.Name).Inc()
	default:
		droppedTotal.Inc()
	}
}

// Close drains what is already queued and stops the worker. Callers must
// not Emit after Close.
func (s *AsyncSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.queue)
		<-s.done
	})
	return nil
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for event := range s.queue {
		fields := []zap.Field{
			zap.String("event", event.Name),
			zap.Time("event_time", event.Time),
		}
		if event.SubjectID != "" {
			fields = append(fields, zap.String("subject.id", event.SubjectID))
		}
		for k, v := range event.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		s.logger.Info(context.Background(), "telemetry", fields...)
	}
}

// NopSink discards everything, for tests and disabled telemetry.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(Event) {}

// Close implements Sink.
func (NopSink) Close() error { return nil }
