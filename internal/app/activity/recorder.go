package activity

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/YelzhanWeb/cafe/internal/metrics"
)

const defaultWriteTimeout = 2 * time.Second

// Recorder takes snapshots and notifications off the engine's hot path and hands them
// to the configured sinks and publisher. Persistence failures are logged and ignored.
type Recorder struct {
	logger       logger.Logger
	metrics      *metrics.Metrics
	publisher    interfaces.EventPublisher
	sinks        []interfaces.ActivitySink
	writeTimeout time.Duration

	snapshots     chan domain.Snapshot
	notifications chan interfaces.NotificationMessage
	stopped       atomic.Bool
	done          chan struct{}
}

// NewRecorder builds a recorder with room for buffer pending records. publisher may be nil.
func NewRecorder(log logger.Logger, m *metrics.Metrics, publisher interfaces.EventPublisher, buffer int, sinks ...interfaces.ActivitySink) *Recorder {
	if buffer < 1 {
		buffer = 1
	}
	return &Recorder{
		logger:        log,
		metrics:       m,
		publisher:     publisher,
		sinks:         sinks,
		writeTimeout:  defaultWriteTimeout,
		snapshots:     make(chan domain.Snapshot, buffer),
		notifications: make(chan interfaces.NotificationMessage, buffer),
		done:          make(chan struct{}),
	}
}

// RecordSnapshot never blocks. A full buffer drops the snapshot.
func (r *Recorder) RecordSnapshot(s domain.Snapshot) {
	if r.stopped.Load() {
		return
	}
	select {
	case r.snapshots <- s:
	default:
		r.metrics.ActivityDropped()
	}
}

func (r *Recorder) RecordNotification(msg interfaces.NotificationMessage) {
	if r.stopped.Load() || r.publisher == nil {
		return
	}
	select {
	case r.notifications <- msg:
	default:
		r.logger.Warn("notification_dropped", "Notification buffer full", "", map[string]interface{}{
			"customer_id": msg.CustomerID,
			"type":        string(msg.Type),
		})
	}
}

// Run drains the buffers until ctx ends, then flushes what is left and closes the sinks.
func (r *Recorder) Run(ctx context.Context) error {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			r.stopped.Store(true)
			r.flush()
			return r.closeSinks()
		case s := <-r.snapshots:
			r.write(s)
		case msg := <-r.notifications:
			r.publish(msg)
		}
	}
}

// Done is closed once Run has returned.
func (r *Recorder) Done() <-chan struct{} { return r.done }

func (r *Recorder) flush() {
	for {
		select {
		case s := <-r.snapshots:
			r.write(s)
		case msg := <-r.notifications:
			r.publish(msg)
		default:
			return
		}
	}
}

func (r *Recorder) write(s domain.Snapshot) {
	rec := &domain.ActivityRecord{Timestamp: time.Now().UTC(), State: s}

	r.logger.Info("cafe_state", Board(s), "", map[string]interface{}{
		"total_customers":   s.TotalCustomers,
		"waiting_customers": s.WaitingCustomers,
		"waiting_area":      s.Waiting,
		"brewing_area":      s.Brewing,
		"tray_area":         s.Tray,
	})

	for _, sink := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		err := sink.Write(ctx, rec)
		cancel()
		if err != nil {
			r.metrics.SinkFailed(sink.Name())
			r.logger.Error("activity_sink_failed", fmt.Sprintf("Sink %s failed", sink.Name()), "", nil, err)
		}
	}
}

func (r *Recorder) publish(msg interfaces.NotificationMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()
	if err := r.publisher.PublishNotification(ctx, msg); err != nil {
		r.logger.Error("rabbitmq_publish_failed", "Failed to publish notification", "", map[string]interface{}{
			"customer_id": msg.CustomerID,
		}, err)
	}
}

func (r *Recorder) closeSinks() error {
	var err error
	for _, sink := range r.sinks {
		err = multierr.Append(err, sink.Close())
	}
	return err
}

// Board renders a snapshot the way the café's state board reads.
func Board(s domain.Snapshot) string {
	return fmt.Sprintf("clients in café: %d, clients waiting: %d, waiting area: %s, brewing area: %s, tray area: %s",
		s.TotalCustomers, s.WaitingCustomers, areaText(s.Waiting), areaText(s.Brewing), areaText(s.Tray))
}

func areaText(c domain.DrinkCount) string {
	if c.IsZero() {
		return "empty"
	}
	return c.String()
}
