package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifebridge/internal/domain"
	"lifebridge/internal/platform/metrics"
)

// Notifier is the producer-side contract the workflow services depend on.
type Notifier interface {
	Notify(userID, message, allocationID string)
}

// Publisher forwards persisted notifications to an external broker. Optional;
// a nil publisher keeps delivery local.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Dispatcher persists and forwards notifications from a background worker.
// Notify never blocks the caller: when the buffer is full the notification is
// dropped with a warning.
type Dispatcher struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	inbox chan domain.Notification
	done  chan struct{}
	once  sync.Once
}

const defaultBuffer = 256

func NewDispatcher(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		inbox:     make(chan domain.Notification, defaultBuffer),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify queues a notification for the given user. AllocationID may be empty.
func (d *Dispatcher) Notify(userID, message, allocationID string) {
	n := domain.Notification{
		ID:           uuid.NewString(),
		UserID:       userID,
		Message:      message,
		AllocationID: allocationID,
		CreatedAt:    time.Now(),
	}
	select {
	case d.inbox <- n:
	default:
		d.logger.Warn("notification buffer full, dropping",
			"user_id", userID, "allocation_id", allocationID)
	}
}

// run drains the inbox until Close. Persistence uses a fresh context because
// the request that triggered the notification has usually finished already.
func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.store.Create(ctx, &n); err != nil {
			d.logger.Error("persist notification failed",
				"notification_id", n.ID, "user_id", n.UserID, "error", err)
			cancel()
			continue
		}
		if d.publisher != nil {
			if err := d.publisher.Publish(ctx, n); err != nil {
				d.logger.Warn("publish notification failed",
					"notification_id", n.ID, "error", err)
			}
		}
		if d.metrics != nil {
			d.metrics.NotificationsSent.Inc()
		}
		cancel()
	}
}

// Close stops accepting notifications and waits for the worker to drain the
// buffer.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.inbox) })
	<-d.done
}
