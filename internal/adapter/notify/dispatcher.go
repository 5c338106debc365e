package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/MikeRez0/novacart/internal/adapter/config"
	"github.com/MikeRez0/novacart/internal/adapter/metrics"
	"github.com/MikeRez0/novacart/internal/core/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	sendAttempts = 3
	retryPause   = time.Second
)

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher queues order notifications and delivers them from a small
// worker pool, so checkout never waits on a mail relay or broker.
type Dispatcher struct {
	logger     *zap.Logger
	sender     Sender
	metrics    *metrics.Registry
	queue      chan Message
	adminEmail string
	workers    int
	retryPause time.Duration
}

func NewDispatcher(cfg *config.Notify, sender Sender, reg *metrics.Registry, log *zap.Logger) (*Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("notification sender is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		logger:     log,
		sender:     sender,
		metrics:    reg,
		queue:      make(chan Message, size),
		adminEmail: cfg.AdminEmail,
		workers:    workers,
		retryPause: retryPause,
	}, nil
}

// OrderPlaced enqueues the customer confirmation and, when configured, the
// admin copy. A full queue drops the message.
func (d *Dispatcher) OrderPlaced(order *domain.Order, recipient domain.Recipient) {
	d.enqueue(newMessage(KindOrderConfirmation, recipient.Email, order, recipient))
	if d.adminEmail != "" {
		d.enqueue(newMessage(KindAdminNewOrder, d.adminEmail, order, recipient))
	}
}

func (d *Dispatcher) enqueue(msg Message) {
	select {
	case d.queue <- msg:
		d.logger.Debug("Notification queued",
			zap.String("order", msg.OrderNumber), zap.String("kind", string(msg.Kind)))
	default:
		d.logger.Warn("Notification queue full, dropped",
			zap.String("order", msg.OrderNumber), zap.String("kind", string(msg.Kind)))
		d.count("dropped")
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for range d.workers {
		g.Go(func() error {
			for {
				select {
				case msg := <-d.queue:
					d.deliver(ctx, msg)
				case <-ctx.Done():
					d.logger.Debug("Finished worker")
					return nil
				}
			}
		})
	}
	return g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		err := d.sender.Send(ctx, msg)
		if err == nil {
			d.count("sent")
			return
		}
		d.logger.Warn("Notification send failed",
			zap.String("order", msg.OrderNumber), zap.String("to", msg.To),
			zap.Int("attempt", attempt), zap.Error(err))

		if attempt == sendAttempts {
			break
		}
		t := time.NewTimer(d.retryPause * time.Duration(attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			d.count("failed")
			return
		}
	}
	d.logger.Error("Notification abandoned",
		zap.String("order", msg.OrderNumber), zap.String("to", msg.To))
	d.count("failed")
}

func (d *Dispatcher) count(result string) {
	if d.metrics != nil {
		d.metrics.Notifications.WithLabelValues(result).Inc()
	}
}
