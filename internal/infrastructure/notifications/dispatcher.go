package notifications

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/you/safetyauth/domain"
)

// Dispatcher implements domain.Notifier on top of a NotificationService.
// Deliveries run in the background; failures are logged and dropped.
type Dispatcher struct {
	sender domain.NotificationService
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a new asynchronous notifier
func NewDispatcher(sender domain.NotificationService, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.L()
	}
	return &Dispatcher{sender: sender, logger: logger.Named("notifier")}
}

// Deliver implements domain.Notifier
func (d *Dispatcher) Deliver(_ context.Context, msg domain.Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := send(d.sender, msg); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("method", string(msg.Method)),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until in-flight deliveries finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func send(sender domain.NotificationService, msg domain.Notification) error {
	switch msg.Method {
	case domain.TwoFactorEmail:
		if msg.Email == "" {
			return errors.New("no email address on file")
		}
		return sender.SendEmail(msg.Email, msg.Subject, msg.Body)
	default:
		if msg.Phone == "" {
			return errors.New("no phone number on file")
		}
		return sender.SendSMS(msg.Phone, msg.Body)
	}
}

var _ domain.Notifier = (*Dispatcher)(nil)
