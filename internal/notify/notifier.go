// File: internal/notify/notifier.go
package notify

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// ErrRecipientGone signals a permanent delivery failure: the recipient
// blocked the bot or the chat no longer exists. The dispatcher reacts by
// pruning the subscriber.
var ErrRecipientGone = errors.New("notify: recipient gone")

// Notifier delivers one rendered alert to one subscriber
type Notifier interface {
	SendAlert(ctx context.Context, subscriber int64, text string) error
}

// LogNotifier writes alerts to the application log instead of delivering
// them. Used when the Telegram channel is disabled (dry runs, operations).
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: utils.GetLogger()}
}

// SendAlert logs the alert and always succeeds
func (n *LogNotifier) SendAlert(ctx context.Context, subscriber int64, text string) error {
	n.logger.WithFields(logrus.Fields{
		"subscriber": subscriber,
		"alert":      text,
	}).Info("Alert (log notifier)")
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
