// File: internal/notify/dispatcher.go
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/filter"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/metrics"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/state"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// DefaultDeliveryTimeout bounds one delivery attempt so a slow recipient
// cannot stall the poll cycle.
const DefaultDeliveryTimeout = 10 * time.Second

// Dispatcher fans one transfer event out to every subscriber whose filter
// accepts it. Delivery is at-most-once per poll cycle: a transient failure
// is logged and skipped, never queued or retried.
type Dispatcher struct {
	notifier Notifier
	state    *state.Manager
	engine   *filter.Engine
	timeout  time.Duration
	logger   *logrus.Logger

	metricsManager *metrics.Manager
}

// DispatchResult summarizes one fan-out pass
type DispatchResult struct {
	Sent       int `json:"sent"`
	Suppressed int `json:"suppressed"`
	Failed     int `json:"failed"`
	Pruned     int `json:"pruned"`
}

// NewDispatcher creates a notification dispatcher
func NewDispatcher(notifier Notifier, stateManager *state.Manager, engine *filter.Engine, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &Dispatcher{
		notifier: notifier,
		state:    stateManager,
		engine:   engine,
		timeout:  timeout,
		logger:   utils.GetLogger(),
	}
}

// SetMetricsManager attaches a metrics manager for delivery counters
func (d *Dispatcher) SetMetricsManager(m *metrics.Manager) {
	d.metricsManager = m
}

// Dispatch evaluates the event per subscriber and delivers alerts to those
// whose filters accept it. Each failure is isolated to its subscriber: a
// permanent failure prunes that subscriber (set and settings together,
// durably persisted), anything else is logged and skipped for this cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, event *models.TransferEvent) *DispatchResult {
	result := &DispatchResult{}
	text := FormatAlert(event)

	for _, id := range d.state.Subscribers() {
		settings, ok := d.state.SettingsFor(id)
		if !ok {
			// Pruned by an earlier delivery in this same pass.
			continue
		}

		if !d.engine.Evaluate(event, settings) {
			result.Suppressed++
			continue
		}

		start := time.Now()
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.notifier.SendAlert(sendCtx, id, text)
		cancel()

		switch {
		case err == nil:
			result.Sent++
			d.recordSent(time.Since(start))
		case errors.Is(err, ErrRecipientGone):
			result.Pruned++
			d.recordFailure("gone")
			d.state.Unsubscribe(ctx, id)
			d.recordPruned()
			d.logger.WithField("chat_id", id).Info("Subscriber unreachable, pruned")
		default:
			result.Failed++
			d.recordFailure("transient")
			d.logger.WithFields(logrus.Fields{
				"chat_id":   id,
				"signature": event.Signature,
				"error":     err.Error(),
			}).Warn("Alert delivery failed, skipping this cycle")
		}
	}

	return result
}

func (d *Dispatcher) recordSent(duration time.Duration) {
	if d.metricsManager == nil {
		return
	}
	d.metricsManager.GetPrometheusMetrics().RecordAlertSent(duration)
}

func (d *Dispatcher) recordFailure(reason string) {
	if d.metricsManager == nil {
		return
	}
	d.metricsManager.GetPrometheusMetrics().RecordAlertFailure(reason)
}

func (d *Dispatcher) recordPruned() {
	if d.metricsManager == nil {
		return
	}
	d.metricsManager.GetPrometheusMetrics().RecordSubscriberPruned()
}
