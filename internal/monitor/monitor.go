// File: internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/ledger"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/metrics"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/notify"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/state"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// MonitorConfig holds monitor configuration
type MonitorConfig struct {
	PollInterval time.Duration `json:"poll_interval"`
	PageSize     int           `json:"page_size"`
	ItemDelay    time.Duration `json:"item_delay"`
	Tolerance    float64       `json:"tolerance"`
}

// AccountMonitor polls the monitored account's signature history on a
// fixed interval and drives the extract, filter and dispatch pipeline.
//
// Cycles never overlap: each tick runs one cycle to completion inside the
// loop goroutine before the next tick is observed.
type AccountMonitor struct {
	config     *MonitorConfig
	ledger     ledger.Client
	state      *state.Manager
	dispatcher *notify.Dispatcher
	extractor  *TransferExtractor
	logger     *logrus.Logger

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	stats          MonitorStats
	metricsManager *metrics.Manager
}

// MonitorStats provides monitoring statistics
type MonitorStats struct {
	StartTime           time.Time  `json:"start_time"`
	IsRunning           bool       `json:"is_running"`
	CyclesCompleted     uint64     `json:"cycles_completed"`
	SignaturesProcessed uint64     `json:"signatures_processed"`
	TransfersDetected   uint64     `json:"transfers_detected"`
	AlertsSent          uint64     `json:"alerts_sent"`
	SubscribersPruned   uint64     `json:"subscribers_pruned"`
	Cursor              string     `json:"cursor"`
	ErrorCount          uint64     `json:"error_count"`
	LastError           *string    `json:"last_error,omitempty"`
	LastErrorTime       *time.Time `json:"last_error_time,omitempty"`
	LastCycleTime       *time.Time `json:"last_cycle_time,omitempty"`
}

// HealthStatus provides health information
type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	LedgerHealthy bool     `json:"ledger_healthy"`
	Issues        []string `json:"issues,omitempty"`
}

// NewAccountMonitor creates a new account monitor
func NewAccountMonitor(
	config *MonitorConfig,
	client ledger.Client,
	stateManager *state.Manager,
	dispatcher *notify.Dispatcher,
	account string,
) *AccountMonitor {
	return &AccountMonitor{
		config:     config,
		ledger:     client,
		state:      stateManager,
		dispatcher: dispatcher,
		extractor:  NewTransferExtractor(account, config.Tolerance),
		logger:     utils.GetLogger(),
		stopChan:   make(chan struct{}),
	}
}

// SetMetricsManager attaches a metrics manager for cycle counters
func (am *AccountMonitor) SetMetricsManager(m *metrics.Manager) {
	am.metricsManager = m
}

// Start starts the monitor loop
func (am *AccountMonitor) Start(ctx context.Context) error {
	am.mu.Lock()
	defer am.mu.Unlock()

	if am.running {
		return utils.NewAppError(utils.ErrCodeInternal, "Monitor already running", "")
	}

	am.running = true
	am.stats.StartTime = time.Now()
	am.stats.IsRunning = true

	am.wg.Add(1)
	go am.monitoringLoop(ctx)

	am.logger.WithFields(logrus.Fields{
		"poll_interval": am.config.PollInterval,
		"page_size":     am.config.PageSize,
	}).Info("Account monitor started")

	return nil
}

// Stop stops the monitor, letting any in-flight cycle finish, and flushes
// the persisted state
func (am *AccountMonitor) Stop() error {
	am.mu.Lock()
	if !am.running {
		am.mu.Unlock()
		return nil
	}
	am.running = false
	am.stats.IsRunning = false
	am.mu.Unlock()

	am.stopOnce.Do(func() {
		close(am.stopChan)
	})
	am.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := am.state.Flush(ctx); err != nil {
		am.logger.WithError(err).Error("Failed to flush state on shutdown")
	}

	am.logger.Info("Account monitor stopped")
	return nil
}

// IsRunning returns whether the monitor is running
func (am *AccountMonitor) IsRunning() bool {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return am.running
}

// GetStats returns a snapshot of monitor statistics
func (am *AccountMonitor) GetStats() *MonitorStats {
	am.mu.RLock()
	defer am.mu.RUnlock()
	stats := am.stats
	stats.Cursor = am.state.Cursor()
	return &stats
}

// GetHealth returns monitor health
func (am *AccountMonitor) GetHealth() *HealthStatus {
	health := &HealthStatus{Healthy: true, LedgerHealthy: true}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := am.ledger.Health(ctx); err != nil {
		health.Healthy = false
		health.LedgerHealthy = false
		health.Issues = append(health.Issues, err.Error())
	}
	if !am.IsRunning() {
		health.Healthy = false
		health.Issues = append(health.Issues, "monitor not running")
	}
	return health
}

// monitoringLoop multiplexes the poll ticker and the stop signal. The
// cycle body runs inline, so a tick that arrives while a cycle is still in
// flight is simply dropped by the ticker.
func (am *AccountMonitor) monitoringLoop(ctx context.Context) {
	defer am.wg.Done()

	ticker := time.NewTicker(am.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			am.logger.Info("Monitor loop stopped by context")
			return
		case <-am.stopChan:
			am.logger.Info("Monitor loop stopped by stop signal")
			return
		case <-ticker.C:
			start := time.Now()
			if err := am.runCycle(ctx); err != nil {
				am.recordError(err)
				am.logger.WithError(err).Warn("Poll cycle failed, retrying next tick")
			} else if am.metricsManager != nil {
				am.metricsManager.GetPrometheusMetrics().RecordPollCycle(time.Since(start))
			}
		}
	}
}

// runCycle runs one full poll cycle: fetch, diff, process, persist
func (am *AccountMonitor) runCycle(ctx context.Context) error {
	listed, err := am.ledger.ListSignatures(ctx, am.config.PageSize)
	if err != nil {
		am.recordPollError("fetch")
		return err
	}
	if len(listed) == 0 {
		return nil
	}

	cursor := am.state.Cursor()
	if cursor == "" {
		// First run: baseline to the newest signature without alerting on
		// pre-existing history.
		am.state.SetCursor(ctx, listed[0].Signature)
		am.logger.WithField("cursor", listed[0].Signature).Info("Cursor baselined, skipping history")
		return nil
	}

	fresh := DiffSignatures(listed, cursor)
	if len(fresh) == 0 {
		am.finishCycle("")
		return nil
	}

	am.logger.WithField("count", len(fresh)).Debug("New transactions discovered")

	// Oldest first. Each item's failure is isolated: the cursor still
	// advances past a transaction whose processing was attempted.
	lastAttempted := ""
	for i, info := range fresh {
		if err := am.processSignature(ctx, info); err != nil {
			am.recordError(err)
			am.logger.WithFields(logrus.Fields{
				"signature": info.Signature,
				"error":     err.Error(),
			}).Warn("Failed to process transaction, continuing cycle")
		}
		lastAttempted = info.Signature

		// Throttle between items to avoid hammering the RPC endpoint and
		// the notifier.
		if i < len(fresh)-1 && am.config.ItemDelay > 0 {
			select {
			case <-time.After(am.config.ItemDelay):
			case <-am.stopChan:
				am.finishCycle(lastAttempted)
				return nil
			case <-ctx.Done():
				am.finishCycle(lastAttempted)
				return ctx.Err()
			}
		}
	}

	am.finishCycle(lastAttempted)
	return nil
}

// processSignature handles one new transaction: detail fetch, extraction,
// filtered dispatch
func (am *AccountMonitor) processSignature(ctx context.Context, info ledger.SignatureInfo) error {
	am.mu.Lock()
	am.stats.SignaturesProcessed++
	am.mu.Unlock()
	if am.metricsManager != nil {
		am.metricsManager.GetPrometheusMetrics().RecordSignatureProcessed()
	}

	detail, err := am.ledger.GetTransactionDetail(ctx, info.Signature)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			am.logger.WithField("signature", info.Signature).Warn("Transaction vanished from ledger, skipping")
			return nil
		}
		return err
	}

	event := am.extractor.Extract(detail)
	if event == nil {
		return nil
	}

	am.mu.Lock()
	am.stats.TransfersDetected++
	am.mu.Unlock()
	if am.metricsManager != nil {
		am.metricsManager.GetPrometheusMetrics().RecordTransferDetected(string(event.Direction))
	}

	result := am.dispatcher.Dispatch(ctx, event)
	am.mu.Lock()
	am.stats.AlertsSent += uint64(result.Sent)
	am.stats.SubscribersPruned += uint64(result.Pruned)
	am.mu.Unlock()

	am.logger.WithFields(logrus.Fields{
		"signature":  info.Signature,
		"direction":  event.Direction,
		"amount":     event.Amount,
		"sent":       result.Sent,
		"suppressed": result.Suppressed,
	}).Info("Transfer dispatched")

	return nil
}

// finishCycle advances the cursor past everything attempted this cycle and
// writes the checkpoint
func (am *AccountMonitor) finishCycle(lastAttempted string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if lastAttempted != "" {
		am.state.SetCursor(ctx, lastAttempted)
	}

	now := time.Now()
	am.mu.Lock()
	am.stats.CyclesCompleted++
	am.stats.LastCycleTime = &now
	am.mu.Unlock()
}

func (am *AccountMonitor) recordError(err error) {
	now := time.Now()
	msg := err.Error()
	am.mu.Lock()
	am.stats.ErrorCount++
	am.stats.LastError = &msg
	am.stats.LastErrorTime = &now
	am.mu.Unlock()
}

func (am *AccountMonitor) recordPollError(stage string) {
	if am.metricsManager == nil {
		return
	}
	am.metricsManager.GetPrometheusMetrics().RecordPollError(stage)
}
