// File: internal/state/manager.go
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/filter"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/metrics"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/storage"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// persistTimeout bounds each durable write so a slow backend cannot stall
// command handling or the monitor cycle.
const persistTimeout = 10 * time.Second

// Manager owns the in-memory mirror of the persisted state. Every mutation
// funnels through it and is followed by a durable whole-object write, so
// the persist-after-mutation invariant lives in one place.
//
// A persistence failure is logged and the in-memory state stays
// authoritative; the next successful write repairs the gap. Data written
// between a failed save and a crash is lost, which is the accepted risk.
type Manager struct {
	store   storage.Store
	epsilon float64
	logger  *logrus.Logger

	mu    sync.RWMutex
	state *models.PersistedState

	metricsManager *metrics.Manager
}

// NewManager creates a state manager backed by the given store
func NewManager(store storage.Store, epsilon float64) *Manager {
	if epsilon <= 0 {
		epsilon = filter.DefaultEpsilon
	}
	return &Manager{
		store:   store,
		epsilon: epsilon,
		logger:  utils.GetLogger(),
		state:   models.NewPersistedState(),
	}
}

// SetMetricsManager attaches a metrics manager for state write counters
func (m *Manager) SetMetricsManager(mm *metrics.Manager) {
	m.metricsManager = mm
}

// Load restores the persisted state. A missing state is a normal first run.
func (m *Manager) Load(ctx context.Context) error {
	loaded, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			m.logger.Info("No persisted state found, starting fresh")
			return nil
		}
		return err
	}

	m.mu.Lock()
	m.state = loaded
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"subscribers": len(loaded.Subscribers),
		"has_cursor":  loaded.Cursor != "",
	}).Info("Persisted state restored")
	return nil
}

// Flush forces a durable write of the current state
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.RLock()
	snapshot := m.state.Clone()
	m.mu.RUnlock()

	err := m.store.Save(ctx, snapshot)
	m.recordWrite(err)
	return err
}

// Cursor returns the last processed transaction signature, empty if unset
func (m *Manager) Cursor() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Cursor
}

// SetCursor advances the cursor and persists. The cursor never moves back
// to empty; callers only hand it newer signatures.
func (m *Manager) SetCursor(ctx context.Context, signature string) {
	if signature == "" {
		return
	}
	m.mu.Lock()
	m.state.Cursor = signature
	m.mu.Unlock()
	m.persist(ctx)
}

// IsSubscribed reports whether the chat is in the subscriber set
func (m *Manager) IsSubscribed(id int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.state.Subscribers[id]
	return ok
}

// Subscribers returns the current subscriber ids
func (m *Manager) Subscribers() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.state.Subscribers))
	for id := range m.state.Subscribers {
		ids = append(ids, id)
	}
	return ids
}

// SubscriberCount returns the number of active subscribers
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.Subscribers)
}

// SettingsFor returns a snapshot of a subscriber's filter settings
func (m *Manager) SettingsFor(id int64) (*models.FilterSettings, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	settings, ok := m.state.Subscribers[id]
	if !ok {
		return nil, false
	}
	return settings.Clone(), true
}

// Subscribe adds a chat to the subscriber set with default (fail-closed)
// settings. Returns false if it was already subscribed.
func (m *Manager) Subscribe(ctx context.Context, id int64) bool {
	m.mu.Lock()
	if _, ok := m.state.Subscribers[id]; ok {
		m.mu.Unlock()
		return false
	}
	m.state.Subscribers[id] = models.NewFilterSettings()
	count := len(m.state.Subscribers)
	m.mu.Unlock()

	m.persist(ctx)
	m.updateSubscriberGauge(count)
	m.logger.WithField("chat_id", id).Info("Subscriber added")
	return true
}

// Unsubscribe removes a chat and its settings in one operation. Returns
// false if it was not subscribed.
func (m *Manager) Unsubscribe(ctx context.Context, id int64) bool {
	m.mu.Lock()
	if _, ok := m.state.Subscribers[id]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.state.Subscribers, id)
	count := len(m.state.Subscribers)
	m.mu.Unlock()

	m.persist(ctx)
	m.updateSubscriberGauge(count)
	m.logger.WithField("chat_id", id).Info("Subscriber removed")
	return true
}

// SetMode switches a subscriber's amount policy
func (m *Manager) SetMode(ctx context.Context, id int64, mode models.FilterMode) error {
	err := m.mutate(ctx, id, func(s *models.FilterSettings) bool {
		s.Mode = mode
		return true
	})
	return err
}

// SetThreshold sets the minimum-amount threshold and switches the
// subscriber to threshold mode
func (m *Manager) SetThreshold(ctx context.Context, id int64, threshold float64) error {
	return m.mutate(ctx, id, func(s *models.FilterSettings) bool {
		s.Mode = models.FilterModeThreshold
		s.Threshold = threshold
		return true
	})
}

// AddAmount appends a fixed amount to the exact-set list, deduplicating
// with epsilon tolerance. Returns false if an equal entry already exists.
func (m *Manager) AddAmount(ctx context.Context, id int64, amount float64) (bool, error) {
	var added bool
	err := m.mutate(ctx, id, func(s *models.FilterSettings) bool {
		s.Amounts, added = filter.AddAmount(s.Amounts, amount, m.epsilon)
		return added
	})
	return added, err
}

// EditAmount replaces a configured amount, located by epsilon equality
func (m *Manager) EditAmount(ctx context.Context, id int64, oldAmount, newAmount float64) (bool, error) {
	var changed bool
	err := m.mutate(ctx, id, func(s *models.FilterSettings) bool {
		s.Amounts, changed = filter.ReplaceAmount(s.Amounts, oldAmount, newAmount, m.epsilon)
		return changed
	})
	return changed, err
}

// DeleteAmount removes a configured amount, located by epsilon equality
func (m *Manager) DeleteAmount(ctx context.Context, id int64, amount float64) (bool, error) {
	var removed bool
	err := m.mutate(ctx, id, func(s *models.FilterSettings) bool {
		s.Amounts, removed = filter.RemoveAmount(s.Amounts, amount, m.epsilon)
		return removed
	})
	return removed, err
}

// Block adds a counterparty address to the subscriber's blacklist
func (m *Manager) Block(ctx context.Context, id int64, address string) (bool, error) {
	var added bool
	err := m.mutate(ctx, id, func(s *models.FilterSettings) bool {
		if s.IsBlacklisted(address) {
			return false
		}
		s.Blacklist = append(s.Blacklist, address)
		added = true
		return true
	})
	return added, err
}

// Unblock removes a counterparty address from the subscriber's blacklist
func (m *Manager) Unblock(ctx context.Context, id int64, address string) (bool, error) {
	var removed bool
	err := m.mutate(ctx, id, func(s *models.FilterSettings) bool {
		for i, a := range s.Blacklist {
			if a == address {
				s.Blacklist = append(s.Blacklist[:i], s.Blacklist[i+1:]...)
				removed = true
				return true
			}
		}
		return false
	})
	return removed, err
}

// Snapshot returns a deep copy of the whole state for read-only consumers
func (m *Manager) Snapshot() *models.PersistedState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// mutate applies fn to a subscriber's settings and persists when fn
// reports a change
func (m *Manager) mutate(ctx context.Context, id int64, fn func(*models.FilterSettings) bool) error {
	m.mu.Lock()
	settings, ok := m.state.Subscribers[id]
	if !ok {
		m.mu.Unlock()
		return utils.NewAppError(utils.ErrCodeNotFound, "Not subscribed", "")
	}
	changed := fn(settings)
	m.mu.Unlock()

	if changed {
		m.persist(ctx)
	}
	return nil
}

// persist writes the current state. Failures are logged, not returned: the
// in-memory state remains authoritative until the next successful write.
func (m *Manager) persist(ctx context.Context) {
	m.mu.RLock()
	snapshot := m.state.Clone()
	m.mu.RUnlock()

	saveCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	err := m.store.Save(saveCtx, snapshot)
	m.recordWrite(err)
	if err != nil {
		m.logger.WithError(err).Error("Failed to persist state, in-memory state stays authoritative")
	}
}

func (m *Manager) recordWrite(err error) {
	if m.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metricsManager.GetPrometheusMetrics().RecordStateWrite(status)
}

func (m *Manager) updateSubscriberGauge(count int) {
	if m.metricsManager == nil {
		return
	}
	m.metricsManager.GetPrometheusMetrics().UpdateSubscriberCount(count)
}
