// File: internal/monitor/monitor_test.go
package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/filter"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/ledger"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/notify"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/state"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/storage"
)

// memStore is an in-memory storage.Store for monitor tests
type memStore struct {
	mu    sync.Mutex
	state *models.PersistedState
	saves int
}

func (s *memStore) Connect() error           { return nil }
func (s *memStore) Close() error             { return nil }
func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) Load(context.Context) (*models.PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, storage.ErrNotFound
	}
	return s.state.Clone(), nil
}

func (s *memStore) Save(_ context.Context, st *models.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st.Clone()
	s.saves++
	return nil
}

func (s *memStore) savedCursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ""
	}
	return s.state.Cursor
}

var _ storage.Store = (*memStore)(nil)

// fakeLedger serves scripted listings and details
type fakeLedger struct {
	listed   []ledger.SignatureInfo
	listErr  error
	details  map[string]*ledger.TransactionDetail
	fetchErr map[string]error
}

func (f *fakeLedger) ListSignatures(context.Context, int) ([]ledger.SignatureInfo, error) {
	return f.listed, f.listErr
}

func (f *fakeLedger) GetTransactionDetail(_ context.Context, signature string) (*ledger.TransactionDetail, error) {
	if err, ok := f.fetchErr[signature]; ok {
		return nil, err
	}
	d, ok := f.details[signature]
	if !ok {
		return nil, ledger.ErrTransactionNotFound
	}
	return d, nil
}

func (f *fakeLedger) Health(context.Context) error            { return nil }
func (f *fakeLedger) Balance(context.Context) (float64, error) { return 0, nil }
func (f *fakeLedger) Close() error                             { return nil }

var _ ledger.Client = (*fakeLedger)(nil)

// recordingNotifier captures delivered alerts in order
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []string
	fail  map[int64]error
}

func (n *recordingNotifier) SendAlert(_ context.Context, subscriber int64, text string) error {
	if err, ok := n.fail[subscriber]; ok {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

func (n *recordingNotifier) alerts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

var _ notify.Notifier = (*recordingNotifier)(nil)

func transferDetail(signature string, lamports uint64) *ledger.TransactionDetail {
	return &ledger.TransactionDetail{
		Signature:    signature,
		AccountKeys:  []string{otherAccount, watchedAccount},
		PreBalances:  []uint64{lamports, 0},
		PostBalances: []uint64{0, lamports},
	}
}

func newTestMonitor(t *testing.T, lc *fakeLedger, notifier notify.Notifier) (*AccountMonitor, *state.Manager, *memStore) {
	t.Helper()

	store := &memStore{}
	stateMgr := state.NewManager(store, filter.DefaultEpsilon)
	dispatcher := notify.NewDispatcher(notifier, stateMgr, filter.NewEngine(filter.DefaultEpsilon), time.Second)

	am := NewAccountMonitor(&MonitorConfig{
		PollInterval: time.Minute,
		PageSize:     10,
		Tolerance:    DefaultTolerance,
	}, lc, stateMgr, dispatcher, watchedAccount)

	return am, stateMgr, store
}

func TestRunCycleBaselinesCursorOnFirstRun(t *testing.T) {
	notifier := &recordingNotifier{}
	lc := &fakeLedger{
		listed: listing("S3", "S2", "S1"),
		details: map[string]*ledger.TransactionDetail{
			"S3": transferDetail("S3", 1_000_000_000),
		},
	}
	am, stateMgr, store := newTestMonitor(t, lc, notifier)
	require.True(t, stateMgr.Subscribe(context.Background(), 100))
	require.NoError(t, stateMgr.SetThreshold(context.Background(), 100, 0.1))

	require.NoError(t, am.runCycle(context.Background()))

	// Pre-existing history produces no alerts; the cursor jumps to the newest
	// signature.
	assert.Equal(t, "S3", stateMgr.Cursor())
	assert.Equal(t, "S3", store.savedCursor())
	assert.Empty(t, notifier.alerts())
}

func TestRunCycleProcessesNewTransactionsOldestFirst(t *testing.T) {
	notifier := &recordingNotifier{}
	lc := &fakeLedger{
		listed: listing("S3", "S2", "S1"),
		details: map[string]*ledger.TransactionDetail{
			"S2": transferDetail("S2", 1_000_000_000),
			"S3": transferDetail("S3", 2_000_000_000),
		},
	}
	am, stateMgr, store := newTestMonitor(t, lc, notifier)
	ctx := context.Background()
	require.True(t, stateMgr.Subscribe(ctx, 100))
	require.NoError(t, stateMgr.SetThreshold(ctx, 100, 0.1))
	stateMgr.SetCursor(ctx, "S1")

	require.NoError(t, am.runCycle(ctx))

	alerts := notifier.alerts()
	require.Len(t, alerts, 2)
	assert.Contains(t, alerts[0], "S2")
	assert.Contains(t, alerts[1], "S3")

	assert.Equal(t, "S3", stateMgr.Cursor())
	assert.Equal(t, "S3", store.savedCursor())

	stats := am.GetStats()
	assert.Equal(t, uint64(2), stats.SignaturesProcessed)
	assert.Equal(t, uint64(2), stats.TransfersDetected)
	assert.Equal(t, uint64(2), stats.AlertsSent)
}

func TestRunCycleIsolatesPerItemFailures(t *testing.T) {
	notifier := &recordingNotifier{}
	lc := &fakeLedger{
		listed: listing("S3", "S2", "S1"),
		details: map[string]*ledger.TransactionDetail{
			"S3": transferDetail("S3", 1_000_000_000),
		},
		fetchErr: map[string]error{
			"S2": errors.New("rpc timeout"),
		},
	}
	am, stateMgr, _ := newTestMonitor(t, lc, notifier)
	ctx := context.Background()
	require.True(t, stateMgr.Subscribe(ctx, 100))
	require.NoError(t, stateMgr.SetThreshold(ctx, 100, 0.1))
	stateMgr.SetCursor(ctx, "S1")

	require.NoError(t, am.runCycle(ctx))

	// S2 failed, S3 was still processed and the cursor advanced past both.
	alerts := notifier.alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "S3")
	assert.Equal(t, "S3", stateMgr.Cursor())
	assert.Equal(t, uint64(1), am.GetStats().ErrorCount)
}

func TestRunCycleSkipsVanishedTransactions(t *testing.T) {
	notifier := &recordingNotifier{}
	lc := &fakeLedger{
		listed:  listing("S2", "S1"),
		details: map[string]*ledger.TransactionDetail{},
	}
	am, stateMgr, _ := newTestMonitor(t, lc, notifier)
	ctx := context.Background()
	stateMgr.SetCursor(ctx, "S1")

	require.NoError(t, am.runCycle(ctx))

	// A not-found detail is a skip, not an error.
	assert.Empty(t, notifier.alerts())
	assert.Equal(t, "S2", stateMgr.Cursor())
	assert.Equal(t, uint64(0), am.GetStats().ErrorCount)
}

func TestRunCycleListFailureLeavesCursorUntouched(t *testing.T) {
	notifier := &recordingNotifier{}
	lc := &fakeLedger{listErr: errors.New("endpoint down")}
	am, stateMgr, _ := newTestMonitor(t, lc, notifier)
	ctx := context.Background()
	stateMgr.SetCursor(ctx, "S1")

	err := am.runCycle(ctx)
	require.Error(t, err)
	assert.Equal(t, "S1", stateMgr.Cursor())
}

func TestRunCycleEmptyListingIsANoop(t *testing.T) {
	notifier := &recordingNotifier{}
	lc := &fakeLedger{}
	am, stateMgr, _ := newTestMonitor(t, lc, notifier)

	require.NoError(t, am.runCycle(context.Background()))
	assert.Equal(t, "", stateMgr.Cursor())
}

func TestMonitorStartStop(t *testing.T) {
	notifier := &recordingNotifier{}
	lc := &fakeLedger{listed: listing("S1")}
	am, _, _ := newTestMonitor(t, lc, notifier)

	ctx := context.Background()
	require.NoError(t, am.Start(ctx))
	assert.True(t, am.IsRunning())

	// Double start is rejected.
	err := am.Start(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "already running"))

	require.NoError(t, am.Stop())
	assert.False(t, am.IsRunning())

	// Stop is idempotent.
	require.NoError(t, am.Stop())
}
