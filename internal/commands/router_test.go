// File: internal/commands/router_test.go
package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/filter"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/state"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/storage"
)

// systemProgram is a syntactically valid base58 Solana address
const systemProgram = "11111111111111111111111111111111"

// memStore is an in-memory storage.Store for router tests
type memStore struct {
	mu    sync.Mutex
	state *models.PersistedState
}

func (s *memStore) Connect() error             { return nil }
func (s *memStore) Close() error               { return nil }
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
	return nil
}

var _ storage.Store = (*memStore)(nil)

func newTestRouter(t *testing.T, inputTimeout time.Duration) (*Router, *state.Manager) {
	t.Helper()
	stateMgr := state.NewManager(&memStore{}, filter.DefaultEpsilon)
	return NewRouter(stateMgr, inputTimeout), stateMgr
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()

	reply := r.HandleMessage(ctx, 42, "/subscribe")
	assert.Contains(t, reply, "Subscribed")
	assert.True(t, stateMgr.IsSubscribed(42))

	reply = r.HandleMessage(ctx, 42, "/subscribe")
	assert.Contains(t, reply, "already subscribed")

	reply = r.HandleMessage(ctx, 42, "/unsubscribe")
	assert.Contains(t, reply, "Unsubscribed")
	assert.False(t, stateMgr.IsSubscribed(42))

	reply = r.HandleMessage(ctx, 42, "/stop")
	assert.Contains(t, reply, "not subscribed")
}

func TestStartAliasesSubscribe(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)

	r.HandleMessage(context.Background(), 42, "/start")
	assert.True(t, stateMgr.IsSubscribed(42))
}

func TestBotMentionSuffixStripped(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)

	r.HandleMessage(context.Background(), 42, "/subscribe@RevsTrackerBot")
	assert.True(t, stateMgr.IsSubscribed(42))
}

func TestUnknownCommand(t *testing.T) {
	r, _ := newTestRouter(t, 0)

	reply := r.HandleMessage(context.Background(), 42, "/frobnicate")
	assert.Contains(t, reply, "Unknown command")
	assert.Contains(t, reply, "/help")
}

func TestHelp(t *testing.T) {
	r, _ := newTestRouter(t, 0)

	reply := r.HandleMessage(context.Background(), 42, "/help")
	assert.Contains(t, reply, "/addamount")
	assert.Contains(t, reply, "/setthreshold")
	assert.Contains(t, reply, "/block")
}

func TestSettingsRequiresSubscription(t *testing.T) {
	r, _ := newTestRouter(t, 0)

	reply := r.HandleMessage(context.Background(), 42, "/settings")
	assert.Contains(t, reply, "not subscribed")
}

func TestSettingsShowsConfiguration(t *testing.T) {
	r, _ := newTestRouter(t, 0)
	ctx := context.Background()

	r.HandleMessage(ctx, 42, "/subscribe")
	r.HandleMessage(ctx, 42, "/addamount 0.5")
	r.HandleMessage(ctx, 42, "/block "+systemProgram)

	reply := r.HandleMessage(ctx, 42, "/settings")
	assert.Contains(t, reply, "Mode: exact")
	assert.Contains(t, reply, "0.5")
	assert.Contains(t, reply, systemProgram)
}

func TestModeCommand(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")

	reply := r.HandleMessage(ctx, 42, "/mode threshold")
	assert.Contains(t, reply, "threshold")
	settings, _ := stateMgr.SettingsFor(42)
	assert.Equal(t, models.FilterModeThreshold, settings.Mode)

	reply = r.HandleMessage(ctx, 42, "/mode exact")
	assert.Contains(t, reply, "exact")

	reply = r.HandleMessage(ctx, 42, "/mode sideways")
	assert.Contains(t, reply, "Usage:")

	reply = r.HandleMessage(ctx, 42, "/mode")
	assert.Contains(t, reply, "Usage:")
}

func TestSetThreshold(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")

	reply := r.HandleMessage(ctx, 42, "/setthreshold 2.5")
	assert.Contains(t, reply, "2.5 SOL")

	settings, _ := stateMgr.SettingsFor(42)
	assert.Equal(t, models.FilterModeThreshold, settings.Mode)
	assert.Equal(t, 2.5, settings.Threshold)

	reply = r.HandleMessage(ctx, 42, "/setthreshold nope")
	assert.Contains(t, reply, "positive amount")

	reply = r.HandleMessage(ctx, 42, "/setthreshold -1")
	assert.Contains(t, reply, "positive amount")
}

func TestAddAmountInline(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")

	reply := r.HandleMessage(ctx, 42, "/addamount 0.5")
	assert.Contains(t, reply, "Added 0.5 SOL")

	reply = r.HandleMessage(ctx, 42, "/addamount 0.5")
	assert.Contains(t, reply, "already on your list")

	// Comma decimal separators are accepted.
	reply = r.HandleMessage(ctx, 42, "/addamount 1,25")
	assert.Contains(t, reply, "Added 1.25 SOL")

	settings, _ := stateMgr.SettingsFor(42)
	assert.Equal(t, []float64{0.5, 1.25}, settings.Amounts)
}

func TestAddAmountConversation(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")

	reply := r.HandleMessage(ctx, 42, "/addamount")
	assert.Contains(t, reply, "Send the amount")

	// The next plain message is consumed as the amount.
	reply = r.HandleMessage(ctx, 42, "0.75")
	assert.Contains(t, reply, "Added 0.75 SOL")

	settings, _ := stateMgr.SettingsFor(42)
	assert.Equal(t, []float64{0.75}, settings.Amounts)

	// The pending step was one-shot: a second plain message is not an amount.
	reply = r.HandleMessage(ctx, 42, "0.9")
	assert.Contains(t, reply, "Unknown command")
}

func TestAddAmountConversationTimesOut(t *testing.T) {
	r, _ := newTestRouter(t, 10*time.Millisecond)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")

	r.HandleMessage(ctx, 42, "/addamount")
	time.Sleep(30 * time.Millisecond)

	// The expired step no longer captures plain messages.
	reply := r.HandleMessage(ctx, 42, "0.75")
	assert.Contains(t, reply, "Unknown command")
}

func TestAddAmountConversationIgnoredForCommands(t *testing.T) {
	r, _ := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")
	r.HandleMessage(ctx, 42, "/addamount")

	// A command interrupts the conversation instead of being parsed as an
	// amount.
	reply := r.HandleMessage(ctx, 42, "/settings")
	assert.Contains(t, reply, "Mode:")
}

func TestAddAmountRequiresSubscription(t *testing.T) {
	r, _ := newTestRouter(t, 0)

	reply := r.HandleMessage(context.Background(), 42, "/addamount 0.5")
	assert.Contains(t, reply, "not subscribed")
}

func TestEditAmount(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")
	r.HandleMessage(ctx, 42, "/addamount 0.5")

	reply := r.HandleMessage(ctx, 42, "/editamount 0.5 1.25")
	assert.Contains(t, reply, "Replaced 0.5 SOL with 1.25 SOL")

	settings, _ := stateMgr.SettingsFor(42)
	assert.Equal(t, []float64{1.25}, settings.Amounts)

	reply = r.HandleMessage(ctx, 42, "/editamount 9 10")
	assert.Contains(t, reply, "not on your list")

	reply = r.HandleMessage(ctx, 42, "/editamount 0.5")
	assert.Contains(t, reply, "Usage:")
}

func TestDelAmount(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")
	r.HandleMessage(ctx, 42, "/addamount 0.5")

	reply := r.HandleMessage(ctx, 42, "/delamount 0.5")
	assert.Contains(t, reply, "Removed 0.5 SOL")

	settings, _ := stateMgr.SettingsFor(42)
	assert.Empty(t, settings.Amounts)

	reply = r.HandleMessage(ctx, 42, "/delamount 0.5")
	assert.Contains(t, reply, "not on your list")
}

func TestBlockValidatesAddress(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")

	reply := r.HandleMessage(ctx, 42, "/block not$an$address")
	assert.Contains(t, reply, "not a valid Solana address")

	reply = r.HandleMessage(ctx, 42, "/block "+systemProgram)
	assert.Contains(t, reply, "blacklisted")

	settings, _ := stateMgr.SettingsFor(42)
	assert.Equal(t, []string{systemProgram}, settings.Blacklist)

	reply = r.HandleMessage(ctx, 42, "/block "+systemProgram)
	assert.Contains(t, reply, "already blacklisted")
}

func TestUnblock(t *testing.T) {
	r, stateMgr := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")
	r.HandleMessage(ctx, 42, "/block "+systemProgram)

	reply := r.HandleMessage(ctx, 42, "/unblock "+systemProgram)
	assert.Contains(t, reply, "removed from your blacklist")

	settings, _ := stateMgr.SettingsFor(42)
	assert.Empty(t, settings.Blacklist)

	reply = r.HandleMessage(ctx, 42, "/unblock "+systemProgram)
	assert.Contains(t, reply, "not on your blacklist")
}

func TestUnsubscribeClearsPendingConversation(t *testing.T) {
	r, _ := newTestRouter(t, 0)
	ctx := context.Background()
	r.HandleMessage(ctx, 42, "/subscribe")
	r.HandleMessage(ctx, 42, "/addamount")
	r.HandleMessage(ctx, 42, "/unsubscribe")

	reply := r.HandleMessage(ctx, 42, "0.75")
	assert.Contains(t, reply, "Unknown command")
}

func TestEmptyMessageIgnored(t *testing.T) {
	r, _ := newTestRouter(t, 0)

	assert.Equal(t, "", r.HandleMessage(context.Background(), 42, ""))
	assert.Equal(t, "", r.HandleMessage(context.Background(), 42, "   "))
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"0.5", 0.5, true},
		{"1,25", 1.25, true},
		{"100", 100, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseAmount(tc.raw)
		require.Equal(t, tc.valid, ok, "parseAmount(%q)", tc.raw)
		if tc.valid {
			assert.Equal(t, tc.want, got, "parseAmount(%q)", tc.raw)
		}
	}
}
