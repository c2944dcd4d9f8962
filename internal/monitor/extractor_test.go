// File: internal/monitor/extractor_test.go
package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/ledger"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
)

const (
	watchedAccount = "RevsTreasury1111111111111111111111111111111"
	otherAccount   = "Counterparty111111111111111111111111111111"
	thirdAccount   = "Bystander1111111111111111111111111111111111"
)

func detail(keys []string, pre, post []uint64) *ledger.TransactionDetail {
	return &ledger.TransactionDetail{
		Signature:    "Sig1",
		AccountKeys:  keys,
		PreBalances:  pre,
		PostBalances: post,
	}
}

func TestExtractIncomingTransfer(t *testing.T) {
	x := NewTransferExtractor(watchedAccount, DefaultTolerance)

	// Counterparty pays 0.5 SOL plus a 5000 lamport fee.
	d := detail(
		[]string{otherAccount, watchedAccount},
		[]uint64{1_000_000_000, 2_000_000_000},
		[]uint64{499_995_000, 2_500_000_000},
	)
	d.Fee = 5_000

	event := x.Extract(d)
	require.NotNil(t, event)
	assert.Equal(t, models.DirectionIncoming, event.Direction)
	assert.InDelta(t, 0.5, event.Amount, 1e-12)
	assert.Equal(t, otherAccount, event.Counterparty)
	assert.Equal(t, "Sig1", event.Signature)
}

func TestExtractOutgoingTransfer(t *testing.T) {
	x := NewTransferExtractor(watchedAccount, DefaultTolerance)

	// Monitored pays 1 SOL plus the fee; the reported amount excludes the fee.
	d := detail(
		[]string{watchedAccount, otherAccount},
		[]uint64{3_000_000_000, 100_000_000},
		[]uint64{1_999_995_000, 1_100_000_000},
	)
	d.Fee = 5_000

	event := x.Extract(d)
	require.NotNil(t, event)
	assert.Equal(t, models.DirectionOutgoing, event.Direction)
	assert.InDelta(t, 1.0, event.Amount, 1e-12)
	assert.Equal(t, otherAccount, event.Counterparty)
}

func TestExtractFeePayerCompensation(t *testing.T) {
	x := NewTransferExtractor(watchedAccount, 0.001)

	// Monitored gains 0.50; the counterparty's balance fell 0.502, of which
	// 0.002 is the transaction fee it paid. Net of fee the magnitudes match.
	d := detail(
		[]string{otherAccount, watchedAccount},
		[]uint64{1_000_000_000, 0},
		[]uint64{498_000_000, 500_000_000},
	)
	d.Fee = 2_000_000

	event := x.Extract(d)
	require.NotNil(t, event)
	assert.Equal(t, models.DirectionIncoming, event.Direction)
	assert.InDelta(t, 0.5, event.Amount, 1e-12)
	assert.Equal(t, otherAccount, event.Counterparty)

	// The same balances with no fee recorded is a genuine 0.002 mismatch,
	// outside the 0.001 tolerance: no counterparty, no event.
	noFee := detail(
		[]string{otherAccount, watchedAccount},
		[]uint64{1_000_000_000, 0},
		[]uint64{498_000_000, 500_000_000},
	)
	assert.Nil(t, x.Extract(noFee))
}

func TestExtractFirstMatchingCounterpartyWins(t *testing.T) {
	x := NewTransferExtractor(watchedAccount, DefaultTolerance)

	// Two accounts moved opposite the monitored delta; the first matching
	// magnitude is reported.
	d := detail(
		[]string{watchedAccount, thirdAccount, otherAccount},
		[]uint64{2_000_000_000, 500_000_000, 500_000_000},
		[]uint64{1_000_000_000, 1_500_000_000, 500_000_000},
	)

	event := x.Extract(d)
	require.NotNil(t, event)
	assert.Equal(t, thirdAccount, event.Counterparty)
}

func TestExtractNoCounterpartyMatchYieldsNoEvent(t *testing.T) {
	x := NewTransferExtractor(watchedAccount, DefaultTolerance)

	// Monitored loses 1 SOL but no single account gained a matching amount:
	// a multi-leg split this reconstruction does not report.
	d := detail(
		[]string{watchedAccount, otherAccount, thirdAccount},
		[]uint64{2_000_000_000, 0, 0},
		[]uint64{1_000_000_000, 400_000_000, 600_000_000},
	)

	assert.Nil(t, x.Extract(d))
}

func TestExtractDeltaWithinToleranceIgnored(t *testing.T) {
	x := NewTransferExtractor(watchedAccount, 0.001)

	// A fee-only movement below tolerance is not a transfer.
	d := detail(
		[]string{watchedAccount, otherAccount},
		[]uint64{1_000_000_000, 0},
		[]uint64{999_995_000, 5_000},
	)

	assert.Nil(t, x.Extract(d))
}

func TestExtractMalformedSnapshotDropped(t *testing.T) {
	x := NewTransferExtractor(watchedAccount, DefaultTolerance)

	assert.Nil(t, x.Extract(nil))

	// Balance arrays misaligned with the key list.
	d := detail(
		[]string{watchedAccount, otherAccount},
		[]uint64{1_000_000_000},
		[]uint64{500_000_000, 500_000_000},
	)
	assert.Nil(t, x.Extract(d))

	// No account keys at all.
	assert.Nil(t, x.Extract(detail(nil, nil, nil)))
}

func TestExtractMonitoredAccountAbsent(t *testing.T) {
	x := NewTransferExtractor(watchedAccount, DefaultTolerance)

	d := detail(
		[]string{otherAccount, thirdAccount},
		[]uint64{1_000_000_000, 0},
		[]uint64{500_000_000, 500_000_000},
	)

	assert.Nil(t, x.Extract(d))
}
