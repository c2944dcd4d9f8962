// File: internal/monitor/extractor.go
package monitor

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/ledger"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// DefaultTolerance is the absolute tolerance, in SOL, used when matching a
// counterparty's balance delta against the monitored account's delta. It
// absorbs rounding and small rent-related balance changes; the transaction
// fee itself is compensated explicitly before comparison.
const DefaultTolerance = 0.001

const lamportsPerSol = 1e9

// TransferExtractor reconstructs a two-party transfer from the pre/post
// balance snapshot of one transaction.
type TransferExtractor struct {
	account   string
	tolerance float64
	logger    *logrus.Logger
}

// NewTransferExtractor creates an extractor for the monitored account
func NewTransferExtractor(account string, tolerance float64) *TransferExtractor {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &TransferExtractor{
		account:   account,
		tolerance: tolerance,
		logger:    utils.GetLogger(),
	}
}

// Extract returns the transfer event implied by the transaction's balance
// deltas, or nil when the transaction does not move value for the
// monitored account.
//
// The reconstruction is first-match two-party: the counterparty is the
// first other account whose balance moved by a matching magnitude in the
// opposite direction. Multi-recipient transactions yield at most one
// reported leg, which is an accepted simplification for alerting.
// Malformed balance data is logged and dropped, never fatal.
func (x *TransferExtractor) Extract(detail *ledger.TransactionDetail) *models.TransferEvent {
	if detail == nil {
		return nil
	}
	if len(detail.AccountKeys) == 0 ||
		len(detail.PreBalances) != len(detail.AccountKeys) ||
		len(detail.PostBalances) != len(detail.AccountKeys) {
		x.logger.WithFields(logrus.Fields{
			"signature": detail.Signature,
			"keys":      len(detail.AccountKeys),
			"pre":       len(detail.PreBalances),
			"post":      len(detail.PostBalances),
		}).Warn("Malformed balance snapshot, dropping transaction")
		return nil
	}

	monitored := -1
	for i, key := range detail.AccountKeys {
		if key == x.account {
			monitored = i
			break
		}
	}
	if monitored < 0 {
		x.logger.WithField("signature", detail.Signature).Warn("Monitored account absent from transaction, dropping")
		return nil
	}

	delta := x.deltaSol(detail, monitored)
	if math.Abs(delta) <= x.tolerance {
		return nil
	}

	event := &models.TransferEvent{
		Signature: detail.Signature,
		Amount:    math.Abs(delta),
		BlockTime: detail.BlockTime,
	}
	if delta > 0 {
		event.Direction = models.DirectionIncoming
	} else {
		event.Direction = models.DirectionOutgoing
	}

	for i := range detail.AccountKeys {
		if i == monitored {
			continue
		}
		other := x.deltaSol(detail, i)
		// The counterparty moved in the opposite direction by a magnitude
		// within tolerance of the monitored delta.
		if other*delta < 0 && math.Abs(math.Abs(other)-math.Abs(delta)) <= x.tolerance {
			event.Counterparty = detail.AccountKeys[i]
			return event
		}
	}

	// No single counterparty matched: multi-leg or program-mediated
	// movement, which this two-party reconstruction does not report.
	return nil
}

// deltaSol returns the account's balance change in SOL. The transaction fee
// is added back to the fee payer (first account): the fee is burned, not
// transferred, so it must not distort the value-movement comparison.
func (x *TransferExtractor) deltaSol(detail *ledger.TransactionDetail, i int) float64 {
	delta := (float64(detail.PostBalances[i]) - float64(detail.PreBalances[i])) / lamportsPerSol
	if i == 0 {
		delta += float64(detail.Fee) / lamportsPerSol
	}
	return delta
}
