// File: internal/ledger/client.go
package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrTransactionNotFound is returned when the ledger has no record of the
// requested signature.
var ErrTransactionNotFound = errors.New("ledger: transaction not found")

// SignatureInfo identifies one transaction in an account's history.
type SignatureInfo struct {
	Signature string    `json:"signature"`
	Slot      uint64    `json:"slot"`
	BlockTime time.Time `json:"block_time"`
}

// TransactionDetail carries the balance snapshot of a confirmed transaction.
// PreBalances and PostBalances are lamport amounts aligned index-for-index
// with AccountKeys. Fee is the transaction fee in lamports, paid by the
// first account in AccountKeys.
type TransactionDetail struct {
	Signature    string    `json:"signature"`
	BlockTime    time.Time `json:"block_time"`
	AccountKeys  []string  `json:"account_keys"`
	PreBalances  []uint64  `json:"pre_balances"`
	PostBalances []uint64  `json:"post_balances"`
	Fee          uint64    `json:"fee"`
}

// Client defines what the monitor needs from the ledger.
type Client interface {
	// ListSignatures returns up to limit recent transaction signatures for
	// the monitored account, newest first.
	ListSignatures(ctx context.Context, limit int) ([]SignatureInfo, error)

	// GetTransactionDetail fetches the balance snapshot for one signature.
	// Returns ErrTransactionNotFound if the ledger does not know it.
	GetTransactionDetail(ctx context.Context, signature string) (*TransactionDetail, error)

	// Health checks that the ledger endpoint is reachable and healthy.
	Health(ctx context.Context) error

	// Balance returns the monitored account's current balance in SOL.
	Balance(ctx context.Context) (float64, error)

	Close() error
}
