// File: internal/models/transfer.go
package models

import "time"

// Direction indicates whether a transfer moved value into or out of the
// monitored account.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// TransferEvent is a reconstructed two-party value movement inferred from
// the balance deltas of a single transaction. It is transient: built per
// transaction, dispatched, never persisted.
type TransferEvent struct {
	Signature    string    `json:"signature"`
	Direction    Direction `json:"direction"`
	Amount       float64   `json:"amount"` // SOL, always non-negative
	Counterparty string    `json:"counterparty"`
	BlockTime    time.Time `json:"block_time"`
}
