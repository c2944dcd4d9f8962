// File: internal/notify/render.go
package notify

import (
	"fmt"
	"time"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// FormatAlert renders a human-readable alert message for one transfer event
func FormatAlert(event *models.TransferEvent) string {
	var header, party string
	switch event.Direction {
	case models.DirectionIncoming:
		header = "🟢 Incoming transfer"
		party = "From"
	default:
		header = "🔴 Outgoing transfer"
		party = "To"
	}

	counterparty := event.Counterparty
	if counterparty == "" {
		counterparty = "unknown"
	} else {
		counterparty = utils.ShortenAddress(counterparty)
	}

	when := ""
	if !event.BlockTime.IsZero() {
		when = fmt.Sprintf("\nTime: %s", event.BlockTime.UTC().Format(time.RFC3339))
	}

	return fmt.Sprintf("%s: %s SOL\n%s: %s\nTx: %s%s",
		header,
		utils.FormatAmount(event.Amount),
		party,
		counterparty,
		utils.ShortenSignature(event.Signature),
		when,
	)
}
