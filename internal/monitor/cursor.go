// File: internal/monitor/cursor.go
package monitor

import "github.com/crack-enjoyer/RevsTrackerBot/internal/ledger"

// DiffSignatures returns the signatures newer than the cursor, oldest
// first, from a newest-first listing.
//
// The listing is a bounded page: if more transactions arrived since the
// last cycle than the page holds, only the newest page's worth is
// discovered and anything older is skipped. That bounded lookback is a
// documented limitation of the polling design, not an exactly-once
// guarantee, so no attempt is made to page further back.
//
// Re-diffing an unchanged listing against an unchanged cursor yields an
// empty result.
func DiffSignatures(listed []ledger.SignatureInfo, cursor string) []ledger.SignatureInfo {
	var collected []ledger.SignatureInfo
	for _, info := range listed {
		if info.Signature == cursor {
			break
		}
		collected = append(collected, info)
	}

	// Reverse to chronological order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected
}
