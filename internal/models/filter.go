// File: internal/models/filter.go
package models

// FilterMode selects the amount policy for a subscriber.
type FilterMode string

const (
	// FilterModeExact accepts only amounts matching one of the configured
	// values within epsilon tolerance. An empty list rejects everything.
	FilterModeExact FilterMode = "exact"
	// FilterModeThreshold accepts any amount greater than or equal to the
	// configured threshold.
	FilterModeThreshold FilterMode = "threshold"
)

// FilterSettings holds one subscriber's alert preferences. Settings exist
// only while the subscriber is in the subscriber set.
type FilterSettings struct {
	Mode      FilterMode `json:"mode"`
	Threshold float64    `json:"threshold"`
	Amounts   []float64  `json:"amounts"`   // insertion order is user-facing
	Blacklist []string   `json:"blacklist"` // counterparty addresses
}

// NewFilterSettings returns the default settings for a fresh subscriber:
// exact mode with an empty amount list, so no alerts are delivered until
// the subscriber configures something explicitly.
func NewFilterSettings() *FilterSettings {
	return &FilterSettings{
		Mode:      FilterModeExact,
		Amounts:   []float64{},
		Blacklist: []string{},
	}
}

// IsBlacklisted reports whether the given counterparty address is blocked.
func (s *FilterSettings) IsBlacklisted(address string) bool {
	for _, a := range s.Blacklist {
		if a == address {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the settings.
func (s *FilterSettings) Clone() *FilterSettings {
	c := &FilterSettings{
		Mode:      s.Mode,
		Threshold: s.Threshold,
		Amounts:   make([]float64, len(s.Amounts)),
		Blacklist: make([]string, len(s.Blacklist)),
	}
	copy(c.Amounts, s.Amounts)
	copy(c.Blacklist, s.Blacklist)
	return c
}
