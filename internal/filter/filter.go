// File: internal/filter/filter.go
package filter

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// DefaultEpsilon is the tolerance used when comparing configured amounts
// against observed transfer amounts.
const DefaultEpsilon = 1e-9

// Engine evaluates transfer events against per-subscriber filter settings
type Engine struct {
	epsilon float64
	logger  *logrus.Logger
}

// NewEngine creates a filter engine with the given epsilon tolerance.
// Zero or negative epsilon falls back to DefaultEpsilon.
func NewEngine(epsilon float64) *Engine {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Engine{
		epsilon: epsilon,
		logger:  utils.GetLogger(),
	}
}

// Epsilon returns the engine's comparison tolerance
func (e *Engine) Epsilon() float64 {
	return e.epsilon
}

// Evaluate decides whether one transfer event should be delivered to a
// subscriber with the given settings. The blacklist is checked first; the
// amount policy only runs for non-blacklisted counterparties.
//
// Under exact mode an empty amount list rejects every transfer: a fresh
// subscriber receives nothing until a filter is configured.
func (e *Engine) Evaluate(event *models.TransferEvent, settings *models.FilterSettings) bool {
	if settings == nil {
		return false
	}

	if event.Counterparty != "" && settings.IsBlacklisted(event.Counterparty) {
		return false
	}

	switch settings.Mode {
	case models.FilterModeThreshold:
		return event.Amount >= settings.Threshold
	case models.FilterModeExact:
		return IndexOfAmount(settings.Amounts, event.Amount, e.epsilon) >= 0
	default:
		e.logger.WithField("mode", settings.Mode).Warn("Unknown filter mode, rejecting transfer")
		return false
	}
}

// IndexOfAmount returns the index of the first configured amount within
// epsilon of the given value, or -1 if none matches.
func IndexOfAmount(amounts []float64, value, epsilon float64) int {
	for i, a := range amounts {
		if math.Abs(a-value) <= epsilon {
			return i
		}
	}
	return -1
}

// AddAmount appends value to the list unless an epsilon-equal entry already
// exists. Insertion order is preserved because the list is user-facing.
func AddAmount(amounts []float64, value, epsilon float64) ([]float64, bool) {
	if IndexOfAmount(amounts, value, epsilon) >= 0 {
		return amounts, false
	}
	return append(amounts, value), true
}

// RemoveAmount deletes the first epsilon-equal entry from the list
func RemoveAmount(amounts []float64, value, epsilon float64) ([]float64, bool) {
	i := IndexOfAmount(amounts, value, epsilon)
	if i < 0 {
		return amounts, false
	}
	return append(amounts[:i], amounts[i+1:]...), true
}

// ReplaceAmount swaps the first entry epsilon-equal to oldValue for
// newValue, keeping its position in the list. The replacement is rejected
// if newValue already exists elsewhere in the list.
func ReplaceAmount(amounts []float64, oldValue, newValue, epsilon float64) ([]float64, bool) {
	i := IndexOfAmount(amounts, oldValue, epsilon)
	if i < 0 {
		return amounts, false
	}
	if j := IndexOfAmount(amounts, newValue, epsilon); j >= 0 && j != i {
		return amounts, false
	}
	amounts[i] = newValue
	return amounts, true
}
