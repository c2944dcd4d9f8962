// File: internal/filter/filter_test.go
package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
)

const counterparty = "Counterparty111111111111111111111111111111"

func event(amount float64) *models.TransferEvent {
	return &models.TransferEvent{
		Signature:    "Sig1",
		Direction:    models.DirectionIncoming,
		Amount:       amount,
		Counterparty: counterparty,
	}
}

func TestEvaluateExactMatchWithinEpsilon(t *testing.T) {
	e := NewEngine(DefaultEpsilon)
	settings := models.NewFilterSettings()
	settings.Amounts = []float64{0.1, 2.5}

	// Within epsilon of a configured amount.
	assert.True(t, e.Evaluate(event(0.1+5e-10), settings))
	assert.True(t, e.Evaluate(event(2.5), settings))

	// Outside epsilon.
	assert.False(t, e.Evaluate(event(0.1+1e-8), settings))
	assert.False(t, e.Evaluate(event(1.0), settings))
}

func TestEvaluateExactModeEmptyListRejectsEverything(t *testing.T) {
	e := NewEngine(DefaultEpsilon)
	settings := models.NewFilterSettings()

	assert.False(t, e.Evaluate(event(0.001), settings))
	assert.False(t, e.Evaluate(event(1000), settings))
}

func TestEvaluateThresholdBoundary(t *testing.T) {
	e := NewEngine(DefaultEpsilon)
	settings := &models.FilterSettings{
		Mode:      models.FilterModeThreshold,
		Threshold: 1.5,
	}

	assert.False(t, e.Evaluate(event(1.499999), settings))
	assert.True(t, e.Evaluate(event(1.5), settings))
	assert.True(t, e.Evaluate(event(100), settings))
}

func TestEvaluateBlacklistBeatsAmountPolicy(t *testing.T) {
	e := NewEngine(DefaultEpsilon)
	settings := &models.FilterSettings{
		Mode:      models.FilterModeThreshold,
		Threshold: 0.1,
		Blacklist: []string{counterparty},
	}

	// The amount passes the threshold but the counterparty is muted.
	assert.False(t, e.Evaluate(event(50), settings))

	// Unknown counterparties are never blacklisted.
	ev := event(50)
	ev.Counterparty = ""
	assert.True(t, e.Evaluate(ev, settings))
}

func TestEvaluateNilOrUnknownSettingsRejected(t *testing.T) {
	e := NewEngine(DefaultEpsilon)

	assert.False(t, e.Evaluate(event(1), nil))
	assert.False(t, e.Evaluate(event(1), &models.FilterSettings{Mode: "bogus"}))
}

func TestAddAmountDeduplicatesAndPreservesOrder(t *testing.T) {
	amounts := []float64{}

	amounts, added := AddAmount(amounts, 0.5, DefaultEpsilon)
	assert.True(t, added)
	amounts, added = AddAmount(amounts, 1.25, DefaultEpsilon)
	assert.True(t, added)

	// An epsilon-equal duplicate is rejected and the list is unchanged.
	amounts, added = AddAmount(amounts, 0.5+5e-10, DefaultEpsilon)
	assert.False(t, added)
	assert.Equal(t, []float64{0.5, 1.25}, amounts)
}

func TestRemoveAmountByEpsilonEquality(t *testing.T) {
	amounts := []float64{0.5, 1.25, 3}

	amounts, removed := RemoveAmount(amounts, 1.25+5e-10, DefaultEpsilon)
	assert.True(t, removed)
	assert.Equal(t, []float64{0.5, 3}, amounts)

	amounts, removed = RemoveAmount(amounts, 99, DefaultEpsilon)
	assert.False(t, removed)
	assert.Equal(t, []float64{0.5, 3}, amounts)
}

func TestReplaceAmountKeepsPosition(t *testing.T) {
	amounts := []float64{0.5, 1.25, 3}

	amounts, changed := ReplaceAmount(amounts, 1.25, 2.0, DefaultEpsilon)
	assert.True(t, changed)
	assert.Equal(t, []float64{0.5, 2.0, 3}, amounts)
}

func TestReplaceAmountRejectsMissingOldOrDuplicateNew(t *testing.T) {
	amounts := []float64{0.5, 1.25}

	// Old value absent.
	_, changed := ReplaceAmount(amounts, 9, 2.0, DefaultEpsilon)
	assert.False(t, changed)

	// New value already present elsewhere.
	_, changed = ReplaceAmount(amounts, 0.5, 1.25, DefaultEpsilon)
	assert.False(t, changed)
	assert.Equal(t, []float64{0.5, 1.25}, amounts)

	// Replacing a value with itself (epsilon-equal) is allowed.
	amounts, changed = ReplaceAmount(amounts, 0.5, 0.5+5e-10, DefaultEpsilon)
	assert.True(t, changed)
	assert.InDelta(t, 0.5, amounts[0], 1e-9)
}

func TestNewEngineFallsBackToDefaultEpsilon(t *testing.T) {
	assert.Equal(t, DefaultEpsilon, NewEngine(0).Epsilon())
	assert.Equal(t, DefaultEpsilon, NewEngine(-1).Epsilon())
	assert.Equal(t, 1e-6, NewEngine(1e-6).Epsilon())
}
