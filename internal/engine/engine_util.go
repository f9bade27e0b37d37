package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultTurnSeconds = 20
	DefaultTurnUnit    = time.Second
)

var DefaultStartingBudget = decimal.NewFromInt(100)

type Rules struct {
	TurnSeconds    int
	TurnUnit       time.Duration
	StartingBudget decimal.Decimal
	ResaleRate     decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		TurnSeconds:    DefaultTurnSeconds,
		TurnUnit:       DefaultTurnUnit,
		StartingBudget: DefaultStartingBudget,
		ResaleRate:     DefaultResaleRate,
	}
}

// withDefaults fills unset fields. A zero starting budget counts as unset;
// config rejects it.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.TurnSeconds <= 0 {
		r.TurnSeconds = d.TurnSeconds
	}
	if r.TurnUnit <= 0 {
		r.TurnUnit = d.TurnUnit
	}
	if r.StartingBudget.IsZero() {
		r.StartingBudget = d.StartingBudget
	}
	if !r.ResaleRate.IsPositive() {
		r.ResaleRate = d.ResaleRate
	}
	return r
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
