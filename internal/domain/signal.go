package domain

import "time"

// ArbDirection labels which side of put-call parity fired.
type ArbDirection string

const (
	ArbConversion ArbDirection = "conversion"
	ArbReversal   ArbDirection = "reversal"
)

// Direction infers the parity side from the trade's spot legs: a reversal
// sells spot against a synthetic long, a conversion buys it.
func (t Trade) Direction() ArbDirection {
	for _, leg := range t.Spot {
		if leg.Side == OrderSideSell {
			return ArbReversal
		}
	}
	return ArbConversion
}

// ArbEvent is published on the signal bus whenever the engine detects an
// executable parity violation.
type ArbEvent struct {
	ID         string       `json:"id"`
	Symbol     string       `json:"symbol"`
	Direction  ArbDirection `json:"direction"`
	SpotLegs   int          `json:"spot_legs"`
	OptionLegs int          `json:"option_legs"`
	Contracts  float64      `json:"contracts"`
	DetectedAt time.Time    `json:"detected_at"`
}
