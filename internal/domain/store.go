package domain

import (
	"context"
	"time"
)

// DispatchReport records the outcome of sending one netted trade to the
// venues: every leg that was attempted and what came back for it.
type DispatchReport struct {
	TradeID      string
	Trade        Trade
	Spot         []OrderResult
	Options      []OrderResult
	DispatchedAt time.Time
}

// Failed reports whether any leg was rejected.
func (r DispatchReport) Failed() bool {
	for _, res := range r.Spot {
		if !res.Success {
			return true
		}
	}
	for _, res := range r.Options {
		if !res.Success {
			return true
		}
	}
	return false
}

// TradeJournal persists dispatch reports.
type TradeJournal interface {
	Insert(ctx context.Context, report DispatchReport) error
	ListRecent(ctx context.Context, limit int) ([]DispatchReport, error)
}
