package domain

import "time"

// SpotQuote is a top-of-book update for the spot instrument.
type SpotQuote struct {
	Symbol   string
	BidPrice float64
	BidSize  float64
	AskPrice float64
	AskSize  float64
	Time     time.Time
}

// BookTop is a top-of-book update for a single option contract.
// Clock is the venue's per-contract monotonic sequence number.
type BookTop struct {
	ContractID uint64
	BidPrice   float64
	BidSize    float64
	AskPrice   float64
	AskSize    float64
	Clock      int64
}
