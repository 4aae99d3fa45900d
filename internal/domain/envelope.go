package domain

import "time"

// Venue identifies the source of a market-data event.
type Venue string

const (
	VenueBinance Venue = "binance"
	VenueLedgerX Venue = "ledgerx"
)

// Envelope is the single event type flowing from the feed readers to the
// engine consumer. Exactly one of Spot or Book is non-nil.
type Envelope struct {
	Venue      Venue
	Spot       *SpotQuote
	Book       *BookTop
	ReceivedAt time.Time
}
