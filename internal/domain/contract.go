package domain

import "time"

// Parity distinguishes the two option types.
type Parity string

const (
	ParityCall Parity = "call"
	ParityPut  Parity = "put"
)

// ContractSpec is the immutable listing description of a single option
// contract as returned by the venue's contracts endpoint. Quotes are not
// part of the spec; they arrive later over the market-data feed.
type ContractSpec struct {
	ID              uint64
	Label           string // venue display label, e.g. "BTC-Mini-30JUN2023-10000-Call"
	Underlying      string // underlying asset code, e.g. "CBTC"
	Strike          int64  // strike in quote-currency units
	Parity          Parity
	TTE             float64 // annualized time to expiry at fetch time
	Multiplier      float64 // underlying units per contract divisor
	MinIncrement    float64
	Active          bool
	Expiry          time.Time
	CollateralAsset string
}

// Catalog maps contract id to its listing spec for the venue's full board.
type Catalog map[uint64]ContractSpec
