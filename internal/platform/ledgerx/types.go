// Package ledgerx provides REST and WebSocket clients for the LedgerX
// derivatives exchange.
package ledgerx

import (
	"time"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

// centsPerUnit converts LedgerX integer cent prices to quote-currency units.
const centsPerUnit = 100.0

// hoursPerYear annualizes time to expiry.
const hoursPerYear = 24 * 365.25

// Contract is the wire representation of one listing from the
// /trading/contracts endpoint. Prices and strikes arrive in integer cents.
type Contract struct {
	ID              uint64    `json:"id"`
	Label           string    `json:"label"`
	UnderlyingAsset string    `json:"underlying_asset"`
	CollateralAsset string    `json:"collateral_asset"`
	StrikePrice     int64     `json:"strike_price"`
	IsCall          bool      `json:"is_call"`
	Active          bool      `json:"active"`
	DateExpires     LXTime    `json:"date_expires"`
	Multiplier      float64   `json:"multiplier"`
	MinIncrement    float64   `json:"min_increment"`
	DerivativeType  string    `json:"derivative_type"`
	DateLive        time.Time `json:"-"`
}

// LXTime decodes the venue's "2006-01-02 15:04:05-0700" timestamp format.
type LXTime struct {
	time.Time
}

const lxTimeLayout = "2006-01-02 15:04:05-0700"

// UnmarshalJSON implements json.Unmarshaler.
func (t *LXTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		return nil
	}
	parsed, err := time.Parse(`"`+lxTimeLayout+`"`, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ToDomain converts a wire contract into the catalog spec, annualizing time
// to expiry against now.
func (c Contract) ToDomain(now time.Time) domain.ContractSpec {
	parity := domain.ParityPut
	if c.IsCall {
		parity = domain.ParityCall
	}
	tte := c.DateExpires.Sub(now).Hours() / hoursPerYear
	if tte < 0 {
		tte = 0
	}
	return domain.ContractSpec{
		ID:              c.ID,
		Label:           c.Label,
		Underlying:      c.UnderlyingAsset,
		Strike:          c.StrikePrice / int64(centsPerUnit),
		Parity:          parity,
		TTE:             tte,
		Multiplier:      c.Multiplier,
		MinIncrement:    c.MinIncrement,
		Active:          c.Active,
		Expiry:          c.DateExpires.Time,
		CollateralAsset: c.CollateralAsset,
	}
}

// BookTopMessage is the wire representation of a top-of-book update on the
// market-data WebSocket. Prices arrive in integer cents; sizes in contracts.
type BookTopMessage struct {
	Type       string  `json:"type"`
	ContractID uint64  `json:"contract_id"`
	Bid        int64   `json:"bid"`
	BidSize    float64 `json:"bid_size"`
	Ask        int64   `json:"ask"`
	AskSize    float64 `json:"ask_size"`
	Clock      int64   `json:"clock"`
}

// ToDomain converts a wire book top into quote-currency units.
func (m BookTopMessage) ToDomain() domain.BookTop {
	return domain.BookTop{
		ContractID: m.ContractID,
		BidPrice:   float64(m.Bid) / centsPerUnit,
		BidSize:    m.BidSize,
		AskPrice:   float64(m.Ask) / centsPerUnit,
		AskSize:    m.AskSize,
		Clock:      m.Clock,
	}
}

// OrderRequest is the payload for POST /trading/orders. Price is in integer
// cents, Size in whole contracts.
type OrderRequest struct {
	OrderType   string `json:"order_type"` // "limit"
	ContractID  uint64 `json:"contract_id"`
	IsAsk       bool   `json:"is_ask"`
	Size        int64  `json:"size"`
	Price       int64  `json:"price"`
	SwapPurpose string `json:"swap_purpose,omitempty"`
}

// OrderResponse is the venue's acknowledgement of a submitted order.
type OrderResponse struct {
	MessageID string `json:"mid"`
	Status    string `json:"status"`
}

// ErrorResponse is the venue's error body shape.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}
