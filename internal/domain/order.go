package domain

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// SpotOrder is one spot leg of a combo trade. Quantity is in units of the
// underlying asset.
type SpotOrder struct {
	Symbol   string
	Side     OrderSide
	Price    float64
	Quantity float64
}

// OptionOrder is one option leg of a combo trade. Contracts counts whole
// contracts; the option multiplier has already been applied.
type OptionOrder struct {
	ContractID uint64
	Label      string
	Side       OrderSide
	Price      float64
	Contracts  float64
}

// OrderResult wraps the venue response after submitting one leg.
type OrderResult struct {
	Success     bool
	OrderID     string
	Message     string
	FilledPrice float64
}
