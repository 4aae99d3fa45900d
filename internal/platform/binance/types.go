// Package binance provides WebSocket and REST clients for the Binance spot
// exchange.
package binance

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

// BookTickerMessage is the wire representation of an individual symbol book
// ticker stream event. Binance encodes all decimal quantities as strings.
type BookTickerMessage struct {
	UpdateID int64  `json:"u"`
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// ToDomain parses the string decimals into a spot quote. A malformed field
// is an error; the caller decides whether to skip the event.
func (m BookTickerMessage) ToDomain(now time.Time) (domain.SpotQuote, error) {
	bid, err := strconv.ParseFloat(m.BidPrice, 64)
	if err != nil {
		return domain.SpotQuote{}, fmt.Errorf("binance: parse bid price %q: %w", m.BidPrice, err)
	}
	bidQty, err := strconv.ParseFloat(m.BidQty, 64)
	if err != nil {
		return domain.SpotQuote{}, fmt.Errorf("binance: parse bid qty %q: %w", m.BidQty, err)
	}
	ask, err := strconv.ParseFloat(m.AskPrice, 64)
	if err != nil {
		return domain.SpotQuote{}, fmt.Errorf("binance: parse ask price %q: %w", m.AskPrice, err)
	}
	askQty, err := strconv.ParseFloat(m.AskQty, 64)
	if err != nil {
		return domain.SpotQuote{}, fmt.Errorf("binance: parse ask qty %q: %w", m.AskQty, err)
	}

	return domain.SpotQuote{
		Symbol:   m.Symbol,
		BidPrice: bid,
		BidSize:  bidQty,
		AskPrice: ask,
		AskSize:  askQty,
		Time:     now,
	}, nil
}

// OrderAck is the venue's acknowledgement of a submitted order.
type OrderAck struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
	ExecutedQty   string `json:"executedQty"`
	Fills         []struct {
		Price string `json:"price"`
		Qty   string `json:"qty"`
	} `json:"fills"`
}

// ErrorResponse is the venue's error body shape.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}
