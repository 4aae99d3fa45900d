package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/nickhayeck/combo-trading/internal/domain"
	"github.com/nickhayeck/combo-trading/internal/platform/binance"
	"github.com/nickhayeck/combo-trading/internal/platform/ledgerx"
)

// BinanceSpotPlacer executes spot legs as market orders on Binance.
type BinanceSpotPlacer struct {
	client *binance.Client
}

// NewBinanceSpotPlacer wraps a Binance REST client.
func NewBinanceSpotPlacer(client *binance.Client) *BinanceSpotPlacer {
	return &BinanceSpotPlacer{client: client}
}

// PlaceSpotOrder implements SpotOrderPlacer.
func (p *BinanceSpotPlacer) PlaceSpotOrder(ctx context.Context, order domain.SpotOrder) (domain.OrderResult, error) {
	ack, err := p.client.PlaceMarketOrder(ctx, order.Symbol, order.Side, order.Quantity)
	if err != nil {
		return domain.OrderResult{}, err
	}
	return domain.OrderResult{
		Success:     true,
		OrderID:     strconv.FormatInt(ack.OrderID, 10),
		Message:     ack.Status,
		FilledPrice: ack.AvgFillPrice(),
	}, nil
}

// LedgerXOptionsPlacer executes option legs as limit orders at the leg price
// on LedgerX.
type LedgerXOptionsPlacer struct {
	client *ledgerx.Client
}

// NewLedgerXOptionsPlacer wraps a LedgerX REST client.
func NewLedgerXOptionsPlacer(client *ledgerx.Client) *LedgerXOptionsPlacer {
	return &LedgerXOptionsPlacer{client: client}
}

// PlaceOptionOrder implements OptionsOrderPlacer. Contracts are rounded down
// to whole units and the price is converted to integer cents.
func (p *LedgerXOptionsPlacer) PlaceOptionOrder(ctx context.Context, order domain.OptionOrder) (domain.OrderResult, error) {
	size := int64(math.Floor(order.Contracts))
	if size < 1 {
		return domain.OrderResult{}, fmt.Errorf("executor: %w: %f contracts", domain.ErrInvalidOrder, order.Contracts)
	}

	resp, err := p.client.PlaceOrder(ctx, ledgerx.OrderRequest{
		OrderType:  "limit",
		ContractID: order.ContractID,
		IsAsk:      order.Side == domain.OrderSideSell,
		Size:       size,
		Price:      int64(math.Round(order.Price * 100)),
	})
	if err != nil {
		return domain.OrderResult{}, err
	}
	return domain.OrderResult{
		Success: true,
		OrderID: resp.MessageID,
		Message: resp.Status,
	}, nil
}

// LogOnlyPlacer satisfies both placer interfaces without touching a venue.
// Observe mode wires it in so detected trades are visible but never sent.
type LogOnlyPlacer struct {
	logger *slog.Logger
}

// NewLogOnlyPlacer creates a placer that only logs.
func NewLogOnlyPlacer(logger *slog.Logger) *LogOnlyPlacer {
	return &LogOnlyPlacer{logger: logger.With(slog.String("component", "log_placer"))}
}

// PlaceSpotOrder implements SpotOrderPlacer.
func (p *LogOnlyPlacer) PlaceSpotOrder(_ context.Context, order domain.SpotOrder) (domain.OrderResult, error) {
	p.logger.Info("would place spot order",
		slog.String("symbol", order.Symbol),
		slog.String("side", string(order.Side)),
		slog.Float64("qty", order.Quantity),
		slog.Float64("price", order.Price))
	return domain.OrderResult{Success: true, OrderID: "dry-run", Message: "observe mode"}, nil
}

// PlaceOptionOrder implements OptionsOrderPlacer.
func (p *LogOnlyPlacer) PlaceOptionOrder(_ context.Context, order domain.OptionOrder) (domain.OrderResult, error) {
	p.logger.Info("would place option order",
		slog.String("label", order.Label),
		slog.String("side", string(order.Side)),
		slog.Float64("contracts", order.Contracts),
		slog.Float64("price", order.Price))
	return domain.OrderResult{Success: true, OrderID: "dry-run", Message: "observe mode"}, nil
}
