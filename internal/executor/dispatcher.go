// Package executor sends netted combo trades to the venues, one leg at a
// time, and reports what happened to every leg.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nickhayeck/combo-trading/internal/domain"
	"github.com/nickhayeck/combo-trading/internal/notify"
)

// SpotOrderPlacer submits one spot leg to the spot venue.
type SpotOrderPlacer interface {
	PlaceSpotOrder(ctx context.Context, order domain.SpotOrder) (domain.OrderResult, error)
}

// OptionsOrderPlacer submits one option leg to the options venue.
type OptionsOrderPlacer interface {
	PlaceOptionOrder(ctx context.Context, order domain.OptionOrder) (domain.OrderResult, error)
}

// Dispatcher fans a netted trade out to the two venues. Every leg gets a
// result in the report; a rejected leg never silently disappears. Leg
// failures are not retried here, they are logged and notified so the
// operator can unwind by hand.
type Dispatcher struct {
	spot     SpotOrderPlacer
	options  OptionsOrderPlacer
	notifier *notify.Notifier // optional
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. notifier may be nil.
func NewDispatcher(spot SpotOrderPlacer, options OptionsOrderPlacer, notifier *notify.Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		spot:     spot,
		options:  options,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch submits every leg of the trade and returns the per-leg results.
// The returned error is non-nil only when the context is cancelled before
// all legs were attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, trade domain.Trade) (domain.DispatchReport, error) {
	report := domain.DispatchReport{
		Trade:        trade,
		DispatchedAt: time.Now().UTC(),
	}

	for _, leg := range trade.Spot {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("executor: dispatch interrupted: %w", err)
		}

		res, err := d.spot.PlaceSpotOrder(ctx, leg)
		if err != nil {
			res = domain.OrderResult{Success: false, Message: err.Error()}
		}
		report.Spot = append(report.Spot, res)
		d.logLeg("spot", leg.Symbol, string(leg.Side), leg.Quantity, leg.Price, res)
	}

	for _, leg := range trade.Options {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("executor: dispatch interrupted: %w", err)
		}

		res, err := d.options.PlaceOptionOrder(ctx, leg)
		if err != nil {
			res = domain.OrderResult{Success: false, Message: err.Error()}
		}
		report.Options = append(report.Options, res)
		d.logLeg("option", leg.Label, string(leg.Side), leg.Contracts, leg.Price, res)
	}

	if report.Failed() {
		d.notifyFailure(ctx, report)
	}
	return report, nil
}

func (d *Dispatcher) logLeg(kind, instrument, side string, qty, price float64, res domain.OrderResult) {
	attrs := []any{
		slog.String("instrument", instrument),
		slog.String("side", side),
		slog.Float64("qty", qty),
		slog.Float64("price", price),
		slog.String("order_id", res.OrderID),
	}
	if res.Success {
		d.logger.Info(kind+" leg placed", attrs...)
	} else {
		d.logger.Error(kind+" leg rejected", append(attrs, slog.String("message", res.Message))...)
	}
}

func (d *Dispatcher) notifyFailure(ctx context.Context, report domain.DispatchReport) {
	if d.notifier == nil {
		return
	}

	failed := 0
	for _, r := range report.Spot {
		if !r.Success {
			failed++
		}
	}
	for _, r := range report.Options {
		if !r.Success {
			failed++
		}
	}

	msg := fmt.Sprintf("%d of %d legs rejected; position may be unhedged",
		failed, len(report.Spot)+len(report.Options))
	if err := d.notifier.Notify(ctx, "error", "Combo dispatch incomplete", msg); err != nil {
		d.logger.Warn("failure notification not delivered", slog.String("error", err.Error()))
	}
}
