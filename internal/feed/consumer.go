package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nickhayeck/combo-trading/internal/domain"
	"github.com/nickhayeck/combo-trading/internal/strategy"
)

// arbChannel is the signal-bus channel arb events are published on.
const arbChannel = "arb_detected"

// Dispatcher sends a netted trade to the venues.
type Dispatcher interface {
	Dispatch(ctx context.Context, trade domain.Trade) (domain.DispatchReport, error)
}

// Recorder tees raw envelopes off to archival storage.
type Recorder interface {
	Record(env domain.Envelope)
}

// Consumer drains the envelope channel and is the sole owner of the parity
// engine: every chain mutation and evaluation happens on its goroutine.
type Consumer struct {
	engine     *strategy.Combo
	dispatcher Dispatcher
	bus        domain.SignalBus    // optional
	journal    domain.TradeJournal // optional
	recorder   Recorder            // optional
	logger     *slog.Logger
}

// NewConsumer creates a Consumer. Bus, journal, and recorder may be nil;
// those side channels are simply skipped.
func NewConsumer(engine *strategy.Combo, dispatcher Dispatcher, bus domain.SignalBus, journal domain.TradeJournal, recorder Recorder, logger *slog.Logger) *Consumer {
	return &Consumer{
		engine:     engine,
		dispatcher: dispatcher,
		bus:        bus,
		journal:    journal,
		recorder:   recorder,
		logger:     logger.With(slog.String("component", "consumer")),
	}
}

// Run processes envelopes until the context is cancelled, the channel is
// closed, or the engine reports an invariant violation. Engine errors are
// fatal by design: an unknown contract or a parity conflict means the
// lattice no longer mirrors the venue and continuing would trade on garbage.
func (c *Consumer) Run(ctx context.Context, in <-chan domain.Envelope) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-in:
			if !ok {
				return nil
			}
			if err := c.handle(ctx, env); err != nil {
				return err
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, env domain.Envelope) error {
	if c.recorder != nil {
		c.recorder.Record(env)
	}

	var (
		trade domain.Trade
		err   error
	)
	switch {
	case env.Spot != nil:
		trade, err = c.engine.OnSpotQuote(*env.Spot)
	case env.Book != nil:
		trade, err = c.engine.OnBookTop(*env.Book)
	default:
		c.logger.Warn("empty envelope", slog.String("venue", string(env.Venue)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("feed: consume %s event: %w", env.Venue, err)
	}

	netted := trade.NetOut()
	if netted.Empty() {
		return nil
	}

	tradeID := uuid.NewString()
	c.publishArbEvent(ctx, tradeID, netted)

	report, err := c.dispatcher.Dispatch(ctx, netted)
	if err != nil {
		return fmt.Errorf("feed: dispatch trade %s: %w", tradeID, err)
	}
	report.TradeID = tradeID

	if c.journal != nil {
		if err := c.journal.Insert(ctx, report); err != nil {
			// Journal failures must not stop trading; the report is
			// already logged by the dispatcher.
			c.logger.Error("journal insert failed",
				slog.String("trade_id", tradeID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// publishArbEvent pushes a detection event onto the signal bus, if one is
// wired.
func (c *Consumer) publishArbEvent(ctx context.Context, tradeID string, trade domain.Trade) {
	if c.bus == nil {
		return
	}

	var contracts float64
	if len(trade.Options) > 0 {
		contracts = trade.Options[0].Contracts
	}
	symbol := ""
	if len(trade.Spot) > 0 {
		symbol = trade.Spot[0].Symbol
	}

	ev := domain.ArbEvent{
		ID:         tradeID,
		Symbol:     symbol,
		Direction:  trade.Direction(),
		SpotLegs:   len(trade.Spot),
		OptionLegs: len(trade.Options),
		Contracts:  contracts,
		DetectedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := c.bus.Publish(ctx, arbChannel, payload); err != nil {
		c.logger.Warn("arb event publish failed", slog.String("error", err.Error()))
	}
}
