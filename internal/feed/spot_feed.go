// Package feed bridges the venue market-data clients onto a single event
// channel and runs the consumer loop that owns the parity engine.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nickhayeck/combo-trading/internal/domain"
	"github.com/nickhayeck/combo-trading/internal/platform/binance"
)

// SpotFeed pumps Binance book ticker events into the shared envelope
// channel.
type SpotFeed struct {
	ws      *binance.WSClient
	out     chan<- domain.Envelope
	logger  *slog.Logger
	dropped uint64
}

// NewSpotFeed creates a SpotFeed writing into out.
func NewSpotFeed(ws *binance.WSClient, out chan<- domain.Envelope, logger *slog.Logger) *SpotFeed {
	return &SpotFeed{
		ws:     ws,
		out:    out,
		logger: logger.With(slog.String("component", "spot_feed")),
	}
}

// enqueue hands a spot quote to the consumer, dropping it when the channel
// is full. Drops are counted; a later quote supersedes a dropped one anyway,
// so the book cannot go stale for long while the consumer keeps draining.
func (f *SpotFeed) enqueue(q domain.SpotQuote) {
	env := domain.Envelope{
		Venue:      domain.VenueBinance,
		Spot:       &q,
		ReceivedAt: time.Now().UTC(),
	}
	select {
	case f.out <- env:
	default:
		f.dropped++
		f.logger.Warn("envelope queue full, dropping spot quote",
			slog.String("symbol", q.Symbol),
			slog.Uint64("dropped_total", f.dropped))
	}
}

// Run connects the stream and blocks until the context is cancelled. Events
// that arrive while the channel is full are dropped with a warning; the
// consumer always sees per-feed FIFO order for what it does receive.
func (f *SpotFeed) Run(ctx context.Context) error {
	f.ws.OnSpotQuote(f.enqueue)

	if err := f.ws.Connect(ctx); err != nil {
		return fmt.Errorf("feed: spot connect: %w", err)
	}
	f.logger.Info("spot feed started")
	defer f.logger.Info("spot feed stopped")

	<-ctx.Done()
	_ = f.ws.Close()
	return ctx.Err()
}
