package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nickhayeck/combo-trading/internal/domain"
	"github.com/nickhayeck/combo-trading/internal/platform/ledgerx"
)

// OptionsFeed pumps LedgerX book tops into the shared envelope channel.
type OptionsFeed struct {
	ws      *ledgerx.WSClient
	out     chan<- domain.Envelope
	logger  *slog.Logger
	dropped uint64
}

// NewOptionsFeed creates an OptionsFeed writing into out.
func NewOptionsFeed(ws *ledgerx.WSClient, out chan<- domain.Envelope, logger *slog.Logger) *OptionsFeed {
	return &OptionsFeed{
		ws:     ws,
		out:    out,
		logger: logger.With(slog.String("component", "options_feed")),
	}
}

// enqueue hands a book top to the consumer, dropping it when the channel is
// full. The dropped contract's level stays stale until its next update, so
// the count is worth watching; the warn carries the running total.
func (f *OptionsFeed) enqueue(b domain.BookTop) {
	env := domain.Envelope{
		Venue:      domain.VenueLedgerX,
		Book:       &b,
		ReceivedAt: time.Now().UTC(),
	}
	select {
	case f.out <- env:
	default:
		f.dropped++
		f.logger.Warn("envelope queue full, dropping book top",
			slog.Uint64("contract_id", b.ContractID),
			slog.Uint64("dropped_total", f.dropped))
	}
}

// Run connects the feed and blocks until the context is cancelled. Events
// that arrive while the channel is full are dropped with a warning.
func (f *OptionsFeed) Run(ctx context.Context) error {
	f.ws.OnBookTop(f.enqueue)

	if err := f.ws.Connect(ctx); err != nil {
		return fmt.Errorf("feed: options connect: %w", err)
	}
	f.logger.Info("options feed started")
	defer f.logger.Info("options feed stopped")

	<-ctx.Done()
	_ = f.ws.Close()
	return ctx.Err()
}
