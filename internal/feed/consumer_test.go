package feed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickhayeck/combo-trading/internal/chain"
	"github.com/nickhayeck/combo-trading/internal/domain"
	"github.com/nickhayeck/combo-trading/internal/strategy"
)

type fakeDispatcher struct {
	trades []domain.Trade
}

func (f *fakeDispatcher) Dispatch(_ context.Context, trade domain.Trade) (domain.DispatchReport, error) {
	f.trades = append(f.trades, trade)
	return domain.DispatchReport{Trade: trade, DispatchedAt: time.Now()}, nil
}

type fakeBus struct {
	published [][]byte
}

func (f *fakeBus) Publish(_ context.Context, _ string, payload []byte) error {
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

type fakeJournal struct {
	reports []domain.DispatchReport
}

func (f *fakeJournal) Insert(_ context.Context, r domain.DispatchReport) error {
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeJournal) ListRecent(context.Context, int) ([]domain.DispatchReport, error) {
	return nil, nil
}

func testEngine(t *testing.T) *strategy.Combo {
	t.Helper()
	expiry := time.Date(2023, 6, 30, 21, 0, 0, 0, time.UTC)
	catalog := domain.Catalog{
		22248027: {
			ID: 22248027, Label: "BTC-Mini-30JUN2023-10000-Call", Underlying: "CBTC",
			Strike: 10000, Parity: domain.ParityCall, TTE: 0.6600180575256285,
			Multiplier: 100, MinIncrement: 1, Active: true, Expiry: expiry,
		},
		22248028: {
			ID: 22248028, Label: "BTC-Mini-30JUN2023-10000-Put", Underlying: "CBTC",
			Strike: 10000, Parity: domain.ParityPut, TTE: 0.6600180575256285,
			Multiplier: 100, MinIncrement: 1, Active: true, Expiry: expiry,
		},
	}
	cfg := strategy.Config{Symbol: "BTCUSDT", BorrowRate: 0.02, SizeFactor: 0.5}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return strategy.New(chain.Build(catalog, "CBTC"), catalog, cfg, logger)
}

func spotEnv(bid, ask float64) domain.Envelope {
	return domain.Envelope{
		Venue:      domain.VenueBinance,
		Spot:       &domain.SpotQuote{Symbol: "BTCUSDT", BidPrice: bid, BidSize: 1, AskPrice: ask, AskSize: 1},
		ReceivedAt: time.Now(),
	}
}

func bookEnv(id uint64, bid, ask float64) domain.Envelope {
	return domain.Envelope{
		Venue:      domain.VenueLedgerX,
		Book:       &domain.BookTop{ContractID: id, BidPrice: bid, BidSize: 1, AskPrice: ask, AskSize: 1},
		ReceivedAt: time.Now(),
	}
}

func TestConsumerDispatchesDetectedArb(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	bus := &fakeBus{}
	journal := &fakeJournal{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewConsumer(testEngine(t), dispatcher, bus, journal, nil, logger)

	in := make(chan domain.Envelope, 8)
	in <- spotEnv(20449, 20450)
	in <- bookEnv(22248027, 11070, 11180)
	in <- bookEnv(22248028, 500, 580)
	in <- spotEnv(20299, 20300)
	close(in)

	err := c.Run(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, dispatcher.trades, 1)
	trade := dispatcher.trades[0]
	assert.Equal(t, domain.ArbConversion, trade.Direction())
	require.Len(t, trade.Spot, 1)
	assert.InDelta(t, 0.5, trade.Spot[0].Quantity, 1e-9)
	require.Len(t, trade.Options, 2)

	require.Len(t, bus.published, 1)
	var ev domain.ArbEvent
	require.NoError(t, json.Unmarshal(bus.published[0], &ev))
	assert.Equal(t, domain.ArbConversion, ev.Direction)
	assert.Equal(t, "BTCUSDT", ev.Symbol)
	assert.InDelta(t, 50, ev.Contracts, 1e-9)
	assert.NotEmpty(t, ev.ID)

	require.Len(t, journal.reports, 1)
	assert.Equal(t, ev.ID, journal.reports[0].TradeID)
}

func TestConsumerUnknownContractIsFatal(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewConsumer(testEngine(t), dispatcher, nil, nil, nil, logger)

	in := make(chan domain.Envelope, 1)
	in <- bookEnv(31337, 1, 2)

	err := c.Run(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrUnknownContract)
	assert.Empty(t, dispatcher.trades)
}

func TestConsumerStopsOnContextCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewConsumer(testEngine(t), &fakeDispatcher{}, nil, nil, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx, make(chan domain.Envelope))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumerExitsOnChannelClose(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewConsumer(testEngine(t), &fakeDispatcher{}, nil, nil, nil, logger)

	in := make(chan domain.Envelope)
	close(in)

	assert.NoError(t, c.Run(context.Background(), in))
}
