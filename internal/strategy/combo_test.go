package strategy

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickhayeck/combo-trading/internal/chain"
	"github.com/nickhayeck/combo-trading/internal/domain"
)

const (
	callID = 22248027
	putID  = 22248028
	tte    = 0.6600180575256285
)

func miniCatalog() domain.Catalog {
	expiry := time.Date(2023, 6, 30, 21, 0, 0, 0, time.UTC)
	return domain.Catalog{
		callID: {
			ID: callID, Label: "BTC-Mini-30JUN2023-10000-Call", Underlying: "CBTC",
			Strike: 10000, Parity: domain.ParityCall, TTE: tte,
			Multiplier: 100, MinIncrement: 1, Active: true, Expiry: expiry,
		},
		putID: {
			ID: putID, Label: "BTC-Mini-30JUN2023-10000-Put", Underlying: "CBTC",
			Strike: 10000, Parity: domain.ParityPut, TTE: tte,
			Multiplier: 100, MinIncrement: 1, Active: true, Expiry: expiry,
		},
	}
}

func newCombo(t *testing.T, catalog domain.Catalog) *Combo {
	t.Helper()
	cfg := Config{
		Symbol:         "BTCUSDT",
		BorrowRate:     0.02,
		OptionsFeeRate: 0,
		SpotFeeRate:    0,
		SizeFactor:     0.5,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(chain.Build(catalog, "CBTC"), catalog, cfg, logger)
}

func spotQuote(bid, ask float64) domain.SpotQuote {
	return domain.SpotQuote{Symbol: "BTCUSDT", BidPrice: bid, BidSize: 1, AskPrice: ask, AskSize: 1, Time: time.Now()}
}

func bookTop(id uint64, bid, ask, size float64) domain.BookTop {
	return domain.BookTop{ContractID: id, BidPrice: bid, BidSize: size, AskPrice: ask, AskSize: size}
}

// Walks the reference tick sequence: quotes trickle in with no edge until a
// spot drop pushes the synthetic short above the spot ask, firing a
// conversion at the 10000 strike.
func TestConversionScenario(t *testing.T) {
	s := newCombo(t, miniCatalog())

	trade, err := s.OnSpotQuote(spotQuote(20449, 20450))
	require.NoError(t, err)
	assert.True(t, trade.Empty(), "no options quoted yet")

	trade, err = s.OnBookTop(bookTop(callID, 11070, 11180, 1))
	require.NoError(t, err)
	assert.True(t, trade.Empty(), "put side still missing")

	trade, err = s.OnBookTop(bookTop(putID, 500, 580, 1))
	require.NoError(t, err)
	assert.True(t, trade.Empty(), "no edge at spot 20449/20450")

	trade, err = s.OnSpotQuote(spotQuote(20299, 20300))
	require.NoError(t, err)
	require.False(t, trade.Empty())

	trade = trade.NetOut()
	require.Len(t, trade.Spot, 1)
	require.Len(t, trade.Options, 2)
	assert.Equal(t, domain.ArbConversion, trade.Direction())

	spot := trade.Spot[0]
	assert.Equal(t, domain.OrderSideBuy, spot.Side)
	assert.Equal(t, "BTCUSDT", spot.Symbol)
	assert.InDelta(t, 20300, spot.Price, 1e-9)
	assert.InDelta(t, 0.5, spot.Quantity, 1e-9)

	call := trade.Options[0]
	assert.Equal(t, uint64(callID), call.ContractID)
	assert.Equal(t, domain.OrderSideSell, call.Side)
	assert.InDelta(t, 11070, call.Price, 1e-9)
	assert.InDelta(t, 50, call.Contracts, 1e-9)

	put := trade.Options[1]
	assert.Equal(t, uint64(putID), put.ContractID)
	assert.Equal(t, domain.OrderSideBuy, put.Side)
	assert.InDelta(t, 580, put.Price, 1e-9)
	assert.InDelta(t, 50, put.Contracts, 1e-9)
}

func TestReversalDirection(t *testing.T) {
	s := newCombo(t, miniCatalog())

	_, err := s.OnBookTop(bookTop(callID, 11070, 11180, 1))
	require.NoError(t, err)
	_, err = s.OnBookTop(bookTop(putID, 500, 580, 1))
	require.NoError(t, err)

	// Synthetic long sits near 20548.9; a bid below it must not fire.
	trade, err := s.OnSpotQuote(spotQuote(20449, 20450))
	require.NoError(t, err)
	assert.True(t, trade.Empty())

	trade, err = s.OnSpotQuote(spotQuote(20600, 20601))
	require.NoError(t, err)
	require.False(t, trade.Empty())
	assert.Equal(t, domain.ArbReversal, trade.Direction())

	spot := trade.Spot[0]
	assert.Equal(t, domain.OrderSideSell, spot.Side)
	assert.InDelta(t, 20600, spot.Price, 1e-9)
	assert.InDelta(t, 0.5, spot.Quantity, 1e-9)

	call := trade.Options[0]
	assert.Equal(t, domain.OrderSideBuy, call.Side)
	assert.InDelta(t, 11180, call.Price, 1e-9)
}

func TestBookTopBeforeSpotIsQuiet(t *testing.T) {
	s := newCombo(t, miniCatalog())

	trade, err := s.OnBookTop(bookTop(callID, 1, 20000, 1))
	require.NoError(t, err)
	assert.True(t, trade.Empty())
}

func TestUnknownContractIsFatal(t *testing.T) {
	s := newCombo(t, miniCatalog())

	_, err := s.OnBookTop(bookTop(999999, 1, 2, 1))
	assert.ErrorIs(t, err, domain.ErrUnknownContract)
}

func TestFilteredContractIgnored(t *testing.T) {
	catalog := miniCatalog()
	dead := catalog[putID]
	dead.ID = 31000000
	dead.Label = "BTC-Mini-30JUN2023-10000-Put-Delisted"
	dead.Active = false
	catalog[31000000] = dead

	s := newCombo(t, catalog)

	trade, err := s.OnBookTop(bookTop(31000000, 500, 580, 1))
	require.NoError(t, err)
	assert.True(t, trade.Empty())
}

func TestCrossedBooksSignalConflict(t *testing.T) {
	s := newCombo(t, miniCatalog())

	// A crossed call book lifts the synthetic short above the synthetic
	// long, which makes both parity conditions hold at once.
	_, err := s.OnBookTop(bookTop(callID, 12000, 11000, 1))
	require.NoError(t, err)
	_, err = s.OnBookTop(bookTop(putID, 600, 500, 1))
	require.NoError(t, err)

	_, err = s.OnSpotQuote(spotQuote(20700, 20701))
	assert.ErrorIs(t, err, domain.ErrParityConflict)
}

func TestLegContractsUseOwnMultiplier(t *testing.T) {
	catalog := miniCatalog()
	put := catalog[putID]
	put.Multiplier = 10
	catalog[putID] = put

	s := newCombo(t, catalog)

	_, err := s.OnBookTop(bookTop(callID, 11070, 11180, 1))
	require.NoError(t, err)
	_, err = s.OnBookTop(bookTop(putID, 500, 580, 1))
	require.NoError(t, err)

	trade, err := s.OnSpotQuote(spotQuote(20299, 20300))
	require.NoError(t, err)
	require.False(t, trade.Empty())
	require.Len(t, trade.Options, 2)

	// Spot depth caps the trade at half a unit; each option leg converts
	// that through its own multiplier.
	assert.InDelta(t, 50, trade.Options[0].Contracts, 1e-9)
	assert.InDelta(t, 5, trade.Options[1].Contracts, 1e-9)

	// Shrinking the put multiplier to 1 drops the put leg below a whole
	// contract while the call leg is still fine; the trade is abandoned.
	put.Multiplier = 1
	catalog[putID] = put
	s = newCombo(t, catalog)

	_, err = s.OnBookTop(bookTop(callID, 11070, 11180, 1))
	require.NoError(t, err)
	_, err = s.OnBookTop(bookTop(putID, 500, 580, 1))
	require.NoError(t, err)

	trade, err = s.OnSpotQuote(spotQuote(20299, 20300))
	require.NoError(t, err)
	assert.True(t, trade.Empty())
}

func TestSubContractSizeAbandoned(t *testing.T) {
	s := newCombo(t, miniCatalog())

	_, err := s.OnBookTop(bookTop(callID, 11070, 11180, 1))
	require.NoError(t, err)
	_, err = s.OnBookTop(bookTop(putID, 500, 580, 1))
	require.NoError(t, err)

	// Edge is live but the spot side only shows 0.01 units: half of that
	// rounds below one whole contract, so nothing is dispatched.
	q := spotQuote(20299, 20300)
	q.AskSize = 0.01
	trade, err := s.OnSpotQuote(q)
	require.NoError(t, err)
	assert.True(t, trade.Empty())
}
