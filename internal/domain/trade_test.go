package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetOutFoldsSameSymbol(t *testing.T) {
	trade := Trade{
		Spot: []SpotOrder{
			{Symbol: "BTCUSDT", Side: OrderSideBuy, Price: 20300, Quantity: 1.5},
			{Symbol: "ETHUSDT", Side: OrderSideBuy, Price: 1800, Quantity: 2},
			{Symbol: "BTCUSDT", Side: OrderSideSell, Price: 20299, Quantity: 0.5},
			{Symbol: "ETHUSDT", Side: OrderSideSell, Price: 1799, Quantity: 3},
		},
		Options: []OptionOrder{
			{ContractID: 1, Side: OrderSideSell, Price: 11070, Contracts: 50},
		},
	}

	netted := trade.NetOut()
	require.Len(t, netted.Spot, 2)

	// First-occurrence symbol order, first-seen price.
	btc := netted.Spot[0]
	assert.Equal(t, "BTCUSDT", btc.Symbol)
	assert.Equal(t, OrderSideBuy, btc.Side)
	assert.InDelta(t, 1.0, btc.Quantity, 1e-12)
	assert.InDelta(t, 20300, btc.Price, 1e-12)

	eth := netted.Spot[1]
	assert.Equal(t, "ETHUSDT", eth.Symbol)
	assert.Equal(t, OrderSideSell, eth.Side)
	assert.InDelta(t, 1.0, eth.Quantity, 1e-12)

	// Option legs pass through untouched.
	require.Len(t, netted.Options, 1)
	assert.Equal(t, trade.Options[0], netted.Options[0])
}

func TestNetOutDropsFullOffsets(t *testing.T) {
	trade := Trade{
		Spot: []SpotOrder{
			{Symbol: "BTCUSDT", Side: OrderSideBuy, Price: 20300, Quantity: 0.5},
			{Symbol: "BTCUSDT", Side: OrderSideSell, Price: 20299, Quantity: 0.5},
		},
	}

	netted := trade.NetOut()
	assert.Empty(t, netted.Spot)
	assert.True(t, netted.Empty())
}

func TestNetOutIdempotent(t *testing.T) {
	trade := Trade{
		Spot: []SpotOrder{
			{Symbol: "BTCUSDT", Side: OrderSideSell, Price: 20600, Quantity: 2},
			{Symbol: "BTCUSDT", Side: OrderSideBuy, Price: 20601, Quantity: 0.5},
		},
	}

	once := trade.NetOut()
	twice := once.NetOut()
	assert.Equal(t, once, twice)
}

func TestDirection(t *testing.T) {
	rev := Trade{Spot: []SpotOrder{{Symbol: "BTCUSDT", Side: OrderSideSell, Quantity: 1}}}
	assert.Equal(t, ArbReversal, rev.Direction())

	conv := Trade{Spot: []SpotOrder{{Symbol: "BTCUSDT", Side: OrderSideBuy, Quantity: 1}}}
	assert.Equal(t, ArbConversion, conv.Direction())
}
