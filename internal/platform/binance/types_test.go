package binance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookTickerToDomain(t *testing.T) {
	raw := []byte(`{"u":400900217,"s":"BTCUSDT","b":"20449.00000000","B":"1.00000000","a":"20450.00000000","A":"2.50000000"}`)

	var msg BookTickerMessage
	require.NoError(t, json.Unmarshal(raw, &msg))

	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	quote, err := msg.ToDomain(now)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", quote.Symbol)
	assert.InDelta(t, 20449, quote.BidPrice, 1e-9)
	assert.InDelta(t, 1, quote.BidSize, 1e-9)
	assert.InDelta(t, 20450, quote.AskPrice, 1e-9)
	assert.InDelta(t, 2.5, quote.AskSize, 1e-9)
	assert.Equal(t, now, quote.Time)
}

func TestBookTickerMalformed(t *testing.T) {
	msg := BookTickerMessage{Symbol: "BTCUSDT", BidPrice: "not-a-number", BidQty: "1", AskPrice: "2", AskQty: "3"}

	_, err := msg.ToDomain(time.Now())
	assert.Error(t, err)
}

func TestAvgFillPrice(t *testing.T) {
	var ack OrderAck
	require.NoError(t, json.Unmarshal([]byte(`{
		"symbol":"BTCUSDT","orderId":28,"status":"FILLED","executedQty":"1.0",
		"fills":[{"price":"20300.0","qty":"0.75"},{"price":"20304.0","qty":"0.25"}]
	}`), &ack))

	assert.InDelta(t, 20301, ack.AvgFillPrice(), 1e-9)

	empty := OrderAck{}
	assert.Zero(t, empty.AvgFillPrice())
}
