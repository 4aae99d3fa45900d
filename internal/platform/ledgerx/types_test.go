package ledgerx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

func TestContractToDomain(t *testing.T) {
	raw := []byte(`{
		"id": 22248027,
		"label": "BTC-Mini-30JUN2023-10000-Call",
		"underlying_asset": "CBTC",
		"collateral_asset": "CBTC",
		"strike_price": 1000000,
		"is_call": true,
		"active": true,
		"date_expires": "2023-06-30 21:00:00+0000",
		"multiplier": 100,
		"min_increment": 1,
		"derivative_type": "options_contract"
	}`)

	var wire Contract
	require.NoError(t, json.Unmarshal(raw, &wire))

	now := time.Date(2022, 10, 31, 21, 0, 0, 0, time.UTC)
	spec := wire.ToDomain(now)

	assert.Equal(t, uint64(22248027), spec.ID)
	assert.Equal(t, "BTC-Mini-30JUN2023-10000-Call", spec.Label)
	assert.Equal(t, "CBTC", spec.Underlying)
	assert.Equal(t, int64(10000), spec.Strike, "strike converts from cents")
	assert.Equal(t, domain.ParityCall, spec.Parity)
	assert.True(t, spec.Active)
	assert.InDelta(t, 242.0/365.25, spec.TTE, 1e-9)

	// Expired contracts clamp to zero rather than going negative.
	late := wire.ToDomain(time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, late.TTE)
}

func TestBookTopToDomain(t *testing.T) {
	raw := []byte(`{"type":"book_top","contract_id":22248027,"bid":1107000,"bid_size":1,"ask":1118000,"ask_size":2,"clock":99}`)

	var msg BookTopMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, "book_top", msg.Type)

	book := msg.ToDomain()
	assert.Equal(t, uint64(22248027), book.ContractID)
	assert.InDelta(t, 11070, book.BidPrice, 1e-9)
	assert.InDelta(t, 1, book.BidSize, 1e-9)
	assert.InDelta(t, 11180, book.AskPrice, 1e-9)
	assert.InDelta(t, 2, book.AskSize, 1e-9)
	assert.Equal(t, int64(99), book.Clock)
}
