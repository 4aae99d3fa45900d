package ledgerx

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleMessageSkipsGarbage(t *testing.T) {
	ws := NewWSClient("wss://example.invalid/ws", "", discardLogger())

	var got []domain.BookTop
	ws.OnBookTop(func(b domain.BookTop) { got = append(got, b) })

	ws.handleMessage([]byte(`{{{`))
	ws.handleMessage([]byte(`{"type":"book_top","contract_id":22248027,"bid":"oops"}`))
	ws.handleMessage([]byte(`{"type":"heartbeat","run_id":7}`))
	ws.handleMessage([]byte(`{"type":"book_top","contract_id":22248027,"bid":1107000,"bid_size":1,"ask":1110000,"ask_size":2,"clock":9}`))

	require.Len(t, got, 1)
	assert.Equal(t, uint64(22248027), got[0].ContractID)
	assert.Equal(t, 11070.0, got[0].BidPrice)
	assert.Equal(t, int64(9), got[0].Clock)
}
