package binance

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleMessageSkipsGarbage(t *testing.T) {
	ws := NewWSClient("wss://example.invalid/ws", "BTCUSDT", discardLogger())

	var got []domain.SpotQuote
	ws.OnSpotQuote(func(q domain.SpotQuote) { got = append(got, q) })

	ws.handleMessage([]byte(`not json at all`))
	ws.handleMessage([]byte(`{"u":1,"s":"BTCUSDT","b":"bogus","B":"2","a":"20450.00","A":"1"}`))
	ws.handleMessage([]byte(`{"result":null,"id":1}`))
	ws.handleMessage([]byte(`{"u":2,"s":"BTCUSDT","b":"20449.00","B":"2","a":"20450.00","A":"1"}`))

	require.Len(t, got, 1)
	assert.Equal(t, 20449.0, got[0].BidPrice)
	assert.Equal(t, 20450.0, got[0].AskPrice)
}

// A server-initiated ping must be answered without disturbing the stream:
// the pong reply runs on the read goroutine while pingLoop owns the data
// writer, so it has to go through the control-frame path.
func TestServerPingDoesNotDisruptStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteControl(websocket.PingMessage, []byte("ka"), time.Now().Add(time.Second))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"u":1,"s":"BTCUSDT","b":"20449.00","B":"2","a":"20450.00","A":"1"}`))

		// Hold the connection until the client hangs up; reading also
		// consumes the client's pong reply.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ws := NewWSClient("ws"+strings.TrimPrefix(srv.URL, "http"), "BTCUSDT", discardLogger())
	received := make(chan domain.SpotQuote, 1)
	ws.OnSpotQuote(func(q domain.SpotQuote) {
		select {
		case received <- q:
		default:
		}
	})

	require.NoError(t, ws.Connect(context.Background()))
	defer ws.Close()

	select {
	case q := <-received:
		assert.Equal(t, "BTCUSDT", q.Symbol)
	case <-time.After(3 * time.Second):
		t.Fatal("no quote received after server ping")
	}
}
