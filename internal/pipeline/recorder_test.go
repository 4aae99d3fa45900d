package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

type fakeBlobWriter struct {
	puts       map[string][]byte
	multiparts map[string][]byte
}

func newFakeBlobWriter() *fakeBlobWriter {
	return &fakeBlobWriter{
		puts:       map[string][]byte{},
		multiparts: map[string][]byte{},
	}
}

func (f *fakeBlobWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.puts[path] = b
	return nil
}

func (f *fakeBlobWriter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.multiparts[path] = b
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func spotEnvelope() domain.Envelope {
	return domain.Envelope{
		Venue: domain.VenueBinance,
		Spot: &domain.SpotQuote{
			Symbol:   "BTCUSDT",
			BidPrice: 20449,
			BidSize:  2,
			AskPrice: 20450,
			AskSize:  1,
			Time:     time.Date(2022, 10, 14, 12, 0, 0, 0, time.UTC),
		},
		ReceivedAt: time.Date(2022, 10, 14, 12, 0, 0, 5e8, time.UTC),
	}
}

func bookEnvelope() domain.Envelope {
	return domain.Envelope{
		Venue: domain.VenueLedgerX,
		Book: &domain.BookTop{
			ContractID: 22248027,
			BidPrice:   11070,
			AskPrice:   11100,
			Clock:      7,
		},
		ReceivedAt: time.Date(2022, 10, 14, 12, 0, 1, 0, time.UTC),
	}
}

func TestEncodeProducesOneLinePerEnvelope(t *testing.T) {
	r := NewRecorder(newFakeBlobWriter(), "quotes", time.Minute, 0, discard())

	var buf bytes.Buffer
	require.NoError(t, r.encode(&buf, spotEnvelope()))
	require.NoError(t, r.encode(&buf, bookEnvelope()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "binance", first["venue"])
	assert.Contains(t, first, "spot")
	assert.NotContains(t, first, "book")

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "ledgerx", second["venue"])
	book, ok := second["book"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(22248027), book["contract_id"])
	assert.Equal(t, float64(7), book["clock"])
}

func TestFlushUploadsAndResets(t *testing.T) {
	w := newFakeBlobWriter()
	r := NewRecorder(w, "quotes", time.Minute, 0, discard())

	var buf bytes.Buffer
	require.NoError(t, r.encode(&buf, spotEnvelope()))

	r.flush(context.Background(), &buf)

	assert.Zero(t, buf.Len())
	require.Len(t, w.puts, 1)
	assert.Empty(t, w.multiparts)
	for key, data := range w.puts {
		assert.True(t, strings.HasPrefix(key, "quotes/"))
		assert.True(t, strings.HasSuffix(key, ".jsonl"))
		assert.Contains(t, string(data), "BTCUSDT")
	}
}

func TestFlushUsesMultipartForLargeBatches(t *testing.T) {
	w := newFakeBlobWriter()
	r := NewRecorder(w, "quotes", time.Minute, 0, discard())

	var buf bytes.Buffer
	buf.Write(make([]byte, multipartThreshold))

	r.flush(context.Background(), &buf)

	assert.Empty(t, w.puts)
	assert.Len(t, w.multiparts, 1)
}

func TestRecordDropsWhenQueueFull(t *testing.T) {
	r := NewRecorder(newFakeBlobWriter(), "quotes", time.Minute, 0, discard())

	for i := 0; i < cap(r.ch)+10; i++ {
		r.Record(spotEnvelope())
	}

	assert.Equal(t, cap(r.ch), len(r.ch))
	assert.Equal(t, 10, r.dropped)
}

func TestRunFlushesOnShutdown(t *testing.T) {
	w := newFakeBlobWriter()
	r := NewRecorder(w, "quotes", time.Hour, 0, discard())

	r.Record(spotEnvelope())
	r.Record(bookEnvelope())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, w.puts, 1)
	for _, data := range w.puts {
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		assert.Len(t, lines, 2)
	}
}
