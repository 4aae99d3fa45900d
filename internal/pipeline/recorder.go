// Package pipeline contains the offline data path: capturing raw market-data
// envelopes and shipping them to object storage as JSONL batches.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nickhayeck/combo-trading/internal/domain"
	"github.com/nickhayeck/combo-trading/internal/feed"
)

// multipartThreshold is the batch size above which the recorder switches from
// a single PutObject to a multipart upload.
const multipartThreshold = 8 * 1024 * 1024

// captureRecord is the JSONL line written for each envelope.
type captureRecord struct {
	Venue      domain.Venue `json:"venue"`
	ReceivedAt time.Time    `json:"received_at"`
	Spot       *spotRecord  `json:"spot,omitempty"`
	Book       *bookRecord  `json:"book,omitempty"`
}

type spotRecord struct {
	Symbol   string    `json:"symbol"`
	BidPrice float64   `json:"bid_price"`
	BidSize  float64   `json:"bid_size"`
	AskPrice float64   `json:"ask_price"`
	AskSize  float64   `json:"ask_size"`
	Time     time.Time `json:"time"`
}

type bookRecord struct {
	ContractID uint64  `json:"contract_id"`
	BidPrice   float64 `json:"bid_price"`
	BidSize    float64 `json:"bid_size"`
	AskPrice   float64 `json:"ask_price"`
	AskSize    float64 `json:"ask_size"`
	Clock      int64   `json:"clock"`
}

// Recorder tees raw envelopes off the hot path and uploads them to object
// storage in timed JSONL batches. Record never blocks the caller: when the
// internal queue is full the envelope is dropped and counted.
type Recorder struct {
	writer   domain.BlobWriter
	prefix   string
	interval time.Duration
	maxBatch int

	ch      chan domain.Envelope
	pending int
	dropped int
	seq     int
	logger  *slog.Logger
}

var _ feed.Recorder = (*Recorder)(nil)

// NewRecorder creates a Recorder that flushes a batch every interval or when
// the pending batch reaches maxBatch records, whichever comes first. Keys are
// written under prefix, partitioned by day.
func NewRecorder(writer domain.BlobWriter, prefix string, interval time.Duration, maxBatch int, logger *slog.Logger) *Recorder {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxBatch <= 0 {
		maxBatch = 10000
	}
	return &Recorder{
		writer:   writer,
		prefix:   prefix,
		interval: interval,
		maxBatch: maxBatch,
		ch:       make(chan domain.Envelope, 4096),
		logger:   logger.With(slog.String("component", "recorder")),
	}
}

// Record implements feed.Recorder.
func (r *Recorder) Record(env domain.Envelope) {
	select {
	case r.ch <- env:
	default:
		r.dropped++
	}
}

// Run drains the queue and flushes batches until the context is cancelled.
// A final flush with a short grace period runs on shutdown so the tail of
// the capture is not lost.
func (r *Recorder) Run(ctx context.Context) error {
	r.logger.Info("recorder started",
		slog.String("prefix", r.prefix),
		slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var buf bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			r.drainInto(&buf)
			if buf.Len() > 0 {
				flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				r.flush(flushCtx, &buf)
				cancel()
			}
			return ctx.Err()
		case env := <-r.ch:
			if err := r.encode(&buf, env); err != nil {
				r.logger.Warn("envelope encode failed", slog.String("error", err.Error()))
				continue
			}
			if r.pending >= r.maxBatch {
				r.flush(ctx, &buf)
			}
		case <-ticker.C:
			r.drainInto(&buf)
			if buf.Len() > 0 {
				r.flush(ctx, &buf)
			}
			if r.dropped > 0 {
				r.logger.Warn("capture queue overflowed", slog.Int("dropped", r.dropped))
				r.dropped = 0
			}
		}
	}
}

// drainInto moves everything currently queued into the batch buffer without
// blocking.
func (r *Recorder) drainInto(buf *bytes.Buffer) {
	for {
		select {
		case env := <-r.ch:
			if err := r.encode(buf, env); err != nil {
				r.logger.Warn("envelope encode failed", slog.String("error", err.Error()))
			}
		default:
			return
		}
	}
}

func (r *Recorder) encode(buf *bytes.Buffer, env domain.Envelope) error {
	rec := captureRecord{
		Venue:      env.Venue,
		ReceivedAt: env.ReceivedAt,
	}
	if env.Spot != nil {
		rec.Spot = &spotRecord{
			Symbol:   env.Spot.Symbol,
			BidPrice: env.Spot.BidPrice,
			BidSize:  env.Spot.BidSize,
			AskPrice: env.Spot.AskPrice,
			AskSize:  env.Spot.AskSize,
			Time:     env.Spot.Time,
		}
	}
	if env.Book != nil {
		rec.Book = &bookRecord{
			ContractID: env.Book.ContractID,
			BidPrice:   env.Book.BidPrice,
			BidSize:    env.Book.BidSize,
			AskPrice:   env.Book.AskPrice,
			AskSize:    env.Book.AskSize,
			Clock:      env.Book.Clock,
		}
	}

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return err
	}
	r.pending++
	return nil
}

// flush uploads the batch and resets the buffer. Upload failures are logged
// and the batch is discarded; capture is best-effort and must never wedge
// the queue.
func (r *Recorder) flush(ctx context.Context, buf *bytes.Buffer) {
	key := r.nextKey(time.Now().UTC())
	size := buf.Len()

	var err error
	if size >= multipartThreshold {
		err = r.writer.PutMultipart(ctx, key, bytes.NewReader(buf.Bytes()), 0)
	} else {
		err = r.writer.Put(ctx, key, bytes.NewReader(buf.Bytes()), "application/x-ndjson")
	}
	if err != nil {
		r.logger.Error("batch upload failed",
			slog.String("key", key),
			slog.Int("bytes", size),
			slog.String("error", err.Error()))
	} else {
		r.logger.Debug("batch uploaded",
			slog.String("key", key),
			slog.Int("records", r.pending),
			slog.Int("bytes", size))
	}
	r.pending = 0
	buf.Reset()
}

func (r *Recorder) nextKey(now time.Time) string {
	r.seq++
	return fmt.Sprintf("%s/%s/%s-%06d.jsonl",
		r.prefix, now.Format("2006-01-02"), now.Format("150405"), r.seq)
}
