package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name string
	fail bool
	sent []string
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	if f.fail {
		return errors.New("unreachable")
	}
	f.sent = append(f.sent, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyHonorsEventFilter(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, []string{"error"}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), "arb_detected", "edge", "ignored"))
	assert.Empty(t, s.sent)

	require.NoError(t, n.Notify(context.Background(), "error", "legs rejected", "details"))
	assert.Equal(t, []string{"legs rejected"}, s.sent)

	// NotifyAll skips the filter entirely.
	require.NoError(t, n.NotifyAll(context.Background(), "shutdown", "bye"))
	assert.Equal(t, []string{"legs rejected", "shutdown"}, s.sent)
}

func TestFanoutContinuesPastFailedSender(t *testing.T) {
	dead := &fakeSender{name: "telegram", fail: true}
	live := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{dead, live}, nil, discardLogger())

	err := n.Notify(context.Background(), "error", "legs rejected", "details")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
	assert.Equal(t, []string{"legs rejected"}, live.sent, "healthy channel still fires")
}
