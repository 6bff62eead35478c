package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/edgard/kobot/internal/gateway"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range testCases {
		require.Equal(t, want, ParseLevel(input), input)
	}
}

func TestNewLogger_Formats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	newLogger(&buf, "info", true).Info("hello", "channel_id", "42")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "42", entry["channel_id"])

	buf.Reset()
	text := newLogger(&buf, "warn", false)
	text.Info("dropped")
	text.Warn("kept")
	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "msg=kept")
}

func TestMiddleware_CallsNextAndLogs(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	var buf bytes.Buffer
	log := newLogger(&buf, "debug", false)

	var handled []gateway.Event
	next := gateway.ConsumerFunc(func(_ context.Context, event gateway.Event) {
		handled = append(handled, event)
	})

	event := gateway.Event{
		Kind: gateway.EventMessageReceived,
		Message: &gateway.Message{
			ID:        "1",
			AuthorID:  "99",
			ChannelID: 42,
			Content:   strings.Repeat("x", 80),
		},
	}
	Middleware(log)(next).HandleEvent(context.Background(), event)

	req.Len(handled, 1)
	req.Equal(event, handled[0])
	out := buf.String()
	req.Contains(out, "Processing event")
	req.Contains(out, "Finished processing event")
	req.Contains(out, "channel_id=42")
	req.Contains(out, "event_type=message_received")
	req.Contains(out, strings.Repeat("x", 47)+"...")
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "short", truncateString("short", 10))
	require.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	require.Equal(t, "...", truncateString("abcdef", 2))

	// "é" is two bytes; a cut inside it backs off to the rune start
	got := truncateString("abcdéfghijkl", 8)
	require.Equal(t, "abcd...", got)
	require.True(t, utf8.ValidString(got))
}
