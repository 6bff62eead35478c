// Package logger provides structured logging for kobot.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/edgard/kobot/internal/gateway"
)

// NewLogger creates a new slog Logger writing to stdout with the specified
// level and format, and installs it as the default logger.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := newLogger(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware logs every gateway event before and after it is handled.
func Middleware(log *slog.Logger) gateway.Middleware {
	return func(next gateway.Consumer) gateway.Consumer {
		return gateway.ConsumerFunc(func(ctx context.Context, event gateway.Event) {
			startTime := time.Now()

			logEntry := log.With("event_type", event.Kind.String())
			if msg := event.Message; msg != nil {
				logEntry = logEntry.With(
					"message_id", msg.ID,
					"channel_id", msg.ChannelID.String(),
					"user_id", msg.AuthorID,
					"text_preview", truncateString(msg.Content, 50),
				)
			}

			logEntry.DebugContext(ctx, "Processing event")

			next.HandleEvent(ctx, event)

			logEntry.DebugContext(ctx, "Finished processing event", "duration", time.Since(startTime))
		})
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
