// Package gateway defines the platform-neutral contract between kobot and a
// chat platform client library. Adapters for each platform live in
// subpackages and translate library events into Event values.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound is returned when a channel or its server cannot be resolved.
var ErrNotFound = errors.New("not found")

// ChannelID identifies a channel on the platform.
type ChannelID uint64

// ParseChannelID parses the decimal form of a channel id.
func ParseChannelID(s string) (ChannelID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid channel id %q: %w", s, err)
	}
	return ChannelID(v), nil
}

// ChannelIDFromInt64 maps a signed platform id onto a ChannelID by keeping its
// bit pattern. Int64 reverses it.
func ChannelIDFromInt64(v int64) ChannelID {
	return ChannelID(uint64(v))
}

// Int64 returns the signed platform id a ChannelID was built from.
func (id ChannelID) Int64() int64 {
	return int64(uint64(id))
}

func (id ChannelID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Identity is the bot's own account and the account allowed to control it.
type Identity struct {
	BotID   string
	BotName string
	OwnerID string
}

// Channel is a resolved channel. GuildID is empty for direct messages.
type Channel struct {
	ID        ChannelID
	Name      string
	GuildID   string
	GuildName string
}

// IsGuild reports whether the channel belongs to a server.
func (c *Channel) IsGuild() bool {
	return c != nil && c.GuildID != ""
}

// Message is an inbound chat message.
type Message struct {
	ID         string
	AuthorID   string
	AuthorName string
	ChannelID  ChannelID
	GuildID    string
	Content    string
}

// Ready is delivered once the gateway connection is established.
type Ready struct {
	BotName string
}

// EventKind discriminates Event variants.
type EventKind int

const (
	EventMessageReceived EventKind = iota + 1
	EventConnectionReady
)

func (k EventKind) String() string {
	switch k {
	case EventMessageReceived:
		return "message_received"
	case EventConnectionReady:
		return "connection_ready"
	default:
		return "unknown"
	}
}

// Event is a single inbound platform event. Exactly one of Message or Ready is
// set, according to Kind.
type Event struct {
	Kind    EventKind
	Message *Message
	Ready   *Ready
}

// Consumer receives events from a Client. Clients may call HandleEvent from
// many goroutines at once.
type Consumer interface {
	HandleEvent(ctx context.Context, event Event)
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(ctx context.Context, event Event)

// HandleEvent calls f(ctx, event).
func (f ConsumerFunc) HandleEvent(ctx context.Context, event Event) {
	f(ctx, event)
}

// Middleware wraps a Consumer.
type Middleware func(next Consumer) Consumer

// Chain wraps c with mw. The first middleware is the outermost.
func Chain(c Consumer, mw ...Middleware) Consumer {
	for i := len(mw) - 1; i >= 0; i-- {
		c = mw[i](c)
	}
	return c
}

// Client is a connection to a chat platform.
type Client interface {
	// Identity looks up the bot's own account and its owner.
	Identity(ctx context.Context) (Identity, error)

	// ResolveChannel looks up a channel and the server it belongs to.
	ResolveChannel(ctx context.Context, id ChannelID) (*Channel, error)

	// SendMessage posts text to a channel.
	SendMessage(ctx context.Context, id ChannelID, text string) error

	// SendDirectMessage sends text privately to a user.
	SendDirectMessage(ctx context.Context, userID string, text string) error

	// Run connects to the platform and delivers events to consumer until the
	// connection terminates. It returns nil once ctx is cancelled.
	Run(ctx context.Context, consumer Consumer) error
}
