// Package telegram implements gateway.Client on top of go-telegram/bot.
// Group chats play the role of guild channels; private chats are direct
// messages.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/kobot/internal/gateway"
)

const privateChat = "private"

// Client is a long-polling Telegram bot.
type Client struct {
	bot     *tgbot.Bot
	ownerID string
	logger  *slog.Logger

	// Chats seen in updates. The Bot API has no lookup for chats the bot
	// has not yet received a message from.
	chats sync.Map // gateway.ChannelID -> gateway.Channel

	mu       sync.RWMutex
	consumer gateway.Consumer
}

var _ gateway.Client = (*Client)(nil)

// New creates a bot for token. ownerID is the numeric user id allowed to
// register chats; Telegram exposes no bot owner.
func New(token, ownerID string, logger *slog.Logger, opts ...tgbot.Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("telegram owner id cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		ownerID: ownerID,
		logger:  logger.With("component", "telegram"),
	}

	// Identity performs the only getMe lookup so a bad token surfaces there.
	opts = append([]tgbot.Option{tgbot.WithSkipGetMe(), tgbot.WithDefaultHandler(c.handleUpdate)}, opts...)
	b, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	c.bot = b
	return c, nil
}

func (c *Client) Identity(ctx context.Context) (gateway.Identity, error) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return gateway.Identity{}, fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return gateway.Identity{
		BotID:   strconv.FormatInt(me.ID, 10),
		BotName: me.Username,
		OwnerID: c.ownerID,
	}, nil
}

func (c *Client) ResolveChannel(_ context.Context, id gateway.ChannelID) (*gateway.Channel, error) {
	v, ok := c.chats.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: chat %d", gateway.ErrNotFound, id.Int64())
	}
	ch := v.(gateway.Channel)
	return &ch, nil
}

func (c *Client) SendMessage(ctx context.Context, id gateway.ChannelID, text string) error {
	if _, err := c.bot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: id.Int64(), Text: text}); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", id.Int64(), err)
	}
	return nil
}

func (c *Client) SendDirectMessage(ctx context.Context, userID string, text string) error {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram user id %q: %w", userID, err)
	}
	// A user's private chat id equals the user id. Fails if the user never
	// started a conversation with the bot.
	if _, err := c.bot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: uid, Text: text}); err != nil {
		return fmt.Errorf("failed to send direct message to %s: %w", userID, err)
	}
	return nil
}

// Run long-polls for updates until ctx is cancelled.
func (c *Client) Run(ctx context.Context, consumer gateway.Consumer) error {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach telegram: %w", err)
	}

	c.mu.Lock()
	c.consumer = consumer
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.consumer = nil
		c.mu.Unlock()
	}()

	consumer.HandleEvent(ctx, gateway.Event{
		Kind:  gateway.EventConnectionReady,
		Ready: &gateway.Ready{BotName: me.Username},
	})

	c.bot.Start(ctx)
	c.logger.Info("Telegram polling stopped")
	return nil
}

func (c *Client) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	c.mu.RLock()
	consumer := c.consumer
	c.mu.RUnlock()
	if consumer == nil {
		return
	}

	msg := c.messageFromUpdate(update)
	if msg == nil {
		return
	}
	consumer.HandleEvent(ctx, gateway.Event{Kind: gateway.EventMessageReceived, Message: msg})
}

// messageFromUpdate converts a text message and records its chat.
func (c *Client) messageFromUpdate(update *models.Update) *gateway.Message {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return nil
	}
	m := update.Message

	ch := channelFromChat(m.Chat)
	c.chats.Store(ch.ID, ch)

	return &gateway.Message{
		ID:         strconv.Itoa(m.ID),
		AuthorID:   strconv.FormatInt(m.From.ID, 10),
		AuthorName: m.From.Username,
		ChannelID:  ch.ID,
		GuildID:    ch.GuildID,
		Content:    m.Text,
	}
}

func channelFromChat(chat models.Chat) gateway.Channel {
	ch := gateway.Channel{ID: gateway.ChannelIDFromInt64(chat.ID)}
	if string(chat.Type) == privateChat {
		ch.Name = chat.Username
		return ch
	}
	ch.Name = chat.Title
	ch.GuildID = strconv.FormatInt(chat.ID, 10)
	ch.GuildName = chat.Title
	return ch
}
