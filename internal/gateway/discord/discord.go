// Package discord implements gateway.Client on top of discordgo.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/edgard/kobot/internal/gateway"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Client is a Discord bot session.
type Client struct {
	session *discordgo.Session
	ownerID string
	logger  *slog.Logger
}

var _ gateway.Client = (*Client)(nil)

// New creates a session for the bot token. When ownerID is empty the owner of
// the bot's application is used.
func New(token, ownerID string, logger *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = intents

	return &Client{
		session: s,
		ownerID: ownerID,
		logger:  logger.With("component", "discord"),
	}, nil
}

func (c *Client) Identity(ctx context.Context) (gateway.Identity, error) {
	me, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return gateway.Identity{}, fmt.Errorf("failed to fetch bot user: %w", err)
	}

	ident := gateway.Identity{BotID: me.ID, BotName: me.Username, OwnerID: c.ownerID}
	if ident.OwnerID != "" {
		return ident, nil
	}

	app, err := c.session.Application("@me")
	if err != nil {
		return gateway.Identity{}, fmt.Errorf("failed to fetch bot application: %w", err)
	}
	ident.OwnerID = applicationOwner(app)
	if ident.OwnerID == "" {
		return gateway.Identity{}, errors.New("bot application has no owner")
	}
	return ident, nil
}

// applicationOwner prefers the team owner for team-owned applications.
func applicationOwner(app *discordgo.Application) string {
	if app.Team != nil && app.Team.OwnerID != "" {
		return app.Team.OwnerID
	}
	if app.Owner != nil {
		return app.Owner.ID
	}
	return ""
}

func (c *Client) ResolveChannel(ctx context.Context, id gateway.ChannelID) (*gateway.Channel, error) {
	ch, err := c.session.State.Channel(id.String())
	if err != nil {
		ch, err = c.session.Channel(id.String(), discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: channel %s: %w", gateway.ErrNotFound, id, err)
		}
	}
	if ch.GuildID == "" {
		return channelFromDiscord(ch, nil), nil
	}

	g, err := c.session.State.Guild(ch.GuildID)
	if err != nil {
		g, err = c.session.Guild(ch.GuildID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: guild %s: %w", gateway.ErrNotFound, ch.GuildID, err)
		}
	}
	return channelFromDiscord(ch, g), nil
}

func (c *Client) SendMessage(ctx context.Context, id gateway.ChannelID, text string) error {
	if _, err := c.session.ChannelMessageSend(id.String(), text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", id, err)
	}
	return nil
}

func (c *Client) SendDirectMessage(ctx context.Context, userID string, text string) error {
	dm, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open direct channel with %s: %w", userID, err)
	}
	if _, err := c.session.ChannelMessageSend(dm.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send direct message to %s: %w", userID, err)
	}
	return nil
}

// Run opens the gateway websocket and delivers events to consumer until ctx
// is cancelled. discordgo dispatches each event on its own goroutine.
func (c *Client) Run(ctx context.Context, consumer gateway.Consumer) error {
	dispatch := func(ev gateway.Event) {
		consumer.HandleEvent(ctx, ev)
	}

	removeMessage := c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if msg := messageFromDiscord(m); msg != nil {
			dispatch(gateway.Event{Kind: gateway.EventMessageReceived, Message: msg})
		}
	})
	defer removeMessage()

	removeReady := c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		name := ""
		if r.User != nil {
			name = r.User.Username
		}
		dispatch(gateway.Event{Kind: gateway.EventConnectionReady, Ready: &gateway.Ready{BotName: name}})
	})
	defer removeReady()

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}

	<-ctx.Done()

	c.logger.Info("Closing discord gateway")
	if err := c.session.Close(); err != nil {
		c.logger.Error("Error closing discord gateway", "error", err)
	}
	return nil
}

func messageFromDiscord(m *discordgo.MessageCreate) *gateway.Message {
	if m == nil || m.Message == nil || m.Author == nil {
		return nil
	}
	channelID, err := gateway.ParseChannelID(m.ChannelID)
	if err != nil {
		return nil
	}
	return &gateway.Message{
		ID:         m.ID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		ChannelID:  channelID,
		GuildID:    m.GuildID,
		Content:    m.Content,
	}
}

func channelFromDiscord(ch *discordgo.Channel, g *discordgo.Guild) *gateway.Channel {
	id, _ := gateway.ParseChannelID(ch.ID)
	out := &gateway.Channel{ID: id, Name: ch.Name}
	if g != nil {
		out.GuildID = g.ID
		out.GuildName = g.Name
	}
	return out
}
