package handlers

import (
	"context"
	"strings"

	"github.com/edgard/kobot/internal/gateway"
	"github.com/edgard/kobot/internal/metrics"
)

// NewRegisterHandler returns the handler for the trigger phrase.
func NewRegisterHandler(deps HandlerDeps) MessageHandler {
	return registerHandler{deps}.Handle
}

// registerHandler adds the originating channel to the listen set when the
// owner asks for it.
type registerHandler struct {
	deps HandlerDeps
}

// Handle writes the store first, then the mirror, then replies. A crash
// between steps loses at most the mirror entry, which is rebuilt from the
// store on restart.
func (h registerHandler) Handle(ctx context.Context, msg *gateway.Message) {
	log := h.deps.Logger.With("handler", "register", "channel_id", msg.ChannelID.String(), "user_id", msg.AuthorID)

	channel, err := h.deps.Gateway.ResolveChannel(ctx, msg.ChannelID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve channel", "error", err)
		h.deps.Metrics.Registration(metrics.OutcomeIgnored)
		return
	}
	if !channel.IsGuild() {
		log.InfoContext(ctx, "Listen request for non-guild channel, ignoring")
		h.deps.Metrics.Registration(metrics.OutcomeIgnored)
		return
	}

	if msg.AuthorID != h.deps.Identity.OwnerID {
		log.WarnContext(ctx, "Unauthorized listen request", "channel", channel.Name)
		h.deps.Metrics.Registration(metrics.OutcomeUnauthorized)

		text := render(h.deps.Messages.NotAuthorized, channel)
		if err := h.deps.Gateway.SendDirectMessage(ctx, msg.AuthorID, text); err != nil {
			log.ErrorContext(ctx, "Failed to send direct message", "error", err)
		}
		return
	}

	added, err := h.deps.Store.Add(ctx, channel.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to add channel to listen store", "error", err)
		h.deps.Metrics.Registration(metrics.OutcomeStoreError)
		return
	}

	// Nothing added to the set: the channel is already registered
	if !added {
		h.deps.Metrics.Registration(metrics.OutcomeDuplicate)
		if err := h.deps.Gateway.SendMessage(ctx, channel.ID, h.deps.Messages.AlreadyListening); err != nil {
			log.ErrorContext(ctx, "Failed to send reply", "error", err)
		}
		return
	}

	h.deps.Listen.Add(channel.ID)
	h.deps.Metrics.Registration(metrics.OutcomeRegistered)
	h.deps.Metrics.SetListenSize(h.deps.Listen.Len())

	if err := h.deps.Gateway.SendMessage(ctx, channel.ID, render(h.deps.Messages.Registered, channel)); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err)
		return
	}

	log.InfoContext(ctx, "now listening to "+channel.GuildName+" #"+channel.Name+" (enabled by "+msg.AuthorName+")")
}

// render fills the {server} and {channel} placeholders of a reply template.
func render(template string, channel *gateway.Channel) string {
	return strings.NewReplacer(
		"{server}", channel.GuildName,
		"{channel}", channel.Name,
	).Replace(template)
}
