package handlers

import (
	"context"

	"github.com/edgard/kobot/internal/gateway"
)

// NewPassiveHandler returns the handler for non-trigger messages. It only
// reads the listen set and never replies.
func NewPassiveHandler(deps HandlerDeps) MessageHandler {
	return passiveHandler{deps}.Handle
}

type passiveHandler struct {
	deps HandlerDeps
}

func (h passiveHandler) Handle(ctx context.Context, msg *gateway.Message) {
	if !h.deps.Listen.Contains(msg.ChannelID) {
		return
	}

	log := h.deps.Logger.With("handler", "passive")

	name := msg.ChannelID.String()
	if channel, err := h.deps.Gateway.ResolveChannel(ctx, msg.ChannelID); err != nil {
		log.WarnContext(ctx, "Failed to resolve listened channel name", "channel_id", name, "error", err)
	} else {
		name = channel.Name
	}

	h.deps.Metrics.MessageObserved()
	log.InfoContext(ctx, "#"+name+" > "+msg.Content,
		"channel_id", msg.ChannelID.String(),
		"user_id", msg.AuthorID,
		"author", msg.AuthorName)
}
