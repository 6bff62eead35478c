// Package handlers contains the gateway event handlers: channel registration,
// passive observation of listened channels, and connection-ready logging.
package handlers

import (
	"context"

	"github.com/edgard/kobot/internal/gateway"
)

// TriggerPhrase is the exact message content that registers a channel.
const TriggerPhrase = "kobot lives here"

// MessageHandler handles one inbound message.
type MessageHandler func(ctx context.Context, msg *gateway.Message)

// Handler is the gateway.Consumer kobot attaches to the platform client.
type Handler struct {
	botID    string
	register MessageHandler
	passive  MessageHandler
	ready    func(ctx context.Context, ready *gateway.Ready)
}

var _ gateway.Consumer = (*Handler)(nil)

// NewHandler wires the registration, passive and ready handlers.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		botID:    deps.Identity.BotID,
		register: NewRegisterHandler(deps),
		passive:  NewPassiveHandler(deps),
		ready:    newReadyHandler(deps),
	}
}

// HandleEvent dispatches event. Messages whose content is exactly the trigger
// phrase go to registration; everything else goes to passive observation.
// The bot's own messages are dropped.
func (h *Handler) HandleEvent(ctx context.Context, event gateway.Event) {
	switch event.Kind {
	case gateway.EventConnectionReady:
		if event.Ready != nil {
			h.ready(ctx, event.Ready)
		}
	case gateway.EventMessageReceived:
		if event.Message == nil || event.Message.AuthorID == h.botID {
			return
		}
		if event.Message.Content == TriggerPhrase {
			h.register(ctx, event.Message)
			return
		}
		h.passive(ctx, event.Message)
	}
}
