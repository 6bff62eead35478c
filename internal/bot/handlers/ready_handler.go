package handlers

import (
	"context"

	"github.com/edgard/kobot/internal/gateway"
)

func newReadyHandler(deps HandlerDeps) func(ctx context.Context, ready *gateway.Ready) {
	log := deps.Logger.With("handler", "ready")
	return func(ctx context.Context, ready *gateway.Ready) {
		log.InfoContext(ctx, ready.BotName+" is connected!",
			"bot_id", deps.Identity.BotID,
			"listen_channels", deps.Listen.Len())
	}
}
