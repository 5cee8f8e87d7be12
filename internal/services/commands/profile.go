package commands

import (
	"context"

	"github.com/beezlebub-bot/beezlebot-go/internal/services/context_manager"
)

// ProfileHandler handles !profile [user]; without an argument it shows the
// invoker's own profile.
func (h *Handlers) ProfileHandler(ctx context.Context, args []string) error {
	nick := context_manager.GetNickFromContext(ctx)

	target := nick
	if len(args) > 0 {
		var err error
		target, err = h.parseTarget(args[0])
		if err != nil {
			return err
		}
	}

	text, err := h.Profile.Render(ctx, nick, target)
	if err != nil {
		return err
	}
	h.Responder.Respond(nick, text)
	return nil
}
