package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/beezlebub-bot/beezlebot-go/internal/services/context_manager"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
)

// BlockHandler handles !block add/remove/list.
func (h *Handlers) BlockHandler(ctx context.Context, args []string) error {
	nick := context_manager.GetNickFromContext(ctx)
	if len(args) == 0 {
		return rejection.New("Usage: !block add <user> | remove <user> | list")
	}

	switch strings.ToLower(args[0]) {
	case "add":
		if len(args) < 2 {
			return rejection.New("Usage: !block add <user>")
		}
		target, err := h.parseTarget(args[1])
		if err != nil {
			return err
		}
		if err := h.Registry.Block(ctx, nick, target); err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Blocked %s", target))

	case "remove":
		if len(args) < 2 {
			return rejection.New("Usage: !block remove <user>")
		}
		// No bot guard here: people must be able to unblock nicks that
		// no longer resolve to anyone.
		target := strings.ToLower(strings.TrimLeft(strings.TrimSpace(args[1]), "@+~&%"))
		if target == "" {
			return rejection.New("That is not recognised as a user")
		}
		if err := h.Registry.Unblock(ctx, nick, target); err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Unblocked %s", target))

	case "list":
		blocked, err := h.Registry.BlockedList(ctx, nick)
		if err != nil {
			return err
		}
		if len(blocked) == 0 {
			h.Responder.Respond(nick, "You don't have anyone blocked")
		} else {
			h.Responder.Respond(nick, strings.Join(blocked, ", "))
		}

	default:
		return rejection.New("Usage: !block add <user> | remove <user> | list")
	}
	return nil
}
