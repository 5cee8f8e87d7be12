package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/beezlebub-bot/beezlebot-go/internal/services/context_manager"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/profile"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
)

const controlUsage = "Usage: !control request <user> | accept [trust] | decline | trust | free <user> | update | owner | owned | requests on|off"

// ControlHandler covers the whole ownership command surface.
func (h *Handlers) ControlHandler(ctx context.Context, args []string) error {
	nick := context_manager.GetNickFromContext(ctx)
	if len(args) == 0 {
		return rejection.New(controlUsage)
	}

	switch strings.ToLower(args[0]) {
	case "request":
		if len(args) < 2 {
			return rejection.New("Usage: !control request <user>")
		}
		target, err := h.parseTarget(args[1])
		if err != nil {
			return err
		}
		if err := h.Ownership.Request(ctx, nick, target); err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Sent a control request to %s", target))

	case "accept":
		trust := len(args) > 1 && strings.EqualFold(args[1], "trust")
		owner, err := h.Ownership.Accept(ctx, nick, trust)
		if err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Accepted the request from %s", owner))

	case "decline":
		requester, err := h.Ownership.Decline(ctx, nick)
		if err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Declined the request from %s. They will not be notified.", requester))

	case "trust":
		owner, err := h.Ownership.Trust(ctx, nick)
		if err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("You have now trusted your owner, %s", owner))

	case "free":
		if len(args) < 2 {
			return rejection.New("Usage: !control free <user>")
		}
		target, err := h.parseTarget(args[1])
		if err != nil {
			return err
		}
		if err := h.Ownership.Free(ctx, nick, target); err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("You freed %s", target))

	case "update":
		owner, err := h.Ownership.UpdateOwner(ctx, nick)
		if err != nil {
			return err
		}
		if owner == nil {
			h.Responder.Respond(nick, "Updated your owner. You currently do not have one.")
		} else {
			h.Responder.Respond(nick, fmt.Sprintf("Updated your owner. Your owner is %s", owner.Nick))
		}

	case "owner":
		owner, err := h.Ownership.Owner(ctx, nick)
		if err != nil {
			return err
		}
		if owner == nil {
			h.Responder.Respond(nick, "You are currently not owned by anyone")
		} else {
			trusts := "You have not trusted them."
			if owner.Trusts {
				trusts = "You have trusted them."
			}
			h.Responder.Respond(nick, fmt.Sprintf("You are owned by %s. %s", owner.Nick, trusts))
		}

	case "owned":
		owned, err := h.Ownership.Owned(ctx, nick)
		if err != nil {
			return err
		}
		if len(owned) == 0 {
			h.Responder.Respond(nick, "You currently do not own anyone")
		} else {
			lines := profile.RenderOwned(owned)
			h.Responder.Respond(nick, fmt.Sprintf("You currently own the following player(s): %s", strings.Join(lines, " ")))
		}

	case "requests":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			return rejection.New("Usage: !control requests on|off")
		}
		allow := args[1] == "on"
		if err := h.Ownership.SetAllowRequests(ctx, nick, allow); err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Changed allow_requests setting to %t", allow))

	default:
		return rejection.New(controlUsage)
	}
	return nil
}
