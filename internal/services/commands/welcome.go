package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/beezlebub-bot/beezlebot-go/internal/db/repositories/channelconf"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/context_manager"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
)

// WelcomeHandler handles !welcome set/on/off for the channel the command
// was issued in.
func (h *Handlers) WelcomeHandler(ctx context.Context, args []string) error {
	nick := context_manager.GetNickFromContext(ctx)
	line := context_manager.GetLineFromContext(ctx)
	if line == nil || len(line.Args) == 0 || !strings.HasPrefix(line.Args[0], "#") {
		return rejection.New("Use this command in a channel")
	}
	channel := line.Args[0]

	if len(args) == 0 {
		return rejection.New("Usage: !welcome set <message> | on | off")
	}

	conf, err := h.Channels.GetConf(ctx, h.Network, channel)
	if err != nil {
		return err
	}
	if conf == nil {
		conf = &channelconf.ChannelConf{Network: h.Network, Channel: channel}
	}

	switch strings.ToLower(args[0]) {
	case "set":
		if len(args) < 2 {
			return rejection.New("Usage: !welcome set <message>")
		}
		conf.WelcomeMessage = strings.Join(args[1:], " ")
		conf.WelcomeEnabled = true
		if err := h.Channels.UpsertConf(ctx, conf); err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Welcome message for %s set", channel))

	case "on":
		if conf.WelcomeMessage == "" {
			return rejection.New("No welcome message configured yet. Set one with !welcome set <message>")
		}
		conf.WelcomeEnabled = true
		if err := h.Channels.UpsertConf(ctx, conf); err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Welcome message for %s enabled", channel))

	case "off":
		conf.WelcomeEnabled = false
		if err := h.Channels.UpsertConf(ctx, conf); err != nil {
			return err
		}
		h.Responder.Respond(nick, fmt.Sprintf("Welcome message for %s disabled", channel))

	default:
		return rejection.New("Usage: !welcome set <message> | on | off")
	}
	return nil
}
