package commands

import (
	"strings"

	"github.com/beezlebub-bot/beezlebot-go/internal/db/repositories/channelconf"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/notifier"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/ownership"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/profile"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/registry"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
)

// RefCounter reports how many shared channels a nick is currently seen in.
type RefCounter interface {
	Count(nick string) int
}

// Handlers binds the command surface to the services behind it.
type Handlers struct {
	Ownership ownership.Service
	Registry  registry.Service
	Profile   *profile.Service
	Channels  channelconf.ChannelConfRepository
	Responder notifier.Responder
	Refs      RefCounter
	BotNick   string
	Network   string
}

// parseTarget turns a user-supplied nick argument into a normalized nick,
// stripping the mode prefix decorations IRC clients tend to copy along.
func (h *Handlers) parseTarget(arg string) (string, error) {
	nick := strings.ToLower(strings.TrimLeft(strings.TrimSpace(arg), "@+~&%"))
	if nick == "" {
		return "", rejection.New("That is not recognised as a user")
	}
	if nick == strings.ToLower(h.BotNick) {
		return "", rejection.New("You cannot target the bot")
	}
	return nick, nil
}
