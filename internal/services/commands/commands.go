package commands

import (
	"context"
	"log"
	"strings"

	"github.com/beezlebub-bot/beezlebot-go/internal/services/context_manager"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/notifier"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/registry"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
	irc "github.com/fluffle/goirc/client"
)

type Handler func(ctx context.Context, args []string) error

type CommandController interface {
	HandleCommand(ctx context.Context, line *irc.Line) error
	AddCommand(command string, handler Handler)
	AddLifecycleCommand(command string, handler Handler)
}

// CommandControllerImpl dispatches !-prefixed commands. Every qualifying
// command refreshes the invoker's activity timestamp first; lifecycle
// commands (register, unregister, update, dump) manage the record
// themselves and skip that.
type CommandControllerImpl struct {
	commands  map[string]Handler
	noTouch   map[string]bool
	registry  registry.Service
	responder notifier.Responder
}

func NewCommandController(reg registry.Service, responder notifier.Responder) *CommandControllerImpl {
	return &CommandControllerImpl{
		commands:  make(map[string]Handler),
		noTouch:   make(map[string]bool),
		registry:  reg,
		responder: responder,
	}
}

func (c *CommandControllerImpl) AddCommand(command string, handler Handler) {
	c.commands[command] = handler
}

func (c *CommandControllerImpl) AddLifecycleCommand(command string, handler Handler) {
	c.commands[command] = handler
	c.noTouch[command] = true
}

func (c *CommandControllerImpl) HandleCommand(ctx context.Context, line *irc.Line) error {
	if len(line.Args) < 2 {
		return nil
	}

	fields := strings.Fields(line.Args[1])
	if len(fields) == 0 {
		return nil
	}

	cmd := strings.ToLower(fields[0])
	handler, exists := c.commands[cmd]
	if !exists {
		return nil
	}

	nick := strings.ToLower(line.Nick)
	ctx = context_manager.SetNickContext(ctx, line.Nick)
	ctx = context_manager.SetLineContext(ctx, line)

	if !c.noTouch[cmd] {
		if err := c.registry.Touch(ctx, nick); err != nil {
			log.Printf("touch failed for %s: %v", nick, err)
		}
	}

	if err := handler(ctx, fields[1:]); err != nil {
		if msg, ok := rejection.Message(err); ok {
			c.responder.Respond(nick, msg)
			return nil
		}
		log.Printf("command %s from %s failed: %v", cmd, nick, err)
		c.responder.Respond(nick, "Something went wrong. Please try again later.")
	}
	return nil
}
