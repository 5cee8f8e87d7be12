package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beezlebub-bot/beezlebot-go/internal/services/context_manager"
)

// RegisterHandler handles !register.
func (h *Handlers) RegisterHandler(ctx context.Context, args []string) error {
	nick := context_manager.GetNickFromContext(ctx)
	if err := h.Registry.Register(ctx, nick); err != nil {
		return err
	}
	h.Responder.Respond(nick, fmt.Sprintf("Registered %s", nick))
	return nil
}

// UnregisterHandler handles !unregister and deletes all stored data.
func (h *Handlers) UnregisterHandler(ctx context.Context, args []string) error {
	nick := context_manager.GetNickFromContext(ctx)
	if err := h.Registry.Unregister(ctx, nick); err != nil {
		return err
	}
	h.Responder.Respond(nick, fmt.Sprintf("Unregistered %s. All stored data has been deleted.", nick))
	return nil
}

// UpdateHandler handles !update: refreshes the activity timestamp and
// recounts shared channels.
func (h *Handlers) UpdateHandler(ctx context.Context, args []string) error {
	nick := context_manager.GetNickFromContext(ctx)
	if err := h.Registry.Touch(ctx, nick); err != nil {
		return err
	}
	if err := h.Registry.UpdateRefCount(ctx, nick, h.Refs.Count(nick)); err != nil {
		return err
	}
	h.Responder.Respond(nick, fmt.Sprintf("Updated %s's database entry", nick))
	return nil
}

// DumpHandler handles !dump so users can verify what data the bot holds.
func (h *Handlers) DumpHandler(ctx context.Context, args []string) error {
	nick := context_manager.GetNickFromContext(ctx)
	u, err := h.Registry.DumpSettings(ctx, nick)
	if err != nil {
		return err
	}

	dump, err := json.Marshal(u)
	if err != nil {
		return err
	}
	h.Responder.Respond(nick, string(dump))
	return nil
}
