package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/registry"
	irc "github.com/fluffle/goirc/client"
)

type stubRegistry struct {
	registry.Service
	touched []string
}

func (s *stubRegistry) Touch(ctx context.Context, nick string) error {
	s.touched = append(s.touched, nick)
	return nil
}

type recordingResponder struct {
	nicks    []string
	messages []string
}

func (r *recordingResponder) Respond(nick, message string) {
	r.nicks = append(r.nicks, nick)
	r.messages = append(r.messages, message)
}

func privmsg(nick, text string) *irc.Line {
	return &irc.Line{Nick: nick, Args: []string{"beezlebot", text}}
}

func TestDispatch(t *testing.T) {
	reg := &stubRegistry{}
	responder := &recordingResponder{}
	c := NewCommandController(reg, responder)

	var gotArgs []string
	c.AddCommand("!hello", func(ctx context.Context, args []string) error {
		gotArgs = args
		return nil
	})

	if err := c.HandleCommand(context.Background(), privmsg("Xavier", "!hello there friend")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "there" || gotArgs[1] != "friend" {
		t.Errorf("unexpected args: %v", gotArgs)
	}
	if len(reg.touched) != 1 || reg.touched[0] != "xavier" {
		t.Errorf("expected xavier to be touched, got %v", reg.touched)
	}
}

func TestDispatchIsCaseInsensitive(t *testing.T) {
	c := NewCommandController(&stubRegistry{}, &recordingResponder{})
	called := false
	c.AddCommand("!hello", func(ctx context.Context, args []string) error {
		called = true
		return nil
	})

	c.HandleCommand(context.Background(), privmsg("Xavier", "!HELLO"))
	if !called {
		t.Error("expected mixed-case command to dispatch")
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	reg := &stubRegistry{}
	responder := &recordingResponder{}
	c := NewCommandController(reg, responder)

	if err := c.HandleCommand(context.Background(), privmsg("Xavier", "!nosuch")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(reg.touched) != 0 {
		t.Error("unknown commands must not touch the record")
	}
	if len(responder.messages) != 0 {
		t.Error("unknown commands must stay silent")
	}
}

func TestLifecycleCommandSkipsTouch(t *testing.T) {
	reg := &stubRegistry{}
	c := NewCommandController(reg, &recordingResponder{})
	c.AddLifecycleCommand("!register", func(ctx context.Context, args []string) error {
		return nil
	})

	c.HandleCommand(context.Background(), privmsg("Xavier", "!register"))
	if len(reg.touched) != 0 {
		t.Error("lifecycle commands manage the record themselves")
	}
}

func TestRejectionGoesBackToInvoker(t *testing.T) {
	responder := &recordingResponder{}
	c := NewCommandController(&stubRegistry{}, responder)
	c.AddCommand("!hello", func(ctx context.Context, args []string) error {
		return rejection.New("You cannot do that")
	})

	if err := c.HandleCommand(context.Background(), privmsg("Xavier", "!hello")); err != nil {
		t.Fatalf("rejections must not surface as errors: %v", err)
	}
	if len(responder.messages) != 1 || responder.messages[0] != "You cannot do that" {
		t.Errorf("unexpected responses: %v", responder.messages)
	}
	if responder.nicks[0] != "xavier" {
		t.Errorf("expected reply to xavier, got %s", responder.nicks[0])
	}
}

func TestSystemErrorGetsGenericReply(t *testing.T) {
	responder := &recordingResponder{}
	c := NewCommandController(&stubRegistry{}, responder)
	c.AddCommand("!hello", func(ctx context.Context, args []string) error {
		return errors.New("connection reset")
	})

	c.HandleCommand(context.Background(), privmsg("Xavier", "!hello"))
	if len(responder.messages) != 1 {
		t.Fatalf("expected one reply, got %v", responder.messages)
	}
	if responder.messages[0] != "Something went wrong. Please try again later." {
		t.Errorf("internal detail must not leak, got %q", responder.messages[0])
	}
}

func TestNonCommandTextIgnored(t *testing.T) {
	reg := &stubRegistry{}
	c := NewCommandController(reg, &recordingResponder{})
	c.AddCommand("!hello", func(ctx context.Context, args []string) error {
		t.Error("handler must not run for plain text")
		return nil
	})

	c.HandleCommand(context.Background(), privmsg("Xavier", "just chatting"))
	c.HandleCommand(context.Background(), privmsg("Xavier", "   "))
	c.HandleCommand(context.Background(), &irc.Line{Nick: "Xavier", Args: []string{"beezlebot"}})
}
