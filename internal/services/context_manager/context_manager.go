package context_manager

import (
	"context"
	"strings"

	irc "github.com/fluffle/goirc/client"
)

type nickKey struct{}
type lineKey struct{}

// SetNickContext stores the nickname into context
func SetNickContext(ctx context.Context, nick string) context.Context {
	return context.WithValue(ctx, nickKey{}, strings.ToLower(nick))
}

// GetNickFromContext retrieves the nickname from context
func GetNickFromContext(ctx context.Context) string {
	nick, ok := ctx.Value(nickKey{}).(string)
	if !ok {
		return "unknown"
	}
	return nick
}

// SetLineContext stores the raw IRC line into context
func SetLineContext(ctx context.Context, line *irc.Line) context.Context {
	return context.WithValue(ctx, lineKey{}, line)
}

// GetLineFromContext retrieves the raw IRC line from context
func GetLineFromContext(ctx context.Context) *irc.Line {
	line, ok := ctx.Value(lineKey{}).(*irc.Line)
	if !ok {
		return nil
	}
	return line
}
