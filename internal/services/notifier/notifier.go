package notifier

// IRCClient is the subset of the goirc client the bot sends through.
type IRCClient interface {
	Privmsg(target, message string)
	Notice(target, message string)
}

// Notifier delivers best-effort private messages. Delivery is never
// guaranteed; callers must not let a failed notification unwind a state
// change that already committed.
type Notifier interface {
	DirectMessage(nick, message string) error
}

// Responder sends command replies visible only to the invoking user.
type Responder interface {
	Respond(nick, message string)
}

type IRCNotifier struct {
	client IRCClient
}

func NewIRCNotifier(client IRCClient) *IRCNotifier {
	return &IRCNotifier{client: client}
}

func (n *IRCNotifier) DirectMessage(nick, message string) error {
	n.client.Privmsg(nick, message)
	return nil
}

func (n *IRCNotifier) Respond(nick, message string) {
	n.client.Notice(nick, message)
}
