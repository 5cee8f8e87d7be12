package bot

import (
	"strings"
	"sync"
)

// Roster tracks which nicks are present in which channels, fed by NAMES
// replies and join/part/quit events. The nightly sweep flattens it into the
// full membership list the registry recounts against.
type Roster struct {
	mu       sync.Mutex
	channels map[string]map[string]bool
	pending  map[string]map[string]bool
}

func NewRoster() *Roster {
	return &Roster{
		channels: make(map[string]map[string]bool),
		pending:  make(map[string]map[string]bool),
	}
}

func normNick(nick string) string {
	return strings.ToLower(strings.TrimLeft(nick, "@+~&%"))
}

// AddNamesReply accumulates one 353 reply line for a channel.
func (r *Roster) AddNamesReply(channel, names string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel = strings.ToLower(channel)
	if r.pending[channel] == nil {
		r.pending[channel] = make(map[string]bool)
	}
	for _, nick := range strings.Fields(names) {
		r.pending[channel][normNick(nick)] = true
	}
}

// EndOfNames commits the accumulated 353 replies (366), replacing whatever
// was previously known about the channel.
func (r *Roster) EndOfNames(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel = strings.ToLower(channel)
	if pending, ok := r.pending[channel]; ok {
		r.channels[channel] = pending
		delete(r.pending, channel)
	}
}

func (r *Roster) Join(channel, nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel = strings.ToLower(channel)
	if r.channels[channel] == nil {
		r.channels[channel] = make(map[string]bool)
	}
	r.channels[channel][normNick(nick)] = true
}

func (r *Roster) Leave(channel, nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels[strings.ToLower(channel)], normNick(nick))
}

// Quit removes the nick everywhere and returns how many channels it was
// still seen in, so each membership can be counted down.
func (r *Roster) Quit(nick string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	nick = normNick(nick)
	count := 0
	for _, members := range r.channels {
		if members[nick] {
			delete(members, nick)
			count++
		}
	}
	return count
}

// Count reports how many channels the nick is currently seen in.
func (r *Roster) Count(nick string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	nick = normNick(nick)
	count := 0
	for _, members := range r.channels {
		if members[nick] {
			count++
		}
	}
	return count
}

// Flatten returns one entry per (channel, nick) membership.
func (r *Roster) Flatten() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []string
	for _, members := range r.channels {
		for nick := range members {
			all = append(all, nick)
		}
	}
	return all
}
