package bot

import (
	"sort"
	"testing"
)

func TestRosterNamesReplies(t *testing.T) {
	r := NewRoster()

	// 353 replies accumulate until 366 commits them
	r.AddNamesReply("#lobby", "@op +voice plain")
	r.AddNamesReply("#lobby", "another")
	if r.Count("plain") != 0 {
		t.Error("uncommitted names must not be visible")
	}

	r.EndOfNames("#lobby")
	for _, nick := range []string{"op", "voice", "plain", "another"} {
		if r.Count(nick) != 1 {
			t.Errorf("expected %s to be in one channel", nick)
		}
	}

	// a fresh NAMES cycle replaces the previous membership
	r.AddNamesReply("#lobby", "plain")
	r.EndOfNames("#lobby")
	if r.Count("op") != 0 {
		t.Error("expected op to be gone after the refresh")
	}
	if r.Count("plain") != 1 {
		t.Error("expected plain to survive the refresh")
	}
}

func TestRosterJoinLeaveQuit(t *testing.T) {
	r := NewRoster()
	r.Join("#lobby", "Xavier")
	r.Join("#den", "xavier")
	r.Join("#lobby", "yvonne")

	if r.Count("xavier") != 2 {
		t.Errorf("expected 2 memberships, got %d", r.Count("xavier"))
	}

	r.Leave("#den", "XAVIER")
	if r.Count("xavier") != 1 {
		t.Errorf("expected 1 membership after leave, got %d", r.Count("xavier"))
	}

	r.Join("#den", "xavier")
	if got := r.Quit("xavier"); got != 2 {
		t.Errorf("expected quit to report 2 memberships, got %d", got)
	}
	if r.Count("xavier") != 0 {
		t.Error("expected xavier to be gone everywhere after quit")
	}
	if r.Count("yvonne") != 1 {
		t.Error("expected yvonne to be unaffected")
	}
}

func TestRosterFlatten(t *testing.T) {
	r := NewRoster()
	r.Join("#lobby", "xavier")
	r.Join("#den", "xavier")
	r.Join("#lobby", "yvonne")

	all := r.Flatten()
	sort.Strings(all)
	want := []string{"xavier", "xavier", "yvonne"}
	if len(all) != len(want) {
		t.Fatalf("expected %v, got %v", want, all)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, all)
		}
	}
}
