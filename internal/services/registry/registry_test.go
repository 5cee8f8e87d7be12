package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beezlebub-bot/beezlebot-go/internal/db/repositories/user"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
)

// fakeUserRepo is a simple in-memory repository
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newFakeRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (f *fakeUserRepo) add(u *user.User) *user.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.Nick = strings.ToLower(u.Nick)
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetUserByNick(ctx context.Context, nick string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	nick = strings.ToLower(nick)
	for _, u := range f.users {
		if u.Nick == nick {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetUserByNickAs(ctx context.Context, nick, viewerNick string) (*user.User, error) {
	u, err := f.GetUserByNick(ctx, nick)
	if err != nil || u == nil {
		return u, err
	}
	if u.HasBlocked(strings.ToLower(viewerNick)) {
		return nil, nil
	}
	return u, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *user.User) error {
	f.add(u)
	return nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) SetLastActive(ctx context.Context, id string, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastActive = &t
	}
	return nil
}

func (f *fakeUserRepo) AddRefCounter(ctx context.Context, id string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.RefCounter += delta
	}
	return nil
}

func (f *fakeUserRepo) SetRefCounter(ctx context.Context, id string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.RefCounter = count
	}
	return nil
}

func (f *fakeUserRepo) SetController(ctx context.Context, id string, controllerID *string, trusts bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.ControllerID = controllerID
		u.Trusts = trusts
	}
	return nil
}

func (f *fakeUserRepo) SetTrusts(ctx context.Context, id string, trusts bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Trusts = trusts
	}
	return nil
}

func (f *fakeUserRepo) SetAllowRequests(ctx context.Context, id string, allow bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.AllowRequests = allow
	}
	return nil
}

func (f *fakeUserRepo) SetBlocked(ctx context.Context, id string, blocked []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Blocked = blocked
	}
	return nil
}

func (f *fakeUserRepo) ListControlledBy(ctx context.Context, controllerID string) ([]*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*user.User
	for _, u := range f.users {
		if u.ControllerID != nil && *u.ControllerID == controllerID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) AllUsers(ctx context.Context) ([]*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*user.User
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// repoReleaser performs the cascade directly against the repo
type repoReleaser struct {
	repo     *fakeUserRepo
	released []string
	fail     bool
}

func (r *repoReleaser) ReleaseAll(ctx context.Context, controllerID, controllerNick string) error {
	if r.fail {
		return errors.New("release failed")
	}
	controlled, _ := r.repo.ListControlledBy(ctx, controllerID)
	for _, u := range controlled {
		r.repo.SetController(ctx, u.ID, nil, false)
		r.released = append(r.released, u.Nick)
	}
	return nil
}

func activeUser(id, nick string, lastActive time.Time) *user.User {
	return &user.User{
		ID:            id,
		Nick:          nick,
		JoinDate:      lastActive,
		LastActive:    &lastActive,
		RefCounter:    1,
		AllowRequests: true,
		Blocked:       []string{},
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	s := NewService(repo, &repoReleaser{repo: repo}, 93*24*time.Hour)

	if err := s.Register(ctx, "Xavier"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	u, _ := repo.GetUserByNick(ctx, "xavier")
	if u == nil {
		t.Fatal("expected record to exist")
	}
	if u.HasOwner() {
		t.Error("a fresh registration must be unowned")
	}
	if u.LastActive == nil {
		t.Error("registration counts as activity")
	}
	if u.RefCounter != 1 {
		t.Errorf("expected ref counter 1, got %d", u.RefCounter)
	}

	if err := s.Register(ctx, "xavier"); err == nil {
		t.Error("expected rejection registering twice")
	} else if _, ok := rejection.Message(err); !ok {
		t.Errorf("expected rejection, got %v", err)
	}
}

func TestUnregisterCascades(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	now := time.Now()
	x := repo.add(activeUser("id-x", "xavier", now))
	y := repo.add(activeUser("id-y", "yvonne", now))
	z := repo.add(activeUser("id-z", "zed", now))
	repo.SetController(ctx, y.ID, &x.ID, true)
	repo.SetController(ctx, z.ID, &x.ID, false)

	releaser := &repoReleaser{repo: repo}
	s := NewService(repo, releaser, 93*24*time.Hour)

	if err := s.Unregister(ctx, "xavier"); err != nil {
		t.Fatalf("unregister failed: %v", err)
	}

	if u, _ := repo.GetUserByNick(ctx, "xavier"); u != nil {
		t.Error("expected xavier's record to be gone")
	}
	for _, nick := range []string{"yvonne", "zed"} {
		u, _ := repo.GetUserByNick(ctx, nick)
		if u == nil || u.HasOwner() {
			t.Errorf("expected %s to be released", nick)
		}
	}
	if len(releaser.released) != 2 {
		t.Errorf("expected 2 releases, got %d", len(releaser.released))
	}

	if err := s.Unregister(ctx, "xavier"); err == nil {
		t.Error("expected rejection unregistering twice")
	}
}

func TestUnregisterProceedsWhenCascadeFails(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.add(activeUser("id-x", "xavier", time.Now()))

	s := NewService(repo, &repoReleaser{repo: repo, fail: true}, 93*24*time.Hour)

	if err := s.Unregister(ctx, "xavier"); err != nil {
		t.Fatalf("unregister must not be blocked by a failing cascade: %v", err)
	}
	if u, _ := repo.GetUserByNick(ctx, "xavier"); u != nil {
		t.Error("expected the record to be deleted anyway")
	}
}

func TestTouchAndJoin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	s := NewService(repo, &repoReleaser{repo: repo}, 93*24*time.Hour)

	// join-only users carry no activity timestamp
	if err := s.Join(ctx, "yvonne"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	y, _ := repo.GetUserByNick(ctx, "yvonne")
	if y.LastActive != nil {
		t.Error("a join alone is not activity")
	}
	if y.RefCounter != 1 {
		t.Errorf("expected ref counter 1, got %d", y.RefCounter)
	}

	// second join bumps the counter
	if err := s.Join(ctx, "yvonne"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	y, _ = repo.GetUserByNick(ctx, "yvonne")
	if y.RefCounter != 2 {
		t.Errorf("expected ref counter 2, got %d", y.RefCounter)
	}

	// touch sets activity
	if err := s.Touch(ctx, "yvonne"); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	y, _ = repo.GetUserByNick(ctx, "yvonne")
	if y.LastActive == nil {
		t.Error("touch must record activity")
	}

	// touch also creates
	if err := s.Touch(ctx, "xavier"); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	x, _ := repo.GetUserByNick(ctx, "xavier")
	if x == nil || x.LastActive == nil {
		t.Error("touch must create an active record")
	}
}

func TestLeaveDeletesStaleRecords(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	s := NewService(repo, &repoReleaser{repo: repo}, 93*24*time.Hour)

	// join-only user: immediately deletable once referenceless
	repo.add(&user.User{ID: "id-j", Nick: "joiner", RefCounter: 1})
	if err := s.Leave(ctx, "joiner"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if u, _ := repo.GetUserByNick(ctx, "joiner"); u != nil {
		t.Error("expected join-only user to be deleted on leave")
	}

	// recently active user is kept even when referenceless
	repo.add(activeUser("id-x", "xavier", time.Now()))
	if err := s.Leave(ctx, "xavier"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	x, _ := repo.GetUserByNick(ctx, "xavier")
	if x == nil {
		t.Fatal("expected recently active user to be kept")
	}
	if x.RefCounter != 0 {
		t.Errorf("expected ref counter 0, got %d", x.RefCounter)
	}

	// long inactive and referenceless: deleted
	repo.add(activeUser("id-o", "oldtimer", time.Now().Add(-100*24*time.Hour)))
	if err := s.Leave(ctx, "oldtimer"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if u, _ := repo.GetUserByNick(ctx, "oldtimer"); u != nil {
		t.Error("expected stale user to be deleted on leave")
	}

	// unknown nicks are ignored
	if err := s.Leave(ctx, "stranger"); err != nil {
		t.Errorf("leave for unknown nick must be a no-op, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	now := time.Now()
	x := repo.add(activeUser("id-x", "xavier", now))
	x.RefCounter = 5
	stale := repo.add(activeUser("id-s", "stale", now.Add(-100*24*time.Hour)))
	y := repo.add(activeUser("id-y", "yvonne", now))
	repo.SetController(ctx, y.ID, &stale.ID, true)

	releaser := &repoReleaser{repo: repo}
	s := NewService(repo, releaser, 93*24*time.Hour)

	// xavier is in two channels, yvonne in one, stale in none
	roster := []string{"xavier", "xavier", "yvonne"}
	if err := s.Sweep(ctx, roster); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	got, _ := repo.GetUserByNick(ctx, "xavier")
	if got.RefCounter != 2 {
		t.Errorf("expected recount to 2, got %d", got.RefCounter)
	}
	if u, _ := repo.GetUserByNick(ctx, "stale"); u != nil {
		t.Error("expected stale referenceless record to be deleted")
	}
	yv, _ := repo.GetUserByNick(ctx, "yvonne")
	if yv.HasOwner() {
		t.Error("expected yvonne to be released when her owner was swept away")
	}

	// inactive but still referenced records survive
	repo.add(activeUser("id-l", "lurker", now.Add(-100*24*time.Hour)))
	if err := s.Sweep(ctx, []string{"xavier", "xavier", "yvonne", "lurker"}); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if u, _ := repo.GetUserByNick(ctx, "lurker"); u == nil {
		t.Error("expected referenced record to survive the sweep")
	}
}

func TestBlocking(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.add(activeUser("id-x", "xavier", time.Now()))

	s := NewService(repo, &repoReleaser{repo: repo}, 93*24*time.Hour)

	if err := s.Block(ctx, "xavier", "xavier"); err == nil {
		t.Error("expected rejection blocking yourself")
	}
	if err := s.Block(ctx, "xavier", "Troll"); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if err := s.Block(ctx, "xavier", "troll"); err == nil {
		t.Error("expected rejection blocking twice")
	}

	blocked, err := s.BlockedList(ctx, "xavier")
	if err != nil {
		t.Fatalf("blocked list failed: %v", err)
	}
	if len(blocked) != 1 || blocked[0] != "troll" {
		t.Errorf("unexpected blocklist: %v", blocked)
	}

	// the blocklist gates lookups made on the blocker's behalf
	if u, _ := repo.GetUserByNickAs(ctx, "xavier", "troll"); u != nil {
		t.Error("expected blocked viewer to see no record")
	}
	if u, _ := repo.GetUserByNickAs(ctx, "xavier", "friend"); u == nil {
		t.Error("expected unblocked viewer to see the record")
	}

	if err := s.Unblock(ctx, "xavier", "troll"); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if err := s.Unblock(ctx, "xavier", "troll"); err == nil {
		t.Error("expected rejection unblocking twice")
	}
}

func TestDumpSettings(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	old := time.Now().Add(-24 * time.Hour)
	repo.add(activeUser("id-x", "xavier", old))

	s := NewService(repo, &repoReleaser{repo: repo}, 93*24*time.Hour)

	u, err := s.DumpSettings(ctx, "xavier")
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if u.Nick != "xavier" {
		t.Errorf("unexpected record: %+v", u)
	}

	refreshed, _ := repo.GetUserByNick(ctx, "xavier")
	if !refreshed.LastActive.After(old) {
		t.Error("dump must refresh the activity timestamp")
	}

	if _, err := s.DumpSettings(ctx, "stranger"); err == nil {
		t.Error("expected rejection for unknown user")
	}
}
