// Package registry owns the registration lifecycle of user records and the
// blocklist. Ownership semantics live in the ownership package; the cascade
// on deletion is delegated through the Releaser interface.
package registry

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/beezlebub-bot/beezlebot-go/internal/db/repositories/user"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
	"github.com/google/uuid"
)

// Releaser detaches everyone controlled by a user about to be deleted.
type Releaser interface {
	ReleaseAll(ctx context.Context, controllerID, controllerNick string) error
}

type Service interface {
	Register(ctx context.Context, nick string) error
	Unregister(ctx context.Context, nick string) error
	Touch(ctx context.Context, nick string) error
	UpdateRefCount(ctx context.Context, nick string, count int) error
	Join(ctx context.Context, nick string) error
	Leave(ctx context.Context, nick string) error
	Sweep(ctx context.Context, roster []string) error
	Block(ctx context.Context, blockerNick, targetNick string) error
	Unblock(ctx context.Context, blockerNick, targetNick string) error
	BlockedList(ctx context.Context, nick string) ([]string, error)
	DumpSettings(ctx context.Context, nick string) (*user.User, error)
}

type ServiceImpl struct {
	repo       user.UserRepository
	releaser   Releaser
	deleteTime time.Duration
	now        func() time.Time
}

func NewService(repo user.UserRepository, releaser Releaser, deleteTime time.Duration) *ServiceImpl {
	return &ServiceImpl{
		repo:       repo,
		releaser:   releaser,
		deleteTime: deleteTime,
		now:        time.Now,
	}
}

func norm(nick string) string {
	return strings.ToLower(strings.TrimSpace(nick))
}

func (s *ServiceImpl) newUser(nick string, lastActive *time.Time) *user.User {
	return &user.User{
		ID:            uuid.NewString(),
		Nick:          norm(nick),
		JoinDate:      s.now(),
		LastActive:    lastActive,
		RefCounter:    1,
		AllowRequests: true,
		Blocked:       []string{},
		KinksMessage:  user.DefaultKinksMessage,
		LimitsMessage: user.DefaultLimitsMessage,
	}
}

func (s *ServiceImpl) Register(ctx context.Context, nick string) error {
	existing, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return err
	}
	if existing != nil {
		return rejection.Newf("%s was already registered", norm(nick))
	}

	now := s.now()
	return s.repo.CreateUser(ctx, s.newUser(nick, &now))
}

// Unregister deletes the record. The cascade releasing everyone the user
// controls is best effort; a failure there must not keep someone from
// erasing their data.
func (s *ServiceImpl) Unregister(ctx context.Context, nick string) error {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return err
	}
	if u == nil {
		return rejection.Newf("%s was never registered", norm(nick))
	}
	return s.deleteWithCascade(ctx, u)
}

func (s *ServiceImpl) deleteWithCascade(ctx context.Context, u *user.User) error {
	if err := s.releaser.ReleaseAll(ctx, u.ID, u.Nick); err != nil {
		log.Printf("release cascade for %s failed: %v", u.Nick, err)
	}
	return s.repo.DeleteUser(ctx, u.ID)
}

// Touch is get-or-create with a fresh activity timestamp. Creation here
// counts as an active interaction, unlike Join.
func (s *ServiceImpl) Touch(ctx context.Context, nick string) error {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return err
	}

	now := s.now()
	if u == nil {
		return s.repo.CreateUser(ctx, s.newUser(nick, &now))
	}
	return s.repo.SetLastActive(ctx, u.ID, now)
}

func (s *ServiceImpl) UpdateRefCount(ctx context.Context, nick string, count int) error {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return err
	}
	if u == nil {
		return rejection.Newf("%s was never registered", norm(nick))
	}
	return s.repo.SetRefCounter(ctx, u.ID, count)
}

// Join records one more shared channel. A user who only joined has never
// interacted, so their record carries no activity timestamp and is eligible
// for immediate removal on leave.
func (s *ServiceImpl) Join(ctx context.Context, nick string) error {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return err
	}
	if u == nil {
		return s.repo.CreateUser(ctx, s.newUser(nick, nil))
	}
	return s.repo.AddRefCounter(ctx, u.ID, 1)
}

func (s *ServiceImpl) Leave(ctx context.Context, nick string) error {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}

	if err := s.repo.AddRefCounter(ctx, u.ID, -1); err != nil {
		return err
	}
	if u.RefCounter-1 <= 0 && u.Deletable(s.now(), s.deleteTime) {
		return s.deleteWithCascade(ctx, u)
	}
	return nil
}

// Sweep recomputes every record's reference counter from the current full
// roster (one entry per shared channel membership) and deletes records that
// are both referenceless and past the deletion threshold. Per-record
// failures are independent.
func (s *ServiceImpl) Sweep(ctx context.Context, roster []string) error {
	counts := make(map[string]int, len(roster))
	for _, nick := range roster {
		counts[norm(nick)]++
	}

	users, err := s.repo.AllUsers(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for _, u := range users {
		count := counts[u.Nick]
		if count <= 0 && u.Deletable(now, s.deleteTime) {
			if err := s.deleteWithCascade(ctx, u); err != nil {
				log.Printf("sweep: failed to delete %s: %v", u.Nick, err)
			}
			continue
		}
		if count != u.RefCounter {
			if err := s.repo.SetRefCounter(ctx, u.ID, count); err != nil {
				log.Printf("sweep: failed to update ref counter for %s: %v", u.Nick, err)
			}
		}
	}
	return nil
}

func (s *ServiceImpl) Block(ctx context.Context, blockerNick, targetNick string) error {
	blockerNick, targetNick = norm(blockerNick), norm(targetNick)
	if blockerNick == targetNick {
		return rejection.New("You cannot block yourself, silly!")
	}

	u, err := s.repo.GetUserByNick(ctx, blockerNick)
	if err != nil {
		return err
	}
	if u == nil {
		return rejection.Newf("%s was never registered", blockerNick)
	}
	if u.HasBlocked(targetNick) {
		return rejection.Newf("%s was already blocked", targetNick)
	}

	return s.repo.SetBlocked(ctx, u.ID, append([]string(u.Blocked), targetNick))
}

func (s *ServiceImpl) Unblock(ctx context.Context, blockerNick, targetNick string) error {
	blockerNick, targetNick = norm(blockerNick), norm(targetNick)

	u, err := s.repo.GetUserByNick(ctx, blockerNick)
	if err != nil {
		return err
	}
	if u == nil {
		return rejection.Newf("%s was never registered", blockerNick)
	}
	if !u.HasBlocked(targetNick) {
		return rejection.Newf("%s was never blocked", targetNick)
	}

	blocked := make([]string, 0, len(u.Blocked)-1)
	for _, b := range u.Blocked {
		if b != targetNick {
			blocked = append(blocked, b)
		}
	}
	return s.repo.SetBlocked(ctx, u.ID, blocked)
}

func (s *ServiceImpl) BlockedList(ctx context.Context, nick string) ([]string, error) {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, rejection.Newf("%s was never registered", norm(nick))
	}
	return u.Blocked, nil
}

// DumpSettings returns the full record so users can verify what data the
// bot holds on them. Counts as activity.
func (s *ServiceImpl) DumpSettings(ctx context.Context, nick string) (*user.User, error) {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, rejection.Newf("No data found for %s", norm(nick))
	}
	if err := s.repo.SetLastActive(ctx, u.ID, s.now()); err != nil {
		return nil, err
	}
	return u, nil
}
