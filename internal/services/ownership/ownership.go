package ownership

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/beezlebub-bot/beezlebot-go/internal/db/repositories/user"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/notifier"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/requests"
)

// OwnerInfo is what the presentation layer gets about a user's owner.
type OwnerInfo struct {
	Nick   string
	Trusts bool
}

// OwnedInfo describes one user controlled by the queried user.
type OwnedInfo struct {
	Nick   string
	Trusts bool
}

// Service owns the control-relationship invariants: at most one controller
// per user, trust resets on every controller change, derelict controllers
// are detached lazily on read.
type Service interface {
	Request(ctx context.Context, requesterNick, targetNick string) error
	Accept(ctx context.Context, targetNick string, trust bool) (string, error)
	Decline(ctx context.Context, targetNick string) (string, error)
	Trust(ctx context.Context, nick string) (string, error)
	Free(ctx context.Context, requesterNick, targetNick string) error
	UpdateOwner(ctx context.Context, nick string) (*OwnerInfo, error)
	Owner(ctx context.Context, nick string) (*OwnerInfo, error)
	Owned(ctx context.Context, nick string) ([]OwnedInfo, error)
	SetAllowRequests(ctx context.Context, nick string, allow bool) error
	ReleaseAll(ctx context.Context, controllerID, controllerNick string) error
}

type ServiceImpl struct {
	repo           user.UserRepository
	store          requests.Store
	notifier       notifier.Notifier
	derelictTime   time.Duration
	requestTimeout time.Duration
	now            func() time.Time

	// expiry notices for unanswered requests; answered requests cancel
	// theirs. Best effort only, the store TTL is what actually expires
	// the request.
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewService(
	repo user.UserRepository,
	store requests.Store,
	n notifier.Notifier,
	derelictTime time.Duration,
	requestTimeout time.Duration,
) *ServiceImpl {
	return &ServiceImpl{
		repo:           repo,
		store:          store,
		notifier:       n,
		derelictTime:   derelictTime,
		requestTimeout: requestTimeout,
		now:            time.Now,
		timers:         make(map[string]*time.Timer),
	}
}

func notRegistered(nick string) *rejection.Rejection {
	return rejection.Newf("No data found for %s. They can register with !register", nick)
}

// Request validates the preconditions and stores a pending request for the
// target. No ownership state changes until the target accepts.
func (s *ServiceImpl) Request(ctx context.Context, requesterNick, targetNick string) error {
	requester, err := s.repo.GetUserByNick(ctx, requesterNick)
	if err != nil {
		return err
	}
	if requester == nil {
		return notRegistered(requesterNick)
	}

	// The lookup respects the target's blocklist: to a blocked requester
	// the target does not exist.
	target, err := s.repo.GetUserByNickAs(ctx, targetNick, requesterNick)
	if err != nil {
		return err
	}
	if target == nil {
		return notRegistered(targetNick)
	}

	if target.ID == requester.ID {
		return rejection.New("You cannot send a control request to yourself")
	}
	if target.IsOwnedBy(requester) {
		return rejection.Newf("You already control %s.", target.Nick)
	}
	if target.HasOwner() {
		return rejection.Newf("%s already has an owner.", target.Nick)
	}
	if !target.AllowRequests {
		return rejection.Newf("%s does not allow requests.", target.Nick)
	}

	req := requests.PendingRequest{
		RequesterID:   requester.ID,
		RequesterNick: requester.Nick,
		TargetNick:    target.Nick,
		CreatedAt:     s.now(),
	}
	ok, err := s.store.Put(ctx, req, s.requestTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return rejection.Newf("%s already has a pending control request.", target.Nick)
	}

	if err := s.sendRequestMessage(requester.Nick, target.Nick); err != nil {
		// No artifact should outlive a request the target never saw.
		if _, takeErr := s.store.Take(ctx, target.Nick); takeErr != nil {
			log.Printf("failed to discard undeliverable request for %s: %v", target.Nick, takeErr)
		}
		return rejection.Newf("Cannot send a request: could not message %s.", target.Nick)
	}

	s.scheduleExpiryNotice(target.Nick, requester.Nick)
	return nil
}

func (s *ServiceImpl) sendRequestMessage(requesterNick, targetNick string) error {
	lines := []string{
		fmt.Sprintf("%s wants to control you. Once someone controls you they take over all your special statuses.", requesterNick),
		"They can only be revoked if they free you, go derelict, or get removed by an admin. If you trust them, they also take over your kinks and limits.",
		fmt.Sprintf("Reply with !control accept, !control accept trust, or !control decline within %d seconds.", int(s.requestTimeout.Seconds())),
		"They will not be notified if you decline. You can block them with !block add, or disable all requests with !control requests off.",
	}
	for _, line := range lines {
		if err := s.notifier.DirectMessage(targetNick, line); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceImpl) scheduleExpiryNotice(targetNick, requesterNick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[targetNick]; ok {
		t.Stop()
	}
	s.timers[targetNick] = time.AfterFunc(s.requestTimeout, func() {
		s.mu.Lock()
		delete(s.timers, targetNick)
		s.mu.Unlock()
		// The request already expired in the store; this is display only.
		_ = s.notifier.DirectMessage(targetNick,
			fmt.Sprintf("The control request from %s timed out. If you want them to control you, ask them to send a new one.", requesterNick))
	})
}

func (s *ServiceImpl) cancelExpiryNotice(targetNick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[targetNick]; ok {
		t.Stop()
		delete(s.timers, targetNick)
	}
}

// Accept consumes the pending request and assigns the controller. The
// preconditions are re-checked because state may have moved while the
// request sat unanswered.
func (s *ServiceImpl) Accept(ctx context.Context, targetNick string, trust bool) (string, error) {
	target, err := s.repo.GetUserByNick(ctx, targetNick)
	if err != nil {
		return "", err
	}
	if target == nil {
		return "", notRegistered(targetNick)
	}

	req, err := s.store.Take(ctx, target.Nick)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", rejection.New("You have no pending control request.")
	}
	s.cancelExpiryNotice(target.Nick)

	if target.HasOwner() {
		return "", rejection.New("You already have an owner.")
	}
	requester, err := s.repo.GetUserByID(ctx, req.RequesterID)
	if err != nil {
		return "", err
	}
	if requester == nil {
		return "", rejection.Newf("%s is no longer registered.", req.RequesterNick)
	}

	if err := s.repo.SetController(ctx, target.ID, &requester.ID, trust); err != nil {
		return "", err
	}

	// State is committed; notification failures must not unwind it.
	if err := s.notifier.DirectMessage(target.Nick, fmt.Sprintf("Your owner is now %s.", requester.Nick)); err != nil {
		log.Printf("failed to notify %s: %v", target.Nick, err)
	}
	if err := s.notifier.DirectMessage(requester.Nick, fmt.Sprintf("You now own %s.", target.Nick)); err != nil {
		log.Printf("failed to notify %s: %v", requester.Nick, err)
	}

	return requester.Nick, nil
}

// Decline discards the pending request. The requester is deliberately not
// notified.
func (s *ServiceImpl) Decline(ctx context.Context, targetNick string) (string, error) {
	target, err := s.repo.GetUserByNick(ctx, targetNick)
	if err != nil {
		return "", err
	}
	if target == nil {
		return "", notRegistered(targetNick)
	}

	req, err := s.store.Take(ctx, target.Nick)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", rejection.New("You have no pending control request.")
	}
	s.cancelExpiryNotice(target.Nick)

	return req.RequesterNick, nil
}

// Trust grants the current controller the extended configuration authority.
func (s *ServiceImpl) Trust(ctx context.Context, nick string) (string, error) {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", notRegistered(nick)
	}
	if !u.HasOwner() {
		return "", rejection.New("You are currently not owned by anyone")
	}
	if u.Trusts {
		return "", rejection.New("You had already trusted your owner!")
	}

	owner, err := s.repo.GetUserByID(ctx, *u.ControllerID)
	if err != nil {
		return "", err
	}
	if owner == nil {
		// Dangling controller, heal and report unowned.
		if err := s.repo.SetController(ctx, u.ID, nil, false); err != nil {
			return "", err
		}
		return "", rejection.New("You are currently not owned by anyone")
	}

	if err := s.repo.SetTrusts(ctx, u.ID, true); err != nil {
		return "", err
	}
	if err := s.notifier.DirectMessage(owner.Nick, fmt.Sprintf("%s now trusts you!", u.Nick)); err != nil {
		log.Printf("failed to notify %s: %v", owner.Nick, err)
	}
	return owner.Nick, nil
}

// Free releases a user the requester controls.
func (s *ServiceImpl) Free(ctx context.Context, requesterNick, targetNick string) error {
	requester, err := s.repo.GetUserByNick(ctx, requesterNick)
	if err != nil {
		return err
	}
	if requester == nil {
		return notRegistered(requesterNick)
	}
	target, err := s.repo.GetUserByNick(ctx, targetNick)
	if err != nil {
		return err
	}
	if target == nil {
		return notRegistered(targetNick)
	}

	if target.ID == requester.ID {
		return rejection.New("You cannot free yourself")
	}
	if !target.IsOwnedBy(requester) {
		return rejection.Newf("You do not control %s.", target.Nick)
	}

	if err := s.repo.SetController(ctx, target.ID, nil, false); err != nil {
		return err
	}
	if err := s.notifier.DirectMessage(target.Nick, fmt.Sprintf("You are no longer owned by %s. They freed you", requester.Nick)); err != nil {
		log.Printf("failed to notify %s: %v", target.Nick, err)
	}
	return nil
}

// UpdateOwner is the lazy derelict check. It resolves the current owner,
// detaching them if they went derelict or their record no longer exists,
// and returns the owner after the correction (nil when unowned).
func (s *ServiceImpl) UpdateOwner(ctx context.Context, nick string) (*OwnerInfo, error) {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notRegistered(nick)
	}
	if !u.HasOwner() {
		return nil, nil
	}

	owner, err := s.repo.GetUserByID(ctx, *u.ControllerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		// The controller record is gone (crash mid-cascade); detach
		// without the notification step.
		if err := s.repo.SetController(ctx, u.ID, nil, false); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if owner.Derelict(s.now(), s.derelictTime) {
		if err := s.repo.SetController(ctx, u.ID, nil, false); err != nil {
			return nil, err
		}
		if err := s.notifier.DirectMessage(owner.Nick, fmt.Sprintf("%s is no longer owned by you because you went derelict", u.Nick)); err != nil {
			log.Printf("failed to notify %s: %v", owner.Nick, err)
		}
		return nil, nil
	}

	return &OwnerInfo{Nick: owner.Nick, Trusts: u.Trusts}, nil
}

// Owner reports who owns the user, without the derelict correction.
func (s *ServiceImpl) Owner(ctx context.Context, nick string) (*OwnerInfo, error) {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notRegistered(nick)
	}
	if !u.HasOwner() {
		return nil, nil
	}

	owner, err := s.repo.GetUserByID(ctx, *u.ControllerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		if err := s.repo.SetController(ctx, u.ID, nil, false); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &OwnerInfo{Nick: owner.Nick, Trusts: u.Trusts}, nil
}

// Owned lists everyone the user currently controls.
func (s *ServiceImpl) Owned(ctx context.Context, nick string) ([]OwnedInfo, error) {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notRegistered(nick)
	}

	controlled, err := s.repo.ListControlledBy(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	owned := make([]OwnedInfo, 0, len(controlled))
	for _, c := range controlled {
		owned = append(owned, OwnedInfo{Nick: c.Nick, Trusts: c.Trusts})
	}
	return owned, nil
}

func (s *ServiceImpl) SetAllowRequests(ctx context.Context, nick string, allow bool) error {
	u, err := s.repo.GetUserByNick(ctx, nick)
	if err != nil {
		return err
	}
	if u == nil {
		return notRegistered(nick)
	}
	return s.repo.SetAllowRequests(ctx, u.ID, allow)
}

// ReleaseAll detaches everyone controlled by the given user. Per-record
// failures are logged and skipped so one bad record cannot block the rest
// of the cascade.
func (s *ServiceImpl) ReleaseAll(ctx context.Context, controllerID, controllerNick string) error {
	controlled, err := s.repo.ListControlledBy(ctx, controllerID)
	if err != nil {
		return err
	}

	for _, c := range controlled {
		if err := s.repo.SetController(ctx, c.ID, nil, false); err != nil {
			log.Printf("failed to release %s from %s: %v", c.Nick, controllerNick, err)
			continue
		}
		if err := s.notifier.DirectMessage(c.Nick, fmt.Sprintf("You are no longer owned by %s.", controllerNick)); err != nil {
			log.Printf("failed to notify %s: %v", c.Nick, err)
		}
	}
	return nil
}
