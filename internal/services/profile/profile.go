// Package profile renders user profiles from structured engine data. It
// never mutates records.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/beezlebub-bot/beezlebot-go/internal/db/repositories/user"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/ownership"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/rejection"
)

type Service struct {
	repo       user.UserRepository
	ownership  ownership.Service
	dateFormat string
}

func NewService(repo user.UserRepository, own ownership.Service, dateFormat string) *Service {
	return &Service{
		repo:       repo,
		ownership:  own,
		dateFormat: dateFormat,
	}
}

// Render builds the profile text for targetNick as seen by viewerNick.
// Viewing runs the lazy owner correction first so a derelict owner is never
// displayed as current.
func (s *Service) Render(ctx context.Context, viewerNick, targetNick string) (string, error) {
	u, err := s.repo.GetUserByNickAs(ctx, targetNick, viewerNick)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", rejection.Newf("No data found for %s", targetNick)
	}

	owner, err := s.ownership.UpdateOwner(ctx, u.Nick)
	if err != nil {
		return "", err
	}

	lines := []string{
		fmt.Sprintf("Profile of %s", u.Nick),
		fmt.Sprintf("Joined: %s", u.JoinDate.Format(s.dateFormat)),
		fmt.Sprintf("Last active: %s", s.lastActive(u)),
		fmt.Sprintf("Owner: %s", s.ownerLine(owner)),
	}
	if u.ChasterName != "" {
		lines = append(lines, fmt.Sprintf("Chaster name: %s", u.ChasterName))
	}
	lines = append(lines,
		fmt.Sprintf("Kinks: %s", u.KinksMessage),
		fmt.Sprintf("Limits: %s", u.LimitsMessage),
		fmt.Sprintf("Statuses: %s", statusLine(u.Statuses)),
	)
	return strings.Join(lines, " | "), nil
}

func (s *Service) lastActive(u *user.User) string {
	if u.LastActive == nil {
		return "never"
	}
	return u.LastActive.Format(s.dateFormat)
}

func (s *Service) ownerLine(owner *ownership.OwnerInfo) string {
	if owner == nil {
		return "none"
	}
	if owner.Trusts {
		return fmt.Sprintf("%s (trusted)", owner.Nick)
	}
	return fmt.Sprintf("%s (not trusted)", owner.Nick)
}

func statusLine(statuses user.SpecialStatuses) string {
	var active []string
	if statuses.IsDenied {
		active = append(active, "denied")
	}
	if statuses.IsLocked {
		active = append(active, "locked")
	}
	if statuses.IsCensored {
		active = append(active, "censored")
	}
	if statuses.CannotScream {
		active = append(active, "cannot scream")
	}
	if statuses.CannotSwear {
		active = append(active, "cannot swear")
	}
	if statuses.CannotUnregister {
		active = append(active, "cannot unregister")
	}
	if len(active) == 0 {
		return "none"
	}
	return strings.Join(active, ", ")
}

// RenderOwned formats the list of users someone controls.
func RenderOwned(owned []ownership.OwnedInfo) []string {
	lines := make([]string, 0, len(owned))
	for _, o := range owned {
		trusted := "They have not trusted you."
		if o.Trusts {
			trusted = "They have trusted you."
		}
		lines = append(lines, fmt.Sprintf("- %s. %s", o.Nick, trusted))
	}
	return lines
}
