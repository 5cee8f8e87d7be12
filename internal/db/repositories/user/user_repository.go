package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/beezlebub-bot/beezlebot-go/internal/db"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

/*
REPOSITORY INTERFACE

Getters return (nil, nil) when no record matches, so callers can turn the
miss into a user-visible "register first" reply instead of a fault.
*/

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByNick(ctx context.Context, nick string) (*User, error)
	// GetUserByNickAs is the blocklist-aware lookup: if the record's owner
	// has blocked viewerNick the record is reported as missing.
	GetUserByNickAs(ctx context.Context, nick, viewerNick string) (*User, error)

	CreateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id string) error

	SetLastActive(ctx context.Context, id string, t time.Time) error
	AddRefCounter(ctx context.Context, id string, delta int) error
	SetRefCounter(ctx context.Context, id string, count int) error

	// SetController reassigns the controller and trust flag in a single
	// atomic update. A nil controllerID detaches the user.
	SetController(ctx context.Context, id string, controllerID *string, trusts bool) error
	SetTrusts(ctx context.Context, id string, trusts bool) error
	SetAllowRequests(ctx context.Context, id string, allow bool) error
	SetBlocked(ctx context.Context, id string, blocked []string) error

	ListControlledBy(ctx context.Context, controllerID string) ([]*User, error)
	AllUsers(ctx context.Context) ([]*User, error)
}

type UserRepositoryImpl struct {
	db *db.DB
}

func NewUserRepository(database *db.DB) UserRepository {
	return &UserRepositoryImpl{db: database}
}

func norm(nick string) string {
	return strings.ToLower(strings.TrimSpace(nick))
}

func (r *UserRepositoryImpl) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepositoryImpl) GetUserByNick(ctx context.Context, nick string) (*User, error) {
	var u User
	err := r.db.DB.WithContext(ctx).Where("nick = ?", norm(nick)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepositoryImpl) GetUserByNickAs(ctx context.Context, nick, viewerNick string) (*User, error) {
	u, err := r.GetUserByNick(ctx, nick)
	if err != nil || u == nil {
		return u, err
	}
	if u.HasBlocked(norm(viewerNick)) {
		return nil, nil
	}
	return u, nil
}

func (r *UserRepositoryImpl) CreateUser(ctx context.Context, u *User) error {
	u.Nick = norm(u.Nick)
	return r.db.DB.WithContext(ctx).Create(u).Error
}

func (r *UserRepositoryImpl) DeleteUser(ctx context.Context, id string) error {
	return r.db.DB.WithContext(ctx).Delete(&User{}, "id = ?", id).Error
}

func (r *UserRepositoryImpl) SetLastActive(ctx context.Context, id string, t time.Time) error {
	return r.db.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("last_active", &t).Error
}

func (r *UserRepositoryImpl) AddRefCounter(ctx context.Context, id string, delta int) error {
	return r.db.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		UpdateColumn("ref_counter", gorm.Expr("ref_counter + ?", delta)).Error
}

func (r *UserRepositoryImpl) SetRefCounter(ctx context.Context, id string, count int) error {
	return r.db.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("ref_counter", count).Error
}

func (r *UserRepositoryImpl) SetController(ctx context.Context, id string, controllerID *string, trusts bool) error {
	return r.db.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"controller_id": controllerID,
			"trusts":        trusts,
		}).Error
}

func (r *UserRepositoryImpl) SetTrusts(ctx context.Context, id string, trusts bool) error {
	return r.db.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("trusts", trusts).Error
}

func (r *UserRepositoryImpl) SetAllowRequests(ctx context.Context, id string, allow bool) error {
	return r.db.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("allow_requests", allow).Error
}

func (r *UserRepositoryImpl) SetBlocked(ctx context.Context, id string, blocked []string) error {
	return r.db.DB.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("blocked", pq.StringArray(blocked)).Error
}

func (r *UserRepositoryImpl) ListControlledBy(ctx context.Context, controllerID string) ([]*User, error) {
	var users []*User
	if err := r.db.DB.WithContext(ctx).
		Where("controller_id = ?", controllerID).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) AllUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	if err := r.db.DB.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
