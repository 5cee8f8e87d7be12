package user

import (
	"time"

	"github.com/lib/pq"
)

const (
	DefaultKinksMessage  = "This user has not yet set their kinks message"
	DefaultLimitsMessage = "This user has not yet set their limits message"
)

// SpecialStatuses are the settings a controller takes over once they own a
// user. The engine treats them as opaque.
type SpecialStatuses struct {
	IsDenied         bool `gorm:"column:is_denied;not null;default:false" json:"is_denied"`
	IsLocked         bool `gorm:"column:is_locked;not null;default:false" json:"is_locked"`
	IsCensored       bool `gorm:"column:is_censored;not null;default:false" json:"is_censored"`
	CannotScream     bool `gorm:"column:cannot_scream;not null;default:false" json:"cannot_scream"`
	CannotSwear      bool `gorm:"column:cannot_swear;not null;default:false" json:"cannot_swear"`
	CannotUnregister bool `gorm:"column:cannot_unregister;not null;default:false" json:"cannot_unregister"`
}

type User struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Nick     string    `gorm:"column:nick;type:varchar(64);not null;uniqueIndex:idx_users_nick" json:"nick"`
	JoinDate time.Time `gorm:"column:join_date;not null" json:"join_date"`

	// LastActive is nil for users who only joined a channel and never
	// interacted, so they are eligible for immediate removal on leave.
	LastActive *time.Time `gorm:"column:last_active;index" json:"last_active"`

	RefCounter int `gorm:"column:ref_counter;not null;default:1" json:"ref_counter"`

	// ControllerID is nil when the user is unowned. Trusts only carries
	// meaning while ControllerID is set and is cleared whenever it changes.
	ControllerID  *string `gorm:"column:controller_id;type:uuid;index" json:"controller_id"`
	Trusts        bool    `gorm:"column:trusts;not null;default:false" json:"trusts"`
	AllowRequests bool    `gorm:"column:allow_requests;not null;default:true" json:"allow_requests"`

	// Nicks are stored rather than record ids so blocks survive the target
	// deleting and recreating their data.
	Blocked pq.StringArray `gorm:"column:blocked;type:text[];not null;default:'{}'" json:"blocked"`

	ChasterName   string `gorm:"column:chaster_name;type:text" json:"chaster_name"`
	KinksMessage  string `gorm:"column:kinks_message;type:text" json:"kinks_message"`
	LimitsMessage string `gorm:"column:limits_message;type:text" json:"limits_message"`

	Statuses SpecialStatuses `gorm:"embedded;embeddedPrefix:status_" json:"special_statuses"`
}

func (User) TableName() string {
	return "users"
}

// HasOwner reports whether the user currently has a controller.
func (u *User) HasOwner() bool {
	return u.ControllerID != nil
}

// IsOwnedBy reports whether other currently controls u.
func (u *User) IsOwnedBy(other *User) bool {
	return u.ControllerID != nil && *u.ControllerID == other.ID
}

// HasBlocked reports whether u has blocked the given nick.
func (u *User) HasBlocked(nick string) bool {
	for _, blocked := range u.Blocked {
		if blocked == nick {
			return true
		}
	}
	return false
}

// Derelict reports whether the user has been inactive past the threshold.
// A user who never interacted counts as derelict.
func (u *User) Derelict(now time.Time, threshold time.Duration) bool {
	if u.LastActive == nil {
		return true
	}
	return now.Sub(*u.LastActive) > threshold
}

// Deletable reports whether the record is past the deletion threshold.
func (u *User) Deletable(now time.Time, deleteTime time.Duration) bool {
	if u.LastActive == nil {
		return true
	}
	return now.Sub(*u.LastActive) > deleteTime
}
