package channelconf

import (
	"time"
)

// ChannelConf holds per-channel bot settings, currently the welcome message
// shown when someone joins.
type ChannelConf struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Network string `gorm:"column:network;type:varchar(100);not null;uniqueIndex:idx_channel_conf_scope,priority:1" json:"network"`
	Channel string `gorm:"column:channel;type:varchar(100);not null;uniqueIndex:idx_channel_conf_scope,priority:2" json:"channel"`

	WelcomeMessage string `gorm:"column:welcome_message;type:text;not null;default:''" json:"welcome_message"`
	WelcomeEnabled bool   `gorm:"column:welcome_enabled;not null;default:false" json:"welcome_enabled"`
}

func (ChannelConf) TableName() string {
	return "channel_conf"
}
