package channelconf

import (
	"context"
	"errors"
	"strings"

	"github.com/beezlebub-bot/beezlebot-go/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChannelConfRepository interface {
	GetConf(ctx context.Context, network, channel string) (*ChannelConf, error)
	UpsertConf(ctx context.Context, conf *ChannelConf) error
}

type ChannelConfRepositoryImpl struct {
	db *db.DB
}

func NewChannelConfRepository(database *db.DB) ChannelConfRepository {
	return &ChannelConfRepositoryImpl{db: database}
}

func normScope(network, channel string) (string, string) {
	return strings.ToLower(strings.TrimSpace(network)), strings.ToLower(strings.TrimSpace(channel))
}

func (r *ChannelConfRepositoryImpl) GetConf(ctx context.Context, network, channel string) (*ChannelConf, error) {
	network, channel = normScope(network, channel)

	var conf ChannelConf
	err := r.db.DB.WithContext(ctx).
		Where("network = ? AND channel = ?", network, channel).
		First(&conf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conf, nil
}

// UpsertConf creates or replaces the settings for a (network, channel) pair.
func (r *ChannelConfRepositoryImpl) UpsertConf(ctx context.Context, conf *ChannelConf) error {
	conf.Network, conf.Channel = normScope(conf.Network, conf.Channel)

	var existing ChannelConf
	err := r.db.DB.WithContext(ctx).
		Where("network = ? AND channel = ?", conf.Network, conf.Channel).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if conf.ID == "" {
				conf.ID = uuid.NewString()
			}
			return r.db.DB.WithContext(ctx).Create(conf).Error
		}
		return err
	}

	conf.ID = existing.ID
	return r.db.DB.WithContext(ctx).Save(conf).Error
}
