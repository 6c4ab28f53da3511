package repository

import (
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
)

type PushTokenEntity struct {
	ID              int64      `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	ProfileID       int64      `db:"profile_id"        gorm:"column:profile_id;not null;index"`
	Token           string     `db:"token"             gorm:"column:token;not null;uniqueIndex"`
	Platform        string     `db:"platform"          gorm:"column:platform"`
	UserAgent       string     `db:"user_agent"        gorm:"column:user_agent"`
	LastRefreshedAt time.Time  `db:"last_refreshed_at" gorm:"column:last_refreshed_at;not null;index"`
	RefreshCount    int        `db:"refresh_count"     gorm:"column:refresh_count;not null;default:0"`
	RevokedAt       *time.Time `db:"revoked_at"        gorm:"column:revoked_at;index"`
	CreatedAt       time.Time  `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
}

func (PushTokenEntity) TableName() string {
	return "push_tokens"
}

func toPushTokenEntity(t *model.PushToken) *PushTokenEntity {
	if t == nil {
		return nil
	}
	return &PushTokenEntity{
		ID:              t.ID,
		ProfileID:       t.ProfileID,
		Token:           t.Token,
		Platform:        t.Platform,
		UserAgent:       t.UserAgent,
		LastRefreshedAt: t.LastRefreshedAt,
		RefreshCount:    t.RefreshCount,
		RevokedAt:       t.RevokedAt,
		CreatedAt:       t.CreatedAt,
	}
}

func toPushTokenModel(e *PushTokenEntity) *model.PushToken {
	if e == nil {
		return nil
	}
	return &model.PushToken{
		ID:              e.ID,
		ProfileID:       e.ProfileID,
		Token:           e.Token,
		Platform:        e.Platform,
		UserAgent:       e.UserAgent,
		LastRefreshedAt: e.LastRefreshedAt,
		RefreshCount:    e.RefreshCount,
		RevokedAt:       e.RevokedAt,
		CreatedAt:       e.CreatedAt,
	}
}

func toPushTokenModels(entities []*PushTokenEntity) []*model.PushToken {
	if entities == nil {
		return nil
	}
	models := make([]*model.PushToken, len(entities))
	for i, e := range entities {
		models[i] = toPushTokenModel(e)
	}
	return models
}
