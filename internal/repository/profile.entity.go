package repository

import (
	"github.com/mealdash/notification-gateway/internal/model"
)

type ProfileEntity struct {
	ID                   int64  `db:"id"                     gorm:"primaryKey;autoIncrement;column:id"`
	Role                 string `db:"role"                   gorm:"column:role;not null;index"`
	Email                string `db:"email"                  gorm:"column:email"`
	PushEnabled          bool   `db:"push_enabled"           gorm:"column:push_enabled;not null;default:true"`
	DeliveryEmailEnabled bool   `db:"delivery_email_enabled" gorm:"column:delivery_email_enabled;not null;default:true"`
}

func (ProfileEntity) TableName() string {
	return "profiles"
}

func toProfileModel(e *ProfileEntity) *model.Profile {
	if e == nil {
		return nil
	}
	return &model.Profile{
		ID:                   e.ID,
		Role:                 model.ProfileRole(e.Role),
		Email:                e.Email,
		PushEnabled:          e.PushEnabled,
		DeliveryEmailEnabled: e.DeliveryEmailEnabled,
	}
}

func toProfileModels(entities []*ProfileEntity) []*model.Profile {
	if entities == nil {
		return nil
	}
	models := make([]*model.Profile, len(entities))
	for i, e := range entities {
		models[i] = toProfileModel(e)
	}
	return models
}
