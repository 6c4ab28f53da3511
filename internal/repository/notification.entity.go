package repository

import (
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
)

type NotificationRecordEntity struct {
	ID                int64      `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	ProfileID         int64      `db:"profile_id"          gorm:"column:profile_id;not null;index"`
	Channel           string     `db:"channel"             gorm:"column:channel;not null"`
	Event             string     `db:"event"               gorm:"column:event;not null;index"`
	RecipientClass    string     `db:"recipient_class"     gorm:"column:recipient_class;not null"`
	OrderID           int64      `db:"order_id"            gorm:"column:order_id;not null;index"`
	DispatchID        int64      `db:"dispatch_id"         gorm:"column:dispatch_id"`
	Status            string     `db:"status"              gorm:"column:status;not null;index"`
	ErrorMessage      string     `db:"error_message"       gorm:"column:error_message"`
	ProviderMessageID string     `db:"provider_message_id" gorm:"column:provider_message_id;index"`
	CorrelationID     string     `db:"correlation_id"      gorm:"column:correlation_id;index"`
	CreatedAt         time.Time  `db:"created_at"          gorm:"column:created_at;autoCreateTime;index"`
	DeliveredAt       *time.Time `db:"delivered_at"        gorm:"column:delivered_at"`
	ClickedAt         *time.Time `db:"clicked_at"          gorm:"column:clicked_at"`
}

func (NotificationRecordEntity) TableName() string {
	return "notification_records"
}

func toNotificationRecordEntity(rec *model.NotificationRecord) *NotificationRecordEntity {
	if rec == nil {
		return nil
	}
	return &NotificationRecordEntity{
		ID:                rec.ID,
		ProfileID:         rec.ProfileID,
		Channel:           string(rec.Channel),
		Event:             string(rec.Event),
		RecipientClass:    string(rec.RecipientClass),
		OrderID:           rec.OrderID,
		DispatchID:        rec.DispatchID,
		Status:            string(rec.Status),
		ErrorMessage:      rec.ErrorMessage,
		ProviderMessageID: rec.ProviderMessageID,
		CorrelationID:     rec.CorrelationID,
		CreatedAt:         rec.CreatedAt,
		DeliveredAt:       rec.DeliveredAt,
		ClickedAt:         rec.ClickedAt,
	}
}

func toNotificationRecordModel(e *NotificationRecordEntity) *model.NotificationRecord {
	if e == nil {
		return nil
	}
	return &model.NotificationRecord{
		ID:                e.ID,
		ProfileID:         e.ProfileID,
		Channel:           model.NotificationChannel(e.Channel),
		Event:             model.DeliveryEvent(e.Event),
		RecipientClass:    model.RecipientClass(e.RecipientClass),
		OrderID:           e.OrderID,
		DispatchID:        e.DispatchID,
		Status:            model.NotificationStatus(e.Status),
		ErrorMessage:      e.ErrorMessage,
		ProviderMessageID: e.ProviderMessageID,
		CorrelationID:     e.CorrelationID,
		CreatedAt:         e.CreatedAt,
		DeliveredAt:       e.DeliveredAt,
		ClickedAt:         e.ClickedAt,
	}
}
