package repository

import (
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
)

type DeliveryOrderEntity struct {
	ID                 int64     `db:"id"                    gorm:"primaryKey;autoIncrement;column:id"`
	OrderNumber        string    `db:"order_number"          gorm:"column:order_number;not null"`
	OwnerProfileID     int64     `db:"owner_profile_id"      gorm:"column:owner_profile_id;not null;index"`
	CreatedByProfileID int64     `db:"created_by_profile_id" gorm:"column:created_by_profile_id;not null"`
	CreatedAt          time.Time `db:"created_at"            gorm:"column:created_at;autoCreateTime"`
}

func (DeliveryOrderEntity) TableName() string {
	return "delivery_orders"
}

type CateringOrderEntity struct {
	ID                 int64     `db:"id"                    gorm:"primaryKey;autoIncrement;column:id"`
	OrderNumber        string    `db:"order_number"          gorm:"column:order_number;not null"`
	OwnerProfileID     int64     `db:"owner_profile_id"      gorm:"column:owner_profile_id;not null;index"`
	CreatedByProfileID int64     `db:"created_by_profile_id" gorm:"column:created_by_profile_id;not null"`
	CreatedAt          time.Time `db:"created_at"            gorm:"column:created_at;autoCreateTime"`
}

func (CateringOrderEntity) TableName() string {
	return "catering_orders"
}

func toDeliveryOrderContext(e *DeliveryOrderEntity) *model.OrderContext {
	if e == nil {
		return nil
	}
	return &model.OrderContext{
		OrderID:            e.ID,
		OrderNumber:        e.OrderNumber,
		OwnerProfileID:     e.OwnerProfileID,
		CreatedByProfileID: e.CreatedByProfileID,
		Source:             model.OrderSourceDelivery,
	}
}

func toCateringOrderContext(e *CateringOrderEntity) *model.OrderContext {
	if e == nil {
		return nil
	}
	return &model.OrderContext{
		OrderID:            e.ID,
		OrderNumber:        e.OrderNumber,
		OwnerProfileID:     e.OwnerProfileID,
		CreatedByProfileID: e.CreatedByProfileID,
		Source:             model.OrderSourceCatering,
	}
}
