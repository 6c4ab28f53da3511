package repository

import (
	"context"
	"errors"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/pkg/pg"
	"gorm.io/gorm"
)

// DeliveryOrderRepository reads the marketplace delivery orders table. The
// notification subsystem never writes orders.
type DeliveryOrderRepository struct {
	*pg.DB
}

func NewDeliveryOrderRepository(db *pg.DB) *DeliveryOrderRepository {
	return &DeliveryOrderRepository{
		db,
	}
}

func (r *DeliveryOrderRepository) GetContext(ctx context.Context, orderID int64) (*model.OrderContext, error) {
	var entity DeliveryOrderEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDeliveryOrderContext(&entity), nil
}

// CateringOrderRepository reads the catering orders table, the fallback when
// an order id is not a delivery order.
type CateringOrderRepository struct {
	*pg.DB
}

func NewCateringOrderRepository(db *pg.DB) *CateringOrderRepository {
	return &CateringOrderRepository{
		db,
	}
}

func (r *CateringOrderRepository) GetContext(ctx context.Context, orderID int64) (*model.OrderContext, error) {
	var entity CateringOrderEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toCateringOrderContext(&entity), nil
}
