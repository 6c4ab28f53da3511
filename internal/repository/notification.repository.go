package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/pkg/pg"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	*pg.DB
}

func NewNotificationRepository(db *pg.DB) *NotificationRepository {
	return &NotificationRepository{
		db,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, rec *model.NotificationRecord) (*model.NotificationRecord, error) {
	entity := toNotificationRecordEntity(rec)
	if entity.Status == "" {
		entity.Status = string(model.NotificationStatusSent)
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toNotificationRecordModel(entity), nil
}

func (r *NotificationRepository) Get(ctx context.Context, id int64) (*model.NotificationRecord, error) {
	var entity NotificationRecordEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toNotificationRecordModel(&entity), nil
}

// MarkDelivered moves a record from sent to delivered. The status guard makes
// the transition forward-only: a late delivery receipt never downgrades a
// clicked record.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id int64, providerMessageID string) error {
	now := time.Now()
	return r.Write(ctx).WithContext(ctx).
		Model(&NotificationRecordEntity{}).
		Where("id = ? AND status = ?", id, string(model.NotificationStatusSent)).
		Updates(map[string]interface{}{
			"status":              string(model.NotificationStatusDelivered),
			"provider_message_id": providerMessageID,
			"delivered_at":        now,
		}).Error
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&NotificationRecordEntity{}).
		Where("id = ? AND status = ?", id, string(model.NotificationStatusSent)).
		Updates(map[string]interface{}{
			"status":        string(model.NotificationStatusFailed),
			"error_message": errMsg,
		}).Error
}

// MarkClicked only fires on delivered records. Clicks on sent or failed rows
// are dropped rather than inventing a delivery we never observed.
func (r *NotificationRepository) MarkClicked(ctx context.Context, id int64) error {
	now := time.Now()
	return r.Write(ctx).WithContext(ctx).
		Model(&NotificationRecordEntity{}).
		Where("id = ? AND status = ?", id, string(model.NotificationStatusDelivered)).
		Updates(map[string]interface{}{
			"status":     string(model.NotificationStatusClicked),
			"clicked_at": now,
		}).Error
}

func (r *NotificationRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*model.NotificationRecord, error) {
	var entity NotificationRecordEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("created_at DESC").
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toNotificationRecordModel(&entity), nil
}

// FindRecentByProviderMessageID returns the newest record carrying the
// provider message id. Provider ids are not guaranteed unique across time, so
// most-recent is the best attribution available.
func (r *NotificationRepository) FindRecentByProviderMessageID(ctx context.Context, providerMessageID string) (*model.NotificationRecord, error) {
	var entity NotificationRecordEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("provider_message_id = ?", providerMessageID).
		Order("created_at DESC").
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toNotificationRecordModel(&entity), nil
}

type summaryRow struct {
	Grp       string `gorm:"column:grp"`
	Status    string `gorm:"column:status"`
	Total     int64  `gorm:"column:total"`
	Delivered int64  `gorm:"column:delivered"`
	Clicked   int64  `gorm:"column:clicked"`
}

// Summary aggregates records matching the filter. groupBy may be empty (one
// overall row), "event" or "recipient_class".
func (r *NotificationRepository) Summary(ctx context.Context, f model.NotificationFilter, groupBy string) ([]*model.DeliverySummary, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&NotificationRecordEntity{})

	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if f.RecipientClass != nil {
		q = q.Where("recipient_class = ?", string(*f.RecipientClass))
	}
	if f.Event != nil {
		q = q.Where("event = ?", string(*f.Event))
	}
	if f.Channel != nil {
		q = q.Where("channel = ?", string(*f.Channel))
	}

	grpExpr := "''"
	switch groupBy {
	case "event":
		grpExpr = "event"
	case "recipient_class":
		grpExpr = "recipient_class"
	}

	var rows []summaryRow
	err := q.Select(grpExpr + " AS grp, status, COUNT(*) AS total").
		Group(grpExpr + ", status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string]*model.DeliverySummary)
	var order []string
	for _, row := range rows {
		s, ok := byGroup[row.Grp]
		if !ok {
			s = &model.DeliverySummary{Group: row.Grp}
			byGroup[row.Grp] = s
			order = append(order, row.Grp)
		}
		s.Sent += row.Total
		switch model.NotificationStatus(row.Status) {
		case model.NotificationStatusDelivered:
			s.Delivered += row.Total
		case model.NotificationStatusFailed:
			s.Failed += row.Total
		case model.NotificationStatusClicked:
			// Clicked implies delivered.
			s.Delivered += row.Total
			s.Clicked += row.Total
		}
	}

	out := make([]*model.DeliverySummary, 0, len(order))
	for _, grp := range order {
		s := byGroup[grp]
		if s.Sent > 0 {
			s.DeliveryRate = float64(s.Delivered) / float64(s.Sent)
		}
		if s.Delivered > 0 {
			s.ClickRate = float64(s.Clicked) / float64(s.Delivered)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.Write(ctx).WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&NotificationRecordEntity{})
	return result.RowsAffected, result.Error
}
