package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
)

type PushTokenRepository struct {
	*pg.DB
}

func NewPushTokenRepository(db *pg.DB) *PushTokenRepository {
	return &PushTokenRepository{
		db,
	}
}

func (r *PushTokenRepository) Create(ctx context.Context, t *model.PushToken) (*model.PushToken, error) {
	entity := toPushTokenEntity(t)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toPushTokenModel(entity), nil
}

func (r *PushTokenRepository) Get(ctx context.Context, id int64) (*model.PushToken, error) {
	var entity PushTokenEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toPushTokenModel(&entity), nil
}

func (r *PushTokenRepository) GetByToken(ctx context.Context, token string) (*model.PushToken, error) {
	var entity PushTokenEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toPushTokenModel(&entity), nil
}

// ListActive returns the non-revoked tokens of a profile, newest refresh
// first. This is the fan-out set for a push dispatch.
func (r *PushTokenRepository) ListActive(ctx context.Context, profileID int64) ([]*model.PushToken, error) {
	var entities []*PushTokenEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("profile_id = ? AND revoked_at IS NULL", profileID).
		Order("last_refreshed_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toPushTokenModels(entities), nil
}

// RecordRefresh bumps the refresh counter, stamps the device metadata and
// clears any revocation in one update.
func (r *PushTokenRepository) RecordRefresh(ctx context.Context, id int64, userAgent, platform string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&PushTokenEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"user_agent":        userAgent,
			"platform":          platform,
			"last_refreshed_at": time.Now(),
			"refresh_count":     gorm.Expr("refresh_count + 1"),
			"revoked_at":        nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStale returns non-revoked tokens whose last refresh predates olderThan,
// oldest first so repeated sweeps drain the backlog.
func (r *PushTokenRepository) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.PushToken, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var entities []*PushTokenEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("revoked_at IS NULL AND last_refreshed_at < ?", olderThan).
		Order("last_refreshed_at ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toPushTokenModels(entities), nil
}

// Revoke stamps revoked_at once. The revoked_at IS NULL guard keeps the
// original timestamp when the dispatcher and the sweep race.
func (r *PushTokenRepository) Revoke(ctx context.Context, id int64, at time.Time) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&PushTokenEntity{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at).Error
}

func (r *PushTokenRepository) DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.Write(ctx).WithContext(ctx).
		Where("revoked_at IS NOT NULL AND revoked_at < ?", cutoff).
		Delete(&PushTokenEntity{})
	return result.RowsAffected, result.Error
}
