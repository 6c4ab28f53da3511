package repository

import (
	"context"
	"errors"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/pkg/pg"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	*pg.DB
}

func NewProfileRepository(db *pg.DB) *ProfileRepository {
	return &ProfileRepository{
		db,
	}
}

func (r *ProfileRepository) Get(ctx context.Context, id int64) (*model.Profile, error) {
	var entity ProfileEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toProfileModel(&entity), nil
}

// ListNotifiableStaff returns the admin notification pool: staff roles that
// still have push enabled.
func (r *ProfileRepository) ListNotifiableStaff(ctx context.Context) ([]*model.Profile, error) {
	roles := []string{
		string(model.RoleAdmin),
		string(model.RoleSuperAdmin),
		string(model.RoleHelpdesk),
	}

	var entities []*ProfileEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("role IN ? AND push_enabled = ?", roles, true).
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toProfileModels(entities), nil
}
