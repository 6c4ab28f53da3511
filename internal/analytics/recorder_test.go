package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, rec *model.NotificationRecord) (*model.NotificationRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NotificationRecord), args.Error(1)
}

func (m *MockRepository) MarkDelivered(ctx context.Context, id int64, providerMessageID string) error {
	return m.Called(ctx, id, providerMessageID).Error(0)
}

func (m *MockRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

func (m *MockRepository) MarkClicked(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*model.NotificationRecord, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NotificationRecord), args.Error(1)
}

func (m *MockRepository) FindRecentByProviderMessageID(ctx context.Context, providerMessageID string) (*model.NotificationRecord, error) {
	args := m.Called(ctx, providerMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NotificationRecord), args.Error(1)
}

func (m *MockRepository) Summary(ctx context.Context, f model.NotificationFilter, groupBy string) ([]*model.DeliverySummary, error) {
	args := m.Called(ctx, f, groupBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DeliverySummary), args.Error(1)
}

func (m *MockRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestTrackSent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns record id", func(t *testing.T) {
		repo := new(MockRepository)
		rec := &model.NotificationRecord{ProfileID: 1, Channel: model.ChannelPush, Event: model.EventArrived}
		repo.On("Create", ctx, rec).Return(&model.NotificationRecord{ID: 77}, nil)

		r := NewRecorder(repo)
		assert.Equal(t, int64(77), r.TrackSent(ctx, rec))
		repo.AssertExpectations(t)
	})

	t.Run("swallows persistence failure", func(t *testing.T) {
		repo := new(MockRepository)
		rec := &model.NotificationRecord{ProfileID: 1, Channel: model.ChannelPush, Event: model.EventArrived}
		repo.On("Create", ctx, rec).Return(nil, errors.New("db down"))

		r := NewRecorder(repo)
		assert.Equal(t, int64(0), r.TrackSent(ctx, rec))
	})
}

func TestMarkTransitions_SkipZeroID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	r := NewRecorder(repo)

	// id 0 means TrackSent already failed; nothing to update.
	r.MarkDelivered(ctx, 0, "pm-1")
	r.MarkFailed(ctx, 0, "boom")

	repo.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkTransitions_SwallowErrors(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("MarkDelivered", ctx, int64(5), "pm-1").Return(errors.New("db down"))
	repo.On("MarkFailed", ctx, int64(6), "boom").Return(errors.New("db down"))

	r := NewRecorder(repo)
	r.MarkDelivered(ctx, 5, "pm-1")
	r.MarkFailed(ctx, 6, "boom")
	repo.AssertExpectations(t)
}

func TestRecordClick(t *testing.T) {
	ctx := context.Background()

	t.Run("correlation id preferred", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByCorrelationID", ctx, "corr-1").Return(&model.NotificationRecord{ID: 9}, nil)
		repo.On("MarkClicked", ctx, int64(9)).Return(nil)

		r := NewRecorder(repo)
		require.NoError(t, r.RecordClick(ctx, "corr-1", "pm-1"))
		repo.AssertNotCalled(t, "FindRecentByProviderMessageID", mock.Anything, mock.Anything)
	})

	t.Run("falls back to provider message id", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByCorrelationID", ctx, "corr-1").Return(nil, repository.ErrNotFound)
		repo.On("FindRecentByProviderMessageID", ctx, "pm-1").Return(&model.NotificationRecord{ID: 4}, nil)
		repo.On("MarkClicked", ctx, int64(4)).Return(nil)

		r := NewRecorder(repo)
		require.NoError(t, r.RecordClick(ctx, "corr-1", "pm-1"))
		repo.AssertExpectations(t)
	})

	t.Run("unattributable click", func(t *testing.T) {
		r := NewRecorder(new(MockRepository))
		err := r.RecordClick(ctx, "", "")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
