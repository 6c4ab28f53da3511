package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRecord(t *testing.T, repo *NotificationRepository, rec *model.NotificationRecord) *model.NotificationRecord {
	t.Helper()
	created, err := repo.Create(context.Background(), rec)
	require.NoError(t, err)
	return created
}

func TestNotificationRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewNotificationRepository(db)

	created := createRecord(t, repo, &model.NotificationRecord{
		ProfileID:      1,
		Channel:        model.ChannelPush,
		Event:          model.EventAssigned,
		RecipientClass: model.RecipientCustomer,
		OrderID:        42,
		DispatchID:     7,
		CorrelationID:  "corr-1",
	})

	assert.NotZero(t, created.ID)
	assert.Equal(t, model.NotificationStatusSent, created.Status)
}

func TestNotificationRepository_ForwardOnlyTransitions(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	t.Run("sent to delivered to clicked", func(t *testing.T) {
		rec := createRecord(t, repo, &model.NotificationRecord{
			ProfileID: 1, Channel: model.ChannelPush, Event: model.EventArrived,
			RecipientClass: model.RecipientCustomer, OrderID: 1,
		})

		require.NoError(t, repo.MarkDelivered(ctx, rec.ID, "pm-1"))
		got, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.NotificationStatusDelivered, got.Status)
		assert.Equal(t, "pm-1", got.ProviderMessageID)
		require.NotNil(t, got.DeliveredAt)

		require.NoError(t, repo.MarkClicked(ctx, rec.ID))
		got, err = repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.NotificationStatusClicked, got.Status)
		require.NotNil(t, got.ClickedAt)
	})

	t.Run("failed record stays failed", func(t *testing.T) {
		rec := createRecord(t, repo, &model.NotificationRecord{
			ProfileID: 1, Channel: model.ChannelPush, Event: model.EventFailed,
			RecipientClass: model.RecipientAdmin, OrderID: 2,
		})

		require.NoError(t, repo.MarkFailed(ctx, rec.ID, "provider unavailable"))
		require.NoError(t, repo.MarkDelivered(ctx, rec.ID, "pm-late"))

		got, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.NotificationStatusFailed, got.Status)
		assert.Equal(t, "provider unavailable", got.ErrorMessage)
	})

	t.Run("click on undelivered record is dropped", func(t *testing.T) {
		rec := createRecord(t, repo, &model.NotificationRecord{
			ProfileID: 1, Channel: model.ChannelPush, Event: model.EventEnRoute,
			RecipientClass: model.RecipientCustomer, OrderID: 3,
		})

		require.NoError(t, repo.MarkClicked(ctx, rec.ID))
		got, err := repo.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, model.NotificationStatusSent, got.Status)
		assert.Nil(t, got.ClickedAt)
	})
}

func TestNotificationRepository_ClickAttribution(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	first := createRecord(t, repo, &model.NotificationRecord{
		ProfileID: 1, Channel: model.ChannelPush, Event: model.EventArrived,
		RecipientClass: model.RecipientCustomer, OrderID: 1, CorrelationID: "corr-a",
	})
	require.NoError(t, repo.MarkDelivered(ctx, first.ID, "pm-shared"))

	time.Sleep(10 * time.Millisecond)
	second := createRecord(t, repo, &model.NotificationRecord{
		ProfileID: 2, Channel: model.ChannelPush, Event: model.EventCompleted,
		RecipientClass: model.RecipientCustomer, OrderID: 2, CorrelationID: "corr-b",
	})
	require.NoError(t, repo.MarkDelivered(ctx, second.ID, "pm-shared"))

	t.Run("correlation id is exact", func(t *testing.T) {
		got, err := repo.FindByCorrelationID(ctx, "corr-a")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("provider message id resolves most recent", func(t *testing.T) {
		got, err := repo.FindRecentByProviderMessageID(ctx, "pm-shared")
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)
	})
}

func TestNotificationRepository_Summary(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	// 4 customer pushes: 2 delivered (1 of them clicked), 1 failed, 1 still sent.
	a := createRecord(t, repo, &model.NotificationRecord{ProfileID: 1, Channel: model.ChannelPush, Event: model.EventArrived, RecipientClass: model.RecipientCustomer, OrderID: 1})
	require.NoError(t, repo.MarkDelivered(ctx, a.ID, "pm-a"))
	b := createRecord(t, repo, &model.NotificationRecord{ProfileID: 2, Channel: model.ChannelPush, Event: model.EventArrived, RecipientClass: model.RecipientCustomer, OrderID: 2})
	require.NoError(t, repo.MarkDelivered(ctx, b.ID, "pm-b"))
	require.NoError(t, repo.MarkClicked(ctx, b.ID))
	c := createRecord(t, repo, &model.NotificationRecord{ProfileID: 3, Channel: model.ChannelPush, Event: model.EventFailed, RecipientClass: model.RecipientCustomer, OrderID: 3})
	require.NoError(t, repo.MarkFailed(ctx, c.ID, "boom"))
	createRecord(t, repo, &model.NotificationRecord{ProfileID: 4, Channel: model.ChannelPush, Event: model.EventAssigned, RecipientClass: model.RecipientCustomer, OrderID: 4})

	// One admin push, delivered.
	d := createRecord(t, repo, &model.NotificationRecord{ProfileID: 5, Channel: model.ChannelPush, Event: model.EventFailed, RecipientClass: model.RecipientAdmin, OrderID: 3})
	require.NoError(t, repo.MarkDelivered(ctx, d.ID, "pm-d"))

	t.Run("overall", func(t *testing.T) {
		summaries, err := repo.Summary(ctx, model.NotificationFilter{}, "")
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		s := summaries[0]
		assert.Equal(t, int64(5), s.Sent)
		assert.Equal(t, int64(3), s.Delivered)
		assert.Equal(t, int64(1), s.Failed)
		assert.Equal(t, int64(1), s.Clicked)
		assert.InDelta(t, 0.6, s.DeliveryRate, 0.001)
		assert.InDelta(t, 1.0/3.0, s.ClickRate, 0.001)
	})

	t.Run("grouped by recipient class", func(t *testing.T) {
		summaries, err := repo.Summary(ctx, model.NotificationFilter{}, "recipient_class")
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		byGroup := map[string]*model.DeliverySummary{}
		for _, s := range summaries {
			byGroup[s.Group] = s
		}
		require.Contains(t, byGroup, string(model.RecipientCustomer))
		require.Contains(t, byGroup, string(model.RecipientAdmin))
		assert.Equal(t, int64(4), byGroup[string(model.RecipientCustomer)].Sent)
		assert.Equal(t, int64(1), byGroup[string(model.RecipientAdmin)].Sent)
	})

	t.Run("filter by class", func(t *testing.T) {
		admin := model.RecipientAdmin
		summaries, err := repo.Summary(ctx, model.NotificationFilter{RecipientClass: &admin}, "")
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, int64(1), summaries[0].Sent)
		assert.InDelta(t, 1.0, summaries[0].DeliveryRate, 0.001)
	})
}

func TestNotificationRepository_DeleteOlderThan(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	old := createRecord(t, repo, &model.NotificationRecord{ProfileID: 1, Channel: model.ChannelPush, Event: model.EventArrived, RecipientClass: model.RecipientCustomer, OrderID: 1})
	err := db.Write(ctx).Model(&NotificationRecordEntity{}).
		Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(0, 0, -120)).Error
	require.NoError(t, err)

	fresh := createRecord(t, repo, &model.NotificationRecord{ProfileID: 1, Channel: model.ChannelPush, Event: model.EventArrived, RecipientClass: model.RecipientCustomer, OrderID: 2})

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}
