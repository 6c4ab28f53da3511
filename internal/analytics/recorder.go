package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/repository"
	"github.com/mealdash/notification-gateway/pkg/logger"
)

// Repository is the persistence surface the recorder needs.
type Repository interface {
	Create(ctx context.Context, rec *model.NotificationRecord) (*model.NotificationRecord, error)
	MarkDelivered(ctx context.Context, id int64, providerMessageID string) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	MarkClicked(ctx context.Context, id int64) error
	FindByCorrelationID(ctx context.Context, correlationID string) (*model.NotificationRecord, error)
	FindRecentByProviderMessageID(ctx context.Context, providerMessageID string) (*model.NotificationRecord, error)
	Summary(ctx context.Context, f model.NotificationFilter, groupBy string) ([]*model.DeliverySummary, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Recorder persists notification analytics. Everything on the send path
// swallows errors: a broken analytics store must never block or fail a
// notification, so failures are logged and the flow continues.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// TrackSent creates the analytics row for an outgoing notification and
// returns its id, or 0 when persistence failed. Callers pass the 0 back into
// MarkDelivered/MarkFailed, which treat it as a no-op.
func (r *Recorder) TrackSent(ctx context.Context, rec *model.NotificationRecord) int64 {
	created, err := r.repo.Create(ctx, rec)
	if err != nil {
		logger.Error("failed to track sent notification",
			"profile_id", rec.ProfileID,
			"channel", string(rec.Channel),
			"event", string(rec.Event),
			"error", err)
		return 0
	}
	return created.ID
}

func (r *Recorder) MarkDelivered(ctx context.Context, id int64, providerMessageID string) {
	if id == 0 {
		return
	}
	if err := r.repo.MarkDelivered(ctx, id, providerMessageID); err != nil {
		logger.Error("failed to mark notification delivered", "record_id", id, "error", err)
	}
}

func (r *Recorder) MarkFailed(ctx context.Context, id int64, errMsg string) {
	if id == 0 {
		return
	}
	if err := r.repo.MarkFailed(ctx, id, errMsg); err != nil {
		logger.Error("failed to mark notification failed", "record_id", id, "error", err)
	}
}

// RecordClick attributes a click callback to a record. The correlation id we
// mint and embed in the push payload is the primary key for attribution; the
// provider message id is a fallback for older clients, resolved to the most
// recent matching record. Unattributable clicks return ErrNotFound.
func (r *Recorder) RecordClick(ctx context.Context, correlationID, providerMessageID string) error {
	rec, err := r.lookupForClick(ctx, correlationID, providerMessageID)
	if err != nil {
		return err
	}
	if err := r.repo.MarkClicked(ctx, rec.ID); err != nil {
		return err
	}
	logger.Info("notification click recorded", "record_id", rec.ID, "correlation_id", correlationID)
	return nil
}

func (r *Recorder) lookupForClick(ctx context.Context, correlationID, providerMessageID string) (*model.NotificationRecord, error) {
	if correlationID != "" {
		rec, err := r.repo.FindByCorrelationID(ctx, correlationID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if providerMessageID != "" {
		return r.repo.FindRecentByProviderMessageID(ctx, providerMessageID)
	}
	return nil, repository.ErrNotFound
}

// Summary reports aggregate delivery and click rates for a time range,
// optionally grouped by "event" or "recipient_class".
func (r *Recorder) Summary(ctx context.Context, f model.NotificationFilter, groupBy string) ([]*model.DeliverySummary, error) {
	return r.repo.Summary(ctx, f, groupBy)
}

// DeleteOlderThan prunes analytics rows past the retention window. The
// maintenance sweep calls this alongside token cleanup.
func (r *Recorder) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.repo.DeleteOlderThan(ctx, cutoff)
}
