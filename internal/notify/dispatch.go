package notify

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/mealdash/notification-gateway/internal/dedup"
	"github.com/mealdash/notification-gateway/internal/events"
	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/pkg/logger"
	"github.com/mealdash/notification-gateway/pkg/prom"
)

// Resolver is what the orchestrator needs from the recipient resolver.
type Resolver interface {
	Resolve(ctx context.Context, orderID int64, class model.RecipientClass, event model.DeliveryEvent) (*model.OrderContext, []*model.Profile, error)
}

// Analytics is the side-channel recorder. Implementations must never return
// errors into this path; persistence problems are logged and swallowed.
type Analytics interface {
	TrackSent(ctx context.Context, rec *model.NotificationRecord) int64
	MarkDelivered(ctx context.Context, id int64, providerMessageID string)
	MarkFailed(ctx context.Context, id int64, errMsg string)
}

// Service is the dispatch orchestrator: status string in, best-effort
// deduplicated multi-channel notifications out.
type Service struct {
	resolver Resolver
	gate     dedup.Gate
	push     *PushDispatcher
	email    *EmailDispatcher
	tracker  Analytics
}

func NewService(resolver Resolver, gate dedup.Gate, push *PushDispatcher, email *EmailDispatcher, tracker Analytics) *Service {
	return &Service{
		resolver: resolver,
		gate:     gate,
		push:     push,
		email:    email,
		tracker:  tracker,
	}
}

// SendDispatchStatusNotification is the dispatch entrypoint. It never fails
// from the caller's perspective: notifications are a best-effort side effect
// of the status transition, never a dependency of it. Internal failures are
// logged and converted into a successful response.
func (s *Service) SendDispatchStatusNotification(ctx context.Context, req model.DispatchStatusRequest) (result model.DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in dispatch notification", "status", req.Status, "order_id", req.OrderID, "panic", r)
			result = model.DispatchResult{Success: true}
		}
	}()

	if err := req.Validate(); err != nil {
		logger.Warn("invalid dispatch notification request", "error", err)
		return model.DispatchResult{Success: true, Error: err.Error()}
	}

	event, ok := events.Map(req.Status)
	if !ok {
		// Deliberate fail-safe: unknown upstream statuses are dropped, but
		// counted so a new status showing up is visible on dashboards.
		prom.IncCounter(prom.SystemNotifications, prom.MetricUnmappedStatusTotal)
		logger.Debug("unmapped dispatch status, skipping", "status", req.Status, "order_id", req.OrderID)
		return model.DispatchResult{Success: true}
	}

	order, profiles, err := s.resolver.Resolve(ctx, req.OrderID, req.RecipientType, event)
	if err != nil {
		logger.Error("failed to resolve notification recipients", "order_id", req.OrderID, "recipient_type", string(req.RecipientType), "error", err)
		return model.DispatchResult{Success: true, Error: err.Error()}
	}

	for _, profile := range profiles {
		if s.gate.IsDuplicate(ctx, profile.ID, event, req.OrderID) {
			prom.IncCounterVec(prom.SystemNotifications, prom.MetricDedupSuppressedTotal, string(event))
			logger.Debug("duplicate notification suppressed", "profile_id", profile.ID, "event", string(event), "order_id", req.OrderID)
			continue
		}

		s.notifyProfile(ctx, profile, event, req, order)
		s.gate.MarkSent(ctx, profile.ID, event, req.OrderID)
	}

	return model.DispatchResult{Success: true}
}

func (s *Service) notifyProfile(ctx context.Context, profile *model.Profile, event model.DeliveryEvent, req model.DispatchStatusRequest, order *model.OrderContext) {
	vars := map[string]string{
		"order_number": order.OrderNumber,
		"dispatch_id":  strconv.FormatInt(req.DispatchID, 10),
	}

	s.sendPush(ctx, profile, event, req, order, vars)

	if req.RecipientType == model.RecipientCustomer {
		s.sendEmail(ctx, profile, event, req, vars)
	}
}

func (s *Service) sendPush(ctx context.Context, profile *model.Profile, event model.DeliveryEvent, req model.DispatchStatusRequest, order *model.OrderContext, vars map[string]string) {
	tmpl, ok := LookupPushTemplate(req.RecipientType, event)
	if !ok {
		// No template for this class/event pair means no-op, not an error.
		return
	}
	if !profile.PushEnabled {
		return
	}

	title, body := tmpl.Render(vars)
	correlationID := uuid.NewString()

	recordID := s.tracker.TrackSent(ctx, &model.NotificationRecord{
		ProfileID:      profile.ID,
		Channel:        model.ChannelPush,
		Event:          event,
		RecipientClass: req.RecipientType,
		OrderID:        req.OrderID,
		DispatchID:     req.DispatchID,
		CorrelationID:  correlationID,
	})

	data := map[string]string{
		"event":          string(event),
		"order_id":       strconv.FormatInt(req.OrderID, 10),
		"order_number":   order.OrderNumber,
		"correlation_id": correlationID,
	}

	outcomes := s.push.Dispatch(ctx, profile, title, body, data)

	delivered := 0
	providerMessageID := ""
	var lastErr error
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			delivered++
			if providerMessageID == "" {
				providerMessageID = outcome.ProviderMessageID
			}
		} else {
			lastErr = outcome.Err
		}
	}

	switch {
	case delivered > 0:
		prom.IncCounterVec(prom.SystemNotifications, prom.MetricNotificationsSentTotal, "push", string(event), string(req.RecipientType))
		s.tracker.MarkDelivered(ctx, recordID, providerMessageID)
	case lastErr != nil:
		prom.IncCounterVec(prom.SystemNotifications, prom.MetricNotificationsFailedTotal, "push", string(event), string(req.RecipientType))
		s.tracker.MarkFailed(ctx, recordID, lastErr.Error())
	}
	// No tokens at all leaves the record in "sent": nothing was attempted,
	// nothing failed.
}

func (s *Service) sendEmail(ctx context.Context, profile *model.Profile, event model.DeliveryEvent, req model.DispatchStatusRequest, vars map[string]string) {
	if !profile.DeliveryEmailEnabled || profile.Email == "" {
		return
	}

	recordID := s.tracker.TrackSent(ctx, &model.NotificationRecord{
		ProfileID:      profile.ID,
		Channel:        model.ChannelEmail,
		Event:          event,
		RecipientClass: req.RecipientType,
		OrderID:        req.OrderID,
		DispatchID:     req.DispatchID,
		CorrelationID:  uuid.NewString(),
	})

	if err := s.email.Send(ctx, profile, event, vars); err != nil {
		// Inside the dispatch flow email failures stay internal; the typed
		// errors only surface on the direct email entrypoint.
		prom.IncCounterVec(prom.SystemNotifications, prom.MetricNotificationsFailedTotal, "email", string(event), string(req.RecipientType))
		logger.Error("delivery status email failed", "profile_id", profile.ID, "event", string(event), "error", err)
		s.tracker.MarkFailed(ctx, recordID, err.Error())
		return
	}

	prom.IncCounterVec(prom.SystemNotifications, prom.MetricNotificationsSentTotal, "email", string(event), string(req.RecipientType))
	s.tracker.MarkDelivered(ctx, recordID, "")
}

// SendDeliveryStatusEmail is the direct email entrypoint. Unlike the
// dispatch path it surfaces failures, because callers here want them
// observable: PreferenceError, TemplateRenderError or EmailProviderError.
// An unmapped driver status is a silent no-op, consistent with the mapper's
// fail-safe contract.
func (s *Service) SendDeliveryStatusEmail(ctx context.Context, driverStatus string, vars map[string]string, profile *model.Profile) error {
	event, ok := events.Map(driverStatus)
	if !ok {
		prom.IncCounter(prom.SystemNotifications, prom.MetricUnmappedStatusTotal)
		logger.Debug("unmapped driver status for email, skipping", "status", driverStatus)
		return nil
	}
	return s.email.Send(ctx, profile, event, vars)
}
