package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/repository"
	xhttp "github.com/mealdash/notification-gateway/pkg/http"
)

type NotificationService interface {
	SendDispatchStatusNotification(ctx context.Context, req model.DispatchStatusRequest) model.DispatchResult
}

type AnalyticsService interface {
	RecordClick(ctx context.Context, correlationID, providerMessageID string) error
	Summary(ctx context.Context, f model.NotificationFilter, groupBy string) ([]*model.DeliverySummary, error)
}

type NotificationHandler struct {
	svc       NotificationService
	analytics AnalyticsService
}

func RegisterNotificationRoutes(e *router.Group, h *NotificationHandler) {
	e.POST("/notifications/dispatch-status", h.DispatchStatus)
	e.POST("/notifications/click", h.Click)
	e.GET("/notifications/summary", h.Summary)
}

func NewNotificationHandler(svc NotificationService, analytics AnalyticsService) *NotificationHandler {
	return &NotificationHandler{
		svc:       svc,
		analytics: analytics,
	}
}

type clickRequest struct {
	CorrelationID     string `json:"correlation_id"`
	ProviderMessageID string `json:"provider_message_id"`
}

type summaryResponse struct {
	Items []*model.DeliverySummary `json:"items"`
}

/* --------------------------------- Routes ----------------------------------- */

// DispatchStatus always answers 200. Notification delivery is a best-effort
// side effect of the status transition; the caller must never roll back or
// retry a transition because a notification misfired.
func (h *NotificationHandler) DispatchStatus(ctx *xhttp.RequestCtx) {
	var req model.DispatchStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeJSON(ctx, 200, model.DispatchResult{Success: true, Error: "invalid JSON: " + err.Error()})
		return
	}

	result := h.svc.SendDispatchStatusNotification(ctx, req)
	writeJSON(ctx, 200, result)
}

func (h *NotificationHandler) Click(ctx *xhttp.RequestCtx) {
	var req clickRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.CorrelationID == "" && req.ProviderMessageID == "" {
		writeError(ctx, 400, "correlation_id or provider_message_id is required")
		return
	}

	if err := h.analytics.RecordClick(ctx, req.CorrelationID, req.ProviderMessageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(ctx, 404, "notification not found")
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]bool{"success": true})
}

func (h *NotificationHandler) Summary(ctx *xhttp.RequestCtx) {
	var f model.NotificationFilter

	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "recipient_class"); v != "" {
		class := model.RecipientClass(v)
		if !class.Valid() {
			writeError(ctx, 400, "invalid recipient_class")
			return
		}
		f.RecipientClass = &class
	}
	if v := query(ctx, "event"); v != "" {
		event := model.DeliveryEvent(v)
		if !event.Valid() {
			writeError(ctx, 400, "invalid event")
			return
		}
		f.Event = &event
	}
	if v := query(ctx, "channel"); v != "" {
		channel := model.NotificationChannel(v)
		f.Channel = &channel
	}

	groupBy := query(ctx, "group_by")
	switch groupBy {
	case "", "event", "recipient_class":
	default:
		writeError(ctx, 400, "group_by must be event or recipient_class")
		return
	}

	items, err := h.analytics.Summary(ctx, f, groupBy)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, summaryResponse{Items: items})
}

/* --------------------------------- Helpers ----------------------------------- */

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(n, 0), nil
	}
	return time.Time{}, errors.New("unsupported time format")
}
