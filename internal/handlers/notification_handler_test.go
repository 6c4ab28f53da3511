package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/repository"
	xhttp "github.com/mealdash/notification-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendDispatchStatusNotification(ctx context.Context, req model.DispatchStatusRequest) model.DispatchResult {
	args := m.Called(ctx, req)
	return args.Get(0).(model.DispatchResult)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) RecordClick(ctx context.Context, correlationID, providerMessageID string) error {
	return m.Called(ctx, correlationID, providerMessageID).Error(0)
}

func (m *MockAnalyticsService) Summary(ctx context.Context, f model.NotificationFilter, groupBy string) ([]*model.DeliverySummary, error) {
	args := m.Called(ctx, f, groupBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DeliverySummary), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) RecordTokenRefresh(ctx context.Context, token string, profileID int64, userAgent, platform string) (bool, error) {
	args := m.Called(ctx, token, profileID, userAgent, platform)
	return args.Bool(0), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func TestNotificationHandler_DispatchStatus(t *testing.T) {
	t.Run("forwards request and returns 200", func(t *testing.T) {
		svc := new(MockNotificationService)
		handler := NewNotificationHandler(svc, new(MockAnalyticsService))

		req := model.DispatchStatusRequest{
			Status:        "DELIVERED",
			DispatchID:    9,
			OrderID:       42,
			RecipientType: model.RecipientCustomer,
		}
		svc.On("SendDispatchStatusNotification", mock.Anything, req).
			Return(model.DispatchResult{Success: true})

		body, _ := json.Marshal(req)
		ctx := setupTestContext("POST", "/api/v1/notifications/dispatch-status", body)
		handler.DispatchStatus(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var result model.DispatchResult
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &result))
		assert.True(t, result.Success)
		svc.AssertExpectations(t)
	})

	t.Run("malformed JSON still answers 200", func(t *testing.T) {
		svc := new(MockNotificationService)
		handler := NewNotificationHandler(svc, new(MockAnalyticsService))

		ctx := setupTestContext("POST", "/api/v1/notifications/dispatch-status", []byte("{not json"))
		handler.DispatchStatus(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var result model.DispatchResult
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &result))
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.Error)
		svc.AssertNotCalled(t, "SendDispatchStatusNotification", mock.Anything, mock.Anything)
	})
}

func TestNotificationHandler_Click(t *testing.T) {
	t.Run("records click", func(t *testing.T) {
		analytics := new(MockAnalyticsService)
		handler := NewNotificationHandler(new(MockNotificationService), analytics)

		analytics.On("RecordClick", mock.Anything, "corr-1", "").Return(nil)

		body, _ := json.Marshal(clickRequest{CorrelationID: "corr-1"})
		ctx := setupTestContext("POST", "/api/v1/notifications/click", body)
		handler.Click(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		analytics.AssertExpectations(t)
	})

	t.Run("missing identifiers", func(t *testing.T) {
		handler := NewNotificationHandler(new(MockNotificationService), new(MockAnalyticsService))

		ctx := setupTestContext("POST", "/api/v1/notifications/click", []byte("{}"))
		handler.Click(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("unattributable click", func(t *testing.T) {
		analytics := new(MockAnalyticsService)
		handler := NewNotificationHandler(new(MockNotificationService), analytics)

		analytics.On("RecordClick", mock.Anything, "corr-x", "").Return(repository.ErrNotFound)

		body, _ := json.Marshal(clickRequest{CorrelationID: "corr-x"})
		ctx := setupTestContext("POST", "/api/v1/notifications/click", body)
		handler.Click(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestNotificationHandler_Summary(t *testing.T) {
	t.Run("grouped summary", func(t *testing.T) {
		analytics := new(MockAnalyticsService)
		handler := NewNotificationHandler(new(MockNotificationService), analytics)

		analytics.On("Summary", mock.Anything, mock.Anything, "event").
			Return([]*model.DeliverySummary{{Group: "arrived", Sent: 10, Delivered: 9, DeliveryRate: 0.9}}, nil)

		ctx := setupTestContext("GET", "/api/v1/notifications/summary?group_by=event", nil)
		handler.Summary(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp summaryResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, int64(10), resp.Items[0].Sent)
	})

	t.Run("invalid group_by", func(t *testing.T) {
		handler := NewNotificationHandler(new(MockNotificationService), new(MockAnalyticsService))

		ctx := setupTestContext("GET", "/api/v1/notifications/summary?group_by=channel", nil)
		handler.Summary(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("invalid recipient_class", func(t *testing.T) {
		handler := NewNotificationHandler(new(MockNotificationService), new(MockAnalyticsService))

		ctx := setupTestContext("GET", "/api/v1/notifications/summary?recipient_class=ROBOT", nil)
		handler.Summary(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestTokenHandler_Refresh(t *testing.T) {
	t.Run("new token answers 201", func(t *testing.T) {
		svc := new(MockTokenService)
		handler := NewTokenHandler(svc)

		svc.On("RecordTokenRefresh", mock.Anything, "fcm-tok", int64(7), "agent", "web").
			Return(true, nil)

		body, _ := json.Marshal(model.TokenRefreshRequest{ProfileID: 7, Token: "fcm-tok", Platform: "web", UserAgent: "agent"})
		ctx := setupTestContext("POST", "/api/v1/tokens/refresh", body)
		handler.Refresh(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("existing token answers 200", func(t *testing.T) {
		svc := new(MockTokenService)
		handler := NewTokenHandler(svc)

		svc.On("RecordTokenRefresh", mock.Anything, "fcm-tok", int64(7), "agent", "web").
			Return(false, nil)

		body, _ := json.Marshal(model.TokenRefreshRequest{ProfileID: 7, Token: "fcm-tok", Platform: "web", UserAgent: "agent"})
		ctx := setupTestContext("POST", "/api/v1/tokens/refresh", body)
		handler.Refresh(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("missing token", func(t *testing.T) {
		handler := NewTokenHandler(new(MockTokenService))

		body, _ := json.Marshal(model.TokenRefreshRequest{ProfileID: 7})
		ctx := setupTestContext("POST", "/api/v1/tokens/refresh", body)
		handler.Refresh(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("service failure", func(t *testing.T) {
		svc := new(MockTokenService)
		handler := NewTokenHandler(svc)

		svc.On("RecordTokenRefresh", mock.Anything, "fcm-tok", int64(7), "agent", "web").
			Return(false, errors.New("db down"))

		body, _ := json.Marshal(model.TokenRefreshRequest{ProfileID: 7, Token: "fcm-tok", Platform: "web", UserAgent: "agent"})
		ctx := setupTestContext("POST", "/api/v1/tokens/refresh", body)
		handler.Refresh(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
	})
}
