package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/mealdash/notification-gateway/internal/model"
	xhttp "github.com/mealdash/notification-gateway/pkg/http"
)

type TokenService interface {
	RecordTokenRefresh(ctx context.Context, token string, profileID int64, userAgent, platform string) (bool, error)
}

type TokenHandler struct {
	svc TokenService
}

func RegisterTokenRoutes(e *router.Group, h *TokenHandler) {
	e.POST("/tokens/refresh", h.Refresh)
}

func NewTokenHandler(svc TokenService) *TokenHandler {
	return &TokenHandler{
		svc: svc,
	}
}

type tokenRefreshResponse struct {
	Created bool `json:"created"`
}

func (h *TokenHandler) Refresh(ctx *xhttp.RequestCtx) {
	var req model.TokenRefreshRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.Token == "" {
		writeError(ctx, 400, "token is required")
		return
	}
	if req.ProfileID == 0 {
		writeError(ctx, 400, "profile_id is required")
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = string(ctx.Request.Header.UserAgent())
	}

	created, err := h.svc.RecordTokenRefresh(ctx, req.Token, req.ProfileID, userAgent, req.Platform)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}

	status := 200
	if created {
		status = 201
	}
	writeJSON(ctx, status, tokenRefreshResponse{Created: created})
}
