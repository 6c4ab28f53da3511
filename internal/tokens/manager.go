package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/provider"
	"github.com/mealdash/notification-gateway/internal/repository"
	"github.com/mealdash/notification-gateway/pkg/logger"
	"github.com/mealdash/notification-gateway/pkg/prom"
)

// DefaultStalenessWindow is how long a token may go without a refresh before
// it becomes a validation candidate.
const DefaultStalenessWindow = 30 * 24 * time.Hour

// Repository is the persistence surface the manager needs.
type Repository interface {
	GetByToken(ctx context.Context, token string) (*model.PushToken, error)
	Get(ctx context.Context, id int64) (*model.PushToken, error)
	Create(ctx context.Context, t *model.PushToken) (*model.PushToken, error)
	RecordRefresh(ctx context.Context, id int64, userAgent, platform string) error
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.PushToken, error)
	Revoke(ctx context.Context, id int64, at time.Time) error
	DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ValidationResult explains why a token was or wasn't considered valid.
type ValidationResult struct {
	Valid  bool
	Reason string
}

// Manager owns push-token lifecycle: refresh, staleness, validation,
// revocation and retention-bounded cleanup.
type Manager struct {
	repo      Repository
	validator provider.TokenValidator
	staleness time.Duration
}

func NewManager(repo Repository, validator provider.TokenValidator, staleness time.Duration) *Manager {
	if staleness <= 0 {
		staleness = DefaultStalenessWindow
	}
	return &Manager{
		repo:      repo,
		validator: validator,
		staleness: staleness,
	}
}

// RecordTokenRefresh registers a token or refreshes an existing one. A
// refresh bumps refresh_count, updates device metadata and clears revoked_at:
// a device actively re-registering is evidence the token is live. Returns
// whether the token was new.
func (m *Manager) RecordTokenRefresh(ctx context.Context, token string, profileID int64, userAgent, platform string) (bool, error) {
	existing, err := m.repo.GetByToken(ctx, token)
	if err == nil {
		if err := m.repo.RecordRefresh(ctx, existing.ID, userAgent, platform); err != nil {
			return false, fmt.Errorf("refresh token %d: %w", existing.ID, err)
		}
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("lookup token: %w", err)
	}

	_, err = m.repo.Create(ctx, &model.PushToken{
		ProfileID:       profileID,
		Token:           token,
		Platform:        platform,
		UserAgent:       userAgent,
		LastRefreshedAt: time.Now(),
		RefreshCount:    0,
	})
	if err != nil {
		return false, fmt.Errorf("create token: %w", err)
	}
	return true, nil
}

// GetStaleTokens returns non-revoked tokens not refreshed within the
// staleness window, oldest first, capped at limit.
func (m *Manager) GetStaleTokens(ctx context.Context, limit int) ([]*model.PushToken, error) {
	return m.repo.ListStale(ctx, time.Now().Add(-m.staleness), limit)
}

// ValidateToken checks a token against the push provider via a dry-run send.
// With no provider configured it fails open: the inability to check must
// never cause mass revocation. Only the provider's "token gone" error family
// marks a token invalid; any other error is inconclusive and the token stays
// valid.
func (m *Manager) ValidateToken(ctx context.Context, token *model.PushToken) ValidationResult {
	if m.validator == nil {
		return ValidationResult{Valid: true, Reason: "provider unavailable"}
	}

	err := m.validator.SendDryRun(ctx, token.Token)
	if err == nil {
		return ValidationResult{Valid: true, Reason: "dry-run accepted"}
	}
	if provider.IsTokenNotRegistered(err) {
		return ValidationResult{Valid: false, Reason: "provider reported token not registered"}
	}

	logger.Warn("token validation inconclusive", "token_id", token.ID, "error", err)
	return ValidationResult{Valid: true, Reason: "inconclusive provider error"}
}

// ValidateTokensBatch validates each token by id and immediately revokes any
// found invalid. Returns how many were revoked.
func (m *Manager) ValidateTokensBatch(ctx context.Context, ids []int64) (int, error) {
	revoked := 0
	for _, id := range ids {
		token, err := m.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return revoked, fmt.Errorf("load token %d: %w", id, err)
		}

		result := m.ValidateToken(ctx, token)
		if result.Valid {
			continue
		}
		if err := m.RevokeToken(ctx, token.ID, result.Reason); err != nil {
			return revoked, err
		}
		revoked++
	}
	return revoked, nil
}

// RevokeToken marks a token unusable. Idempotent: revoking an already
// revoked token succeeds and leaves revoked_at set, so the dispatcher and
// the maintenance sweep can race on it safely.
func (m *Manager) RevokeToken(ctx context.Context, id int64, reason string) error {
	if err := m.repo.Revoke(ctx, id, time.Now()); err != nil {
		return fmt.Errorf("revoke token %d: %w", id, err)
	}
	prom.IncCounterVec(prom.SystemTokens, prom.MetricTokensRevokedTotal, reason)
	logger.Info("push token revoked", "token_id", id, "reason", reason)
	return nil
}

// CleanupRevokedTokens hard-deletes rows revoked longer ago than the
// retention window. Separate from revocation on purpose: revocation is
// instant and reversible by refresh and keeps the row for audit; cleanup is
// the garbage collector.
func (m *Manager) CleanupRevokedTokens(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, errors.New("retention days must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return m.repo.DeleteRevokedBefore(ctx, cutoff)
}
