package notify

import (
	"context"
	"sync"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/provider"
	"github.com/mealdash/notification-gateway/pkg/logger"
)

// TokenSource lists the non-revoked tokens registered for a profile.
type TokenSource interface {
	ListActive(ctx context.Context, profileID int64) ([]*model.PushToken, error)
}

// TokenRevoker revokes a dead token. Revocation writes are idempotent, so the
// dispatcher can revoke concurrently with the maintenance sweep.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID int64, reason string) error
}

// PushOutcome is the per-token result of a fan-out. Every token gets an
// outcome; one token's failure never cancels or hides its siblings.
type PushOutcome struct {
	TokenID           int64
	Token             string
	ProviderMessageID string
	Err               error
	Revoked           bool
}

// PushDispatcher fans a notification out to every active device of a
// profile. Delivery is best-effort by design: the dispatcher never returns
// an error, it only reports outcomes.
type PushDispatcher struct {
	sender  provider.PushSender
	tokens  TokenSource
	revoker TokenRevoker
}

func NewPushDispatcher(sender provider.PushSender, tokens TokenSource, revoker TokenRevoker) *PushDispatcher {
	return &PushDispatcher{
		sender:  sender,
		tokens:  tokens,
		revoker: revoker,
	}
}

// Dispatch sends to every active token concurrently and waits for all
// outcomes. Tokens whose error signature marks them permanently dead are
// revoked on the spot.
func (d *PushDispatcher) Dispatch(ctx context.Context, profile *model.Profile, title, body string, data map[string]string) []PushOutcome {
	if !profile.PushEnabled {
		return nil
	}

	tokens, err := d.tokens.ListActive(ctx, profile.ID)
	if err != nil {
		logger.Error("failed to list push tokens", "profile_id", profile.ID, "error", err)
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}

	outcomes := make([]PushOutcome, len(tokens))
	var wg sync.WaitGroup
	wg.Add(len(tokens))

	for i, token := range tokens {
		go func(i int, token *model.PushToken) {
			defer wg.Done()
			outcomes[i] = d.sendOne(ctx, token, title, body, data)
		}(i, token)
	}
	wg.Wait()

	return outcomes
}

func (d *PushDispatcher) sendOne(ctx context.Context, token *model.PushToken, title, body string, data map[string]string) PushOutcome {
	outcome := PushOutcome{TokenID: token.ID, Token: token.Token}

	msgID, err := d.sender.Send(ctx, &provider.PushMessage{
		Token: token.Token,
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err == nil {
		outcome.ProviderMessageID = msgID
		return outcome
	}

	outcome.Err = err
	logger.Warn("push send failed", "token_id", token.ID, "profile_id", token.ProfileID, "error", err)

	if provider.IsTokenNotRegistered(err) {
		if revokeErr := d.revoker.RevokeToken(ctx, token.ID, "provider reported token not registered"); revokeErr != nil {
			logger.Error("failed to revoke dead token", "token_id", token.ID, "error", revokeErr)
		} else {
			outcome.Revoked = true
		}
	}

	return outcome
}
