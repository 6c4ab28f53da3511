package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSender returns a canned result per token.
type scriptedSender struct {
	mu      sync.Mutex
	results map[string]error
	msgIDs  map[string]string
	sent    []string
}

func (s *scriptedSender) Send(_ context.Context, msg *provider.PushMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg.Token)
	if err := s.results[msg.Token]; err != nil {
		return "", err
	}
	return s.msgIDs[msg.Token], nil
}

type recordingRevoker struct {
	mu      sync.Mutex
	revoked []int64
	err     error
}

func (r *recordingRevoker) RevokeToken(_ context.Context, tokenID int64, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.revoked = append(r.revoked, tokenID)
	return nil
}

type staticTokenSource struct {
	tokens []*model.PushToken
	err    error
}

func (s *staticTokenSource) ListActive(_ context.Context, _ int64) ([]*model.PushToken, error) {
	return s.tokens, s.err
}

func TestPushDispatcher_FanOut(t *testing.T) {
	sender := &scriptedSender{
		results: map[string]error{
			"tok-b": errors.New("internal server error"),
		},
		msgIDs: map[string]string{"tok-a": "pm-a", "tok-c": "pm-c"},
	}
	revoker := &recordingRevoker{}
	source := &staticTokenSource{tokens: []*model.PushToken{
		{ID: 1, ProfileID: 5, Token: "tok-a"},
		{ID: 2, ProfileID: 5, Token: "tok-b"},
		{ID: 3, ProfileID: 5, Token: "tok-c"},
	}}

	d := NewPushDispatcher(sender, source, revoker)
	profile := &model.Profile{ID: 5, PushEnabled: true}

	outcomes := d.Dispatch(context.Background(), profile, "title", "body", nil)
	require.Len(t, outcomes, 3)

	// Outcomes stay in token order regardless of goroutine scheduling.
	assert.Equal(t, int64(1), outcomes[0].TokenID)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, "pm-a", outcomes[0].ProviderMessageID)

	assert.Error(t, outcomes[1].Err)
	assert.False(t, outcomes[1].Revoked, "transient errors must not revoke")

	assert.NoError(t, outcomes[2].Err)
	assert.Empty(t, revoker.revoked)
}

func TestPushDispatcher_RevokesDeadToken(t *testing.T) {
	sender := &scriptedSender{
		results: map[string]error{
			"dead": errors.New("requested entity was not registered"),
		},
		msgIDs: map[string]string{"alive": "pm-1"},
	}
	revoker := &recordingRevoker{}
	source := &staticTokenSource{tokens: []*model.PushToken{
		{ID: 1, ProfileID: 5, Token: "alive"},
		{ID: 2, ProfileID: 5, Token: "dead"},
	}}

	d := NewPushDispatcher(sender, source, revoker)
	outcomes := d.Dispatch(context.Background(), &model.Profile{ID: 5, PushEnabled: true}, "t", "b", nil)

	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[1].Revoked)
	assert.Equal(t, []int64{2}, revoker.revoked)
}

func TestPushDispatcher_SkipsOptedOutProfile(t *testing.T) {
	sender := &scriptedSender{}
	source := &staticTokenSource{tokens: []*model.PushToken{{ID: 1, Token: "tok"}}}

	d := NewPushDispatcher(sender, source, &recordingRevoker{})
	outcomes := d.Dispatch(context.Background(), &model.Profile{ID: 5, PushEnabled: false}, "t", "b", nil)

	assert.Nil(t, outcomes)
	assert.Empty(t, sender.sent)
}

func TestPushDispatcher_NoTokens(t *testing.T) {
	d := NewPushDispatcher(&scriptedSender{}, &staticTokenSource{}, &recordingRevoker{})
	outcomes := d.Dispatch(context.Background(), &model.Profile{ID: 5, PushEnabled: true}, "t", "b", nil)
	assert.Nil(t, outcomes)
}

func TestPushDispatcher_TokenListFailure(t *testing.T) {
	source := &staticTokenSource{err: errors.New("db down")}
	d := NewPushDispatcher(&scriptedSender{}, source, &recordingRevoker{})

	outcomes := d.Dispatch(context.Background(), &model.Profile{ID: 5, PushEnabled: true}, "t", "b", nil)
	assert.Nil(t, outcomes)
}
