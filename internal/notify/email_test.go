package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySender fails the first n attempts, then succeeds.
type flakySender struct {
	failures int
	calls    int
	last     *provider.EmailMessage
}

func (s *flakySender) Send(_ context.Context, msg *provider.EmailMessage) error {
	s.calls++
	s.last = msg
	if s.calls <= s.failures {
		return errors.New("smtp timeout")
	}
	return nil
}

type failingRenderer struct{}

func (failingRenderer) Render(templateID string, _ map[string]string) (string, string, error) {
	return "", "", errors.New("template corrupt")
}

func newTestEmailDispatcher(sender provider.EmailSender) (*EmailDispatcher, *[]time.Duration) {
	d := NewEmailDispatcher(sender, StaticRenderer{}, "noreply@mealdash.example")
	var slept []time.Duration
	d.sleep = func(dur time.Duration) { slept = append(slept, dur) }
	return d, &slept
}

func optedInProfile() *model.Profile {
	return &model.Profile{ID: 1, Email: "jo@example.com", DeliveryEmailEnabled: true}
}

func TestEmailDispatcher_SendSuccess(t *testing.T) {
	sender := &flakySender{}
	d, slept := newTestEmailDispatcher(sender)

	err := d.Send(context.Background(), optedInProfile(), model.EventArrived, map[string]string{"order_number": "MD-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, sender.calls)
	assert.Empty(t, *slept)
	assert.Equal(t, "jo@example.com", sender.last.To)
	assert.Contains(t, sender.last.Subject, "MD-1")
}

func TestEmailDispatcher_RetriesThenSucceeds(t *testing.T) {
	sender := &flakySender{failures: 2}
	d, slept := newTestEmailDispatcher(sender)

	err := d.Send(context.Background(), optedInProfile(), model.EventCompleted, map[string]string{"order_number": "MD-2"})
	require.NoError(t, err)
	assert.Equal(t, 3, sender.calls, "two transient failures then success means exactly three attempts")
	assert.Equal(t, []time.Duration{DefaultEmailBaseDelay, 2 * DefaultEmailBaseDelay}, *slept, "backoff grows with the attempt number")
}

func TestEmailDispatcher_ExhaustsRetries(t *testing.T) {
	sender := &flakySender{failures: 10}
	d, _ := newTestEmailDispatcher(sender)

	err := d.Send(context.Background(), optedInProfile(), model.EventFailed, nil)
	require.Error(t, err)

	var provErr *EmailProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, DefaultEmailAttempts, provErr.Attempts)
	assert.Equal(t, DefaultEmailAttempts, sender.calls)
}

func TestEmailDispatcher_OptedOutIsSilentNoop(t *testing.T) {
	sender := &flakySender{}
	d, _ := newTestEmailDispatcher(sender)

	profile := &model.Profile{ID: 1, Email: "jo@example.com", DeliveryEmailEnabled: false}
	require.NoError(t, d.Send(context.Background(), profile, model.EventArrived, nil))
	assert.Zero(t, sender.calls)
}

func TestEmailDispatcher_MissingAddress(t *testing.T) {
	sender := &flakySender{}
	d, _ := newTestEmailDispatcher(sender)

	profile := &model.Profile{ID: 1, Email: "", DeliveryEmailEnabled: true}
	err := d.Send(context.Background(), profile, model.EventArrived, nil)

	var prefErr *PreferenceError
	require.True(t, errors.As(err, &prefErr))
	assert.Zero(t, sender.calls)
}

func TestEmailDispatcher_RenderFailureSkipsRetries(t *testing.T) {
	sender := &flakySender{}
	d := NewEmailDispatcher(sender, failingRenderer{}, "noreply@mealdash.example")
	d.sleep = func(time.Duration) {}

	err := d.Send(context.Background(), optedInProfile(), model.EventArrived, nil)

	var renderErr *TemplateRenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, EmailTemplateID(model.EventArrived), renderErr.TemplateID)
	assert.Zero(t, sender.calls, "a broken template must not consume provider attempts")
}
