package notify

import (
	"context"
	"time"

	"github.com/mealdash/notification-gateway/internal/model"
	"github.com/mealdash/notification-gateway/internal/provider"
	"github.com/mealdash/notification-gateway/pkg/logger"
)

const (
	DefaultEmailAttempts  = 3
	DefaultEmailBaseDelay = 500 * time.Millisecond
	emailAttemptTimeout   = 10 * time.Second
)

// EmailDispatcher sends delivery-status email to a single recipient with a
// bounded, sequential retry loop. Unlike push, this path surfaces failures:
// the caller gets PreferenceError, TemplateRenderError or EmailProviderError.
type EmailDispatcher struct {
	sender      provider.EmailSender
	renderer    Renderer
	from        string
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(time.Duration)
}

func NewEmailDispatcher(sender provider.EmailSender, renderer Renderer, from string) *EmailDispatcher {
	return &EmailDispatcher{
		sender:      sender,
		renderer:    renderer,
		from:        from,
		maxAttempts: DefaultEmailAttempts,
		baseDelay:   DefaultEmailBaseDelay,
		sleep:       time.Sleep,
	}
}

// NewEmailDispatcherWithPolicy overrides the retry policy. Zero values keep
// the defaults.
func NewEmailDispatcherWithPolicy(sender provider.EmailSender, renderer Renderer, from string, maxAttempts int, baseDelay time.Duration) *EmailDispatcher {
	d := NewEmailDispatcher(sender, renderer, from)
	if maxAttempts > 0 {
		d.maxAttempts = maxAttempts
	}
	if baseDelay > 0 {
		d.baseDelay = baseDelay
	}
	return d
}

// Send renders and delivers the delivery-status email for an event. A
// recipient who opted out is a silent, successful no-op; a recipient who
// opted in but has no usable address is a PreferenceError.
func (d *EmailDispatcher) Send(ctx context.Context, profile *model.Profile, event model.DeliveryEvent, vars map[string]string) error {
	if !profile.DeliveryEmailEnabled {
		return nil
	}
	if profile.Email == "" {
		return &PreferenceError{Reason: "profile has no email address"}
	}

	templateID := EmailTemplateID(event)
	html, text, err := d.renderer.Render(templateID, vars)
	if err != nil {
		// A broken template is a code bug; retrying cannot fix it.
		return &TemplateRenderError{TemplateID: templateID, Err: err}
	}

	msg := &provider.EmailMessage{
		To:      profile.Email,
		From:    d.from,
		Subject: EmailSubject(event, vars),
		HTML:    html,
		Text:    text,
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if attempt > 1 {
			d.sleep(d.baseDelay * time.Duration(attempt-1))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, emailAttemptTimeout)
		err := d.sender.Send(attemptCtx, msg)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("email send attempt failed", "to", profile.Email, "attempt", attempt, "max_attempts", d.maxAttempts, "error", err)
	}

	return &EmailProviderError{Attempts: d.maxAttempts, Err: lastErr}
}
