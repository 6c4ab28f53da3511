package notify

import "fmt"

// PreferenceError means the recipient cannot be contacted with the data we
// have (typically a missing email address). Not retryable; the caller owns
// the data problem.
type PreferenceError struct {
	Reason string
}

func (e *PreferenceError) Error() string {
	return "notification preference: " + e.Reason
}

// TemplateRenderError means a message template failed to render. This is a
// content or code bug, never a transient fault, so it is raised immediately
// without retrying.
type TemplateRenderError struct {
	TemplateID string
	Err        error
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("render template %s: %v", e.TemplateID, e.Err)
}

func (e *TemplateRenderError) Unwrap() error { return e.Err }

// EmailProviderError means the email transport failed on every attempt. It
// carries the last underlying failure; retryable by a human or cron, not
// automatically.
type EmailProviderError struct {
	Attempts int
	Err      error
}

func (e *EmailProviderError) Error() string {
	return fmt.Sprintf("email provider failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *EmailProviderError) Unwrap() error { return e.Err }
