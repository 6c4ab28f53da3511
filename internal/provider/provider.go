package provider

import (
	"context"
	"errors"
	"strings"

	"firebase.google.com/go/v4/messaging"
)

var (
	// ErrUnavailable is returned when a provider is not configured. Token
	// validation treats it as "cannot check", never as "invalid".
	ErrUnavailable = errors.New("push provider unavailable")
)

// PushMessage is the payload handed to a push provider. Data travels opaque
// to the client; the dispatcher puts the correlation id in here so click
// callbacks can be attributed.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// PushSender is the narrow capability the dispatcher depends on. It returns
// the provider's message id on success.
type PushSender interface {
	Send(ctx context.Context, msg *PushMessage) (string, error)
}

// TokenValidator performs a dry-run send that exercises the provider's token
// checks without delivering anything.
type TokenValidator interface {
	SendDryRun(ctx context.Context, token string) error
}

// EmailMessage mirrors the transactional email provider contract.
type EmailMessage struct {
	To      string
	From    string
	Subject string
	HTML    string
	Text    string
}

type EmailSender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// tokenGoneMarkers is the provider error-text family that means the token is
// permanently dead. Anything outside this family is inconclusive; treating it
// as invalid would revoke live tokens on transient provider errors.
var tokenGoneMarkers = []string{
	"registration-token-not-registered",
	"not registered",
	"unregistered",
	"invalid registration",
	"invalid token",
}

// IsTokenNotRegistered classifies a push send error as the permanent
// "token no longer valid" class that warrants immediate revocation.
func IsTokenNotRegistered(err error) bool {
	if err == nil {
		return false
	}
	if messaging.IsRegistrationTokenNotRegistered(err) {
		return true
	}
	text := strings.ToLower(err.Error())
	for _, marker := range tokenGoneMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
