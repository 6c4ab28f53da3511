package provider

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

type FCMConfig struct {
	CredentialsPath string
	ProjectID       string
}

// FCMSender delivers push notifications through Firebase Cloud Messaging.
// It implements both PushSender and TokenValidator.
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, cfg FCMConfig) (*FCMSender, error) {
	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opt)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "creating messaging client")
	}

	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, msg *PushMessage) (string, error) {
	return s.client.Send(ctx, s.build(msg))
}

// SendDryRun validates a token against FCM without delivering anything.
func (s *FCMSender) SendDryRun(ctx context.Context, token string) error {
	_, err := s.client.SendDryRun(ctx, &messaging.Message{Token: token})
	return err
}

func (s *FCMSender) build(msg *PushMessage) *messaging.Message {
	return &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
