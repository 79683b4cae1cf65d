package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// OutboundMessage is everything the mail provider needs for one message.
type OutboundMessage struct {
	FromName    string
	FromAddress string
	ReplyTo     string
	To          string
	Subject     string
	Text        string
	HTML        string
	// Metadata travels with the message and comes back on provider events.
	Metadata map[string]string
}

// EmailGateway sends a message and returns the provider's message id,
// which may be empty.
type EmailGateway interface {
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}

type EmailService struct {
	client *sendgrid.Client
	log    zerolog.Logger
}

func NewEmailService(apiKey string, log zerolog.Logger) *EmailService {
	return &EmailService{
		client: sendgrid.NewSendClient(apiKey),
		log:    log.With().Str("service", "EmailService").Logger(),
	}
}

func (s *EmailService) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	from := mail.NewEmail(msg.FromName, msg.FromAddress)
	to := mail.NewEmail("", msg.To)

	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail(msg.FromName, msg.ReplyTo))
	}
	for k, v := range msg.Metadata {
		message.SetCustomArg(k, v)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return "", fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	if response.StatusCode >= 400 {
		return "", fmt.Errorf("failed to send email to %s: %d %s", msg.To, response.StatusCode, response.Body)
	}

	var messageID string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	s.log.Debug().Str("to", msg.To).Str("message_id", messageID).Msg("Email accepted by provider")
	return messageID, nil
}
