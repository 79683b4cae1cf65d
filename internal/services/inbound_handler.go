package services

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"journeyinbox/internal/events"
	"journeyinbox/internal/mailparse"
	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
)

// ErrNoMessage is returned for an inbound event without a message payload.
var ErrNoMessage = errors.New("inbound event has no message")

// InboundResult describes the entry written for one reply.
type InboundResult struct {
	AccountID uint
	UserID    uint
	When      time.Time
	Body      string
}

// InboundHandler turns replies to prompts into journal entries.
type InboundHandler struct {
	resolver *Resolver
	entries  repository.EntryRepository
	marker   string
	log      zerolog.Logger
}

func NewInboundHandler(resolver *Resolver, entries repository.EntryRepository, quoteMarker string, log zerolog.Logger) *InboundHandler {
	return &InboundHandler{
		resolver: resolver,
		entries:  entries,
		marker:   quoteMarker,
		log:      log.With().Str("service", "InboundHandler").Logger(),
	}
}

// Process resolves the recipient, reads the prompt date from the subject,
// strips the quoted prompt and upserts the entry. Redelivering the same
// message rewrites the same entry.
func (h *InboundHandler) Process(ctx context.Context, msg *models.InboundMessage) (*InboundResult, error) {
	if msg == nil {
		return nil, ErrNoMessage
	}

	account, err := h.resolveRecipient(ctx, msg.To)
	if err != nil {
		return nil, err
	}

	when, err := mailparse.ParsePromptDate(msg.Subject)
	if err != nil {
		return nil, err
	}

	body := mailparse.StripQuote(msg.Text, h.marker)
	if err := h.entries.Upsert(ctx, account.UserID, when, body); err != nil {
		return nil, err
	}

	return &InboundResult{
		AccountID: account.ID,
		UserID:    account.UserID,
		When:      when,
		Body:      body,
	}, nil
}

// resolveRecipient tries each destination address in order and returns the
// first that resolves.
func (h *InboundHandler) resolveRecipient(ctx context.Context, to []string) (*models.Account, error) {
	lastErr := ErrResolutionFailure
	for _, addr := range to {
		local, err := mailparse.LocalPart(addr)
		if err != nil {
			continue
		}
		account, err := h.resolver.Resolve(ctx, local)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, ErrResolutionFailure) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Handle is the event bus entry point. Every failure is a logged drop.
func (h *InboundHandler) Handle(ctx context.Context, ev events.InboundReceived) {
	log := h.log.With().Str("event_id", ev.ID.String()).Str("provider", ev.Provider).Logger()

	result, err := h.Process(ctx, ev.Message)
	if err != nil {
		reason := dropReason(err)
		entry := log.Info()
		if reason == "storage_failure" {
			entry = log.Error()
			sentry.CaptureException(err)
		}
		if ev.Message != nil {
			entry = entry.Strs("to", ev.Message.To).Str("subject", ev.Message.Subject)
		}
		entry.Err(err).Str("reason", reason).Msg("Dropped inbound message")
		return
	}

	log.Info().
		Uint("account_id", result.AccountID).
		Str("when", result.When.Format(time.DateOnly)).
		Int("body_length", len(result.Body)).
		Msg("Recorded journal entry")
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrNoMessage):
		return "missing_message"
	case errors.Is(err, ErrResolutionFailure):
		return "unresolved_recipient"
	case errors.Is(err, mailparse.ErrParseFailure):
		return "unparseable_subject"
	case errors.Is(err, repository.ErrStorage):
		return "storage_failure"
	default:
		return "unknown"
	}
}
