package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"journeyinbox/internal/hashid"
	"journeyinbox/internal/mailparse"
	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
)

// PromptSettings controls how prompts are addressed.
type PromptSettings struct {
	SenderName    string
	ReplyPrefix   string
	SendingDomain string
}

// DispatchReport summarizes one dispatch run.
type DispatchReport struct {
	Date    time.Time
	Sent    int
	Skipped int
	// Failed maps account id to the reason that account got no prompt.
	Failed map[uint]error
	// LedgerErrors counts prompts that were sent but could not be recorded.
	LedgerErrors int
	// ListErr is set when the promptable accounts could not be loaded.
	ListErr error
}

// Err joins the listing and per-account failures, or returns nil.
func (r *DispatchReport) Err() error {
	var errs []error
	if r.ListErr != nil {
		errs = append(errs, fmt.Errorf("list accounts: %w", r.ListErr))
	}
	for id, err := range r.Failed {
		errs = append(errs, fmt.Errorf("account %d: %w", id, err))
	}
	return errors.Join(errs...)
}

// PromptDispatcher sends each promptable account one prompt per day.
type PromptDispatcher struct {
	accounts repository.AccountRepository
	entries  repository.EntryRepository
	prompts  repository.PromptRepository
	gateway  EmailGateway
	ids      hashid.Encoder
	settings PromptSettings
	log      zerolog.Logger

	ledgerAttempts int
	ledgerBackoff  time.Duration
	alert          func(error)
}

func NewPromptDispatcher(
	accounts repository.AccountRepository,
	entries repository.EntryRepository,
	prompts repository.PromptRepository,
	gateway EmailGateway,
	ids hashid.Encoder,
	settings PromptSettings,
	log zerolog.Logger,
) *PromptDispatcher {
	return &PromptDispatcher{
		accounts:       accounts,
		entries:        entries,
		prompts:        prompts,
		gateway:        gateway,
		ids:            ids,
		settings:       settings,
		log:            log.With().Str("service", "PromptDispatcher").Logger(),
		ledgerAttempts: 3,
		ledgerBackoff:  500 * time.Millisecond,
		alert:          func(err error) { sentry.CaptureException(err) },
	}
}

// Dispatch sends today's prompt to every promptable account that has not
// had it yet. A failure for one account never stops the others.
func (d *PromptDispatcher) Dispatch(ctx context.Context, today time.Time) *DispatchReport {
	today = models.DateOf(today)
	report := &DispatchReport{Date: today, Failed: map[uint]error{}}
	log := d.log.With().Str("date", today.Format(time.DateOnly)).Logger()

	accounts, err := d.accounts.List(ctx, models.PromptableAccounts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list promptable accounts")
		report.ListErr = err
		return report
	}

	for _, account := range accounts {
		sent, err := d.dispatchOne(ctx, account, today)
		switch {
		case errors.Is(err, errLedgerWrite):
			report.Sent++
			report.LedgerErrors++
		case err != nil:
			report.Failed[account.ID] = err
			log.Error().Err(err).Uint("account_id", account.ID).Msg("Failed to send prompt")
		case sent:
			report.Sent++
		default:
			report.Skipped++
		}
	}

	log.Info().
		Int("accounts", len(accounts)).
		Int("sent", report.Sent).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Int("ledger_errors", report.LedgerErrors).
		Msg("Prompt dispatch finished")
	return report
}

var errLedgerWrite = errors.New("prompt sent but not recorded")

func (d *PromptDispatcher) dispatchOne(ctx context.Context, account models.Account, today time.Time) (bool, error) {
	if account.User == nil {
		return false, fmt.Errorf("account %d has no user loaded", account.ID)
	}

	exists, err := d.prompts.Exists(ctx, account.UserID, today)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	entry, err := d.entries.Random(ctx, account.UserID)
	if err != nil {
		return false, err
	}
	text, html, err := RenderPrompt(entry, today)
	if err != nil {
		return false, err
	}

	token, err := d.ids.Encode(account.ID)
	if err != nil {
		return false, err
	}
	address := mailparse.ReplyAddress(d.settings.ReplyPrefix, token, d.settings.SendingDomain)

	messageID, err := d.gateway.Send(ctx, OutboundMessage{
		FromName:    d.settings.SenderName,
		FromAddress: address,
		ReplyTo:     address,
		To:          account.User.Email,
		Subject:     PromptSubject(today),
		Text:        text,
		HTML:        html,
		Metadata:    map[string]string{"entry_date": today.Format(time.DateOnly)},
	})
	if err != nil {
		return false, err
	}

	if err := d.record(ctx, account, today, messageID); err != nil {
		return true, err
	}
	return true, nil
}

// record writes the ledger row for a prompt that was already sent, retrying
// a few times. A lost row means a duplicate prompt on the next run, so the
// final failure is alerted.
func (d *PromptDispatcher) record(ctx context.Context, account models.Account, today time.Time, messageID string) error {
	var err error
retry:
	for attempt := 1; attempt <= d.ledgerAttempts; attempt++ {
		if err = d.prompts.Record(ctx, account.UserID, today, messageID); err == nil {
			return nil
		}
		d.log.Warn().Err(err).Uint("account_id", account.ID).Int("attempt", attempt).Msg("Failed to record sent prompt")
		if attempt < d.ledgerAttempts {
			select {
			case <-ctx.Done():
				break retry
			case <-time.After(d.ledgerBackoff * time.Duration(attempt)):
			}
		}
	}

	err = fmt.Errorf("%w for account %d on %s: %w", errLedgerWrite, account.ID, today.Format(time.DateOnly), err)
	d.alert(err)
	return err
}
