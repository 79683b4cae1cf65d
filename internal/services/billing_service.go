package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"journeyinbox/internal/hashid"
	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
)

// BillingService keeps account status in step with Stripe subscriptions.
type BillingService struct {
	accounts      repository.AccountRepository
	ids           hashid.Encoder
	webhookSecret string
	log           zerolog.Logger
}

func NewBillingService(accounts repository.AccountRepository, ids hashid.Encoder, webhookSecret string, log zerolog.Logger) *BillingService {
	return &BillingService{
		accounts:      accounts,
		ids:           ids,
		webhookSecret: webhookSecret,
		log:           log.With().Str("service", "BillingService").Logger(),
	}
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
func (s *BillingService) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// StatusFromStripe maps a subscription status onto an account status.
// The second result is false for statuses that leave the account alone.
func StatusFromStripe(status stripe.SubscriptionStatus) (models.AccountStatus, bool) {
	switch status {
	case stripe.SubscriptionStatusTrialing:
		return models.StatusTrialing, true
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusPastDue:
		return models.StatusActive, true
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncompleteExpired:
		return models.StatusCanceled, true
	default:
		return 0, false
	}
}

// HandleEvent applies subscription lifecycle events. Other event types and
// events for unknown accounts are ignored.
func (s *BillingService) HandleEvent(ctx context.Context, event stripe.Event) error {
	log := s.log.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
	default:
		log.Debug().Msg("Ignoring Stripe event")
		return nil
	}

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("invalid subscription payload: %w", err)
	}
	var customerID string
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	account, err := s.findAccount(ctx, sub.Metadata["account_id"], customerID)
	if err != nil {
		return err
	}
	if account == nil {
		log.Warn().Str("customer_id", customerID).Msg("No account for Stripe subscription")
		return nil
	}
	if account.Status == models.StatusExempt {
		log.Info().Uint("account_id", account.ID).Msg("Account is exempt, ignoring subscription change")
		return nil
	}

	status, ok := StatusFromStripe(sub.Status)
	if event.Type == stripe.EventTypeCustomerSubscriptionDeleted {
		status, ok = models.StatusCanceled, true
	}
	if !ok {
		log.Debug().Str("subscription_status", string(sub.Status)).Msg("Subscription status leaves account unchanged")
		return nil
	}

	if account.Status != status {
		if err := s.accounts.UpdateStatus(ctx, account.ID, status); err != nil {
			return err
		}
	}
	if customerID != "" && account.StripeCustomerID != customerID {
		if err := s.accounts.SetStripeCustomer(ctx, account.ID, customerID); err != nil {
			return err
		}
	}

	log.Info().
		Uint("account_id", account.ID).
		Str("from", account.Status.String()).
		Str("to", status.String()).
		Msg("Account status synced from Stripe")
	return nil
}

// findAccount prefers the account id the checkout put in the subscription
// metadata and falls back to the stored customer id.
func (s *BillingService) findAccount(ctx context.Context, token, customerID string) (*models.Account, error) {
	if token != "" {
		if id, err := s.ids.Decode(token); err == nil {
			account, err := s.accounts.GetByID(ctx, id)
			if err != nil || account != nil {
				return account, err
			}
		}
	}
	return s.accounts.FindByStripeCustomer(ctx, customerID)
}
