package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"journeyinbox/internal/models"
)

func TestStatusFromStripe(t *testing.T) {
	tests := []struct {
		in     stripe.SubscriptionStatus
		want   models.AccountStatus
		wantOK bool
	}{
		{stripe.SubscriptionStatusTrialing, models.StatusTrialing, true},
		{stripe.SubscriptionStatusActive, models.StatusActive, true},
		{stripe.SubscriptionStatusPastDue, models.StatusActive, true},
		{stripe.SubscriptionStatusCanceled, models.StatusCanceled, true},
		{stripe.SubscriptionStatusUnpaid, models.StatusCanceled, true},
		{stripe.SubscriptionStatusIncompleteExpired, models.StatusCanceled, true},
		{stripe.SubscriptionStatusIncomplete, 0, false},
	}
	for _, tt := range tests {
		got, ok := StatusFromStripe(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("StatusFromStripe(%s) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func subscriptionEvent(t *testing.T, eventType stripe.EventType, status, customer string, metadata map[string]string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":       "sub_123",
		"object":   "subscription",
		"status":   status,
		"customer": customer,
		"metadata": metadata,
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return stripe.Event{ID: "evt_1", Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func TestHandleSubscriptionEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	billing := NewBillingService(f.accounts, f.ids, "whsec_test", zerolog.Nop())
	account := f.account(t, "payer@example.com", models.StatusTrialing, true)

	// First event finds the account through metadata and stores the customer.
	ev := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionCreated, "active", "cus_1", map[string]string{"account_id": f.token(t, account)})
	if err := billing.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("HandleEvent(created) error = %v", err)
	}
	got, _ := f.accounts.GetByID(ctx, account.ID)
	if got.Status != models.StatusActive || got.StripeCustomerID != "cus_1" {
		t.Fatalf("account = %+v, want active with customer", got)
	}

	// Later events only carry the customer.
	ev = subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionDeleted, "active", "cus_1", nil)
	if err := billing.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("HandleEvent(deleted) error = %v", err)
	}
	got, _ = f.accounts.GetByID(ctx, account.ID)
	if got.Status != models.StatusCanceled {
		t.Fatalf("Status = %s, want canceled", got.Status)
	}
}

func TestHandleEventLeavesExemptAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	billing := NewBillingService(f.accounts, f.ids, "whsec_test", zerolog.Nop())
	account := f.account(t, "friend@example.com", models.StatusExempt, true)

	ev := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, "canceled", "cus_2", map[string]string{"account_id": f.token(t, account)})
	if err := billing.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	got, _ := f.accounts.GetByID(ctx, account.ID)
	if got.Status != models.StatusExempt {
		t.Fatalf("Status = %s, want exempt", got.Status)
	}
}

func TestHandleEventIgnoresUnknown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	billing := NewBillingService(f.accounts, f.ids, "whsec_test", zerolog.Nop())

	unknownCustomer := subscriptionEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, "active", "cus_missing", nil)
	if err := billing.HandleEvent(ctx, unknownCustomer); err != nil {
		t.Fatalf("HandleEvent(unknown customer) error = %v", err)
	}
	other := stripe.Event{ID: "evt_2", Type: stripe.EventTypeInvoicePaid, Data: &stripe.EventData{Raw: []byte(`{}`)}}
	if err := billing.HandleEvent(ctx, other); err != nil {
		t.Fatalf("HandleEvent(invoice.paid) error = %v", err)
	}
}
