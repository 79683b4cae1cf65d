package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
)

func TestDispatchSendsOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, "writer@example.com", models.StatusTrialing, true)
	d := f.dispatcher()
	today := date("2023-11-15")

	first := d.Dispatch(ctx, today)
	if first.Sent != 1 || first.Skipped != 0 || len(first.Failed) != 0 {
		t.Fatalf("first run = %+v, want one sent", first)
	}
	second := d.Dispatch(ctx, today.Add(3*time.Hour))
	if second.Sent != 0 || second.Skipped != 1 {
		t.Fatalf("second run = %+v, want one skipped", second)
	}
	if len(f.gateway.sent) != 1 {
		t.Fatalf("messages sent = %d, want 1", len(f.gateway.sent))
	}

	msg := f.gateway.sent[0]
	address := "journal." + f.token(t, account) + "@email.journeyinbox.com"
	if msg.FromAddress != address || msg.ReplyTo != address {
		t.Errorf("from/reply-to = %q/%q, want %q", msg.FromAddress, msg.ReplyTo, address)
	}
	if msg.To != "writer@example.com" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.Subject != "It's Wednesday, Nov. 15, 2023. How are you?" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.Metadata["entry_date"] != "2023-11-15" {
		t.Errorf("Metadata = %v, want entry_date", msg.Metadata)
	}
	if !strings.Contains(msg.Text, "You have no entries yet.") {
		t.Errorf("Text = %q, want no-entries message", msg.Text)
	}

	exists, err := f.prompts.Exists(ctx, account.UserID, today)
	if err != nil || !exists {
		t.Fatalf("ledger row for today = %v, %v", exists, err)
	}
}

func TestDispatchSkipsIneligibleAccounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.account(t, "unverified@example.com", models.StatusTrialing, false)
	f.account(t, "canceled@example.com", models.StatusCanceled, true)
	f.account(t, "expired@example.com", models.StatusTrialExpired, true)
	f.account(t, "exempt@example.com", models.StatusExempt, true)

	report := f.dispatcher().Dispatch(ctx, date("2023-11-15"))
	if report.Sent != 1 || len(f.gateway.sent) != 1 || f.gateway.sent[0].To != "exempt@example.com" {
		t.Fatalf("report = %+v, sent = %+v, want only exempt", report, f.gateway.sent)
	}
}

func TestDispatchIsolatesSendFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	broken := f.account(t, "broken@example.com", models.StatusActive, true)
	f.account(t, "fine@example.com", models.StatusActive, true)
	f.gateway.failFor["broken@example.com"] = errSend
	today := date("2023-11-15")

	report := f.dispatcher().Dispatch(ctx, today)
	if report.Sent != 1 || len(report.Failed) != 1 {
		t.Fatalf("report = %+v, want one sent and one failed", report)
	}
	if !errors.Is(report.Failed[broken.ID], errSend) {
		t.Fatalf("Failed[%d] = %v, want errSend", broken.ID, report.Failed[broken.ID])
	}
	if report.Err() == nil {
		t.Fatal("Err() should report the failure")
	}

	// Nothing was recorded for the failed send, so the next run retries it.
	if exists, _ := f.prompts.Exists(ctx, broken.UserID, today); exists {
		t.Fatal("ledger row written for a failed send")
	}
	delete(f.gateway.failFor, "broken@example.com")
	retry := f.dispatcher().Dispatch(ctx, today)
	if retry.Sent != 1 || retry.Skipped != 1 {
		t.Fatalf("retry = %+v, want one sent and one skipped", retry)
	}
}

func TestDispatchIncludesRandomEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.account(t, "writer@example.com", models.StatusActive, true)
	if err := f.entries.Upsert(ctx, account.UserID, date("2023-11-12"), "Walked the dog."); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	f.dispatcher().Dispatch(ctx, date("2023-11-15"))
	if len(f.gateway.sent) != 1 {
		t.Fatalf("messages sent = %d, want 1", len(f.gateway.sent))
	}
	want := "Reply to this prompt to update your journal.\n\n" +
		"On your journey on Sunday, Nov. 12, 2023 (3 days ago), you wrote:\n\n" +
		"Walked the dog."
	if got := f.gateway.sent[0].Text; got != want {
		t.Fatalf("Text = %q, want %q", got, want)
	}
	if !strings.Contains(f.gateway.sent[0].HTML, "<p>Walked the dog.</p>") {
		t.Fatalf("HTML = %q", f.gateway.sent[0].HTML)
	}
}

type failingLedger struct {
	repository.PromptRepository
	calls int
}

func (l *failingLedger) Record(context.Context, uint, time.Time, string) error {
	l.calls++
	return repository.ErrStorage
}

func TestDispatchRetriesAndAlertsLedgerFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.account(t, "writer@example.com", models.StatusActive, true)
	ledger := &failingLedger{PromptRepository: f.prompts}

	d := f.dispatcher()
	d.prompts = ledger
	var alerted []error
	d.alert = func(err error) { alerted = append(alerted, err) }

	report := d.Dispatch(ctx, date("2023-11-15"))
	if report.Sent != 1 || report.LedgerErrors != 1 || len(report.Failed) != 0 {
		t.Fatalf("report = %+v, want one sent with a ledger error", report)
	}
	if ledger.calls != 3 {
		t.Fatalf("Record called %d times, want 3", ledger.calls)
	}
	if len(alerted) != 1 || !errors.Is(alerted[0], repository.ErrStorage) {
		t.Fatalf("alerts = %v, want one storage alert", alerted)
	}
}

type failingAccountList struct {
	repository.AccountRepository
}

func (failingAccountList) List(context.Context, models.Eligibility) ([]models.Account, error) {
	return nil, repository.ErrStorage
}

func TestDispatchReportsListFailure(t *testing.T) {
	f := newFixture(t)
	d := f.dispatcher()
	d.accounts = failingAccountList{AccountRepository: f.accounts}

	report := d.Dispatch(context.Background(), date("2023-11-15"))
	if !errors.Is(report.ListErr, repository.ErrStorage) {
		t.Fatalf("ListErr = %v, want storage error", report.ListErr)
	}
	if len(report.Failed) != 0 || report.Sent != 0 {
		t.Fatalf("report = %+v, want no per-account results", report)
	}
	if err := report.Err(); !errors.Is(err, repository.ErrStorage) {
		t.Fatalf("Err() = %v, want storage error", err)
	}
}
