package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"journeyinbox/internal/database"
	"journeyinbox/internal/hashid"
	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
)

type fakeGateway struct {
	mu      sync.Mutex
	sent    []OutboundMessage
	failFor map[string]error
	nextID  int
}

func (g *fakeGateway) Send(_ context.Context, msg OutboundMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failFor[msg.To]; err != nil {
		return "", err
	}
	g.sent = append(g.sent, msg)
	g.nextID++
	return fmt.Sprintf("msg-%d", g.nextID), nil
}

type fixture struct {
	users    repository.UserRepository
	accounts repository.AccountRepository
	entries  repository.EntryRepository
	prompts  repository.PromptRepository
	ids      hashid.Encoder
	gateway  *fakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	ids, err := hashid.New("test-salt", 7)
	if err != nil {
		t.Fatalf("hashid.New() error = %v", err)
	}
	return &fixture{
		users:    repository.NewUserRepo(db),
		accounts: repository.NewAccountRepo(db),
		entries:  repository.NewEntryRepo(db),
		prompts:  repository.NewPromptRepo(db),
		ids:      ids,
		gateway:  &fakeGateway{failFor: map[string]error{}},
	}
}

// account creates a user whose account has the given status and flag.
func (f *fixture) account(t *testing.T, email string, status models.AccountStatus, verified bool) *models.Account {
	t.Helper()
	ctx := context.Background()
	user, err := f.users.Create(ctx, email)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", email, err)
	}
	account, err := f.accounts.GetByUserID(ctx, user.ID)
	if err != nil || account == nil {
		t.Fatalf("GetByUserID() = %v, %v", account, err)
	}
	if err := f.accounts.UpdateStatus(ctx, account.ID, status); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if verified {
		if err := f.accounts.MarkVerified(ctx, user.ID); err != nil {
			t.Fatalf("MarkVerified() error = %v", err)
		}
	}
	account, _ = f.accounts.GetByID(ctx, account.ID)
	return account
}

func (f *fixture) token(t *testing.T, account *models.Account) string {
	t.Helper()
	token, err := f.ids.Encode(account.ID)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return token
}

func (f *fixture) dispatcher() *PromptDispatcher {
	d := NewPromptDispatcher(f.accounts, f.entries, f.prompts, f.gateway, f.ids, PromptSettings{
		SenderName:    "JourneyInbox Journal",
		ReplyPrefix:   "journal",
		SendingDomain: "email.journeyinbox.com",
	}, zerolog.Nop())
	d.ledgerBackoff = 0
	d.alert = func(error) {}
	return d
}

func (f *fixture) inboundHandler() *InboundHandler {
	return NewInboundHandler(NewResolver(f.accounts, f.ids), f.entries, "JourneyInbox", zerolog.Nop())
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

var errSend = errors.New("provider unavailable")
