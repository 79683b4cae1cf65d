package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"journeyinbox/internal/events"
	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
)

// ErrSignupsClosed is returned when the trial cap has been reached.
var ErrSignupsClosed = errors.New("trial signups are currently closed")

type AccountService struct {
	users       repository.UserRepository
	accounts    repository.AccountRepository
	entries     repository.EntryRepository
	maxTrialing int
	log         zerolog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	entries repository.EntryRepository,
	maxTrialing int,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:       users,
		accounts:    accounts,
		entries:     entries,
		maxTrialing: maxTrialing,
		log:         log.With().Str("service", "AccountService").Logger(),
	}
}

// Signup creates a user with a trialing account unless the trial cap is full.
func (s *AccountService) Signup(ctx context.Context, email string) (*models.User, error) {
	if s.maxTrialing > 0 {
		n, err := s.accounts.CountByStatus(ctx, models.StatusTrialing)
		if err != nil {
			return nil, err
		}
		if n >= int64(s.maxTrialing) {
			s.log.Warn().Int64("trialing", n).Msg("Signup refused, trial cap reached")
			return nil, ErrSignupsClosed
		}
	}

	user, err := s.users.Create(ctx, email)
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("user_id", user.ID).Msg("User signed up")
	return user, nil
}

// HandleLogin marks the user's account verified. The first successful login
// proves the address is theirs.
func (s *AccountService) HandleLogin(ctx context.Context, ev events.UserLoggedIn) {
	if err := s.accounts.MarkVerified(ctx, ev.UserID); err != nil {
		s.log.Error().Err(err).Uint("user_id", ev.UserID).Msg("Failed to mark account verified")
		return
	}
	s.log.Debug().Uint("user_id", ev.UserID).Msg("Account verified on login")
}

// Export returns all of a user's entries ordered by date.
func (s *AccountService) Export(ctx context.Context, userID uint) ([]models.ExportedEntry, error) {
	entries, err := s.entries.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ExportedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.ExportedEntry{
			When: e.Day().Format(time.DateOnly),
			Body: e.Body,
		})
	}
	return out, nil
}

// Account returns the account owned by userID, or nil.
func (s *AccountService) Account(ctx context.Context, userID uint) (*models.Account, error) {
	return s.accounts.GetByUserID(ctx, userID)
}
