package services

import (
	"context"
	"errors"
	"fmt"

	"journeyinbox/internal/hashid"
	"journeyinbox/internal/mailparse"
	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
)

// ErrResolutionFailure means an address does not name an account that may
// record entries.
var ErrResolutionFailure = errors.New("recipient does not resolve to an eligible account")

// Resolver maps the local-part of a reply address, "<prefix>.<hashid>",
// back to its account.
type Resolver struct {
	accounts    repository.AccountRepository
	ids         hashid.Encoder
	eligibility models.Eligibility
}

func NewResolver(accounts repository.AccountRepository, ids hashid.Encoder) *Resolver {
	return &Resolver{
		accounts:    accounts,
		ids:         ids,
		eligibility: models.ActiveAccounts,
	}
}

// Resolve returns ErrResolutionFailure for a local-part without a separator,
// a token that does not decode, an unknown account or an ineligible one.
// Storage errors are returned as they are.
func (r *Resolver) Resolve(ctx context.Context, localPart string) (*models.Account, error) {
	_, token, ok := mailparse.SplitLocalPart(localPart)
	if !ok {
		return nil, fmt.Errorf("%w: no separator in %q", ErrResolutionFailure, localPart)
	}
	id, err := r.ids.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrResolutionFailure, token, err)
	}

	account, err := r.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: no account %d", ErrResolutionFailure, id)
	}
	if !r.eligibility.Matches(*account) {
		return nil, fmt.Errorf("%w: account %d is %s", ErrResolutionFailure, id, account.Status)
	}
	return account, nil
}
