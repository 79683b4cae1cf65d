package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"journeyinbox/internal/auth"
	"journeyinbox/internal/models"
	"journeyinbox/internal/repository"
)

// LoginService mails magic login links and redeems them.
type LoginService struct {
	users   repository.UserRepository
	tokens  *auth.TokenIssuer
	gateway EmailGateway
	siteURL string
	from    string
	name    string
	log     zerolog.Logger
}

func NewLoginService(
	users repository.UserRepository,
	tokens *auth.TokenIssuer,
	gateway EmailGateway,
	siteURL, fromAddress, fromName string,
	log zerolog.Logger,
) *LoginService {
	return &LoginService{
		users:   users,
		tokens:  tokens,
		gateway: gateway,
		siteURL: strings.TrimRight(siteURL, "/"),
		from:    fromAddress,
		name:    fromName,
		log:     log.With().Str("service", "LoginService").Logger(),
	}
}

// SendLink mails a login link to email. Unknown addresses get nothing and
// no error, so the endpoint does not reveal who has an account.
func (s *LoginService) SendLink(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		s.log.Debug().Msg("Login link requested for unknown address")
		return nil
	}

	// A new link replaces any earlier one that was not used.
	nonce := uuid.NewString()
	if err := s.users.SetLoginNonce(ctx, user.ID, nonce); err != nil {
		return err
	}
	token, err := s.tokens.GenerateWithID(user.ID, auth.PurposeLogin, nonce)
	if err != nil {
		return err
	}
	link := s.siteURL + "/login/verify?token=" + url.QueryEscape(token)

	_, err = s.gateway.Send(ctx, OutboundMessage{
		FromName:    s.name,
		FromAddress: s.from,
		To:          user.Email,
		Subject:     "Your JourneyInbox login link",
		Text:        fmt.Sprintf("Follow this link to log in:\n\n%s\n\nThe link expires in %s.", link, s.tokens.TTL(auth.PurposeLogin)),
		HTML:        fmt.Sprintf(`<p>Follow this link to log in:</p><p><a href="%s">Log in to JourneyInbox</a></p>`, link),
	})
	if err != nil {
		return err
	}
	s.log.Info().Uint("user_id", user.ID).Msg("Login link sent")
	return nil
}

// Verify redeems a login token and returns its user. Each link works once;
// a used or superseded link is ErrInvalidToken.
func (s *LoginService) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token, auth.PurposeLogin)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrInvalidToken
	}
	ok, err := s.users.ConsumeLoginNonce(ctx, user.ID, claims.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Warn().Uint("user_id", user.ID).Msg("Login link reused or superseded")
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}
