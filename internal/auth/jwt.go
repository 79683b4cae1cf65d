package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Purpose keeps a login link from being usable as a session and back.
type Purpose string

const (
	PurposeLogin   Purpose = "login"
	PurposeSession Purpose = "session"
)

const issuer = "journeyinbox"

// TokenClaims represents the claims in the JWT token
type TokenClaims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID is the user the token was issued for.
func (c *TokenClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// TokenIssuer signs and checks HS256 tokens for login links and sessions.
type TokenIssuer struct {
	secret []byte
	ttl    map[Purpose]time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, loginTTL, sessionTTL time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl: map[Purpose]time.Duration{
			PurposeLogin:   loginTTL,
			PurposeSession: sessionTTL,
		},
		now: time.Now,
	}, nil
}

// TTL is how long tokens of the given purpose stay valid.
func (i *TokenIssuer) TTL(purpose Purpose) time.Duration {
	return i.ttl[purpose]
}

// Generate creates a token for userID with a random token id.
func (i *TokenIssuer) Generate(userID uint, purpose Purpose) (string, error) {
	return i.GenerateWithID(userID, purpose, uuid.NewString())
}

// GenerateWithID creates a token whose jti is id, so the caller can later
// check the token against a stored value.
func (i *TokenIssuer) GenerateWithID(userID uint, purpose Purpose, id string) (string, error) {
	ttl, ok := i.ttl[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	now := i.now()
	claims := TokenClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        id,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// Validate parses tokenString and checks it was issued for purpose.
func (i *TokenIssuer) Validate(tokenString string, purpose Purpose) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
