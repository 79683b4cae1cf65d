// Package hashid turns account ids into the opaque tokens that appear in
// reply-to addresses, and back.
package hashid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

// ErrMalformed is returned for any token that does not decode to exactly
// one positive id.
var ErrMalformed = errors.New("malformed hashid")

// Encoder converts between account ids and tokens.
type Encoder interface {
	Encode(id uint) (string, error)
	Decode(token string) (uint, error)
}

type encoder struct {
	h        *hashids.HashID
	alphabet string
}

// New builds an Encoder salted for account ids.
func New(salt string, minLength int) (Encoder, error) {
	data := hashids.NewData()
	data.Salt = "account" + salt
	data.MinLength = minLength
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create hashid encoder: %w", err)
	}
	return &encoder{h: h, alphabet: data.Alphabet}, nil
}

func (e *encoder) Encode(id uint) (string, error) {
	if id == 0 {
		return "", fmt.Errorf("cannot encode id 0: %w", ErrMalformed)
	}
	token, err := e.h.EncodeInt64([]int64{int64(id)})
	if err != nil {
		return "", fmt.Errorf("failed to encode id %d: %w", id, err)
	}
	return token, nil
}

func (e *encoder) Decode(token string) (id uint, err error) {
	if token == "" {
		return 0, ErrMalformed
	}
	for _, r := range token {
		if !strings.ContainsRune(e.alphabet, r) {
			return 0, ErrMalformed
		}
	}

	// The library panics on some inputs it cannot map back.
	defer func() {
		if r := recover(); r != nil {
			id, err = 0, ErrMalformed
		}
	}()

	values, decodeErr := e.h.DecodeInt64WithError(token)
	if decodeErr != nil || len(values) != 1 || values[0] <= 0 {
		return 0, ErrMalformed
	}
	return uint(values[0]), nil
}
