package hashid

import (
	"errors"
	"testing"
)

func newTestEncoder(t *testing.T) Encoder {
	t.Helper()
	enc, err := New("test-salt", 7)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return enc
}

func TestRoundTrip(t *testing.T) {
	enc := newTestEncoder(t)
	for _, id := range []uint{1, 2, 42, 1000, 987654321} {
		token, err := enc.Encode(id)
		if err != nil {
			t.Fatalf("Encode(%d) error = %v", id, err)
		}
		if len(token) < 7 {
			t.Errorf("Encode(%d) = %q, shorter than min length", id, token)
		}
		got, err := enc.Decode(token)
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", token, err)
		}
		if got != id {
			t.Errorf("Decode(Encode(%d)) = %d", id, got)
		}
	}
}

func TestSaltChangesTokens(t *testing.T) {
	a := newTestEncoder(t)
	b, err := New("other-salt", 7)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ta, _ := a.Encode(1)
	tb, _ := b.Encode(1)
	if ta == tb {
		t.Fatalf("tokens for different salts should differ, both %q", ta)
	}
}

func TestDecodeMalformed(t *testing.T) {
	enc := newTestEncoder(t)
	multi, err := enc.(*encoder).h.EncodeInt64([]int64{1, 2})
	if err != nil {
		t.Fatalf("EncodeInt64 error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"outside alphabet", "abc-def"},
		{"unicode", "ñandú"},
		{"two ids", multi},
		{"garbage", "zzzzzzzzzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Decode(tt.token)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("Decode(%q) error = %v, want ErrMalformed", tt.token, err)
			}
		})
	}
}

func TestEncodeZero(t *testing.T) {
	if _, err := newTestEncoder(t).Encode(0); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Encode(0) error = %v, want ErrMalformed", err)
	}
}
