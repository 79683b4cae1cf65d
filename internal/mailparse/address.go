package mailparse

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrNoLocalPart is returned for strings that are not an email address.
var ErrNoLocalPart = errors.New("address has no local part")

// Recipients splits an address list header ("To") into bare addresses,
// keeping their case. Unparseable lists fall back to a comma split.
func Recipients(header string) []string {
	var out []string
	if list, err := mail.ParseAddressList(header); err == nil {
		for _, a := range list {
			out = append(out, a.Address)
		}
		return out
	}
	for _, part := range strings.Split(header, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LocalPart returns the portion of address before the final "@".
// Display names and angle brackets are accepted.
func LocalPart(address string) (string, error) {
	if a, err := mail.ParseAddress(address); err == nil {
		address = a.Address
	}
	address = strings.TrimSpace(address)
	i := strings.LastIndex(address, "@")
	if i <= 0 {
		return "", ErrNoLocalPart
	}
	return address[:i], nil
}

// ReplyAddress is the address a prompt is sent from and replied to:
// <prefix>.<token>@<domain>.
func ReplyAddress(prefix, token, domain string) string {
	return prefix + "." + token + "@" + domain
}

// SplitLocalPart separates "<prefix>.<token>" on the last dot.
func SplitLocalPart(local string) (prefix, token string, ok bool) {
	i := strings.LastIndex(local, ".")
	if i < 0 {
		return "", "", false
	}
	return local[:i], local[i+1:], true
}
