package mailparse

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"journeyinbox/internal/models"
)

// ErrNoText is returned when a message carries no text/plain part.
var ErrNoText = errors.New("message has no text/plain part")

// maxDepth bounds how far nested multiparts are followed.
const maxDepth = 5

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

type header interface {
	Get(key string) string
}

// ExtractContent decodes a raw RFC 5322 message into the fields an inbound
// reply needs: recipients, sender, subject and the plain text body.
func ExtractContent(raw []byte) (*models.InboundMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	text, found, err := findText(msg.Header, msg.Body, 0)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoText
	}

	return &models.InboundMessage{
		To:      Recipients(msg.Header.Get("To")),
		From:    decodeHeader(msg.Header.Get("From")),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Text:    text,
	}, nil
}

func findText(h header, body io.Reader, depth int) (string, bool, error) {
	if depth > maxDepth {
		return "", false, nil
	}

	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain; charset=us-ascii"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false, fmt.Errorf("invalid Content-Type %q: %w", contentType, err)
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			return "", false, fmt.Errorf("missing boundary in %s", mediaType)
		}
		reader := multipart.NewReader(body, boundary)
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				return "", false, nil
			}
			if err != nil {
				return "", false, fmt.Errorf("error reading multipart part: %w", err)
			}
			text, found, err := findText(part.Header, part, depth+1)
			if err != nil || found {
				return text, found, err
			}
		}
	case mediaType == "text/plain":
		if disposition, _, _ := mime.ParseMediaType(h.Get("Content-Disposition")); disposition == "attachment" {
			return "", false, nil
		}
		r, err := decodeBody(h.Get("Content-Transfer-Encoding"), params["charset"], body)
		if err != nil {
			return "", false, err
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", false, fmt.Errorf("error reading text/plain part: %w", err)
		}
		return string(content), true, nil
	default:
		return "", false, nil
	}
}

func decodeBody(transferEncoding, charset string, body io.Reader) (io.Reader, error) {
	// multipart.Reader already strips quoted-printable from parts and drops
	// the header, so this only fires for single part messages.
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}

	switch strings.ToLower(charset) {
	case "", "utf-8", "us-ascii":
		return body, nil
	}
	return charsetReader(charset, body)
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

func decodeHeader(v string) string {
	decoded, err := wordDecoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// DecodeCharset converts s from the named charset to UTF-8.
func DecodeCharset(s, charset string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8", "us-ascii":
		return s, nil
	}
	r, err := charsetReader(charset, strings.NewReader(s))
	if err != nil {
		return s, err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return s, fmt.Errorf("failed to decode %s text: %w", charset, err)
	}
	return string(out), nil
}
