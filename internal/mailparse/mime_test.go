package mailparse

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestExtractContentMultipart(t *testing.T) {
	raw := crlf(`From: Someone <someone@example.com>
To: "JourneyInbox Journal" <journal.Ax7B2cd@email.journeyinbox.com>
Subject: RE: It's Wednesday, Nov. 15, 2023. How are you?
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset="UTF-8"
Content-Transfer-Encoding: quoted-printable

Did we make it? Caf=C3=A9 time.

On Wed, JourneyInbox Journal wrote:
> prompt text
--b1
Content-Type: text/html; charset="UTF-8"

<p>Did we make it?</p>
--b1--
`)
	msg, err := ExtractContent(raw)
	if err != nil {
		t.Fatalf("ExtractContent() error = %v", err)
	}
	if want := []string{"journal.Ax7B2cd@email.journeyinbox.com"}; !reflect.DeepEqual(msg.To, want) {
		t.Errorf("To = %v, want %v", msg.To, want)
	}
	if msg.Subject != "RE: It's Wednesday, Nov. 15, 2023. How are you?" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.HasPrefix(msg.Text, "Did we make it? Café time.") {
		t.Errorf("Text = %q", msg.Text)
	}
	if got := StripQuote(msg.Text, "JourneyInbox"); got != "Did we make it? Café time." {
		t.Errorf("StripQuote(Text) = %q", got)
	}
}

func TestExtractContentNestedMixed(t *testing.T) {
	raw := crlf(`To: journal.X@example.com
Subject: Re: 2023-11-15
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain

nested body
--inner--
--outer
Content-Type: text/plain
Content-Disposition: attachment; filename="notes.txt"

attachment body
--outer--
`)
	msg, err := ExtractContent(raw)
	if err != nil {
		t.Fatalf("ExtractContent() error = %v", err)
	}
	if strings.TrimSpace(msg.Text) != "nested body" {
		t.Fatalf("Text = %q, want nested body", msg.Text)
	}
}

func TestExtractContentSinglePartBase64Latin1(t *testing.T) {
	// "caf\xe9" in ISO-8859-1, base64 encoded.
	raw := crlf(`To: journal.X@example.com
Subject: =?ISO-8859-1?Q?caf=E9?=
Content-Type: text/plain; charset=ISO-8859-1
Content-Transfer-Encoding: base64

Y2Fm6Q==
`)
	msg, err := ExtractContent(raw)
	if err != nil {
		t.Fatalf("ExtractContent() error = %v", err)
	}
	if msg.Subject != "café" {
		t.Errorf("Subject = %q, want café", msg.Subject)
	}
	if msg.Text != "café" {
		t.Errorf("Text = %q, want café", msg.Text)
	}
}

func TestExtractContentNoText(t *testing.T) {
	raw := crlf(`To: journal.X@example.com
Subject: hi
Content-Type: text/html

<p>only html</p>
`)
	if _, err := ExtractContent(raw); !errors.Is(err, ErrNoText) {
		t.Fatalf("ExtractContent() error = %v, want ErrNoText", err)
	}
}

func TestDecodeCharset(t *testing.T) {
	got, err := DecodeCharset("caf\xe9", "iso-8859-1")
	if err != nil || got != "café" {
		t.Fatalf("DecodeCharset() = %q, %v, want café", got, err)
	}
	if got, _ := DecodeCharset("plain", "UTF-8"); got != "plain" {
		t.Fatalf("DecodeCharset(utf-8) = %q", got)
	}
	if _, err := DecodeCharset("x", "no-such-charset"); err == nil {
		t.Fatal("expected error for unknown charset")
	}
}
