package models

// InboundMessage is what the mail provider hands over for one reply,
// already decoded from MIME.
type InboundMessage struct {
	To      []string
	From    string
	Subject string
	Text    string
}
