package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"journeyinbox/internal/events"
	"journeyinbox/internal/mailparse"
	"journeyinbox/internal/models"
	"journeyinbox/internal/utils"
)

const maxInboundBytes = 30 << 20

// sendgridInbound is the Inbound Parse webhook form. Email is only set when
// the parse setting "POST the raw, full MIME message" is on.
type sendgridInbound struct {
	To       string `form:"to"`
	From     string `form:"from"`
	Subject  string `form:"subject"`
	Text     string `form:"text"`
	Email    string `form:"email"`
	Charsets string `form:"charsets"`
}

// message decodes the form into an InboundMessage. It returns nil when the
// form carries nothing to record.
func (f sendgridInbound) message() (*models.InboundMessage, error) {
	if f.Email != "" {
		return mailparse.ExtractContent([]byte(f.Email))
	}
	if f.To == "" && f.Subject == "" && f.Text == "" {
		return nil, nil
	}

	charsets := map[string]string{}
	if f.Charsets != "" {
		if err := json.Unmarshal([]byte(f.Charsets), &charsets); err != nil {
			return nil, err
		}
	}
	subject, err := mailparse.DecodeCharset(f.Subject, charsets["subject"])
	if err != nil {
		return nil, err
	}
	text, err := mailparse.DecodeCharset(f.Text, charsets["text"])
	if err != nil {
		return nil, err
	}

	return &models.InboundMessage{
		To:      mailparse.Recipients(f.To),
		From:    f.From,
		Subject: subject,
		Text:    text,
	}, nil
}

// InboundSendGrid receives replies from SendGrid Inbound Parse. Once the
// request is authenticated and readable it always answers 200, since a
// reply that cannot be recorded will not get better on redelivery.
func (h *Handler) InboundSendGrid(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInboundBytes))
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	id := uuid.New()
	receivedAt := h.now()
	log := h.log.With().Str("event_id", id.String()).Str("client_ip", utils.GetRealClientIP(c)).Logger()

	if key, err := h.archiver.Archive(c.Request.Context(), id, receivedAt, c.ContentType(), raw); err != nil {
		log.Warn().Err(err).Msg("Failed to archive inbound payload")
	} else if key != "" {
		log = log.With().Str("archive_key", key).Logger()
	}

	var form sendgridInbound
	if err := c.ShouldBind(&form); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid inbound payload", err)
		return
	}

	msg, err := form.message()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to decode inbound message")
		msg = nil
	}

	h.bus.PublishInbound(c.Request.Context(), events.InboundReceived{
		ID:         id,
		Provider:   "sendgrid",
		Message:    msg,
		ReceivedAt: receivedAt,
	})
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
