package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"journeyinbox/internal/auth"
	"journeyinbox/internal/events"
	"journeyinbox/internal/hashid"
	"journeyinbox/internal/services"
	"journeyinbox/internal/utils"
)

// Deps are the collaborators the HTTP layer calls into.
type Deps struct {
	Accounts *services.AccountService
	Login    *services.LoginService
	Billing  *services.BillingService
	Archiver services.Archiver
	Bus      *events.Bus
	Tokens   *auth.TokenIssuer
	IDs      hashid.Encoder
	Location *time.Location
	Log      zerolog.Logger
}

type Handler struct {
	accounts *services.AccountService
	login    *services.LoginService
	billing  *services.BillingService
	archiver services.Archiver
	bus      *events.Bus
	tokens   *auth.TokenIssuer
	ids      hashid.Encoder
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

func New(d Deps) *Handler {
	archiver := d.Archiver
	if archiver == nil {
		archiver = services.NopArchiver{}
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		accounts: d.Accounts,
		login:    d.Login,
		billing:  d.Billing,
		archiver: archiver,
		bus:      d.Bus,
		tokens:   d.Tokens,
		ids:      d.IDs,
		loc:      loc,
		log:      d.Log.With().Str("component", "http").Logger(),
		now:      time.Now,
	}
}

// Routes registers every endpoint. inbound holds the basic auth credentials
// the mail provider uses on the inbound webhook.
func (h *Handler) Routes(router *gin.Engine, inbound gin.Accounts) {
	router.GET("/", h.HomeHandler)
	router.GET("/health", h.HealthHandler)

	// Provider webhooks
	router.POST("/inbound/sendgrid", gin.BasicAuth(inbound), h.InboundSendGrid)
	router.POST("/stripe/webhook", h.StripeWebhook)

	// Account and login routes (no auth required)
	router.POST("/accounts", h.CreateAccount)
	router.POST("/login", h.RequestLogin)
	router.GET("/login/verify", h.VerifyLogin)
	router.POST("/logout", h.Logout)

	// Protected routes (auth required)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware(h.tokens))
	{
		protected.GET("/account", h.GetCurrentAccount)
		protected.GET("/entries/export", h.ExportEntries)
	}
}

// handleError provides a consistent way to handle and log errors
func (h *Handler) handleError(c *gin.Context, status int, message string, err error) {
	event := h.log.Warn()
	if status >= http.StatusInternalServerError {
		event = h.log.Error()
	}
	event.Err(err).
		Str("path", c.Request.URL.Path).
		Str("client_ip", utils.GetRealClientIP(c)).
		Msg(message)
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func (h *Handler) HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "JourneyInbox")
}

// HealthHandler is a simple health check endpoint
func (h *Handler) HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
