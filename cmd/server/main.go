package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v82"

	"journeyinbox/internal/auth"
	"journeyinbox/internal/config"
	"journeyinbox/internal/database"
	"journeyinbox/internal/events"
	"journeyinbox/internal/handlers"
	"journeyinbox/internal/hashid"
	"journeyinbox/internal/logger"
	"journeyinbox/internal/repository"
	"journeyinbox/internal/services"
	"journeyinbox/internal/utils"
)

func main() {
	envErr := godotenv.Load()
	log := logger.New()
	if envErr != nil {
		log.Debug().Msg("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid time zone")
	}
	user, pass, err := cfg.WebhookCredentials()
	if err != nil {
		log.Fatal().Err(err).Msg("Inbound webhook credentials are required")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Environment}); err != nil {
			log.Error().Err(err).Msg("Failed to initialize sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}
	stripe.Key = cfg.StripeSecretKey

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	ids, err := hashid.New(cfg.HashidSalt, cfg.HashidMinLength)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build account id encoder")
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.LoginLinkTTL, cfg.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build token issuer")
	}

	users := repository.NewUserRepo(db)
	accounts := repository.NewAccountRepo(db)
	entries := repository.NewEntryRepo(db)
	prompts := repository.NewPromptRepo(db)

	mailer := services.NewEmailService(cfg.SendGridAPIKey, log)
	accountService := services.NewAccountService(users, accounts, entries, cfg.MaxTrialingUsers, log)
	loginService := services.NewLoginService(users, tokens, mailer, cfg.SiteURL, cfg.NoReplyAddress, cfg.SenderName, log)
	billing := services.NewBillingService(accounts, ids, cfg.StripeWebhookSecret, log)
	inbound := services.NewInboundHandler(services.NewResolver(accounts, ids), entries, cfg.QuoteMarker, log)
	dispatcher := services.NewPromptDispatcher(accounts, entries, prompts, mailer, ids, services.PromptSettings{
		SenderName:    cfg.SenderName,
		ReplyPrefix:   cfg.ReplyPrefix,
		SendingDomain: cfg.SendingDomain,
	}, log)

	var archiver services.Archiver = services.NopArchiver{}
	if cfg.ArchiveBucket != "" {
		s3Archiver, err := services.NewS3Archiver(ctx, services.ArchiveSettings{
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.ArchiveRegion,
			Endpoint:  cfg.ArchiveEndpoint,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize inbound archive")
		}
		archiver = s3Archiver
	}

	bus := events.NewBus(log)
	bus.SubscribeInbound(inbound.Handle)
	bus.SubscribeLogin(accountService.HandleLogin)

	if os.Getenv(gin.EnvGinMode) == "" && !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies")
	}

	handlers.New(handlers.Deps{
		Accounts: accountService,
		Login:    loginService,
		Billing:  billing,
		Archiver: archiver,
		Bus:      bus,
		Tokens:   tokens,
		IDs:      ids,
		Location: loc,
		Log:      log,
	}).Routes(router, gin.Accounts{user: pass})

	services.NewScheduler(dispatcher, loc, cfg.PromptHour, log).Start(ctx)

	log.Info().Str("port", cfg.Port).Msg("Server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
