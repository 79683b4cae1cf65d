// Command dispatch sends one day's prompts and exits. It is meant for cron
// or for re-running a day the server missed.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"journeyinbox/internal/config"
	"journeyinbox/internal/database"
	"journeyinbox/internal/hashid"
	"journeyinbox/internal/logger"
	"journeyinbox/internal/repository"
	"journeyinbox/internal/services"
)

func main() {
	date := flag.String("date", "", "prompt date as YYYY-MM-DD (default: today in TIME_ZONE)")
	flag.Parse()

	envErr := godotenv.Load()
	log := logger.New()
	if envErr != nil {
		log.Debug().Msg("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	var today time.Time
	if *date != "" {
		today, err = time.Parse(time.DateOnly, *date)
	} else {
		today, err = cfg.Today(time.Now())
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid prompt date")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Environment}); err != nil {
			log.Error().Err(err).Msg("Failed to initialize sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

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

	dispatcher := services.NewPromptDispatcher(
		repository.NewAccountRepo(db),
		repository.NewEntryRepo(db),
		repository.NewPromptRepo(db),
		services.NewEmailService(cfg.SendGridAPIKey, log),
		ids,
		services.PromptSettings{
			SenderName:    cfg.SenderName,
			ReplyPrefix:   cfg.ReplyPrefix,
			SendingDomain: cfg.SendingDomain,
		},
		log,
	)

	report := dispatcher.Dispatch(ctx, today)
	log.Info().
		Str("date", report.Date.Format(time.DateOnly)).
		Int("sent", report.Sent).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Int("ledger_errors", report.LedgerErrors).
		Msg("Dispatch finished")

	if err := report.Err(); err != nil {
		log.Error().Err(err).Msg("Some prompts were not sent")
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}
