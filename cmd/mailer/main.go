// Command mailer consumes verification requests from the broker and
// delivers them by SMTP, or logs them when no relay is configured.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dewhitt/dashboard-api/internal/config"
	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/mail"
	"github.com/dewhitt/dashboard-api/internal/queue"
	"github.com/dewhitt/dashboard-api/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadMailer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel).With("app", "mailer", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sender service.Notifier = mail.LogSender{Log: logger}
	if cfg.SMTPHost != "" {
		smtp, err := mail.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
		if err != nil {
			log.Fatalf("smtp: %v", err)
		}
		sender = smtp
	}

	c := &queue.Consumer{
		URL:   cfg.RabbitURL,
		Queue: cfg.VerifyQueue,
		Log:   logger,
		Handle: func(ctx context.Context, ev queue.VerificationRequested) error {
			sendCtx, cancel := context.WithTimeout(ctx, cfg.NotifyTimeout)
			defer cancel()
			if err := sender.SendVerification(sendCtx, ev); err != nil {
				return err
			}
			logger.Info(ctx, "verification mail delivered", "message_id", ev.ID, "user_id", ev.UserID)
			return nil
		},
	}
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("mailer: %v", err)
	}
}
