package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dewhitt/dashboard-api/internal/config"
	"github.com/dewhitt/dashboard-api/internal/database"
	"github.com/dewhitt/dashboard-api/internal/handler"
	"github.com/dewhitt/dashboard-api/internal/logging"
	"github.com/dewhitt/dashboard-api/internal/mail"
	"github.com/dewhitt/dashboard-api/internal/middleware"
	"github.com/dewhitt/dashboard-api/internal/queue"
	"github.com/dewhitt/dashboard-api/internal/repository"
	"github.com/dewhitt/dashboard-api/internal/router"
	"github.com/dewhitt/dashboard-api/internal/service"
	"github.com/dewhitt/dashboard-api/internal/utils"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; real environments set variables directly

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel).With("app", "dashboard-api", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		logger.Warn(ctx, "redis unreachable, auth rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	projects := repository.NewProjectRepo(db)
	codec := utils.NewTokenCodec(cfg.JWTSecret, cfg.AccessTTL)

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		log.Fatalf("notifier: %v", err)
	}
	authSvc := service.NewAuthService(users, codec, notifier, service.AuthConfig{
		BcryptCost:    cfg.BcryptCost,
		ClientURL:     cfg.ClientURL,
		NotifyTimeout: cfg.NotifyTimeout,
	}, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(requestLogger(logger))

	auth := middleware.JWTAuth(codec, users, logger)
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb, logger)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), limit)
	router.RegisterMember(e, router.MemberHandlers{
		Users:    handler.NewUserHandler(service.NewUserService(users, cfg.BcryptCost)),
		Goals:    handler.NewGoalHandler(repository.NewGoalRepo(db)),
		Logs:     handler.NewLogHandler(repository.NewExerciseLogRepo(db)),
		Projects: handler.NewProjectHandler(projects),
	}, auth)
	router.RegisterAdmin(e, handler.NewAdminHandler(users, projects, logger), auth)
	if cfg.StripeWebhookSecret != "" {
		router.RegisterBilling(e, handler.NewBillingHandler(service.NewBillingService(users, logger), cfg.StripeWebhookSecret, logger))
	} else {
		logger.Info(ctx, "STRIPE_WEBHOOK_SECRET not set, billing webhook disabled")
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info(ctx, "listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown", "err", err)
	}
	authSvc.Wait()
}

// newNotifier picks how verification links leave the process: through the
// broker when one is configured, straight to SMTP otherwise, and into the
// log as a last resort.
func newNotifier(cfg config.Config, logger logging.Logger) (service.Notifier, error) {
	switch {
	case cfg.RabbitURL != "":
		logger.Info(context.Background(), "verification mail via queue", "queue", cfg.VerifyQueue)
		return queue.NewPublisher(cfg.RabbitURL, cfg.VerifyQueue), nil
	case cfg.SMTPHost != "":
		logger.Info(context.Background(), "verification mail via smtp", "host", cfg.SMTPHost)
		return mail.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	default:
		logger.Warn(context.Background(), "no mail transport configured, verification links are only logged")
		return mail.LogSender{Log: logger}, nil
	}
}

func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
				"ip", v.RemoteIP,
			)
			return nil
		},
	})
}
