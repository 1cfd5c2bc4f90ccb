package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zuripay/zuripay/internal/auth"
	"github.com/zuripay/zuripay/internal/config"
	"github.com/zuripay/zuripay/internal/middleware"
	"github.com/zuripay/zuripay/internal/notification"
	"github.com/zuripay/zuripay/internal/security"
	"github.com/zuripay/zuripay/internal/token"
	"github.com/zuripay/zuripay/internal/user"
	"github.com/zuripay/zuripay/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Production never runs on the in-memory store or without throttling,
	// even though main also checks.
	if d.Cfg.Production() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	var repo user.Repository
	if d.DB != nil {
		repo = user.NewPostgresRepository(d.DB)
	} else {
		repo = user.NewMemoryRepository()
	}

	hasher := security.NewHasher(0)
	verifier := verification.NewService(repo, hasher, d.Cfg.EmailTokenTTL, d.Cfg.OTPTTL)
	issuer := token.NewJWTIssuer(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)

	var (
		mailer notification.Mailer
		sms    notification.SMSSender
	)
	if d.Cfg.Production() {
		mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     d.Cfg.SMTPHost,
			Port:     d.Cfg.SMTPPort,
			Username: d.Cfg.SMTPUser,
			Password: d.Cfg.SMTPPassword,
			From:     d.Cfg.MailFrom,
		})
		sms = notification.NewGatewaySMSSender(notification.SMSGatewayConfig{
			BaseURL:  d.Cfg.SMSBaseURL,
			APIKey:   d.Cfg.SMSAPIKey,
			SenderID: d.Cfg.SMSSenderID,
		})
	} else {
		stub := notification.NewLogSender(d.Logger)
		mailer, sms = stub, stub
	}

	authSvc := auth.NewService(repo, hasher, verifier, issuer, mailer, sms, d.Cfg.Production(), d.Logger)
	authHandler := auth.NewHandler(authSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	return nil
}
