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

	"github.com/brenbala/brenbala-api/internal/auth"
	"github.com/brenbala/brenbala-api/internal/config"
	"github.com/brenbala/brenbala-api/internal/identity"
	"github.com/brenbala/brenbala-api/internal/middleware"
	"github.com/brenbala/brenbala-api/internal/notification"
	"github.com/brenbala/brenbala-api/internal/otp"
	"github.com/brenbala/brenbala-api/internal/profile"
	"github.com/brenbala/brenbala-api/internal/refdata"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Notifier overrides the default logging notifier. Tests inject a recorder
	// here; production wiring leaves it nil.
	Notifier notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	// Repositories
	var userRepo identity.Repository
	var refRepo refdata.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
		refRepo = refdata.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
		refRepo = refdata.NewMemoryRepository()
	}

	// Services and handlers
	identitySvc := identity.NewService(userRepo)
	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}
	issuer := otp.NewIssuer(userRepo, notifier, d.Cfg.OTPDigits, d.Cfg.OTPTTL, d.Cfg.OTPMaxAttempts, d.Logger)
	tokens := auth.NewTokenManager(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)

	var tickets auth.TicketStore
	if d.Cache != nil {
		tickets = auth.NewRedisTicketStore(d.Cache, d.Cfg.ResetTicketTTL)
	} else {
		tickets = auth.NewMemoryTicketStore(d.Cfg.ResetTicketTTL)
	}

	authSvc := auth.NewService(identitySvc, issuer, tokens, tickets, d.Logger)
	authHandler := auth.NewHandler(authSvc)
	profileHandler := profile.NewHandler(identitySvc)
	userHandler := identity.NewHandler(identitySvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	jwtmw := middleware.JWTAuth(tokens, userRepo)
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginPerMinute)

	// Public routes
	RegisterAuthRoutes(api, authHandler, jwtmw, rateLimiter)

	// Protected routes carry a structured audit trail on top of the access log.
	protected := api.Group("", jwtmw, middleware.Audit(d.Logger))
	RegisterProfileRoutes(protected, profileHandler)
	RegisterUserRoutes(protected, userHandler)
	RegisterRefDataRoutes(protected, refRepo)

	return nil
}
