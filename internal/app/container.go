package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/openslot/openslot-backend/internal/api"
	"github.com/openslot/openslot-backend/internal/appointmenttype"
	"github.com/openslot/openslot-backend/internal/availability"
	"github.com/openslot/openslot-backend/internal/booking"
	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/cache"
	"github.com/openslot/openslot-backend/internal/calendar"
	"github.com/openslot/openslot-backend/internal/config"
	"github.com/openslot/openslot-backend/internal/notify"
	"github.com/openslot/openslot-backend/internal/payment"
	"github.com/openslot/openslot-backend/internal/ratelimit"
	"github.com/openslot/openslot-backend/internal/usage"
	"github.com/openslot/openslot-backend/internal/webhook"
)

// Container holds the initialized components the server entrypoint manages.
type Container struct {
	Router *gin.Engine

	redisClient *redis.Client
	notifier    notify.Notifier
	limiters    []*ratelimit.Limiter
	logger      hclog.Logger
}

// NewContainer wires every module from configuration. Optional backends
// (redis, amqp) degrade to in-process fallbacks when unconfigured.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger hclog.Logger) *Container {
	c := &Container{logger: logger}

	// Cache: redis when configured, otherwise in-process.
	var store cache.Cache
	if cfg.RedisAddr != "" {
		c.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store = cache.NewRedisCache(c.redisClient)
	} else {
		logger.Info("redis not configured, using in-process cache")
		store = cache.NewMemoryCache()
	}

	// Notifications: AMQP when configured, otherwise log only.
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.AMQPURL != "" {
		if n, err := notify.NewAMQPNotifier(cfg.AMQPURL); err != nil {
			logger.Error("amqp connect failed, falling back to log notifier", "error", err)
		} else {
			notifier = n
		}
	}
	c.notifier = notifier

	// External providers.
	googleCalendar := calendar.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.CalendarTimeout)
	calendarProvider := calendar.NewBreakerProvider(googleCalendar, logger)
	paymentProvider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.PaymentTimeout)

	// Business module
	businessRepo := business.NewPgxRepository(pool)
	businessService := business.NewService(businessRepo)

	// Appointment type module
	typeRepo := appointmenttype.NewPgxRepository(pool)
	typeService := appointmenttype.NewService(typeRepo)

	// Usage module
	usageLimiter := usage.NewPgxLimiter(pool)

	// Booking module
	bookingRepo := booking.NewPgxRepository(pool)
	bookingService := booking.NewService(
		bookingRepo, businessService, typeService, usageLimiter,
		paymentProvider, calendarProvider, store, notifier, logger,
	)

	// Availability module
	availabilityRepo := availability.NewPgxRepository(pool)
	availabilityService := availability.NewService(
		availabilityRepo, typeService, bookingRepo, calendarProvider,
		store, logger, cfg.SlotCacheTTL, cfg.BusyCacheTTL,
	)

	// Webhook module
	webhookRepo := webhook.NewPgxRepository(pool)
	processor := webhook.NewProcessor(webhookRepo, logger)
	processor.Register(webhook.ProviderPayment, cfg.PaymentWebhookSecret,
		webhook.PaymentHandlers(businessService, logger))
	processor.Register(webhook.ProviderIdentity, cfg.IdentityWebhookSecret,
		webhook.IdentityHandlers(businessService, logger))

	// Per-endpoint rate limits over a one minute window.
	availabilityLimiter := ratelimit.NewLimiter(cfg.AvailabilityRPM, time.Minute)
	bookLimiter := ratelimit.NewLimiter(cfg.BookRPM, time.Minute)
	paymentIntentLimiter := ratelimit.NewLimiter(cfg.PaymentIntentRPM, time.Minute)
	cancelLimiter := ratelimit.NewLimiter(cfg.CancelRPM, time.Minute)
	c.limiters = []*ratelimit.Limiter{availabilityLimiter, bookLimiter, paymentIntentLimiter, cancelLimiter}

	c.Router = api.NewRouter(api.Config{
		IsProduction:         cfg.IsProduction,
		ProdOrigins:          cfg.ProdOrigins,
		BusinessService:      businessService,
		TypeService:          typeService,
		AvailabilityService:  availabilityService,
		BookingService:       bookingService,
		PaymentProvider:      paymentProvider,
		WebhookProcessor:     processor,
		AvailabilityLimiter:  availabilityLimiter,
		BookLimiter:          bookLimiter,
		PaymentIntentLimiter: paymentIntentLimiter,
		CancelLimiter:        cancelLimiter,
		Logger:               logger,
	})

	return c
}

// Close releases background resources. Safe to call once during shutdown.
func (c *Container) Close() {
	for _, l := range c.limiters {
		l.Close()
	}
	if n, ok := c.notifier.(*notify.AMQPNotifier); ok {
		if err := n.Close(); err != nil {
			c.logger.Warn("amqp close failed", "error", err)
		}
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.logger.Warn("redis close failed", "error", err)
		}
	}
}
