package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/openslot/openslot-backend/internal/appointmenttype"
	"github.com/openslot/openslot-backend/internal/availability"
	availabilityHttp "github.com/openslot/openslot-backend/internal/availability/http"
	"github.com/openslot/openslot-backend/internal/booking"
	bookingHttp "github.com/openslot/openslot-backend/internal/booking/http"
	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/payment"
	paymentHttp "github.com/openslot/openslot-backend/internal/payment/http"
	"github.com/openslot/openslot-backend/internal/ratelimit"
	"github.com/openslot/openslot-backend/internal/webhook"
	webhookHttp "github.com/openslot/openslot-backend/internal/webhook/http"
)

// Config holds everything the router needs to assemble the public API.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	BusinessService     business.Service
	TypeService         appointmenttype.Service
	AvailabilityService availability.Service
	BookingService      *booking.Service
	PaymentProvider     payment.Provider
	WebhookProcessor    *webhook.Processor

	AvailabilityLimiter  *ratelimit.Limiter
	BookLimiter          *ratelimit.Limiter
	PaymentIntentLimiter *ratelimit.Limiter
	CancelLimiter        *ratelimit.Limiter

	Logger hclog.Logger
}

// NewRouter assembles middleware and registers every module's routes.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// The widget is embedded on arbitrary tenant sites, so the public surface
	// is open in development and origin-listed in production.
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService, cfg.BusinessService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	paymentHandler := paymentHttp.NewHandler(cfg.PaymentProvider, cfg.BusinessService, cfg.TypeService)
	webhookHandler := webhookHttp.NewHandler(cfg.WebhookProcessor)

	v1 := r.Group("/v1")
	{
		availabilityHttp.RegisterRoutes(v1, availabilityHandler,
			ratelimit.Middleware(cfg.AvailabilityLimiter, "availability", cfg.Logger))
		bookingHttp.RegisterRoutes(v1, bookingHandler,
			ratelimit.Middleware(cfg.BookLimiter, "book", cfg.Logger),
			ratelimit.Middleware(cfg.CancelLimiter, "cancel", cfg.Logger))
		paymentHttp.RegisterRoutes(v1, paymentHandler,
			ratelimit.Middleware(cfg.PaymentIntentLimiter, "payment_intent", cfg.Logger))
		webhookHttp.RegisterRoutes(v1, webhookHandler)
	}

	return r
}
