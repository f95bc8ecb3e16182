package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
	"github.com/openslot/openslot-backend/internal/pkg/response"
)

var errRateLimited = apperror.New(http.StatusTooManyRequests, apperror.KindRateLimited, "too many requests")

// Middleware gates an endpoint with a per-client-IP limiter. When the limiter
// panics or is nil the request proceeds: all public endpoints fail open,
// favoring availability over strict abuse prevention.
func Middleware(limiter *Limiter, endpoint string, logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed := true
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("rate limiter failure, failing open", "endpoint", endpoint, "panic", r)
				}
			}()
			allowed = limiter.Allow(c.ClientIP())
		}()

		if !allowed {
			logger.Info("rate limited", "endpoint", endpoint, "client_ip", c.ClientIP())
			response.Error(c, errRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
