package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, rateLimit gin.HandlerFunc) {
	g.POST("/payment-intent", rateLimit, h.CreateIntent)
}
