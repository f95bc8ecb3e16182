package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, bookLimit, cancelLimit gin.HandlerFunc) {
	g.POST("/book", bookLimit, h.Book)
	g.POST("/cancel", cancelLimit, h.Cancel)
}
