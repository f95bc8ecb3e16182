package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openslot/openslot-backend/internal/availability"
	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/pkg/apperror"
	"github.com/openslot/openslot-backend/internal/pkg/response"
)

type Handler struct {
	service    availability.Service
	businesses business.Service
}

func NewHandler(service availability.Service, businesses business.Service) *Handler {
	return &Handler{service: service, businesses: businesses}
}

func (h *Handler) GetSlots(c *gin.Context) {
	var query SlotsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, err.Error()))
		return
	}
	if query.EndDate == "" {
		query.EndDate = query.StartDate
	}

	ctx := c.Request.Context()

	biz, err := h.businesses.GetByWidgetID(ctx, query.WidgetID)
	if err != nil {
		response.Error(c, err)
		return
	}

	days, at, cached, err := h.service.GetSlots(ctx, biz, query.AppointmentTypeID, query.StartDate, query.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSlotsResponse(days, at, biz.Timezone, cached))
}
