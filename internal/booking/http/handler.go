package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openslot/openslot-backend/internal/booking"
	"github.com/openslot/openslot-backend/internal/pkg/apperror"
	"github.com/openslot/openslot-backend/internal/pkg/response"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Book(c *gin.Context) {
	var body BookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, err.Error()))
		return
	}

	res, err := h.service.CommitBooking(c.Request.Context(), booking.CommitRequest{
		WidgetID:          body.WidgetID,
		AppointmentTypeID: body.AppointmentTypeID,
		StartTime:         body.StartTime,
		VisitorName:       body.VisitorName,
		VisitorEmail:      body.VisitorEmail,
		VisitorPhone:      body.VisitorPhone,
		Notes:             body.Notes,
		Timezone:          body.Timezone,
		FormResponses:     body.FormResponses,
		PaymentIntentID:   body.PaymentIntentID,
	})
	if err != nil {
		var payErr *booking.PaymentRequiredError
		if errors.As(err, &payErr) {
			c.JSON(http.StatusPaymentRequired, PaymentRequiredResponse{
				Error:          string(apperror.KindPaymentRequired),
				Message:        payErr.Error(),
				Price:          payErr.Price,
				Deposit:        payErr.Deposit,
				DepositPercent: payErr.DepositPercent,
				Currency:       payErr.Currency,
			})
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookResponse(res))
}

func (h *Handler) Cancel(c *gin.Context) {
	var body CancelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, err.Error()))
		return
	}

	res, err := h.service.CancelBooking(c.Request.Context(), body.CancellationToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := CancelResponse{Success: true, Message: "appointment cancelled"}
	if res.AlreadyCancelled {
		out.Message = "appointment was already cancelled"
	}
	if res.Refund != nil {
		out.Refund = &RefundResponse{
			RefundID: res.Refund.ID,
			Amount:   res.Refund.Amount,
			Currency: res.Refund.Currency,
		}
	}
	c.JSON(http.StatusOK, out)
}
