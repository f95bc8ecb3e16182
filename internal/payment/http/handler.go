package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openslot/openslot-backend/internal/appointmenttype"
	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/payment"
	"github.com/openslot/openslot-backend/internal/pkg/apperror"
	"github.com/openslot/openslot-backend/internal/pkg/response"
)

type Handler struct {
	provider   payment.Provider
	businesses business.Service
	types      appointmenttype.Service
}

func NewHandler(provider payment.Provider, businesses business.Service, types appointmenttype.Service) *Handler {
	return &Handler{provider: provider, businesses: businesses, types: types}
}

func (h *Handler) CreateIntent(c *gin.Context) {
	var body CreateIntentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, err.Error()))
		return
	}

	ctx := c.Request.Context()

	biz, err := h.businesses.GetByWidgetID(ctx, body.WidgetID)
	if err != nil {
		response.Error(c, err)
		return
	}

	at, err := h.types.GetForBusiness(ctx, biz.ID, body.AppointmentTypeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !at.RequirePayment {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, "appointment type does not require payment"))
		return
	}

	amount, isDeposit := at.ChargeAmount()
	intent, err := h.provider.CreateIntent(ctx, payment.CreateIntentRequest{
		Amount:       amount,
		Currency:     at.Currency,
		ReceiptEmail: body.VisitorEmail,
		Description:  fmt.Sprintf("%s - %s", biz.Name, at.Name),
		Metadata: map[string]string{
			"business_id":         biz.ID,
			"appointment_type_id": at.ID,
			"visitor_name":        body.VisitorName,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := CreateIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		IsDeposit:       isDeposit,
		FullPrice:       at.Price,
		BusinessName:    biz.Name,
	}
	if isDeposit {
		out.DepositPercent = at.DepositPercent
	}
	c.JSON(http.StatusCreated, out)
}
