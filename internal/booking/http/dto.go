package http

import (
	"time"

	"github.com/openslot/openslot-backend/internal/booking"
)

// BookRequest is the widget's booking submission. StartTime is RFC3339 with
// offset; the server stores UTC.
type BookRequest struct {
	WidgetID          string            `json:"widgetId" binding:"required"`
	AppointmentTypeID string            `json:"appointmentTypeId" binding:"required,uuid"`
	StartTime         time.Time         `json:"startTime" binding:"required"`
	VisitorName       string            `json:"visitorName" binding:"required"`
	VisitorEmail      string            `json:"visitorEmail" binding:"required,email"`
	VisitorPhone      string            `json:"visitorPhone"`
	Notes             string            `json:"notes"`
	Timezone          string            `json:"timezone"`
	FormResponses     map[string]string `json:"formResponses"`
	PaymentIntentID   string            `json:"paymentIntentId"`
}

type AppointmentResponse struct {
	ID                string    `json:"id"`
	AppointmentType   string    `json:"appointmentType"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	StartLocal        string    `json:"startLocal"`
	EndLocal          string    `json:"endLocal"`
	Timezone          string    `json:"timezone"`
	VisitorName       string    `json:"visitorName"`
	VisitorEmail      string    `json:"visitorEmail"`
	Status            string    `json:"status"`
	CancellationToken string    `json:"cancellationToken"`
	MeetingLink       string    `json:"meetingLink,omitempty"`
}

type BookResponse struct {
	Appointment  AppointmentResponse `json:"appointment"`
	BusinessName string              `json:"businessName"`
}

func NewBookResponse(res *booking.CommitResult) BookResponse {
	appt := AppointmentResponse{
		ID:                res.Appointment.ID,
		AppointmentType:   res.AppointmentName,
		StartTime:         res.Appointment.StartTime,
		EndTime:           res.Appointment.EndTime,
		StartLocal:        res.StartLocal,
		EndLocal:          res.EndLocal,
		Timezone:          res.Timezone,
		VisitorName:       res.Appointment.VisitorName,
		VisitorEmail:      res.Appointment.VisitorEmail,
		Status:            string(res.Appointment.Status),
		CancellationToken: res.Appointment.CancellationToken,
	}
	if res.Appointment.MeetingLink != nil {
		appt.MeetingLink = *res.Appointment.MeetingLink
	}
	return BookResponse{Appointment: appt, BusinessName: res.BusinessName}
}

// PaymentRequiredResponse is the 402 payload telling the widget to run the
// payment flow first.
type PaymentRequiredResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	Price          int64  `json:"price"`
	Deposit        int64  `json:"deposit"`
	DepositPercent int    `json:"depositPercent,omitempty"`
	Currency       string `json:"currency"`
}

type CancelRequest struct {
	CancellationToken string `json:"cancellationToken" binding:"required"`
}

type RefundResponse struct {
	RefundID string `json:"refundId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type CancelResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Refund  *RefundResponse `json:"refund"`
}
