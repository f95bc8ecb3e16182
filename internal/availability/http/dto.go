package http

import (
	"github.com/openslot/openslot-backend/internal/appointmenttype"
	"github.com/openslot/openslot-backend/internal/availability"
)

// SlotsRequest identifies a widget's slot query. Dates are "YYYY-MM-DD" in
// the business timezone; endDate defaults to startDate.
type SlotsRequest struct {
	WidgetID          string `form:"widgetId" binding:"required"`
	AppointmentTypeID string `form:"appointmentTypeId" binding:"required,uuid"`
	StartDate         string `form:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate           string `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
}

type AppointmentTypeTag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

type SlotsResponse struct {
	AppointmentType AppointmentTypeTag      `json:"appointmentType"`
	Timezone        string                  `json:"timezone"`
	Slots           []availability.DaySlots `json:"slots"`
	Cached          bool                    `json:"cached"`
}

func NewSlotsResponse(days []availability.DaySlots, at *appointmenttype.AppointmentType, timezone string, cached bool) SlotsResponse {
	return SlotsResponse{
		AppointmentType: AppointmentTypeTag{
			ID:       at.ID,
			Name:     at.Name,
			Duration: at.DurationMinutes,
		},
		Timezone: timezone,
		Slots:    days,
		Cached:   cached,
	}
}
