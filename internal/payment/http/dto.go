package http

// CreateIntentRequest asks for a payment intent covering one appointment
// type. The intent is bound to the type through provider metadata and checked
// again at booking time.
type CreateIntentRequest struct {
	WidgetID          string `json:"widgetId" binding:"required"`
	AppointmentTypeID string `json:"appointmentTypeId" binding:"required,uuid"`
	VisitorName       string `json:"visitorName"`
	VisitorEmail      string `json:"visitorEmail" binding:"omitempty,email"`
}

type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	IsDeposit       bool   `json:"isDeposit"`
	DepositPercent  int    `json:"depositPercent,omitempty"`
	FullPrice       int64  `json:"fullPrice"`
	BusinessName    string `json:"businessName"`
}
