package apperror

// Kind is a machine-readable error category carried in API responses.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInactive           Kind = "inactive"
	KindValidationFailed   Kind = "validation_failed"
	KindPaymentRequired    Kind = "payment_required"
	KindPaymentRejected    Kind = "payment_rejected"
	KindPaymentAlreadyUsed Kind = "payment_already_used"
	KindSlotTaken          Kind = "slot_taken"
	KindRateLimited        Kind = "rate_limited"
	KindUsageLimitReached  Kind = "usage_limit_reached"
	KindUpstreamTimeout    Kind = "upstream_timeout"
	KindUpstreamRejected   Kind = "upstream_rejected"
	KindInternal           Kind = "internal"
)

// AppError is a custom error type that includes an HTTP status code, a
// machine-readable kind, and an optional internal error.
type AppError struct {
	Code    int    // HTTP status code (e.g., 400, 404, 409)
	Kind    Kind   // Machine-readable error category
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}
