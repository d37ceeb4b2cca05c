package code

// Error code to message mapping
var codeMessageMap = map[int]string{
	// Common
	ErrSuccess:         "success",
	ErrUnknown:         "unknown error",
	ErrBind:            "request binding failed",
	ErrValidation:      "request validation failed",
	ErrTokenInvalid:    "invalid authentication token",
	ErrTooManyRequests: "request rate too high",

	// Users
	ErrUserNotFound:          "user not found",
	ErrUserAlreadyExist:      "user already exists",
	ErrUserPasswordIncorrect: "incorrect password",

	// Tasks
	ErrTaskNotFound:        "task not found",
	ErrTaskScheduling:      "task scheduling failed",
	ErrNoOperatorAvailable: "no operator with free capacity",

	// Areas
	ErrAreaNotFound:      "area not found",
	ErrAreaDriverUnknown: "unknown area driver",

	// Bookings
	ErrBookingNotFound: "booking not found",
	ErrBookingInvalid:  "invalid booking record",

	// Database
	ErrDatabase:       "database error",
	ErrRecordNotFound: "record not found",

	// Door access
	ErrLockProfileNotFound:   "lock integration profile not found",
	ErrLockConfiguration:     "missing or invalid lock credentials",
	ErrLockVendor:            "lock vendor API error",
	ErrLockCapabilityUnknown: "unknown lock capability",
	ErrWebhookSignature:      "webhook signature validation failed",
}

// Error code to HTTP status mapping
var codeStatusMap = map[int]int{
	// Common
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	// Users
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,

	// Tasks
	ErrTaskNotFound:        StatusNotFound,
	ErrTaskScheduling:      StatusInternalServerError,
	ErrNoOperatorAvailable: StatusBadRequest,

	// Areas
	ErrAreaNotFound:      StatusNotFound,
	ErrAreaDriverUnknown: StatusBadRequest,

	// Bookings
	ErrBookingNotFound: StatusNotFound,
	ErrBookingInvalid:  StatusBadRequest,

	// Database
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// Door access
	ErrLockProfileNotFound:   StatusNotFound,
	ErrLockConfiguration:     StatusBadRequest,
	ErrLockVendor:            StatusInternalServerError,
	ErrLockCapabilityUnknown: StatusBadRequest,
	ErrWebhookSignature:      StatusForbidden,
}

// GetMessage returns the message for an error code
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "unknown error"
}

// GetStatus returns the HTTP status for an error code
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
