package code

// HTTP status codes.
const (
	// StatusOK - 200: success.
	StatusOK = 200
	// StatusBadRequest - 400: invalid request parameters.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: unauthorized.
	StatusUnauthorized = 401
	// StatusForbidden - 403: forbidden.
	StatusForbidden = 403
	// StatusNotFound - 404: resource not found.
	StatusNotFound = 404
	// StatusInternalServerError - 500: internal server error.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: too many requests.
	StatusTooManyRequests = 429
)

// Common error codes (100xxx).
const (
	// ErrSuccess - 200: success.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: unknown error.
	ErrUnknown
	// ErrBind - 400: request binding failed.
	ErrBind
	// ErrValidation - 400: request validation failed.
	ErrValidation
	// ErrTokenInvalid - 401: invalid token.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: request rate too high.
	ErrTooManyRequests
)

// User error codes (101xxx).
const (
	// ErrUserNotFound - 404: user not found.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: user already exists.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: incorrect password.
	ErrUserPasswordIncorrect
)

// Task error codes (102xxx).
const (
	// ErrTaskNotFound - 404: task not found.
	ErrTaskNotFound int = iota + 102000
	// ErrTaskScheduling - 500: task scheduling failed.
	ErrTaskScheduling
	// ErrNoOperatorAvailable - 400: no operator with free capacity.
	ErrNoOperatorAvailable
)

// Area error codes (103xxx).
const (
	// ErrAreaNotFound - 404: area not found.
	ErrAreaNotFound int = iota + 103000
	// ErrAreaDriverUnknown - 400: unknown area driver key.
	ErrAreaDriverUnknown
)

// Booking error codes (104xxx).
const (
	// ErrBookingNotFound - 404: booking not found.
	ErrBookingNotFound int = iota + 104000
	// ErrBookingInvalid - 400: booking record is invalid.
	ErrBookingInvalid
)

// Database error codes (105xxx).
const (
	// ErrDatabase - 500: database error.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: record not found.
	ErrRecordNotFound
)

// Door-access error codes (106xxx).
const (
	// ErrLockProfileNotFound - 404: lock integration profile not found.
	ErrLockProfileNotFound int = iota + 106000
	// ErrLockConfiguration - 400: missing or invalid lock credentials.
	ErrLockConfiguration
	// ErrLockVendor - 500: vendor API returned an error.
	ErrLockVendor
	// ErrLockCapabilityUnknown - 400: unknown capability name.
	ErrLockCapabilityUnknown
	// ErrWebhookSignature - 403: webhook signature validation failed.
	ErrWebhookSignature
)
