package errs

import (
	"errors"
	"net/http"
)

const (
	ErrStatusInternalServer = http.StatusInternalServerError
	ErrStatusClient         = http.StatusBadRequest
	ErrStatusNotLoggedIn    = http.StatusUnauthorized
	ErrStatusNoPermission   = http.StatusForbidden
	ErrStatusNotFound       = http.StatusNotFound
	ErrStatusConflict       = http.StatusConflict
)

var (
	ErrInternalServer          = errors.New("Internal server error")
	ErrClient                  = errors.New("Bad request")
	ErrValidation              = errors.New("Request validation failed")
	ErrNotLoggedIn             = errors.New("Access token required")
	ErrInvalidToken            = errors.New("Invalid or expired token")
	ErrInvalidCredentials      = errors.New("Invalid credentials")
	ErrForbidden               = errors.New("Forbidden access")
	ErrNotFound                = errors.New("Resource not found")
	ErrEmailAlreadyUsed        = errors.New("User already exists")
	ErrConflict                = errors.New("Conflicting record found")
	ErrDuplicateSlug           = errors.New("Category slug has already been used")
	ErrUnknownCategory         = errors.New("Category does not exist")
	ErrInsufficientStock       = errors.New("Insufficient stock")
	ErrPriceMismatch           = errors.New("Item price does not match the catalog price")
	ErrInvalidOrderTotals      = errors.New("Order totals do not add up")
	ErrInvalidStatus           = errors.New("Unknown order status")
	ErrInvalidStatusTransition = errors.New("Order status transition is not allowed")
)

var errorMap = map[error]int{
	ErrInternalServer:          ErrStatusInternalServer,
	ErrClient:                  ErrStatusClient,
	ErrValidation:              ErrStatusClient,
	ErrNotLoggedIn:             ErrStatusNotLoggedIn,
	ErrInvalidToken:            ErrStatusNotLoggedIn,
	ErrInvalidCredentials:      ErrStatusNotLoggedIn,
	ErrForbidden:               ErrStatusNoPermission,
	ErrNotFound:                ErrStatusNotFound,
	ErrEmailAlreadyUsed:        ErrStatusClient,
	ErrConflict:                ErrStatusConflict,
	ErrDuplicateSlug:           ErrStatusConflict,
	ErrUnknownCategory:         ErrStatusClient,
	ErrInsufficientStock:       ErrStatusConflict,
	ErrPriceMismatch:           ErrStatusConflict,
	ErrInvalidOrderTotals:      ErrStatusClient,
	ErrInvalidStatus:           ErrStatusClient,
	ErrInvalidStatusTransition: ErrStatusConflict,
}

// GetErrorStatusCode maps err, or the first sentinel it wraps, to an HTTP
// status. Unknown errors are internal.
func GetErrorStatusCode(err error) int {
	if errStatusCode, ok := errorMap[err]; ok {
		return errStatusCode
	}

	for sentinel, errStatusCode := range errorMap {
		if errors.Is(err, sentinel) {
			return errStatusCode
		}
	}

	return errorMap[ErrInternalServer]
}

// IsKnown reports whether err is, or wraps, one of the sentinels above.
func IsKnown(err error) bool {
	for sentinel := range errorMap {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
