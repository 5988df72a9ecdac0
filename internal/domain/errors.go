package domain

import "errors"

// Not-found errors
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketTypeNotFound   = errors.New("ticket type not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Validation errors
var (
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrInvalidTicketType   = errors.New("ticket type name is required")
	ErrInvalidEventStatus  = errors.New("event is not open for ticket sales")
	ErrInvalidQRCode       = errors.New("invalid QR code")
	ErrInvalidDates        = errors.New("end date must be after start date")
	ErrUnknownEventStatus  = errors.New("unknown event status")
	ErrMissingTransaction  = errors.New("transaction hash is required")
	ErrInvalidNotification = errors.New("invalid notification type")

	ErrUnknownTransactionStatus = errors.New("unknown transaction status")
)

// Conflict errors
var (
	ErrCapacityExceeded     = errors.New("not enough tickets available")
	ErrTicketAlreadyUsed    = errors.New("ticket already used")
	ErrTicketNotActive      = errors.New("ticket is not active")
	ErrDuplicateTransaction = errors.New("transaction hash already recorded")
	ErrEventHasActiveSales  = errors.New("event has active tickets and cannot be deleted")
	ErrInvalidStatusChange  = errors.New("transaction status cannot change that way")
)

// IsNotFoundError reports whether err is one of the not-found sentinels.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrTicketTypeNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrNotificationNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidTicketType) ||
		errors.Is(err, ErrInvalidEventStatus) ||
		errors.Is(err, ErrInvalidQRCode) ||
		errors.Is(err, ErrInvalidDates) ||
		errors.Is(err, ErrUnknownEventStatus) ||
		errors.Is(err, ErrMissingTransaction) ||
		errors.Is(err, ErrInvalidNotification) ||
		errors.Is(err, ErrUnknownTransactionStatus)
}

// IsConflictError reports whether err is a state conflict that the client
// cannot fix by changing the request payload.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrTicketAlreadyUsed) ||
		errors.Is(err, ErrTicketNotActive) ||
		errors.Is(err, ErrDuplicateTransaction) ||
		errors.Is(err, ErrEventHasActiveSales) ||
		errors.Is(err, ErrInvalidStatusChange)
}
