package model

import "net/http"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidParameter  = "INVALID_PARAMETER"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeInvalidAmount     = "INVALID_AMOUNT"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeOrderFailed       = "ORDER_PAYMENT_FAILED"
	ErrCodeInvalidSignature  = "PAYMENT_VERIFICATION_FAILED"
	ErrCodeGatewayError      = "GATEWAY_ERROR"
	ErrCodeOrderNotRecorded  = "ORDER_NOT_RECORDED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
	Status  int
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Common domain errors
var (
	ErrMissingField      = NewDomainError(ErrCodeMissingField, "A required field is missing", http.StatusBadRequest)
	ErrEmptyCart         = NewDomainError(ErrCodeEmptyCart, "Order must contain at least one item", http.StatusBadRequest)
	ErrInvalidQuantity   = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be a positive whole number within range", http.StatusBadRequest)
	ErrInvalidAmount     = NewDomainError(ErrCodeInvalidAmount, "Order total must be greater than zero and within range", http.StatusBadRequest)
	ErrProductNotFound   = NewDomainError(ErrCodeProductNotFound, "One or more products not found", http.StatusNotFound)
	ErrInsufficientStock = NewDomainError(ErrCodeInsufficientStock, "Not enough stock for one or more products", http.StatusConflict)
	ErrOrderNotFound     = NewDomainError(ErrCodeOrderNotFound, "Order not found", http.StatusNotFound)
	ErrOrderFailed       = NewDomainError(ErrCodeOrderFailed, "Order payment has already failed", http.StatusConflict)
	ErrInvalidSignature  = NewDomainError(ErrCodeInvalidSignature, "Payment verification failed", http.StatusBadRequest)
	ErrOrderNotRecorded  = NewDomainError(ErrCodeOrderNotRecorded, "Payment order was created but could not be recorded", http.StatusInternalServerError)
)
