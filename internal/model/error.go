package model

import "errors"

// Standard error codes for domain errors.
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeOutOfStock          = "OUT_OF_STOCK"
	ErrCodeStockLimitReached   = "STOCK_LIMIT_REACHED"
	ErrCodeInvalidPrice        = "INVALID_PRICE"
	ErrCodeInvalidDiscount     = "INVALID_DISCOUNT"
	ErrCodeInvalidProduct      = "INVALID_PRODUCT"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodePaymentInsufficient = "PAYMENT_INSUFFICIENT"
	ErrCodeCartNotPayable      = "CART_NOT_PAYABLE"
	ErrCodeCartCheckedOut      = "CART_CHECKED_OUT"
	ErrCodeSessionClosed       = "SESSION_CLOSED"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(ErrCodeNotFound, "not found")
	ErrOutOfStock          = NewDomainError(ErrCodeOutOfStock, "product is out of stock")
	ErrStockLimitReached   = NewDomainError(ErrCodeStockLimitReached, "stock limit reached")
	ErrInvalidPrice        = NewDomainError(ErrCodeInvalidPrice, "price must be a finite number greater than or equal to zero")
	ErrInvalidDiscount     = NewDomainError(ErrCodeInvalidDiscount, "invalid discount")
	ErrInvalidProduct      = NewDomainError(ErrCodeInvalidProduct, "invalid product")
	ErrInsufficientStock   = NewDomainError(ErrCodeInsufficientStock, "insufficient stock")
	ErrPaymentInsufficient = NewDomainError(ErrCodePaymentInsufficient, "amount paid is less than the total")
	ErrCartNotPayable      = NewDomainError(ErrCodeCartNotPayable, "cart is empty or its total is not positive")
	ErrCartCheckedOut      = NewDomainError(ErrCodeCartCheckedOut, "cart was already checked out; start a new sale")
	ErrSessionClosed       = NewDomainError(ErrCodeSessionClosed, "session is closed")
)

// ErrorCode returns the code of the first DomainError in err's chain, or "" when there is none.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
