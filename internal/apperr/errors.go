// Package apperr is the error taxonomy shared by the cart and order services
// and the HTTP boundary that renders it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure. Each kind maps to one HTTP status.
type Kind int

const (
	KindDependency Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindAuth:
		return "AUTH"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	default:
		return "DEPENDENCY"
	}
}

// HTTPStatus returns the status code a Kind is rendered with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a categorized failure. Code identifies the specific condition
// (for example "duplicate_item") and is what errors.Is compares.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind and Code, so that a
// re-messaged sentinel (see With) still satisfies errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// With returns a copy of the sentinel carrying a more specific message.
func (e *Error) With(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// Wrap returns a copy of the sentinel that wraps cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Dependency wraps a failure of the store, the catalog or the payment gateway.
func Dependency(message string, cause error) *Error {
	return &Error{Kind: KindDependency, Code: "dependency", Message: message, Err: cause}
}

var (
	ErrUnauthenticated = New(KindAuth, "unauthenticated", "Authentication required")
	ErrTokenExpired    = New(KindAuth, "token_expired", "Token expired. Please log in again.")
	ErrInvalidToken    = New(KindAuth, "invalid_token", "Invalid or malformed token")
	ErrForbidden       = New(KindForbidden, "forbidden", "Admin privileges required")

	ErrDuplicateItem   = New(KindConflict, "duplicate_item", "Item with this size is already in the cart")
	ErrInvalidQuantity = New(KindValidation, "invalid_quantity", "Invalid quantity")
	ErrIncompleteOrder = New(KindValidation, "incomplete_order", "Missing required order information")
	ErrInvalidStatus   = New(KindValidation, "invalid_status", "Invalid status")
	ErrInvalidPayment  = New(KindValidation, "invalid_payment_method", "Unsupported payment method")

	ErrProductNotFound = New(KindNotFound, "product_not_found", "Product not found")
	ErrOrderNotFound   = New(KindNotFound, "order_not_found", "Order not found")
	ErrItemNotFound    = New(KindNotFound, "item_not_found", "Order item not found")
)

// KindOf reports the Kind of err. Errors outside the taxonomy are
// dependency failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependency
}

// PublicMessage is the message safe to show a client. Dependency errors
// never leak their cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
