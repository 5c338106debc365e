package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound         = errors.New("data not found")
	ErrConflictingData      = errors.New("data conflicts with existing data in unique column")
	ErrDuplicateOrderNumber = errors.New("order number already taken")

	// * Communication errors.
	ErrInvalidRequest = errors.New("invalid request")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrInvalidCredentials         = errors.New("invalid email or password")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrUnauthenticated            = errors.New("authentication required")
	ErrForbidden                  = errors.New("user is forbidden to access the resource")

	// * Business errors.
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when nothing was collected.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// StockError ties a catalog failure to the product that caused it.
type StockError struct {
	ProductID uint64
	Err       error
}

func (e *StockError) Error() string {
	if errors.Is(e.Err, ErrDataNotFound) {
		return fmt.Sprintf("product %d not found", e.ProductID)
	}
	return fmt.Sprintf("%s for product %d", e.Err, e.ProductID)
}

func (e *StockError) Unwrap() error {
	return e.Err
}
