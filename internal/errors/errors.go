// Package errors defines the API error taxonomy shared by handlers and services
package errors

import (
	"errors"
	"net/http"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// APIError represents an error with an associated HTTP status and stable code
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Predefined API errors
var (
	ErrBadRequest        = &APIError{HTTPStatus: http.StatusBadRequest, Code: "BAD_REQUEST", Message: "Invalid request parameters"}
	ErrInvalidJSON       = &APIError{HTTPStatus: http.StatusBadRequest, Code: "INVALID_JSON", Message: "Invalid JSON format"}
	ErrValidation        = &APIError{HTTPStatus: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "Validation failed"}
	ErrDuplicateResource = &APIError{HTTPStatus: http.StatusConflict, Code: "DUPLICATE_RESOURCE", Message: "Resource already exists"}
	ErrResourceNotFound  = &APIError{HTTPStatus: http.StatusNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrInternalServer    = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}
	ErrDatabase          = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "DATABASE_ERROR", Message: "Database operation failed"}
	ErrUnauthorized      = &APIError{HTTPStatus: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Unauthorized access"}
	ErrForbidden         = &APIError{HTTPStatus: http.StatusForbidden, Code: "FORBIDDEN", Message: "Access forbidden"}
	ErrTaskInProgress    = &APIError{HTTPStatus: http.StatusConflict, Code: "TASK_IN_PROGRESS", Message: "A task is already running"}

	// Statistics engine errors
	ErrStoreRead       = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "STORE_READ_ERROR", Message: "Failed to read records from store"}
	ErrStoreWrite      = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "STORE_WRITE_ERROR", Message: "Failed to write records to store"}
	ErrMalformedEntity = &APIError{HTTPStatus: http.StatusUnprocessableEntity, Code: "MALFORMED_ENTITY", Message: "Entity is missing required statistics fields"}
)

// NewAPIError creates a copy of a predefined error with a custom message
func NewAPIError(base *APIError, message string) *APIError {
	return &APIError{
		HTTPStatus: base.HTTPStatus,
		Code:       base.Code,
		Message:    message,
	}
}

// NewValidationError creates a validation error with a custom message
func NewValidationError(message string) *APIError {
	return NewAPIError(ErrValidation, message)
}

// NewAuthenticationError creates an authentication error with a custom message
func NewAuthenticationError(message string) *APIError {
	return NewAPIError(ErrUnauthorized, message)
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(message string) *APIError {
	return NewAPIError(ErrResourceNotFound, message)
}

// ParseDBError maps a database error to the matching APIError
func ParseDBError(err error) *APIError {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResourceNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateResource
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrDuplicateResource
	}

	return ErrDatabase
}
