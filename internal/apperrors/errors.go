package apperrors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

// AppError is the application error type. HTTPCode decides the response
// status; Code and Message are sent to the client, Err stays server-side.
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

// WithDetails returns a copy carrying extra response details, so the
// predefined errors below are never mutated.
func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithError returns a copy carrying the underlying error.
func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// Is wraps the standard errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As wraps the standard errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Predefined errors
var (
	// Authentication
	ErrUnauthorized = New(CodeUnauthorized, "Authentication required", http.StatusUnauthorized)
	ErrForbidden    = New(CodeForbidden, "Access denied", http.StatusForbidden)
	ErrInvalidToken = New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)

	// Users
	ErrUserNotFound       = New(CodeUserNotFound, "User not found", http.StatusNotFound)
	ErrEmailAlreadyExists = New(CodeEmailAlreadyExists, "Email already exists", http.StatusConflict)
	ErrWeakPassword       = New(CodeWeakPassword, "Password must be at least 8 characters", http.StatusBadRequest)
	ErrAccountSuspended   = New(CodeSuspendedAccount, "Account suspended", http.StatusForbidden)
	ErrInsufficientRole   = New(CodeInsufficientRole, "Insufficient permissions", http.StatusForbidden)

	// Validation
	ErrValidationFailed = New(CodeValidationFailed, "Validation failed", http.StatusBadRequest)
	ErrInvalidPlan      = New(CodeInvalidPlan, "Unknown tier or billing cycle", http.StatusBadRequest)

	// Courses and enrollments
	ErrCourseNotFound     = New(CodeCourseNotFound, "Course not found", http.StatusNotFound)
	ErrNotCourseOwner     = New(CodeNotCourseOwner, "Course belongs to another coach", http.StatusForbidden)
	ErrCourseNotPublished = New(CodeCourseNotPublished, "Course is not published", http.StatusBadRequest)
	ErrAlreadyEnrolled    = New(CodeAlreadyEnrolled, "Already enrolled in this course", http.StatusConflict)
	ErrEnrollmentNotFound = New(CodeEnrollmentNotFound, "Enrollment not found", http.StatusNotFound)

	// Billing core
	ErrConfiguration          = New(CodeConfiguration, "Service is not configured", http.StatusInternalServerError)
	ErrSubscriptionNotFound   = New(CodeSubscriptionNotFound, "Subscription not found", http.StatusNotFound)
	ErrSubscriptionActive     = New(CodeSubscriptionActive, "An active subscription already exists", http.StatusConflict)
	ErrInvalidTransition      = New(CodeInvalidTransition, "Invalid subscription status transition", http.StatusConflict)
	ErrBillingNotFound        = New(CodeBillingNotFound, "Billing record not found", http.StatusNotFound)
	ErrGatewayUnavailable     = New(CodeGatewayDown, "Payment gateway unreachable", http.StatusBadGateway)
	ErrGatewayRejected        = New(CodeGatewayRejected, "Payment gateway rejected the request", http.StatusBadRequest)
	ErrGatewayResponseInvalid = New(CodeGatewayInvalid, "Payment gateway returned no checkout URL", http.StatusInternalServerError)
)

// Helpers for errors built on the fly

func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}

// PersistenceError wraps a failed database operation.
func PersistenceError(err error) *AppError {
	return Wrap(err, CodePersistence, "Database operation failed", http.StatusInternalServerError)
}

func NewUnauthorizedError(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func NewForbiddenError(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func NewNotFoundError(message string) *AppError {
	return New(CodeUserNotFound, message, http.StatusNotFound)
}

func NewBadRequestError(message string) *AppError {
	return New(CodeValidationFailed, message, http.StatusBadRequest)
}

func NewConflictError(message string) *AppError {
	return New(CodeSubscriptionActive, message, http.StatusConflict)
}
