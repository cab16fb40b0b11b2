package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeStore            = "STORE_ERROR"
	ErrCodeGateway          = "GATEWAY_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidEntityType    = NewDomainError(ErrCodeValidation, "invalid entity type")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrCountryNotEnabled    = NewDomainError(ErrCodeValidation, "country is not enabled")
	ErrTypeNotEnabled       = NewDomainError(ErrCodeValidation, "entity type is not enabled")
	ErrInvalidCountryCode   = NewDomainError(ErrCodeValidation, "invalid ISO-3166 country code")
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query cannot be empty")
)

// Not found errors
var (
	ErrEntityNotFound = NewDomainError(ErrCodeNotFound, "entity not found")
	ErrSourceNotFound = NewDomainError(ErrCodeNotFound, "data source not found")
	ErrJobNotFound    = NewDomainError(ErrCodeNotFound, "scheduled job not found")
)

// Gateway errors
var (
	ErrEmbeddingFailed  = NewDomainError(ErrCodeGateway, "embedding generation failed")
	ErrCompletionFailed = NewDomainError(ErrCodeGateway, "completion generation failed")
)

// Operation errors
var (
	ErrResetNotConfirmed   = NewDomainError(ErrCodeInvalidOperation, "store reset requires explicit confirmation")
	ErrSchedulerDisabled   = NewDomainError(ErrCodeInvalidOperation, "scheduler is disabled by configuration")
	ErrSchedulerNotRunning = NewDomainError(ErrCodeInvalidOperation, "scheduler is not running")
)
