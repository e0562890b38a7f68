package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// JSON parsing and construction errors
	ErrCodeMalformedJSON ErrorCode = "MALFORMED_JSON"
	ErrCodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"
	ErrCodeUnicode       ErrorCode = "UNICODE"
	ErrCodeFinalConflict ErrorCode = "FINAL_CONFLICT"
	ErrCodeLocked        ErrorCode = "LOCKED"
	ErrCodeBusy          ErrorCode = "BUSY"
	ErrCodeTypeMismatch  ErrorCode = "TYPE_MISMATCH"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"

	// Signature and algorithm errors
	ErrCodeUnknownAlgorithm ErrorCode = "UNKNOWN_ALGORITHM"
	ErrCodeSignatureInvalid ErrorCode = "SIGNATURE_INVALID"
	ErrCodeCryptoBackend    ErrorCode = "CRYPTO_BACKEND"

	// Claim validation errors
	ErrCodeExpired          ErrorCode = "EXPIRED"
	ErrCodeNotYetValid      ErrorCode = "NOT_YET_VALID"
	ErrCodeIssuedInFuture   ErrorCode = "ISSUED_IN_FUTURE"
	ErrCodeAudienceMismatch ErrorCode = "AUDIENCE_MISMATCH"
	ErrCodeIssuerMismatch   ErrorCode = "ISSUER_MISMATCH"
	ErrCodeSubjectMismatch  ErrorCode = "SUBJECT_MISMATCH"
	ErrCodeBadURI           ErrorCode = "BAD_URI"

	// Key ingest errors
	ErrCodePEMFormat ErrorCode = "PEM_FORMAT"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// SignetError represents a standardized error with context
type SignetError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *SignetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *SignetError) Unwrap() error {
	return e.Cause
}

// WithDetails adds additional context to the error
func (e *SignetError) WithDetails(key string, value interface{}) *SignetError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithOffset records the byte offset of a parse failure
func (e *SignetError) WithOffset(offset int) *SignetError {
	e.Message = fmt.Sprintf("%s at offset %d", e.Message, offset)
	return e.WithDetails("offset", offset)
}

// New creates a new SignetError with the given code and message
func New(code ErrorCode, message string) *SignetError {
	return &SignetError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new SignetError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *SignetError {
	return &SignetError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *SignetError {
	return &SignetError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *SignetError {
	return &SignetError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsSignetError checks if an error is a SignetError
func IsSignetError(err error) bool {
	var se *SignetError
	return errors.As(err, &se)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var se *SignetError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether the error carries the given code
func HasCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// GetHTTPStatus maps an error to the HTTP status used by the serve facade
// and the middleware
func GetHTTPStatus(err error) int {
	switch GetErrorCode(err) {
	case ErrCodeSignatureInvalid, ErrCodeExpired, ErrCodeNotYetValid, ErrCodeIssuedInFuture:
		return http.StatusUnauthorized
	case ErrCodeAudienceMismatch, ErrCodeIssuerMismatch, ErrCodeSubjectMismatch:
		return http.StatusForbidden
	case ErrCodeMalformedJSON, ErrCodeLimitExceeded, ErrCodeUnicode, ErrCodeTypeMismatch,
		ErrCodeBadURI, ErrCodeUnknownAlgorithm, ErrCodePEMFormat:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
