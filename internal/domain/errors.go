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

// Is matches any DomainError carrying the same code, so callers can test
// wrapped errors against the package sentinels with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeExtraction       = "EXTRACTION_ERROR"
	ErrCodeEmbeddingService = "EMBEDDING_SERVICE"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodePermission       = "PERMISSION_ERROR"
	ErrCodeGeneration       = "GENERATION_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Pipeline and retrieval errors
var (
	// ErrEmbeddingService: the external embedding capability errored or
	// timed out. Aborts the current document; partial chunk writes remain.
	ErrEmbeddingService = NewDomainError(ErrCodeEmbeddingService, "embedding service failed")

	// ErrStoreUnavailable: the persistence engine cannot be reached.
	// Ingestion drops the document; context assembly degrades to empty.
	ErrStoreUnavailable = NewDomainError(ErrCodeStoreUnavailable, "content store unavailable")

	// ErrExtraction: link/file/document extraction failed. Isolated per
	// item and replaced with a placeholder, never propagated.
	ErrExtraction = NewDomainError(ErrCodeExtraction, "content extraction failed")

	// ErrPermissionDenied: an access-gated document source refused us.
	// Surfaced as an actionable chat reply in addition to being logged.
	ErrPermissionDenied = NewDomainError(ErrCodePermission, "access to document source denied")

	// ErrGeneration: the summarizer or answerer failed. Replaced with a
	// static apology at the call site.
	ErrGeneration = NewDomainError(ErrCodeGeneration, "generative call failed")
)

// Validation errors
var (
	ErrChunkNotFound  = NewDomainError(ErrCodeNotFound, "chunk not found")
	ErrMissingChannel = NewDomainError(ErrCodeValidation, "missing channel identifier")
	ErrMissingThread  = NewDomainError(ErrCodeValidation, "missing thread identifier")
	ErrInvalidCursor  = NewDomainError(ErrCodeValidation, "invalid pagination cursor")
	ErrEmptyQuery     = NewDomainError(ErrCodeValidation, "query text cannot be empty")
)
