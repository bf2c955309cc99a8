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

// Is reports whether target is a DomainError with the same code and message,
// so wrapped causes still match the sentinel they were built from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
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

// Wrap attaches a cause to a sentinel DomainError, keeping its code and message.
func Wrap(sentinel *DomainError, err error) *DomainError {
	return NewDomainErrorWithCause(sentinel.Code, sentinel.Message, err)
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeFetch         = "FETCH_ERROR"
	ErrCodeInputTooLarge = "INPUT_TOO_LARGE"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeExtraction    = "EXTRACTION_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidMediaType     = NewDomainError(ErrCodeValidation, "invalid media type")
	ErrInvalidProviderID    = NewDomainError(ErrCodeValidation, "provider id must be positive")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidVideoURL      = NewDomainError(ErrCodeValidation, "no video id in url")
)

// Fetch errors
var (
	ErrFetchFailed = NewDomainError(ErrCodeFetch, "fetch failed")
	ErrFetchStatus = NewDomainError(ErrCodeFetch, "unexpected response status")
)

// Size errors
var (
	ErrAudioTooLarge = NewDomainError(ErrCodeInputTooLarge, "audio file exceeds transcription size limit")
)

// Provider errors
var (
	ErrTranscriptionFailed = NewDomainError(ErrCodeProvider, "transcription failed")
	ErrEmbeddingFailed     = NewDomainError(ErrCodeProvider, "embedding failed")
	ErrPersistenceFailed   = NewDomainError(ErrCodeProvider, "persistence failed")
	ErrDownloadFailed      = NewDomainError(ErrCodeProvider, "media download failed")
	ErrCompressionFailed   = NewDomainError(ErrCodeProvider, "audio compression failed")
)

// Extraction errors
var (
	ErrEmptyTranscript  = NewDomainError(ErrCodeExtraction, "transcript has no segments")
	ErrContentTooShort  = NewDomainError(ErrCodeExtraction, "extracted content too short")
	ErrMetadataNotFound = NewDomainError(ErrCodeExtraction, "episode metadata not found")
	ErrExtractionFailed = NewDomainError(ErrCodeExtraction, "text extraction failed")
)

// Not found errors
var (
	ErrNoFeedFound      = NewDomainError(ErrCodeNotFound, "no podcast feed found")
	ErrEpisodeNotFound  = NewDomainError(ErrCodeNotFound, "episode not found in feed")
	ErrNoAudioLink      = NewDomainError(ErrCodeNotFound, "episode has no audio link")
	ErrSourceNotFound   = NewDomainError(ErrCodeNotFound, "source file not found")
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrNoCaptions       = NewDomainError(ErrCodeNotFound, "video has no captions")
)

// Already exists errors
var (
	ErrDocumentExists = NewDomainError(ErrCodeAlreadyExists, "document already ingested")
)
