package common

import (
	"errors"
	"fmt"
)

// Conversion error types
var (
	ErrUnsupportedFormat       = errors.New("unsupported image format")
	ErrCorruptData             = errors.New("image data could not be decoded")
	ErrEmptyInput              = errors.New("no images to assemble")
	ErrNoPendingImages         = errors.New("no pending images to convert")
	ErrAssembly                = errors.New("pdf assembly failed")
	ErrInvalidCompressionLevel = errors.New("invalid compression level")
)

// ErrorKind is the closed set of failure categories handed to transports.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindCorruptData       ErrorKind = "corrupt_data"
	KindEmptyInput        ErrorKind = "empty_input"
	KindNoPendingImages   ErrorKind = "no_pending_images"
	KindAssembly          ErrorKind = "assembly_error"
	KindInvalidLevel      ErrorKind = "invalid_level"
	KindInternal          ErrorKind = "internal"
)

// KindOf classifies err. Errors outside the taxonomy are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrCorruptData):
		return KindCorruptData
	case errors.Is(err, ErrNoPendingImages):
		return KindNoPendingImages
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrAssembly):
		return KindAssembly
	case errors.Is(err, ErrInvalidCompressionLevel):
		return KindInvalidLevel
	default:
		return KindInternal
	}
}

// ConversionError represents a failed session operation
type ConversionError struct {
	Operation string
	UserKey   string
	Err       error
}

func (e *ConversionError) Error() string {
	if e.UserKey != "" {
		return fmt.Sprintf("%s failed for user %s: %v", e.Operation, e.UserKey, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Kind returns the category of the wrapped error.
func (e *ConversionError) Kind() ErrorKind {
	return KindOf(e.Err)
}

// NewConversionError creates a new conversion error
func NewConversionError(operation, userKey string, err error) *ConversionError {
	return &ConversionError{
		Operation: operation,
		UserKey:   userKey,
		Err:       err,
	}
}
