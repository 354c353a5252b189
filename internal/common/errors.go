package common

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies an AppError. Each kind is a distinct failure category and is
// never folded into another one's message text.
type Kind string

const (
	KindValidation  Kind = "VALIDATION_ERROR"
	KindRateLimit   Kind = "RATE_LIMIT_ERROR"
	KindParsing     Kind = "PARSING_ERROR"
	KindRead        Kind = "READ_ERROR"
	KindReadTimeout Kind = "READ_TIMEOUT_ERROR"
	KindConfig      Kind = "CONFIG_ERROR"
)

// MaxMessageLen bounds every AppError message, in runes.
const MaxMessageLen = 500

// AppError represents application-specific errors
type AppError struct {
	Code    Kind
	Message string
	// Details holds the individual issues behind Message.
	Details []string
	// Warnings holds non-fatal findings gathered before the error was raised.
	Warnings []string
	Cause    error
}

// Error returns the human-readable message only; the code is available via
// Code or errors.Is against the sentinels.
func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches the kind sentinels so callers can write errors.Is(err, ErrParsing).
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Code == KindValidation
	case ErrRateLimited:
		return e.Code == KindRateLimit
	case ErrParsing:
		return e.Code == KindParsing
	case ErrRead:
		return e.Code == KindRead
	case ErrReadTimeout:
		return e.Code == KindReadTimeout
	case ErrInvalidInput:
		return e.Code == KindConfig
	}
	return false
}

// Common application errors
var (
	ErrValidation   = errors.New("validation failed")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrParsing      = errors.New("parsing failed")
	ErrRead         = errors.New("read failed")
	ErrReadTimeout  = errors.New("read timed out")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
)

// Error constructors
func NewAppError(code Kind, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: boundMessage(message),
		Cause:   cause,
	}
}

// NewValidationError joins issues into one message. The issues stay in
// Details and the warnings in Warnings.
func NewValidationError(issues []string, warnings []string) *AppError {
	msg := "validation failed"
	if len(issues) > 0 {
		msg = strings.Join(issues, "; ")
	}
	return &AppError{
		Code:     KindValidation,
		Message:  boundMessage(msg),
		Details:  append([]string{}, issues...),
		Warnings: append([]string{}, warnings...),
	}
}

func NewRateLimitError(message string) *AppError {
	return NewAppError(KindRateLimit, message, nil)
}

// ParsingPrefix starts every parsing error message.
const ParsingPrefix = "Error parsing file content: "

// NewParsingError wraps message as "Error parsing file content: <message>".
func NewParsingError(message string) *AppError {
	if strings.TrimSpace(message) == "" {
		message = "Unknown parsing error"
	}
	return NewAppError(KindParsing, ParsingPrefix+message, nil)
}

// WrapParsingError normalizes any failure into a parsing error. Errors that
// are already parsing errors pass through unchanged.
func WrapParsingError(err error) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) && ae.Code == KindParsing {
		return err
	}
	pe := NewParsingError(err.Error())
	pe.Cause = err
	return pe
}

// NewReadError keeps the underlying message verbatim.
func NewReadError(source string, cause error) *AppError {
	msg := "failed to read " + source
	if cause != nil {
		msg = fmt.Sprintf("failed to read %s: %v", source, cause)
	}
	return NewAppError(KindRead, msg, cause)
}

func NewReadTimeoutError(source string, cause error) *AppError {
	return NewAppError(KindReadTimeout, "timed out reading "+source, cause)
}

// KindOf returns the kind of the first AppError in err's chain, or "".
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func boundMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= MaxMessageLen {
		return msg
	}
	r := []rune(msg)
	return string(r[:MaxMessageLen-1]) + "…"
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

// ToStatus maps err onto a gRPC status according to its kind.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindValidation, KindParsing, KindConfig:
		return status.Error(codes.InvalidArgument, err.Error())
	case KindRateLimit:
		return status.Error(codes.ResourceExhausted, err.Error())
	case KindRead:
		return status.Error(codes.Unavailable, err.Error())
	case KindReadTimeout:
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if errors.Is(err, ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	return InternalError(err.Error())
}
