package tts

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is the cause of validation errors for blank input.
	ErrEmptyText = errors.New("text is empty or contains only whitespace")

	// ErrInvalidSpeed indicates a speed outside 0.5..2.0.
	ErrInvalidSpeed = errors.New("speed must be between 0.5 and 2.0")

	// ErrInvalidPitch indicates a pitch outside -1..1.
	ErrInvalidPitch = errors.New("pitch must be between -1.0 and 1.0")

	// ErrUnknownEngine indicates an engine name that is not supported.
	ErrUnknownEngine = errors.New("unknown TTS engine")
)

// ErrorCode identifies the class of an Error.
type ErrorCode string

const (
	// CodeInvalidInput marks a caller precondition failure, raised before I/O.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	// CodeSynthesis marks a synthesis backend failure.
	CodeSynthesis ErrorCode = "SYNTHESIS_FAILURE"
	// CodePlayback marks a playback backend failure.
	CodePlayback ErrorCode = "PLAYBACK_FAILURE"
	// CodeUnavailable marks a backend that failed its availability probe.
	CodeUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
)

// Error is a TTS error with a class, a message and optional context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same code, so errors.Is(err,
// &Error{Code: CodePlayback}) tests the class.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Code == e.Code
}

// WithContext attaches a key/value pair for logging.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewError creates an Error.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewValidationError reports blank or otherwise invalid input to engine.
func NewValidationError(engine string, cause error) *Error {
	return NewError(CodeInvalidInput, engine+" synthesis failed", cause).WithContext("engine", engine)
}

// NewSynthesisError wraps a backend failure of engine. An error that is
// already an *Error is returned unchanged.
func NewSynthesisError(engine string, cause error) error {
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return NewError(CodeSynthesis, engine+" synthesis failed", cause).WithContext("engine", engine)
}

// NewPlaybackError wraps a playback backend failure. An error that is
// already an *Error is returned unchanged.
func NewPlaybackError(cause error) error {
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return NewError(CodePlayback, "audio playback failed", cause)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return hasCode(err, CodeInvalidInput) }

// IsSynthesis reports whether err is a synthesis error.
func IsSynthesis(err error) bool { return hasCode(err, CodeSynthesis) }

// IsPlayback reports whether err is a playback error.
func IsPlayback(err error) bool { return hasCode(err, CodePlayback) }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
