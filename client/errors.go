package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingAPIKey     = errors.New("API key is required")
	ErrMissingPrompt     = errors.New("Prompt is required")
	ErrNoMessage         = errors.New("No response message received")
	ErrNoImagesGenerated = errors.New("No images were generated. The model may have returned text-only content.")
)

type ErrorKind string

const (
	ErrorKindInvalidAPIKey       ErrorKind = "invalid_api_key"
	ErrorKindInsufficientCredits ErrorKind = "insufficient_credits"
	ErrorKindRateLimited         ErrorKind = "rate_limited"
	ErrorKindBadRequest          ErrorKind = "bad_request"
	ErrorKindUpstream            ErrorKind = "upstream"
	ErrorKindFailed              ErrorKind = "failed"
)

const (
	msgInvalidAPIKey       = "Invalid API key. Please check your OpenRouter API key."
	msgInsufficientCredits = "Insufficient credits. Please check your OpenRouter account balance."
	msgRateLimited         = "Rate limit exceeded. Please try again later."
	msgGenerationFailed    = "Generation failed"
)

// GenerationError is a failed generation call classified for the user.
// Message is what the user sees; Cause keeps the underlying transport or
// decode failure when there is one.
type GenerationError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// classifyStatus maps a non-2xx response onto the error the user sees.
// upstream is the error message the service put in its body, if any.
func classifyStatus(status int, upstream string) *GenerationError {
	ge := &GenerationError{StatusCode: status}
	switch {
	case status == http.StatusUnauthorized:
		ge.Kind = ErrorKindInvalidAPIKey
		ge.Message = msgInvalidAPIKey
	case status == http.StatusPaymentRequired:
		ge.Kind = ErrorKindInsufficientCredits
		ge.Message = msgInsufficientCredits
	case status == http.StatusTooManyRequests:
		ge.Kind = ErrorKindRateLimited
		ge.Message = msgRateLimited
	case status == http.StatusBadRequest:
		if upstream == "" {
			upstream = "Invalid request format"
		}
		ge.Kind = ErrorKindBadRequest
		ge.Message = "Bad request: " + upstream
	case upstream != "":
		ge.Kind = ErrorKindUpstream
		ge.Message = upstream
	default:
		ge.Kind = ErrorKindFailed
		ge.Message = msgGenerationFailed
		ge.Cause = fmt.Errorf("request failed with status code %d", status)
	}
	return ge
}

func transportError(err error) *GenerationError {
	return &GenerationError{
		Kind:    ErrorKindFailed,
		Message: msgGenerationFailed,
		Cause:   err,
	}
}
