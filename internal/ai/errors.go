package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

var (
	ErrEmptyResponse    = errors.New("AI returned an empty response")
	ErrInvalidStructure = errors.New("AI response has an invalid structure")
)

// Kind categorises a provider failure for user-facing reporting. None of them are retried automatically.
type Kind int

const (
	KindUnavailable Kind = iota
	KindPermission
	KindSafety
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission"
	case KindSafety:
		return "safety"
	case KindMalformed:
		return "malformed"
	default:
		return "unavailable"
	}
}

const (
	messagePermission  = "Connection to the AI service failed. This may be due to an invalid or restricted API key. Please check the application's configuration."
	messageSafety      = "The request was blocked due to safety concerns. Please try different locations."
	messageMalformed   = "The AI returned a malformed response. Please try your search again."
	messageUnavailable = "Sorry, we couldn't fetch cab details. The AI might be busy or the locations are invalid. Please try again."
)

// Error is a classified provider failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps any provider error onto a Kind. Already classified errors pass through.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	text := err.Error()
	var blocked *genai.BlockedError
	var syntax *json.SyntaxError
	switch {
	case strings.Contains(text, "PERMISSION_DENIED") || strings.Contains(text, "API key not valid"):
		return &Error{Kind: KindPermission, Message: messagePermission, Err: err}
	case errors.As(err, &blocked) || strings.Contains(text, "SAFETY"):
		return &Error{Kind: KindSafety, Message: messageSafety, Err: err}
	case errors.As(err, &syntax) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrInvalidStructure) || strings.Contains(text, "malformed"):
		return &Error{Kind: KindMalformed, Message: messageMalformed, Err: err}
	default:
		return &Error{Kind: KindUnavailable, Message: messageUnavailable, Err: err}
	}
}

// UserMessage is the single message shown to the user for a failed search.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return Classify(err).Message
}
