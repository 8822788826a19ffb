package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorPrefix starts the content of every assistant turn built from a Failure.
const ErrorPrefix = "Error getting response: "

var (
	ErrNoChoices       = errors.New("completion response contained no choices")
	ErrEmptyCompletion = errors.New("completion response contained no text")
)

// Failure is the single error kind produced by the gateway. It covers
// transport errors, service-reported errors and malformed responses alike.
type Failure struct {
	// StatusCode is the HTTP status reported by the service, or 0 when the
	// request never produced a response.
	StatusCode int
	Cause      error
}

func newFailure(cause error) *Failure {
	f := &Failure{Cause: cause}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(cause, &apiErr):
		f.StatusCode = apiErr.HTTPStatusCode
	case errors.As(cause, &reqErr):
		f.StatusCode = reqErr.HTTPStatusCode
	}

	return f
}

func (f *Failure) Error() string {
	if f == nil || f.Cause == nil {
		return "unknown gateway failure"
	}

	msg := strings.TrimSpace(f.Cause.Error())
	if msg == "" {
		msg = fmt.Sprintf("%T", f.Cause)
	}
	return msg
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Cause
}

// Diagnostic renders the failure as text suitable for an assistant turn.
func (f *Failure) Diagnostic() string {
	return ErrorPrefix + f.Error()
}
