package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	openai "github.com/sashabaranov/go-openai"
)

// ErrModelRefusal marks an answer the model declined to give.
var ErrModelRefusal = errors.New("model refused")

// RefusalError carries the refusal text or finish reason reported by the provider.
type RefusalError struct {
	Reason string
}

func (e *RefusalError) Error() string {
	if e.Reason == "" {
		return ErrModelRefusal.Error()
	}
	return fmt.Sprintf("%s: %s", ErrModelRefusal, e.Reason)
}

func (e *RefusalError) Is(target error) bool { return target == ErrModelRefusal }

// TransportError is returned once every retry attempt against the provider failed.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model transport failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// statusCoder is implemented by provider errors that expose an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// Retryable reports whether err is a server-side (5xx) or transport failure.
// Refusals and cancellations never are.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrModelRefusal) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 500
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode() >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
