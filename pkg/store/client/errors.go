package client

import (
	"context"
	"errors"
	"net/url"
)

// FallbackMessage is shown when a failure carries no description at all.
const FallbackMessage = "Failed to fetch stock analysis. Make sure backend is running on " + DefaultBaseURL

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindTransport  ErrorKind = "transport"
	KindStatus     ErrorKind = "status"
	KindDecode     ErrorKind = "decode"
	KindTimeout    ErrorKind = "timeout"
)

// RequestError is the only error type returned by Client. Message is ready
// to be displayed as is.
type RequestError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// resolveMessage picks the display message: backend detail, then the
// underlying cause, then FallbackMessage.
func resolveMessage(detail string, cause error) string {
	if detail != "" {
		return detail
	}
	if desc := describe(cause); desc != "" {
		return desc
	}
	return FallbackMessage
}

// describe strips the *url.Error envelope so that the message names the
// actual cause rather than repeating the request URL.
func describe(err error) string {
	if err == nil {
		return ""
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

func transportKind(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransport
}
