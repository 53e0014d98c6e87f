package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Kind classifies an API error so callers can branch without parsing
// messages.
type Kind string

const (
	KindUnauthenticated   Kind = "unauthenticated"
	KindValidation        Kind = "validation"
	KindUpstream          Kind = "upstream"
	KindUnavailable       Kind = "unavailable"
	KindUnsupportedSymbol Kind = "unsupported_symbol"
	KindNotFound          Kind = "not_found"
	KindAlreadyTerminal   Kind = "already_terminal"
	KindNotImplemented    Kind = "not_implemented"
)

// Error represents a failed API operation.
type Error struct {
	Kind       Kind
	StatusCode int // HTTP status, 0 when the request never reached the wire
	Code       int // E*TRADE error code, 0 when absent
	Message    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.StatusCode != 0 {
		msg = http.StatusText(e.StatusCode)
	}
	switch e.Kind {
	case KindUnauthenticated:
		return fmt.Sprintf("not authenticated: %s", msg)
	case KindValidation:
		return fmt.Sprintf("invalid request: %s", msg)
	case KindNotFound:
		return fmt.Sprintf("not found: %s", msg)
	case KindAlreadyTerminal:
		return fmt.Sprintf("order already in a terminal state: %s", msg)
	case KindNotImplemented:
		return fmt.Sprintf("not implemented: %s", msg)
	case KindUnsupportedSymbol:
		return fmt.Sprintf("unsupported symbol: %s", msg)
	case KindUnavailable:
		return fmt.Sprintf("source unavailable: %s", msg)
	default:
		if e.StatusCode != 0 {
			return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
		}
		return fmt.Sprintf("API error: %s", msg)
	}
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error chain. Unclassified errors
// report KindUpstream.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUpstream
}

// errorBody matches the JSON error envelope E*TRADE wraps rejections in.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"Error"`
}

// CheckResponse converts a non-2xx response into an *Error, decoding the
// E*TRADE error envelope when present. Returns nil for 2xx responses.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &Error{Kind: KindUpstream, StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		apiErr.Kind = KindUnauthenticated
	case http.StatusNotFound:
		apiErr.Kind = KindNotFound
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		// Not the JSON envelope; keep the raw body as the message.
		apiErr.Message = string(body)
		return apiErr
	}

	apiErr.Code = envelope.Error.Code
	apiErr.Message = envelope.Error.Message
	return apiErr
}
