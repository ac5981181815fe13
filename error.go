package consumer

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

var (
	// ErrNotConfigured is returned when a Consumer is used before its endpoint is set.
	ErrNotConfigured = errors.New("consumer is not configured")
	// ErrNotJSON is wrapped by DecodeError when a payload is neither a JSON object nor an array.
	ErrNotJSON = errors.New("response is neither a JSON object nor an array")
)

// ConfigurationError reports a Consumer missing a required setting.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("[consumer] %s is not set", e.Field)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrNotConfigured
}

// HttpError is returned for any response outside of the 2xx range. It keeps
// the raw response untouched, no object mapping is applied to it.
type HttpError struct {
	Code     int
	Body     []byte
	Response *Response
}

func (e *HttpError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("HTTP Error %d: %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("HTTP Error %d: %s", e.Code, e.Body)
}

// Message returns the "error" or "message" string of a JSON error body, or
// an empty string when the body carries neither.
func (e *HttpError) Message() string {
	if e.Response == nil {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if msg, err := e.Response.LookupString(key); err == nil {
			return msg
		}
	}
	return ""
}

func (e *HttpError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return os.ErrPermission
	case http.StatusNotFound:
		return fs.ErrNotExist
	default:
		return nil
	}
}

// TransportError is a network level failure: no response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("[consumer] %s %s failed: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a successful response carries a payload that
// cannot be mapped onto objects.
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("[consumer] failed to decode response: %s", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	var e *HttpError
	return errors.As(err, &e) && e.Code == http.StatusNotFound
}

// IsHttpError reports whether err is a non-2xx response and returns it.
func IsHttpError(err error) (*HttpError, bool) {
	var e *HttpError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsDecode reports whether err comes from decoding a successful response.
func IsDecode(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// IsConfiguration reports whether err is due to a missing setting.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
