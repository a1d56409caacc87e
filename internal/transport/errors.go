package transport

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by *Error through errors.Is.
var (
	ErrTimeout     = errors.New("request timeout")
	ErrUnreachable = errors.New("backend unreachable")
	ErrClient      = errors.New("client error")
	ErrServer      = errors.New("server error")
)

// Kind classifies a transport failure.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindUnreachable
	KindClient
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	case KindClient:
		return "client_error"
	case KindServer:
		return "server_error"
	default:
		return "unknown"
	}
}

// Error is a classified transport failure. Message is fit for display.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int    // HTTP status, zero when no response was received
	Detail  string // backend-provided detail, if any
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrClient:
		return e.Kind == KindClient
	case ErrServer:
		return e.Kind == KindServer
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var te *Error
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}

func statusMessage(status int, detail string) string {
	switch {
	case status >= 500:
		if detail == "" {
			detail = "internal server error"
		}
		return "server error: " + detail
	case detail != "":
		return detail
	case status == 413:
		return "file too large, please upload smaller files"
	case status == 400:
		return "invalid request, please check the payload"
	case status == 401:
		return "not authenticated"
	case status == 404:
		return "not found"
	default:
		return fmt.Sprintf("request failed with status %d", status)
	}
}
