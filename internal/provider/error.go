// Package provider holds what the remote media API clients have in common:
// the structured error they return and the helpers that build it.
package provider

import (
	"errors"
	"fmt"
)

// ErrorKind separates the ways a provider call can fail.
type ErrorKind int

const (
	// KindTransport means the request never produced a response.
	KindTransport ErrorKind = iota
	// KindRemote means the provider answered with an error payload or status.
	KindRemote
	// KindParse means the response could not be decoded locally.
	KindParse
	// KindNotFound means the request succeeded but matched nothing usable.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRemote:
		return "remote"
	case KindParse:
		return "parse"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// ErrAmbiguousResult is returned when a lookup expected exactly one item.
var ErrAmbiguousResult = errors.New("expected exactly one result")

// Error is returned by every provider client. Message is always set and is
// safe to show to a user; Err carries the underlying cause when there is one.
type Error struct {
	Provider string
	Kind     ErrorKind
	Code     int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s error %d: %s", e.Provider, e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var _ error = (*Error)(nil)

func Transport(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindTransport, Message: err.Error(), Err: err}
}

func Remote(provider string, code int, message string) *Error {
	return &Error{Provider: provider, Kind: KindRemote, Code: code, Message: message}
}

func Parse(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindParse, Message: err.Error(), Err: err}
}

func NotFound(provider, message string) *Error {
	return &Error{Provider: provider, Kind: KindNotFound, Code: 404, Message: message}
}

// IsKind reports whether err is a provider *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == kind
}
