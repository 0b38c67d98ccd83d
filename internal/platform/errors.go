package platform

import (
	"errors"
	"fmt"
)

// Kind classifies platform failures.
type Kind int

const (
	KindWindowCreation Kind = iota + 1
	KindEvent
	KindPlatformNotSupported
	KindDisplayInitFailed
	KindNoWindowSet
	KindGPU
	KindTimeout
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindWindowCreation:
		return "window creation error"
	case KindEvent:
		return "event error"
	case KindPlatformNotSupported:
		return "platform not supported"
	case KindDisplayInitFailed:
		return "display initialization failed"
	case KindNoWindowSet:
		return "no window set"
	case KindGPU:
		return "gpu error"
	case KindTimeout:
		return "timed out"
	case KindUnsupported:
		return "unsupported operation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every platform operation.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a platform error of the same kind, so the
// package sentinels match any detail.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Detail == "" && t.Err == nil
}

// Sentinels for use with errors.Is.
var (
	ErrWindowCreation       = &Error{Kind: KindWindowCreation}
	ErrEvent                = &Error{Kind: KindEvent}
	ErrPlatformNotSupported = &Error{Kind: KindPlatformNotSupported}
	ErrDisplayInitFailed    = &Error{Kind: KindDisplayInitFailed}
	ErrNoWindowSet          = &Error{Kind: KindNoWindowSet}
	ErrGPU                  = &Error{Kind: KindGPU}
	ErrTimeout              = &Error{Kind: KindTimeout}
	ErrUnsupported          = &Error{Kind: KindUnsupported}
)

// WindowCreationError reports a failed native window creation.
func WindowCreationError(detail string, err error) *Error {
	return &Error{Kind: KindWindowCreation, Detail: detail, Err: err}
}

// EventError reports an unrecoverable event loop failure.
func EventError(detail string, err error) *Error {
	return &Error{Kind: KindEvent, Detail: detail, Err: err}
}

// GPUError reports a GPU instance, device, surface or swapchain failure.
func GPUError(detail string, err error) *Error {
	return &Error{Kind: KindGPU, Detail: detail, Err: err}
}

// DisplayInitError reports that the native display connection could not be opened.
func DisplayInitError(err error) *Error {
	return &Error{Kind: KindDisplayInitFailed, Err: err}
}

// NoWindowSetError reports a missing or invalid attached window.
func NoWindowSetError(detail string) *Error {
	return &Error{Kind: KindNoWindowSet, Detail: detail}
}

// TimeoutError reports a bounded wait that expired.
func TimeoutError(detail string) *Error {
	return &Error{Kind: KindTimeout, Detail: detail}
}

// UnsupportedError reports an operation the current backend cannot perform.
func UnsupportedError(op string) *Error {
	return &Error{Kind: KindUnsupported, Detail: op}
}
