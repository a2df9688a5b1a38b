package uringbench

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/ehrlich-b/go-uringbench/internal/engine"
	"github.com/ehrlich-b/go-uringbench/internal/uring"
)

// Error is a structured benchmark error with context and errno mapping
type Error struct {
	Op     string        // Step that failed (e.g., "OPEN", "REGISTER_FILES", "RUN")
	Token  uint64        // Operation token (0 if not applicable)
	Offset int64         // Target offset (-1 if not applicable)
	Code   ErrorCode     // High-level error category
	Errno  syscall.Errno // Kernel errno (0 if not applicable)
	Msg    string        // Human-readable message
	Inner  error         // Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Token != 0 {
		parts = append(parts, fmt.Sprintf("token=%d", e.Token))
	}

	if e.Offset >= 0 {
		parts = append(parts, fmt.Sprintf("offset=%d", e.Offset))
	}

	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("uringbench: %s (%s)", msg, strings.Join(parts, ", "))
	}

	return fmt.Sprintf("uringbench: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches sentinels and other structured errors by code
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if s, ok := target.(Sentinel); ok {
		return e.Code == ErrorCode(s)
	}

	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}

	return false
}

// ErrorCode represents high-level error categories
type ErrorCode string

const (
	ErrCodeInvalidParameters  ErrorCode = "invalid parameters"
	ErrCodeSetupFailed        ErrorCode = "setup failed"
	ErrCodeKernelNotSupported ErrorCode = "kernel does not support io_uring"
	ErrCodePermissionDenied   ErrorCode = "permission denied"
	ErrCodeNotFound           ErrorCode = "target not found"
	ErrCodeNoSpace            ErrorCode = "no space left"
	ErrCodeIOError            ErrorCode = "I/O error"
	ErrCodeShortWrite         ErrorCode = "short write"
	ErrCodeRingExhausted      ErrorCode = "submission ring exhausted"
	ErrCodeTransport          ErrorCode = "ring transport failure"
	ErrCodeCancelled          ErrorCode = "cancelled"
)

// Sentinel is a comparable error matching every structured Error of the same code
type Sentinel string

func (e Sentinel) Error() string {
	return "uringbench: " + string(e)
}

const (
	ErrInvalidParameters  Sentinel = Sentinel(ErrCodeInvalidParameters)
	ErrKernelNotSupported Sentinel = Sentinel(ErrCodeKernelNotSupported)
	ErrPermissionDenied   Sentinel = Sentinel(ErrCodePermissionDenied)
	ErrRingExhausted      Sentinel = Sentinel(ErrCodeRingExhausted)
	ErrTransport          Sentinel = Sentinel(ErrCodeTransport)
	ErrCancelled          Sentinel = Sentinel(ErrCodeCancelled)
)

// NewError creates a new structured error
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:     op,
		Code:   code,
		Msg:    msg,
		Offset: -1,
	}
}

// NewOpError converts a per-operation failure record into a structured error
func NewOpError(op OpError) *Error {
	code := ErrCodeShortWrite
	if op.Errno != 0 {
		code = mapErrnoToCode(op.Errno)
	}
	return &Error{
		Op:     op.Kind.String(),
		Token:  op.Token,
		Offset: int64(op.Offset),
		Code:   code,
		Errno:  op.Errno,
		Msg:    op.Error(),
		Inner:  op,
	}
}

// WrapError wraps an existing error with benchmark context
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	var be *Error
	if errors.As(inner, &be) {
		wrapped := *be
		wrapped.Op = op
		return &wrapped
	}

	code := classify(inner)
	var errno syscall.Errno
	if errors.As(inner, &errno) {
		if code == ErrCodeIOError {
			code = mapErrnoToCode(errno)
		}
		return &Error{
			Op:     op,
			Code:   code,
			Errno:  errno,
			Offset: -1,
			Msg:    inner.Error(),
			Inner:  inner,
		}
	}

	return &Error{
		Op:     op,
		Code:   code,
		Offset: -1,
		Msg:    inner.Error(),
		Inner:  inner,
	}
}

// classify maps package sentinels to codes, falling back to ErrCodeIOError
func classify(err error) ErrorCode {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCancelled
	case errors.Is(err, engine.ErrRingExhausted):
		return ErrCodeRingExhausted
	case errors.Is(err, engine.ErrTransport), errors.Is(err, engine.ErrUnknownToken):
		return ErrCodeTransport
	case errors.Is(err, engine.ErrConfig):
		return ErrCodeInvalidParameters
	case errors.Is(err, uring.ErrNotSupported):
		return ErrCodeKernelNotSupported
	default:
		return ErrCodeIOError
	}
}

// mapErrnoToCode maps syscall errno to error codes
func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOENT:
		return ErrCodeNotFound
	case syscall.EINVAL:
		return ErrCodeInvalidParameters
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return ErrCodeKernelNotSupported
	case syscall.EPERM, syscall.EACCES:
		return ErrCodePermissionDenied
	case syscall.ENOSPC, syscall.EDQUOT:
		return ErrCodeNoSpace
	case syscall.EAGAIN, syscall.EBUSY:
		return ErrCodeRingExhausted
	default:
		return ErrCodeIOError
	}
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsErrno checks if an error matches a specific errno
func IsErrno(err error, errno syscall.Errno) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Errno == errno
	}
	return false
}
