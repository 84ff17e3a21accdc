package capture

import (
	"errors"
	"fmt"
)

// ErrorCode classifies capture-layer errors.
type ErrorCode int

const (
	// CodePermissionDenied indicates microphone permission was not granted.
	CodePermissionDenied ErrorCode = iota
	// CodeAlreadyActive indicates a capture was already in progress.
	// Start resolves this implicitly (last start wins), so it is only
	// seen by callers driving a Recorder directly.
	CodeAlreadyActive
	// CodeDevice indicates the capture device failed to start or stop.
	CodeDevice
	// CodeFileMissing indicates the recorder finalized without
	// producing a file.
	CodeFileMissing
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case CodePermissionDenied:
		return "permission_denied"
	case CodeAlreadyActive:
		return "already_active"
	case CodeDevice:
		return "device_error"
	case CodeFileMissing:
		return "file_missing"
	default:
		return "unknown"
	}
}

// Error is a classified capture error.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("capture: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newPermissionDenied() *Error {
	return &Error{
		Code:    CodePermissionDenied,
		Message: "microphone permission not granted",
	}
}

func newDeviceError(op string, err error) *Error {
	return &Error{
		Code:    CodeDevice,
		Message: fmt.Sprintf("%s capture: %v", op, err),
		Err:     err,
	}
}

func newFileMissing(path string) *Error {
	return &Error{
		Code:    CodeFileMissing,
		Message: fmt.Sprintf("recorder produced no file at %s", path),
	}
}

// IsPermissionDenied checks if an error is a permission error.
func IsPermissionDenied(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodePermissionDenied
}

// IsDeviceError checks if an error is a capture device error.
func IsDeviceError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeDevice
}

// IsFileMissing checks if an error signals a capture that produced no file.
func IsFileMissing(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeFileMissing
}
