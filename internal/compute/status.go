// Package compute implements host-side resource management for a
// heterogeneous compute device: execution contexts with separate dispatch and
// transfer queues, polymorphic memory objects (buffers and images) with
// mapping and consistency helpers, and kernel dispatch with validated
// work-group geometry and completion tracking.
package compute

import (
	"errors"
	"fmt"
)

// Status classifies operation failures. Every resource handle keeps its most
// recent status in a cell queryable via LastStatus, in addition to the error
// returned by the failing call.
type Status int

const (
	StatusOK Status = iota

	// StatusInvalidArgument reports a nil, closed, or wrong-typed handle.
	StatusInvalidArgument

	// StatusAlreadyInUse reports map-on-mapped or timer re-entry.
	StatusAlreadyInUse

	// StatusNotMapped reports unmap without an outstanding mapping. Benign
	// during teardown.
	StatusNotMapped

	// StatusSizeMismatch reports a destination too small for the source, or
	// swap operands of differing size.
	StatusSizeMismatch

	// StatusTypeMismatch reports a buffer/image operation mismatch, or a
	// sub-allocation requested on a non-root or non-buffer object.
	StatusTypeMismatch

	// StatusGeometryInvalid reports dimensionality out of range, a local
	// work-group exceeding the device maximum, or a global size that is not
	// a multiple of its local size.
	StatusGeometryInvalid

	// StatusDeviceError reports a runtime failure with no more specific
	// local meaning. The cause chain carries the driver error.
	StatusDeviceError

	// StatusAllocationFailure reports a failed memory allocation.
	StatusAllocationFailure

	// StatusWrongParent reports an unmap with a region that does not match
	// the recorded mapping.
	StatusWrongParent

	// StatusUndefinedAccessor reports a geometry accessor called on a kind
	// that does not define it, such as Width on a buffer.
	StatusUndefinedAccessor
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusAlreadyInUse:
		return "already in use"
	case StatusNotMapped:
		return "not mapped"
	case StatusSizeMismatch:
		return "size mismatch"
	case StatusTypeMismatch:
		return "type mismatch"
	case StatusGeometryInvalid:
		return "invalid geometry"
	case StatusDeviceError:
		return "device error"
	case StatusAllocationFailure:
		return "allocation failure"
	case StatusWrongParent:
		return "wrong parent object"
	case StatusUndefinedAccessor:
		return "accessor undefined for this kind"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Error makes Status usable directly as an error value.
func (s Status) Error() string { return "compute: " + s.String() }

// statusError pairs a Status with the underlying cause, usually a driver
// error. errors.Is matches the Status, errors.As extracts it, and Unwrap
// exposes the cause chain.
type statusError struct {
	status Status
	cause  error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("compute: %s: %v", e.status, e.cause)
}

func (e *statusError) Unwrap() error { return e.cause }

func (e *statusError) Is(target error) bool {
	s, ok := target.(Status)
	return ok && s == e.status
}

func (e *statusError) As(target any) bool {
	if p, ok := target.(*Status); ok {
		*p = e.status
		return true
	}
	return false
}

func wrapStatus(s Status, cause error) error {
	if cause == nil {
		return s
	}
	return &statusError{status: s, cause: cause}
}

// StatusOf extracts the Status carried by err, or StatusOK for nil and
// StatusDeviceError for errors with no status attached.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusDeviceError
}
