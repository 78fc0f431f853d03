package cl

import "errors"

// Boundary errors shared by all drivers.
var (
	// ErrNoDevices indicates that no usable compute devices were found.
	ErrNoDevices = errors.New("cl: no compute devices found")

	// ErrNoPlatforms indicates that the runtime exposes no platforms.
	ErrNoPlatforms = errors.New("cl: no platforms found")

	// ErrReleased is returned when an operation touches a released handle.
	ErrReleased = errors.New("cl: handle already released")

	// ErrNotBuilt indicates the binary was built without OpenCL support.
	ErrNotBuilt = errors.New("cl: opencl support requires building with '-tags gpu'")
)
