// Package cl defines the boundary between the compute core and an OpenCL-style
// runtime. Two drivers implement it: clsim (pure Go, in-memory, the default)
// and clgpu (real OpenCL via cgo, built with '-tags gpu').
//
// All enqueue operations are asynchronous and return an Event; callers that
// need blocking behavior wait on the returned event.
package cl

// Driver is the entry point to a compute runtime.
type Driver interface {
	// Name identifies the driver ("sim", "opencl").
	Name() string

	// Platforms enumerates the available platforms. The result is a fresh
	// value on every call; drivers keep no caller-visible global state.
	Platforms() ([]Platform, error)
}

// Platform groups the devices exposed by one runtime vendor.
type Platform interface {
	Info() PlatformInfo
	Devices() ([]Device, error)
}

// Device is a single compute device.
type Device interface {
	Info() DeviceInfo
	Limits() DeviceLimits

	// CreateContext creates a compute context bound to this device.
	CreateContext() (Context, error)
}

// Context owns device-side allocations and compiled programs.
type Context interface {
	Device() Device

	// CreateQueue creates a profiling-enabled command queue.
	CreateQueue() (Queue, error)

	// CreateBuffer allocates a linear memory object of size bytes. When host
	// is non-nil and flags contains MemCopyHostPtr, the initial content is
	// copied from it; with MemUseHostPtr the allocation mirrors it.
	CreateBuffer(flags MemFlags, size int, host []byte) (Mem, error)

	// CreateImage allocates a 2-D memory object.
	CreateImage(flags MemFlags, format ImageFormat, width, height int, host []byte) (Mem, error)

	// BuildProgram compiles kernel source with the given build options.
	BuildProgram(source, options string) (Program, error)

	// BuildProgramFromBinary loads a pre-built program blob.
	BuildProgramFromBinary(binary []byte, options string) (Program, error)

	Release() error
}

// Queue is a device command queue. Commands submitted to one queue execute
// in submission order; ordering across queues requires explicit wait lists.
type Queue interface {
	EnqueueRead(mem Mem, dst []byte, wait []Event) (Event, error)
	EnqueueWrite(mem Mem, src []byte, wait []Event) (Event, error)

	// EnqueueCopy copies n bytes (buffers) or the full region (images) from
	// src to dst.
	EnqueueCopy(src, dst Mem, n int, wait []Event) (Event, error)

	// EnqueueMap makes the object's memory host-accessible. The returned
	// mapping is valid once the event completes.
	EnqueueMap(mem Mem, flags MapFlags, wait []Event) (Mapping, Event, error)

	EnqueueUnmap(mem Mem, m Mapping, wait []Event) (Event, error)

	// EnqueueNDRange submits a kernel over the global geometry. local may be
	// nil, leaving work-group selection to the runtime.
	EnqueueNDRange(k Kernel, dim int, global, local []int, wait []Event) (Event, error)

	// Finish blocks until every command submitted to the queue has completed.
	Finish() error

	Release() error
}

// Mem is a device memory allocation, linear or 2-D.
type Mem interface {
	Size() int

	// CreateSub creates a sub-range allocation aliasing this object's
	// storage. Defined for buffers only.
	CreateSub(flags MemFlags, origin, size int) (Mem, error)

	Release() error
}

// Mapping is a host-accessible view of a Mem returned by EnqueueMap.
type Mapping struct {
	Bytes []byte

	// RowPitch is the byte stride between image rows; 0 for buffers.
	RowPitch int
}

// Program is a compiled collection of kernels.
type Program interface {
	CreateKernel(name string) (Kernel, error)
	Release() error
}

// Kernel is one entry point of a Program.
type Kernel interface {
	Name() string

	// NumArgs reports the kernel's fixed argument count.
	NumArgs() (int, error)

	// MaxWorkGroupSize reports the largest local work-group size the device
	// can run this kernel with.
	MaxWorkGroupSize(dev Device) (int, error)

	SetArgMem(index int, mem Mem) error
	SetArgBytes(index int, data []byte) error

	Release() error
}

// Event tracks completion of one enqueued command.
type Event interface {
	// Wait blocks until the command has completed or failed.
	Wait() error

	// Status reports the command execution state without blocking.
	Status() (ExecStatus, error)

	// Profile returns the device start/end timestamps in nanoseconds. Valid
	// only after completion.
	Profile() (startNS, endNS uint64, err error)
}
