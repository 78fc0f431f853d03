// Package clsim implements the cl driver seam with an in-memory simulated
// device. Memory objects are byte slices, queues execute in-order on
// goroutines, and kernels are Go functions registered by name. It exists so
// the compute core and its tests run without an OpenCL runtime, the same way
// a CPU fallback backs the GPU path elsewhere.
package clsim

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/oclkit/internal/cl"
)

// ErrUnknownKernel is returned when a program references an entry point with
// no registered Go implementation.
var ErrUnknownKernel = errors.New("clsim: no registered implementation for kernel")

// KernelFunc is the Go implementation of a simulated kernel. It receives the
// dispatch geometry and bound arguments and is expected to perform the whole
// ND-range itself.
type KernelFunc func(inv *Invocation) error

type kernelSpec struct {
	name    string
	numArgs int
	fn      KernelFunc
}

// Driver is the simulated runtime. One Driver owns one platform with one
// CPU-class device.
type Driver struct {
	mu       sync.RWMutex
	kernels  map[string]kernelSpec
	epoch    time.Time
	enqueues atomic.Int64
}

// New returns a simulated driver with an empty kernel registry.
func New() *Driver {
	return &Driver{
		kernels: make(map[string]kernelSpec),
		epoch:   time.Now(),
	}
}

// Register binds a Go function to a kernel entry-point name. numArgs is the
// fixed argument count reported for the kernel.
func (d *Driver) Register(name string, numArgs int, fn KernelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kernels[name] = kernelSpec{name: name, numArgs: numArgs, fn: fn}
}

func (d *Driver) lookup(name string) (kernelSpec, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	spec, ok := d.kernels[name]
	return spec, ok
}

// Name implements cl.Driver.
func (d *Driver) Name() string { return "sim" }

// Platforms implements cl.Driver.
func (d *Driver) Platforms() ([]cl.Platform, error) {
	return []cl.Platform{&simPlatform{drv: d}}, nil
}

// Enqueues reports the total number of commands submitted to any queue of
// this driver. Used to verify that host-only operations issue no device work.
func (d *Driver) Enqueues() int64 {
	return d.enqueues.Load()
}

// now returns nanoseconds since the driver epoch, standing in for the device
// profiling clock.
func (d *Driver) now() uint64 {
	return uint64(time.Since(d.epoch).Nanoseconds())
}

func newID() string {
	return uuid.NewString()[:8]
}

type simPlatform struct {
	drv *Driver
}

func (p *simPlatform) Info() cl.PlatformInfo {
	return cl.PlatformInfo{
		Name:    "oclkit simulator",
		Vendor:  "cwbudde",
		Version: "OpenCL 1.2 sim",
		Devices: []cl.DeviceInfo{simDeviceInfo()},
	}
}

func (p *simPlatform) Devices() ([]cl.Device, error) {
	return []cl.Device{&simDevice{drv: p.drv}}, nil
}

func simDeviceInfo() cl.DeviceInfo {
	return cl.DeviceInfo{
		Name:            "simulated device",
		Vendor:          "cwbudde",
		Version:         "OpenCL 1.2 sim",
		Type:            cl.DeviceTypeCPU,
		MaxComputeUnits: 1,
	}
}

type simDevice struct {
	drv *Driver
}

func (d *simDevice) Info() cl.DeviceInfo { return simDeviceInfo() }

func (d *simDevice) Limits() cl.DeviceLimits {
	return cl.DeviceLimits{
		MaxWorkGroupSize:  256,
		MaxWorkItemDims:   3,
		MaxMemAllocSize:   1 << 30,
		GlobalMemSize:     4 << 30,
		ProfilingTimerRes: 1,
	}
}

func (d *simDevice) CreateContext() (cl.Context, error) {
	return &simContext{drv: d.drv, dev: d}, nil
}
