package compute

import (
	"log/slog"

	"go.uber.org/multierr"

	"github.com/cwbudde/oclkit/internal/cl"
)

// ContextOptions configure device selection and kernel builds.
type ContextOptions struct {
	// Platform pins a platform index; negative selects automatically.
	Platform int

	// Device pins a device index within the platform; negative selects by
	// preference (GPU, then CPU, then anything).
	Device int

	// BuildParams is prepended to the build options of every kernel compiled
	// against this context.
	BuildParams string
}

// DefaultContextOptions selects the device automatically.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{Platform: -1, Device: -1}
}

// Context owns a device, its compute context, and four command queues: one
// for kernel dispatch and one each for host-to-device, device-to-host, and
// device-to-device transfers. Memory objects and kernels borrow queues from
// the context they were created against and must be closed before it.
type Context struct {
	drv    cl.Driver
	device cl.Device
	ctx    cl.Context

	dispatch cl.Queue
	htod     cl.Queue
	dtoh     cl.Queue
	dtod     cl.Queue

	buildParams string
	closed      bool
}

// NewContext selects a device, creates a compute context on it, and creates
// the four command queues.
func NewContext(drv cl.Driver, opts ContextOptions) (*Context, error) {
	if drv == nil {
		return nil, wrapStatus(StatusInvalidArgument, nil)
	}
	device, err := selectDevice(drv, opts)
	if err != nil {
		return nil, err
	}
	info := device.Info()
	slog.Info("compute: device selected",
		"driver", drv.Name(),
		"name", info.Name,
		"vendor", info.Vendor,
		"type", string(info.Type))

	clctx, err := device.CreateContext()
	if err != nil {
		return nil, wrapStatus(StatusDeviceError, err)
	}
	c := &Context{
		drv:         drv,
		device:      device,
		ctx:         clctx,
		buildParams: opts.BuildParams,
	}
	for _, q := range []*cl.Queue{&c.dispatch, &c.htod, &c.dtoh, &c.dtod} {
		*q, err = clctx.CreateQueue()
		if err != nil {
			return nil, multierr.Append(wrapStatus(StatusDeviceError, err), c.Close())
		}
	}
	return c, nil
}

// selectDevice resolves the options to a single device, preferring GPUs over
// CPUs over anything else when no index is pinned.
func selectDevice(drv cl.Driver, opts ContextOptions) (cl.Device, error) {
	platforms, err := drv.Platforms()
	if err != nil {
		return nil, wrapStatus(StatusDeviceError, err)
	}
	if len(platforms) == 0 {
		return nil, wrapStatus(StatusDeviceError, cl.ErrNoPlatforms)
	}

	if opts.Platform >= 0 {
		if opts.Platform >= len(platforms) {
			return nil, wrapStatus(StatusInvalidArgument, nil)
		}
		platforms = platforms[opts.Platform : opts.Platform+1]
	}

	var gpu, cpu, fallback cl.Device
	for _, p := range platforms {
		devices, err := p.Devices()
		if err != nil {
			continue
		}
		if opts.Platform >= 0 && opts.Device >= 0 {
			if opts.Device >= len(devices) {
				return nil, wrapStatus(StatusInvalidArgument, nil)
			}
			return devices[opts.Device], nil
		}
		for _, d := range devices {
			switch d.Info().Type {
			case cl.DeviceTypeGPU:
				if gpu == nil {
					gpu = d
				}
			case cl.DeviceTypeCPU:
				if cpu == nil {
					cpu = d
				}
			}
			if fallback == nil {
				fallback = d
			}
		}
	}
	switch {
	case gpu != nil:
		return gpu, nil
	case cpu != nil:
		return cpu, nil
	case fallback != nil:
		return fallback, nil
	}
	return nil, wrapStatus(StatusDeviceError, cl.ErrNoDevices)
}

// Device returns the selected device.
func (c *Context) Device() cl.Device { return c.device }

// Driver returns the driver the context was created on.
func (c *Context) Driver() cl.Driver { return c.drv }

// BuildParams returns the context-wide kernel build options.
func (c *Context) BuildParams() string { return c.buildParams }

// DispatchQueue returns the kernel-dispatch queue.
func (c *Context) DispatchQueue() cl.Queue { return c.dispatch }

// HostToDevice returns the host-to-device transfer queue.
func (c *Context) HostToDevice() cl.Queue { return c.htod }

// DeviceToHost returns the device-to-host transfer queue.
func (c *Context) DeviceToHost() cl.Queue { return c.dtoh }

// DeviceToDevice returns the device-to-device transfer queue.
func (c *Context) DeviceToDevice() cl.Queue { return c.dtod }

// WaitForData blocks until every command on the three transfer queues has
// completed.
func (c *Context) WaitForData() error {
	if c.closed {
		return StatusInvalidArgument
	}
	var err error
	for _, q := range []cl.Queue{c.htod, c.dtoh, c.dtod} {
		if e := q.Finish(); e != nil {
			err = multierr.Append(err, wrapStatus(StatusDeviceError, e))
		}
	}
	return err
}

// WaitForCommands blocks until every command on the dispatch queue has
// completed.
func (c *Context) WaitForCommands() error {
	if c.closed {
		return StatusInvalidArgument
	}
	if err := c.dispatch.Finish(); err != nil {
		return wrapStatus(StatusDeviceError, err)
	}
	return nil
}

// Close releases the queues and the compute context. Memory objects and
// kernels created against the context must already be closed. Close is
// idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var err error
	for _, q := range []cl.Queue{c.dispatch, c.htod, c.dtoh, c.dtod} {
		if q == nil {
			continue
		}
		err = multierr.Append(err, q.Release())
	}
	if c.ctx != nil {
		err = multierr.Append(err, c.ctx.Release())
	}
	return err
}
