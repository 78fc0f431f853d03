package compute

import (
	"unsafe"

	"go.uber.org/multierr"

	"github.com/cwbudde/oclkit/internal/cl"
)

// Kind distinguishes the two memory-object shapes.
type Kind int

const (
	KindBuffer Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "buffer"
}

// Ethalon selects which side of a host-mirrored object is authoritative
// during Sync.
type Ethalon int

const (
	// DeviceEthalon pushes device data into the host mirror.
	DeviceEthalon Ethalon = iota

	// HostEthalon pushes the host mirror to the device.
	HostEthalon
)

// OpOptions configure one transfer or dispatch operation. The zero value is
// a non-blocking, untimed call on the operation's default queue.
type OpOptions struct {
	// Blocking waits for the command to complete before returning.
	Blocking bool

	// Mode selects device timing behavior. Any mode other than DontMeasure
	// implies waiting for completion.
	Mode TimeMode

	// Queue overrides the operation's default queue.
	Queue cl.Queue

	// Event receives the completion event for later waiting, polling, or
	// chaining into another operation's wait list.
	Event *cl.Event

	// Wait lists events that must complete before the command runs.
	Wait []cl.Event
}

// MemObject is the uniform handle over linear buffers and 2-D images. Both
// kinds share the mapping, transfer, and consistency contract; they diverge
// on geometry accessors and sub-allocation.
//
// A MemObject is not safe for concurrent use; callers serialize access.
type MemObject interface {
	Kind() Kind
	Size() int
	Flags() cl.MemFlags

	// Map makes the object's memory host-accessible. At most one mapping
	// may be outstanding; mapping a mapped object fails with
	// StatusAlreadyInUse and leaves the first mapping intact.
	Map(flags cl.MapFlags, opts OpOptions) ([]byte, error)

	// Unmap releases the outstanding mapping. A non-nil region must be the
	// one Map returned (StatusWrongParent otherwise); with no mapping
	// outstanding it returns StatusNotMapped, which teardown treats as
	// benign.
	Unmap(region []byte, opts OpOptions) error

	// Write transfers the whole object from host memory to the device.
	Write(src []byte, opts OpOptions) error

	// Read transfers the whole object from the device into host memory.
	Read(dst []byte, opts OpOptions) error

	// CopyTo copies this object into dst on the device-to-device queue.
	// Both objects must be the same kind and dst must be large enough.
	// Copying an object onto itself only resets the last device time.
	CopyTo(dst MemObject, opts OpOptions) error

	// Sync reconciles a host-mirrored object with its mirror; ethalon
	// names the authoritative side.
	Sync(ethalon Ethalon, opts OpOptions) error

	// MakeChild sub-allocates a region of a root buffer. Children share the
	// parent's storage but own their map state. Images and non-root objects
	// fail with StatusTypeMismatch.
	MakeChild(flags cl.MemFlags, origin, size int) (MemObject, error)

	// Width, Height, and RowPitch are defined for images; on buffers they
	// return 0 and record StatusUndefinedAccessor.
	Width() int
	Height() int
	RowPitch() int

	// Mirror returns the host-mirror slice, or nil for objects allocated
	// without host-mirror flags.
	Mirror() []byte

	// LastStatus returns the most recent status recorded on this handle.
	LastStatus() Status

	// Timer returns the object's transfer timer.
	Timer() *Timer

	// Close auto-unmaps if needed and releases the device allocation.
	Close() error

	core() *memCore
}

// memCore is the state shared by buffers and images.
type memCore struct {
	ctx    *Context
	kind   Kind
	flags  cl.MemFlags
	mem    cl.Mem
	size   int
	origin int
	root   bool

	// Image geometry; zero for buffers.
	width  int
	height int
	pixel  int

	// rowPitch is recorded while an image is mapped and reset on unmap.
	rowPitch int

	mirror  []byte
	mapped  []byte
	mapping cl.Mapping

	status Status
	timer  Timer
	closed bool
}

func (c *memCore) Kind() Kind         { return c.kind }
func (c *memCore) Size() int          { return c.size }
func (c *memCore) Flags() cl.MemFlags { return c.flags }
func (c *memCore) Mirror() []byte     { return c.mirror }
func (c *memCore) LastStatus() Status { return c.status }
func (c *memCore) Timer() *Timer      { return &c.timer }

func (c *memCore) core() *memCore { return c }

// fail records s on the handle and returns it, wrapped around cause when one
// exists.
func (c *memCore) fail(s Status, cause error) error {
	c.status = s
	return wrapStatus(s, cause)
}

// finish waits and gathers timing according to opts for a successfully
// enqueued command.
func (c *memCore) finish(evt cl.Event, opts OpOptions) error {
	if opts.Event != nil {
		*opts.Event = evt
	}
	if opts.Mode != DontMeasure {
		micros, err := gatherMicros(evt)
		if err != nil {
			return c.fail(StatusDeviceError, err)
		}
		c.timer.recordDevice(micros, opts.Mode == Measure)
		c.status = StatusOK
		return nil
	}
	if opts.Blocking {
		if err := evt.Wait(); err != nil {
			return c.fail(StatusDeviceError, err)
		}
	}
	c.status = StatusOK
	return nil
}

func (c *memCore) queueOr(def cl.Queue, opts OpOptions) cl.Queue {
	if opts.Queue != nil {
		return opts.Queue
	}
	return def
}

func (c *memCore) Map(flags cl.MapFlags, opts OpOptions) ([]byte, error) {
	if c.closed {
		return nil, c.fail(StatusInvalidArgument, nil)
	}
	if c.mapped != nil {
		return nil, c.fail(StatusAlreadyInUse, nil)
	}
	q := c.queueOr(c.ctx.dtoh, opts)
	mapping, evt, err := q.EnqueueMap(c.mem, flags, opts.Wait)
	if err != nil {
		return nil, c.fail(StatusDeviceError, err)
	}
	if err := c.finish(evt, opts); err != nil {
		return nil, err
	}
	c.mapped = mapping.Bytes
	c.mapping = mapping
	if c.kind == KindImage {
		c.rowPitch = mapping.RowPitch
	}
	return mapping.Bytes, nil
}

func (c *memCore) Unmap(region []byte, opts OpOptions) error {
	if c.closed {
		return c.fail(StatusInvalidArgument, nil)
	}
	if c.mapped == nil {
		return c.fail(StatusNotMapped, nil)
	}
	if region != nil && unsafe.SliceData(region) != unsafe.SliceData(c.mapped) {
		return c.fail(StatusWrongParent, nil)
	}
	q := c.queueOr(c.ctx.dtoh, opts)
	evt, err := q.EnqueueUnmap(c.mem, c.mapping, opts.Wait)
	if err != nil {
		return c.fail(StatusDeviceError, err)
	}
	if err := c.finish(evt, opts); err != nil {
		return err
	}
	c.mapped = nil
	c.mapping = cl.Mapping{}
	c.rowPitch = 0
	return nil
}

func (c *memCore) Write(src []byte, opts OpOptions) error {
	if c.closed {
		return c.fail(StatusInvalidArgument, nil)
	}
	if len(src) < c.size {
		return c.fail(StatusSizeMismatch, nil)
	}
	q := c.queueOr(c.ctx.htod, opts)
	evt, err := q.EnqueueWrite(c.mem, src[:c.size], opts.Wait)
	if err != nil {
		return c.fail(StatusDeviceError, err)
	}
	return c.finish(evt, opts)
}

func (c *memCore) Read(dst []byte, opts OpOptions) error {
	if c.closed {
		return c.fail(StatusInvalidArgument, nil)
	}
	if len(dst) < c.size {
		return c.fail(StatusSizeMismatch, nil)
	}
	q := c.queueOr(c.ctx.dtoh, opts)
	evt, err := q.EnqueueRead(c.mem, dst[:c.size], opts.Wait)
	if err != nil {
		return c.fail(StatusDeviceError, err)
	}
	return c.finish(evt, opts)
}

// copyTo performs the device-to-device copy after the kind-specific size
// checks have passed.
func (c *memCore) copyTo(dst *memCore, opts OpOptions) error {
	q := c.queueOr(c.ctx.dtod, opts)
	evt, err := q.EnqueueCopy(c.mem, dst.mem, c.size, opts.Wait)
	if err != nil {
		return c.fail(StatusDeviceError, err)
	}
	return c.finish(evt, opts)
}

func (c *memCore) Sync(ethalon Ethalon, opts OpOptions) error {
	if c.closed {
		return c.fail(StatusInvalidArgument, nil)
	}
	if !c.flags.HostMirrored() || c.mirror == nil {
		return c.fail(StatusInvalidArgument, nil)
	}
	switch ethalon {
	case DeviceEthalon:
		return c.Read(c.mirror, opts)
	case HostEthalon:
		return c.Write(c.mirror, opts)
	}
	return c.fail(StatusInvalidArgument, nil)
}

func (c *memCore) Close() error {
	if c.closed {
		return nil
	}
	var err error
	if e := c.Unmap(nil, OpOptions{Blocking: true}); e != nil && StatusOf(e) != StatusNotMapped {
		err = multierr.Append(err, e)
	}
	c.closed = true
	if c.mem != nil {
		err = multierr.Append(err, c.mem.Release())
	}
	return err
}

// Swap exchanges the device allocations of two same-kind, same-flags,
// same-size memory objects. It issues no device operations, which makes it
// the ping-pong primitive of choice. Applying it twice restores the original
// assignment.
func Swap(a, b MemObject) error {
	if a == nil || b == nil {
		return StatusInvalidArgument
	}
	ca, cb := a.core(), b.core()
	if ca.closed || cb.closed {
		return ca.fail(StatusInvalidArgument, nil)
	}
	if ca.kind != cb.kind {
		return ca.fail(StatusTypeMismatch, nil)
	}
	if ca.flags != cb.flags {
		return ca.fail(StatusInvalidArgument, nil)
	}
	if ca.size != cb.size {
		return ca.fail(StatusSizeMismatch, nil)
	}
	ca.mem, cb.mem = cb.mem, ca.mem
	ca.mirror, cb.mirror = cb.mirror, ca.mirror
	ca.mapped, cb.mapped = cb.mapped, ca.mapped
	ca.mapping, cb.mapping = cb.mapping, ca.mapping
	ca.rowPitch, cb.rowPitch = cb.rowPitch, ca.rowPitch
	ca.origin, cb.origin = cb.origin, ca.origin
	ca.root, cb.root = cb.root, ca.root
	ca.width, cb.width = cb.width, ca.width
	ca.height, cb.height = cb.height, ca.height
	ca.pixel, cb.pixel = cb.pixel, ca.pixel
	ca.status = StatusOK
	cb.status = StatusOK
	return nil
}
