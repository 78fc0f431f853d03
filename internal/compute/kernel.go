package compute

import (
	"encoding/binary"
	"math"
	"strings"

	"go.uber.org/multierr"

	"github.com/cwbudde/oclkit/internal/cl"
)

// Arg is one positional kernel argument: either a memory object or encoded
// scalar bytes.
type Arg struct {
	mem  MemObject
	data []byte
}

// MemArg binds a memory object.
func MemArg(m MemObject) Arg { return Arg{mem: m} }

// BytesArg binds raw scalar bytes.
func BytesArg(b []byte) Arg { return Arg{data: b} }

// Int32Arg binds a 32-bit signed integer.
func Int32Arg(v int32) Arg {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return Arg{data: b}
}

// Uint32Arg binds a 32-bit unsigned integer.
func Uint32Arg(v uint32) Arg {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return Arg{data: b}
}

// Float32Arg binds a 32-bit float.
func Float32Arg(v float32) Arg {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return Arg{data: b}
}

// completionTarget records which completion event CheckStatus reads: the
// kernel's own event from the last dispatch, or the one delivered to the
// caller through OpOptions.Event.
type completionTarget struct {
	evt      cl.Event
	external bool
}

// Kernel is one compiled entry point bound to a context. Geometry set with
// SetNDSizes persists across dispatches; a dispatch records a completion
// target that CheckStatus polls without blocking.
//
// A Kernel is not safe for concurrent use; callers serialize access.
type Kernel struct {
	ctx     *Context
	program cl.Program
	kernel  cl.Kernel
	name    string
	numArgs int

	dim    int
	global [3]int
	local  [3]int

	maxWorkGroup int
	haveMaxWG    bool

	target completionTarget
	status Status
	timer  Timer
	closed bool
}

// MakeKernel compiles source against the context and resolves the entry
// point. params is appended to the context's build parameters.
func MakeKernel(ctx *Context, source, entry, params string) (*Kernel, error) {
	if ctx == nil || ctx.closed || entry == "" || source == "" {
		return nil, wrapStatus(StatusInvalidArgument, nil)
	}
	program, err := ctx.ctx.BuildProgram(source, joinParams(ctx.buildParams, params))
	if err != nil {
		return nil, wrapStatus(StatusDeviceError, err)
	}
	return finishKernel(ctx, program, entry)
}

// MakeKernelFromFile reads kernel source from path and compiles it.
func MakeKernelFromFile(ctx *Context, path, entry, params string) (*Kernel, error) {
	source, err := LoadKernelSource(path)
	if err != nil {
		return nil, wrapStatus(StatusInvalidArgument, err)
	}
	return MakeKernel(ctx, source, entry, params)
}

// MakeKernelFromBinary loads a pre-built program blob and resolves the entry
// point.
func MakeKernelFromBinary(ctx *Context, binary []byte, entry, params string) (*Kernel, error) {
	if ctx == nil || ctx.closed || entry == "" || len(binary) == 0 {
		return nil, wrapStatus(StatusInvalidArgument, nil)
	}
	program, err := ctx.ctx.BuildProgramFromBinary(binary, joinParams(ctx.buildParams, params))
	if err != nil {
		return nil, wrapStatus(StatusDeviceError, err)
	}
	return finishKernel(ctx, program, entry)
}

func joinParams(base, extra string) string {
	switch {
	case base == "":
		return extra
	case extra == "":
		return base
	}
	return strings.TrimSpace(base) + " " + strings.TrimSpace(extra)
}

func finishKernel(ctx *Context, program cl.Program, entry string) (*Kernel, error) {
	krn, err := program.CreateKernel(entry)
	if err != nil {
		return nil, multierr.Append(wrapStatus(StatusDeviceError, err), program.Release())
	}
	numArgs, err := krn.NumArgs()
	if err != nil {
		return nil, multierr.Combine(wrapStatus(StatusDeviceError, err), krn.Release(), program.Release())
	}
	return &Kernel{
		ctx:     ctx,
		program: program,
		kernel:  krn,
		name:    entry,
		numArgs: numArgs,
	}, nil
}

// Name returns the entry-point name.
func (k *Kernel) Name() string { return k.name }

// Args returns the kernel's fixed argument count.
func (k *Kernel) Args() int { return k.numArgs }

// LastStatus returns the most recent status recorded on this kernel.
func (k *Kernel) LastStatus() Status { return k.status }

// Timer returns the kernel's dispatch timer.
func (k *Kernel) Timer() *Timer { return &k.timer }

// Geometry returns the stored dimensionality and work sizes.
func (k *Kernel) Geometry() (dim int, global, local [3]int) {
	return k.dim, k.global, k.local
}

func (k *Kernel) fail(s Status, cause error) error {
	k.status = s
	return wrapStatus(s, cause)
}

// SetNDSizes validates and stores the work geometry. dim must be 1 to 3;
// when local sizes are given, their product must not exceed the device's
// maximum work-group size for this kernel, and every global size must be an
// exact multiple of its non-zero local size. Stored geometry is untouched on
// any validation failure. Passing nil local sizes leaves work-group
// selection to the runtime.
func (k *Kernel) SetNDSizes(dim int, global, local []int) error {
	if k.closed {
		return k.fail(StatusInvalidArgument, nil)
	}
	if dim < 1 || dim > 3 || len(global) < dim {
		return k.fail(StatusGeometryInvalid, nil)
	}
	if !k.haveMaxWG {
		wg, err := k.kernel.MaxWorkGroupSize(k.ctx.device)
		if err != nil {
			return k.fail(StatusDeviceError, err)
		}
		k.maxWorkGroup = wg
		k.haveMaxWG = true
	}

	var newGlobal, newLocal [3]int
	product := 1
	for i := 0; i < dim; i++ {
		if global[i] <= 0 {
			return k.fail(StatusGeometryInvalid, nil)
		}
		newGlobal[i] = global[i]
		if local == nil || i >= len(local) || local[i] == 0 {
			continue
		}
		if local[i] < 0 {
			return k.fail(StatusGeometryInvalid, nil)
		}
		product *= local[i]
		if product > k.maxWorkGroup {
			return k.fail(StatusGeometryInvalid, nil)
		}
		if global[i]%local[i] != 0 {
			return k.fail(StatusGeometryInvalid, nil)
		}
		newLocal[i] = local[i]
	}

	k.dim = dim
	k.global = newGlobal
	k.local = newLocal
	k.status = StatusOK
	return nil
}

// NDRange dispatches the kernel over the stored geometry on the dispatch
// queue unless opts overrides it. When opts.Event is non-nil the completion
// event is delivered there and becomes the one CheckStatus reads; otherwise
// the kernel's internal event slot is used. When every local size is zero,
// no local geometry is passed and the runtime selects work groups itself.
func (k *Kernel) NDRange(opts OpOptions) error {
	if k.closed {
		return k.fail(StatusInvalidArgument, nil)
	}
	if k.dim == 0 {
		return k.fail(StatusGeometryInvalid, nil)
	}
	q := opts.Queue
	if q == nil {
		q = k.ctx.dispatch
	}

	var local []int
	if k.local != ([3]int{}) {
		local = k.local[:k.dim]
	}
	evt, err := q.EnqueueNDRange(k.kernel, k.dim, k.global[:k.dim], local, opts.Wait)
	if err != nil {
		return k.fail(StatusDeviceError, err)
	}

	if opts.Event != nil {
		*opts.Event = evt
		k.target = completionTarget{evt: evt, external: true}
	} else {
		k.target = completionTarget{evt: evt}
	}

	if opts.Mode != DontMeasure {
		micros, err := gatherMicros(evt)
		if err != nil {
			return k.fail(StatusDeviceError, err)
		}
		k.timer.recordDevice(micros, opts.Mode == Measure)
		k.status = StatusOK
		return nil
	}
	if opts.Blocking {
		if err := evt.Wait(); err != nil {
			return k.fail(StatusDeviceError, err)
		}
	}
	k.status = StatusOK
	return nil
}

// Launch binds args in order and dispatches like NDRange. The argument list
// must match the kernel's fixed argument count; binding stops at the first
// failure without dispatching.
func (k *Kernel) Launch(args []Arg, opts OpOptions) error {
	if k.closed {
		return k.fail(StatusInvalidArgument, nil)
	}
	if len(args) != k.numArgs {
		return k.fail(StatusInvalidArgument, nil)
	}
	for i, a := range args {
		var err error
		switch {
		case a.mem != nil:
			err = k.kernel.SetArgMem(i, a.mem.core().mem)
		case a.data != nil:
			err = k.kernel.SetArgBytes(i, a.data)
		default:
			return k.fail(StatusInvalidArgument, nil)
		}
		if err != nil {
			return k.fail(StatusDeviceError, err)
		}
	}
	return k.NDRange(opts)
}

// CheckStatus polls the execution state of the in-favor completion event
// without blocking. It fails with StatusInvalidArgument before the first
// dispatch.
func (k *Kernel) CheckStatus() (cl.ExecStatus, error) {
	if k.target.evt == nil {
		return cl.ExecFailed, k.fail(StatusInvalidArgument, nil)
	}
	state, err := k.target.evt.Status()
	if err != nil {
		return cl.ExecFailed, k.fail(StatusDeviceError, err)
	}
	k.status = StatusOK
	return state, nil
}

// Close releases the compiled kernel and program. Idempotent.
func (k *Kernel) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	var err error
	if k.kernel != nil {
		err = multierr.Append(err, k.kernel.Release())
	}
	if k.program != nil {
		err = multierr.Append(err, k.program.Release())
	}
	return err
}
