package clsim

import (
	"encoding/binary"
	"math"
	"regexp"

	"github.com/pkg/errors"

	"github.com/cwbudde/oclkit/internal/cl"
)

var kernelDecl = regexp.MustCompile(`__kernel\s+void\s+([A-Za-z_][A-Za-z0-9_]*)`)

// simProgram holds the entry points found in a "built" source blob. Building
// does not compile anything; it records which names the source declares so
// kernel creation can fail the same way a real runtime fails on an unknown
// entry point.
type simProgram struct {
	drv   *Driver
	names map[string]struct{}
}

func (c *simContext) BuildProgram(source, options string) (cl.Program, error) {
	return buildSim(c.drv, source)
}

func (c *simContext) BuildProgramFromBinary(binary []byte, options string) (cl.Program, error) {
	// Simulated binaries are source blobs; the declaration scan works on both.
	return buildSim(c.drv, string(binary))
}

func buildSim(drv *Driver, source string) (*simProgram, error) {
	matches := kernelDecl.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		return nil, errors.New("clsim: build failed: no __kernel declarations in source")
	}
	p := &simProgram{drv: drv, names: make(map[string]struct{}, len(matches))}
	for _, m := range matches {
		p.names[m[1]] = struct{}{}
	}
	return p, nil
}

func (p *simProgram) CreateKernel(name string) (cl.Kernel, error) {
	if _, ok := p.names[name]; !ok {
		return nil, errors.Errorf("clsim: kernel %q not declared in program", name)
	}
	spec, ok := p.drv.lookup(name)
	if !ok {
		return nil, errors.Wrap(ErrUnknownKernel, name)
	}
	return &simKernel{
		drv:  p.drv,
		spec: spec,
		args: make([]simArg, spec.numArgs),
	}, nil
}

func (p *simProgram) Release() error { return nil }

type simArg struct {
	mem  *simMem
	data []byte
	set  bool
}

type simKernel struct {
	drv  *Driver
	spec kernelSpec
	args []simArg
}

func (k *simKernel) Name() string { return k.spec.name }

func (k *simKernel) NumArgs() (int, error) { return k.spec.numArgs, nil }

func (k *simKernel) MaxWorkGroupSize(dev cl.Device) (int, error) {
	return dev.Limits().MaxWorkGroupSize, nil
}

func (k *simKernel) SetArgMem(index int, mem cl.Mem) error {
	if index < 0 || index >= len(k.args) {
		return errors.Errorf("clsim: argument index %d out of range for kernel %q", index, k.spec.name)
	}
	sm, err := memOf(mem)
	if err != nil {
		return err
	}
	k.args[index] = simArg{mem: sm, set: true}
	return nil
}

func (k *simKernel) SetArgBytes(index int, data []byte) error {
	if index < 0 || index >= len(k.args) {
		return errors.Errorf("clsim: argument index %d out of range for kernel %q", index, k.spec.name)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	k.args[index] = simArg{data: buf, set: true}
	return nil
}

func (k *simKernel) Release() error { return nil }

// invocation snapshots geometry and bound arguments at enqueue time.
func (k *simKernel) invocation(dim int, global, local []int) (*Invocation, error) {
	if dim < 1 || dim > 3 {
		return nil, errors.Errorf("clsim: invalid work dimension %d", dim)
	}
	if len(global) < dim {
		return nil, errors.Errorf("clsim: %d global sizes given for %d dimensions", len(global), dim)
	}
	for i, a := range k.args {
		if !a.set {
			return nil, errors.Errorf("clsim: argument %d of kernel %q not set", i, k.spec.name)
		}
	}
	inv := &Invocation{Dim: dim, args: append([]simArg(nil), k.args...)}
	for i := 0; i < dim; i++ {
		inv.Global[i] = global[i]
		if local != nil && i < len(local) {
			inv.Local[i] = local[i]
		}
	}
	return inv, nil
}

// Invocation carries one dispatch's geometry and arguments into a KernelFunc.
type Invocation struct {
	Dim    int
	Global [3]int
	Local  [3]int

	args []simArg
}

// NumArgs returns the number of bound arguments.
func (inv *Invocation) NumArgs() int { return len(inv.args) }

// Mem returns the storage of a memory-object argument.
func (inv *Invocation) Mem(i int) ([]byte, error) {
	if i < 0 || i >= len(inv.args) {
		return nil, errors.Errorf("clsim: argument index %d out of range", i)
	}
	a := inv.args[i]
	if a.mem == nil {
		return nil, errors.Errorf("clsim: argument %d is not a memory object", i)
	}
	return a.mem.bytes, nil
}

// Scalar returns the raw bytes of a scalar argument.
func (inv *Invocation) Scalar(i int) ([]byte, error) {
	if i < 0 || i >= len(inv.args) {
		return nil, errors.Errorf("clsim: argument index %d out of range", i)
	}
	a := inv.args[i]
	if a.mem != nil {
		return nil, errors.Errorf("clsim: argument %d is a memory object", i)
	}
	return a.data, nil
}

// Int32 decodes a scalar argument as a little-endian int32.
func (inv *Invocation) Int32(i int) (int32, error) {
	b, err := inv.Scalar(i)
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, errors.Errorf("clsim: argument %d has %d bytes, want 4", i, len(b))
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// Float32 decodes a scalar argument as a little-endian float32.
func (inv *Invocation) Float32(i int) (float32, error) {
	b, err := inv.Scalar(i)
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, errors.Errorf("clsim: argument %d has %d bytes, want 4", i, len(b))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}
