package compute

import (
	"github.com/cwbudde/oclkit/internal/cl"
)

// Buffer is a linear memory object.
type Buffer struct {
	memCore
}

// MakeBuffer allocates a root buffer of size bytes. When flags request a
// host mirror, the mirror is host when non-nil or a fresh slice otherwise,
// and its content seeds the allocation.
func MakeBuffer(ctx *Context, flags cl.MemFlags, size int, host []byte) (*Buffer, error) {
	if ctx == nil || ctx.closed || size <= 0 {
		return nil, wrapStatus(StatusInvalidArgument, nil)
	}
	var mirror []byte
	if flags.HostMirrored() {
		mirror = host
		if mirror == nil {
			mirror = make([]byte, size)
		} else if len(mirror) < size {
			return nil, wrapStatus(StatusSizeMismatch, nil)
		}
	}
	mem, err := ctx.ctx.CreateBuffer(flags, size, mirror)
	if err != nil {
		return nil, wrapStatus(StatusAllocationFailure, err)
	}
	return &Buffer{memCore: memCore{
		ctx:    ctx,
		kind:   KindBuffer,
		flags:  flags,
		mem:    mem,
		size:   size,
		root:   true,
		mirror: mirror,
	}}, nil
}

func (b *Buffer) CopyTo(dst MemObject, opts OpOptions) error {
	if dst == nil {
		return b.fail(StatusInvalidArgument, nil)
	}
	if dst.Kind() != KindBuffer {
		return b.fail(StatusTypeMismatch, nil)
	}
	dc := dst.core()
	if dc == &b.memCore {
		// Self-copy is a no-op that only resets the last device time.
		b.timer.recordDevice(0, false)
		b.status = StatusOK
		return nil
	}
	if b.size > dc.size {
		return b.fail(StatusSizeMismatch, nil)
	}
	return b.copyTo(dc, opts)
}

// Erase zero-fills the buffer by mapping it for write, clearing the region,
// and unmapping. Fails with StatusAlreadyInUse while a mapping is
// outstanding.
func (b *Buffer) Erase() error {
	region, err := b.Map(cl.MapWrite, OpOptions{Blocking: true})
	if err != nil {
		return err
	}
	clear(region)
	return b.Unmap(region, OpOptions{Blocking: true})
}

// MakeChild sub-allocates size bytes at origin. The child aliases the
// parent's storage and mirror but owns its own map state; the parent must
// outlive it.
func (b *Buffer) MakeChild(flags cl.MemFlags, origin, size int) (MemObject, error) {
	if b.closed {
		return nil, b.fail(StatusInvalidArgument, nil)
	}
	if !b.root {
		return nil, b.fail(StatusTypeMismatch, nil)
	}
	if origin < 0 || size <= 0 || origin+size > b.size {
		return nil, b.fail(StatusSizeMismatch, nil)
	}
	sub, err := b.mem.CreateSub(flags, origin, size)
	if err != nil {
		return nil, b.fail(StatusAllocationFailure, err)
	}
	var mirror []byte
	if b.mirror != nil {
		mirror = b.mirror[origin : origin+size]
	}
	return &Buffer{memCore: memCore{
		ctx:    b.ctx,
		kind:   KindBuffer,
		flags:  flags,
		mem:    sub,
		size:   size,
		origin: origin,
		mirror: mirror,
	}}, nil
}

// Origin returns the byte offset into the parent, 0 for roots.
func (b *Buffer) Origin() int { return b.origin }

// Root reports whether the buffer is a root allocation.
func (b *Buffer) Root() bool { return b.root }

// Width is undefined for buffers.
func (b *Buffer) Width() int {
	b.status = StatusUndefinedAccessor
	return 0
}

// Height is undefined for buffers.
func (b *Buffer) Height() int {
	b.status = StatusUndefinedAccessor
	return 0
}

// RowPitch is undefined for buffers.
func (b *Buffer) RowPitch() int {
	b.status = StatusUndefinedAccessor
	return 0
}
