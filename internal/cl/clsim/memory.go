package clsim

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/cwbudde/oclkit/internal/cl"
)

type imageDesc struct {
	width  int
	height int
	pix    int
}

// simMem is a simulated device allocation. Sub-buffers alias the parent's
// storage, so writes through a child are visible to the parent.
type simMem struct {
	id       string
	drv      *Driver
	flags    cl.MemFlags
	bytes    []byte
	origin   int
	sub      bool
	image    *imageDesc
	released bool
}

type simContext struct {
	drv *Driver
	dev *simDevice
}

func (c *simContext) Device() cl.Device { return c.dev }

func (c *simContext) CreateQueue() (cl.Queue, error) {
	return newSimQueue(c.drv), nil
}

func (c *simContext) CreateBuffer(flags cl.MemFlags, size int, host []byte) (cl.Mem, error) {
	if size <= 0 {
		return nil, errors.Errorf("clsim: invalid buffer size %d", size)
	}
	if flags&(cl.MemUseHostPtr|cl.MemCopyHostPtr) != 0 && host == nil {
		return nil, errors.New("clsim: host pointer flags given without host memory")
	}
	m := &simMem{
		id:    newID(),
		drv:   c.drv,
		flags: flags,
		bytes: make([]byte, size),
	}
	if host != nil && flags&(cl.MemUseHostPtr|cl.MemCopyHostPtr) != 0 {
		copy(m.bytes, host)
	}
	slog.Debug("clsim: buffer created", "id", m.id, "size", size)
	return m, nil
}

func (c *simContext) CreateImage(flags cl.MemFlags, format cl.ImageFormat, width, height int, host []byte) (cl.Mem, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("clsim: invalid image geometry %dx%d", width, height)
	}
	pix := format.PixelBytes()
	m := &simMem{
		id:    newID(),
		drv:   c.drv,
		flags: flags,
		bytes: make([]byte, width*height*pix),
		image: &imageDesc{width: width, height: height, pix: pix},
	}
	if host != nil && flags&(cl.MemUseHostPtr|cl.MemCopyHostPtr) != 0 {
		copy(m.bytes, host)
	}
	slog.Debug("clsim: image created", "id", m.id, "width", width, "height", height)
	return m, nil
}

func (c *simContext) Release() error { return nil }

func (m *simMem) Size() int { return len(m.bytes) }

func (m *simMem) CreateSub(flags cl.MemFlags, origin, size int) (cl.Mem, error) {
	if m.released {
		return nil, cl.ErrReleased
	}
	if m.image != nil {
		return nil, errors.New("clsim: sub-allocation is defined for buffers only")
	}
	if m.sub {
		return nil, errors.New("clsim: cannot sub-allocate a sub-buffer")
	}
	if origin < 0 || size <= 0 || origin+size > len(m.bytes) {
		return nil, errors.Errorf("clsim: sub-buffer region [%d,%d) outside parent of size %d",
			origin, origin+size, len(m.bytes))
	}
	child := &simMem{
		id:     newID(),
		drv:    m.drv,
		flags:  flags,
		bytes:  m.bytes[origin : origin+size : origin+size],
		origin: origin,
		sub:    true,
	}
	slog.Debug("clsim: sub-buffer created", "id", child.id, "parent", m.id, "origin", origin, "size", size)
	return child, nil
}

func (m *simMem) Release() error {
	if m.released {
		return cl.ErrReleased
	}
	m.released = true
	return nil
}

func (m *simMem) rowPitch() int {
	if m.image == nil {
		return 0
	}
	return m.image.width * m.image.pix
}
