package compute

import (
	"github.com/cwbudde/oclkit/internal/cl"
)

// Image is a 2-D memory object.
type Image struct {
	memCore
	format cl.ImageFormat
}

// MakeImage allocates a width-by-height image in the given pixel format.
func MakeImage(ctx *Context, flags cl.MemFlags, format cl.ImageFormat, width, height int, host []byte) (*Image, error) {
	if ctx == nil || ctx.closed || width <= 0 || height <= 0 {
		return nil, wrapStatus(StatusInvalidArgument, nil)
	}
	pixel := format.PixelBytes()
	size := width * height * pixel
	var mirror []byte
	if flags.HostMirrored() {
		mirror = host
		if mirror == nil {
			mirror = make([]byte, size)
		} else if len(mirror) < size {
			return nil, wrapStatus(StatusSizeMismatch, nil)
		}
	}
	mem, err := ctx.ctx.CreateImage(flags, format, width, height, mirror)
	if err != nil {
		return nil, wrapStatus(StatusAllocationFailure, err)
	}
	return &Image{
		memCore: memCore{
			ctx:    ctx,
			kind:   KindImage,
			flags:  flags,
			mem:    mem,
			size:   size,
			root:   true,
			width:  width,
			height: height,
			pixel:  pixel,
			mirror: mirror,
		},
		format: format,
	}, nil
}

// Format returns the image's pixel format.
func (im *Image) Format() cl.ImageFormat { return im.format }

func (im *Image) CopyTo(dst MemObject, opts OpOptions) error {
	if dst == nil {
		return im.fail(StatusInvalidArgument, nil)
	}
	if dst.Kind() != KindImage {
		return im.fail(StatusTypeMismatch, nil)
	}
	dc := dst.core()
	if dc == &im.memCore {
		// Self-copy is a no-op that only resets the last device time.
		im.timer.recordDevice(0, false)
		im.status = StatusOK
		return nil
	}
	if dc.rowPitch < im.rowPitch || dc.height < im.height || dc.width < im.width {
		return im.fail(StatusSizeMismatch, nil)
	}
	return im.copyTo(dc, opts)
}

// MakeChild is undefined for images.
func (im *Image) MakeChild(flags cl.MemFlags, origin, size int) (MemObject, error) {
	return nil, im.fail(StatusTypeMismatch, nil)
}

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.width }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.height }

// RowPitch returns the byte stride between rows of the current mapping, or 0
// while unmapped.
func (im *Image) RowPitch() int { return im.rowPitch }

var (
	_ MemObject = (*Buffer)(nil)
	_ MemObject = (*Image)(nil)
)
