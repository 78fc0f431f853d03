package cl

// DeviceType describes the class of a compute device.
type DeviceType string

const (
	DeviceTypeGPU         DeviceType = "GPU"
	DeviceTypeCPU         DeviceType = "CPU"
	DeviceTypeAccelerator DeviceType = "Accelerator"
	DeviceTypeDefault     DeviceType = "Default"
	DeviceTypeUnknown     DeviceType = "Unknown"
)

// DeviceInfo captures metadata about a compute device.
type DeviceInfo struct {
	Name            string
	Vendor          string
	Version         string
	Type            DeviceType
	MaxComputeUnits uint32
}

// PlatformInfo captures metadata about a platform and its devices.
type PlatformInfo struct {
	Name    string
	Vendor  string
	Version string
	Devices []DeviceInfo
}

// DeviceLimits holds the device capabilities the compute core validates
// against.
type DeviceLimits struct {
	MaxWorkGroupSize  int
	MaxWorkItemDims   int
	MaxMemAllocSize   int64
	GlobalMemSize     int64
	ProfilingTimerRes int64
}

// MemFlags control how a memory object is allocated and accessed.
type MemFlags uint32

const (
	MemReadWrite MemFlags = 1 << iota
	MemWriteOnly
	MemReadOnly
	MemUseHostPtr
	MemAllocHostPtr
	MemCopyHostPtr
)

// HostMirrored reports whether the flags request a host-side mirror
// allocation.
func (f MemFlags) HostMirrored() bool {
	return f&(MemUseHostPtr|MemAllocHostPtr) != 0
}

// MapFlags select the access direction of a mapping.
type MapFlags uint32

const (
	MapRead MapFlags = 1 << iota
	MapWrite
)

// ChannelOrder describes image pixel layout.
type ChannelOrder uint32

const (
	ChannelR ChannelOrder = iota
	ChannelRG
	ChannelRGBA
)

// ChannelType describes image component encoding.
type ChannelType uint32

const (
	ChannelUnorm8 ChannelType = iota
	ChannelUint32
	ChannelFloat32
)

// ImageFormat pairs a channel order with a component type.
type ImageFormat struct {
	Order ChannelOrder
	Type  ChannelType
}

// PixelBytes returns the byte size of one pixel in this format.
func (f ImageFormat) PixelBytes() int {
	channels := 1
	switch f.Order {
	case ChannelRG:
		channels = 2
	case ChannelRGBA:
		channels = 4
	}
	bytes := 1
	switch f.Type {
	case ChannelUint32, ChannelFloat32:
		bytes = 4
	}
	return channels * bytes
}

// ExecStatus is the execution state of an enqueued command.
type ExecStatus int

const (
	ExecComplete ExecStatus = iota
	ExecRunning
	ExecSubmitted
	ExecQueued
	ExecFailed
)

func (s ExecStatus) String() string {
	switch s {
	case ExecComplete:
		return "complete"
	case ExecRunning:
		return "running"
	case ExecSubmitted:
		return "submitted"
	case ExecQueued:
		return "queued"
	case ExecFailed:
		return "failed"
	}
	return "unknown"
}
