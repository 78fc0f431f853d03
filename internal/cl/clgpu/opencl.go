//go:build gpu

// Package clgpu implements the cl driver seam on top of a real OpenCL
// runtime via cgo. Build with '-tags gpu' and an OpenCL SDK installed.
package clgpu

/*
#cgo LDFLAGS: -lOpenCL
#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS
#include <stdlib.h>
#include <CL/cl.h>

static const char* oclkit_cl_error_string(cl_int status) {
	switch (status) {
	case CL_SUCCESS: return "CL_SUCCESS";
	case CL_DEVICE_NOT_FOUND: return "CL_DEVICE_NOT_FOUND";
	case CL_DEVICE_NOT_AVAILABLE: return "CL_DEVICE_NOT_AVAILABLE";
	case CL_COMPILER_NOT_AVAILABLE: return "CL_COMPILER_NOT_AVAILABLE";
	case CL_MEM_OBJECT_ALLOCATION_FAILURE: return "CL_MEM_OBJECT_ALLOCATION_FAILURE";
	case CL_OUT_OF_RESOURCES: return "CL_OUT_OF_RESOURCES";
	case CL_OUT_OF_HOST_MEMORY: return "CL_OUT_OF_HOST_MEMORY";
	case CL_PROFILING_INFO_NOT_AVAILABLE: return "CL_PROFILING_INFO_NOT_AVAILABLE";
	case CL_MEM_COPY_OVERLAP: return "CL_MEM_COPY_OVERLAP";
	case CL_IMAGE_FORMAT_MISMATCH: return "CL_IMAGE_FORMAT_MISMATCH";
	case CL_IMAGE_FORMAT_NOT_SUPPORTED: return "CL_IMAGE_FORMAT_NOT_SUPPORTED";
	case CL_BUILD_PROGRAM_FAILURE: return "CL_BUILD_PROGRAM_FAILURE";
	case CL_MAP_FAILURE: return "CL_MAP_FAILURE";
	case CL_INVALID_VALUE: return "CL_INVALID_VALUE";
	case CL_INVALID_DEVICE_TYPE: return "CL_INVALID_DEVICE_TYPE";
	case CL_INVALID_PLATFORM: return "CL_INVALID_PLATFORM";
	case CL_INVALID_DEVICE: return "CL_INVALID_DEVICE";
	case CL_INVALID_CONTEXT: return "CL_INVALID_CONTEXT";
	case CL_INVALID_QUEUE_PROPERTIES: return "CL_INVALID_QUEUE_PROPERTIES";
	case CL_INVALID_COMMAND_QUEUE: return "CL_INVALID_COMMAND_QUEUE";
	case CL_INVALID_HOST_PTR: return "CL_INVALID_HOST_PTR";
	case CL_INVALID_MEM_OBJECT: return "CL_INVALID_MEM_OBJECT";
	case CL_INVALID_IMAGE_FORMAT_DESCRIPTOR: return "CL_INVALID_IMAGE_FORMAT_DESCRIPTOR";
	case CL_INVALID_IMAGE_SIZE: return "CL_INVALID_IMAGE_SIZE";
	case CL_INVALID_BINARY: return "CL_INVALID_BINARY";
	case CL_INVALID_BUILD_OPTIONS: return "CL_INVALID_BUILD_OPTIONS";
	case CL_INVALID_PROGRAM: return "CL_INVALID_PROGRAM";
	case CL_INVALID_PROGRAM_EXECUTABLE: return "CL_INVALID_PROGRAM_EXECUTABLE";
	case CL_INVALID_KERNEL_NAME: return "CL_INVALID_KERNEL_NAME";
	case CL_INVALID_KERNEL_DEFINITION: return "CL_INVALID_KERNEL_DEFINITION";
	case CL_INVALID_KERNEL: return "CL_INVALID_KERNEL";
	case CL_INVALID_ARG_INDEX: return "CL_INVALID_ARG_INDEX";
	case CL_INVALID_ARG_VALUE: return "CL_INVALID_ARG_VALUE";
	case CL_INVALID_ARG_SIZE: return "CL_INVALID_ARG_SIZE";
	case CL_INVALID_KERNEL_ARGS: return "CL_INVALID_KERNEL_ARGS";
	case CL_INVALID_WORK_DIMENSION: return "CL_INVALID_WORK_DIMENSION";
	case CL_INVALID_WORK_GROUP_SIZE: return "CL_INVALID_WORK_GROUP_SIZE";
	case CL_INVALID_WORK_ITEM_SIZE: return "CL_INVALID_WORK_ITEM_SIZE";
	case CL_INVALID_GLOBAL_OFFSET: return "CL_INVALID_GLOBAL_OFFSET";
	case CL_INVALID_EVENT_WAIT_LIST: return "CL_INVALID_EVENT_WAIT_LIST";
	case CL_INVALID_EVENT: return "CL_INVALID_EVENT";
	case CL_INVALID_OPERATION: return "CL_INVALID_OPERATION";
	case CL_INVALID_BUFFER_SIZE: return "CL_INVALID_BUFFER_SIZE";
	default: return "CL_UNKNOWN_ERROR";
	}
}

static cl_command_queue oclkit_create_queue(cl_context ctx, cl_device_id device, cl_int *status) {
	return clCreateCommandQueue(ctx, device, CL_QUEUE_PROFILING_ENABLE, status);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/cwbudde/oclkit/internal/cl"
)

// Driver is the real OpenCL runtime.
type Driver struct{}

// New returns the OpenCL driver.
func New() (cl.Driver, error) {
	return &Driver{}, nil
}

// Name implements cl.Driver.
func (d *Driver) Name() string { return "opencl" }

// Platforms implements cl.Driver.
func (d *Driver) Platforms() ([]cl.Platform, error) {
	var count C.cl_uint
	status := C.clGetPlatformIDs(0, nil, &count)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(count)", status)
	}
	if count == 0 {
		return nil, cl.ErrNoPlatforms
	}

	ids := make([]C.cl_platform_id, int(count))
	status = C.clGetPlatformIDs(count, &ids[0], nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(list)", status)
	}

	out := make([]cl.Platform, 0, int(count))
	for _, id := range ids {
		p, err := buildPlatform(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type gpuPlatform struct {
	id   C.cl_platform_id
	info cl.PlatformInfo
}

func buildPlatform(id C.cl_platform_id) (*gpuPlatform, error) {
	name, err := getPlatformString(id, C.CL_PLATFORM_NAME)
	if err != nil {
		return nil, err
	}
	vendor, err := getPlatformString(id, C.CL_PLATFORM_VENDOR)
	if err != nil {
		return nil, err
	}
	version, err := getPlatformString(id, C.CL_PLATFORM_VERSION)
	if err != nil {
		return nil, err
	}
	return &gpuPlatform{
		id:   id,
		info: cl.PlatformInfo{Name: name, Vendor: vendor, Version: version},
	}, nil
}

func (p *gpuPlatform) Info() cl.PlatformInfo { return p.info }

func (p *gpuPlatform) Devices() ([]cl.Device, error) {
	var count C.cl_uint
	status := C.clGetDeviceIDs(p.id, C.CL_DEVICE_TYPE_ALL, 0, nil, &count)
	if status == C.CL_DEVICE_NOT_FOUND || count == 0 {
		return nil, cl.ErrNoDevices
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(count)", status)
	}

	ids := make([]C.cl_device_id, int(count))
	status = C.clGetDeviceIDs(p.id, C.CL_DEVICE_TYPE_ALL, count, &ids[0], nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(list)", status)
	}

	devices := make([]cl.Device, 0, int(count))
	for _, id := range ids {
		dev, err := buildDevice(id)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

type gpuDevice struct {
	id     C.cl_device_id
	info   cl.DeviceInfo
	limits cl.DeviceLimits
}

func buildDevice(id C.cl_device_id) (*gpuDevice, error) {
	name, err := getDeviceString(id, C.CL_DEVICE_NAME)
	if err != nil {
		return nil, err
	}
	vendor, err := getDeviceString(id, C.CL_DEVICE_VENDOR)
	if err != nil {
		return nil, err
	}
	version, err := getDeviceString(id, C.CL_DEVICE_VERSION)
	if err != nil {
		return nil, err
	}

	var rawType C.cl_device_type
	if status := C.clGetDeviceInfo(id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(rawType)), unsafe.Pointer(&rawType), nil); status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceInfo(type)", status)
	}
	var computeUnits C.cl_uint
	if status := C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(computeUnits)), unsafe.Pointer(&computeUnits), nil); status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceInfo(computeUnits)", status)
	}
	var maxWG C.size_t
	if status := C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_WORK_GROUP_SIZE, C.size_t(unsafe.Sizeof(maxWG)), unsafe.Pointer(&maxWG), nil); status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceInfo(maxWorkGroup)", status)
	}
	var maxDims C.cl_uint
	if status := C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_WORK_ITEM_DIMENSIONS, C.size_t(unsafe.Sizeof(maxDims)), unsafe.Pointer(&maxDims), nil); status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceInfo(maxDims)", status)
	}
	var maxAlloc C.cl_ulong
	if status := C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_MEM_ALLOC_SIZE, C.size_t(unsafe.Sizeof(maxAlloc)), unsafe.Pointer(&maxAlloc), nil); status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceInfo(maxAlloc)", status)
	}
	var globalMem C.cl_ulong
	if status := C.clGetDeviceInfo(id, C.CL_DEVICE_GLOBAL_MEM_SIZE, C.size_t(unsafe.Sizeof(globalMem)), unsafe.Pointer(&globalMem), nil); status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceInfo(globalMem)", status)
	}

	return &gpuDevice{
		id: id,
		info: cl.DeviceInfo{
			Name:            name,
			Vendor:          vendor,
			Version:         version,
			Type:            mapDeviceType(rawType),
			MaxComputeUnits: uint32(computeUnits),
		},
		limits: cl.DeviceLimits{
			MaxWorkGroupSize: int(maxWG),
			MaxWorkItemDims:  int(maxDims),
			MaxMemAllocSize:  int64(maxAlloc),
			GlobalMemSize:    int64(globalMem),
		},
	}, nil
}

func (d *gpuDevice) Info() cl.DeviceInfo     { return d.info }
func (d *gpuDevice) Limits() cl.DeviceLimits { return d.limits }

func (d *gpuDevice) CreateContext() (cl.Context, error) {
	var status C.cl_int
	ctx := C.clCreateContext(nil, 1, &d.id, nil, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateContext", status)
	}
	return &gpuContext{dev: d, ctx: ctx}, nil
}

type gpuContext struct {
	dev *gpuDevice
	ctx C.cl_context
}

func (c *gpuContext) Device() cl.Device { return c.dev }

func (c *gpuContext) CreateQueue() (cl.Queue, error) {
	var status C.cl_int
	q := C.oclkit_create_queue(c.ctx, c.dev.id, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateCommandQueue", status)
	}
	return &gpuQueue{ctx: c, q: q}, nil
}

func (c *gpuContext) CreateBuffer(flags cl.MemFlags, size int, host []byte) (cl.Mem, error) {
	var hostPtr unsafe.Pointer
	if host != nil {
		hostPtr = unsafe.Pointer(&host[0])
	}
	var status C.cl_int
	m := C.clCreateBuffer(c.ctx, mapMemFlags(flags), C.size_t(size), hostPtr, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateBuffer", status)
	}
	return &gpuMem{mem: m, size: size}, nil
}

func (c *gpuContext) CreateImage(flags cl.MemFlags, format cl.ImageFormat, width, height int, host []byte) (cl.Mem, error) {
	var hostPtr unsafe.Pointer
	if host != nil {
		hostPtr = unsafe.Pointer(&host[0])
	}
	cFormat := C.cl_image_format{
		image_channel_order:     mapChannelOrder(format.Order),
		image_channel_data_type: mapChannelType(format.Type),
	}
	var status C.cl_int
	m := C.clCreateImage2D(c.ctx, mapMemFlags(flags), &cFormat,
		C.size_t(width), C.size_t(height), 0, hostPtr, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateImage2D", status)
	}
	return &gpuMem{
		mem:  m,
		size: width * height * format.PixelBytes(),
		image: &gpuImageDesc{
			width:  width,
			height: height,
			pix:    format.PixelBytes(),
		},
	}, nil
}

func (c *gpuContext) BuildProgram(source, options string) (cl.Program, error) {
	cSource := C.CString(source)
	defer C.free(unsafe.Pointer(cSource))

	var status C.cl_int
	prg := C.clCreateProgramWithSource(c.ctx, 1, &cSource, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateProgramWithSource", status)
	}
	if err := c.build(prg, options); err != nil {
		C.clReleaseProgram(prg)
		return nil, err
	}
	return &gpuProgram{ctx: c, prg: prg}, nil
}

func (c *gpuContext) BuildProgramFromBinary(binary []byte, options string) (cl.Program, error) {
	if len(binary) == 0 {
		return nil, fmt.Errorf("clgpu: empty program binary")
	}
	length := C.size_t(len(binary))
	ptr := (*C.uchar)(unsafe.Pointer(&binary[0]))

	var status, binStatus C.cl_int
	prg := C.clCreateProgramWithBinary(c.ctx, 1, &c.dev.id, &length, &ptr, &binStatus, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateProgramWithBinary", status)
	}
	if err := c.build(prg, options); err != nil {
		C.clReleaseProgram(prg)
		return nil, err
	}
	return &gpuProgram{ctx: c, prg: prg}, nil
}

func (c *gpuContext) build(prg C.cl_program, options string) error {
	cOptions := C.CString(options)
	defer C.free(unsafe.Pointer(cOptions))

	status := C.clBuildProgram(prg, 1, &c.dev.id, cOptions, nil, nil)
	if status == C.CL_SUCCESS {
		return nil
	}

	var logSize C.size_t
	C.clGetProgramBuildInfo(prg, c.dev.id, C.CL_PROGRAM_BUILD_LOG, 0, nil, &logSize)
	log := make([]byte, int(logSize)+1)
	C.clGetProgramBuildInfo(prg, c.dev.id, C.CL_PROGRAM_BUILD_LOG, logSize, unsafe.Pointer(&log[0]), nil)
	return fmt.Errorf("clgpu: program build failed: %s: %s", clStatusString(status), trimNull(log))
}

func (c *gpuContext) Release() error {
	if status := C.clReleaseContext(c.ctx); status != C.CL_SUCCESS {
		return statusError("clReleaseContext", status)
	}
	return nil
}

type gpuImageDesc struct {
	width  int
	height int
	pix    int
}

type gpuMem struct {
	mem   C.cl_mem
	size  int
	image *gpuImageDesc
}

func (m *gpuMem) Size() int { return m.size }

func (m *gpuMem) CreateSub(flags cl.MemFlags, origin, size int) (cl.Mem, error) {
	if m.image != nil {
		return nil, fmt.Errorf("clgpu: sub-allocation is defined for buffers only")
	}
	region := C.cl_buffer_region{
		origin: C.size_t(origin),
		size:   C.size_t(size),
	}
	var status C.cl_int
	sub := C.clCreateSubBuffer(m.mem, mapMemFlags(flags), C.CL_BUFFER_CREATE_TYPE_REGION,
		unsafe.Pointer(&region), &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateSubBuffer", status)
	}
	return &gpuMem{mem: sub, size: size}, nil
}

func (m *gpuMem) Release() error {
	if status := C.clReleaseMemObject(m.mem); status != C.CL_SUCCESS {
		return statusError("clReleaseMemObject", status)
	}
	return nil
}

type gpuQueue struct {
	ctx *gpuContext
	q   C.cl_command_queue
}

func waitListOf(wait []cl.Event) (C.cl_uint, *C.cl_event) {
	if len(wait) == 0 {
		return 0, nil
	}
	events := make([]C.cl_event, 0, len(wait))
	for _, w := range wait {
		if ge, ok := w.(*gpuEvent); ok {
			events = append(events, ge.evt)
		}
	}
	if len(events) == 0 {
		return 0, nil
	}
	return C.cl_uint(len(events)), &events[0]
}

func (q *gpuQueue) EnqueueRead(mem cl.Mem, dst []byte, wait []cl.Event) (cl.Event, error) {
	gm := mem.(*gpuMem)
	n, list := waitListOf(wait)
	var evt C.cl_event
	var status C.cl_int
	if gm.image != nil {
		origin := [3]C.size_t{0, 0, 0}
		region := [3]C.size_t{C.size_t(gm.image.width), C.size_t(gm.image.height), 1}
		status = C.clEnqueueReadImage(q.q, gm.mem, C.CL_FALSE, &origin[0], &region[0],
			0, 0, unsafe.Pointer(&dst[0]), n, list, &evt)
	} else {
		status = C.clEnqueueReadBuffer(q.q, gm.mem, C.CL_FALSE, 0, C.size_t(gm.size),
			unsafe.Pointer(&dst[0]), n, list, &evt)
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clEnqueueRead", status)
	}
	return &gpuEvent{evt: evt}, nil
}

func (q *gpuQueue) EnqueueWrite(mem cl.Mem, src []byte, wait []cl.Event) (cl.Event, error) {
	gm := mem.(*gpuMem)
	n, list := waitListOf(wait)
	var evt C.cl_event
	var status C.cl_int
	if gm.image != nil {
		origin := [3]C.size_t{0, 0, 0}
		region := [3]C.size_t{C.size_t(gm.image.width), C.size_t(gm.image.height), 1}
		status = C.clEnqueueWriteImage(q.q, gm.mem, C.CL_FALSE, &origin[0], &region[0],
			0, 0, unsafe.Pointer(&src[0]), n, list, &evt)
	} else {
		status = C.clEnqueueWriteBuffer(q.q, gm.mem, C.CL_FALSE, 0, C.size_t(gm.size),
			unsafe.Pointer(&src[0]), n, list, &evt)
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clEnqueueWrite", status)
	}
	return &gpuEvent{evt: evt}, nil
}

func (q *gpuQueue) EnqueueCopy(src, dst cl.Mem, size int, wait []cl.Event) (cl.Event, error) {
	gs := src.(*gpuMem)
	gd := dst.(*gpuMem)
	n, list := waitListOf(wait)
	var evt C.cl_event
	var status C.cl_int
	if gs.image != nil {
		origin := [3]C.size_t{0, 0, 0}
		region := [3]C.size_t{C.size_t(gs.image.width), C.size_t(gs.image.height), 1}
		status = C.clEnqueueCopyImage(q.q, gs.mem, gd.mem, &origin[0], &origin[0], &region[0], n, list, &evt)
	} else {
		status = C.clEnqueueCopyBuffer(q.q, gs.mem, gd.mem, 0, 0, C.size_t(size), n, list, &evt)
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clEnqueueCopy", status)
	}
	return &gpuEvent{evt: evt}, nil
}

func (q *gpuQueue) EnqueueMap(mem cl.Mem, flags cl.MapFlags, wait []cl.Event) (cl.Mapping, cl.Event, error) {
	gm := mem.(*gpuMem)
	n, list := waitListOf(wait)
	var evt C.cl_event
	var status C.cl_int
	var ptr unsafe.Pointer
	rowPitch := 0
	if gm.image != nil {
		origin := [3]C.size_t{0, 0, 0}
		region := [3]C.size_t{C.size_t(gm.image.width), C.size_t(gm.image.height), 1}
		var pitch C.size_t
		ptr = C.clEnqueueMapImage(q.q, gm.mem, C.CL_FALSE, mapMapFlags(flags),
			&origin[0], &region[0], &pitch, nil, n, list, &evt, &status)
		rowPitch = int(pitch)
	} else {
		ptr = C.clEnqueueMapBuffer(q.q, gm.mem, C.CL_FALSE, mapMapFlags(flags),
			0, C.size_t(gm.size), n, list, &evt, &status)
	}
	if status != C.CL_SUCCESS {
		return cl.Mapping{}, nil, statusError("clEnqueueMap", status)
	}
	size := gm.size
	if gm.image != nil {
		size = rowPitch * gm.image.height
	}
	bytes := unsafe.Slice((*byte)(ptr), size)
	return cl.Mapping{Bytes: bytes, RowPitch: rowPitch}, &gpuEvent{evt: evt}, nil
}

func (q *gpuQueue) EnqueueUnmap(mem cl.Mem, m cl.Mapping, wait []cl.Event) (cl.Event, error) {
	gm := mem.(*gpuMem)
	n, list := waitListOf(wait)
	var evt C.cl_event
	status := C.clEnqueueUnmapMemObject(q.q, gm.mem,
		unsafe.Pointer(unsafe.SliceData(m.Bytes)), n, list, &evt)
	if status != C.CL_SUCCESS {
		return nil, statusError("clEnqueueUnmapMemObject", status)
	}
	return &gpuEvent{evt: evt}, nil
}

func (q *gpuQueue) EnqueueNDRange(k cl.Kernel, dim int, global, local []int, wait []cl.Event) (cl.Event, error) {
	gk := k.(*gpuKernel)
	n, list := waitListOf(wait)

	var globalSizes, localSizes [3]C.size_t
	for i := 0; i < dim; i++ {
		globalSizes[i] = C.size_t(global[i])
	}
	var localPtr *C.size_t
	if local != nil {
		for i := 0; i < dim; i++ {
			localSizes[i] = C.size_t(local[i])
		}
		localPtr = &localSizes[0]
	}

	var evt C.cl_event
	status := C.clEnqueueNDRangeKernel(q.q, gk.krn, C.cl_uint(dim), nil,
		&globalSizes[0], localPtr, n, list, &evt)
	if status != C.CL_SUCCESS {
		return nil, statusError("clEnqueueNDRangeKernel", status)
	}
	return &gpuEvent{evt: evt}, nil
}

func (q *gpuQueue) Finish() error {
	if status := C.clFinish(q.q); status != C.CL_SUCCESS {
		return statusError("clFinish", status)
	}
	return nil
}

func (q *gpuQueue) Release() error {
	if status := C.clReleaseCommandQueue(q.q); status != C.CL_SUCCESS {
		return statusError("clReleaseCommandQueue", status)
	}
	return nil
}

type gpuProgram struct {
	ctx *gpuContext
	prg C.cl_program
}

func (p *gpuProgram) CreateKernel(name string) (cl.Kernel, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var status C.cl_int
	krn := C.clCreateKernel(p.prg, cName, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateKernel", status)
	}
	return &gpuKernel{krn: krn, name: name}, nil
}

func (p *gpuProgram) Release() error {
	if status := C.clReleaseProgram(p.prg); status != C.CL_SUCCESS {
		return statusError("clReleaseProgram", status)
	}
	return nil
}

type gpuKernel struct {
	krn  C.cl_kernel
	name string
}

func (k *gpuKernel) Name() string { return k.name }

func (k *gpuKernel) NumArgs() (int, error) {
	var numArgs C.cl_uint
	status := C.clGetKernelInfo(k.krn, C.CL_KERNEL_NUM_ARGS,
		C.size_t(unsafe.Sizeof(numArgs)), unsafe.Pointer(&numArgs), nil)
	if status != C.CL_SUCCESS {
		return 0, statusError("clGetKernelInfo(numArgs)", status)
	}
	return int(numArgs), nil
}

func (k *gpuKernel) MaxWorkGroupSize(dev cl.Device) (int, error) {
	gd, ok := dev.(*gpuDevice)
	if !ok {
		return 0, fmt.Errorf("clgpu: foreign device handle %T", dev)
	}
	var size C.size_t
	status := C.clGetKernelWorkGroupInfo(k.krn, gd.id, C.CL_KERNEL_WORK_GROUP_SIZE,
		C.size_t(unsafe.Sizeof(size)), unsafe.Pointer(&size), nil)
	if status != C.CL_SUCCESS {
		return 0, statusError("clGetKernelWorkGroupInfo", status)
	}
	return int(size), nil
}

func (k *gpuKernel) SetArgMem(index int, mem cl.Mem) error {
	gm := mem.(*gpuMem)
	status := C.clSetKernelArg(k.krn, C.cl_uint(index),
		C.size_t(unsafe.Sizeof(gm.mem)), unsafe.Pointer(&gm.mem))
	if status != C.CL_SUCCESS {
		return statusError("clSetKernelArg(mem)", status)
	}
	return nil
}

func (k *gpuKernel) SetArgBytes(index int, data []byte) error {
	status := C.clSetKernelArg(k.krn, C.cl_uint(index),
		C.size_t(len(data)), unsafe.Pointer(&data[0]))
	if status != C.CL_SUCCESS {
		return statusError("clSetKernelArg(bytes)", status)
	}
	return nil
}

func (k *gpuKernel) Release() error {
	if status := C.clReleaseKernel(k.krn); status != C.CL_SUCCESS {
		return statusError("clReleaseKernel", status)
	}
	return nil
}

type gpuEvent struct {
	evt C.cl_event
}

func (e *gpuEvent) Wait() error {
	if status := C.clWaitForEvents(1, &e.evt); status != C.CL_SUCCESS {
		return statusError("clWaitForEvents", status)
	}
	return nil
}

func (e *gpuEvent) Status() (cl.ExecStatus, error) {
	var exec C.cl_int
	status := C.clGetEventInfo(e.evt, C.CL_EVENT_COMMAND_EXECUTION_STATUS,
		C.size_t(unsafe.Sizeof(exec)), unsafe.Pointer(&exec), nil)
	if status != C.CL_SUCCESS {
		return cl.ExecFailed, statusError("clGetEventInfo", status)
	}
	switch exec {
	case C.CL_COMPLETE:
		return cl.ExecComplete, nil
	case C.CL_RUNNING:
		return cl.ExecRunning, nil
	case C.CL_SUBMITTED:
		return cl.ExecSubmitted, nil
	case C.CL_QUEUED:
		return cl.ExecQueued, nil
	}
	return cl.ExecFailed, nil
}

func (e *gpuEvent) Profile() (uint64, uint64, error) {
	var start, end C.cl_ulong
	status := C.clGetEventProfilingInfo(e.evt, C.CL_PROFILING_COMMAND_START,
		C.size_t(unsafe.Sizeof(start)), unsafe.Pointer(&start), nil)
	if status != C.CL_SUCCESS {
		return 0, 0, statusError("clGetEventProfilingInfo(start)", status)
	}
	status = C.clGetEventProfilingInfo(e.evt, C.CL_PROFILING_COMMAND_END,
		C.size_t(unsafe.Sizeof(end)), unsafe.Pointer(&end), nil)
	if status != C.CL_SUCCESS {
		return 0, 0, statusError("clGetEventProfilingInfo(end)", status)
	}
	return uint64(start), uint64(end), nil
}

func mapMemFlags(f cl.MemFlags) C.cl_mem_flags {
	var out C.cl_mem_flags
	if f&cl.MemReadWrite != 0 {
		out |= C.CL_MEM_READ_WRITE
	}
	if f&cl.MemWriteOnly != 0 {
		out |= C.CL_MEM_WRITE_ONLY
	}
	if f&cl.MemReadOnly != 0 {
		out |= C.CL_MEM_READ_ONLY
	}
	if f&cl.MemUseHostPtr != 0 {
		out |= C.CL_MEM_USE_HOST_PTR
	}
	if f&cl.MemAllocHostPtr != 0 {
		out |= C.CL_MEM_ALLOC_HOST_PTR
	}
	if f&cl.MemCopyHostPtr != 0 {
		out |= C.CL_MEM_COPY_HOST_PTR
	}
	return out
}

func mapMapFlags(f cl.MapFlags) C.cl_map_flags {
	var out C.cl_map_flags
	if f&cl.MapRead != 0 {
		out |= C.CL_MAP_READ
	}
	if f&cl.MapWrite != 0 {
		out |= C.CL_MAP_WRITE
	}
	return out
}

func mapChannelOrder(o cl.ChannelOrder) C.cl_channel_order {
	switch o {
	case cl.ChannelR:
		return C.CL_R
	case cl.ChannelRG:
		return C.CL_RG
	}
	return C.CL_RGBA
}

func mapChannelType(t cl.ChannelType) C.cl_channel_type {
	switch t {
	case cl.ChannelUint32:
		return C.CL_UNSIGNED_INT32
	case cl.ChannelFloat32:
		return C.CL_FLOAT
	}
	return C.CL_UNORM_INT8
}

func mapDeviceType(dt C.cl_device_type) cl.DeviceType {
	switch {
	case dt&C.CL_DEVICE_TYPE_GPU != 0:
		return cl.DeviceTypeGPU
	case dt&C.CL_DEVICE_TYPE_CPU != 0:
		return cl.DeviceTypeCPU
	case dt&C.CL_DEVICE_TYPE_ACCELERATOR != 0:
		return cl.DeviceTypeAccelerator
	case dt&C.CL_DEVICE_TYPE_DEFAULT != 0:
		return cl.DeviceTypeDefault
	default:
		return cl.DeviceTypeUnknown
	}
}

func getPlatformString(id C.cl_platform_id, param C.cl_platform_info) (string, error) {
	var size C.size_t
	status := C.clGetPlatformInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, int(size))
	status = C.clGetPlatformInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(value)", status)
	}
	return trimNull(buf), nil
}

func getDeviceString(id C.cl_device_id, param C.cl_device_info) (string, error) {
	var size C.size_t
	status := C.clGetDeviceInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, int(size))
	status = C.clGetDeviceInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(value)", status)
	}
	return trimNull(buf), nil
}

func trimNull(buf []byte) string {
	for len(buf) > 0 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}

func clStatusString(status C.cl_int) string {
	return C.GoString(C.oclkit_cl_error_string(status))
}

func statusError(prefix string, status C.cl_int) error {
	return fmt.Errorf("%s: %s (%d)", prefix, clStatusString(status), int(status))
}
