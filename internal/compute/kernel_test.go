package compute_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/oclkit/internal/cl"
	"github.com/cwbudde/oclkit/internal/cl/clsim"
	"github.com/cwbudde/oclkit/internal/compute"
)

const scaleSource = `
__kernel void scale(__global float *data, const float factor, const int n)
{
	int i = get_global_id(0);
	if (i < n) data[i] *= factor;
}
`

func registerScale(drv *clsim.Driver) {
	drv.Register("scale", 3, func(inv *clsim.Invocation) error {
		data, err := inv.Mem(0)
		if err != nil {
			return err
		}
		factor, err := inv.Float32(1)
		if err != nil {
			return err
		}
		n, err := inv.Int32(2)
		if err != nil {
			return err
		}
		for i := 0; i < int(n); i++ {
			v := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v*factor))
		}
		return nil
	})
}

func newScaleKernel(t *testing.T) (*clsim.Driver, *compute.Context, *compute.Kernel) {
	t.Helper()
	drv, ctx := newTestContext(t)
	registerScale(drv)
	k, err := compute.MakeKernel(ctx, scaleSource, "scale", "")
	if err != nil {
		t.Fatalf("MakeKernel failed: %v", err)
	}
	t.Cleanup(func() { k.Close() })
	return drv, ctx, k
}

func floatBuffer(t *testing.T, ctx *compute.Context, values []float32) *compute.Buffer {
	t.Helper()
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	buf := mustBuffer(t, ctx, cl.MemReadWrite, len(raw), nil)
	if err := buf.Write(raw, blocking); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf
}

func readFloats(t *testing.T, buf *compute.Buffer, n int) []float32 {
	t.Helper()
	raw := make([]byte, 4*n)
	if err := buf.Read(raw, blocking); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

func TestMakeKernelReportsArgs(t *testing.T) {
	_, _, k := newScaleKernel(t)

	if k.Name() != "scale" {
		t.Errorf("Name = %q, want %q", k.Name(), "scale")
	}
	if k.Args() != 3 {
		t.Errorf("Args = %d, want 3", k.Args())
	}
}

func TestMakeKernelUnknownEntryPoint(t *testing.T) {
	_, ctx := newTestContext(t)
	if _, err := compute.MakeKernel(ctx, scaleSource, "missing", ""); err == nil {
		t.Fatal("expected error for undeclared entry point")
	}
}

func TestMakeKernelUnregisteredImplementation(t *testing.T) {
	_, ctx := newTestContext(t)
	// Declared in source but never registered with the simulated driver.
	if _, err := compute.MakeKernel(ctx, scaleSource, "scale", ""); !errors.Is(err, clsim.ErrUnknownKernel) {
		t.Fatalf("got %v, want ErrUnknownKernel", err)
	}
}

func TestMakeKernelFromBinary(t *testing.T) {
	drv, ctx := newTestContext(t)
	registerScale(drv)
	k, err := compute.MakeKernelFromBinary(ctx, []byte(scaleSource), "scale", "")
	if err != nil {
		t.Fatalf("MakeKernelFromBinary failed: %v", err)
	}
	defer k.Close()
	if k.Args() != 3 {
		t.Errorf("Args = %d, want 3", k.Args())
	}
}

func TestSetNDSizesValidation(t *testing.T) {
	tests := []struct {
		name   string
		dim    int
		global []int
		local  []int
		want   compute.Status
	}{
		{"dim zero", 0, []int{64}, nil, compute.StatusGeometryInvalid},
		{"dim too large", 4, []int{8, 8, 8, 8}, nil, compute.StatusGeometryInvalid},
		{"missing global", 2, []int{64}, nil, compute.StatusGeometryInvalid},
		{"zero global", 1, []int{0}, nil, compute.StatusGeometryInvalid},
		{"group exceeds device max", 1, []int{1024}, []int{512}, compute.StatusGeometryInvalid},
		{"group product exceeds max", 2, []int{64, 64}, []int{32, 32}, compute.StatusGeometryInvalid},
		{"global not multiple", 1, []int{100}, []int{64}, compute.StatusGeometryInvalid},
		{"no local", 1, []int{1024}, nil, compute.StatusOK},
		{"valid local", 2, []int{64, 64}, []int{16, 16}, compute.StatusOK},
		{"partial local", 2, []int{64, 64}, []int{16, 0}, compute.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, k := newScaleKernel(t)
			err := k.SetNDSizes(tc.dim, tc.global, tc.local)
			if tc.want == compute.StatusOK {
				if err != nil {
					t.Fatalf("SetNDSizes failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSetNDSizesFailureKeepsGeometry(t *testing.T) {
	_, _, k := newScaleKernel(t)

	if err := k.SetNDSizes(1, []int{1024}, []int{64}); err != nil {
		t.Fatalf("SetNDSizes failed: %v", err)
	}
	if err := k.SetNDSizes(1, []int{100}, []int{64}); !errors.Is(err, compute.StatusGeometryInvalid) {
		t.Fatalf("got %v, want StatusGeometryInvalid", err)
	}

	dim, global, local := k.Geometry()
	if dim != 1 || global[0] != 1024 || local[0] != 64 {
		t.Errorf("geometry = %d/%v/%v, want 1/[1024 0 0]/[64 0 0]", dim, global, local)
	}
}

func TestLaunchWithoutLocalGrouping(t *testing.T) {
	_, ctx, k := newScaleKernel(t)
	buf := floatBuffer(t, ctx, []float32{1, 2, 3, 4})

	if err := k.SetNDSizes(1, []int{4}, nil); err != nil {
		t.Fatalf("SetNDSizes failed: %v", err)
	}
	args := []compute.Arg{
		compute.MemArg(buf),
		compute.Float32Arg(2),
		compute.Int32Arg(4),
	}
	if err := k.Launch(args, compute.OpOptions{}); err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if err := ctx.WaitForCommands(); err != nil {
		t.Fatalf("WaitForCommands failed: %v", err)
	}
	state, err := k.CheckStatus()
	if err != nil {
		t.Fatalf("CheckStatus failed: %v", err)
	}
	if state != cl.ExecComplete {
		t.Errorf("state = %s, want complete", state)
	}

	got := readFloats(t, buf, 4)
	want := []float32{2, 4, 6, 8}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestLaunchArgCountMismatch(t *testing.T) {
	_, ctx, k := newScaleKernel(t)
	buf := floatBuffer(t, ctx, []float32{1})

	if err := k.SetNDSizes(1, []int{1}, nil); err != nil {
		t.Fatalf("SetNDSizes failed: %v", err)
	}
	err := k.Launch([]compute.Arg{compute.MemArg(buf)}, compute.OpOptions{})
	if !errors.Is(err, compute.StatusInvalidArgument) {
		t.Errorf("got %v, want StatusInvalidArgument", err)
	}
}

func TestNDRangeWithoutGeometry(t *testing.T) {
	_, _, k := newScaleKernel(t)
	if err := k.NDRange(compute.OpOptions{}); !errors.Is(err, compute.StatusGeometryInvalid) {
		t.Errorf("got %v, want StatusGeometryInvalid", err)
	}
}

func TestCheckStatusBeforeDispatch(t *testing.T) {
	_, _, k := newScaleKernel(t)
	if _, err := k.CheckStatus(); !errors.Is(err, compute.StatusInvalidArgument) {
		t.Errorf("got %v, want StatusInvalidArgument", err)
	}
}

func TestExternalEventDelivery(t *testing.T) {
	_, ctx, k := newScaleKernel(t)
	buf := floatBuffer(t, ctx, []float32{1, 2})

	if err := k.SetNDSizes(1, []int{2}, nil); err != nil {
		t.Fatalf("SetNDSizes failed: %v", err)
	}
	var evt cl.Event
	args := []compute.Arg{
		compute.MemArg(buf),
		compute.Float32Arg(3),
		compute.Int32Arg(2),
	}
	if err := k.Launch(args, compute.OpOptions{Event: &evt}); err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if evt == nil {
		t.Fatal("no event delivered")
	}
	if err := evt.Wait(); err != nil {
		t.Fatalf("event Wait failed: %v", err)
	}
	// CheckStatus reads the delivered event.
	state, err := k.CheckStatus()
	if err != nil {
		t.Fatalf("CheckStatus failed: %v", err)
	}
	if state != cl.ExecComplete {
		t.Errorf("state = %s, want complete", state)
	}
}

func TestMeasureAccumulatesMeasureOnceDoesNot(t *testing.T) {
	_, ctx, k := newScaleKernel(t)
	buf := floatBuffer(t, ctx, []float32{1, 2, 3, 4})

	if err := k.SetNDSizes(1, []int{4}, nil); err != nil {
		t.Fatalf("SetNDSizes failed: %v", err)
	}
	args := []compute.Arg{
		compute.MemArg(buf),
		compute.Float32Arg(1),
		compute.Int32Arg(4),
	}

	for i := 0; i < 2; i++ {
		if err := k.Launch(args, compute.OpOptions{Mode: compute.Measure}); err != nil {
			t.Fatalf("measured Launch failed: %v", err)
		}
	}
	timer := k.Timer()
	if got := timer.Calls(compute.DeviceSide); got != 2 {
		t.Fatalf("Calls = %d, want 2", got)
	}
	total := timer.Total(compute.DeviceSide)

	if err := k.Launch(args, compute.OpOptions{Mode: compute.MeasureOnce}); err != nil {
		t.Fatalf("MeasureOnce Launch failed: %v", err)
	}
	if got := timer.Calls(compute.DeviceSide); got != 2 {
		t.Errorf("Calls after MeasureOnce = %d, want 2", got)
	}
	if got := timer.Total(compute.DeviceSide); got != total {
		t.Errorf("Total after MeasureOnce = %g, want unchanged %g", got, total)
	}
}
