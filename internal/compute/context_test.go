package compute_test

import (
	"errors"
	"testing"

	"github.com/cwbudde/oclkit/internal/cl"
	"github.com/cwbudde/oclkit/internal/cl/clsim"
	"github.com/cwbudde/oclkit/internal/compute"
)

func newTestContext(t *testing.T) (*clsim.Driver, *compute.Context) {
	t.Helper()
	drv := clsim.New()
	ctx, err := compute.NewContext(drv, compute.DefaultContextOptions())
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })
	return drv, ctx
}

func TestNewContextSelectsDevice(t *testing.T) {
	_, ctx := newTestContext(t)

	if got := ctx.Device().Info().Type; got != cl.DeviceTypeCPU {
		t.Errorf("device type = %s, want %s", got, cl.DeviceTypeCPU)
	}
	for name, q := range map[string]cl.Queue{
		"dispatch": ctx.DispatchQueue(),
		"htod":     ctx.HostToDevice(),
		"dtoh":     ctx.DeviceToHost(),
		"dtod":     ctx.DeviceToDevice(),
	} {
		if q == nil {
			t.Errorf("queue %s is nil", name)
		}
	}
}

func TestContextWaits(t *testing.T) {
	_, ctx := newTestContext(t)

	if err := ctx.WaitForData(); err != nil {
		t.Errorf("WaitForData: %v", err)
	}
	if err := ctx.WaitForCommands(); err != nil {
		t.Errorf("WaitForCommands: %v", err)
	}
}

func TestContextCloseIdempotent(t *testing.T) {
	drv := clsim.New()
	ctx, err := compute.NewContext(drv, compute.DefaultContextOptions())
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewContextPinned(t *testing.T) {
	drv := clsim.New()

	ctx, err := compute.NewContext(drv, compute.ContextOptions{Platform: 0, Device: 0})
	if err != nil {
		t.Fatalf("pinned NewContext failed: %v", err)
	}
	ctx.Close()

	_, err = compute.NewContext(drv, compute.ContextOptions{Platform: 5, Device: 0})
	if !errors.Is(err, compute.StatusInvalidArgument) {
		t.Errorf("out-of-range platform: got %v, want StatusInvalidArgument", err)
	}
}

func TestNewContextNilDriver(t *testing.T) {
	_, err := compute.NewContext(nil, compute.DefaultContextOptions())
	if !errors.Is(err, compute.StatusInvalidArgument) {
		t.Errorf("got %v, want StatusInvalidArgument", err)
	}
}

func TestContextBuildParams(t *testing.T) {
	drv := clsim.New()
	opts := compute.DefaultContextOptions()
	opts.BuildParams = "-DWIDTH=16"
	ctx, err := compute.NewContext(drv, opts)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	defer ctx.Close()

	if got := ctx.BuildParams(); got != "-DWIDTH=16" {
		t.Errorf("BuildParams = %q, want %q", got, "-DWIDTH=16")
	}
}
