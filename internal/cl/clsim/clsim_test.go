package clsim

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cwbudde/oclkit/internal/cl"
)

func newTestQueue(t *testing.T) (*Driver, cl.Context, cl.Queue) {
	t.Helper()
	drv := New()
	platforms, err := drv.Platforms()
	if err != nil {
		t.Fatalf("Platforms failed: %v", err)
	}
	devices, err := platforms[0].Devices()
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	ctx, err := devices[0].CreateContext()
	if err != nil {
		t.Fatalf("CreateContext failed: %v", err)
	}
	q, err := ctx.CreateQueue()
	if err != nil {
		t.Fatalf("CreateQueue failed: %v", err)
	}
	t.Cleanup(func() {
		q.Release()
		ctx.Release()
	})
	return drv, ctx, q
}

func TestBuildScansDeclarations(t *testing.T) {
	drv, ctx, _ := newTestQueue(t)
	drv.Register("foo", 1, func(inv *Invocation) error { return nil })

	source := "__kernel void foo(__global float *x) {}"
	prog, err := ctx.BuildProgram(source, "")
	if err != nil {
		t.Fatalf("BuildProgram failed: %v", err)
	}
	if _, err := prog.CreateKernel("foo"); err != nil {
		t.Errorf("CreateKernel(foo): %v", err)
	}
	if _, err := prog.CreateKernel("bar"); err == nil {
		t.Error("CreateKernel(bar) succeeded for undeclared name")
	}
}

func TestBuildWithoutDeclarationsFails(t *testing.T) {
	_, ctx, _ := newTestQueue(t)
	if _, err := ctx.BuildProgram("int main() {}", ""); err == nil {
		t.Fatal("expected build failure for source without kernels")
	}
}

func TestCreateKernelUnregistered(t *testing.T) {
	_, ctx, _ := newTestQueue(t)
	prog, err := ctx.BuildProgram("__kernel void ghost() {}", "")
	if err != nil {
		t.Fatalf("BuildProgram failed: %v", err)
	}
	if _, err := prog.CreateKernel("ghost"); !errors.Is(err, ErrUnknownKernel) {
		t.Errorf("got %v, want ErrUnknownKernel", err)
	}
}

func TestQueueOrdering(t *testing.T) {
	_, ctx, q := newTestQueue(t)
	mem, err := ctx.CreateBuffer(cl.MemReadWrite, 4, nil)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}

	// Two writes to the same queue land in submission order.
	if _, err := q.EnqueueWrite(mem, []byte{1, 1, 1, 1}, nil); err != nil {
		t.Fatalf("EnqueueWrite failed: %v", err)
	}
	if _, err := q.EnqueueWrite(mem, []byte{2, 2, 2, 2}, nil); err != nil {
		t.Fatalf("EnqueueWrite failed: %v", err)
	}
	dst := make([]byte, 4)
	evt, err := q.EnqueueRead(mem, dst, nil)
	if err != nil {
		t.Fatalf("EnqueueRead failed: %v", err)
	}
	if err := evt.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !bytes.Equal(dst, []byte{2, 2, 2, 2}) {
		t.Errorf("read %v, want the second write", dst)
	}
}

func TestSubBufferAliasesParent(t *testing.T) {
	_, ctx, q := newTestQueue(t)
	parent, err := ctx.CreateBuffer(cl.MemReadWrite, 16, nil)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	child, err := parent.CreateSub(cl.MemReadWrite, 8, 4)
	if err != nil {
		t.Fatalf("CreateSub failed: %v", err)
	}

	evt, err := q.EnqueueWrite(child, []byte{9, 9, 9, 9}, nil)
	if err != nil {
		t.Fatalf("EnqueueWrite failed: %v", err)
	}
	if err := evt.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	all := make([]byte, 16)
	evt, err = q.EnqueueRead(parent, all, nil)
	if err != nil {
		t.Fatalf("EnqueueRead failed: %v", err)
	}
	if err := evt.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !bytes.Equal(all[8:12], []byte{9, 9, 9, 9}) {
		t.Errorf("parent bytes 8..12 = %v, want child write", all[8:12])
	}
}

func TestProfileBeforeCompletion(t *testing.T) {
	evt := newSimEvent()
	if _, _, err := evt.Profile(); err == nil {
		t.Fatal("Profile before completion succeeded")
	}
	evt.complete(10, 20, nil)
	start, end, err := evt.Profile()
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if start != 10 || end != 20 {
		t.Errorf("timestamps = %d/%d, want 10/20", start, end)
	}
}

func TestEnqueueCounter(t *testing.T) {
	drv, ctx, q := newTestQueue(t)
	mem, err := ctx.CreateBuffer(cl.MemReadWrite, 4, nil)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	before := drv.Enqueues()
	evt, err := q.EnqueueWrite(mem, []byte{1, 2, 3, 4}, nil)
	if err != nil {
		t.Fatalf("EnqueueWrite failed: %v", err)
	}
	if err := evt.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if got := drv.Enqueues() - before; got != 1 {
		t.Errorf("counter advanced by %d, want 1", got)
	}
}
