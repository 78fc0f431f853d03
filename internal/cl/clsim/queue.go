package clsim

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/cwbudde/oclkit/internal/cl"
)

// simEvent tracks one enqueued command. Completion closes done; profiling
// timestamps are taken from the driver clock around command execution.
type simEvent struct {
	mu      sync.Mutex
	done    chan struct{}
	status  cl.ExecStatus
	err     error
	startNS uint64
	endNS   uint64
}

func newSimEvent() *simEvent {
	return &simEvent{done: make(chan struct{}), status: cl.ExecQueued}
}

func (e *simEvent) setStatus(s cl.ExecStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

func (e *simEvent) complete(startNS, endNS uint64, err error) {
	e.mu.Lock()
	e.startNS = startNS
	e.endNS = endNS
	e.err = err
	if err != nil {
		e.status = cl.ExecFailed
	} else {
		e.status = cl.ExecComplete
	}
	e.mu.Unlock()
	close(e.done)
}

func (e *simEvent) Wait() error {
	<-e.done
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *simEvent) Status() (cl.ExecStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, nil
}

func (e *simEvent) Profile() (uint64, uint64, error) {
	select {
	case <-e.done:
	default:
		return 0, 0, errors.New("clsim: profiling info not available before completion")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return 0, 0, errors.Wrap(e.err, "clsim: command failed")
	}
	return e.startNS, e.endNS, nil
}

type simCommand struct {
	wait []cl.Event
	evt  *simEvent
	run  func() error
}

// simQueue executes commands in submission order on a dedicated goroutine.
type simQueue struct {
	id   string
	drv  *Driver
	mu   sync.Mutex
	cmds chan *simCommand
	quit chan struct{}
	dead bool
}

func newSimQueue(drv *Driver) *simQueue {
	q := &simQueue{
		id:   newID(),
		drv:  drv,
		cmds: make(chan *simCommand, 64),
		quit: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *simQueue) loop() {
	for {
		select {
		case cmd := <-q.cmds:
			q.execute(cmd)
		case <-q.quit:
			// Drain whatever was submitted before release.
			for {
				select {
				case cmd := <-q.cmds:
					q.execute(cmd)
				default:
					return
				}
			}
		}
	}
}

func (q *simQueue) execute(cmd *simCommand) {
	for _, w := range cmd.wait {
		if w == nil {
			continue
		}
		if err := w.Wait(); err != nil {
			cmd.evt.complete(q.drv.now(), q.drv.now(), errors.Wrap(err, "clsim: wait-list event failed"))
			return
		}
	}
	cmd.evt.setStatus(cl.ExecRunning)
	start := q.drv.now()
	err := cmd.run()
	cmd.evt.complete(start, q.drv.now(), err)
}

func (q *simQueue) submit(wait []cl.Event, run func() error) (cl.Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dead {
		return nil, cl.ErrReleased
	}
	evt := newSimEvent()
	evt.setStatus(cl.ExecSubmitted)
	q.drv.enqueues.Add(1)
	q.cmds <- &simCommand{wait: wait, evt: evt, run: run}
	return evt, nil
}

func memOf(m cl.Mem) (*simMem, error) {
	sm, ok := m.(*simMem)
	if !ok {
		return nil, errors.Errorf("clsim: foreign memory handle %T", m)
	}
	if sm.released {
		return nil, cl.ErrReleased
	}
	return sm, nil
}

func (q *simQueue) EnqueueRead(mem cl.Mem, dst []byte, wait []cl.Event) (cl.Event, error) {
	sm, err := memOf(mem)
	if err != nil {
		return nil, err
	}
	return q.submit(wait, func() error {
		copy(dst, sm.bytes)
		return nil
	})
}

func (q *simQueue) EnqueueWrite(mem cl.Mem, src []byte, wait []cl.Event) (cl.Event, error) {
	sm, err := memOf(mem)
	if err != nil {
		return nil, err
	}
	return q.submit(wait, func() error {
		copy(sm.bytes, src)
		return nil
	})
}

func (q *simQueue) EnqueueCopy(src, dst cl.Mem, n int, wait []cl.Event) (cl.Event, error) {
	ss, err := memOf(src)
	if err != nil {
		return nil, err
	}
	ds, err := memOf(dst)
	if err != nil {
		return nil, err
	}
	if n > len(ss.bytes) || n > len(ds.bytes) {
		return nil, errors.Errorf("clsim: copy of %d bytes exceeds allocation", n)
	}
	return q.submit(wait, func() error {
		copy(ds.bytes[:n], ss.bytes[:n])
		return nil
	})
}

func (q *simQueue) EnqueueMap(mem cl.Mem, flags cl.MapFlags, wait []cl.Event) (cl.Mapping, cl.Event, error) {
	sm, err := memOf(mem)
	if err != nil {
		return cl.Mapping{}, nil, err
	}
	// Host-unified memory: the mapping is the storage itself.
	mapping := cl.Mapping{Bytes: sm.bytes, RowPitch: sm.rowPitch()}
	evt, err := q.submit(wait, func() error { return nil })
	if err != nil {
		return cl.Mapping{}, nil, err
	}
	return mapping, evt, nil
}

func (q *simQueue) EnqueueUnmap(mem cl.Mem, m cl.Mapping, wait []cl.Event) (cl.Event, error) {
	if _, err := memOf(mem); err != nil {
		return nil, err
	}
	return q.submit(wait, func() error { return nil })
}

func (q *simQueue) EnqueueNDRange(k cl.Kernel, dim int, global, local []int, wait []cl.Event) (cl.Event, error) {
	sk, ok := k.(*simKernel)
	if !ok {
		return nil, errors.Errorf("clsim: foreign kernel handle %T", k)
	}
	inv, err := sk.invocation(dim, global, local)
	if err != nil {
		return nil, err
	}
	return q.submit(wait, func() error {
		return sk.spec.fn(inv)
	})
}

func (q *simQueue) Finish() error {
	evt, err := q.submit(nil, func() error { return nil })
	if err != nil {
		return err
	}
	return evt.Wait()
}

func (q *simQueue) Release() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dead {
		return cl.ErrReleased
	}
	q.dead = true
	close(q.quit)
	return nil
}
