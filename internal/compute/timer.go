package compute

import (
	"time"

	"github.com/cwbudde/oclkit/internal/cl"
)

// TimeMode selects how an operation handles device timing.
type TimeMode int

const (
	// DontMeasure skips timing entirely.
	DontMeasure TimeMode = iota

	// Measure blocks on the completion event, records the elapsed device
	// time, accumulates it into the running total, and increments the call
	// counter.
	Measure

	// MeasureOnce blocks and records the last elapsed device time without
	// touching the total or the call counter, so averages computed from
	// Total and Calls stay consistent.
	MeasureOnce
)

// Side selects which half of a Timer an accessor reads.
type Side int

const (
	// HostSide covers wall-clock intervals measured with Start/Stop.
	HostSide Side = iota

	// DeviceSide covers elapsed device time gathered from event profiling.
	DeviceSide
)

type timerHalf struct {
	last  float64
	total float64
	calls uint64
}

// Timer accumulates elapsed microseconds separately for host-measured
// intervals and device-reported command durations. Every memory object and
// kernel owns one.
type Timer struct {
	running bool
	started time.Time
	host    timerHalf
	device  timerHalf
}

// Start begins a host-side interval. Starting a timer that is already
// running fails with StatusAlreadyInUse and leaves the running interval
// intact.
func (t *Timer) Start() error {
	if t.running {
		return StatusAlreadyInUse
	}
	t.running = true
	t.started = time.Now()
	return nil
}

// Stop ends the host-side interval begun by Start, records it, and
// accumulates it into the host total.
func (t *Timer) Stop() error {
	if !t.running {
		return StatusInvalidArgument
	}
	t.running = false
	micros := float64(time.Since(t.started)) / float64(time.Microsecond)
	t.host.last = micros
	t.host.total += micros
	t.host.calls++
	return nil
}

// Reset clears one side of the timer. A running host interval is discarded.
func (t *Timer) Reset(side Side) {
	switch side {
	case HostSide:
		t.running = false
		t.host = timerHalf{}
	case DeviceSide:
		t.device = timerHalf{}
	}
}

// Last returns the most recent interval in microseconds.
func (t *Timer) Last(side Side) float64 {
	if side == HostSide {
		return t.host.last
	}
	return t.device.last
}

// Total returns the accumulated microseconds.
func (t *Timer) Total(side Side) float64 {
	if side == HostSide {
		return t.host.total
	}
	return t.device.total
}

// Calls returns how many intervals have been accumulated into the total.
func (t *Timer) Calls(side Side) uint64 {
	if side == HostSide {
		return t.host.calls
	}
	return t.device.calls
}

func (t *Timer) recordDevice(micros float64, accumulate bool) {
	t.device.last = micros
	if accumulate {
		t.device.total += micros
		t.device.calls++
	}
}

// gatherMicros waits for evt and converts its profiling timestamps into
// elapsed microseconds.
func gatherMicros(evt cl.Event) (float64, error) {
	if err := evt.Wait(); err != nil {
		return 0, wrapStatus(StatusDeviceError, err)
	}
	start, end, err := evt.Profile()
	if err != nil {
		return 0, wrapStatus(StatusDeviceError, err)
	}
	return float64(end-start) * 1e-3, nil
}
