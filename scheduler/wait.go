package scheduler

import "time"

type WaitState byte

const (
	Idle = WaitState(iota)
	Waiting
	Resumed
	Done
)

func (s WaitState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Resumed:
		return "resumed"
	case Done:
		return "done"
	}
	return "unknown"
}

// Wait completes once the duration has elapsed on its clock.
// Frame waits sum variable deltas, fixed waits count fixed ticks. Ticks of the other clock are ignored
type Wait struct {
	duration time.Duration
	fixed    bool
	need     int
	ticks    int
	elapsed  time.Duration
	state    WaitState
}

func WaitFor(d time.Duration) *Wait {
	return &Wait{duration: d}
}

// WaitFixed waits ceil(d/step) fixed ticks
func WaitFixed(d, step time.Duration) *Wait {
	ret := &Wait{duration: d, fixed: true}
	if step > 0 && d > 0 {
		ret.need = int((d + step - 1) / step)
	}
	return ret
}

func (w *Wait) State() WaitState {
	return w.state
}

func (w *Wait) Step(t Tick) bool {
	switch w.state {
	case Done:
		return true
	case Idle:
		w.state = Waiting
	}
	if t.Fixed == w.fixed {
		w.ticks++
		w.elapsed += t.Delta
	}
	if w.satisfied() {
		w.state = Resumed
	}
	if w.state == Resumed {
		w.state = Done
		return true
	}
	return false
}

func (w *Wait) satisfied() bool {
	if w.fixed {
		return w.ticks >= w.need
	}
	return w.elapsed >= w.duration
}

type then struct {
	cur  Task
	next func() Task
}

// Then runs first and, in the same tick it completes, calls next.
// A non-nil task returned by next is stepped from the following tick on
func Then(first Task, next func() Task) Task {
	return &then{cur: first, next: next}
}

func (t *then) Step(tk Tick) bool {
	if t.cur != nil {
		if !t.cur.Step(tk) {
			return false
		}
		t.cur = nil
	}
	if t.next == nil {
		return true
	}
	next := t.next
	t.next = nil
	t.cur = next()
	return t.cur == nil
}
