// Package scheduler is a cooperative, host-driven task runner.
// Nothing runs in the background: the host calls Poll (per frame) and PollFixed (per fixed step)
// and every live task is stepped once per call, in scheduling order.
package scheduler

import (
	"fmt"
	"time"

	"github.com/gammazero/deque"
	"github.com/lunfardo314/unitrie/common"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Tick is passed to every task step
type Tick struct {
	Delta time.Duration
	Fixed bool
}

// Task is stepped once per tick until Step returns true
type Task interface {
	Step(t Tick) bool
}

type TaskFunc func(t Tick) bool

func (f TaskFunc) Step(t Tick) bool {
	return f(t)
}

// Handle is the cancel handle of a scheduled task
type Handle struct {
	task    Task
	stopped atomic.Bool
	done    atomic.Bool
}

// Stop detaches the task. It is never stepped again
func (h *Handle) Stop() {
	if h != nil {
		h.stopped.Store(true)
	}
}

func (h *Handle) Done() bool {
	return h.done.Load()
}

func (h *Handle) Active() bool {
	return !h.stopped.Load() && !h.done.Load()
}

type Scheduler struct {
	queue     *deque.Deque[*Handle]
	fixedStep time.Duration
	log       *zap.SugaredLogger
}

const DefaultFixedStep = 20 * time.Millisecond

func New(log *zap.SugaredLogger, fixedStep ...time.Duration) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ret := &Scheduler{
		queue:     new(deque.Deque[*Handle]),
		fixedStep: DefaultFixedStep,
		log:       log,
	}
	if len(fixedStep) > 0 {
		common.Assert(fixedStep[0] > 0, "fixed step must be positive")
		ret.fixedStep = fixedStep[0]
	}
	return ret
}

func (s *Scheduler) FixedStep() time.Duration {
	return s.fixedStep
}

// Schedule enqueues the task. It is first stepped by the next Poll/PollFixed,
// also when Schedule is called from inside a running task
func (s *Scheduler) Schedule(t Task) *Handle {
	ret := &Handle{task: t}
	if t == nil {
		ret.done.Store(true)
		return ret
	}
	s.queue.PushBack(ret)
	return ret
}

// Poll steps all tasks with a variable (frame) tick
func (s *Scheduler) Poll(dt time.Duration) {
	s.step(Tick{Delta: dt})
}

// PollFixed steps all tasks with one fixed tick
func (s *Scheduler) PollFixed() {
	s.step(Tick{Delta: s.fixedStep, Fixed: true})
}

// Len is number of tasks in the queue, including stopped ones not yet swept
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Idle is true when no active task remains
func (s *Scheduler) Idle() bool {
	for i := 0; i < s.queue.Len(); i++ {
		if s.queue.At(i).Active() {
			return false
		}
	}
	return true
}

func (s *Scheduler) step(t Tick) {
	n := s.queue.Len()
	for i := 0; i < n; i++ {
		h := s.queue.PopFront()
		if !h.Active() {
			continue
		}
		var finished bool
		err := common.CatchPanicOrError(func() error {
			finished = h.task.Step(t)
			return nil
		})
		if err != nil {
			s.log.Errorf("task dropped: %v", err)
			finished = true
		}
		if finished {
			h.done.Store(true)
			continue
		}
		s.queue.PushBack(h)
	}
}

// Wait returns a wait task on the clock selected by fixed
func (s *Scheduler) Wait(d time.Duration, fixed bool) *Wait {
	if fixed {
		return WaitFixed(d, s.fixedStep)
	}
	return WaitFor(d)
}

func (t Tick) String() string {
	if t.Fixed {
		return fmt.Sprintf("fixed(%v)", t.Delta)
	}
	return fmt.Sprintf("frame(%v)", t.Delta)
}
