// Package hostloop drives a scheduler in real time from its own goroutine.
// Everything touching the scheduler or the nodes scheduled on it must be posted to the loop
package hostloop

import (
	"sync"
	"time"

	"github.com/lunfardo314/easycall/scheduler"
	"github.com/lunfardo314/easycall/util/fifoqueue"
	"github.com/lunfardo314/unitrie/common"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type Loop struct {
	sched    *scheduler.Scheduler
	period   time.Duration
	posted   *fifoqueue.Queue[func()]
	log      *zap.SugaredLogger
	started  atomic.Bool
	stopped  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

const DefaultPeriod = 10 * time.Millisecond

func New(sched *scheduler.Scheduler, log *zap.SugaredLogger, period ...time.Duration) *Loop {
	common.Assert(sched != nil, "hostloop: nil scheduler")
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ret := &Loop{
		sched:  sched,
		period: DefaultPeriod,
		posted: fifoqueue.New[func()](),
		log:    log.Named("hostloop"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if len(period) > 0 {
		common.Assert(period[0] > 0, "hostloop: period must be positive")
		ret.period = period[0]
	}
	return ret
}

func (l *Loop) Start() {
	common.Assert(l.started.CompareAndSwap(false, true), "hostloop: already started")
	go l.run()
}

// Post queues fun to run on the loop goroutine. Returns false after Stop
func (l *Loop) Post(fun func()) bool {
	if l.stopped.Load() {
		return false
	}
	return l.posted.Push(fun)
}

// PostAfter runs fun on the loop goroutine after the delay, measured by the scheduler clock
func (l *Loop) PostAfter(d time.Duration, fun func()) bool {
	return l.Post(func() {
		l.sched.Schedule(scheduler.Then(scheduler.WaitFor(d), func() scheduler.Task {
			fun()
			return nil
		}))
	})
}

// Do runs fun on the loop goroutine and waits until it returns. Returns false after Stop
func (l *Loop) Do(fun func()) bool {
	ch := make(chan struct{})
	if !l.Post(func() {
		defer close(ch)
		fun()
	}) {
		return false
	}
	select {
	case <-ch:
		return true
	case <-l.done:
		return false
	}
}

// Stop stops the loop and waits for the goroutine to exit. Functions posted before Stop are run
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		l.posted.Close()
		close(l.stop)
	})
	if l.started.Load() {
		<-l.done
	}
}

func (l *Loop) run() {
	defer close(l.done)

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	step := l.sched.FixedStep()
	last := time.Now()
	var fixed time.Duration
	l.log.Debugf("started. Period: %v, fixed step: %v", l.period, step)
	for {
		select {
		case <-l.posted.Ready():
			l.drain()
		case now := <-ticker.C:
			l.drain()
			dt := now.Sub(last)
			last = now
			l.sched.Poll(dt)
			for fixed += dt; fixed >= step; fixed -= step {
				l.sched.PollFixed()
			}
		case <-l.stop:
			l.drain()
			l.log.Debugf("stopped")
			return
		}
	}
}

func (l *Loop) drain() {
	l.posted.Drain(func(fun func()) {
		err := common.CatchPanicOrError(func() error {
			fun()
			return nil
		})
		if err != nil {
			l.log.Errorf("posted function: %v", err)
		}
	})
}
