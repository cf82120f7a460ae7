// Package invoker groups compiled nodes into independently invocable batches by tag
package invoker

import (
	"reflect"

	"github.com/lunfardo314/easycall/node"
	"github.com/lunfardo314/easycall/scheduler"
	"go.uber.org/zap"
)

type Invoker interface {
	Tag() any
	Invoke()
	InvokeWith(ev any)
	// Values evaluates the batch and returns results of the nodes which return values
	Values(ev any) []reflect.Value
	Add(d *node.Delegate)
	Remove(d *node.Delegate) bool
	Stop()
	// Len is number of nodes and delegates
	Len() int
}

// Values returns results of the batch retrievable as T
func Values[T any](inv Invoker, ev any) []T {
	vals := inv.Values(ev)
	ret := make([]T, 0, len(vals))
	for _, v := range vals {
		if r, ok := node.As[T](v); ok {
			ret = append(ret, r)
		}
	}
	return ret
}

// batch invokes its nodes synchronously, in order, followed by added delegates
type batch struct {
	tag      any
	nodes    []node.Node
	combined node.Combined
}

func (b *batch) Tag() any {
	return b.tag
}

func (b *batch) Invoke() {
	b.InvokeWith(nil)
}

func (b *batch) InvokeWith(ev any) {
	for _, n := range b.nodes {
		node.Invoke(n, ev)
	}
	b.combined.Eval(ev)
}

func (b *batch) Values(ev any) []reflect.Value {
	ret := make([]reflect.Value, 0, len(b.nodes))
	for _, n := range b.nodes {
		if n.ReturnType() == nil {
			n.Eval(ev)
			continue
		}
		if v := n.Eval(ev); v.IsValid() {
			ret = append(ret, v)
		}
	}
	b.combined.Eval(ev)
	return ret
}

func (b *batch) Add(d *node.Delegate) {
	b.combined.Add(d)
}

func (b *batch) Remove(d *node.Delegate) bool {
	return b.combined.Remove(d)
}

func (b *batch) Stop() {
	for _, n := range b.nodes {
		node.Stop(n)
	}
}

func (b *batch) Len() int {
	return len(b.nodes) + b.combined.Len()
}

// pausing runs the batch as a task. After a node requesting a pause the task
// suspends until the pause elapses, then continues with the next node
type pausing struct {
	batch
	sched   *scheduler.Scheduler
	handles []*scheduler.Handle
	log     *zap.SugaredLogger
}

type run struct {
	p       *pausing
	ev      any
	next    int
	wait    *scheduler.Wait
	collect func(v reflect.Value)
}

// start runs the batch until the first pause and schedules the rest
func (p *pausing) start(r *run) {
	done := r.Step(scheduler.Tick{})
	r.collect = nil
	if done {
		return
	}
	live := p.handles[:0]
	for _, h := range p.handles {
		if h.Active() {
			live = append(live, h)
		}
	}
	p.handles = append(live, p.sched.Schedule(r))
}

func (p *pausing) InvokeWith(ev any) {
	p.start(&run{p: p, ev: ev})
}

func (p *pausing) Invoke() {
	p.InvokeWith(nil)
}

// Values returns values of the nodes invoked before the first pause
func (p *pausing) Values(ev any) []reflect.Value {
	ret := make([]reflect.Value, 0)
	p.start(&run{p: p, ev: ev, collect: func(v reflect.Value) {
		ret = append(ret, v)
	}})
	return ret
}

func (p *pausing) Stop() {
	for _, h := range p.handles {
		h.Stop()
	}
	p.handles = nil
	p.batch.Stop()
}

// Running is number of batch runs suspended in a pause
func (p *pausing) Running() int {
	ret := 0
	for _, h := range p.handles {
		if h.Active() {
			ret++
		}
	}
	return ret
}

func (r *run) Step(t scheduler.Tick) bool {
	if r.wait != nil {
		if !r.wait.Step(t) {
			return false
		}
		r.wait = nil
	}
	for r.next < len(r.p.nodes) {
		n := r.p.nodes[r.next]
		r.next++
		v := n.Eval(r.ev)
		if r.collect != nil && n.ReturnType() != nil && v.IsValid() {
			r.collect(v)
		}
		pauser, ok := node.Find[node.Pauser](n)
		if !ok {
			continue
		}
		if d := pauser.PauseDuration(r.ev); d > 0 {
			r.p.log.Debugf("tag '%v': pause %v after node %d", r.p.tag, d, r.next-1)
			r.wait = r.p.sched.Wait(d, pauser.FixedClock())
			return false
		}
	}
	r.p.combined.Eval(r.ev)
	return true
}
