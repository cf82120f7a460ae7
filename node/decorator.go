package node

import (
	"reflect"
	"time"

	"github.com/lunfardo314/easycall/library"
	"github.com/lunfardo314/easycall/scheduler"
	"go.uber.org/zap"
)

type wrapper struct {
	inner Node
}

func (w *wrapper) Unwrap() Node {
	return w.inner
}

func (w *wrapper) Slots() []*Node {
	return []*Node{&w.inner}
}

// Foreach enumerates the value of one slot of the call and invokes the call once per element.
// A function call becomes a lazy sequence of its results, enumerated anew on every range
type Foreach struct {
	wrapper
	call *Call
	slot int
	typ  reflect.Type
	reporter
}

func NewForeach(call *Call, slot int, log *zap.SugaredLogger) *Foreach {
	ret := &Foreach{
		wrapper:  wrapper{inner: call},
		call:     call,
		slot:     slot,
		reporter: newReporter(log),
	}
	if rt := call.ReturnType(); rt != nil {
		ret.typ = SeqOf(rt)
	}
	return ret
}

func (f *Foreach) Slot() int {
	return f.slot
}

func (f *Foreach) ReturnType() reflect.Type {
	return f.typ
}

func (f *Foreach) Eval(ev any) reflect.Value {
	if f.typ == nil {
		f.each(ev, func(reflect.Value) bool { return true })
		return reflect.Value{}
	}
	elemType := f.typ.In(0).In(0)
	return reflect.MakeFunc(f.typ, func(args []reflect.Value) []reflect.Value {
		yield := args[0]
		f.each(ev, func(r reflect.Value) bool {
			r, _ = Coerce(r, elemType)
			return yield.Call([]reflect.Value{r})[0].Bool()
		})
		return nil
	})
}

func (f *Foreach) each(ev any, yield func(reflect.Value) bool) {
	src := f.call.Child(f.slot)
	if src == nil {
		f.report("foreach '%s': slot %d has no value", f.call.Method().Signature, f.slot)
		return
	}
	v := src.Eval(ev)
	ok := Elements(v, func(e reflect.Value) bool {
		return yield(f.call.EvalWith(ev, f.slot, e))
	})
	if !ok {
		f.report("foreach '%s': %s is not a sequence", f.call.Method().Signature, Describe(v))
	}
}

// Delay is the duration of a Wait or a Pause: a constant, or the value of a referenced node in seconds
type Delay struct {
	Seconds float64
	Ref     Node
	Fixed   bool
}

func (d *Delay) Duration(ev any) time.Duration {
	sec := d.Seconds
	if d.Ref != nil {
		sec = ValueOf[float64](d.Ref, ev)
	}
	if sec <= 0 {
		return 0
	}
	return time.Duration(sec * float64(time.Second))
}

// tasks keeps the handles of tasks started by a node
type tasks struct {
	sched   *scheduler.Scheduler
	handles []*scheduler.Handle
}

func (t *tasks) start(task scheduler.Task) *scheduler.Handle {
	live := t.handles[:0]
	for _, h := range t.handles {
		if h.Active() {
			live = append(live, h)
		}
	}
	h := t.sched.Schedule(task)
	t.handles = append(live, h)
	return h
}

// Stop detaches all tasks started by the node
func (t *tasks) Stop() {
	for _, h := range t.handles {
		h.Stop()
	}
	t.handles = nil
}

// Pending is number of started tasks still running
func (t *tasks) Pending() int {
	ret := 0
	for _, h := range t.handles {
		if h.Active() {
			ret++
		}
	}
	return ret
}

// Wait delays the invocation of the inner node on the scheduler.
// When the inner node returns a task, the task continues on the scheduler after the delay
type Wait struct {
	wrapper
	tasks
	delay Delay
}

func NewWait(inner Node, sched *scheduler.Scheduler, delay Delay) *Wait {
	return &Wait{
		wrapper: wrapper{inner: inner},
		tasks:   tasks{sched: sched},
		delay:   delay,
	}
}

func (w *Wait) Slots() []*Node {
	if w.delay.Ref == nil {
		return []*Node{&w.inner}
	}
	return []*Node{&w.inner, &w.delay.Ref}
}

func (w *Wait) ReturnType() reflect.Type {
	return nil
}

func (w *Wait) Eval(ev any) reflect.Value {
	wait := w.sched.Wait(w.delay.Duration(ev), w.delay.Fixed)
	w.start(scheduler.Then(wait, func() scheduler.Task {
		v := w.inner.Eval(ev)
		if w.inner.ReturnType() != library.TypeOfTask {
			return nil
		}
		t, _ := As[scheduler.Task](v)
		return t
	}))
	return reflect.Value{}
}

// Pause invokes the inner node immediately. The invoker suspends the batch for the duration after it
type Pause struct {
	wrapper
	delay Delay
}

func NewPause(inner Node, delay Delay) *Pause {
	return &Pause{
		wrapper: wrapper{inner: inner},
		delay:   delay,
	}
}

func (p *Pause) Slots() []*Node {
	if p.delay.Ref == nil {
		return []*Node{&p.inner}
	}
	return []*Node{&p.inner, &p.delay.Ref}
}

func (p *Pause) ReturnType() reflect.Type {
	return p.inner.ReturnType()
}

func (p *Pause) Eval(ev any) reflect.Value {
	return p.inner.Eval(ev)
}

func (p *Pause) PauseDuration(ev any) time.Duration {
	return p.delay.Duration(ev)
}

func (p *Pause) FixedClock() bool {
	return p.delay.Fixed
}

var typeOfBool = reflect.TypeOf(false)

// Negate inverts a boolean node. The inner node is evaluated exactly once per evaluation
type Negate struct {
	wrapper
	reporter
}

func NewNegate(inner Node, log *zap.SugaredLogger) *Negate {
	return &Negate{
		wrapper:  wrapper{inner: inner},
		reporter: newReporter(log),
	}
}

func (n *Negate) ReturnType() reflect.Type {
	return typeOfBool
}

func (n *Negate) Eval(ev any) reflect.Value {
	if n.inner == nil {
		n.report("negate: no value")
		return reflect.ValueOf(true)
	}
	b, ok := As[bool](n.inner.Eval(ev))
	if !ok {
		n.report("negate: not a boolean value")
	}
	return reflect.ValueOf(!b)
}

// Cache evaluates the inner node once and returns the same value until reset
type Cache struct {
	wrapper
	value reflect.Value
	valid bool
}

func NewCache(inner Node) *Cache {
	return &Cache{wrapper: wrapper{inner: inner}}
}

func (c *Cache) ReturnType() reflect.Type {
	if c.inner == nil {
		return nil
	}
	return c.inner.ReturnType()
}

func (c *Cache) Eval(ev any) reflect.Value {
	if !c.valid {
		if c.inner != nil {
			c.value = c.inner.Eval(ev)
		}
		c.valid = true
	}
	return c.value
}

func (c *Cache) Reset() {
	c.value = reflect.Value{}
	c.valid = false
}

// Routine starts the task returned by the inner node on the scheduler
type Routine struct {
	wrapper
	tasks
}

func NewRoutine(inner Node, sched *scheduler.Scheduler) *Routine {
	return &Routine{
		wrapper: wrapper{inner: inner},
		tasks:   tasks{sched: sched},
	}
}

func (r *Routine) ReturnType() reflect.Type {
	return r.inner.ReturnType()
}

func (r *Routine) Eval(ev any) reflect.Value {
	v := r.inner.Eval(ev)
	if t, ok := As[scheduler.Task](v); ok && t != nil {
		r.start(t)
	}
	return v
}
