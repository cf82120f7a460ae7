// Package easycall compiles declarative event calls into invocable node trees
// and exposes them to the host by call id and by tag
package easycall

import (
	"github.com/lunfardo314/easycall/compiler"
	"github.com/lunfardo314/easycall/eventcall"
	"github.com/lunfardo314/easycall/invoker"
	"github.com/lunfardo314/easycall/library"
	"github.com/lunfardo314/easycall/node"
	"github.com/lunfardo314/easycall/scheduler"
	"go.uber.org/zap"
)

type Config struct {
	Log       *zap.SugaredLogger
	Library   *library.Library
	Scheduler *scheduler.Scheduler
}

// Event is a compiled list of calls owned by the parent. It is not safe for concurrent use
type Event struct {
	cfg      compiler.Config
	log      *zap.SugaredLogger
	parent   any
	calls    []*eventcall.EventCall
	digest   [32]byte
	compiled *compiler.Result
	table    *invoker.Table
}

func New(parent any, calls []*eventcall.EventCall, cfg ...Config) *Event {
	var c Config
	if len(cfg) > 0 {
		c = cfg[0]
	}
	ccfg := compiler.Config{
		Log:       c.Log,
		Library:   c.Library,
		Scheduler: c.Scheduler,
	}.WithDefaults()
	ret := &Event{
		cfg:    ccfg,
		log:    ccfg.Log.Named("event"),
		parent: parent,
	}
	ret.compile(calls)
	return ret
}

func (e *Event) compile(calls []*eventcall.EventCall) {
	sorted := append([]*eventcall.EventCall(nil), calls...)
	eventcall.SortByTag(sorted)

	e.calls = sorted
	e.digest = eventcall.Digest(sorted)
	e.compiled = compiler.Compile(e.parent, sorted, e.cfg)
	table := invoker.NewTable(sorted, e.compiled.Nodes, e.cfg.Scheduler, e.cfg.Log)
	if e.table != nil {
		table.Inherit(e.table)
	}
	e.table = table
	if len(e.compiled.Dangling) > 0 {
		e.log.Warnf("dangling references: %v", e.compiled.Dangling)
	}
}

// SetCalls recompiles when the calls differ from the current ones.
// Running tasks of the previous compilation are stopped, added delegates are kept
func (e *Event) SetCalls(calls []*eventcall.EventCall) bool {
	sorted := append([]*eventcall.EventCall(nil), calls...)
	eventcall.SortByTag(sorted)
	if eventcall.Digest(sorted) == e.digest {
		return false
	}
	e.table.StopAll()
	e.compile(calls)
	e.log.Debugf("recompiled %d calls", len(calls))
	return true
}

// Calls returns the calls sorted by tag
func (e *Event) Calls() []*eventcall.EventCall {
	return append([]*eventcall.EventCall(nil), e.calls...)
}

func (e *Event) Digest() [32]byte {
	return e.digest
}

func (e *Event) Dangling() []int32 {
	return append([]int32(nil), e.compiled.Dangling...)
}

func (e *Event) Scheduler() *scheduler.Scheduler {
	return e.cfg.Scheduler
}

func (e *Event) Library() *library.Library {
	return e.cfg.Library
}

// GetData returns the node of the call or argument id, nil if not found
func (e *Event) GetData(id int32) node.Node {
	return e.compiled.Refs[id]
}

// GetValue evaluates the node of the id as T with the optional event argument
func GetValue[T any](e *Event, id int32, ev ...any) T {
	var arg any
	if len(ev) > 0 {
		arg = ev[0]
	}
	n := e.GetData(id)
	ret, ok := node.TryValueOf[T](n, arg)
	if !ok && n != nil {
		e.log.Warnf("value of #%d can't be retrieved as %T", id, ret)
	}
	return ret
}

// GetDelegate returns the function invoking the node of the id, nil if not found
func (e *Event) GetDelegate(id int32) func(ev any) {
	n := e.GetData(id)
	if n == nil {
		return nil
	}
	return func(ev any) {
		node.Invoke(n, ev)
	}
}

func (e *Event) Invoke(tag any) {
	e.table.Get(tag).Invoke()
}

func (e *Event) InvokeWith(tag, ev any) {
	e.table.Get(tag).InvokeWith(ev)
}

// Invoker never returns nil
func (e *Event) Invoker(tag any) invoker.Invoker {
	return e.table.Get(tag)
}

func (e *Event) TagInvokers() []invoker.Invoker {
	return e.table.Invokers()
}

// StopCoroutine stops running tasks started by the calls of the tag
func (e *Event) StopCoroutine(tag any) {
	if e.table.Has(tag) {
		e.table.Get(tag).Stop()
	}
}

// StopCall stops running tasks started by the call of the id
func (e *Event) StopCall(id int32) {
	node.Stop(e.GetData(id))
}

// Refresh clears the memoized value of the id. Returns false if the node of the id is not memoized
func (e *Event) Refresh(id int32) bool {
	return node.Reset(e.GetData(id))
}
