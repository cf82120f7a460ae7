// Package compiler turns a tag-sorted list of event calls into runtime nodes.
// It works in two phases: build creates the nodes with placeholders for id and tag references,
// patch replaces the placeholders with the referenced nodes. References may point forward or form cycles
package compiler

import (
	"fmt"
	"reflect"

	"github.com/lunfardo314/easycall/argument"
	"github.com/lunfardo314/easycall/eventcall"
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

type Result struct {
	// Nodes has one node per call, in the order of calls
	Nodes []node.Node
	// Refs maps call ids and argument ids to nodes
	Refs map[int32]node.Node
	// Dangling are referenced ids not found among the calls
	Dangling []int32
}

type compiler struct {
	Config
	calls     []*eventcall.EventCall
	parent    *node.Parent
	eventArgs map[reflect.Type]*node.EventArg
	refs      map[int32]node.Node
}

// WithDefaults fills in the zero fields
func (cfg Config) WithDefaults() Config {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	if cfg.Library == nil {
		cfg.Library = library.Default
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = scheduler.New(cfg.Log)
	}
	return cfg
}

// Compile compiles calls, which must be sorted by tag, into nodes. It never fails:
// a call which can't be compiled becomes an empty node and the problem is logged
func Compile(parent any, calls []*eventcall.EventCall, cfg Config) *Result {
	cfg = cfg.WithDefaults()
	c := &compiler{
		Config:    cfg,
		calls:     calls,
		parent:    node.NewParent(parent),
		eventArgs: make(map[reflect.Type]*node.EventArg),
		refs:      make(map[int32]node.Node),
	}
	c.Log = cfg.Log.Named("compiler")
	if err := eventcall.Validate(calls); err != nil {
		c.Log.Warnf("%v. References resolve to the first call", err)
	}
	ret := &Result{
		Nodes: make([]node.Node, len(calls)),
		Refs:  c.refs,
	}
	for i, call := range calls {
		ret.Nodes[i] = c.buildCall(call)
	}
	for _, n := range ret.Nodes {
		ret.Dangling = append(ret.Dangling, c.patch(n)...)
	}
	c.Log.Debugf("compiled %d calls, %d references", len(calls), len(c.refs))
	return ret
}

func (c *compiler) register(id int32, n node.Node) {
	if id == eventcall.NoCall {
		return
	}
	if _, already := c.refs[id]; !already {
		c.refs[id] = n
	}
}

func (c *compiler) buildCall(call *eventcall.EventCall) node.Node {
	ret := c.callNode(call)
	c.register(call.ID, ret)
	return ret
}

func (c *compiler) callNode(call *eventcall.EventCall) node.Node {
	if !call.Enabled {
		return node.NewEmpty()
	}
	m, err := c.Library.Resolve(call.Method)
	if err != nil {
		c.Log.Warnf("call #%d: %v", call.ID, err)
		return node.NewEmpty()
	}
	ret, err := c.methodNode(m, call.Args, call.ID)
	if err != nil {
		c.Log.Warnf("call #%d: %v", call.ID, err)
		return node.NewEmpty(m.Return)
	}
	delay := node.Delay{
		Seconds: call.DelayValue,
		Fixed:   call.FixedStep,
	}
	if call.DelayID != eventcall.NoCall {
		delay.Ref = &node.Placeholder{ID: call.DelayID}
	}
	switch call.Delay {
	case eventcall.Wait:
		return node.NewWait(ret, c.Scheduler, delay)
	case eventcall.Pause:
		return node.NewPause(c.routine(ret), delay)
	}
	return c.routine(ret)
}

// routine starts tasks returned by the call
func (c *compiler) routine(n node.Node) node.Node {
	if n.ReturnType() == library.TypeOfTask {
		return node.NewRoutine(n, c.Scheduler)
	}
	return n
}

// methodNode builds the call node of the method with one child per argument.
// With a non-zero id, referencable children are registered under their argument ids
func (c *compiler) methodNode(m *library.Method, args []argument.Argument, id int32) (node.Node, error) {
	if len(args) != m.Arity() {
		return nil, fmt.Errorf("'%s': expected %d arguments, got %d", m.Signature, m.Arity(), len(args))
	}
	children := make([]node.Node, len(args))
	foreach := -1
	for i := range args {
		a := &args[i]
		if a.Def.Foreach() {
			if foreach >= 0 {
				return nil, fmt.Errorf("'%s': only one argument can be enumerated", m.Signature)
			}
			foreach = i
		}
		children[i] = c.argNode(a, m.SlotType(i))
		if id != eventcall.NoCall && a.Referencable() {
			c.register(eventcall.ArgumentID(id, i), children[i])
		}
	}
	call := node.NewCall(m, c.Log, children...)
	if foreach >= 0 {
		return node.NewForeach(call, foreach, c.Log), nil
	}
	return call, nil
}

func (c *compiler) argNode(a *argument.Argument, t reflect.Type) node.Node {
	ret := c.argValueNode(a, t)
	if ret == nil {
		return nil
	}
	if a.Def.Negate() {
		ret = node.NewNegate(ret, c.Log)
	}
	if a.Def.Cache() {
		ret = node.NewCache(ret)
	}
	return ret
}

func (c *compiler) argValueNode(a *argument.Argument, t reflect.Type) node.Node {
	switch a.Kind() {
	case argument.Data:
		if a.Def.IsMethod() {
			return c.nestedNode(a, t)
		}
		if a.Def.Foreach() {
			return c.sequenceLiteral(a, t)
		}
		v, err := a.Value(t)
		if err != nil {
			c.Log.Warnf("argument %s: %v", a.Describe(), err)
		}
		return node.NewLiteral(v)
	case argument.IDReference:
		return &node.Placeholder{ID: a.ID}
	case argument.TagReference:
		for _, call := range c.calls {
			if eventcall.TagEqual(call.Tag, a.Tag) {
				return &node.Placeholder{ID: call.ID}
			}
		}
		c.Log.Warnf("argument %s: no call with tag '%v'", a.Describe(), a.Tag)
		return nil
	case argument.Parent:
		return c.parent
	case argument.EventArg:
		if a.Def.Foreach() {
			// the event argument itself is the sequence
			t = library.TypeOfAny
		}
		return c.eventArg(t)
	}
	c.Log.Warnf("argument %s: unsupported kind", a.Describe())
	return nil
}

// sequenceLiteral is the literal of an enumerated argument: the object is the sequence
func (c *compiler) sequenceLiteral(a *argument.Argument, elem reflect.Type) node.Node {
	if a.Object != nil {
		return node.LiteralOf(a.Object)
	}
	v, _ := a.Value(reflect.SliceOf(elem))
	return node.NewLiteral(v)
}

func (c *compiler) nestedNode(a *argument.Argument, t reflect.Type) node.Node {
	m, err := c.Library.Resolve(a.Method)
	if err != nil {
		c.Log.Warnf("argument method: %v", err)
		return node.NewEmpty(t)
	}
	ret, err := c.methodNode(m, a.Params, eventcall.NoCall)
	if err != nil {
		c.Log.Warnf("argument method: %v", err)
		return node.NewEmpty(t)
	}
	return ret
}

func (c *compiler) eventArg(t reflect.Type) *node.EventArg {
	ret, ok := c.eventArgs[t]
	if !ok {
		ret = node.NewEventArg(t, c.Log)
		c.eventArgs[t] = ret
	}
	return ret
}

// patch replaces placeholders in the tree of n, depth first.
// Replacements are not descended into, so cyclic references terminate
func (c *compiler) patch(n node.Node) []int32 {
	cont, ok := n.(node.Container)
	if !ok {
		return nil
	}
	var dangling []int32
	for _, slot := range cont.Slots() {
		switch p := (*slot).(type) {
		case nil:
		case *node.Placeholder:
			target, found := c.refs[p.ID]
			if !found {
				c.Log.Warnf("reference to missing id %d", p.ID)
				dangling = append(dangling, p.ID)
				*slot = nil
				continue
			}
			*slot = target
		default:
			dangling = append(dangling, c.patch(p)...)
		}
	}
	return dangling
}
