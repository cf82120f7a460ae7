package node

import (
	"reflect"

	"github.com/lunfardo314/easycall/library"
	"github.com/lunfardo314/unitrie/common"
	"go.uber.org/zap"
)

// Call invokes a resolved method with the values of its children, one per slot.
// Slot 0 is the receiver of instance methods
type Call struct {
	method *library.Method
	arity  int
	slots  [library.MaxArity]Node
	reporter
}

func NewCall(m *library.Method, log *zap.SugaredLogger, children ...Node) *Call {
	common.Assert(m.Arity() <= library.MaxArity, "'%s': arity %d is not supported", m.Signature, m.Arity())
	common.Assert(len(children) <= m.Arity(), "'%s': too many children", m.Signature)
	ret := &Call{
		method:   m,
		arity:    m.Arity(),
		reporter: newReporter(log),
	}
	copy(ret.slots[:], children)
	return ret
}

func (c *Call) Method() *library.Method {
	return c.method
}

func (c *Call) Arity() int {
	return c.arity
}

// Child returns the node of the slot
func (c *Call) Child(i int) Node {
	return c.slots[i]
}

func (c *Call) SetChild(i int, n Node) {
	c.slots[i] = n
}

func (c *Call) Slots() []*Node {
	ret := make([]*Node, c.arity)
	for i := range ret {
		ret[i] = &c.slots[i]
	}
	return ret
}

func (c *Call) ReturnType() reflect.Type {
	return c.method.Return
}

func (c *Call) Eval(ev any) reflect.Value {
	return c.eval(ev, -1, reflect.Value{})
}

// EvalWith evaluates with the value bound to the slot instead of the child
func (c *Call) EvalWith(ev any, slot int, v reflect.Value) reflect.Value {
	return c.eval(ev, slot, v)
}

func (c *Call) eval(ev any, subst int, sv reflect.Value) reflect.Value {
	var buf [library.MaxArity]reflect.Value
	args := buf[:c.arity]
	for i := range args {
		var v reflect.Value
		var ok bool
		switch {
		case i == subst:
			v, ok = c.bind(i, sv)
		case c.slots[i] == nil:
			c.report("'%s': slot %d has no value", c.method.Signature, i)
			return c.zero()
		case i == 0 && c.method.ReceiverByRef:
			v, ok = c.receiver(ev)
		default:
			v, ok = c.bind(i, c.slots[i].Eval(ev))
		}
		if !ok {
			c.report("'%s': wrong value for slot %d", c.method.Signature, i)
			return c.zero()
		}
		args[i] = v
	}
	var ret reflect.Value
	err := common.CatchPanicOrError(func() error {
		ret = c.method.Call(args)
		return nil
	})
	if err != nil {
		c.report("'%s' failed: %v", c.method.Signature, err)
		return c.zero()
	}
	return ret
}

func (c *Call) bind(i int, v reflect.Value) (reflect.Value, bool) {
	t := c.method.SlotType(i)
	if i == 0 && c.method.ReceiverByRef {
		return byRef(v, t)
	}
	return Coerce(v, t)
}

// receiver binds a value type receiver by pointer. A literal child is mutated in place
func (c *Call) receiver(ev any) (reflect.Value, bool) {
	t := c.method.Receiver
	if l, ok := c.slots[0].(*Literal); ok && l.ReturnType() == t {
		return l.Addr(), true
	}
	return byRef(c.slots[0].Eval(ev), t)
}

func byRef(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	switch {
	case v.Type() == reflect.PointerTo(t):
		return v, !v.IsNil()
	case v.Type() == t && v.CanAddr():
		return v.Addr(), true
	}
	cv, ok := Coerce(v, t)
	if !ok {
		return reflect.Value{}, false
	}
	// a copy: mutation is not observable by the owner of the value
	p := reflect.New(t)
	p.Elem().Set(cv)
	return p, true
}

func (c *Call) zero() reflect.Value {
	if c.method.Return == nil {
		return reflect.Value{}
	}
	return reflect.Zero(c.method.Return)
}
