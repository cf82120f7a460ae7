package node

import "reflect"

// Delegate is a plain function added to an invoker at runtime. It is identified by the pointer
type Delegate struct {
	fn func(ev any)
}

func NewDelegate(fn func(ev any)) *Delegate {
	return &Delegate{fn: fn}
}

// DelegateOf wraps a node into a delegate ignoring its result
func DelegateOf(n Node) *Delegate {
	return NewDelegate(func(ev any) {
		Invoke(n, ev)
	})
}

func (d *Delegate) Call(ev any) {
	if d != nil && d.fn != nil {
		d.fn(ev)
	}
}

// Combined invokes dynamically added delegates in the order of adding
type Combined struct {
	delegates []*Delegate
}

func (c *Combined) ReturnType() reflect.Type {
	return nil
}

func (c *Combined) Eval(ev any) reflect.Value {
	// delegates may add and remove delegates while being invoked
	lst := c.delegates
	for _, d := range lst {
		d.Call(ev)
	}
	return reflect.Value{}
}

func (c *Combined) Add(d *Delegate) {
	if d != nil {
		c.delegates = append(c.delegates, d)
	}
}

// Remove removes the last added occurrence of the delegate
func (c *Combined) Remove(d *Delegate) bool {
	for i := len(c.delegates) - 1; i >= 0; i-- {
		if c.delegates[i] == d {
			lst := make([]*Delegate, 0, len(c.delegates)-1)
			lst = append(lst, c.delegates[:i]...)
			c.delegates = append(lst, c.delegates[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Combined) Len() int {
	return len(c.delegates)
}

func (c *Combined) Delegates() []*Delegate {
	return append([]*Delegate(nil), c.delegates...)
}
