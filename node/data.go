package node

import (
	"reflect"

	"go.uber.org/zap"
)

var typeOfAny = reflect.TypeOf((*any)(nil)).Elem()

// Literal is a boxed constant. It is addressable, so by-reference receivers mutate it in place
type Literal struct {
	value reflect.Value
}

func NewLiteral(v reflect.Value) *Literal {
	if !v.IsValid() {
		v = reflect.Zero(typeOfAny)
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return &Literal{value: p.Elem()}
}

func LiteralOf(v any) *Literal {
	return NewLiteral(reflect.ValueOf(v))
}

func (l *Literal) ReturnType() reflect.Type {
	return l.value.Type()
}

func (l *Literal) Eval(_ any) reflect.Value {
	return l.value
}

// Addr is the pointer to the boxed value
func (l *Literal) Addr() reflect.Value {
	return l.value.Addr()
}

// Parent is the owner of the compiled calls, shared by all parent references
type Parent struct {
	value reflect.Value
}

func NewParent(parent any) *Parent {
	if parent == nil {
		return &Parent{value: reflect.Zero(typeOfAny)}
	}
	return &Parent{value: reflect.ValueOf(parent)}
}

func (p *Parent) ReturnType() reflect.Type {
	return p.value.Type()
}

func (p *Parent) Eval(_ any) reflect.Value {
	return p.value
}

// EventArg casts the event argument of the invocation to its type
type EventArg struct {
	typ reflect.Type
	reporter
}

func NewEventArg(t reflect.Type, log *zap.SugaredLogger) *EventArg {
	if t == nil {
		t = typeOfAny
	}
	return &EventArg{typ: t, reporter: newReporter(log)}
}

func (e *EventArg) ReturnType() reflect.Type {
	return e.typ
}

func (e *EventArg) Eval(ev any) reflect.Value {
	if ev == nil {
		return reflect.Zero(e.typ)
	}
	ret, ok := Coerce(reflect.ValueOf(ev), e.typ)
	if !ok {
		e.report("event argument of type %T can't be used as '%v'", ev, e.typ)
	}
	return ret
}

// Placeholder stands for the node with the id until references are patched
type Placeholder struct {
	ID int32
}

func (p *Placeholder) ReturnType() reflect.Type {
	return nil
}

func (p *Placeholder) Eval(_ any) reflect.Value {
	return reflect.Value{}
}

// Empty replaces calls which are disabled or can't be compiled
type Empty struct {
	typ reflect.Type
}

// NewEmpty returns the no-op node. With a type it evaluates to the zero value of it
func NewEmpty(t ...reflect.Type) *Empty {
	ret := &Empty{}
	if len(t) > 0 {
		ret.typ = t[0]
	}
	return ret
}

func (e *Empty) ReturnType() reflect.Type {
	return e.typ
}

func (e *Empty) Eval(_ any) reflect.Value {
	if e.typ == nil {
		return reflect.Value{}
	}
	return reflect.Zero(e.typ)
}
