// Package node contains the compiled runtime representation of calls and arguments.
// A node has a return type and is evaluated with an optional event argument.
// Decorators wrap one inner node; calls hold one child per argument slot
package node

import (
	"fmt"
	"reflect"
	"time"

	"github.com/lunfardo314/easycall/argument"
	"github.com/lunfardo314/easyfl"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type Node interface {
	// ReturnType is nil for actions
	ReturnType() reflect.Type
	// Eval returns the invalid Value for actions
	Eval(ev any) reflect.Value
}

// Stopper is implemented by nodes which start tasks on the scheduler
type Stopper interface {
	Stop()
}

// Pauser requests a suspension after the node is invoked in a batch
type Pauser interface {
	PauseDuration(ev any) time.Duration
	FixedClock() bool
}

// Container exposes child slots so that placeholders can be replaced in place
type Container interface {
	Slots() []*Node
}

type Resetter interface {
	Reset()
}

// Wrapper is implemented by decorators
type Wrapper interface {
	Unwrap() Node
}

// Find returns the first node of type T in the decorator chain, starting from n itself
func Find[T any](n Node) (T, bool) {
	for n != nil {
		if ret, ok := n.(T); ok {
			return ret, true
		}
		w, ok := n.(Wrapper)
		if !ok {
			break
		}
		n = w.Unwrap()
	}
	var zero T
	return zero, false
}

// Stop stops every stoppable node in the decorator chain
func Stop(n Node) {
	for n != nil {
		if s, ok := n.(Stopper); ok {
			s.Stop()
		}
		w, ok := n.(Wrapper)
		if !ok {
			return
		}
		n = w.Unwrap()
	}
}

// Reset clears memoized values in the decorator chain. Returns false if nothing was reset
func Reset(n Node) bool {
	ret := false
	for n != nil {
		if r, ok := n.(Resetter); ok {
			r.Reset()
			ret = true
		}
		w, ok := n.(Wrapper)
		if !ok {
			break
		}
		n = w.Unwrap()
	}
	return ret
}

// Invoke evaluates n ignoring the result. Nil node is a no-op
func Invoke(n Node, ev any) {
	if n != nil {
		n.Eval(ev)
	}
}

// ValueOf evaluates the node as T. Returns the zero value when the result can't be retrieved as T
func ValueOf[T any](n Node, ev any) T {
	ret, _ := TryValueOf[T](n, ev)
	return ret
}

func TryValueOf[T any](n Node, ev any) (T, bool) {
	if n == nil {
		var zero T
		return zero, false
	}
	return As[T](n.Eval(ev))
}

// As retrieves v as T: direct assertion first, then conversion,
// collecting sequences when T is a slice
func As[T any](v reflect.Value) (T, bool) {
	var zero T
	if !v.IsValid() {
		return zero, false
	}
	if v.CanInterface() {
		if ret, ok := v.Interface().(T); ok {
			return ret, true
		}
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	rv, ok := Coerce(v, t)
	if !ok {
		return zero, false
	}
	if rv.Kind() == reflect.Interface && rv.IsNil() {
		return zero, nillable(t)
	}
	ret, ok := rv.Interface().(T)
	return ret, ok
}

// Coerce converts v to type t when assignable or convertible.
// Sequences are collected when t is a slice. Returns the zero value of t on failure
func Coerce(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(t), false
	}
	if v.Type() == t {
		return v, true
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(t), nillable(t)
		}
		v = v.Elem()
		if v.Type() == t {
			return v, true
		}
	}
	if v.Type().AssignableTo(t) {
		ret := reflect.New(t).Elem()
		ret.Set(v)
		return ret, true
	}
	if convertible(v.Type(), t) {
		return v.Convert(t), true
	}
	if t.Kind() == reflect.Slice && IsSequence(v) {
		ret := reflect.MakeSlice(t, 0, 0)
		ok := true
		Elements(v, func(e reflect.Value) bool {
			var ev reflect.Value
			if ev, ok = Coerce(e, t.Elem()); !ok {
				return false
			}
			ret = reflect.Append(ret, ev)
			return true
		})
		if ok {
			return ret, true
		}
	}
	return reflect.Zero(t), false
}

func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	// integer to string yields a rune, slice to array may panic on length, float to integer truncates
	switch {
	case to.Kind() == reflect.String && from.Kind() != reflect.String && from.Kind() != reflect.Slice:
		return false
	case from.Kind() == reflect.Slice && (to.Kind() == reflect.Array || to.Kind() == reflect.Pointer):
		return false
	case isFloat(from.Kind()) && !isFloat(to.Kind()):
		return false
	}
	return true
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice:
		return true
	}
	return false
}

// SeqOf is the type of a lazy sequence of elem values: func(yield func(elem) bool)
func SeqOf(elem reflect.Type) reflect.Type {
	yield := reflect.FuncOf([]reflect.Type{elem}, []reflect.Type{reflect.TypeOf(false)}, false)
	return reflect.FuncOf([]reflect.Type{yield}, nil, false)
}

// SeqElem returns the element type of a sequence type, nil if t is not a sequence
func SeqElem(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem()
	case reflect.Func:
		if t.NumIn() != 1 || t.NumOut() != 0 {
			return nil
		}
		y := t.In(0)
		if y.Kind() != reflect.Func || y.NumIn() != 1 || y.NumOut() != 1 || y.Out(0).Kind() != reflect.Bool {
			return nil
		}
		return y.In(0)
	}
	return nil
}

var typeOfSequence = reflect.TypeOf((*argument.Sequence)(nil)).Elem()

func IsSequence(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	return SeqElem(v.Type()) != nil || v.Type().Implements(typeOfSequence)
}

// Elements enumerates a slice, an array, an At/Len sequence or a lazy sequence function.
// Returns false if v is not a sequence
func Elements(v reflect.Value, yield func(e reflect.Value) bool) bool {
	if !v.IsValid() {
		return false
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if v.Type().Implements(typeOfSequence) && v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		n := int(v.MethodByName("Len").Call(nil)[0].Int())
		at := v.MethodByName("At")
		for i := 0; i < n; i++ {
			e := at.Call([]reflect.Value{reflect.ValueOf(i)})[0]
			if !yield(e) {
				break
			}
		}
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !yield(v.Index(i)) {
				break
			}
		}
		return true
	case reflect.Func:
		if SeqElem(v.Type()) == nil || v.IsNil() {
			return false
		}
		y := reflect.MakeFunc(v.Type().In(0), func(args []reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.ValueOf(yield(args[0]))}
		})
		v.Call([]reflect.Value{y})
		return true
	}
	return false
}

// reporter logs a diagnostic at most once
type reporter struct {
	log      *zap.SugaredLogger
	reported atomic.Bool
}

func newReporter(log *zap.SugaredLogger) reporter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return reporter{log: log}
}

func (r *reporter) report(format string, args ...any) {
	if r.reported.CompareAndSwap(false, true) {
		r.log.Warnf(format, args...)
	}
}

// Describe formats a value for diagnostics. Byte slices are formatted the EasyFL way
func Describe(v reflect.Value) string {
	if !v.IsValid() {
		return "<none>"
	}
	if !v.CanInterface() {
		return v.Type().String()
	}
	if b, ok := v.Interface().([]byte); ok {
		return easyfl.Fmt(b)
	}
	return fmt.Sprintf("%v", v.Interface())
}
