// Package argument is the compact, tagged encoding of a bound call argument:
// a literal of one of the primitive kinds or a reference descriptor resolved by the compiler.
package argument

import "fmt"

// Kind is the reference kind of an argument slot
type Kind byte

const (
	Data = Kind(iota)
	IDReference
	TagReference
	Parent
	EventArg
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case IDReference:
		return "id"
	case TagReference:
		return "tag"
	case Parent:
		return "parent"
	case EventArg:
		return "eventArg"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// Definition bits:
// - bits 0-2: reference kind
// - bit 3: the argument is a nested method call
// - bit 4: negate the (boolean) result
// - bit 5: cache the result after the first evaluation
// - bit 6: the argument is the iteration source of the owning call
type Definition uint32

const (
	KindMask     = Definition(0x07)
	IsMethodFlag = Definition(0x01) << 3
	NegateFlag   = Definition(0x01) << 4
	CacheFlag    = Definition(0x01) << 5
	ForeachFlag  = Definition(0x01) << 6
	MaxKind      = EventArg
)

func (d Definition) Kind() Kind {
	return Kind(d & KindMask)
}

func (d Definition) WithKind(k Kind) Definition {
	if k > MaxKind {
		panic(fmt.Sprintf("wrong reference kind %d", k))
	}
	return (d &^ KindMask) | Definition(k)
}

func (d Definition) IsMethod() bool { return d&IsMethodFlag != 0 }
func (d Definition) Negate() bool   { return d&NegateFlag != 0 }
func (d Definition) Cache() bool    { return d&CacheFlag != 0 }
func (d Definition) Foreach() bool  { return d&ForeachFlag != 0 }

// Argument is authored once and only read by the compiler
type Argument struct {
	Def    Definition
	Int    int64
	Float  float64
	Bool   bool
	String string
	Object any

	// Vector holds up to 3 components, the fourth lives in Float
	Vector [3]float64

	// ID is the target of IDReference, Tag is the target of TagReference
	ID  int32
	Tag any

	// Method and Params describe a nested method call
	Method string
	Params []Argument
}

func (a Argument) Kind() Kind {
	return a.Def.Kind()
}

// Referencable arguments are registered in the reference map under their argument id
func (a Argument) Referencable() bool {
	return a.Def.IsMethod() || a.Kind() == Data
}

func Int(v int64) Argument {
	return Argument{Int: v}
}

func Float(v float64) Argument {
	return Argument{Float: v}
}

func Bool(v bool) Argument {
	return Argument{Bool: v}
}

func String(v string) Argument {
	return Argument{String: v}
}

func Obj(v any) Argument {
	return Argument{Object: v}
}

func Vec2(x, y float64) Argument {
	return Argument{Vector: [3]float64{x, y}}
}

func Vec3(x, y, z float64) Argument {
	return Argument{Vector: [3]float64{x, y, z}}
}

func Vec4(x, y, z, w float64) Argument {
	return Argument{Vector: [3]float64{x, y, z}, Float: w}
}

func ColorArg(c Color) Argument {
	return Vec4(float64(c.R), float64(c.G), float64(c.B), float64(c.A))
}

func Ref(id int32) Argument {
	return Argument{Def: Definition(0).WithKind(IDReference), ID: id}
}

func TagRef(tag any) Argument {
	return Argument{Def: Definition(0).WithKind(TagReference), Tag: tag}
}

func ParentRef() Argument {
	return Argument{Def: Definition(0).WithKind(Parent)}
}

func EventArgRef() Argument {
	return Argument{Def: Definition(0).WithKind(EventArg)}
}

// MethodCall is an argument evaluated by calling the method with its own params
func MethodCall(signature string, params ...Argument) Argument {
	return Argument{Def: IsMethodFlag, Method: signature, Params: params}
}

func (a Argument) Negated() Argument {
	a.Def |= NegateFlag
	return a
}

func (a Argument) Cached() Argument {
	a.Def |= CacheFlag
	return a
}

func (a Argument) ForEach() Argument {
	a.Def |= ForeachFlag
	return a
}

// Components returns the four vector components
func (a Argument) Components() [4]float64 {
	return [4]float64{a.Vector[0], a.Vector[1], a.Vector[2], a.Float}
}

func (a Argument) Describe() string {
	switch {
	case a.Def.IsMethod():
		return fmt.Sprintf("call(%s, %d params)", a.Method, len(a.Params))
	case a.Kind() == IDReference:
		return fmt.Sprintf("ref(%d)", a.ID)
	case a.Kind() == TagReference:
		return fmt.Sprintf("tag(%v)", a.Tag)
	case a.Kind() == Data && a.Object != nil:
		return fmt.Sprintf("data(%v)", a.Object)
	case a.Kind() == Data:
		return fmt.Sprintf("data(%d, %g, %v, %q)", a.Int, a.Float, a.Bool, a.String)
	}
	return a.Kind().String()
}
