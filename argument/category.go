package argument

import (
	"fmt"
	"reflect"
	"sync"
)

// Category selects which value slot(s) of the argument hold the value of a type
type Category byte

const (
	Unknown = Category(iota)
	Integer
	Boolean
	FloatNumber
	Text
	ColorValue
	Object
	LayerMaskValue
	Enum
	Vector2Value
	Vector3Value
	Vector4Value
	RectValue
	Character
	QuaternionValue
	TypeRef
	Generic
)

var categoryNames = [...]string{
	Unknown:         "Unknown",
	Integer:         "Integer",
	Boolean:         "Boolean",
	FloatNumber:     "Float",
	Text:            "String",
	ColorValue:      "Color",
	Object:          "Object",
	LayerMaskValue:  "LayerMask",
	Enum:            "Enum",
	Vector2Value:    "Vector2",
	Vector3Value:    "Vector3",
	Vector4Value:    "Vector4",
	RectValue:       "Rect",
	Character:       "Character",
	QuaternionValue: "Quaternion",
	TypeRef:         "Type",
	Generic:         "Generic",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", byte(c))
}

// Sequence is the enumerable interface. Interface types satisfying it are not Objects
type Sequence interface {
	Len() int
	At(i int) any
}

// Caster lets a payload carried in the Object slot supply its own typed getter
type Caster interface {
	CastTo(t reflect.Type) (any, bool)
}

type CastFunc func(a *Argument) (any, bool)

var (
	reflectType  = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	sequenceType = reflect.TypeOf((*Sequence)(nil)).Elem()

	builtinCategories = map[reflect.Type]Category{
		reflect.TypeOf(int(0)):       Integer,
		reflect.TypeOf(int8(0)):      Integer,
		reflect.TypeOf(int16(0)):     Integer,
		reflect.TypeOf(int32(0)):     Integer,
		reflect.TypeOf(int64(0)):     Integer,
		reflect.TypeOf(uint(0)):      Integer,
		reflect.TypeOf(uint8(0)):     Integer,
		reflect.TypeOf(uint16(0)):    Integer,
		reflect.TypeOf(uint32(0)):    Integer,
		reflect.TypeOf(uint64(0)):    Integer,
		reflect.TypeOf(false):        Boolean,
		reflect.TypeOf(float32(0)):   FloatNumber,
		reflect.TypeOf(float64(0)):   FloatNumber,
		reflect.TypeOf(""):           Text,
		reflect.TypeOf(Color{}):      ColorValue,
		reflect.TypeOf(LayerMask(0)): LayerMaskValue,
		reflect.TypeOf(Vector2{}):    Vector2Value,
		reflect.TypeOf(Vector3{}):    Vector3Value,
		reflect.TypeOf(Vector4{}):    Vector4Value,
		reflect.TypeOf(Rect{}):       RectValue,
		reflect.TypeOf(Char(0)):      Character,
		reflect.TypeOf(Quaternion{}): QuaternionValue,
		reflectType:                  TypeRef,
	}

	castMutex sync.RWMutex
	casters   = make(map[reflect.Type]CastFunc)
)

// RegisterCast installs a getter for a Generic type
func RegisterCast(t reflect.Type, fn CastFunc) {
	castMutex.Lock()
	defer castMutex.Unlock()
	casters[t] = fn
}

func castFor(t reflect.Type) CastFunc {
	castMutex.RLock()
	defer castMutex.RUnlock()
	return casters[t]
}

// CategoryOf classifies a type: builtin table, then integer backed named types,
// then reference-like types, then everything else is Generic
func CategoryOf(t reflect.Type) Category {
	if t == nil {
		return Unknown
	}
	if c, ok := builtinCategories[t]; ok {
		return c
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t.Name() != "" {
			return Enum
		}
		return Integer
	case reflect.Interface:
		if t.NumMethod() > 0 && t.Implements(sequenceType) {
			return Generic
		}
		return Object
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan:
		return Object
	case reflect.Bool:
		return Boolean
	case reflect.Float32, reflect.Float64:
		return FloatNumber
	case reflect.String:
		return Text
	case reflect.Struct, reflect.Slice, reflect.Array:
		return Generic
	}
	return Unknown
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice:
		return true
	}
	return false
}

// Value reads the argument as a value of type t. It never panics.
// The returned value is valid whenever t is not nil, zero on failure
func (a *Argument) Value(t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, fmt.Errorf("nil type")
	}
	c := CategoryOf(t)
	f := func(v float64) float32 { return float32(v) }
	switch c {
	case Integer, Enum:
		return reflect.ValueOf(a.Int).Convert(t), nil
	case LayerMaskValue:
		return reflect.ValueOf(LayerMask(a.Int)).Convert(t), nil
	case Boolean:
		return reflect.ValueOf(a.Bool).Convert(t), nil
	case FloatNumber:
		return reflect.ValueOf(a.Float).Convert(t), nil
	case Text:
		return reflect.ValueOf(a.String).Convert(t), nil
	case Character:
		ch := Char(a.Int)
		for _, r := range a.String {
			ch = Char(r)
			break
		}
		return reflect.ValueOf(ch).Convert(t), nil
	case ColorValue:
		return reflect.ValueOf(Color{R: f(a.Vector[0]), G: f(a.Vector[1]), B: f(a.Vector[2]), A: f(a.Float)}), nil
	case Vector2Value:
		return reflect.ValueOf(Vector2{X: f(a.Vector[0]), Y: f(a.Vector[1])}), nil
	case Vector3Value:
		return reflect.ValueOf(Vector3{X: f(a.Vector[0]), Y: f(a.Vector[1]), Z: f(a.Vector[2])}), nil
	case Vector4Value:
		return reflect.ValueOf(Vector4{X: f(a.Vector[0]), Y: f(a.Vector[1]), Z: f(a.Vector[2]), W: f(a.Float)}), nil
	case QuaternionValue:
		return reflect.ValueOf(Quaternion{X: f(a.Vector[0]), Y: f(a.Vector[1]), Z: f(a.Vector[2]), W: f(a.Float)}), nil
	case RectValue:
		return reflect.ValueOf(Rect{X: f(a.Vector[0]), Y: f(a.Vector[1]), Width: f(a.Vector[2]), Height: f(a.Float)}), nil
	case TypeRef:
		if rt, ok := a.Object.(reflect.Type); ok {
			return reflect.ValueOf(&rt).Elem(), nil
		}
		return reflect.Zero(t), fmt.Errorf("argument does not hold a type reference: %s", a.Describe())
	case Object:
		return a.objectValue(t)
	case Generic:
		return a.genericValue(t), nil
	}
	return reflect.Zero(t), fmt.Errorf("unsupported argument type '%v'", t)
}

func (a *Argument) objectValue(t reflect.Type) (reflect.Value, error) {
	if a.Object == nil {
		if nillable(t) {
			return reflect.Zero(t), nil
		}
		return reflect.Zero(t), fmt.Errorf("nil object for non-nillable type '%v'", t)
	}
	v := reflect.ValueOf(a.Object)
	if !v.Type().AssignableTo(t) {
		return reflect.Zero(t), fmt.Errorf("object of type '%v' is not assignable to '%v'", v.Type(), t)
	}
	ret := reflect.New(t).Elem()
	ret.Set(v)
	return ret, nil
}

func (a *Argument) genericValue(t reflect.Type) reflect.Value {
	if fn := castFor(t); fn != nil {
		if v, ok := fn(a); ok {
			if ret, ok := assign(v, t); ok {
				return ret
			}
		}
	}
	if c, ok := a.Object.(Caster); ok {
		if v, ok := c.CastTo(t); ok {
			if ret, ok := assign(v, t); ok {
				return ret
			}
		}
	}
	if ret, ok := assign(a.Object, t); ok {
		return ret
	}
	return reflect.Zero(t)
}

func assign(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, false
	}
	ret := reflect.New(t).Elem()
	ret.Set(rv)
	return ret, true
}

// Of builds a Data argument holding v in the slot(s) of its category
func Of(v any) Argument {
	if v == nil {
		return Argument{}
	}
	rv := reflect.ValueOf(v)
	switch CategoryOf(rv.Type()) {
	case Integer, Enum, LayerMaskValue:
		if rv.CanInt() {
			return Int(rv.Int())
		}
		return Int(int64(rv.Uint()))
	case Boolean:
		return Bool(rv.Bool())
	case FloatNumber:
		return Float(rv.Float())
	case Text:
		return String(rv.String())
	case Character:
		return Argument{String: string(rune(rv.Int())), Int: rv.Int()}
	case ColorValue:
		c := v.(Color)
		return ColorArg(c)
	case Vector2Value:
		p := v.(Vector2)
		return Vec2(float64(p.X), float64(p.Y))
	case Vector3Value:
		p := v.(Vector3)
		return Vec3(float64(p.X), float64(p.Y), float64(p.Z))
	case Vector4Value:
		p := v.(Vector4)
		return Vec4(float64(p.X), float64(p.Y), float64(p.Z), float64(p.W))
	case QuaternionValue:
		p := v.(Quaternion)
		return Vec4(float64(p.X), float64(p.Y), float64(p.Z), float64(p.W))
	case RectValue:
		p := v.(Rect)
		return Vec4(float64(p.X), float64(p.Y), float64(p.Width), float64(p.Height))
	}
	return Obj(v)
}
