package library

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lunfardo314/easycall/argument"
	"github.com/lunfardo314/easycall/scheduler"
)

var (
	TypeOfAny   = reflect.TypeOf((*any)(nil)).Elem()
	TypeOfError = reflect.TypeOf((*error)(nil)).Elem()
	TypeOfType  = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	TypeOfTask  = reflect.TypeOf((*scheduler.Task)(nil)).Elem()
	TypeOfBytes = reflect.TypeOf([]byte(nil))
)

var builtinTypes = map[string]reflect.Type{
	"int":        reflect.TypeOf(int(0)),
	"int8":       reflect.TypeOf(int8(0)),
	"int16":      reflect.TypeOf(int16(0)),
	"int32":      reflect.TypeOf(int32(0)),
	"int64":      reflect.TypeOf(int64(0)),
	"uint":       reflect.TypeOf(uint(0)),
	"uint8":      reflect.TypeOf(uint8(0)),
	"byte":       reflect.TypeOf(byte(0)),
	"uint16":     reflect.TypeOf(uint16(0)),
	"uint32":     reflect.TypeOf(uint32(0)),
	"uint64":     reflect.TypeOf(uint64(0)),
	"rune":       reflect.TypeOf(rune(0)),
	"float32":    reflect.TypeOf(float32(0)),
	"float64":    reflect.TypeOf(float64(0)),
	"bool":       reflect.TypeOf(false),
	"string":     reflect.TypeOf(""),
	"any":        TypeOfAny,
	"object":     TypeOfAny,
	"error":      TypeOfError,
	"Type":       TypeOfType,
	"Task":       TypeOfTask,
	"Color":      reflect.TypeOf(argument.Color{}),
	"Vector2":    reflect.TypeOf(argument.Vector2{}),
	"Vector3":    reflect.TypeOf(argument.Vector3{}),
	"Vector4":    reflect.TypeOf(argument.Vector4{}),
	"Rect":       reflect.TypeOf(argument.Rect{}),
	"Quaternion": reflect.TypeOf(argument.Quaternion{}),
	"LayerMask":  reflect.TypeOf(argument.LayerMask(0)),
	"Char":       reflect.TypeOf(argument.Char(0)),
}

var builtinNames = func() map[reflect.Type]string {
	ret := make(map[reflect.Type]string)
	for name, t := range builtinTypes {
		if prev, found := ret[t]; found && prev < name {
			continue
		}
		ret[t] = name
	}
	// aliases
	ret[reflect.TypeOf(int32(0))] = "int32"
	ret[reflect.TypeOf(uint8(0))] = "uint8"
	ret[TypeOfAny] = "any"
	return ret
}()

// TypeByName resolves a type descriptor: builtin, registered, []X, *X, map[K]V
func (lib *Library) TypeByName(name string) (reflect.Type, error) {
	lib.mutex.RLock()
	defer lib.mutex.RUnlock()
	return lib.typeByName(name)
}

func (lib *Library) typeByName(name string) (reflect.Type, error) {
	if t, ok := builtinTypes[name]; ok {
		return t, nil
	}
	if ti, ok := lib.types[name]; ok && ti.typ != nil {
		return ti.typ, nil
	}
	switch {
	case strings.HasPrefix(name, "[]"):
		elem, err := lib.typeByName(name[2:])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case strings.HasPrefix(name, "*"):
		elem, err := lib.typeByName(name[1:])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	case strings.HasPrefix(name, "map["):
		key, val, ok := splitMap(name)
		if !ok {
			return nil, fmt.Errorf("wrong map type '%s'", name)
		}
		kt, err := lib.typeByName(key)
		if err != nil {
			return nil, err
		}
		vt, err := lib.typeByName(val)
		if err != nil {
			return nil, err
		}
		if !kt.Comparable() {
			return nil, fmt.Errorf("map key type '%s' is not comparable", key)
		}
		return reflect.MapOf(kt, vt), nil
	}
	return nil, fmt.Errorf("unknown type '%s'", name)
}

func splitMap(name string) (string, string, bool) {
	level := 0
	for i := 3; i < len(name); i++ {
		switch name[i] {
		case '[':
			level++
		case ']':
			level--
			if level == 0 {
				return name[4:i], name[i+1:], i+1 < len(name)
			}
		}
	}
	return "", "", false
}

// TypeName is the inverse of TypeByName
func (lib *Library) TypeName(t reflect.Type) string {
	lib.mutex.RLock()
	defer lib.mutex.RUnlock()
	return lib.typeName(t)
}

func (lib *Library) typeName(t reflect.Type) string {
	if t == nil {
		return "void"
	}
	if name, ok := lib.names[t]; ok {
		return name
	}
	if name, ok := builtinNames[t]; ok {
		return name
	}
	switch t.Kind() {
	case reflect.Slice:
		return "[]" + lib.typeName(t.Elem())
	case reflect.Pointer:
		return "*" + lib.typeName(t.Elem())
	case reflect.Map:
		return "map[" + lib.typeName(t.Key()) + "]" + lib.typeName(t.Elem())
	}
	return t.String()
}
