// Package library is the registration-time method table.
// Types and functions are registered once; signature strings are resolved against the table
// and the result is memoized, so compilation never inspects type metadata twice for a signature
package library

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/lunfardo314/unitrie/common"
)

// MaxArity is the maximum number of call slots, including the receiver of instance methods
const MaxArity = 8

// Method is a resolved, directly callable method
type Method struct {
	Signature     string
	DeclaringType string
	Name          string
	Params        []reflect.Type
	Return        reflect.Type
	IsStatic      bool
	Receiver      reflect.Type
	// ReceiverByRef is set for value type receivers. The receiver is passed by pointer
	// so in-place mutation is observable by the caller
	ReceiverByRef bool

	fn         reflect.Value
	ifaceIndex int
}

type typeInfo struct {
	name    string
	typ     reflect.Type
	base    string
	methods map[string][]*Method
	generic map[string][]*GenericMethod
}

type Library struct {
	mutex    sync.RWMutex
	types    map[string]*typeInfo
	names    map[reflect.Type]string
	resolved map[string]*Method
}

// Default is the process-wide library
var Default = New()

func New() *Library {
	return &Library{
		types:    make(map[string]*typeInfo),
		names:    make(map[reflect.Type]string),
		resolved: make(map[string]*Method),
	}
}

// Arity is the number of call slots: parameters plus the receiver of instance methods
func (m *Method) Arity() int {
	if m.IsStatic {
		return len(m.Params)
	}
	return len(m.Params) + 1
}

// SlotType is the type of the i-th call slot. Slot 0 is the receiver of instance methods
func (m *Method) SlotType(i int) reflect.Type {
	if m.IsStatic {
		return m.Params[i]
	}
	if i == 0 {
		return m.Receiver
	}
	return m.Params[i-1]
}

func (m *Method) IsAction() bool {
	return m.Return == nil
}

// Call invokes with all slots, the receiver first for instance methods.
// By-ref receivers must be passed as pointers. Returns the zero Value for actions
func (m *Method) Call(slots []reflect.Value) reflect.Value {
	var out []reflect.Value
	if m.ifaceIndex >= 0 {
		// the receiver may hold any implementation, so the method is looked up on the dynamic value
		out = slots[0].MethodByName(m.Name).Call(slots[1:])
	} else {
		out = m.fn.Call(slots)
	}
	if len(out) == 0 {
		return reflect.Value{}
	}
	return out[0]
}

func (m *Method) String() string {
	return m.Signature
}

// typeInfoFor drops memoized resolutions: every registration goes through it
func (lib *Library) typeInfoFor(name string) *typeInfo {
	clear(lib.resolved)
	ti, ok := lib.types[name]
	if !ok {
		ti = &typeInfo{
			name:    name,
			methods: make(map[string][]*Method),
			generic: make(map[string][]*GenericMethod),
		}
		lib.types[name] = ti
	}
	return ti
}

// RegisterType registers the exported method set of the sample's type under the name.
// For value types the pointer method set is used and the receiver is bound by reference.
// The optional base is the name of a registered ancestor searched when a method is not found
func (lib *Library) RegisterType(name string, sample any, base ...string) {
	common.Assert(sample != nil, "nil sample for type '%s'", name)
	t := reflect.TypeOf(sample)
	lib.RegisterReflectType(name, t, base...)
}

func (lib *Library) RegisterReflectType(name string, t reflect.Type, base ...string) {
	lib.mutex.Lock()
	defer lib.mutex.Unlock()

	_, already := lib.names[t]
	common.Assert(!already, "type %v is already registered", t)
	ti := lib.typeInfoFor(name)
	common.Assert(ti.typ == nil, "repeating type name '%s'", name)
	ti.typ = t
	if len(base) > 0 {
		ti.base = base[0]
	}
	lib.names[t] = name

	byRef := t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface
	mset := t
	if byRef {
		mset = reflect.PointerTo(t)
	}
	for i := 0; i < mset.NumMethod(); i++ {
		rm := mset.Method(i)
		m := &Method{
			DeclaringType: name,
			Name:          rm.Name,
			Receiver:      t,
			ReceiverByRef: byRef,
			ifaceIndex:    -1,
		}
		ft := rm.Type
		first := 1
		if t.Kind() == reflect.Interface {
			// interface methods have no receiver in their type and no Func
			first = 0
			m.ifaceIndex = i
		} else {
			m.fn = rm.Func
		}
		if ft.IsVariadic() || ft.NumOut() > 1 || ft.NumIn()-first+1 > MaxArity {
			continue
		}
		for j := first; j < ft.NumIn(); j++ {
			m.Params = append(m.Params, ft.In(j))
		}
		if ft.NumOut() == 1 {
			m.Return = ft.Out(0)
		}
		ti.methods[m.Name] = append(ti.methods[m.Name], m)
	}
	for _, lst := range ti.methods {
		for _, m := range lst {
			m.Signature = lib.signatureOf(m)
		}
	}
}

// RegisterFunc registers a static function. Overloads with the same name are allowed
func (lib *Library) RegisterFunc(typeName, name string, fn any) *Method {
	v := reflect.ValueOf(fn)
	common.Assert(v.Kind() == reflect.Func && !v.IsNil(), "'%s.%s': function expected", typeName, name)
	ft := v.Type()
	common.Assert(!ft.IsVariadic(), "'%s.%s': variadic functions are not supported", typeName, name)
	common.Assert(ft.NumOut() <= 1, "'%s.%s': at most one result is supported", typeName, name)
	common.Assert(ft.NumIn() <= MaxArity, "'%s.%s': can't be more than %d parameters", typeName, name, MaxArity)

	lib.mutex.Lock()
	defer lib.mutex.Unlock()

	m := funcMethod(typeName, name, v)
	m.Signature = lib.signatureOf(m)
	ti := lib.typeInfoFor(typeName)
	for _, prev := range ti.methods[name] {
		common.Assert(prev.Signature != m.Signature, "repeating signature '%s'", m.Signature)
	}
	ti.methods[name] = append(ti.methods[name], m)
	return m
}

func funcMethod(typeName, name string, v reflect.Value) *Method {
	ft := v.Type()
	ret := &Method{
		DeclaringType: typeName,
		Name:          name,
		Params:        make([]reflect.Type, ft.NumIn()),
		IsStatic:      true,
		fn:            v,
		ifaceIndex:    -1,
	}
	for i := range ret.Params {
		ret.Params[i] = ft.In(i)
	}
	if ft.NumOut() == 1 {
		ret.Return = ft.Out(0)
	}
	return ret
}

func (lib *Library) signatureOf(m *Method) string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = lib.typeName(p)
	}
	return FormatSignature(m.DeclaringType, m.Name, params...)
}

// Signatures lists the signature strings of all non-generic methods of the type, sorted
func (lib *Library) Signatures(typeName string) []string {
	lib.mutex.RLock()
	defer lib.mutex.RUnlock()

	ti, ok := lib.types[typeName]
	if !ok {
		return nil
	}
	ret := make([]string, 0)
	for _, lst := range ti.methods {
		for _, m := range lst {
			ret = append(ret, m.Signature)
		}
	}
	sort.Strings(ret)
	return ret
}

// Resolve finds the method of a signature string. The result is memoized
func (lib *Library) Resolve(signature string) (*Method, error) {
	lib.mutex.RLock()
	m, ok := lib.resolved[signature]
	lib.mutex.RUnlock()
	if ok {
		return m, nil
	}
	sig, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}

	lib.mutex.Lock()
	defer lib.mutex.Unlock()

	if sig.IsGeneric() {
		m, err = lib.resolveGeneric(sig)
	} else {
		m, err = lib.resolveSpecific(sig)
	}
	if err != nil {
		return nil, err
	}
	if m.Arity() > MaxArity {
		return nil, fmt.Errorf("'%s': arity %d is more than %d", signature, m.Arity(), MaxArity)
	}
	lib.resolved[signature] = m
	return m, nil
}

// chain is the declaring type followed by its ancestors
func (lib *Library) chain(name string) ([]*typeInfo, error) {
	ret := make([]*typeInfo, 0, 2)
	visited := make(map[string]bool)
	for name != "" {
		ti, ok := lib.types[name]
		if !ok {
			if len(ret) == 0 {
				return nil, fmt.Errorf("unknown declaring type '%s'", name)
			}
			return nil, fmt.Errorf("unknown base type '%s'", name)
		}
		if visited[name] {
			return nil, fmt.Errorf("cyclic base types at '%s'", name)
		}
		visited[name] = true
		ret = append(ret, ti)
		name = ti.base
	}
	return ret, nil
}

func (lib *Library) resolveSpecific(sig *Signature) (*Method, error) {
	chain, err := lib.chain(sig.DeclaringType)
	if err != nil {
		return nil, err
	}
	want := make([]reflect.Type, len(sig.Params))
	for i, p := range sig.Params {
		if want[i], err = lib.typeByName(p); err != nil {
			return nil, fmt.Errorf("'%s': %v", sig.String(), err)
		}
	}
	for _, ti := range chain {
		candidates := ti.methods[sig.Name]
		if m := uniqueMatch(candidates, want, identical); m != nil {
			return m, nil
		}
		// ambiguous or no exact overload: compare parameter by parameter
		if m := firstMatch(candidates, want, identical); m != nil {
			return m, nil
		}
		if m := uniqueMatch(candidates, want, assignable); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("method not found: '%s'", sig.String())
}

func identical(want, param reflect.Type) bool {
	return want == param
}

func assignable(want, param reflect.Type) bool {
	return want.AssignableTo(param)
}

func matches(m *Method, want []reflect.Type, eq func(want, param reflect.Type) bool) bool {
	if len(m.Params) != len(want) {
		return false
	}
	for i := range want {
		if !eq(want[i], m.Params[i]) {
			return false
		}
	}
	return true
}

func uniqueMatch(candidates []*Method, want []reflect.Type, eq func(want, param reflect.Type) bool) *Method {
	var ret *Method
	for _, m := range candidates {
		if !matches(m, want, eq) {
			continue
		}
		if ret != nil {
			return nil
		}
		ret = m
	}
	return ret
}

func firstMatch(candidates []*Method, want []reflect.Type, eq func(want, param reflect.Type) bool) *Method {
	for _, m := range candidates {
		if matches(m, want, eq) {
			return m
		}
	}
	return nil
}
