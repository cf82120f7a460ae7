package eventcall

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lunfardo314/easycall/argument"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

type document struct {
	Calls []callDoc `yaml:"calls"`
}

type callDoc struct {
	ID         int32    `yaml:"id"`
	Method     string   `yaml:"method"`
	Enabled    *bool    `yaml:"enabled,omitempty"`
	Tag        any      `yaml:"tag,omitempty"`
	Delay      string   `yaml:"delay,omitempty"`
	DelayValue float64  `yaml:"delayValue,omitempty"`
	DelayID    int32    `yaml:"delayId,omitempty"`
	FixedStep  bool     `yaml:"fixedStep,omitempty"`
	Args       []argDoc `yaml:"args,omitempty"`
}

type argDoc struct {
	Kind     string    `yaml:"kind,omitempty"`
	Int      *int64    `yaml:"int,omitempty"`
	Float    *float64  `yaml:"float,omitempty"`
	Bool     *bool     `yaml:"bool,omitempty"`
	String   *string   `yaml:"string,omitempty"`
	Vector   []float64 `yaml:"vector,omitempty"`
	Object   any       `yaml:"object,omitempty"`
	Ref      int32     `yaml:"ref,omitempty"`
	TagRef   any       `yaml:"tagRef,omitempty"`
	Parent   bool      `yaml:"parent,omitempty"`
	EventArg bool      `yaml:"eventArg,omitempty"`
	Method   string    `yaml:"method,omitempty"`
	Params   []argDoc  `yaml:"params,omitempty"`
	Negate   bool      `yaml:"negate,omitempty"`
	Cache    bool      `yaml:"cache,omitempty"`
	Foreach  bool      `yaml:"foreach,omitempty"`
}

func parseDelayMode(s string) (DelayMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return NoDelay, nil
	case "wait":
		return Wait, nil
	case "pause":
		return Pause, nil
	}
	return NoDelay, fmt.Errorf("unknown delay mode '%s'", s)
}

func parseKind(s string) (argument.Kind, error) {
	for k := argument.Data; k <= argument.EventArg; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return argument.Data, fmt.Errorf("unknown argument kind '%s'", s)
}

// LoadYAML reads a list of calls in authoring order
func LoadYAML(data []byte) ([]*EventCall, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	ret := make([]*EventCall, 0, len(doc.Calls))
	for i := range doc.Calls {
		c, err := doc.Calls[i].eventCall()
		if err != nil {
			return nil, fmt.Errorf("call #%d: %v", i, err)
		}
		ret = append(ret, c)
	}
	return ret, nil
}

func (d *callDoc) eventCall() (*EventCall, error) {
	mode, err := parseDelayMode(d.Delay)
	if err != nil {
		return nil, err
	}
	ret := &EventCall{
		ID:         d.ID,
		Method:     d.Method,
		Enabled:    d.Enabled == nil || *d.Enabled,
		Tag:        d.Tag,
		Delay:      mode,
		DelayValue: d.DelayValue,
		DelayID:    d.DelayID,
		FixedStep:  d.FixedStep,
		Args:       make([]argument.Argument, len(d.Args)),
	}
	for i := range d.Args {
		if ret.Args[i], err = d.Args[i].argument(); err != nil {
			return nil, fmt.Errorf("argument %d: %v", i, err)
		}
	}
	return ret, nil
}

func (d *argDoc) argument() (argument.Argument, error) {
	var ret argument.Argument
	kinds := 0
	if d.Ref != 0 {
		ret.Def = ret.Def.WithKind(argument.IDReference)
		ret.ID = d.Ref
		kinds++
	}
	if d.TagRef != nil {
		ret.Def = ret.Def.WithKind(argument.TagReference)
		ret.Tag = d.TagRef
		kinds++
	}
	if d.Parent {
		ret.Def = ret.Def.WithKind(argument.Parent)
		kinds++
	}
	if d.EventArg {
		ret.Def = ret.Def.WithKind(argument.EventArg)
		kinds++
	}
	if kinds > 1 {
		return ret, fmt.Errorf("more than one reference kind")
	}
	if d.Kind != "" {
		k, err := parseKind(d.Kind)
		if err != nil {
			return ret, err
		}
		if kinds > 0 && k != ret.Kind() {
			return ret, fmt.Errorf("kind '%s' conflicts with reference '%s'", d.Kind, ret.Kind())
		}
		ret.Def = ret.Def.WithKind(k)
	}
	if d.Int != nil {
		ret.Int = *d.Int
	}
	if d.Float != nil {
		ret.Float = *d.Float
	}
	if d.Bool != nil {
		ret.Bool = *d.Bool
	}
	if d.String != nil {
		ret.String = *d.String
	}
	if len(d.Vector) > 4 {
		return ret, fmt.Errorf("vector has more than 4 components")
	}
	for i, v := range d.Vector {
		if i < 3 {
			ret.Vector[i] = v
		} else {
			ret.Float = v
		}
	}
	ret.Object = d.Object
	if d.Method != "" {
		ret.Def |= argument.IsMethodFlag
		ret.Method = d.Method
		ret.Params = make([]argument.Argument, len(d.Params))
		for i := range d.Params {
			p, err := d.Params[i].argument()
			if err != nil {
				return ret, fmt.Errorf("param %d: %v", i, err)
			}
			ret.Params[i] = p
		}
	}
	if d.Negate {
		ret.Def |= argument.NegateFlag
	}
	if d.Cache {
		ret.Def |= argument.CacheFlag
	}
	if d.Foreach {
		ret.Def |= argument.ForeachFlag
	}
	return ret, nil
}

// MarshalYAML is the canonical form of the calls. Pointers, functions and channels
// are written as their type and identity, so the output is for comparison, not for loading
func MarshalYAML(calls []*EventCall) ([]byte, error) {
	doc := document{Calls: make([]callDoc, len(calls))}
	for i, c := range calls {
		doc.Calls[i] = toCallDoc(c)
	}
	return yaml.Marshal(&doc)
}

func toCallDoc(c *EventCall) callDoc {
	enabled := c.Enabled
	ret := callDoc{
		ID:         c.ID,
		Method:     c.Method,
		Enabled:    &enabled,
		Tag:        plain(c.Tag),
		DelayValue: c.DelayValue,
		DelayID:    c.DelayID,
		FixedStep:  c.FixedStep,
		Args:       make([]argDoc, len(c.Args)),
	}
	if c.Delay != NoDelay {
		ret.Delay = c.Delay.String()
	}
	for i := range c.Args {
		ret.Args[i] = toArgDoc(&c.Args[i])
	}
	return ret
}

func toArgDoc(a *argument.Argument) argDoc {
	ret := argDoc{
		Kind:    a.Kind().String(),
		Object:  plain(a.Object),
		Negate:  a.Def.Negate(),
		Cache:   a.Def.Cache(),
		Foreach: a.Def.Foreach(),
	}
	if a.Int != 0 {
		v := a.Int
		ret.Int = &v
	}
	if a.Float != 0 {
		v := a.Float
		ret.Float = &v
	}
	if a.Bool {
		v := true
		ret.Bool = &v
	}
	if a.String != "" {
		v := a.String
		ret.String = &v
	}
	if a.Vector != [3]float64{} {
		ret.Vector = a.Vector[:]
	}
	switch a.Kind() {
	case argument.IDReference:
		ret.Ref = a.ID
	case argument.TagReference:
		ret.TagRef = plain(a.Tag)
	case argument.Parent:
		ret.Parent = true
	case argument.EventArg:
		ret.EventArg = true
	}
	if a.Def.IsMethod() {
		ret.Method = a.Method
		ret.Params = make([]argDoc, len(a.Params))
		for i := range a.Params {
			ret.Params[i] = toArgDoc(&a.Params[i])
		}
	}
	return ret
}

func plain(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if rv.Type().PkgPath() == "" {
			return v
		}
		return fmt.Sprintf("%T(%v)", v, v)
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%T@%x", v, rv.Pointer())
	}
	if !exact(rv) {
		return fmt.Sprintf("%T%#v", v, v)
	}
	return v
}

// exact is true when YAML writes everything the value holds. Unexported fields are not written
func exact(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.Type().PkgPath() == ""
	case reflect.Interface, reflect.Pointer:
		return v.IsNil() || exact(v.Elem())
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !exact(v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !exact(iter.Key()) || !exact(iter.Value()) {
				return false
			}
		}
		return true
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() || t.Field(i).Tag.Get("yaml") == "-" || !exact(v.Field(i)) {
				return false
			}
		}
		return true
	}
	return false
}

// Digest is the blake2b-256 hash of the canonical form
func Digest(calls []*EventCall) [32]byte {
	data, err := MarshalYAML(calls)
	if err != nil {
		var buf strings.Builder
		for _, c := range calls {
			buf.WriteString(c.String())
			buf.WriteByte('\n')
		}
		data = []byte(buf.String())
	}
	return blake2b.Sum256(data)
}
