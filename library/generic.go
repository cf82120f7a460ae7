package library

import (
	"fmt"
	"reflect"

	"github.com/lunfardo314/unitrie/common"
)

// GenericMethod is a static method template with up to MaxTypeParams type parameters.
// Params are type descriptors: concrete type names, the letters T, U, V, W,
// or open constructed types like []T or map[string]U.
// Instantiate returns the concrete function for the type arguments
type GenericMethod struct {
	DeclaringType string
	Name          string
	Params        []string
	TypeParams    int
	Instantiate   func(typeArgs []reflect.Type) (any, error)
}

func (lib *Library) RegisterGeneric(g GenericMethod) {
	common.Assert(g.Instantiate != nil, "'%s.%s': Instantiate is nil", g.DeclaringType, g.Name)
	common.Assert(0 < g.TypeParams && g.TypeParams <= MaxTypeParams,
		"'%s.%s': number of type parameters must be from 1 to %d", g.DeclaringType, g.Name, MaxTypeParams)
	common.Assert(len(g.Params) <= MaxArity, "'%s.%s': can't be more than %d parameters", g.DeclaringType, g.Name, MaxArity)

	lib.mutex.Lock()
	defer lib.mutex.Unlock()

	ti := lib.typeInfoFor(g.DeclaringType)
	gm := g
	ti.generic[g.Name] = append(ti.generic[g.Name], &gm)
}

func (lib *Library) resolveGeneric(sig *Signature) (*Method, error) {
	if len(sig.GenericArgs) > MaxTypeParams {
		return nil, fmt.Errorf("'%s': more than %d generic type parameters are not supported", sig.String(), MaxTypeParams)
	}
	chain, err := lib.chain(sig.DeclaringType)
	if err != nil {
		return nil, err
	}
	typeArgs := make([]reflect.Type, len(sig.GenericArgs))
	for i, g := range sig.GenericArgs {
		if typeArgs[i], err = lib.typeByName(g); err != nil {
			return nil, fmt.Errorf("'%s': %v", sig.String(), err)
		}
	}
	for _, ti := range chain {
		for _, g := range ti.generic[sig.Name] {
			if !lib.shapeMatches(g, sig) {
				continue
			}
			return lib.instantiate(g, sig, typeArgs)
		}
	}
	return nil, fmt.Errorf("generic method not found: '%s'", sig.String())
}

// shapeMatches compares the template with the signature parameter by parameter
func (lib *Library) shapeMatches(g *GenericMethod, sig *Signature) bool {
	if len(g.Params) != len(sig.Params) || g.TypeParams != len(sig.GenericArgs) {
		return false
	}
	for i := range sig.Params {
		desc := g.Params[i]
		switch c := sig.Shape[i]; {
		case c == ShapeSpecific:
			if isOpen(desc) {
				return false
			}
			want, err := lib.typeByName(sig.Params[i])
			if err != nil {
				return false
			}
			have, err := lib.typeByName(desc)
			if err != nil || want != have {
				return false
			}
		case c == ShapeOpen:
			if genericLetter(desc) >= 0 || !isOpen(desc) || desc != sig.Params[i] {
				return false
			}
		default:
			k := typeParamIndex(c)
			if k < 0 || k >= g.TypeParams || genericLetter(desc) != k || sig.Params[i] != desc {
				return false
			}
		}
	}
	return true
}

func (lib *Library) instantiate(g *GenericMethod, sig *Signature, typeArgs []reflect.Type) (*Method, error) {
	var fn any
	err := common.CatchPanicOrError(func() error {
		var err1 error
		fn, err1 = g.Instantiate(typeArgs)
		return err1
	})
	if err != nil {
		return nil, fmt.Errorf("'%s': instantiation failed: %v", sig.String(), err)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.Type().IsVariadic() || v.Type().NumOut() > 1 {
		return nil, fmt.Errorf("'%s': instantiation did not return a supported function", sig.String())
	}
	ft := v.Type()
	if ft.NumIn() != len(g.Params) {
		return nil, fmt.Errorf("'%s': instantiated function has %d parameters, expected %d", sig.String(), ft.NumIn(), len(g.Params))
	}
	for i, desc := range g.Params {
		want, err := lib.typeByName(substitute(desc, sig.GenericArgs))
		if err != nil {
			return nil, fmt.Errorf("'%s': %v", sig.String(), err)
		}
		if ft.In(i) != want {
			return nil, fmt.Errorf("'%s': parameter %d of instantiated function is %v, expected %v", sig.String(), i, ft.In(i), want)
		}
	}
	ret := funcMethod(g.DeclaringType, g.Name, v)
	ret.Signature = sig.String()
	return ret, nil
}
