package library

import (
	"fmt"
	"strings"
)

// Signature is the parsed method signature string:
//
//	DeclaringType;MethodName;ParamType1;...;ParamTypeN[;shapeChars*;GenericArg1;...;GenericArgM]
//
// shape has one character per parameter: 's' specific type, 'T', 'U', 'V', 'W' the 1st to 4th
// generic type parameter, 't' an open constructed type such as []T
type Signature struct {
	DeclaringType string
	Name          string
	Params        []string
	Shape         string
	GenericArgs   []string
}

const (
	ShapeSpecific = 's'
	ShapeOpen     = 't'
	shapeEnd      = '*'
	shapeGeneric  = "TUVW"
	// MaxTypeParams is the number of shape letters available for generic parameters
	MaxTypeParams = len(shapeGeneric)
)

func (s *Signature) IsGeneric() bool {
	return s.GenericArgs != nil
}

func ParseSignature(s string) (*Signature, error) {
	parts := strings.Split(s, ";")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("wrong method signature '%s'", s)
	}
	ret := &Signature{
		DeclaringType: parts[0],
		Name:          parts[1],
		Params:        make([]string, 0, len(parts)-2),
	}
	rest := parts[2:]
	for i, p := range rest {
		if strings.HasSuffix(p, string(shapeEnd)) {
			ret.Shape = strings.TrimSuffix(p, string(shapeEnd))
			ret.GenericArgs = rest[i+1:]
			if ret.GenericArgs == nil {
				ret.GenericArgs = []string{}
			}
			break
		}
		if p == "" {
			return nil, fmt.Errorf("empty parameter type in '%s'", s)
		}
		ret.Params = append(ret.Params, p)
	}
	if !ret.IsGeneric() {
		return ret, nil
	}
	if len(ret.Shape) != len(ret.Params) {
		return nil, fmt.Errorf("shape '%s' does not match %d parameters in '%s'", ret.Shape, len(ret.Params), s)
	}
	for _, c := range ret.Shape {
		if c != ShapeSpecific && c != ShapeOpen && !strings.ContainsRune(shapeGeneric, c) {
			return nil, fmt.Errorf("wrong shape character '%c' in '%s'", c, s)
		}
	}
	if len(ret.GenericArgs) == 0 {
		return nil, fmt.Errorf("generic arguments expected in '%s'", s)
	}
	for _, g := range ret.GenericArgs {
		if g == "" {
			return nil, fmt.Errorf("empty generic argument in '%s'", s)
		}
	}
	return ret, nil
}

func (s *Signature) String() string {
	parts := make([]string, 0, 3+len(s.Params)+len(s.GenericArgs))
	parts = append(parts, s.DeclaringType, s.Name)
	parts = append(parts, s.Params...)
	if s.IsGeneric() {
		parts = append(parts, s.Shape+string(shapeEnd))
		parts = append(parts, s.GenericArgs...)
	}
	return strings.Join(parts, ";")
}

// FormatSignature builds a non-generic signature string
func FormatSignature(declaringType, name string, params ...string) string {
	return (&Signature{DeclaringType: declaringType, Name: name, Params: params}).String()
}

// typeParamIndex returns the index of a generic letter, -1 if not generic
func typeParamIndex(c byte) int {
	return strings.IndexByte(shapeGeneric, c)
}

func mapIdents(desc string, fn func(tok string) string) string {
	var buf strings.Builder
	ident := func(c byte) bool {
		return c == '_' || c == '.' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
	}
	for i := 0; i < len(desc); {
		if !ident(desc[i]) {
			buf.WriteByte(desc[i])
			i++
			continue
		}
		j := i
		for j < len(desc) && ident(desc[j]) {
			j++
		}
		buf.WriteString(fn(desc[i:j]))
		i = j
	}
	return buf.String()
}

func genericLetter(tok string) int {
	if len(tok) != 1 {
		return -1
	}
	return typeParamIndex(tok[0])
}

// substitute replaces whole-identifier generic letters in a type descriptor
func substitute(desc string, args []string) string {
	return mapIdents(desc, func(tok string) string {
		if k := genericLetter(tok); k >= 0 && k < len(args) {
			return args[k]
		}
		return tok
	})
}

// isOpen is true when the descriptor mentions a generic letter
func isOpen(desc string) bool {
	ret := false
	mapIdents(desc, func(tok string) string {
		if genericLetter(tok) >= 0 {
			ret = true
		}
		return tok
	})
	return ret
}
