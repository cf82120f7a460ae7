package library

import (
	"reflect"

	"github.com/lunfardo314/easyfl"
	"github.com/lunfardo314/unitrie/common"
)

// RegisterFormula registers a static method whose body is an EasyFL expression.
// The method takes numParams []byte arguments, referenced as $0..$n-1 in the source, and returns []byte.
// The source is compiled here, evaluation errors panic inside the call and are contained by the calling node
func (lib *Library) RegisterFormula(typeName, name string, numParams int, source string) *Method {
	common.Assert(0 <= numParams && numParams <= MaxArity, "'%s.%s': wrong number of parameters %d", typeName, name, numParams)
	f, n, _, err := easyfl.CompileExpression(source)
	common.Assert(err == nil, "'%s.%s': %v", typeName, name, err)
	common.Assert(n <= numParams, "'%s.%s': formula '%s' uses %d parameters, more than %d", typeName, name, source, n, numParams)

	in := make([]reflect.Type, numParams)
	for i := range in {
		in[i] = TypeOfBytes
	}
	ft := reflect.FuncOf(in, []reflect.Type{TypeOfBytes}, false)
	fn := reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		data := make([][]byte, len(args))
		for i, a := range args {
			data[i] = a.Bytes()
		}
		return []reflect.Value{reflect.ValueOf(easyfl.EvalExpression(nil, f, data...))}
	})
	return lib.RegisterFunc(typeName, name, fn.Interface())
}
