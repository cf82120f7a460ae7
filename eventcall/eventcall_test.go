package eventcall

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/lunfardo314/easycall/argument"
	"github.com/stretchr/testify/require"
)

type caseless string

func (c caseless) Equal(other any) bool {
	o, ok := other.(caseless)
	return ok && strings.EqualFold(string(o), string(c))
}

func TestArgumentID(t *testing.T) {
	t.Run("formula", func(t *testing.T) {
		require.EqualValues(t, 10+486187739, ArgumentID(10, 0))
		require.EqualValues(t, int32(uint32(10)+2*486187739), ArgumentID(10, 1))
	})
	t.Run("no collisions in realistic ranges", func(t *testing.T) {
		seen := make(map[int32]struct{})
		for callID := int32(1); callID <= 2000; callID++ {
			seen[callID] = struct{}{}
		}
		for callID := int32(1); callID <= 2000; callID++ {
			for i := 0; i < 8; i++ {
				id := ArgumentID(callID, i)
				_, dup := seen[id]
				require.False(t, dup, "collision for call %d arg %d", callID, i)
				seen[id] = struct{}{}
			}
		}
	})
	t.Run("random pairs", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(1))
		for n := 0; n < 10000; n++ {
			a := int32(rnd.Intn(100000) + 1)
			b := int32(rnd.Intn(100000) + 1)
			if a == b {
				continue
			}
			for i := 0; i < 8; i++ {
				for j := 0; j < 8; j++ {
					require.NotEqual(t, ArgumentID(a, i), ArgumentID(b, j))
				}
			}
		}
	})
}

func TestTagEqual(t *testing.T) {
	require.True(t, TagEqual("a", "a"))
	require.False(t, TagEqual("a", "b"))
	require.True(t, TagEqual(nil, nil))
	require.False(t, TagEqual(nil, 1))
	require.False(t, TagEqual(1, int64(1)))
	require.True(t, TagEqual([]int{1, 2}, []int{1, 2}))
	require.True(t, TagEqual(caseless("Jump"), caseless("jump")))
}

func TestSortByTag(t *testing.T) {
	t.Run("ordered", func(t *testing.T) {
		calls := []*EventCall{
			New(1, "m").WithTag("b"),
			New(2, "m").WithTag("a"),
			New(3, "m").WithTag("b"),
			New(4, "m").WithTag("a"),
			New(5, "m").WithTag("c"),
		}
		SortByTag(calls)
		ids := make([]int32, len(calls))
		for i, c := range calls {
			ids[i] = c.ID
		}
		require.EqualValues(t, []int32{2, 4, 1, 3, 5}, ids)
	})
	t.Run("unorderable keeps first appearance", func(t *testing.T) {
		calls := []*EventCall{
			New(1, "m").WithTag(caseless("Y")),
			New(2, "m").WithTag(3),
			New(3, "m").WithTag(caseless("y")),
			New(4, "m").WithTag(3),
		}
		SortByTag(calls)
		ids := make([]int32, len(calls))
		for i, c := range calls {
			ids[i] = c.ID
		}
		require.EqualValues(t, []int32{1, 3, 2, 4}, ids)
	})
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]*EventCall{New(1, "m"), New(2, "m"), New(0, "m"), New(0, "m")}))
	require.Error(t, Validate([]*EventCall{New(1, "m"), New(1, "m")}))
}

const source = `
calls:
  - id: 10
    method: Counter;Add;int
    tag: X
    args:
      - parent: true
      - int: 5
  - id: 11
    method: Counter;Add;int
    tag: X
    delay: pause
    delayValue: 1.5
    args:
      - ref: 10
      - method: Math;Max;int;int
        negate: true
        cache: true
        params:
          - int: 1
          - eventArg: true
  - id: 12
    method: Console;Print;string
    enabled: false
    args:
      - string: hello
      - vector: [1, 2, 3, 4]
        foreach: true
`

func TestYAML(t *testing.T) {
	calls, err := LoadYAML([]byte(source))
	require.NoError(t, err)
	require.EqualValues(t, 3, len(calls))

	require.EqualValues(t, 10, calls[0].ID)
	require.EqualValues(t, "X", calls[0].Tag)
	require.True(t, calls[0].Enabled)
	require.EqualValues(t, argument.Parent, calls[0].Args[0].Kind())
	require.EqualValues(t, 5, calls[0].Args[1].Int)

	require.EqualValues(t, Pause, calls[1].Delay)
	require.EqualValues(t, 1.5, calls[1].DelayValue)
	require.EqualValues(t, argument.IDReference, calls[1].Args[0].Kind())
	require.EqualValues(t, 10, calls[1].Args[0].ID)
	m := calls[1].Args[1]
	require.True(t, m.Def.IsMethod())
	require.True(t, m.Def.Negate())
	require.True(t, m.Def.Cache())
	require.EqualValues(t, 2, len(m.Params))
	require.EqualValues(t, argument.EventArg, m.Params[1].Kind())

	require.False(t, calls[2].Enabled)
	require.EqualValues(t, [3]float64{1, 2, 3}, calls[2].Args[1].Vector)
	require.EqualValues(t, 4, calls[2].Args[1].Float)
	require.True(t, calls[2].Args[1].Def.Foreach())

	t.Run("round trip", func(t *testing.T) {
		data, err := MarshalYAML(calls)
		require.NoError(t, err)
		back, err := LoadYAML(data)
		require.NoError(t, err)
		require.EqualValues(t, calls, back)
	})
	t.Run("errors", func(t *testing.T) {
		_, err := LoadYAML([]byte("calls:\n  - id: 1\n    delay: later\n"))
		require.Error(t, err)
		_, err = LoadYAML([]byte("calls:\n  - id: 1\n    args:\n      - ref: 3\n        parent: true\n"))
		require.Error(t, err)
	})
}

func TestDigest(t *testing.T) {
	a, err := LoadYAML([]byte(source))
	require.NoError(t, err)
	b, err := LoadYAML([]byte(source))
	require.NoError(t, err)
	require.EqualValues(t, Digest(a), Digest(b))
	b[1].DelayValue = 2
	require.NotEqual(t, Digest(a), Digest(b))

	t.Run("unexported fields", func(t *testing.T) {
		one := []*EventCall{New(1, "test;Foo;payload", argument.Obj(payload{v: 1}))}
		two := []*EventCall{New(1, "test;Foo;payload", argument.Obj(payload{v: 2}))}
		require.NotEqual(t, Digest(one), Digest(two))
		require.EqualValues(t, Digest(one), Digest([]*EventCall{New(1, "test;Foo;payload", argument.Obj(payload{v: 1}))}))
	})
	t.Run("reference kind", func(t *testing.T) {
		tag := []*EventCall{New(1, "test;Foo;int", argument.TagRef(nil))}
		data := []*EventCall{New(1, "test;Foo;int", argument.Argument{})}
		require.NotEqual(t, Digest(tag), Digest(data))

		out, err := MarshalYAML(tag)
		require.NoError(t, err)
		back, err := LoadYAML(out)
		require.NoError(t, err)
		require.EqualValues(t, argument.TagReference, back[0].Args[0].Kind())
	})
	t.Run("exported struct", func(t *testing.T) {
		a := []*EventCall{New(1, "test;Foo;Vector3", argument.Obj(argument.Vector3{X: 1}))}
		b := []*EventCall{New(1, "test;Foo;Vector3", argument.Obj(argument.Vector3{X: 2}))}
		require.NotEqual(t, Digest(a), Digest(b))
	})
}

type payload struct {
	v int
}
