package invoker

import (
	"testing"
	"time"

	"github.com/lunfardo314/easycall/argument"
	"github.com/lunfardo314/easycall/compiler"
	"github.com/lunfardo314/easycall/eventcall"
	"github.com/lunfardo314/easycall/library"
	"github.com/lunfardo314/easycall/node"
	"github.com/lunfardo314/easycall/scheduler"
	"github.com/lunfardo314/easycall/util/testutil"
	"github.com/stretchr/testify/require"
)

type env struct {
	got   []string
	sched *scheduler.Scheduler
	cfg   compiler.Config
}

func newEnv() *env {
	ret := &env{}
	lib := library.New()
	lib.RegisterFunc("test", "Log", func(s string) { ret.got = append(ret.got, s) })
	lib.RegisterFunc("test", "Len", func(s string) int { return len(s) })
	lib.RegisterFunc("test", "Maybe", func(s string) scheduler.Task {
		ret.got = append(ret.got, s)
		return nil
	})
	lib.RegisterFunc("test", "Nothing", func() any { return nil })
	ret.sched = scheduler.New(nil)
	ret.cfg = compiler.Config{
		Log:       testutil.NewSimpleLogger(false),
		Library:   lib,
		Scheduler: ret.sched,
	}
	return ret
}

func (e *env) table(calls ...*eventcall.EventCall) *Table {
	res := compiler.Compile(nil, calls, e.cfg)
	return NewTable(calls, res.Nodes, e.sched, e.cfg.Log)
}

func logCall(id int32, s string, tag any) *eventcall.EventCall {
	return eventcall.New(id, "test;Log;string", argument.String(s)).WithTag(tag)
}

func TestTable(t *testing.T) {
	t.Run("ranges", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			logCall(1, "a1", "a"),
			logCall(2, "a2", "a"),
			logCall(3, "b1", "b"),
			logCall(4, "n1", nil),
		)
		require.EqualValues(t, []any{"a", "b", nil}, tab.Tags())
		require.EqualValues(t, 2, tab.Get("a").Len())
		tab.Get("a").Invoke()
		require.EqualValues(t, []string{"a1", "a2"}, e.got)
		tab.Get(nil).Invoke()
		require.EqualValues(t, []string{"a1", "a2", "n1"}, e.got)
		require.False(t, tab.Has("c"))
	})
	t.Run("no calls", func(t *testing.T) {
		e := newEnv()
		tab := e.table()
		inv := tab.Get("nope")
		require.NotNil(t, inv)
		require.EqualValues(t, 0, inv.Len())
		require.NotPanics(t, func() {
			inv.Invoke()
			inv.Stop()
		})
		require.True(t, tab.Get("nope") == inv)
	})
	t.Run("not sorted", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			logCall(1, "a1", "a"),
			logCall(2, "b1", "b"),
			logCall(3, "a2", "a"),
		)
		require.EqualValues(t, 2, len(tab.Invokers()))
		tab.Get("a").Invoke()
		require.EqualValues(t, []string{"a1", "a2"}, e.got)
	})
	t.Run("mismatch", func(t *testing.T) {
		e := newEnv()
		tab := NewTable([]*eventcall.EventCall{logCall(1, "a", "a")}, nil, nil, nil)
		require.EqualValues(t, 0, len(tab.Invokers()))
		require.EqualValues(t, 0, len(e.got))
	})
}

func TestInvoker(t *testing.T) {
	t.Run("nil results", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			eventcall.New(1, "test;Maybe;string", argument.String("m")).WithTag("x"),
			eventcall.New(2, "test;Nothing").WithTag("x"),
			logCall(3, "after", "x"),
		)
		require.NotPanics(t, func() {
			tab.Get("x").Invoke()
		})
		require.EqualValues(t, []string{"m", "after"}, e.got)
		var vals []any
		require.NotPanics(t, func() {
			vals = Values[any](tab.Get("x"), nil)
		})
		require.EqualValues(t, []any{nil, nil}, vals)
		require.True(t, e.sched.Idle())
	})
	t.Run("values", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			eventcall.New(1, "test;Len;string", argument.String("abc")).WithTag("x"),
			logCall(2, "log", "x"),
			eventcall.New(3, "test;Len;string", argument.EventArgRef()).WithTag("x"),
		)
		vals := Values[int](tab.Get("x"), "hello")
		require.EqualValues(t, []int{3, 5}, vals)
		require.EqualValues(t, []string{"log"}, e.got)
		require.EqualValues(t, 0, len(Values[string](tab.Get("x"), "")))
	})
	t.Run("delegates", func(t *testing.T) {
		e := newEnv()
		tab := e.table(logCall(1, "first", "x"))
		inv := tab.Get("x")
		d := node.NewDelegate(func(ev any) { e.got = append(e.got, ev.(string)) })
		inv.Add(d)
		require.EqualValues(t, 2, inv.Len())
		inv.InvokeWith("added")
		require.EqualValues(t, []string{"first", "added"}, e.got)
		require.True(t, inv.Remove(d))
		require.False(t, inv.Remove(d))
		inv.InvokeWith("added")
		require.EqualValues(t, []string{"first", "added", "first"}, e.got)
	})
	t.Run("delegate on empty tag", func(t *testing.T) {
		e := newEnv()
		tab := e.table()
		tab.Get(7).Add(node.NewDelegate(func(ev any) { e.got = append(e.got, "seven") }))
		tab.Get(7).Invoke()
		require.EqualValues(t, []string{"seven"}, e.got)
	})
}

func TestPausing(t *testing.T) {
	t.Run("pause between calls", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			logCall(1, "A", "x").WithPause(1),
			logCall(2, "B", "x").WithPause(0),
			logCall(3, "C", "x"),
		)
		inv := tab.Get("x")
		_, ok := inv.(*pausing)
		require.True(t, ok)

		inv.Invoke()
		require.EqualValues(t, []string{"A"}, e.got)
		e.sched.Poll(400 * time.Millisecond)
		e.sched.Poll(400 * time.Millisecond)
		require.EqualValues(t, []string{"A"}, e.got)
		e.sched.Poll(200 * time.Millisecond)
		require.EqualValues(t, []string{"A", "B", "C"}, e.got)
		require.True(t, e.sched.Idle())
	})
	t.Run("fixed clock", func(t *testing.T) {
		e := newEnv()
		c := logCall(1, "A", "x").WithPause(0.04)
		c.FixedStep = true
		tab := e.table(c, logCall(2, "B", "x"))
		tab.Get("x").Invoke()
		e.sched.Poll(time.Second)
		require.EqualValues(t, []string{"A"}, e.got)
		e.sched.PollFixed()
		require.EqualValues(t, []string{"A"}, e.got)
		e.sched.PollFixed()
		require.EqualValues(t, []string{"A", "B"}, e.got)
	})
	t.Run("concurrent runs", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			logCall(1, "A", "x").WithPause(0.1),
			logCall(2, "B", "x"),
		)
		inv := tab.Get("x")
		inv.Invoke()
		e.sched.Poll(50 * time.Millisecond)
		inv.Invoke()
		require.EqualValues(t, 2, inv.(*pausing).Running())
		e.sched.Poll(50 * time.Millisecond)
		require.EqualValues(t, []string{"A", "A", "B"}, e.got)
		e.sched.Poll(50 * time.Millisecond)
		require.EqualValues(t, []string{"A", "A", "B", "B"}, e.got)
	})
	t.Run("stop", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			logCall(1, "A", "x").WithPause(0.1),
			logCall(2, "B", "x"),
		)
		inv := tab.Get("x")
		inv.Invoke()
		inv.Stop()
		e.sched.Poll(time.Second)
		require.EqualValues(t, []string{"A"}, e.got)
		require.True(t, e.sched.Idle())
	})
	t.Run("values before pause", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			eventcall.New(1, "test;Len;string", argument.String("ab")).WithTag("x").WithPause(0.1),
			eventcall.New(2, "test;Len;string", argument.String("abc")).WithTag("x"),
		)
		require.EqualValues(t, []int{2}, Values[int](tab.Get("x"), nil))
		e.sched.Poll(time.Second)
		require.True(t, e.sched.Idle())
	})
	t.Run("wait is not pause", func(t *testing.T) {
		e := newEnv()
		tab := e.table(
			logCall(1, "A", "x").WithWait(0.1),
			logCall(2, "B", "x"),
		)
		inv := tab.Get("x")
		_, ok := inv.(*batch)
		require.True(t, ok)
		inv.Invoke()
		require.EqualValues(t, []string{"B"}, e.got)
		e.sched.Poll(time.Second)
		require.EqualValues(t, []string{"B", "A"}, e.got)
	})
}
