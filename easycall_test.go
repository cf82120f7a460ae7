package easycall_test

import (
	"testing"
	"time"

	"github.com/lunfardo314/easycall"
	"github.com/lunfardo314/easycall/argument"
	"github.com/lunfardo314/easycall/eventcall"
	"github.com/lunfardo314/easycall/library"
	"github.com/lunfardo314/easycall/node"
	"github.com/lunfardo314/easycall/scheduler"
	"github.com/lunfardo314/easycall/util/testutil"
	"github.com/stretchr/testify/require"
)

type lamp struct {
	on      bool
	toggles int
	log     []string
}

func (l *lamp) Toggle() {
	l.on = !l.on
	l.toggles++
}

func (l *lamp) IsOn() bool {
	return l.on
}

func (l *lamp) Say(s string) {
	l.log = append(l.log, s)
}

func (l *lamp) Count() int {
	l.toggles++
	return l.toggles
}

func (l *lamp) Set(n int) {
	l.toggles = n
}

func (l *lamp) Blink(times int) scheduler.Task {
	return scheduler.TaskFunc(func(scheduler.Tick) bool {
		l.Toggle()
		times--
		return times <= 0
	})
}

func newEvent(t *testing.T, l *lamp, calls ...*eventcall.EventCall) *easycall.Event {
	lib := library.New()
	lib.RegisterType("lamp", l)
	return easycall.New(l, calls, easycall.Config{
		Log:     testutil.NewSimpleLogger(false),
		Library: lib,
	})
}

func TestEvent(t *testing.T) {
	t.Run("invoke by tag", func(t *testing.T) {
		l := &lamp{}
		ev := newEvent(t, l,
			eventcall.New(1, "lamp;Say;string", argument.ParentRef(), argument.String("b")).WithTag("b"),
			eventcall.New(2, "lamp;Say;string", argument.ParentRef(), argument.String("a1")).WithTag("a"),
			eventcall.New(3, "lamp;Say;string", argument.ParentRef(), argument.EventArgRef()).WithTag("a"),
		)
		ev.InvokeWith("a", "a2")
		require.EqualValues(t, []string{"a1", "a2"}, l.log)
		ev.Invoke("b")
		require.EqualValues(t, []string{"a1", "a2", "b"}, l.log)
		ev.Invoke("nope")
		require.EqualValues(t, 3, len(l.log))
		require.EqualValues(t, 3, len(ev.TagInvokers()))
		require.EqualValues(t, "a", ev.Calls()[0].Tag)
	})
	t.Run("get value", func(t *testing.T) {
		l := &lamp{}
		ev := newEvent(t, l,
			eventcall.New(1, "lamp;IsOn", argument.ParentRef()),
			eventcall.New(2, "lamp;Say;string", argument.ParentRef(), argument.String("x")),
		)
		require.False(t, easycall.GetValue[bool](ev, 1))
		l.on = true
		require.True(t, easycall.GetValue[bool](ev, 1))
		require.EqualValues(t, "", easycall.GetValue[string](ev, 1))
		require.EqualValues(t, "x", easycall.GetValue[string](ev, eventcall.ArgumentID(2, 1)))
		require.EqualValues(t, 0, easycall.GetValue[int](ev, 99))
		require.Nil(t, ev.GetData(99))
		require.NotNil(t, ev.GetData(1))
	})
	t.Run("delegate", func(t *testing.T) {
		l := &lamp{}
		ev := newEvent(t, l, eventcall.New(1, "lamp;Toggle", argument.ParentRef()))
		d := ev.GetDelegate(1)
		require.NotNil(t, d)
		d(nil)
		d(nil)
		require.EqualValues(t, 2, l.toggles)
		require.Nil(t, ev.GetDelegate(2))
	})
	t.Run("refresh", func(t *testing.T) {
		l := &lamp{}
		ev := newEvent(t, l,
			eventcall.New(1, "lamp;Say;string", argument.ParentRef(), argument.String("x")),
			eventcall.New(2, "lamp;Set;int", argument.ParentRef(), argument.MethodCall("lamp;Count", argument.ParentRef()).Cached()),
		)
		id := eventcall.ArgumentID(2, 1)
		for i := 0; i < 4; i++ {
			require.EqualValues(t, 1, easycall.GetValue[int](ev, id, i))
		}
		require.True(t, ev.Refresh(id))
		require.EqualValues(t, 2, easycall.GetValue[int](ev, id))
		require.False(t, ev.Refresh(1))
	})
	t.Run("stop coroutine", func(t *testing.T) {
		l := &lamp{}
		ev := newEvent(t, l,
			eventcall.New(1, "lamp;Blink;int", argument.ParentRef(), argument.Int(10)).WithTag("blink"),
			eventcall.New(2, "lamp;Blink;int", argument.ParentRef(), argument.Int(10)).WithTag("other"),
		)
		ev.Invoke("blink")
		ev.Invoke("other")
		ev.Scheduler().Poll(time.Millisecond)
		require.EqualValues(t, 2, l.toggles)
		ev.StopCoroutine("blink")
		ev.Scheduler().Poll(time.Millisecond)
		require.EqualValues(t, 3, l.toggles)
		ev.StopCall(2)
		ev.Scheduler().Poll(time.Millisecond)
		require.EqualValues(t, 3, l.toggles)
		require.True(t, ev.Scheduler().Idle())
	})
	t.Run("set calls", func(t *testing.T) {
		l := &lamp{}
		calls := []*eventcall.EventCall{
			eventcall.New(1, "lamp;Say;string", argument.ParentRef(), argument.String("one")).WithTag("x"),
		}
		ev := newEvent(t, l, calls...)
		var added []any
		ev.Invoker("x").Add(node.NewDelegate(func(a any) { added = append(added, a) }))
		digest := ev.Digest()

		require.False(t, ev.SetCalls([]*eventcall.EventCall{
			eventcall.New(1, "lamp;Say;string", argument.ParentRef(), argument.String("one")).WithTag("x"),
		}))
		require.True(t, ev.SetCalls([]*eventcall.EventCall{
			eventcall.New(1, "lamp;Say;string", argument.ParentRef(), argument.String("two")).WithTag("x"),
		}))
		require.NotEqualValues(t, digest, ev.Digest())
		ev.InvokeWith("x", 5)
		require.EqualValues(t, []string{"two"}, l.log)
		require.EqualValues(t, []any{5}, added)
	})
	t.Run("dangling", func(t *testing.T) {
		l := &lamp{}
		ev := newEvent(t, l,
			eventcall.New(1, "lamp;Say;string", argument.ParentRef(), argument.Ref(42)),
		)
		require.EqualValues(t, []int32{42}, ev.Dangling())
		require.NotPanics(t, func() {
			ev.Invoke(nil)
		})
		require.EqualValues(t, 0, len(l.log))
	})
	t.Run("default config", func(t *testing.T) {
		ev := easycall.New(nil, nil)
		require.NotNil(t, ev.Scheduler())
		require.True(t, ev.Library() == library.Default)
		require.NotPanics(t, func() {
			ev.Invoke("x")
		})
	})
}
