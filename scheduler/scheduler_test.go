package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWait(t *testing.T) {
	t.Run("frame", func(t *testing.T) {
		w := WaitFor(time.Second)
		require.EqualValues(t, Idle, w.State())
		require.False(t, w.Step(Tick{Delta: 400 * time.Millisecond}))
		require.EqualValues(t, Waiting, w.State())
		require.False(t, w.Step(Tick{Delta: 400 * time.Millisecond}))
		require.False(t, w.Step(Tick{Delta: time.Hour, Fixed: true}))
		require.True(t, w.Step(Tick{Delta: 200 * time.Millisecond}))
		require.EqualValues(t, Done, w.State())
		require.True(t, w.Step(Tick{}))
	})
	t.Run("fixed", func(t *testing.T) {
		w := WaitFixed(50*time.Millisecond, 20*time.Millisecond)
		require.False(t, w.Step(Tick{Delta: 20 * time.Millisecond, Fixed: true}))
		require.False(t, w.Step(Tick{Delta: time.Second}))
		require.False(t, w.Step(Tick{Delta: 20 * time.Millisecond, Fixed: true}))
		require.True(t, w.Step(Tick{Delta: 20 * time.Millisecond, Fixed: true}))
	})
	t.Run("zero", func(t *testing.T) {
		require.True(t, WaitFor(0).Step(Tick{}))
		require.True(t, WaitFixed(0, time.Millisecond).Step(Tick{Fixed: true}))
	})
}

func TestScheduler(t *testing.T) {
	t.Run("order", func(t *testing.T) {
		s := New(nil)
		var trace []int
		for i := 0; i < 3; i++ {
			i := i
			s.Schedule(TaskFunc(func(Tick) bool {
				trace = append(trace, i)
				return true
			}))
		}
		require.EqualValues(t, 3, s.Len())
		s.Poll(time.Millisecond)
		require.EqualValues(t, []int{0, 1, 2}, trace)
		require.EqualValues(t, 0, s.Len())
		require.True(t, s.Idle())
	})
	t.Run("scheduled inside poll runs next poll", func(t *testing.T) {
		s := New(nil)
		count := 0
		s.Schedule(TaskFunc(func(Tick) bool {
			s.Schedule(TaskFunc(func(Tick) bool {
				count++
				return true
			}))
			return true
		}))
		s.Poll(0)
		require.EqualValues(t, 0, count)
		s.Poll(0)
		require.EqualValues(t, 1, count)
	})
	t.Run("stop", func(t *testing.T) {
		s := New(nil)
		count := 0
		h := s.Schedule(TaskFunc(func(Tick) bool {
			count++
			return false
		}))
		s.Poll(0)
		s.Poll(0)
		require.EqualValues(t, 2, count)
		require.True(t, h.Active())
		h.Stop()
		s.Poll(0)
		require.EqualValues(t, 2, count)
		require.False(t, h.Active())
		require.False(t, h.Done())
		require.True(t, s.Idle())
	})
	t.Run("panic is contained", func(t *testing.T) {
		s := New(nil)
		h := s.Schedule(TaskFunc(func(Tick) bool {
			panic("boom")
		}))
		require.NotPanics(t, func() { s.Poll(0) })
		require.True(t, h.Done())
	})
	t.Run("fixed step", func(t *testing.T) {
		s := New(nil, 10*time.Millisecond)
		h := s.Schedule(s.Wait(30*time.Millisecond, true))
		s.PollFixed()
		s.PollFixed()
		require.False(t, h.Done())
		s.PollFixed()
		require.True(t, h.Done())
	})
}

func TestThen(t *testing.T) {
	s := New(nil)
	var trace []string
	s.Schedule(Then(WaitFor(time.Second), func() Task {
		trace = append(trace, "a")
		return Then(WaitFor(time.Second), func() Task {
			trace = append(trace, "b")
			return nil
		})
	}))
	s.Poll(time.Second)
	require.EqualValues(t, []string{"a"}, trace)
	// the second wait starts counting from the next tick
	s.Poll(500 * time.Millisecond)
	require.EqualValues(t, []string{"a"}, trace)
	s.Poll(500 * time.Millisecond)
	require.EqualValues(t, []string{"a", "b"}, trace)
	require.True(t, s.Idle())
}
