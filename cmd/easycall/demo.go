package main

import (
	"fmt"
	"io"
	"time"

	"github.com/lunfardo314/easycall/library"
	"github.com/lunfardo314/easycall/scheduler"
	"github.com/lunfardo314/easyfl"
)

// console is the parent of the demo calls. Output lines are prefixed with the simulated time
type console struct {
	out io.Writer
	now time.Duration
}

func (c *console) println(a ...any) {
	_, _ = fmt.Fprintf(c.out, "[%6v] %s\n", c.now, fmt.Sprint(a...))
}

func (c *console) Print(s string) {
	c.println(s)
}

func (c *console) PrintInt(n int) {
	c.println(n)
}

func (c *console) PrintFloat(f float64) {
	c.println(f)
}

func (c *console) PrintBool(b bool) {
	c.println(b)
}

func (c *console) PrintBytes(data []byte) {
	c.println(easyfl.Fmt(data))
}

// Countdown prints n, n-1 ... 1, one number per tick
func (c *console) Countdown(n int) scheduler.Task {
	return scheduler.TaskFunc(func(t scheduler.Tick) bool {
		if t.Fixed {
			return false
		}
		c.println("countdown ", n)
		n--
		return n <= 0
	})
}

func registerDemo(lib *library.Library) {
	lib.RegisterType("console", &console{})

	lib.RegisterFunc("math", "Add", func(a, b int) int { return a + b })
	lib.RegisterFunc("math", "Add", func(a, b float64) float64 { return a + b })
	lib.RegisterFunc("math", "Mul", func(a, b int) int { return a * b })
	lib.RegisterFunc("math", "Even", func(a int) bool { return a%2 == 0 })
	lib.RegisterFunc("math", "Range", func(from, to int) []int {
		ret := make([]int, 0)
		for i := from; i < to; i++ {
			ret = append(ret, i)
		}
		return ret
	})
	lib.RegisterFunc("text", "Bytes", func(s string) []byte { return []byte(s) })
	lib.RegisterFunc("text", "Concat", func(a, b string) string { return a + b })

	lib.RegisterFormula("fl", "Concat", 2, "concat($0,$1)")
	lib.RegisterFormula("fl", "Wrap", 1, "concat(0xff, $0, 0xff)")
}
