// Package eventcall is the declarative descriptor of one bound method invocation
package eventcall

import (
	"fmt"
	"strings"

	"github.com/lunfardo314/easycall/argument"
)

type DelayMode byte

const (
	NoDelay = DelayMode(iota)
	Wait
	Pause
)

func (m DelayMode) String() string {
	switch m {
	case NoDelay:
		return "none"
	case Wait:
		return "wait"
	case Pause:
		return "pause"
	}
	return fmt.Sprintf("delay(%d)", byte(m))
}

// NoCall is the reserved id meaning 'no call'
const NoCall = int32(0)

// argumentIDStep spreads argument ids away from call ids and from each other
const argumentIDStep = uint32(486187739)

type EventCall struct {
	ID      int32
	Method  string
	Enabled bool
	Tag     any
	Delay   DelayMode

	// DelayValue is in seconds. A non-zero DelayID takes precedence
	DelayValue float64
	DelayID    int32

	// FixedStep waits on the fixed tick clock instead of the frame clock
	FixedStep bool
	Args      []argument.Argument
}

// ArgumentID is the reference map key of the index-th argument of the call
func ArgumentID(callID int32, index int) int32 {
	return int32(uint32(callID) + uint32(index+1)*argumentIDStep)
}

func New(id int32, method string, args ...argument.Argument) *EventCall {
	return &EventCall{
		ID:      id,
		Method:  method,
		Enabled: true,
		Args:    args,
	}
}

func (c *EventCall) WithTag(tag any) *EventCall {
	c.Tag = tag
	return c
}

func (c *EventCall) WithWait(seconds float64) *EventCall {
	c.Delay = Wait
	c.DelayValue = seconds
	return c
}

func (c *EventCall) WithPause(seconds float64) *EventCall {
	c.Delay = Pause
	c.DelayValue = seconds
	return c
}

// WithDelayRef takes the delay in seconds from the referenced call or argument
func (c *EventCall) WithDelayRef(mode DelayMode, id int32) *EventCall {
	c.Delay = mode
	c.DelayID = id
	return c
}

func (c *EventCall) Disabled() *EventCall {
	c.Enabled = false
	return c
}

func (c *EventCall) String() string {
	args := make([]string, len(c.Args))
	for i := range c.Args {
		args[i] = c.Args[i].Describe()
	}
	ret := fmt.Sprintf("#%d %s(%s) tag=%v", c.ID, c.Method, strings.Join(args, ", "), c.Tag)
	if c.Delay != NoDelay {
		ret += fmt.Sprintf(" %s=%g", c.Delay, c.DelayValue)
	}
	if !c.Enabled {
		ret += " disabled"
	}
	return ret
}

// Validate reports duplicate ids. Compilation takes the first call with a duplicated id
func Validate(calls []*EventCall) error {
	seen := make(map[int32]int)
	for i, c := range calls {
		if c.ID == NoCall {
			continue
		}
		if prev, found := seen[c.ID]; found {
			return fmt.Errorf("duplicate call id %d at positions %d and %d", c.ID, prev, i)
		}
		seen[c.ID] = i
	}
	return nil
}
