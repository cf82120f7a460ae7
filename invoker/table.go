package invoker

import (
	"github.com/lunfardo314/easycall/eventcall"
	"github.com/lunfardo314/easycall/node"
	"github.com/lunfardo314/easycall/scheduler"
	"go.uber.org/zap"
)

// Table maps tags to invokers
type Table struct {
	invokers []Invoker
	sched    *scheduler.Scheduler
	log      *zap.SugaredLogger
}

// NewTable scans the tag-sorted calls and their nodes once, starting a new range on every tag change.
// A range with a paused call gets the pausing invoker
func NewTable(calls []*eventcall.EventCall, nodes []node.Node, sched *scheduler.Scheduler, log *zap.SugaredLogger) *Table {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if sched == nil {
		sched = scheduler.New(log)
	}
	ret := &Table{
		sched: sched,
		log:   log.Named("invoker"),
	}
	if len(calls) != len(nodes) {
		ret.log.Errorf("%d calls and %d nodes: table is empty", len(calls), len(nodes))
		return ret
	}
	for start := 0; start < len(calls); {
		end := start + 1
		paused := calls[start].Delay == eventcall.Pause
		for end < len(calls) && eventcall.TagEqual(calls[start].Tag, calls[end].Tag) {
			paused = paused || calls[end].Delay == eventcall.Pause
			end++
		}
		ret.addRange(calls[start].Tag, nodes[start:end], paused)
		start = end
	}
	return ret
}

func (t *Table) addRange(tag any, nodes []node.Node, paused bool) {
	if prev := t.find(tag); prev != nil {
		t.log.Warnf("calls with tag '%v' are not sorted together", tag)
		prevNodes := append(batchOf(prev).nodes, nodes...)
		t.replace(tag, t.newInvoker(tag, prevNodes, paused || isPausing(prev)))
		return
	}
	t.invokers = append(t.invokers, t.newInvoker(tag, append([]node.Node(nil), nodes...), paused))
}

func (t *Table) newInvoker(tag any, nodes []node.Node, paused bool) Invoker {
	b := batch{tag: tag, nodes: nodes}
	if !paused {
		return &b
	}
	return &pausing{batch: b, sched: t.sched, log: t.log}
}

func batchOf(inv Invoker) *batch {
	switch b := inv.(type) {
	case *batch:
		return b
	case *pausing:
		return &b.batch
	}
	return nil
}

func isPausing(inv Invoker) bool {
	_, ok := inv.(*pausing)
	return ok
}

func (t *Table) find(tag any) Invoker {
	for _, inv := range t.invokers {
		if eventcall.TagEqual(inv.Tag(), tag) {
			return inv
		}
	}
	return nil
}

func (t *Table) replace(tag any, inv Invoker) {
	for i := range t.invokers {
		if eventcall.TagEqual(t.invokers[i].Tag(), tag) {
			t.invokers[i] = inv
			return
		}
	}
}

// Get never returns nil. For a tag without calls an empty invoker is created,
// so delegates can be added to it
func (t *Table) Get(tag any) Invoker {
	if ret := t.find(tag); ret != nil {
		return ret
	}
	ret := t.newInvoker(tag, nil, false)
	t.invokers = append(t.invokers, ret)
	return ret
}

// Has is true when the tag has an invoker
func (t *Table) Has(tag any) bool {
	return t.find(tag) != nil
}

// Invokers in the order of tags
func (t *Table) Invokers() []Invoker {
	return append([]Invoker(nil), t.invokers...)
}

func (t *Table) Tags() []any {
	ret := make([]any, len(t.invokers))
	for i, inv := range t.invokers {
		ret[i] = inv.Tag()
	}
	return ret
}

// StopAll stops tasks started by all invokers
func (t *Table) StopAll() {
	for _, inv := range t.invokers {
		inv.Stop()
	}
}

// Inherit adds delegates of the invokers of the other table to the invokers with the same tags
func (t *Table) Inherit(other *Table) {
	for _, inv := range other.invokers {
		b := batchOf(inv)
		if b == nil || b.combined.Len() == 0 {
			continue
		}
		target := t.Get(inv.Tag())
		for _, d := range b.combined.Delegates() {
			target.Add(d)
		}
	}
}
