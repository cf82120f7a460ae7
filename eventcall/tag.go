package eventcall

import (
	"reflect"
	"sort"
)

// Equaler is preferred for tag equality when implemented
type Equaler interface {
	Equal(other any) bool
}

// Comparer orders tags of the same kind
type Comparer interface {
	Compare(other any) int
}

// TagEqual uses Equal when available, == on comparable types, else deep equality
func TagEqual(a, b any) bool {
	if e, ok := a.(Equaler); ok {
		return e.Equal(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// compareTags returns false when the tags can't be ordered
func compareTags(a, b any) (int, bool) {
	if c, ok := a.(Comparer); ok {
		return c.Compare(b), true
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Kind() != vb.Kind() {
		return 0, false
	}
	switch {
	case va.CanInt():
		return cmp3(va.Int() < vb.Int(), va.Int() > vb.Int()), true
	case va.CanUint():
		return cmp3(va.Uint() < vb.Uint(), va.Uint() > vb.Uint()), true
	case va.CanFloat():
		return cmp3(va.Float() < vb.Float(), va.Float() > vb.Float()), true
	case va.Kind() == reflect.String:
		return cmp3(va.String() < vb.String(), va.String() > vb.String()), true
	}
	return 0, false
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// SortByTag stable-sorts calls so that every tag occupies one contiguous range.
// Tags are ordered when all of them are mutually orderable, otherwise grouped by first appearance
func SortByTag(calls []*EventCall) {
	groups := make([]any, 0)
	groupOf := make([]int, len(calls))
	for i, c := range calls {
		g := -1
		for j, tag := range groups {
			if TagEqual(tag, c.Tag) {
				g = j
				break
			}
		}
		if g < 0 {
			g = len(groups)
			groups = append(groups, c.Tag)
		}
		groupOf[i] = g
	}
	rank := make([]int, len(groups))
	for i := range rank {
		rank[i] = i
	}
	if orderable(groups) {
		sort.SliceStable(rank, func(i, j int) bool {
			c, _ := compareTags(groups[rank[i]], groups[rank[j]])
			return c < 0
		})
	}
	pos := make([]int, len(groups))
	for p, g := range rank {
		pos[g] = p
	}
	keyed := make([]int, len(calls))
	for i := range calls {
		keyed[i] = i
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		return pos[groupOf[keyed[i]]] < pos[groupOf[keyed[j]]]
	})
	sorted := make([]*EventCall, len(calls))
	for i, k := range keyed {
		sorted[i] = calls[k]
	}
	copy(calls, sorted)
}

func orderable(tags []any) bool {
	for i := 1; i < len(tags); i++ {
		if _, ok := compareTags(tags[0], tags[i]); !ok {
			return false
		}
	}
	return true
}
