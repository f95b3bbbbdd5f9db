package bus

import (
	"sort"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/operation"
)

// View is the operations of one domain grouped by key. Keys are ascending;
// each group is ascending by sequence number. A View never changes after
// it is built and may be read from any number of goroutines.
type View[K core.Key[K]] struct {
	target core.Target
	keys   []K
	groups [][]operation.Operation
	total  int
}

// Target returns the view's domain
func (v *View[K]) Target() core.Target { return v.target }

// Len returns the number of distinct keys
func (v *View[K]) Len() int { return len(v.keys) }

// Count returns the number of operations across all keys
func (v *View[K]) Count() int { return v.total }

// Keys returns the keys in ascending order
func (v *View[K]) Keys() []K {
	return append([]K(nil), v.keys...)
}

func (v *View[K]) find(k K) (int, bool) {
	i := sort.Search(len(v.keys), func(i int) bool { return v.keys[i].Cmp(k) >= 0 })
	return i, i < len(v.keys) && v.keys[i].Cmp(k) == 0
}

// Operations returns the history of k, oldest first
func (v *View[K]) Operations(k K) []operation.Operation {
	i, ok := v.find(k)
	if !ok {
		return nil
	}
	return append([]operation.Operation(nil), v.groups[i]...)
}

// Each calls fn for every key in ascending order until fn returns false.
// The slice passed to fn must not be modified.
func (v *View[K]) Each(fn func(k K, ops []operation.Operation) bool) {
	for i, k := range v.keys {
		if !fn(k, v.groups[i]) {
			return
		}
	}
}

// Rows returns all operations ordered by key, then by sequence number
func (v *View[K]) Rows() []operation.Operation {
	out := make([]operation.Operation, 0, v.total)
	for _, g := range v.groups {
		out = append(out, g...)
	}
	return out
}

// CheckConsistency verifies that every read returns the value of the
// latest preceding write to the same key, or zero when there is none.
func (v *View[K]) CheckConsistency() error {
	for i, k := range v.keys {
		var current core.Word
		for _, op := range v.groups[i] {
			if op.IsWrite() {
				current = op.Value()
				continue
			}
			if !op.Value().Eq(current) {
				return core.Inconsistency(op.Step(), v.target, k.String(), current.Hex(), op.Value().Hex(),
					"read #%d does not return the latest written value", op.Seq())
			}
		}
	}
	return nil
}

// buildView groups the operations of one domain. ops must be ordered by
// sequence number.
func buildView[K core.Key[K]](target core.Target, ops []operation.Operation, key func(operation.Operation) K) *View[K] {
	v := &View[K]{target: target}
	index := make(map[string]int)
	for _, op := range ops {
		if op.Target() != target {
			continue
		}
		k := key(op)
		name := k.String()
		i, ok := index[name]
		if !ok {
			i = len(v.keys)
			index[name] = i
			v.keys = append(v.keys, k)
			v.groups = append(v.groups, nil)
		}
		v.groups[i] = append(v.groups[i], op)
		v.total++
	}

	order := make([]int, len(v.keys))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return v.keys[order[a]].Cmp(v.keys[order[b]]) < 0 })

	keys := make([]K, len(order))
	groups := make([][]operation.Operation, len(order))
	for dst, src := range order {
		keys[dst], groups[dst] = v.keys[src], v.groups[src]
	}
	v.keys, v.groups = keys, groups
	return v
}
