package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

func objectMethods() map[string]MethodFunc {
	return map[string]MethodFunc{
		"size": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			return NewInt(int64(self.Size())), nil
		},
		"keys": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			return NewArray(self.mustMap().Keys()...), nil
		},
		"values": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			return NewArray(self.mustMap().Values()...), nil
		},
		"entries": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			var entries []*Value
			self.mustMap().Range(func(key, value *Value) bool {
				entry := NewOrderedMap()
				entry.SetString("key", key)
				entry.SetString("value", value)
				entries = append(entries, NewObject(entry))
				return true
			})
			return NewArray(entries...), nil
		},
		"containsValue": containsValue,
		"contains":      containsValue,
		"containsKey": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("containsKey", args, 1); err != nil {
				return nil, err
			}
			return NewBoolean(self.mustMap().Has(args[0])), nil
		},
		"push": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("push", args, 1); err != nil {
				return nil, err
			}
			m := self.mustMap()
			if len(args) == 1 {
				m.Push(args[0])
			} else {
				m.Set(args[0], args[1])
			}
			return self, nil
		},
		"pop": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			m := self.mustMap()
			if m.Len() == 0 {
				return Empty(), nil
			}
			key := arg(args, 0)
			if m.IsArray() {
				key = NewNumber(m.HighestNumericKey())
			}
			if removed, ok := m.Delete(key); ok {
				return removed, nil
			}
			return Empty(), nil
		},
		"map": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("map", args, 1); err != nil {
				return nil, err
			}
			fn := args[0]
			withKey := false
			if n, ok := ParamCount(fn); ok && n == 2 {
				withKey = true
			}
			out := NewOrderedMap()
			var err error
			self.mustMap().Range(func(key, value *Value) bool {
				var mapped *Value
				if withKey {
					mapped, err = call.Call("map", fn, key, value)
				} else {
					mapped, err = call.Call("map", fn, value)
				}
				if err != nil {
					return false
				}
				out.Set(key, mapped)
				return true
			})
			if err != nil {
				return nil, err
			}
			return NewObject(out), nil
		},
		"mapKeys": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("mapKeys", args, 1); err != nil {
				return nil, err
			}
			out := NewOrderedMap()
			var err error
			self.mustMap().Range(func(key, value *Value) bool {
				var mapped *Value
				mapped, err = call.Call("mapKeys", args[0], key)
				if err != nil {
					return false
				}
				out.Set(mapped, value)
				return true
			})
			if err != nil {
				return nil, err
			}
			return NewObject(out), nil
		},
		"filter": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("filter", args, 1); err != nil {
				return nil, err
			}
			return filterEntries(call, "filter", self.mustMap(), func(key, value *Value) (*Value, error) {
				return call.Call("filter", args[0], value)
			})
		},
		"filterKeys": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("filterKeys", args, 1); err != nil {
				return nil, err
			}
			out := NewOrderedMap()
			var err error
			self.mustMap().Range(func(key, value *Value) bool {
				var keep *Value
				keep, err = call.Call("filterKeys", args[0], key)
				if err != nil {
					return false
				}
				if keep.IsTrue() {
					out.Set(key, value)
				}
				return true
			})
			if err != nil {
				return nil, err
			}
			return NewObject(out), nil
		},
		"distinct": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			m := self.mustMap()
			var seen []*Value
			isNew := func(value *Value) bool {
				for _, s := range seen {
					if Equal(s, value) {
						return false
					}
				}
				seen = append(seen, value)
				return true
			}
			if m.IsArray() {
				var out []*Value
				for _, value := range m.Values() {
					if isNew(value) {
						out = append(out, value)
					}
				}
				return NewArray(out...), nil
			}
			out := NewOrderedMap()
			m.Range(func(key, value *Value) bool {
				if isNew(value) {
					out.Set(key, value)
				}
				return true
			})
			return NewObject(out), nil
		},
		"sort": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return sortEntries(call, self.mustMap(), args, false)
		},
		"sortKey": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return sortEntries(call, self.mustMap(), args, true)
		},
		"join": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			separator, prefix, suffix := "", "", ""
			if len(args) > 0 {
				separator = Display(args[0])
			}
			if len(args) > 1 {
				prefix = Display(args[1])
			}
			if len(args) > 2 {
				suffix = Display(args[2])
			}
			parts := make([]string, 0, self.mustMap().Len())
			for _, value := range self.mustMap().Values() {
				parts = append(parts, Display(value))
			}
			return NewString(prefix + strings.Join(parts, separator) + suffix), nil
		},
		"reduce": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return fold(call, "reduce", self.mustMap(), args, true)
		},
		"foldl": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return fold(call, "foldl", self.mustMap(), args, true)
		},
		"foldr": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return fold(call, "foldr", self.mustMap(), args, false)
		},
		"sum": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			total, err := sumValues(self.mustMap())
			if err != nil {
				return nil, err
			}
			return NewNumber(total), nil
		},
		"avg": func(call *CallContext, self *Value, _ []*Value) (*Value, error) {
			m := self.mustMap()
			if m.Len() == 0 {
				return Empty(), nil
			}
			total, err := sumValues(m)
			if err != nil {
				return nil, err
			}
			avg, err := Divide(total, decimal.NewFromInt(int64(m.Len())), call.DivisionScale())
			if err != nil {
				return nil, err
			}
			return NewNumber(avg), nil
		},
		"max": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return extreme(call, self.mustMap(), args, 1)
		},
		"min": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return extreme(call, self.mustMap(), args, -1)
		},
		"head": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			values := self.mustMap().Values()
			if len(values) == 0 {
				return Empty(), nil
			}
			return values[0], nil
		},
		"tail": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			m := self.mustMap()
			if m.IsArray() {
				values := m.Values()
				if len(values) == 0 {
					return NewArray(), nil
				}
				return NewArray(values[1:]...), nil
			}
			out := NewOrderedMap()
			first := true
			m.Range(func(key, value *Value) bool {
				if first {
					first = false
					return true
				}
				out.Set(key, value)
				return true
			})
			return NewObject(out), nil
		},
		"cross": crossProduct,
		"frequency": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			var keys []*Value
			var counts []int64
			for _, value := range self.mustMap().Values() {
				found := false
				for i, k := range keys {
					if Equal(k, value) {
						counts[i]++
						found = true
						break
					}
				}
				if !found {
					keys = append(keys, value)
					counts = append(counts, 1)
				}
			}
			out := NewOrderedMap()
			for i, k := range keys {
				out.Set(k, NewInt(counts[i]))
			}
			return NewObject(out), nil
		},
		"rename": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("rename", args, 2); err != nil {
				return nil, err
			}
			m := self.mustMap()
			if value, ok := m.Delete(args[0]); ok {
				m.Set(args[1], value)
			}
			return self, nil
		},
		"removeKey": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return removeKeys(call, "removeKey", self, args, true)
		},
		"retainKey": func(call *CallContext, self *Value, args []*Value) (*Value, error) {
			return removeKeys(call, "retainKey", self, args, false)
		},
	}
}

func (v *Value) mustMap() *OrderedMap {
	m, ok := v.Map()
	if !ok {
		return NewOrderedMap()
	}
	return m
}

func containsValue(_ *CallContext, self *Value, args []*Value) (*Value, error) {
	if err := requireArgs("contains", args, 1); err != nil {
		return nil, err
	}
	for _, value := range self.mustMap().Values() {
		if Equal(value, args[0]) {
			return NewBoolean(true), nil
		}
	}
	return NewBoolean(false), nil
}

// filterEntries keeps the entries the predicate accepts. Array-like input
// yields a re-indexed array.
func filterEntries(_ *CallContext, _ string, m *OrderedMap, predicate func(key, value *Value) (*Value, error)) (*Value, error) {
	isArray := m.IsArray()
	var kept []*Value
	out := NewOrderedMap()
	var err error
	m.Range(func(key, value *Value) bool {
		var keep *Value
		keep, err = predicate(key, value)
		if err != nil {
			return false
		}
		if keep.IsTrue() {
			if isArray {
				kept = append(kept, value)
			} else {
				out.Set(key, value)
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if isArray {
		return NewArray(kept...), nil
	}
	return NewObject(out), nil
}

// comparatorFrom builds an ordering from an optional comparator argument. A
// two parameter closure or any non-closure callable is used as comparator,
// everything else falls back to natural order.
func comparatorFrom(call *CallContext, args []*Value) func(a, b *Value) (int, error) {
	if len(args) > 0 && args[0].IsFunction() {
		fn := args[0]
		if n, ok := ParamCount(fn); !ok || n == 2 {
			return func(a, b *Value) (int, error) {
				result, err := call.Call("compareTo", fn, a, b)
				if err != nil {
					return 0, err
				}
				if d, ok := result.Number(); ok {
					return int(d.IntPart()), nil
				}
				return 0, nil
			}
		}
	}
	return Compare
}

func sortEntries(call *CallContext, m *OrderedMap, args []*Value, byKey bool) (*Value, error) {
	cmp := comparatorFrom(call, args)
	keys, values := m.Keys(), m.Values()
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	var sortErr error
	sort.SliceStable(order, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		a, b := values[order[i]], values[order[j]]
		if byKey && !m.IsArray() {
			a, b = keys[order[i]], keys[order[j]]
		}
		c, err := cmp(a, b)
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	if m.IsArray() {
		sorted := make([]*Value, len(order))
		for i, idx := range order {
			sorted[i] = values[idx]
		}
		return NewArray(sorted...), nil
	}
	out := NewOrderedMap()
	for _, idx := range order {
		out.Set(keys[idx], values[idx])
	}
	return NewObject(out), nil
}

// fold combines the values with fn. Without an accumulator the first (or
// last, for right folds) element seeds it; with one, every element is folded.
func fold(call *CallContext, name string, m *OrderedMap, args []*Value, left bool) (*Value, error) {
	if err := requireArgs(name, args, 1); err != nil {
		return nil, err
	}
	values := m.Values()
	if len(values) == 0 {
		return Empty(), nil
	}
	fn := args[len(args)-1]
	if !left {
		reversed := make([]*Value, len(values))
		for i, v := range values {
			reversed[len(values)-1-i] = v
		}
		values = reversed
	}
	var acc *Value
	if len(args) >= 2 {
		acc = args[0]
	} else {
		acc, values = values[0], values[1:]
	}
	for _, v := range values {
		next, err := call.Call(name, fn, acc, v)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

func sumValues(m *OrderedMap) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, v := range m.Values() {
		d, ok := v.Number()
		if !ok {
			return decimal.Zero, fmt.Errorf("cannot sum value of type %s", v.Type())
		}
		total = total.Add(d)
	}
	return total, nil
}

func extreme(call *CallContext, m *OrderedMap, args []*Value, sign int) (*Value, error) {
	cmp := comparatorFrom(call, args)
	var best *Value
	for _, v := range m.Values() {
		if best == nil {
			best = v
			continue
		}
		c, err := cmp(v, best)
		if err != nil {
			return nil, err
		}
		if c*sign > 0 {
			best = v
		}
	}
	if best == nil {
		return Empty(), nil
	}
	return best, nil
}

// crossProduct pairs every element of self with every element of the argument,
// merging objects and appending scalars. An optional predicate filters pairs.
func crossProduct(call *CallContext, self *Value, args []*Value) (*Value, error) {
	if err := requireArgs("cross", args, 1); err != nil {
		return nil, err
	}
	other, ok := args[0].Map()
	if !ok {
		return nil, fmt.Errorf("cross requires an object argument, got %s", args[0].Type())
	}
	var filter *Value
	if len(args) > 1 {
		filter = args[1]
	}
	var out []*Value
	for _, a := range self.mustMap().Values() {
		for _, b := range other.Values() {
			if filter != nil {
				keep, err := call.Call("filter", filter, a, b)
				if err != nil {
					return nil, err
				}
				if !keep.IsTrue() {
					continue
				}
			}
			am, aIsMap := a.Map()
			bm, bIsMap := b.Map()
			combined := NewOrderedMap()
			switch {
			case !aIsMap && !bIsMap:
				combined.Set(NewInt(0), a)
				combined.Set(NewInt(1), b)
			case !aIsMap:
				mergeInto(combined, bm)
				combined.Push(a)
			case !bIsMap:
				mergeInto(combined, am)
				combined.Push(b)
			default:
				mergeInto(combined, am)
				mergeInto(combined, bm)
			}
			out = append(out, NewObject(combined))
		}
	}
	return NewArray(out...), nil
}

func mergeInto(dst, src *OrderedMap) {
	src.Range(func(key, value *Value) bool {
		dst.Set(key, value)
		return true
	})
}

func removeKeys(call *CallContext, name string, self *Value, args []*Value, remove bool) (*Value, error) {
	if err := requireArgs(name, args, 1); err != nil {
		return nil, err
	}
	m := self.mustMap()
	selector := args[0]
	var doomed []*Value
	var err error
	m.Range(func(key, _ *Value) bool {
		var matches bool
		if selector.IsFunction() {
			var result *Value
			result, err = call.Call("filter", selector, key)
			if err != nil {
				return false
			}
			matches = result.IsTrue()
		} else {
			matches = Equal(key, selector)
		}
		if matches == remove {
			doomed = append(doomed, key)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	for _, key := range doomed {
		m.Delete(key)
	}
	return self, nil
}
