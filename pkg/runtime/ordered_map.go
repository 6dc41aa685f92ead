package runtime

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type mapEntry struct {
	key   *Value
	value *Value
}

// OrderedMap is the payload of object values. Keys are values, iteration
// follows insertion order, and numeric keys compare by numeric value.
type OrderedMap struct {
	entries []mapEntry
	index   map[string]int
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{index: make(map[string]int)}
}

func keyID(key *Value) string {
	switch key.Kind() {
	case KindEmpty:
		return "e"
	case KindNumber:
		return "n" + key.payload.(decimal.Decimal).String()
	case KindString:
		return "s" + key.payload.(string)
	case KindBoolean:
		if key.payload.(bool) {
			return "btrue"
		}
		return "bfalse"
	case KindRegex:
		return "r" + key.payload.(*Regex).Pattern
	default:
		return fmt.Sprintf("p%p", key.payload)
	}
}

func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get looks up a key.
func (m *OrderedMap) Get(key *Value) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[keyID(key)]
	if !ok {
		return nil, false
	}
	return m.entries[i].value, true
}

// GetString looks up a string key.
func (m *OrderedMap) GetString(key string) (*Value, bool) {
	return m.Get(NewString(key))
}

func (m *OrderedMap) Has(key *Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Set inserts or replaces the value under key. Replacing keeps the position.
func (m *OrderedMap) Set(key, value *Value) {
	id := keyID(key)
	if i, ok := m.index[id]; ok {
		m.entries[i].value = value
		return
	}
	m.index[id] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, value: value})
}

func (m *OrderedMap) SetString(key string, value *Value) {
	m.Set(NewString(key), value)
}

// Delete removes key and returns the removed value.
func (m *OrderedMap) Delete(key *Value) (*Value, bool) {
	id := keyID(key)
	i, ok := m.index[id]
	if !ok {
		return nil, false
	}
	removed := m.entries[i].value
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, id)
	for j := i; j < len(m.entries); j++ {
		m.index[keyID(m.entries[j].key)] = j
	}
	return removed, true
}

func (m *OrderedMap) Keys() []*Value {
	if m == nil {
		return nil
	}
	out := make([]*Value, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.key
	}
	return out
}

func (m *OrderedMap) Values() []*Value {
	if m == nil {
		return nil
	}
	out := make([]*Value, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.value
	}
	return out
}

// Range calls fn for every entry in order until fn returns false.
func (m *OrderedMap) Range(fn func(key, value *Value) bool) {
	if m == nil {
		return
	}
	for _, e := range m.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Clone copies the entry list. Values are shared.
func (m *OrderedMap) Clone() *OrderedMap {
	out := NewOrderedMap()
	m.Range(func(k, v *Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// HighestNumericKey returns the largest numeric key, or -1 when there is none.
func (m *OrderedMap) HighestNumericKey() decimal.Decimal {
	highest := decimal.NewFromInt(-1)
	m.Range(func(k, _ *Value) bool {
		if d, ok := k.Number(); ok && k.Kind() == KindNumber && d.Cmp(highest) > 0 {
			highest = d
		}
		return true
	})
	return highest
}

// Push appends value under the highest numeric key plus one.
func (m *OrderedMap) Push(value *Value) {
	next := m.HighestNumericKey().Add(decimal.NewFromInt(1))
	m.Set(NewNumber(next), value)
}

// IsArray reports whether the keys are exactly the numbers 0..n-1. The empty
// map counts as an array.
func (m *OrderedMap) IsArray() bool {
	if m.Len() == 0 {
		return true
	}
	highest := decimal.NewFromInt(-1)
	hasZero := false
	for _, e := range m.entries {
		if e.key.Kind() != KindNumber {
			return false
		}
		d := e.key.payload.(decimal.Decimal)
		if !d.IsInteger() || d.Sign() < 0 {
			return false
		}
		if d.IsZero() {
			hasZero = true
		}
		if d.Cmp(highest) > 0 {
			highest = d
		}
	}
	return hasZero && highest.IntPart() == int64(len(m.entries)-1)
}
