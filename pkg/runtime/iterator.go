package runtime

import "fmt"

// Iterator is a single pass sequence of values.
type Iterator struct {
	next    func() (*Value, bool)
	peeked  *Value
	hasPeek bool
	done    bool
}

// NewIteratorFunc wraps a generator. next returns false once exhausted.
func NewIteratorFunc(next func() (*Value, bool)) *Iterator {
	return &Iterator{next: next}
}

// SliceIterator iterates over a fixed list of values.
func SliceIterator(items []*Value) *Iterator {
	i := 0
	return NewIteratorFunc(func() (*Value, bool) {
		if i >= len(items) {
			return nil, false
		}
		item := items[i]
		i++
		return item, true
	})
}

func (it *Iterator) HasNext() bool {
	if it.hasPeek {
		return true
	}
	if it.done {
		return false
	}
	v, ok := it.next()
	if !ok {
		it.done = true
		return false
	}
	it.peeked = v
	it.hasPeek = true
	return true
}

func (it *Iterator) Next() (*Value, bool) {
	if !it.HasNext() {
		return nil, false
	}
	v := it.peeked
	it.peeked = nil
	it.hasPeek = false
	return v, true
}

// MakeIterator produces an iterator over a value. Objects yield [key, value]
// pairs, strings yield one string per character.
func MakeIterator(v *Value) (*Value, error) {
	switch v.Kind() {
	case KindIterator:
		return v, nil
	case KindObject:
		m := v.payload.(*OrderedMap)
		keys, values := m.Keys(), m.Values()
		pairs := make([]*Value, len(keys))
		for i := range keys {
			pairs[i] = NewArray(keys[i], values[i])
		}
		return NewIterator(SliceIterator(pairs)), nil
	case KindString:
		s := v.payload.(string)
		chars := make([]*Value, 0, len(s))
		for _, r := range s {
			chars = append(chars, NewString(string(r)))
		}
		return NewIterator(SliceIterator(chars)), nil
	case KindCustomType:
		inst := v.payload.(*CustomInstance)
		if inst.Type.Iterator != nil {
			it, err := inst.Type.Iterator(inst.Data)
			if err != nil {
				return nil, err
			}
			if it != nil {
				return it, nil
			}
		}
	}
	return nil, fmt.Errorf("[%s] is not iterable.", v.Type())
}
