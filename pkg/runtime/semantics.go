package runtime

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// IsTrue is the truthiness used by conditions and filters.
func (v *Value) IsTrue() bool {
	switch v.Kind() {
	case KindEmpty:
		return false
	case KindBoolean:
		return v.payload.(bool)
	case KindNumber:
		return !v.payload.(decimal.Decimal).IsZero()
	case KindString:
		return v.payload.(string) != ""
	case KindObject:
		return v.payload.(*OrderedMap).Len() > 0
	case KindFunction, KindValueFunction, KindNativeFunction, KindReflectiveFunction, KindRegex:
		return true
	case KindCustomType:
		inst := v.payload.(*CustomInstance)
		if inst.Type.IsTrue != nil {
			return inst.Type.IsTrue(inst.Data)
		}
	}
	return false
}

// Size is the element count of maps, the length of strings and the remaining
// element count of iterators (which consumes them). Everything else has size 1.
func (v *Value) Size() int {
	switch v.Kind() {
	case KindObject:
		return v.payload.(*OrderedMap).Len()
	case KindString:
		return utf8.RuneCountInString(v.payload.(string))
	case KindIterator:
		it := v.payload.(*Iterator)
		n := 0
		for it.HasNext() {
			it.Next()
			n++
		}
		return n
	case KindCustomType:
		inst := v.payload.(*CustomInstance)
		if inst.Type.Size != nil {
			return inst.Type.Size(inst.Data)
		}
	}
	return 1
}

// Equal compares two values. Types must match. Numbers compare by their
// normalized form, objects structurally, everything else by identity of the
// payload.
func Equal(a, b *Value) bool {
	return equalValues(a, b, make(map[[2]*OrderedMap]bool))
}

func equalValues(a, b *Value, seen map[[2]*OrderedMap]bool) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case KindEmpty:
		return true
	case KindNumber:
		return a.payload.(decimal.Decimal).String() == b.payload.(decimal.Decimal).String()
	case KindBoolean:
		return a.IsTrue() == b.IsTrue()
	case KindString:
		return a.payload.(string) == b.payload.(string)
	case KindRegex:
		ra, rb := a.payload.(*Regex), b.payload.(*Regex)
		return ra.Pattern == rb.Pattern && ra.Flags == rb.Flags
	case KindObject:
		ma, mb := a.payload.(*OrderedMap), b.payload.(*OrderedMap)
		if ma == mb {
			return true
		}
		pair := [2]*OrderedMap{ma, mb}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		if ma.Len() != mb.Len() {
			return false
		}
		equal := true
		ma.Range(func(key, value *Value) bool {
			other, ok := mb.Get(key)
			if !ok || !equalValues(value, other, seen) {
				equal = false
				return false
			}
			return true
		})
		return equal
	case KindValueFunction, KindReflectiveFunction:
		return a.payload == b.payload && a.receiver == b.receiver
	case KindCustomType:
		ia, ib := a.payload.(*CustomInstance), b.payload.(*CustomInstance)
		if ia == ib {
			return true
		}
		if ia.Type == ib.Type && ia.Type.Compare != nil {
			return ia.Type.Compare(ia.Data, ib.Data) == 0
		}
		return false
	default:
		return a.payload == b.payload
	}
}

// Compare orders two values: numbers numerically, strings lexically, booleans
// false before true, objects by size. Custom types use their comparator.
func Compare(a, b *Value) (int, error) {
	switch a.Kind() {
	case KindNumber:
		bn, ok := b.Number()
		if !ok {
			return 0, fmt.Errorf("cannot compare number with %s", b.Type())
		}
		return a.payload.(decimal.Decimal).Cmp(bn), nil
	case KindBoolean:
		x, y := a.IsTrue(), b.IsTrue()
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	case KindString:
		return strings.Compare(a.payload.(string), Display(b)), nil
	case KindObject:
		return compareInts(a.Size(), b.Size()), nil
	case KindCustomType:
		ia := a.payload.(*CustomInstance)
		ib, ok := b.Custom()
		if ok && ia.Type.Compare != nil {
			return ia.Type.Compare(ia.Data, ib.Data), nil
		}
		return 0, fmt.Errorf("custom type %s is not comparable", ia.Type.Name)
	case KindEmpty:
		if b.IsEmpty() {
			return 0, nil
		}
		return -1, nil
	default:
		return strings.Compare(fmt.Sprintf("%p", a.payload), fmt.Sprintf("%p", b.payload)), nil
	}
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
