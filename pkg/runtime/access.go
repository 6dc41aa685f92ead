package runtime

import (
	"sort"
)

// methodTables holds the built-in methods per kind. Methods registered for
// "any" apply to every value. Populated in init to break the reference cycle
// with the "functions" method.
var (
	methodTables map[Kind]map[string]MethodFunc
	anyMethods   map[string]MethodFunc
)

func init() {
	methodTables = map[Kind]map[string]MethodFunc{
		KindObject:   objectMethods(),
		KindString:   stringMethods(),
		KindRegex:    regexMethods(),
		KindIterator: iteratorMethods(),
	}
	anyMethods = commonMethods()
}

// MethodNames returns the built-in method names available on a kind, sorted.
func MethodNames(kind Kind) []string {
	table := methodTables[kind]
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AnyMethodNames returns the methods available on every value, sorted.
func AnyMethodNames() []string {
	names := make([]string, 0, len(anyMethods))
	for name := range anyMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Access looks key up on v. Built-in methods win over object keys. It returns
// nil when nothing matches.
func (v *Value) Access(key *Value) *Value {
	if key.IsEmpty() {
		return Empty()
	}
	name := Display(key)
	if impl, ok := methodTables[v.Kind()][name]; ok {
		return NewBoundMethod(&Method{Name: name, Impl: impl}, v)
	}
	if impl, ok := anyMethods[name]; ok {
		return NewBoundMethod(&Method{Name: name, Impl: impl}, v)
	}

	switch v.Kind() {
	case KindObject:
		if found, ok := v.payload.(*OrderedMap).Get(key); ok {
			return found
		}
	case KindCustomType:
		inst := v.payload.(*CustomInstance)
		if inst.Type.Access != nil {
			if found := inst.Type.Access(inst.Data, key); found != nil {
				return found
			}
		}
		if impl, ok := inst.Type.Methods[name]; ok {
			return NewHostMethod(&HostMethod{Type: inst.Type, Name: name, Impl: impl}, v)
		}
	case KindHostType:
		desc := v.payload.(*TypeDescriptor)
		if impl, ok := desc.StaticMethods[name]; ok {
			return NewHostMethod(&HostMethod{Type: desc, Name: name, Impl: impl, Static: true}, v)
		}
	}
	return nil
}

// Create adds key to an object (or custom type supporting creation). When
// final is false the new slot becomes an empty object so the chain can
// continue into it.
func (v *Value) Create(key, value *Value, final bool) bool {
	switch v.Kind() {
	case KindObject:
		if !final {
			value.SetMap(NewOrderedMap())
		}
		v.payload.(*OrderedMap).Set(key, value)
		return true
	case KindCustomType:
		inst := v.payload.(*CustomInstance)
		if inst.Type.Create != nil {
			return inst.Type.Create(inst.Data, key, value, final)
		}
	}
	return false
}

// AccessCandidates lists the names reachable from v, used for suggestions.
func (v *Value) AccessCandidates() []string {
	var out []string
	if m, ok := v.Map(); ok {
		for _, key := range m.Keys() {
			out = append(out, Display(key))
		}
	}
	out = append(out, MethodNames(v.Kind())...)
	out = append(out, AnyMethodNames()...)
	if inst, ok := v.Custom(); ok {
		out = append(out, inst.Type.MethodNames()...)
	}
	if v.Kind() == KindHostType {
		out = append(out, v.payload.(*TypeDescriptor).MethodNames()...)
	}
	return out
}
