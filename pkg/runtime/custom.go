package runtime

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// HostMethodFunc implements a method of a host type. self is nil for static
// methods.
type HostMethodFunc func(call *CallContext, self any, args []*Value) (*Value, error)

// TypeDescriptor registers a host-defined type. Every capability is optional;
// missing ones fall back to the defaults of opaque values.
type TypeDescriptor struct {
	Module string
	Name   string

	Construct     func(call *CallContext, args []*Value) (any, error)
	Methods       map[string]HostMethodFunc
	StaticMethods map[string]HostMethodFunc

	Access   func(self any, key *Value) *Value
	Create   func(self any, key, value *Value, final bool) bool
	Size     func(self any) int
	IsTrue   func(self any) bool
	Numeric  func(self any) (decimal.Decimal, bool)
	Iterator func(self any) (*Value, error)
	Display  func(self any) string
	Compare  func(a, b any) int
}

// Validate checks the descriptor before registration.
func (d *TypeDescriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("custom type: nil descriptor")
	}
	if d.Module == "" {
		return fmt.Errorf("custom type %q: module name must be provided", d.Name)
	}
	if d.Name == "" {
		return fmt.Errorf("custom type in module %q: type name must be provided", d.Module)
	}
	return nil
}

// MethodNames lists instance and static method names, sorted.
func (d *TypeDescriptor) MethodNames() []string {
	names := make([]string, 0, len(d.Methods)+len(d.StaticMethods))
	for name := range d.Methods {
		names = append(names, name)
	}
	for name := range d.StaticMethods {
		if _, dup := d.Methods[name]; !dup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Instantiate runs the constructor.
func (d *TypeDescriptor) Instantiate(call *CallContext, args []*Value) (*Value, error) {
	if d.Construct == nil {
		return nil, fmt.Errorf("custom type %s cannot be constructed", d.Name)
	}
	data, err := d.Construct(call, args)
	if err != nil {
		return nil, err
	}
	return NewCustom(&CustomInstance{Type: d, Data: data}), nil
}

// CustomInstance is a value of a host type.
type CustomInstance struct {
	Type *TypeDescriptor
	Data any
}

// HostMethod is a host type method, bound to an instance or static.
type HostMethod struct {
	Type   *TypeDescriptor
	Name   string
	Impl   HostMethodFunc
	Static bool
}

// Invoke calls the method on its receiver.
func (m *HostMethod) Invoke(call *CallContext, receiver *Value, args []*Value) (*Value, error) {
	var self any
	if !m.Static {
		inst, ok := receiver.Custom()
		if !ok {
			return nil, fmt.Errorf("method %s.%s requires an instance receiver", m.Type.Name, m.Name)
		}
		self = inst.Data
	}
	out, err := m.Impl(call, self, args)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = Empty()
	}
	return out, nil
}
