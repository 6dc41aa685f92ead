package runtime

import (
	"fmt"
	"regexp"
	"strings"
)

func stringMethods() map[string]MethodFunc {
	return map[string]MethodFunc{
		"size": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			return NewInt(int64(self.Size())), nil
		},
		"charAt": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("charAt", args, 1); err != nil {
				return nil, err
			}
			d, ok := args[0].Number()
			if !ok {
				return nil, fmt.Errorf("charAt requires a number, got %s", args[0].Type())
			}
			runes := []rune(self.mustStr())
			i := int(d.IntPart())
			if i < 0 || i >= len(runes) {
				return Empty(), nil
			}
			return NewString(string(runes[i])), nil
		},
		"matches": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("matches", args, 1); err != nil {
				return nil, err
			}
			re, err := patternOf(args[0], true)
			if err != nil {
				return nil, err
			}
			return NewBoolean(re.MatchString(self.mustStr())), nil
		},
		"replace": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("replace", args, 2); err != nil {
				return nil, err
			}
			return NewString(strings.Replace(self.mustStr(), Display(args[0]), Display(args[1]), 1)), nil
		},
		"replaceAll": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("replaceAll", args, 2); err != nil {
				return nil, err
			}
			re, err := patternOf(args[0], false)
			if err != nil {
				return nil, err
			}
			return NewString(re.ReplaceAllString(self.mustStr(), Display(args[1]))), nil
		},
		"split": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("split", args, 1); err != nil {
				return nil, err
			}
			re, err := patternOf(args[0], false)
			if err != nil {
				return nil, err
			}
			return splitString(re, self.mustStr()), nil
		},
		"startsWith": stringPredicate("startsWith", strings.HasPrefix),
		"endsWith":   stringPredicate("endsWith", strings.HasSuffix),
		"contains":   stringPredicate("contains", strings.Contains),
		"equals": stringPredicate("equals", func(a, b string) bool {
			return a == b
		}),
		"equalsIgnoreCase": stringPredicate("equalsIgnoreCase", strings.EqualFold),
		"toUpperCase": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			return NewString(strings.ToUpper(self.mustStr())), nil
		},
		"toLowerCase": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			return NewString(strings.ToLower(self.mustStr())), nil
		},
		"trim": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if len(args) > 0 && !args[0].IsEmpty() {
				return NewString(strings.Trim(self.mustStr(), Display(args[0]))), nil
			}
			return NewString(strings.TrimSpace(self.mustStr())), nil
		},
	}
}

func regexMethods() map[string]MethodFunc {
	return map[string]MethodFunc{
		"matches": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("matches", args, 1); err != nil {
				return nil, err
			}
			re, err := patternOf(self, true)
			if err != nil {
				return nil, err
			}
			return NewBoolean(re.MatchString(Display(args[0]))), nil
		},
		"find": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("find", args, 1); err != nil {
				return nil, err
			}
			r, _ := self.RegexValue()
			found := r.Re.FindAllString(Display(args[0]), -1)
			return NewStringArray(found), nil
		},
		"split": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("split", args, 1); err != nil {
				return nil, err
			}
			r, _ := self.RegexValue()
			return splitString(r.Re, Display(args[0])), nil
		},
		"replace": func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
			if err := requireArgs("replace", args, 2); err != nil {
				return nil, err
			}
			r, _ := self.RegexValue()
			return NewString(r.Re.ReplaceAllString(Display(args[0]), Display(args[1]))), nil
		},
	}
}

func iteratorMethods() map[string]MethodFunc {
	return map[string]MethodFunc{
		"hasNext": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			it, _ := self.Iterator()
			return NewBoolean(it.HasNext()), nil
		},
		"next": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			it, _ := self.Iterator()
			v, ok := it.Next()
			if !ok {
				return nil, fmt.Errorf("iterator has no more elements")
			}
			return v, nil
		},
	}
}

// commonMethods apply to values of every type.
func commonMethods() map[string]MethodFunc {
	return map[string]MethodFunc{
		"type": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			if inst, ok := self.Custom(); ok {
				return NewString(inst.Type.Name), nil
			}
			return NewString(self.Type()), nil
		},
		"iterator": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			return MakeIterator(self)
		},
		"forEach": forEach,
		"functions": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			names := append(MethodNames(self.Kind()), AnyMethodNames()...)
			if inst, ok := self.Custom(); ok {
				names = append(names, inst.Type.MethodNames()...)
			}
			return NewStringArray(names), nil
		},
		"isNull": func(_ *CallContext, self *Value, _ []*Value) (*Value, error) {
			return NewBoolean(self.IsEmpty()), nil
		},
	}
}

// forEach calls fn for every element and returns the last result. Two
// parameter closures receive key and value of paired elements.
func forEach(call *CallContext, self *Value, args []*Value) (*Value, error) {
	if err := requireArgs("forEach", args, 1); err != nil {
		return nil, err
	}
	fn := args[0]
	iterValue, err := MakeIterator(self)
	if err != nil {
		return nil, err
	}
	it, _ := iterValue.Iterator()
	n, isClosure := ParamCount(fn)
	result := Empty()
	for {
		element, ok := it.Next()
		if !ok {
			return result, nil
		}
		callArgs := []*Value{element}
		if pair, isMap := element.Map(); isMap && pair.Len() == 2 && pair.IsArray() {
			values := pair.Values()
			if isClosure && n == 2 {
				callArgs = values
			} else if self.Kind() == KindObject {
				callArgs = values[1:]
			}
		}
		result, err = call.Call("forEach", fn, callArgs...)
		if err != nil {
			return nil, err
		}
	}
}

func (v *Value) mustStr() string {
	if s, ok := v.Str(); ok {
		return s
	}
	return Display(v)
}

func stringPredicate(name string, test func(s, arg string) bool) MethodFunc {
	return func(_ *CallContext, self *Value, args []*Value) (*Value, error) {
		if err := requireArgs(name, args, 1); err != nil {
			return nil, err
		}
		return NewBoolean(test(self.mustStr(), Display(args[0]))), nil
	}
}

// patternOf turns a regex or string argument into a compiled expression.
// With full set the expression must match the whole input.
func patternOf(v *Value, full bool) (*regexp.Regexp, error) {
	pattern := Display(v)
	prefix := ""
	if r, ok := v.RegexValue(); ok {
		if !full {
			return r.Re, nil
		}
		pattern = r.Pattern
		prefix = FlagPrefix(r.Flags)
	}
	if full {
		pattern = prefix + "^(?:" + pattern + ")$"
	}
	return regexp.Compile(pattern)
}

// FlagPrefix converts Menter regex flags into an inline flag group.
func FlagPrefix(flags string) string {
	var b strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			b.WriteRune(f)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "(?" + b.String() + ")"
}

// CompileRegex compiles a regex literal with its flags.
func CompileRegex(pattern, flags string) (*Regex, error) {
	for _, f := range flags {
		if !strings.ContainsRune("ims", f) {
			return nil, fmt.Errorf("Unknown regex flag: %c", f)
		}
	}
	re, err := regexp.Compile(FlagPrefix(flags) + pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{Pattern: pattern, Flags: flags, Re: re}, nil
}

// splitString splits s around matches of re and drops trailing empty parts.
func splitString(re *regexp.Regexp, s string) *Value {
	parts := re.Split(s, -1)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return NewStringArray(parts)
}
