package runtime

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"github.com/shopspring/decimal"

	"menter/interpreter-go/pkg/ast"
)

// Display renders a value the way the language prints it: numbers in plain
// notation, array-like objects as [a, b], other objects as {k: v}.
func Display(v *Value) string {
	var b strings.Builder
	writeDisplay(&b, v, make(map[any]bool))
	return b.String()
}

func writeDisplay(b *strings.Builder, v *Value, visited map[any]bool) {
	switch v.Kind() {
	case KindEmpty:
		b.WriteString("null")
		return
	case KindNumber:
		b.WriteString(v.payload.(decimal.Decimal).String())
		return
	case KindString:
		b.WriteString(v.payload.(string))
		return
	case KindBoolean:
		if v.payload.(bool) {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return
	case KindRegex:
		b.WriteString(v.payload.(*Regex).Pattern)
		return
	case KindIterator:
		b.WriteString("<<iterator>>")
		return
	}

	if visited[v.payload] {
		fmt.Fprintf(b, "<circular-reference-%s@%p>", v.Type(), v.payload)
		return
	}
	visited[v.payload] = true
	defer delete(visited, v.payload)

	switch v.Kind() {
	case KindObject:
		m := v.payload.(*OrderedMap)
		if m.IsArray() {
			b.WriteString("[")
			for i, item := range m.Values() {
				if i > 0 {
					b.WriteString(", ")
				}
				writeDisplay(b, item, visited)
			}
			b.WriteString("]")
			return
		}
		b.WriteString("{")
		i := 0
		m.Range(func(key, value *Value) bool {
			if i > 0 {
				b.WriteString(", ")
			}
			i++
			writeDisplay(b, key, visited)
			b.WriteString(": ")
			writeDisplay(b, value, visited)
			return true
		})
		b.WriteString("}")
	case KindFunction:
		fn := v.payload.(*Function)
		b.WriteString("(" + strings.Join(fn.Params, ", ") + ") -> ")
		b.WriteString(ast.Code(fn.Body))
	case KindNativeFunction:
		b.WriteString("<<native function>>")
	case KindValueFunction:
		b.WriteString("<<instance function>>")
	case KindReflectiveFunction:
		m := v.payload.(*HostMethod)
		b.WriteString(m.Type.Name + "." + m.Name)
	case KindCustomType:
		inst := v.payload.(*CustomInstance)
		if inst.Type.Display != nil {
			b.WriteString(inst.Type.Display(inst.Data))
			return
		}
		b.WriteString(inst.Type.Name + pretty.Sprint(inst.Data))
	case KindHostType:
		b.WriteString("type " + v.payload.(*TypeDescriptor).Name)
	default:
		fmt.Fprintf(b, "%v", v.payload)
	}
}
