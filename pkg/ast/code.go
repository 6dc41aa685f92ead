package ast

import (
	"strconv"
	"strings"
)

// Code reconstructs a compact source form of a node. It is used for stack
// traces, breakpoints and the display of closures, not for round-tripping.
func Code(node Node) string {
	var b strings.Builder
	writeCode(&b, node)
	return b.String()
}

func writeCode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		b.WriteString("null")
	case *Root:
		writeJoined(b, n.Body, "; ")
	case *Block:
		b.WriteString("{ ")
		writeJoined(b, n.Body, "; ")
		b.WriteString(" }")
	case *Identifier:
		b.WriteString(n.Name)
	case *NumberLiteral:
		b.WriteString(n.Value)
	case *StringLiteral:
		b.WriteString(strconv.Quote(n.Value))
	case *BooleanLiteral:
		b.WriteString(strconv.FormatBool(n.Value))
	case *RegexLiteral:
		b.WriteString("r/")
		b.WriteString(n.Pattern)
		b.WriteString("/")
		b.WriteString(n.Flags)
	case *NullLiteral:
		b.WriteString("null")
	case *Access:
		for i, step := range n.Steps {
			switch s := step.(type) {
			case *Index, *Call:
				writeCode(b, s)
			default:
				if i > 0 {
					b.WriteString(".")
				}
				writeCode(b, s)
			}
		}
	case *Index:
		b.WriteString("[")
		writeCode(b, n.Key)
		b.WriteString("]")
	case *Call:
		b.WriteString("(")
		writeJoined(b, n.Args, ", ")
		b.WriteString(")")
	case *FunctionCall:
		writeCode(b, n.Callee)
		b.WriteString("(")
		writeJoined(b, n.Args, ", ")
		b.WriteString(")")
	case *ConstructorCall:
		b.WriteString("new ")
		writeCode(b, n.Callee)
		b.WriteString("(")
		writeJoined(b, n.Args, ", ")
		b.WriteString(")")
	case *OperatorExpression:
		switch {
		case n.Fixity == FixityPrefix && len(n.Operands) == 1:
			b.WriteString(n.Operator)
			writeCode(b, n.Operands[0])
		case n.Fixity == FixityPostfix && len(n.Operands) == 1:
			writeCode(b, n.Operands[0])
			b.WriteString(n.Operator)
		default:
			writeJoined(b, n.Operands, " "+n.Operator+" ")
		}
	case *OperatorFunction:
		switch n.Fixity {
		case FixityPrefix:
			b.WriteString("[" + n.Operator + ")")
		case FixityPostfix:
			b.WriteString("(" + n.Operator + "]")
		default:
			b.WriteString("(" + n.Operator + ")")
		}
	case *Assignment:
		writeCode(b, n.Target)
		if n.Operator == "=" || n.Operator == "" {
			b.WriteString(" = ")
		} else {
			b.WriteString(" " + n.Operator + "= ")
		}
		writeCode(b, n.Value)
	case *Parenthesis:
		b.WriteString("(")
		writeJoined(b, n.Elements, ", ")
		b.WriteString(")")
	case *ArrayLiteral:
		b.WriteString("[")
		writeJoined(b, n.Elements, ", ")
		b.WriteString("]")
	case *MapLiteral:
		b.WriteString("{")
		for i, entry := range n.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			writeCode(b, entry)
		}
		b.WriteString("}")
	case *MapEntry:
		writeCode(b, n.Key)
		b.WriteString(": ")
		writeCode(b, n.Value)
	case *FunctionDeclaration:
		if n.Native {
			b.WriteString("native ")
		}
		b.WriteString(n.Name)
		b.WriteString("(" + strings.Join(n.Params, ", ") + ")")
		if n.Body != nil {
			b.WriteString(" ")
			writeCode(b, n.Body)
		}
	case *FunctionLiteral:
		b.WriteString("(" + strings.Join(n.Params, ", ") + ") -> ")
		writeCode(b, n.Body)
	case *Conditional:
		for i, branch := range n.Branches {
			if i > 0 {
				b.WriteString(" else ")
			}
			writeCode(b, branch)
		}
	case *ConditionalBranch:
		if n.Condition != nil {
			b.WriteString("if (")
			writeCode(b, n.Condition)
			b.WriteString(") ")
		}
		writeCode(b, n.Body)
	case *ForLoop:
		b.WriteString("for (" + strings.Join(n.Variables, ", ") + " in ")
		writeCode(b, n.Iterable)
		b.WriteString(") ")
		writeCode(b, n.Body)
	case *WhileLoop:
		b.WriteString("while (")
		writeCode(b, n.Condition)
		b.WriteString(") ")
		writeCode(b, n.Body)
	case *ReturnStatement:
		b.WriteString("return")
		if n.Argument != nil {
			b.WriteString(" ")
			writeCode(b, n.Argument)
		}
	case *BreakStatement:
		b.WriteString("break")
	case *ContinueStatement:
		b.WriteString("continue")
	case *ImportStatement:
		b.WriteString("import " + n.Name)
		switch {
		case n.Inline:
			b.WriteString(" inline")
		case n.Alias != "":
			b.WriteString(" as " + n.Alias)
		}
	case *ExportStatement:
		b.WriteString("export [" + strings.Join(n.Symbols, ", ") + "] as " + n.Module)
	default:
		b.WriteString("<" + string(node.NodeType()) + ">")
	}
}

func writeJoined(b *strings.Builder, nodes []Node, sep string) {
	for i, node := range nodes {
		if i > 0 {
			b.WriteString(sep)
		}
		writeCode(b, node)
	}
}
