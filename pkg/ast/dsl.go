package ast

import "strconv"

// Identifier and literal helpers.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Num(value string) *NumberLiteral {
	return NewNumberLiteral(value)
}

func Int(value int64) *NumberLiteral {
	return NewNumberLiteral(strconv.FormatInt(value, 10))
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func Regex(pattern, flags string) *RegexLiteral {
	return NewRegexLiteral(pattern, flags)
}

func Null() *NullLiteral {
	return NewNullLiteral()
}

// Sequence helpers.

func Prog(body ...Node) *Root {
	return NewRoot(body)
}

func Blk(body ...Node) *Block {
	return NewBlock(body)
}

// Access chain helpers.

// Path builds an access chain a.b.c from identifier names.
func Path(names ...string) *Access {
	steps := make([]Node, len(names))
	for i, name := range names {
		steps[i] = ID(name)
	}
	return NewAccess(steps)
}

// Chain builds an access chain from arbitrary steps.
func Chain(steps ...Node) *Access {
	return NewAccess(steps)
}

func Idx(key Node) *Index {
	return NewIndex(key)
}

func Args(args ...Node) *Call {
	return NewCall(args)
}

// Method builds receiver.name(args...).
func Method(receiver Node, name string, args ...Node) *Access {
	var steps []Node
	if chain, ok := receiver.(*Access); ok {
		steps = append(steps, chain.Steps...)
	} else {
		steps = append(steps, receiver)
	}
	steps = append(steps, ID(name), NewCall(args))
	return NewAccess(steps)
}

func CallExpr(callee Node, args ...Node) *FunctionCall {
	return NewFunctionCall(callee, args)
}

func New(callee Node, args ...Node) *ConstructorCall {
	return NewConstructorCall(callee, args)
}

// Operator helpers.

func Bin(operator string, left, right Node) *OperatorExpression {
	return NewOperatorExpression(operator, FixityInfix, []Node{left, right})
}

func Prefix(operator string, operand Node) *OperatorExpression {
	return NewOperatorExpression(operator, FixityPrefix, []Node{operand})
}

func Postfix(operator string, operand Node) *OperatorExpression {
	return NewOperatorExpression(operator, FixityPostfix, []Node{operand})
}

func OpFn(operator string, fixity Fixity) *OperatorFunction {
	return NewOperatorFunction(operator, fixity)
}

func Assign(target, value Node) *Assignment {
	return NewAssignment("=", target, value)
}

func AssignOp(operator string, target, value Node) *Assignment {
	return NewAssignment(operator, target, value)
}

// Collection helpers.

func Paren(elements ...Node) *Parenthesis {
	return NewParenthesis(elements)
}

func Arr(elements ...Node) *ArrayLiteral {
	return NewArrayLiteral(elements)
}

func Entry(key, value Node) *MapEntry {
	return NewMapEntry(key, value)
}

func Obj(entries ...*MapEntry) *MapLiteral {
	return NewMapLiteral(entries)
}

// Function helpers.

func Fn(name string, params []string, body ...Node) *FunctionDeclaration {
	return NewFunctionDeclaration(name, params, bodyOf(body), false)
}

func NativeFn(name string, params ...string) *FunctionDeclaration {
	return NewFunctionDeclaration(name, params, nil, true)
}

func Lambda(params []string, body ...Node) *FunctionLiteral {
	return NewFunctionLiteral(params, bodyOf(body))
}

func Params(names ...string) []string {
	return names
}

func bodyOf(body []Node) Node {
	if len(body) == 1 {
		return body[0]
	}
	return NewBlock(body)
}

// Control flow helpers.

func If(condition, body Node, rest ...*ConditionalBranch) *Conditional {
	branches := append([]*ConditionalBranch{NewConditionalBranch(condition, body)}, rest...)
	return NewConditional(branches)
}

func ElseIf(condition, body Node) *ConditionalBranch {
	return NewConditionalBranch(condition, body)
}

func Else(body Node) *ConditionalBranch {
	return NewConditionalBranch(nil, body)
}

func For(variables []string, iterable Node, body ...Node) *ForLoop {
	return NewForLoop(variables, iterable, bodyOf(body))
}

func While(condition Node, body ...Node) *WhileLoop {
	return NewWhileLoop(condition, bodyOf(body))
}

func Ret(argument Node) *ReturnStatement {
	return NewReturnStatement(argument)
}

func Brk() *BreakStatement {
	return NewBreakStatement()
}

func Cont() *ContinueStatement {
	return NewContinueStatement()
}

// Module helpers.

func Import(name string) *ImportStatement {
	return NewImportStatement(name, "", false)
}

func ImportAs(name, alias string) *ImportStatement {
	return NewImportStatement(name, alias, false)
}

func ImportInline(name string) *ImportStatement {
	return NewImportStatement(name, "", true)
}

func Export(module string, symbols ...string) *ExportStatement {
	return NewExportStatement(symbols, module)
}
