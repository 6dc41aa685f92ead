package ast

// Functions

// FunctionDeclaration binds a named function. Native declarations have no body
// and are satisfied by a host function registered under the same name.
type FunctionDeclaration struct {
	nodeImpl

	Name   string   `json:"name"`
	Params []string `json:"params"`
	Body   Node     `json:"body,omitempty"`
	Native bool     `json:"native,omitempty"`
}

func NewFunctionDeclaration(name string, params []string, body Node, native bool) *FunctionDeclaration {
	return &FunctionDeclaration{nodeImpl: newNodeImpl(NodeFunctionDeclaration), Name: name, Params: params, Body: body, Native: native}
}

type FunctionLiteral struct {
	nodeImpl

	Params []string `json:"params"`
	Body   Node     `json:"body"`
}

func NewFunctionLiteral(params []string, body Node) *FunctionLiteral {
	return &FunctionLiteral{nodeImpl: newNodeImpl(NodeFunctionLiteral), Params: params, Body: body}
}

// Control flow

// ConditionalBranch without a Condition is the else branch.
type ConditionalBranch struct {
	nodeImpl

	Condition Node `json:"condition,omitempty"`
	Body      Node `json:"body"`
}

func NewConditionalBranch(condition, body Node) *ConditionalBranch {
	return &ConditionalBranch{nodeImpl: newNodeImpl(NodeConditionalBranch), Condition: condition, Body: body}
}

type Conditional struct {
	nodeImpl

	Branches []*ConditionalBranch `json:"branches"`
}

func NewConditional(branches []*ConditionalBranch) *Conditional {
	return &Conditional{nodeImpl: newNodeImpl(NodeConditional), Branches: branches}
}

type ForLoop struct {
	nodeImpl

	Variables []string `json:"variables"`
	Iterable  Node     `json:"iterable"`
	Body      Node     `json:"body"`
}

func NewForLoop(variables []string, iterable, body Node) *ForLoop {
	return &ForLoop{nodeImpl: newNodeImpl(NodeForLoop), Variables: variables, Iterable: iterable, Body: body}
}

type WhileLoop struct {
	nodeImpl

	Condition Node `json:"condition"`
	Body      Node `json:"body"`
}

func NewWhileLoop(condition, body Node) *WhileLoop {
	return &WhileLoop{nodeImpl: newNodeImpl(NodeWhileLoop), Condition: condition, Body: body}
}

type ReturnStatement struct {
	nodeImpl

	Argument Node `json:"argument,omitempty"`
}

func NewReturnStatement(argument Node) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

type BreakStatement struct {
	nodeImpl
}

func NewBreakStatement() *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement)}
}

type ContinueStatement struct {
	nodeImpl
}

func NewContinueStatement() *ContinueStatement {
	return &ContinueStatement{nodeImpl: newNodeImpl(NodeContinueStatement)}
}

// Modules

// ImportStatement covers "import a", "import a as b" and "import a inline".
type ImportStatement struct {
	nodeImpl

	Name   string `json:"name"`
	Alias  string `json:"alias,omitempty"`
	Inline bool   `json:"inline,omitempty"`
}

func NewImportStatement(name, alias string, inline bool) *ImportStatement {
	return &ImportStatement{nodeImpl: newNodeImpl(NodeImportStatement), Name: name, Alias: alias, Inline: inline}
}

// ExportStatement is "export [a, b] as name".
type ExportStatement struct {
	nodeImpl

	Symbols []string `json:"symbols"`
	Module  string   `json:"module"`
}

func NewExportStatement(symbols []string, module string) *ExportStatement {
	return &ExportStatement{nodeImpl: newNodeImpl(NodeExportStatement), Symbols: symbols, Module: module}
}
