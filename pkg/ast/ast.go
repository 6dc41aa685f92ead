package ast

type NodeType string

const (
	NodeRoot                NodeType = "Root"
	NodeBlock               NodeType = "Block"
	NodeIdentifier          NodeType = "Identifier"
	NodeNumberLiteral       NodeType = "NumberLiteral"
	NodeStringLiteral       NodeType = "StringLiteral"
	NodeBooleanLiteral      NodeType = "BooleanLiteral"
	NodeRegexLiteral        NodeType = "RegexLiteral"
	NodeNullLiteral         NodeType = "NullLiteral"
	NodeAccess              NodeType = "Access"
	NodeIndex               NodeType = "Index"
	NodeCall                NodeType = "Call"
	NodeFunctionCall        NodeType = "FunctionCall"
	NodeConstructorCall     NodeType = "ConstructorCall"
	NodeOperatorExpression  NodeType = "OperatorExpression"
	NodeOperatorFunction    NodeType = "OperatorFunction"
	NodeAssignment          NodeType = "Assignment"
	NodeParenthesis         NodeType = "Parenthesis"
	NodeArrayLiteral        NodeType = "ArrayLiteral"
	NodeMapLiteral          NodeType = "MapLiteral"
	NodeMapEntry            NodeType = "MapEntry"
	NodeFunctionDeclaration NodeType = "FunctionDeclaration"
	NodeFunctionLiteral     NodeType = "FunctionLiteral"
	NodeConditional         NodeType = "Conditional"
	NodeConditionalBranch   NodeType = "ConditionalBranch"
	NodeForLoop             NodeType = "ForLoop"
	NodeWhileLoop           NodeType = "WhileLoop"
	NodeReturnStatement     NodeType = "ReturnStatement"
	NodeBreakStatement      NodeType = "BreakStatement"
	NodeContinueStatement   NodeType = "ContinueStatement"
	NodeImportStatement     NodeType = "ImportStatement"
	NodeExportStatement     NodeType = "ExportStatement"
)

type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// Marker interfaces.

// Literal nodes evaluate to a constant and may be used directly as an access key.
type Literal interface {
	Node
	literalNode()
}

type literalMarker struct{}

func (literalMarker) literalNode() {}

// Sequence nodes hold a list of expressions evaluated in order.
type Sequence interface {
	Node
	Statements() []Node
}

// Fixity says on which side(s) of an operator its operands sit.
type Fixity string

const (
	FixityInfix   Fixity = "infix"
	FixityPrefix  Fixity = "prefix"
	FixityPostfix Fixity = "postfix"
)

// Sequences

type Root struct {
	nodeImpl

	Body []Node `json:"body"`
}

func NewRoot(body []Node) *Root {
	return &Root{nodeImpl: newNodeImpl(NodeRoot), Body: body}
}

func (r *Root) Statements() []Node { return r.Body }

type Block struct {
	nodeImpl

	Body []Node `json:"body"`
}

func NewBlock(body []Node) *Block {
	return &Block{nodeImpl: newNodeImpl(NodeBlock), Body: body}
}

func (b *Block) Statements() []Node { return b.Body }

// Identifier

type Identifier struct {
	nodeImpl

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

// Literals

type NumberLiteral struct {
	nodeImpl
	literalMarker

	// Value keeps the decimal text as written so no precision is lost.
	Value string `json:"value"`
}

func NewNumberLiteral(value string) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	literalMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	literalMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type RegexLiteral struct {
	nodeImpl
	literalMarker

	Pattern string `json:"pattern"`
	Flags   string `json:"flags,omitempty"`
}

func NewRegexLiteral(pattern, flags string) *RegexLiteral {
	return &RegexLiteral{nodeImpl: newNodeImpl(NodeRegexLiteral), Pattern: pattern, Flags: flags}
}

type NullLiteral struct {
	nodeImpl
	literalMarker
}

func NewNullLiteral() *NullLiteral {
	return &NullLiteral{nodeImpl: newNodeImpl(NodeNullLiteral)}
}

// Access chains

// Access is a dotted/indexed/called chain such as a.b[c](d).e. The head step
// is resolved through the scopes, every later step against the previous value.
type Access struct {
	nodeImpl

	Steps []Node `json:"steps"`
}

func NewAccess(steps []Node) *Access {
	return &Access{nodeImpl: newNodeImpl(NodeAccess), Steps: steps}
}

// Index is a bracketed access step whose key is computed.
type Index struct {
	nodeImpl

	Key Node `json:"key"`
}

func NewIndex(key Node) *Index {
	return &Index{nodeImpl: newNodeImpl(NodeIndex), Key: key}
}

// Call is a call step inside an access chain.
type Call struct {
	nodeImpl

	Args []Node `json:"args"`
}

func NewCall(args []Node) *Call {
	return &Call{nodeImpl: newNodeImpl(NodeCall), Args: args}
}

type FunctionCall struct {
	nodeImpl

	Callee Node   `json:"callee"`
	Args   []Node `json:"args"`
}

func NewFunctionCall(callee Node, args []Node) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall), Callee: callee, Args: args}
}

type ConstructorCall struct {
	nodeImpl

	Callee Node   `json:"callee"`
	Args   []Node `json:"args"`
}

func NewConstructorCall(callee Node, args []Node) *ConstructorCall {
	return &ConstructorCall{nodeImpl: newNodeImpl(NodeConstructorCall), Callee: callee, Args: args}
}

// Operators

type OperatorExpression struct {
	nodeImpl

	Operator string `json:"operator"`
	Fixity   Fixity `json:"fixity"`
	Operands []Node `json:"operands"`
}

func NewOperatorExpression(operator string, fixity Fixity, operands []Node) *OperatorExpression {
	return &OperatorExpression{nodeImpl: newNodeImpl(NodeOperatorExpression), Operator: operator, Fixity: fixity, Operands: operands}
}

// OperatorFunction turns an operator into a callable, e.g. (+) or (!].
type OperatorFunction struct {
	nodeImpl

	Operator string `json:"operator"`
	Fixity   Fixity `json:"fixity"`
}

func NewOperatorFunction(operator string, fixity Fixity) *OperatorFunction {
	return &OperatorFunction{nodeImpl: newNodeImpl(NodeOperatorFunction), Operator: operator, Fixity: fixity}
}

// Assignment binds Value to Target. Operator is "=" for plain assignment or the
// binary operator symbol of a compound assignment ("+" for +=).
type Assignment struct {
	nodeImpl

	Operator string `json:"operator"`
	Target   Node   `json:"target"`
	Value    Node   `json:"value"`
}

func NewAssignment(operator string, target, value Node) *Assignment {
	if operator == "" {
		operator = "="
	}
	return &Assignment{nodeImpl: newNodeImpl(NodeAssignment), Operator: operator, Target: target, Value: value}
}

// Collections

type Parenthesis struct {
	nodeImpl

	Elements []Node `json:"elements"`
}

func NewParenthesis(elements []Node) *Parenthesis {
	return &Parenthesis{nodeImpl: newNodeImpl(NodeParenthesis), Elements: elements}
}

type ArrayLiteral struct {
	nodeImpl

	Elements []Node `json:"elements"`
}

func NewArrayLiteral(elements []Node) *ArrayLiteral {
	return &ArrayLiteral{nodeImpl: newNodeImpl(NodeArrayLiteral), Elements: elements}
}

type MapEntry struct {
	nodeImpl

	Key   Node `json:"key"`
	Value Node `json:"value"`
}

func NewMapEntry(key, value Node) *MapEntry {
	return &MapEntry{nodeImpl: newNodeImpl(NodeMapEntry), Key: key, Value: value}
}

type MapLiteral struct {
	nodeImpl

	Entries []*MapEntry `json:"entries"`
}

func NewMapLiteral(entries []*MapEntry) *MapLiteral {
	return &MapLiteral{nodeImpl: newNodeImpl(NodeMapLiteral), Entries: entries}
}
