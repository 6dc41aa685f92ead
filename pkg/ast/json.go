package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DecodeJSON decodes a serialized syntax tree produced by the Menter parser
// front end. Each node is an object carrying a "type" discriminator.
func DecodeJSON(data []byte) (Node, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("ast: parse json: %w", err)
	}
	return decodeNode(raw)
}

// DecodeRoot decodes a tree and wraps a non-root top level node into a Root.
func DecodeRoot(data []byte) (*Root, error) {
	node, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	if root, ok := node.(*Root); ok {
		return root, nil
	}
	return NewRoot([]Node{node}), nil
}

func decodeNode(node map[string]any) (Node, error) {
	typ, _ := node["type"].(string)
	switch NodeType(typ) {
	case NodeRoot:
		body, err := decodeNodeList(node["body"])
		if err != nil {
			return nil, err
		}
		return NewRoot(body), nil
	case NodeBlock:
		body, err := decodeNodeList(node["body"])
		if err != nil {
			return nil, err
		}
		return NewBlock(body), nil
	case NodeIdentifier:
		name, _ := node["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("ast: identifier without name")
		}
		return NewIdentifier(name), nil
	case NodeNumberLiteral:
		value, err := decodeNumberText(node["value"])
		if err != nil {
			return nil, err
		}
		return NewNumberLiteral(value), nil
	case NodeStringLiteral:
		val, _ := node["value"].(string)
		return NewStringLiteral(val), nil
	case NodeBooleanLiteral:
		val, _ := node["value"].(bool)
		return NewBooleanLiteral(val), nil
	case NodeRegexLiteral:
		pattern, _ := node["pattern"].(string)
		flags, _ := node["flags"].(string)
		return NewRegexLiteral(pattern, flags), nil
	case NodeNullLiteral:
		return NewNullLiteral(), nil
	case NodeAccess:
		steps, err := decodeNodeList(node["steps"])
		if err != nil {
			return nil, err
		}
		if len(steps) == 0 {
			return nil, fmt.Errorf("ast: access chain without steps")
		}
		return NewAccess(steps), nil
	case NodeIndex:
		key, err := decodeChild(node, "key", true)
		if err != nil {
			return nil, err
		}
		return NewIndex(key), nil
	case NodeCall:
		args, err := decodeNodeList(node["args"])
		if err != nil {
			return nil, err
		}
		return NewCall(args), nil
	case NodeFunctionCall, NodeConstructorCall:
		callee, err := decodeChild(node, "callee", true)
		if err != nil {
			return nil, err
		}
		args, err := decodeNodeList(node["args"])
		if err != nil {
			return nil, err
		}
		if NodeType(typ) == NodeConstructorCall {
			return NewConstructorCall(callee, args), nil
		}
		return NewFunctionCall(callee, args), nil
	case NodeOperatorExpression:
		operator, _ := node["operator"].(string)
		operands, err := decodeNodeList(node["operands"])
		if err != nil {
			return nil, err
		}
		fixity, err := decodeFixity(node["fixity"], len(operands))
		if err != nil {
			return nil, err
		}
		return NewOperatorExpression(operator, fixity, operands), nil
	case NodeOperatorFunction:
		operator, _ := node["operator"].(string)
		fixity, err := decodeFixity(node["fixity"], 2)
		if err != nil {
			return nil, err
		}
		return NewOperatorFunction(operator, fixity), nil
	case NodeAssignment:
		operator, _ := node["operator"].(string)
		target, err := decodeChild(node, "target", true)
		if err != nil {
			return nil, err
		}
		value, err := decodeChild(node, "value", true)
		if err != nil {
			return nil, err
		}
		return NewAssignment(operator, target, value), nil
	case NodeParenthesis:
		elements, err := decodeNodeList(node["elements"])
		if err != nil {
			return nil, err
		}
		return NewParenthesis(elements), nil
	case NodeArrayLiteral:
		elements, err := decodeNodeList(node["elements"])
		if err != nil {
			return nil, err
		}
		return NewArrayLiteral(elements), nil
	case NodeMapLiteral:
		rawEntries, _ := node["entries"].([]any)
		entries := make([]*MapEntry, 0, len(rawEntries))
		for _, raw := range rawEntries {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid map entry %T", raw)
			}
			decoded, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			entry, ok := decoded.(*MapEntry)
			if !ok {
				return nil, fmt.Errorf("ast: map literal expects MapEntry, got %s", decoded.NodeType())
			}
			entries = append(entries, entry)
		}
		return NewMapLiteral(entries), nil
	case NodeMapEntry:
		key, err := decodeChild(node, "key", true)
		if err != nil {
			return nil, err
		}
		value, err := decodeChild(node, "value", true)
		if err != nil {
			return nil, err
		}
		return NewMapEntry(key, value), nil
	case NodeFunctionDeclaration:
		name, _ := node["name"].(string)
		native, _ := node["native"].(bool)
		body, err := decodeChild(node, "body", !native)
		if err != nil {
			return nil, err
		}
		return NewFunctionDeclaration(name, decodeStrings(node["params"]), body, native), nil
	case NodeFunctionLiteral:
		body, err := decodeChild(node, "body", true)
		if err != nil {
			return nil, err
		}
		return NewFunctionLiteral(decodeStrings(node["params"]), body), nil
	case NodeConditional:
		rawBranches, _ := node["branches"].([]any)
		branches := make([]*ConditionalBranch, 0, len(rawBranches))
		for _, raw := range rawBranches {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: invalid conditional branch %T", raw)
			}
			decoded, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			branch, ok := decoded.(*ConditionalBranch)
			if !ok {
				return nil, fmt.Errorf("ast: conditional expects ConditionalBranch, got %s", decoded.NodeType())
			}
			branches = append(branches, branch)
		}
		return NewConditional(branches), nil
	case NodeConditionalBranch:
		condition, err := decodeChild(node, "condition", false)
		if err != nil {
			return nil, err
		}
		body, err := decodeChild(node, "body", true)
		if err != nil {
			return nil, err
		}
		return NewConditionalBranch(condition, body), nil
	case NodeForLoop:
		iterable, err := decodeChild(node, "iterable", true)
		if err != nil {
			return nil, err
		}
		body, err := decodeChild(node, "body", true)
		if err != nil {
			return nil, err
		}
		return NewForLoop(decodeStrings(node["variables"]), iterable, body), nil
	case NodeWhileLoop:
		condition, err := decodeChild(node, "condition", true)
		if err != nil {
			return nil, err
		}
		body, err := decodeChild(node, "body", true)
		if err != nil {
			return nil, err
		}
		return NewWhileLoop(condition, body), nil
	case NodeReturnStatement:
		argument, err := decodeChild(node, "argument", false)
		if err != nil {
			return nil, err
		}
		return NewReturnStatement(argument), nil
	case NodeBreakStatement:
		return NewBreakStatement(), nil
	case NodeContinueStatement:
		return NewContinueStatement(), nil
	case NodeImportStatement:
		name, _ := node["name"].(string)
		alias, _ := node["alias"].(string)
		inline, _ := node["inline"].(bool)
		if name == "" {
			return nil, fmt.Errorf("ast: import without module name")
		}
		return NewImportStatement(name, alias, inline), nil
	case NodeExportStatement:
		module, _ := node["module"].(string)
		if module == "" {
			return nil, fmt.Errorf("ast: export without module name")
		}
		return NewExportStatement(decodeStrings(node["symbols"]), module), nil
	default:
		return nil, fmt.Errorf("ast: unsupported node type %q", typ)
	}
}

func decodeChild(node map[string]any, field string, required bool) (Node, error) {
	raw, ok := node[field]
	if !ok || raw == nil {
		if required {
			return nil, fmt.Errorf("ast: %s missing %s", node["type"], field)
		}
		return nil, nil
	}
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: %s.%s must be a node, got %T", node["type"], field, raw)
	}
	return decodeNode(child)
}

func decodeNodeList(raw any) ([]Node, error) {
	items, _ := raw.([]any)
	out := make([]Node, 0, len(items))
	for _, item := range items {
		child, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: invalid node %T", item)
		}
		decoded, err := decodeNode(child)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

func decodeStrings(raw any) []string {
	items, _ := raw.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func decodeNumberText(raw any) (string, error) {
	switch v := raw.(type) {
	case json.Number:
		return v.String(), nil
	case string:
		if v == "" {
			return "", fmt.Errorf("ast: empty number literal")
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("ast: invalid number literal %T", raw)
	}
}

func decodeFixity(raw any, operands int) (Fixity, error) {
	s, _ := raw.(string)
	switch Fixity(s) {
	case FixityInfix, FixityPrefix, FixityPostfix:
		return Fixity(s), nil
	case "":
		if operands == 1 {
			return FixityPrefix, nil
		}
		return FixityInfix, nil
	default:
		return "", fmt.Errorf("ast: unknown operator fixity %q", s)
	}
}
