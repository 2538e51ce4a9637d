package engine

import (
	"fmt"
	"strconv"
	"strings"

	"zenort/pkg/value"
)

// ResolveValue evaluates a node's value. A node with children becomes a map
// of its children; otherwise the raw value is parsed as a literal or
// variable reference.
func (e *Engine) ResolveValue(n *Node, ec *ExecutionContext) value.Value {
	if n == nil {
		return value.NewNil()
	}
	if len(n.Children) > 0 && n.Value == nil {
		m := value.NewOrderedMap()
		for _, c := range n.Children {
			m.Set(strings.TrimPrefix(c.Name, "$"), e.ResolveValue(c, ec))
		}
		return value.NewMapOf(m)
	}
	return ResolveRaw(n.Value, ec)
}

// ResolveRaw evaluates a raw node value. Strings are read as source text:
//
//	"quoted"     string
//	$name.path   variable lookup (nil when missing)
//	$a ?? b      a unless it is missing or nil
//	true false nil, 42, 1.5
//	[1, $x]      list
//
// Anything else is returned as a plain string, which is how unquoted words
// and expressions reach slots such as math.calc.
func ResolveRaw(raw interface{}, ec *ExecutionContext) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.NewNil()
	case value.Value:
		return v
	case string:
		return parseLiteral(strings.TrimPrefix(v, "\x00"), ec)
	default:
		return value.NewValue(v)
	}
}

// RawString returns the source text of a node value with quotes removed,
// without resolving variables. Used for names: fn, param, as.
func RawString(raw interface{}) string {
	if raw == nil {
		return ""
	}
	return unquote(strings.TrimSpace(strings.TrimPrefix(fmt.Sprintf("%v", raw), "\x00")))
}

func parseLiteral(s string, ec *ExecutionContext) value.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return value.NewString("")
	}

	if isQuoted(s) {
		return value.NewString(s[1 : len(s)-1])
	}

	if left, right, ok := strings.Cut(s, "??"); ok {
		v := parseLiteral(left, ec)
		if v.IsNil() {
			return parseLiteral(right, ec)
		}
		return v
	}

	if strings.HasPrefix(s, "$") && !strings.ContainsAny(s, " \t") {
		if ec == nil {
			return value.NewNil()
		}
		v, _ := ec.Get(s[1:])
		return v
	}

	switch s {
	case "true":
		return value.NewBool(true)
	case "false":
		return value.NewBool(false)
	case "nil", "null":
		return value.NewNil()
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.NewInt(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, ".eE") {
		return value.NewFloat(f)
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return parseListLiteral(s[1:len(s)-1], ec)
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		if v, err := value.ParseJSON([]byte(s)); err == nil {
			return v
		}
	}

	return value.NewString(s)
}

func parseListLiteral(body string, ec *ExecutionContext) value.Value {
	parts := splitTopLevel(body)
	items := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		items = append(items, parseLiteral(p, ec))
	}
	return value.NewList(items...)
}

// splitTopLevel splits on commas outside quotes and brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var q byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case q != 0:
			if ch == q {
				q = 0
			}
		case ch == '"' || ch == '\'':
			q = ch
		case ch == '[' || ch == '{':
			depth++
		case ch == ']' || ch == '}':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	if (s[0] != '"' && s[0] != '\'') || s[len(s)-1] != s[0] {
		return false
	}
	// "a" + "b" is an expression, not one string.
	return !strings.ContainsRune(s[1:len(s)-1], rune(s[0]))
}

// ValidateValueType checks a resolved attribute against the type declared in
// a slot's InputMeta.
func (e *Engine) ValidateValueType(val value.Value, expectedType string, node *Node, slotName string) error {
	if val.IsNil() {
		return nil
	}

	var isValid bool
	switch expectedType {
	case "string":
		isValid = val.Kind == value.KindString
	case "int", "integer":
		_, isValid = val.AsInt()
	case "bool", "boolean":
		isValid = val.Kind == value.KindBool
	case "float", "number", "decimal":
		_, isValid = val.AsFloat()
	case "list", "array":
		isValid = val.Kind == value.KindList
	case "map", "object":
		isValid = val.Kind == value.KindMap
	case "function":
		isValid = val.Kind == value.KindFunction
	case "handle":
		isValid = val.Kind == value.KindHandle
	default:
		return nil
	}

	if !isValid {
		attrName := node.Name
		if attrName == slotName {
			attrName = "(main value)"
		}
		return validationError(node, slotName, "type mismatch for '%s'. Expected %s, got %s (%s)", attrName, expectedType, val.TypeName(), val.String())
	}
	return nil
}
