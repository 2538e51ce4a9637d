package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"

	"zenort/pkg/value"
)

type HandlerFunc func(ctx context.Context, node *Node, ec *ExecutionContext) error

type InputMeta struct {
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type,omitempty"` // e.g. "string", "int", "function"
}

// SlotMeta documents a slot and drives attribute validation.
type SlotMeta struct {
	Description    string               `json:"description"`
	Example        string               `json:"example"`
	Inputs         map[string]InputMeta `json:"inputs,omitempty"`
	RequiredBlocks []string             `json:"required_blocks,omitempty"` // e.g. ["do"], ["then", "else"]
	ValueType      string               `json:"value_type,omitempty"`
}

// Children with these names are blocks, not attributes.
var blockNames = map[string]bool{
	"":      true,
	"do":    true,
	"then":  true,
	"else":  true,
	"catch": true,
}

// IsBlockName reports whether a child with this name is a block rather than
// an attribute.
func IsBlockName(name string) bool {
	return blockNames[name]
}

// Engine holds the slot registry. Registration happens before any script
// runs; afterwards the maps are only read, from any number of threads.
type Engine struct {
	Registry map[string]HandlerFunc
	Docs     map[string]SlotMeta
}

func NewEngine() *Engine {
	return &Engine{
		Registry: make(map[string]HandlerFunc),
		Docs:     make(map[string]SlotMeta),
	}
}

func (e *Engine) Register(name string, fn HandlerFunc, meta SlotMeta) {
	e.Registry[name] = fn
	e.Docs[name] = meta
}

// Execute runs one node. A panic inside a slot is recovered and returned as
// a panic Diagnostic so a faulty slot fails its thread instead of the
// process.
func (e *Engine) Execute(ctx context.Context, node *Node, ec *ExecutionContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())

			slog.Error("🔥 PANIC RECOVERED IN EXECUTOR",
				"panic", r,
				"slot", node.Name,
				"file", node.Filename,
				"line", node.Line,
				"col", node.Col,
				"stack", stack,
			)

			err = Diagnostic{
				Type:     "panic",
				Message:  fmt.Sprintf("PANIC: %v\n\nStack Trace:\n%s", r, stack),
				Filename: node.Filename,
				Line:     node.Line,
				Col:      node.Col,
				Slot:     node.Name,
				Err:      value.NewErrorValue(value.TypePanic, fmt.Sprint(r)),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	// Fast path: handler cached on the node.
	if slot := node.cached.Load(); slot != nil {
		return e.wrap(node, slot.handler(ctx, node, ec))
	}

	if handler, exists := e.Registry[node.Name]; exists {
		slot := &cachedSlot{handler: handler}
		if meta, hasMeta := e.Docs[node.Name]; hasMeta {
			metaCopy := meta
			slot.meta = &metaCopy
			if err := e.validate(node, slot.meta, ec); err != nil {
				return err
			}
		}
		node.cached.Store(slot)
		return e.wrap(node, handler(ctx, node, ec))
	}

	// Variable shorthand: $name: value
	if len(node.Name) > 1 && strings.HasPrefix(node.Name, "$") {
		ec.Set(strings.TrimPrefix(node.Name, "$"), e.ResolveValue(node, ec))
		return nil
	}

	if len(node.Children) == 0 && !blockNames[node.Name] && node.Name != "root" {
		return Diagnostic{
			Type:     "error",
			Message:  fmt.Sprintf("unknown slot '%s'", node.Name),
			Filename: node.Filename,
			Line:     node.Line,
			Col:      node.Col,
			Slot:     node.Name,
		}
	}

	// Unnamed and block nodes run their children in order.
	return e.ExecuteBlock(ctx, node, ec)
}

// ExecuteBlock runs the children of node in order, stopping at the first
// error.
func (e *Engine) ExecuteBlock(ctx context.Context, node *Node, ec *ExecutionContext) error {
	if node == nil {
		return nil
	}
	for _, child := range node.Children {
		if err := e.Execute(ctx, child, ec); err != nil {
			return err
		}
	}
	return nil
}

// wrap attaches the node position to a slot error. Errors that already
// carry meaning for the script pass through untouched: control flow, raised
// script errors and diagnostics from nested nodes.
func (e *Engine) wrap(node *Node, err error) error {
	if err == nil || IsControlFlow(err) {
		return err
	}
	var ev *value.ErrorValue
	if errors.As(err, &ev) {
		return err
	}
	var diag Diagnostic
	if errors.As(err, &diag) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return diagnosticAt(node, err)
}

func (e *Engine) validate(node *Node, meta *SlotMeta, ec *ExecutionContext) error {
	// 1. Unknown attributes, only when Inputs is declared.
	if meta.Inputs != nil {
		for _, child := range node.Children {
			if blockNames[child.Name] {
				continue
			}
			if _, allowed := meta.Inputs[child.Name]; !allowed {
				allowedKeys := make([]string, 0, len(meta.Inputs))
				for k := range meta.Inputs {
					allowedKeys = append(allowedKeys, k)
				}
				sort.Strings(allowedKeys)
				return validationError(child, node.Name, "unknown attribute '%s'. Allowed attributes: %s", child.Name, strings.Join(allowedKeys, ", "))
			}
		}
	}

	// 2. Required attributes and declared types.
	for name, input := range meta.Inputs {
		attr := node.Child(name)
		if attr == nil {
			if input.Required {
				return validationError(node, node.Name, "missing required attribute '%s'", name)
			}
			continue
		}
		if input.Type != "" && input.Type != "any" {
			val := e.ResolveValue(attr, ec)
			if err := e.ValidateValueType(val, input.Type, attr, node.Name); err != nil {
				return err
			}
		}
	}

	// 3. Required blocks.
	for _, blockName := range meta.RequiredBlocks {
		if node.Child(blockName) == nil {
			return validationError(node, node.Name, "missing required block '%s:'", blockName)
		}
	}
	return nil
}

func (e *Engine) GetDocumentation() map[string]SlotMeta {
	return e.Docs
}

// GetSortedSlotNames lists registered slots by name.
func (e *Engine) GetSortedSlotNames() []string {
	keys := make([]string, 0, len(e.Docs))
	for k := range e.Docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
