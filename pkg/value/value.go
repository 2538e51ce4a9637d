package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindList
	KindMap
	KindFunction
	KindHandle
	KindError
)

var kindNames = [...]string{
	KindNil:      "nil",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindDecimal:  "decimal",
	KindString:   "string",
	KindList:     "list",
	KindMap:      "map",
	KindFunction: "function",
	KindHandle:   "handle",
	KindError:    "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value represents any ZenoLang value held by a script or crossing a task
// boundary.
//
// OWNERSHIP: scalars are stored inline and copied with the Value. Lists and
// maps are heap containers owned by whoever holds the Value; they are only
// handed to another task through Clone. Functions, handles and errors are
// immutable or internally synchronized and are shared.
type Value struct {
	Kind Kind

	boolVal bool
	intVal  int64
	numVal  float64
	strVal  string
	decVal  decimal.Decimal

	listVal   *List
	mapVal    *Map
	fnVal     Func
	handleVal Handle
	errVal    *ErrorValue
}

// Helper constructors

func NewNil() Value {
	return Value{Kind: KindNil}
}

func NewBool(b bool) Value {
	return Value{Kind: KindBool, boolVal: b}
}

func NewInt(i int64) Value {
	return Value{Kind: KindInt, intVal: i}
}

func NewFloat(f float64) Value {
	return Value{Kind: KindFloat, numVal: f}
}

func NewDecimal(d decimal.Decimal) Value {
	return Value{Kind: KindDecimal, decVal: d}
}

func NewString(s string) Value {
	return Value{Kind: KindString, strVal: s}
}

// NewList wraps items without copying them.
func NewList(items ...Value) Value {
	return Value{Kind: KindList, listVal: &List{Items: items}}
}

// NewMap builds an ordered map from m. Keys are sorted so the result does not
// depend on Go map iteration order.
func NewMap(m map[string]Value) Value {
	return Value{Kind: KindMap, mapVal: MapOf(m)}
}

// NewMapOf wraps an existing Map.
func NewMapOf(m *Map) Value {
	if m == nil {
		m = NewOrderedMap()
	}
	return Value{Kind: KindMap, mapVal: m}
}

func NewFunction(f Func) Value {
	if f == nil {
		return NewNil()
	}
	return Value{Kind: KindFunction, fnVal: f}
}

func NewHandle(h Handle) Value {
	if h == nil {
		return NewNil()
	}
	return Value{Kind: KindHandle, handleVal: h}
}

func NewError(e *ErrorValue) Value {
	if e == nil {
		return NewNil()
	}
	return Value{Kind: KindError, errVal: e}
}

// Type-safe accessors

func (v Value) IsNil() bool {
	return v.Kind == KindNil
}

func (v Value) AsBool() (bool, bool) {
	if v.Kind == KindBool {
		return v.boolVal, true
	}
	return false, false
}

func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.intVal, true
	case KindFloat:
		if v.numVal == float64(int64(v.numVal)) {
			return int64(v.numVal), true
		}
	case KindDecimal:
		if v.decVal.IsInteger() {
			return v.decVal.IntPart(), true
		}
	}
	return 0, false
}

// AsFloat widens ints and decimals.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.numVal, true
	case KindInt:
		return float64(v.intVal), true
	case KindDecimal:
		return v.decVal.InexactFloat64(), true
	}
	return 0, false
}

func (v Value) AsDecimal() (decimal.Decimal, bool) {
	switch v.Kind {
	case KindDecimal:
		return v.decVal, true
	case KindInt:
		return decimal.NewFromInt(v.intVal), true
	case KindFloat:
		return decimal.NewFromFloat(v.numVal), true
	}
	return decimal.Zero, false
}

func (v Value) AsString() (string, bool) {
	if v.Kind == KindString {
		return v.strVal, true
	}
	return "", false
}

func (v Value) AsList() (*List, bool) {
	if v.Kind == KindList && v.listVal != nil {
		return v.listVal, true
	}
	return nil, false
}

func (v Value) AsMap() (*Map, bool) {
	if v.Kind == KindMap && v.mapVal != nil {
		return v.mapVal, true
	}
	return nil, false
}

func (v Value) AsFunction() (Func, bool) {
	if v.Kind == KindFunction && v.fnVal != nil {
		return v.fnVal, true
	}
	return nil, false
}

func (v Value) AsHandle() (Handle, bool) {
	if v.Kind == KindHandle && v.handleVal != nil {
		return v.handleVal, true
	}
	return nil, false
}

func (v Value) AsError() (*ErrorValue, bool) {
	if v.Kind == KindError && v.errVal != nil {
		return v.errVal, true
	}
	return nil, false
}

// Truthy follows the usual scripting rules: nil, false, zero, "" and empty
// containers are false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal != 0
	case KindFloat:
		return v.numVal != 0
	case KindDecimal:
		return !v.decVal.IsZero()
	case KindString:
		return v.strVal != "" && v.strVal != "false"
	case KindList:
		return v.listVal != nil && len(v.listVal.Items) > 0
	case KindMap:
		return v.mapVal != nil && v.mapVal.Len() > 0
	default:
		return true
	}
}

// TypeName is the name scripts see, e.g. in error messages.
func (v Value) TypeName() string {
	if v.Kind == KindHandle && v.handleVal != nil {
		return v.handleVal.HandleType()
	}
	return v.Kind.String()
}

// String returns a string representation for printing and debugging.
func (v Value) String() string {
	var b strings.Builder
	v.format(&b, 0)
	return b.String()
}

const maxFormatDepth = 32

func (v Value) format(b *strings.Builder, depth int) {
	if depth > maxFormatDepth {
		b.WriteString("...")
		return
	}
	switch v.Kind {
	case KindNil:
		b.WriteString("nil")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.boolVal))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.intVal, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.numVal, 'g', -1, 64))
	case KindDecimal:
		b.WriteString(v.decVal.String())
	case KindString:
		b.WriteString(v.strVal)
	case KindList:
		b.WriteByte('[')
		if v.listVal != nil {
			for i, item := range v.listVal.Items {
				if i > 0 {
					b.WriteString(", ")
				}
				item.formatNested(b, depth+1)
			}
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		if v.mapVal != nil {
			for i, k := range v.mapVal.keys {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(k)
				b.WriteString(": ")
				v.mapVal.entries[k].formatNested(b, depth+1)
			}
		}
		b.WriteByte('}')
	case KindFunction:
		fmt.Fprintf(b, "<fn %s>", v.fnVal.FuncName())
	case KindHandle:
		fmt.Fprintf(b, "<%s>", v.handleVal.HandleType())
	case KindError:
		b.WriteString(v.errVal.Error())
	default:
		b.WriteString("unknown")
	}
}

// formatNested quotes strings inside containers so ["a b"] stays readable.
func (v Value) formatNested(b *strings.Builder, depth int) {
	if v.Kind == KindString {
		b.WriteString(strconv.Quote(v.strVal))
		return
	}
	v.format(b, depth)
}
