package value

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// NewValue creates a Value from any native Go type.
// This is the bridge from Go interface{} to typed Value.
func NewValue(v interface{}) Value {
	if v == nil {
		return NewNil()
	}
	switch val := v.(type) {
	case Value:
		return val
	case bool:
		return NewBool(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return NewInt(cast.ToInt64(val))
	case uint64:
		if val > math.MaxInt64 {
			return NewFloat(float64(val))
		}
		return NewInt(int64(val))
	case float32:
		return NewFloat(float64(val))
	case float64:
		return NewFloat(val)
	case decimal.Decimal:
		return NewDecimal(val)
	case *decimal.Decimal:
		if val == nil {
			return NewNil()
		}
		return NewDecimal(*val)
	case string:
		return NewString(val)
	case []Value:
		return NewList(val...)
	case []interface{}:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = NewValue(item)
		}
		return NewList(items...)
	case []string:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = NewString(item)
		}
		return NewList(items...)
	case map[string]Value:
		return NewMap(val)
	case map[string]interface{}:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			m[k] = NewValue(item)
		}
		return NewMap(m)
	case *List:
		return Value{Kind: KindList, listVal: val}
	case *Map:
		return NewMapOf(val)
	case Func:
		return NewFunction(val)
	case Handle:
		return NewHandle(val)
	case *ErrorValue:
		return NewError(val)
	case error:
		return NewError(AsErrorValue(val))
	case fmt.Stringer:
		return NewString(val.String())
	}

	if s, err := cast.ToSliceE(v); err == nil {
		return NewValue(s)
	}
	if m, err := cast.ToStringMapE(v); err == nil {
		return NewValue(m)
	}
	return NewString(fmt.Sprintf("%v", v))
}

// Native converts a Value back to a Go native type (interface{}).
// Lists and maps become fresh []interface{} / map[string]interface{}; a
// container reached again through a cycle becomes nil.
func (v Value) Native() interface{} {
	return v.native(make(map[interface{}]bool))
}

func (v Value) native(seen map[interface{}]bool) interface{} {
	switch v.Kind {
	case KindNil:
		return nil
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindFloat:
		return v.numVal
	case KindDecimal:
		return v.decVal
	case KindString:
		return v.strVal
	case KindList:
		if v.listVal == nil {
			return []interface{}{}
		}
		if seen[v.listVal] {
			return nil
		}
		seen[v.listVal] = true
		defer delete(seen, v.listVal)
		out := make([]interface{}, len(v.listVal.Items))
		for i, item := range v.listVal.Items {
			out[i] = item.native(seen)
		}
		return out
	case KindMap:
		if v.mapVal == nil {
			return map[string]interface{}{}
		}
		if seen[v.mapVal] {
			return nil
		}
		seen[v.mapVal] = true
		defer delete(seen, v.mapVal)
		out := make(map[string]interface{}, v.mapVal.Len())
		for _, k := range v.mapVal.keys {
			out[k] = v.mapVal.entries[k].native(seen)
		}
		return out
	case KindFunction:
		return v.fnVal
	case KindHandle:
		return v.handleVal
	case KindError:
		return v.errVal
	}
	return nil
}
