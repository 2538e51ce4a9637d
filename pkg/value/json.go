package value

import (
	"zenort/pkg/fastjson"
)

// MarshalJSON encodes lists, maps and scalars as plain JSON. Functions and
// handles have no JSON form and are written as their display string.
func (v Value) MarshalJSON() ([]byte, error) {
	return fastjson.Marshal(v.jsonNative(make(map[interface{}]bool)))
}

func (v Value) jsonNative(seen map[interface{}]bool) interface{} {
	switch v.Kind {
	case KindList:
		if v.listVal == nil || seen[v.listVal] {
			return []interface{}{}
		}
		seen[v.listVal] = true
		defer delete(seen, v.listVal)
		out := make([]interface{}, len(v.listVal.Items))
		for i, item := range v.listVal.Items {
			out[i] = item.jsonNative(seen)
		}
		return out
	case KindMap:
		if v.mapVal == nil || seen[v.mapVal] {
			return map[string]interface{}{}
		}
		seen[v.mapVal] = true
		defer delete(seen, v.mapVal)
		out := make(map[string]interface{}, v.mapVal.Len())
		for _, k := range v.mapVal.keys {
			out[k] = v.mapVal.entries[k].jsonNative(seen)
		}
		return out
	case KindFunction, KindHandle:
		return v.String()
	case KindError:
		out := map[string]interface{}{
			"type":    v.errVal.Type,
			"message": v.errVal.Message,
		}
		if v.errVal.Thread != 0 {
			out["thread"] = v.errVal.Thread
		}
		return out
	default:
		return v.Native()
	}
}

// ParseJSON decodes a JSON document into a Value. Whole numbers become ints.
func ParseJSON(data []byte) (Value, error) {
	var raw interface{}
	if err := fastjson.Unmarshal(data, &raw); err != nil {
		return NewNil(), err
	}
	return fromJSON(raw), nil
}

func fromJSON(raw interface{}) Value {
	switch val := raw.(type) {
	case float64:
		if val == float64(int64(val)) {
			return NewInt(int64(val))
		}
		return NewFloat(val)
	case []interface{}:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = fromJSON(item)
		}
		return NewList(items...)
	case map[string]interface{}:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			m[k] = fromJSON(item)
		}
		return NewMap(m)
	default:
		return NewValue(val)
	}
}
