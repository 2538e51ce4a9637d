package value

// Cloner deep-copies values for task isolation.
//
// One Cloner should be used for everything copied into the same destination
// (for example all bindings of one execution context): containers reachable
// from several places are copied once, so aliasing and cycles inside the
// source are reproduced inside the copy and never point back at the source.
type Cloner struct {
	lists map[*List]*List
	maps  map[*Map]*Map
}

func NewCloner() *Cloner {
	return &Cloner{}
}

// Clone applies the per-kind copy policy:
//   - nil, bool, int, float, decimal, string: copied by value
//   - list, map: deep copy
//   - error: copied, with its payload deep-copied
//   - function: shared (immutable)
//   - handle: Handle.CopyPolicy decides
func (c *Cloner) Clone(v Value) Value {
	switch v.Kind {
	case KindList:
		if v.listVal == nil {
			return NewList()
		}
		if dst, ok := c.lists[v.listVal]; ok {
			return Value{Kind: KindList, listVal: dst}
		}
		if c.lists == nil {
			c.lists = make(map[*List]*List)
		}
		dst := &List{Items: make([]Value, len(v.listVal.Items))}
		c.lists[v.listVal] = dst
		for i, item := range v.listVal.Items {
			dst.Items[i] = c.Clone(item)
		}
		return Value{Kind: KindList, listVal: dst}

	case KindMap:
		if v.mapVal == nil {
			return NewMapOf(nil)
		}
		if dst, ok := c.maps[v.mapVal]; ok {
			return Value{Kind: KindMap, mapVal: dst}
		}
		if c.maps == nil {
			c.maps = make(map[*Map]*Map)
		}
		src := v.mapVal
		dst := &Map{
			keys:    make([]string, len(src.keys)),
			entries: make(map[string]Value, len(src.entries)),
		}
		c.maps[src] = dst
		copy(dst.keys, src.keys)
		for _, k := range src.keys {
			dst.entries[k] = c.Clone(src.entries[k])
		}
		return Value{Kind: KindMap, mapVal: dst}

	case KindError:
		if v.errVal == nil {
			return v
		}
		return Value{Kind: KindError, errVal: c.CloneError(v.errVal)}

	case KindHandle:
		if v.handleVal.CopyPolicy() == CloneHandle {
			if ch, ok := v.handleVal.(ClonableHandle); ok {
				return NewHandle(ch.CloneHandle())
			}
		}
		return v

	default:
		return v
	}
}

// CloneError copies e with its own stack and a deep copy of its payload.
// Type, message, thread marker and cause are kept, so errors.Is still matches.
func (c *Cloner) CloneError(e *ErrorValue) *ErrorValue {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Payload = c.Clone(e.Payload)
	if e.Stack != nil {
		cp.Stack = append([]string(nil), e.Stack...)
	}
	return &cp
}

// CloneAll copies a slice of values with one shared Cloner.
func (c *Cloner) CloneAll(vs []Value) []Value {
	if vs == nil {
		return nil
	}
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = c.Clone(v)
	}
	return out
}

// Clone is shorthand for NewCloner().Clone(v).
func (v Value) Clone() Value {
	return NewCloner().Clone(v)
}
