package value

type visitKey struct {
	a, b interface{}
}

// Equal reports deep structural equality. Ints, floats and decimals compare
// numerically; handles and functions compare by identity; errors compare by
// type and message.
func Equal(a, b Value) bool {
	return equal(a, b, make(map[visitKey]bool))
}

func equal(a, b Value, seen map[visitKey]bool) bool {
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		return numericEqual(a, b)
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindString:
		return a.strVal == b.strVal
	case KindList:
		if a.listVal == b.listVal {
			return true
		}
		k := visitKey{a.listVal, b.listVal}
		if seen[k] {
			return true
		}
		seen[k] = true
		if a.listVal.Len() != b.listVal.Len() {
			return false
		}
		for i := range a.listVal.Items {
			if !equal(a.listVal.Items[i], b.listVal.Items[i], seen) {
				return false
			}
		}
		return true
	case KindMap:
		if a.mapVal == b.mapVal {
			return true
		}
		k := visitKey{a.mapVal, b.mapVal}
		if seen[k] {
			return true
		}
		seen[k] = true
		if a.mapVal.Len() != b.mapVal.Len() {
			return false
		}
		for _, key := range a.mapVal.keys {
			other, ok := b.mapVal.entries[key]
			if !ok || !equal(a.mapVal.entries[key], other, seen) {
				return false
			}
		}
		return true
	case KindFunction:
		return a.fnVal == b.fnVal
	case KindHandle:
		return a.handleVal == b.handleVal
	case KindError:
		return a.errVal.Is(b.errVal)
	}
	return false
}

func isNumeric(k Kind) bool {
	return k == KindInt || k == KindFloat || k == KindDecimal
}

func numericEqual(a, b Value) bool {
	if a.Kind == KindInt && b.Kind == KindInt {
		return a.intVal == b.intVal
	}
	if a.Kind == KindDecimal || b.Kind == KindDecimal {
		da, _ := a.AsDecimal()
		db, _ := b.AsDecimal()
		return da.Equal(db)
	}
	fa, _ := a.AsFloat()
	fb, _ := b.AsFloat()
	return fa == fb
}
