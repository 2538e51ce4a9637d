package value

import "sort"

// List is the mutable backing store of a list value.
type List struct {
	Items []Value
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

func (l *List) Append(items ...Value) {
	l.Items = append(l.Items, items...)
}

// Map is an insertion-ordered string-keyed map.
type Map struct {
	keys    []string
	entries map[string]Value
}

func NewOrderedMap() *Map {
	return &Map{entries: make(map[string]Value)}
}

// MapOf copies m into a new Map with sorted keys.
func MapOf(m map[string]Value) *Map {
	out := &Map{
		keys:    make([]string, 0, len(m)),
		entries: make(map[string]Value, len(m)),
	}
	for k := range m {
		out.keys = append(out.keys, k)
	}
	sort.Strings(out.keys)
	for _, k := range out.keys {
		out.entries[k] = m[k]
	}
	return out
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return NewNil(), false
	}
	v, ok := m.entries[key]
	return v, ok
}

func (m *Map) Set(key string, v Value) {
	if _, exists := m.entries[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

func (m *Map) Delete(key string) {
	if _, exists := m.entries[key]; !exists {
		return
	}
	delete(m.entries, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}
