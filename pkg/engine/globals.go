package engine

import (
	"sort"

	"zenort/pkg/value"
)

// Globals is the program-level binding table: functions and constants
// defined at the top of a script. It is built once before the script starts
// and never written afterwards, so every task reads it without locking.
type Globals struct {
	defs map[string]value.Value
}

// NewGlobals publishes a snapshot of defs. Containers are deep copied so the
// caller cannot mutate the table after publication.
func NewGlobals(defs map[string]value.Value) *Globals {
	g := &Globals{defs: make(map[string]value.Value, len(defs))}
	c := value.NewCloner()
	for k, v := range defs {
		g.defs[k] = c.Clone(v)
	}
	return g
}

// Get returns a binding. Lists and maps come back as private copies so a
// task mutating one never reaches another task.
func (g *Globals) Get(name string) (value.Value, bool) {
	if g == nil {
		return value.NewNil(), false
	}
	v, ok := g.defs[name]
	if !ok {
		return value.NewNil(), false
	}
	if v.Kind == value.KindList || v.Kind == value.KindMap {
		return v.Clone(), true
	}
	return v, true
}

func (g *Globals) Len() int {
	if g == nil {
		return 0
	}
	return len(g.defs)
}

func (g *Globals) Names() []string {
	if g == nil {
		return nil
	}
	names := make([]string, 0, len(g.defs))
	for k := range g.defs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
