package engine

import (
	"fmt"
	"sync/atomic"
)

type Node struct {
	Name     string
	Value    interface{}
	Children []*Node
	Parent   *Node
	Line     int
	Col      int
	Filename string

	// Inline caching: handler and metadata resolved on first execution.
	// Function bodies run on many task threads at once, so the slot is
	// published atomically.
	cached atomic.Pointer[cachedSlot]
}

type cachedSlot struct {
	handler HandlerFunc
	meta    *SlotMeta
}

// Child returns the first direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Location renders file:line:col for error stacks.
func (n *Node) Location() string {
	file := n.Filename
	if file == "" {
		file = "<script>"
	}
	return fmt.Sprintf("%s:%d:%d", file, n.Line, n.Col)
}
