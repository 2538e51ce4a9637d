package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneDeepCopiesContainers(t *testing.T) {
	inner := NewList(NewInt(1))
	src := NewMap(map[string]Value{"inner": inner})

	cp := src.Clone()
	require.True(t, Equal(src, cp))

	cpMap, _ := cp.AsMap()
	cpInner, _ := cpMap.Get("inner")
	l, _ := cpInner.AsList()
	l.Append(NewInt(2))

	orig, _ := inner.AsList()
	assert.Equal(t, 1, orig.Len(), "mutating the copy must not reach the source")
}

func TestClonePreservesSharingAndCycles(t *testing.T) {
	shared := NewList(NewInt(1))
	outer := NewList(shared, shared)
	outerList, _ := outer.AsList()
	outerList.Append(outer) // self reference

	cp := outer.Clone()
	cpList, _ := cp.AsList()

	a, _ := cpList.Items[0].AsList()
	b, _ := cpList.Items[1].AsList()
	self, _ := cpList.Items[2].AsList()
	srcShared, _ := shared.AsList()

	assert.Same(t, a, b, "aliasing inside the source is kept inside the copy")
	assert.NotSame(t, srcShared, a)
	assert.Same(t, cpList, self, "cycle points at the copy, not the source")
}

func TestCloneHandlePolicies(t *testing.T) {
	box := &sharedBox{n: 1}
	cur := &cursor{pos: 5}

	sharedCopy := NewHandle(box).Clone()
	h, _ := sharedCopy.AsHandle()
	assert.Same(t, box, h)

	clonedCopy := NewHandle(cur).Clone()
	h2, _ := clonedCopy.AsHandle()
	assert.NotSame(t, cur, h2)
	assert.Equal(t, 5, h2.(*cursor).pos)
}

func TestCloneSharesFunctions(t *testing.T) {
	fn := &NativeFunc{Name: "f"}

	f, _ := NewFunction(fn).Clone().AsFunction()
	assert.Same(t, fn, f)
}

func TestCloneCopiesErrorPayload(t *testing.T) {
	payload := NewList(NewInt(1))
	ev := NewErrorValue("ValueError", "bad input").CrossedFrom(3)
	ev.Payload = payload
	ev.Stack = []string{"main.zl:4"}

	e, ok := NewError(ev).Clone().AsError()
	require.True(t, ok)
	assert.NotSame(t, ev, e)
	assert.True(t, errors.Is(e, ev))
	assert.Equal(t, int64(3), e.Thread)
	assert.Equal(t, ev.Stack, e.Stack)

	src, _ := payload.AsList()
	src.Append(NewInt(2))
	cp, _ := e.Payload.AsList()
	assert.Equal(t, 1, cp.Len(), "the copy does not follow the source payload")

	e.Stack[0] = "changed"
	assert.Equal(t, "main.zl:4", ev.Stack[0])
}

func TestCloneErrorKeepsAliasingWithBindings(t *testing.T) {
	shared := NewList(NewInt(1))
	ev := NewErrorValue("ValueError", "m")
	ev.Payload = shared

	c := NewCloner()
	l := c.Clone(shared)
	e, _ := c.Clone(NewError(ev)).AsError()

	a, _ := l.AsList()
	b, _ := e.Payload.AsList()
	assert.Same(t, a, b, "one cloner copies a container reachable twice once")
}
