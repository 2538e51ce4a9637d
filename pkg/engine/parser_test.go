package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenort/pkg/value"
)

func TestParseBlocksAndValues(t *testing.T) {
	src := `
# comment
fn: worker {
  param: $n
  return: $n
}
$items: [1, 2, "three"]
log: "hello, world"
`
	root, err := ParseString(src)
	require.NoError(t, err)
	require.Len(t, root.Children, 3)

	fn := root.Children[0]
	assert.Equal(t, "fn", fn.Name)
	assert.Equal(t, "worker", RawString(fn.Value))
	require.Len(t, fn.Children, 2)
	assert.Same(t, fn, fn.Children[0].Parent)

	items := ResolveRaw(root.Children[1].Value, nil)
	require.Equal(t, value.KindList, items.Kind)
	assert.Equal(t, `[1, 2, "three"]`, items.String())

	msg := ResolveRaw(root.Children[2].Value, nil)
	assert.Equal(t, "hello, world", msg.String())
}

func TestParseLexicalError(t *testing.T) {
	_, err := ParseString("x: @")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lexical error")
}

func TestResolveLiterals(t *testing.T) {
	ec := NewExecutionContext(nil)
	ec.Set("name", value.NewString("zeno"))

	tests := []struct {
		raw  string
		want value.Value
	}{
		{"\x0042", value.NewInt(42)},
		{"\x00-7", value.NewInt(-7)},
		{"\x001.5", value.NewFloat(1.5)},
		{"\x00true", value.NewBool(true)},
		{"\x00nil", value.NewNil()},
		{`"42"`, value.NewString("42")},
		{"\x00$name", value.NewString("zeno")},
		{"\x00$missing", value.NewNil()},
		{"$missing ?? fallback", value.NewString("fallback")},
		{"\x00worker", value.NewString("worker")},
		{"$a + 1", value.NewString("$a + 1")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ResolveRaw(tt.raw, ec)
			assert.True(t, value.Equal(tt.want, got), "got %s (%s)", got.String(), got.TypeName())
		})
	}
}

func TestLoadScriptCachesAndIncludes(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.zl")
	main := filepath.Join(dir, "main.zl")
	require.NoError(t, os.WriteFile(lib, []byte("fn: helper {\n  return: 1\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(main, []byte("include: \""+lib+"\"\nlog: done\n"), 0o644))

	root, err := LoadScript(main)
	require.NoError(t, err)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "fn", root.Children[0].Name)
	assert.Same(t, root, root.Children[0].Parent)

	again, err := LoadScript(main)
	require.NoError(t, err)
	assert.Same(t, root, again)
}
