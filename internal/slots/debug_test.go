package slots

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintFromTasks(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })

	_, err := runScript(t, `
fn: shout {
  param: $n
  print: "task" {
    val: $n
  }
}
for: 4 {
  task.spawn: shout {
    arg: $item
  }
}
print: done
debug.dump: [1, "a"]
`)
	require.NoError(t, err)

	out := buf.String()
	for _, line := range []string{"task 0\n", "task 1\n", "task 2\n", "task 3\n", "done\n"} {
		assert.Contains(t, out, line)
	}
	assert.Contains(t, out, `🔍 [DEBUG] [1, "a"] (list)`)
}
