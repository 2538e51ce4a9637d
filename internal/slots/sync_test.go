package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenort/pkg/syncx"
	"zenort/pkg/value"
)

func TestMutexCounterAcrossTasks(t *testing.T) {
	ec, err := runScript(t, `
fn: add_one {
  param: $current
  math.calc: $current + 1 {
    as: $next
  }
  return: $next
}

fn: worker {
  param: $m
  for: 50 {
    mutex.with_lock: $m {
      call: add_one
    }
  }
}

mutex.make: 0 {
  as: $m
}
for: 4 {
  task.spawn: worker {
    arg: $m
    as: $h
  }
  list.push: $handles {
    val: $h
  }
}
task.join_all: $handles
mutex.with_lock: $m {
  do {
    $seen: $value
  }
}
`)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.NewInt(200), mustGet(t, ec, "seen")))
}

func TestMutexDoBlockUpdatesValue(t *testing.T) {
	ec, err := runScript(t, `
mutex.make: [1] {
  as: $m
}
mutex.with_lock: $m {
  bind: $items
  as: $now
  do {
    list.push: $items {
      val: 2
    }
  }
}
`)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", mustGet(t, ec, "now").String())
}

func TestMutexReentryRaisesLockError(t *testing.T) {
	ec, err := runScript(t, `
mutex.make: 0 {
  as: $m
}
try {
  do {
    mutex.with_lock: $m {
      do {
        mutex.with_lock: $m {
          do {
            $value: 1
          }
        }
      }
    }
  }
  catch {
    scope.set: $kind {
      val: $error.type
    }
  }
}
mutex.with_lock: $m {
  as: $after
  do {
    $value: $value
  }
}
`)
	require.NoError(t, err)
	assert.Equal(t, syncx.ErrReentrantLock.Type, mustGet(t, ec, "kind").String())
	// The failed update left the value alone and released the lock.
	assert.True(t, value.Equal(value.NewInt(0), mustGet(t, ec, "after")))
}

func TestAtomicSlots(t *testing.T) {
	ec, err := runScript(t, `
atomic.make: 10 {
  as: $c
}
atomic.fetch_add: $c {
  by: 5
  as: $before_add
}
atomic.fetch_sub: $c {
  as: $before_sub
}
atomic.load: $c {
  as: $mid
}
atomic.store: $c {
  val: 100
}
atomic.load: $c
`)
	require.NoError(t, err)

	assert.True(t, value.Equal(value.NewInt(10), mustGet(t, ec, "before_add")))
	assert.True(t, value.Equal(value.NewInt(15), mustGet(t, ec, "before_sub")))
	assert.True(t, value.Equal(value.NewInt(14), mustGet(t, ec, "mid")))
	assert.True(t, value.Equal(value.NewInt(100), mustGet(t, ec, "value")))
}

func TestAtomicRejectsNonCounter(t *testing.T) {
	_, err := runScript(t, `
$c: 3
atomic.fetch_add: $c
`)
	require.Error(t, err)
	assert.Equal(t, "TypeError", value.AsErrorValue(err).Type)
}
