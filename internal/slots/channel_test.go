package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedChannelPipeline(t *testing.T) {
	ec, err := runScript(t, `
fn: produce {
  param: $tx
  for: 5 {
    as: $i
    do {
      channel.send: $tx {
        val: $i
      }
    }
  }
  channel.close: $tx
}

channel.make: 1 {
  sender: $tx
  receiver: $rx
}
task.spawn: produce {
  arg: $tx
  as: $p
}

$got: []
$running: true
while: $running {
  channel.recv: $rx {
    as: $msg
    status: $st
  }
  if: $st == "ok" {
    then {
      list.push: $got {
        val: $msg
      }
    }
    else {
      $running: false
    }
  }
}
task.join: $p
channel.is_closed: $rx {
  as: $closed
}
`)
	require.NoError(t, err)

	assert.Equal(t, "[0, 1, 2, 3, 4]", mustGet(t, ec, "got").String())
	assert.Equal(t, "closed", mustGet(t, ec, "st").String())
	assert.True(t, mustGet(t, ec, "msg").IsNil())
	assert.True(t, mustGet(t, ec, "closed").Truthy())
}

func TestReceiveStatuses(t *testing.T) {
	ec, err := runScript(t, `
channel.make: 1 {
  sender: $tx
  receiver: $rx
}

channel.try_recv: $rx {
  status: $empty
}
channel.recv_timeout: $rx {
  timeout: 10ms
  status: $timed_out
}

channel.try_send: $tx {
  val: "a"
  as: $first
}
channel.try_send: $tx {
  val: "b"
  as: $second
}
channel.try_recv: $rx {
  as: $value
  status: $ready
}

channel.close: $rx
channel.try_send: $tx {
  val: "c"
  as: $after_close
}
channel.recv: $rx
`)
	require.NoError(t, err)

	assert.Equal(t, "empty", mustGet(t, ec, "empty").String())
	assert.Equal(t, "timeout", mustGet(t, ec, "timed_out").String())
	assert.True(t, mustGet(t, ec, "first").Truthy())
	assert.False(t, mustGet(t, ec, "second").Truthy(), "capacity 1 is full")
	assert.Equal(t, "ok", mustGet(t, ec, "ready").String())
	assert.Equal(t, "a", mustGet(t, ec, "value").String())
	assert.False(t, mustGet(t, ec, "after_close").Truthy())
	assert.Equal(t, "closed", mustGet(t, ec, "status").String())
}

func TestSendOnClosedChannelRaises(t *testing.T) {
	ec, err := runScript(t, `
channel.make {
  sender: $tx
  receiver: $rx
}
channel.close: $tx
try {
  as: $e
  do {
    channel.send: $tx {
      val: 1
    }
  }
  catch {
    scope.set: $kind {
      val: $e.type
    }
  }
}
`)
	require.NoError(t, err)
	assert.Equal(t, "ChannelClosed", mustGet(t, ec, "kind").String())
}

func TestChannelMakeRejectsNegativeCapacity(t *testing.T) {
	_, err := runScript(t, `channel.make: -1`)
	require.Error(t, err)
}
