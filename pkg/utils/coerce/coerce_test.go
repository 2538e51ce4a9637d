package coerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDuration(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  time.Duration
	}{
		{"nil", nil, 0},
		{"duration string", "250ms", 250 * time.Millisecond},
		{"seconds", "2s", 2 * time.Second},
		{"numeric string is milliseconds", "40", 40 * time.Millisecond},
		{"int is milliseconds", int64(15), 15 * time.Millisecond},
		{"float is milliseconds", 1.5, 1500 * time.Microsecond},
		{"duration passes through", 3 * time.Second, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ToDuration("soon")
	assert.Error(t, err)
}

func TestToInt(t *testing.T) {
	n, err := ToInt("123")
	require.NoError(t, err)
	assert.Equal(t, 123, n)

	n64, err := ToInt64(float64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n64)

	_, err = ToInt("seven")
	assert.Error(t, err)

	f, err := ToFloat64("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
}
