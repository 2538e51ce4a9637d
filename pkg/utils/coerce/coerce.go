package coerce

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// ============================================================================
// SAFE COERCION HELPERS
// Every helper converts a loosely typed script input into a Go type and
// reports failure as an error instead of panicking.
// ============================================================================

// ToInt accepts numeric strings ("123"), whole floats (123.0) and ints.
func ToInt(input interface{}) (int, error) {
	if input == nil {
		return 0, nil
	}
	i, err := cast.ToIntE(input)
	if err != nil {
		return 0, fmt.Errorf("failed to coerce value '%v' (type %T) to int", input, input)
	}
	return i, nil
}

// ToInt64 is ToInt for counters and ids.
func ToInt64(input interface{}) (int64, error) {
	if input == nil {
		return 0, nil
	}
	i, err := cast.ToInt64E(input)
	if err != nil {
		return 0, fmt.Errorf("failed to coerce value '%v' (type %T) to int64", input, input)
	}
	return i, nil
}

// ToFloat64 accepts numeric strings and any integer or float type.
func ToFloat64(input interface{}) (float64, error) {
	if input == nil {
		return 0.0, nil
	}
	f, err := cast.ToFloat64E(input)
	if err != nil {
		return 0.0, fmt.Errorf("failed to coerce value '%v' (type %T) to float64", input, input)
	}
	return f, nil
}

// ToDuration accepts Go duration strings ("250ms", "2s") or a number of
// milliseconds.
func ToDuration(input interface{}) (time.Duration, error) {
	if input == nil {
		return 0, nil
	}
	switch v := input.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err == nil {
			return d, nil
		}
		ms, errNum := cast.ToFloat64E(v)
		if errNum != nil {
			return 0, fmt.Errorf("failed to coerce value '%v' to duration", input)
		}
		return time.Duration(ms * float64(time.Millisecond)), nil
	case time.Duration:
		return v, nil
	}
	ms, err := cast.ToFloat64E(input)
	if err != nil {
		return 0, fmt.Errorf("failed to coerce value '%v' (type %T) to duration", input, input)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

