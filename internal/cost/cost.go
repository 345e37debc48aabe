// Package cost provides duration functions that map a task identifier to the
// number of time units it occupies a worker. Every function is pure: the same
// identifier always yields the same duration for the whole run.
package cost

import (
	"errors"
	"fmt"
)

// ErrUnknownTask is returned when a duration function has no value for a
// task identifier.
var ErrUnknownTask = errors.New("no duration for task")

// Func returns the duration of a task. It must be total over the task
// universe it is used with; identifiers it cannot price yield an error
// wrapping ErrUnknownTask.
type Func[T any] func(id T) (int, error)

// Constant prices every task at d.
func Constant[T any](d int) Func[T] {
	return func(T) (int, error) { return d, nil }
}

// Letter prices single-letter identifiers by their position in the alphabet:
// base + step*n, where n is 1 for "A", 2 for "B" and so on. With base 60 and
// step 1, "A" costs 61 and "Z" costs 86. Lowercase letters are accepted and
// priced like their uppercase form.
func Letter(base, step int) Func[string] {
	return func(id string) (int, error) {
		if len(id) != 1 {
			return 0, fmt.Errorf("%w: %q is not a single letter", ErrUnknownTask, id)
		}
		c := id[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("%w: %q is not a letter", ErrUnknownTask, id)
		}
		return base + step*int(c-'A'+1), nil
	}
}

// Table prices tasks from an explicit map. The map is copied.
func Table[T comparable](durations map[T]int) Func[T] {
	m := make(map[T]int, len(durations))
	for k, v := range durations {
		m[k] = v
	}
	return func(id T) (int, error) {
		d, ok := m[id]
		if !ok {
			return 0, fmt.Errorf("%w: %v", ErrUnknownTask, id)
		}
		return d, nil
	}
}

// Fallback tries primary first and consults secondary only when primary
// reports ErrUnknownTask. Any other error from primary is returned as is.
func Fallback[T any](primary, secondary Func[T]) Func[T] {
	return func(id T) (int, error) {
		d, err := primary(id)
		if errors.Is(err, ErrUnknownTask) {
			return secondary(id)
		}
		return d, err
	}
}
