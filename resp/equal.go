package resp

import (
	"bytes"
	"math"
)

// Equal reports whether a and b are the same value. Nil and empty
// containers are equal. Doubles compare bit for bit, so 0.0 and -0.0
// differ, except that any NaN equals any other NaN.
func Equal(a, b Frame) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case BulkString:
		bv, ok := b.(BulkString)
		return ok && bytes.Equal(av, bv)
	case Double:
		bv, ok := b.(Double)
		if !ok {
			return false
		}
		x, y := float64(av), float64(bv)
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.IsNaN(x) && math.IsNaN(y)
		}
		return math.Float64bits(x) == math.Float64bits(y)
	case Array:
		bv, ok := b.(Array)
		return ok && equalElements(av, bv)
	case Set:
		bv, ok := b.(Set)
		return ok && equalElements(av, bv)
	case Map:
		bv, ok := b.(Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for k, v := range av.entries {
			w, ok := bv.entries[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	// the remaining variants are comparable scalars
	return a == b
}

func equalElements(a, b []Frame) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
