package resp

import "sort"

// Pair is one key/value entry of a Map.
type Pair struct {
	Key   string
	Value Frame
}

// Map associates text keys with frames. Keys are unique and every
// traversal, including encoding, visits them in ascending order.
//
// A Map is a value: there is no in-place mutator, With returns a copy.
// The zero Map is empty and ready to use.
type Map struct {
	entries map[string]Frame
}

// NewMap builds a Map from pairs. A later pair overwrites an earlier
// one with the same key.
func NewMap(pairs ...Pair) Map {
	entries := make(map[string]Frame, len(pairs))
	for _, p := range pairs {
		entries[p.Key] = p.Value
	}
	return Map{entries: entries}
}

// MapOf copies m into a new Map.
func MapOf(m map[string]Frame) Map {
	entries := make(map[string]Frame, len(m))
	for k, v := range m {
		entries[k] = v
	}
	return Map{entries: entries}
}

func (m Map) Len() int {
	return len(m.entries)
}

func (m Map) Get(key string) (Frame, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// With returns a copy of m where key maps to value.
func (m Map) With(key string, value Frame) Map {
	entries := make(map[string]Frame, len(m.entries)+1)
	for k, v := range m.entries {
		entries[k] = v
	}
	entries[key] = value
	return Map{entries: entries}
}

// Keys returns the keys in ascending order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pairs returns the entries in ascending key order.
func (m Map) Pairs() []Pair {
	keys := m.Keys()
	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = Pair{Key: k, Value: m.entries[k]}
	}
	return pairs
}

// Range calls fn for each entry in ascending key order until fn
// returns false.
func (m Map) Range(fn func(key string, value Frame) bool) {
	for _, k := range m.Keys() {
		if !fn(k, m.entries[k]) {
			return
		}
	}
}
