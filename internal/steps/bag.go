package steps

import (
	"encoding/json"
	"maps"
	"sort"
)

// Bag is the result mapping threaded through a pipeline run. Values are
// strings, numbers or Status values.
type Bag map[string]any

// Clone returns a shallow copy. A nil Bag clones to an empty one.
func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	maps.Copy(out, b)
	return out
}

// Merge returns a new Bag holding b overlaid with updates. Later values win.
func (b Bag) Merge(updates Bag) Bag {
	out := b.Clone()
	maps.Copy(out, updates)
	return out
}

// With returns a new Bag with a single key set.
func (b Bag) With(key string, value any) Bag {
	return b.Merge(Bag{key: value})
}

// Has reports whether key is present with a non-nil value.
func (b Bag) Has(key string) bool {
	v, ok := b[key]
	return ok && v != nil
}

// String returns the value at key if it is a non-empty string.
func (b Bag) String(key string) (string, bool) {
	switch v := b[key].(type) {
	case string:
		return v, v != ""
	case Status:
		return string(v), v != ""
	default:
		return "", false
	}
}

// Float returns the value at key as a float64 when it holds any numeric type.
func (b Bag) Float(key string) (float64, bool) {
	switch v := b[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Keys returns the keys in sorted order.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
