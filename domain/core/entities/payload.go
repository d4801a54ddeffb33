package entities

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Payload is the open key-value data attached to a node or connection.
// Keys are always plain strings; values are whatever the backend's JSON held
// (numbers decode as json.Number).
type Payload map[string]any

// Get returns the value stored under key
func (p Payload) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[key]
	return v, ok
}

// Set stores value under key
func (p Payload) Set(key string, value any) {
	p[key] = value
}

// String returns the value under key formatted as a string, or "" when absent
func (p Payload) String(key string) string {
	v, ok := p.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// Float returns the value under key as a float64. Missing or non-numeric values
// yield 0.
func (p Payload) Float(key string) float64 {
	v, ok := p.Get(key)
	if !ok {
		return 0
	}
	return toFloat(v)
}

// Clone returns a shallow copy that is never nil
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// toFloat never returns NaN or an infinity, so weights stay totally ordered
func toFloat(v any) float64 {
	f := rawFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func rawFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		return int64(toFloat(n))
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
		return int64(toFloat(n))
	default:
		return int64(toFloat(v))
	}
}

// ToID coerces a decoded JSON value into an id. Strings and numbers with an
// integral value are accepted.
func ToID(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	case float64:
		return int64(n), n == float64(int64(n))
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
