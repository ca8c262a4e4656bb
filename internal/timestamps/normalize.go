// Package timestamps converts exported Firestore timestamps back into
// native values before they are written.
//
// Firestore exports serialise a Timestamp as {"_seconds": s, "_nanoseconds": n}.
// Only the fields named in Fields are converted; everything else is copied
// through structurally unchanged.
package timestamps

import (
	"encoding/json"
	"math"
	"time"
)

// Fields lists the field names whose values are converted.
var Fields = map[string]bool{
	"pubDate":      true,
	"updatedDate":  true,
	"lastModified": true,
}

const (
	secondsKey     = "_seconds"
	nanosecondsKey = "_nanoseconds"
)

// Normalize returns a copy of v with every wire timestamp under one of
// Fields replaced by a time.Time. v itself is never modified.
func Normalize(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, elem := range val {
			if Fields[key] {
				out[key] = convert(elem)
				continue
			}
			out[key] = Normalize(elem)
		}
		return out
	default:
		return v
	}
}

// convert replaces a wire timestamp with its native value. Anything else
// under a timestamp field is left exactly as it was.
func convert(v any) any {
	if t, ok := FromWire(v); ok {
		return t
	}
	return v
}

// IsWireTimestamp reports whether v has the {_seconds, _nanoseconds?} shape.
func IsWireTimestamp(v any) bool {
	_, ok := FromWire(v)
	return ok
}

// FromWire converts a wire timestamp to UTC time with millisecond
// precision: floor(seconds*1000 + floor(nanoseconds/1e6)). Values outside
// the int64 millisecond range are not timestamps.
func FromWire(v any) (time.Time, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return time.Time{}, false
	}
	rawSeconds, ok := m[secondsKey]
	if !ok {
		return time.Time{}, false
	}
	seconds, ok := toFloat(rawSeconds)
	if !ok {
		return time.Time{}, false
	}
	var nanos float64
	if rawNanos, present := m[nanosecondsKey]; present && rawNanos != nil {
		if nanos, ok = toFloat(rawNanos); !ok {
			return time.Time{}, false
		}
	}
	millis := math.Floor(seconds*1000 + math.Floor(nanos/1e6))
	if math.IsNaN(millis) || millis < math.MinInt64 || millis >= math.MaxInt64 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(millis)).UTC(), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
