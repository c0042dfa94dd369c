package health

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Data is an insertion-ordered diagnostic payload attached to a Result.
//
// Values may be nil, bool, string, any integer or float type,
// time.Duration, time.Time, json.Number, []any, []string, map[string]any
// (encoded with sorted keys), or a nested *Data. Anything else fails
// serialization with a SerializationError.
//
// A Data must not be modified after the Result carrying it is returned
// from a Checker.
type Data struct {
	keys   []string
	values map[string]any
}

// NewData creates an empty payload.
func NewData() *Data {
	return &Data{values: make(map[string]any)}
}

// DataFromMap builds a payload from m with keys in sorted order.
func DataFromMap(m map[string]any) *Data {
	d := NewData()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return d
}

// Set stores value under key. An existing key keeps its position.
func (d *Data) Set(key string, value any) *Data {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	return d
}

// Get returns the value stored under key.
func (d *Data) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Data) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Len returns the number of entries.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// MarshalJSON encodes the payload preserving insertion order.
func (d *Data) MarshalJSON() ([]byte, error) {
	return d.appendJSON(nil, "")
}

func (d *Data) appendJSON(buf []byte, path string) ([]byte, error) {
	if d == nil {
		return append(buf, "null"...), nil
	}
	buf = append(buf, '{')
	for i, k := range d.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendString(buf, k)
		buf = append(buf, ':')
		var err error
		buf, err = appendValue(buf, d.values[k], joinPath(path, k))
		if err != nil {
			return nil, err
		}
	}
	return append(buf, '}'), nil
}

// dataError carries the key path of an unencodable value up to the Reporter.
type dataError struct {
	path string
	err  error
}

func (e *dataError) Error() string {
	return fmt.Sprintf("%s: %v", e.path, e.err)
}

func (e *dataError) Unwrap() error {
	return e.err
}

var errUnsupportedFloat = errors.New("unsupported float value")

func appendValue(buf []byte, v any, path string) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		return strconv.AppendBool(buf, val), nil
	case string:
		return appendString(buf, val), nil
	case int:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case int8:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case int16:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case int32:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(buf, val, 10), nil
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10), nil
	case uint8:
		return strconv.AppendUint(buf, uint64(val), 10), nil
	case uint16:
		return strconv.AppendUint(buf, uint64(val), 10), nil
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10), nil
	case uint64:
		return strconv.AppendUint(buf, val, 10), nil
	case float32:
		return appendFloat(buf, float64(val), 32, path)
	case float64:
		return appendFloat(buf, val, 64, path)
	case json.Number:
		if _, err := val.Float64(); err != nil {
			return nil, &dataError{path: path, err: err}
		}
		return append(buf, val.String()...), nil
	case time.Duration:
		return appendString(buf, val.String()), nil
	case time.Time:
		return appendString(buf, val.UTC().Format(time.RFC3339Nano)), nil
	case *Data:
		return val.appendJSON(buf, path)
	case Data:
		return val.appendJSON(buf, path)
	case map[string]any:
		return DataFromMap(val).appendJSON(buf, path)
	case []string:
		buf = append(buf, '[')
		for i, s := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendString(buf, s)
		}
		return append(buf, ']'), nil
	case []any:
		buf = append(buf, '[')
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendValue(buf, item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	default:
		return nil, &dataError{path: path, err: fmt.Errorf("unsupported type %T", v)}
	}
}

func appendFloat(buf []byte, f float64, bits int, path string) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &dataError{path: path, err: errUnsupportedFloat}
	}
	// Same formatting rules as encoding/json.
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	start := len(buf)
	buf = strconv.AppendFloat(buf, f, format, -1, bits)
	if format == 'e' {
		// e-09 becomes e-9
		n := len(buf)
		if n-start >= 4 && buf[n-4] == 'e' && buf[n-3] == '-' && buf[n-2] == '0' {
			buf[n-2] = buf[n-1]
			buf = buf[:n-1]
		}
	}
	return buf, nil
}

func appendString(buf []byte, s string) []byte {
	// json.Marshal on a string cannot fail.
	b, _ := json.Marshal(s)
	return append(buf, b...)
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
