package ir

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/shopspring/decimal"
)

// Value is a sealed interface over the canonical value types.
type Value interface {
	irValue()
}

// Null is the canonical SQL NULL.
type Null struct{}

func (Null) irValue() {}

// String is a canonical string.
type String string

func (String) irValue() {}

// Int is a canonical integer. There is no float variant.
type Int int64

func (Int) irValue() {}

// Bool is a canonical boolean.
type Bool bool

func (Bool) irValue() {}

// Array is an ordered list of values, such as a result row.
type Array []Value

func (Array) irValue() {}

// Object maps names to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// mapper is implemented by composite results (records).
type mapper interface {
	Map() map[string]any
}

// FromGo converts a value produced by a result reader or a parameter
// binding into a canonical Value.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case []byte:
		return String(base64.StdEncoding.EncodeToString(val)), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case float32:
		return String(strconv.FormatFloat(float64(val), 'g', -1, 32)), nil
	case float64:
		return String(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case decimal.Decimal:
		return String(val.String()), nil
	case time.Time:
		return String(val.UTC().Format(time.RFC3339Nano)), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			c, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = c
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			c, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = c
		}
		return obj, nil
	case mapper:
		if m := val.Map(); m != nil {
			return FromGo(m)
		}
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units), which
// differs from Go's byte order for characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
