// Package payload models a response as a tagged value tree (number, sequence, mapping and a
// few scalar leaves) so that non-finite numbers can be scrubbed by one structural traversal
// before anything is serialized.
package payload

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/goccy/go-json"
)

var ErrUnsupportedType = errors.New("unsupported payload type")

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindInt
	KindString
	KindBool
	KindSequence
	KindMapping
)

// Value is a node in the payload tree.
type Value interface {
	Kind() Kind
}

type (
	Number   float64
	Int      int64
	String   string
	Bool     bool
	Null     struct{}
	Sequence []Value
	Mapping  map[string]Value
)

func (Number) Kind() Kind   { return KindNumber }
func (Int) Kind() Kind      { return KindInt }
func (String) Kind() Kind   { return KindString }
func (Bool) Kind() Kind     { return KindBool }
func (Null) Kind() Kind     { return KindNull }
func (Sequence) Kind() Kind { return KindSequence }
func (Mapping) Kind() Kind  { return KindMapping }

// IsFinite reports whether the number is neither NaN nor infinite.
func (n Number) IsFinite() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON writes non-finite numbers as 0 since JSON has no representation for them.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.IsFinite() {
		return []byte("0"), nil
	}
	return json.Marshal(float64(n))
}

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Sanitize walks the tree and replaces every NaN or infinite Number with 0. The input is not
// modified.
func Sanitize(v Value) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Number:
		if !t.IsFinite() {
			return Number(0)
		}
		return t
	case Sequence:
		if t == nil {
			return Sequence(nil)
		}
		out := make(Sequence, len(t))
		for i, elem := range t {
			out[i] = Sanitize(elem)
		}
		return out
	case Mapping:
		if t == nil {
			return Mapping(nil)
		}
		out := make(Mapping, len(t))
		for k, elem := range t {
			out[k] = Sanitize(elem)
		}
		return out
	default:
		return v
	}
}

// Walk visits every leaf of the tree in a deterministic order with the path of keys and
// indices that leads to it.
func Walk(v Value, fn func(path []string, leaf Value)) {
	walk(nil, v, fn)
}

func walk(path []string, v Value, fn func([]string, Value)) {
	switch t := v.(type) {
	case Sequence:
		for i, elem := range t {
			walk(append(path, fmt.Sprint(i)), elem, fn)
		}
	case Mapping:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(append(path, k), t[k], fn)
		}
	default:
		fn(path, v)
	}
}

// From converts a Go value made of scalars, slices, arrays and string keyed maps into a
// payload tree.
func From(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case int:
		return Int(t), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case []float64:
		out := make(Sequence, len(t))
		for i, f := range t {
			out[i] = Number(f)
		}
		return out, nil
	case map[string]float64:
		out := make(Mapping, len(t))
		for k, f := range t {
			out[k] = Number(f)
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return From(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Sequence(nil), nil
		}
		out := make(Sequence, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := From(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("at index %d, %w", i, err)
			}
			out[i] = elem
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key %s, %w", rv.Type().Key(), ErrUnsupportedType)
		}
		out := make(Mapping, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elem, err := From(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("at key %q, %w", iter.Key().String(), err)
			}
			out[iter.Key().String()] = elem
		}
		return out, nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(rv.Uint())), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	}
	return nil, fmt.Errorf("%T, %w", v, ErrUnsupportedType)
}

// MustFrom is like From but panics on unsupported types. Intended for literals built in code.
func MustFrom(v any) Value {
	out, err := From(v)
	if err != nil {
		panic(err)
	}
	return out
}

// Parse decodes JSON into a payload tree. JSON numbers become Number.
func Parse(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to decode payload, %w", err)
	}
	return From(raw)
}

// Marshal sanitizes the tree and encodes it as JSON with mapping keys sorted.
func Marshal(v Value) ([]byte, error) {
	return json.Marshal(Sanitize(v))
}
