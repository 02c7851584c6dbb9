package change

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"
)

// Equal reports whether two values are the same for change detection purposes
// Tier one is identity and primitive equality, tier two a shallow structural
// comparison of sequences, maps, timestamps and records. When the shallow
// check meets a nested composite it falls back to comparing canonical JSON;
// values that cannot be serialized are reported as different.
func Equal(a, b any) bool {
	eq, conclusive := shallowEqual(reflect.ValueOf(a), reflect.ValueOf(b))
	if conclusive {
		return eq
	}
	return serializedEqual(a, b)
}

func serializedEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// shallowEqual returns (equal, conclusive)
func shallowEqual(a, b reflect.Value) (bool, bool) {
	a, b = unwrap(a), unwrap(b)

	aNil, bNil := isNil(a), isNil(b)
	if aNil || bNil {
		return aNil == bNil, true
	}

	if isScalar(a) || isScalar(b) {
		return scalarEqual(a, b), true
	}
	if a.Type() == timeType || b.Type() == timeType {
		return timeEqual(a, b), true
	}

	switch {
	case a.Kind() == reflect.Pointer && b.Kind() == reflect.Pointer:
		if a.Pointer() == b.Pointer() {
			return true, true
		}
		return shallowEqual(a.Elem(), b.Elem())

	case isSequence(a) && isSequence(b):
		return sequenceEqual(a, b)

	case a.Kind() == reflect.Map && b.Kind() == reflect.Map:
		return mapEqual(a, b)

	case a.Kind() == reflect.Struct && b.Kind() == reflect.Struct:
		if a.Type() != b.Type() {
			return false, false
		}
		return structEqual(a, b)

	case a.Kind() == reflect.Func || b.Kind() == reflect.Func:
		return false, true

	case a.Kind() == reflect.Chan && b.Kind() == reflect.Chan:
		return a.Pointer() == b.Pointer(), true
	}

	if a.Kind() != b.Kind() {
		return false, true
	}
	return false, false
}

func sequenceEqual(a, b reflect.Value) (bool, bool) {
	if a.Len() != b.Len() {
		return false, true
	}
	if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice && a.Len() > 0 && a.Pointer() == b.Pointer() {
		return true, true
	}
	for i := 0; i < a.Len(); i++ {
		eq, conclusive := elemEqual(a.Index(i), b.Index(i))
		if !conclusive {
			return false, false
		}
		if !eq {
			return false, true
		}
	}
	return true, true
}

func mapEqual(a, b reflect.Value) (bool, bool) {
	if a.Len() != b.Len() {
		return false, true
	}
	if a.Pointer() == b.Pointer() {
		return true, true
	}
	if a.Type().Key() != b.Type().Key() {
		return false, false
	}
	iter := a.MapRange()
	for iter.Next() {
		bv := b.MapIndex(iter.Key())
		if !bv.IsValid() {
			return false, true
		}
		eq, conclusive := elemEqual(iter.Value(), bv)
		if !conclusive {
			return false, false
		}
		if !eq {
			return false, true
		}
	}
	return true, true
}

func structEqual(a, b reflect.Value) (bool, bool) {
	for i := 0; i < a.NumField(); i++ {
		eq, conclusive := elemEqual(a.Field(i), b.Field(i))
		if !conclusive {
			return false, false
		}
		if !eq {
			return false, true
		}
	}
	return true, true
}

// elemEqual compares one level down, nested composites are inconclusive
func elemEqual(a, b reflect.Value) (bool, bool) {
	a, b = unwrap(a), unwrap(b)

	aNil, bNil := isNil(a), isNil(b)
	if aNil || bNil {
		return aNil == bNil, true
	}
	if isScalar(a) || isScalar(b) {
		return scalarEqual(a, b), true
	}
	if a.Type() == timeType && b.Type() == timeType {
		return timeEqual(a, b), true
	}
	if a.Kind() == reflect.Struct && b.Kind() == reflect.Struct && a.NumField() == 0 && b.NumField() == 0 {
		// set members: map[T]struct{}
		return true, true
	}
	return false, false
}

func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func isSequence(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

func isScalar(v reflect.Value) bool {
	return isNumeric(v) || v.Kind() == reflect.String || v.Kind() == reflect.Bool
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func scalarEqual(a, b reflect.Value) bool {
	switch {
	case isNumeric(a) && isNumeric(b):
		return toFloat(a) == toFloat(b)
	case a.Kind() == reflect.String && b.Kind() == reflect.String:
		return a.String() == b.String()
	case a.Kind() == reflect.Bool && b.Kind() == reflect.Bool:
		return a.Bool() == b.Bool()
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func timeEqual(a, b reflect.Value) bool {
	if a.Type() != timeType || b.Type() != timeType || !a.CanInterface() || !b.CanInterface() {
		return false
	}
	return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
}
