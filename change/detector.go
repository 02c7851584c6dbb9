package change

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Detect compares two snapshots key by key and returns the changes in key order
// Keys of current come first, followed by keys that exist only in previous
func Detect(current, previous any) []Change {
	curFields, curOK := fields(current)
	prevFields, prevOK := fields(previous)

	if !curOK || !prevOK {
		if Equal(current, previous) {
			return nil
		}
		return []Change{{
			Path:      RootPath,
			Op:        Update,
			ValueType: Classify(current),
			OldValue:  previous,
			NewValue:  current,
		}}
	}

	var changes []Change
	for _, f := range curFields.order {
		newVal := curFields.values[f]
		oldVal, existed := prevFields.values[f]
		switch {
		case !existed:
			changes = append(changes, Change{Path: f, Op: Add, ValueType: Classify(newVal), NewValue: newVal})
		case !Equal(newVal, oldVal):
			changes = append(changes, Change{Path: f, Op: Update, ValueType: Classify(newVal), OldValue: oldVal, NewValue: newVal})
		}
	}
	for _, f := range prevFields.order {
		if _, still := curFields.values[f]; still {
			continue
		}
		oldVal := prevFields.values[f]
		changes = append(changes, Change{Path: f, Op: Remove, ValueType: Classify(oldVal), OldValue: oldVal})
	}
	return changes
}

// Classify maps a value onto the coarse ValueType used by the aesthetic resolver
func Classify(v any) ValueType {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return Object
	}
	switch rv.Kind() {
	case reflect.Bool:
		return Boolean
	case reflect.String:
		return String
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return Number
	case reflect.Slice, reflect.Array:
		return Array
	default:
		return Object
	}
}

// keyedFields is an ordered view of a composite snapshot's top-level keys
type keyedFields struct {
	order  []string
	values map[string]any
}

// fields flattens a map or struct (or pointer to one) into ordered top-level keys
func fields(v any) (keyedFields, bool) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return keyedFields{}, false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return keyedFields{}, false
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return keyedFields{values: map[string]any{}}, true
		}
		kf := keyedFields{values: make(map[string]any, rv.Len())}
		keyTypes := make(map[string]string, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().Interface()
			k, kt := fmt.Sprint(key), fmt.Sprintf("%T", key)
			// Keys that stringify alike (1 and "1") collapse into one path;
			// the smallest key type name wins so both snapshots pick the same value
			if prev, dup := keyTypes[k]; dup {
				if kt >= prev {
					continue
				}
			} else {
				kf.order = append(kf.order, k)
			}
			keyTypes[k] = kt
			kf.values[k] = iter.Value().Interface()
		}
		sort.Strings(kf.order)
		return kf, true

	case reflect.Struct:
		if rv.Type() == timeType {
			return keyedFields{}, false
		}
		t := rv.Type()
		kf := keyedFields{values: make(map[string]any, t.NumField())}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			kf.order = append(kf.order, sf.Name)
			kf.values[sf.Name] = rv.Field(i).Interface()
		}
		return kf, true
	}
	return keyedFields{}, false
}
