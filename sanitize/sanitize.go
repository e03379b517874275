// Package sanitize scrubs non-finite numbers from payloads before JSON
// encoding. encoding/json refuses NaN and ±Inf, so every outbound payload
// (HTTP response and webhook body) is passed through Clean first.
package sanitize

import (
	"math"
	"reflect"
)

// Clean returns a deep copy of v in which every NaN or infinite float has
// been replaced with 0.0. Maps keep their keys, slices keep their order and
// struct types are preserved. All other scalars pass through unchanged.
// Clean is idempotent.
func Clean(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return cleanValue(reflect.ValueOf(v)).Interface()
}

func cleanValue(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return reflect.Zero(rv.Type())
		}
		return rv

	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		cleaned := cleanValue(rv.Elem())
		out := reflect.New(rv.Type()).Elem()
		out.Set(cleaned)
		return out

	case reflect.Ptr:
		if rv.IsNil() {
			return rv
		}
		cleaned := cleanValue(rv.Elem())
		out := reflect.New(rv.Type().Elem())
		out.Elem().Set(cleaned)
		return out

	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cleanValue(iter.Value()))
		}
		return out

	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cleanValue(rv.Index(i)))
		}
		return out

	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cleanValue(rv.Index(i)))
		}
		return out

	case reflect.Struct:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.NumField(); i++ {
			if rv.Type().Field(i).PkgPath != "" {
				// Unexported fields aren't serialized, leave them zeroed.
				continue
			}
			out.Field(i).Set(cleanValue(rv.Field(i)))
		}
		return out

	default:
		return rv
	}
}
