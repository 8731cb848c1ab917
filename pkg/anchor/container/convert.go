package container

import (
	"fmt"
	"reflect"
)

// TypeKey returns the service id of the Go type of v. Pointers are looked
// through, so (*pkg.Logger)(nil) and pkg.Logger{} share a key.
func TypeKey(v any) string {
	return typeKey(reflect.TypeOf(v))
}

// InterfaceKey returns the service id of the interface type T
func InterfaceKey[T any]() string {
	return typeKey(reflect.TypeOf((*T)(nil)).Elem())
}

func typeKey(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	return t.PkgPath() + "." + t.Name()
}

// Resolve gets id from c and asserts it to T
func Resolve[T any](c interface{ Get(string) (any, error) }, id string) (T, error) {
	var zero T
	instance, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%s resolved to %T, not %T", id, instance, zero)
	}
	return typed, nil
}

// convert turns a resolved value into an argument of type t. Collections
// arrive as []any or map[string]any and are converted element by element.
func convert(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(raw)
	if v.Type().AssignableTo(t) {
		return v, nil
	}

	switch {
	case t.Kind() == reflect.Slice && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array):
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convert(v.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case t.Kind() == reflect.Map && v.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := convert(iter.Key().Interface(), t.Key())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			elem, err := convert(iter.Value().Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			out.SetMapIndex(key, elem)
		}
		return out, nil

	case sameFamily(v.Kind(), t.Kind()) && v.Type().ConvertibleTo(t):
		return v.Convert(t), nil
	}

	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", raw, t)
}

// sameFamily keeps numeric conversions and named string or bool types,
// but never turns a number into a string
func sameFamily(from, to reflect.Kind) bool {
	return from == to || (numeric(from) && numeric(to))
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
