// Package clone provides reflection based deep copies for the opaque payloads
// the annotation engine forwards without interpreting (crop anchor metadata,
// AI proposal extras). Typed engine structures implement their own Clone
// methods; this package only covers values whose shape is unknown.
package clone

import "reflect"

// Value returns a deep copy of v. Maps, slices, arrays, interfaces, pointers
// and structs made only of exported fields are copied recursively. Structs
// with unexported fields (time.Time, netip.Addr, big.Int) are opaque: values
// are copied as is and pointers to them are shared.
func Value[T any](v T) T {
	var zero T
	copied := cloneValue(reflect.ValueOf(v))
	if !copied.IsValid() {
		return zero
	}
	if out, ok := copied.Interface().(T); ok {
		return out
	}
	result := reflect.New(reflect.TypeOf(zero)).Elem()
	result.Set(copied.Convert(reflect.TypeOf(zero)))
	return result.Interface().(T)
}

// Map deep copies a metadata map. A nil map stays nil and an empty map stays
// empty.
func Map(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = Value(value)
	}
	return dst
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		if opaque(v.Type().Elem()) {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneValue(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		if opaque(v.Type()) {
			out.Set(v)
			return out
		}
		for i := 0; i < v.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}

// opaque reports whether t is a struct that cannot be rebuilt field by field.
func opaque(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			return true
		}
	}
	return false
}
