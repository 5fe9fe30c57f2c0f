package table

import (
	"reflect"
	"strconv"
	"strings"
)

// Lookup walks a dot path through maps, structs, pointers, and slices.
// Any missing or nil step yields nil.
func Lookup(root any, path string) any {
	v := reflect.ValueOf(root)
	for _, seg := range strings.Split(path, ".") {
		v = indirect(v)
		if !v.IsValid() {
			return nil
		}
		v = step(v, seg)
	}
	v = indirect(v)
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func step(v reflect.Value, seg string) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}
		}
		return v.MapIndex(reflect.ValueOf(seg).Convert(v.Type().Key()))
	case reflect.Struct:
		return field(v, seg)
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= v.Len() {
			return reflect.Value{}
		}
		return v.Index(i)
	default:
		return reflect.Value{}
	}
}

// field finds a struct field by JSON name, then by Go name.
func field(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	var byName reflect.Value
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if tag == name {
			fv, err := v.FieldByIndexErr(f.Index)
			if err != nil {
				return reflect.Value{}
			}
			return fv
		}
		if tag != "-" && !byName.IsValid() && strings.EqualFold(f.Name, name) {
			if fv, err := v.FieldByIndexErr(f.Index); err == nil {
				byName = fv
			}
		}
	}
	return byName
}
