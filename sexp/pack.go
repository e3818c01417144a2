package sexp

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
)

// FieldTag is the struct tag that renames a field when a struct is packed.
// A tag of "-" skips the field.
const FieldTag = "rgo"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Pack converts a Go value into a native object.
//
//   - bool, integers, floats, complex and string become length-one vectors;
//     a single byte becomes a raw vector.
//   - Slices and arrays of those kinds become typed vectors; []byte becomes
//     a raw vector and any other element type a generic vector.
//   - map[string]T becomes the packed []T of its values with names in key order.
//   - Structs become generic vectors named by field.
//   - A nil pointer, interface or error packs as NULL; a non-nil error packs
//     as its message.
func (r *Runtime) Pack(v any) (entities.Handle, error) {
	if v == nil {
		return entities.NilHandle, nil
	}
	return r.pack(reflect.ValueOf(v))
}

func (r *Runtime) pack(rv reflect.Value) (entities.Handle, error) {
	if rv.Type().Implements(errorType) {
		if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
			return entities.NilHandle, nil
		}
		return r.ScalarString(rv.Interface().(error).Error()) //nolint:forcetypeassert // checked by Implements
	}

	switch rv.Kind() {
	case reflect.Bool:
		return r.ScalarLogical(rv.Bool()), nil
	case reflect.Uint8:
		return r.NewRaw([]byte{byte(rv.Uint())}), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt32(rv)
		if err != nil {
			return entities.NilHandle, err
		}
		return r.ScalarInteger(n), nil
	case reflect.Float32, reflect.Float64:
		return r.ScalarReal(rv.Float()), nil
	case reflect.Complex64, reflect.Complex128:
		return r.NewComplex(rv.Complex()), nil
	case reflect.String:
		return r.ScalarString(rv.String())
	case reflect.Slice, reflect.Array:
		return r.packSequence(rv)
	case reflect.Map:
		return r.packMap(rv)
	case reflect.Struct:
		return r.packStruct(rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return entities.NilHandle, nil
		}
		return r.pack(rv.Elem())
	}
	return entities.NilHandle, &errors.PackError{
		GoType: rv.Type().String(),
		Err:    fmt.Errorf("unsupported kind %s", rv.Kind()),
	}
}

func toInt32(rv reflect.Value) (int32, error) {
	var n int64
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt32 {
			return 0, &errors.PackError{GoType: rv.Type().String(), Err: fmt.Errorf("value %d overflows int32", u)}
		}
		n = int64(u)
	default:
		n = rv.Int()
	}
	// The smallest int32 is the integer NA and so is not representable either.
	if n > math.MaxInt32 || n <= math.MinInt32 {
		return 0, &errors.PackError{GoType: rv.Type().String(), Err: fmt.Errorf("value %d overflows int32", n)}
	}
	return int32(n), nil
}

func (r *Runtime) packSequence(rv reflect.Value) (entities.Handle, error) {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return entities.NilHandle, nil
	}
	n := rv.Len()
	elem := rv.Type().Elem()

	if elem.Implements(errorType) || elem.Kind() == reflect.Interface || elem.Kind() == reflect.Pointer {
		return r.packList(rv)
	}

	switch elem.Kind() {
	case reflect.Uint8:
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return r.NewRaw(b), nil
	case reflect.Bool:
		v := make([]int32, n)
		for i := range v {
			if rv.Index(i).Bool() {
				v[i] = 1
			}
		}
		return r.NewLogical(v...), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := make([]int32, n)
		for i := range v {
			x, err := toInt32(rv.Index(i))
			if err != nil {
				return entities.NilHandle, err
			}
			v[i] = x
		}
		return r.NewInteger(v...), nil
	case reflect.Float32, reflect.Float64:
		v := make([]float64, n)
		for i := range v {
			v[i] = rv.Index(i).Float()
		}
		return r.NewReal(v...), nil
	case reflect.Complex64, reflect.Complex128:
		v := make([]complex128, n)
		for i := range v {
			v[i] = rv.Index(i).Complex()
		}
		return r.NewComplex(v...), nil
	case reflect.String:
		v := make([]string, n)
		for i := range v {
			v[i] = rv.Index(i).String()
		}
		return r.NewCharacter(v...)
	}
	return r.packList(rv)
}

func (r *Runtime) packList(rv reflect.Value) (entities.Handle, error) {
	list := r.NewList(rv.Len())
	for i := 0; i < rv.Len(); i++ {
		h, err := r.pack(rv.Index(i))
		if err != nil {
			return entities.NilHandle, err
		}
		r.SetVectorElt(list, i, h)
	}
	return list, nil
}

func (r *Runtime) packMap(rv reflect.Value) (entities.Handle, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return entities.NilHandle, &errors.PackError{
			GoType: rv.Type().String(),
			Err:    fmt.Errorf("map key must be a string, not %s", rv.Type().Key()),
		}
	}
	if rv.IsNil() {
		return entities.NilHandle, nil
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	values := reflect.MakeSlice(reflect.SliceOf(rv.Type().Elem()), len(keys), len(keys))
	for i, k := range keys {
		values.Index(i).Set(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())))
	}
	h, err := r.packSequence(values)
	if err != nil {
		return entities.NilHandle, err
	}
	names, err := r.NewCharacter(keys...)
	if err != nil {
		return entities.NilHandle, err
	}
	r.SetNames(h, names)
	return h, nil
}

func (r *Runtime) packStruct(rv reflect.Value) (entities.Handle, error) {
	t := rv.Type()
	var (
		names  []string
		fields []int
	)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup(FieldTag); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		names = append(names, name)
		fields = append(fields, i)
	}

	list := r.NewList(len(fields))
	for i, fi := range fields {
		h, err := r.pack(rv.Field(fi))
		if err != nil {
			return entities.NilHandle, fmt.Errorf("field %s: %w", t.Field(fi).Name, err)
		}
		r.SetVectorElt(list, i, h)
	}
	nameVec, err := r.NewCharacter(names...)
	if err != nil {
		return entities.NilHandle, err
	}
	r.SetNames(list, nameVec)
	return list, nil
}

// UnpackStrings copies a character vector into Go strings. NA elements
// become "NA".
func (r *Runtime) UnpackStrings(h entities.Handle) []string {
	obj := r.derefType("UnpackStrings", h, entities.STRSXP)
	out := make([]string, len(obj.strs))
	for i, ch := range obj.strs {
		out[i] = string(r.CharBytes(ch))
	}
	return out
}
