package binding

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mangohow/gorest/errors"
)

// Field describes one query-visible field of a query object type.
type Field struct {
	Name  string
	Index []int
}

// QueryBinding flattens a struct into query parameters by reflection.
// Exported fields are named by Tag (falling back to the Go field name),
// embedded structs are walked as part of the same object, and unexported or
// "-"-tagged fields are skipped. Fields holding nil are left out.
type QueryBinding struct {
	Tag string
}

type fieldsKey struct {
	tag string
	typ reflect.Type
}

var fieldCache sync.Map // fieldsKey -> []Field

func (q QueryBinding) Name() string {
	return "query"
}

func (q QueryBinding) Extract(obj any) (url.Values, error) {
	values := url.Values{}
	if isNil(obj) {
		return values, nil
	}
	if enc, ok := obj.(QueryEncoder); ok {
		return encodeQuery(enc)
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	typeName := rv.Type().String()
	if rv.Kind() != reflect.Struct {
		return nil, errors.Introspection(typeName, fmt.Errorf("query object must be a struct"))
	}

	for _, f := range q.Fields(rv.Type()) {
		v, ok, err := q.Property(rv, f)
		if err != nil {
			return nil, errors.Introspection(typeName, err)
		}
		if ok {
			values.Set(f.Name, v)
		}
	}

	return values, nil
}

// Fields lists the accessible fields of struct type t in declaration order,
// with fields of embedded structs inlined. A field of the outer struct
// shadows an embedded field of the same name.
func (q QueryBinding) Fields(t reflect.Type) []Field {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	key := fieldsKey{tag: q.Tag, typ: t}
	if cached, ok := fieldCache.Load(key); ok {
		return cached.([]Field)
	}

	fields := dominantFields(q.collect(t, nil, map[reflect.Type]bool{}))
	fieldCache.Store(key, fields)

	return fields
}

// candidate is a named field found at some embedding depth.
type candidate struct {
	Field
	tagged bool
}

func (q QueryBinding) collect(t reflect.Type, prefix []int, visiting map[reflect.Type]bool) []candidate {
	if visiting[t] {
		return nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	var found []candidate
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tagName := ""
		if q.Tag != "" {
			tagName, _, _ = strings.Cut(sf.Tag.Get(q.Tag), ",")
		}
		if tagName == "-" {
			continue
		}

		if sf.Anonymous && tagName == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				found = append(found, q.collect(ft, index, visiting)...)
				continue
			}
		}

		if !sf.IsExported() {
			continue
		}

		name := tagName
		if name == "" {
			name = sf.Name
		}
		found = append(found, candidate{Field: Field{Name: name, Index: index}, tagged: tagName != ""})
	}

	return found
}

// dominantFields resolves name clashes the way Go promotes fields: the
// shallowest field wins, a tagged one breaks a tie at that depth, and a tie
// that remains hides the name. The result is in declaration order.
func dominantFields(found []candidate) []Field {
	byName := map[string][]candidate{}
	for _, c := range found {
		byName[c.Name] = append(byName[c.Name], c)
	}

	fields := make([]Field, 0, len(byName))
	for _, cs := range byName {
		if f, ok := dominant(cs); ok {
			fields = append(fields, f)
		}
	}
	sort.Slice(fields, func(i, j int) bool {
		return slices.Compare(fields[i].Index, fields[j].Index) < 0
	})
	return fields
}

func dominant(cs []candidate) (Field, bool) {
	depth := len(cs[0].Index)
	for _, c := range cs[1:] {
		depth = min(depth, len(c.Index))
	}

	var best []candidate
	for _, c := range cs {
		if len(c.Index) == depth {
			best = append(best, c)
		}
	}
	if len(best) == 1 {
		return best[0].Field, true
	}

	var tagged []candidate
	for _, c := range best {
		if c.tagged {
			tagged = append(tagged, c)
		}
	}
	if len(tagged) == 1 {
		return tagged[0].Field, true
	}
	return Field{}, false
}

// Property reads field f of struct value v. ok is false when the field holds
// nil, including a nil embedded pointer on the way to it.
func (q QueryBinding) Property(v reflect.Value, f Field) (value string, ok bool, err error) {
	fv, err := v.FieldByIndexErr(f.Index)
	if err != nil {
		return "", false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			value, ok = "", false
			err = fmt.Errorf("field %s: %v", f.Name, r)
		}
	}()

	value, ok, err = stringify(fv)
	if err != nil {
		return "", false, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return value, ok, nil
}

var (
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// stringify renders a scalar value. Slices and arrays become a comma
// separated list of their non-nil elements. Structs without TextMarshaler
// or Stringer fall back to fmt's default format; maps, funcs and channels
// are rejected.
func stringify(v reflect.Value) (string, bool, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false, nil
		}
		if s, ok, err := viaInterfaces(v); ok || err != nil {
			return s, ok, err
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "", false, nil
	}

	if s, ok, err := viaInterfaces(v); ok || err != nil {
		return s, ok, err
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), true, nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true, nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return "", false, nil
		}
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			s, ok, err := stringify(v.Index(i))
			if err != nil {
				return "", false, err
			}
			if ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true, nil
	case reflect.Struct:
		if v.CanInterface() {
			return fmt.Sprint(v.Interface()), true, nil
		}
	case reflect.Map:
		if v.IsNil() {
			return "", false, nil
		}
	}

	return "", false, fmt.Errorf("unsupported kind %s", v.Kind())
}

func viaInterfaces(v reflect.Value) (string, bool, error) {
	if !v.CanInterface() {
		return "", false, nil
	}
	t := v.Type()
	switch {
	case t.Implements(textMarshalerType):
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	case t.Implements(stringerType):
		return v.Interface().(fmt.Stringer).String(), true, nil
	}
	return "", false, nil
}

func encodeQuery(enc QueryEncoder) (values url.Values, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Introspection(fmt.Sprintf("%T", enc), fmt.Errorf("%v", r))
		}
	}()

	values, err = enc.EncodeQuery()
	if err != nil {
		return nil, errors.Introspection(fmt.Sprintf("%T", enc), err)
	}
	if values == nil {
		values = url.Values{}
	}
	return values, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
