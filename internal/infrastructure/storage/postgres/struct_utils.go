package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the column names a struct maps to via "db" tags,
// walking embedded structs (entity.Base) recursively. Called once per
// repository at construction time, so reflection cost does not matter here.
//
//	cols := ExtractDBColumns[clients.Client]()
//	// ["id", "version", ..., "name", "email", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, columnsOf(field.Type)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// fieldMeta is the cached mapping of one struct field to its column.
type fieldMeta struct {
	index int
	dbTag string
}

type structMeta struct {
	fields   []fieldMeta
	embedded []int
}

// metaCache holds per-type reflection metadata so StructToMap only pays for
// reflection once per type, not once per row.
var metaCache sync.Map // map[reflect.Type]*structMeta

func metaFor(t reflect.Type) *structMeta {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := metaCache.Load(t); ok {
		return cached.(*structMeta)
	}

	meta := &structMeta{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embedded = append(meta.embedded, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldMeta{index: i, dbTag: tag})
		}
	}

	metaCache.Store(t, meta)
	return meta
}

// StructToMap converts a struct to a column->value map using "db" tags.
// Fields without a tag, or tagged "-" (like Invoice.Items), are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metaFor(rv.Type())
	res := make(map[string]any, len(meta.fields))

	for _, fm := range meta.fields {
		res[fm.dbTag] = rv.Field(fm.index).Interface()
	}
	for _, i := range meta.embedded {
		for k, val := range StructToMap(rv.Field(i).Interface()) {
			res[k] = val
		}
	}

	return res
}
