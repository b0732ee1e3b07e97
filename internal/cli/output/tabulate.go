package output

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// column is one exported struct field shown in a table.
type column struct {
	header string
	index  int
}

// Tabulate converts data to a table. It reports false for values with
// no tabular shape.
func Tabulate(data any, wide bool) (*Table, bool) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceTable(v, wide), true
	case reflect.Map:
		return mapTable(v), true
	case reflect.Struct:
		if v.Type() == timeType {
			return nil, false
		}
		return structTable(v, wide), true
	}
	return nil, false
}

func columns(t reflect.Type, wide bool) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("table")
		if tag == "-" || (tag == "wide" && !wide) {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		cols = append(cols, column{header: strings.ToUpper(name), index: i})
	}
	return cols
}

func sliceTable(v reflect.Value, wide bool) *Table {
	elem := v.Type().Elem()
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}

	if elem.Kind() != reflect.Struct || elem == timeType {
		t := NewTable("VALUE")
		for i := 0; i < v.Len(); i++ {
			t.AddRow(Cell(v.Index(i)))
		}
		return t
	}

	cols := columns(elem, wide)
	t := &Table{}
	for _, c := range cols {
		t.Headers = append(t.Headers, c.header)
	}
	for i := 0; i < v.Len(); i++ {
		row := v.Index(i)
		for row.Kind() == reflect.Pointer {
			row = row.Elem()
		}
		cells := make([]string, len(cols))
		if row.IsValid() {
			for j, c := range cols {
				cells[j] = Cell(row.Field(c.index))
			}
		}
		t.AddRow(cells...)
	}
	return t
}

func mapTable(v reflect.Value) *Table {
	type entry struct{ key, value string }
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, entry{Cell(iter.Key()), Cell(iter.Value())})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	t := NewTable("KEY", "VALUE")
	for _, e := range entries {
		t.AddRow(e.key, e.value)
	}
	return t
}

func structTable(v reflect.Value, wide bool) *Table {
	t := NewTable("FIELD", "VALUE")
	for _, c := range columns(v.Type(), wide) {
		t.AddRow(strings.ToLower(c.header), Cell(v.Field(c.index)))
	}
	return t
}

// Cell renders one value for a table cell. Empty values print as "-";
// maps and nested structs print as compact JSON.
func Cell(v reflect.Value) string {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "-"
	}

	if v.Type() == timeType {
		ts := v.Interface().(time.Time)
		if ts.IsZero() {
			return "-"
		}
		return ts.Local().Format(time.DateTime)
	}
	if d, ok := v.Interface().(time.Duration); ok {
		return d.String()
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		if v.Type().Elem().Kind() == reflect.String {
			parts := make([]string, v.Len())
			for i := range parts {
				parts[i] = v.Index(i).String()
			}
			return strings.Join(parts, ",")
		}
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
	}

	raw, err := json.Marshal(v.Interface())
	if err != nil {
		return fmt.Sprint(v.Interface())
	}
	return string(raw)
}
