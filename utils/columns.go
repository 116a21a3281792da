package utils

import (
	"fmt"
	"reflect"
)

// ColumnList returns the list of "db" struct tags of T, optionally prefixed
// with a table alias, for use in select builders.
func ColumnList[T any](prefixes ...string) []string {
	var value T
	t := reflect.TypeOf(value)

	prefix := ""
	if len(prefixes) > 0 {
		prefix = prefixes[0] + "."
	}

	columns := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("db")
		if !ok || tag == "-" {
			continue
		}
		columns = append(columns, fmt.Sprintf("%s%s", prefix, tag))
	}
	return columns
}
