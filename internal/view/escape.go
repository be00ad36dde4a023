package view

import (
	"fmt"
	"reflect"
	"strings"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape converts value to text and replaces the five HTML-significant
// characters with entities. nil and nil pointers become "".
//
// Escape is not idempotent: an already escaped "&amp;" becomes "&amp;amp;".
// Callers escape raw values exactly once.
func Escape(value any) string {
	return htmlReplacer.Replace(stringify(value))
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		if isNilPointer(value) {
			return ""
		}
		return v.String()
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface())
}

func isNilPointer(value any) bool {
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
