package logging

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// truncated replaces values below the requested dump depth
const truncated = "..."

// Render returns a deterministic textual dump of v for use as a log
// attachment. Maps and structs render key-sorted; maxDepth > 0 limits how
// many levels of nesting are expanded, deeper values collapse to "...".
func Render(v any, maxDepth int) string {
	pruned := prune(reflect.ValueOf(v), maxDepth)
	out, err := yaml.Marshal(pruned)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimRight(string(out), "\n")
}

// prune converts v into plain maps/slices/scalars so that yaml renders it
// with sorted keys, cutting off below depth levels. depth <= 0 means
// unlimited.
func prune(val reflect.Value, depth int) any {
	if !val.IsValid() {
		return nil
	}

	switch val.Kind() {
	case reflect.Pointer, reflect.Interface:
		if val.IsNil() {
			return nil
		}
		return prune(val.Elem(), depth)

	case reflect.Map:
		if depth == 1 {
			return truncated
		}
		m := make(map[string]any, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = prune(iter.Value(), next(depth))
		}
		return m

	case reflect.Struct:
		if depth == 1 {
			return truncated
		}
		t := val.Type()
		m := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			m[t.Field(i).Name] = prune(val.Field(i), next(depth))
		}
		return m

	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice && val.IsNil() {
			return nil
		}
		if depth == 1 {
			return truncated
		}
		s := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			s[i] = prune(val.Index(i), next(depth))
		}
		return s

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Sprintf("<%s>", val.Kind())

	default:
		return val.Interface()
	}
}

func next(depth int) int {
	if depth <= 0 {
		return depth
	}
	return depth - 1
}
