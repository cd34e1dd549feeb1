package match

import (
	"fmt"
	"reflect"
	"strings"
)

// operation carries the comparison state through recursion. Paths are built
// explicitly on the way down so the first failing leaf can name itself.
type operation struct {
	root string
}

func (op operation) flip(r Result, actual, expected any, reason string) Result {
	if !r.Pass {
		return pass
	}
	return failAt(op.root, actual, expected, reason)
}

func (op operation) equals(path string, actual, expected any) Result {
	if marker, ok := markerOf(expected); ok {
		return op.marker(path, actual, marker)
	}
	if _, absent := actual.(absentValue); absent {
		return failAt(path, actual, expected, "actual path does not exist")
	}
	if expected == nil || actual == nil {
		if expected == nil && actual == nil {
			return pass
		}
		return failAt(path, actual, expected, "not equal")
	}
	if an, aok := toFloat64(actual); aok {
		en, eok := toFloat64(expected)
		if !eok {
			return failAt(path, actual, expected, "data types don't match")
		}
		if an != en {
			return failAt(path, actual, expected, "not equal")
		}
		return pass
	}
	switch e := expected.(type) {
	case string:
		a, ok := actual.(string)
		if !ok {
			return failAt(path, actual, expected, "data types don't match")
		}
		if a != e {
			return failAt(path, actual, expected, "not equal")
		}
		return pass
	case bool:
		a, ok := actual.(bool)
		if !ok {
			return failAt(path, actual, expected, "data types don't match")
		}
		if a != e {
			return failAt(path, actual, expected, "not equal")
		}
		return pass
	case []any:
		a, ok := actual.([]any)
		if !ok {
			return failAt(path, actual, expected, "data types don't match")
		}
		if len(a) != len(e) {
			reason := fmt.Sprintf("actual array length is not equal to expected - %d:%d", len(a), len(e))
			return failAt(path, actual, expected, reason)
		}
		for i := range e {
			if r := op.equals(fmt.Sprintf("%s[%d]", path, i), a[i], e[i]); !r.Pass {
				return r
			}
		}
		return pass
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return failAt(path, actual, expected, "data types don't match")
		}
		for _, k := range sortedKeys(e) {
			av, present := a[k]
			if !present {
				av = Absent
			}
			if r := op.equals(path+"."+k, av, e[k]); !r.Pass {
				return r
			}
		}
		var extra []string
		for _, k := range sortedKeys(a) {
			if _, present := e[k]; !present {
				extra = append(extra, k)
			}
		}
		if len(extra) > 0 {
			reason := fmt.Sprintf("actual has %d more key(s) than expected - [%s]", len(extra), strings.Join(extra, ", "))
			return failAt(path, actual, expected, reason)
		}
		return pass
	default:
		if reflect.DeepEqual(actual, expected) {
			return pass
		}
		return failAt(path, actual, expected, "not equal")
	}
}

func (op operation) contains(path string, actual, expected any, deep bool) Result {
	if marker, ok := markerOf(expected); ok {
		return op.marker(path, actual, marker)
	}
	if _, absent := actual.(absentValue); absent {
		return failAt(path, actual, expected, "actual path does not exist")
	}
	switch a := actual.(type) {
	case map[string]any:
		e, ok := expected.(map[string]any)
		if !ok {
			return failAt(path, actual, expected, "data types don't match")
		}
		for _, k := range sortedKeys(e) {
			av, present := a[k]
			if !present {
				if marker, ok := markerOf(e[k]); ok {
					if r := op.marker(path+"."+k, Absent, marker); r.Pass {
						continue
					}
				}
				reason := fmt.Sprintf("actual does not contain key - '%s'", k)
				return failAt(path, actual, expected, reason)
			}
			if r := op.child(path+"."+k, av, e[k], deep); !r.Pass {
				return r
			}
		}
		return pass
	case []any:
		items, ok := expected.([]any)
		if !ok {
			items = []any{expected}
		}
		for _, item := range items {
			if !op.listHas(a, item, deep) {
				reason := fmt.Sprintf("actual array does not contain expected item - %s", pretty(item))
				return failAt(path, actual, expected, reason)
			}
		}
		return pass
	case string:
		e, ok := expected.(string)
		if !ok {
			return failAt(path, actual, expected, "data types don't match")
		}
		if !strings.Contains(a, e) {
			return failAt(path, actual, expected, "actual does not contain expected")
		}
		return pass
	default:
		return op.equals(path, actual, expected)
	}
}

// child picks the comparison for a nested value. CONTAINS applies equality
// one level down; CONTAINS_DEEP keeps containment all the way.
func (op operation) child(path string, actual, expected any, deep bool) Result {
	if !deep {
		return op.equals(path, actual, expected)
	}
	switch expected.(type) {
	case map[string]any, []any:
		return op.contains(path, actual, expected, true)
	default:
		return op.equals(path, actual, expected)
	}
}

func (op operation) listHas(actual []any, item any, deep bool) bool {
	for i, candidate := range actual {
		if r := op.child(fmt.Sprintf("$[%d]", i), candidate, item, deep); r.Pass {
			return true
		}
	}
	return false
}
