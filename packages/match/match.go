package match

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Type selects the comparison semantics for Compare.
type Type int

const (
	Equals Type = iota
	NotEquals
	Contains
	NotContains
	ContainsDeep
)

func (t Type) String() string {
	switch t {
	case Equals:
		return "EQUALS"
	case NotEquals:
		return "NOT_EQUALS"
	case Contains:
		return "CONTAINS"
	case NotContains:
		return "NOT_CONTAINS"
	case ContainsDeep:
		return "CONTAINS_DEEP"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of one comparison. On failure, Path points at the
// first mismatching node (depth-first, left-to-right) and Message embeds both
// values.
type Result struct {
	Pass    bool
	Path    string
	Message string
}

var pass = Result{Pass: true}

// Absent marks a value that does not exist at all, as opposed to an explicit
// null. Only the #present and #notpresent markers accept it.
var Absent any = absentValue{}

type absentValue struct{}

// Compare evaluates actual against expected under the given type. Expected
// strings beginning with '#' are treated as marker predicates. Negated types
// flip the outcome of their positive counterpart without changing how
// diagnostics are built.
func Compare(actual, expected any, t Type) Result {
	op := operation{root: "$"}
	switch t {
	case Equals:
		return op.equals(op.root, actual, expected)
	case NotEquals:
		r := op.equals(op.root, actual, expected)
		return op.flip(r, actual, expected, "is equal")
	case Contains:
		return op.contains(op.root, actual, expected, false)
	case NotContains:
		r := op.contains(op.root, actual, expected, false)
		return op.flip(r, actual, expected, "actual contains expected")
	case ContainsDeep:
		return op.contains(op.root, actual, expected, true)
	default:
		return failAt("$", actual, expected, fmt.Sprintf("unknown match type %d", int(t)))
	}
}

func failAt(path string, actual, expected any, reason string) Result {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s (%s:%s)\n", path, reason, typeName(actual), typeName(expected))
	fmt.Fprintf(&b, "%s\n%s", pretty(actual), pretty(expected))
	return Result{Path: path, Message: b.String()}
}

// typeName classifies a value the way diagnostics name it.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NULL"
	case absentValue:
		return "ABSENT"
	case bool:
		return "BOOLEAN"
	case string:
		return "STRING"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "NUMBER"
	case map[string]any:
		return "MAP"
	case []any:
		return "LIST"
	default:
		return "OTHER"
	}
}

func pretty(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case absentValue:
		return "#notpresent"
	case string:
		return "'" + t + "'"
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
