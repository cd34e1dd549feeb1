package literal

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/karatelabs/karate-v2-sub006/packages/builtin"
	"github.com/karatelabs/karate-v2-sub006/packages/core/runtime"
	"github.com/karatelabs/karate-v2-sub006/packages/match"
)

// Evaluator is the fallback expression evaluator: literals (YAML/JSON
// syntax), variable paths with dot and index access, builtin function calls,
// calls of function values bound in scope, and space-padded comparison
// operators. It is deliberately small; anything richer should implement
// runtime.Evaluator itself.
type Evaluator struct {
	funcs *builtin.Registry
}

func New() *Evaluator {
	return &Evaluator{funcs: builtin.NewRegistry()}
}

// NewWithRegistry uses a caller-supplied function registry.
func NewWithRegistry(r *builtin.Registry) *Evaluator {
	return &Evaluator{funcs: r}
}

var (
	pathPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*|\[[0-9]+\]|\['[^']*'\])*$`)
	callPattern = regexp.MustCompile(`^([A-Za-z_$][A-Za-z0-9_$]*)\((.*)\)$`)
)

func (e *Evaluator) Evaluate(expr string, scope *runtime.Scope) (any, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	if lhs, op, rhs, found := splitComparison(expr); found {
		return e.compare(lhs, op, rhs, scope)
	}
	if m := callPattern.FindStringSubmatch(expr); m != nil {
		return e.call(m[1], m[2], scope)
	}
	if pathPattern.MatchString(expr) && !isKeyword(expr) {
		return resolvePath(expr, scope)
	}
	return parseLiteral(expr)
}

func isKeyword(expr string) bool {
	switch expr {
	case "true", "false", "null":
		return true
	}
	return false
}

// call invokes a scope-bound function value if one shadows the name,
// otherwise a builtin.
func (e *Evaluator) call(name, rawArgs string, scope *runtime.Scope) (any, error) {
	args, err := e.parseArgs(rawArgs, scope)
	if err != nil {
		return nil, err
	}
	if v, bound := scope.Get(name); bound {
		fn, ok := v.(runtime.Function)
		if !ok {
			return nil, fmt.Errorf("'%s' is not a function", name)
		}
		return fn(scope, args...)
	}
	return e.funcs.Call(name, args)
}

func (e *Evaluator) parseArgs(raw string, scope *runtime.Scope) ([]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts, err := splitTopLevel(raw, ',')
	if err != nil {
		return nil, err
	}
	args := make([]any, 0, len(parts))
	for _, p := range parts {
		v, err := e.Evaluate(p, scope)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (e *Evaluator) compare(lhs, op, rhs string, scope *runtime.Scope) (any, error) {
	left, err := e.Evaluate(lhs, scope)
	if err != nil {
		return nil, err
	}
	right, err := e.Evaluate(rhs, scope)
	if err != nil {
		return nil, err
	}
	switch op {
	case "==":
		return match.Compare(left, right, match.Equals).Pass, nil
	case "!=":
		return !match.Compare(left, right, match.Equals).Pass, nil
	}
	ln, lok := toFloat64(left)
	rn, rok := toFloat64(right)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %s needs numbers, got %T and %T", op, left, right)
	}
	switch op {
	case ">":
		return ln > rn, nil
	case ">=":
		return ln >= rn, nil
	case "<":
		return ln < rn, nil
	case "<=":
		return ln <= rn, nil
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

var comparisonOps = []string{" == ", " != ", " >= ", " <= ", " > ", " < "}

// splitComparison finds the first space-padded comparison operator outside
// quotes and brackets.
func splitComparison(expr string) (lhs, op, rhs string, found bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
		if depth != 0 || quote != 0 {
			continue
		}
		for _, token := range comparisonOps {
			if strings.HasPrefix(expr[i:], token) {
				return strings.TrimSpace(expr[:i]),
					strings.TrimSpace(token),
					strings.TrimSpace(expr[i+len(token):]),
					true
			}
		}
	}
	return "", "", "", false
}

func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 || quote != 0 {
		return nil, fmt.Errorf("unbalanced expression: %s", s)
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts, nil
}

// resolvePath walks a variable path like users[0].name or row['key'].
// Missing keys and out-of-range indexes resolve to the absent value so
// presence markers can see them.
func resolvePath(expr string, scope *runtime.Scope) (any, error) {
	segs, err := splitPath(expr)
	if err != nil {
		return nil, err
	}
	cur, bound := scope.Get(segs[0].key)
	if !bound {
		return nil, fmt.Errorf("unknown variable: %s", segs[0].key)
	}
	for _, seg := range segs[1:] {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg.key]
			if !ok {
				return match.Absent, nil
			}
			cur = v
		case []any:
			if !seg.indexed {
				return nil, fmt.Errorf("cannot read field '%s' of a list", seg.key)
			}
			if seg.index < 0 || seg.index >= len(c) {
				return match.Absent, nil
			}
			cur = c[seg.index]
		default:
			return match.Absent, nil
		}
	}
	return cur, nil
}

type pathSeg struct {
	key     string
	index   int
	indexed bool
}

func splitPath(expr string) ([]pathSeg, error) {
	var segs []pathSeg
	i := 0
	readIdent := func() string {
		start := i
		for i < len(expr) && expr[i] != '.' && expr[i] != '[' {
			i++
		}
		return expr[start:i]
	}
	segs = append(segs, pathSeg{key: readIdent()})
	for i < len(expr) {
		switch expr[i] {
		case '.':
			i++
			segs = append(segs, pathSeg{key: readIdent()})
		case '[':
			end := strings.IndexByte(expr[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("malformed path: %s", expr)
			}
			inner := expr[i+1 : i+end]
			i += end + 1
			if strings.HasPrefix(inner, "'") && strings.HasSuffix(inner, "'") {
				segs = append(segs, pathSeg{key: strings.Trim(inner, "'")})
				continue
			}
			var idx int
			if _, err := fmt.Sscanf(inner, "%d", &idx); err != nil {
				return nil, fmt.Errorf("malformed index in path: %s", expr)
			}
			segs = append(segs, pathSeg{index: idx, indexed: true})
		default:
			return nil, fmt.Errorf("malformed path: %s", expr)
		}
	}
	return segs, nil
}

// parseLiteral accepts YAML syntax, which covers JSON plus single-quoted
// strings and bare scalars.
func parseLiteral(expr string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(expr), &v); err != nil {
		return nil, fmt.Errorf("not a valid literal: %s", expr)
	}
	return v, nil
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
