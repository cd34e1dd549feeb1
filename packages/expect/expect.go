package expect

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/karatelabs/karate-v2-sub006/packages/match"
)

// AssertionError is returned by chain terminals on failure. The message
// embeds the underlying comparison diagnostic.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string {
	return e.Msg
}

// Chain holds an assertion subject plus the pending negated/deep modifiers.
// Terminal methods consume the modifiers, reset them, and return an error so
// the same chain keeps working for and-style continuation.
type Chain struct {
	subject any
	label   string
	negated bool
	deep    bool
}

// Value starts a chain over the given subject.
func Value(subject any) *Chain {
	return &Chain{subject: subject}
}

// Valuef starts a chain and records the source expression for diagnostics.
func Valuef(subject any, format string, args ...any) *Chain {
	return &Chain{subject: subject, label: fmt.Sprintf(format, args...)}
}

// Not negates the next terminal only.
func (c *Chain) Not() *Chain {
	c.negated = true
	return c
}

// Deep makes the next Include/Contain compare with deep containment.
func (c *Chain) Deep() *Chain {
	c.deep = true
	return c
}

// And resets pending modifiers. Purely for readability between terminals.
func (c *Chain) And() *Chain {
	c.negated = false
	c.deep = false
	return c
}

// finish applies negation to the raw outcome and resets the modifiers.
func (c *Chain) finish(ok bool, reason string) error {
	negated := c.negated
	c.negated = false
	c.deep = false
	if negated {
		if !ok {
			return nil
		}
		return c.failf("expected not: %s", reason)
	}
	if ok {
		return nil
	}
	return c.failf("%s", reason)
}

func (c *Chain) failf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if c.label != "" {
		msg = c.label + ": " + msg
	}
	return &AssertionError{Msg: msg}
}

// Equal asserts strict equality: primitives by value, containers only when
// they are the same underlying object. Use Eql for structural equality.
func (c *Chain) Equal(expected any) error {
	if sameContainer(c.subject, expected) {
		return c.finish(true, fmt.Sprintf("values are the same object %v", expected))
	}
	if isContainer(c.subject) && isContainer(expected) {
		return c.finish(false, fmt.Sprintf("expected same object as %v", expected))
	}
	r := match.Compare(c.subject, expected, match.Equals)
	return c.finish(r.Pass, r.Message)
}

// Eql asserts structural equality.
func (c *Chain) Eql(expected any) error {
	r := match.Compare(c.subject, expected, match.Equals)
	return c.finish(r.Pass, r.Message)
}

// BeA asserts the subject's type: "string", "number", "boolean", "array",
// "object" or "null".
func (c *Chain) BeA(typeName string) error {
	actual := classify(c.subject)
	return c.finish(actual == strings.ToLower(typeName),
		fmt.Sprintf("expected a %s but was %s", typeName, actual))
}

// BeAn is BeA for vowel-initial type names.
func (c *Chain) BeAn(typeName string) error {
	return c.BeA(typeName)
}

func (c *Chain) BeTrue() error {
	return c.finish(c.subject == true, fmt.Sprintf("expected true but was %v", c.subject))
}

func (c *Chain) BeFalse() error {
	return c.finish(c.subject == false, fmt.Sprintf("expected false but was %v", c.subject))
}

func (c *Chain) BeNull() error {
	return c.finish(c.subject == nil, fmt.Sprintf("expected null but was %v", c.subject))
}

// Exist asserts the subject is neither null nor absent.
func (c *Chain) Exist() error {
	return c.finish(c.subject != nil && c.subject != match.Absent, "expected value to exist")
}

// BeOk asserts truthiness: not null, not false, not zero, not empty string.
func (c *Chain) BeOk() error {
	return c.finish(Truthy(c.subject), fmt.Sprintf("expected a truthy value but was %v", c.subject))
}

// BeEmpty asserts an empty string, list or map.
func (c *Chain) BeEmpty() error {
	n, ok := lengthOf(c.subject)
	if !ok {
		return c.finish(false, fmt.Sprintf("expected an empty value but was %v", c.subject))
	}
	return c.finish(n == 0, fmt.Sprintf("expected empty but length was %d", n))
}

// Include asserts containment, honoring a pending Deep modifier.
func (c *Chain) Include(expected any) error {
	mt := match.Contains
	if c.deep {
		mt = match.ContainsDeep
	}
	r := match.Compare(c.subject, expected, mt)
	return c.finish(r.Pass, r.Message)
}

// Contain is an alias for Include.
func (c *Chain) Contain(expected any) error {
	return c.Include(expected)
}

// HaveProperty asserts the subject is a map with the given key. An optional
// expected value is compared structurally.
func (c *Chain) HaveProperty(name string, expected ...any) error {
	m, ok := c.subject.(map[string]any)
	if !ok {
		return c.finish(false, fmt.Sprintf("expected an object but was %s", classify(c.subject)))
	}
	v, present := m[name]
	if !present {
		return c.finish(false, fmt.Sprintf("expected property '%s'", name))
	}
	if len(expected) == 0 {
		return c.finish(true, fmt.Sprintf("found property '%s'", name))
	}
	r := match.Compare(v, expected[0], match.Equals)
	return c.finish(r.Pass, fmt.Sprintf("property '%s': %s", name, r.Message))
}

// HaveNestedProperty asserts a dot-path exists on the subject, optionally
// with the given value. A missing intermediate segment fails.
func (c *Chain) HaveNestedProperty(path string, expected ...any) error {
	b, err := json.Marshal(c.subject)
	if err != nil {
		return c.finish(false, fmt.Sprintf("subject is not traversable: %v", err))
	}
	res := gjson.GetBytes(b, path)
	if !res.Exists() {
		return c.finish(false, fmt.Sprintf("expected nested property '%s'", path))
	}
	if len(expected) == 0 {
		return c.finish(true, fmt.Sprintf("found nested property '%s'", path))
	}
	r := match.Compare(res.Value(), expected[0], match.Equals)
	return c.finish(r.Pass, fmt.Sprintf("nested property '%s': %s", path, r.Message))
}

// HaveKeys asserts the subject's key set equals the given keys exactly.
func (c *Chain) HaveKeys(keys ...string) error {
	actual, err := c.keySet()
	if err != nil {
		return err
	}
	ok := len(actual) == len(keys) && containsAllKeys(actual, keys)
	return c.finish(ok, fmt.Sprintf("expected exactly keys %v but found %v", keys, mapKeys(actual)))
}

// HaveAllKeys asserts every given key is present.
func (c *Chain) HaveAllKeys(keys ...string) error {
	actual, err := c.keySet()
	if err != nil {
		return err
	}
	ok := containsAllKeys(actual, keys)
	return c.finish(ok, fmt.Sprintf("expected all of keys %v but found %v", keys, mapKeys(actual)))
}

// HaveAnyKeys asserts at least one given key is present.
func (c *Chain) HaveAnyKeys(keys ...string) error {
	actual, err := c.keySet()
	if err != nil {
		return err
	}
	ok := false
	for _, k := range keys {
		if _, present := actual[k]; present {
			ok = true
			break
		}
	}
	return c.finish(ok, fmt.Sprintf("expected any of keys %v but found %v", keys, mapKeys(actual)))
}

// HaveLength asserts the length of a string, list or map.
func (c *Chain) HaveLength(want int) error {
	n, ok := lengthOf(c.subject)
	if !ok {
		return c.finish(false, fmt.Sprintf("value %v has no length", c.subject))
	}
	return c.finish(n == want, fmt.Sprintf("expected length %d but was %d", want, n))
}

func (c *Chain) Above(n float64) error {
	return c.numeric(func(v float64) bool { return v > n }, fmt.Sprintf("above %v", n))
}

func (c *Chain) Below(n float64) error {
	return c.numeric(func(v float64) bool { return v < n }, fmt.Sprintf("below %v", n))
}

func (c *Chain) AtLeast(n float64) error {
	return c.numeric(func(v float64) bool { return v >= n }, fmt.Sprintf("at least %v", n))
}

func (c *Chain) AtMost(n float64) error {
	return c.numeric(func(v float64) bool { return v <= n }, fmt.Sprintf("at most %v", n))
}

func (c *Chain) Within(min, max float64) error {
	return c.numeric(func(v float64) bool { return v >= min && v <= max },
		fmt.Sprintf("within %v..%v", min, max))
}

func (c *Chain) CloseTo(n, delta float64) error {
	return c.numeric(func(v float64) bool { return math.Abs(v-n) <= delta },
		fmt.Sprintf("close to %v (+/- %v)", n, delta))
}

// Match asserts the string subject matches the regex pattern.
func (c *Chain) Match(pattern string) error {
	s, ok := c.subject.(string)
	if !ok {
		return c.finish(false, fmt.Sprintf("expected a string but was %s", classify(c.subject)))
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return c.finish(false, fmt.Sprintf("invalid regex '%s': %v", pattern, err))
	}
	return c.finish(re.MatchString(s), fmt.Sprintf("expected '%s' to match /%s/", s, pattern))
}

// OneOf asserts the subject equals one of the given values.
func (c *Chain) OneOf(values []any) error {
	for _, v := range values {
		if match.Compare(c.subject, v, match.Equals).Pass {
			return c.finish(true, fmt.Sprintf("%v is one of %v", c.subject, values))
		}
	}
	return c.finish(false, fmt.Sprintf("expected %v to be one of %v", c.subject, values))
}

func (c *Chain) numeric(pred func(float64) bool, desc string) error {
	v, ok := toFloat64(c.subject)
	if !ok {
		return c.finish(false, fmt.Sprintf("expected a number but was %s", classify(c.subject)))
	}
	return c.finish(pred(v), fmt.Sprintf("expected %v to be %s", v, desc))
}

func (c *Chain) keySet() (map[string]any, error) {
	m, ok := c.subject.(map[string]any)
	if !ok {
		return nil, c.finish(false, fmt.Sprintf("expected an object but was %s", classify(c.subject)))
	}
	return m, nil
}

// Truthy reports whether a value counts as true in assert steps: not null,
// not false, not numeric zero, not an empty string.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if n, ok := toFloat64(v); ok {
			return n != 0
		}
		return v != match.Absent
	}
}

func classify(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		if _, ok := toFloat64(v); ok {
			return "number"
		}
		return "unknown"
	}
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// sameContainer reports whether both values share the same underlying map or
// slice storage.
func sameContainer(a, b any) bool {
	if !isContainer(a) || !isContainer(b) {
		return false
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() != bv.Kind() {
		return false
	}
	if av.Kind() == reflect.Slice && (av.Len() == 0 || bv.Len() == 0) {
		return av.Len() == bv.Len()
	}
	return av.Pointer() == bv.Pointer()
}

func lengthOf(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return len(t), true
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	}
	return 0, false
}

func containsAllKeys(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, present := m[k]; !present {
			return false
		}
	}
	return true
}

func mapKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
