package runtime

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
)

type sourceKind int

const (
	sourceStaticTable sourceKind = iota
	sourceInlineExpression
	sourceSetupRef
	sourceSetupOnceRef
)

// examplesSource is the classified origin of an outline's rows. A table is
// classified exactly once; the generator handoff is decided later, when the
// referenced value turns out to be a function.
type examplesSource struct {
	kind      sourceKind
	table     *gherkin.ExamplesTable
	expr      string
	setupName string
	fieldPath string
}

var setupRefPattern = regexp.MustCompile(
	`^(setup|setupOnce)\s*\(\s*(?:'([^']*)'|"([^"]*)")?\s*\)(?:\.(\S+))?$`)

func classifySource(table *gherkin.ExamplesTable) *examplesSource {
	if !table.IsDynamic() {
		return &examplesSource{kind: sourceStaticTable, table: table}
	}
	cell := strings.TrimSpace(table.Header[0])
	if m := setupRefPattern.FindStringSubmatch(cell); m != nil {
		src := &examplesSource{
			kind:      sourceSetupRef,
			table:     table,
			setupName: m[2] + m[3],
			fieldPath: m[4],
		}
		if m[1] == "setupOnce" {
			src.kind = sourceSetupOnceRef
		}
		if src.fieldPath == "" {
			src.fieldPath = "data"
		}
		return src
	}
	return &examplesSource{kind: sourceInlineExpression, table: table, expr: cell}
}

// rowIter yields example rows one at a time so generators stay lazy.
type rowIter interface {
	next() (map[string]any, bool, error)
}

type sliceRows struct {
	rows []map[string]any
	i    int
}

func (s *sliceRows) next() (map[string]any, bool, error) {
	if s.i >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.i]
	s.i++
	return row, true, nil
}

// generatorRows implements the pull protocol: call fn(i) for i = 0,1,2...
// until it returns something that is not a map. Each pull passes the scope
// the source resolved in, so the function can read setup or Background
// bindings. Accepted rows are augmented with __num and __row.
type generatorRows struct {
	fn    Function
	scope *Scope
	i     int
}

func (g *generatorRows) next() (map[string]any, bool, error) {
	v, err := g.fn(g.scope, g.i)
	if err != nil {
		return nil, false, &EvalError{Expr: fmt.Sprintf("examples generator call %d", g.i), Err: err}
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, false, nil
	}
	row := augmentRow(raw, g.i)
	g.i++
	return row, true, nil
}

func augmentRow(raw map[string]any, num int) map[string]any {
	original := map[string]any{}
	for k, v := range raw {
		original[k] = v
	}
	row := map[string]any{}
	for k, v := range raw {
		row[k] = v
	}
	row["__num"] = num
	row["__row"] = original
	return row
}

func (fr *FeatureRuntime) resolveRows(src *examplesSource) (rowIter, error) {
	switch src.kind {
	case sourceStaticTable:
		return &sliceRows{rows: staticRows(src.table)}, nil
	case sourceInlineExpression:
		scope, err := fr.backgroundScope()
		if err != nil {
			return nil, err
		}
		v, err := fr.opts.evaluator.Evaluate(src.expr, scope)
		if err != nil {
			return nil, configErrorf("examples expression '%s' failed: %v", src.expr, err)
		}
		if fn, ok := v.(Function); ok {
			return &generatorRows{fn: fn, scope: scope}, nil
		}
		rows, ok := rowsFromValue(v)
		if !ok {
			return nil, configErrorf("examples expression '%s' must yield a list of maps, got %T", src.expr, v)
		}
		return &sliceRows{rows: rows}, nil
	case sourceSetupRef:
		scope, err := fr.runSetup(src.setupName)
		if err != nil {
			return nil, err
		}
		return fr.rowsFromSetupField(src, scope, false)
	case sourceSetupOnceRef:
		cached, err := fr.setupCache.Resolve(setupCacheKey(src.setupName), func() (any, error) {
			return fr.runSetup(src.setupName)
		})
		if err != nil {
			return nil, err
		}
		return fr.rowsFromSetupField(src, cached.(*Scope), true)
	default:
		return nil, configErrorf("unclassified examples source")
	}
}

// rowsFromSetupField picks the referenced field out of the setup scenario's
// scope. A function value switches to the generator protocol, pulled against
// that same scope; under setupOnce the generator is drained once and the rows
// are cached so every pull index executes exactly once across references.
func (fr *FeatureRuntime) rowsFromSetupField(src *examplesSource, scope *Scope, once bool) (rowIter, error) {
	v, ok := lookupPath(scope.Flatten(), src.fieldPath)
	if !ok {
		return nil, configErrorf("setup '%s' has no field '%s'", src.setupName, src.fieldPath)
	}
	if fn, isFn := v.(Function); isFn {
		if !once {
			return &generatorRows{fn: fn, scope: scope}, nil
		}
		key := setupCacheKey(src.setupName) + "#rows." + src.fieldPath
		drained, err := fr.setupCache.Resolve(key, func() (any, error) {
			return drainGenerator(fn, scope)
		})
		if err != nil {
			return nil, err
		}
		return &sliceRows{rows: drained.([]map[string]any)}, nil
	}
	rows, isRows := rowsFromValue(v)
	if !isRows {
		return nil, configErrorf("setup '%s' field '%s' must be a list of maps or a function, got %T",
			src.setupName, src.fieldPath, v)
	}
	return &sliceRows{rows: rows}, nil
}

func drainGenerator(fn Function, scope *Scope) ([]map[string]any, error) {
	g := &generatorRows{fn: fn, scope: scope}
	rows := []map[string]any{}
	for {
		row, ok, err := g.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

func setupCacheKey(name string) string {
	if name == "" {
		return "setup:__default__"
	}
	return "setup:" + name
}

// runSetup executes the named @setup scenario without Background and
// returns its scope. A failing setup is fatal to the feature.
func (fr *FeatureRuntime) runSetup(name string) (*Scope, error) {
	sc := fr.feature.Setup(name)
	if sc == nil {
		return nil, missingSetupError(name)
	}
	sr := newScenarioRuntime(fr, sc)
	sr.skipBackground = true
	res := sr.Run()
	if res.Failed() {
		return nil, configErrorf("setup scenario '%s' failed: %s", sc.Name, res.FailureMessage)
	}
	return sr.scope, nil
}

// backgroundScope runs the cached Background steps into a fresh scope so
// inline examples expressions and their generators see Background bindings.
func (fr *FeatureRuntime) backgroundScope() (*Scope, error) {
	scope := NewScope(nil)
	if fr.background == nil {
		return scope, nil
	}
	sr := &ScenarioRuntime{feature: fr, scope: scope}
	for _, step := range fr.background.Steps {
		if err := sr.execStep(step); err != nil {
			return nil, configErrorf("background failed while resolving examples: %v", err)
		}
	}
	return scope, nil
}

func missingSetupError(name string) *ConfigError {
	if name == "" {
		return configErrorf("no @setup scenario found in feature")
	}
	return configErrorf("no @setup=%s scenario found in feature", name)
}

func staticRows(table *gherkin.ExamplesTable) []map[string]any {
	rows := make([]map[string]any, 0, len(table.Rows))
	for _, cells := range table.Rows {
		row := map[string]any{}
		for i, field := range table.Header {
			if i < len(cells) {
				row[field] = parseCell(cells[i])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// parseCell interprets a static table cell: numbers, booleans and null come
// through typed, everything else stays a string.
func parseCell(cell string) any {
	var v any
	if err := yaml.Unmarshal([]byte(cell), &v); err != nil {
		return cell
	}
	switch v.(type) {
	case nil, bool, int, int64, float64, string:
		return v
	default:
		return cell
	}
}

func rowsFromValue(v any) ([]map[string]any, bool) {
	switch list := v.(type) {
	case []map[string]any:
		return list, true
	case []any:
		rows := make([]map[string]any, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			rows = append(rows, m)
		}
		return rows, true
	}
	return nil, false
}

func lookupPath(vars map[string]any, path string) (any, bool) {
	var cur any = vars
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// expandRow turns one example row into a concrete scenario: placeholder
// tokens substituted in name and steps, raw fields carried as example data.
func expandRow(o *gherkin.Outline, sectionIndex, exampleIndex int, row map[string]any) *gherkin.Scenario {
	sc := o.ToScenario(sectionIndex, exampleIndex, o.Line)
	fields := make([]string, 0, len(row))
	for k := range row {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		sc.Replace("<"+k+">", stringify(row[k]))
	}
	sc.ExampleData = row
	return sc
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
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
