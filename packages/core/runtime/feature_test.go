package runtime_test

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karatelabs/karate-v2-sub006/packages/builtin"
	"github.com/karatelabs/karate-v2-sub006/packages/core/literal"
	"github.com/karatelabs/karate-v2-sub006/packages/core/runtime"
	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
)

func step(text string) *gherkin.Step {
	return &gherkin.Step{Prefix: "*", Text: text}
}

func docStep(text, doc string) *gherkin.Step {
	return &gherkin.Step{Prefix: "*", Text: text, Docstring: doc}
}

func scenarioSection(name string, tags []string, steps ...*gherkin.Step) *gherkin.Section {
	return &gherkin.Section{Scenario: &gherkin.Scenario{
		Name:  name,
		Tags:  gherkin.ParseTags(tags),
		Steps: steps,
	}}
}

func feature(sections ...*gherkin.Section) *gherkin.Feature {
	return &gherkin.Feature{Name: "demo", Path: "demo.feature", Sections: sections}
}

func run(t *testing.T, f *gherkin.Feature, opts ...runtime.Option) *runtime.FeatureResult {
	t.Helper()
	opts = append([]runtime.Option{runtime.WithEvaluator(literal.New())}, opts...)
	res, err := runtime.NewFeatureRuntime(f, opts...).Run()
	require.NoError(t, err)
	return res
}

func TestScenarioIsolationAndBackground(t *testing.T) {
	f := feature(
		&gherkin.Section{Background: &gherkin.Background{Steps: []*gherkin.Step{
			step("def base = 10"),
		}}},
		scenarioSection("first", nil,
			step("def local = 1"),
			step("match base == 10"),
			step("def base = 99"),
			step("match base == 99"),
		),
		scenarioSection("second", nil,
			step("match base == 10"),
			step("match local == 1"),
		),
	)

	res := run(t, f)

	require.Len(t, res.Scenarios, 2)
	first, second := res.Scenarios[0], res.Scenarios[1]
	assert.Equal(t, runtime.StatusPassed, first.Status, first.FailureMessage)

	// the second scenario sees a fresh background but not the first
	// scenario's variables
	assert.Equal(t, runtime.StatusFailed, second.Status)
	assert.Equal(t, runtime.StatusPassed, second.Steps[1].Status, "background binding unaffected by sibling")
	assert.Contains(t, second.FailureMessage, "unknown variable: local")
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 1, res.Failed)
}

func TestStepFailFast(t *testing.T) {
	f := feature(scenarioSection("fails in the middle", nil,
		step("def a = 1"),
		step("match a == 2"),
		step("def b = 3"),
		step("print b"),
	))

	res := run(t, f)

	sc := res.Scenarios[0]
	require.Len(t, sc.Steps, 4)
	assert.Equal(t, runtime.StatusPassed, sc.Steps[0].Status)
	assert.Equal(t, runtime.StatusFailed, sc.Steps[1].Status)
	assert.Equal(t, runtime.StatusSkipped, sc.Steps[2].Status)
	assert.Equal(t, runtime.StatusSkipped, sc.Steps[3].Status)
	assert.Contains(t, sc.FailureMessage, "match failed")
}

func TestStaticOutlineExpansion(t *testing.T) {
	f := feature(
		&gherkin.Section{Outline: &gherkin.Outline{
			Name: "greet <name>",
			Steps: []*gherkin.Step{
				step("def who = '<name>'"),
				step("match who == 'Bob'"),
				step("match age == <age>"),
			},
			Examples: []*gherkin.ExamplesTable{{
				Header: []string{"name", "age"},
				Rows:   [][]string{{"Bob", "5"}, {"Sue", "6"}},
			}},
		}},
		scenarioSection("after the outline", nil, step("assert 1 == 1")),
	)

	res := run(t, f)

	require.Len(t, res.Scenarios, 3)
	first, second, after := res.Scenarios[0], res.Scenarios[1], res.Scenarios[2]

	assert.Equal(t, "greet Bob", first.Name)
	assert.Equal(t, 0, first.ExampleIndex)
	assert.Equal(t, runtime.StatusPassed, first.Status, first.FailureMessage)

	assert.Equal(t, "greet Sue", second.Name)
	assert.Equal(t, 1, second.ExampleIndex)
	assert.Equal(t, runtime.StatusFailed, second.Status)
	assert.Equal(t, runtime.StatusSkipped, second.Steps[2].Status, "steps after the failure are skipped")
	assert.Equal(t, map[string]any{"name": "Sue", "age": 6}, second.ExampleData)

	assert.Equal(t, runtime.StatusPassed, after.Status, "outline failure does not halt the feature")
	assert.Equal(t, -1, after.ExampleIndex)
}

func generatorRegistry(t *testing.T, pulls *int32) runtime.Evaluator {
	t.Helper()
	reg := builtin.NewRegistry()
	reg.Register("makeRows", func([]any) (any, error) {
		fn := runtime.Function(func(_ *runtime.Scope, args ...any) (any, error) {
			i := args[0].(int)
			if pulls != nil {
				atomic.AddInt32(pulls, 1)
			}
			if i >= 3 {
				return "done", nil
			}
			return map[string]any{"name": fmt.Sprintf("item%d", i)}, nil
		})
		return fn, nil
	})
	return literal.NewWithRegistry(reg)
}

func TestGeneratorBackedOutline(t *testing.T) {
	f := feature(
		&gherkin.Section{Scenario: &gherkin.Scenario{
			Name:  "provide rows",
			Tags:  gherkin.ParseTags([]string{"@setup"}),
			Steps: []*gherkin.Step{step("def gen = makeRows()")},
		}},
		&gherkin.Section{Outline: &gherkin.Outline{
			Name: "consume <name>",
			Steps: []*gherkin.Step{
				step("match name == __row.name"),
				step("assert __num >= 0"),
			},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"setup().gen"}}},
		}},
	)

	res := run(t, f, runtime.WithEvaluator(generatorRegistry(t, nil)))

	require.Len(t, res.Scenarios, 3)
	for i, sc := range res.Scenarios {
		assert.Equal(t, fmt.Sprintf("consume item%d", i), sc.Name)
		assert.Equal(t, i, sc.ExampleIndex)
		assert.Equal(t, runtime.StatusPassed, sc.Status, sc.FailureMessage)
		assert.Equal(t, i, sc.ExampleData["__num"])
	}
	assert.Equal(t, 0, res.Failed)
}

// scopedGeneratorRegistry registers a generator whose rows depend on a
// 'prefix' variable read through the scope each pull receives.
func scopedGeneratorRegistry() runtime.Evaluator {
	reg := builtin.NewRegistry()
	reg.Register("prefixRows", func([]any) (any, error) {
		fn := runtime.Function(func(scope *runtime.Scope, args ...any) (any, error) {
			i := args[0].(int)
			if i >= 2 {
				return nil, nil
			}
			prefix, ok := scope.Get("prefix")
			if !ok {
				prefix = "unbound"
			}
			return map[string]any{"name": fmt.Sprintf("%v%d", prefix, i)}, nil
		})
		return fn, nil
	})
	return literal.NewWithRegistry(reg)
}

func TestGeneratorPullsSeeBackgroundScope(t *testing.T) {
	f := feature(
		&gherkin.Section{Background: &gherkin.Background{Steps: []*gherkin.Step{
			step("def prefix = 'item'"),
			step("def gen = prefixRows()"),
		}}},
		&gherkin.Section{Outline: &gherkin.Outline{
			Name:     "use <name>",
			Steps:    []*gherkin.Step{step("match name == __row.name")},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"gen"}}},
		}},
	)

	res := run(t, f, runtime.WithEvaluator(scopedGeneratorRegistry()))

	require.Len(t, res.Scenarios, 2)
	assert.Equal(t, "use item0", res.Scenarios[0].Name)
	assert.Equal(t, "use item1", res.Scenarios[1].Name)
	assert.Equal(t, 2, res.Passed)
}

func TestGeneratorPullsSeeSetupScope(t *testing.T) {
	f := feature(
		&gherkin.Section{Scenario: &gherkin.Scenario{
			Name: "provide",
			Tags: gherkin.ParseTags([]string{"@setup"}),
			Steps: []*gherkin.Step{
				step("def prefix = 'row'"),
				step("def gen = prefixRows()"),
			},
		}},
		&gherkin.Section{Outline: &gherkin.Outline{
			Name:     "use <name>",
			Steps:    []*gherkin.Step{step("match name == __row.name")},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"setup().gen"}}},
		}},
	)

	res := run(t, f, runtime.WithEvaluator(scopedGeneratorRegistry()))

	require.Len(t, res.Scenarios, 2)
	assert.Equal(t, "use row0", res.Scenarios[0].Name)
	assert.Equal(t, "use row1", res.Scenarios[1].Name)
	assert.Equal(t, 2, res.Passed)
}

func TestSetupOnceMemoizesAcrossTables(t *testing.T) {
	var setupRuns int32
	reg := builtin.NewRegistry()
	reg.Register("loadRows", func([]any) (any, error) {
		atomic.AddInt32(&setupRuns, 1)
		return []any{map[string]any{"n": 1}}, nil
	})

	outline := func() *gherkin.Section {
		return &gherkin.Section{Outline: &gherkin.Outline{
			Name:     "row <n>",
			Steps:    []*gherkin.Step{step("match n == 1")},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"setupOnce().data"}}},
		}}
	}
	f := feature(
		&gherkin.Section{Scenario: &gherkin.Scenario{
			Name:  "load",
			Tags:  gherkin.ParseTags([]string{"@setup"}),
			Steps: []*gherkin.Step{step("def data = loadRows()")},
		}},
		outline(),
		outline(),
	)

	res := run(t, f, runtime.WithEvaluator(literal.NewWithRegistry(reg)))

	assert.Len(t, res.Scenarios, 2)
	assert.Equal(t, 2, res.Passed)
	assert.EqualValues(t, 1, setupRuns, "setupOnce runs the provider once per feature")
}

func TestBareSetupRunsPerReference(t *testing.T) {
	var setupRuns int32
	reg := builtin.NewRegistry()
	reg.Register("loadRows", func([]any) (any, error) {
		atomic.AddInt32(&setupRuns, 1)
		return []any{map[string]any{"n": 1}}, nil
	})

	outline := func() *gherkin.Section {
		return &gherkin.Section{Outline: &gherkin.Outline{
			Name:     "row <n>",
			Steps:    []*gherkin.Step{step("match n == 1")},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"setup().data"}}},
		}}
	}
	f := feature(
		&gherkin.Section{Scenario: &gherkin.Scenario{
			Name:  "load",
			Tags:  gherkin.ParseTags([]string{"@setup"}),
			Steps: []*gherkin.Step{step("def data = loadRows()")},
		}},
		outline(),
		outline(),
	)

	run(t, f, runtime.WithEvaluator(literal.NewWithRegistry(reg)))

	assert.EqualValues(t, 2, setupRuns, "bare setup bypasses the cache")
}

func TestSetupOnceGeneratorDrainedOnce(t *testing.T) {
	var pulls int32
	outline := func() *gherkin.Section {
		return &gherkin.Section{Outline: &gherkin.Outline{
			Name:     "use <name>",
			Steps:    []*gherkin.Step{step("match name == __row.name")},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"setupOnce().gen"}}},
		}}
	}
	f := feature(
		&gherkin.Section{Scenario: &gherkin.Scenario{
			Name:  "provide",
			Tags:  gherkin.ParseTags([]string{"@setup"}),
			Steps: []*gherkin.Step{step("def gen = makeRows()")},
		}},
		outline(),
		outline(),
	)

	res := run(t, f, runtime.WithEvaluator(generatorRegistry(t, &pulls)))

	assert.Len(t, res.Scenarios, 6)
	assert.Equal(t, 6, res.Passed)
	// 3 rows plus the terminating pull, executed exactly once
	assert.EqualValues(t, 4, pulls)
}

func TestGeneratorPullErrorStopsTableOnly(t *testing.T) {
	reg := builtin.NewRegistry()
	reg.Register("makeRows", func([]any) (any, error) {
		fn := runtime.Function(func(_ *runtime.Scope, args ...any) (any, error) {
			if args[0].(int) == 1 {
				return nil, errors.New("boom")
			}
			return map[string]any{"n": 1}, nil
		})
		return fn, nil
	})
	f := feature(
		&gherkin.Section{Scenario: &gherkin.Scenario{
			Name:  "provide",
			Tags:  gherkin.ParseTags([]string{"@setup"}),
			Steps: []*gherkin.Step{step("def gen = makeRows()")},
		}},
		&gherkin.Section{Outline: &gherkin.Outline{
			Name:     "use <n>",
			Steps:    []*gherkin.Step{step("match n == 1")},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"setup().gen"}}},
		}},
		scenarioSection("sibling", nil, step("assert true")),
	)

	res := run(t, f, runtime.WithEvaluator(literal.NewWithRegistry(reg)))

	require.Len(t, res.Scenarios, 3)
	assert.Equal(t, runtime.StatusPassed, res.Scenarios[0].Status)
	assert.Equal(t, runtime.StatusFailed, res.Scenarios[1].Status)
	assert.Contains(t, res.Scenarios[1].FailureMessage, "boom")
	assert.Equal(t, 1, res.Scenarios[1].ExampleIndex)
	assert.Equal(t, runtime.StatusPassed, res.Scenarios[2].Status, "rest of the feature still runs")
}

func TestMissingSetupFailsBeforeAnythingRuns(t *testing.T) {
	f := feature(
		scenarioSection("would pass", nil, step("assert true")),
		&gherkin.Section{Outline: &gherkin.Outline{
			Name:     "broken",
			Steps:    []*gherkin.Step{step("assert true")},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"setup('nope').data"}}},
		}},
	)

	res, err := runtime.NewFeatureRuntime(f, runtime.WithEvaluator(literal.New())).Run()

	require.Error(t, err)
	var ce *runtime.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "@setup=nope")
	assert.Empty(t, res.Scenarios, "nothing executes when a setup reference is broken")
}

func TestInlineExpressionSource(t *testing.T) {
	reg := builtin.NewRegistry()
	reg.Register("dataRows", func([]any) (any, error) {
		return []any{map[string]any{"u": 1}, map[string]any{"u": 2}}, nil
	})
	f := feature(&gherkin.Section{Outline: &gherkin.Outline{
		Name:     "user <u>",
		Steps:    []*gherkin.Step{step("assert u > 0")},
		Examples: []*gherkin.ExamplesTable{{Header: []string{"dataRows()"}}},
	}})

	res := run(t, f, runtime.WithEvaluator(literal.NewWithRegistry(reg)))

	require.Len(t, res.Scenarios, 2)
	assert.Equal(t, "user 1", res.Scenarios[0].Name)
	assert.Equal(t, 2, res.Passed)
}

func TestInlineExpressionMustYieldMaps(t *testing.T) {
	reg := builtin.NewRegistry()
	reg.Register("dataRows", func([]any) (any, error) { return "nope", nil })
	f := feature(&gherkin.Section{Outline: &gherkin.Outline{
		Name:     "broken",
		Steps:    []*gherkin.Step{step("assert true")},
		Examples: []*gherkin.ExamplesTable{{Header: []string{"dataRows()"}}},
	}})

	_, err := runtime.NewFeatureRuntime(f,
		runtime.WithEvaluator(literal.NewWithRegistry(reg))).Run()

	var ce *runtime.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "list of maps")
}

func TestZeroRowsExpandToZeroScenarios(t *testing.T) {
	f := feature(
		&gherkin.Section{Outline: &gherkin.Outline{
			Name:     "empty",
			Steps:    []*gherkin.Step{step("assert true")},
			Examples: []*gherkin.ExamplesTable{{Header: []string{"name", "age"}, Rows: nil}},
		}},
		scenarioSection("sibling", nil, step("assert true")),
	)

	res := run(t, f)

	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "sibling", res.Scenarios[0].Name)
}

func TestSetupScenariosNeverRunDirectly(t *testing.T) {
	f := feature(
		&gherkin.Section{Scenario: &gherkin.Scenario{
			Name:  "provider",
			Tags:  gherkin.ParseTags([]string{"@setup"}),
			Steps: []*gherkin.Step{step("assert false")},
		}},
		scenarioSection("regular", nil, step("assert true")),
	)

	res := run(t, f)

	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "regular", res.Scenarios[0].Name)
}

func TestIgnoreTagSkipsScenario(t *testing.T) {
	f := feature(
		scenarioSection("skipped", []string{"@ignore"}, step("assert false")),
		scenarioSection("kept", nil, step("assert true")),
	)

	res := run(t, f)

	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "kept", res.Scenarios[0].Name)
}

func TestTagFilter(t *testing.T) {
	f := feature(
		scenarioSection("smoke test", []string{"@smoke"}, step("assert true")),
		scenarioSection("slow test", []string{"@slow"}, step("assert true")),
	)

	res := run(t, f, runtime.WithTagFilter("smoke"))

	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "smoke test", res.Scenarios[0].Name)
}

func TestTagValuesMerge(t *testing.T) {
	f := feature(scenarioSection("tagged", []string{"@env=qa"}, step("assert true")))
	f.Tags = gherkin.ParseTags([]string{"@env=dev", "@smoke"})

	res := run(t, f)

	sc := res.Scenarios[0]
	assert.Equal(t, []string{"qa"}, sc.TagValues["env"], "scenario values replace feature values")
	assert.Equal(t, []string{}, sc.TagValues["smoke"], "bare tags map to an empty list")
	assert.Equal(t, []string{"@env=dev", "@smoke", "@env=qa"}, sc.Tags)
}

func TestIntrospectionBindings(t *testing.T) {
	f := feature(scenarioSection("introspect", []string{"@smoke"},
		step("match feature.name == 'demo'"),
		step("match feature.path == 'demo.feature'"),
		step("match scenario.name == 'introspect'"),
		step("match scenario.exampleIndex == -1"),
		step("match tags contains '@smoke'"),
		step("match os.name == '#string'"),
		step("match env == 'dev'"),
		step("match info.name == 'introspect'"),
	))

	res := run(t, f, runtime.WithEnv("dev"))

	sc := res.Scenarios[0]
	assert.Equal(t, runtime.StatusPassed, sc.Status, sc.FailureMessage)
}

func TestPrinter(t *testing.T) {
	var lines []string
	f := feature(scenarioSection("prints", nil,
		step("def msg = 'hello'"),
		step("print msg"),
	))

	run(t, f, runtime.WithPrinter(func(s string) { lines = append(lines, s) }))

	assert.Equal(t, []string{"hello"}, lines)
}

func TestBackgroundFailureFailsScenario(t *testing.T) {
	f := feature(
		&gherkin.Section{Background: &gherkin.Background{Steps: []*gherkin.Step{
			step("match 1 == 2"),
		}}},
		scenarioSection("victim", nil, step("assert true")),
	)

	res := run(t, f)

	sc := res.Scenarios[0]
	assert.Equal(t, runtime.StatusFailed, sc.Status)
	require.Len(t, sc.Steps, 2)
	assert.Equal(t, runtime.StatusFailed, sc.Steps[0].Status)
	assert.Equal(t, runtime.StatusSkipped, sc.Steps[1].Status)
}

func TestDocstringRightHandSide(t *testing.T) {
	f := feature(scenarioSection("docstring", nil,
		docStep("def user =", "{name: 'Bob', age: 5}"),
		docStep("match user ==", "{name: '#string', age: '#number'}"),
	))

	res := run(t, f)

	assert.Equal(t, runtime.StatusPassed, res.Scenarios[0].Status, res.Scenarios[0].FailureMessage)
}

func TestFeatureRuntimeRunsOnce(t *testing.T) {
	f := feature(scenarioSection("once", nil, step("assert true")))
	fr := runtime.NewFeatureRuntime(f, runtime.WithEvaluator(literal.New()))

	_, err := fr.Run()
	require.NoError(t, err)
	_, err = fr.Run()
	assert.Error(t, err)
}

type recordingHook struct {
	runtime.NopHook
	before, steps, after int
}

func (h *recordingHook) BeforeScenario(*gherkin.Scenario) { h.before++ }

func (h *recordingHook) AfterStep(*gherkin.Scenario, runtime.StepResult) { h.steps++ }

func (h *recordingHook) AfterScenario(*runtime.ScenarioResult) { h.after++ }

func TestHooksObserveExecution(t *testing.T) {
	hook := &recordingHook{}
	f := feature(scenarioSection("observed", nil,
		step("assert true"),
		step("assert true"),
	))

	run(t, f, runtime.WithHooks(hook))

	assert.Equal(t, 1, hook.before)
	assert.Equal(t, 2, hook.steps)
	assert.Equal(t, 1, hook.after)
}
