package runtime

import (
	"errors"
	"time"

	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
)

// ScenarioRuntime executes one scenario: background steps first, then the
// scenario's own steps, fail-fast within the scenario. A failure never
// affects sibling scenarios.
type ScenarioRuntime struct {
	feature  *FeatureRuntime
	scenario *gherkin.Scenario

	scope  *Scope
	result *ScenarioResult
	// info backs the 'info' binding; its errorMessage entry is filled in
	// when a step fails so after-the-fact readers see the failure.
	info map[string]any

	skipBackground bool
	failed         bool
}

func newScenarioRuntime(fr *FeatureRuntime, sc *gherkin.Scenario) *ScenarioRuntime {
	return &ScenarioRuntime{
		feature:  fr,
		scenario: sc,
		result: &ScenarioResult{
			Name:         sc.Name,
			Description:  sc.Description,
			SectionIndex: sc.SectionIndex,
			ExampleIndex: sc.ExampleIndex,
			ExampleData:  sc.ExampleData,
			Tags:         gherkin.EffectiveTags(fr.feature.Tags, sc.Tags),
			TagValues:    gherkin.MergeTagValues(fr.feature.Tags, sc.Tags),
		},
	}
}

// Run executes the scenario and returns its result. It never returns an
// error: evaluation and assertion failures land in the result tree.
func (sr *ScenarioRuntime) Run() *ScenarioResult {
	sr.result.StartedAt = time.Now()
	for _, h := range sr.feature.opts.hooks {
		h.BeforeScenario(sr.scenario)
	}

	base := NewScope(nil)
	sr.bindIntrospection(base)
	sr.bindExampleData(base)

	// background bindings live in a parent of the scenario scope, so
	// scenario writes shadow rather than overwrite them
	bgScope := NewScope(base)
	if bg := sr.feature.background; bg != nil && !sr.skipBackground {
		sr.scope = bgScope
		sr.runSteps(bg.Steps)
	}
	sr.scope = NewScope(bgScope)
	sr.runSteps(sr.scenario.Steps)

	sr.result.Status = StatusPassed
	if sr.failed {
		sr.result.Status = StatusFailed
	}
	sr.result.Duration = time.Since(sr.result.StartedAt)
	for _, h := range sr.feature.opts.hooks {
		h.AfterScenario(sr.result)
	}
	return sr.result
}

func (sr *ScenarioRuntime) bindExampleData(scope *Scope) {
	sc := sr.scenario
	if sc.ExampleIndex < 0 {
		return
	}
	for k, v := range sc.ExampleData {
		scope.Set(k, v)
	}
	if _, bound := sc.ExampleData["__num"]; !bound {
		scope.Set("__num", sc.ExampleIndex)
	}
	if _, bound := sc.ExampleData["__row"]; !bound {
		row := map[string]any{}
		for k, v := range sc.ExampleData {
			row[k] = v
		}
		scope.Set("__row", row)
	}
}

func (sr *ScenarioRuntime) runSteps(steps []*gherkin.Step) {
	for _, step := range steps {
		res := sr.runStep(step)
		sr.result.Steps = append(sr.result.Steps, res)
		for _, h := range sr.feature.opts.hooks {
			h.AfterStep(sr.scenario, res)
		}
	}
}

func (sr *ScenarioRuntime) runStep(step *gherkin.Step) StepResult {
	res := StepResult{Prefix: step.Prefix, Text: step.Text}
	if sr.failed {
		res.Status = StatusSkipped
		return res
	}
	started := time.Now()
	err := sr.execStep(step)
	res.Duration = time.Since(started)
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		sr.failed = true
		if sr.result.FailureMessage == "" {
			sr.result.FailureMessage = err.Error()
		}
		if sr.info != nil {
			sr.info["errorMessage"] = err.Error()
		}
		return res
	}
	res.Status = StatusPassed
	return res
}

func (sr *ScenarioRuntime) execStep(step *gherkin.Step) error {
	cmd, err := parseStep(step.Text, step.Docstring)
	if err != nil {
		return err
	}
	return cmd.run(sr)
}

// eval routes an expression through the configured evaluator, wrapping
// failures so callers can distinguish evaluation errors from assertions.
func (sr *ScenarioRuntime) eval(expr string) (any, error) {
	v, err := sr.feature.opts.evaluator.Evaluate(expr, sr.scope)
	if err != nil {
		var ee *EvalError
		if errors.As(err, &ee) {
			return nil, err
		}
		return nil, &EvalError{Expr: expr, Err: err}
	}
	return v, nil
}
