package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
)

func boolEvaluator(v bool) Evaluator {
	return EvaluatorFunc(func(string, *Scope) (any, error) {
		return v, nil
	})
}

func TestInfoErrorMessageSetOnFailure(t *testing.T) {
	f := &gherkin.Feature{Name: "f", Sections: []*gherkin.Section{
		{Scenario: &gherkin.Scenario{Name: "fails", Steps: []*gherkin.Step{
			{Prefix: "*", Text: "assert nope"},
		}}},
	}}
	fr := NewFeatureRuntime(f, WithEvaluator(boolEvaluator(false)))
	sr := newScenarioRuntime(fr, f.Sections[0].Scenario)

	res := sr.Run()

	require.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, res.FailureMessage, sr.info["errorMessage"])
}

func TestInfoErrorMessageNilWhilePassing(t *testing.T) {
	f := &gherkin.Feature{Name: "f", Sections: []*gherkin.Section{
		{Scenario: &gherkin.Scenario{Name: "passes", Steps: []*gherkin.Step{
			{Prefix: "*", Text: "assert yep"},
		}}},
	}}
	fr := NewFeatureRuntime(f, WithEvaluator(boolEvaluator(true)))
	sr := newScenarioRuntime(fr, f.Sections[0].Scenario)

	res := sr.Run()

	require.Equal(t, StatusPassed, res.Status)
	assert.Nil(t, sr.info["errorMessage"])
}
