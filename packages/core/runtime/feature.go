package runtime

import (
	"errors"
	"time"

	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
)

type featureState int

const (
	stateReady featureState = iota
	stateRunning
	stateDone
)

type options struct {
	env       string
	evaluator Evaluator
	hooks     []Hook
	print     func(string)
	tagFilter []string
}

type Option func(*options)

// WithEnv sets the environment name exposed to expressions as 'env'.
func WithEnv(env string) Option {
	return func(o *options) { o.env = env }
}

// WithEvaluator installs the expression evaluator for all step commands.
func WithEvaluator(e Evaluator) Option {
	return func(o *options) { o.evaluator = e }
}

func WithHooks(hooks ...Hook) Option {
	return func(o *options) { o.hooks = append(o.hooks, hooks...) }
}

// WithPrinter receives the output of print steps.
func WithPrinter(print func(string)) Option {
	return func(o *options) { o.print = print }
}

// WithTagFilter restricts execution to scenarios carrying at least one of
// the given tag names.
func WithTagFilter(names ...string) Option {
	return func(o *options) { o.tagFilter = names }
}

// FeatureRuntime executes one feature's sections in order. Each instance
// owns its own setupOnce cache and runs exactly once.
type FeatureRuntime struct {
	feature *gherkin.Feature
	opts    options

	state      featureState
	background *gherkin.Background
	setupCache *SetupCache
	result     *FeatureResult
}

func NewFeatureRuntime(f *gherkin.Feature, opts ...Option) *FeatureRuntime {
	o := options{
		evaluator: EvaluatorFunc(func(expr string, scope *Scope) (any, error) {
			return nil, errors.New("no evaluator configured")
		}),
		print: func(string) {},
	}
	for _, opt := range opts {
		opt(&o)
	}
	f.Normalize()
	return &FeatureRuntime{
		feature:    f,
		opts:       o,
		setupCache: NewSetupCache(),
		result: &FeatureResult{
			Name:        f.Name,
			Description: f.Description,
			Path:        f.Path,
		},
	}
}

// Run walks the feature's sections. A *ConfigError aborts the remaining
// sections and comes back as the error; the result holds whatever executed
// before the abort. Scenario failures never abort the run.
func (fr *FeatureRuntime) Run() (*FeatureResult, error) {
	if fr.state != stateReady {
		return fr.result, errors.New("feature runtime already used")
	}
	fr.state = stateRunning
	fr.result.StartedAt = time.Now()
	defer func() {
		fr.result.Duration = time.Since(fr.result.StartedAt)
		fr.state = stateDone
	}()

	if err := fr.preflight(); err != nil {
		return fr.result, err
	}
	for _, section := range fr.feature.Sections {
		switch {
		case section.Background != nil:
			fr.background = section.Background
		case section.Scenario != nil:
			sc := section.Scenario
			if sc.IsSetup() || !fr.selected(sc.Tags) || sc.HasTag(gherkin.TagIgnore) {
				continue
			}
			fr.runScenario(sc)
		case section.Outline != nil:
			o := section.Outline
			if !fr.selected(o.Tags) || hasTag(o.Tags, gherkin.TagIgnore) {
				continue
			}
			if err := fr.runOutline(section); err != nil {
				return fr.result, err
			}
		}
	}
	return fr.result, nil
}

// preflight validates setup references so a missing setup scenario fails
// the feature before anything executes.
func (fr *FeatureRuntime) preflight() error {
	for _, section := range fr.feature.Sections {
		if section.Outline == nil {
			continue
		}
		for _, table := range section.Outline.Examples {
			src := classifySource(table)
			if src.kind != sourceSetupRef && src.kind != sourceSetupOnceRef {
				continue
			}
			if fr.feature.Setup(src.setupName) == nil {
				return missingSetupError(src.setupName)
			}
		}
	}
	return nil
}

func (fr *FeatureRuntime) runScenario(sc *gherkin.Scenario) {
	sr := newScenarioRuntime(fr, sc)
	fr.result.add(sr.Run())
}

func (fr *FeatureRuntime) runOutline(section *gherkin.Section) error {
	o := section.Outline
	for _, table := range o.Examples {
		src := classifySource(table)
		iter, err := fr.resolveRows(src)
		if err != nil {
			return err
		}
		for idx := 0; ; idx++ {
			row, ok, pullErr := iter.next()
			if pullErr != nil {
				// a generator pull failure stops this table's expansion
				// but leaves the rest of the feature running
				fr.result.add(&ScenarioResult{
					Name:           o.Name,
					SectionIndex:   section.Index,
					ExampleIndex:   idx,
					ExampleData:    map[string]any{},
					Tags:           gherkin.EffectiveTags(fr.feature.Tags, o.Tags),
					TagValues:      gherkin.MergeTagValues(fr.feature.Tags, o.Tags),
					Status:         StatusFailed,
					FailureMessage: pullErr.Error(),
					StartedAt:      time.Now(),
				})
				break
			}
			if !ok {
				break
			}
			fr.runScenario(expandRow(o, section.Index, idx, row))
		}
	}
	return nil
}

func (fr *FeatureRuntime) selected(tags []gherkin.Tag) bool {
	if len(fr.opts.tagFilter) == 0 {
		return true
	}
	for _, want := range fr.opts.tagFilter {
		if hasTag(tags, want) {
			return true
		}
	}
	return false
}

func hasTag(tags []gherkin.Tag, name string) bool {
	for _, t := range tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

func (fr *FeatureRuntime) print(msg string) {
	fr.opts.print(msg)
}
