package gherkin

import "strings"

// Feature is the parsed model of one feature file. Parsing happens upstream;
// this package only defines the structures the runtime executes.
type Feature struct {
	Name        string
	Description string
	Path        string
	Tags        []Tag
	Sections    []*Section
}

// Section holds exactly one of Background, Scenario or Outline.
type Section struct {
	Index      int
	Background *Background
	Scenario   *Scenario
	Outline    *Outline
}

type Background struct {
	Steps []*Step
	Line  int
}

type Scenario struct {
	Name        string
	Description string
	Tags        []Tag
	Steps       []*Step

	SectionIndex int
	// ExampleIndex is -1 unless this scenario was expanded from an outline.
	ExampleIndex int
	// ExampleData holds the row that produced this scenario. Empty for
	// ordinary scenarios.
	ExampleData map[string]any
	Line        int
}

type Outline struct {
	Name        string
	Description string
	Tags        []Tag
	Steps       []*Step
	Examples    []*ExamplesTable
	Line        int
}

// ExamplesTable is one Examples block under an outline. A table with a single
// header cell and no rows is a dynamic source: the cell text selects the data
// source (inline expression, setup reference or generator).
type ExamplesTable struct {
	Header []string
	Rows   [][]string
	Line   int
}

func (t *ExamplesTable) IsDynamic() bool {
	return len(t.Header) == 1 && len(t.Rows) == 0
}

type Step struct {
	Prefix    string
	Text      string
	Docstring string
	Table     []map[string]string
	Line      int
}

// Normalize fills derived fields after construction: section indexes and
// the -1 example index that marks scenarios not expanded from an outline.
// Safe to call more than once.
func (f *Feature) Normalize() {
	for i, section := range f.Sections {
		section.Index = i
		if sc := section.Scenario; sc != nil {
			sc.SectionIndex = i
			if len(sc.ExampleData) == 0 {
				sc.ExampleIndex = -1
			}
		}
	}
}

// IsSetup reports whether the scenario carries a @setup or @setup=<name> tag.
// Setup scenarios are data providers and are never scheduled directly.
func (s *Scenario) IsSetup() bool {
	for _, tag := range s.Tags {
		if tag.Name == TagSetup {
			return true
		}
	}
	return false
}

func (s *Scenario) HasTag(name string) bool {
	for _, tag := range s.Tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// Setup locates the @setup scenario for the given name. An empty name matches
// a bare @setup tag; a non-empty name matches any of an @setup=<values> tag's
// values.
func (f *Feature) Setup(name string) *Scenario {
	for _, section := range f.Sections {
		sc := section.Scenario
		if sc == nil || !sc.IsSetup() {
			continue
		}
		for _, tag := range sc.Tags {
			if tag.Name != TagSetup {
				continue
			}
			if name == "" && len(tag.Values) == 0 {
				return sc
			}
			for _, v := range tag.Values {
				if v == name {
					return sc
				}
			}
		}
	}
	return nil
}

// ToScenario creates a concrete scenario from the outline template. Steps are
// deep-copied so placeholder substitution cannot leak between rows.
func (o *Outline) ToScenario(sectionIndex, exampleIndex, line int) *Scenario {
	steps := make([]*Step, len(o.Steps))
	for i, step := range o.Steps {
		copied := *step
		steps[i] = &copied
	}
	tags := make([]Tag, len(o.Tags))
	copy(tags, o.Tags)
	return &Scenario{
		Name:         o.Name,
		Description:  o.Description,
		Tags:         tags,
		Steps:        steps,
		SectionIndex: sectionIndex,
		ExampleIndex: exampleIndex,
		ExampleData:  map[string]any{},
		Line:         line,
	}
}

// Replace substitutes a placeholder token in the scenario name and in every
// step's text and docstring.
func (s *Scenario) Replace(token, value string) {
	s.Name = strings.ReplaceAll(s.Name, token, value)
	for _, step := range s.Steps {
		step.Text = strings.ReplaceAll(step.Text, token, value)
		if step.Docstring != "" {
			step.Docstring = strings.ReplaceAll(step.Docstring, token, value)
		}
	}
}
