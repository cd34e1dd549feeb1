// Package provider loads feature documents: parsed feature models written
// as YAML or JSON files. Documents are schema-validated before decoding, so
// the runtime only ever sees well-formed features.
package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
)

type document struct {
	Feature featureDoc `mapstructure:"feature"`
}

type featureDoc struct {
	Name        string       `mapstructure:"name"`
	Description string       `mapstructure:"description"`
	Tags        []string     `mapstructure:"tags"`
	Sections    []sectionDoc `mapstructure:"sections"`
}

type sectionDoc struct {
	Background *backgroundDoc `mapstructure:"background"`
	Scenario   *scenarioDoc   `mapstructure:"scenario"`
	Outline    *outlineDoc    `mapstructure:"outline"`
}

type backgroundDoc struct {
	Steps []stepDoc `mapstructure:"steps"`
}

type scenarioDoc struct {
	Name        string    `mapstructure:"name"`
	Description string    `mapstructure:"description"`
	Tags        []string  `mapstructure:"tags"`
	Steps       []stepDoc `mapstructure:"steps"`
}

type outlineDoc struct {
	Name        string     `mapstructure:"name"`
	Description string     `mapstructure:"description"`
	Tags        []string   `mapstructure:"tags"`
	Steps       []stepDoc  `mapstructure:"steps"`
	Examples    []tableDoc `mapstructure:"examples"`
}

type tableDoc struct {
	Header []string   `mapstructure:"header"`
	Rows   [][]string `mapstructure:"rows"`
}

type stepDoc struct {
	Prefix    string `mapstructure:"prefix"`
	Text      string `mapstructure:"text"`
	Docstring string `mapstructure:"docstring"`
}

// LoadFile reads, validates and decodes one feature document.
func LoadFile(path string) (*gherkin.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a feature document from YAML or JSON bytes. The path only
// labels the resulting feature.
func Parse(data []byte, path string) (*gherkin.Feature, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s is not valid YAML or JSON: %w", path, err)
	}
	if err := validate(raw, path); err != nil {
		return nil, err
	}

	var doc document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &doc,
		DecodeHook: stringToStepHook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc.Feature.toModel(path), nil
}

// LoadDir loads every .yaml, .yml and .json document under dir, sorted by
// path.
func LoadDir(dir string) ([]*gherkin.Feature, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	features := make([]*gherkin.Feature, 0, len(paths))
	for _, p := range paths {
		f, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}

func validate(raw any, path string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(featureSchema),
		gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate %s: %w", path, err)
	}
	if result.Valid() {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s is not a valid feature document:", path)
	for _, desc := range result.Errors() {
		fmt.Fprintf(&sb, "\n  %s: %s", desc.Field(), desc.Description())
	}
	return fmt.Errorf("%s", sb.String())
}

// stringToStepHook lets documents write plain strings where step objects
// are expected.
func stringToStepHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(stepDoc{}) {
		return data, nil
	}
	return map[string]any{"text": data.(string)}, nil
}

func (d featureDoc) toModel(path string) *gherkin.Feature {
	f := &gherkin.Feature{
		Name:        d.Name,
		Description: d.Description,
		Path:        path,
		Tags:        gherkin.ParseTags(d.Tags),
	}
	for _, s := range d.Sections {
		section := &gherkin.Section{}
		switch {
		case s.Background != nil:
			section.Background = &gherkin.Background{Steps: toSteps(s.Background.Steps)}
		case s.Scenario != nil:
			section.Scenario = &gherkin.Scenario{
				Name:        s.Scenario.Name,
				Description: s.Scenario.Description,
				Tags:        gherkin.ParseTags(s.Scenario.Tags),
				Steps:       toSteps(s.Scenario.Steps),
			}
		case s.Outline != nil:
			o := &gherkin.Outline{
				Name:        s.Outline.Name,
				Description: s.Outline.Description,
				Tags:        gherkin.ParseTags(s.Outline.Tags),
				Steps:       toSteps(s.Outline.Steps),
			}
			for _, tbl := range s.Outline.Examples {
				o.Examples = append(o.Examples, &gherkin.ExamplesTable{
					Header: tbl.Header,
					Rows:   tbl.Rows,
				})
			}
			section.Outline = o
		}
		f.Sections = append(f.Sections, section)
	}
	f.Normalize()
	return f
}

func toSteps(docs []stepDoc) []*gherkin.Step {
	steps := make([]*gherkin.Step, 0, len(docs))
	for _, d := range docs {
		prefix := d.Prefix
		if prefix == "" {
			prefix = "*"
		}
		steps = append(steps, &gherkin.Step{
			Prefix:    prefix,
			Text:      d.Text,
			Docstring: d.Docstring,
		})
	}
	return steps
}
