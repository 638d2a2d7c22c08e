package config

import (
	crann "github.com/toutaio/toutago-crann"
)

// Sources accumulates configuration documents. Every source is merged into a
// single document as it is added, so later sources override earlier ones.
type Sources struct {
	doc map[string]any
}

// NewSources creates an empty document.
func NewSources() *Sources {
	return &Sources{doc: make(map[string]any)}
}

// Merge merges a raw document.
func (s *Sources) Merge(doc map[string]any) error {
	merged, err := Merge(s.doc, doc)
	if err != nil {
		return err
	}
	s.doc = merged
	return nil
}

// FromYAMLFile merges a YAML file.
func (s *Sources) FromYAMLFile(path string) error {
	doc, err := ReadYAMLFile(path)
	if err != nil {
		return err
	}
	return s.Merge(doc)
}

// FromYAMLString merges a YAML document.
func (s *Sources) FromYAMLString(src string) error {
	doc, err := ReadYAMLString(src)
	if err != nil {
		return err
	}
	return s.Merge(doc)
}

// FromHCLFile merges an HCL definition file.
func (s *Sources) FromHCLFile(path string) error {
	doc, err := ReadHCLFile(path)
	if err != nil {
		return err
	}
	return s.Merge(doc)
}

// FromHCLString merges HCL source. filename is only used in diagnostics.
func (s *Sources) FromHCLString(src, filename string) error {
	doc, err := ReadHCLString(src, filename)
	if err != nil {
		return err
	}
	return s.Merge(doc)
}

// FromEnv merges parameters read from the environment.
func (s *Sources) FromEnv(opts EnvOptions) error {
	doc, err := ReadEnv(opts)
	if err != nil {
		return err
	}
	return s.Merge(doc)
}

// Parameter sets a parameter.
func (s *Sources) Parameter(id string, value any) error {
	return s.Merge(map[string]any{
		sectionParameters: map[string]any{id: value},
	})
}

// Component sets a component whose value is given inline.
func (s *Sources) Component(id string, value any) error {
	return s.Merge(map[string]any{
		sectionComponents: map[string]any{id: map[string]any{fieldValue: value}},
	})
}

// Document returns a copy of the merged document.
func (s *Sources) Document() map[string]any {
	return clone(s.doc).(map[string]any)
}

// Definitions parses the merged document.
func (s *Sources) Definitions(opts ParseOptions) ([]*crann.Definition, error) {
	return Parse(s.doc, opts)
}
