package thesisaf

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// TemplateRegistry supplies the required metadata field names for a thesis
// template. Template storage and administration live outside this module;
// the built-in registry covers the bundled templates.
type TemplateRegistry interface {
	// RequiredFields returns the dot-qualified required field names for a
	// template identifier.
	RequiredFields(templateID string) ([]string, error)
}

//go:embed templates.yaml
var templatesYAML []byte

const genericTemplateID = "generic"

// StaticTemplateRegistry is the built-in registry backed by the embedded
// template catalog. Unknown identifiers fall back to the generic template.
type StaticTemplateRegistry struct {
	required map[string][]string
}

// NewStaticTemplateRegistry parses the embedded catalog.
func NewStaticTemplateRegistry() (*StaticTemplateRegistry, error) {
	var catalog struct {
		Templates map[string]struct {
			RequiredFields []string `yaml:"required_fields"`
		} `yaml:"templates"`
	}
	if err := yaml.Unmarshal(templatesYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parsing template catalog: %w", err)
	}
	r := &StaticTemplateRegistry{required: make(map[string][]string, len(catalog.Templates))}
	for id, t := range catalog.Templates {
		r.required[id] = t.RequiredFields
	}
	if _, ok := r.required[genericTemplateID]; !ok {
		return nil, fmt.Errorf("template catalog missing %q entry", genericTemplateID)
	}
	return r, nil
}

// RequiredFields returns the required fields for a template, or the generic
// set when the identifier is unknown or empty.
func (r *StaticTemplateRegistry) RequiredFields(templateID string) ([]string, error) {
	if fields, ok := r.required[templateID]; ok {
		return fields, nil
	}
	return r.required[genericTemplateID], nil
}

// TemplateIDs returns the known template identifiers, sorted.
func (r *StaticTemplateRegistry) TemplateIDs() []string {
	ids := make([]string, 0, len(r.required))
	for id := range r.required {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
