// Package driver loads template-pack manifests (template.yml): the pack's
// templates and where its dependencies come from.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest represents the parsed contents of template.yml.
type Manifest struct {
	Path          string
	Name          string
	Version       string
	Authors       []string
	Templates     map[string]*TemplateSpec
	TemplateOrder []string
	Dependencies  map[string]*DependencySpec
}

// TemplateSpec describes one runnable template in the pack.
type TemplateSpec struct {
	Name        string
	Main        string
	Description string
}

// DependencySpec describes where a depended-on template pack comes from.
type DependencySpec struct {
	Version string
	Git     string
	Rev     string
	Tag     string
	Branch  string
	Path    string
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses template.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	for i, author := range m.Authors {
		if author == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("authors[%d] must be a non-empty string", i))
		}
	}
	for _, name := range m.TemplateOrder {
		spec := m.Templates[name]
		if spec == nil {
			continue
		}
		if spec.Main == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("template %q missing main entrypoint", name))
		}
	}
	for depName, dep := range m.Dependencies {
		if dep == nil {
			continue
		}
		for _, issue := range dep.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", depName, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var errs []string
	if d.Path != "" && (d.Version != "" || d.Git != "") {
		errs = append(errs, "path overrides cannot specify version or git source")
	}
	if d.Git != "" && d.Version != "" {
		errs = append(errs, "git dependencies cannot also specify version")
	}
	if d.Git == "" && (d.Rev != "" || d.Tag != "" || d.Branch != "") {
		errs = append(errs, "rev, tag and branch apply only to git sources")
	}
	if d.Version == "" && d.Git == "" && d.Path == "" {
		errs = append(errs, "must specify version, git, or path")
	}
	return errs
}

var ErrNoTemplates = errors.New("manifest: no templates defined")

// DefaultTemplate returns the first template in manifest order.
func (m *Manifest) DefaultTemplate() (*TemplateSpec, error) {
	if m == nil || len(m.TemplateOrder) == 0 {
		return nil, ErrNoTemplates
	}
	return m.Templates[m.TemplateOrder[0]], nil
}

// FindTemplate looks up a template by name.
func (m *Manifest) FindTemplate(name string) (*TemplateSpec, bool) {
	if m == nil {
		return nil, false
	}
	spec, ok := m.Templates[strings.TrimSpace(name)]
	return spec, ok && spec != nil
}

type manifestFile struct {
	Name         string                     `yaml:"name"`
	Version      string                     `yaml:"version"`
	Authors      []string                   `yaml:"authors"`
	Templates    templateMap                `yaml:"templates"`
	Dependencies map[string]*dependencyYAML `yaml:"dependencies"`
}

type templateYAML struct {
	Main        string `yaml:"main"`
	Description string `yaml:"description"`
}

// templateMap preserves manifest declaration order.
type templateMap struct {
	items []templateMapEntry
}

type templateMapEntry struct {
	name string
	spec *templateYAML
}

func (tm *templateMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		tm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: templates must be a mapping")
	}
	items := make([]templateMapEntry, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: templates must not use empty keys")
		}
		entry := new(templateYAML)
		if err := value.Content[i+1].Decode(entry); err != nil {
			return fmt.Errorf("manifest: template %q: %w", key, err)
		}
		items = append(items, templateMapEntry{name: key, spec: entry})
	}
	tm.items = items
	return nil
}

type dependencyYAML struct {
	Version string `yaml:"version"`
	Git     string `yaml:"git"`
	Rev     string `yaml:"rev"`
	Tag     string `yaml:"tag"`
	Branch  string `yaml:"branch"`
	Path    string `yaml:"path"`
}

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path:          path,
		Name:          strings.TrimSpace(mf.Name),
		Version:       strings.TrimSpace(mf.Version),
		Templates:     make(map[string]*TemplateSpec, len(mf.Templates.items)),
		TemplateOrder: make([]string, 0, len(mf.Templates.items)),
		Dependencies:  make(map[string]*DependencySpec, len(mf.Dependencies)),
	}
	for _, author := range mf.Authors {
		author = strings.TrimSpace(author)
		if author != "" {
			result.Authors = append(result.Authors, author)
		}
	}
	for _, item := range mf.Templates.items {
		if item.spec == nil {
			continue
		}
		spec := &TemplateSpec{
			Name:        item.name,
			Main:        strings.TrimSpace(item.spec.Main),
			Description: strings.TrimSpace(item.spec.Description),
		}
		if _, exists := result.Templates[item.name]; !exists {
			result.Templates[item.name] = spec
			result.TemplateOrder = append(result.TemplateOrder, item.name)
		}
	}
	for name, dep := range mf.Dependencies {
		if dep == nil {
			continue
		}
		result.Dependencies[name] = &DependencySpec{
			Version: strings.TrimSpace(dep.Version),
			Git:     strings.TrimSpace(dep.Git),
			Rev:     strings.TrimSpace(dep.Rev),
			Tag:     strings.TrimSpace(dep.Tag),
			Branch:  strings.TrimSpace(dep.Branch),
			Path:    strings.TrimSpace(dep.Path),
		}
	}
	return result
}
