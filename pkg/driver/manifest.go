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

// ManifestFile is the conventional manifest name looked up in project roots.
const ManifestFile = "menter.yml"

const (
	maxDivisionScale = 100
	maxTraceStyle    = 3
)

// Manifest represents the parsed contents of menter.yml.
type Manifest struct {
	Path         string
	Name         string
	Entry        string
	Sources      []string
	Dependencies map[string]*DependencySpec
	// DependencyOrder lists dependency names in manifest order.
	DependencyOrder []string
	Options         OptionsSpec
}

// DependencySpec describes where the sources of a dependency come from:
// either a directory or a git repository at a revision.
type DependencySpec struct {
	Path    string
	Git     string
	Rev     string
	Sources []string
}

// OptionsSpec mirrors the interpreter options a project may configure.
type OptionsSpec struct {
	DivisionScale    int      `yaml:"division_scale"`
	Suggestions      *int     `yaml:"suggestions"`
	ForbiddenImports []string `yaml:"forbidden_imports"`
	AutoImports      []string `yaml:"auto_imports"`
	Trace            int      `yaml:"trace"`
	TraceValues      []string `yaml:"trace_values"`
	LogResolve       bool     `yaml:"log_resolve"`
	LogAssignments   bool     `yaml:"log_assignments"`
	LogCalls         bool     `yaml:"log_calls"`
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

// ErrManifestNotFound is returned by FindManifest when no menter.yml exists in
// the start directory or any parent.
var ErrManifestNotFound = errors.New("menter.yml not found")

// LoadManifest parses menter.yml from disk, returning a validated manifest.
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
	return parseManifest(file, absPath)
}

func parseManifest(r io.Reader, path string) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", path)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}

	manifest := raw.toManifest(path)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks up from start until it finds menter.yml.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ManifestFile)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrManifestNotFound
		}
		dir = parent
	}
}

// Dir is the directory holding the manifest; relative paths resolve against it.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Entry == "" {
		errs.Issues = append(errs.Issues, "entry must be provided")
	}
	for i, pattern := range m.Sources {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("sources[%d]: invalid pattern %q", i, pattern))
		}
	}

	opts := m.Options
	if opts.DivisionScale < 0 || opts.DivisionScale > maxDivisionScale {
		errs.Issues = append(errs.Issues, fmt.Sprintf("options.division_scale must be between 0 and %d, got %d", maxDivisionScale, opts.DivisionScale))
	}
	if opts.Suggestions != nil && *opts.Suggestions < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("options.suggestions must not be negative, got %d", *opts.Suggestions))
	}
	if opts.Trace < 0 || opts.Trace > maxTraceStyle {
		errs.Issues = append(errs.Issues, fmt.Sprintf("options.trace must be between 0 and %d, got %d", maxTraceStyle, opts.Trace))
	}

	for _, name := range m.DependencyOrder {
		dep := m.Dependencies[name]
		for _, issue := range dep.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", name, issue))
		}
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var errs []string
	if d == nil {
		return []string{"must specify path or git"}
	}
	switch {
	case d.Path == "" && d.Git == "":
		errs = append(errs, "must specify path or git")
	case d.Path != "" && d.Git != "":
		errs = append(errs, "path dependencies cannot also specify git")
	}
	if d.Rev != "" && d.Git == "" {
		errs = append(errs, "rev applies only to git dependencies")
	}
	for i, pattern := range d.Sources {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Sprintf("sources[%d]: invalid pattern %q", i, pattern))
		}
	}
	return errs
}

// SourcePatterns returns the configured patterns, or the top level tree files.
func SourcePatterns(patterns []string) []string {
	if len(patterns) == 0 {
		return []string{"*.json"}
	}
	return patterns
}

type manifestFile struct {
	Name         string        `yaml:"name"`
	Entry        string        `yaml:"entry"`
	Sources      stringList    `yaml:"sources"`
	Dependencies dependencyMap `yaml:"dependencies"`
	Options      OptionsSpec   `yaml:"options"`
}

type dependencyMap struct {
	order []string
	items map[string]*DependencySpec
}

type stringList []string

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path:            path,
		Name:            strings.TrimSpace(mf.Name),
		Entry:           filepath.ToSlash(strings.TrimSpace(mf.Entry)),
		Sources:         mf.Sources.Clone(),
		Dependencies:    make(map[string]*DependencySpec, len(mf.Dependencies.items)),
		DependencyOrder: append([]string(nil), mf.Dependencies.order...),
		Options:         mf.Options,
	}
	for name, dep := range mf.Dependencies.items {
		result.Dependencies[name] = dep.clone()
	}
	result.Options.ForbiddenImports = stringList(mf.Options.ForbiddenImports).Clone()
	result.Options.AutoImports = stringList(mf.Options.AutoImports).Clone()
	result.Options.TraceValues = stringList(mf.Options.TraceValues).Clone()
	return result
}

func (d *DependencySpec) clone() *DependencySpec {
	if d == nil {
		return nil
	}
	copy := *d
	if len(d.Sources) > 0 {
		copy.Sources = append([]string{}, d.Sources...)
	}
	return &copy
}

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			str = strings.TrimSpace(str)
			if str == "" {
				continue
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

func (dm *dependencyMap) UnmarshalYAML(value *yaml.Node) error {
	dm.items = make(map[string]*DependencySpec)
	dm.order = nil
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: dependencies must be a mapping")
	}
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: dependency names must be non-empty")
		}
		if _, dup := dm.items[key]; dup {
			return fmt.Errorf("manifest: dependency %q is declared twice", key)
		}
		var dep DependencySpec
		if err := dep.unmarshalYAML(valNode); err != nil {
			return fmt.Errorf("manifest: dependency %q: %w", key, err)
		}
		dm.items[key] = &dep
		dm.order = append(dm.order, key)
	}
	return nil
}

// unmarshalYAML accepts a bare path string or a mapping.
func (d *DependencySpec) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*d = DependencySpec{}
			return nil
		}
		*d = DependencySpec{Path: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Path    string     `yaml:"path"`
			Git     string     `yaml:"git"`
			Rev     string     `yaml:"rev"`
			Sources stringList `yaml:"sources"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*d = DependencySpec{
			Path:    strings.TrimSpace(raw.Path),
			Git:     strings.TrimSpace(raw.Git),
			Rev:     strings.TrimSpace(raw.Rev),
			Sources: raw.Sources.Clone(),
		}
		return nil
	case yaml.AliasNode:
		return d.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}
