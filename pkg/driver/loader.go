package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"fortio.org/log"

	"menter/interpreter-go/pkg/ast"
)

// SourceExt is the extension of serialized syntax trees.
const SourceExt = ".json"

// Source is one decoded syntax tree and where it came from.
type Source struct {
	// Name identifies the source in traces and in Interpreter.Run.
	Name string
	// Path is the slash separated location inside its origin.
	Path   string
	Root   *ast.Root
	Origin string
}

// Program groups the sources of a project. Dependencies precede project
// sources; the entry is always last.
type Program struct {
	Name    string
	Entry   *Source
	Sources []*Source
	Options OptionsSpec
}

// SourceName derives a source name from a slash separated path.
func SourceName(p string) string {
	return strings.TrimSuffix(filepath.ToSlash(p), SourceExt)
}

// LoadFile decodes a single serialized tree.
func LoadFile(file string) (*Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", file, err)
	}
	root, err := ast.DecodeRoot(data)
	if err != nil {
		return nil, fmt.Errorf("loader: decode %s: %w", file, err)
	}
	base := filepath.Base(file)
	return &Source{Name: SourceName(base), Path: base, Root: root, Origin: file}, nil
}

// LoadDir decodes every file under dir whose slash separated relative path
// matches one of patterns ("*.json" covers the top level only). Names are
// prefixed with prefix and a slash when prefix is set.
func LoadDir(dir string, patterns []string, prefix string) ([]*Source, error) {
	patterns = SourcePatterns(patterns)
	var sources []*Source
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchesAny(patterns, rel) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", p, err)
		}
		root, err := ast.DecodeRoot(data)
		if err != nil {
			return fmt.Errorf("loader: decode %s: %w", p, err)
		}
		sources = append(sources, &Source{Name: prefixed(prefix, SourceName(rel)), Path: rel, Root: root, Origin: dir})
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.LogVf("loader: %d source(s) from %s", len(sources), dir)
	return sources, nil
}

// LoadProgram collects the dependency and project sources named by a manifest.
func LoadProgram(manifest *Manifest) (*Program, error) {
	root := manifest.Dir()
	program := &Program{Name: manifest.Name, Options: manifest.Options}
	seen := make(map[string]string)
	add := func(sources []*Source) error {
		for _, src := range sources {
			if origin, dup := seen[src.Name]; dup {
				return fmt.Errorf("loader: source %s defined by %s and %s", src.Name, origin, src.Origin)
			}
			seen[src.Name] = src.Origin
			program.Sources = append(program.Sources, src)
		}
		return nil
	}

	for _, name := range manifest.DependencyOrder {
		dep := manifest.Dependencies[name]
		var (
			sources []*Source
			err     error
		)
		if dep.Git != "" {
			sources, err = LoadGitSources(resolveGitLocation(root, dep.Git), dep.Rev, dep.Sources)
			for _, src := range sources {
				src.Name = prefixed(name, src.Name)
			}
		} else {
			sources, err = LoadDir(resolvePath(root, dep.Path), dep.Sources, name)
		}
		if err != nil {
			return nil, fmt.Errorf("loader: dependency %s: %w", name, err)
		}
		if err := add(sources); err != nil {
			return nil, err
		}
	}

	projectSources, err := LoadDir(root, manifest.Sources, "")
	if err != nil {
		return nil, err
	}
	entryName := SourceName(manifest.Entry)
	var entry *Source
	rest := projectSources[:0]
	for _, src := range projectSources {
		if src.Name == entryName {
			entry = src
			continue
		}
		rest = append(rest, src)
	}
	if entry == nil {
		entry, err = LoadFile(resolvePath(root, manifest.Entry))
		if err != nil {
			return nil, fmt.Errorf("loader: entry %s: %w", manifest.Entry, err)
		}
		entry.Name = entryName
		entry.Path = manifest.Entry
	}
	if err := add(rest); err != nil {
		return nil, err
	}
	if err := add([]*Source{entry}); err != nil {
		return nil, err
	}
	program.Entry = entry
	return program, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func prefixed(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// resolveGitLocation treats locations that exist relative to the manifest as
// local repositories and leaves everything else to the transport.
func resolveGitLocation(root, location string) string {
	if strings.Contains(location, "://") || strings.HasPrefix(location, "git@") {
		return location
	}
	local := resolvePath(root, location)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return location
}
