package driver

import (
	"errors"
	"fmt"
	"os"

	"fortio.org/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"menter/interpreter-go/pkg/ast"
)

// ErrEmptyRepository is returned when a git dependency has no commits.
var ErrEmptyRepository = errors.New("repository has no commits")

// LoadGitSources reads the serialized trees matching patterns from the tree
// of rev. Local repositories are opened in place; remote ones are cloned into
// memory. An empty rev means HEAD.
func LoadGitSources(location, rev string, patterns []string) ([]*Source, error) {
	repo, err := openRepository(location)
	if err != nil {
		return nil, err
	}
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) && rev == "HEAD" {
			return nil, fmt.Errorf("git %s: %w", location, ErrEmptyRepository)
		}
		return nil, fmt.Errorf("git %s: resolve %s: %w", location, rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("git %s: commit %s: %w", location, hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("git %s: tree %s: %w", location, hash, err)
	}

	patterns = SourcePatterns(patterns)
	var sources []*Source
	err = tree.Files().ForEach(func(f *object.File) error {
		if !matchesAny(patterns, f.Name) {
			return nil
		}
		contents, err := f.Contents()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		root, err := ast.DecodeRoot([]byte(contents))
		if err != nil {
			return fmt.Errorf("decode %s: %w", f.Name, err)
		}
		sources = append(sources, &Source{
			Name:   SourceName(f.Name),
			Path:   f.Name,
			Root:   root,
			Origin: location + "@" + hash.String()[:7],
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", location, err)
	}
	log.LogVf("loader: %d source(s) from %s at %s", len(sources), location, hash)
	return sources, nil
}

func openRepository(location string) (*git.Repository, error) {
	if info, err := os.Stat(location); err == nil && info.IsDir() {
		repo, err := git.PlainOpen(location)
		if err != nil {
			return nil, fmt.Errorf("git %s: open: %w", location, err)
		}
		return repo, nil
	}
	repo, err := git.Clone(memory.NewStorage(), nil, &git.CloneOptions{URL: location})
	if err != nil {
		return nil, fmt.Errorf("git %s: clone: %w", location, err)
	}
	return repo, nil
}
