// Package store implements core.Retriever over a local directory tree of
// <name>/<version>/<user>/<channel>/recipe.yml files.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/theckman/go-flock"

	"github.com/depgraph/depgraph/core"
	"github.com/depgraph/depgraph/internal/recipe"
)

const recipeFileName = "recipe.yml"

// Store is a core.Retriever backed by a local recipe directory tree. It
// memoises loaded recipes by reference, per the Retriever contract.
type Store struct {
	root   string
	loader *recipe.Loader

	mu    sync.Mutex
	cache map[string]*core.Recipe
	paths map[string]string // reference string -> recipe.yml absolute path
}

// Open scans root for recipe.yml files and returns a Store ready to Fetch
// from them. The scan is guarded by an advisory file lock
// (root/.depgraph.lock) so concurrent CLI invocations against the same store
// directory don't race on the walk; this is plain filesystem hygiene, not
// part of the single-threaded resolution algorithm itself.
func Open(root string) (*Store, error) {
	s := &Store{
		root:   root,
		loader: recipe.New(),
		cache:  map[string]*core.Recipe{},
		paths:  map[string]string{},
	}

	lock := flock.NewFlock(filepath.Join(root, ".depgraph.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "locking store %s", root)
	}
	if locked {
		defer lock.Unlock()
	}

	walkErr := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || filepath.Base(path) != recipeFileName {
				return nil
			}
			ref, err := refFromPath(root, path)
			if err != nil {
				// Not a <name>/<version>/<user>/<channel>/recipe.yml path;
				// ignore stray files rather than failing the whole scan.
				return nil
			}
			s.paths[ref.String()] = path
			return nil
		},
	})
	if walkErr != nil {
		return nil, errors.Wrapf(walkErr, "scanning store %s", root)
	}

	return s, nil
}

// refFromPath derives the Reference implied by a recipe.yml's position
// relative to root.
func refFromPath(root, path string) (core.Reference, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return core.Reference{}, err
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 5 || parts[4] != recipeFileName {
		return core.Reference{}, fmt.Errorf("not a recipe path: %s", rel)
	}
	return core.NewReference(parts[0], parts[1], parts[2], parts[3])
}

// Fetch implements core.Retriever.
func (s *Store) Fetch(ref core.Reference) (*core.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ref.String()
	if r, ok := s.cache[key]; ok {
		return r, nil
	}

	path, ok := s.paths[key]
	if !ok {
		return nil, &core.MissingRequirementError{Ref: key, Parent: "store"}
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	r, err := s.loader.Load(text, true)
	if err != nil {
		return nil, err
	}
	s.cache[key] = r
	return r, nil
}
