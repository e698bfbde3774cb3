// Package matcher finds the existing canonical entity an incoming record
// reconciles into. Matching is exact on the case-folded display name; there
// is no fuzzy or partial matching, so a miss means "create".
package matcher

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/agentstation/launchsync/pkg/catalog"
	"github.com/agentstation/launchsync/pkg/errors"
)

// Key returns the identity key of a display name: trimmed and Unicode
// case-folded, so "FALCON 9" and "falcon 9" share a key.
func Key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Find returns the first entity in existing whose key equals name's key.
func Find[T catalog.Keyed](existing []T, name string) (T, bool) {
	key := Key(name)
	for _, e := range existing {
		if Key(e.Key()) == key {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// Index is a key-addressed view of one entity type, built once per run and
// kept current as the run saves entities.
type Index[T catalog.Keyed] struct {
	mu    sync.RWMutex
	byKey map[string]T
}

// NewIndex builds an Index from the stored entities. Two entities sharing a
// key break the identity guarantee and are reported as an InvariantError.
func NewIndex[T catalog.Keyed](entities []T) (*Index[T], error) {
	idx := &Index[T]{byKey: make(map[string]T, len(entities))}
	for _, e := range entities {
		k := Key(e.Key())
		if _, dup := idx.byKey[k]; dup {
			return nil, errors.NewInvariantError("unique entity key", "duplicate key "+k)
		}
		idx.byKey[k] = e
	}
	return idx, nil
}

// Lookup returns the entity stored under name's key.
func (i *Index[T]) Lookup(name string) (T, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.byKey[Key(name)]
	return e, ok
}

// Put records e under its key, replacing any previous entity with that key.
func (i *Index[T]) Put(e T) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.byKey[Key(e.Key())] = e
}

// Len returns the number of indexed entities.
func (i *Index[T]) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.byKey)
}
