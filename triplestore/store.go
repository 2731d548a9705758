// Package triplestore holds the facts of one sentence and applies
// match-and-mutate updates to them atomically.
package triplestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360studio/syntaxrules/pattern"
	"github.com/c360studio/syntaxrules/triple"
)

// Update is a single match-and-mutate transaction: every solution of Where
// deletes the instantiated Delete triples and adds the instantiated Insert
// triples.
type Update struct {
	Where  pattern.Pattern
	Insert pattern.Template
	Delete pattern.Template
}

// UpdateResult reports what an update did.
type UpdateResult struct {
	Bindings int
	Inserted int
	Deleted  int
}

// Backend is the contract the rewrite engine relies on. Implementations
// must make Load and Update appear as a single transition to readers.
type Backend interface {
	// Load replaces every fact with the given triples.
	Load(ctx context.Context, facts []triple.Triple) error
	// Triples returns a snapshot of every fact.
	Triples(ctx context.Context) ([]triple.Triple, error)
	// Update applies a match-and-mutate transaction.
	Update(ctx context.Context, u Update) (UpdateResult, error)
}

// Memory is an in-memory Backend. Facts form a set kept in insertion order.
type Memory struct {
	mu    sync.RWMutex
	facts []triple.Triple
	index map[string]int
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{index: make(map[string]int)}
}

var _ Backend = (*Memory)(nil)

// Load clears the store and adds facts. Malformed facts are rejected before
// anything is cleared.
func (m *Memory) Load(ctx context.Context, facts []triple.Triple) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, f := range facts {
		if err := validate(f); err != nil {
			return fmt.Errorf("fact %d: %w", i, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.facts = make([]triple.Triple, 0, len(facts))
	m.index = make(map[string]int, len(facts))
	for _, f := range facts {
		m.addLocked(f)
	}
	return nil
}

// Triples returns a copy of every fact in insertion order.
func (m *Memory) Triples(ctx context.Context) ([]triple.Triple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]triple.Triple, len(m.facts))
	copy(out, m.facts)
	return out, nil
}

// Len returns the number of facts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.facts)
}

// Update matches u.Where and applies deletes then inserts for every
// solution. All templates are instantiated before the store is touched, so
// an error leaves it unchanged.
func (m *Memory) Update(ctx context.Context, u Update) (UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return UpdateResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bindings := pattern.Match(u.Where, m.facts)
	res := UpdateResult{Bindings: len(bindings)}

	var deletes, inserts []triple.Triple
	for _, b := range bindings {
		if len(u.Delete) > 0 {
			ts, err := u.Delete.Instantiate(b)
			if err != nil {
				return UpdateResult{}, &UpdateError{Clause: "delete", Err: err}
			}
			deletes = append(deletes, ts...)
		}
		if len(u.Insert) > 0 {
			ts, err := u.Insert.Instantiate(b)
			if err != nil {
				return UpdateResult{}, &UpdateError{Clause: "insert", Err: err}
			}
			inserts = append(inserts, ts...)
		}
	}
	for _, f := range inserts {
		if err := validate(f); err != nil {
			return UpdateResult{}, &UpdateError{Clause: "insert", Err: err}
		}
	}

	for _, f := range deletes {
		if m.removeLocked(f) {
			res.Deleted++
		}
	}
	for _, f := range inserts {
		if m.addLocked(f) {
			res.Inserted++
		}
	}
	return res, nil
}

func (m *Memory) addLocked(f triple.Triple) bool {
	k := f.Key()
	if _, ok := m.index[k]; ok {
		return false
	}
	m.index[k] = len(m.facts)
	m.facts = append(m.facts, f)
	return true
}

func (m *Memory) removeLocked(f triple.Triple) bool {
	k := f.Key()
	i, ok := m.index[k]
	if !ok {
		return false
	}
	delete(m.index, k)
	m.facts = append(m.facts[:i], m.facts[i+1:]...)
	for j := i; j < len(m.facts); j++ {
		m.index[m.facts[j].Key()] = j
	}
	return true
}

func validate(f triple.Triple) error {
	if f.Subject == "" || f.Predicate == "" {
		return ErrEmptySubject
	}
	return nil
}
