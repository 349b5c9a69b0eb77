// Package factory resolves a backend selector to the concrete repository set
// for that backend. The factory is built once at process start from already
// connected stores and passed to whatever needs backend-agnostic access;
// there is no ambient global instance.
package factory

import (
	"fmt"

	"adstore/pkg/repository"
)

// Backend selects one of the two storage engines.
type Backend string

const (
	// Relational is the normalized PostgreSQL backend.
	Relational Backend = "relational"
	// Document is the denormalized MongoDB backend.
	Document Backend = "document"
)

// ParseBackend converts a selector string to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case Relational:
		return Relational, nil
	case Document:
		return Document, nil
	}
	return "", fmt.Errorf("unknown backend %q (want %q or %q)", s, Relational, Document)
}

// Factory maps backend selectors to repository sets.
type Factory struct {
	sets map[Backend]*repository.Set
}

// New creates an empty factory.
func New() *Factory {
	return &Factory{sets: make(map[Backend]*repository.Set)}
}

// Register binds a repository set to a backend selector, replacing any
// earlier registration.
func (f *Factory) Register(b Backend, set *repository.Set) {
	f.sets[b] = set
}

// Set returns the repository set registered for the given backend.
func (f *Factory) Set(b Backend) (*repository.Set, error) {
	set, ok := f.sets[b]
	if !ok {
		return nil, fmt.Errorf("no repository set registered for backend %q", b)
	}
	return set, nil
}
