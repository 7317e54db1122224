package domain

import (
	"fmt"
	"sort"
)

// Entry is a (name, entity) pair of a Registry snapshot.
type Entry[T any] struct {
	Name  string
	Value T
}

// Registry maps unique, non-empty names to entities of type T.
// It is not safe for concurrent use, callers are in charge of serializing
// the access.
type Registry[T any] struct {
	entries map[string]T
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Insert adds the given entity under name, fails if name is already taken.
func (r *Registry[T]) Insert(name string, value T) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrNameAlreadyExists, name)
	}
	r.entries[name] = value
	return nil
}

// Remove deletes the entity registered under name and returns it.
func (r *Registry[T]) Remove(name string) (T, error) {
	value, ok := r.entries[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNameNotFound, name)
	}
	delete(r.entries, name)
	return value, nil
}

// Get returns the entity registered under name.
func (r *Registry[T]) Get(name string) (T, error) {
	value, ok := r.entries[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNameNotFound, name)
	}
	return value, nil
}

// List returns a fresh snapshot of all entries sorted by name.
func (r *Registry[T]) List() []Entry[T] {
	list := make([]Entry[T], 0, len(r.entries))
	for name, value := range r.entries {
		list = append(list, Entry[T]{name, value})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}
