// Package shapelib stores named control-shape outlines: each entry maps
// a shape key to one or more ordered point loops. The library ships
// with builtin entries and can be persisted to a JSON document so
// studios can share custom shapes between sessions.
package shapelib

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Loop is one ordered run of points. A closed outline repeats its first
// point at the end.
type Loop struct {
	Name   string   `json:"name"`
	Points []v3.Vec `json:"points"`
}

// Entry is the ordered set of loops filed under one shape key.
type Entry []Loop

func (e Entry) clone() Entry {
	out := make(Entry, len(e))
	for i, l := range e {
		out[i] = Loop{Name: l.Name, Points: append([]v3.Vec(nil), l.Points...)}
	}
	return out
}

// Library is a keyed store of shape entries. Not safe for concurrent
// mutation; the construction pipeline is single-threaded.
type Library struct {
	entries map[string]Entry
}

// New returns a library seeded with the builtin shapes.
func New() *Library {
	l := &Library{entries: make(map[string]Entry)}
	for key, e := range builtins() {
		l.entries[key] = e
	}
	return l
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

// Default returns the process-wide library, initialized lazily on first
// access. There is no teardown; the library lives for the process.
func Default() *Library {
	defaultOnce.Do(func() {
		defaultLib = New()
	})
	return defaultLib
}

// Shape returns a copy of the entry for the given key. A missing key is
// a hard error: shape keys are programmer data, not runtime input.
func (l *Library) Shape(key string) (Entry, error) {
	e, ok := l.entries[key]
	if !ok {
		return nil, fmt.Errorf("shapelib: unknown shape %q", key)
	}
	return e.clone(), nil
}

// Store files an entry under the given key, replacing any previous
// entry.
func (l *Library) Store(key string, e Entry) error {
	if key == "" {
		return fmt.Errorf("shapelib: empty shape key")
	}
	if len(e) == 0 {
		return fmt.Errorf("shapelib: shape %q has no loops", key)
	}
	for i, loop := range e {
		if len(loop.Points) < 2 {
			return fmt.Errorf("shapelib: shape %q loop %d needs at least 2 points, got %d", key, i, len(loop.Points))
		}
	}
	l.entries[key] = e.clone()
	return nil
}

// Names returns the shape keys in sorted order.
func (l *Library) Names() []string {
	out := make([]string, 0, len(l.entries))
	for key := range l.entries {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// document is the persisted form: a flat keyed map.
type document struct {
	Shapes map[string]Entry `json:"shapes"`
}

// Save writes the whole library to a JSON document.
func (l *Library) Save(path string) error {
	doc := document{Shapes: make(map[string]Entry, len(l.entries))}
	for key, e := range l.entries {
		doc.Shapes[key] = e
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("shapelib: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("shapelib: write %s: %w", path, err)
	}
	return nil
}

// Load reads a JSON document and merges its entries over the current
// ones. Stored entries win over builtins with the same key.
func (l *Library) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("shapelib: read %s: %w", path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("shapelib: decode %s: %w", path, err)
	}
	for key, e := range doc.Shapes {
		l.entries[key] = e.clone()
	}
	return nil
}
