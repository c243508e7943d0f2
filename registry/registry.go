// Package registry implements the registration surface (spec §6 /
// §7's "global registration table" redesign flag): a process-wide
// write-once table that algorithm primitives populate at program
// start, and that a driver reads back as an immutable, lexicographically
// ordered snapshot. Modelled on the teacher's BreakpointManager
// (debugger/breakpoints.go) — a mutex-guarded map with accessor
// methods — generalised from "insert/update/delete" to "insert-once,
// read-only forever", per the spec's init-once/read-only lifecycle.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gencrypto/gencrypto/codegen"
	"github.com/gencrypto/gencrypto/platform"
)

// GeneratorFunc builds one primitive's instruction buffer against p.
type GeneratorFunc func(g *codegen.Generator) error

// TestFunc validates a finalised buffer against the primitive's own
// test vectors, returning a mismatch/missing-vector error on failure.
type TestFunc func(p *platform.Platform, buf []byte) error

// Entry is one registered (name, variant, platform) triple together
// with its generator and test hooks. The fully-qualified name is
// Name[:Variant][:Platform], built by QualifiedName.
type Entry struct {
	Name      string
	Variant   string
	Platform  string
	Generator GeneratorFunc
	Test      TestFunc
}

// QualifiedName returns e's fully-qualified name: name[:variant][:platform].
func (e Entry) QualifiedName() string {
	n := e.Name
	if e.Variant != "" {
		n += ":" + e.Variant
	}
	if e.Platform != "" {
		n += ":" + e.Platform
	}
	return n
}

// DuplicateError reports a second Register call for a qualified name
// already present in the table.
type DuplicateError struct {
	QualifiedName string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("registry: %q already registered", e.QualifiedName)
}

// NotFoundError reports a Lookup for a qualified name with no entry.
type NotFoundError struct {
	QualifiedName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("registry: %q not registered", e.QualifiedName)
}

// Registry is a process-wide write-once table keyed by qualified name.
// Registration happens only during program start (statically, before
// any generation begins, per spec §7's scheduling model); Lookup and
// List are read-only and safe for concurrent use thereafter. The zero
// value is ready to use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty, ready-to-populate Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds e under its qualified name. It fails with
// *DuplicateError if that name is already present — the table is
// write-once, not last-writer-wins, so two primitives (or a primitive
// registered twice under test and production builds) colliding on a
// name is a programming error the caller must fix, not silently
// resolve.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("registry: entry has empty name")
	}
	if e.Generator == nil {
		return fmt.Errorf("registry: entry %q has nil generator", e.QualifiedName())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]Entry)
	}
	qn := e.QualifiedName()
	if _, exists := r.entries[qn]; exists {
		return &DuplicateError{QualifiedName: qn}
	}
	r.entries[qn] = e
	return nil
}

// MustRegister calls Register and panics on error. Intended for
// package-level init() calls, where a duplicate or malformed entry is
// a build-time defect, not a runtime condition to recover from.
func (r *Registry) MustRegister(e Entry) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Lookup returns the entry registered under qualifiedName.
func (r *Registry) Lookup(qualifiedName string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[qualifiedName]
	if !ok {
		return Entry{}, &NotFoundError{QualifiedName: qualifiedName}
	}
	return e, nil
}

// List returns every registered entry in lexicographic order on
// (Name, Variant, Platform), per spec §6's ordering requirement.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Variant != b.Variant {
			return a.Variant < b.Variant
		}
		return a.Platform < b.Platform
	})
	return out
}

// Snapshot is an immutable, already-sorted view of a Registry handed
// to a driver once registration is complete — the "handing out an
// immutable snapshot to the driver" half of the §7 redesign flag. A
// Snapshot carries no mutex and exposes no Register method: a driver
// cannot accidentally mutate process-wide state mid-run.
type Snapshot struct {
	entries []Entry
	byName  map[string]Entry
}

// Freeze captures r's current contents into a Snapshot. Intended to be
// called once, after every package's init() has run and registration
// is complete.
func (r *Registry) Freeze() Snapshot {
	entries := r.List()
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.QualifiedName()] = e
	}
	return Snapshot{entries: entries, byName: byName}
}

// Lookup returns the entry registered under qualifiedName.
func (s Snapshot) Lookup(qualifiedName string) (Entry, error) {
	e, ok := s.byName[qualifiedName]
	if !ok {
		return Entry{}, &NotFoundError{QualifiedName: qualifiedName}
	}
	return e, nil
}

// List returns every entry in s, in the lexicographic order Freeze
// captured it in.
func (s Snapshot) List() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries in s.
func (s Snapshot) Len() int { return len(s.entries) }

// Global is the process-wide registry every primitive package
// registers into from its own init(). A single shared instance, rather
// than a package-level map, keeps the write path testable: tests build
// their own *Registry with New() instead of mutating process state.
var Global = New()

// once guards Global's hand-off to a frozen snapshot, so repeated
// driver start-up calls Freeze() exactly once regardless of how many
// call sites ask for one.
var (
	globalOnce     sync.Once
	globalSnapshot Snapshot
)

// GlobalSnapshot freezes Global exactly once (on its first call) and
// returns that snapshot on every subsequent call, matching the spec's
// "build at construction time behind a one-shot initialiser" redesign.
func GlobalSnapshot() Snapshot {
	globalOnce.Do(func() {
		globalSnapshot = Global.Freeze()
	})
	return globalSnapshot
}
