// Package pset provides the parameter-set table shared by every codec in
// this module whose syntax references a previously parsed parameter set by
// small-integer identifier (H.264 SPS/PPS, H.265 VPS/SPS/PPS). Per section
// 4.11 of the core design, a table keeps only the most-recently-parsed set
// per identifier, and an entry already handed out as a reference (e.g. to a
// slice header) survives being overwritten in the table: the table holds a
// reference of its own, not the sole owner.
package pset

import "sync"

// Ref is a handle to a parameter set of type T. The zero value is not
// usable; construct one with NewRef. A Ref keeps no reference count and has
// no Retain or Release: the *T it wraps stays alive for as long as any Ref
// to it exists, including after the table has replaced its own entry.
type Ref[T any] struct {
	v *T
}

// NewRef wraps v in a Ref.
func NewRef[T any](v *T) Ref[T] { return Ref[T]{v: v} }

// Get returns the underlying parameter set. It is never nil for a Ref
// obtained from a Table.
func (r Ref[T]) Get() *T { return r.v }

// Valid reports whether r wraps a parameter set.
func (r Ref[T]) Valid() bool { return r.v != nil }

// Table maps a parameter-set identifier to the most recently parsed set of
// that identifier, for one codec's SPS, PPS or VPS namespace. Table is safe
// for concurrent use, though the core itself is single-threaded per parser
// instance (section 5); the lock exists so a descriptor emitted to one
// goroutine and a table mutated by the parser's owning goroutine never race
// if an embedder chooses to read descriptors from elsewhere.
type Table[T any] struct {
	mu      sync.RWMutex
	entries map[int]Ref[T]
}

// NewTable returns an empty Table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{entries: make(map[int]Ref[T])}
}

// Put installs v under id, replacing any existing entry for id. The previous
// entry is not destroyed: any Ref a caller already holds to it remains valid,
// since Go's garbage collector keeps the referenced *T alive for as long as
// that Ref exists, matching the "no live reference is destroyed" invariant
// in section 4.11 without needing manual reference counting.
func (t *Table[T]) Put(id int, v *T) Ref[T] {
	ref := NewRef(v)
	t.mu.Lock()
	t.entries[id] = ref
	t.mu.Unlock()
	return ref
}

// Get returns the most-recently-installed entry for id.
func (t *Table[T]) Get(id int) (Ref[T], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ref, ok := t.entries[id]
	return ref, ok
}

// Delete removes the entry for id. A caller already holding a Ref to it is
// unaffected, as above.
func (t *Table[T]) Delete(id int) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

// Reset removes every entry, as used by a codec Decoder's reset(config).
func (t *Table[T]) Reset() {
	t.mu.Lock()
	t.entries = make(map[int]Ref[T])
	t.mu.Unlock()
}

// Len reports the number of installed entries, useful for diagnostics.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
