package vars

import (
	"slices"
	"sync"

	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// Table is one scope of named variables. A table created with Child sees
// the variables of its parent, innermost first.
type Table struct {
	parent *Table
	slots  map[string]*Slot
	mu     sync.Mutex
}

// Slot is a live variable cell. Bound parameters keep a pointer to their
// slot, so a write by any block is visible to every other holder.
type Slot struct {
	owner  *Table
	name   string
	value  value.Value
	refs   int
	pinned bool
}

// NewTable creates a root scope.
func NewTable() *Table {
	return &Table{slots: make(map[string]*Slot)}
}

// Child creates a nested scope whose lookups fall back to t.
func (t *Table) Child() *Table {
	child := NewTable()
	child.parent = t
	return child
}

// Parent returns the enclosing scope, or nil for a root scope.
func (t *Table) Parent() *Table {
	return t.parent
}

// Reference resolves name innermost-first and takes a reference on the
// slot. A missing variable is created, holding None, in t itself.
func (t *Table) Reference(name string) *Slot {
	for scope := t; scope != nil; scope = scope.parent {
		if slot := scope.acquire(name); slot != nil {
			return slot
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	slot, ok := t.slots[name]
	if !ok {
		slot = &Slot{owner: t, name: name}
		t.slots[name] = slot
	}
	slot.refs++
	return slot
}

func (t *Table) acquire(name string) *Slot {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, ok := t.slots[name]
	if !ok {
		return nil
	}
	slot.refs++
	return slot
}

// Release drops a reference taken with Reference. An unpinned slot is
// removed from its scope when the last reference goes away.
func (t *Table) Release(slot *Slot) {
	if slot == nil {
		return
	}
	owner := slot.owner

	owner.mu.Lock()
	defer owner.mu.Unlock()

	if slot.refs == 0 {
		fault.Violation("variable %q released more often than referenced", slot.name)
	}
	slot.refs--
	if slot.refs == 0 && !slot.pinned && owner.slots[slot.name] == slot {
		delete(owner.slots, slot.name)
	}
}

// Set writes a host-owned variable in t. Host variables are pinned: they
// outlive every reference taken on them.
func (t *Table) Set(name string, v value.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, ok := t.slots[name]
	if !ok {
		slot = &Slot{owner: t, name: name}
		t.slots[name] = slot
	}
	slot.pinned = true
	slot.value = v
}

// Lookup reads name from the innermost scope that defines it.
func (t *Table) Lookup(name string) (value.Value, bool) {
	for scope := t; scope != nil; scope = scope.parent {
		scope.mu.Lock()
		slot, ok := scope.slots[name]
		scope.mu.Unlock()
		if ok {
			return slot.value, true
		}
	}
	return value.None(), false
}

// Delete removes name from t. Parameters still holding the slot keep
// reading its last value until they are cleaned up.
func (t *Table) Delete(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.slots, name)
}

// Names returns the variables defined in t, sorted.
func (t *Table) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.slots))
	for name := range t.slots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Snapshot returns deep copies of the serializable variables of t. Values
// holding native objects, directly or nested, are skipped.
func (t *Table) Snapshot() map[string]value.Value {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]value.Value, len(t.slots))
	for name, slot := range t.slots {
		if !serializable(slot.value) {
			continue
		}
		out[name] = slot.value.Clone()
	}
	return out
}

// Restore writes every entry of snap into t as a host variable.
func (t *Table) Restore(snap map[string]value.Value) {
	for name, v := range snap {
		t.Set(name, v)
	}
}

func serializable(v value.Value) bool {
	switch v.Kind() {
	case value.KindObject:
		return false
	case value.KindSeq:
		for _, item := range v.All() {
			if !serializable(item) {
				return false
			}
		}
	case value.KindTable:
		tb, _ := v.AsTable()
		for _, item := range tb.All() {
			if !serializable(item) {
				return false
			}
		}
	}
	return true
}

func (s *Slot) Name() string { return s.name }

// Get returns the current value of the variable.
func (s *Slot) Get() value.Value { return s.value }

// Set overwrites the variable.
func (s *Slot) Set(v value.Value) { s.value = v }

// Refs returns the number of live references.
func (s *Slot) Refs() int {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.refs
}
