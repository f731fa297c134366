package value

import (
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Table is a key-ordered map of values. Keys iterate in sorted order so two
// tables with the same content always encode and print identically.
type Table struct {
	entries map[string]Value
	keys    []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Value)}
}

// Set stores v under key.
func (t *Table) Set(key string, v Value) {
	if t.entries == nil {
		t.entries = make(map[string]Value)
	}
	if _, exists := t.entries[key]; !exists {
		i, _ := slices.BinarySearch(t.keys, key)
		t.keys = slices.Insert(t.keys, i, key)
	}
	t.entries[key] = v
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.entries[key]
	return v, ok
}

// Delete removes key.
func (t *Table) Delete(key string) {
	if t == nil {
		return
	}
	if _, exists := t.entries[key]; !exists {
		return
	}
	delete(t.entries, key)
	if i, found := slices.BinarySearch(t.keys, key); found {
		t.keys = slices.Delete(t.keys, i, i+1)
	}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the sorted keys. The slice must not be modified.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	return t.keys
}

// All iterates over entries in key order.
func (t *Table) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if t == nil {
			return
		}
		for _, k := range t.keys {
			if !yield(k, t.entries[k]) {
				return
			}
		}
	}
}

// Clone deep copies the table and its values.
func (t *Table) Clone() *Table {
	out := NewTable()
	if t == nil {
		return out
	}
	out.keys = slices.Clone(t.keys)
	for k, v := range t.entries {
		out.entries[k] = v.Clone()
	}
	return out
}

// Equal reports whether both tables hold equal values under the same keys.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	for k, v := range t.All() {
		ov, ok := other.Get(k)
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

func (t *Table) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for k, v := range t.All() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(strconv.Quote(k))
		b.WriteByte(' ')
		b.WriteString(v.String())
	}
	b.WriteByte('}')
	return b.String()
}
