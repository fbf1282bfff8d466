package model

import (
	"sort"
	"strings"
)

// KeyValue is a single name/value entry used for headers, variables and form params
type KeyValue struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Active bool   `json:"active"`
	Secret bool   `json:"secret"`
}

// NewKeyValue creates an active, non-secret entry
func NewKeyValue(name, value string) KeyValue {
	return KeyValue{Name: name, Value: value, Active: true}
}

// Less orders entries by name
func (kv KeyValue) Less(other KeyValue) bool {
	return kv.Name < other.Name
}

// Equal compares all fields
func (kv KeyValue) Equal(other KeyValue) bool {
	return kv == other
}

// KeyValueTable is an ordered list of entries. Names are not unique.
type KeyValueTable struct {
	entries []KeyValue
}

// NewKeyValueTable creates a table holding a copy of entries in the given order
func NewKeyValueTable(entries ...KeyValue) KeyValueTable {
	if len(entries) == 0 {
		return KeyValueTable{}
	}
	copied := make([]KeyValue, len(entries))
	copy(copied, entries)
	return KeyValueTable{entries: copied}
}

// Entries returns a copy of the entries in insertion order
func (t KeyValueTable) Entries() []KeyValue {
	if len(t.entries) == 0 {
		return nil
	}
	copied := make([]KeyValue, len(t.entries))
	copy(copied, t.entries)
	return copied
}

// All calls fn for each entry in insertion order until fn returns false
func (t KeyValueTable) All(fn func(int, KeyValue) bool) {
	for i, kv := range t.entries {
		if !fn(i, kv) {
			return
		}
	}
}

// Len returns the number of entries
func (t KeyValueTable) Len() int {
	return len(t.entries)
}

// Append adds an entry at the end
func (t *KeyValueTable) Append(kv KeyValue) {
	t.entries = append(t.entries, kv)
}

// Remove deletes the entry at index; out of range is a no-op
func (t *KeyValueTable) Remove(index int) {
	if index < 0 || index >= len(t.entries) {
		return
	}
	t.entries = append(t.entries[:index:index], t.entries[index+1:]...)
}

// Header returns all values whose name matches key case-insensitively, sorted ascending
func (t KeyValueTable) Header(key string) ([]string, bool) {
	var values []string
	for _, kv := range t.entries {
		if strings.EqualFold(kv.Name, key) {
			values = append(values, kv.Value)
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	sort.Strings(values)
	return values, true
}

// GroupBy partitions entries by exact name, keeping insertion order within each group
func (t KeyValueTable) GroupBy() map[string][]KeyValue {
	groups := make(map[string][]KeyValue)
	for _, kv := range t.entries {
		groups[kv.Name] = append(groups[kv.Name], kv)
	}
	return groups
}

// ActiveMap is the binding view: active entries only, last write wins
func (t KeyValueTable) ActiveMap() map[string]string {
	result := make(map[string]string, len(t.entries))
	for _, kv := range t.entries {
		if kv.Active {
			result[kv.Name] = kv.Value
		}
	}
	return result
}

// Map returns every entry regardless of Active, last write wins
func (t KeyValueTable) Map() map[string]string {
	result := make(map[string]string, len(t.entries))
	for _, kv := range t.entries {
		result[kv.Name] = kv.Value
	}
	return result
}

// Sorted returns a copy ordered by name. Duplicates keep their relative order.
func (t KeyValueTable) Sorted() KeyValueTable {
	sorted := t.Entries()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})
	return KeyValueTable{entries: sorted}
}

// Equal reports whether both tables hold equal entries in the same order
func (t KeyValueTable) Equal(other KeyValueTable) bool {
	if len(t.entries) != len(other.entries) {
		return false
	}
	for i := range t.entries {
		if !t.entries[i].Equal(other.entries[i]) {
			return false
		}
	}
	return true
}

// TableFromMap builds a table of default-flag entries sorted by name
func TableFromMap(values map[string]string) KeyValueTable {
	entries := make([]KeyValue, 0, len(values))
	for name, value := range values {
		entries = append(entries, NewKeyValue(name, value))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Less(entries[j])
	})
	return KeyValueTable{entries: entries}
}
