package events

import (
	"path/filepath"
	"strings"

	"github.com/armon/go-radix"
)

// PathSet is an ordered set of file paths backed by a compressed trie
// (patricia tree). Membership checks are O(k) in the path length, and walks
// yield keys in lexicographic order, which keeps discrepancy listings
// deterministic without a sort pass. PathSet is not safe for concurrent
// use; the verifier owns each instance and only mutates it from synchronous
// event handlers.
type PathSet struct {
	tree *radix.Tree
}

// NewPathSet creates an empty set.
func NewPathSet() *PathSet {
	return &PathSet{tree: radix.New()}
}

// Add inserts the path, reporting whether it was newly added.
func (ps *PathSet) Add(path string) bool {
	_, updated := ps.tree.Insert(normalizePath(path), struct{}{})
	return !updated
}

// Remove deletes the path, reporting whether it was present.
func (ps *PathSet) Remove(path string) bool {
	_, deleted := ps.tree.Delete(normalizePath(path))
	return deleted
}

// Contains reports membership of the path.
func (ps *PathSet) Contains(path string) bool {
	_, found := ps.tree.Get(normalizePath(path))
	return found
}

// Len returns the number of members.
func (ps *PathSet) Len() int {
	return ps.tree.Len()
}

// Paths returns every member in lexicographic order.
func (ps *PathSet) Paths() []string {
	out := make([]string, 0, ps.tree.Len())
	ps.tree.Walk(func(key string, _ interface{}) bool {
		out = append(out, key)
		return false // Continue walking
	})
	return out
}

// Diff returns the members of ps absent from other, in lexicographic order.
func (ps *PathSet) Diff(other *PathSet) []string {
	var out []string
	ps.tree.Walk(func(key string, _ interface{}) bool {
		if _, found := other.tree.Get(key); !found {
			out = append(out, key)
		}
		return false // Continue walking
	})
	return out
}

// Clone returns an independent copy of the set.
func (ps *PathSet) Clone() *PathSet {
	clone := NewPathSet()
	ps.tree.Walk(func(key string, _ interface{}) bool {
		clone.tree.Insert(key, struct{}{})
		return false // Continue walking
	})
	return clone
}

// normalizePath ensures consistent path formatting for set keys.
func normalizePath(path string) string {
	// Replace backslashes first so Windows-style paths key consistently.
	normalized := strings.ReplaceAll(path, "\\", "/")
	normalized = filepath.ToSlash(filepath.Clean(normalized))

	// Remove trailing slash unless it's the root
	if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = strings.TrimSuffix(normalized, "/")
	}

	return normalized
}
