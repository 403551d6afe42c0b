// Package sniff classifies a file's container format from its leading bytes.
package sniff

// Trie maps key sequences to values. Each node may carry a value and a
// default; lookup returns the deepest value on the matched path, falling back
// to the nearest default seen on the way down, or the zero value of V.
//
// A Trie is built once and is safe for concurrent reads afterwards.
type Trie[K comparable, V comparable] struct {
	root node[K, V]
}

type node[K comparable, V comparable] struct {
	children   map[K]*node[K, V]
	value      V
	hasValue   bool
	defaultVal V
	hasDefault bool
}

// NewTrie creates an empty trie.
func NewTrie[K comparable, V comparable]() *Trie[K, V] {
	return &Trie[K, V]{}
}

func (n *node[K, V]) child(k K, create bool) *node[K, V] {
	if c, ok := n.children[k]; ok || !create {
		return c
	}
	if n.children == nil {
		n.children = make(map[K]*node[K, V])
	}
	c := &node[K, V]{}
	n.children[k] = c
	return c
}

func (t *Trie[K, V]) walk(parts [][]K) *node[K, V] {
	n := &t.root
	for _, part := range parts {
		for _, k := range part {
			n = n.child(k, true)
		}
	}
	return n
}

// Add registers value at the path formed by concatenating parts.
func (t *Trie[K, V]) Add(value V, parts ...[]K) *Trie[K, V] {
	n := t.walk(parts)
	n.value = value
	n.hasValue = true
	return t
}

// SetDefault sets the value returned when a lookup passes through the node
// at prefix without finding anything more specific.
func (t *Trie[K, V]) SetDefault(value V, prefix ...[]K) *Trie[K, V] {
	n := t.walk(prefix)
	n.defaultVal = value
	n.hasDefault = true
	return t
}

// Find walks keys as far as the trie allows and returns the most specific
// value seen. Absent paths are not an error.
func (t *Trie[K, V]) Find(keys []K) V {
	var best V
	n := &t.root
	if n.hasDefault {
		best = n.defaultVal
	}
	if n.hasValue {
		best = n.value
	}
	for _, k := range keys {
		n = n.child(k, false)
		if n == nil {
			break
		}
		if n.hasDefault {
			best = n.defaultVal
		}
		if n.hasValue {
			best = n.value
		}
	}
	return best
}
