// File: bptree.go
package bptree

import (
	"cmp"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 4

// findChildIndex determines which child pointer to follow
// (or where to insert a new key) in an internal node.
func findChildIndex[K cmp.Ordered](keys []K, searchKey K) int {
	// Linear scan; nodes are small.
	for i, k := range keys {
		if cmp.Compare(searchKey, k) < 0 {
			return i
		}
	}
	return len(keys)
}

// BPlusTree is an ordered map backed by a B+Tree. Leaves are linked in both
// directions so that floor lookups and in-order scans never re-descend.
//
// A single tree-level RWMutex guards the structure: writers are exclusive,
// readers may run in parallel once loading is done.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	size   int
	m      sync.RWMutex
}

func (tree *BPlusTree[K, V]) Height() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.height
}

// Len returns the number of keys stored in the tree.
func (tree *BPlusTree[K, V]) Len() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.size
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf links, for range scans
	prev     *node[K, V]
}

// NewBPlusTree creates and returns a B+Tree with the given order.
// If the specified order < 3, we fall back to DefaultOrder.
func NewBPlusTree[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	rootNode := &node[K, V]{
		isLeaf:   true,
		keys:     make([]K, 0, order),
		values:   make([]V, 0, order),
		children: make([]*node[K, V], 0),
	}
	return &BPlusTree[K, V]{
		root:   rootNode,
		order:  order,
		height: 1,
	}
}

// findLeaf descends to the leaf that would hold key. Caller holds tree.m.
func (tree *BPlusTree[K, V]) findLeaf(key K) *node[K, V] {
	current := tree.root
	for current != nil && !current.isLeaf {
		current = current.children[findChildIndex(current.keys, key)]
	}
	return current
}

// firstLeaf returns the leftmost leaf. Caller holds tree.m.
func (tree *BPlusTree[K, V]) firstLeaf() *node[K, V] {
	current := tree.root
	for current != nil && !current.isLeaf {
		current = current.children[0]
	}
	return current
}

// Search locates the value associated with `key` (if it exists).
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(key)
	if leaf != nil {
		for i, k := range leaf.keys {
			if k == key {
				return leaf.values[i], true
			}
		}
	}

	var zero V
	return zero, false
}

// Floor returns the greatest key less than or equal to key, together with its value.
func (tree *BPlusTree[K, V]) Floor(key K) (K, V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	for leaf := tree.findLeaf(key); leaf != nil; leaf = leaf.prev {
		for i := len(leaf.keys) - 1; i >= 0; i-- {
			if cmp.Compare(leaf.keys[i], key) <= 0 {
				return leaf.keys[i], leaf.values[i], true
			}
		}
	}

	var zeroK K
	var zeroV V
	return zeroK, zeroV, false
}

// Last returns the greatest key in the tree.
func (tree *BPlusTree[K, V]) Last() (K, V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	current := tree.root
	for current != nil && !current.isLeaf {
		current = current.children[len(current.children)-1]
	}
	for ; current != nil; current = current.prev {
		if n := len(current.keys); n > 0 {
			return current.keys[n-1], current.values[n-1], true
		}
	}

	var zeroK K
	var zeroV V
	return zeroK, zeroV, false
}

// Ascend calls fn for every key >= from in ascending order until fn returns false.
func (tree *BPlusTree[K, V]) Ascend(from K, fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	for leaf := tree.findLeaf(from); leaf != nil; leaf = leaf.next {
		for i, k := range leaf.keys {
			if cmp.Compare(k, from) < 0 {
				continue
			}
			if !fn(k, leaf.values[i]) {
				return
			}
		}
	}
}

// Scan calls fn for every key in ascending order until fn returns false.
func (tree *BPlusTree[K, V]) Scan(fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	for leaf := tree.firstLeaf(); leaf != nil; leaf = leaf.next {
		for i, k := range leaf.keys {
			if !fn(k, leaf.values[i]) {
				return
			}
		}
	}
}

// Keys returns all keys in ascending order.
func (tree *BPlusTree[K, V]) Keys() []K {
	keys := make([]K, 0, tree.Len())
	tree.Scan(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Insert adds a (key, value) pair to the B+Tree, replacing the value of an
// existing key.
func (tree *BPlusTree[K, V]) Insert(key K, value V) {
	tree.m.Lock()
	defer tree.m.Unlock()

	if tree.root == nil {
		tree.root = &node[K, V]{
			isLeaf: true,
			keys:   []K{key},
			values: []V{value},
		}
		tree.size = 1
		return
	}

	leaf := tree.findLeaf(key)
	if insertKeyValueInLeaf(leaf, key, value) {
		tree.size++
	}

	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
}

// insertKeyValueInLeaf reports whether the key was new.
func insertKeyValueInLeaf[K cmp.Ordered, V any](leaf *node[K, V], key K, value V) bool {
	idx := 0
	for idx < len(leaf.keys) && cmp.Compare(leaf.keys[idx], key) < 0 {
		idx++
	}
	if idx < len(leaf.keys) && leaf.keys[idx] == key {
		leaf.values[idx] = value
		return false
	}
	leaf.keys = append(leaf.keys, key)
	leaf.values = append(leaf.values, value)

	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	leaf.keys[idx] = key

	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.values[idx] = value
	return true
}

// splitLeaf handles splitting a leaf node that has overflowed.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	newLeaf := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, leaf.keys[mid:]...),
		values: append([]V{}, leaf.values[mid:]...),
		next:   leaf.next,
		prev:   leaf,
		parent: leaf.parent,
	}
	if leaf.next != nil {
		leaf.next.prev = newLeaf
	}

	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = newLeaf

	if leaf.parent == nil {
		newRoot := &node[K, V]{
			isLeaf:   false,
			keys:     []K{newLeaf.keys[0]},
			children: []*node[K, V]{leaf, newLeaf},
		}

		leaf.parent = newRoot
		newLeaf.parent = newRoot

		tree.root = newRoot
		tree.height++

		return
	}

	insertKeyInParent(tree, leaf.parent, newLeaf.keys[0], newLeaf)
}

// insertKeyInParent inserts `key` and links rightChild after it in the parent.
func insertKeyInParent[K cmp.Ordered, V any](tree *BPlusTree[K, V], parent *node[K, V], key K, rightChild *node[K, V]) {
	idx := 0
	for idx < len(parent.keys) && cmp.Compare(parent.keys[idx], key) < 0 {
		idx++
	}

	parent.keys = append(parent.keys, key)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, rightChild)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = rightChild

	rightChild.parent = parent

	if len(parent.keys) > tree.order {
		splitInternalNode(tree, parent)
	}
}

// splitInternalNode handles splitting an internal node that has overflowed.
func splitInternalNode[K cmp.Ordered, V any](tree *BPlusTree[K, V], internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	newInternal := &node[K, V]{
		isLeaf:   false,
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}

	for _, child := range newInternal.children {
		child.parent = newInternal
	}

	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	if internal.parent == nil {
		newRoot := &node[K, V]{
			isLeaf:   false,
			keys:     []K{splitKey},
			children: []*node[K, V]{internal, newInternal},
		}
		internal.parent = newRoot
		newInternal.parent = newRoot
		tree.root = newRoot
		tree.height++
		return
	}

	insertKeyInParent(tree, internal.parent, splitKey, newInternal)
}
