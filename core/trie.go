package core

// StateTrie is the persistent, content-addressed radix trie backing one
// contract instance's key/value state (spec.md §4.2). Mutation is
// copy-on-write: every structural change clones only the nodes on the
// path from the root, leaving any previously frozen snapshot (a
// checkpoint) fully intact and cheap to keep around — this is what lets
// Checkpoint/Restore below be a pointer save/restore rather than a deep
// copy.
type StateTrie struct {
	loader Loader
	root   *trieNode
	locks  []nibblePath // active iterator prefix locks, see trie_iterator.go
}

// NewStateTrie returns an empty trie using loader to resolve stub
// children (relevant once a frozen root is reloaded from storage).
func NewStateTrie(loader Loader) *StateTrie {
	return &StateTrie{loader: loader}
}

func commonPrefixLen(a, b nibblePath) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// Lookup returns the value stored at key, if any.
func (t *StateTrie) Lookup(key []byte) ([]byte, bool, error) {
	n := t.root
	remaining := keyToNibbles(key)
	for {
		if n == nil {
			return nil, false, nil
		}
		cpl := commonPrefixLen(n.path, remaining)
		if cpl < len(n.path) {
			return nil, false, nil
		}
		remaining = remaining[cpl:]
		if len(remaining) == 0 {
			if n.value == nil {
				return nil, false, nil
			}
			return append([]byte(nil), n.value...), true, nil
		}
		nib := remaining[0]
		remaining = remaining[1:]
		child, err := resolve(t.loader, &n.children[nib])
		if err != nil {
			return nil, false, err
		}
		n = child
	}
}

// locked reports whether key falls under a prefix an active iterator
// holds locked against structural mutation.
func (t *StateTrie) locked(keyNibbles nibblePath) bool {
	for _, p := range t.locks {
		if len(p) <= len(keyNibbles) && commonPrefixLen(p, keyNibbles) == len(p) {
			return true
		}
	}
	return false
}

// Insert creates or overwrites the value at key.
func (t *StateTrie) Insert(key, value []byte) error {
	nibbles := keyToNibbles(key)
	if t.locked(nibbles) {
		return ErrLockViolation
	}
	newRoot, err := insertNode(t.loader, t.root, nibbles, value)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func insertNode(loader Loader, node *trieNode, remaining nibblePath, value []byte) (*trieNode, error) {
	if node == nil {
		return newMutableLeaf(remaining, value), nil
	}
	cpl := commonPrefixLen(node.path, remaining)
	switch {
	case cpl == len(node.path) && cpl == len(remaining):
		m := node.asMutable()
		m.value = append([]byte(nil), value...)
		return m, nil
	case cpl == len(node.path):
		m := node.asMutable()
		nib := remaining[cpl]
		rest := remaining[cpl+1:]
		child, err := resolve(loader, &m.children[nib])
		if err != nil {
			return nil, err
		}
		newChild, err := insertNode(loader, child, rest, value)
		if err != nil {
			return nil, err
		}
		m.children[nib] = childSlot{child: newChild}
		return m, nil
	default:
		branch := &trieNode{path: append(nibblePath(nil), node.path[:cpl]...)}
		oldNode := node.asMutable()
		oldNib := oldNode.path[cpl]
		oldNode.path = append(nibblePath(nil), oldNode.path[cpl+1:]...)
		branch.children[oldNib] = childSlot{child: oldNode}
		if cpl == len(remaining) {
			branch.value = append([]byte(nil), value...)
		} else {
			newNib := remaining[cpl]
			leaf := newMutableLeaf(append(nibblePath(nil), remaining[cpl+1:]...), value)
			branch.children[newNib] = childSlot{child: leaf}
		}
		return branch, nil
	}
}

// Delete removes the value at key, if present, compacting the resulting
// single-child branch nodes away. Returns whether a value was removed.
func (t *StateTrie) Delete(key []byte) (bool, error) {
	nibbles := keyToNibbles(key)
	if t.locked(nibbles) {
		return false, ErrLockViolation
	}
	newRoot, deleted, err := deleteNode(t.loader, t.root, nibbles)
	if err != nil {
		return false, err
	}
	t.root = newRoot
	return deleted, nil
}

func deleteNode(loader Loader, node *trieNode, remaining nibblePath) (*trieNode, bool, error) {
	if node == nil {
		return nil, false, nil
	}
	cpl := commonPrefixLen(node.path, remaining)
	if cpl < len(node.path) {
		return node, false, nil
	}
	if cpl == len(remaining) {
		if node.value == nil {
			return node, false, nil
		}
		m := node.asMutable()
		m.value = nil
		compacted, err := compact(loader, m)
		return compacted, true, err
	}
	nib := remaining[cpl]
	rest := remaining[cpl+1:]
	m := node.asMutable()
	child, err := resolve(loader, &m.children[nib])
	if err != nil {
		return nil, false, err
	}
	newChild, deleted, err := deleteNode(loader, child, rest)
	if err != nil || !deleted {
		return node, false, err
	}
	if newChild == nil {
		m.children[nib] = childSlot{}
	} else {
		m.children[nib] = childSlot{child: newChild}
	}
	compacted, err := compact(loader, m)
	return compacted, true, err
}

// compact collapses a valueless branch with exactly one remaining child
// into that child (merging path segments), and removes a valueless
// childless branch entirely. Mirrors PATRICIA-trie node merging so the
// tree doesn't accumulate degenerate single-child chains after deletes.
func compact(loader Loader, n *trieNode) (*trieNode, error) {
	if n.value != nil {
		return n, nil
	}
	onlyNib := -1
	count := 0
	for i, slot := range n.children {
		if slot.child != nil || slot.hasStub {
			count++
			onlyNib = i
		}
	}
	switch count {
	case 0:
		return nil, nil
	case 1:
		child, err := resolve(loader, &n.children[onlyNib])
		if err != nil {
			return nil, err
		}
		merged := child.asMutable()
		merged.path = append(append(append(nibblePath(nil), n.path...), byte(onlyNib)), merged.path...)
		return merged, nil
	default:
		return n, nil
	}
}

// DeletePrefix removes every key sharing the given prefix.
func (t *StateTrie) DeletePrefix(prefix []byte) error {
	nibbles := keyToNibbles(prefix)
	if t.locked(nibbles) {
		return ErrLockViolation
	}
	newRoot, err := deletePrefixNode(t.loader, t.root, nibbles)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func deletePrefixNode(loader Loader, node *trieNode, remaining nibblePath) (*trieNode, error) {
	if node == nil {
		return nil, nil
	}
	if len(remaining) == 0 {
		return nil, nil
	}
	cpl := commonPrefixLen(node.path, remaining)
	if cpl == len(remaining) {
		return nil, nil
	}
	if cpl < len(node.path) {
		return node, nil
	}
	nib := remaining[cpl]
	rest := remaining[cpl+1:]
	m := node.asMutable()
	child, err := resolve(loader, &m.children[nib])
	if err != nil {
		return nil, err
	}
	if child == nil {
		return node, nil
	}
	newChild, err := deletePrefixNode(loader, child, rest)
	if err != nil {
		return nil, err
	}
	if newChild == nil {
		m.children[nib] = childSlot{}
	} else {
		m.children[nib] = childSlot{child: newChild}
	}
	return compact(loader, m)
}

// Freeze converts every mutable node reachable from the root into a
// frozen, content-addressed node and persists the whole subtree via the
// loader, returning the new root hash. Called once per commit.
func (t *StateTrie) Freeze() (Hash, error) {
	if t.root == nil {
		return Hash{}, nil
	}
	t.root = t.root.freeze()
	if err := persist(t.loader, t.root); err != nil {
		return Hash{}, err
	}
	return t.root.hash, nil
}

// Checkpoint captures the current root so a later Restore can revert
// any mutations made after this point. Checkpoint freezes the current
// root first, so every later Insert/Delete/DeletePrefix copy-on-writes
// instead of mutating a node reachable from the captured root in place.
type Checkpoint struct {
	root *trieNode
}

func (t *StateTrie) Checkpoint() Checkpoint {
	if t.root != nil {
		t.root = t.root.freeze()
	}
	return Checkpoint{root: t.root}
}

func (t *StateTrie) Restore(c Checkpoint) { t.root = c.root }

// LoadFromRoot rebuilds a trie rooted at a previously frozen hash,
// resolving nodes lazily from loader as they're descended into.
func LoadFromRoot(loader Loader, root Hash) (*StateTrie, error) {
	var zero Hash
	if root == zero {
		return NewStateTrie(loader), nil
	}
	n, err := loader.Load(root)
	if err != nil {
		return nil, err
	}
	return &StateTrie{loader: loader, root: n}, nil
}

// HasPrefix reports whether any key in the trie starts with prefix.
func (t *StateTrie) HasPrefix(prefix []byte) (bool, error) {
	n := t.root
	remaining := keyToNibbles(prefix)
	for {
		if n == nil {
			return false, nil
		}
		cpl := commonPrefixLen(n.path, remaining)
		if len(remaining) <= len(n.path) {
			return cpl == len(remaining), nil
		}
		if cpl < len(n.path) {
			return false, nil
		}
		remaining = remaining[cpl:]
		nib := remaining[0]
		remaining = remaining[1:]
		child, err := resolve(t.loader, &n.children[nib])
		if err != nil {
			return false, err
		}
		n = child
	}
}

// keysWithPrefix collects every key, in nibble (and therefore byte)
// lexicographic order, stored under prefix. Used by the iterator to
// materialize its traversal order up front — acceptable for the
// contract-state key spaces this host targets, and it sidesteps
// needing resumable-generator plumbing in Go.
func (t *StateTrie) keysWithPrefix(prefix []byte) ([][]byte, error) {
	nibbles := keyToNibbles(prefix)
	n := t.root
	path := nibblePath{}
	for {
		if n == nil {
			return nil, nil
		}
		cpl := commonPrefixLen(n.path, nibbles)
		if len(nibbles) <= len(n.path) {
			if cpl != len(nibbles) {
				return nil, nil
			}
			path = append(path, n.path...)
			break
		}
		if cpl < len(n.path) {
			return nil, nil
		}
		path = append(path, n.path...)
		nibbles = nibbles[cpl:]
		nib := nibbles[0]
		path = append(path, nib)
		nibbles = nibbles[1:]
		child, err := resolve(t.loader, &n.children[nib])
		if err != nil {
			return nil, err
		}
		n = child
	}

	var out [][]byte
	var walk func(n *trieNode, acc nibblePath) error
	walk = func(n *trieNode, acc nibblePath) error {
		if n == nil {
			return nil
		}
		acc = append(append(nibblePath(nil), acc...), n.path...)
		if n.value != nil && len(acc)%2 == 0 {
			out = append(out, nibblesToKey(acc))
		}
		for i := range n.children {
			child, err := resolve(t.loader, &n.children[i])
			if err != nil {
				return err
			}
			if child != nil {
				if err := walk(child, append(append(nibblePath(nil), acc...), byte(i))); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(n, path[:len(path)-len(n.path)]); err != nil {
		return nil, err
	}
	return out, nil
}
