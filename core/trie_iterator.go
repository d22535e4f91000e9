package core

// TrieIterator walks every key under a fixed prefix in lexicographic
// order. While live, it holds the prefix locked against structural
// mutation (insert/delete/delete_prefix) on the owning StateTrie —
// enforced by StateTrie.locked — since deleting the entry currently
// positioned under the cursor out from under it would leave Next in an
// undefined state.
type TrieIterator struct {
	trie   *StateTrie
	prefix nibblePath
	keys   [][]byte
	pos    int
	closed bool
}

// NewTrieIterator materializes the key ordering under prefix and locks
// it. Call Close (or let the owning façade do so on iterator removal)
// to release the lock.
func NewTrieIterator(t *StateTrie, prefix []byte) (*TrieIterator, error) {
	keys, err := t.keysWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	nibbles := keyToNibbles(prefix)
	t.locks = append(t.locks, nibbles)
	return &TrieIterator{trie: t, prefix: nibbles, keys: keys}, nil
}

// Key returns the key currently under the cursor, or nil if exhausted.
func (it *TrieIterator) Key() []byte {
	if it.pos >= len(it.keys) {
		return nil
	}
	return it.keys[it.pos]
}

// Next advances the cursor, returning false once exhausted.
func (it *TrieIterator) Next() bool {
	if it.pos >= len(it.keys) {
		return false
	}
	it.pos++
	return it.pos < len(it.keys)
}

// Done reports whether the cursor has moved past the last key.
func (it *TrieIterator) Done() bool { return it.pos >= len(it.keys) }

// Close releases the prefix lock. Safe to call more than once.
func (it *TrieIterator) Close() {
	if it.closed {
		return
	}
	it.closed = true
	for i, p := range it.trie.locks {
		if len(p) == len(it.prefix) && commonPrefixLen(p, it.prefix) == len(p) {
			it.trie.locks = append(it.trie.locks[:i], it.trie.locks[i+1:]...)
			return
		}
	}
}
