package core

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Loader resolves a stub child (a hash recorded in a frozen node but not
// yet materialized in memory) to its node. Grounds directly on the
// teacher's core/storage.go diskLRU cache-or-fetch idiom (mutex-guarded
// map with an eviction order), generalized from an IPFS-gateway backend
// to an arbitrary key/value backing store.
type Loader interface {
	Load(h Hash) (*trieNode, error)
	Store(h Hash, n *trieNode) error
}

// MemoryLoader is a Loader backed by a plain map, useful for tests and
// for simulate runs that don't need real persistence.
type MemoryLoader struct {
	nodes map[Hash]*trieNode
}

func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{nodes: make(map[Hash]*trieNode)}
}

func (m *MemoryLoader) Load(h Hash) (*trieNode, error) {
	n, ok := m.nodes[h]
	if !ok {
		return nil, fmt.Errorf("%w: node %s not found", ErrTrap, h)
	}
	return n, nil
}

func (m *MemoryLoader) Store(h Hash, n *trieNode) error {
	m.nodes[h] = n
	return nil
}

// CachedLoader wraps another Loader with a bounded in-memory LRU of
// resolved frozen nodes, so repeatedly-touched subtrees (e.g. the root's
// first few levels) don't round-trip through the backing store on every
// lookup. This is the direct replacement for the teacher's hand-rolled
// diskLRU (core/storage.go): same cache-then-fetch shape, backed by
// hashicorp/golang-lru/v2 instead of a bespoke mutex+slice.
type CachedLoader struct {
	backing Loader
	cache   *lru.Cache[Hash, *trieNode]
}

// NewCachedLoader wraps backing with an LRU of the given node capacity.
func NewCachedLoader(backing Loader, capacity int) (*CachedLoader, error) {
	c, err := lru.New[Hash, *trieNode](capacity)
	if err != nil {
		return nil, fmt.Errorf("trie node cache: %w", err)
	}
	return &CachedLoader{backing: backing, cache: c}, nil
}

func (c *CachedLoader) Load(h Hash) (*trieNode, error) {
	if n, ok := c.cache.Get(h); ok {
		return n, nil
	}
	n, err := c.backing.Load(h)
	if err != nil {
		return nil, err
	}
	c.cache.Add(h, n)
	return n, nil
}

func (c *CachedLoader) Store(h Hash, n *trieNode) error {
	c.cache.Add(h, n)
	return c.backing.Store(h, n)
}

// resolve returns slot's child node, loading it from the store if only
// a stub hash is present. The resolved node is cached back onto the
// slot so repeat descents through the same in-memory parent are free.
func resolve(loader Loader, slot *childSlot) (*trieNode, error) {
	if slot.child != nil {
		return slot.child, nil
	}
	if !slot.hasStub {
		return nil, nil
	}
	n, err := loader.Load(slot.stubHash)
	if err != nil {
		return nil, err
	}
	slot.child = n
	return n, nil
}

// persist walks a just-frozen subtree and writes every resolved node to
// the store, including ones it already holds. Nodes carry no "dirty"
// bit, so this is a full walk keyed by content hash; loader.Store is expected to be
// idempotent (same hash, same bytes) which holds since nodes are
// content-addressed.
func persist(loader Loader, n *trieNode) error {
	if !n.frozen {
		return fmt.Errorf("%w: persist called on a mutable node", ErrTrap)
	}
	for _, slot := range n.children {
		if slot.child != nil {
			if err := persist(loader, slot.child); err != nil {
				return err
			}
		}
	}
	return loader.Store(n.hash, n)
}
