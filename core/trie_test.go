package core

import (
	"testing"
)

func TestStateTrieInsertLookup(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	if err := trie.Insert([]byte("foo"), []byte("1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := trie.Insert([]byte("foobar"), []byte("2")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	v, ok, err := trie.Lookup([]byte("foo"))
	if err != nil || !ok || string(v) != "1" {
		t.Fatalf("lookup foo: v=%q ok=%v err=%v", v, ok, err)
	}
	v, ok, err = trie.Lookup([]byte("foobar"))
	if err != nil || !ok || string(v) != "2" {
		t.Fatalf("lookup foobar: v=%q ok=%v err=%v", v, ok, err)
	}
	if _, ok, _ := trie.Lookup([]byte("missing")); ok {
		t.Fatalf("expected missing key to be absent")
	}
}

func TestStateTrieOverwrite(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	trie.Insert([]byte("key"), []byte("a"))
	trie.Insert([]byte("key"), []byte("b"))
	v, ok, _ := trie.Lookup([]byte("key"))
	if !ok || string(v) != "b" {
		t.Fatalf("expected overwritten value b, got %q", v)
	}
}

func TestStateTrieDeleteCompaction(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	trie.Insert([]byte("aa"), []byte("1"))
	trie.Insert([]byte("ab"), []byte("2"))

	deleted, err := trie.Delete([]byte("aa"))
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	if _, ok, _ := trie.Lookup([]byte("aa")); ok {
		t.Fatalf("expected aa removed")
	}
	v, ok, _ := trie.Lookup([]byte("ab"))
	if !ok || string(v) != "2" {
		t.Fatalf("expected ab to survive compaction, got %q ok=%v", v, ok)
	}

	deleted, err = trie.Delete([]byte("nope"))
	if err != nil || deleted {
		t.Fatalf("deleting absent key: deleted=%v err=%v", deleted, err)
	}
}

func TestStateTrieDeletePrefix(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	trie.Insert([]byte("user.1"), []byte("a"))
	trie.Insert([]byte("user.2"), []byte("b"))
	trie.Insert([]byte("group.1"), []byte("c"))

	if err := trie.DeletePrefix([]byte("user.")); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, ok, _ := trie.Lookup([]byte("user.1")); ok {
		t.Fatalf("expected user.1 removed")
	}
	if _, ok, _ := trie.Lookup([]byte("user.2")); ok {
		t.Fatalf("expected user.2 removed")
	}
	v, ok, _ := trie.Lookup([]byte("group.1"))
	if !ok || string(v) != "c" {
		t.Fatalf("expected group.1 to survive, got %q ok=%v", v, ok)
	}
}

func TestStateTrieCheckpointRestore(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	trie.Insert([]byte("a"), []byte("1"))
	cp := trie.Checkpoint()

	trie.Insert([]byte("b"), []byte("2"))
	if _, ok, _ := trie.Lookup([]byte("b")); !ok {
		t.Fatalf("expected b present before restore")
	}

	trie.Restore(cp)
	if _, ok, _ := trie.Lookup([]byte("b")); ok {
		t.Fatalf("expected b gone after restore")
	}
	v, ok, _ := trie.Lookup([]byte("a"))
	if !ok || string(v) != "1" {
		t.Fatalf("expected a preserved across restore, got %q ok=%v", v, ok)
	}
}

func TestStateTrieFreezeAndLoadFromRoot(t *testing.T) {
	loader := NewMemoryLoader()
	trie := NewStateTrie(loader)
	trie.Insert([]byte("x"), []byte("y"))
	trie.Insert([]byte("xx"), []byte("z"))

	root, err := trie.Freeze()
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}

	reloaded, err := LoadFromRoot(loader, root)
	if err != nil {
		t.Fatalf("load from root: %v", err)
	}
	v, ok, err := reloaded.Lookup([]byte("x"))
	if err != nil || !ok || string(v) != "y" {
		t.Fatalf("reloaded lookup x: v=%q ok=%v err=%v", v, ok, err)
	}
	v, ok, err = reloaded.Lookup([]byte("xx"))
	if err != nil || !ok || string(v) != "z" {
		t.Fatalf("reloaded lookup xx: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestStateTrieFreezeDeterministic(t *testing.T) {
	trieA := NewStateTrie(NewMemoryLoader())
	trieA.Insert([]byte("a"), []byte("1"))
	trieA.Insert([]byte("b"), []byte("2"))
	rootA, err := trieA.Freeze()
	if err != nil {
		t.Fatalf("freeze a: %v", err)
	}

	trieB := NewStateTrie(NewMemoryLoader())
	trieB.Insert([]byte("b"), []byte("2"))
	trieB.Insert([]byte("a"), []byte("1"))
	rootB, err := trieB.Freeze()
	if err != nil {
		t.Fatalf("freeze b: %v", err)
	}

	if rootA != rootB {
		t.Fatalf("expected deterministic root hash regardless of insertion order")
	}
}

func TestStateTrieLockedPreventsMutation(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	trie.Insert([]byte("locked.1"), []byte("a"))

	it, err := NewTrieIterator(trie, []byte("locked."))
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}
	defer it.Close()

	if err := trie.Insert([]byte("locked.2"), []byte("b")); err != ErrLockViolation {
		t.Fatalf("expected ErrLockViolation, got %v", err)
	}
}

func TestStateTrieHasPrefix(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	trie.Insert([]byte("user.1"), []byte("a"))

	has, err := trie.HasPrefix([]byte("user."))
	if err != nil || !has {
		t.Fatalf("expected prefix present: has=%v err=%v", has, err)
	}
	has, err = trie.HasPrefix([]byte("nothing."))
	if err != nil || has {
		t.Fatalf("expected prefix absent: has=%v err=%v", has, err)
	}
}
