package core

import "testing"

func TestKeyNibbleRoundTrip(t *testing.T) {
	key := []byte{0x1a, 0x2b, 0xff}
	nibbles := keyToNibbles(key)
	if len(nibbles) != len(key)*2 {
		t.Fatalf("nibble len=%d want %d", len(nibbles), len(key)*2)
	}
	back := nibblesToKey(nibbles)
	if len(back) != len(key) {
		t.Fatalf("round trip len=%d want %d", len(back), len(key))
	}
	for i := range key {
		if back[i] != key[i] {
			t.Fatalf("round trip mismatch at %d: %x want %x", i, back[i], key[i])
		}
	}
}

func TestTrieNodeAsMutableCopyOnWrite(t *testing.T) {
	leaf := newMutableLeaf(nibblePath{1, 2}, []byte("v"))
	frozen := leaf.freeze()
	if !frozen.frozen {
		t.Fatalf("expected frozen node")
	}

	mutated := frozen.asMutable()
	if mutated == frozen {
		t.Fatalf("expected asMutable to clone a frozen node")
	}
	mutated.value = []byte("changed")
	if string(frozen.value) != "v" {
		t.Fatalf("expected original frozen node untouched, got %q", frozen.value)
	}
}

func TestTrieNodeContentHashStable(t *testing.T) {
	a := newMutableLeaf(nibblePath{1, 2}, []byte("v")).freeze()
	b := newMutableLeaf(nibblePath{1, 2}, []byte("v")).freeze()
	if a.hash != b.hash {
		t.Fatalf("expected identical content to hash identically")
	}

	c := newMutableLeaf(nibblePath{1, 2}, []byte("w")).freeze()
	if a.hash == c.hash {
		t.Fatalf("expected different content to hash differently")
	}
}
