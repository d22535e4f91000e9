package core

import "testing"

func TestTrieIteratorOrderAndClose(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	trie.Insert([]byte("a.2"), []byte("2"))
	trie.Insert([]byte("a.1"), []byte("1"))
	trie.Insert([]byte("a.3"), []byte("3"))
	trie.Insert([]byte("b.1"), []byte("b"))

	it, err := NewTrieIterator(trie, []byte("a."))
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}

	var got []string
	for {
		got = append(got, string(it.Key()))
		if !it.Next() {
			break
		}
	}
	want := []string{"a.1", "a.2", "a.3"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if !it.Done() {
		t.Fatalf("expected iterator exhausted")
	}

	it.Close()
	if len(trie.locks) != 0 {
		t.Fatalf("expected lock released after close")
	}
	it.Close() // idempotent
}

func TestTrieIteratorEmptyPrefix(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	it, err := NewTrieIterator(trie, []byte("nothing"))
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}
	defer it.Close()
	if !it.Done() {
		t.Fatalf("expected immediately exhausted iterator")
	}
	if it.Key() != nil {
		t.Fatalf("expected nil key on exhausted iterator")
	}
}
