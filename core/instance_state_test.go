package core

import (
	"errors"
	"testing"
)

func TestInstanceStateLookupEntryNoneWhenAbsent(t *testing.T) {
	s := NewInstanceState(NewStateTrie(NewMemoryLoader()), 0)
	h, err := s.LookupEntry([]byte("missing"))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if h != noneHandle {
		t.Fatalf("expected none handle, got %#x", h)
	}
}

func TestInstanceStateCreateAndReadWriteEntry(t *testing.T) {
	s := NewInstanceState(NewStateTrie(NewMemoryLoader()), 0)
	h, err := s.CreateEntry([]byte("k"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h&optionSomeBit == 0 {
		t.Fatalf("expected Some handle from CreateEntry")
	}

	n, err := s.EntryWrite(h, []byte("hello"), 0)
	if err != nil || n != 5 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	sz, err := s.EntrySize(h)
	if err != nil || sz != 5 {
		t.Fatalf("size=%d err=%v", sz, err)
	}

	dest := make([]byte, 5)
	n, err = s.EntryRead(h, dest, 0)
	if err != nil || n != 5 || string(dest) != "hello" {
		t.Fatalf("read: n=%d dest=%q err=%v", n, dest, err)
	}
}

func TestInstanceStateEntryReadOffsetPastEnd(t *testing.T) {
	s := NewInstanceState(NewStateTrie(NewMemoryLoader()), 0)
	h, _ := s.CreateEntry([]byte("k"))
	s.EntryWrite(h, []byte("abc"), 0)

	if _, err := s.EntryRead(h, make([]byte, 1), 10); !errors.Is(err, ErrTrap) {
		t.Fatalf("expected ErrTrap for offset past end, got %v", err)
	}
}

func TestInstanceStateEntryResize(t *testing.T) {
	s := NewInstanceState(NewStateTrie(NewMemoryLoader()), 0)
	h, _ := s.CreateEntry([]byte("k"))
	s.EntryWrite(h, []byte("abcdef"), 0)

	if err := s.EntryResize(h, 3); err != nil {
		t.Fatalf("resize down: %v", err)
	}
	if sz, _ := s.EntrySize(h); sz != 3 {
		t.Fatalf("size after shrink=%d want 3", sz)
	}

	if err := s.EntryResize(h, 6); err != nil {
		t.Fatalf("resize up: %v", err)
	}
	dest := make([]byte, 6)
	s.EntryRead(h, dest, 0)
	if string(dest[:3]) != "abc" || dest[3] != 0 {
		t.Fatalf("expected zero-extended growth, got %q", dest)
	}
}

func TestInstanceStateDeleteEntryConvention(t *testing.T) {
	s := NewInstanceState(NewStateTrie(NewMemoryLoader()), 0)
	h, _ := s.CreateEntry([]byte("k"))

	n, err := s.DeleteEntry(h)
	if err != nil || n != 1 {
		t.Fatalf("first delete: n=%d err=%v", n, err)
	}

	h2, _ := s.LookupEntry([]byte("k"))
	if h2 != noneHandle {
		t.Fatalf("expected key gone after delete")
	}
}

func TestInstanceStateHandleMismatchAfterNextGeneration(t *testing.T) {
	s := NewInstanceState(NewStateTrie(NewMemoryLoader()), 0)
	h, _ := s.CreateEntry([]byte("k"))

	s.NextGeneration()

	if _, err := s.EntrySize(h); !errors.Is(err, ErrHandleMismatch) {
		t.Fatalf("expected ErrHandleMismatch after generation bump, got %v", err)
	}
}

func TestInstanceStateIteratorNext(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	trie.Insert([]byte("p.1"), []byte("a"))
	trie.Insert([]byte("p.2"), []byte("b"))
	s := NewInstanceState(trie, 0)

	handle, err := s.Iterator([]byte("p."))
	if err != nil {
		t.Fatalf("iterator: %v", err)
	}

	entryHandle, err := s.IteratorNext(handle)
	if err != nil || entryHandle == noneHandle {
		t.Fatalf("first next: handle=%#x err=%v", entryHandle, err)
	}
	entryHandle, err = s.IteratorNext(handle)
	if err != nil || entryHandle == noneHandle {
		t.Fatalf("second next: handle=%#x err=%v", entryHandle, err)
	}
	entryHandle, err = s.IteratorNext(handle)
	if err != nil || entryHandle != noneHandle {
		t.Fatalf("expected exhausted iterator to yield none handle, got %#x err=%v", entryHandle, err)
	}
}

func TestInstanceStateDeletePrefixInvalidatesEntries(t *testing.T) {
	trie := NewStateTrie(NewMemoryLoader())
	s := NewInstanceState(trie, 0)
	h, _ := s.CreateEntry([]byte("ns.a"))

	if err := s.DeletePrefix([]byte("ns.")); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, err := s.EntrySize(h); !errors.Is(err, ErrHandleMismatch) {
		t.Fatalf("expected stale handle after delete prefix, got %v", err)
	}
}
