package core

import (
	"errors"
	"testing"
)

func TestActionTreeAcceptRoot(t *testing.T) {
	tree := &ActionTree{}
	if _, ok := tree.Root(); ok {
		t.Fatalf("expected no root on empty tree")
	}
	idx := tree.Accept()
	root, ok := tree.Root()
	if !ok || root != idx {
		t.Fatalf("root=%d ok=%v want %d true", root, ok, idx)
	}
	if tree.Node(idx).Kind != ActionAccept {
		t.Fatalf("expected ActionAccept node")
	}
}

func TestActionTreeSimpleTransferAndSend(t *testing.T) {
	tree := &ActionTree{}
	var to AccountAddress
	to[0] = 0xAA
	i1 := tree.SimpleTransfer(to, 500)
	if tree.Node(i1).Amount != 500 {
		t.Fatalf("amount mismatch")
	}

	contractAddr := ContractAddress{Index: 3, Subindex: 0}
	i2 := tree.Send(contractAddr, "entry", 10, []byte("payload"))
	node := tree.Node(i2)
	if !node.IsContract || node.Name != "entry" || string(node.Parameter) != "payload" {
		t.Fatalf("send node mismatch: %+v", node)
	}
}

func TestActionTreeCombinatorsRejectForwardReference(t *testing.T) {
	tree := &ActionTree{}
	a := tree.Accept()
	if _, err := tree.And(a, ActionIndex(5)); !errors.Is(err, ErrTrap) {
		t.Fatalf("expected ErrTrap for forward reference, got %v", err)
	}
}

func TestActionTreeAndOrSucceed(t *testing.T) {
	tree := &ActionTree{}
	a := tree.Accept()
	b := tree.Accept()
	andIdx, err := tree.And(a, b)
	if err != nil {
		t.Fatalf("and err: %v", err)
	}
	orIdx, err := tree.Or(andIdx, b)
	if err != nil {
		t.Fatalf("or err: %v", err)
	}
	root, ok := tree.Root()
	if !ok || root != orIdx {
		t.Fatalf("root=%d want %d", root, orIdx)
	}
	if tree.Node(orIdx).Left != andIdx || tree.Node(orIdx).Right != b {
		t.Fatalf("or node children mismatch")
	}
}
