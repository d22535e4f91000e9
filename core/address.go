package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

func sha256Sum(b []byte) Hash { return Hash(sha256.Sum256(b)) }

// Hash is a 32-byte content hash, used both for frozen trie nodes and for
// contract code identity. Computed with crypto/sha256, matching the
// teacher's own DeriveContractAddress/CodeHash convention rather than
// Keccak256 (see DESIGN.md for why go-ethereum's hashing was dropped).
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) Bytes() []byte { return h[:] }

// AccountAddress identifies a chain account. Spec.md mandates 32 bytes,
// unlike the 20-byte EVM-style address the teacher used elsewhere.
type AccountAddress [32]byte

func (a AccountAddress) String() string { return hex.EncodeToString(a[:]) }

func (a AccountAddress) Bytes() []byte { return a[:] }

var ZeroAccountAddress AccountAddress

// ContractAddress identifies a deployed contract instance by its
// monotonically-assigned index and a subindex that is reused only after
// the contract at that index has been destroyed (mirrors the chain's own
// addressing scheme, carried through from Action::Send's to_addr).
type ContractAddress struct {
	Index    uint64
	Subindex uint64
}

func (c ContractAddress) String() string {
	return fmt.Sprintf("<%d,%d>", c.Index, c.Subindex)
}

// Amount is a non-negative CCD-equivalent quantity, always encoded as
// unsigned 64-bit: little-endian in guest memory, big-endian on the wire.
type Amount uint64
