package core

import "errors"

// Error kinds from spec.md §7. All guest-visible host errors ultimately
// collapse to one of these; the driver maps them to the wire result tags
// in results.go.
var (
	// ErrOutOfEnergy is returned once the energy meter underflows. It is
	// terminal for the current invocation: the driver reports remaining
	// energy of zero regardless of what was requested.
	ErrOutOfEnergy = errors.New("out of energy")

	// ErrTrap covers illegal guest behavior: out-of-bounds memory access,
	// unreachable, division by zero, malformed host-call arguments, or
	// backing-store corruption. Terminal; no partial state commit.
	ErrTrap = errors.New("trap")

	// ErrLockViolation is raised when a structural trie mutation
	// (insert/delete/delete_prefix) is attempted under a key covered by
	// a live iterator's prefix lock. Surfaced to the guest as a trap,
	// since respecting the lock is the guest's responsibility.
	ErrLockViolation = errors.New("structural mutation under active iterator prefix lock")

	// ErrHandleMismatch is raised when an entry/iterator handle names a
	// generation other than the façade's current one, or an index whose
	// slot has been cleared.
	ErrHandleMismatch = errors.New("entry or iterator handle from a stale generation")

	// ErrValidation covers artifact construction failures: unknown or
	// duplicate imports, bad function signatures, malformed export
	// names. The artifact is never constructed when this is returned.
	ErrValidation = errors.New("artifact validation failed")
)
