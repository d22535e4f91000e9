package core

import (
	"encoding/binary"
)

// LogEntry is one event emitted via log_event/LogEvent, in emission
// order.
type LogEntry []byte

// InitResult is the outcome of running a contract's init entrypoint,
// with a wire encoding that matches wasm-chain-integration/src/types.rs
// InitResult::to_bytes byte-for-byte:
//
//	0x00                                         out of energy
//	0x01 || remaining_energy:u64 (BE)            reject
//	0x02 || state_len:u32 (BE) || state || logs  success, each log as
//	    || remaining_energy:u64 (BE)             u32 length + bytes, then
//	                                              remaining energy
type InitResult struct {
	OutOfEnergy bool
	Success     bool
	State       []byte
	Logs        []LogEntry
	RejectCode  int32 // guest-chosen reject reason when !Success && !OutOfEnergy
	Remaining   uint64
}

func (r InitResult) Encode() []byte {
	if r.OutOfEnergy {
		return []byte{0x00}
	}
	if !r.Success {
		out := make([]byte, 1+8)
		out[0] = 0x01
		binary.BigEndian.PutUint64(out[1:], r.Remaining)
		return out
	}
	out := []byte{0x02}
	out = appendU32(out, uint32(len(r.State)))
	out = append(out, r.State...)
	out = appendLogs(out, r.Logs)
	out = appendU64(out, r.Remaining)
	return out
}

// ReceiveResult mirrors wasm-chain-integration/src/types.rs's
// ReceiveResult::to_bytes for v0 (which additionally carries the
// accepted action-DAG root index on success) and src/v1/types.rs's
// ReceiveResult::extract for v1, whose tag table is laid out
// differently from v0's rather than reusing it:
//
//	v0 (big-endian throughout):
//	0x00                                               out of energy
//	0x01 || remaining_energy:u64 (BE)                  reject
//	0x02 || action_root:u32 (BE) || state_len:u32 (BE)
//	    || state || logs || remaining_energy:u64 (BE)  success
//	0x03                                               trap (host-only
//	                                                    extension beyond
//	                                                    the original's
//	                                                    three result kinds,
//	                                                    see DESIGN.md)
//
//	v1 (spec.md §6 "v1 result encoding"):
//	0x00                                     out of energy
//	0x01 || remaining_energy:u64 (BE)        trap
//	0x02 || reason:i32 (BE) || remaining:u64 reject
//	0x03 || logs || remaining:u64
//	    || return_value                      success
//	0x04 || remaining:u64 || logs
//	    || interrupt_payload                 interrupt (see note below)
//
// Interrupt is encodable for completeness against spec.md's table, but
// this host's Driver always resolves an invoke call synchronously
// against its Registry before RunReceive returns (see driver.go's
// service loop), so RunReceive itself never produces an Interrupted
// result; the tag exists for callers that build a ReceiveResult
// directly, e.g. a future scheduler that defers invoke resolution.
type ReceiveResult struct {
	Version StateVersion

	OutOfEnergy bool
	Trap        bool
	Success     bool
	Interrupted bool

	ActionRoot uint32 // v0 only
	RejectCode int32  // v1 only: the guest's negative i32 return value

	State            []byte // trie root hash (v1) or flat state (v0); not on the v1 wire
	ReturnValue      []byte // v1 only: bytes written via write_output
	InterruptPayload []byte // v1 only, see note above

	Logs      []LogEntry
	Remaining uint64
}

func (r ReceiveResult) Encode() []byte {
	if r.Version == V1 {
		return r.encodeV1()
	}
	return r.encodeV0()
}

func (r ReceiveResult) encodeV0() []byte {
	if r.OutOfEnergy {
		return []byte{0x00}
	}
	if r.Trap {
		return []byte{0x03}
	}
	if !r.Success {
		out := make([]byte, 1+8)
		out[0] = 0x01
		binary.BigEndian.PutUint64(out[1:], r.Remaining)
		return out
	}
	out := []byte{0x02}
	out = appendU32(out, r.ActionRoot)
	out = appendU32(out, uint32(len(r.State)))
	out = append(out, r.State...)
	out = appendLogs(out, r.Logs)
	out = appendU64(out, r.Remaining)
	return out
}

func (r ReceiveResult) encodeV1() []byte {
	if r.OutOfEnergy {
		return []byte{0x00}
	}
	if r.Trap {
		out := []byte{0x01}
		return appendU64(out, r.Remaining)
	}
	if r.Interrupted {
		out := []byte{0x04}
		out = appendU64(out, r.Remaining)
		out = appendLogs(out, r.Logs)
		out = append(out, r.InterruptPayload...)
		return out
	}
	if !r.Success {
		out := []byte{0x02}
		out = appendU32(out, uint32(r.RejectCode))
		out = appendU64(out, r.Remaining)
		return out
	}
	out := []byte{0x03}
	out = appendLogs(out, r.Logs)
	out = appendU64(out, r.Remaining)
	out = append(out, r.ReturnValue...)
	return out
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendLogs(b []byte, logs []LogEntry) []byte {
	b = appendU32(b, uint32(len(logs)))
	for _, l := range logs {
		b = appendU32(b, uint32(len(l)))
		b = append(b, l...)
	}
	return b
}
