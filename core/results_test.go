package core

import (
	"bytes"
	"testing"
)

func TestInitResultEncodeOutOfEnergy(t *testing.T) {
	r := InitResult{OutOfEnergy: true}
	got := r.Encode()
	if !bytes.Equal(got, []byte{0x00}) {
		t.Fatalf("encode=%x want 00", got)
	}
}

func TestInitResultEncodeReject(t *testing.T) {
	r := InitResult{Success: false, Remaining: 42}
	got := r.Encode()
	want := append([]byte{0x01}, 0, 0, 0, 0, 0, 0, 0, 42)
	if !bytes.Equal(got, want) {
		t.Fatalf("encode=%x want %x", got, want)
	}
}

func TestInitResultEncodeSuccessWithLogs(t *testing.T) {
	r := InitResult{
		Success:   true,
		State:     []byte("ab"),
		Logs:      []LogEntry{[]byte("x"), []byte("yz")},
		Remaining: 7,
	}
	got := r.Encode()
	if got[0] != 0x02 {
		t.Fatalf("tag=%x want 02", got[0])
	}
	// state_len (u32 BE) || state
	stateLen := uint32(got[1])<<24 | uint32(got[2])<<16 | uint32(got[3])<<8 | uint32(got[4])
	if stateLen != 2 || string(got[5:7]) != "ab" {
		t.Fatalf("state section mismatch: %x", got)
	}
}

func TestReceiveResultEncodeTrapIsHostExtension(t *testing.T) {
	r := ReceiveResult{Trap: true}
	got := r.Encode()
	if !bytes.Equal(got, []byte{0x03}) {
		t.Fatalf("encode=%x want 03", got)
	}
}

func TestReceiveResultEncodeSuccessCarriesActionRoot(t *testing.T) {
	r := ReceiveResult{Success: true, ActionRoot: 9, State: []byte("s"), Remaining: 1}
	got := r.Encode()
	if got[0] != 0x02 {
		t.Fatalf("tag=%x want 02", got[0])
	}
	actionRoot := uint32(got[1])<<24 | uint32(got[2])<<16 | uint32(got[3])<<8 | uint32(got[4])
	if actionRoot != 9 {
		t.Fatalf("action root=%d want 9", actionRoot)
	}
}

func TestReceiveResultEncodeV1Success(t *testing.T) {
	r := ReceiveResult{Version: V1, Success: true, ReturnValue: []byte("hi"), Remaining: 5}
	got := r.Encode()
	want := append([]byte{0x03, 0, 0, 0, 0 /* log count */, 0, 0, 0, 0, 0, 0, 0, 5}, []byte("hi")...)
	if !bytes.Equal(got, want) {
		t.Fatalf("encode=%x want %x", got, want)
	}
}

func TestReceiveResultEncodeV1Reject(t *testing.T) {
	r := ReceiveResult{Version: V1, Success: false, RejectCode: -3, Remaining: 2}
	got := r.Encode()
	if got[0] != 0x02 {
		t.Fatalf("tag=%x want 02", got[0])
	}
	reason := int32(uint32(got[1])<<24 | uint32(got[2])<<16 | uint32(got[3])<<8 | uint32(got[4]))
	if reason != -3 {
		t.Fatalf("reason=%d want -3", reason)
	}
}

func TestReceiveResultEncodeV1Trap(t *testing.T) {
	r := ReceiveResult{Version: V1, Trap: true, Remaining: 11}
	got := r.Encode()
	want := append([]byte{0x01}, 0, 0, 0, 0, 0, 0, 0, 11)
	if !bytes.Equal(got, want) {
		t.Fatalf("encode=%x want %x", got, want)
	}
}

func TestReceiveResultEncodeV0UnaffectedByVersionField(t *testing.T) {
	r := ReceiveResult{Trap: true}
	got := r.Encode()
	if !bytes.Equal(got, []byte{0x03}) {
		t.Fatalf("v0 trap encode=%x want 03 (must stay host-only extension, not the v1 shape)", got)
	}
}
