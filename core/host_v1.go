package core

import (
	"encoding/binary"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// v1Handlers implements the v1 allowed-imports table against an
// InstanceState façade (entries/iterators) and an InterruptEngine for
// the invoke call, matching wasm-chain-integration/src/v1/types.rs's
// CommonFunc/InitOnlyFunc/ReceiveOnlyFunc for the entry/iterator
// generation of the state API.
var v1Handlers = map[ImportTag]handlerFunc{
	V1ChargeEnergy: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		if err := h.Energy.Tick(uint64(args[0].I64())); err != nil {
			return nil, err
		}
		return nil, nil
	},
	V1TrackCall: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i32Val(0)}, nil
	},
	V1TrackReturn: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, nil
	},
	V1ChargeMemoryAlloc: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		pages := uint32(args[0].I32())
		before := h.Energy.Remaining()
		if err := h.Energy.ChargeMemoryAlloc(pages); err != nil {
			return nil, err
		}
		return []wasmer.Value{i64Val(int64(before - h.Energy.Remaining()))}, nil
	},
	V1GetParameterSize: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i32Val(int32(len(h.Common.Parameter())))}, nil
	},
	V1GetParameterSection: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		offset, destPtr, destLen := uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
		param := h.Common.Parameter()
		if offset > uint32(len(param)) {
			return trapResult()
		}
		end := offset + destLen
		if end > uint32(len(param)) {
			end = uint32(len(param))
		}
		if err := h.writeMem(destPtr, param[offset:end]); err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(end - offset))}, nil
	},
	V1GetPolicySection: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		offset, destPtr, destLen := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
		encoded := encodePolicies(h.Common.Policies())
		if offset > uint32(len(encoded)) {
			return trapResult()
		}
		end := offset + destLen
		if end > uint32(len(encoded)) {
			end = uint32(len(encoded))
		}
		if err := h.writeMem(destPtr, encoded[offset:end]); err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(end - offset))}, nil
	},
	V1LogEvent: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		ptr, length := uint32(args[0].I32()), uint32(args[1].I32())
		msg, err := h.readMem(ptr, length)
		if err != nil {
			return nil, err
		}
		h.Logs = append(h.Logs, LogEntry(msg))
		return []wasmer.Value{i32Val(0)}, nil
	},
	V1GetSlotTime: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i64Val(h.Common.Metadata().SlotTime)}, nil
	},
	V1StateLookupEntry: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		ptr, length := uint32(args[0].I32()), uint32(args[1].I32())
		key, err := h.readMem(ptr, length)
		if err != nil {
			return nil, err
		}
		handle, err := h.Instance.LookupEntry(key)
		if err != nil {
			return nil, err
		}
		return []wasmer.Value{i64Val(int64(handle))}, nil
	},
	V1StateCreateEntry: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		ptr, length := uint32(args[0].I32()), uint32(args[1].I32())
		key, err := h.readMem(ptr, length)
		if err != nil {
			return nil, err
		}
		handle, err := h.Instance.CreateEntry(key)
		if err != nil {
			return nil, err
		}
		return []wasmer.Value{i64Val(int64(handle))}, nil
	},
	V1StateDeleteEntry: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		handle := uint64(args[0].I64())
		status, err := h.Instance.DeleteEntry(handle)
		if err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(status))}, nil
	},
	V1StateDeletePrefix: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		ptr, length := uint32(args[0].I32()), uint32(args[1].I32())
		prefix, err := h.readMem(ptr, length)
		if err != nil {
			return nil, err
		}
		if err := h.Instance.DeletePrefix(prefix); err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(0)}, nil
	},
	V1StateIteratePrefix: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		ptr, length := uint32(args[0].I32()), uint32(args[1].I32())
		prefix, err := h.readMem(ptr, length)
		if err != nil {
			return nil, err
		}
		handle, err := h.Instance.Iterator(prefix)
		if err != nil {
			return nil, err
		}
		return []wasmer.Value{i64Val(int64(handle))}, nil
	},
	V1StateIteratorNext: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		handle := uint64(args[0].I64())
		next, err := h.Instance.IteratorNext(handle)
		if err != nil {
			return nil, err
		}
		return []wasmer.Value{i64Val(int64(next))}, nil
	},
	V1StateEntryRead: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		handle := uint64(args[0].I64())
		destPtr, destLen, offset := uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
		buf := make([]byte, destLen)
		n, err := h.Instance.EntryRead(handle, buf, offset)
		if err != nil {
			return nil, err
		}
		if err := h.writeMem(destPtr, buf[:n]); err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(n))}, nil
	},
	V1StateEntryWrite: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		handle := uint64(args[0].I64())
		srcPtr, srcLen, offset := uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
		src, err := h.readMem(srcPtr, srcLen)
		if err != nil {
			return nil, err
		}
		n, err := h.Instance.EntryWrite(handle, src, offset)
		if err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(n))}, nil
	},
	V1StateEntrySize: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		handle := uint64(args[0].I64())
		n, err := h.Instance.EntrySize(handle)
		if err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(n))}, nil
	},
	V1StateEntryResize: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		handle := uint64(args[0].I64())
		newSize := uint32(args[1].I32())
		if err := h.Instance.EntryResize(handle, newSize); err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(0)}, nil
	},
	V1StateEntryKeyRead: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		handle := uint64(args[0].I64())
		destPtr, destLen, offset := uint32(args[1].I32()), uint32(args[2].I32()), uint32(args[3].I32())
		buf := make([]byte, destLen)
		n, err := h.Instance.EntryKeyRead(handle, buf, offset)
		if err != nil {
			return nil, err
		}
		if err := h.writeMem(destPtr, buf[:n]); err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(n))}, nil
	},
	V1StateEntryKeySize: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		handle := uint64(args[0].I64())
		n, err := h.Instance.EntryKeySize(handle)
		if err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(n))}, nil
	},
	V1WriteOutput: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		srcPtr, srcLen, offset := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
		src, err := h.readMem(srcPtr, srcLen)
		if err != nil {
			return nil, err
		}
		end := offset + srcLen
		if uint32(len(h.Output)) < end {
			grown := make([]byte, end)
			copy(grown, h.Output)
			h.Output = grown
		}
		copy(h.Output[offset:end], src)
		return []wasmer.Value{i32Val(int32(srcLen))}, nil
	},
	V1GetInitOrigin: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, h.writeMem(uint32(args[0].I32()), h.InitCtx.GetInitOrigin().Bytes())
	},
	V1GetReceiveInvoker: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, h.writeMem(uint32(args[0].I32()), h.ReceiveCtx.GetReceiveInvoker().Bytes())
	},
	V1GetReceiveSelfAddress: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		addr := h.ReceiveCtx.GetReceiveSelfAddress()
		buf := make([]byte, 16)
		putU64(buf[0:8], addr.Index)
		putU64(buf[8:16], addr.Subindex)
		return nil, h.writeMem(uint32(args[0].I32()), buf)
	},
	V1GetReceiveSelfBalance: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i64Val(int64(h.ReceiveCtx.GetReceiveSelfBalance()))}, nil
	},
	V1GetReceiveSender: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, h.writeMem(uint32(args[0].I32()), encodeAddress(h.ReceiveCtx.GetReceiveSender()))
	},
	V1GetReceiveOwner: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, h.writeMem(uint32(args[0].I32()), h.ReceiveCtx.GetReceiveOwner().Bytes())
	},
	V1Invoke: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		kind := InvokeKind(args[0].I32())
		payloadPtr, payloadLen := uint32(args[1].I32()), uint32(args[2].I32())
		payload, err := h.readMem(payloadPtr, payloadLen)
		if err != nil {
			return nil, err
		}
		req, err := decodeInvokePayload(kind, payload)
		if err != nil {
			return trapResult()
		}
		resp := h.Interrupt.Suspend(req)
		return []wasmer.Value{i64Val(int64(encodeInvokeResponse(resp)))}, nil
	},
}

// encodeInvokeResponse packs the handler's view of an InvokeResponse
// into the single i64 the guest receives: optionSomeBit (top bit only)
// on success, 0 on failure. The remaining 63 bits are always zero; no
// return value from the callee is passed back to the guest.
func encodeInvokeResponse(resp InvokeResponse) uint64 {
	if !resp.Success {
		return 0
	}
	return optionSomeBit
}

func decodeInvokePayload(kind InvokeKind, payload []byte) (InvokeRequest, error) {
	switch kind {
	case InvokeTransfer:
		if len(payload) < 40 {
			return InvokeRequest{}, ErrTrap
		}
		var to AccountAddress
		copy(to[:], payload[:32])
		amount := binary.BigEndian.Uint64(payload[32:40])
		return InvokeRequest{Kind: kind, ToAccount: to, Amount: Amount(amount)}, nil
	case InvokeCall:
		if len(payload) < 17 {
			return InvokeRequest{}, ErrTrap
		}
		index := binary.BigEndian.Uint64(payload[0:8])
		subindex := binary.BigEndian.Uint64(payload[8:16])
		epLen := int(payload[16])
		if len(payload) < 17+epLen+8 {
			return InvokeRequest{}, ErrTrap
		}
		entrypoint := string(payload[17 : 17+epLen])
		amount := binary.BigEndian.Uint64(payload[17+epLen : 17+epLen+8])
		parameter := payload[17+epLen+8:]
		return InvokeRequest{
			Kind: kind, To: ContractAddress{Index: index, Subindex: subindex},
			Entrypoint: entrypoint, Amount: Amount(amount), Parameter: append([]byte(nil), parameter...),
		}, nil
	default:
		if len(payload) < 16 {
			return InvokeRequest{}, ErrTrap
		}
		index := binary.BigEndian.Uint64(payload[0:8])
		subindex := binary.BigEndian.Uint64(payload[8:16])
		return InvokeRequest{Kind: kind, To: ContractAddress{Index: index, Subindex: subindex}}, nil
	}
}

// encodePolicies serializes the identity policies attached to an
// invocation as a flat length-prefixed sequence, for get_policy_section.
func encodePolicies(policies []Policy) []byte {
	var out []byte
	out = appendU32(out, uint32(len(policies)))
	for _, p := range policies {
		out = appendU64(out, uint64(p.ValidTo))
		out = appendU64(out, uint64(p.CreatedAt))
		out = appendU32(out, uint32(len(p.Attributes)))
		for _, a := range p.Attributes {
			out = append(out, a.Tag)
			out = appendU32(out, uint32(len(a.Value)))
			out = append(out, a.Value...)
		}
	}
	return out
}
