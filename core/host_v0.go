package core

import (
	"github.com/wasmerio/wasmer-go/wasmer"
)

// v0Handlers implements every host call in the v0 allowed-imports table
// against a flat []byte contract state and an append-only action DAG,
// matching the semantics of wasm-chain-integration/src/types.rs's
// CommonFunc/InitOnlyFunc/ReceiveOnlyFunc for the pre-entry/iterator
// generation of the state API.
var v0Handlers = map[ImportTag]handlerFunc{
	V0ChargeEnergy: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		if err := h.Energy.Tick(uint64(args[0].I64())); err != nil {
			return nil, err
		}
		return nil, nil
	},
	V0ChargeStackSize: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, nil
	},
	V0ChargeMemoryAlloc: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		pages := uint32(args[0].I32())
		before := h.Energy.Remaining()
		if err := h.Energy.ChargeMemoryAlloc(pages); err != nil {
			return nil, err
		}
		return []wasmer.Value{i64Val(int64(before - h.Energy.Remaining()))}, nil
	},
	V0GetParameterSize: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i32Val(int32(len(h.Common.Parameter())))}, nil
	},
	V0GetParameterSection: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		offset, destPtr, destLen := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
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
	V0LogEvent: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		ptr, length := uint32(args[0].I32()), uint32(args[1].I32())
		msg, err := h.readMem(ptr, length)
		if err != nil {
			return nil, err
		}
		h.Logs = append(h.Logs, LogEntry(msg))
		return []wasmer.Value{i32Val(0)}, nil
	},
	V0LoadState: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		offset, destPtr, destLen := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
		if offset > uint32(len(h.State)) {
			return trapResult()
		}
		end := offset + destLen
		if end > uint32(len(h.State)) {
			end = uint32(len(h.State))
		}
		if err := h.writeMem(destPtr, h.State[offset:end]); err != nil {
			return nil, err
		}
		return []wasmer.Value{i32Val(int32(end - offset))}, nil
	},
	V0WriteState: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		offset, srcPtr, srcLen := uint32(args[0].I32()), uint32(args[1].I32()), uint32(args[2].I32())
		src, err := h.readMem(srcPtr, srcLen)
		if err != nil {
			return nil, err
		}
		if offset > MaxContractStateV0 {
			return trapResult()
		}
		end := uint64(offset) + uint64(srcLen)
		if end > MaxContractStateV0 {
			end = MaxContractStateV0
		}
		if end > uint64(len(h.State)) {
			grown := make([]byte, end)
			copy(grown, h.State)
			h.State = grown
		}
		n := copy(h.State[offset:end], src)
		return []wasmer.Value{i32Val(int32(n))}, nil
	},
	V0ResizeState: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		newSize := uint32(args[0].I32())
		if newSize > MaxContractStateV0 {
			return []wasmer.Value{i32Val(-1)}, nil
		}
		if int(newSize) <= len(h.State) {
			h.State = h.State[:newSize]
		} else {
			grown := make([]byte, newSize)
			copy(grown, h.State)
			h.State = grown
		}
		return []wasmer.Value{i32Val(0)}, nil
	},
	V0StateSize: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i32Val(int32(len(h.State)))}, nil
	},
	V0GetSlotNumber: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i64Val(int64(h.Common.Metadata().SlotNumber))}, nil
	},
	V0GetSlotTime: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i64Val(h.Common.Metadata().SlotTime)}, nil
	},
	V0GetBlockHeight: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i64Val(int64(h.Common.Metadata().BlockHeight))}, nil
	},
	V0GetFinalizedHeight: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i64Val(int64(h.Common.Metadata().FinalizedHeight))}, nil
	},
	V0GetInitOrigin: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		ptr := uint32(args[0].I32())
		origin := h.InitCtx.GetInitOrigin()
		return nil, h.writeMem(ptr, origin.Bytes())
	},
	V0Accept: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		idx := h.Action.Accept()
		return []wasmer.Value{i32Val(int32(idx))}, nil
	},
	V0SimpleTransfer: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		addrPtr, amount := uint32(args[0].I32()), uint64(args[1].I64())
		addrBytes, err := h.readMem(addrPtr, 32)
		if err != nil {
			return nil, err
		}
		var to AccountAddress
		copy(to[:], addrBytes)
		idx := h.Action.SimpleTransfer(to, Amount(amount))
		return []wasmer.Value{i32Val(int32(idx))}, nil
	},
	V0Send: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		index, subindex := uint64(args[0].I32()), uint64(args[1].I32())
		namePtr, nameLen := uint32(args[2].I32()), uint32(args[3].I32())
		amount := uint64(args[4].I64())
		paramPtr, paramLen := uint32(args[5].I32()), uint32(args[6].I32())
		name, err := h.readMem(namePtr, nameLen)
		if err != nil {
			return nil, err
		}
		param, err := h.readMem(paramPtr, paramLen)
		if err != nil {
			return nil, err
		}
		to := ContractAddress{Index: index, Subindex: subindex}
		idx := h.Action.Send(to, string(name), Amount(amount), param)
		return []wasmer.Value{i32Val(int32(idx))}, nil
	},
	V0CombineAnd: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		left, right := ActionIndex(args[0].I32()), ActionIndex(args[1].I32())
		idx, err := h.Action.And(left, right)
		if err != nil {
			return trapResult()
		}
		return []wasmer.Value{i32Val(int32(idx))}, nil
	},
	V0CombineOr: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		left, right := ActionIndex(args[0].I32()), ActionIndex(args[1].I32())
		idx, err := h.Action.Or(left, right)
		if err != nil {
			return trapResult()
		}
		return []wasmer.Value{i32Val(int32(idx))}, nil
	},
	V0GetReceiveInvoker: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, h.writeMem(uint32(args[0].I32()), h.ReceiveCtx.GetReceiveInvoker().Bytes())
	},
	V0GetReceiveSelfAddress: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		addr := h.ReceiveCtx.GetReceiveSelfAddress()
		buf := make([]byte, 16)
		putU64(buf[0:8], addr.Index)
		putU64(buf[8:16], addr.Subindex)
		return nil, h.writeMem(uint32(args[0].I32()), buf)
	},
	V0GetReceiveSelfBalance: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return []wasmer.Value{i64Val(int64(h.ReceiveCtx.GetReceiveSelfBalance()))}, nil
	},
	V0GetReceiveSender: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, h.writeMem(uint32(args[0].I32()), encodeAddress(h.ReceiveCtx.GetReceiveSender()))
	},
	V0GetReceiveOwner: func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error) {
		return nil, h.writeMem(uint32(args[0].I32()), h.ReceiveCtx.GetReceiveOwner().Bytes())
	},
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
}

// encodeAddress serializes Address as a tag byte (0=account, 1=contract)
// followed by the 32-byte account address or the 16-byte contract
// index||subindex pair.
func encodeAddress(a Address) []byte {
	if !a.IsContract {
		out := make([]byte, 1+32)
		out[0] = 0
		copy(out[1:], a.Account.Bytes())
		return out
	}
	out := make([]byte, 1+16)
	out[0] = 1
	putU64(out[1:9], a.Contract.Index)
	putU64(out[9:17], a.Contract.Subindex)
	return out
}
