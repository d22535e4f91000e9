package core

import (
	"fmt"
	"strings"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// StateVersion selects which host-call surface an artifact targets: v0's
// flat contract state plus action-DAG returns, or v1's entry/iterator
// state API plus the invoke interrupt. Both share the "common" tags but
// assign them different numeric values (see v0AllowedImports and
// v1AllowedImports below), matching
// the two generations of ImportFunc in wasm-chain-integration.
type StateVersion uint8

const (
	V0 StateVersion = 0
	V1 StateVersion = 1
)

// ImportTag is the decoded tag byte identifying one allowed host
// import. Tags are only meaningful together with a StateVersion: V0 and
// V1 assign different tags to semantically similar calls.
type ImportTag uint8

// V0 tags (wasm-chain-integration/src/types.rs ImportFunc), 0-24.
const (
	V0ChargeEnergy ImportTag = iota
	V0ChargeStackSize
	V0ChargeMemoryAlloc
	V0GetParameterSize
	V0GetParameterSection
	V0LogEvent
	V0LoadState
	V0WriteState
	V0ResizeState
	V0StateSize
	V0GetSlotNumber
	V0GetSlotTime
	V0GetBlockHeight
	V0GetFinalizedHeight
	V0GetInitOrigin
	V0Accept
	V0SimpleTransfer
	V0Send
	V0CombineAnd
	V0CombineOr
	V0GetReceiveInvoker
	V0GetReceiveSelfAddress
	V0GetReceiveSelfBalance
	V0GetReceiveSender
	V0GetReceiveOwner
)

// V1 tags (wasm-chain-integration/src/v1/types.rs ImportFunc), 0-28.
const (
	V1ChargeEnergy ImportTag = iota
	V1TrackCall
	V1TrackReturn
	V1ChargeMemoryAlloc
	V1GetParameterSize
	V1GetParameterSection
	V1GetPolicySection
	V1LogEvent
	V1GetSlotTime
	V1StateLookupEntry
	V1StateCreateEntry
	V1StateDeleteEntry
	V1StateDeletePrefix
	V1StateIteratePrefix
	V1StateIteratorNext
	V1StateEntryRead
	V1StateEntryWrite
	V1StateEntrySize
	V1StateEntryResize
	V1StateEntryKeyRead
	V1StateEntryKeySize
	V1WriteOutput
	V1GetInitOrigin
	V1GetReceiveInvoker
	V1GetReceiveSelfAddress
	V1GetReceiveSelfBalance
	V1GetReceiveSender
	V1GetReceiveOwner
	V1Invoke
)

// FunctionType is the (params, result) signature of a host import, using
// wasmer's own value-kind vocabulary so it can be checked directly
// against a wasmer.ImportType without a translation layer.
type FunctionType struct {
	Params []wasmer.ValueKind
	Result *wasmer.ValueKind // nil = no result
}

func (f FunctionType) equal(o FunctionType) bool {
	if len(f.Params) != len(o.Params) {
		return false
	}
	for i := range f.Params {
		if f.Params[i] != o.Params[i] {
			return false
		}
	}
	if (f.Result == nil) != (o.Result == nil) {
		return false
	}
	return f.Result == nil || *f.Result == *o.Result
}

func i32() wasmer.ValueKind { return wasmer.I32 }
func i64() wasmer.ValueKind { return wasmer.I64 }

func ft(result *wasmer.ValueKind, params ...wasmer.ValueKind) FunctionType {
	return FunctionType{Params: params, Result: result}
}

func resultOf(k wasmer.ValueKind) *wasmer.ValueKind { return &k }

// importSpec is one row of the allowed-imports table: the fully
// qualified "module.name", its tag, and its exact required signature.
type importSpec struct {
	module string
	name   string
	tag    ImportTag
	typ    FunctionType
}

const meteringModule = "concordium_metering"
const concordiumModule = "concordium"

var v0AllowedImports = buildSpecs([]importSpec{
	{meteringModule, "account_energy", V0ChargeEnergy, ft(nil, i64())},
	{meteringModule, "track_call", V0ChargeStackSize, ft(nil)},
	{meteringModule, "charge_memory_alloc", V0ChargeMemoryAlloc, ft(resultOf(i64()), i32())},
	{concordiumModule, "get_parameter_size", V0GetParameterSize, ft(resultOf(i32()))},
	{concordiumModule, "get_parameter_section", V0GetParameterSection, ft(resultOf(i32()), i32(), i32(), i32())},
	{concordiumModule, "log_event", V0LogEvent, ft(resultOf(i32()), i32(), i32())},
	{concordiumModule, "load_state", V0LoadState, ft(resultOf(i32()), i32(), i32(), i32())},
	{concordiumModule, "write_state", V0WriteState, ft(resultOf(i32()), i32(), i32(), i32())},
	{concordiumModule, "resize_state", V0ResizeState, ft(resultOf(i32()), i32())},
	{concordiumModule, "state_size", V0StateSize, ft(resultOf(i32()))},
	{concordiumModule, "get_slot_number", V0GetSlotNumber, ft(resultOf(i64()))},
	{concordiumModule, "get_slot_time", V0GetSlotTime, ft(resultOf(i64()))},
	{concordiumModule, "get_block_height", V0GetBlockHeight, ft(resultOf(i64()))},
	{concordiumModule, "get_finalized_height", V0GetFinalizedHeight, ft(resultOf(i64()))},
	{concordiumModule, "get_init_origin", V0GetInitOrigin, ft(nil, i32())},
	{concordiumModule, "accept", V0Accept, ft(resultOf(i32()))},
	{concordiumModule, "simple_transfer", V0SimpleTransfer, ft(resultOf(i32()), i32(), i64())},
	{concordiumModule, "send", V0Send, ft(resultOf(i32()), i32(), i32(), i32(), i32(), i64(), i32(), i32())},
	{concordiumModule, "combine_and", V0CombineAnd, ft(resultOf(i32()), i32(), i32())},
	{concordiumModule, "combine_or", V0CombineOr, ft(resultOf(i32()), i32(), i32())},
	{concordiumModule, "get_receive_invoker", V0GetReceiveInvoker, ft(nil, i32())},
	{concordiumModule, "get_receive_self_address", V0GetReceiveSelfAddress, ft(nil, i32())},
	{concordiumModule, "get_receive_self_balance", V0GetReceiveSelfBalance, ft(resultOf(i64()))},
	{concordiumModule, "get_receive_sender", V0GetReceiveSender, ft(nil, i32())},
	{concordiumModule, "get_receive_owner", V0GetReceiveOwner, ft(nil, i32())},
})

var v1AllowedImports = buildSpecs([]importSpec{
	{meteringModule, "account_energy", V1ChargeEnergy, ft(nil, i64())},
	{meteringModule, "track_call", V1TrackCall, ft(resultOf(i32()))},
	{meteringModule, "track_return", V1TrackReturn, ft(nil)},
	{meteringModule, "charge_memory_alloc", V1ChargeMemoryAlloc, ft(resultOf(i64()), i32())},
	{concordiumModule, "get_parameter_size", V1GetParameterSize, ft(resultOf(i32()), i32())},
	{concordiumModule, "get_parameter_section", V1GetParameterSection, ft(resultOf(i32()), i32(), i32(), i32(), i32())},
	{concordiumModule, "get_policy_section", V1GetPolicySection, ft(resultOf(i32()), i32(), i32(), i32())},
	{concordiumModule, "log_event", V1LogEvent, ft(resultOf(i32()), i32(), i32())},
	{concordiumModule, "get_slot_time", V1GetSlotTime, ft(resultOf(i64()))},
	{concordiumModule, "state_lookup_entry", V1StateLookupEntry, ft(resultOf(i64()), i32(), i32())},
	{concordiumModule, "state_create_entry", V1StateCreateEntry, ft(resultOf(i64()), i32(), i32())},
	{concordiumModule, "state_delete_entry", V1StateDeleteEntry, ft(resultOf(i32()), i64())},
	{concordiumModule, "state_delete_prefix", V1StateDeletePrefix, ft(resultOf(i32()), i32(), i32())},
	{concordiumModule, "state_iterate_prefix", V1StateIteratePrefix, ft(resultOf(i64()), i32(), i32())},
	{concordiumModule, "state_iterator_next", V1StateIteratorNext, ft(resultOf(i64()), i64())},
	{concordiumModule, "state_entry_read", V1StateEntryRead, ft(resultOf(i32()), i64(), i32(), i32(), i32())},
	{concordiumModule, "state_entry_write", V1StateEntryWrite, ft(resultOf(i32()), i64(), i32(), i32(), i32())},
	{concordiumModule, "state_entry_size", V1StateEntrySize, ft(resultOf(i32()), i64())},
	{concordiumModule, "state_entry_resize", V1StateEntryResize, ft(resultOf(i32()), i64(), i32())},
	{concordiumModule, "state_entry_key_read", V1StateEntryKeyRead, ft(resultOf(i32()), i64(), i32(), i32(), i32())},
	{concordiumModule, "state_entry_key_size", V1StateEntryKeySize, ft(resultOf(i32()), i64())},
	{concordiumModule, "write_output", V1WriteOutput, ft(resultOf(i32()), i32(), i32(), i32())},
	{concordiumModule, "get_init_origin", V1GetInitOrigin, ft(nil, i32())},
	{concordiumModule, "get_receive_invoker", V1GetReceiveInvoker, ft(nil, i32())},
	{concordiumModule, "get_receive_self_address", V1GetReceiveSelfAddress, ft(nil, i32())},
	{concordiumModule, "get_receive_self_balance", V1GetReceiveSelfBalance, ft(resultOf(i64()))},
	{concordiumModule, "get_receive_sender", V1GetReceiveSender, ft(nil, i32())},
	{concordiumModule, "get_receive_owner", V1GetReceiveOwner, ft(nil, i32())},
	{concordiumModule, "invoke", V1Invoke, ft(resultOf(i64()), i32(), i32(), i32())},
})

func buildSpecs(specs []importSpec) map[string]importSpec {
	out := make(map[string]importSpec, len(specs))
	for _, s := range specs {
		out[s.module+"."+s.name] = s
	}
	return out
}

// MaxExportNameLen bounds export function names (spec.md §4.7).
const MaxExportNameLen = 100

// MaxContractStateV0 bounds the flat v0 contract state vector.
const MaxContractStateV0 = 16 * 1024

// ImportEntry is one resolved row of an artifact's import table: a tag
// plus the concrete signature it was validated against.
type ImportEntry struct {
	Tag ImportTag
	Typ FunctionType
}

// Artifact is a validated, energy-metering-instrumented, compiled
// WebAssembly module, ready to run. Construction enforces spec.md §4.7:
// every import must resolve to exactly one allowed (module, name, type)
// triple, and every export intended as an entrypoint must have the
// right name shape and signature.
type Artifact struct {
	Version    StateVersion
	Module     *wasmer.Module
	Code       []byte
	Imports    []ImportEntry
	InitNames  []string // "init_<contract>"
	RecvNames  []string // "<contract>.<entrypoint>"
	OtherNames []string
}

// NewArtifact compiles wasm bytes with the given engine/store and
// validates its imports/exports against version's allowed-imports
// table. The WASM parser, validator and metering-injection pass
// themselves are external collaborators (spec.md §1); this is the
// first point the core touches the module, after those passes have
// already run over it.
func NewArtifact(store *wasmer.Store, version StateVersion, code []byte) (*Artifact, error) {
	mod, err := wasmer.NewModule(store, code)
	if err != nil {
		return nil, fmt.Errorf("%w: compile: %v", ErrValidation, err)
	}

	allowed := v0AllowedImports
	if version == V1 {
		allowed = v1AllowedImports
	}

	seen := make(map[string]struct{})
	imports := make([]ImportEntry, 0, len(mod.Imports()))
	for _, imp := range mod.Imports() {
		key := imp.Module() + "." + imp.Name()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate import %s", ErrValidation, key)
		}
		seen[key] = struct{}{}

		spec, ok := allowed[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown import %s", ErrValidation, key)
		}
		ft := imp.Type().IntoFunctionType()
		if !functionTypeMatches(ft, spec.typ) {
			return nil, fmt.Errorf("%w: signature mismatch for import %s", ErrValidation, key)
		}
		imports = append(imports, ImportEntry{Tag: spec.tag, Typ: spec.typ})
	}

	art := &Artifact{Version: version, Module: mod, Code: code}
	for _, exp := range mod.Exports() {
		name := exp.Name()
		if err := validateExportName(name); err != nil {
			continue // exports with invalid names are skipped; "memory" passes and lands in OtherNames
		}
		isInit := strings.HasPrefix(name, "init_") && !strings.Contains(name, ".")
		isRecv := !isInit && strings.Count(name, ".") == 1
		switch {
		case isInit:
			if !entrySignatureOK(exp) {
				continue
			}
			art.InitNames = append(art.InitNames, name)
		case isRecv:
			if !entrySignatureOK(exp) {
				continue
			}
			art.RecvNames = append(art.RecvNames, name)
		default:
			art.OtherNames = append(art.OtherNames, name)
		}
	}
	art.Imports = imports
	art.Code = code
	return art, nil
}

func entrySignatureOK(exp *wasmer.ExportType) bool {
	fnType := exp.Type().IntoFunctionType()
	if fnType == nil {
		return false
	}
	params := fnType.Params()
	results := fnType.Results()
	return len(params) == 1 && params[0].Kind() == wasmer.I64 &&
		len(results) == 1 && results[0].Kind() == wasmer.I32
}

func functionTypeMatches(wft *wasmer.FunctionType, spec FunctionType) bool {
	if wft == nil {
		return len(spec.Params) == 0 && spec.Result == nil
	}
	params := wft.Params()
	if len(params) != len(spec.Params) {
		return false
	}
	for i, p := range params {
		if p.Kind() != spec.Params[i] {
			return false
		}
	}
	results := wft.Results()
	if spec.Result == nil {
		return len(results) == 0
	}
	return len(results) == 1 && results[0].Kind() == *spec.Result
}

// validateExportName enforces spec.md §4.7: ASCII alphanumeric or
// punctuation, at most MaxExportNameLen bytes.
func validateExportName(name string) error {
	if len(name) == 0 || len(name) > MaxExportNameLen {
		return fmt.Errorf("%w: export name length", ErrValidation)
	}
	for _, r := range name {
		if r > 0x7e || r <= 0x20 {
			return fmt.Errorf("%w: export name %q is not ASCII alphanumeric or punctuation", ErrValidation, name)
		}
	}
	return nil
}

// ContractAndEntrypoint splits a receive export name "contract.method"
// into its two parts. Callers must already know the name has exactly
// one '.', as validated during artifact construction.
func ContractAndEntrypoint(name string) (contract, entrypoint string) {
	i := strings.IndexByte(name, '.')
	return name[:i], name[i+1:]
}
