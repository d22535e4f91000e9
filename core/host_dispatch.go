package core

import (
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// HostContext bundles everything a host-call handler needs: guest
// linear memory, the energy meter, the emitted log buffer, and the
// version-specific state/context views. One HostContext is created per
// export call and threaded through every handler via closures built in
// buildImportObject, generalizing the teacher's hostCtx (core/virtual_
// machine.go registerHost) from a single flat-store binding to the
// richer v0/v1 state surfaces.
type HostContext struct {
	Memory *wasmer.Memory
	Energy *EnergyMeter
	Logs   []LogEntry

	Version StateVersion
	Common  HasCommon

	// v0 only
	State  []byte
	Action *ActionTree

	// v1 only
	Instance   *InstanceState
	Interrupt  *InterruptEngine
	ReceiveCtx *ReceiveContext
	InitCtx    *InitContext
	Output     []byte // bytes accumulated via write_output, returned as ReceiveResult.ReturnValue
}

func (h *HostContext) memBytes() []byte { return h.Memory.Data() }

// readMem copies length bytes starting at ptr out of guest memory,
// bounds-checked against the current memory size. Traps (via ErrTrap)
// rather than panicking on out-of-bounds access, since a guest
// supplying a bad pointer is expected, adversarial input, not a host bug.
func (h *HostContext) readMem(ptr, length uint32) ([]byte, error) {
	data := h.memBytes()
	end := uint64(ptr) + uint64(length)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: guest memory read [%d,%d) out of bounds (size %d)", ErrTrap, ptr, end, len(data))
	}
	out := make([]byte, length)
	copy(out, data[ptr:end])
	return out, nil
}

// writeMem copies src into guest memory starting at ptr, bounds-checked.
func (h *HostContext) writeMem(ptr uint32, src []byte) error {
	data := h.memBytes()
	end := uint64(ptr) + uint64(len(src))
	if end > uint64(len(data)) {
		return fmt.Errorf("%w: guest memory write [%d,%d) out of bounds (size %d)", ErrTrap, ptr, end, len(data))
	}
	copy(data[ptr:], src)
	return nil
}

// charge applies a host call's base energy cost before the handler
// runs any size-dependent accounting of its own.
func (h *HostContext) charge(tag ImportTag) error {
	return h.Energy.Tick(BaseEnergyCost(h.Version, tag))
}

func i32Val(v int32) wasmer.Value  { return wasmer.NewI32(v) }
func i64Val(v int64) wasmer.Value  { return wasmer.NewI64(v) }
func trapResult() ([]wasmer.Value, error) {
	return nil, ErrTrap
}

// handlerFunc implements one host call's semantics against a shared
// HostContext and the raw wasmer arguments, returning its wasmer return
// values.
type handlerFunc func(h *HostContext, args []wasmer.Value) ([]wasmer.Value, error)

// buildImportObject constructs the wasmer.ImportObject for an artifact,
// wiring each validated import to its Go handler via the version's
// handler table. Mirrors the teacher's registerHost (core/virtual_
// machine.go), generalized from a fixed four-function "env" namespace
// to the full, version-dependent allowed-imports table.
func buildImportObject(store *wasmer.Store, art *Artifact, h *HostContext, handlers map[ImportTag]handlerFunc) (*wasmer.ImportObject, error) {
	obj := wasmer.NewImportObject()
	byModule := make(map[string]map[string]wasmer.IntoExtern)

	for _, imp := range art.Module.Imports() {
		key := imp.Module() + "." + imp.Name()
		spec, ok := lookupSpec(art.Version, key)
		if !ok {
			return nil, fmt.Errorf("%w: import %s has no registered handler", ErrValidation, key)
		}
		fn, ok := handlers[spec.tag]
		if !ok {
			return nil, fmt.Errorf("%w: no handler implemented for tag %d", ErrValidation, spec.tag)
		}
		wft := wasmer.NewFunctionType(wasmer.NewValueTypes(spec.typ.Params...), resultTypes(spec.typ.Result))
		tag := spec.tag
		wrapped := wasmer.NewFunction(store, wft, func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.charge(tag); err != nil {
				return nil, err
			}
			return fn(h, args)
		})
		if byModule[imp.Module()] == nil {
			byModule[imp.Module()] = map[string]wasmer.IntoExtern{}
		}
		byModule[imp.Module()][imp.Name()] = wrapped
	}
	for mod, fns := range byModule {
		obj.Register(mod, fns)
	}
	return obj, nil
}

func resultTypes(k *wasmer.ValueKind) []wasmer.ValueKind {
	if k == nil {
		return wasmer.NewValueTypes()
	}
	return wasmer.NewValueTypes(*k)
}

func lookupSpec(version StateVersion, key string) (importSpec, bool) {
	table := v0AllowedImports
	if version == V1 {
		table = v1AllowedImports
	}
	spec, ok := table[key]
	return spec, ok
}
