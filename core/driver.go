package core

import (
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// Instance is a deployed contract: its compiled artifact, persistent
// state trie (v1) or flat state (v0), and account balance. Registry is
// what an invoke host call resolves a ContractAddress against.
type Instance struct {
	Address      ContractAddress
	ContractName string
	Owner        AccountAddress
	Artifact     *Artifact
	Trie         *StateTrie // v1
	State        []byte     // v0
	Balance      Amount
}

// Registry resolves contract addresses and accounts for nested invoke
// calls, and is where Invoke commits successful state changes.
// Generalizes the teacher's singleton ContractRegistry
// (core/contracts.go) from a flat map of deployed bytecode to a map of
// live Instances with balances, addressed the way spec.md's model
// requires.
type Registry struct {
	contracts map[ContractAddress]*Instance
	balances  map[AccountAddress]Amount
	nextIndex uint64
}

func NewRegistry() *Registry {
	return &Registry{
		contracts: make(map[ContractAddress]*Instance),
		balances:  make(map[AccountAddress]Amount),
	}
}

// Deploy registers a newly initialized instance under the next
// monotonically assigned contract index. contractName is the init
// export's suffix (init_<contractName>), used to resolve
// "<contractName>.<entrypoint>" receive exports for nested invoke calls.
func (r *Registry) Deploy(owner AccountAddress, contractName string, art *Artifact, state []byte, trie *StateTrie, balance Amount) ContractAddress {
	addr := ContractAddress{Index: r.nextIndex}
	r.nextIndex++
	r.contracts[addr] = &Instance{Address: addr, ContractName: contractName, Owner: owner, Artifact: art, State: state, Trie: trie, Balance: balance}
	return addr
}

func (r *Registry) Get(addr ContractAddress) (*Instance, bool) {
	inst, ok := r.contracts[addr]
	return inst, ok
}

func (r *Registry) AccountBalance(a AccountAddress) Amount { return r.balances[a] }

func (r *Registry) CreditAccount(a AccountAddress, amount Amount) { r.balances[a] += amount }

// Driver runs artifacts against the wasmer engine, wiring host imports
// and, for v1, running the cooperative interrupt loop for invoke calls.
// Grounds on the teacher's HeavyVM.Execute (core/virtual_machine.go),
// generalized from a single flat ledger binding to the full v0/v1 host
// surface described in SPEC_FULL.md.
type Driver struct {
	engine   *wasmer.Engine
	registry *Registry
}

func NewDriver(registry *Registry) *Driver {
	return &Driver{engine: wasmer.NewEngine(), registry: registry}
}

// Compile validates and compiles wasm bytes into an Artifact.
func (d *Driver) Compile(version StateVersion, code []byte) (*Artifact, error) {
	store := wasmer.NewStore(d.engine)
	return NewArtifact(store, version, code)
}

func (d *Driver) instantiate(art *Artifact, h *HostContext) (*wasmer.Instance, error) {
	store := wasmer.NewStore(d.engine)
	mod, err := wasmer.NewModule(store, art.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	handlers := v0Handlers
	if art.Version == V1 {
		handlers = v1Handlers
	}
	resolved := &Artifact{Version: art.Version, Module: mod, Code: art.Code}
	importObj, err := buildImportObject(store, resolved, h, handlers)
	if err != nil {
		return nil, err
	}
	instance, err := wasmer.NewInstance(mod, importObj)
	if err != nil {
		return nil, fmt.Errorf("%w: instantiate: %v", ErrTrap, err)
	}
	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, fmt.Errorf("%w: missing memory export", ErrValidation)
	}
	h.Memory = mem
	return instance, nil
}

// RunInit executes a contract's init_<name> export against a fresh
// instance state, returning the wire-ready InitResult. amount is the
// balance the new instance is credited with, passed to the export the
// same way a receive entrypoint sees its self-balance: as the single
// i64 argument.
func (d *Driver) RunInit(art *Artifact, exportName string, ctx *InitContext, amount Amount, limit uint64) InitResult {
	meter := NewEnergyMeter(limit)
	h := &HostContext{Version: art.Version, Common: ctx, InitCtx: ctx, Energy: meter}

	var trie *StateTrie
	if art.Version == V1 {
		trie = NewStateTrie(NewMemoryLoader())
		h.Instance = NewInstanceState(trie, 0)
	} else {
		h.State = []byte{}
		h.Action = &ActionTree{}
	}

	instance, err := d.instantiate(art, h)
	if err != nil {
		return failInit(meter, err)
	}
	fn, err := instance.Exports.GetFunction(exportName)
	if err != nil {
		return failInit(meter, err)
	}
	ret, callErr := fn(int64(amount))
	if callErr != nil {
		return failInit(meter, callErr)
	}
	if toI32(ret) < 0 {
		return InitResult{Success: false, RejectCode: toI32(ret), Remaining: meter.Remaining()}
	}

	var state []byte
	if art.Version == V1 {
		rootHash, err := trie.Freeze()
		if err != nil {
			return failInit(meter, err)
		}
		state = rootHash.Bytes()
	} else {
		state = h.State
	}
	return InitResult{Success: true, State: state, Logs: h.Logs, Remaining: meter.Remaining()}
}

// RunReceive executes a contract's <contract>.<entrypoint> export. For
// v1 artifacts whose guest issues invoke calls, the export runs on its
// own goroutine and suspends on an InterruptEngine each time it needs
// the driver to perform a nested call, transfer, or balance query; this
// loop is the resume side of that rendezvous (see interrupt.go).
func (d *Driver) RunReceive(art *Artifact, exportName string, ctx *ReceiveContext, inst *Instance, limit uint64) ReceiveResult {
	meter := NewEnergyMeter(limit)
	h := &HostContext{Version: art.Version, Common: ctx, ReceiveCtx: ctx, Energy: meter}

	var checkpoint Checkpoint
	if art.Version == V1 {
		h.Instance = NewInstanceState(inst.Trie, 0)
		h.Interrupt = NewInterruptEngine()
		checkpoint = inst.Trie.Checkpoint()
	} else {
		h.State = append([]byte(nil), inst.State...)
		h.Action = &ActionTree{}
	}

	instance, err := d.instantiate(art, h)
	if err != nil {
		return failReceive(meter, art.Version, err)
	}
	fn, err := instance.Exports.GetFunction(exportName)
	if err != nil {
		return failReceive(meter, art.Version, err)
	}

	if art.Version != V1 {
		ret, callErr := fn(int64(ctx.SelfBalance))
		if callErr != nil {
			return failReceive(meter, art.Version, callErr)
		}
		root, ok := h.Action.Root()
		if !ok {
			return ReceiveResult{Version: V0, Success: false, Remaining: meter.Remaining()}
		}
		if toI32(ret) < 0 {
			return ReceiveResult{Version: V0, Success: false, Remaining: meter.Remaining()}
		}
		return ReceiveResult{Version: V0, Success: true, ActionRoot: uint32(root), State: h.State, Logs: h.Logs, Remaining: meter.Remaining()}
	}

	type outcome struct {
		ret   interface{}
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		ret, callErr := fn(int64(ctx.SelfBalance))
		h.Interrupt.Close()
		done <- outcome{ret, callErr}
	}()

	reqCh := waitRequest(h.Interrupt)
	for {
		select {
		case req, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			suspended := inst.Trie.Checkpoint()
			resp := d.service(req, checkpoint)
			if !resp.Success {
				inst.Trie.Restore(suspended)
			}
			// The callee may have mutated trie structure the caller's
			// own entry/iterator handles pointed into, so every handle
			// minted before this interrupt is invalidated before the
			// guest resumes (spec.md §4.6, Testable Property #7).
			h.Instance.NextGeneration()
			h.Interrupt.Resume(resp)
			reqCh = waitRequest(h.Interrupt)
		case out := <-done:
			if out.err != nil {
				inst.Trie.Restore(checkpoint)
				return failReceive(meter, art.Version, out.err)
			}
			if toI32(out.ret) < 0 {
				inst.Trie.Restore(checkpoint)
				return ReceiveResult{Version: V1, Success: false, RejectCode: toI32(out.ret), Logs: h.Logs, Remaining: meter.Remaining()}
			}
			rootHash, err := inst.Trie.Freeze()
			if err != nil {
				return failReceive(meter, art.Version, err)
			}
			return ReceiveResult{Version: V1, Success: true, State: rootHash.Bytes(), ReturnValue: h.Output, Logs: h.Logs, Remaining: meter.Remaining()}
		}
	}
}

// waitRequest adapts InterruptEngine.Next (a blocking call) into
// something usable inside a select by running it on its own goroutine.
// This costs one extra goroutine per iteration but keeps the driver
// loop's control flow a plain select over "request arrived" vs "export
// call finished", rather than hand-rolling that mux inside
// InterruptEngine itself.
func waitRequest(e *InterruptEngine) <-chan InvokeRequest {
	ch := make(chan InvokeRequest, 1)
	go func() {
		req, ok := e.Next()
		if ok {
			ch <- req
		}
	}()
	return ch
}

// service performs one suspended invoke request against the registry:
// a nested call re-enters RunReceive on the callee, a transfer credits
// an account, and a balance query just reads state. service itself rolls
// nothing back; when the response is a failure, RunReceive restores the
// caller's trie to the checkpoint it took when the request arrived.
func (d *Driver) service(req InvokeRequest, checkpoint Checkpoint) InvokeResponse {
	switch req.Kind {
	case InvokeTransfer:
		d.registry.CreditAccount(req.ToAccount, req.Amount)
		return InvokeResponse{CorrelationID: req.CorrelationID, Success: true}
	case InvokeCall:
		callee, ok := d.registry.Get(req.To)
		if !ok {
			return InvokeResponse{CorrelationID: req.CorrelationID, Success: false, Err: fmt.Errorf("%w: unknown contract %s", ErrTrap, req.To)}
		}
		exportName := callee.ContractName + "." + req.Entrypoint
		calleeCtx := &ReceiveContext{
			Param:       req.Parameter,
			SelfAddress: callee.Address,
			SelfBalance: callee.Balance,
			Owner:       callee.Owner,
		}
		result := d.RunReceive(callee.Artifact, exportName, calleeCtx, callee, 1_000_000)
		if !result.Success || result.Trap {
			return InvokeResponse{CorrelationID: req.CorrelationID, Success: false}
		}
		return InvokeResponse{CorrelationID: req.CorrelationID, Success: true}
	default:
		callee, ok := d.registry.Get(req.To)
		if !ok {
			return InvokeResponse{CorrelationID: req.CorrelationID, Success: false}
		}
		return InvokeResponse{CorrelationID: req.CorrelationID, Success: true, NewBalance: callee.Balance}
	}
}

func toI32(v interface{}) int32 {
	switch x := v.(type) {
	case int32:
		return x
	case int64:
		return int32(x)
	default:
		return 0
	}
}

func failInit(meter *EnergyMeter, err error) InitResult {
	if meter.Remaining() == 0 {
		return InitResult{OutOfEnergy: true}
	}
	return InitResult{Success: false, Remaining: meter.Remaining()}
}

func failReceive(meter *EnergyMeter, version StateVersion, err error) ReceiveResult {
	if meter.Remaining() == 0 {
		return ReceiveResult{Version: version, OutOfEnergy: true}
	}
	return ReceiveResult{Version: version, Trap: true, Remaining: meter.Remaining()}
}
