package core

// EnergyMeter tracks the deterministic execution-and-storage budget
// consumed by guest instructions and host calls. It generalizes the
// teacher's core.GasMeter (core/virtual_machine.go), which tracked
// used/limit against a fixed Opcode cost table; here the budget is a
// plain countdown so nested views (one per invocation on the call
// stack) can share the same remaining counter by holding a pointer to
// the same EnergyMeter.
type EnergyMeter struct {
	remaining uint64
}

// energyPerPage is the fixed conversion factor from linear-memory pages
// to energy, used by ChargeMemoryAlloc. Calibration input, not a
// specified constant (spec.md §9 "open questions").
const energyPerPage uint64 = 1_000

// NewEnergyMeter constructs a meter with the given initial budget.
func NewEnergyMeter(limit uint64) *EnergyMeter {
	return &EnergyMeter{remaining: limit}
}

// Remaining returns the energy left in the budget.
func (m *EnergyMeter) Remaining() uint64 { return m.remaining }

// charge is the shared underflow-checked subtraction all charging
// methods funnel through: if remaining >= cost, subtract and succeed;
// otherwise zero the remaining and fail terminally.
func (m *EnergyMeter) charge(cost uint64) error {
	if m.remaining >= cost {
		m.remaining -= cost
		return nil
	}
	m.remaining = 0
	return ErrOutOfEnergy
}

// Tick charges n units of energy for guest-instruction execution
// (metering-injection accounting; the injection pass itself is an
// external collaborator, this just applies its output).
func (m *EnergyMeter) Tick(n uint64) error { return m.charge(n) }

// ChargeStack charges for additional call-stack usage.
func (m *EnergyMeter) ChargeStack(n uint64) error { return m.charge(n) }

// ChargeMemoryAlloc charges for growing linear memory by the given
// number of 64KiB pages.
func (m *EnergyMeter) ChargeMemoryAlloc(pages uint32) error {
	return m.charge(uint64(pages) * energyPerPage)
}
