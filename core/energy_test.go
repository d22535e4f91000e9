package core

import (
	"errors"
	"testing"
)

func TestEnergyMeterTickUnderflow(t *testing.T) {
	m := NewEnergyMeter(10)
	if err := m.Tick(4); err != nil {
		t.Fatalf("tick err: %v", err)
	}
	if m.Remaining() != 6 {
		t.Fatalf("remaining=%d want 6", m.Remaining())
	}
	if err := m.Tick(100); !errors.Is(err, ErrOutOfEnergy) {
		t.Fatalf("expected ErrOutOfEnergy, got %v", err)
	}
	if m.Remaining() != 0 {
		t.Fatalf("remaining after underflow=%d want 0", m.Remaining())
	}
}

func TestEnergyMeterChargeMemoryAlloc(t *testing.T) {
	m := NewEnergyMeter(5_000)
	if err := m.ChargeMemoryAlloc(2); err != nil {
		t.Fatalf("charge err: %v", err)
	}
	if m.Remaining() != 3_000 {
		t.Fatalf("remaining=%d want 3000", m.Remaining())
	}
}

func TestEnergyMeterChargeStack(t *testing.T) {
	m := NewEnergyMeter(100)
	if err := m.ChargeStack(30); err != nil {
		t.Fatalf("charge stack: %v", err)
	}
	if m.Remaining() != 70 {
		t.Fatalf("remaining=%d want 70", m.Remaining())
	}
}

func TestBaseEnergyCostKnownAndUnknownTags(t *testing.T) {
	if cost := BaseEnergyCost(V0, V0ChargeEnergy); cost != 0 {
		t.Fatalf("V0ChargeEnergy cost=%d want 0", cost)
	}
	if cost := BaseEnergyCost(V1, V1Invoke); cost == 0 {
		t.Fatalf("V1Invoke cost should be nonzero")
	}
	if cost := BaseEnergyCost(V1, ImportTag(200)); cost != defaultEnergyCost {
		t.Fatalf("unknown tag cost=%d want default %d", cost, defaultEnergyCost)
	}
}
