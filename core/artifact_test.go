package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/wasmerio/wasmer-go/wasmer"
)

func TestNewArtifactAcceptsValidCounterFixture(t *testing.T) {
	wasm := compileFixture(t, "counter.wat")
	store := wasmer.NewStore(wasmer.NewEngine())

	art, err := NewArtifact(store, V0, wasm)
	if err != nil {
		t.Fatalf("new artifact: %v", err)
	}
	if len(art.InitNames) != 1 || art.InitNames[0] != "init_counter" {
		t.Fatalf("init names=%v", art.InitNames)
	}
	if len(art.RecvNames) != 1 || art.RecvNames[0] != "counter.increment" {
		t.Fatalf("recv names=%v", art.RecvNames)
	}
}

func TestValidateExportNameRejectsTooLongAndNonAscii(t *testing.T) {
	if err := validateExportName(""); err == nil {
		t.Fatalf("expected error for empty name")
	}
	long := strings.Repeat("a", MaxExportNameLen+1)
	if err := validateExportName(long); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for over-long name, got %v", err)
	}
	if err := validateExportName("bad\x01name"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for non-printable name, got %v", err)
	}
	if err := validateExportName("init_ok"); err != nil {
		t.Fatalf("expected valid name to pass, got %v", err)
	}
}

func TestContractAndEntrypointSplit(t *testing.T) {
	contract, entrypoint := ContractAndEntrypoint("counter.increment")
	if contract != "counter" || entrypoint != "increment" {
		t.Fatalf("got contract=%q entrypoint=%q", contract, entrypoint)
	}
}

func TestFunctionTypeEqual(t *testing.T) {
	a := ft(resultOf(i32()), i32(), i64())
	b := ft(resultOf(i32()), i32(), i64())
	if !a.equal(b) {
		t.Fatalf("expected identical signatures to compare equal")
	}
	c := ft(nil, i32(), i64())
	if a.equal(c) {
		t.Fatalf("expected differing result presence to compare unequal")
	}
	d := ft(resultOf(i32()), i64(), i32())
	if a.equal(d) {
		t.Fatalf("expected differing param order to compare unequal")
	}
}

func TestBuildSpecsKeysOnModuleAndName(t *testing.T) {
	specs := buildSpecs([]importSpec{
		{concordiumModule, "accept", V0Accept, ft(resultOf(i32()))},
	})
	spec, ok := specs["concordium.accept"]
	if !ok {
		t.Fatalf("expected spec keyed by module.name")
	}
	if spec.tag != V0Accept {
		t.Fatalf("unexpected tag %v", spec.tag)
	}
}
