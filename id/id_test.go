package id

import (
	"errors"
	"testing"

	"github.com/umi-eng/saelient/internal/testutil/testlog"
)

func TestProprietaryIdentifier(t *testing.T) {
	testlog.Start(t)
	// Identifier taken from a DBC file; the CAN_EFF_FLAG bit is masked off.
	i := New(2565821696)

	if i.SourceAddress() != 0x00 {
		t.Fatalf("source address: %#x", i.SourceAddress())
	}
	da, ok := i.DestinationAddress()
	if !ok || da != 0x55 {
		t.Fatalf("destination address: %#x ok=%v", da, ok)
	}
	if i.PGN() != ProprietaryA {
		t.Fatalf("pgn: %d", i.PGN())
	}
	if i.PF() != 0xEF || i.PF().PDU2() {
		t.Fatalf("pdu format: %#x", i.PF())
	}
	if i.Priority() != 6 {
		t.Fatalf("priority: %d", i.Priority())
	}
	if _, ok := i.GroupExtension(); ok {
		t.Fatalf("pdu1 identifier has no group extension")
	}
}

func TestBuilder(t *testing.T) {
	testlog.Start(t)
	i, err := NewBuilder().
		Source(0x00).
		Destination(0x55).
		PGN(ProprietaryA).
		Priority(6).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if i != New(2565821696) {
		t.Fatalf("identifier mismatch: %#x", i.Raw())
	}
}

func TestBuilderDefaultsPriority(t *testing.T) {
	testlog.Start(t)
	i, err := NewBuilder().Source(0x10).Destination(0x20).PGN(ProprietaryA).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if i.Priority() != 6 {
		t.Fatalf("priority: %d", i.Priority())
	}
}

func TestBuilderValidation(t *testing.T) {
	testlog.Start(t)
	if _, err := NewBuilder().Source(1).Build(); !errors.Is(err, ErrMissingPGN) {
		t.Fatalf("expected ErrMissingPGN, got %v", err)
	}
	if _, err := NewBuilder().PGN(ProprietaryA).Build(); !errors.Is(err, ErrMissingSource) {
		t.Fatalf("expected ErrMissingSource, got %v", err)
	}
	if _, err := NewBuilder().PGN(ProprietaryA).Source(1).Build(); !errors.Is(err, ErrMissingDestination) {
		t.Fatalf("expected ErrMissingDestination, got %v", err)
	}
	if _, err := NewBuilder().PGN(ProprietaryA).Source(1).Destination(2).Priority(8).Build(); !errors.Is(err, ErrPriorityRange) {
		t.Fatalf("expected ErrPriorityRange, got %v", err)
	}
}

func TestPDU2Identifier(t *testing.T) {
	testlog.Start(t)
	pgn := ProprietaryBBase | 0x12
	i, err := NewBuilder().Source(0x80).PGN(pgn).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ge, ok := i.GroupExtension()
	if !ok || ge != 0x12 {
		t.Fatalf("group extension: %#x ok=%v", ge, ok)
	}
	if _, ok := i.DestinationAddress(); ok {
		t.Fatalf("pdu2 identifier has no destination address")
	}
	if i.PGN() != pgn {
		t.Fatalf("pgn round-trip: got %d want %d", i.PGN(), pgn)
	}
}

func TestPGNFormat(t *testing.T) {
	testlog.Start(t)
	if ProprietaryA.PF() != 239 || ProprietaryA.PF().PDU2() {
		t.Fatalf("proprietary A: %#x", ProprietaryA.PF())
	}
	if ProprietaryBBase.PF() != 255 || !ProprietaryBBase.PF().PDU2() {
		t.Fatalf("proprietary B: %#x", ProprietaryBBase.PF())
	}
}

func TestNewPGNMasksToWireWidth(t *testing.T) {
	testlog.Start(t)
	if got := NewPGN(0xFFFFFFFF); got != PGN(0xFFFFFF) {
		t.Fatalf("mask: %#x", uint32(got))
	}
}
