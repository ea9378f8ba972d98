package h265dec

import (
	"testing"

	"github.com/ausocean/vidcore/errs"
)

func TestNewNALUnitParsesHeader(t *testing.T) {
	// forbidden_zero_bit=0, nal_unit_type=33 (SPS, 100001), layer_id=0,
	// temporal_id_plus1=1.
	// byte0: 0 100001 0 -> 01000010 = 0x42
	// byte1: 00000 001 -> 0x01
	ebsp := []byte{0x42, 0x01, 0xAA, 0xBB}
	n, err := NewNALUnit(ebsp)
	if err != nil {
		t.Fatalf("NewNALUnit: %v", err)
	}
	if n.Type != NALSPS {
		t.Errorf("Type = %d, want %d", n.Type, NALSPS)
	}
	if n.LayerID != 0 {
		t.Errorf("LayerID = %d, want 0", n.LayerID)
	}
	if n.TemporalIDPlus1 != 1 {
		t.Errorf("TemporalIDPlus1 = %d, want 1", n.TemporalIDPlus1)
	}
	if len(n.RBSP) != 2 || n.RBSP[0] != 0xAA || n.RBSP[1] != 0xBB {
		t.Errorf("RBSP = %v, want [0xAA 0xBB]", n.RBSP)
	}
	if n.EPBCount != 0 {
		t.Errorf("EPBCount = %d, want 0", n.EPBCount)
	}
}

func TestNewNALUnitStripsEmulationPreventionByte(t *testing.T) {
	ebsp := []byte{0x42, 0x01, 0x00, 0x00, 0x03, 0x01}
	n, err := NewNALUnit(ebsp)
	if err != nil {
		t.Fatalf("NewNALUnit: %v", err)
	}
	want := []byte{0x00, 0x00, 0x01}
	if len(n.RBSP) != len(want) {
		t.Fatalf("RBSP = %v, want %v", n.RBSP, want)
	}
	for i := range want {
		if n.RBSP[i] != want[i] {
			t.Errorf("RBSP[%d] = %#x, want %#x", i, n.RBSP[i], want[i])
		}
	}
	if n.EPBCount != 1 {
		t.Errorf("EPBCount = %d, want 1", n.EPBCount)
	}
}

func TestNewNALUnitShortRead(t *testing.T) {
	_, err := NewNALUnit([]byte{0x42})
	if !errs.Is(err, errs.KindShortRead) {
		t.Fatalf("NewNALUnit on 1-byte input = %v, want KindShortRead", err)
	}
}

func TestIsIRAPAndIsIDR(t *testing.T) {
	if !IsIRAP(NALIdrWRadl) {
		t.Error("IsIRAP(NALIdrWRadl) = false, want true")
	}
	if IsIRAP(NALTrailR) {
		t.Error("IsIRAP(NALTrailR) = true, want false")
	}
	if !IsIDR(NALIdrNLp) {
		t.Error("IsIDR(NALIdrNLp) = false, want true")
	}
	if IsIDR(NALCraNut) {
		t.Error("IsIDR(NALCraNut) = true, want false")
	}
}

func TestIsSlice(t *testing.T) {
	if !IsSlice(NALTrailN) {
		t.Error("IsSlice(NALTrailN) = false, want true")
	}
	if IsSlice(NALVPS) {
		t.Error("IsSlice(NALVPS) = true, want false")
	}
}
