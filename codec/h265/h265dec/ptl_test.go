package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"testing"
)

func TestParseProfileTierLevelNoSubLayers(t *testing.T) {
	// 96 bits (12 bytes), profilePresentFlag=true, maxNumSubLayersMinus1=0.
	buf := []byte{
		0x41,                   // profile_space=1, tier_flag=0, profile_idc=1
		0x80, 0x00, 0x00, 0x00, // compatibility_flag[0]=1, rest 0
		0xA0, 0x00, // progressive=1, interlaced=0, non_packed=1, frame_only=0, +12 reserved
		0x00, 0x00, 0x00, 0x01, // 31 reserved bits + general_inbld_flag=1
		0x5A, // general_level_idc = 90
	}
	br := bits.NewReader(buf)
	p, err := ParseProfileTierLevel(br, true, 0)
	if err != nil {
		t.Fatalf("ParseProfileTierLevel: %v", err)
	}
	if p.GeneralProfileSpace != 1 {
		t.Errorf("GeneralProfileSpace = %d, want 1", p.GeneralProfileSpace)
	}
	if p.GeneralTierFlag {
		t.Error("GeneralTierFlag = true, want false")
	}
	if p.GeneralProfileIDC != 1 {
		t.Errorf("GeneralProfileIDC = %d, want 1", p.GeneralProfileIDC)
	}
	if !p.GeneralProfileCompatibilityFlag[0] {
		t.Error("GeneralProfileCompatibilityFlag[0] = false, want true")
	}
	for i := 1; i < 32; i++ {
		if p.GeneralProfileCompatibilityFlag[i] {
			t.Errorf("GeneralProfileCompatibilityFlag[%d] = true, want false", i)
		}
	}
	if !p.GeneralProgressiveSourceFlag {
		t.Error("GeneralProgressiveSourceFlag = false, want true")
	}
	if p.GeneralInterlacedSourceFlag {
		t.Error("GeneralInterlacedSourceFlag = true, want false")
	}
	if !p.GeneralNonPackedConstraintFlag {
		t.Error("GeneralNonPackedConstraintFlag = false, want true")
	}
	if p.GeneralFrameOnlyConstraintFlag {
		t.Error("GeneralFrameOnlyConstraintFlag = true, want false")
	}
	if p.GeneralLevelIDC != 90 {
		t.Errorf("GeneralLevelIDC = %d, want 90", p.GeneralLevelIDC)
	}
}

func TestParseProfileTierLevelWithoutProfilePresent(t *testing.T) {
	// profilePresentFlag=false skips straight to general_level_idc (8 bits).
	buf := []byte{0x20}
	br := bits.NewReader(buf)
	p, err := ParseProfileTierLevel(br, false, 0)
	if err != nil {
		t.Fatalf("ParseProfileTierLevel: %v", err)
	}
	if p.GeneralLevelIDC != 0x20 {
		t.Errorf("GeneralLevelIDC = %#x, want 0x20", p.GeneralLevelIDC)
	}
}

func TestParseProfileTierLevelShortRead(t *testing.T) {
	br := bits.NewReader([]byte{0x00})
	if _, err := ParseProfileTierLevel(br, true, 0); err == nil {
		t.Fatal("ParseProfileTierLevel on truncated buffer succeeded, want error")
	}
}
