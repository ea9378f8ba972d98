package h265dec

import (
	"testing"

	"github.com/ausocean/vidcore/errs"
)

// buildMinimalVPSRBSP builds vps_video_parameter_set_rbsp() with
// vps_max_sub_layers_minus1=0 and vps_sub_layer_ordering_info_present_flag=1,
// so exactly one ordering-info triplet follows profile_tier_level, each
// coded as ue(v) zero (single bit 1).
func buildMinimalVPSRBSP() []byte {
	// vps_video_parameter_set_id(4)=0, base_layer_internal_flag(1)=1,
	// base_layer_available_flag(1)=1, max_layers_minus1(6)=0 -> first byte
	// plus 2 bits of next: 0000 1 1 000000 -> split across bytes.
	bitsOut := []bool{}
	push := func(v uint32, n int) {
		for i := n - 1; i >= 0; i-- {
			bitsOut = append(bitsOut, (v>>uint(i))&1 == 1)
		}
	}
	push(0, 4)  // vps_video_parameter_set_id
	push(1, 1)  // vps_base_layer_internal_flag
	push(1, 1)  // vps_base_layer_available_flag
	push(0, 6)  // vps_max_layers_minus1
	push(0, 3)  // vps_max_sub_layers_minus1
	push(0, 1)  // vps_temporal_id_nesting_flag
	push(0xFFFF, 16) // vps_reserved_0xffff_16bits

	// profile_tier_level(1, 0): profilePresentFlag always forced true in
	// ParseVPS's call, maxNumSubLayersMinus1=0, so 96 bits with no sub-layer
	// loop body.
	push(0, 2) // general_profile_space
	push(0, 1) // general_tier_flag
	push(1, 5) // general_profile_idc
	for i := 0; i < 32; i++ {
		push(0, 1) // general_profile_compatibility_flag
	}
	push(0, 1) // progressive_source_flag
	push(0, 1) // interlaced_source_flag
	push(0, 1) // non_packed_constraint_flag
	push(0, 1) // frame_only_constraint_flag
	push(0, 12)
	push(0, 31)
	push(0, 1) // general_inbld_flag
	push(30, 8) // general_level_idc

	push(1, 1) // vps_sub_layer_ordering_info_present_flag
	// vps_max_dec_pic_buffering_minus1, vps_max_num_reorder_pics,
	// vps_max_latency_increase_plus1, each ue(v)=0 encoded as a single 1 bit.
	push(1, 1)
	push(1, 1)
	push(1, 1)

	out := make([]byte, (len(bitsOut)+7)/8)
	for i, b := range bitsOut {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func TestParseVPSMinimal(t *testing.T) {
	rbspBytes := buildMinimalVPSRBSP()
	v, err := ParseVPS(rbspBytes)
	if err != nil {
		t.Fatalf("ParseVPS: %v", err)
	}
	if v.ID != 0 {
		t.Errorf("ID = %d, want 0", v.ID)
	}
	if !v.BaseLayerInternalFlag || !v.BaseLayerAvailableFlag {
		t.Errorf("BaseLayerInternalFlag/AvailableFlag = %v/%v, want true/true", v.BaseLayerInternalFlag, v.BaseLayerAvailableFlag)
	}
	if v.MaxSubLayersMinus1 != 0 {
		t.Errorf("MaxSubLayersMinus1 = %d, want 0", v.MaxSubLayersMinus1)
	}
	if v.PTL == nil {
		t.Fatal("PTL = nil")
	}
	if v.PTL.GeneralProfileIDC != 1 {
		t.Errorf("PTL.GeneralProfileIDC = %d, want 1", v.PTL.GeneralProfileIDC)
	}
	if v.PTL.GeneralLevelIDC != 30 {
		t.Errorf("PTL.GeneralLevelIDC = %d, want 30", v.PTL.GeneralLevelIDC)
	}
	if !v.SubLayerOrderingInfoPresentFlag {
		t.Error("SubLayerOrderingInfoPresentFlag = false, want true")
	}
	if v.MaxDecPicBuffering[0] != 1 {
		t.Errorf("MaxDecPicBuffering[0] = %d, want 1", v.MaxDecPicBuffering[0])
	}
	if v.MaxNumReorderPics[0] != 0 {
		t.Errorf("MaxNumReorderPics[0] = %d, want 0", v.MaxNumReorderPics[0])
	}
}

func TestParseVPSShortRead(t *testing.T) {
	_, err := ParseVPS([]byte{0x0F})
	if !errs.Is(err, errs.KindShortRead) {
		t.Fatalf("ParseVPS on truncated buffer = %v, want KindShortRead", err)
	}
}
