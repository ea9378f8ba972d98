package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/rbsp"
)

// VPS is video_parameter_set_rbsp(), section 7.3.2.1. Per-layer HRD
// parameters (vps_extension) are not parsed: this module targets the base
// (non-scalable, non-multiview) layer per the Non-goals in section 1.
type VPS struct {
	ID                       int
	BaseLayerInternalFlag    bool
	BaseLayerAvailableFlag   bool
	MaxLayersMinus1          int
	MaxSubLayersMinus1       int
	TemporalIDNestingFlag    bool
	PTL                      *ProfileTierLevel
	SubLayerOrderingInfoPresentFlag bool
	MaxDecPicBuffering       [8]int
	MaxNumReorderPics        [8]int
	MaxLatencyIncreasePlus1  [8]int
}

// ParseVPS parses a VPS from ebsp (post NAL-header payload already stripped
// of emulation prevention bytes by NewNALUnit). Validates vps_id <= 15 per
// section 3 of the core design.
func ParseVPS(rbspBytes []byte) (*VPS, error) {
	br := bits.NewReader(rbspBytes)
	v := &VPS{}

	id, err := br.ReadBits(4)
	if err != nil {
		return nil, errs.Field(err, "vps_video_parameter_set_id")
	}
	v.ID = int(id)
	if v.ID > 15 {
		return nil, errs.Newf(errs.KindOutOfRange, "vps_video_parameter_set_id %d exceeds 15", v.ID)
	}

	b, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "vps_base_layer_internal_flag")
	}
	v.BaseLayerInternalFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "vps_base_layer_available_flag")
	}
	v.BaseLayerAvailableFlag = b == 1

	n, err := br.ReadBits(6)
	if err != nil {
		return nil, errs.Field(err, "vps_max_layers_minus1")
	}
	v.MaxLayersMinus1 = int(n)
	n, err = br.ReadBits(3)
	if err != nil {
		return nil, errs.Field(err, "vps_max_sub_layers_minus1")
	}
	v.MaxSubLayersMinus1 = int(n)

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "vps_temporal_id_nesting_flag")
	}
	v.TemporalIDNestingFlag = b == 1

	if err := br.Skip(16); err != nil { // vps_reserved_0xffff_16bits
		return nil, errs.Field(err, "vps_reserved_0xffff_16bits")
	}

	v.PTL, err = ParseProfileTierLevel(br, true, v.MaxSubLayersMinus1)
	if err != nil {
		return nil, errs.Wrap(err, "profile_tier_level")
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "vps_sub_layer_ordering_info_present_flag")
	}
	v.SubLayerOrderingInfoPresentFlag = b == 1

	start := 0
	if !v.SubLayerOrderingInfoPresentFlag {
		start = v.MaxSubLayersMinus1
	}
	for i := start; i <= v.MaxSubLayersMinus1; i++ {
		dpb, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "vps_max_dec_pic_buffering_minus1")
		}
		reorder, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "vps_max_num_reorder_pics")
		}
		latency, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "vps_max_latency_increase_plus1")
		}
		v.MaxDecPicBuffering[i] = int(dpb) + 1
		v.MaxNumReorderPics[i] = int(reorder)
		v.MaxLatencyIncreasePlus1[i] = int(latency)
	}
	if !v.SubLayerOrderingInfoPresentFlag {
		for i := 0; i < start; i++ {
			v.MaxDecPicBuffering[i] = v.MaxDecPicBuffering[start]
			v.MaxNumReorderPics[i] = v.MaxNumReorderPics[start]
			v.MaxLatencyIncreasePlus1[i] = v.MaxLatencyIncreasePlus1[start]
		}
	}

	// vps_max_layer_id, vps_num_layer_sets_minus1, layer_id_included_flag,
	// timing_info, vps_extension etc. describe HRD and layer-set detail out
	// of scope for the base-layer profile this module targets; parsing stops
	// here, matching the scope boundary drawn in section 1 for scalable/MVC
	// extensions.
	return v, nil
}
