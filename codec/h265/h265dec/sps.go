package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/rbsp"
)

// subWidthC and subHeightC give the chroma sub-sampling ratios keyed by
// chroma_format_idc (0: monochrome, 1: 4:2:0, 2: 4:2:2, 3: 4:4:4), used to
// derive the conformance-window crop amounts in luma samples, per Table 6-1.
var subWidthC = [4]int{1, 2, 2, 1}
var subHeightC = [4]int{1, 2, 1, 1}

// SPS is seq_parameter_set_rbsp(), section 7.3.2.2.
type SPS struct {
	VPSID                  int
	MaxSubLayersMinus1     int
	TemporalIDNestingFlag  bool
	PTL                    *ProfileTierLevel
	ID                     int

	ChromaFormatIDC        int
	SeparateColourPlaneFlag bool
	ChromaArrayType        int

	PicWidthInLumaSamples  int
	PicHeightInLumaSamples int
	ConformanceWindowFlag  bool
	ConfWinLeftOffset      int
	ConfWinRightOffset     int
	ConfWinTopOffset       int
	ConfWinBottomOffset    int
	CroppedWidth           int
	CroppedHeight          int

	BitDepthLumaMinus8     int
	BitDepthChromaMinus8   int
	Log2MaxPicOrderCntLsbMinus4 int

	SubLayerOrderingInfoPresentFlag bool
	MaxDecPicBuffering     [8]int
	MaxNumReorderPics      [8]int
	MaxLatencyIncreasePlus1 [8]int

	Log2MinLumaCodingBlockSizeMinus3   int
	Log2DiffMaxMinLumaCodingBlockSize  int
	Log2MinLumaTransformBlockSizeMinus2 int
	Log2DiffMaxMinLumaTransformBlockSize int
	MaxTransformHierarchyDepthInter    int
	MaxTransformHierarchyDepthIntra    int

	MinCbLog2SizeY int
	CtbLog2SizeY   int
	PicWidthInCtbsY  int
	PicHeightInCtbsY int
	PicSizeInCtbsY   int

	ScalingListEnabledFlag bool
	ScalingList            *ScalingListData

	AMPEnabledFlag             bool
	SampleAdaptiveOffsetEnabledFlag bool
	PCMEnabledFlag             bool
	PCMSampleBitDepthLuma      int
	PCMSampleBitDepthChroma    int
	Log2MinPCMLumaCodingBlockSizeMinus3 int
	Log2DiffMaxMinPCMLumaCodingBlockSize int
	PCMLoopFilterDisabledFlag  bool

	NumShortTermRefPicSets int
	ShortTermRPS           []*ShortTermRPS

	LongTermRefPicsPresentFlag bool
	NumLongTermRefPicsSPS      int
	LTRefPicPocLsbSPS          []int
	UsedByCurrPicLtSPSFlag     []bool

	TemporalMVPEnabledFlag     bool
	StrongIntraSmoothingEnabledFlag bool
}

// ParseSPS parses an SPS from its RBSP payload.
func ParseSPS(rbspBytes []byte) (*SPS, error) {
	br := bits.NewReader(rbspBytes)
	s := &SPS{}

	v, err := br.ReadBits(4)
	if err != nil {
		return nil, errs.Field(err, "sps_video_parameter_set_id")
	}
	s.VPSID = int(v)

	v, err = br.ReadBits(3)
	if err != nil {
		return nil, errs.Field(err, "sps_max_sub_layers_minus1")
	}
	s.MaxSubLayersMinus1 = int(v)

	v, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "sps_temporal_id_nesting_flag")
	}
	s.TemporalIDNestingFlag = v == 1

	s.PTL, err = ParseProfileTierLevel(br, true, s.MaxSubLayersMinus1)
	if err != nil {
		return nil, errs.Wrap(err, "profile_tier_level")
	}

	id, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "sps_seq_parameter_set_id")
	}
	s.ID = int(id)
	if s.ID > 15 {
		return nil, errs.Newf(errs.KindOutOfRange, "sps_seq_parameter_set_id %d exceeds 15", s.ID)
	}

	cfi, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "chroma_format_idc")
	}
	s.ChromaFormatIDC = int(cfi)
	if s.ChromaFormatIDC == 3 {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "separate_colour_plane_flag")
		}
		s.SeparateColourPlaneFlag = b == 1
	}
	if s.SeparateColourPlaneFlag {
		s.ChromaArrayType = 0
	} else {
		s.ChromaArrayType = s.ChromaFormatIDC
	}

	w, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "pic_width_in_luma_samples")
	}
	s.PicWidthInLumaSamples = int(w)
	h, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "pic_height_in_luma_samples")
	}
	s.PicHeightInLumaSamples = int(h)

	b, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "conformance_window_flag")
	}
	s.ConformanceWindowFlag = b == 1
	s.CroppedWidth = s.PicWidthInLumaSamples
	s.CroppedHeight = s.PicHeightInLumaSamples
	if s.ConformanceWindowFlag {
		left, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "conf_win_left_offset")
		}
		right, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "conf_win_right_offset")
		}
		top, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "conf_win_top_offset")
		}
		bottom, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "conf_win_bottom_offset")
		}
		s.ConfWinLeftOffset = int(left)
		s.ConfWinRightOffset = int(right)
		s.ConfWinTopOffset = int(top)
		s.ConfWinBottomOffset = int(bottom)

		swc := subWidthC[s.ChromaFormatIDC]
		shc := subHeightC[s.ChromaFormatIDC]
		s.CroppedWidth -= swc * (s.ConfWinLeftOffset + s.ConfWinRightOffset)
		s.CroppedHeight -= shc * (s.ConfWinTopOffset + s.ConfWinBottomOffset)
	}

	bdl, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "bit_depth_luma_minus8")
	}
	s.BitDepthLumaMinus8 = int(bdl)
	bdc, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "bit_depth_chroma_minus8")
	}
	s.BitDepthChromaMinus8 = int(bdc)

	lsb, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "log2_max_pic_order_cnt_lsb_minus4")
	}
	s.Log2MaxPicOrderCntLsbMinus4 = int(lsb)

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "sps_sub_layer_ordering_info_present_flag")
	}
	s.SubLayerOrderingInfoPresentFlag = b == 1
	start := 0
	if !s.SubLayerOrderingInfoPresentFlag {
		start = s.MaxSubLayersMinus1
	}
	for i := start; i <= s.MaxSubLayersMinus1; i++ {
		dpb, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "sps_max_dec_pic_buffering_minus1")
		}
		reorder, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "sps_max_num_reorder_pics")
		}
		latency, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "sps_max_latency_increase_plus1")
		}
		s.MaxDecPicBuffering[i] = int(dpb) + 1
		s.MaxNumReorderPics[i] = int(reorder)
		s.MaxLatencyIncreasePlus1[i] = int(latency)
	}
	if !s.SubLayerOrderingInfoPresentFlag {
		for i := 0; i < start; i++ {
			s.MaxDecPicBuffering[i] = s.MaxDecPicBuffering[start]
			s.MaxNumReorderPics[i] = s.MaxNumReorderPics[start]
			s.MaxLatencyIncreasePlus1[i] = s.MaxLatencyIncreasePlus1[start]
		}
	}

	minCb, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "log2_min_luma_coding_block_size_minus3")
	}
	s.Log2MinLumaCodingBlockSizeMinus3 = int(minCb)
	diffCb, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "log2_diff_max_min_luma_coding_block_size")
	}
	s.Log2DiffMaxMinLumaCodingBlockSize = int(diffCb)
	minTb, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "log2_min_luma_transform_block_size_minus2")
	}
	s.Log2MinLumaTransformBlockSizeMinus2 = int(minTb)
	diffTb, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "log2_diff_max_min_luma_transform_block_size")
	}
	s.Log2DiffMaxMinLumaTransformBlockSize = int(diffTb)
	interDepth, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "max_transform_hierarchy_depth_inter")
	}
	s.MaxTransformHierarchyDepthInter = int(interDepth)
	intraDepth, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "max_transform_hierarchy_depth_intra")
	}
	s.MaxTransformHierarchyDepthIntra = int(intraDepth)

	s.MinCbLog2SizeY = s.Log2MinLumaCodingBlockSizeMinus3 + 3
	s.CtbLog2SizeY = s.MinCbLog2SizeY + s.Log2DiffMaxMinLumaCodingBlockSize
	ctbSize := 1 << uint(s.CtbLog2SizeY)
	s.PicWidthInCtbsY = ceilDiv(s.PicWidthInLumaSamples, ctbSize)
	s.PicHeightInCtbsY = ceilDiv(s.PicHeightInLumaSamples, ctbSize)
	s.PicSizeInCtbsY = s.PicWidthInCtbsY * s.PicHeightInCtbsY

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "scaling_list_enabled_flag")
	}
	s.ScalingListEnabledFlag = b == 1
	if s.ScalingListEnabledFlag {
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "sps_scaling_list_data_present_flag")
		}
		if b == 1 {
			s.ScalingList, err = ParseScalingListData(br)
			if err != nil {
				return nil, errs.Wrap(err, "scaling_list_data")
			}
		} else {
			s.ScalingList = DefaultScalingListData()
		}
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "amp_enabled_flag")
	}
	s.AMPEnabledFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "sample_adaptive_offset_enabled_flag")
	}
	s.SampleAdaptiveOffsetEnabledFlag = b == 1

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "pcm_enabled_flag")
	}
	s.PCMEnabledFlag = b == 1
	if s.PCMEnabledFlag {
		v, err := br.ReadBits(4)
		if err != nil {
			return nil, errs.Field(err, "pcm_sample_bit_depth_luma_minus1")
		}
		s.PCMSampleBitDepthLuma = int(v) + 1
		v, err = br.ReadBits(4)
		if err != nil {
			return nil, errs.Field(err, "pcm_sample_bit_depth_chroma_minus1")
		}
		s.PCMSampleBitDepthChroma = int(v) + 1
		minPcm, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "log2_min_pcm_luma_coding_block_size_minus3")
		}
		s.Log2MinPCMLumaCodingBlockSizeMinus3 = int(minPcm)
		diffPcm, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "log2_diff_max_min_pcm_luma_coding_block_size")
		}
		s.Log2DiffMaxMinPCMLumaCodingBlockSize = int(diffPcm)
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "pcm_loop_filter_disabled_flag")
		}
		s.PCMLoopFilterDisabledFlag = b == 1
	}

	numRPS, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "num_short_term_ref_pic_sets")
	}
	s.NumShortTermRefPicSets = int(numRPS)
	s.ShortTermRPS = make([]*ShortTermRPS, s.NumShortTermRefPicSets)
	for i := 0; i < s.NumShortTermRefPicSets; i++ {
		rps, err := ParseShortTermRPS(br, i, s.ShortTermRPS, s.NumShortTermRefPicSets)
		if err != nil {
			return nil, errs.Wrapf(err, "short_term_ref_pic_set(%d)", i)
		}
		s.ShortTermRPS[i] = rps
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "long_term_ref_pics_present_flag")
	}
	s.LongTermRefPicsPresentFlag = b == 1
	if s.LongTermRefPicsPresentFlag {
		numLT, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "num_long_term_ref_pics_sps")
		}
		s.NumLongTermRefPicsSPS = int(numLT)
		s.LTRefPicPocLsbSPS = make([]int, s.NumLongTermRefPicsSPS)
		s.UsedByCurrPicLtSPSFlag = make([]bool, s.NumLongTermRefPicsSPS)
		for i := 0; i < s.NumLongTermRefPicsSPS; i++ {
			lsb, err := br.ReadBits(s.Log2MaxPicOrderCntLsbMinus4 + 4)
			if err != nil {
				return nil, errs.Field(err, "lt_ref_pic_poc_lsb_sps")
			}
			s.LTRefPicPocLsbSPS[i] = int(lsb)
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, errs.Field(err, "used_by_curr_pic_lt_sps_flag")
			}
			s.UsedByCurrPicLtSPSFlag[i] = b == 1
		}
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "sps_temporal_mvp_enabled_flag")
	}
	s.TemporalMVPEnabledFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "strong_intra_smoothing_enabled_flag")
	}
	s.StrongIntraSmoothingEnabledFlag = b == 1

	// vui_parameters_present_flag, sps_extension flags and their payloads
	// describe timing/HRD/range-extension detail outside this module's
	// scope (section 1's Non-goals exclude VUI/HRD modelling); parsing
	// stops here, matching the scope boundary already drawn in vps.go.
	return s, nil
}

// ceilDiv returns ceil(a/b) for positive a, b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
