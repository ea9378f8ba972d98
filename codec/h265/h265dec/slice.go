package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/pset"
	"github.com/ausocean/vidcore/rbsp"
)

// Slice types, per Table 7-7.
const (
	SliceB = 0
	SliceP = 1
	SliceI = 2
)

// RefPicListModification holds list_entry_l0/l1 when ref_pic_lists_
// modification_flag_l0/l1 is set, per section 7.3.6.2.
type RefPicListModification struct {
	L0 []int
	L1 []int
}

// SliceSegmentHeader is slice_segment_header(), section 7.3.6.1. Only the
// fields needed to drive POC derivation, reference-list construction and
// the DPB survive here; prediction-weight tables are not parsed (a slice
// that carries one fails with KindUnsupported), matching the
// residual/coefficient Non-goal in section 1.
type SliceSegmentHeader struct {
	FirstSliceSegmentInPicFlag bool
	NoOutputOfPriorPicsFlag    bool
	PPSID                      int
	DependentSliceSegmentFlag  bool
	SliceSegmentAddress        int

	SliceType int

	PicOutputFlag bool
	ColourPlaneID int

	SlicePicOrderCntLsb int

	ShortTermRefPicSetSpsFlag bool
	ShortTermRefPicSetIdx     int
	RPS                       *ShortTermRPS

	NumLongTermSps    int
	NumLongTermPics   int
	LtIdxSps          []int
	PocLsbLt          []int
	UsedByCurrPicLt   []bool
	DeltaPocMsbPresent []bool
	DeltaPocMsbCycleLt []int

	SliceTemporalMvpEnabledFlag bool
	SaoLumaFlag                 bool
	SaoChromaFlag               bool

	NumRefIdxActiveOverrideFlag bool
	NumRefIdxL0ActiveMinus1     int
	NumRefIdxL1ActiveMinus1     int
	RefPicListModification      *RefPicListModification

	MvdL1ZeroFlag       bool
	CabacInitFlag       bool
	CollocatedFromL0Flag bool
	CollocatedRefIdx    int

	FiveMinusMaxNumMergeCand int

	SliceQPDelta      int
	SliceCbQPOffset   int
	SliceCrQPOffset   int

	DeblockingFilterOverrideFlag  bool
	SliceDeblockingFilterDisabledFlag bool
	SliceBetaOffsetDiv2           int
	SliceTcOffsetDiv2             int

	SliceLoopFilterAcrossSlicesEnabledFlag bool

	NumEntryPointOffsets int
	EntryPointOffsetMinus1 []int

	HeaderBits int // Number of bits consumed, for locating slice_segment_data().
}

// ceilLog2 returns ceil(log2(n)) for n >= 1.
func ceilLog2(n int) int {
	r := 0
	v := 1
	for v < n {
		v <<= 1
		r++
	}
	return r
}

// ParseSliceSegmentHeader parses slice_segment_header() per section 7.3.6.1.
// nalType is the enclosing NAL unit's type (needed for the IRAP/IDR gating
// of several fields); spsTable/ppsTable resolve the referenced parameter
// sets by id.
func ParseSliceSegmentHeader(br *bits.BitReader, nalType int, spsTable *pset.Table[SPS], ppsTable *pset.Table[PPS]) (*SliceSegmentHeader, *SPS, *PPS, error) {
	h := &SliceSegmentHeader{}

	b, err := br.ReadBits(1)
	if err != nil {
		return nil, nil, nil, errs.Field(err, "first_slice_segment_in_pic_flag")
	}
	h.FirstSliceSegmentInPicFlag = b == 1

	if IsIRAP(nalType) {
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "no_output_of_prior_pics_flag")
		}
		h.NoOutputOfPriorPicsFlag = b == 1
	}

	ppsID, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, nil, nil, errs.Field(err, "slice_pic_parameter_set_id")
	}
	h.PPSID = int(ppsID)

	ppsRef, ok := ppsTable.Get(h.PPSID)
	if !ok {
		return nil, nil, nil, errs.Newf(errs.KindMissingReference, "pps id %d not parsed", h.PPSID)
	}
	pps := ppsRef.Get()
	spsRef, ok := spsTable.Get(pps.SPSID)
	if !ok {
		return nil, nil, nil, errs.Newf(errs.KindMissingReference, "sps id %d not parsed", pps.SPSID)
	}
	sps := spsRef.Get()

	if !h.FirstSliceSegmentInPicFlag {
		if pps.DependentSliceSegmentsEnabledFlag {
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "dependent_slice_segment_flag")
			}
			h.DependentSliceSegmentFlag = b == 1
		}
		bitsForAddr := ceilLog2(sps.PicSizeInCtbsY)
		v, err := br.ReadBits(bitsForAddr)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "slice_segment_address")
		}
		h.SliceSegmentAddress = int(v)
	}

	if h.DependentSliceSegmentFlag {
		// Remaining fields are inherited from the independent slice segment;
		// the dependent segment carries only slice_segment_data() after its
		// own extra bits, so parsing of this header stops here.
		return h, sps, pps, nil
	}

	if err := br.Skip(pps.NumExtraSliceHeaderBits); err != nil {
		return nil, nil, nil, errs.Field(err, "slice_reserved_flag")
	}

	st, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, nil, nil, errs.Field(err, "slice_type")
	}
	h.SliceType = int(st)

	h.PicOutputFlag = true
	if pps.OutputFlagPresentFlag {
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "pic_output_flag")
		}
		h.PicOutputFlag = b == 1
	}
	if sps.SeparateColourPlaneFlag {
		v, err := br.ReadBits(2)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "colour_plane_id")
		}
		h.ColourPlaneID = int(v)
	}

	isIDR := IsIDR(nalType)
	if !isIDR {
		v, err := br.ReadBits(sps.Log2MaxPicOrderCntLsbMinus4 + 4)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "slice_pic_order_cnt_lsb")
		}
		h.SlicePicOrderCntLsb = int(v)

		b, err = br.ReadBits(1)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "short_term_ref_pic_set_sps_flag")
		}
		h.ShortTermRefPicSetSpsFlag = b == 1
		if !h.ShortTermRefPicSetSpsFlag {
			rps, err := ParseShortTermRPS(br, sps.NumShortTermRefPicSets, sps.ShortTermRPS, sps.NumShortTermRefPicSets)
			if err != nil {
				return nil, nil, nil, errs.Wrap(err, "short_term_ref_pic_set")
			}
			h.RPS = rps
		} else if sps.NumShortTermRefPicSets > 1 {
			bitsIdx := ceilLog2(sps.NumShortTermRefPicSets)
			v, err := br.ReadBits(bitsIdx)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "short_term_ref_pic_set_idx")
			}
			h.ShortTermRefPicSetIdx = int(v)
			h.RPS = sps.ShortTermRPS[h.ShortTermRefPicSetIdx]
		} else if sps.NumShortTermRefPicSets == 1 {
			h.RPS = sps.ShortTermRPS[0]
		}

		if sps.LongTermRefPicsPresentFlag {
			if sps.NumLongTermRefPicsSPS > 0 {
				n, err := rbsp.ReadUE(br)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "num_long_term_sps")
				}
				h.NumLongTermSps = int(n)
			}
			n, err := rbsp.ReadUE(br)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "num_long_term_pics")
			}
			h.NumLongTermPics = int(n)

			total := h.NumLongTermSps + h.NumLongTermPics
			h.LtIdxSps = make([]int, total)
			h.PocLsbLt = make([]int, total)
			h.UsedByCurrPicLt = make([]bool, total)
			h.DeltaPocMsbPresent = make([]bool, total)
			h.DeltaPocMsbCycleLt = make([]int, total)

			for i := 0; i < total; i++ {
				if i < h.NumLongTermSps {
					if sps.NumLongTermRefPicsSPS > 1 {
						bitsIdx := ceilLog2(sps.NumLongTermRefPicsSPS)
						v, err := br.ReadBits(bitsIdx)
						if err != nil {
							return nil, nil, nil, errs.Field(err, "lt_idx_sps")
						}
						h.LtIdxSps[i] = int(v)
					}
				} else {
					v, err := br.ReadBits(sps.Log2MaxPicOrderCntLsbMinus4 + 4)
					if err != nil {
						return nil, nil, nil, errs.Field(err, "poc_lsb_lt")
					}
					h.PocLsbLt[i] = int(v)
					bb, err := br.ReadBits(1)
					if err != nil {
						return nil, nil, nil, errs.Field(err, "used_by_curr_pic_lt_flag")
					}
					h.UsedByCurrPicLt[i] = bb == 1
				}
				bb, err := br.ReadBits(1)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "delta_poc_msb_present_flag")
				}
				h.DeltaPocMsbPresent[i] = bb == 1
				if h.DeltaPocMsbPresent[i] {
					v, err := rbsp.ReadUE(br)
					if err != nil {
						return nil, nil, nil, errs.Field(err, "delta_poc_msb_cycle_lt")
					}
					h.DeltaPocMsbCycleLt[i] = int(v)
				}
			}
		}

		if sps.TemporalMVPEnabledFlag {
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "slice_temporal_mvp_enabled_flag")
			}
			h.SliceTemporalMvpEnabledFlag = b == 1
		}
	}

	if sps.SampleAdaptiveOffsetEnabledFlag {
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "slice_sao_luma_flag")
		}
		h.SaoLumaFlag = b == 1
		if sps.ChromaArrayType != 0 {
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "slice_sao_chroma_flag")
			}
			h.SaoChromaFlag = b == 1
		}
	}

	if h.SliceType == SliceP || h.SliceType == SliceB {
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "num_ref_idx_active_override_flag")
		}
		h.NumRefIdxActiveOverrideFlag = b == 1
		h.NumRefIdxL0ActiveMinus1 = pps.NumRefIdxL0DefaultActiveMinus1
		h.NumRefIdxL1ActiveMinus1 = pps.NumRefIdxL1DefaultActiveMinus1
		if h.NumRefIdxActiveOverrideFlag {
			v, err := rbsp.ReadUE(br)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "num_ref_idx_l0_active_minus1")
			}
			h.NumRefIdxL0ActiveMinus1 = int(v)
			if h.SliceType == SliceB {
				v, err := rbsp.ReadUE(br)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "num_ref_idx_l1_active_minus1")
				}
				h.NumRefIdxL1ActiveMinus1 = int(v)
			}
		}

		numPicTotalCurr := 0
		if h.RPS != nil {
			numPicTotalCurr = NumPicTotalCurr(h.RPS, h.UsedByCurrPicLt)
		}
		if pps.ListsModificationPresentFlag && numPicTotalCurr > 1 {
			mod := &RefPicListModification{}
			bitsEntry := ceilLog2(numPicTotalCurr)
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "ref_pic_list_modification_flag_l0")
			}
			if b == 1 {
				mod.L0 = make([]int, h.NumRefIdxL0ActiveMinus1+1)
				for i := range mod.L0 {
					v, err := br.ReadBits(bitsEntry)
					if err != nil {
						return nil, nil, nil, errs.Field(err, "list_entry_l0")
					}
					mod.L0[i] = int(v)
				}
			}
			if h.SliceType == SliceB {
				b, err = br.ReadBits(1)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "ref_pic_list_modification_flag_l1")
				}
				if b == 1 {
					mod.L1 = make([]int, h.NumRefIdxL1ActiveMinus1+1)
					for i := range mod.L1 {
						v, err := br.ReadBits(bitsEntry)
						if err != nil {
							return nil, nil, nil, errs.Field(err, "list_entry_l1")
						}
						mod.L1[i] = int(v)
					}
				}
			}
			h.RefPicListModification = mod
		}

		if h.SliceType == SliceB {
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "mvd_l1_zero_flag")
			}
			h.MvdL1ZeroFlag = b == 1
		}
		if pps.CabacInitPresentFlag {
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "cabac_init_flag")
			}
			h.CabacInitFlag = b == 1
		}
		if h.SliceTemporalMvpEnabledFlag {
			h.CollocatedFromL0Flag = true
			if h.SliceType == SliceB {
				b, err = br.ReadBits(1)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "collocated_from_l0_flag")
				}
				h.CollocatedFromL0Flag = b == 1
			}
			maxActive := h.NumRefIdxL0ActiveMinus1
			if !h.CollocatedFromL0Flag {
				maxActive = h.NumRefIdxL1ActiveMinus1
			}
			if maxActive > 0 {
				v, err := rbsp.ReadUE(br)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "collocated_ref_idx")
				}
				h.CollocatedRefIdx = int(v)
			}
		}

		// pred_weight_table() is not parsed: a slice that carries one is
		// rejected with KindUnsupported.
		if (pps.WeightedPredFlag && h.SliceType == SliceP) ||
			(pps.WeightedBipredFlag && h.SliceType == SliceB) {
			return nil, nil, nil, errs.New(errs.KindUnsupported, "pred_weight_table parsing not implemented")
		}

		mc, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "five_minus_max_num_merge_cand")
		}
		h.FiveMinusMaxNumMergeCand = int(mc)
	}

	qpDelta, err := rbsp.ReadSE(br)
	if err != nil {
		return nil, nil, nil, errs.Field(err, "slice_qp_delta")
	}
	h.SliceQPDelta = qpDelta

	if pps.SliceChromaQPOffsetsPresentFlag {
		cb, err := rbsp.ReadSE(br)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "slice_cb_qp_offset")
		}
		h.SliceCbQPOffset = cb
		cr, err := rbsp.ReadSE(br)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "slice_cr_qp_offset")
		}
		h.SliceCrQPOffset = cr
	}

	h.SliceLoopFilterAcrossSlicesEnabledFlag = pps.LoopFilterAcrossSlicesEnabledFlag
	if pps.DeblockingFilterControlPresentFlag {
		if pps.DeblockingFilterOverrideEnabledFlag {
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "deblocking_filter_override_flag")
			}
			h.DeblockingFilterOverrideFlag = b == 1
		}
		h.SliceDeblockingFilterDisabledFlag = pps.PPSDeblockingFilterDisabledFlag
		h.SliceBetaOffsetDiv2 = pps.BetaOffsetDiv2
		h.SliceTcOffsetDiv2 = pps.TcOffsetDiv2
		if h.DeblockingFilterOverrideFlag {
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "slice_deblocking_filter_disabled_flag")
			}
			h.SliceDeblockingFilterDisabledFlag = b == 1
			if !h.SliceDeblockingFilterDisabledFlag {
				beta, err := rbsp.ReadSE(br)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "slice_beta_offset_div2")
				}
				h.SliceBetaOffsetDiv2 = beta
				tc, err := rbsp.ReadSE(br)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "slice_tc_offset_div2")
				}
				h.SliceTcOffsetDiv2 = tc
			}
		}
		if pps.LoopFilterAcrossSlicesEnabledFlag &&
			(h.SaoLumaFlag || h.SaoChromaFlag || !h.SliceDeblockingFilterDisabledFlag) {
			b, err = br.ReadBits(1)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "slice_loop_filter_across_slices_enabled_flag")
			}
			h.SliceLoopFilterAcrossSlicesEnabledFlag = b == 1
		}
	}

	if pps.TilesEnabledFlag || pps.EntropyCodingSyncEnabledFlag {
		n, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "num_entry_point_offsets")
		}
		h.NumEntryPointOffsets = int(n)
		if h.NumEntryPointOffsets > 0 {
			lenMinus1, err := rbsp.ReadUE(br)
			if err != nil {
				return nil, nil, nil, errs.Field(err, "offset_len_minus1")
			}
			h.EntryPointOffsetMinus1 = make([]int, h.NumEntryPointOffsets)
			for i := 0; i < h.NumEntryPointOffsets; i++ {
				v, err := br.ReadBits(int(lenMinus1) + 1)
				if err != nil {
					return nil, nil, nil, errs.Field(err, "entry_point_offset_minus1")
				}
				h.EntryPointOffsetMinus1[i] = int(v)
			}
		}
	}

	if pps.SliceSegmentHeaderExtensionPresentFlag {
		extLen, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, nil, nil, errs.Field(err, "slice_segment_header_extension_length")
		}
		if err := br.Skip(int(extLen) * 8); err != nil {
			return nil, nil, nil, errs.Field(err, "slice_segment_header_extension_data_byte")
		}
	}

	if err := rbsp.RBSPTrailingBits(br); err != nil {
		return nil, nil, nil, errs.Wrap(err, "byte_alignment")
	}

	h.HeaderBits = br.PositionInBits()
	return h, sps, pps, nil
}
