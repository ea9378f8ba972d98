package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/rbsp"
)

// PPS is pic_parameter_set_rbsp(), section 7.3.2.3.
type PPS struct {
	ID               int
	SPSID            int

	DependentSliceSegmentsEnabledFlag bool
	OutputFlagPresentFlag             bool
	NumExtraSliceHeaderBits           int
	SignDataHidingEnabledFlag         bool
	CabacInitPresentFlag              bool
	NumRefIdxL0DefaultActiveMinus1    int
	NumRefIdxL1DefaultActiveMinus1    int
	InitQPMinus26                     int
	ConstrainedIntraPredFlag          bool
	TransformSkipEnabledFlag          bool

	CuQPDeltaEnabledFlag  bool
	DiffCuQPDeltaDepth    int
	CbQPOffset            int
	CrQPOffset            int
	SliceChromaQPOffsetsPresentFlag bool

	WeightedPredFlag      bool
	WeightedBipredFlag    bool
	TransquantBypassEnabledFlag bool
	TilesEnabledFlag      bool
	EntropyCodingSyncEnabledFlag bool

	NumTileColumnsMinus1  int
	NumTileRowsMinus1     int
	UniformSpacingFlag    bool
	ColumnWidthMinus1     []int
	RowHeightMinus1       []int
	LoopFilterAcrossTilesEnabledFlag bool

	LoopFilterAcrossSlicesEnabledFlag bool

	DeblockingFilterControlPresentFlag bool
	DeblockingFilterOverrideEnabledFlag bool
	PPSDeblockingFilterDisabledFlag     bool
	BetaOffsetDiv2                      int
	TcOffsetDiv2                        int

	ScalingListDataPresentFlag bool
	ScalingList                *ScalingListData

	ListsModificationPresentFlag bool
	Log2ParallelMergeLevelMinus2 int
	SliceSegmentHeaderExtensionPresentFlag bool
}

// ParsePPS parses a PPS from its RBSP payload.
func ParsePPS(rbspBytes []byte) (*PPS, error) {
	br := bits.NewReader(rbspBytes)
	p := &PPS{}

	id, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "pps_pic_parameter_set_id")
	}
	p.ID = int(id)
	if p.ID > 63 {
		return nil, errs.Newf(errs.KindOutOfRange, "pps_pic_parameter_set_id %d exceeds 63", p.ID)
	}
	spsid, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "pps_seq_parameter_set_id")
	}
	p.SPSID = int(spsid)

	b, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "dependent_slice_segments_enabled_flag")
	}
	p.DependentSliceSegmentsEnabledFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "output_flag_present_flag")
	}
	p.OutputFlagPresentFlag = b == 1
	v, err := br.ReadBits(3)
	if err != nil {
		return nil, errs.Field(err, "num_extra_slice_header_bits")
	}
	p.NumExtraSliceHeaderBits = int(v)
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "sign_data_hiding_enabled_flag")
	}
	p.SignDataHidingEnabledFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "cabac_init_present_flag")
	}
	p.CabacInitPresentFlag = b == 1

	n, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "num_ref_idx_l0_default_active_minus1")
	}
	p.NumRefIdxL0DefaultActiveMinus1 = int(n)
	n, err = rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "num_ref_idx_l1_default_active_minus1")
	}
	p.NumRefIdxL1DefaultActiveMinus1 = int(n)

	qp, err := rbsp.ReadSE(br)
	if err != nil {
		return nil, errs.Field(err, "init_qp_minus26")
	}
	p.InitQPMinus26 = qp

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "constrained_intra_pred_flag")
	}
	p.ConstrainedIntraPredFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "transform_skip_enabled_flag")
	}
	p.TransformSkipEnabledFlag = b == 1

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "cu_qp_delta_enabled_flag")
	}
	p.CuQPDeltaEnabledFlag = b == 1
	if p.CuQPDeltaEnabledFlag {
		d, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "diff_cu_qp_delta_depth")
		}
		p.DiffCuQPDeltaDepth = int(d)
	}

	cb, err := rbsp.ReadSE(br)
	if err != nil {
		return nil, errs.Field(err, "pps_cb_qp_offset")
	}
	p.CbQPOffset = cb
	cr, err := rbsp.ReadSE(br)
	if err != nil {
		return nil, errs.Field(err, "pps_cr_qp_offset")
	}
	p.CrQPOffset = cr

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "pps_slice_chroma_qp_offsets_present_flag")
	}
	p.SliceChromaQPOffsetsPresentFlag = b == 1

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "weighted_pred_flag")
	}
	p.WeightedPredFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "weighted_bipred_flag")
	}
	p.WeightedBipredFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "transquant_bypass_enabled_flag")
	}
	p.TransquantBypassEnabledFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "tiles_enabled_flag")
	}
	p.TilesEnabledFlag = b == 1
	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "entropy_coding_sync_enabled_flag")
	}
	p.EntropyCodingSyncEnabledFlag = b == 1

	p.LoopFilterAcrossTilesEnabledFlag = true // default when tiles_enabled_flag is 0
	if p.TilesEnabledFlag {
		nc, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "num_tile_columns_minus1")
		}
		p.NumTileColumnsMinus1 = int(nc)
		nr, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "num_tile_rows_minus1")
		}
		p.NumTileRowsMinus1 = int(nr)
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "uniform_spacing_flag")
		}
		p.UniformSpacingFlag = b == 1
		if !p.UniformSpacingFlag {
			p.ColumnWidthMinus1 = make([]int, p.NumTileColumnsMinus1)
			for i := 0; i < p.NumTileColumnsMinus1; i++ {
				w, err := rbsp.ReadUE(br)
				if err != nil {
					return nil, errs.Field(err, "column_width_minus1")
				}
				p.ColumnWidthMinus1[i] = int(w)
			}
			p.RowHeightMinus1 = make([]int, p.NumTileRowsMinus1)
			for i := 0; i < p.NumTileRowsMinus1; i++ {
				h, err := rbsp.ReadUE(br)
				if err != nil {
					return nil, errs.Field(err, "row_height_minus1")
				}
				p.RowHeightMinus1[i] = int(h)
			}
		}
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "loop_filter_across_tiles_enabled_flag")
		}
		p.LoopFilterAcrossTilesEnabledFlag = b == 1
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "pps_loop_filter_across_slices_enabled_flag")
	}
	p.LoopFilterAcrossSlicesEnabledFlag = b == 1

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "deblocking_filter_control_present_flag")
	}
	p.DeblockingFilterControlPresentFlag = b == 1
	if p.DeblockingFilterControlPresentFlag {
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "deblocking_filter_override_enabled_flag")
		}
		p.DeblockingFilterOverrideEnabledFlag = b == 1
		b, err = br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "pps_deblocking_filter_disabled_flag")
		}
		p.PPSDeblockingFilterDisabledFlag = b == 1
		if !p.PPSDeblockingFilterDisabledFlag {
			beta, err := rbsp.ReadSE(br)
			if err != nil {
				return nil, errs.Field(err, "pps_beta_offset_div2")
			}
			p.BetaOffsetDiv2 = beta
			tc, err := rbsp.ReadSE(br)
			if err != nil {
				return nil, errs.Field(err, "pps_tc_offset_div2")
			}
			p.TcOffsetDiv2 = tc
		}
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "pps_scaling_list_data_present_flag")
	}
	p.ScalingListDataPresentFlag = b == 1
	if p.ScalingListDataPresentFlag {
		p.ScalingList, err = ParseScalingListData(br)
		if err != nil {
			return nil, errs.Wrap(err, "scaling_list_data")
		}
	}

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "lists_modification_present_flag")
	}
	p.ListsModificationPresentFlag = b == 1

	lvl, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "log2_parallel_merge_level_minus2")
	}
	p.Log2ParallelMergeLevelMinus2 = int(lvl)

	b, err = br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "slice_segment_header_extension_present_flag")
	}
	p.SliceSegmentHeaderExtensionPresentFlag = b == 1

	// pps_extension flags and range-extension payloads (cross-component
	// prediction, chroma QP offset lists) are out of scope per section 1.
	return p, nil
}
