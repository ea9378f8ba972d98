/*
DESCRIPTION
  header.go parses the VP9 uncompressed frame header: profile, frame-type
  dispatch between key-frame and inter-frame payloads, loop filter,
  quantization, segmentation and tile configuration, per section 6.2 of the
  VP9 Bitstream & Decoding Process Specification.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vp9dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
)

var vp9SyncCode = [3]byte{0x49, 0x83, 0x42}

// ColorConfig is section 6.2.2.
type ColorConfig struct {
	BitDepth       int
	ColorSpace     int
	ColorRange     bool
	SubsamplingX   int
	SubsamplingY   int
}

// Segmentation is the per-segment feature state of section 6.2.11,
// persisting across frames except on a key frame or error-resilient reset.
type Segmentation struct {
	Enabled        bool
	UpdateMap      bool
	TreeProbs      [7]uint8
	PredProbs      [3]uint8
	AbsOrDeltaUpdate bool
	FeatureEnabled [8][4]bool
	FeatureData    [8][4]int
}

// LoopFilter is section 6.2.8, including the 4 ref-frame deltas and 2
// mode deltas that persist across frames.
type LoopFilter struct {
	Level          int
	Sharpness      int
	DeltaEnabled   bool
	RefDeltas      [4]int8
	ModeDeltas     [2]int8
}

// FrameHeader is the full VP9 uncompressed frame header.
type FrameHeader struct {
	Profile         int
	ShowExistingFrame bool
	FrameToShowIdx  int

	FrameType       int // 0 = key, 1 = inter.
	ShowFrame       bool
	ErrorResilient  bool

	Color ColorConfig

	Width, Height               int
	DisplayWidth, DisplayHeight int

	IntraOnly         bool
	ResetFrameContext int
	RefreshFrameFlags uint8
	RefFrameIdx       [3]int
	RefFrameSignBias  [4]bool
	AllowHighPrecisionMV bool
	InterpFilter      int

	LoopFilter   LoopFilter
	BaseQIdx     int
	DeltaQYDC    int
	DeltaQUVDC   int
	DeltaQUVAC   int
	Lossless     bool

	Segmentation Segmentation

	Log2TileCols, Log2TileRows int
}

// frameMarker is the fixed 2-bit value that must begin every VP9
// uncompressed header, per section 6.2.
const frameMarker = 2

// ParseFrameHeader parses buf as one VP9 uncompressed_header(), per section
// 6.2. prevLoopFilter and prevSegmentation carry state from the previous
// frame forward (sections 7.2.7/7.2.10): pass the zero value for the first
// frame of a sequence.
func ParseFrameHeader(buf []byte, prevLoopFilter LoopFilter, prevSegmentation Segmentation) (*FrameHeader, error) {
	br := bits.NewReader(buf)
	fh := &FrameHeader{}

	marker, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "frame_marker")
	}
	if marker != frameMarker {
		return nil, errs.New(errs.KindInvalidData, "frame_marker must be 2")
	}

	lo, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "profile_low_bit")
	}
	hi, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "profile_high_bit")
	}
	fh.Profile = int(hi<<1 | lo)
	if fh.Profile == 3 {
		if _, err := br.ReadBits(1); err != nil { // reserved_zero
			return nil, errs.Field(err, "reserved_zero")
		}
	}

	showExisting, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "show_existing_frame")
	}
	if showExisting == 1 {
		fh.ShowExistingFrame = true
		idx, err := br.ReadBits(3)
		if err != nil {
			return nil, errs.Field(err, "frame_to_show_map_idx")
		}
		fh.FrameToShowIdx = int(idx)
		return fh, nil
	}

	frameType, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "frame_type")
	}
	fh.FrameType = int(frameType)

	showFrame, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "show_frame")
	}
	fh.ShowFrame = showFrame == 1

	errRes, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "error_resilient_mode")
	}
	fh.ErrorResilient = errRes == 1

	lf := prevLoopFilter
	seg := prevSegmentation
	if fh.FrameType == 0 { // key frame
		if err := readSyncCode(br); err != nil {
			return nil, err
		}
		if err := readColorConfig(br, fh); err != nil {
			return nil, err
		}
		if err := readFrameSize(br, fh); err != nil {
			return nil, err
		}
		if err := readRenderSize(br, fh); err != nil {
			return nil, err
		}
		fh.RefreshFrameFlags = 0xff
		lf = LoopFilter{}
		seg = Segmentation{}
	} else {
		intraOnly := false
		if !fh.ShowFrame {
			io, err := br.ReadBits(1)
			if err != nil {
				return nil, errs.Field(err, "intra_only")
			}
			intraOnly = io == 1
		}
		fh.IntraOnly = intraOnly

		if !fh.ErrorResilient {
			rfc, err := br.ReadBits(2)
			if err != nil {
				return nil, errs.Field(err, "reset_frame_context")
			}
			fh.ResetFrameContext = int(rfc)
		}

		if fh.ErrorResilient || fh.ResetFrameContext >= 2 {
			seg = Segmentation{}
		}

		if intraOnly {
			if err := readSyncCode(br); err != nil {
				return nil, err
			}
			if fh.Profile > 0 {
				if err := readColorConfig(br, fh); err != nil {
					return nil, err
				}
			} else {
				fh.Color = ColorConfig{BitDepth: 8, ColorSpace: 1, SubsamplingX: 1, SubsamplingY: 1}
			}
			rf, err := br.ReadBits(8)
			if err != nil {
				return nil, errs.Field(err, "refresh_frame_flags")
			}
			fh.RefreshFrameFlags = uint8(rf)
			if err := readFrameSize(br, fh); err != nil {
				return nil, err
			}
			if err := readRenderSize(br, fh); err != nil {
				return nil, err
			}
		} else {
			rf, err := br.ReadBits(8)
			if err != nil {
				return nil, errs.Field(err, "refresh_frame_flags")
			}
			fh.RefreshFrameFlags = uint8(rf)
			for i := 0; i < 3; i++ {
				idx, err := br.ReadBits(3)
				if err != nil {
					return nil, errs.Field(err, "ref_frame_idx")
				}
				bias, err := br.ReadBits(1)
				if err != nil {
					return nil, errs.Field(err, "ref_frame_sign_bias")
				}
				fh.RefFrameIdx[i] = int(idx)
				fh.RefFrameSignBias[1+i] = bias == 1
			}
			if err := readFrameSizeWithRefs(br, fh); err != nil {
				return nil, err
			}
			hp, err := br.ReadBits(1)
			if err != nil {
				return nil, errs.Field(err, "allow_high_precision_mv")
			}
			fh.AllowHighPrecisionMV = hp == 1
			filt, err := readInterpFilter(br)
			if err != nil {
				return nil, err
			}
			fh.InterpFilter = filt
		}
	}

	if !fh.ErrorResilient {
		if _, err := br.ReadBits(1); err != nil { // refresh_frame_context
			return nil, errs.Field(err, "refresh_frame_context")
		}
		if _, err := br.ReadBits(1); err != nil { // frame_parallel_decoding_mode
			return nil, errs.Field(err, "frame_parallel_decoding_mode")
		}
	}
	if _, err := br.ReadBits(2); err != nil { // frame_context_idx
		return nil, errs.Field(err, "frame_context_idx")
	}

	if err := readLoopFilterParams(br, &lf); err != nil {
		return nil, err
	}
	fh.LoopFilter = lf

	if err := readQuantizationParams(br, fh); err != nil {
		return nil, err
	}

	if err := readSegmentationParams(br, &seg); err != nil {
		return nil, err
	}
	fh.Segmentation = seg

	if err := readTileInfo(br, fh); err != nil {
		return nil, err
	}

	return fh, nil
}

func readSyncCode(br *bits.BitReader) error {
	for i, want := range vp9SyncCode {
		b, err := br.ReadBits(8)
		if err != nil {
			return errs.Field(err, "frame_sync_byte")
		}
		if byte(b) != want {
			return errs.Newf(errs.KindInvalidData, "frame_sync_byte[%d] = %#x, want %#x", i, b, want)
		}
	}
	return nil
}

func readColorConfig(br *bits.BitReader, fh *FrameHeader) error {
	cc := ColorConfig{BitDepth: 8}
	if fh.Profile >= 2 {
		tenOrTwelve, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "ten_or_twelve_bit")
		}
		if tenOrTwelve == 1 {
			cc.BitDepth = 12
		} else {
			cc.BitDepth = 10
		}
	}

	cs, err := br.ReadBits(3)
	if err != nil {
		return errs.Field(err, "color_space")
	}
	cc.ColorSpace = int(cs)

	const colorSpaceRGB = 7
	if cc.ColorSpace != colorSpaceRGB {
		cr, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "color_range")
		}
		cc.ColorRange = cr == 1
		if fh.Profile == 1 || fh.Profile == 3 {
			sx, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "subsampling_x")
			}
			sy, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "subsampling_y")
			}
			cc.SubsamplingX, cc.SubsamplingY = int(sx), int(sy)
			if _, err := br.ReadBits(1); err != nil { // reserved_zero
				return errs.Field(err, "reserved_zero")
			}
		} else {
			cc.SubsamplingX, cc.SubsamplingY = 1, 1
		}
	} else {
		cc.ColorRange = true
		if fh.Profile == 1 || fh.Profile == 3 {
			if _, err := br.ReadBits(1); err != nil { // reserved_zero
				return errs.Field(err, "reserved_zero")
			}
		}
	}
	fh.Color = cc
	return nil
}

func readFrameSize(br *bits.BitReader, fh *FrameHeader) error {
	w, err := br.ReadBits(16)
	if err != nil {
		return errs.Field(err, "frame_width_minus_1")
	}
	h, err := br.ReadBits(16)
	if err != nil {
		return errs.Field(err, "frame_height_minus_1")
	}
	fh.Width = int(w) + 1
	fh.Height = int(h) + 1
	return nil
}

func readRenderSize(br *bits.BitReader, fh *FrameHeader) error {
	differs, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "render_and_frame_size_different")
	}
	if differs == 0 {
		fh.DisplayWidth, fh.DisplayHeight = fh.Width, fh.Height
		return nil
	}
	w, err := br.ReadBits(16)
	if err != nil {
		return errs.Field(err, "render_width_minus_1")
	}
	h, err := br.ReadBits(16)
	if err != nil {
		return errs.Field(err, "render_height_minus_1")
	}
	fh.DisplayWidth = int(w) + 1
	fh.DisplayHeight = int(h) + 1
	return nil
}

// readFrameSizeWithRefs implements frame_size_with_refs(): the frame may
// copy its size from one of the three active reference slots rather than
// carrying its own, per section 6.2.6.
func readFrameSizeWithRefs(br *bits.BitReader, fh *FrameHeader) error {
	for i := 0; i < 3; i++ {
		found, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "found_ref")
		}
		if found == 1 {
			// Actual width/height would be copied from RefFrameIdx[i]'s
			// stored dimensions by the driver, which owns the reference
			// slot table; this parser only records that a copy applies.
			fh.Width, fh.Height = -1, -1
			return readRenderSize(br, fh)
		}
	}
	if err := readFrameSize(br, fh); err != nil {
		return err
	}
	return readRenderSize(br, fh)
}

func readInterpFilter(br *bits.BitReader) (int, error) {
	isSwitchable, err := br.ReadBits(1)
	if err != nil {
		return 0, errs.Field(err, "is_filter_switchable")
	}
	if isSwitchable == 1 {
		return -1, nil // Switchable: selected per-block, not fixed for the frame.
	}
	raw, err := br.ReadBits(2)
	if err != nil {
		return 0, errs.Field(err, "raw_interpolation_filter")
	}
	// literal_to_filter, Table in section 6.2.9.
	literalToFilter := [4]int{1, 0, 2, 3}
	return literalToFilter[raw], nil
}

func readLoopFilterParams(br *bits.BitReader, lf *LoopFilter) error {
	level, err := br.ReadBits(6)
	if err != nil {
		return errs.Field(err, "loop_filter_level")
	}
	lf.Level = int(level)
	sharp, err := br.ReadBits(3)
	if err != nil {
		return errs.Field(err, "loop_filter_sharpness")
	}
	lf.Sharpness = int(sharp)

	deltaEnabled, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "loop_filter_delta_enabled")
	}
	lf.DeltaEnabled = deltaEnabled == 1
	if !lf.DeltaEnabled {
		return nil
	}
	update, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "loop_filter_delta_update")
	}
	if update != 1 {
		return nil
	}
	for i := 0; i < 4; i++ {
		present, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "update_ref_delta")
		}
		if present == 1 {
			v, err := readSignedInt(br, 6)
			if err != nil {
				return errs.Field(err, "loop_filter_ref_deltas")
			}
			lf.RefDeltas[i] = int8(v)
		}
	}
	for i := 0; i < 2; i++ {
		present, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "update_mode_delta")
		}
		if present == 1 {
			v, err := readSignedInt(br, 6)
			if err != nil {
				return errs.Field(err, "loop_filter_mode_deltas")
			}
			lf.ModeDeltas[i] = int8(v)
		}
	}
	return nil
}

// readSignedInt reads an n-bit magnitude followed by a sign bit, the su(n)
// syntax descriptor used throughout the VP9 header (section 4.9.3).
func readSignedInt(br *bits.BitReader, n int) (int, error) {
	v, err := br.ReadBits(n)
	if err != nil {
		return 0, err
	}
	sign, err := br.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if sign == 1 {
		return -int(v), nil
	}
	return int(v), nil
}

func readDeltaQ(br *bits.BitReader) (int, error) {
	coded, err := br.ReadBits(1)
	if err != nil {
		return 0, err
	}
	if coded == 0 {
		return 0, nil
	}
	return readSignedInt(br, 4)
}

func readQuantizationParams(br *bits.BitReader, fh *FrameHeader) error {
	qi, err := br.ReadBits(8)
	if err != nil {
		return errs.Field(err, "base_q_idx")
	}
	fh.BaseQIdx = int(qi)

	dq, err := readDeltaQ(br)
	if err != nil {
		return errs.Field(err, "delta_q_y_dc")
	}
	fh.DeltaQYDC = dq

	dq, err = readDeltaQ(br)
	if err != nil {
		return errs.Field(err, "delta_q_uv_dc")
	}
	fh.DeltaQUVDC = dq

	dq, err = readDeltaQ(br)
	if err != nil {
		return errs.Field(err, "delta_q_uv_ac")
	}
	fh.DeltaQUVAC = dq

	fh.Lossless = fh.BaseQIdx == 0 && fh.DeltaQYDC == 0 && fh.DeltaQUVDC == 0 && fh.DeltaQUVAC == 0
	return nil
}

func readSegmentationParams(br *bits.BitReader, seg *Segmentation) error {
	enabled, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "segmentation_enabled")
	}
	seg.Enabled = enabled == 1
	if !seg.Enabled {
		return nil
	}

	updateMap, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "segmentation_update_map")
	}
	seg.UpdateMap = updateMap == 1
	if seg.UpdateMap {
		for i := 0; i < 7; i++ {
			present, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "segmentation_tree_probs")
			}
			if present == 1 {
				v, err := br.ReadBits(8)
				if err != nil {
					return errs.Field(err, "segmentation_tree_probs")
				}
				seg.TreeProbs[i] = uint8(v)
			} else {
				seg.TreeProbs[i] = 255
			}
		}
		temporalUpdate, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "segmentation_temporal_update")
		}
		for i := 0; i < 3; i++ {
			if temporalUpdate == 1 {
				present, err := br.ReadBits(1)
				if err != nil {
					return errs.Field(err, "segmentation_pred_prob")
				}
				if present == 1 {
					v, err := br.ReadBits(8)
					if err != nil {
						return errs.Field(err, "segmentation_pred_prob")
					}
					seg.PredProbs[i] = uint8(v)
					continue
				}
			}
			seg.PredProbs[i] = 255
		}
	}

	updateData, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "segmentation_update_data")
	}
	if updateData != 1 {
		return nil
	}
	absOrDelta, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "segmentation_abs_or_delta_update")
	}
	seg.AbsOrDeltaUpdate = absOrDelta == 1

	segFeatureBits := [4]int{8, 6, 2, 0}
	segFeatureSigned := [4]bool{true, true, false, false}
	for i := 0; i < 8; i++ {
		for j := 0; j < 4; j++ {
			present, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "feature_enabled")
			}
			seg.FeatureEnabled[i][j] = present == 1
			seg.FeatureData[i][j] = 0
			if present != 1 {
				continue
			}
			var v int
			if segFeatureBits[j] > 0 {
				raw, err := br.ReadBits(segFeatureBits[j])
				if err != nil {
					return errs.Field(err, "feature_value")
				}
				v = int(raw)
				if segFeatureSigned[j] {
					sign, err := br.ReadBits(1)
					if err != nil {
						return errs.Field(err, "feature_sign")
					}
					if sign == 1 {
						v = -v
					}
				}
			}
			seg.FeatureData[i][j] = v
		}
	}
	return nil
}

// minLog2TileCols and maxLog2TileCols implement the formulas of section
// 6.2.14, bounding the tile-column count relative to the superblock-column
// count.
func minLog2TileCols(sbCols int) int {
	minLog2 := 0
	for (64 << uint(minLog2)) < sbCols {
		minLog2++
	}
	return minLog2
}

func maxLog2TileCols(sbCols int) int {
	maxLog2 := 1
	for (sbCols >> uint(maxLog2)) >= 4 {
		maxLog2++
	}
	return maxLog2 - 1
}

func readTileInfo(br *bits.BitReader, fh *FrameHeader) error {
	sbCols := (fh.Width + 63) / 64
	if fh.Width <= 0 {
		sbCols = 0
	}
	minLog2 := minLog2TileCols(sbCols)
	maxLog2 := maxLog2TileCols(sbCols)
	if maxLog2 < minLog2 {
		maxLog2 = minLog2
	}

	log2Cols := minLog2
	for log2Cols < maxLog2 {
		more, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "increment_tile_cols_log2")
		}
		if more != 1 {
			break
		}
		log2Cols++
	}
	fh.Log2TileCols = log2Cols

	log2Rows, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "tile_rows_log2")
	}
	fh.Log2TileRows = int(log2Rows)
	if log2Rows == 1 {
		extra, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "tile_rows_log2")
		}
		fh.Log2TileRows += int(extra)
	}
	return nil
}
