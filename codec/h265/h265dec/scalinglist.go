package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/rbsp"
)

// ScalingListData holds the four size classes described in section 3:
// 4x4, 8x8, 16x16 and 32x32, each with 6 matrices (2 for 32x32, matrixId 0
// and 3 of Table 7-3), plus DC values for the 16x16 and 32x32 classes.
type ScalingListData struct {
	List4x4  [6][16]int
	List8x8  [6][64]int
	List16x16 [6][64]int
	List32x32 [2][64]int
	DC16x16  [6]int
	DC32x32  [2]int
}

// numMatrices returns the matrixId count for sizeId, per Table 7-3: 6 for
// sizeId 0-2, 2 for sizeId 3 (only matrixId 0 and 3, i.e. luma and one
// representative chroma intra/inter pair, are signalled for 32x32).
func numMatrices(sizeID int) int {
	if sizeID == 3 {
		return 2
	}
	return 6
}

// defaultScalingList4x4 returns the default 4x4 (sizeId 0) scaling list used
// when scaling_list_pred_matrix_id_delta is 0, per section 7.4.5: every entry
// is 16. The larger sizes use default8x8Intra/default8x8Inter below, via
// defaultScalingListLarge.
func defaultScalingList4x4() [16]int {
	var l [16]int
	for i := range l {
		l[i] = 16
	}
	return l
}

var default8x8Intra = [64]int{
	16, 16, 16, 16, 17, 18, 21, 24,
	16, 16, 16, 16, 17, 19, 22, 25,
	16, 16, 17, 18, 20, 22, 25, 29,
	16, 16, 18, 21, 24, 27, 31, 36,
	17, 17, 20, 24, 30, 35, 41, 47,
	18, 19, 22, 27, 35, 44, 54, 65,
	21, 22, 25, 31, 41, 54, 70, 88,
	24, 25, 29, 36, 47, 65, 88, 115,
}

var default8x8Inter = [64]int{
	16, 16, 16, 16, 17, 18, 20, 24,
	16, 16, 16, 17, 18, 20, 24, 25,
	16, 16, 17, 18, 20, 24, 25, 28,
	16, 17, 18, 20, 24, 25, 28, 33,
	17, 18, 20, 24, 25, 28, 33, 41,
	18, 20, 24, 25, 28, 33, 41, 54,
	20, 24, 25, 28, 33, 41, 54, 71,
	24, 25, 28, 33, 41, 54, 71, 91,
}

// defaultScalingListLarge returns the Annex B default for sizeId 1..3,
// matrixId determining intra (0-2) vs inter (3-5 or, for sizeId 3, matrixId 1).
func defaultScalingListLarge(matrixID int, sizeID int) [64]int {
	intra := matrixID < numMatrices(sizeID)/2
	if intra {
		return default8x8Intra
	}
	return default8x8Inter
}

// ParseScalingListData parses scaling_list_data(), section 7.3.4, following
// 7.3.4/7.4.5's prediction and delta-scale derivation (shared in form with
// the H.264 scaling-list decoder in h264dec/sps.go, section 7.3.2.1.1.1).
func ParseScalingListData(br *bits.BitReader) (*ScalingListData, error) {
	s := &ScalingListData{}
	for sizeID := 0; sizeID < 4; sizeID++ {
		for matrixID := 0; matrixID < numMatrices(sizeID); matrixID++ {
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, errs.Field(err, "scaling_list_pred_mode_flag")
			}
			predModeFlag := b == 1

			if !predModeFlag {
				deltaRefMinus1, err := rbsp.ReadUE(br)
				if err != nil {
					return nil, errs.Field(err, "scaling_list_pred_matrix_id_delta")
				}
				if deltaRefMinus1 == 0 {
					setDefault(s, sizeID, matrixID)
					continue
				}
				// matrixID indexes the stored matrices; for sizeId 3 that index
				// is matrixId/3, so the step of 3 in matrixId is a step of 1 here.
				refMatrixID := matrixID - int(deltaRefMinus1)
				copyFromMatrix(s, sizeID, matrixID, refMatrixID)
				continue
			}

			coefNum := 16
			if sizeID > 0 {
				coefNum = 64
			}
			nextCoef := 8
			if sizeID > 1 {
				dcMinus8, err := rbsp.ReadSE(br)
				if err != nil {
					return nil, errs.Field(err, "scaling_list_dc_coef_minus8")
				}
				nextCoef = dcMinus8 + 8
				setDC(s, sizeID, matrixID, nextCoef)
			}
			vals := make([]int, coefNum)
			for i := 0; i < coefNum; i++ {
				deltaScale, err := rbsp.ReadSE(br)
				if err != nil {
					return nil, errs.Field(err, "scaling_list_delta_coef")
				}
				if deltaScale < -128 || deltaScale > 127 {
					return nil, errs.New(errs.KindOutOfRange, "scaling_list_delta_coef out of [-128,127]")
				}
				nextCoef = (nextCoef + deltaScale + 256) % 256
				vals[i] = nextCoef
			}
			setList(s, sizeID, matrixID, vals)
		}
	}
	return s, nil
}

// matrixIDStep is the step by which sizeId==3 matrix ids differ (3, per the
// "matrixId − delta × (sizeId == 3 ? 3 : 1)" rule in section 3).
func matrixIDStep(sizeID int) int {
	if sizeID == 3 {
		return 3
	}
	return 1
}

func setDefault(s *ScalingListData, sizeID, matrixID int) {
	switch sizeID {
	case 0:
		s.List4x4[matrixID] = defaultScalingList4x4()
	case 1:
		s.List8x8[matrixID] = defaultScalingListLarge(matrixID, sizeID)
	case 2:
		s.List16x16[matrixID] = defaultScalingListLarge(matrixID, sizeID)
		s.DC16x16[matrixID] = 16
	case 3:
		s.List32x32[matrixID] = defaultScalingListLarge(matrixID, sizeID)
		s.DC32x32[matrixID] = 16
	}
}

func copyFromMatrix(s *ScalingListData, sizeID, matrixID, refMatrixID int) {
	switch sizeID {
	case 0:
		s.List4x4[matrixID] = s.List4x4[refMatrixID]
	case 1:
		s.List8x8[matrixID] = s.List8x8[refMatrixID]
	case 2:
		s.List16x16[matrixID] = s.List16x16[refMatrixID]
		s.DC16x16[matrixID] = s.DC16x16[refMatrixID]
	case 3:
		s.List32x32[matrixID] = s.List32x32[refMatrixID]
		s.DC32x32[matrixID] = s.DC32x32[refMatrixID]
	}
}

func setDC(s *ScalingListData, sizeID, matrixID, dc int) {
	if sizeID == 2 {
		s.DC16x16[matrixID] = dc
	} else if sizeID == 3 {
		s.DC32x32[matrixID] = dc
	}
}

func setList(s *ScalingListData, sizeID, matrixID int, vals []int) {
	switch sizeID {
	case 0:
		copy(s.List4x4[matrixID][:], vals)
	case 1:
		copy(s.List8x8[matrixID][:], vals)
	case 2:
		copy(s.List16x16[matrixID][:], vals)
	case 3:
		copy(s.List32x32[matrixID][:], vals)
	}
}

// DefaultScalingListData returns the codec-mandated defaults (16 for all
// 4x4 entries, the Annex B curves for 8x8/16x16/32x32), used when
// scaling_list_enabled_flag is set but neither the SPS nor PPS carries
// explicit scaling_list_data, per the testable property in section 8.
func DefaultScalingListData() *ScalingListData {
	s := &ScalingListData{}
	for m := 0; m < 6; m++ {
		s.List4x4[m] = defaultScalingList4x4()
		s.List8x8[m] = defaultScalingListLarge(m, 1)
		s.List16x16[m] = defaultScalingListLarge(m, 2)
		s.DC16x16[m] = 16
	}
	for m := 0; m < 2; m++ {
		s.List32x32[m] = defaultScalingListLarge(m, 3)
		s.DC32x32[m] = 16
	}
	return s
}
