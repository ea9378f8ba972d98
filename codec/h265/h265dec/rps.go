package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/rbsp"
)

// maxShortTermRefPicSets bounds the total ΔPOC entries per section 3: "the
// total number of ΔPOC entries is capped at 16".
const maxShortTermRefPicSets = 16

// ShortTermRPS is one st_ref_pic_set() entry, section 7.3.7, holding the
// derived DeltaPocS0/S1 and UsedByCurrPicS0/S1 arrays from section 7.4.8.
type ShortTermRPS struct {
	NumNegativePics int
	NumPositivePics int
	DeltaPocS0      []int
	UsedByCurrPicS0 []bool
	DeltaPocS1      []int
	UsedByCurrPicS1 []bool
}

// NumDeltaPocs is NumNegativePics + NumPositivePics, the total ΔPOC count.
func (r *ShortTermRPS) NumDeltaPocs() int { return r.NumNegativePics + r.NumPositivePics }

// ParseShortTermRPS parses st_ref_pic_set(stRpsIdx) per section 7.3.7. rpsList
// holds every RPS parsed so far in the enclosing SPS (needed for
// inter-RPS prediction), and numShortTermRefPicSets is sps_num_short_term_ref_pic_sets.
func ParseShortTermRPS(br *bits.BitReader, stRpsIdx int, rpsList []*ShortTermRPS, numShortTermRefPicSets int) (*ShortTermRPS, error) {
	r := &ShortTermRPS{}

	interRPSPredictionFlag := false
	if stRpsIdx != 0 {
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "inter_ref_pic_set_prediction_flag")
		}
		interRPSPredictionFlag = b == 1
	}

	if interRPSPredictionFlag {
		deltaIdxMinus1 := 0
		if stRpsIdx == numShortTermRefPicSets {
			v, err := rbsp.ReadUE(br)
			if err != nil {
				return nil, errs.Field(err, "delta_idx_minus1")
			}
			deltaIdxMinus1 = int(v)
		}
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "delta_rps_sign")
		}
		sign := 1
		if b == 1 {
			sign = -1
		}
		absDeltaMinus1, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "abs_delta_rps_minus1")
		}
		deltaRPS := sign * (int(absDeltaMinus1) + 1)

		refIdx := stRpsIdx - (deltaIdxMinus1 + 1)
		if refIdx < 0 || refIdx >= len(rpsList) || rpsList[refIdx] == nil {
			return nil, errs.New(errs.KindInvalidData, "inter_ref_pic_set_prediction_flag referenced an unparsed RPS")
		}
		ref := rpsList[refIdx]
		numDeltaPocsRef := ref.NumDeltaPocs()

		usedByCurrPicFlag := make([]bool, numDeltaPocsRef+1)
		useDeltaFlag := make([]bool, numDeltaPocsRef+1)
		for j := 0; j <= numDeltaPocsRef; j++ {
			useDeltaFlag[j] = true
			b, err := br.ReadBits(1)
			if err != nil {
				return nil, errs.Field(err, "used_by_curr_pic_flag")
			}
			usedByCurrPicFlag[j] = b == 1
			if !usedByCurrPicFlag[j] {
				b, err := br.ReadBits(1)
				if err != nil {
					return nil, errs.Field(err, "use_delta_flag")
				}
				useDeltaFlag[j] = b == 1
			}
		}

		// Derive DeltaPocS0/S1 per the accumulation order in section 7.4.8:
		// S0 walks the reference RPS's positive subset in reverse, then
		// deltaRPS itself, then the reference's negative subset in order; S1
		// walks the reference's negative subset in reverse, then deltaRPS,
		// then the reference's positive subset in order.
		refDeltaPocS1 := ref.DeltaPocS1
		refDeltaPocS0 := ref.DeltaPocS0

		var s0, s1 []int
		var used0, used1 []bool
		for j := ref.NumPositivePics - 1; j >= 0; j-- {
			dPoc := refDeltaPocS1[j] + deltaRPS
			if dPoc < 0 && useDeltaFlag[ref.NumNegativePics+j] {
				s0 = append(s0, dPoc)
				used0 = append(used0, usedByCurrPicFlag[ref.NumNegativePics+j])
			}
		}
		if deltaRPS < 0 && useDeltaFlag[numDeltaPocsRef] {
			s0 = append(s0, deltaRPS)
			used0 = append(used0, usedByCurrPicFlag[numDeltaPocsRef])
		}
		for j := 0; j < ref.NumNegativePics; j++ {
			dPoc := refDeltaPocS0[j] + deltaRPS
			if dPoc < 0 && useDeltaFlag[j] {
				s0 = append(s0, dPoc)
				used0 = append(used0, usedByCurrPicFlag[j])
			}
		}

		for j := ref.NumNegativePics - 1; j >= 0; j-- {
			dPoc := refDeltaPocS0[j] + deltaRPS
			if dPoc > 0 && useDeltaFlag[j] {
				s1 = append(s1, dPoc)
				used1 = append(used1, usedByCurrPicFlag[j])
			}
		}
		if deltaRPS > 0 && useDeltaFlag[numDeltaPocsRef] {
			s1 = append(s1, deltaRPS)
			used1 = append(used1, usedByCurrPicFlag[numDeltaPocsRef])
		}
		for j := 0; j < ref.NumPositivePics; j++ {
			dPoc := refDeltaPocS1[j] + deltaRPS
			if dPoc > 0 && useDeltaFlag[ref.NumNegativePics+j] {
				s1 = append(s1, dPoc)
				used1 = append(used1, usedByCurrPicFlag[ref.NumNegativePics+j])
			}
		}

		r.DeltaPocS0, r.UsedByCurrPicS0 = s0, used0
		r.DeltaPocS1, r.UsedByCurrPicS1 = s1, used1
		r.NumNegativePics = len(s0)
		r.NumPositivePics = len(s1)
		return r, nil
	}

	numNeg, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "num_negative_pics")
	}
	numPos, err := rbsp.ReadUE(br)
	if err != nil {
		return nil, errs.Field(err, "num_positive_pics")
	}
	r.NumNegativePics = int(numNeg)
	r.NumPositivePics = int(numPos)
	if r.NumNegativePics+r.NumPositivePics > maxShortTermRefPicSets {
		return nil, errs.New(errs.KindOutOfRange, "short-term RPS delta POC count exceeds 16")
	}

	r.DeltaPocS0 = make([]int, r.NumNegativePics)
	r.UsedByCurrPicS0 = make([]bool, r.NumNegativePics)
	poc := 0
	for i := 0; i < r.NumNegativePics; i++ {
		deltaMinus1, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "delta_poc_s0_minus1")
		}
		poc -= int(deltaMinus1) + 1
		r.DeltaPocS0[i] = poc
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "used_by_curr_pic_s0_flag")
		}
		r.UsedByCurrPicS0[i] = b == 1
	}

	r.DeltaPocS1 = make([]int, r.NumPositivePics)
	r.UsedByCurrPicS1 = make([]bool, r.NumPositivePics)
	poc = 0
	for i := 0; i < r.NumPositivePics; i++ {
		deltaMinus1, err := rbsp.ReadUE(br)
		if err != nil {
			return nil, errs.Field(err, "delta_poc_s1_minus1")
		}
		poc += int(deltaMinus1) + 1
		r.DeltaPocS1[i] = poc
		b, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "used_by_curr_pic_s1_flag")
		}
		r.UsedByCurrPicS1[i] = b == 1
	}
	return r, nil
}

// NumPicTotalCurr sums the used-by-current flags in st across both subsets
// plus the long-term used-by-current flags, per section 4.5.
func NumPicTotalCurr(st *ShortTermRPS, ltUsedByCurr []bool) int {
	n := 0
	if st != nil {
		for _, u := range st.UsedByCurrPicS0 {
			if u {
				n++
			}
		}
		for _, u := range st.UsedByCurrPicS1 {
			if u {
				n++
			}
		}
	}
	for _, u := range ltUsedByCurr {
		if u {
			n++
		}
	}
	return n
}
