/*
DESCRIPTION
  header.go parses the VP8 compressed-partition frame header: colour-space,
  segmentation, loop filter, partition count, quantisation indices, reference
  refresh flags and entropy probability updates, per sections 9.2-9.11 of
  RFC 6386.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vp8dec

import "github.com/ausocean/vidcore/boolcoder"

// Segmentation is the segment-based adjustment state of section 9.3.
type Segmentation struct {
	Enabled       bool
	UpdateMap     bool
	UpdateData    bool
	AbsValues     bool
	QuantizerUpdate [4]int8
	LoopFilterUpdate [4]int8
	TreeProbs     [3]uint8
}

// LoopFilter is the deblocking-filter configuration of section 9.4.
type LoopFilter struct {
	Simple          bool
	Level           int
	SharpnessLevel  int
	DeltaEnabled    bool
	DeltaUpdate     bool
	RefFrameDelta   [4]int8
	ModeDelta       [4]int8
}

// Quantization is the base quantizer index y_ac_qi and the five
// quantiser-index deltas of section 9.6, applied relative to it.
type Quantization struct {
	YACQI        int
	YDCDelta     int
	Y2DCDelta    int
	Y2ACDelta    int
	UVDCDelta    int
	UVACDelta    int
}

// EntropyHeader groups the probability-update results of sections 9.9-9.11:
// this core counts how many coefficient and motion-vector probabilities
// were updated, but keeps neither the updated values nor which of the 1056
// coefficient probabilities changed; those are left to the accelerator.
type EntropyHeader struct {
	CoeffUpdateCount  int
	MVUpdateCount     int
	RefreshEntropyProbs bool
}

// FrameHeader is the full VP8 compressed first-partition header, sections
// 9.2-9.11.
type FrameHeader struct {
	ColorSpace    int
	ClampingType  int

	Segmentation Segmentation
	FilterType   int // 0 = normal, 1 = simple, mirrors LoopFilter.Simple.
	LoopFilter   LoopFilter

	Log2NbrPartitions int

	Quant Quantization

	RefreshGolden    bool
	RefreshAltRef    bool
	CopyBufferToGolden int
	CopyBufferToAltRef int
	SignBiasGolden   bool
	SignBiasAltRef   bool

	RefreshEntropy bool
	RefreshLast    bool

	Entropy EntropyHeader
}

// ParseFrameHeader reads the compressed first-partition header through bc,
// a Boolean decoder over the first partition, which already excludes the 3- or 10-byte
// uncompressed frame tag (plus key-frame dimension fields).
func ParseFrameHeader(bc *boolcoder.Decoder, keyFrame bool) *FrameHeader {
	fh := &FrameHeader{}

	if keyFrame {
		fh.ColorSpace = int(bc.ReadLiteral(1))
		fh.ClampingType = int(bc.ReadLiteral(1))
	}

	fh.Segmentation = parseSegmentation(bc)
	fh.LoopFilter = parseLoopFilter(bc)
	if fh.LoopFilter.Simple {
		fh.FilterType = 1
	}

	nParts := bc.ReadLiteral(2)
	fh.Log2NbrPartitions = int(nParts)

	fh.Quant = parseQuantIndices(bc)

	if !keyFrame {
		fh.RefreshGolden = bc.ReadFlag()
		fh.RefreshAltRef = bc.ReadFlag()
		if !fh.RefreshGolden {
			fh.CopyBufferToGolden = int(bc.ReadLiteral(2))
		}
		if !fh.RefreshAltRef {
			fh.CopyBufferToAltRef = int(bc.ReadLiteral(2))
		}
		fh.SignBiasGolden = bc.ReadFlag()
		fh.SignBiasAltRef = bc.ReadFlag()
	} else {
		fh.RefreshGolden = true
		fh.RefreshAltRef = true
	}

	fh.RefreshEntropy = bc.ReadFlag()
	if !keyFrame {
		fh.RefreshLast = bc.ReadFlag()
	} else {
		fh.RefreshLast = true
	}

	fh.Entropy = parseEntropyHeader(bc, keyFrame)

	return fh
}

func parseSegmentation(bc *boolcoder.Decoder) Segmentation {
	var s Segmentation
	s.Enabled = bc.ReadFlag()
	if !s.Enabled {
		return s
	}
	s.UpdateMap = bc.ReadFlag()
	s.UpdateData = bc.ReadFlag()
	if s.UpdateData {
		s.AbsValues = bc.ReadFlag()
		for i := 0; i < 4; i++ {
			if present, v := bc.ReadOptionalSigned(7); present {
				s.QuantizerUpdate[i] = int8(v)
			}
		}
		for i := 0; i < 4; i++ {
			if present, v := bc.ReadOptionalSigned(6); present {
				s.LoopFilterUpdate[i] = int8(v)
			}
		}
	}
	if s.UpdateMap {
		for i := 0; i < 3; i++ {
			if bc.ReadFlag() {
				s.TreeProbs[i] = uint8(bc.ReadLiteral(8))
			} else {
				s.TreeProbs[i] = 255
			}
		}
	}
	return s
}

func parseLoopFilter(bc *boolcoder.Decoder) LoopFilter {
	var lf LoopFilter
	lf.Simple = bc.ReadFlag()
	lf.Level = int(bc.ReadLiteral(6))
	lf.SharpnessLevel = int(bc.ReadLiteral(3))
	lf.DeltaEnabled = bc.ReadFlag()
	if lf.DeltaEnabled {
		lf.DeltaUpdate = bc.ReadFlag()
		if lf.DeltaUpdate {
			for i := 0; i < 4; i++ {
				if present, v := bc.ReadOptionalSigned(6); present {
					lf.RefFrameDelta[i] = int8(v)
				}
			}
			for i := 0; i < 4; i++ {
				if present, v := bc.ReadOptionalSigned(6); present {
					lf.ModeDelta[i] = int8(v)
				}
			}
		}
	}
	return lf
}

func parseQuantIndices(bc *boolcoder.Decoder) Quantization {
	var q Quantization
	q.YACQI = int(bc.ReadLiteral(7))
	q.YDCDelta = readQuantDelta(bc)
	q.Y2DCDelta = readQuantDelta(bc)
	q.Y2ACDelta = readQuantDelta(bc)
	q.UVDCDelta = readQuantDelta(bc)
	q.UVACDelta = readQuantDelta(bc)
	return q
}

func readQuantDelta(bc *boolcoder.Decoder) int {
	_, v := bc.ReadOptionalSigned(4)
	return int(v)
}

// parseEntropyHeader consumes the coefficient-probability, y/uv intra-mode
// (inter frames only) and mv probability update loops, counting how many of
// each were actually refreshed rather than retaining the full tree, per this
// core's scope of emitting header descriptors rather than driving pixel
// reconstruction.
func parseEntropyHeader(bc *boolcoder.Decoder, keyFrame bool) EntropyHeader {
	var e EntropyHeader

	const (
		blockTypes = 4
		coefBands  = 8
		prevCoefCtx = 3
		entropyNodes = 11
	)
	for i := 0; i < blockTypes; i++ {
		for j := 0; j < coefBands; j++ {
			for k := 0; k < prevCoefCtx; k++ {
				for t := 0; t < entropyNodes; t++ {
					if bc.ReadBool(coeffUpdateProbs[i][j][k][t]) == 1 {
						bc.ReadLiteral(8)
						e.CoeffUpdateCount++
					}
				}
			}
		}
	}

	e.RefreshEntropyProbs = bc.ReadFlag()

	if !keyFrame {
		for i := 0; i < 4; i++ {
			if bc.ReadFlag() {
				bc.ReadLiteral(8)
			}
		}
		for i := 0; i < 3; i++ {
			if bc.ReadFlag() {
				bc.ReadLiteral(8)
			}
		}
		for i := 0; i < 2; i++ {
			for j := 0; j < 19; j++ {
				if bc.ReadBool(mvUpdateProbs[i][j]) == 1 {
					p := bc.ReadLiteral(7)
					if p != 0 {
						e.MVUpdateCount++
					}
				}
			}
		}
	}

	return e
}
