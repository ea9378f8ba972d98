/*
DESCRIPTION
  sequence.go parses the VC-1 sequence header, both the raw Simple/Main
  profile form (Annex J) and the start-code-delimited Advanced profile form
  (Annex E), per section 6.1 and table 16 of SMPTE 421M.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vc1dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
)

// Profile identifies the VC-1 profile carried by PROFILE in the sequence
// header, per table 17.
const (
	ProfileSimple   = 0
	ProfileMain     = 1
	ProfileAdvanced = 3
)

// SequenceHeader holds the fields common to all three profiles plus the
// profile-specific ones, with the inapplicable fields left zero.
type SequenceHeader struct {
	Profile int

	// Simple/Main profile fields (Annex J).
	Level        int
	LoopFilter   bool
	Multires     bool
	FastUVMC     bool
	ExtendedMV   bool
	DquantMode   int
	VSTransform  bool
	Overlap      bool
	SyncMarker   bool
	RangeRed     bool
	MaxBFrames   int
	Quantizer    int

	// Advanced profile fields (section 6.1.1).
	ColorDiffFormat int
	MaxCodedWidth   int
	MaxCodedHeight  int
	Pulldown        bool
	Interlace       bool
	TFCntrFlag      bool
	FInterpFlag     bool
	PSF             bool
	DisplayExtension bool
	DisplayWidth    int
	DisplayHeight   int
}

// ParseSequenceHeader parses a Simple or Main profile raw sequence header,
// per Annex J.1. Advanced profile sequence headers use
// ParseAdvancedSequenceHeader instead, since their layout diverges after
// the shared 2-bit PROFILE field.
func ParseSequenceHeader(buf []byte) (*SequenceHeader, error) {
	br := bits.NewReader(buf)
	sh := &SequenceHeader{}

	profile, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "PROFILE")
	}
	sh.Profile = int(profile)
	if sh.Profile == ProfileAdvanced {
		return nil, errs.New(errs.KindInvalidData, "advanced profile sequence header must use start-code form")
	}

	level, err := br.ReadBits(3)
	if err != nil {
		return nil, errs.Field(err, "LEVEL")
	}
	sh.Level = int(level)

	if _, err := br.ReadBits(2); err != nil { // CHROMAFORMAT
		return nil, errs.Field(err, "CHROMAFORMAT")
	}

	if _, err := br.ReadBits(3); err != nil { // FRMRTQ_POSTPROC
		return nil, errs.Field(err, "FRMRTQ_POSTPROC")
	}
	if _, err := br.ReadBits(5); err != nil { // BITRTQ_POSTPROC
		return nil, errs.Field(err, "BITRTQ_POSTPROC")
	}

	lf, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "LOOPFILTER")
	}
	sh.LoopFilter = lf == 1

	if _, err := br.ReadBits(1); err != nil { // RESERVED
		return nil, errs.Field(err, "RESERVED")
	}

	multires, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "MULTIRES")
	}
	sh.Multires = multires == 1

	if _, err := br.ReadBits(1); err != nil { // RESERVED
		return nil, errs.Field(err, "RESERVED")
	}

	fastuvmc, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "FASTUVMC")
	}
	sh.FastUVMC = fastuvmc == 1

	extmv, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "EXTENDED_MV")
	}
	sh.ExtendedMV = extmv == 1

	dquant, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "DQUANT")
	}
	sh.DquantMode = int(dquant)

	vst, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "VSTRANSFORM")
	}
	sh.VSTransform = vst == 1

	if _, err := br.ReadBits(1); err != nil { // RESERVED
		return nil, errs.Field(err, "RESERVED")
	}

	overlap, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "OVERLAP")
	}
	sh.Overlap = overlap == 1

	sync, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "SYNCMARKER")
	}
	sh.SyncMarker = sync == 1

	rangered, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "RANGERED")
	}
	sh.RangeRed = rangered == 1

	maxb, err := br.ReadBits(3)
	if err != nil {
		return nil, errs.Field(err, "MAXBFRAMES")
	}
	sh.MaxBFrames = int(maxb)

	q, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "QUANTIZER")
	}
	sh.Quantizer = int(q)

	return sh, nil
}

// ParseAdvancedSequenceHeader parses an Advanced profile sequence header
// carried in a start-code-prefixed unit (0x0000010F), per section 6.1.1.
func ParseAdvancedSequenceHeader(buf []byte) (*SequenceHeader, error) {
	rbdu := toRBDU(buf)
	br := bits.NewReader(rbdu)
	sh := &SequenceHeader{}

	profile, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "PROFILE")
	}
	sh.Profile = int(profile)

	level, err := br.ReadBits(3)
	if err != nil {
		return nil, errs.Field(err, "LEVEL")
	}
	sh.Level = int(level)

	cdf, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "COLORDIFF_FORMAT")
	}
	sh.ColorDiffFormat = int(cdf)

	w, err := br.ReadBits(12)
	if err != nil {
		return nil, errs.Field(err, "MAX_CODED_WIDTH")
	}
	sh.MaxCodedWidth = (int(w) + 1) * 2

	h, err := br.ReadBits(12)
	if err != nil {
		return nil, errs.Field(err, "MAX_CODED_HEIGHT")
	}
	sh.MaxCodedHeight = (int(h) + 1) * 2

	pulldown, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "PULLDOWN")
	}
	sh.Pulldown = pulldown == 1

	interlace, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "INTERLACE")
	}
	sh.Interlace = interlace == 1

	tfcntr, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "TFCNTRFLAG")
	}
	sh.TFCntrFlag = tfcntr == 1

	finterp, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "FINTERPFLAG")
	}
	sh.FInterpFlag = finterp == 1

	if _, err := br.ReadBits(1); err != nil { // RESERVED
		return nil, errs.Field(err, "RESERVED")
	}

	psf, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "PSF")
	}
	sh.PSF = psf == 1

	dispExt, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "DISPLAY_EXT")
	}
	sh.DisplayExtension = dispExt == 1
	if sh.DisplayExtension {
		dw, err := br.ReadBits(14)
		if err != nil {
			return nil, errs.Field(err, "DISP_HORIZ_SIZE")
		}
		sh.DisplayWidth = int(dw) + 1
		dh, err := br.ReadBits(14)
		if err != nil {
			return nil, errs.Field(err, "DISP_VERT_SIZE")
		}
		sh.DisplayHeight = int(dh) + 1

		aspectFlag, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "ASPECT_RATIO_FLAG")
		}
		if aspectFlag == 1 {
			ratio, err := br.ReadBits(4)
			if err != nil {
				return nil, errs.Field(err, "ASPECT_RATIO")
			}
			if ratio == 15 { // EXTENDED_PAR: explicit numerator/denominator follow.
				if _, err := br.ReadBits(8); err != nil {
					return nil, errs.Field(err, "ASPECT_HORIZ_SIZE")
				}
				if _, err := br.ReadBits(8); err != nil {
					return nil, errs.Field(err, "ASPECT_VERT_SIZE")
				}
			}
		}

		frameRateFlag, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "FRAMERATE_FLAG")
		}
		if frameRateFlag == 1 {
			frameRateInd, err := br.ReadBits(1)
			if err != nil {
				return nil, errs.Field(err, "FRAMERATEIND")
			}
			if frameRateInd == 0 {
				if _, err := br.ReadBits(8); err != nil { // FRAMERATENR
					return nil, errs.Field(err, "FRAMERATENR")
				}
				if _, err := br.ReadBits(4); err != nil { // FRAMERATEDR
					return nil, errs.Field(err, "FRAMERATEDR")
				}
			} else {
				if _, err := br.ReadBits(16); err != nil { // FRAMERATEEXP
					return nil, errs.Field(err, "FRAMERATEEXP")
				}
			}
		}
	}

	colorFormatFlag, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "COLOR_FORMAT_FLAG")
	}
	if colorFormatFlag == 1 {
		if _, err := br.ReadBits(8); err != nil { // COLOR_PRIM
			return nil, errs.Field(err, "COLOR_PRIM")
		}
		if _, err := br.ReadBits(8); err != nil { // TRANSFER_CHAR
			return nil, errs.Field(err, "TRANSFER_CHAR")
		}
		if _, err := br.ReadBits(8); err != nil { // MATRIX_COEF
			return nil, errs.Field(err, "MATRIX_COEF")
		}
	}

	hrdParamFlag, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "HRD_PARAM_FLAG")
	}
	if hrdParamFlag == 1 {
		numFrames, err := br.ReadBits(5)
		if err != nil {
			return nil, errs.Field(err, "HRD_NUM_LEAKY_BUCKETS")
		}
		for i := 0; i < int(numFrames); i++ {
			if _, err := br.ReadBits(8); err != nil {
				return nil, errs.Field(err, "HRD_RATE")
			}
			if _, err := br.ReadBits(8); err != nil {
				return nil, errs.Field(err, "HRD_BUFFER")
			}
		}
	}

	return sh, nil
}
