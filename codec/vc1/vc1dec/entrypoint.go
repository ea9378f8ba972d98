/*
DESCRIPTION
  entrypoint.go parses the VC-1 Advanced profile entry-point header, the
  0x0000010E start-code-delimited unit that precedes a group of frames
  sharing coding parameters, per section 6.2 of SMPTE 421M.

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

// EntryPointHeader carries the coding parameters that hold for every frame
// until the next entry point, per section 6.2.
type EntryPointHeader struct {
	BrokenLink  bool
	ClosedEntry bool
	PanScanFlag bool
	RefDistFlag bool
	LoopFilter  bool
	FastUVMC    bool
	ExtendedMV  bool
	DquantMode  int
	VSTransform bool
	Overlap     bool
	Quantizer   int

	CodedWidth  int
	CodedHeight int
}

// ParseEntryPointHeader parses buf as an entry-point unit's RBDU payload,
// per section 6.2.
func ParseEntryPointHeader(buf []byte, seq *SequenceHeader) (*EntryPointHeader, error) {
	rbdu := toRBDU(buf)
	br := bits.NewReader(rbdu)
	eh := &EntryPointHeader{}

	broken, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "BROKEN_LINK")
	}
	eh.BrokenLink = broken == 1

	closed, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "CLOSED_ENTRY")
	}
	eh.ClosedEntry = closed == 1

	panscan, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "PANSCAN_FLAG")
	}
	eh.PanScanFlag = panscan == 1

	refdist, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "REFDIST_FLAG")
	}
	eh.RefDistFlag = refdist == 1

	loopfilter, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "LOOPFILTER")
	}
	eh.LoopFilter = loopfilter == 1

	fastuvmc, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "FASTUVMC")
	}
	eh.FastUVMC = fastuvmc == 1

	extmv, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "EXTENDED_MV")
	}
	eh.ExtendedMV = extmv == 1

	dquant, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "DQUANT")
	}
	eh.DquantMode = int(dquant)

	vst, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "VSTRANSFORM")
	}
	eh.VSTransform = vst == 1

	overlap, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "OVERLAP")
	}
	eh.Overlap = overlap == 1

	quantizer, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "QUANTIZER")
	}
	eh.Quantizer = int(quantizer)

	w, err := br.ReadBits(12)
	if err != nil {
		return nil, errs.Field(err, "CODED_WIDTH")
	}
	eh.CodedWidth = (int(w) + 1) * 2
	h, err := br.ReadBits(12)
	if err != nil {
		return nil, errs.Field(err, "CODED_HEIGHT")
	}
	eh.CodedHeight = (int(h) + 1) * 2

	return eh, nil
}
