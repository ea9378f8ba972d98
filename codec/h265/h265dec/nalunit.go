/*
DESCRIPTION
  nalunit.go provides NAL unit header parsing for H.265 (HEVC), per section
  7.3.1.2 of ITU-T H.265.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h265dec provides a decoder for H.265 (HEVC) bitstreams: VPS/SPS/PPS
// and slice-segment-header parsing, short-term reference picture sets and
// scaling-list derivation, per ITU-T H.265.
package h265dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
)

// NAL unit types relevant to this parser, per Table 7-1.
const (
	NALTrailN    = 0
	NALTrailR    = 1
	NALTSAN      = 2
	NALTSAR      = 3
	NALStsaN     = 4
	NALBlaWLP    = 16
	NALBlaWRadl  = 17
	NALBlaNLp    = 18
	NALIdrWRadl  = 19
	NALIdrNLp    = 20
	NALCraNut    = 21
	NALVPS       = 32
	NALSPS       = 33
	NALPPS       = 34
	NALAud       = 35
	NALEOS       = 36
	NALEOB       = 37
	NALFillerD   = 38
	NALPrefixSEI = 39
	NALSuffixSEI = 40
)

// IsIRAP reports whether nalType is an intra random access point picture,
// per the definition in section 3 (NALBlaWLP..NALCraNut cover the IRAP
// range, 16 through 23).
func IsIRAP(nalType int) bool { return nalType >= 16 && nalType <= 23 }

// IsIDR reports whether nalType is an IDR picture.
func IsIDR(nalType int) bool { return nalType == NALIdrWRadl || nalType == NALIdrNLp }

// IsSlice reports whether nalType carries a slice segment (VCL NAL unit),
// per Table 7-1: types 0-31.
func IsSlice(nalType int) bool { return nalType >= 0 && nalType <= 31 }

// NALUnit is the parsed NAL unit header, plus the RBSP payload with
// emulation prevention bytes stripped per section 7.3.1.1.
type NALUnit struct {
	Type          int
	LayerID       int
	TemporalIDPlus1 int
	RBSP          []byte
	EPBCount      int
}

// NewNALUnit parses the two-byte nal_unit_header from ebsp (the encapsulated
// payload, header included and start code excluded) and strips emulation prevention
// bytes from the remainder.
func NewNALUnit(ebsp []byte) (*NALUnit, error) {
	if len(ebsp) < 2 {
		return nil, errs.New(errs.KindShortRead, "nal unit shorter than its header")
	}
	br := bits.NewReader(ebsp)
	if _, err := br.ReadBits(1); err != nil { // forbidden_zero_bit
		return nil, errs.Field(err, "forbidden_zero_bit")
	}
	typ, err := br.ReadBits(6)
	if err != nil {
		return nil, errs.Field(err, "nal_unit_type")
	}
	layer, err := br.ReadBits(6)
	if err != nil {
		return nil, errs.Field(err, "nuh_layer_id")
	}
	tid, err := br.ReadBits(3)
	if err != nil {
		return nil, errs.Field(err, "nuh_temporal_id_plus1")
	}
	n := &NALUnit{Type: int(typ), LayerID: int(layer), TemporalIDPlus1: int(tid)}
	n.RBSP, n.EPBCount = stripEPB(ebsp[2:])
	return n, nil
}

// stripEPB removes emulation_prevention_three_byte occurrences, sharing the
// algorithm rbsp.ToRBSP implements for H.264 (section 7.4.1 of H.265 is
// identical in substance).
func stripEPB(ebsp []byte) ([]byte, int) {
	out := make([]byte, 0, len(ebsp))
	zeros := 0
	count := 0
	for i := 0; i < len(ebsp); i++ {
		b := ebsp[i]
		if zeros >= 2 && b == 0x03 && i+1 < len(ebsp) && ebsp[i+1] <= 0x03 {
			count++
			zeros = 0
			continue
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out, count
}
