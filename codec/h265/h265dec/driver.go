/*
DESCRIPTION
  driver.go drives H.265 (HEVC) Annex B byte-stream parsing: NAL unit
  splitting, VPS/SPS/PPS table maintenance, slice-segment-header parsing,
  picture order count derivation and decoded-picture-buffer management.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h265dec

import (
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/pset"
	"github.com/ausocean/vidcore/registry"
)

func init() {
	registry.Register("video/h265", func() registry.Parser { return NewDecoder(nil) })
}

// stream tracks the picture-order-count state for one coded video sequence,
// reset whenever an IDR or a CRA with NoRaslOutputFlag begins a new one, per
// section 8.3.1.
type stream struct {
	VPS *VPS
	SPS *SPS
	PPS *PPS

	prevPicOrderCntLsb int
	prevPicOrderCntMsb int
	firstPicInSeq      bool

	dpb *DPB
}

// Decoder drives H.265 Annex B byte-stream parsing.
type Decoder struct {
	Log     logging.Logger
	streams []*stream

	VPSTable *pset.Table[VPS]
	SPSTable *pset.Table[SPS]
	PPSTable *pset.Table[PPS]
}

// NewDecoder returns a Decoder that logs through log, which may be nil.
func NewDecoder(log logging.Logger) *Decoder {
	return &Decoder{
		Log:      log,
		VPSTable: pset.NewTable[VPS](),
		SPSTable: pset.NewTable[SPS](),
		PPSTable: pset.NewTable[PPS](),
	}
}

// Codec reports the MIME type this Decoder parses, satisfying
// registry.Parser so it can be registered under "video/h265".
func (d *Decoder) Codec() string { return "video/h265" }

// CurrentSPS returns the SPS of the most recently started stream, or nil.
func (d *Decoder) CurrentSPS() *SPS {
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1].SPS
}

// CurrentPPS returns the PPS of the most recently started stream, or nil.
func (d *Decoder) CurrentPPS() *PPS {
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1].PPS
}

// Flush emits remaining output-pending pictures from the current stream's
// DPB, per the flush() contract.
func (d *Decoder) Flush() []common.POC {
	s, err := d.currentStream()
	if err != nil || s.dpb == nil {
		return nil
	}
	s.dpb.Flush()
	out := s.dpb.Output
	s.dpb.Output = nil
	return out
}

// Reset discards every parsed stream and parameter-set table entry.
func (d *Decoder) Reset() {
	d.streams = nil
	d.VPSTable.Reset()
	d.SPSTable.Reset()
	d.PPSTable.Reset()
}

// Decode splits buf into NAL units and parses each one, returning the status
// of the last unit decoded.
func (d *Decoder) Decode(buf []byte, ts common.Timestamp) (common.Status, error) {
	units := splitNALUnits(buf)
	if len(units) == 0 {
		return common.StatusShortRead, errs.ErrShortRead
	}

	status := common.StatusOK
	for _, ebsp := range units {
		s, err := d.decodeOne(ebsp)
		if err != nil {
			if d.Log != nil {
				d.Log.Debug("NAL unit parse error", "error", err.Error())
			}
			status = s
			continue
		}
		status = s
	}
	return status, nil
}

func (d *Decoder) decodeOne(ebsp []byte) (common.Status, error) {
	nalUnit, err := NewNALUnit(ebsp)
	if err != nil {
		return common.StatusInvalidData, errs.Field(err, "nal_unit_header")
	}
	if d.Log != nil {
		d.Log.Debug("parsed NAL unit", "type", nalUnit.Type, "bytes", len(ebsp), "epbRemoved", nalUnit.EPBCount)
	}

	switch {
	case nalUnit.Type == NALVPS:
		vps, err := ParseVPS(nalUnit.RBSP)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "video_parameter_set_rbsp")
		}
		d.VPSTable.Put(vps.ID, vps)
		return common.StatusOK, nil

	case nalUnit.Type == NALSPS:
		sps, err := ParseSPS(nalUnit.RBSP)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "seq_parameter_set_rbsp")
		}
		d.SPSTable.Put(sps.ID, sps)
		d.streams = append(d.streams, &stream{SPS: sps, dpb: NewDPB(sps), firstPicInSeq: true})
		return common.StatusFormatChange, nil

	case nalUnit.Type == NALPPS:
		pps, err := ParsePPS(nalUnit.RBSP)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "pic_parameter_set_rbsp")
		}
		d.PPSTable.Put(pps.ID, pps)
		s, err := d.currentStream()
		if err == nil {
			s.PPS = pps
		}
		return common.StatusOK, nil

	case IsSlice(nalUnit.Type):
		return d.decodeSlice(nalUnit)

	default:
		return common.StatusOK, nil
	}
}

func (d *Decoder) decodeSlice(nalUnit *NALUnit) (common.Status, error) {
	br := bits.NewReaderFromRBSP(nalUnit.RBSP)
	h, sps, pps, err := ParseSliceSegmentHeader(br, nalUnit.Type, d.SPSTable, d.PPSTable)
	if err != nil {
		return common.StatusInvalidData, errs.Field(err, "slice_segment_header")
	}

	s, err := d.currentStream()
	if err != nil || s.SPS != sps {
		s = &stream{SPS: sps, PPS: pps, dpb: NewDPB(sps), firstPicInSeq: true}
		d.streams = append(d.streams, s)
	}
	s.PPS = pps

	if !h.FirstSliceSegmentInPicFlag {
		return common.StatusOK, nil
	}

	isIDR := IsIDR(nalUnit.Type)
	isBLA := nalUnit.Type == NALBlaWLP || nalUnit.Type == NALBlaWRadl || nalUnit.Type == NALBlaNLp
	isIRAPNoRasl := isIDR || isBLA || (IsIRAP(nalUnit.Type) && s.firstPicInSeq)

	poc := derivePOC(s, h, sps, isIRAPNoRasl)

	isRef := nalUnit.TemporalIDPlus1 != 0 // VCL NAL units always carry reference semantics relevant to sub-layer access; precise nal_ref_flag classification is carried by nal_unit_type (trailing N types are non-reference).
	isRef = !isNonReferenceNALType(nalUnit.Type)

	s.dpb.AddPicture(poc, isRef, h.PicOutputFlag)

	s.prevPicOrderCntLsb = h.SlicePicOrderCntLsb
	if !isSubLayerNonReference(nalUnit) {
		s.prevPicOrderCntMsb = poc - h.SlicePicOrderCntLsb
	}
	s.firstPicInSeq = false

	return common.StatusOK, nil
}

// isNonReferenceNALType reports whether nalType is one of the *_N (sub-layer
// non-reference) VCL types of Table 7-1.
func isNonReferenceNALType(nalType int) bool {
	// The *_N types are the even values 0-14 (TRAIL_N, TSA_N, STSA_N,
	// RADL_N, RASL_N and RSV_VCL_N10/12/14).
	return nalType >= NALTrailN && nalType <= 14 && nalType%2 == 0
}

// isSubLayerNonReference mirrors isNonReferenceNALType for a parsed NAL unit.
func isSubLayerNonReference(n *NALUnit) bool { return isNonReferenceNALType(n.Type) }

// derivePOC implements picture order count derivation per section 8.3.1: an
// IDR, or a BLA/first-picture IRAP with NoRaslOutputFlag, resets POC to 0;
// otherwise PicOrderCntMsb is derived from the previous reference picture's
// MSB/LSB relative to the current slice_pic_order_cnt_lsb and
// MaxPicOrderCntLsb.
func derivePOC(s *stream, h *SliceSegmentHeader, sps *SPS, isIRAPNoRasl bool) int {
	if isIRAPNoRasl {
		return 0
	}

	maxLsb := 1 << uint(sps.Log2MaxPicOrderCntLsbMinus4+4)
	prevLsb := s.prevPicOrderCntLsb
	prevMsb := s.prevPicOrderCntMsb
	lsb := h.SlicePicOrderCntLsb

	var msb int
	switch {
	case lsb < prevLsb && (prevLsb-lsb) >= maxLsb/2:
		msb = prevMsb + maxLsb
	case lsb > prevLsb && (lsb-prevLsb) > maxLsb/2:
		msb = prevMsb - maxLsb
	default:
		msb = prevMsb
	}
	return msb + lsb
}

// currentStream returns the most recently started stream, or an error if
// none has been parsed yet.
func (d *Decoder) currentStream() (*stream, error) {
	if len(d.streams) == 0 {
		return nil, errs.New(errs.KindMissingReference, "NAL unit arrived before any SPS")
	}
	return d.streams[len(d.streams)-1], nil
}

// splitNALUnits scans buf for Annex B start codes, identical in form to the
// H.264 splitter (section B.1.1 is shared verbatim between the two codecs).
func splitNALUnits(buf []byte) [][]byte {
	var starts []int
	for i := 0; i+2 < len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 1 {
			starts = append(starts, i+3)
		}
	}
	if len(starts) == 0 {
		return nil
	}

	units := make([][]byte, 0, len(starts))
	for i, start := range starts {
		end := len(buf)
		if i+1 < len(starts) {
			end = starts[i+1] - 3
			for end > start && buf[end-1] == 0 {
				end--
			}
		}
		if end > start {
			units = append(units, buf[start:end])
		}
	}
	return units
}
