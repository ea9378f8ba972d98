/*
DESCRIPTION
  frame.go parses the start-of-frame (SOFn) segment into a FrameHeader, per
  section B.2.2 of ITU-T T.81.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jpegdec

import "github.com/ausocean/vidcore/errs"

const maxFrameComponents = 4

// FrameComponent describes one image component within a FrameHeader: its
// id, sampling factors, and the quantization table it references.
type FrameComponent struct {
	ID         int
	HSampling  int
	VSampling  int
	QuantTable int
}

// FrameHeader is the parsed SOFn segment, per section B.2.2.
type FrameHeader struct {
	Marker        Marker // Which SOFn marker was seen; only SOF0/SOF1 are fully supported.
	DataPrecision int    // Sample precision in bits, almost always 8.
	ImageHeight   int
	ImageWidth    int
	Components    []FrameComponent

	// IsBaseline reports whether Marker == MarkerSOF0, matching the testable
	// property in section 8: a baseline image's frame header reports
	// IsBaseline true.
	IsBaseline bool
}

// ParseFrameHeader parses an SOFn segment payload (the bytes following the
// 2-byte length field) into a FrameHeader. marker identifies which SOFn was
// seen; callers should reject SOF2/3/5/6/7/9-15 with KindUnsupported before
// calling this, per section 4.10's marker table, but ParseFrameHeader itself
// only validates field ranges, not marker support, so it can also be used by
// a caller probing for IsBaseline after the fact.
func ParseFrameHeader(marker Marker, payload []byte) (*FrameHeader, error) {
	if len(payload) < 6 {
		return nil, errs.ErrShortRead
	}
	precision := int(payload[0])
	height := int(payload[1])<<8 | int(payload[2])
	width := int(payload[3])<<8 | int(payload[4])
	n := int(payload[5])
	if n == 0 || n > maxFrameComponents {
		return nil, errs.Newf(errs.KindOutOfRange, "frame component count %d not in [1,%d]", n, maxFrameComponents)
	}
	if width == 0 || height == 0 {
		return nil, errs.New(errs.KindInvalidData, "frame dimensions must be non-zero")
	}
	if len(payload) != 6+3*n {
		return nil, errs.Newf(errs.KindInvalidData, "frame header length mismatch for %d components", n)
	}

	fh := &FrameHeader{
		Marker:        marker,
		DataPrecision: precision,
		ImageHeight:   height,
		ImageWidth:    width,
		IsBaseline:    marker == MarkerSOF0,
	}

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		off := 6 + 3*i
		id := int(payload[off])
		hv := payload[off+1]
		qt := int(payload[off+2])
		if seen[id] {
			return nil, errs.Newf(errs.KindInvalidData, "duplicate component id %d in frame header", id)
		}
		seen[id] = true
		if qt > 3 {
			return nil, errs.Newf(errs.KindOutOfRange, "component %d quant table id %d exceeds 3", id, qt)
		}
		h := int(hv >> 4)
		v := int(hv & 0x0F)
		if h == 0 || h > 4 || v == 0 || v > 4 {
			return nil, errs.Newf(errs.KindOutOfRange, "component %d sampling factors %d,%d out of [1,4]", id, h, v)
		}
		fh.Components = append(fh.Components, FrameComponent{ID: id, HSampling: h, VSampling: v, QuantTable: qt})
	}
	return fh, nil
}
