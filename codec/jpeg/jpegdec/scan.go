/*
DESCRIPTION
  scan.go parses the start-of-scan (SOS) segment into a ScanHeader, per
  section B.2.3 of ITU-T T.81. It does not decode the entropy-coded scan
  data that follows; that lies outside this core's scope (section 1).

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

// ScanComponent selects the DC and AC Huffman (or arithmetic conditioning)
// table a scanned component uses, per Table B.3.
type ScanComponent struct {
	ComponentSelector int
	DCTable           int
	ACTable           int
}

// ScanHeader is the parsed SOS segment, per section B.2.3.
type ScanHeader struct {
	NumComponents          int
	Components             []ScanComponent
	SpectralSelectionStart int
	SpectralSelectionEnd   int
	ApproxHigh             int
	ApproxLow              int
}

// ParseScanHeader parses an SOS segment payload (the bytes following the
// 2-byte length field) into a ScanHeader, validating that every referenced
// component selector appears in frame, and that the segment's on-wire
// length Ls (the 2-byte length field's own value, i.e. len(payload)+2)
// equals numComponents*2+6 exactly, per the testable property in section 8.
func ParseScanHeader(payload []byte, frame *FrameHeader) (*ScanHeader, error) {
	if len(payload) < 1 {
		return nil, errs.ErrShortRead
	}
	n := int(payload[0])
	if n == 0 || n > maxFrameComponents {
		return nil, errs.Newf(errs.KindOutOfRange, "scan component count %d not in [1,%d]", n, maxFrameComponents)
	}
	if len(payload)+2 != n*2+6 {
		return nil, errs.Newf(errs.KindInvalidData, "scan header length Ls must be %d*2+6 for %d components", n, n)
	}
	if frame == nil {
		return nil, errs.New(errs.KindMissingReference, "SOS before SOF")
	}

	sh := &ScanHeader{NumComponents: n}
	for i := 0; i < n; i++ {
		off := 1 + 2*i
		sel := int(payload[off])
		tables := payload[off+1]
		if !componentInFrame(frame, sel) {
			return nil, errs.Newf(errs.KindInvalidData, "scan component selector %d not present in frame header", sel)
		}
		sh.Components = append(sh.Components, ScanComponent{
			ComponentSelector: sel,
			DCTable:           int(tables >> 4),
			ACTable:           int(tables & 0x0F),
		})
	}

	tail := payload[1+2*n:]
	sh.SpectralSelectionStart = int(tail[0])
	sh.SpectralSelectionEnd = int(tail[1])
	sh.ApproxHigh = int(tail[2] >> 4)
	sh.ApproxLow = int(tail[2] & 0x0F)
	return sh, nil
}

func componentInFrame(frame *FrameHeader, id int) bool {
	for _, c := range frame.Components {
		if c.ID == id {
			return true
		}
	}
	return false
}
