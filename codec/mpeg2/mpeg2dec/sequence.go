/*
DESCRIPTION
  sequence.go parses the MPEG-2 sequence header, sequence extension and
  sequence display extension, and carries the four quantiser matrices that
  inherit across a sequence per section 6.2.2-6.2.2.3 of ISO/IEC 13818-2.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpeg2dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
)

// defaultIntraQuantMatrix is the Annex section 7.3 default, used whenever a
// sequence header's load_intra_quantiser_matrix flag is clear, written in
// row-major (raster) order.
var defaultIntraQuantMatrix = [64]uint8{
	8, 16, 19, 22, 26, 27, 29, 34,
	16, 16, 22, 24, 27, 29, 34, 37,
	19, 22, 26, 27, 29, 34, 34, 38,
	22, 22, 26, 27, 29, 34, 37, 40,
	22, 26, 27, 29, 32, 35, 40, 48,
	26, 27, 29, 32, 35, 40, 48, 58,
	26, 27, 29, 34, 38, 46, 56, 69,
	27, 29, 35, 38, 46, 56, 69, 83,
}

// defaultNonIntraQuantMatrix is the flat default used whenever a sequence
// header's load_non_intra_quantiser_matrix flag is clear.
var defaultNonIntraQuantMatrix = [64]uint8{
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
}

// QuantMatrices holds the four quantiser matrices that persist across a
// sequence per section 6.2.3.3: updated only when a sequence header resets
// them to defaults or a quant_matrix_extension reloads one of them.
type QuantMatrices struct {
	Intra        [64]uint8
	NonIntra     [64]uint8
	ChromaIntra  [64]uint8
	ChromaNonIntra [64]uint8

	// Changed records which matrices were touched by the most recently
	// parsed header or extension, so the driver can report a FormatChange
	// only when the accelerator actually needs new matrices (section 4.6).
	Changed [4]bool
}

// reset restores the eight-bit defaults from section 7.3, as done at every
// sequence header per section 6.2.3.3.
func (q *QuantMatrices) reset() {
	q.Intra = defaultIntraQuantMatrix
	q.NonIntra = defaultNonIntraQuantMatrix
	q.ChromaIntra = defaultIntraQuantMatrix
	q.ChromaNonIntra = defaultNonIntraQuantMatrix
	q.Changed = [4]bool{true, true, true, true}
}

// SequenceHeader is ISO/IEC 13818-2 section 6.2.2.1.
type SequenceHeader struct {
	HorizontalSize       int
	VerticalSize         int
	AspectRatioInfo      int
	FrameRateCode        int
	BitRate              int
	VBVBufferSize        int
	ConstrainedParams    bool

	Quant QuantMatrices

	// Derived.
	FrameRate float64
}

// frameRateTable maps frame_rate_code (Table 6-4) to frames per second.
var frameRateTable = [16]float64{
	0, 24000.0 / 1001, 24, 25, 30000.0 / 1001, 30, 50, 60000.0 / 1001,
	60, 0, 0, 0, 0, 0, 0, 0,
}

// ParseSequenceHeader parses a sequence_header() following the
// 0x000001B3 start code and classifying byte, per section 6.2.2.1. payload
// begins at horizontal_size_value.
func ParseSequenceHeader(payload []byte) (*SequenceHeader, error) {
	br := bits.NewReader(payload)
	sh := &SequenceHeader{}

	hi, err := br.ReadBits(12)
	if err != nil {
		return nil, errs.Field(err, "horizontal_size_value")
	}
	vi, err := br.ReadBits(12)
	if err != nil {
		return nil, errs.Field(err, "vertical_size_value")
	}
	sh.HorizontalSize = int(hi)
	sh.VerticalSize = int(vi)

	ar, err := br.ReadBits(4)
	if err != nil {
		return nil, errs.Field(err, "aspect_ratio_information")
	}
	sh.AspectRatioInfo = int(ar)

	fr, err := br.ReadBits(4)
	if err != nil {
		return nil, errs.Field(err, "frame_rate_code")
	}
	if fr == 0 || fr > 8 {
		return nil, errs.Newf(errs.KindOutOfRange, "frame_rate_code %d out of range", fr)
	}
	sh.FrameRateCode = int(fr)
	sh.FrameRate = frameRateTable[fr]

	brv, err := br.ReadBits(18)
	if err != nil {
		return nil, errs.Field(err, "bit_rate_value")
	}
	sh.BitRate = int(brv)

	if _, err := br.ReadBits(1); err != nil { // marker_bit
		return nil, errs.Field(err, "marker_bit")
	}

	vbv, err := br.ReadBits(10)
	if err != nil {
		return nil, errs.Field(err, "vbv_buffer_size_value")
	}
	sh.VBVBufferSize = int(vbv)

	cp, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "constrained_parameters_flag")
	}
	sh.ConstrainedParams = cp == 1

	sh.Quant.reset()

	loadIntra, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "load_intra_quantiser_matrix")
	}
	if loadIntra == 1 {
		if err := readMatrix(br, &sh.Quant.Intra); err != nil {
			return nil, errs.Field(err, "intra_quantiser_matrix")
		}
	}

	loadNonIntra, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "load_non_intra_quantiser_matrix")
	}
	if loadNonIntra == 1 {
		if err := readMatrix(br, &sh.Quant.NonIntra); err != nil {
			return nil, errs.Field(err, "non_intra_quantiser_matrix")
		}
	}

	return sh, nil
}

func readMatrix(br *bits.BitReader, m *[64]uint8) error {
	for i := range m {
		v, err := br.ReadBits(8)
		if err != nil {
			return err
		}
		m[i] = uint8(v)
	}
	return nil
}

// SequenceExtension is ISO/IEC 13818-2 section 6.2.2.3, which refines the
// profile/level and size fields of the sequence header it follows.
type SequenceExtension struct {
	ProfileAndLevelIndication int
	Progressive               bool
	ChromaFormat              int
	HorizontalSizeExt         int
	VerticalSizeExt           int
	BitRateExt                int
	VBVBufferSizeExt          int
	LowDelay                  bool
	FrameRateExtN             int
	FrameRateExtD             int
}

// ParseSequenceExtension parses the payload following the extension start
// code. The payload begins with the 4-bit extension_start_code_identifier,
// which is skipped, followed by profile_and_level_indication.
func ParseSequenceExtension(payload []byte) (*SequenceExtension, error) {
	br := bits.NewReader(payload)

	// The first nibble of payload[0] is extension_start_code_identifier,
	// already classified by the driver; the remaining 4 bits here are the
	// high nibble of profile_and_level_indication.
	if _, err := br.ReadBits(4); err != nil {
		return nil, errs.Field(err, "extension_start_code_identifier")
	}

	se := &SequenceExtension{}
	pli, err := br.ReadBits(8)
	if err != nil {
		return nil, errs.Field(err, "profile_and_level_indication")
	}
	se.ProfileAndLevelIndication = int(pli)

	prog, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "progressive_sequence")
	}
	se.Progressive = prog == 1

	cf, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "chroma_format")
	}
	se.ChromaFormat = int(cf)

	hExt, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "horizontal_size_extension")
	}
	se.HorizontalSizeExt = int(hExt)

	vExt, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "vertical_size_extension")
	}
	se.VerticalSizeExt = int(vExt)

	brExt, err := br.ReadBits(12)
	if err != nil {
		return nil, errs.Field(err, "bit_rate_extension")
	}
	se.BitRateExt = int(brExt)

	if _, err := br.ReadBits(1); err != nil { // marker_bit
		return nil, errs.Field(err, "marker_bit")
	}

	vbvExt, err := br.ReadBits(8)
	if err != nil {
		return nil, errs.Field(err, "vbv_buffer_size_extension")
	}
	se.VBVBufferSizeExt = int(vbvExt)

	ld, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "low_delay")
	}
	se.LowDelay = ld == 1

	n, err := br.ReadBits(2)
	if err != nil {
		return nil, errs.Field(err, "frame_rate_extension_n")
	}
	se.FrameRateExtN = int(n)

	d, err := br.ReadBits(5)
	if err != nil {
		return nil, errs.Field(err, "frame_rate_extension_d")
	}
	se.FrameRateExtD = int(d)

	return se, nil
}

// ApplyQuantMatrixExtension replaces any of the four matrices whose
// corresponding load flag is set in payload, preserving the others, per
// section 6.2.3.3. payload begins with the extension_start_code_identifier
// nibble, which is skipped.
func ApplyQuantMatrixExtension(q *QuantMatrices, payload []byte) error {
	br := bits.NewReader(payload)
	if _, err := br.ReadBits(4); err != nil {
		return errs.Field(err, "extension_start_code_identifier")
	}
	q.Changed = [4]bool{}

	loadIntra, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "load_intra_quantiser_matrix")
	}
	if loadIntra == 1 {
		if err := readMatrix(br, &q.Intra); err != nil {
			return errs.Field(err, "intra_quantiser_matrix")
		}
		q.Changed[0] = true
	}

	loadNonIntra, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "load_non_intra_quantiser_matrix")
	}
	if loadNonIntra == 1 {
		if err := readMatrix(br, &q.NonIntra); err != nil {
			return errs.Field(err, "non_intra_quantiser_matrix")
		}
		q.Changed[1] = true
	}

	loadChromaIntra, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "load_chroma_intra_quantiser_matrix")
	}
	if loadChromaIntra == 1 {
		if err := readMatrix(br, &q.ChromaIntra); err != nil {
			return errs.Field(err, "chroma_intra_quantiser_matrix")
		}
		q.Changed[2] = true
	}

	loadChromaNonIntra, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "load_chroma_non_intra_quantiser_matrix")
	}
	if loadChromaNonIntra == 1 {
		if err := readMatrix(br, &q.ChromaNonIntra); err != nil {
			return errs.Field(err, "chroma_non_intra_quantiser_matrix")
		}
		q.Changed[3] = true
	}

	return nil
}

// GOPHeader is ISO/IEC 13818-2 section 6.2.2.6.
type GOPHeader struct {
	TimeCode      uint32
	ClosedGOP     bool
	BrokenLink    bool
}

// ParseGOPHeader parses a group_of_pictures_header() payload following the
// 0x000001B8 start code.
func ParseGOPHeader(payload []byte) (*GOPHeader, error) {
	br := bits.NewReader(payload)
	tc, err := br.ReadBits(25)
	if err != nil {
		return nil, errs.Field(err, "time_code")
	}
	closed, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "closed_gop")
	}
	broken, err := br.ReadBits(1)
	if err != nil {
		return nil, errs.Field(err, "broken_link")
	}
	return &GOPHeader{TimeCode: uint32(tc), ClosedGOP: closed == 1, BrokenLink: broken == 1}, nil
}

// Timestamp is re-exported for convenience of callers of this package that
// otherwise only import common for the picture descriptor.
type Timestamp = common.Timestamp
