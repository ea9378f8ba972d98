package mpeg2dec

import (
	"testing"

	"github.com/ausocean/vidcore/errs"
)

// buildBits packs a sequence of (value, width) fields MSB-first into bytes.
func buildBits(fields [][2]int) []byte {
	var bitsOut []bool
	for _, f := range fields {
		v, n := f[0], f[1]
		for i := n - 1; i >= 0; i-- {
			bitsOut = append(bitsOut, (v>>uint(i))&1 == 1)
		}
	}
	out := make([]byte, (len(bitsOut)+7)/8)
	for i, b := range bitsOut {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func TestParsePictureHeaderIFrame(t *testing.T) {
	payload := buildBits([][2]int{
		{5, 10},            // temporal_reference
		{PictureTypeI, 3},  // picture_coding_type
		{0xFFFF, 16},       // vbv_delay
		{0, 1},             // extra_bit_picture_information terminator
	})
	ph, err := ParsePictureHeader(payload)
	if err != nil {
		t.Fatalf("ParsePictureHeader: %v", err)
	}
	if ph.TemporalReference != 5 {
		t.Errorf("TemporalReference = %d, want 5", ph.TemporalReference)
	}
	if ph.CodingType != PictureTypeI {
		t.Errorf("CodingType = %d, want %d", ph.CodingType, PictureTypeI)
	}
	if ph.VBVDelay != 0xFFFF {
		t.Errorf("VBVDelay = %#x, want 0xFFFF", ph.VBVDelay)
	}
}

func TestParsePictureHeaderBFrameReadsBothVectors(t *testing.T) {
	payload := buildBits([][2]int{
		{1, 10},           // temporal_reference
		{PictureTypeB, 3}, // picture_coding_type
		{0, 16},           // vbv_delay
		{1, 1},            // full_pel_forward_vector
		{5, 3},            // forward_f_code
		{0, 1},            // full_pel_backward_vector
		{6, 3},            // backward_f_code
		{0, 1},            // extra_bit_picture_information terminator
	})
	ph, err := ParsePictureHeader(payload)
	if err != nil {
		t.Fatalf("ParsePictureHeader: %v", err)
	}
	if !ph.FullPelForwardVector {
		t.Error("FullPelForwardVector = false, want true")
	}
	if ph.ForwardFCode != 5 {
		t.Errorf("ForwardFCode = %d, want 5", ph.ForwardFCode)
	}
	if ph.FullPelBackwardVector {
		t.Error("FullPelBackwardVector = true, want false")
	}
	if ph.BackwardFCode != 6 {
		t.Errorf("BackwardFCode = %d, want 6", ph.BackwardFCode)
	}
}

func TestParsePictureHeaderRejectsBadCodingType(t *testing.T) {
	payload := buildBits([][2]int{
		{0, 10},
		{7, 3}, // out of range, max is PictureTypeD (4)
		{0, 16},
		{0, 1},
	})
	_, err := ParsePictureHeader(payload)
	if !errs.Is(err, errs.KindOutOfRange) {
		t.Fatalf("ParsePictureHeader with coding_type=7 = %v, want KindOutOfRange", err)
	}
}

func TestParsePictureHeaderSkipsExtraPictureInformation(t *testing.T) {
	payload := buildBits([][2]int{
		{0, 10},
		{PictureTypeI, 3},
		{0, 16},
		{1, 1},   // extra bit present
		{0xAB, 8}, // extra_information_picture
		{0, 1},   // terminator
	})
	if _, err := ParsePictureHeader(payload); err != nil {
		t.Fatalf("ParsePictureHeader: %v", err)
	}
}

func TestParsePictureHeaderShortRead(t *testing.T) {
	_, err := ParsePictureHeader([]byte{0x00})
	if !errs.Is(err, errs.KindShortRead) {
		t.Fatalf("ParsePictureHeader on short payload = %v, want KindShortRead", err)
	}
}

func TestParsePictureCodingExtensionFrame(t *testing.T) {
	payload := buildBits([][2]int{
		{0, 4},           // extension_start_code_identifier
		{9, 4}, {9, 4},   // f_code[0][0..1]
		{9, 4}, {9, 4},   // f_code[1][0..1]
		{0, 2},           // intra_dc_precision
		{StructureFrame, 2},
		{1, 1}, // top_field_first
		{1, 1}, // frame_pred_frame_dct
		{0, 1}, // concealment_motion_vectors
		{0, 1}, // q_scale_type
		{0, 1}, // intra_vlc_format
		{0, 1}, // alternate_scan
		{0, 1}, // repeat_first_field
		{1, 1}, // chroma_420_type
		{1, 1}, // progressive_frame
		{0, 1}, // composite_display_flag
	})
	pce, err := ParsePictureCodingExtension(payload)
	if err != nil {
		t.Fatalf("ParsePictureCodingExtension: %v", err)
	}
	if pce.PictureStructure != StructureFrame {
		t.Errorf("PictureStructure = %d, want %d", pce.PictureStructure, StructureFrame)
	}
	if !pce.TopFieldFirst || !pce.FramePredFrameDCT {
		t.Error("TopFieldFirst/FramePredFrameDCT = false, want true")
	}
	if pce.Composite {
		t.Error("Composite = true, want false")
	}
	if pce.FCode[0][0] != 9 || pce.FCode[1][1] != 9 {
		t.Errorf("FCode = %v, want all 9", pce.FCode)
	}
}

func TestParsePictureCodingExtensionRejectsBadStructure(t *testing.T) {
	payload := buildBits([][2]int{
		{0, 4},
		{0, 4}, {0, 4}, {0, 4}, {0, 4},
		{0, 2},
		{0, 2}, // picture_structure=0 is out of range
	})
	_, err := ParsePictureCodingExtension(payload)
	if !errs.Is(err, errs.KindOutOfRange) {
		t.Fatalf("ParsePictureCodingExtension with structure=0 = %v, want KindOutOfRange", err)
	}
}

func TestParsePictureCodingExtensionSkipsCompositeFields(t *testing.T) {
	payload := buildBits([][2]int{
		{0, 4},
		{0, 4}, {0, 4}, {0, 4}, {0, 4},
		{0, 2},
		{StructureFrame, 2},
		{0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1},
		{0, 1}, {0, 1}, {0, 1}, {0, 1},
		{1, 1}, // composite_display_flag=1
		{0, 1 + 3 + 1 + 7 + 8}, // the composite-only tail fields
	})
	pce, err := ParsePictureCodingExtension(payload)
	if err != nil {
		t.Fatalf("ParsePictureCodingExtension: %v", err)
	}
	if !pce.Composite {
		t.Error("Composite = false, want true")
	}
}
