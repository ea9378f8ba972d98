package mpeg2dec

import "testing"

// TestParseSequenceHeader checks the worked example from this core's design
// notes: an 8-byte sequence_header payload (horizontal/vertical size, aspect
// ratio, frame rate, bit rate, vbv buffer size, no quantiser matrices).
func TestParseSequenceHeader(t *testing.T) {
	payload := []byte{0x20, 0x01, 0x20, 0x34, 0xff, 0xff, 0xe0, 0x18}
	sh, err := ParseSequenceHeader(payload)
	if err != nil {
		t.Fatalf("ParseSequenceHeader: %v", err)
	}
	if sh.HorizontalSize != 0x200 {
		t.Errorf("HorizontalSize = %#x, want 0x200", sh.HorizontalSize)
	}
	if sh.VerticalSize != 0x120 {
		t.Errorf("VerticalSize = %#x, want 0x120", sh.VerticalSize)
	}
	if sh.AspectRatioInfo != 3 {
		t.Errorf("AspectRatioInfo = %d, want 3", sh.AspectRatioInfo)
	}
	if sh.FrameRateCode != 4 {
		t.Errorf("FrameRateCode = %d, want 4", sh.FrameRateCode)
	}
}

// TestParseSequenceExtension checks the worked example: extension_start_code
// _identifier = 1 (sequence), profile_and_level_indication = 0x48,
// progressive_sequence = true, chroma_format = 1.
func TestParseSequenceExtension(t *testing.T) {
	payload := []byte{0x14, 0x8a, 0x00, 0x01, 0x00, 0x00}
	se, err := ParseSequenceExtension(payload)
	if err != nil {
		t.Fatalf("ParseSequenceExtension: %v", err)
	}
	if se.ProfileAndLevelIndication != 0x48 {
		t.Errorf("ProfileAndLevelIndication = %#x, want 0x48", se.ProfileAndLevelIndication)
	}
	if !se.Progressive {
		t.Errorf("Progressive = false, want true")
	}
	if se.ChromaFormat != 1 {
		t.Errorf("ChromaFormat = %d, want 1", se.ChromaFormat)
	}
}

func TestQuantMatrixDefaults(t *testing.T) {
	var q QuantMatrices
	q.reset()
	if q.Intra != defaultIntraQuantMatrix {
		t.Errorf("Intra matrix did not reset to the Annex default")
	}
	for _, v := range q.NonIntra {
		if v != 16 {
			t.Fatalf("NonIntra matrix entry = %d, want 16", v)
		}
	}
}
