package vp9dec

import (
	"testing"

	"github.com/ausocean/vidcore/errs"
)

// TestSplitSuperframeIndex checks the named testable property: a buffer
// whose trailing byte matches the super-frame marker pattern and carries a
// valid index splits into frames_in_superframe_minus_1+1 frames whose lengths sum to the
// buffer length minus the index size.
func TestSplitSuperframeIndex(t *testing.T) {
	frame0 := []byte{0xAA, 0xAA, 0xAA} // 3 bytes
	frame1 := []byte{0xBB, 0xBB}       // 2 bytes

	magBytes := 1
	framesMinus1 := 1 // two frames
	marker := byte(0xc0 | (magBytes-1)<<3 | framesMinus1)

	buf := append([]byte{}, frame0...)
	buf = append(buf, frame1...)
	buf = append(buf, marker, byte(len(frame0)), byte(len(frame1)), marker)

	frames, err := SplitSuperframe(buf)
	if err != nil {
		t.Fatalf("SplitSuperframe: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	if len(frames[0]) != len(frame0) || len(frames[1]) != len(frame1) {
		t.Errorf("frame lengths = %d,%d want %d,%d", len(frames[0]), len(frames[1]), len(frame0), len(frame1))
	}

	indexSize := 2 + magBytes*2
	sum := len(frames[0]) + len(frames[1])
	if sum != len(buf)-indexSize {
		t.Errorf("frame length sum = %d, want %d", sum, len(buf)-indexSize)
	}
}

// TestSplitSuperframeNoMarker checks that a buffer with no valid marker
// byte is returned whole.
func TestSplitSuperframeNoMarker(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04}
	frames, err := SplitSuperframe(buf)
	if err != nil {
		t.Fatalf("SplitSuperframe: %v", err)
	}
	if len(frames) != 1 || len(frames[0]) != len(buf) {
		t.Fatalf("SplitSuperframe on unmarked buffer = %v, want single whole-buffer frame", frames)
	}
}

// TestParseFrameHeaderKeyFrame parses a hand-built minimal key-frame
// uncompressed header and checks the fields a downstream consumer relies
// on for format-change detection.
func TestParseFrameHeaderKeyFrame(t *testing.T) {
	buf := []byte{0x82, 0x49, 0x83, 0x42, 0x40, 0x03, 0xF0, 0x02, 0xF0, 0x00, 0x0C, 0x80}

	fh, err := ParseFrameHeader(buf, LoopFilter{}, Segmentation{})
	if err != nil {
		t.Fatalf("ParseFrameHeader: %v", err)
	}
	if fh.Profile != 0 {
		t.Errorf("Profile = %d, want 0", fh.Profile)
	}
	if fh.FrameType != 0 {
		t.Errorf("FrameType = %d, want 0 (key)", fh.FrameType)
	}
	if !fh.ShowFrame {
		t.Error("ShowFrame = false, want true")
	}
	if fh.ErrorResilient {
		t.Error("ErrorResilient = true, want false")
	}
	if fh.Color.BitDepth != 8 {
		t.Errorf("Color.BitDepth = %d, want 8", fh.Color.BitDepth)
	}
	if fh.Width != 64 || fh.Height != 48 {
		t.Errorf("Width/Height = %d/%d, want 64/48", fh.Width, fh.Height)
	}
	if fh.RefreshFrameFlags != 0xff {
		t.Errorf("RefreshFrameFlags = %#x, want 0xff", fh.RefreshFrameFlags)
	}
	if fh.Segmentation.Enabled {
		t.Error("Segmentation.Enabled = true, want false")
	}
}

// TestParseFrameHeaderBadMarker checks that a non-2 frame_marker is
// rejected.
func TestParseFrameHeaderBadMarker(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x00}
	_, err := ParseFrameHeader(buf, LoopFilter{}, Segmentation{})
	if !errs.Is(err, errs.KindInvalidData) {
		t.Fatalf("ParseFrameHeader on bad marker = %v, want KindInvalidData", err)
	}
}

// TestDecoderMissingKeyframeGate checks that an inter frame is rejected
// before any key frame has been observed.
func TestDecoderMissingKeyframeGate(t *testing.T) {
	d := NewDecoder(nil)

	// frame_marker=2, profile=0, show_existing_frame=0, frame_type=1 (inter),
	// followed by an all-zero inter-frame payload (switchable interpolation
	// filter, bit set at byte index 8) long enough for the header to parse
	// to completion so the key-frame gate is the thing that rejects it.
	buf := []byte{0x84, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00}
	_, err := d.Decode(buf, 0)
	if !errs.Is(err, errs.KindMissingKeyframe) {
		t.Fatalf("Decode on inter frame before any key frame = %v, want KindMissingKeyframe", err)
	}
}

// TestDecoderKeyFrame exercises the Decoder end to end on the same
// key-frame fixture used by TestParseFrameHeaderKeyFrame.
func TestDecoderKeyFrame(t *testing.T) {
	d := NewDecoder(nil)
	buf := []byte{0x82, 0x49, 0x83, 0x42, 0x40, 0x03, 0xF0, 0x02, 0xF0, 0x00, 0x0C, 0x80}

	_, err := d.Decode(buf, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	frames := d.CurrentFrames()
	if len(frames) != 1 {
		t.Fatalf("len(CurrentFrames()) = %d, want 1", len(frames))
	}
	if frames[0].Header.Width != 64 || frames[0].Header.Height != 48 {
		t.Errorf("decoded dimensions = %dx%d, want 64x48", frames[0].Header.Width, frames[0].Header.Height)
	}
	if frames[0].Dequant == nil {
		t.Error("Dequant = nil, want built dequant tables for 8-bit depth")
	}
}
