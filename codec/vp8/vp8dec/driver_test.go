package vp8dec

import (
	"testing"

	"github.com/ausocean/vidcore/errs"
)

// TestMissingKeyframeGate checks that a freshly constructed Decoder fed an
// inter-frame tag rejects it with KindMissingKeyframe, per section 8's VP8
// key-frame gate property.
func TestMissingKeyframeGate(t *testing.T) {
	d := NewDecoder(nil)

	// key_frame bit set to 1 (inter frame); version/show_frame/first_part_size
	// are irrelevant since the gate check happens before partition parsing.
	buf := []byte{0x11, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	_, err := d.Decode(buf, 0)
	if !errs.Is(err, errs.KindMissingKeyframe) {
		t.Fatalf("Decode on inter frame before any key frame = %v, want KindMissingKeyframe", err)
	}
}

// TestKeyFrameDimensions checks a minimal key-frame tag plus dimension
// fields parses into the expected width/height.
func TestKeyFrameDimensions(t *testing.T) {
	d := NewDecoder(nil)

	// Frame tag: key_frame=0 (bit0), version=0, show_frame=1, first_part_size=256.
	tagVal := uint32(0) | 0<<1 | 1<<4 | 256<<5
	buf := []byte{
		byte(tagVal), byte(tagVal >> 8), byte(tagVal >> 16),
		0x9d, 0x01, 0x2a, // start code
		0x40, 0x00, // width 64, hscale 0
		0x30, 0x00, // height 48, vscale 0
	}
	// First partition: 256 zero bytes, enough for the whole compressed header.
	buf = append(buf, make([]byte, 256)...)
	_, err := d.Decode(buf, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	dims := d.CurrentDimensions()
	if dims == nil {
		t.Fatal("CurrentDimensions() = nil after key frame")
	}
	if dims.Width != 64 || dims.Height != 48 {
		t.Errorf("Dimensions = %dx%d, want 64x48", dims.Width, dims.Height)
	}
}
