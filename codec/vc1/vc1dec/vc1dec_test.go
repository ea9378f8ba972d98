package vc1dec

import (
	"testing"

	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/common"
)

func TestScanUnits(t *testing.T) {
	buf := []byte{
		0x00, 0x00, 0x01, startCodeSequence, 0xAA, 0xBB,
		0x00, 0x00, 0x01, startCodeEntryPoint, 0xCC,
	}
	units := scanUnits(buf)
	if len(units) != 2 {
		t.Fatalf("len(units) = %d, want 2", len(units))
	}
	if units[0].Kind != startCodeSequence || len(units[0].Payload) != 2 {
		t.Errorf("units[0] = %+v", units[0])
	}
	if units[1].Kind != startCodeEntryPoint || len(units[1].Payload) != 1 {
		t.Errorf("units[1] = %+v", units[1])
	}
}

func TestReadPType(t *testing.T) {
	cases := []struct {
		buf  []byte
		want PictureType
	}{
		{[]byte{0x00}, PictureP},
		{[]byte{0x80}, PictureB},
		{[]byte{0xC0}, PictureI},
		{[]byte{0xE0}, PictureBI},
		{[]byte{0xF0}, PictureSkipped},
	}
	for _, c := range cases {
		br := bits.NewReader(c.buf)
		got, err := readPType(br)
		if err != nil {
			t.Fatalf("readPType(%x): %v", c.buf, err)
		}
		if got != c.want {
			t.Errorf("readPType(%x) = %v, want %v", c.buf, got, c.want)
		}
	}
}

func TestDecodeBitplaneRaw(t *testing.T) {
	br := bits.NewReader([]byte{0x12})
	grid, err := decodeBitplane(br, 2, 2)
	if err != nil {
		t.Fatalf("decodeBitplane: %v", err)
	}
	want := [][]bool{{true, false}, {false, true}}
	for r := range want {
		for c := range want[r] {
			if grid[r][c] != want[r][c] {
				t.Errorf("grid[%d][%d] = %v, want %v", r, c, grid[r][c], want[r][c])
			}
		}
	}
}

func TestDecodeBitplaneRowSkip(t *testing.T) {
	br := bits.NewReader([]byte{0xB4})
	grid, err := decodeBitplane(br, 2, 2)
	if err != nil {
		t.Fatalf("decodeBitplane: %v", err)
	}
	want := [][]bool{{false, false}, {true, false}}
	for r := range want {
		for c := range want[r] {
			if grid[r][c] != want[r][c] {
				t.Errorf("grid[%d][%d] = %v, want %v", r, c, grid[r][c], want[r][c])
			}
		}
	}
}

func TestParseAdvancedSequenceHeader(t *testing.T) {
	buf := []byte{0xC2, 0x0A, 0xE0, 0x8E, 0x00}
	sh, err := ParseAdvancedSequenceHeader(buf)
	if err != nil {
		t.Fatalf("ParseAdvancedSequenceHeader: %v", err)
	}
	if sh.Profile != ProfileAdvanced {
		t.Errorf("Profile = %d, want %d", sh.Profile, ProfileAdvanced)
	}
	if sh.Level != 0 {
		t.Errorf("Level = %d, want 0", sh.Level)
	}
	if sh.ColorDiffFormat != 1 {
		t.Errorf("ColorDiffFormat = %d, want 1", sh.ColorDiffFormat)
	}
	if sh.MaxCodedWidth != 176 || sh.MaxCodedHeight != 144 {
		t.Errorf("MaxCoded = %dx%d, want 176x144", sh.MaxCodedWidth, sh.MaxCodedHeight)
	}
	if sh.DisplayExtension {
		t.Error("DisplayExtension = true, want false")
	}
}

func TestDecoderAdvancedProfileSequenceTriggersFormatChange(t *testing.T) {
	d := NewDecoder(nil)
	buf := append([]byte{0x00, 0x00, 0x01, startCodeSequence}, []byte{0xC2, 0x0A, 0xE0, 0x8E, 0x00}...)
	status, err := d.Decode(buf, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if status != common.StatusFormatChange {
		t.Errorf("status = %v, want StatusFormatChange", status)
	}
	if d.CurrentSequence() == nil {
		t.Fatal("CurrentSequence() = nil after sequence header unit")
	}
	if d.CurrentSequence().MaxCodedWidth != 176 {
		t.Errorf("MaxCodedWidth = %d, want 176", d.CurrentSequence().MaxCodedWidth)
	}
}
