package mpeg2dec

import (
	"testing"

	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
)

func TestParseSliceHeaderBasic(t *testing.T) {
	// quantiser_scale_code=5 (00101), then macroblock_address_increment code
	// 010 (length 3, value 3) starting with a 0 bit so it can't be mistaken
	// for the intra_slice_flag/extra_bit_slice peek branches.
	payload := buildBits([][2]int{
		{5, 5},
		{0b010, 3},
	})
	sh, err := ParseSliceHeader(payload, 1, 576)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if sh.Row != 0 {
		t.Errorf("Row = %d, want 0", sh.Row)
	}
	if sh.QuantiserScaleCode != 5 {
		t.Errorf("QuantiserScaleCode = %d, want 5", sh.QuantiserScaleCode)
	}
	if sh.IntraSlice {
		t.Error("IntraSlice = true, want false")
	}
	if sh.FirstMbColumn != 2 {
		t.Errorf("FirstMbColumn = %d, want 2", sh.FirstMbColumn)
	}
}

func TestParseSliceHeaderVerticalPositionExtension(t *testing.T) {
	payload := buildBits([][2]int{
		{2, 3},    // slice_vertical_position_extension
		{0, 5},    // quantiser_scale_code
		{0b010, 3}, // macroblock_address_increment, value 3
	})
	sh, err := ParseSliceHeader(payload, 5, 3000)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	want := (2 << 7) | (5 - 1)
	if sh.Row != want {
		t.Errorf("Row = %d, want %d", sh.Row, want)
	}
}

func TestParseSliceHeaderShortRead(t *testing.T) {
	_, err := ParseSliceHeader(nil, 1, 576)
	if !errs.Is(err, errs.KindShortRead) {
		t.Fatalf("ParseSliceHeader on empty payload = %v, want KindShortRead", err)
	}
}

func TestScanMacroblockAddressIncrementEscape(t *testing.T) {
	payload := buildBits([][2]int{
		{5, 5},            // quantiser_scale_code, arbitrary
		{0b00000001000, 11}, // macroblock_escape (+33)
		{0b010, 3},        // terminal code, value 3
	})
	sh, err := ParseSliceHeader(payload, 1, 576)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if sh.FirstMbColumn != 33+3-1 {
		t.Errorf("FirstMbColumn = %d, want %d", sh.FirstMbColumn, 33+3-1)
	}
}

func TestReadMbAddrIncrementCodeInvalid(t *testing.T) {
	payload := buildBits([][2]int{{0, 11}})
	br := bits.NewReader(payload)
	if _, _, err := readMbAddrIncrementCode(br); !errs.Is(err, errs.KindInvalidData) {
		t.Fatalf("readMbAddrIncrementCode on all-zero code = %v, want KindInvalidData", err)
	}
}
