/*
DESCRIPTION
  slice.go parses the MPEG-2 slice header and the macroblock_address_increment
  variable-length code (Table B-1) used to locate the first macroblock column
  of a slice, per sections 6.2.4 and Annex B of ISO/IEC 13818-2.

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
	"github.com/ausocean/vidcore/errs"
)

// SliceHeader is ISO/IEC 13818-2 section 6.2.4.
type SliceHeader struct {
	// Row is the macroblock row this slice starts on, zero-based: derived
	// from the start code value directly when vertical_size <= 2800, or
	// combined with slice_vertical_position_extension otherwise, per the
	// note under Table 6-2.
	Row int

	QuantiserScaleCode int
	IntraSlice         bool

	// FirstMbColumn is the zero-based column of the first macroblock in
	// this slice, derived by scanning macroblock_address_increment codes
	// (including any macroblock_escape repeats) per Annex B Table B-1.
	FirstMbColumn int
}

// ParseSliceHeader parses a slice() header's fixed and variable fields,
// stopping once the macroblock-address-increment scan has located the first
// macroblock column; verticalSize is the sequence's vertical_size (plus any
// size extension) used to decide whether slice_vertical_position_extension
// is present.
func ParseSliceHeader(payload []byte, startCodeValue int, verticalSize int) (*SliceHeader, error) {
	br := bits.NewReader(payload)
	sh := &SliceHeader{Row: startCodeValue - 1}

	if verticalSize > 2800 {
		ext, err := br.ReadBits(3)
		if err != nil {
			return nil, errs.Field(err, "slice_vertical_position_extension")
		}
		sh.Row = (int(ext) << 7) | (startCodeValue - 1)
	}

	// priority_breakpoint is present only in the scalable extensions,
	// which this core does not decode; skipped by the caller at the
	// sequence-extension/scalable-mode check in a fuller implementation.

	qsc, err := br.ReadBits(5)
	if err != nil {
		return nil, errs.Field(err, "quantiser_scale_code")
	}
	sh.QuantiserScaleCode = int(qsc)

	// An intra_slice_flag of 1 signals the intra_slice and
	// reserved_bits/extra_bit_slice fields that follow; peeking distinguishes
	// this from the macroblock_address_increment scan that begins
	// immediately when the flag is absent (slice_extension_flag context,
	// which this core treats as always absent per its non-scalable scope).
	peek, err := br.PeekBits(1)
	if err == nil && peek == 1 {
		if _, err := br.ReadBits(1); err != nil { // intra_slice_flag
			return nil, errs.Field(err, "intra_slice_flag")
		}
		intra, err := br.ReadBits(1)
		if err != nil {
			return nil, errs.Field(err, "intra_slice")
		}
		sh.IntraSlice = intra == 1
		if _, err := br.ReadBits(7); err != nil { // reserved_bits
			return nil, errs.Field(err, "reserved_bits")
		}
	}

	for {
		b, err := br.PeekBits(1)
		if err != nil {
			break
		}
		if b != 1 {
			break
		}
		if _, err := br.ReadBits(1); err != nil {
			return nil, errs.Field(err, "extra_bit_slice")
		}
		if _, err := br.ReadBits(8); err != nil {
			return nil, errs.Field(err, "extra_information_slice")
		}
	}

	col, err := scanMacroblockAddressIncrement(br)
	if err != nil {
		return nil, errs.Field(err, "macroblock_address_increment")
	}
	sh.FirstMbColumn = col

	return sh, nil
}

// mbAddrIncEntry is one row of Annex B Table B-1: a code of the given bit
// length mapping to value, or to the macroblock_escape sentinel (value -1,
// which adds 33 to the running total and may repeat).
type mbAddrIncEntry struct {
	length int
	code   uint64
	value  int // -1 denotes macroblock_escape.
}

// mbAddrIncTable is Table B-1's 34 entries (33 values plus the escape code;
// macroblock_stuffing is an MPEG-1-only code and is not present in an
// MPEG-2 stream, matching the 34-entry count named in this core's design).
var mbAddrIncTable = []mbAddrIncEntry{
	{1, 0b1, 1},
	{3, 0b011, 2},
	{3, 0b010, 3},
	{4, 0b0011, 4},
	{4, 0b0010, 5},
	{5, 0b00011, 6},
	{5, 0b00010, 7},
	{7, 0b0000111, 8},
	{7, 0b0000110, 9},
	{8, 0b00001011, 10},
	{8, 0b00001010, 11},
	{8, 0b00001001, 12},
	{8, 0b00001000, 13},
	{8, 0b00000111, 14},
	{8, 0b00000110, 15},
	{10, 0b0000010111, 16},
	{10, 0b0000010110, 17},
	{10, 0b0000010101, 18},
	{10, 0b0000010100, 19},
	{10, 0b0000010011, 20},
	{10, 0b0000010010, 21},
	{11, 0b00000100011, 22},
	{11, 0b00000100010, 23},
	{11, 0b00000100001, 24},
	{11, 0b00000100000, 25},
	{11, 0b00000011111, 26},
	{11, 0b00000011110, 27},
	{11, 0b00000011101, 28},
	{11, 0b00000011100, 29},
	{11, 0b00000011011, 30},
	{11, 0b00000011010, 31},
	{11, 0b00000011001, 32},
	{11, 0b00000011000, 33},
	{11, 0b00000001000, -1}, // macroblock_escape.
}

const mbAddrEscapeIncrement = 33

// scanMacroblockAddressIncrement reads macroblock_address_increment codes
// from br, following a run of macroblock_escape codes (each adding 33) with
// the terminal value, and returns the zero-based column (sum of increments,
// minus 1 for the first macroblock of the slice, per section 6.3.16).
func scanMacroblockAddressIncrement(br *bits.BitReader) (int, error) {
	total := 0
	for {
		v, escape, err := readMbAddrIncrementCode(br)
		if err != nil {
			return 0, err
		}
		total += v
		if !escape {
			break
		}
	}
	return total - 1, nil
}

// readMbAddrIncrementCode reads one Table B-1 code from br bit-by-bit,
// matching against mbAddrIncTable at each length, and returns its value (or
// mbAddrEscapeIncrement with escape set, for a macroblock_escape code that
// the caller must keep accumulating).
func readMbAddrIncrementCode(br *bits.BitReader) (value int, escape bool, err error) {
	var code uint64
	for length := 1; length <= 11; length++ {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, false, err
		}
		code = code<<1 | b
		for _, e := range mbAddrIncTable {
			if e.length == length && e.code == code {
				if e.value == -1 {
					return mbAddrEscapeIncrement, true, nil
				}
				return e.value, false, nil
			}
		}
	}
	return 0, false, errs.New(errs.KindInvalidData, "no matching macroblock_address_increment code")
}
