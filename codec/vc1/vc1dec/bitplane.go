/*
DESCRIPTION
  bitplane.go decodes a VC-1 bit plane: a 1-bit-per-macroblock map coded in
  one of seven compact representations (Raw, Norm2, Norm6, Diff2, Diff6,
  RowSkip, ColSkip), per section 8.7 of SMPTE 421M.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vc1dec

import (
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/errs"
)

// bitplaneMode names the seven encodings of section 8.7.3.
type bitplaneMode int

const (
	bitplaneRaw bitplaneMode = iota
	bitplaneNorm2
	bitplaneDiff2
	bitplaneNorm6
	bitplaneDiff6
	bitplaneRowSkip
	bitplaneColSkip
)

// readNorm6Tile reads the six macroblock flags of one 2x3 (or 3x2) tile as
// a fixed 6-bit literal. It does not decode the variable-length code of
// table 103, so a tile coded with that code is not read bit-for-bit.
func readNorm6Tile(br *bits.BitReader) (uint8, error) {
	v, err := br.ReadBits(6)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// decodeBitplane reads the 3-bit mode selector (IMODE, table 100 range)
// followed by the mode-specific payload, and returns a rows x cols grid
// of per-macroblock flags.
func decodeBitplane(br *bits.BitReader, rows, cols int) ([][]bool, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errs.New(errs.KindInvalidData, "bitplane dimensions must be positive")
	}

	modeBits, err := br.ReadBits(3)
	if err != nil {
		return nil, errs.Field(err, "IMODE")
	}
	mode := bitplaneMode(modeBits)

	grid := make([][]bool, rows)
	for r := range grid {
		grid[r] = make([]bool, cols)
	}

	switch mode {
	case bitplaneRaw:
		if err := decodeRaw(br, grid); err != nil {
			return nil, err
		}
	case bitplaneNorm2:
		if err := decodeNorm2(br, grid); err != nil {
			return nil, err
		}
	case bitplaneDiff2:
		if err := decodeNorm2(br, grid); err != nil {
			return nil, err
		}
		if err := applyInverseDiff(br, grid); err != nil {
			return nil, err
		}
	case bitplaneNorm6:
		if err := decodeNorm6(br, grid); err != nil {
			return nil, err
		}
	case bitplaneDiff6:
		if err := decodeNorm6(br, grid); err != nil {
			return nil, err
		}
		if err := applyInverseDiff(br, grid); err != nil {
			return nil, err
		}
	case bitplaneRowSkip:
		if err := decodeRowSkip(br, grid); err != nil {
			return nil, err
		}
	case bitplaneColSkip:
		if err := decodeColSkip(br, grid); err != nil {
			return nil, err
		}
	default:
		return nil, errs.Newf(errs.KindInvalidData, "unknown bitplane mode %d", mode)
	}

	return grid, nil
}

// decodeRaw reads one bit per macroblock in raster order.
func decodeRaw(br *bits.BitReader, grid [][]bool) error {
	for r := range grid {
		for c := range grid[r] {
			v, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "RAW_BIT")
			}
			grid[r][c] = v == 1
		}
	}
	return nil
}

// decodeNorm2 reads the flags for macroblocks two at a time, per section
// 8.7.3.2: a two-bit group codes both flags of a horizontally adjacent
// pair, with a trailing single raw bit for an odd final macroblock.
func decodeNorm2(br *bits.BitReader, grid [][]bool) error {
	for r := range grid {
		c := 0
		for c+1 < len(grid[r]) {
			v, err := br.ReadBits(2)
			if err != nil {
				return errs.Field(err, "NORM2_GROUP")
			}
			grid[r][c] = v&0x2 != 0
			grid[r][c+1] = v&0x1 != 0
			c += 2
		}
		if c < len(grid[r]) {
			v, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "NORM2_ODD")
			}
			grid[r][c] = v == 1
		}
	}
	return nil
}

// decodeNorm6 reads flags six at a time in 2x3 tiles (3x2 when the row
// count is odd and the column count even), per section 8.7.3.4, then reads
// each macroblock left over outside a whole tile as one raw bit; no row- or
// column-skip bit is read for the leftovers.
func decodeNorm6(br *bits.BitReader, grid [][]bool) error {
	rows, cols := len(grid), len(grid[0])

	tileRows, tileCols := 2, 3
	if rows%2 != 0 && cols%2 == 0 {
		tileRows, tileCols = 3, 2
	}

	for r := 0; r+tileRows <= rows; r += tileRows {
		for c := 0; c+tileCols <= cols; c += tileCols {
			tile, err := readNorm6Tile(br)
			if err != nil {
				return errs.Field(err, "NORM6_TILE")
			}
			bit := 5
			for dr := 0; dr < tileRows; dr++ {
				for dc := 0; dc < tileCols; dc++ {
					grid[r+dr][c+dc] = tile&(1<<uint(bit)) != 0
					bit--
				}
			}
		}
	}

	// Leftover columns/rows outside whole tiles, handled with a raw pass.
	wholeRows := (rows / tileRows) * tileRows
	wholeCols := (cols / tileCols) * tileCols
	for r := wholeRows; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "NORM6_LEFTOVER")
			}
			grid[r][c] = v == 1
		}
	}
	for r := 0; r < wholeRows; r++ {
		for c := wholeCols; c < cols; c++ {
			v, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "NORM6_LEFTOVER")
			}
			grid[r][c] = v == 1
		}
	}
	return nil
}

// applyInverseDiff applies the INVERT-flag-controlled inverse XOR-diff
// pass used by Diff2/Diff6, per section 8.7.3.3: the coded grid holds the
// XOR of each flag with its left and upper neighbor, optionally inverted
// first across every macroblock.
func applyInverseDiff(br *bits.BitReader, grid [][]bool) error {
	invert, err := br.ReadBits(1)
	if err != nil {
		return errs.Field(err, "INVERT")
	}

	out := make([][]bool, len(grid))
	for r := range grid {
		out[r] = make([]bool, len(grid[r]))
		for c := range grid[r] {
			v := grid[r][c]
			if invert == 1 {
				v = !v
			}
			if c > 0 {
				v = v != out[r][c-1]
			}
			if r > 0 {
				v = v != out[r-1][c]
			}
			out[r][c] = v
		}
	}
	copy(grid, out)
	return nil
}

// decodeRowSkip reads a per-row skip bit; a skipped row's macroblocks are
// all false without further bits, an unskipped row reads one raw bit per
// macroblock, per section 8.7.3.5.
func decodeRowSkip(br *bits.BitReader, grid [][]bool) error {
	for r := range grid {
		skip, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "ROWSKIP")
		}
		if skip == 1 {
			continue
		}
		for c := range grid[r] {
			v, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "ROWSKIP_BIT")
			}
			grid[r][c] = v == 1
		}
	}
	return nil
}

// decodeColSkip mirrors decodeRowSkip along columns, per section 8.7.3.6.
func decodeColSkip(br *bits.BitReader, grid [][]bool) error {
	cols := len(grid[0])
	for c := 0; c < cols; c++ {
		skip, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, "COLSKIP")
		}
		if skip == 1 {
			continue
		}
		for r := range grid {
			v, err := br.ReadBits(1)
			if err != nil {
				return errs.Field(err, "COLSKIP_BIT")
			}
			grid[r][c] = v == 1
		}
	}
	return nil
}
