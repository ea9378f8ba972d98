// Package rbsp provides the NAL-reader layer shared by the H.264, H.265 and
// VC-1 parsers: conversion of an encapsulated byte sequence payload (EBSP) to
// a raw byte sequence payload (RBSP) by stripping emulation prevention bytes,
// and Exp-Golomb decoding over the resulting bit reader.
package rbsp

import (
	"io"
	"math"

	"github.com/ausocean/vidcore/bits"
	"github.com/pkg/errors"
)

// ToRBSP strips any 0x03 byte that follows two consecutive 0x00 bytes in
// ebsp, as specified for emulation_prevention_three_byte in section 7.4.1 of
// ITU-T H.264 (and the equivalent clause of H.265 and VC-1's encapsulation).
// It returns the stripped payload along with the number of bytes removed,
// which downstream consumers use to compute accurate byte offsets for slice
// payloads that follow a header within the same NAL unit.
func ToRBSP(ebsp []byte) (rbsp []byte, epbCount int) {
	rbsp = make([]byte, 0, len(ebsp))
	zeros := 0
	for i := 0; i < len(ebsp); i++ {
		b := ebsp[i]
		if zeros >= 2 && b == 0x03 && i+1 < len(ebsp) && ebsp[i+1] <= 0x03 {
			epbCount++
			zeros = 0
			continue
		}
		rbsp = append(rbsp, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return rbsp, epbCount
}

// ReadUE parses a syntax element of ue(v) descriptor, i.e. an unsigned integer
// Exp-Golomb-coded element, using the method specified in section 9.1 of
// ITU-T H.264: count the leading zero bits until a 1 is seen (length L), read
// L more bits V, and return (1<<L)-1+V.
func ReadUE(br *bits.BitReader) (uint64, error) {
	nZeros := -1
	var err error
	for b := uint64(0); b == 0; nZeros++ {
		b, err = br.ReadBits(1)
		if err != nil {
			return 0, errors.Wrap(err, "could not read leading zero bit")
		}
	}
	rem, err := br.ReadBits(nZeros)
	if err != nil {
		return 0, errors.Wrap(err, "could not read ue(v) remainder bits")
	}
	return uint64(1)<<uint(nZeros) - 1 + rem, nil
}

// ReadSE parses a syntax element with descriptor se(v), i.e. a signed integer
// Exp-Golomb-coded syntax element, mapping the ue(v) codeNum c to
// ceil(c/2) * (c odd ? +1 : -1) as specified in sections 9.1 and 9.1.1.
func ReadSE(br *bits.BitReader) (int, error) {
	codeNum, err := ReadUE(br)
	if err != nil {
		return 0, errors.Wrap(err, "error reading ue(v)")
	}
	v := int(math.Ceil(float64(codeNum) / 2.0))
	if codeNum%2 == 0 {
		v = -v
	}
	return v, nil
}

// ReadTE parses a syntax element of te(v) descriptor, i.e. a truncated
// Exp-Golomb-coded syntax element, using the method specified in section 9.1:
// when x > 1 this is identical to ue(v); when x == 1 it is a single
// complemented bit.
func ReadTE(br *bits.BitReader, x uint) (int64, error) {
	if x > 1 {
		ue, err := ReadUE(br)
		return int64(ue), err
	}
	if x == 1 {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, errors.Wrap(err, "could not read te(v) bit")
		}
		if b == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errBadTEBound
}

var errBadTEBound = errors.New("te(v) upper bound must be >= 1")

// MoreRBSPData implements more_rbsp_data() as specified in section 7.2: it
// reports whether any non-zero bit remains in br before the rbsp_stop_one_bit
// and its trailing zero-alignment bits.
func MoreRBSPData(br *bits.BitReader) bool {
	b, err := br.PeekBits(1)
	if err != nil {
		return false
	}
	if b == 0 {
		return true
	}

	// We're on a candidate stop bit; it is the rbsp_stop_one_bit only if
	// every later bit in br is zero.
	rembits := 8 - br.Off()
	b, err = br.PeekBits(rembits)
	if err != nil {
		return false
	}
	if b != uint64(1)<<uint(rembits-1) {
		return true
	}
	for n := rembits + 8; ; n += 8 {
		b, err = br.PeekBits(n)
		if err != nil {
			return false
		}
		if b&0xff != 0 {
			return true
		}
	}
}

// RBSPTrailingBits consumes the rbsp_stop_one_bit (always 1) followed by
// rbsp_alignment_zero_bit padding up to the next byte boundary, as specified
// in section 7.3.2.11.
func RBSPTrailingBits(br *bits.BitReader) error {
	b, err := br.ReadBits(1)
	if err != nil {
		return errors.Wrap(err, "could not read rbsp_stop_one_bit")
	}
	if b != 1 {
		return errors.New("rbsp_stop_one_bit was not 1")
	}
	for !br.ByteAligned() {
		if _, err := br.ReadBits(1); err != nil {
			if err == io.ErrUnexpectedEOF {
				break
			}
			return errors.Wrap(err, "could not read rbsp_alignment_zero_bit")
		}
	}
	return nil
}
