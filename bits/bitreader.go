/*
DESCRIPTION
  bitreader.go provides a bit reader implementation that can read or peek from
  an io.Reader data source, or directly from an in-memory byte buffer.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package bits provides a bit reader implementation that can read or peek from
// an io.Reader data source, or directly from a caller-owned byte buffer.
package bits

import (
	"bufio"
	"io"
)

type bytePeeker interface {
	io.ByteReader
	Peek(int) ([]byte, error)
}

// byteWindow is an immutable view over a caller-owned contiguous byte region.
// It implements bytePeeker without the extra copying a bufio.Reader would add,
// and it knows its own length so BitReader can report position/remaining bits
// and end-of-buffer precisely.
type byteWindow struct {
	buf []byte
	off int
}

func (w *byteWindow) ReadByte() (byte, error) {
	if w.off >= len(w.buf) {
		return 0, io.EOF
	}
	b := w.buf[w.off]
	w.off++
	return b, nil
}

func (w *byteWindow) Peek(n int) ([]byte, error) {
	if w.off+n > len(w.buf) {
		return nil, io.EOF
	}
	return w.buf[w.off : w.off+n], nil
}

// BitReader is a bit reader that provides methods for reading bits from an
// io.Reader source, big-endian, with a word-sized cache that is refilled as
// required.
type BitReader struct {
	r        bytePeeker
	n        uint64
	bits     int
	nRead    int
	size     int // Total size in bytes, known only when backed by a byteWindow.
	sizeKnow bool
}

// NewBitReader returns a new BitReader reading from r.
func NewBitReader(r io.Reader) *BitReader {
	byter, ok := r.(bytePeeker)
	if !ok {
		byter = bufio.NewReader(r)
	}
	return &BitReader{r: byter}
}

// NewReader returns a new BitReader over the given byte buffer. Unlike
// NewBitReader, the total size is known up front so RemainingBits, AtEnd and
// PositionInBits are exact.
func NewReader(buf []byte) *BitReader {
	return &BitReader{r: &byteWindow{buf: buf}, size: len(buf), sizeKnow: true}
}

// ReadBits reads n bits (1 <= n <= 32) from the source and returns them in the
// least-significant part of a uint64.
// For example, with a source as []byte{0x8f,0xe3} (1000 1111, 1110 0011), we
// would get the following results for consequtive reads with n values:
// n = 4, res = 0x8 (1000)
// n = 2, res = 0x3 (0011)
// n = 4, res = 0xf (1111)
// n = 6, res = 0x23 (0010 0011)
func (br *BitReader) ReadBits(n int) (uint64, error) {
	for n > br.bits {
		b, err := br.r.ReadByte()
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, err
		}
		br.nRead++
		br.n <<= 8
		br.n |= uint64(b)
		br.bits += 8
	}

	// br.n looks like this (assuming that br.bits = 14 and bits = 6):
	// Bit: 111111
	//      5432109876543210
	//
	//         (6 bits, the desired output)
	//        |-----|
	//        V     V
	//      0101101101001110
	//        ^            ^
	//        |------------|
	//           br.bits (num valid bits)
	//
	// This the next line right shifts the desired bits into the
	// least-significant places and masks off anything above.
	r := (br.n >> uint(br.bits-n)) & ((1 << uint(n)) - 1)
	br.bits -= n
	return r, nil
}

// ReadBitsUnchecked reads n bits as ReadBits does, but returns 0 rather than
// an error should the read run past the end of the buffer.
func (br *BitReader) ReadBitsUnchecked(n int) uint64 {
	v, err := br.ReadBits(n)
	if err != nil {
		return 0
	}
	return v
}

// PeekBits provides the next n bits returning them in the least-significant
// part of a uint64, without advancing through the source.
// For example, with a source as []byte{0x8f,0xe3} (1000 1111, 1110 0011), we
// would get the following results for consequtive peeks with n values:
// n = 4, res = 0x8 (1000)
// n = 8, res = 0x8f (1000 1111)
// n = 16, res = 0x8fe3 (1000 1111, 1110 0011)
func (br *BitReader) PeekBits(n int) (uint64, error) {
	byt, err := br.r.Peek(int((n-br.bits)+7) / 8)
	bits := br.bits
	if err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	v := br.n
	for i := 0; n > bits; i++ {
		b := byt[i]
		v <<= 8
		v |= uint64(b)
		bits += 8
	}

	r := (v >> uint(bits-n)) & ((1 << uint(n)) - 1)
	return r, nil
}

// Skip advances the reader by n bits without returning their value. It fails
// with io.ErrUnexpectedEOF if fewer than n bits remain.
func (br *BitReader) Skip(n int) error {
	for n > 32 {
		if _, err := br.ReadBits(32); err != nil {
			return err
		}
		n -= 32
	}
	if n == 0 {
		return nil
	}
	_, err := br.ReadBits(n)
	return err
}

// Clone returns a copy of the reader's current state, useful for peek-based
// lookahead that needs more bookkeeping than PeekBits provides (e.g. peeking
// past a byte boundary and then deciding whether to commit to the read).
// Only an in-memory byte source is copied; any other source is shared with
// br, so reading from the clone also consumes br's input.
func (br *BitReader) Clone() *BitReader {
	cp := *br
	if w, ok := br.r.(*byteWindow); ok {
		wcp := *w
		cp.r = &wcp
	}
	return &cp
}

// ByteAligned returns true if the reader position is at the start of a byte,
// and false otherwise.
func (br *BitReader) ByteAligned() bool {
	return br.bits == 0
}

// Off returns the current offset from the starting bit of the current byte.
func (br *BitReader) Off() int {
	if br.bits == 0 {
		return 0
	}
	return 8 - br.bits
}

// BytesRead returns the number of bytes that have been read by the BitReader.
func (br *BitReader) BytesRead() int {
	return br.nRead
}

// PositionInBits returns the current bit position relative to the start of
// the buffer: 8*BytesRead() - (bits currently cached but not yet consumed).
func (br *BitReader) PositionInBits() int {
	return br.nRead*8 - br.bits
}

// RemainingBits returns the number of unread bits left in the buffer. It is
// only accurate when the reader was constructed with NewReader, since a plain
// io.Reader source has no known total length.
func (br *BitReader) RemainingBits() int {
	if !br.sizeKnow {
		return -1
	}
	return br.size*8 - br.PositionInBits()
}

// AtEnd reports whether the reader has consumed every bit of a buffer of
// known size (see RemainingBits).
func (br *BitReader) AtEnd() bool {
	if !br.sizeKnow {
		return false
	}
	return br.RemainingBits() <= 0
}
