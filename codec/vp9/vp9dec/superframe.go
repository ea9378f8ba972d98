/*
DESCRIPTION
  superframe.go splits a VP9 super-frame — several coded frames concatenated
  with a trailing index — into its constituent frames, per Annex B of the
  VP9 Bitstream & Decoding Process Specification.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vp9dec provides a decoder for VP9 frame headers: per-frame header
// parsing, super-frame index splitting, per-frame dequantizer tables, and the
// loop-filter and segmentation state carried across frames.
package vp9dec

import "github.com/ausocean/vidcore/errs"

const superframeMarkerMask = 0xe0 // Top 3 bits of the marker byte: 0b110.
const superframeMarkerValue = 0xc0

// SplitSuperframe inspects the final byte of buf for a super-frame marker
// and, if present and valid, returns the byte ranges of each contained
// frame in order. If no marker is present, it returns a single range
// covering the whole buffer.
func SplitSuperframe(buf []byte) ([][]byte, error) {
	if len(buf) < 3 {
		return [][]byte{buf}, nil
	}

	marker := buf[len(buf)-1]
	if marker&superframeMarkerMask != superframeMarkerValue {
		return [][]byte{buf}, nil
	}

	magBytesMinus1 := int((marker >> 3) & 0x3)
	framesMinus1 := int(marker & 0x7)
	magBytes := magBytesMinus1 + 1
	frameCount := framesMinus1 + 1

	indexSize := 2 + magBytes*frameCount
	if len(buf) < indexSize {
		return nil, errs.New(errs.KindInvalidData, "super-frame index longer than buffer")
	}

	indexStart := len(buf) - indexSize
	if buf[indexStart] != marker {
		return nil, errs.New(errs.KindInvalidData, "super-frame index start marker mismatch")
	}

	sizes := make([]int, frameCount)
	pos := indexStart + 1
	for i := 0; i < frameCount; i++ {
		size := 0
		for b := 0; b < magBytes; b++ {
			size |= int(buf[pos]) << (8 * b)
			pos++
		}
		sizes[i] = size
	}

	frames := make([][]byte, 0, frameCount)
	off := 0
	for _, size := range sizes {
		if off+size > indexStart {
			return nil, errs.New(errs.KindInvalidData, "super-frame index sizes exceed buffer")
		}
		frames = append(frames, buf[off:off+size])
		off += size
	}
	return frames, nil
}
