/*
DESCRIPTION
  frame.go parses the VP8 uncompressed frame tag and, for key frames, the
  start code and dimension fields that follow it, per sections 9.1 and 9.2
  of RFC 6386.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vp8dec provides a decoder for VP8 (RFC 6386) frames: the
// uncompressed frame tag, the first-partition compressed header parsed with
// the boolcoder Boolean decoder, and the reference-frame rotation and
// key-frame gate that carry state between frames.
package vp8dec

import "github.com/ausocean/vidcore/errs"

// FrameTag is the 3-byte uncompressed data chunk that begins every VP8
// frame, per section 9.1.
type FrameTag struct {
	KeyFrame        bool
	Version         int
	ShowFrame       bool
	FirstPartSize   int
}

// vp8StartCode is the 3-byte key-frame start code, per section 9.2.
var vp8StartCode = [3]byte{0x9d, 0x01, 0x2a}

// ParseFrameTag parses the 3-byte frame tag from the front of buf.
func ParseFrameTag(buf []byte) (*FrameTag, error) {
	if len(buf) < 3 {
		return nil, errs.ErrShortRead
	}
	tag := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16

	ft := &FrameTag{}
	ft.KeyFrame = tag&0x1 == 0 // key_frame is inverted: 0 means key frame.
	ft.Version = int((tag >> 1) & 0x7)
	ft.ShowFrame = (tag>>4)&0x1 == 1
	ft.FirstPartSize = int((tag >> 5) & 0x7ffff)
	return ft, nil
}

// Dimensions is the key-frame-only width/height/scale fields following the
// start code, per section 9.2.
type Dimensions struct {
	Width       int
	HorizScale  int
	Height      int
	VertScale   int
}

// ParseDimensions parses the 7 bytes following the frame tag on a key frame:
// the 3-byte start code and two 16-bit width/height-plus-scale fields.
func ParseDimensions(buf []byte) (*Dimensions, error) {
	if len(buf) < 7 {
		return nil, errs.ErrShortRead
	}
	if buf[0] != vp8StartCode[0] || buf[1] != vp8StartCode[1] || buf[2] != vp8StartCode[2] {
		return nil, errs.New(errs.KindInvalidData, "missing VP8 key frame start code")
	}
	w := uint16(buf[3]) | uint16(buf[4])<<8
	h := uint16(buf[5]) | uint16(buf[6])<<8
	return &Dimensions{
		Width:      int(w & 0x3fff),
		HorizScale: int(w >> 14),
		Height:     int(h & 0x3fff),
		VertScale:  int(h >> 14),
	}, nil
}
