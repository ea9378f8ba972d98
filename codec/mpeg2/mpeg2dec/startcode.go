/*
DESCRIPTION
  startcode.go scans an MPEG-2 video elementary stream for start codes and
  classifies the byte that follows each one, per section 6.2 and Table 6-1 of
  ISO/IEC 13818-2.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mpeg2dec provides a decoder for MPEG-2 (ISO/IEC 13818-2) video
// elementary streams: start-code-delimited sequence, GOP, picture, extension
// and slice header parsing, with quantiser-matrix inheritance across headers
// and a three-entry reference-picture queue for display reordering.
package mpeg2dec

const (
	startCodePrefixLen = 3 // The 0x000001 prefix shared by every start code.

	codePictureStart     = 0x00
	codeSliceMin         = 0x01
	codeSliceMax         = 0xAF
	codeUserData         = 0xB2
	codeSequenceHeader   = 0xB3
	codeSequenceError    = 0xB4
	codeExtensionStart   = 0xB5
	codeSequenceEnd      = 0xB7
	codeGroupStart       = 0xB8
)

// Extension start code identifiers, the 4-bit field immediately following
// the 0xB5 extension start code, per Table 6-2.
const (
	extSequence              = 1
	extSequenceDisplay       = 2
	extQuantMatrix           = 3
	extCopyright             = 4
	extSequenceScalable      = 5
	extPictureDisplay        = 7
	extPictureCoding         = 8
	extPictureSpatialScale   = 9
	extPictureTemporalScale  = 10
)

// unitKind classifies a start-code-delimited unit for the driver's dispatch.
type unitKind int

const (
	unitUnknown unitKind = iota
	unitSequenceHeader
	unitSequenceExtension
	unitSequenceDisplayExtension
	unitQuantMatrixExtension
	unitGroupStart
	unitPictureHeader
	unitPictureCodingExtension
	unitPictureDisplayExtension
	unitSlice
	unitSequenceEnd
	unitUserData
)

// unit is one start-code-delimited chunk of the elementary stream: the
// classified kind, the byte immediately following the start code (needed to
// recover a slice's macroblock row and an extension's sub-type), and the
// payload bytes following that classifying byte, exclusive of the next
// start code.
type unit struct {
	kind       unitKind
	startCode  byte
	sliceRow   int // Valid only when kind == unitSlice.
	extID      int // Valid only for *Extension kinds.
	payload    []byte
}

// scanUnits finds every 0x000001-prefixed start code in buf and returns the
// classified unit for each, in stream order. A trailing byte run after the
// final start code with no next start code to delimit it is still returned,
// ending at len(buf).
func scanUnits(buf []byte) []unit {
	var starts []int
	for i := 0; i+startCodePrefixLen < len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 1 {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return nil
	}

	units := make([]unit, 0, len(starts))
	for i, s := range starts {
		code := buf[s+startCodePrefixLen]
		end := len(buf)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		payloadStart := s + startCodePrefixLen + 1
		var payload []byte
		if payloadStart < end {
			payload = buf[payloadStart:end]
		}

		u := unit{startCode: code, payload: payload}
		switch {
		case code == codeSequenceHeader:
			u.kind = unitSequenceHeader
		case code == codeGroupStart:
			u.kind = unitGroupStart
		case code == codePictureStart:
			u.kind = unitPictureHeader
		case code == codeSequenceEnd:
			u.kind = unitSequenceEnd
		case code == codeUserData:
			u.kind = unitUserData
		case code >= codeSliceMin && code <= codeSliceMax:
			u.kind = unitSlice
			u.sliceRow = int(code) - 1
		case code == codeExtensionStart:
			if len(payload) == 0 {
				u.kind = unitUnknown
				break
			}
			id := int(payload[0] >> 4)
			u.extID = id
			switch id {
			case extSequence:
				u.kind = unitSequenceExtension
			case extSequenceDisplay:
				u.kind = unitSequenceDisplayExtension
			case extQuantMatrix:
				u.kind = unitQuantMatrixExtension
			case extPictureCoding:
				u.kind = unitPictureCodingExtension
			case extPictureDisplay:
				u.kind = unitPictureDisplayExtension
			default:
				u.kind = unitUnknown
			}
		default:
			u.kind = unitUnknown
		}
		units = append(units, u)
	}
	return units
}
