/*
DESCRIPTION
  startcode.go scans an Advanced-profile VC-1 byte stream for start codes
  and converts an encapsulated byte-data-unit (EBDU) into a raw
  byte-data-unit (RBDU) by stripping emulation-prevention bytes, per
  Annex E of SMPTE 421M.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vc1dec provides a decoder for VC-1 sequence, entry-point, and
// frame headers, including all seven bit-plane coding modes used to carry
// per-macroblock flags.
package vc1dec

import "github.com/ausocean/vidcore/rbsp"

// Start-code values (the fourth byte following the 0x00 0x00 0x01 prefix),
// per table 256 of Annex E.
const (
	startCodeEndOfSequence = 0x0A
	startCodeSlice         = 0x0B
	startCodeField         = 0x0C
	startCodeFrame         = 0x0D
	startCodeEntryPoint    = 0x0E
	startCodeSequence      = 0x0F
)

// unit is one start-code-delimited span of an Advanced-profile byte
// stream, with prefix and start-code byte excluded from Payload.
type unit struct {
	Kind    byte
	Payload []byte
}

// scanUnits splits buf on 0x000001 start codes. Bytes preceding the first
// start code, if any, are discarded as they carry no parseable unit.
func scanUnits(buf []byte) []unit {
	var units []unit
	i := 0
	for i+3 < len(buf) {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 1 {
			kind := buf[i+3]
			start := i + 4
			end := len(buf)
			for j := start; j+2 < len(buf); j++ {
				if buf[j] == 0 && buf[j+1] == 0 && buf[j+2] == 1 {
					end = j
					break
				}
			}
			units = append(units, unit{Kind: kind, Payload: buf[start:end]})
			i = end
			continue
		}
		i++
	}
	return units
}

// toRBDU converts an EBDU to an RBDU by stripping emulation-prevention
// bytes. VC-1 uses the same 0x00 0x00 0x03 escape as H.264/H.265, so this
// is a thin wrapper over the shared RBSP de-escaper.
func toRBDU(ebdu []byte) []byte {
	rbdu, _ := rbsp.ToRBSP(ebdu)
	return rbdu
}
