/*
DESCRIPTION
  driver.go drives VC-1 parsing: Advanced profile scans for start codes;
  Simple/Main profile treats each input buffer as one frame, per section
  4.13's per-codec driver contract.

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
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/registry"
)

func init() {
	registry.Register("video/vc1", func() registry.Parser { return NewDecoder(nil) })
}

// Picture is the finalised descriptor for one decoded VC-1 frame.
type Picture struct {
	Header    *FrameHeader
	Timestamp common.Timestamp
}

// Decoder drives VC-1 parsing for both the Advanced profile (start-code
// delimited) and the Simple/Main profiles (one frame per buffer).
type Decoder struct {
	Log logging.Logger

	Sequence   *SequenceHeader
	EntryPoint *EntryPointHeader

	Current *Picture
}

// NewDecoder returns a Decoder that logs through log, which may be nil.
func NewDecoder(log logging.Logger) *Decoder {
	return &Decoder{Log: log}
}

// Codec reports the MIME type this Decoder parses.
func (d *Decoder) Codec() string { return "video/vc1" }

// CurrentSequence returns the most recently parsed sequence header, or
// nil if none has been parsed.
func (d *Decoder) CurrentSequence() *SequenceHeader { return d.Sequence }

// CurrentPicture returns the most recently decoded picture, or nil.
func (d *Decoder) CurrentPicture() *Picture { return d.Current }

// Flush discards buffered state; VC-1 as modeled here carries no
// output-reorder buffer beyond the single current picture, so there is
// nothing further to emit.
func (d *Decoder) Flush() []common.POC {
	d.Current = nil
	return nil
}

// Reset resets the Decoder to an empty state, per the reset(config)
// contract.
func (d *Decoder) Reset() {
	*d = Decoder{Log: d.Log}
}

// mbGrid derives the macroblock grid dimensions for the current coded
// size, rounding up to whole 16x16 macroblocks.
func mbGrid(width, height int) (rows, cols int) {
	return (height + 15) / 16, (width + 15) / 16
}

// Decode parses buf as a VC-1 byte stream, per section 4.13: if buf
// carries a sequence (0x0000010F) or entry-point (0x0000010E) start code,
// it is treated as Advanced profile and
// scanned for start-code-delimited units; otherwise buf is treated as one
// Simple/Main profile raw frame.
func (d *Decoder) Decode(buf []byte, ts common.Timestamp) (common.Status, error) {
	if looksLikeAdvancedProfile(buf) {
		return d.decodeAdvanced(buf, ts)
	}
	return d.decodeSimpleOrMain(buf, ts)
}

func looksLikeAdvancedProfile(buf []byte) bool {
	units := scanUnits(buf)
	for _, u := range units {
		if u.Kind == startCodeSequence || u.Kind == startCodeEntryPoint {
			return true
		}
	}
	return false
}

func (d *Decoder) decodeAdvanced(buf []byte, ts common.Timestamp) (common.Status, error) {
	units := scanUnits(buf)
	status := common.StatusOK

	for _, u := range units {
		switch u.Kind {
		case startCodeSequence:
			sh, err := ParseAdvancedSequenceHeader(u.Payload)
			if err != nil {
				return common.StatusInvalidData, errs.Field(err, "sequence_header")
			}
			d.Sequence = sh
			status = common.StatusFormatChange

		case startCodeEntryPoint:
			if d.Sequence == nil {
				return common.StatusInvalidData, errs.New(errs.KindMissingReference, "entry point before sequence header")
			}
			eh, err := ParseEntryPointHeader(u.Payload, d.Sequence)
			if err != nil {
				return common.StatusInvalidData, errs.Field(err, "entry_point_header")
			}
			d.EntryPoint = eh

		case startCodeFrame:
			if d.Sequence == nil || d.EntryPoint == nil {
				return common.StatusInvalidData, errs.New(errs.KindMissingReference, "frame before sequence/entry-point header")
			}
			rbdu := toRBDU(u.Payload)
			rows, cols := mbGrid(d.EntryPoint.CodedWidth, d.EntryPoint.CodedHeight)
			fh, err := ParseFrameHeader(rbdu, d.Sequence, d.EntryPoint, rows, cols)
			if err != nil {
				return common.StatusShortRead, errs.Field(err, "frame_header")
			}
			d.Current = &Picture{Header: fh, Timestamp: ts}

		case startCodeEndOfSequence:
			// No further payload; marks the end of the coded stream.

		default:
			if d.Log != nil {
				d.Log.Debug("ignoring unhandled VC-1 start code", "kind", u.Kind)
			}
		}
	}
	return status, nil
}

func (d *Decoder) decodeSimpleOrMain(buf []byte, ts common.Timestamp) (common.Status, error) {
	if d.Sequence == nil {
		sh, err := ParseSequenceHeader(buf)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "sequence_header")
		}
		d.Sequence = sh
		return common.StatusFormatChange, nil
	}

	// Per section 4.9, Simple/Main profile frames carry no start codes;
	// the caller supplies one frame per Decode call. Coded size for these
	// profiles is conveyed out-of-band (e.g. by the container), so a
	// fixed macroblock grid is assumed here until a container-level size
	// is wired in by the caller.
	const assumedWidth, assumedHeight = 176, 144
	rows, cols := mbGrid(assumedWidth, assumedHeight)
	fh, err := ParseFrameHeader(buf, d.Sequence, &EntryPointHeader{CodedWidth: assumedWidth, CodedHeight: assumedHeight}, rows, cols)
	if err != nil {
		return common.StatusShortRead, errs.Field(err, "frame_header")
	}
	d.Current = &Picture{Header: fh, Timestamp: ts}
	return common.StatusOK, nil
}
