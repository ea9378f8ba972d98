/*
DESCRIPTION
  driver.go drives VP8 frame parsing: the uncompressed frame tag, the
  Boolean-coded compressed header, the reference-frame-role rotation, and the
  key-frame gate that rejects an inter frame before any key frame has been
  observed, per sections 9.1-9.11 and 9.7 of RFC 6386.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vp8dec

import (
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vidcore/boolcoder"
	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/registry"
)

func init() {
	registry.Register("video/vp8", func() registry.Parser { return NewDecoder(nil) })
}

// Frame is the finalised descriptor for one decoded VP8 frame.
type Frame struct {
	Tag        FrameTag
	Dimensions *Dimensions // Non-nil only for a key frame.
	Header     *FrameHeader
	Timestamp  common.Timestamp
}

// refSlot names the three reference-frame roles of section 9.7.
type refSlot int

const (
	refLast refSlot = iota
	refGolden
	refAltRef
	numRefSlots
)

// Decoder drives single-frame VP8 parsing, section 4.13: the driver treats
// each input buffer as one whole frame.
type Decoder struct {
	Log logging.Logger

	// refs holds the most recent Frame assigned to each reference role.
	// A key frame assigns itself to all three roles at once.
	refs [numRefSlots]*Frame

	sawKeyFrame bool

	Current *Dimensions
}

// NewDecoder returns a Decoder that logs through log, which may be nil.
func NewDecoder(log logging.Logger) *Decoder {
	return &Decoder{Log: log}
}

// Codec reports the MIME type this Decoder parses.
func (d *Decoder) Codec() string { return "video/vp8" }

// CurrentDimensions returns the most recently parsed key frame's
// dimensions, or nil if none has been parsed.
func (d *Decoder) CurrentDimensions() *Dimensions { return d.Current }

// Flush discards reference-frame state; VP8 carries no output-reorder
// buffer (every frame is output as decoded), so there is nothing further
// to emit.
func (d *Decoder) Flush() []common.POC {
	d.refs = [numRefSlots]*Frame{}
	d.sawKeyFrame = false
	return nil
}

// Reset resets the Decoder to an empty state, per the reset(config)
// contract.
func (d *Decoder) Reset() {
	*d = Decoder{Log: d.Log}
}

// Decode parses buf as a single VP8 frame, per section 4.13.
func (d *Decoder) Decode(buf []byte, ts common.Timestamp) (common.Status, error) {
	tag, err := ParseFrameTag(buf)
	if err != nil {
		return common.StatusShortRead, errs.Field(err, "frame_tag")
	}

	if !tag.KeyFrame && !d.sawKeyFrame {
		return common.StatusInvalidData, errs.ErrMissingKeyframe
	}

	rest := buf[3:]
	var dims *Dimensions
	if tag.KeyFrame {
		dims, err = ParseDimensions(rest)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "key_frame_dimensions")
		}
		rest = rest[7:]
		d.Current = dims
	}

	if tag.FirstPartSize > len(rest) {
		return common.StatusShortRead, errs.ErrShortRead
	}
	partition := rest[:tag.FirstPartSize]

	bc := boolcoder.New(partition)
	header := ParseFrameHeader(bc, tag.KeyFrame)
	if err := bc.Err(); err != nil {
		return common.StatusShortRead, err
	}

	frame := &Frame{Tag: *tag, Dimensions: dims, Header: header, Timestamp: ts}
	d.rotateReferences(frame, tag.KeyFrame, header)

	d.sawKeyFrame = true

	status := common.StatusOK
	if tag.KeyFrame {
		status = common.StatusFormatChange
	}
	if d.Log != nil {
		d.Log.Debug("parsed VP8 frame", "keyFrame", tag.KeyFrame, "bytes", len(buf))
	}
	return status, nil
}

// rotateReferences updates the last/golden/alt-ref roles per section 9.7: a
// key frame assigns the current picture to all three; otherwise each role
// either refreshes to the current frame, copies from another role, or is
// left unchanged, according to the header's refresh/copy fields.
func (d *Decoder) rotateReferences(frame *Frame, keyFrame bool, h *FrameHeader) {
	if keyFrame {
		d.refs[refLast] = frame
		d.refs[refGolden] = frame
		d.refs[refAltRef] = frame
		return
	}

	// Copy-from-buffer happens before any refresh, per the semantics of
	// copy_buffer_to_golden_frame / copy_buffer_to_alternate_frame in
	// section 9.7: "1" copies from the last frame, "2" copies from the
	// alternate (for golden) or golden (for alt-ref) buffer.
	if !h.RefreshGolden {
		switch h.CopyBufferToGolden {
		case 1:
			d.refs[refGolden] = d.refs[refLast]
		case 2:
			d.refs[refGolden] = d.refs[refAltRef]
		}
	}
	if !h.RefreshAltRef {
		switch h.CopyBufferToAltRef {
		case 1:
			d.refs[refAltRef] = d.refs[refLast]
		case 2:
			d.refs[refAltRef] = d.refs[refGolden]
		}
	}

	if h.RefreshGolden {
		d.refs[refGolden] = frame
	}
	if h.RefreshAltRef {
		d.refs[refAltRef] = frame
	}
	if h.RefreshLast {
		d.refs[refLast] = frame
	}
}
