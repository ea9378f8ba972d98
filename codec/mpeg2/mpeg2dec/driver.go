/*
DESCRIPTION
  driver.go drives MPEG-2 start-code-delimited elementary stream parsing:
  sequence/GOP/picture/extension/slice dispatch, quantiser-matrix
  inheritance, and the three-entry reference-picture queue used to reorder
  I/P pictures for display around immediately-output B pictures.

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
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/registry"
)

func init() {
	registry.Register("video/mpeg2", func() registry.Parser { return NewDecoder(nil) })
}

// Picture is the finalised descriptor for one coded picture: the picture and
// (if present) coding-extension headers, plus the output timestamp.
type Picture struct {
	Header    *PictureHeader
	Coding    *PictureCodingExtension
	Timestamp common.Timestamp
}

// Decoder drives MPEG-2 elementary stream parsing, section 4.13.
type Decoder struct {
	Log logging.Logger

	SequenceHeader    *SequenceHeader
	SequenceExtension *SequenceExtension
	GOPHeader         *GOPHeader

	// current accumulates the picture presently being parsed across calls,
	// following previousStartCode/nextStartCode transitions: sequence
	// header -> sequence extension -> picture header -> coding extension ->
	// first slice.
	current *Picture

	// queue is the three-entry prior/current/next reference-picture queue
	// of section 3 (MPEG-2 state): B pictures are emitted immediately, I/P
	// pictures are held until displaced by the next I/P picture so that
	// display order can be recovered from coding order.
	queue []*Picture

	// Output collects pictures ready to hand to the caller in display
	// order, drained by the driver's caller after each Decode call.
	Output []*Picture

	previousStartCode int
}

// NewDecoder returns a Decoder that logs through log, which may be nil.
func NewDecoder(log logging.Logger) *Decoder {
	return &Decoder{Log: log}
}

// Codec reports the MIME type this Decoder parses.
func (d *Decoder) Codec() string { return "video/mpeg2" }

// CurrentSequenceHeader returns the most recently parsed sequence header, or
// nil.
func (d *Decoder) CurrentSequenceHeader() *SequenceHeader { return d.SequenceHeader }

// Flush emits every buffered reference picture (section 4.13's draining
// behaviour at a sequence boundary) in queue order.
func (d *Decoder) Flush() []*Picture {
	out := append([]*Picture(nil), d.queue...)
	d.queue = nil
	return out
}

// Reset discards all parser state, per the reset(config) contract.
func (d *Decoder) Reset() {
	*d = Decoder{Log: d.Log}
}

// Decode splits buf into start-code-delimited units and dispatches each to
// the appropriate header parser, accumulating Output as pictures are
// displaced from the reference queue.
func (d *Decoder) Decode(buf []byte, ts common.Timestamp) (common.Status, error) {
	units := scanUnits(buf)
	if len(units) == 0 {
		return common.StatusShortRead, errs.ErrShortRead
	}

	status := common.StatusOK
	for _, u := range units {
		s, err := d.decodeOne(u, ts)
		if err != nil {
			if d.Log != nil {
				d.Log.Debug("MPEG-2 unit parse error", "error", err.Error())
			}
			status = s
			continue
		}
		status = s
	}
	return status, nil
}

func (d *Decoder) decodeOne(u unit, ts common.Timestamp) (common.Status, error) {
	switch u.kind {
	case unitSequenceHeader:
		sh, err := ParseSequenceHeader(u.payload)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "sequence_header")
		}
		// A new sequence header after an established one does not inherit the
		// prior quantiser matrices: ParseSequenceHeader resets them to the
		// defaults before loading any the header carries (section 6.2.2.1).
		d.SequenceHeader = sh
		d.previousStartCode = u.startCode
		return common.StatusFormatChange, nil

	case unitSequenceExtension:
		se, err := ParseSequenceExtension(u.payload)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "sequence_extension")
		}
		d.SequenceExtension = se
		d.previousStartCode = u.startCode
		return common.StatusOK, nil

	case unitQuantMatrixExtension:
		if d.SequenceHeader == nil {
			return common.StatusInvalidData, errs.New(errs.KindMissingReference, "quant_matrix_extension before sequence_header")
		}
		if err := ApplyQuantMatrixExtension(&d.SequenceHeader.Quant, u.payload); err != nil {
			return common.StatusInvalidData, errs.Field(err, "quant_matrix_extension")
		}
		c := d.SequenceHeader.Quant.Changed
		if !(c[0] || c[1] || c[2] || c[3]) {
			return common.StatusOK, nil
		}
		return common.StatusFormatChange, nil

	case unitGroupStart:
		gh, err := ParseGOPHeader(u.payload)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "group_of_pictures_header")
		}
		d.GOPHeader = gh
		return common.StatusOK, nil

	case unitPictureHeader:
		ph, err := ParsePictureHeader(u.payload)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "picture_header")
		}
		d.current = &Picture{Header: ph, Timestamp: ts}
		d.previousStartCode = u.startCode
		return common.StatusOK, nil

	case unitPictureCodingExtension:
		if d.current == nil {
			return common.StatusInvalidData, errs.New(errs.KindMissingReference, "picture_coding_extension before picture_header")
		}
		pce, err := ParsePictureCodingExtension(u.payload)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "picture_coding_extension")
		}
		d.current.Coding = pce
		return common.StatusOK, nil

	case unitSlice:
		if d.current == nil {
			return common.StatusInvalidData, errs.New(errs.KindMissingReference, "slice before picture_header")
		}
		vsize := 0
		if d.SequenceHeader != nil {
			vsize = d.SequenceHeader.VerticalSize
		}
		if _, err := ParseSliceHeader(u.payload, int(u.startCode), vsize); err != nil {
			return common.StatusInvalidData, errs.Field(err, "slice")
		}
		if u.sliceRow == 0 {
			d.finishPicture()
		}
		return common.StatusOK, nil

	case unitSequenceEnd:
		d.finishPicture()
		out := d.Flush()
		d.Output = append(d.Output, out...)
		return common.StatusOK, nil

	default:
		return common.StatusOK, nil
	}
}

// finishPicture applies the three-entry queue policy of section 3: a B
// picture is appended directly to Output since it is never referenced by a
// later picture and so needs no buffering; an I or P picture displaces the
// oldest queued reference picture (if the queue is already at its two-entry
// reference capacity) into Output before being queued itself.
func (d *Decoder) finishPicture() {
	if d.current == nil {
		return
	}
	pic := d.current
	d.current = nil

	if pic.Header.CodingType == PictureTypeB {
		d.Output = append(d.Output, pic)
		return
	}

	const maxQueuedReferences = 2
	if len(d.queue) >= maxQueuedReferences {
		d.Output = append(d.Output, d.queue[0])
		d.queue = d.queue[1:]
	}
	d.queue = append(d.queue, pic)
}
