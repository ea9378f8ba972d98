/*
DESCRIPTION
  driver.go drives VP9 frame parsing: super-frame splitting, per-frame header
  parsing, the 8-slot reference-frame table with refresh_frame_flags
  bookkeeping, and the show_existing_frame shortcut, per sections 7 and 8.10
  of the VP9 Bitstream & Decoding Process Specification.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vp9dec

import (
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/registry"
)

func init() {
	registry.Register("video/vp9", func() registry.Parser { return NewDecoder(nil) })
}

const numRefSlots = 8

// refFrame is the state a reference slot carries forward: enough to
// resolve frame_size_with_refs and to build dequantizer tables for a
// subsequent inter frame that reuses this slot's bit depth.
type refFrame struct {
	Width, Height int
	Color         ColorConfig
}

// Frame is the finalised descriptor for one decoded VP9 frame, one entry
// per super-frame constituent.
type Frame struct {
	Header    *FrameHeader
	Dequant   *DequantTables
	Timestamp common.Timestamp
}

// Decoder drives VP9 frame parsing across a super-frame packet, holding
// the 8-slot reference table and the loop-filter/segmentation state that
// persists between frames per sections 7.2.7 and 7.2.10.
type Decoder struct {
	Log logging.Logger

	refs [numRefSlots]refFrame

	prevLoopFilter   LoopFilter
	prevSegmentation Segmentation

	sawKeyFrame bool

	Current []*Frame
}

// NewDecoder returns a Decoder that logs through log, which may be nil.
func NewDecoder(log logging.Logger) *Decoder {
	return &Decoder{Log: log}
}

// Codec reports the MIME type this Decoder parses.
func (d *Decoder) Codec() string { return "video/vp9" }

// CurrentFrames returns the frames produced by the most recent Decode
// call, in super-frame order.
func (d *Decoder) CurrentFrames() []*Frame { return d.Current }

// Flush discards reference-frame and persistent header state; VP9 carries
// no output-reorder buffer of its own in this core (display ordering for
// show_existing_frame is resolved at decode time), so there is nothing
// further to emit.
func (d *Decoder) Flush() []common.POC {
	d.refs = [numRefSlots]refFrame{}
	d.prevLoopFilter = LoopFilter{}
	d.prevSegmentation = Segmentation{}
	d.sawKeyFrame = false
	return nil
}

// Reset resets the Decoder to an empty state, per the reset(config)
// contract.
func (d *Decoder) Reset() {
	*d = Decoder{Log: d.Log}
}

// Decode splits buf as a possible VP9 super-frame and parses the
// uncompressed header of each constituent frame, per section 4.8.
func (d *Decoder) Decode(buf []byte, ts common.Timestamp) (common.Status, error) {
	chunks, err := SplitSuperframe(buf)
	if err != nil {
		return common.StatusInvalidData, errs.Field(err, "superframe_index")
	}

	frames := make([]*Frame, 0, len(chunks))
	status := common.StatusOK
	for i, chunk := range chunks {
		frame, st, err := d.decodeOne(chunk, ts)
		if err != nil {
			return st, errs.Wrapf(err, "frame %d of %d", i, len(chunks))
		}
		if st == common.StatusFormatChange {
			status = common.StatusFormatChange
		}
		frames = append(frames, frame)
	}
	d.Current = frames
	return status, nil
}

func (d *Decoder) decodeOne(buf []byte, ts common.Timestamp) (*Frame, common.Status, error) {
	fh, err := ParseFrameHeader(buf, d.prevLoopFilter, d.prevSegmentation)
	if err != nil {
		return nil, common.StatusShortRead, err
	}

	if fh.ShowExistingFrame {
		if fh.FrameToShowIdx < 0 || fh.FrameToShowIdx >= numRefSlots {
			return nil, common.StatusInvalidData, errs.New(errs.KindOutOfRange, "frame_to_show_map_idx")
		}
		ref := d.refs[fh.FrameToShowIdx]
		fh.Width, fh.Height = ref.Width, ref.Height
		fh.Color = ref.Color
		return &Frame{Header: fh, Timestamp: ts}, common.StatusOK, nil
	}

	if fh.FrameType != 0 && !d.sawKeyFrame {
		return nil, common.StatusInvalidData, errs.ErrMissingKeyframe
	}

	// An inter frame carries no color_config; it takes the bit depth and
	// color settings of its first reference slot.
	if fh.FrameType != 0 && !fh.IntraOnly {
		fh.Color = d.refs[fh.RefFrameIdx[0]].Color
	}

	// frame_size_with_refs may have deferred width/height to a reference
	// slot (section 7.2.6); resolve it now that the refs table is known.
	if fh.Width < 0 {
		for _, idx := range fh.RefFrameIdx {
			if idx >= 0 && idx < numRefSlots && d.refs[idx].Width > 0 {
				fh.Width, fh.Height = d.refs[idx].Width, d.refs[idx].Height
				break
			}
		}
	}

	dt, err := BuildDequantTables(fh.Color.BitDepth, fh.DeltaQYDC, fh.DeltaQUVDC, fh.DeltaQUVAC)
	if err != nil && !errs.Is(err, errs.KindUnsupported) {
		return nil, common.StatusInvalidData, err
	}

	d.prevLoopFilter = fh.LoopFilter
	d.prevSegmentation = fh.Segmentation
	d.sawKeyFrame = true

	rf := refFrame{Width: fh.Width, Height: fh.Height, Color: fh.Color}
	for i := 0; i < numRefSlots; i++ {
		if fh.RefreshFrameFlags&(1<<uint(i)) != 0 {
			d.refs[i] = rf
		}
	}

	status := common.StatusOK
	if fh.FrameType == 0 {
		status = common.StatusFormatChange
	}
	if d.Log != nil {
		d.Log.Debug("parsed VP9 frame", "keyFrame", fh.FrameType == 0, "width", fh.Width, "height", fh.Height)
	}
	return &Frame{Header: fh, Dequant: dt, Timestamp: ts}, status, nil
}
