package h264dec

import (
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vidcore/bits"
	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/pset"
	"github.com/ausocean/vidcore/rbsp"
	"github.com/ausocean/vidcore/registry"
)

func init() {
	registry.Register("video/h264", func() registry.Parser { return NewDecoder(nil) })
}

// InitialNALU is the three-byte start code prefix (0x000001) that precedes
// every NAL unit in an Annex B byte stream; a fourth leading zero byte is
// also permitted and is simply absorbed as trailing padding of the prior
// unit.
var InitialNALU = []byte{0, 0, 1}

// Decoder drives H.264 Annex B byte-stream parsing: it splits a buffer into
// NAL units, parses each one's header and RBSP, and updates VideoStreams
// (one per SPS observed, mirroring the single-SPS-per-stream common case
// while still tolerating a stream that redefines its SPS mid-way).
type Decoder struct {
	Log          logging.Logger
	VideoStreams []*VideoStream

	// SPSTable and PPSTable hold every parameter set parsed so far, keyed by
	// id, per section 4.11: a slice header parsed under a now-overwritten
	// SPS/PPS keeps its own reference regardless of later table updates.
	SPSTable *pset.Table[SPS]
	PPSTable *pset.Table[PPS]
}

// NewDecoder returns a Decoder that logs through log, which may be nil.
func NewDecoder(log logging.Logger) *Decoder {
	return &Decoder{
		Log:      log,
		SPSTable: pset.NewTable[SPS](),
		PPSTable: pset.NewTable[PPS](),
	}
}

// Codec reports the MIME type this Decoder parses, satisfying
// registry.Parser so it can be registered under "video/h264".
func (d *Decoder) Codec() string { return "video/h264" }

// CurrentSPS returns the SPS of the most recently started VideoStream, or
// nil if none has been parsed, per the current_sps() contract in section 6.
func (d *Decoder) CurrentSPS() *SPS {
	if len(d.VideoStreams) == 0 {
		return nil
	}
	return d.VideoStreams[len(d.VideoStreams)-1].SPS
}

// CurrentPPS returns the PPS of the most recently started VideoStream, or
// nil if none has been parsed, per the current_pps() contract in section 6.
func (d *Decoder) CurrentPPS() *PPS {
	if len(d.VideoStreams) == 0 {
		return nil
	}
	return d.VideoStreams[len(d.VideoStreams)-1].PPS
}

// Flush discards DPB state and emits remaining output-pending pictures, per
// the flush() contract in section 6.
func (d *Decoder) Flush() []common.POC {
	vid, err := d.currentStream()
	if err != nil || vid.dpb == nil {
		return nil
	}
	vid.dpb.Flush()
	out := vid.dpb.Output
	vid.dpb.Output = nil
	return out
}

// Reset resets the Decoder to an empty state, discarding every VideoStream
// and parameter-set table entry, per the reset(config) contract in section 6.
func (d *Decoder) Reset() {
	d.VideoStreams = nil
	d.SPSTable.Reset()
	d.PPSTable.Reset()
}

// Decode splits buf into NAL units and parses each one, returning the status
// of the last unit decoded. A nil error with a StatusInvalidData result means
// a syntax error was contained to a single unit and parsing otherwise
// continued; a non-nil error means buf held no NAL units at all.
func (d *Decoder) Decode(buf []byte, ts common.Timestamp) (common.Status, error) {
	units := splitNALUnits(buf)
	if len(units) == 0 {
		return common.StatusShortRead, errs.ErrShortRead
	}

	status := common.StatusOK
	for _, ebsp := range units {
		s, err := d.decodeOne(ebsp)
		if err != nil {
			if d.Log != nil {
				d.Log.Debug("NAL unit parse error", "error", err.Error())
			}
			status = s
			continue
		}
		status = s
	}
	return status, nil
}

func (d *Decoder) decodeOne(ebsp []byte) (common.Status, error) {
	clean, epbCount := rbsp.ToRBSP(ebsp)
	if d.Log != nil {
		d.Log.Debug("parsed NAL unit", "bytes", len(ebsp), "epbRemoved", epbCount)
	}

	br := bits.NewReader(clean)
	nalUnit, err := NewNALUnit(br)
	if err != nil {
		return common.StatusInvalidData, errs.Field(err, "nal_unit")
	}

	switch nalUnit.Type {
	case NALTypeSPS:
		sps, err := NewSPS(nalUnit.RBSP, d.Log)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "seq_parameter_set_rbsp")
		}
		d.SPSTable.Put(int(sps.SPSID), sps)
		d.VideoStreams = append(d.VideoStreams, &VideoStream{SPS: sps, dpb: NewDPB(sps)})
		return common.StatusFormatChange, nil

	case NALTypePPS:
		vid, err := d.currentStream()
		if err != nil {
			return common.StatusInvalidData, err
		}
		pps, err := NewPPS(bits.NewReader(nalUnit.RBSP), int(vid.SPS.ChromaFormatIDC), d.Log)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "pic_parameter_set_rbsp")
		}
		d.PPSTable.Put(pps.ID, pps)
		vid.PPS = pps
		return common.StatusOK, nil

	case NALTypeIDR, NALTypeNonIDR:
		vid, err := d.currentStream()
		if err != nil {
			return common.StatusInvalidData, err
		}
		if vid.PPS == nil {
			return common.StatusInvalidData, errs.New(errs.KindMissingReference, "slice arrived before any PPS")
		}
		sliceContext, err := NewSliceContext(vid, nalUnit, nalUnit.RBSP, d.Log)
		if err != nil {
			return common.StatusInvalidData, errs.Field(err, "slice_header")
		}
		vid.Slices = append(vid.Slices, sliceContext)

		isIDR := nalUnit.Type == NALTypeIDR
		vid.idrPicFlag = isIDR
		if err := decode(vid, sliceContext); err != nil {
			return common.StatusInvalidData, errs.Field(err, "picture_order_count")
		}
		if sliceContext.Slice.SliceHeader.FirstMbInSlice == 0 {
			d.finishPicture(vid, sliceContext, isIDR)
		}
		return common.StatusOK, nil

	default:
		return common.StatusOK, nil
	}
}

// finishPicture runs the per-picture DPB update of section 4.12 once a new
// picture's first slice (first_mb_in_slice == 0) has been parsed: derive
// whether the picture is a reference from nal_ref_idc, apply MMCO/sliding
// window marking, then insert into the DPB following the add/bump policy.
func (d *Decoder) finishPicture(vid *VideoStream, ctx *SliceContext, isIDR bool) {
	if vid.dpb == nil {
		return
	}
	isRef := ctx.NALUnit.RefIdc != 0
	pic := &refPicture{
		frameNum: ctx.FrameNum,
		poc:      common.POC{Top: vid.topFieldOrderCnt, Bottom: vid.bottomFieldOrderCnt},
		structure: common.StructFrame,
		outputNeeded: true,
	}
	if ctx.FieldPic {
		if ctx.BottomField {
			pic.structure = common.StructBottomField
		} else {
			pic.structure = common.StructTopField
		}
	}

	if isRef {
		vid.dpb.MarkReferences(pic, isIDR, ctx.Slice.SliceHeader.DecRefPicMarking, ctx.FrameNum, vid.maxFrameNum())
	}
	vid.dpb.AddPicture(pic, isRef, true)
}

// currentStream returns the most recently started VideoStream, or a
// KindMissingReference error if no SPS has been parsed yet.
func (d *Decoder) currentStream() (*VideoStream, error) {
	if len(d.VideoStreams) == 0 {
		return nil, errs.New(errs.KindMissingReference, "NAL unit arrived before any SPS")
	}
	return d.VideoStreams[len(d.VideoStreams)-1], nil
}

// splitNALUnits scans buf for Annex B start codes (00 00 01, optionally
// preceded by an extra zero byte) and returns each NAL unit's EBSP payload,
// exclusive of the start code, following section B.1.1 of ITU-T H.264.
func splitNALUnits(buf []byte) [][]byte {
	var starts []int
	for i := 0; i+2 < len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 && buf[i+2] == 1 {
			starts = append(starts, i+3)
		}
	}
	if len(starts) == 0 {
		return nil
	}

	units := make([][]byte, 0, len(starts))
	for i, start := range starts {
		end := len(buf)
		if i+1 < len(starts) {
			end = starts[i+1] - 3
			for end > start && buf[end-1] == 0 {
				end--
			}
		}
		if end > start {
			units = append(units, buf[start:end])
		}
	}
	return units
}

func isStartCodeOnePrefix(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	return buf[0] == 0 && buf[1] == 0 && buf[2] == 0 && (buf[3] == 0 || buf[3] == 1)
}

type field struct {
	loc  *int
	name string
	n    int
}

func readFields(br *bits.BitReader, fields []field) error {
	for _, f := range fields {
		b, err := br.ReadBits(f.n)
		if err != nil {
			return errs.Field(err, f.name)
		}
		*f.loc = int(b)
	}
	return nil
}

type flag struct {
	loc  *bool
	name string
}

func readFlags(br *bits.BitReader, flags []flag) error {
	for _, f := range flags {
		b, err := br.ReadBits(1)
		if err != nil {
			return errs.Field(err, f.name)
		}
		*f.loc = b == 1
	}
	return nil
}

// moreRBSPData implements more_rbsp_data() as specified in section 7.2: it
// reports whether any bits remain in br besides the rbsp_stop_one_bit and its
// trailing zero-alignment padding, looking ahead for a following start code
// so that trailing bits at the very end of a buffer are recognised even with
// no subsequent NAL unit to delimit them.
func moreRBSPData(br *bits.BitReader) bool {
	// If we can't even peek a bit then we're at the end of the NAL unit or
	// stream, so there's no more data.
	b, err := br.PeekBits(1)
	if err != nil {
		return false
	}

	// A 0 here can't be the rbsp_stop_one_bit, so there must be more data.
	if b == 0 {
		return true
	}

	// Candidate stop bit: check whether the rest of the current byte is the
	// canonical stop-bit-then-zeros pattern (0x80 once byte aligned).
	b, err = br.PeekBits(8 - br.Off())
	if err != nil {
		return false
	}
	rem := uint64(0x01) << uint(7-br.Off())
	if b != rem {
		return true
	}

	// If we can't peek one more bit we must be at the end.
	if _, err := br.PeekBits(9 - br.Off()); err != nil {
		return false
	}

	// nonZeroTail reports whether any bit after the current byte, up to the
	// end of br, is non-zero.
	nonZeroTail := func() bool {
		for n := 8 - br.Off() + 8; ; n += 8 {
			v, err := br.PeekBits(n)
			if err != nil {
				return false
			}
			if v&0xff != 0 {
				return true
			}
		}
	}

	// Trailing zero bits followed by a 24-bit start code mean no more RBSP
	// data is left. Running out of bits while peeking means there's no
	// subsequent NAL unit, so there is more RBSP data only if a non-zero bit
	// follows the current byte.
	b, err = br.PeekBits(8 - br.Off() + 24)
	if err != nil {
		return nonZeroTail()
	}
	rem = (uint64(0x01) << uint((7-br.Off())+24)) | 0x01
	if b == rem {
		return false
	}

	// Same check for a 32-bit start code.
	b, err = br.PeekBits(8 - br.Off() + 32)
	if err != nil {
		return nonZeroTail()
	}
	rem = (uint64(0x01) << uint((7-br.Off())+32)) | 0x01
	if b == rem {
		return false
	}

	return true
}
