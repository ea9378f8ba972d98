/*
DESCRIPTION
  driver.go implements the marker-scanning state machine of section 4.10:
  it walks a JPEG byte stream, dispatches each segment to its parser, and
  invokes registered per-marker callbacks, with support for a callback
  suspending the scan to be resumed by a later call, per section 9's
  callback-suspension design note.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jpegdec

import (
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
	"github.com/ausocean/vidcore/registry"
)

func init() {
	registry.Register("image/jpeg", func() registry.Parser { return NewDecoder(nil) })
}

// Result is returned by a registered Callback to tell the parser whether to
// keep scanning or to yield control back to the caller.
type Result int

const (
	// ResultContinue lets the scan proceed to the next marker.
	ResultContinue Result = iota

	// ResultSuspend yields control back to the caller; a later call to
	// Decoder.Resume continues the scan at the next marker, with no partial
	// segment state lost, per the design note on callback suspension.
	ResultSuspend
)

// Callback is a per-marker hook invoked, in registration order, after a
// marker has been successfully parsed.
type Callback func(d *Decoder) Result

// numArithTables matches section 3's "three arithmetic-coding tables"; DAC
// itself permits table ids 0-3 like DQT/DHT (Annex C), so this is kept at 4
// to stay consistent with that shared id space rather than truncating a
// fourth DAC table silently.
const numArithTables = 4

// Decoder drives JPEG marker-scanning and segment parsing, section 4.13:
// parse() is called until the buffer is exhausted or a callback suspends
// it, after which the caller reports the accumulated descriptor.
type Decoder struct {
	Log logging.Logger

	callbacks map[Marker][]Callback

	buf []byte
	pos int
	ts  common.Timestamp

	sawSOI bool
	sawEOI bool

	FrameHeader *FrameHeader
	ScanHeader  *ScanHeader

	QuantTables [4]*QuantTable
	DCHuffman   [4]*HuffmanTable
	ACHuffman   [4]*HuffmanTable
	ArithTables [numArithTables]*ArithConditioning

	RestartInterval int

	// ScanPayloadStart/ScanPayloadEnd bound the most recently scanned
	// entropy-coded segment within buf, exclusive of the trailing marker.
	ScanPayloadStart int
	ScanPayloadEnd   int
}

// NewDecoder returns a Decoder that logs through log, which may be nil.
func NewDecoder(log logging.Logger) *Decoder {
	return &Decoder{Log: log}
}

// Codec reports the MIME type this Decoder parses.
func (d *Decoder) Codec() string { return "image/jpeg" }

// RegisterCallback appends cb to the ordered list invoked after marker m is
// successfully parsed.
func (d *Decoder) RegisterCallback(m Marker, cb Callback) {
	if d.callbacks == nil {
		d.callbacks = make(map[Marker][]Callback)
	}
	d.callbacks[m] = append(d.callbacks[m], cb)
}

// Reset resets the Decoder to an empty state, per the reset(config)
// contract; registered callbacks are preserved since they are a caller
// configuration, not parse state.
func (d *Decoder) Reset() {
	cbs := d.callbacks
	*d = Decoder{Log: d.Log, callbacks: cbs}
}

// Flush resets the Decoder, as Reset does: a single JPEG image carries no DPB
// or reorder buffer to drain, per section 4.13.
func (d *Decoder) Flush() { d.Reset() }

// Decode begins parsing buf from the start, running until the buffer is
// exhausted, a callback suspends the scan, or an error occurs. Call Resume
// to continue a suspended scan.
func (d *Decoder) Decode(buf []byte, ts common.Timestamp) (common.Status, error) {
	d.buf = buf
	d.pos = 0
	d.ts = ts
	return d.run()
}

// Resume continues a scan previously suspended by a callback, starting at
// the marker immediately after the one that suspended it.
func (d *Decoder) Resume() (common.Status, error) {
	return d.run()
}

// run drives the marker loop until exhaustion, suspension or error.
func (d *Decoder) run() (common.Status, error) {
	for {
		if d.sawEOI || d.pos >= len(d.buf) {
			return common.StatusOK, nil
		}
		marker, markerPos, ok := nextMarker(d.buf, d.pos)
		if !ok {
			return common.StatusShortRead, errs.ErrShortRead
		}
		d.pos = markerPos + 2

		status, suspend, err := d.dispatch(marker)
		if err != nil {
			return status, err
		}
		if suspend {
			return common.StatusOK, nil
		}
	}
}

// nextMarker scans buf starting at pos for the next marker, skipping any
// number of 0xFF fill bytes per section B.1.1.5 of T.81. It returns the
// marker code and the offset of its leading 0xFF byte.
func nextMarker(buf []byte, pos int) (Marker, int, bool) {
	i := pos
	for i+1 < len(buf) {
		if buf[i] != 0xFF {
			i++
			continue
		}
		// Skip fill bytes (extra 0xFF) until a non-0xFF byte is seen.
		j := i + 1
		for j < len(buf) && buf[j] == 0xFF {
			j++
		}
		if j >= len(buf) {
			return 0, 0, false
		}
		if buf[j] == 0x00 {
			// Stray stuffed byte outside a scan; not a marker, keep looking.
			i = j + 1
			continue
		}
		return Marker(buf[j]), j - 1, true
	}
	return 0, 0, false
}

// dispatch parses the segment following the marker at d.pos-2..d.pos and
// fires its registered callbacks. It returns whether a callback requested
// suspension.
func (d *Decoder) dispatch(marker Marker) (common.Status, bool, error) {
	switch {
	case marker == MarkerSOI:
		if d.sawSOI {
			return common.StatusInvalidData, false, errs.ErrDuplicateSOI
		}
		d.sawSOI = true
		return common.StatusOK, d.fire(marker), nil

	case marker == MarkerEOI:
		if d.sawEOI {
			return common.StatusInvalidData, false, errs.ErrDuplicateEOI
		}
		d.sawEOI = true
		return common.StatusOK, d.fire(marker), nil

	case marker.IsRestart(), marker == MarkerTEM:
		// No length field, no payload; not expected between segments but
		// tolerated as a recoverable no-op per section 7's "unknown markers
		// in JPEG" recoverable-error policy.
		return common.StatusOK, d.fire(marker), nil

	case marker == MarkerSOS:
		if !d.sawSOI {
			return common.StatusInvalidData, false, errs.New(errs.KindMissingReference, "SOS before SOI")
		}
		if d.FrameHeader == nil {
			return common.StatusInvalidData, false, errs.New(errs.KindMissingReference, "SOS before SOF")
		}
		payload, err := d.readSegment()
		if err != nil {
			return common.StatusShortRead, false, errs.Field(err, "scan_header")
		}
		sh, err := ParseScanHeader(payload, d.FrameHeader)
		if err != nil {
			return common.StatusInvalidData, false, errs.Field(err, "scan_header")
		}
		d.ScanHeader = sh
		d.ScanPayloadStart = d.pos
		d.pos = skipEntropyCodedData(d.buf, d.pos)
		d.ScanPayloadEnd = d.pos
		return common.StatusOK, d.fire(marker), nil

	case marker.IsSOF():
		if !d.sawSOI {
			return common.StatusInvalidData, false, errs.New(errs.KindMissingReference, "SOF before SOI")
		}
		if !supportedSOF(marker) {
			return common.StatusUnsupported, false, errs.Newf(errs.KindUnsupported, "SOF marker %s not implemented", marker)
		}
		payload, err := d.readSegment()
		if err != nil {
			return common.StatusShortRead, false, errs.Field(err, "frame_header")
		}
		fh, err := ParseFrameHeader(marker, payload)
		if err != nil {
			return common.StatusInvalidData, false, errs.Field(err, "frame_header")
		}
		d.FrameHeader = fh
		return common.StatusFormatChange, d.fire(marker), nil

	case marker == MarkerDQT:
		payload, err := d.readSegment()
		if err != nil {
			return common.StatusShortRead, false, errs.Field(err, "dqt")
		}
		tables, err := ParseDQT(payload)
		if err != nil {
			return common.StatusInvalidData, false, errs.Field(err, "dqt")
		}
		for _, t := range tables {
			d.QuantTables[t.ID] = t
		}
		return common.StatusOK, d.fire(marker), nil

	case marker == MarkerDHT:
		payload, err := d.readSegment()
		if err != nil {
			return common.StatusShortRead, false, errs.Field(err, "dht")
		}
		dc, ac, err := ParseDHT(payload)
		if err != nil {
			return common.StatusInvalidData, false, errs.Field(err, "dht")
		}
		for _, t := range dc {
			d.DCHuffman[t.ID] = t
		}
		for _, t := range ac {
			d.ACHuffman[t.ID] = t
		}
		return common.StatusOK, d.fire(marker), nil

	case marker == MarkerDAC:
		payload, err := d.readSegment()
		if err != nil {
			return common.StatusShortRead, false, errs.Field(err, "dac")
		}
		tables, err := ParseDAC(payload)
		if err != nil {
			return common.StatusInvalidData, false, errs.Field(err, "dac")
		}
		for _, t := range tables {
			if t.ID < numArithTables {
				d.ArithTables[t.ID] = t
			}
		}
		return common.StatusOK, d.fire(marker), nil

	case marker == MarkerDRI:
		payload, err := d.readSegment()
		if err != nil {
			return common.StatusShortRead, false, errs.Field(err, "dri")
		}
		ri, err := ParseDRI(payload)
		if err != nil {
			return common.StatusInvalidData, false, errs.Field(err, "dri")
		}
		d.RestartInterval = ri
		return common.StatusOK, d.fire(marker), nil

	case marker.IsAPPn(), marker == MarkerCOM:
		// Parsed only as an opaque segment; application/comment content is
		// an external collaborator's concern, per section 1's scope.
		_, err := d.readSegment()
		if err != nil {
			return common.StatusShortRead, false, errs.Field(err, marker.String())
		}
		return common.StatusOK, d.fire(marker), nil

	default:
		// Unknown or unhandled marker with a length field: skip it, a
		// recoverable condition per section 7.
		if d.Log != nil {
			d.Log.Debug("skipping unhandled JPEG marker", "marker", marker.String())
		}
		_, err := d.readSegment()
		if err != nil {
			return common.StatusShortRead, false, errs.Field(err, "unknown_segment")
		}
		return common.StatusOK, d.fire(marker), nil
	}
}

// readSegment reads the 2-byte big-endian length field at d.pos (inclusive
// of itself) and returns the payload bytes following it, advancing d.pos
// past the segment.
func (d *Decoder) readSegment() ([]byte, error) {
	if d.pos+2 > len(d.buf) {
		return nil, errs.ErrShortRead
	}
	length := int(d.buf[d.pos])<<8 | int(d.buf[d.pos+1])
	if length < 2 {
		return nil, errs.New(errs.KindInvalidData, "segment length field must be >= 2")
	}
	end := d.pos + length
	if end > len(d.buf) {
		return nil, errs.ErrShortRead
	}
	payload := d.buf[d.pos+2 : end]
	d.pos = end
	return payload, nil
}

// skipEntropyCodedData advances past the entropy-coded segment following an
// SOS header: 0xFF 0x00 is a stuffed byte (data, not a marker), an 0xFF
// restart marker is part of the scan and is skipped whole, and any other
// 0xFF-prefixed marker ends the scan.
func skipEntropyCodedData(buf []byte, pos int) int {
	i := pos
	for i+1 < len(buf) {
		if buf[i] != 0xFF {
			i++
			continue
		}
		switch {
		case buf[i+1] == 0x00:
			i += 2
		case Marker(buf[i+1]).IsRestart():
			i += 2
		case buf[i+1] == 0xFF:
			i++ // Fill byte, re-examine next byte as the marker candidate.
		default:
			return i
		}
	}
	return len(buf)
}

// fire invokes every callback registered for m in order, returning true if
// any requested suspension.
func (d *Decoder) fire(m Marker) bool {
	for _, cb := range d.callbacks[m] {
		if cb(d) == ResultSuspend {
			return true
		}
	}
	return false
}
