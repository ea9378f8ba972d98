package jpegdec

import (
	"testing"

	"github.com/ausocean/vidcore/common"
	"github.com/ausocean/vidcore/errs"
)

// buildMinimalJPEG assembles a tiny, valid single-component baseline JPEG
// buffer: SOI, APP0, DQT, SOF0 (1x1, one grayscale component), DHT (one DC,
// one AC table), SOS, two bytes of scan data, EOI. Segment boundaries are
// simple enough to hand-verify against the byte counts below.
func buildMinimalJPEG() []byte {
	var buf []byte
	app0Payload := append([]byte("JFIF\x00"), 1, 1, 0, 0, 1, 0, 1, 0, 0)
	buf = append(buf, 0xFF, byte(MarkerSOI))
	buf = append(buf, 0xFF, byte(MarkerAPP0))
	buf = appendSegment(buf, app0Payload)

	quant := make([]byte, 65)
	quant[0] = 0 // precision 0, id 0
	for i := 1; i < 65; i++ {
		quant[i] = 16
	}
	buf = append(buf, 0xFF, byte(MarkerDQT))
	buf = appendSegment(buf, quant)

	sof := []byte{8, 0, 1, 0, 1, 1, 1, 1<<4 | 1, 0}
	buf = append(buf, 0xFF, byte(MarkerSOF0))
	buf = appendSegment(buf, sof)

	dcHuff := append([]byte{0x00}, countsAllZeroButFirst()...)
	dcHuff = append(dcHuff, 0x00)
	buf = append(buf, 0xFF, byte(MarkerDHT))
	buf = appendSegment(buf, dcHuff)

	acHuff := append([]byte{0x10}, countsAllZeroButFirst()...)
	acHuff = append(acHuff, 0x00)
	buf = append(buf, 0xFF, byte(MarkerDHT))
	buf = appendSegment(buf, acHuff)

	sos := []byte{1, 1, 0x00, 0, 63, 0}
	buf = append(buf, 0xFF, byte(MarkerSOS))
	buf = appendSegment(buf, sos)

	buf = append(buf, 0xAA, 0xBB) // Entropy-coded data.
	buf = append(buf, 0xFF, byte(MarkerEOI))
	return buf
}

func countsAllZeroButFirst() []byte {
	c := make([]byte, 16)
	c[0] = 1
	return c
}

func appendSegment(buf []byte, payload []byte) []byte {
	length := len(payload) + 2
	buf = append(buf, byte(length>>8), byte(length))
	buf = append(buf, payload...)
	return buf
}

func TestDecodeMinimalJPEG(t *testing.T) {
	d := NewDecoder(nil)
	status, err := d.Decode(buildMinimalJPEG(), 42)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if status != common.StatusOK {
		t.Errorf("status = %v, want StatusOK", status)
	}
	if !d.sawSOI || !d.sawEOI {
		t.Errorf("sawSOI=%v sawEOI=%v, want both true", d.sawSOI, d.sawEOI)
	}
	if d.FrameHeader == nil {
		t.Fatal("FrameHeader = nil")
	}
	if d.FrameHeader.ImageWidth != 1 || d.FrameHeader.ImageHeight != 1 {
		t.Errorf("dimensions = %dx%d, want 1x1", d.FrameHeader.ImageWidth, d.FrameHeader.ImageHeight)
	}
	if !d.FrameHeader.IsBaseline {
		t.Error("IsBaseline = false for SOF0")
	}
	if d.QuantTables[0] == nil {
		t.Error("QuantTables[0] = nil")
	}
	if d.DCHuffman[0] == nil || d.ACHuffman[0] == nil {
		t.Error("expected DC and AC Huffman table 0 to be populated")
	}
	if d.ScanHeader == nil || d.ScanHeader.NumComponents != 1 {
		t.Error("ScanHeader not populated with 1 component")
	}
	if got := d.ScanPayloadEnd - d.ScanPayloadStart; got != 2 {
		t.Errorf("scan payload length = %d, want 2", got)
	}
}

func TestDuplicateSOI(t *testing.T) {
	buf := []byte{0xFF, byte(MarkerSOI), 0xFF, byte(MarkerSOI)}
	d := NewDecoder(nil)
	_, err := d.Decode(buf, 0)
	if !errs.Is(err, errs.KindDuplicateMarker) {
		t.Fatalf("Decode on duplicate SOI = %v, want KindDuplicateMarker", err)
	}
}

func TestSOSBeforeSOF(t *testing.T) {
	buf := []byte{0xFF, byte(MarkerSOI)}
	buf = append(buf, 0xFF, byte(MarkerSOS))
	buf = appendSegment(buf, []byte{1, 1, 0, 0, 63, 0})
	d := NewDecoder(nil)
	_, err := d.Decode(buf, 0)
	if !errs.Is(err, errs.KindMissingReference) {
		t.Fatalf("Decode SOS before SOF = %v, want KindMissingReference", err)
	}
}

func TestUnsupportedSOF(t *testing.T) {
	buf := []byte{0xFF, byte(MarkerSOI)}
	buf = append(buf, 0xFF, byte(MarkerSOF2))
	buf = appendSegment(buf, []byte{8, 0, 1, 0, 1, 1, 0x11, 0})
	d := NewDecoder(nil)
	status, err := d.Decode(buf, 0)
	if !errs.Is(err, errs.KindUnsupported) {
		t.Fatalf("Decode progressive SOF2 = %v, want KindUnsupported", err)
	}
	if status != common.StatusUnsupported {
		t.Errorf("status = %v, want StatusUnsupported", status)
	}
}

func TestCallbackSuspendResume(t *testing.T) {
	d := NewDecoder(nil)
	var suspended bool
	d.RegisterCallback(MarkerSOF0, func(d *Decoder) Result {
		suspended = true
		return ResultSuspend
	})

	buf := buildMinimalJPEG()
	_, err := d.Decode(buf, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !suspended {
		t.Fatal("callback was never invoked")
	}
	if d.sawEOI {
		t.Fatal("sawEOI true before resuming past the suspend point")
	}

	_, err = d.Resume()
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !d.sawEOI {
		t.Error("sawEOI false after resuming to completion")
	}
}

func TestTruncatedBufferFailsShortRead(t *testing.T) {
	full := buildMinimalJPEG()
	// Truncate mid-APP0 segment: short enough that the length field itself is
	// readable but the declared payload is not.
	truncated := full[:6]
	d := NewDecoder(nil)
	status, err := d.Decode(truncated, 0)
	if err == nil {
		t.Fatal("Decode on truncated buffer succeeded, want error")
	}
	if status != common.StatusShortRead {
		t.Errorf("status = %v, want StatusShortRead", status)
	}
}

func TestNextMarkerSkipsFillBytes(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, byte(MarkerSOI)}
	m, pos, ok := nextMarker(buf, 0)
	if !ok {
		t.Fatal("nextMarker did not find a marker")
	}
	if m != MarkerSOI {
		t.Errorf("marker = %v, want SOI", m)
	}
	if pos != 2 {
		t.Errorf("marker position = %d, want 2", pos)
	}
}

func TestSkipEntropyCodedDataRespectsStuffingAndRestarts(t *testing.T) {
	// Stuffed 0xFF00 and a restart marker should both be treated as scan
	// data, not segment terminators; the real marker ends the scan.
	buf := []byte{0x01, 0xFF, 0x00, 0x02, 0xFF, byte(MarkerRST0), 0x03, 0xFF, byte(MarkerEOI)}
	end := skipEntropyCodedData(buf, 0)
	if end != 7 {
		t.Errorf("skipEntropyCodedData = %d, want 7", end)
	}
}
