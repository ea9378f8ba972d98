package mpeg2dec

import (
	"testing"

	"github.com/Comcast/gots/packet"
)

// tsPackedFixture wraps an MPEG-2 video elementary-stream fragment inside a
// single, otherwise-empty transport-stream packet shaped payload, using
// github.com/Comcast/gots/packet's PacketSize constant for the container
// geometry. The demuxer layer itself is out of this core's scope (section
// 1); this only exercises that a stream recovered from TS-shaped framing
// scans correctly once handed to scanUnits.
func tsPackedFixture(t *testing.T, es []byte) []byte {
	t.Helper()
	if len(es) > packet.PacketSize-4 {
		t.Fatalf("fixture elementary stream fragment too large for one TS packet: %d bytes", len(es))
	}
	buf := make([]byte, packet.PacketSize)
	buf[0] = 0x47 // TS sync byte.
	copy(buf[4:], es)
	return buf
}

func TestScanUnitsOverTSPackedPayload(t *testing.T) {
	es := []byte{
		0x00, 0x00, 0x01, 0xb3, // sequence_header start code
		0x20, 0x01, 0x20, 0x34, 0xff, 0xff, 0xe0, 0x18,
		0x00, 0x00, 0x01, 0x00, // picture_header start code
	}
	buf := tsPackedFixture(t, es)

	units := scanUnits(buf[4:])
	if len(units) != 2 {
		t.Fatalf("scanUnits found %d units, want 2", len(units))
	}
	if units[0].kind != unitSequenceHeader {
		t.Errorf("units[0].kind = %v, want unitSequenceHeader", units[0].kind)
	}
	if units[1].kind != unitPictureHeader {
		t.Errorf("units[1].kind = %v, want unitPictureHeader", units[1].kind)
	}
}
