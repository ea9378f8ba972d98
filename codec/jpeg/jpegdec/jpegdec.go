/*
DESCRIPTION
  jpegdec.go names the JPEG (ITU-T T.81 / ISO/IEC 10918-1) marker codes and
  the marker-scanning state machine's classification of each, per section
  4.10 of the core design.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package jpegdec provides a decoder for baseline JPEG (ITU-T T.81) elementary
// streams: a marker-scanning state machine over a byte stream, with DQT, DHT,
// DAC, DRI, SOFn and SOS segment parsing and per-marker callback dispatch.
package jpegdec

// Marker is a one-byte JPEG marker code, the byte immediately following an
// 0xFF marker-prefix byte in the stream.
type Marker byte

// Marker codes from Table B.1 of ITU-T T.81 that this package recognises.
const (
	MarkerSOI Marker = 0xD8 // Start of image.
	MarkerEOI Marker = 0xD9 // End of image.

	MarkerSOF0  Marker = 0xC0 // Baseline DCT.
	MarkerSOF1  Marker = 0xC1 // Extended sequential DCT.
	MarkerSOF2  Marker = 0xC2 // Progressive DCT.
	MarkerSOF3  Marker = 0xC3 // Lossless (sequential).
	MarkerSOF5  Marker = 0xC5
	MarkerSOF6  Marker = 0xC6
	MarkerSOF7  Marker = 0xC7
	MarkerSOF9  Marker = 0xC9
	MarkerSOF10 Marker = 0xCA
	MarkerSOF11 Marker = 0xCB
	MarkerSOF13 Marker = 0xCD
	MarkerSOF14 Marker = 0xCE
	MarkerSOF15 Marker = 0xCF

	MarkerDHT Marker = 0xC4 // Define Huffman table(s).
	MarkerDAC Marker = 0xCC // Define arithmetic-coding conditioning(s).

	MarkerSOS Marker = 0xDA // Start of scan.
	MarkerDQT Marker = 0xDB // Define quantization table(s).
	MarkerDNL Marker = 0xDC // Define number of lines.
	MarkerDRI Marker = 0xDD // Define restart interval.
	MarkerDHP Marker = 0xDE
	MarkerEXP Marker = 0xDF

	MarkerCOM Marker = 0xFE // Comment.

	MarkerRST0 Marker = 0xD0 // Restart markers, 0xD0-0xD7; carry no length.
	MarkerRST7 Marker = 0xD7

	MarkerAPP0  Marker = 0xE0 // Application segments, 0xE0-0xEF.
	MarkerAPP15 Marker = 0xEF

	MarkerTEM Marker = 0x01 // Temporary, no length, no payload.
)

// IsRestart reports whether m is one of the eight restart markers RST0-RST7,
// which carry no length field and appear inside entropy-coded scan data
// rather than between segments.
func (m Marker) IsRestart() bool { return m >= MarkerRST0 && m <= MarkerRST7 }

// IsAPPn reports whether m is an application-segment marker APP0-APP15.
func (m Marker) IsAPPn() bool { return m >= MarkerAPP0 && m <= MarkerAPP15 }

// IsSOF reports whether m is one of the thirteen start-of-frame markers.
func (m Marker) IsSOF() bool {
	switch m {
	case MarkerSOF0, MarkerSOF1, MarkerSOF2, MarkerSOF3, MarkerSOF5, MarkerSOF6,
		MarkerSOF7, MarkerSOF9, MarkerSOF10, MarkerSOF11, MarkerSOF13, MarkerSOF14, MarkerSOF15:
		return true
	default:
		return false
	}
}

// supportedSOF reports whether m is a start-of-frame marker this decoder
// accepts. Per section 1's scope (actual pixel reconstruction is out of
// scope, but so is any non-baseline profile this core has no business
// describing headers for), only the baseline and extended-sequential Huffman
// encodings are accepted; SOF2/3/5/6/7/9..15 are recognised but rejected with
// KindUnsupported, per the marker table in section 4.10.
func supportedSOF(m Marker) bool {
	return m == MarkerSOF0 || m == MarkerSOF1
}

// String names m for diagnostics; unrecognised values format as a hex byte.
func (m Marker) String() string {
	switch m {
	case MarkerSOI:
		return "SOI"
	case MarkerEOI:
		return "EOI"
	case MarkerSOF0:
		return "SOF0"
	case MarkerSOF1:
		return "SOF1"
	case MarkerSOF2:
		return "SOF2"
	case MarkerSOF3:
		return "SOF3"
	case MarkerSOF5:
		return "SOF5"
	case MarkerSOF6:
		return "SOF6"
	case MarkerSOF7:
		return "SOF7"
	case MarkerSOF9:
		return "SOF9"
	case MarkerSOF10:
		return "SOF10"
	case MarkerSOF11:
		return "SOF11"
	case MarkerSOF13:
		return "SOF13"
	case MarkerSOF14:
		return "SOF14"
	case MarkerSOF15:
		return "SOF15"
	case MarkerDHT:
		return "DHT"
	case MarkerDAC:
		return "DAC"
	case MarkerSOS:
		return "SOS"
	case MarkerDQT:
		return "DQT"
	case MarkerDNL:
		return "DNL"
	case MarkerDRI:
		return "DRI"
	case MarkerCOM:
		return "COM"
	default:
		if m.IsRestart() {
			return "RST"
		}
		if m.IsAPPn() {
			return "APPn"
		}
		return "unknown marker"
	}
}
