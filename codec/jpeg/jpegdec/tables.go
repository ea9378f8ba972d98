/*
DESCRIPTION
  tables.go holds the quantization- and Huffman-table descriptors, the
  arithmetic-coding conditioning-table descriptor, and the Annex K default
  tables, per section 3 (JPEG parser state) of the core design. The defaults
  are exported for callers; the Decoder does not install them in place of
  missing DQT/DHT segments.

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

import "github.com/ausocean/vidcore/errs"

// QuantTable is one 8x8 quantization table (DQT). Values holds the 64 entries
// in the order they appear in the segment (zig-zag order); they are not
// reordered to raster order. Precision is the Pq field: 0 for 8-bit entries,
// 1 for 16-bit entries (values 0-65535).
type QuantTable struct {
	ID        int
	Precision int // 0 => 8-bit entries, 1 => 16-bit entries, per the Pq field.
	Values    [64]int
}

// HuffmanTable is one DC or AC Huffman table (DHT): 16 code-length counts
// and the concatenated symbol list in code order, per Annex C of T.81.
type HuffmanTable struct {
	ID     int
	Counts [16]int // Number of codes of length i+1.
	Values []byte  // Symbols in order of increasing code length, then code value.
}

// ArithConditioning is one arithmetic-coding conditioning-table entry (DAC):
// either a DC conditioning bound pair or an AC conditioning Kx value,
// selected by whether the table class (high nibble of the table id byte)
// is DC (0) or AC (1).
type ArithConditioning struct {
	ID       int
	IsAC     bool
	Lower    int // Cs lower bound, DC tables only.
	Upper    int // Cs upper bound, DC tables only.
	KX       int // Conditioning Kx value, AC tables only.
}

// ParseDQT parses a DQT segment payload (the bytes following the 2-byte
// length field) into zero or more QuantTable entries, per section B.2.4.1.
// A segment may define several tables back to back.
func ParseDQT(payload []byte) ([]*QuantTable, error) {
	var tables []*QuantTable
	i := 0
	for i < len(payload) {
		pqtq := payload[i]
		i++
		precision := int(pqtq >> 4)
		id := int(pqtq & 0x0F)
		if id > 3 {
			return nil, errs.Newf(errs.KindOutOfRange, "DQT table id %d exceeds 3", id)
		}
		n := 64
		size := n
		if precision != 0 {
			size = n * 2
		}
		if i+size > len(payload) {
			return nil, errs.ErrShortRead
		}
		t := &QuantTable{ID: id, Precision: precision}
		for k := 0; k < n; k++ {
			if precision == 0 {
				t.Values[k] = int(payload[i])
				i++
			} else {
				t.Values[k] = int(payload[i])<<8 | int(payload[i+1])
				i += 2
			}
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// ParseDHT parses a DHT segment payload into zero or more HuffmanTable
// entries, per section B.2.4.2. ID holds only the table id (low nibble of
// the Tc/Th byte); the table class (high nibble) is reported by which slice
// a table is returned in: dc for class 0, ac for any other class.
func ParseDHT(payload []byte) (dc []*HuffmanTable, ac []*HuffmanTable, err error) {
	i := 0
	for i < len(payload) {
		if i+17 > len(payload) {
			return nil, nil, errs.ErrShortRead
		}
		tcth := payload[i]
		i++
		class := int(tcth >> 4)
		id := int(tcth & 0x0F)
		if id > 3 {
			return nil, nil, errs.Newf(errs.KindOutOfRange, "DHT table id %d exceeds 3", id)
		}
		t := &HuffmanTable{ID: id}
		total := 0
		for k := 0; k < 16; k++ {
			t.Counts[k] = int(payload[i+k])
			total += t.Counts[k]
		}
		i += 16
		if i+total > len(payload) {
			return nil, nil, errs.ErrShortRead
		}
		t.Values = append([]byte(nil), payload[i:i+total]...)
		i += total
		if class == 0 {
			dc = append(dc, t)
		} else {
			ac = append(ac, t)
		}
	}
	return dc, ac, nil
}

// ParseDAC parses a DAC segment payload into zero or more ArithConditioning
// entries, per section B.2.4.3.
func ParseDAC(payload []byte) ([]*ArithConditioning, error) {
	var out []*ArithConditioning
	i := 0
	for i+2 <= len(payload) {
		tcTb := payload[i]
		cs := payload[i+1]
		i += 2
		class := int(tcTb >> 4)
		id := int(tcTb & 0x0F)
		if id > 3 {
			return nil, errs.Newf(errs.KindOutOfRange, "DAC table id %d exceeds 3", id)
		}
		a := &ArithConditioning{ID: id, IsAC: class != 0}
		if class == 0 {
			a.Lower = int(cs & 0x0F)
			a.Upper = int(cs >> 4)
		} else {
			a.KX = int(cs)
		}
		out = append(out, a)
	}
	if i != len(payload) {
		return nil, errs.New(errs.KindInvalidData, "DAC segment length not a multiple of 2")
	}
	return out, nil
}

// ParseDRI parses a DRI segment payload (always exactly 2 bytes) into the
// restart interval in MCUs, per section B.2.4.4.
func ParseDRI(payload []byte) (int, error) {
	if len(payload) != 2 {
		return 0, errs.New(errs.KindInvalidData, "DRI payload must be exactly 2 bytes")
	}
	return int(payload[0])<<8 | int(payload[1]), nil
}

// Default luminance and chrominance quantization tables from Annex K.1,
// Tables K.1 and K.2 of ITU-T T.81, in row-major (raster) order as
// published, unlike the zig-zag order of a table parsed from a DQT segment.
var (
	DefaultLuminanceQuant = QuantTable{
		ID:        0,
		Precision: 0,
		Values: [64]int{
			16, 11, 10, 16, 24, 40, 51, 61,
			12, 12, 14, 19, 26, 58, 60, 55,
			14, 13, 16, 24, 40, 57, 69, 56,
			14, 17, 22, 29, 51, 87, 80, 62,
			18, 22, 37, 56, 68, 109, 103, 77,
			24, 35, 55, 64, 81, 104, 113, 92,
			49, 64, 78, 87, 103, 121, 120, 101,
			72, 92, 95, 98, 112, 100, 103, 99,
		},
	}

	DefaultChrominanceQuant = QuantTable{
		ID:        1,
		Precision: 0,
		Values: [64]int{
			17, 18, 24, 47, 99, 99, 99, 99,
			18, 21, 26, 66, 99, 99, 99, 99,
			24, 26, 56, 99, 99, 99, 99, 99,
			47, 66, 99, 99, 99, 99, 99, 99,
			99, 99, 99, 99, 99, 99, 99, 99,
			99, 99, 99, 99, 99, 99, 99, 99,
			99, 99, 99, 99, 99, 99, 99, 99,
			99, 99, 99, 99, 99, 99, 99, 99,
		},
	}
)

// Default DC luminance/chrominance and AC luminance/chrominance Huffman
// tables from Annex K.3, Tables K.3-K.6 of ITU-T T.81.
var (
	DefaultDCLuminanceHuffman = HuffmanTable{
		ID:     0,
		Counts: [16]int{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0},
		Values: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}

	DefaultDCChrominanceHuffman = HuffmanTable{
		ID:     1,
		Counts: [16]int{0, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
		Values: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}

	DefaultACLuminanceHuffman = HuffmanTable{
		ID:     0,
		Counts: [16]int{0, 2, 1, 3, 3, 2, 4, 3, 5, 5, 4, 4, 0, 0, 1, 0x7d},
		Values: []byte{
			0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12,
			0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
			0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08,
			0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
			0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16,
			0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
			0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39,
			0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
			0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59,
			0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
			0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79,
			0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
			0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98,
			0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
			0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6,
			0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
			0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4,
			0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
			0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea,
			0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	}

	DefaultACChrominanceHuffman = HuffmanTable{
		ID:     1,
		Counts: [16]int{0, 2, 1, 2, 4, 4, 3, 4, 7, 5, 4, 4, 0, 1, 2, 0x77},
		Values: []byte{
			0x00, 0x01, 0x02, 0x03, 0x11, 0x04, 0x05, 0x21,
			0x31, 0x06, 0x12, 0x41, 0x51, 0x07, 0x61, 0x71,
			0x13, 0x22, 0x32, 0x81, 0x08, 0x14, 0x42, 0x91,
			0xa1, 0xb1, 0xc1, 0x09, 0x23, 0x33, 0x52, 0xf0,
			0x15, 0x62, 0x72, 0xd1, 0x0a, 0x16, 0x24, 0x34,
			0xe1, 0x25, 0xf1, 0x17, 0x18, 0x19, 0x1a, 0x26,
			0x27, 0x28, 0x29, 0x2a, 0x35, 0x36, 0x37, 0x38,
			0x39, 0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48,
			0x49, 0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58,
			0x59, 0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68,
			0x69, 0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78,
			0x79, 0x7a, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87,
			0x88, 0x89, 0x8a, 0x92, 0x93, 0x94, 0x95, 0x96,
			0x97, 0x98, 0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5,
			0xa6, 0xa7, 0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4,
			0xb5, 0xb6, 0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3,
			0xc4, 0xc5, 0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2,
			0xd3, 0xd4, 0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda,
			0xe2, 0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9,
			0xea, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
			0xf9, 0xfa,
		},
	}
)
