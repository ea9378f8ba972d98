// Package common holds codec-neutral value types shared by the per-codec
// parsers: the decode status returned from every parser's Decode method, the
// opaque timestamp threaded through unchanged, picture order count pairs, and
// the zig-zag scan orders shared by the block-transform codecs.
package common

// Timestamp is an opaque 64-bit value carried unchanged from a decode unit
// onto any picture descriptor it produces.
type Timestamp int64

// Status reports the outcome of one Decode call, per the external-interface
// contract shared by every codec parser in this module.
type Status int

const (
	// StatusOK indicates the unit was fully parsed with no exceptional
	// condition.
	StatusOK Status = iota

	// StatusShortRead indicates the buffer ended mid-syntax-element; see
	// errs.KindShortRead for the underlying error.
	StatusShortRead

	// StatusInvalidData indicates a syntax violation.
	StatusInvalidData

	// StatusUnsupported indicates a recognised but unimplemented profile or
	// feature.
	StatusUnsupported

	// StatusFormatChange indicates that the next decoded unit will require
	// the accelerator to re-establish its context: a new profile, new
	// dimensions, or new scaling matrices were observed.
	StatusFormatChange
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusShortRead:
		return "short read"
	case StatusInvalidData:
		return "invalid data"
	case StatusUnsupported:
		return "unsupported"
	case StatusFormatChange:
		return "format change"
	default:
		return "unknown"
	}
}

// PicStruct enumerates the structure of a reference picture: a full frame, or
// one field of an interlaced pair.
type PicStruct int

const (
	StructFrame PicStruct = iota
	StructTopField
	StructBottomField
)

// RefMarking enumerates the reference state of a decoded picture within a
// DPB, shared by H.264 and H.265 reference-picture management.
type RefMarking int

const (
	RefUnused RefMarking = iota
	RefShortTerm
	RefLongTerm
)

// POC is a picture-order-count pair for a frame or complementary field pair;
// a field-only picture leaves the unused half at the zero value, which is
// distinguished from a meaningful 0 via the PicStruct the pair is stored
// alongside.
type POC struct {
	Top    int
	Bottom int
}

// ZigZag4x4 is the inverse zig-zag scan for a 4x4 transform block, shared by
// H.264's scaling-list application and MPEG-2/JPEG's natural-to-zig-zag
// coefficient ordering in spirit (MPEG-2/JPEG use the 8x8 form below).
var ZigZag4x4 = [16]int{
	0, 1, 4, 8,
	5, 2, 3, 6,
	9, 12, 13, 10,
	7, 11, 14, 15,
}

// ZigZag8x8 is the classic 8x8 zig-zag scan order used by MPEG-2, JPEG and
// H.264's 8x8 transform, mapping scan position to raster index.
var ZigZag8x8 = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Alternate8x8 is the alternate (non-zig-zag) scan used by MPEG-2 when
// alternate_scan is selected in the picture coding extension.
var Alternate8x8 = [64]int{
	0, 8, 16, 24, 1, 9, 2, 10,
	17, 25, 32, 40, 48, 56, 57, 49,
	41, 33, 26, 18, 3, 11, 4, 12,
	19, 27, 34, 42, 50, 58, 35, 43,
	51, 59, 20, 28, 5, 13, 6, 14,
	21, 29, 36, 44, 52, 60, 37, 45,
	53, 61, 22, 30, 7, 15, 23, 31,
	38, 46, 54, 62, 39, 47, 55, 63,
}
