// Package errs defines the error kinds shared by every codec parser in this
// module, following the coded-error pattern used elsewhere in this codebase.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a parse operation failed.
type Kind int

const (
	// KindUnknown is the zero value and should not be returned by a parser.
	KindUnknown Kind = iota

	// KindShortRead indicates the buffer ended mid-syntax-element.
	KindShortRead

	// KindInvalidData indicates a syntax violation, e.g. an illegal
	// parameter-set id or a reserved value.
	KindInvalidData

	// KindOutOfRange indicates a validated field exceeded its
	// specification-mandated range.
	KindOutOfRange

	// KindMissingReference indicates a slice header refers to a PPS/SPS/VPS
	// that has not been parsed.
	KindMissingReference

	// KindUnsupported indicates a recognised profile or feature that this
	// parser does not implement.
	KindUnsupported

	// KindDuplicateMarker indicates a JPEG SOI or EOI marker repeated.
	KindDuplicateMarker

	// KindMissingKeyframe indicates a VP8 inter-frame arrived before any
	// key-frame had been observed.
	KindMissingKeyframe
)

func (k Kind) String() string {
	switch k {
	case KindShortRead:
		return "short read"
	case KindInvalidData:
		return "invalid data"
	case KindOutOfRange:
		return "out of range"
	case KindMissingReference:
		return "missing reference"
	case KindUnsupported:
		return "unsupported"
	case KindDuplicateMarker:
		return "duplicate marker"
	case KindMissingKeyframe:
		return "missing keyframe"
	default:
		return "unknown"
	}
}

// Error is a parser error tagged with a Kind so that callers can branch on
// failure category without string matching.
type Error struct {
	Kind  Kind
	Field string // Name of the syntax element being parsed, if applicable.
	Msg   string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Msg)
}

// New returns a new Error of the given kind.
func New(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Field tags an error with the syntax-element name that was being read when
// it occurred, preserving the Kind of an existing *Error or defaulting to
// KindShortRead for an error from elsewhere (e.g. an io error).
func Field(err error, field string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if as, ok := errors.Cause(err).(*Error); ok {
		e = &Error{Kind: as.Kind, Field: field, Msg: as.Msg}
	} else {
		e = &Error{Kind: KindShortRead, Field: field, Msg: err.Error()}
	}
	return e
}

// Wrap attaches additional context to err while preserving its Kind, mirroring
// the github.com/pkg/errors wrapping idiom used throughout this module.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of err, or KindUnknown if err is not (or does not
// wrap) an *Error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is, or wraps, an *Error of the given Kind.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

// Sentinel errors for conditions with no field-specific context.
var (
	ErrShortRead         = New(KindShortRead, "buffer ended mid-syntax-element")
	ErrMissingKeyframe    = New(KindMissingKeyframe, "inter picture arrived before a key frame")
	ErrDuplicateSOI       = New(KindDuplicateMarker, "duplicate SOI marker")
	ErrDuplicateEOI       = New(KindDuplicateMarker, "duplicate EOI marker")
)
