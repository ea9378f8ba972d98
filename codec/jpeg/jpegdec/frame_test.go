package jpegdec

import (
	"testing"

	"github.com/ausocean/vidcore/errs"
	"github.com/google/go-cmp/cmp"
)

func TestParseFrameHeaderBaseline(t *testing.T) {
	payload := []byte{
		8, 0, 10, 0, 10, 3,
		1, 0x22, 0,
		2, 0x11, 1,
		3, 0x11, 1,
	}
	fh, err := ParseFrameHeader(MarkerSOF0, payload)
	if err != nil {
		t.Fatalf("ParseFrameHeader: %v", err)
	}
	if fh.ImageWidth != 10 || fh.ImageHeight != 10 {
		t.Errorf("dimensions = %dx%d, want 10x10", fh.ImageWidth, fh.ImageHeight)
	}
	if fh.DataPrecision != 8 {
		t.Errorf("DataPrecision = %d, want 8", fh.DataPrecision)
	}
	if !fh.IsBaseline {
		t.Error("IsBaseline = false for SOF0")
	}
	if len(fh.Components) != 3 {
		t.Fatalf("len(Components) = %d, want 3", len(fh.Components))
	}
	if fh.Components[0].HSampling != 2 || fh.Components[0].VSampling != 2 {
		t.Errorf("component 0 sampling = %d,%d, want 2,2", fh.Components[0].HSampling, fh.Components[0].VSampling)
	}
}

func TestParseFrameHeaderRejectsZeroDimension(t *testing.T) {
	payload := []byte{8, 0, 0, 0, 10, 1, 1, 0x11, 0}
	_, err := ParseFrameHeader(MarkerSOF0, payload)
	if !errs.Is(err, errs.KindInvalidData) {
		t.Fatalf("ParseFrameHeader with zero height = %v, want KindInvalidData", err)
	}
}

func TestParseFrameHeaderRejectsDuplicateComponentID(t *testing.T) {
	payload := []byte{
		8, 0, 4, 0, 4, 2,
		1, 0x11, 0,
		1, 0x11, 0,
	}
	_, err := ParseFrameHeader(MarkerSOF0, payload)
	if !errs.Is(err, errs.KindInvalidData) {
		t.Fatalf("ParseFrameHeader with duplicate component id = %v, want KindInvalidData", err)
	}
}

func TestParseFrameHeaderShortRead(t *testing.T) {
	_, err := ParseFrameHeader(MarkerSOF0, []byte{8, 0, 4})
	if !errs.Is(err, errs.KindShortRead) {
		t.Fatalf("ParseFrameHeader on short payload = %v, want KindShortRead", err)
	}
}

func TestParseFrameHeaderMatchesExpectedStruct(t *testing.T) {
	payload := []byte{
		8, 0, 1, 0, 1, 1,
		1, 0x11, 0,
	}
	got, err := ParseFrameHeader(MarkerSOF0, payload)
	if err != nil {
		t.Fatalf("ParseFrameHeader: %v", err)
	}
	want := &FrameHeader{
		Marker:        MarkerSOF0,
		DataPrecision: 8,
		ImageHeight:   1,
		ImageWidth:    1,
		IsBaseline:    true,
		Components:    []FrameComponent{{ID: 1, HSampling: 1, VSampling: 1, QuantTable: 0}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseFrameHeader mismatch (-want +got):\n%s", diff)
	}
}
