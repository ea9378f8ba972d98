package jpegdec

import (
	"testing"

	"github.com/ausocean/vidcore/errs"
)

func threeComponentFrame() *FrameHeader {
	return &FrameHeader{
		Components: []FrameComponent{
			{ID: 1, HSampling: 2, VSampling: 2, QuantTable: 0},
			{ID: 2, HSampling: 1, VSampling: 1, QuantTable: 1},
			{ID: 3, HSampling: 1, VSampling: 1, QuantTable: 1},
		},
	}
}

func TestParseScanHeaderThreeComponents(t *testing.T) {
	payload := []byte{3, 1, 0x00, 2, 0x11, 3, 0x11, 0, 63, 0}
	sh, err := ParseScanHeader(payload, threeComponentFrame())
	if err != nil {
		t.Fatalf("ParseScanHeader: %v", err)
	}
	if sh.NumComponents != 3 {
		t.Errorf("NumComponents = %d, want 3", sh.NumComponents)
	}
	if sh.Components[1].DCTable != 1 || sh.Components[1].ACTable != 1 {
		t.Errorf("component 1 tables = %d,%d, want 1,1", sh.Components[1].DCTable, sh.Components[1].ACTable)
	}
	if sh.SpectralSelectionEnd != 63 {
		t.Errorf("SpectralSelectionEnd = %d, want 63", sh.SpectralSelectionEnd)
	}
}

func TestParseScanHeaderRejectsUnknownSelector(t *testing.T) {
	payload := []byte{1, 9, 0x00, 0, 63, 0}
	_, err := ParseScanHeader(payload, threeComponentFrame())
	if !errs.Is(err, errs.KindInvalidData) {
		t.Fatalf("ParseScanHeader with unknown selector = %v, want KindInvalidData", err)
	}
}

func TestParseScanHeaderLengthMismatch(t *testing.T) {
	payload := []byte{1, 1, 0x00, 0, 63} // Missing the final Ah/Al byte.
	_, err := ParseScanHeader(payload, threeComponentFrame())
	if !errs.Is(err, errs.KindInvalidData) {
		t.Fatalf("ParseScanHeader with short length = %v, want KindInvalidData", err)
	}
}

func TestParseScanHeaderNilFrame(t *testing.T) {
	payload := []byte{1, 1, 0x00, 0, 63, 0}
	_, err := ParseScanHeader(payload, nil)
	if !errs.Is(err, errs.KindMissingReference) {
		t.Fatalf("ParseScanHeader with nil frame = %v, want KindMissingReference", err)
	}
}
