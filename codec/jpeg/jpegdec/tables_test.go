package jpegdec

import (
	"testing"

	"github.com/ausocean/vidcore/errs"
)

func TestParseDQTTwoTables(t *testing.T) {
	payload := make([]byte, 0, 2*65)
	payload = append(payload, 0) // precision 0, id 0
	for i := 0; i < 64; i++ {
		payload = append(payload, byte(i))
	}
	payload = append(payload, 1) // precision 0, id 1
	for i := 0; i < 64; i++ {
		payload = append(payload, byte(63-i))
	}

	tables, err := ParseDQT(payload)
	if err != nil {
		t.Fatalf("ParseDQT: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("len(tables) = %d, want 2", len(tables))
	}
	if tables[0].ID != 0 || tables[1].ID != 1 {
		t.Errorf("table ids = %d,%d, want 0,1", tables[0].ID, tables[1].ID)
	}
	if tables[0].Values[5] != 5 {
		t.Errorf("table 0 value[5] = %d, want 5", tables[0].Values[5])
	}
}

func TestParseDQTRejectsBadID(t *testing.T) {
	payload := append([]byte{0x40}, make([]byte, 64)...) // id 4, out of range.
	_, err := ParseDQT(payload)
	if !errs.Is(err, errs.KindOutOfRange) {
		t.Fatalf("ParseDQT with id 4 = %v, want KindOutOfRange", err)
	}
}

func TestParseDHTSingleDCTable(t *testing.T) {
	counts := make([]byte, 16)
	counts[0] = 2
	payload := append([]byte{0x00}, counts...)
	payload = append(payload, 0x05, 0x06)

	dc, ac, err := ParseDHT(payload)
	if err != nil {
		t.Fatalf("ParseDHT: %v", err)
	}
	if len(dc) != 1 || len(ac) != 0 {
		t.Fatalf("len(dc)=%d len(ac)=%d, want 1,0", len(dc), len(ac))
	}
	if dc[0].Values[0] != 0x05 || dc[0].Values[1] != 0x06 {
		t.Errorf("dc values = %x, want [05 06]", dc[0].Values)
	}
}

func TestParseDACConditioning(t *testing.T) {
	payload := []byte{
		0x00, 0x12, // DC table 0, Cs = lower 2, upper 1.
		0x15, 0x03, // AC table 5 -> invalid id, expect error below instead.
	}
	_, err := ParseDAC(payload)
	if !errs.Is(err, errs.KindOutOfRange) {
		t.Fatalf("ParseDAC with id 5 = %v, want KindOutOfRange", err)
	}

	ok := []byte{0x10, 0x07} // AC table 0, Kx = 7.
	tables, err := ParseDAC(ok)
	if err != nil {
		t.Fatalf("ParseDAC: %v", err)
	}
	if len(tables) != 1 || !tables[0].IsAC || tables[0].KX != 7 {
		t.Errorf("table = %+v, want IsAC=true KX=7", tables[0])
	}
}

func TestParseDRI(t *testing.T) {
	ri, err := ParseDRI([]byte{0x01, 0x00})
	if err != nil {
		t.Fatalf("ParseDRI: %v", err)
	}
	if ri != 256 {
		t.Errorf("RestartInterval = %d, want 256", ri)
	}

	if _, err := ParseDRI([]byte{0x01}); err == nil {
		t.Error("ParseDRI on 1-byte payload succeeded, want error")
	}
}

func TestDefaultTablesShape(t *testing.T) {
	if len(DefaultACLuminanceHuffman.Values) != 162 {
		t.Errorf("len(DefaultACLuminanceHuffman.Values) = %d, want 162", len(DefaultACLuminanceHuffman.Values))
	}
	if len(DefaultDCLuminanceHuffman.Values) != 12 {
		t.Errorf("len(DefaultDCLuminanceHuffman.Values) = %d, want 12", len(DefaultDCLuminanceHuffman.Values))
	}
	sum := 0
	for _, c := range DefaultACLuminanceHuffman.Counts {
		sum += c
	}
	if sum != len(DefaultACLuminanceHuffman.Values) {
		t.Errorf("sum(Counts) = %d, want %d", sum, len(DefaultACLuminanceHuffman.Values))
	}
}
