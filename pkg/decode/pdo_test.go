package decode

import (
	"math"
	"testing"
)

// fixedPDO packs a fixed-supply PDO from 50mV/10mA units.
func fixedPDO(voltageUnits, currentUnits uint32) uint32 {
	return voltageUnits<<10 | currentUnits
}

// ppsPDO packs a programmable-supply PDO from 100mV/50mA units.
func ppsPDO(maxVoltageUnits, minVoltageUnits, currentUnits uint32) uint32 {
	return 3<<30 | maxVoltageUnits<<17 | minVoltageUnits<<8 | currentUnits
}

func TestPDOFixed(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint32
		wantV    float64
		wantA    float64
	}{
		{name: "5V 3A", raw: fixedPDO(100, 300), wantV: 5, wantA: 3},
		{name: "20V 5A", raw: fixedPDO(400, 500), wantV: 20, wantA: 5},
		{name: "9V 2.22A", raw: fixedPDO(180, 222), wantV: 9, wantA: 2.22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := PDO(tt.raw, 1)
			if !ok {
				t.Fatal("expected decode to succeed")
			}
			if p.IsVariable {
				t.Error("fixed supply decoded as variable")
			}
			if math.Abs(p.VoltageV-tt.wantV) > 1e-9 {
				t.Errorf("VoltageV = %v, want %v", p.VoltageV, tt.wantV)
			}
			if math.Abs(p.CurrentA-tt.wantA) > 1e-9 {
				t.Errorf("CurrentA = %v, want %v", p.CurrentA, tt.wantA)
			}
			if math.Abs(p.PowerW-tt.wantV*tt.wantA) > 1e-9 {
				t.Errorf("PowerW = %v, want %v", p.PowerW, tt.wantV*tt.wantA)
			}
		})
	}
}

func TestPDOVariable(t *testing.T) {
	// 3.3-21V PPS at 5A: max 210 units, min 33 units, current 100 units.
	p, ok := PDO(ppsPDO(210, 33, 100), 4)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if !p.IsVariable {
		t.Error("PPS supply not flagged variable")
	}
	if p.MinVoltageV > p.MaxVoltageV {
		t.Errorf("min voltage %v > max voltage %v", p.MinVoltageV, p.MaxVoltageV)
	}
	if math.Abs(p.MaxVoltageV-21) > 1e-9 || math.Abs(p.MinVoltageV-3.3) > 1e-9 {
		t.Errorf("voltage range = %v-%v, want 3.3-21", p.MinVoltageV, p.MaxVoltageV)
	}
	if math.Abs(p.CurrentA-5) > 1e-9 {
		t.Errorf("CurrentA = %v, want 5", p.CurrentA)
	}
	if math.Abs(p.PowerW-105) > 1e-9 {
		t.Errorf("PowerW = %v, want 105", p.PowerW)
	}
}

func TestPDOUnsupportedTypes(t *testing.T) {
	// Battery (01) and variable non-PPS (10) supplies must yield nothing.
	for _, raw := range []uint32{1<<30 | 12345, 2<<30 | 12345} {
		if _, ok := PDO(raw, 1); ok {
			t.Errorf("PDO(%#x) decoded, want rejection", raw)
		}
	}
	if _, ok := PDO(0, 1); ok {
		t.Error("PDO(0) decoded, want rejection")
	}
}

func TestPDOList(t *testing.T) {
	raws := []int64{
		int64(fixedPDO(100, 300)),
		0, // skipped, but numbering continues
		int64(fixedPDO(400, 500)),
	}
	got := PDOList(raws)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Number != 1 || got[1].Number != 3 {
		t.Errorf("numbers = %d, %d, want 1, 3", got[0].Number, got[1].Number)
	}
}

func TestRDO(t *testing.T) {
	// Object position 2, operating 3A (300 units), max 5A (500 units).
	raw := uint32(2<<28 | 300<<10 | 500)
	rdo, ok := RDO(raw)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if rdo.ObjectPosition != 2 {
		t.Errorf("ObjectPosition = %d, want 2", rdo.ObjectPosition)
	}
	if math.Abs(rdo.OperatingCurrentA-3) > 1e-9 {
		t.Errorf("OperatingCurrentA = %v, want 3", rdo.OperatingCurrentA)
	}
	if math.Abs(rdo.MaxCurrentA-5) > 1e-9 {
		t.Errorf("MaxCurrentA = %v, want 5", rdo.MaxCurrentA)
	}

	if _, ok := RDO(0); ok {
		t.Error("RDO(0) decoded, want rejection")
	}
}
