package snapshot

import (
	"math"
	"testing"

	"github.com/powerinfo/powerinfo/pkg/registry"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

// Fixed-supply PDOs in raw wire encoding.
const (
	pdo5V3A  = 100<<10 | 300
	pdo9V3A  = 180<<10 | 300
	pdo20V5A = 400<<10 | 500
)

func pdControllerProps() registry.PropertySet {
	return registry.PropertySet{
		"PortControllerInfo": []interface{}{
			map[string]interface{}{
				// Idle port advertising the full sink capability set.
				"PortControllerActiveContractRdo": uint64(0),
				"PortControllerPortPDO": []interface{}{
					uint64(pdo5V3A), uint64(pdo9V3A), uint64(pdo20V5A),
				},
			},
			map[string]interface{}{
				"PortControllerActiveContractRdo": uint64(2<<28 | 300<<10 | 500),
				"PortControllerMaxPower":          uint64(100000),
				"PortControllerFwVersion":         uint64(0x010203),
				"PortControllerNPDOs":             uint64(4),
				"PortControllerNEprPDOs":          uint64(1),
				"PortControllerPowerState":        uint64(0x06),
				"PortControllerPortMode":          uint64(2),
				"PortControllerPortPDO":           []interface{}{uint64(pdo5V3A)},
			},
		},
		"FedDetails": []interface{}{
			map[string]interface{}{"FedPdSpecRevision": uint64(2), "FedPortPowerRole": uint64(0)},
			map[string]interface{}{"FedPdSpecRevision": uint64(3), "FedPortPowerRole": uint64(0)},
		},
	}
}

func TestBuildUsbPD(t *testing.T) {
	pd := buildUsbPD(pdControllerProps())
	if pd == nil {
		t.Fatal("expected a PD record")
	}

	if ptr.Deref(pd.SpecVersion, "") != "3.1" {
		t.Errorf("SpecVersion = %v, want 3.1 from the active port's FED entry", pd.SpecVersion)
	}
	if ptr.Deref(pd.PowerRole, "") != "Sink" || ptr.Deref(pd.DataRole, "") != "UFP" {
		t.Errorf("roles = %v/%v, want Sink/UFP", pd.PowerRole, pd.DataRole)
	}
	if ptr.Deref(pd.FwVersion, "") != "1.2.3" {
		t.Errorf("FwVersion = %v", pd.FwVersion)
	}
	if ptr.Deref(pd.NumPDOs, -1) != 4 || ptr.Deref(pd.NumEprPDOs, -1) != 1 {
		t.Errorf("PDO counts = %v/%v", pd.NumPDOs, pd.NumEprPDOs)
	}
	if ptr.Deref(pd.PowerState, "") != "0x06 (Attached.SNK)" {
		t.Errorf("PowerState = %v", pd.PowerState)
	}
	if ptr.Deref(pd.PortMode, "") != "DRP (Dual Role Port)" {
		t.Errorf("PortMode = %v", pd.PortMode)
	}
	if math.Abs(ptr.Deref(pd.MaxPowerW, 0)-100) > 1e-9 {
		t.Errorf("MaxPowerW = %v, want 100", pd.MaxPowerW)
	}
	if pd.ActiveRDO == nil {
		t.Fatal("expected the active contract")
	}
	if pd.ActiveRDO.ObjectPosition != 2 || math.Abs(pd.ActiveRDO.MaxCurrentA-5) > 1e-9 {
		t.Errorf("ActiveRDO = %+v", pd.ActiveRDO)
	}

	// Sink capabilities come from the idle port, which carries the full set.
	if len(pd.SinkCapabilities) != 3 {
		t.Fatalf("SinkCapabilities = %v, want the idle port's 3 profiles", pd.SinkCapabilities)
	}
	if math.Abs(pd.SinkCapabilities[2].PowerW-100) > 1e-9 {
		t.Errorf("profile 3 = %vW, want 100", pd.SinkCapabilities[2].PowerW)
	}
}

func TestBuildUsbPDAbsent(t *testing.T) {
	if pd := buildUsbPD(nil); pd != nil {
		t.Error("nil props should yield nil")
	}
	if pd := buildUsbPD(registry.PropertySet{"CycleCount": uint64(10)}); pd != nil {
		t.Error("a machine without a PD controller should yield nil")
	}
	// Ports exist but none ever negotiated a contract.
	props := registry.PropertySet{
		"PortControllerInfo": []interface{}{
			map[string]interface{}{"PortControllerActiveContractRdo": uint64(0)},
			map[string]interface{}{"PortControllerActiveContractRdo": uint64(0)},
		},
	}
	if pd := buildUsbPD(props); pd != nil {
		t.Errorf("no active contract should yield nil, got %+v", pd)
	}
}

func TestActivePort(t *testing.T) {
	tests := []struct {
		name  string
		ports []registry.PropertySet
		want  int
	}{
		{
			name: "contract with power wins over bare contract",
			ports: []registry.PropertySet{
				{"PortControllerActiveContractRdo": uint64(1)},
				{"PortControllerActiveContractRdo": uint64(2), "PortControllerMaxPower": uint64(96000)},
			},
			want: 1,
		},
		{
			name: "bare contract as fallback",
			ports: []registry.PropertySet{
				{"PortControllerActiveContractRdo": uint64(0)},
				{"PortControllerActiveContractRdo": uint64(7)},
			},
			want: 1,
		},
		{
			name: "no contract anywhere",
			ports: []registry.PropertySet{
				{"PortControllerActiveContractRdo": uint64(0)},
			},
			want: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := activePort(tt.ports); got != tt.want {
				t.Errorf("activePort() = %d, want %d", got, tt.want)
			}
		})
	}
}
