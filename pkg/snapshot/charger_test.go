package snapshot

import (
	"math"
	"testing"

	"github.com/powerinfo/powerinfo/pkg/profiler"
	"github.com/powerinfo/powerinfo/pkg/registry"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

func adapterProps() registry.PropertySet {
	return registry.PropertySet{
		"ExternalConnected": true,
		"IsCharging":        true,
		"AdapterDetails": map[string]interface{}{
			"Watts":          uint64(140),
			"Description":    "pd charger",
			"AdapterVoltage": uint64(28000),
			"Current":        uint64(5000),
			"FamilyCode":     uint64(0xE0004216),
			"AdapterID":      uint64(0x0D),
			"IsWireless":     false,
			"MaxPower":       uint64(140),
			"UsbHvcMenu": []interface{}{
				map[string]interface{}{"MaxVoltage": uint64(5000), "MaxCurrent": uint64(3000)},
				map[string]interface{}{"MaxVoltage": uint64(9000), "MaxCurrent": uint64(3000)},
				map[string]interface{}{"MaxVoltage": uint64(28000), "MaxCurrent": uint64(5000)},
			},
			"UsbHvcHvcIndex": uint64(2),
		},
	}
}

func TestBuildCharger(t *testing.T) {
	c := buildCharger(adapterProps(), nil)
	if c == nil {
		t.Fatal("expected a charger record")
	}
	if !c.Connected || !c.IsCharging {
		t.Errorf("connected/charging = %v/%v", c.Connected, c.IsCharging)
	}
	if ptr.Deref(c.Watts, -1) != 140 {
		t.Errorf("Watts = %v, want 140", c.Watts)
	}
	if math.Abs(ptr.Deref(c.VoltageV, 0)-28) > 1e-9 || math.Abs(ptr.Deref(c.CurrentA, 0)-5) > 1e-9 {
		t.Errorf("contract = %vV %vA, want 28V 5A", c.VoltageV, c.CurrentA)
	}
	if ptr.Deref(c.AdapterText, "") != "Apple 140W USB-C Power Adapter (ID: 0x0D)" {
		t.Errorf("AdapterText = %v", c.AdapterText)
	}
	if ptr.Deref(c.FamilyText, "") != "0xE0004216 (USB-C PD charger)" {
		t.Errorf("FamilyText = %v", c.FamilyText)
	}
	if ptr.Deref(c.IsWireless, true) {
		t.Error("IsWireless should be false")
	}
	if ptr.Deref(c.MaxSystemPowerW, -1) != 140 {
		t.Errorf("MaxSystemPowerW = %v, want 140", c.MaxSystemPowerW)
	}

	if len(c.SourceCapabilities) != 3 {
		t.Fatalf("SourceCapabilities = %v", c.SourceCapabilities)
	}
	if math.Abs(c.SourceCapabilities[1].PowerW-27) > 1e-9 {
		t.Errorf("profile 2 = %vW, want 27", c.SourceCapabilities[1].PowerW)
	}
	if ptr.Deref(c.ActiveProfileIndex, -1) != 2 {
		t.Errorf("ActiveProfileIndex = %v, want 2", c.ActiveProfileIndex)
	}
	if c.ActiveProfile == nil || math.Abs(c.ActiveProfile.PowerW-140) > 1e-9 {
		t.Errorf("ActiveProfile = %+v, want the 140W entry", c.ActiveProfile)
	}
}

func TestBuildChargerActiveProfileSkippedEntry(t *testing.T) {
	// An incomplete menu entry is skipped; the active profile must still be
	// found by its 1-based number, not by position in the filtered slice.
	props := registry.PropertySet{
		"ExternalConnected": true,
		"AdapterDetails": map[string]interface{}{
			"UsbHvcMenu": []interface{}{
				map[string]interface{}{"MaxVoltage": uint64(5000), "MaxCurrent": uint64(3000)},
				map[string]interface{}{"MaxVoltage": uint64(9000)}, // no MaxCurrent
				map[string]interface{}{"MaxVoltage": uint64(20000), "MaxCurrent": uint64(5000)},
			},
			"UsbHvcHvcIndex": uint64(2),
		},
	}
	c := buildCharger(props, nil)
	if c == nil {
		t.Fatal("expected a charger record")
	}
	if len(c.SourceCapabilities) != 2 {
		t.Fatalf("SourceCapabilities = %v", c.SourceCapabilities)
	}
	if c.ActiveProfile == nil || c.ActiveProfile.Number != 3 {
		t.Fatalf("ActiveProfile = %+v, want menu entry 3", c.ActiveProfile)
	}
	if math.Abs(c.ActiveProfile.PowerW-100) > 1e-9 {
		t.Errorf("ActiveProfile.PowerW = %v, want 100", c.ActiveProfile.PowerW)
	}
}

func TestBuildChargerDisconnected(t *testing.T) {
	props := registry.PropertySet{"ExternalConnected": false}
	if c := buildCharger(props, nil); c != nil {
		t.Errorf("disconnected adapter should yield nil, got %+v", c)
	}
	if c := buildCharger(nil, nil); c != nil {
		t.Error("nil inputs should yield nil")
	}
}

func TestBuildChargerProfilerFillOnly(t *testing.T) {
	rep := &profiler.PowerReport{
		ChargerConnected: true,
		ChargerName:      "140W USB-C Power Adapter",
		ChargerSerial:    "C4H12345",
		ChargerWatts:     ptr.To(140),
	}

	// Registry absent entirely: profiler alone establishes the record.
	c := buildCharger(nil, rep)
	if c == nil {
		t.Fatal("profiler-reported charger should yield a record")
	}
	if ptr.Deref(c.Description, "") != "140W USB-C Power Adapter" {
		t.Errorf("Description = %v", c.Description)
	}
	if ptr.Deref(c.Watts, -1) != 140 {
		t.Errorf("Watts = %v", c.Watts)
	}

	// Registry present: its fields win, profiler fills the gaps.
	c = buildCharger(adapterProps(), rep)
	if ptr.Deref(c.Description, "") != "pd charger" {
		t.Errorf("registry description should win, got %v", c.Description)
	}
	if ptr.Deref(c.Serial, "") != "C4H12345" {
		t.Errorf("profiler should fill absent serial, got %v", c.Serial)
	}
}
