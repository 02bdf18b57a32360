package decode

import "testing"

func TestChemistryID(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want string
	}{
		{name: "known", id: 29963, want: "Li-ion Polymer (ID: 29963)"},
		{name: "unknown", id: 12345, want: "Li-ion (ID: 12345)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChemistryID(tt.id); got != tt.want {
				t.Errorf("ChemistryID(%d) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestAdapterID(t *testing.T) {
	if got := AdapterID(0x0D); got != "Apple 140W USB-C Power Adapter (ID: 0x0D)" {
		t.Errorf("AdapterID(0x0D) = %q", got)
	}
	if got := AdapterID(0x7F); got != "Unknown (ID: 0x7F)" {
		t.Errorf("AdapterID(0x7F) = %q", got)
	}
}

func TestAdapterFamily(t *testing.T) {
	tests := []struct {
		name string
		code int64
		want string
	}{
		{name: "usb-c pd", code: 0xE0004216, want: "0xE0004216 (USB-C PD charger)"},
		{name: "legacy", code: 0x00000085, want: "0x00000085 (Legacy/MagSafe charger)"},
		{name: "unknown", code: 0x12340000, want: "0x12340000 (Unknown charger type)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdapterFamily(tt.code); got != tt.want {
				t.Errorf("AdapterFamily(%#x) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestPortPowerState(t *testing.T) {
	if got := PortPowerState(0x06); got != "0x06 (Attached.SNK)" {
		t.Errorf("PortPowerState(0x06) = %q", got)
	}
	if got := PortPowerState(0x42); got != "0x42 (Unknown state)" {
		t.Errorf("PortPowerState(0x42) = %q", got)
	}
}

func TestPortMode(t *testing.T) {
	if got := PortMode(2); got != "DRP (Dual Role Port)" {
		t.Errorf("PortMode(2) = %q", got)
	}
	if got := PortMode(9); got != "Mode 9" {
		t.Errorf("PortMode(9) = %q", got)
	}
}

func TestPDSpecRevision(t *testing.T) {
	tests := []struct {
		rev  int64
		want string
	}{
		{rev: 0, want: "1.0"},
		{rev: 1, want: "2.0"},
		{rev: 2, want: "3.0"},
		{rev: 3, want: "3.1"},
		{rev: 7, want: "7"},
	}
	for _, tt := range tests {
		if got := PDSpecRevision(tt.rev); got != tt.want {
			t.Errorf("PDSpecRevision(%d) = %q, want %q", tt.rev, got, tt.want)
		}
	}
}

func TestPortFwVersion(t *testing.T) {
	if got := PortFwVersion(0x010203); got != "1.2.3" {
		t.Errorf("PortFwVersion(0x010203) = %q, want 1.2.3", got)
	}
}

func TestHibernationMode(t *testing.T) {
	if got := HibernationMode(3); got != "Safe sleep (default)" {
		t.Errorf("HibernationMode(3) = %q", got)
	}
	if got := HibernationMode(7); got != "Mode 7" {
		t.Errorf("HibernationMode(7) = %q", got)
	}
}
