package decode

import "fmt"

// chemistryNames maps known gauge chemistry IDs to chemistry names.
var chemistryNames = map[int64]string{
	29960: "Li-ion (Standard)",
	29961: "Li-ion (High Energy)",
	29962: "Li-ion (High Power)",
	29963: "Li-ion Polymer",
}

// ChemistryID decodes a gauge chemistry ID. Unknown IDs get a generic
// lithium-ion label carrying the raw ID; an unknown chemistry is not an
// error, just an undocumented pack.
func ChemistryID(id int64) string {
	if name, ok := chemistryNames[id]; ok {
		return fmt.Sprintf("%s (ID: %d)", name, id)
	}
	return fmt.Sprintf("Li-ion (ID: %d)", id)
}

// adapterNames maps known adapter IDs to model names.
var adapterNames = map[int64]string{
	0x00: "Generic/Third-Party Charger",
	0x01: "Apple 5W USB Power Adapter",
	0x02: "Apple 10W USB Power Adapter",
	0x03: "Apple 12W USB Power Adapter",
	0x04: "Apple 18W USB-C Power Adapter",
	0x05: "Apple 20W USB-C Power Adapter",
	0x06: "Apple 29W USB-C Power Adapter",
	0x07: "Apple 30W USB-C Power Adapter",
	0x08: "Apple 35W Dual USB-C Power Adapter",
	0x09: "Apple 61W USB-C Power Adapter",
	0x0A: "Apple 67W USB-C Power Adapter",
	0x0B: "Apple 87W USB-C Power Adapter",
	0x0C: "Apple 96W USB-C Power Adapter",
	0x0D: "Apple 140W USB-C Power Adapter",
	0x0E: "Apple MagSafe Power Adapter",
	0x0F: "Apple MagSafe 2 Power Adapter",
	0x10: "Apple MagSafe 3 Power Adapter",
}

// AdapterID decodes a vendor adapter ID to a model name.
func AdapterID(id int64) string {
	if name, ok := adapterNames[id]; ok {
		return fmt.Sprintf("%s (ID: 0x%02X)", name, id)
	}
	return fmt.Sprintf("Unknown (ID: 0x%02X)", id)
}

// AdapterFamily classifies a 32-bit charger family code. Exact meanings are
// unpublished, but the high byte separates the known generations.
func AdapterFamily(code int64) string {
	switch byte(code >> 24) {
	case 0xE0:
		return fmt.Sprintf("0x%08X (USB-C PD charger)", code)
	case 0x00:
		if byte(code>>16) == 0x00 {
			return fmt.Sprintf("0x%08X (Legacy/MagSafe charger)", code)
		}
	}
	return fmt.Sprintf("0x%08X (Unknown charger type)", code)
}

// portPowerStates maps USB Type-C port controller power states to the
// connection state machine names.
var portPowerStates = map[int64]string{
	0x00: "Disabled",
	0x01: "ErrorRecovery",
	0x02: "Unattached.SNK",
	0x03: "Unattached.SRC",
	0x04: "AttachWait.SNK",
	0x05: "AttachWait.SRC",
	0x06: "Attached.SNK",
	0x07: "Attached.SRC",
	0x08: "Try.SRC",
	0x09: "Try.SNK",
	0x0A: "TryWait.SNK",
	0x0B: "TryWait.SRC",
	0x0C: "AudioAccessory",
	0x0D: "DebugAccessory.SNK",
	0x0E: "DebugAccessory.SRC",
	0xFF: "Active/Normal Operation",
}

// PortPowerState decodes a port controller power state value.
func PortPowerState(state int64) string {
	if name, ok := portPowerStates[state]; ok {
		return fmt.Sprintf("0x%02X (%s)", state, name)
	}
	return fmt.Sprintf("0x%02X (Unknown state)", state)
}

// PortMode decodes the port controller mode.
func PortMode(mode int64) string {
	switch mode {
	case 0:
		return "DFP (Downstream Facing Port)"
	case 1:
		return "UFP (Upstream Facing Port)"
	case 2:
		return "DRP (Dual Role Port)"
	}
	return fmt.Sprintf("Mode %d", mode)
}

// PDSpecRevision maps the controller's revision value to the PD spec
// version string.
func PDSpecRevision(rev int64) string {
	switch rev {
	case 0:
		return "1.0"
	case 1:
		return "2.0"
	case 2:
		return "3.0"
	case 3:
		return "3.1"
	}
	return fmt.Sprintf("%d", rev)
}

// PortFwVersion renders the packed port controller firmware version as
// major.minor.patch.
func PortFwVersion(raw int64) string {
	return fmt.Sprintf("%d.%d.%d", raw>>16&0xFF, raw>>8&0xFF, raw&0xFF)
}

// HibernationMode names the pmset hibernatemode codes that have defined
// meanings; everything else is reported as a bare mode number.
func HibernationMode(mode int64) string {
	switch mode {
	case 0:
		return "No hibernation"
	case 3:
		return "Safe sleep (default)"
	case 25:
		return "Hibernation for desktops"
	}
	return fmt.Sprintf("Mode %d", mode)
}
