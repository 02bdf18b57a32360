package decode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NoneFlags is what every bit-flag decoder returns for a raw value of zero.
const NoneFlags = "None (0x00)"

// undocumentedCaveat is appended to registers whose bit meanings the vendor
// has never published. Those decoders report set bit positions only; they
// must not invent semantic labels.
const undocumentedCaveat = "bit meanings undocumented"

// BitFlags renders a status register with a documented bit layout: the labels
// of all set bits, comma-joined, plus the raw hex value for traceability.
// Set bits without a label fall back to the hex value alone.
func BitFlags(raw int64, labels map[uint]string) string {
	if raw == 0 {
		return NoneFlags
	}

	var active []string
	bits := make([]uint, 0, len(labels))
	for bit := range labels {
		bits = append(bits, bit)
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })
	for _, bit := range bits {
		if raw&(1<<bit) != 0 {
			active = append(active, labels[bit])
		}
	}

	if len(active) == 0 {
		return fmt.Sprintf("0x%04X", raw)
	}
	return fmt.Sprintf("%s (0x%04X)", strings.Join(active, ", "), raw)
}

// BitPositions renders a register with no documented layout: the raw hex
// value, the list of set bit positions, and the undocumented caveat.
func BitPositions(raw int64) string {
	if raw == 0 {
		return NoneFlags
	}

	var set []string
	for bit := uint(0); bit < 64; bit++ {
		if raw&(1<<bit) != 0 {
			set = append(set, strconv.Itoa(int(bit)))
		}
	}
	return fmt.Sprintf("0x%04X (bits: %s; %s)", raw, strings.Join(set, ", "), undocumentedCaveat)
}

// gaugeFlagLabels is the documented fuel-gauge status register layout.
var gaugeFlagLabels = map[uint]string{
	0:  "Discharge Detected",
	1:  "Charge Termination",
	2:  "Overcharge Detection",
	3:  "Terminate Discharge Alarm",
	4:  "Over-Temperature Alarm",
	5:  "Terminate Charge Alarm",
	6:  "Impedance Measured",
	7:  "Fully Charged",
	8:  "Discharge Inhibit",
	9:  "Charge Inhibit",
	10: "Voltage OK",
	11: "Ready",
	12: "Qualified for Use",
	13: "Fast Charge OK",
	14: "Battery Present",
	15: "Valid Data",
}

// GaugeFlags decodes the fuel-gauge status register.
func GaugeFlags(raw int64) string {
	return BitFlags(raw, gaugeFlagLabels)
}

// MiscStatus decodes the miscellaneous battery status register, which has no
// published bit layout.
func MiscStatus(raw int64) string {
	return BitPositions(raw)
}

// ChargerConfig decodes the charger configuration register, which has no
// published bit layout.
func ChargerConfig(raw int64) string {
	return BitPositions(raw)
}

var notChargingLabels = map[uint]string{
	0:  "Battery fully charged",
	1:  "Optimized charging active",
	2:  "Battery too hot",
	3:  "Battery too cold",
	4:  "Charging suspended by system load",
	5:  "Battery health management",
	6:  "Charge limit reached",
	7:  "Adapter power insufficient",
	8:  "System load exceeds adapter supply",
	9:  "Waiting for optimal charging time",
	10: "Battery conditioning",
	11: "Thermal management",
	12: "Battery calibration",
	13: "Power management override",
	15: "Charger error",
}

// NotChargingReason explains why the battery is not charging on external
// power.
func NotChargingReason(raw int64) string {
	return BitFlags(raw, notChargingLabels)
}

var chargerInhibitLabels = map[uint]string{
	0: "Battery too hot",
	1: "Battery too cold",
	2: "System thermal limiting",
	3: "Optimized battery charging",
	4: "Battery charge limit",
	5: "Adapter insufficient",
	6: "Battery health protection",
}

// ChargerInhibitReason explains why charging is currently restricted.
func ChargerInhibitReason(raw int64) string {
	return BitFlags(raw, chargerInhibitLabels)
}

var slowChargingLabels = map[uint]string{
	0: "Battery near full",
	1: "Thermal limiting",
	2: "Battery health protection",
	3: "Optimized charging enabled",
	4: "Low power adapter",
	5: "System load too high",
	6: "Battery temperature protection",
	7: "Charge limit active",
	8: "Battery conditioning",
	9: "Aging compensation",
}

// SlowChargingReason explains why charge power is below normal.
func SlowChargingReason(raw int64) string {
	return BitFlags(raw, slowChargingLabels)
}

var permanentFailureLabels = map[uint]string{
	0: "Cell imbalance failure",
	1: "Safety circuit failure",
	2: "Charge FET failure",
	3: "Discharge FET failure",
	4: "Thermistor failure",
	5: "Fuse blown",
	6: "AFE failure",
	7: "Cell failure",
	8: "Over-temperature failure",
	9: "Under-temperature failure",
}

// PermanentFailure decodes the catastrophic-failure register. Anything other
// than NoneFlags here means the pack needs service.
func PermanentFailure(raw int64) string {
	return BitFlags(raw, permanentFailureLabels)
}
