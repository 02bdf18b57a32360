// Package decode turns raw registry and utility values into typed,
// human-meaningful ones. Every function is pure and absent-in/absent-out:
// a value that does not fit its encoding yields no result, never a zero
// that could pass for a real reading.
package decode

import "github.com/powerinfo/powerinfo/pkg/types"

// PDO decodes a 32-bit USB-C Power Data Object. The top two bits select the
// supply type: 0 = fixed, 3 = programmable (PPS). Types 1 and 2 (battery and
// variable non-PPS supplies) are not decoded; returning a guess would be
// worse than returning nothing.
//
// Fixed supplies encode voltage in 50 mV units (bits 10-19) and current in
// 10 mA units (bits 0-9). PPS supplies encode max voltage in 100 mV units
// (bits 17-24), min voltage in 100 mV units (bits 8-15), and max current in
// 50 mA units (bits 0-6). Power is always derived as V x I.
func PDO(raw uint32, number int) (types.PowerProfile, bool) {
	if raw == 0 {
		return types.PowerProfile{}, false
	}

	switch raw >> 30 & 0x3 {
	case 0:
		voltageMv := int((raw >> 10 & 0x3FF) * 50)
		currentMa := int((raw & 0x3FF) * 10)
		v := float64(voltageMv) / 1000.0
		a := float64(currentMa) / 1000.0
		return types.PowerProfile{
			Number:   number,
			VoltageV: v,
			CurrentA: a,
			PowerW:   v * a,
		}, true
	case 3:
		maxMv := int((raw >> 17 & 0xFF) * 100)
		minMv := int((raw >> 8 & 0xFF) * 100)
		currentMa := int((raw & 0x7F) * 50)
		v := float64(maxMv) / 1000.0
		a := float64(currentMa) / 1000.0
		return types.PowerProfile{
			Number:      number,
			VoltageV:    v,
			CurrentA:    a,
			PowerW:      v * a,
			IsVariable:  true,
			MinVoltageV: float64(minMv) / 1000.0,
			MaxVoltageV: v,
		}, true
	}
	return types.PowerProfile{}, false
}

// RDO decodes a 32-bit Request Data Object: the contract negotiated from the
// source's PDO list. Object position (bits 28-30) is the 1-based index of the
// chosen PDO; currents are in 10 mA units.
func RDO(raw uint32) (types.RequestObject, bool) {
	if raw == 0 {
		return types.RequestObject{}, false
	}
	return types.RequestObject{
		Raw:               raw,
		ObjectPosition:    int(raw >> 28 & 0x7),
		OperatingCurrentA: float64((raw>>10&0x3FF)*10) / 1000.0,
		MaxCurrentA:       float64((raw&0x3FF)*10) / 1000.0,
	}, true
}

// PDOList decodes a raw PDO array in order, keeping 1-based profile numbers
// aligned with negotiation priority. Zero and undecodable entries are
// skipped without disturbing the numbering of later entries.
func PDOList(raws []int64) []types.PowerProfile {
	var out []types.PowerProfile
	for i, raw := range raws {
		if p, ok := PDO(uint32(raw), i+1); ok {
			out = append(out, p)
		}
	}
	return out
}
