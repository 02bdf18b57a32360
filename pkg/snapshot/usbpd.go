package snapshot

import (
	"github.com/powerinfo/powerinfo/pkg/decode"
	"github.com/powerinfo/powerinfo/pkg/registry"
	"github.com/powerinfo/powerinfo/pkg/types"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

// buildUsbPD assembles the UsbPdRecord from the battery service's port
// controller and front-end-driver lists. Returns nil when no port qualifies:
// "no PD info" is absence, never an empty record.
func buildUsbPD(props registry.PropertySet) *types.UsbPdRecord {
	if props == nil {
		return nil
	}
	ports, ok := props.DictList("PortControllerInfo")
	if !ok {
		return nil
	}
	feds, _ := props.DictList("FedDetails")

	activeIdx := activePort(ports)
	if activeIdx < 0 {
		return nil
	}
	active := ports[activeIdx]

	pd := &types.UsbPdRecord{}

	if activeIdx < len(feds) {
		fed := feds[activeIdx]
		if rev, ok := fed.Int("FedPdSpecRevision"); ok {
			pd.SpecVersion = ptr.To(decode.PDSpecRevision(rev))
		}
		powerRole, _ := fed.Int("FedPortPowerRole")
		if powerRole == 0 {
			pd.PowerRole = ptr.To("Sink")
			pd.DataRole = ptr.To("UFP")
		} else {
			pd.PowerRole = ptr.To("Source")
			pd.DataRole = ptr.To("DFP")
		}
	}

	if v, ok := active.Int("PortControllerFwVersion"); ok {
		pd.FwVersion = ptr.To(decode.PortFwVersion(v))
	}
	if v, ok := active.Int("PortControllerNPDOs"); ok {
		pd.NumPDOs = ptr.To(int(v))
	}
	if v, ok := active.Int("PortControllerNEprPDOs"); ok {
		pd.NumEprPDOs = ptr.To(int(v))
	}
	if v, ok := active.Int("PortControllerPowerState"); ok {
		pd.PowerState = ptr.To(decode.PortPowerState(v))
	}
	if v, ok := active.Int("PortControllerPortMode"); ok {
		pd.PortMode = ptr.To(decode.PortMode(v))
	}
	if v, ok := active.Int("PortControllerMaxPower"); ok {
		pd.MaxPowerW = ptr.To(float64(v) / 1000.0)
	}
	if v, ok := active.Int("PortControllerActiveContractRdo"); ok && v != 0 {
		if rdo, valid := decode.RDO(uint32(v)); valid {
			pd.ActiveRDO = &rdo
		}
	}

	pd.SinkCapabilities = sinkCapabilities(ports, activeIdx)

	return pd
}

// activePort picks the port holding the live contract: first port with a
// non-zero RDO and positive max power, else first with a non-zero RDO, else
// none (-1).
func activePort(ports []registry.PropertySet) int {
	fallback := -1
	for i, port := range ports {
		rdo, _ := port.Int("PortControllerActiveContractRdo")
		if rdo == 0 {
			continue
		}
		maxPower, _ := port.Int("PortControllerMaxPower")
		if maxPower > 0 {
			return i
		}
		if fallback < 0 {
			fallback = i
		}
	}
	return fallback
}

// sinkCapabilities prefers a non-active port's PDO list, since the active
// port advertises the negotiated (possibly reduced) set rather than the full
// machine capability. Among non-active ports the one with the most non-zero
// PDOs wins; the active port is the fallback.
func sinkCapabilities(ports []registry.PropertySet, activeIdx int) []types.PowerProfile {
	var best []int64
	bestCount := 0
	for i, port := range ports {
		if i == activeIdx {
			continue
		}
		pdos, ok := port.IntList("PortControllerPortPDO")
		if !ok {
			continue
		}
		count := 0
		for _, p := range pdos {
			if p != 0 {
				count++
			}
		}
		if count > bestCount {
			best = pdos
			bestCount = count
		}
	}
	if best == nil {
		best, _ = ports[activeIdx].IntList("PortControllerPortPDO")
	}
	return decode.PDOList(best)
}
