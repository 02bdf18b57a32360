package snapshot

import (
	"github.com/powerinfo/powerinfo/pkg/decode"
	"github.com/powerinfo/powerinfo/pkg/profiler"
	"github.com/powerinfo/powerinfo/pkg/registry"
	"github.com/powerinfo/powerinfo/pkg/types"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

var maxSystemPowerCandidates = registry.Candidates{
	"AdapterDetails.MaxPower",
	"AdapterDetails.MaximumPower",
}

// buildCharger assembles the ChargerRecord from the battery service's
// adapter dictionary plus the profiler's charger block. Returns nil when no
// external power is connected: a charger record never exists just to say
// "not connected".
func buildCharger(props registry.PropertySet, rep *profiler.PowerReport) *types.ChargerRecord {
	connected := false
	if props != nil {
		connected, _ = props.Bool("ExternalConnected")
	}
	if !connected && (rep == nil || !rep.ChargerConnected) {
		return nil
	}

	c := &types.ChargerRecord{Connected: true}
	if props != nil {
		c.IsCharging, _ = props.Bool("IsCharging")
	}

	if props != nil {
		if adapter, ok := props.Dict("AdapterDetails"); ok {
			fillAdapterDetails(adapter, c)
		}
		if v, ok := props.Int("BestAdapterIndex"); ok {
			c.BestPortIndex = ptr.To(int(v))
		}
		if v, ok := maxSystemPowerCandidates.LookupInt(props); ok {
			c.MaxSystemPowerW = ptr.To(int(v))
		}
		if v, ok := props.Int("ChargerConfiguration"); ok {
			c.ConfigRaw = ptr.To(int(v))
			c.ConfigText = ptr.To(decode.ChargerConfig(v))
		}
	}

	// The profiler's charger identity wins over nothing: it only fills
	// fields the registry left empty.
	if rep != nil {
		if c.Description == nil && rep.ChargerName != "" {
			c.Description = ptr.To(rep.ChargerName)
		}
		if c.Serial == nil && rep.ChargerSerial != "" {
			c.Serial = ptr.To(rep.ChargerSerial)
		}
		if c.Watts == nil && rep.ChargerWatts != nil {
			c.Watts = rep.ChargerWatts
		}
	}

	return c
}

func fillAdapterDetails(adapter registry.PropertySet, c *types.ChargerRecord) {
	if v, ok := adapter.Int("Watts"); ok {
		c.Watts = ptr.To(int(v))
	}
	if s, ok := adapter.Str("Description"); ok {
		c.Description = ptr.To(s)
	}
	if s, ok := adapter.Str("SerialString"); ok {
		c.Serial = ptr.To(s)
	}
	if v, ok := adapter.Bool("IsWireless"); ok {
		c.IsWireless = ptr.To(v)
	}
	if v, ok := adapter.Int("AdapterVoltage"); ok {
		c.VoltageV = ptr.To(float64(v) / 1000.0)
	}
	if v, ok := adapter.Int("Current"); ok {
		c.CurrentA = ptr.To(float64(v) / 1000.0)
	}
	if v, ok := adapter.Int("FamilyCode"); ok {
		c.FamilyCode = ptr.To(v)
		c.FamilyText = ptr.To(decode.AdapterFamily(v))
	}
	if v, ok := adapter.Int("AdapterID"); ok {
		c.AdapterID = ptr.To(int(v))
		c.AdapterText = ptr.To(decode.AdapterID(v))
	}

	// Source capabilities come from the adapter's high-voltage-charging
	// menu; the active entry is selected by index.
	menu, hasMenu := adapter.DictList("UsbHvcMenu")
	if hasMenu {
		c.SourceCapabilities = hvcProfiles(menu)
	}
	if v, ok := adapter.Int("UsbHvcHvcIndex"); ok {
		idx := int(v)
		c.ActiveProfileIndex = ptr.To(idx)
		// Profile numbers are 1-based menu positions; match on Number rather
		// than slice index since incomplete entries are skipped.
		for _, p := range c.SourceCapabilities {
			if p.Number == idx+1 {
				active := p
				c.ActiveProfile = &active
				break
			}
		}
	}
}

// hvcProfiles converts menu entries (mV/mA) into PowerProfiles. Entries
// missing either field are skipped without renumbering the rest.
func hvcProfiles(menu []registry.PropertySet) []types.PowerProfile {
	var out []types.PowerProfile
	for i, item := range menu {
		mv, okV := item.Int("MaxVoltage")
		ma, okC := item.Int("MaxCurrent")
		if !okV || !okC {
			continue
		}
		p := types.PowerProfile{
			Number:   i + 1,
			VoltageV: float64(mv) / 1000.0,
			CurrentA: float64(ma) / 1000.0,
		}
		p.PowerW = p.VoltageV * p.CurrentA
		out = append(out, p)
	}
	return out
}
