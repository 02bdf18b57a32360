// Package format renders a snapshot as sectioned, colored text. Absent
// fields are omitted entirely; a missing reading never prints as zero.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/powerinfo/powerinfo/pkg/decode"
	"github.com/powerinfo/powerinfo/pkg/types"
)

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

// Write renders the full snapshot report.
func Write(w io.Writer, snap *types.BatterySnapshot) {
	writeBattery(w, &snap.Battery)
	writeCharger(w, snap.Charger)
	writeUsbPD(w, snap.UsbPD)
	writePowerMetrics(w, snap.PowerMetrics, snap.Display)
	writePowerMgmt(w, snap.PowerMgmt)
	writeSystem(w, &snap.SystemInfo)
}

func writeBattery(w io.Writer, b *types.BatteryRecord) {
	fmt.Fprintln(w, bold("Battery:"))

	if b.Derived.PercentKnown {
		fmt.Fprintf(w, "  Charge: %s\n", bold("%d%%", b.Derived.Percent))
	}
	state := "not charging"
	switch {
	case b.IsCharging:
		state = color.GreenString("charging")
	case b.AmperageMa != nil && *b.AmperageMa < 0:
		state = color.RedString("discharging")
	case b.FullyCharged:
		state = "full"
	}
	fmt.Fprintf(w, "  State: %s\n", bold("%s", state))

	if b.CurrentCapacityMah != nil {
		fmt.Fprintf(w, "  Current capacity: %s\n", bold("%d mAh", *b.CurrentCapacityMah))
	}
	if b.FullChargeCapacityMah != nil {
		fmt.Fprintf(w, "  Full charge capacity: %s\n", bold("%d mAh", *b.FullChargeCapacityMah))
	}
	if b.DesignCapacityMah > 0 {
		fmt.Fprintf(w, "  Design capacity: %s\n", bold("%d mAh", b.DesignCapacityMah))
	}
	if b.Derived.HealthPercent != nil {
		fmt.Fprintf(w, "  Health: %s\n", bold("%d%%", *b.Derived.HealthPercent))
	}
	if hs := b.Derived.HealthScore; hs != nil {
		fmt.Fprintf(w, "  Health score: %s\n", bold("%d (%s, %s)", hs.Score, hs.Grade, hs.Description))
	}
	if b.Condition != nil {
		cond := *b.Condition
		if b.ServiceRecommended {
			fmt.Fprintf(w, "  Condition: %s\n", color.New(color.Bold, color.FgYellow).Sprint(cond))
		} else {
			fmt.Fprintf(w, "  Condition: %s\n", bold("%s", cond))
		}
	}
	fmt.Fprintf(w, "  Cycle count: %s", bold("%d", b.CycleCount))
	if b.DesignCycleCount != nil {
		fmt.Fprintf(w, " / %d design", *b.DesignCycleCount)
	}
	fmt.Fprintln(w)
	if b.Derived.EstCyclesTo80 != nil && *b.Derived.EstCyclesTo80 > 0 {
		fmt.Fprintf(w, "  Est. cycles to 80%% health: %s\n", bold("~%d", *b.Derived.EstCyclesTo80))
	}

	if b.VoltageV != nil {
		fmt.Fprintf(w, "  Voltage: %s\n", bold("%.2f V", *b.VoltageV))
	}
	if b.AmperageMa != nil {
		fmt.Fprintf(w, "  Amperage: %s\n", signedMa(*b.AmperageMa))
	}
	if b.TemperatureC != nil {
		fmt.Fprintf(w, "  Temperature: %s\n", bold("%.1f°C", *b.TemperatureC))
	}
	if b.Derived.VirtualTempC != nil {
		fmt.Fprintf(w, "  Virtual temperature: %s\n", bold("%.1f°C", *b.Derived.VirtualTempC))
	}
	if b.Derived.BatteryChargePowerW != nil {
		rate := *b.Derived.BatteryChargePowerW
		suffix := ""
		if b.Derived.FastCharging {
			suffix = " (fast)"
		} else if b.Derived.TrickleCharging {
			suffix = " (trickle)"
		}
		fmt.Fprintf(w, "  Charge power: %s%s\n", bold("%.1f W", rate), suffix)
	}
	if b.TimeRemainingMin != nil {
		fmt.Fprintf(w, "  Time remaining: %s\n", bold("%s", decode.HumanMinutes(*b.TimeRemainingMin)))
	}
	if b.TimeToFullMin != nil {
		fmt.Fprintf(w, "  Time to full: %s\n", bold("%s", decode.HumanMinutes(*b.TimeToFullMin)))
	}

	writeIdentity(w, b)
	writeDiagnostics(w, b.Diagnostics)
	writeLifetime(w, b.Lifetime)
	fmt.Fprintln(w)
}

func writeIdentity(w io.Writer, b *types.BatteryRecord) {
	if b.Serial != nil {
		fmt.Fprintf(w, "  Serial: %s\n", *b.Serial)
	}
	if b.DeviceName != nil {
		fmt.Fprintf(w, "  Device: %s\n", *b.DeviceName)
	}
	if b.Manufacturer != nil {
		fmt.Fprintf(w, "  Manufacturer: %s\n", *b.Manufacturer)
	}
	if b.ChemistryID != nil {
		fmt.Fprintf(w, "  Chemistry: %s\n", *b.ChemistryID)
	} else if b.Chemistry != nil {
		fmt.Fprintf(w, "  Chemistry: %s\n", *b.Chemistry)
	}
	if b.FirmwareVersion != nil {
		fmt.Fprintf(w, "  Firmware: %s\n", *b.FirmwareVersion)
	}
	if d := b.ManufactureDate; d != nil {
		fmt.Fprintf(w, "  Manufactured: %04d-%02d-%02d", d.Year, d.Month, d.Day)
		if b.BatteryAgeDays != nil {
			fmt.Fprintf(w, " (%d days old)", *b.BatteryAgeDays)
		}
		fmt.Fprintln(w)
	}
}

func writeDiagnostics(w io.Writer, d *types.DiagnosticsRecord) {
	if d == nil {
		return
	}
	if len(d.CellVoltagesMv) > 0 {
		cells := make([]string, len(d.CellVoltagesMv))
		for i, v := range d.CellVoltagesMv {
			cells[i] = fmt.Sprintf("%d", v)
		}
		fmt.Fprintf(w, "  Cell voltages: %s mV", strings.Join(cells, " / "))
		if d.CellImbalanceMv != nil {
			fmt.Fprintf(w, " (Δ %d mV)", *d.CellImbalanceMv)
		}
		fmt.Fprintln(w)
	}
	if d.InternalResistMohm != nil {
		fmt.Fprintf(w, "  Internal resistance: %.0f mΩ\n", *d.InternalResistMohm)
	}
	if d.GaugeSocPercent != nil {
		fmt.Fprintf(w, "  Gauge SoC: %d%%\n", *d.GaugeSocPercent)
	}
	if d.GaugeFlagsText != nil {
		fmt.Fprintf(w, "  Gauge flags: %s\n", *d.GaugeFlagsText)
	}
	if d.NotChargingText != nil {
		fmt.Fprintf(w, "  Not charging reason: %s\n", *d.NotChargingText)
	}
	if d.ChargerInhibitText != nil {
		fmt.Fprintf(w, "  Charger inhibit: %s\n", *d.ChargerInhibitText)
	}
}

func writeLifetime(w io.Writer, lt *types.LifetimeRecord) {
	if lt == nil {
		return
	}
	if lt.OperatingTimeMin != nil {
		fmt.Fprintf(w, "  Operating time: %s\n", decode.HumanMinutes(*lt.OperatingTimeMin))
	}
	if lt.MinTemperatureC != nil && lt.MaxTemperatureC != nil {
		fmt.Fprintf(w, "  Lifetime temperature: %.1f°C … %.1f°C\n", *lt.MinTemperatureC, *lt.MaxTemperatureC)
	}
}

func writeCharger(w io.Writer, c *types.ChargerRecord) {
	if c == nil {
		return
	}
	fmt.Fprintln(w, bold("Charger:"))
	fmt.Fprintf(w, "  Connected: %s\n", bool2Text(c.Connected))
	if c.Description != nil {
		fmt.Fprintf(w, "  Adapter: %s\n", bold("%s", *c.Description))
	}
	if c.Watts != nil {
		fmt.Fprintf(w, "  Rated power: %s\n", bold("%d W", *c.Watts))
	}
	if c.VoltageV != nil && c.CurrentA != nil {
		fmt.Fprintf(w, "  Contract: %s\n", bold("%.1f V × %.2f A", *c.VoltageV, *c.CurrentA))
	}
	if c.FamilyText != nil {
		fmt.Fprintf(w, "  Family: %s\n", *c.FamilyText)
	}
	if c.IsWireless != nil && *c.IsWireless {
		fmt.Fprintln(w, "  Type: MagSafe (wireless)")
	}
	if len(c.SourceCapabilities) > 0 {
		fmt.Fprintln(w, "  Source capabilities:")
		for _, p := range c.SourceCapabilities {
			marker := " "
			if c.ActiveProfileIndex != nil && p.Number == *c.ActiveProfileIndex+1 {
				marker = color.GreenString("*")
			}
			fmt.Fprintf(w, "  %s %s\n", marker, profileLine(p))
		}
	}
	fmt.Fprintln(w)
}

func writeUsbPD(w io.Writer, pd *types.UsbPdRecord) {
	if pd == nil {
		return
	}
	fmt.Fprintln(w, bold("USB-C Power Delivery:"))
	if pd.SpecVersion != nil {
		fmt.Fprintf(w, "  PD spec: %s\n", bold("%s", *pd.SpecVersion))
	}
	if pd.PowerRole != nil {
		fmt.Fprintf(w, "  Power role: %s\n", *pd.PowerRole)
	}
	if pd.PortMode != nil {
		fmt.Fprintf(w, "  Port mode: %s\n", *pd.PortMode)
	}
	if pd.PowerState != nil {
		fmt.Fprintf(w, "  Power state: %s\n", *pd.PowerState)
	}
	if pd.FwVersion != nil {
		fmt.Fprintf(w, "  Controller firmware: %s\n", *pd.FwVersion)
	}
	if pd.MaxPowerW != nil {
		fmt.Fprintf(w, "  Max power: %s\n", bold("%.1f W", *pd.MaxPowerW))
	}
	if rdo := pd.ActiveRDO; rdo != nil {
		fmt.Fprintf(w, "  Active contract: object %d, %.2f A operating / %.2f A max\n",
			rdo.ObjectPosition, rdo.OperatingCurrentA, rdo.MaxCurrentA)
	}
	if len(pd.SinkCapabilities) > 0 {
		fmt.Fprintln(w, "  Sink capabilities:")
		for _, p := range pd.SinkCapabilities {
			fmt.Fprintf(w, "    %s\n", profileLine(p))
		}
	}
	fmt.Fprintln(w)
}

func profileLine(p types.PowerProfile) string {
	if p.IsVariable {
		return fmt.Sprintf("#%d PPS %.1f-%.1f V × %.2f A (%.1f W)",
			p.Number, p.MinVoltageV, p.MaxVoltageV, p.CurrentA, p.PowerW)
	}
	return fmt.Sprintf("#%d %.1f V × %.2f A (%.1f W)", p.Number, p.VoltageV, p.CurrentA, p.PowerW)
}

func writePowerMetrics(w io.Writer, pm *types.PowerMetrics, display *types.DisplayRecord) {
	if pm == nil {
		return
	}
	fmt.Fprintln(w, bold("Power breakdown:"))
	fmt.Fprintf(w, "  CPU: %s\n", bold("%.2f W", pm.CPUPowerW))
	fmt.Fprintf(w, "  GPU: %s\n", bold("%.2f W", pm.GPUPowerW))
	fmt.Fprintf(w, "  ANE: %s\n", bold("%.2f W", pm.ANEPowerW))
	fmt.Fprintf(w, "  DRAM: %s\n", bold("%.2f W", pm.DRAMPowerW))
	fmt.Fprintf(w, "  Total: %s\n", bold("%.2f W", pm.TotalW))
	fmt.Fprintf(w, "  Thermal pressure: %s\n", bold("%s", pm.ThermalPressure))
	if display != nil {
		fmt.Fprintf(w, "  Display: %.0f%% brightness, ~%.1f W\n",
			display.BrightnessPercent, display.EstimatedPowerW)
	}
	if f := pm.Flow; f != nil {
		fmt.Fprintf(w, "  Adapter in: %.1f W, battery flow: %s, system load: %.1f W\n",
			f.AdapterInW, signedW(f.BatteryFlowW), f.SystemLoadW)
	}
	fmt.Fprintln(w)
}

func writePowerMgmt(w io.Writer, mgmt *types.PowerMgmtRecord) {
	if mgmt == nil {
		return
	}
	fmt.Fprintln(w, bold("Power management:"))
	if mgmt.LowPowerMode != nil {
		fmt.Fprintf(w, "  Low power mode: %s\n", bool2Text(*mgmt.LowPowerMode))
	}
	if mgmt.HibernationText != nil {
		fmt.Fprintf(w, "  Hibernation: %s\n", *mgmt.HibernationText)
	}
	if mgmt.WakeOnLAN != nil {
		fmt.Fprintf(w, "  Wake on LAN: %s\n", bool2Text(*mgmt.WakeOnLAN))
	}
	if mgmt.PowerNap != nil {
		fmt.Fprintf(w, "  Power Nap: %s\n", bool2Text(*mgmt.PowerNap))
	}
	for i, a := range mgmt.Assertions {
		if i >= 5 {
			break
		}
		fmt.Fprintf(w, "  Assertion: %s (%s)\n", a.Name, a.Type)
	}
	for _, ev := range mgmt.PowerSourceHistory {
		fmt.Fprintf(w, "  %s  %s\n", ev.Timestamp, ev.Source)
	}
	for _, ev := range mgmt.SleepWakeHistory {
		fmt.Fprintf(w, "  %s  %s\n", ev.Timestamp, ev.Event)
	}
	for _, ev := range mgmt.ScheduledEvents {
		fmt.Fprintf(w, "  Scheduled %s at %s (%s)\n", ev.Kind, ev.Time, ev.Reason)
	}
	fmt.Fprintln(w)
}

func writeSystem(w io.Writer, s *types.SystemRecord) {
	fmt.Fprintln(w, bold("System:"))
	fmt.Fprintf(w, "  Model: %s\n", s.ModelIdentifier)
	fmt.Fprintf(w, "  Chip: %s\n", s.Chip)
	if s.MemoryGB > 0 {
		fmt.Fprintf(w, "  Memory: %d GB\n", s.MemoryGB)
	}
	if s.PhysicalCores > 0 {
		fmt.Fprintf(w, "  Cores: %d physical / %d logical\n", s.PhysicalCores, s.LogicalCores)
	}
}

func signedMa(ma int) string {
	switch {
	case ma > 0:
		return color.New(color.Bold, color.FgGreen).Sprintf("%+d mA", ma)
	case ma < 0:
		return color.New(color.Bold, color.FgRed).Sprintf("%+d mA", ma)
	default:
		return bold("%d mA", ma)
	}
}

func signedW(w float64) string {
	switch {
	case w > 0:
		return color.New(color.Bold, color.FgGreen).Sprintf("%+.1f W", w)
	case w < 0:
		return color.New(color.Bold, color.FgRed).Sprintf("%+.1f W", w)
	default:
		return bold("%.1f W", w)
	}
}
