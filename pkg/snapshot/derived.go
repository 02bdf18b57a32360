package snapshot

import (
	"math"

	"github.com/powerinfo/powerinfo/pkg/types"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

// Charging-rate classification bounds, in watts.
const (
	fastChargeW    = 20
	trickleChargeW = 5
)

// Virtual-temperature plausibility range.
const (
	virtualTempMinC = -20.0
	virtualTempMaxC = 80.0
)

// GateConfig carries the empirically tuned thresholds for the
// virtual-temperature reliability gate.
type GateConfig struct {
	MinCurrentMa  int
	MaxDeviationC float64
}

// DefaultGateConfig matches the tuning the estimates were validated against.
var DefaultGateConfig = GateConfig{MinCurrentMa: 100, MaxDeviationC: 10}

// computeDerived fills rec.Derived from rec's own fields plus the sampled
// power metrics. It never reads a source directly.
func computeDerived(rec *types.BatteryRecord, pm *types.PowerMetrics, gate GateConfig) {
	d := &rec.Derived

	d.Percent, d.PercentKnown = percentage(rec)

	if rec.DesignCapacityMah > 0 && rec.FullChargeCapacityMah != nil {
		h := int(math.Round(float64(*rec.FullChargeCapacityMah) / float64(rec.DesignCapacityMah) * 100))
		d.HealthPercent = ptr.To(h)
	}
	if rec.DesignCycleCount != nil && *rec.DesignCycleCount > 0 {
		d.LifespanUsedPct = ptr.To(float64(rec.CycleCount) / float64(*rec.DesignCycleCount) * 100)
	}

	if d.HealthPercent != nil {
		var imbalance *int
		var resistance *float64
		if rec.Diagnostics != nil {
			imbalance = rec.Diagnostics.CellImbalanceMv
			resistance = rec.Diagnostics.InternalResistMohm
		}
		d.HealthScore = ptr.To(healthScore(*d.HealthPercent, rec.CycleCount, imbalance, resistance))
		d.EstCyclesTo80 = cyclesTo80(*d.HealthPercent, rec.CycleCount)
	}

	chargingPower(rec, d)
	d.VirtualTempC = gatedVirtualTemp(rec, gate)

	if pm != nil {
		pm.Flow = powerFlow(rec, pm)
	}
}

// percentage resolves the battery charge percentage through the fallback
// chain. The OS-reported percentage wins over a recomputed ratio when the
// raw capacity fields are already percentages.
func percentage(rec *types.BatteryRecord) (int, bool) {
	inPctRange := func(p *int) bool { return p != nil && *p >= 0 && *p <= 100 }

	if inPctRange(rec.MaxCapacityRaw) && inPctRange(rec.CurrentCapacityRaw) {
		return *rec.CurrentCapacityRaw, true
	}
	if rec.FullChargeCapacityMah != nil && *rec.FullChargeCapacityMah > 0 && rec.CurrentCapacityMah != nil && *rec.CurrentCapacityMah >= 0 {
		return capacityRatio(*rec.CurrentCapacityMah, *rec.FullChargeCapacityMah), true
	}
	if rec.MaxCapacityRaw != nil && *rec.MaxCapacityRaw > 100 && rec.CurrentCapacityMah != nil && *rec.CurrentCapacityMah >= 0 {
		return capacityRatio(*rec.CurrentCapacityMah, *rec.MaxCapacityRaw), true
	}
	return 0, false
}

func capacityRatio(current, max int) int {
	p := int(math.Round(float64(current) / float64(max) * 100))
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

// healthScore blends capacity health with cycle wear, cell balance, and
// internal resistance. Missing diagnostics contribute their full tier: an
// incomplete gauge readout must not drag the score down.
func healthScore(healthPct, cycleCount int, imbalanceMv *int, resistanceMohm *float64) types.HealthScore {
	cycleTier := func() float64 {
		switch {
		case cycleCount < 100:
			return 100
		case cycleCount < 300:
			return 90
		case cycleCount < 500:
			return 80
		case cycleCount < 800:
			return 60
		default:
			return 40
		}
	}()

	balanceTier := 100.0
	if imbalanceMv != nil {
		switch {
		case *imbalanceMv < 10:
			balanceTier = 100
		case *imbalanceMv < 50:
			balanceTier = 80
		default:
			balanceTier = 50
		}
	}

	resistanceTier := 100.0
	if resistanceMohm != nil {
		r := *resistanceMohm
		switch {
		case r < 80:
			resistanceTier = 100
		case r < 120:
			resistanceTier = 90
		case r < 180:
			resistanceTier = 70
		default:
			resistanceTier = math.Max(40, 40-(r-180)/10)
		}
	}

	score := int(math.Round(float64(healthPct)*0.4 + cycleTier*0.3 + balanceTier*0.2 + resistanceTier*0.1))

	var grade, desc string
	switch {
	case score >= 95:
		grade, desc = "A+", "Excellent"
	case score >= 85:
		grade, desc = "A", "Very Good"
	case score >= 75:
		grade, desc = "B", "Good"
	case score >= 60:
		grade, desc = "C", "Fair"
	default:
		grade, desc = "D", "Poor"
	}
	return types.HealthScore{Score: score, Grade: grade, Description: desc}
}

// cyclesTo80 projects how many more cycles until health reaches 80%. Zero
// measurable wear yields nil (unknown), not infinity.
func cyclesTo80(healthPct, cycleCount int) *int {
	if healthPct <= 80 {
		return ptr.To(0)
	}
	degradationPerCycle := float64(100-healthPct) / math.Max(float64(cycleCount), 1)
	if degradationPerCycle == 0 {
		return nil
	}
	remaining := int(math.Round(float64(healthPct-80) / degradationPerCycle))
	return ptr.To(remaining)
}

// chargingPower computes the instantaneous charge power and its
// classification, plus the efficiency percentages when the inputs allow.
func chargingPower(rec *types.BatteryRecord, d *types.DerivedMetrics) {
	if rec.VoltageV == nil || rec.AmperageMa == nil || *rec.AmperageMa <= 0 {
		return
	}
	powerW := *rec.VoltageV * float64(*rec.AmperageMa) / 1000.0
	d.BatteryChargePowerW = ptr.To(powerW)
	d.FastCharging = powerW > fastChargeW
	d.TrickleCharging = powerW > 0 && powerW < trickleChargeW

	if t := rec.Telemetry; t != nil {
		if t.AdapterPowerInW != nil && *t.AdapterPowerInW > 0 && powerW > 0 {
			eff := powerW / *t.AdapterPowerInW * 100
			if eff <= 100 {
				d.ChargingEfficiencyPct = ptr.To(eff)
			}
		}
		if t.AdapterPowerInW != nil && t.AdapterLossW != nil && *t.AdapterPowerInW > 0 && *t.AdapterLossW >= 0 {
			d.AdapterEfficiencyPct = ptr.To((*t.AdapterPowerInW - *t.AdapterLossW) / *t.AdapterPowerInW * 100)
		}
	}
}

// gatedVirtualTemp surfaces the gauge's secondary temperature estimate only
// when the battery is electrically active, the value is physically plausible,
// and it tracks the sensed temperature. Outside the envelope it is
// suppressed entirely rather than shown with a caveat.
func gatedVirtualTemp(rec *types.BatteryRecord, gate GateConfig) *float64 {
	if rec.Diagnostics == nil || rec.Diagnostics.VirtualTempC == nil {
		return nil
	}
	vt := *rec.Diagnostics.VirtualTempC

	active := rec.IsCharging
	if !active && rec.AmperageMa != nil && *rec.AmperageMa < -gate.MinCurrentMa {
		active = true
	}
	if !active {
		return nil
	}
	if vt < virtualTempMinC || vt > virtualTempMaxC {
		return nil
	}
	if rec.TemperatureC == nil {
		return nil
	}
	deviation := math.Abs(vt - *rec.TemperatureC)
	if deviation < 2 || deviation > gate.MaxDeviationC {
		return nil
	}
	return ptr.To(vt)
}

// powerFlow derives the real-time power budget from the sampled component
// total and the battery's charge/discharge power.
func powerFlow(rec *types.BatteryRecord, pm *types.PowerMetrics) *types.PowerFlow {
	var batteryW float64
	if rec.VoltageV != nil && rec.AmperageMa != nil {
		batteryW = *rec.VoltageV * float64(*rec.AmperageMa) / 1000.0
	}

	flow := &types.PowerFlow{BatteryFlowW: batteryW}
	if batteryW >= 0 && rec.ExternalConnected {
		flow.SystemLoadW = pm.TotalW
		flow.AdapterInW = math.Abs(batteryW) + pm.TotalW
	} else {
		flow.SystemLoadW = math.Abs(batteryW)
		flow.AdapterInW = 0
	}

	if flow.SystemLoadW > pm.TotalW {
		other := flow.SystemLoadW - pm.TotalW
		flow.OtherW = ptr.To(other)
	}
	return flow
}
